package linking

import (
	"net/http"
	"time"

	"github.com/nekogravitycat/car-booking-backend/internal/pkg/apperror"
)

var (
	ErrInvalidCode   = apperror.New(http.StatusBadRequest, "link code is invalid or expired")
	ErrCodeCollision = apperror.New(http.StatusConflict, "link code already issued")
	ErrBadSignature  = apperror.New(http.StatusUnauthorized, "invalid webhook signature")
	ErrBadPayload    = apperror.New(http.StatusBadRequest, "invalid webhook payload")
)

// Token is a short-lived code a user types into the LINE chat to bind
// their LINE account. A user holds at most one token.
type Token struct {
	Code      string
	UserID    string
	ExpiresAt time.Time
}

func (t *Token) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}
