package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/car-booking-backend/internal/auth"
	"github.com/nekogravitycat/car-booking-backend/internal/pkg/apperror"
	"github.com/nekogravitycat/car-booking-backend/internal/pkg/response"
	"github.com/nekogravitycat/car-booking-backend/internal/user"
)

var (
	ErrUnauthorized       = apperror.New(http.StatusUnauthorized, "unauthorized")
	ErrAdminOnly          = apperror.New(http.StatusForbidden, "forbidden: admin access required")
	ErrAccountDeactivated = apperror.New(http.StatusForbidden, "account is deactivated")
)

type UserLookup interface {
	GetByID(ctx context.Context, id string) (*user.User, error)
}

// RequireAdmin ensures the authenticated user is an active admin.
// It MUST be used after auth.AuthRequired middleware.
func RequireAdmin(users UserLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := auth.GetUserID(c)
		if userID == "" {
			abort(c, ErrUnauthorized)
			return
		}

		// The token's role claim may be stale; the database decides.
		u, err := users.GetByID(c.Request.Context(), userID)
		if err != nil {
			abort(c, ErrUnauthorized)
			return
		}
		if !u.IsActive {
			abort(c, ErrAccountDeactivated)
			return
		}
		if !u.IsAdmin() {
			abort(c, ErrAdminOnly)
			return
		}

		c.Next()
	}
}

func abort(c *gin.Context, err error) {
	response.Error(c, err)
	c.Abort()
}
