package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/car-booking-backend/internal/pkg/apperror"
	"github.com/nekogravitycat/car-booking-backend/internal/pkg/response"
)

var (
	ErrMissingHeader = apperror.New(http.StatusUnauthorized, "missing Authorization header")
	ErrBadHeader     = apperror.New(http.StatusUnauthorized, "invalid Authorization header format")
	ErrInvalidToken  = apperror.New(http.StatusUnauthorized, "invalid or expired token")
)

// AuthRequired is a Gin middleware that validates JWT from Authorization: Bearer <token>
func AuthRequired(jwtManager *JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			abort(c, ErrMissingHeader)
			return
		}

		scheme, tokenStr, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "bearer") || tokenStr == "" {
			abort(c, ErrBadHeader)
			return
		}

		claims, err := jwtManager.ParseAndValidate(tokenStr)
		if err != nil {
			abort(c, ErrInvalidToken)
			return
		}

		SetIdentity(c, claims.UserID, claims.Role)
		c.Next()
	}
}

func abort(c *gin.Context, err error) {
	response.Error(c, err)
	c.Abort()
}
