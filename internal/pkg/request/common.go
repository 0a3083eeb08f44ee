package request

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nekogravitycat/car-booking-backend/internal/pkg/apperror"
)

// ByIDRequest is a common struct for endpoints that require an ID path parameter.
type ByIDRequest struct {
	ID string `uri:"id" binding:"required,uuid"`
}

var ErrInvalidID = apperror.New(http.StatusBadRequest, "invalid id")

// BindID binds and validates the :id path parameter.
func BindID(c *gin.Context) (string, error) {
	var req ByIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		return "", apperror.Wrap(err, ErrInvalidID.Code, ErrInvalidID.Message)
	}
	return req.ID, nil
}

// BindJSON binds the body and reports failures as 400.
func BindJSON(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			return appErr
		}
		return apperror.Wrap(err, http.StatusBadRequest, "invalid request body: "+err.Error())
	}
	return nil
}

var ErrInvalidQuery = apperror.New(http.StatusBadRequest, "invalid query parameters")
