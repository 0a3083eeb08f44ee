package user

import (
	"net/http"
	"strings"
	"time"

	"github.com/nekogravitycat/car-booking-backend/internal/pkg/apperror"
)

var (
	ErrNotFound             = apperror.New(http.StatusNotFound, "user not found")
	ErrUsernameTaken        = apperror.New(http.StatusConflict, "username already used")
	ErrLineAlreadyLinked    = apperror.New(http.StatusConflict, "this LINE account is linked to another user")
	ErrInvalidCredentials   = apperror.New(http.StatusUnauthorized, "invalid username or password")
	ErrInactiveUser         = apperror.New(http.StatusForbidden, "user is inactive")
	ErrUsernameRequired     = apperror.New(http.StatusBadRequest, "username is required")
	ErrPasswordTooShort     = apperror.New(http.StatusBadRequest, "password must be at least 8 characters")
	ErrInvalidRole          = apperror.New(http.StatusBadRequest, "role must be user or admin")
	ErrWrongCurrentPassword = apperror.New(http.StatusBadRequest, "current password is incorrect")
	ErrCannotDeleteSelf     = apperror.New(http.StatusBadRequest, "you cannot delete your own account")
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// User is an employee who can request cars, or an admin who runs the fleet.
type User struct {
	ID                 string
	Username           string
	PasswordHash       string
	FirstName          string
	LastName           string
	Email              string
	Phone              string
	Department         string
	Role               Role
	LineUserID         string // empty until linked
	IsActive           bool
	MustChangePassword bool
	CreatedAt          time.Time
	LastLoginAt        *time.Time
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// DisplayName falls back to the username when no name is on file.
func (u *User) DisplayName() string {
	if name := strings.TrimSpace(u.FirstName + " " + u.LastName); name != "" {
		return name
	}
	return u.Username
}

// UserFilter defines filter options for listing users.
type UserFilter struct {
	Department string
	Role       Role
	IsActive   *bool // nil does not filter
}
