package http

import (
	"time"

	"github.com/nekogravitycat/car-booking-backend/internal/user"
)

// ListUsersRequest defines query parameters for listing users.
type ListUsersRequest struct {
	Department string `form:"department"`
	Role       string `form:"role" binding:"omitempty,oneof=user admin"`
	IsActive   *bool  `form:"is_active"`
}

// UserResponse is the shape of user data returned in API responses.
type UserResponse struct {
	ID                 string     `json:"id"`
	Username           string     `json:"username"`
	FirstName          string     `json:"first_name"`
	LastName           string     `json:"last_name"`
	Email              string     `json:"email"`
	Phone              string     `json:"phone"`
	Department         string     `json:"department"`
	Role               string     `json:"role"`
	LineLinked         bool       `json:"line_linked"`
	IsActive           bool       `json:"is_active"`
	MustChangePassword bool       `json:"must_change_password"`
	CreatedAt          time.Time  `json:"created_at"`
	LastLoginAt        *time.Time `json:"last_login_at"`
}

func NewUserResponse(u *user.User) UserResponse {
	var lastLoginAt *time.Time
	if u.LastLoginAt != nil {
		ll := *u.LastLoginAt
		lastLoginAt = &ll
	}

	return UserResponse{
		ID:                 u.ID,
		Username:           u.Username,
		FirstName:          u.FirstName,
		LastName:           u.LastName,
		Email:              u.Email,
		Phone:              u.Phone,
		Department:         u.Department,
		Role:               string(u.Role),
		LineLinked:         u.LineUserID != "",
		IsActive:           u.IsActive,
		MustChangePassword: u.MustChangePassword,
		CreatedAt:          u.CreatedAt,
		LastLoginAt:        lastLoginAt,
	}
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	AccessToken string       `json:"access_token"`
	User        UserResponse `json:"user"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required"`
}

type CreateUserRequest struct {
	Username   string `json:"username" binding:"required"`
	Password   string `json:"password" binding:"required"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Email      string `json:"email" binding:"omitempty,email"`
	Phone      string `json:"phone"`
	Department string `json:"department"`
	Role       string `json:"role" binding:"omitempty,oneof=user admin"`
}

// UpdateUserRequest uses pointers to tell "not sent" from "sent as empty".
type UpdateUserRequest struct {
	FirstName  *string `json:"first_name"`
	LastName   *string `json:"last_name"`
	Email      *string `json:"email" binding:"omitempty,email"`
	Phone      *string `json:"phone"`
	Department *string `json:"department"`
	Role       *string `json:"role" binding:"omitempty,oneof=user admin"`
	IsActive   *bool   `json:"is_active"`
	Password   *string `json:"password"`
	ResetLine  bool    `json:"reset_line"`
}

func (r UpdateUserRequest) toDomain() user.UpdateRequest {
	req := user.UpdateRequest{
		FirstName:  r.FirstName,
		LastName:   r.LastName,
		Email:      r.Email,
		Phone:      r.Phone,
		Department: r.Department,
		IsActive:   r.IsActive,
		Password:   r.Password,
		ResetLine:  r.ResetLine,
	}
	if r.Role != nil {
		role := user.Role(*r.Role)
		req.Role = &role
	}
	return req
}
