package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/car-booking-backend/internal/auth"
	"github.com/nekogravitycat/car-booking-backend/internal/pkg/request"
	"github.com/nekogravitycat/car-booking-backend/internal/pkg/response"
	"github.com/nekogravitycat/car-booking-backend/internal/user"
)

type UserHandler struct {
	userService user.Service
	jwtManager  *auth.JWTManager
}

func NewHandler(userService user.Service, jwtManager *auth.JWTManager) *UserHandler {
	return &UserHandler{
		userService: userService,
		jwtManager:  jwtManager,
	}
}

// Login authenticates by username and password and returns an access token.
func (h *UserHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := request.BindJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}

	u, err := h.userService.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		response.Error(c, err)
		return
	}

	token, err := h.jwtManager.GenerateAccessToken(u.ID, string(u.Role))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		AccessToken: token,
		User:        NewUserResponse(u),
	})
}

// Me returns the profile of the caller.
func (h *UserHandler) Me(c *gin.Context) {
	u, err := h.userService.GetByID(c.Request.Context(), auth.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewUserResponse(u))
}

func (h *UserHandler) ChangePassword(c *gin.Context) {
	var req ChangePasswordRequest
	if err := request.BindJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}

	err := h.userService.ChangePassword(c.Request.Context(), auth.GetUserID(c), req.CurrentPassword, req.NewPassword)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *UserHandler) List(c *gin.Context) {
	var req ListUsersRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Error(c, request.ErrInvalidQuery)
		return
	}

	users, err := h.userService.List(c.Request.Context(), user.UserFilter{
		Department: req.Department,
		Role:       user.Role(req.Role),
		IsActive:   req.IsActive,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]UserResponse, 0, len(users))
	for _, u := range users {
		items = append(items, NewUserResponse(u))
	}
	c.JSON(http.StatusOK, response.NewListResponse(items))
}

func (h *UserHandler) Get(c *gin.Context) {
	id, err := request.BindID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	u, err := h.userService.GetByID(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewUserResponse(u))
}

func (h *UserHandler) Create(c *gin.Context) {
	var body CreateUserRequest
	if err := request.BindJSON(c, &body); err != nil {
		response.Error(c, err)
		return
	}

	u, err := h.userService.Create(c.Request.Context(), user.CreateRequest{
		Username:   body.Username,
		Password:   body.Password,
		FirstName:  body.FirstName,
		LastName:   body.LastName,
		Email:      body.Email,
		Phone:      body.Phone,
		Department: body.Department,
		Role:       user.Role(body.Role),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, NewUserResponse(u))
}

func (h *UserHandler) Update(c *gin.Context) {
	id, err := request.BindID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var body UpdateUserRequest
	if err := request.BindJSON(c, &body); err != nil {
		response.Error(c, err)
		return
	}

	u, err := h.userService.Update(c.Request.Context(), id, body.toDomain())
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewUserResponse(u))
}

func (h *UserHandler) Delete(c *gin.Context) {
	id, err := request.BindID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	if err := h.userService.Delete(c.Request.Context(), id, auth.GetUserID(c)); err != nil {
		response.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
