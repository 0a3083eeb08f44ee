package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/car-booking-backend/internal/auth"
	"github.com/nekogravitycat/car-booking-backend/internal/booking"
	"github.com/nekogravitycat/car-booking-backend/internal/pkg/request"
	"github.com/nekogravitycat/car-booking-backend/internal/pkg/response"
	"github.com/nekogravitycat/car-booking-backend/internal/user"
)

// Users resolves the caller's account for role checks.
type Users interface {
	GetByID(ctx context.Context, id string) (*user.User, error)
}

type Handler struct {
	service booking.Service
	users   Users
}

func NewHandler(service booking.Service, users Users) *Handler {
	return &Handler{service: service, users: users}
}

// caller loads the authenticated account. Roles are read from the database
// so a demotion takes effect before the token expires.
func (h *Handler) caller(c *gin.Context) (*user.User, error) {
	return h.users.GetByID(c.Request.Context(), auth.GetUserID(c))
}

func actorOf(u *user.User) booking.Actor {
	return booking.Actor{UserID: u.ID, IsAdmin: u.IsAdmin()}
}

func (h *Handler) List(c *gin.Context) {
	var req ListBookingsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Error(c, request.ErrInvalidQuery)
		return
	}

	u, err := h.caller(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	// Admins see everything unless they narrow it; users only see their own.
	filter := booking.Filter{Status: booking.Status(req.Status), Requester: u.ID}
	if u.IsAdmin() {
		filter.Requester = req.Requester
	}

	reservations, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]BookingResponse, 0, len(reservations))
	for _, r := range reservations {
		items = append(items, NewBookingResponse(r))
	}
	c.JSON(http.StatusOK, response.NewListResponse(items))
}

func (h *Handler) Get(c *gin.Context) {
	id, err := request.BindID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	u, err := h.caller(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	r, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	if !u.IsAdmin() && r.Requester != u.ID {
		response.Error(c, booking.ErrPermissionDenied)
		return
	}

	c.JSON(http.StatusOK, NewBookingResponse(r))
}

func (h *Handler) Create(c *gin.Context) {
	var body CreateBookingRequest
	if err := request.BindJSON(c, &body); err != nil {
		response.Error(c, err)
		return
	}

	r, err := h.service.Create(c.Request.Context(), booking.CreateRequest{
		Requester: auth.GetUserID(c),
		Window:    body.toDomain(),
		UseDriver: body.UseDriver,
		Remarks:   body.Remarks,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, NewBookingResponse(r))
}

// CreateMaintenance blocks a car or driver. Admin only.
func (h *Handler) CreateMaintenance(c *gin.Context) {
	var body CreateMaintenanceRequest
	if err := request.BindJSON(c, &body); err != nil {
		response.Error(c, err)
		return
	}

	r, err := h.service.Create(c.Request.Context(), booking.CreateRequest{
		Window:      body.toDomain(),
		Remarks:     body.Remarks,
		Maintenance: true,
		CarID:       body.CarID,
		DriverID:    body.DriverID,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, NewBookingResponse(r))
}

func (h *Handler) Availability(c *gin.Context) {
	var body WindowBody
	if err := request.BindJSON(c, &body); err != nil {
		response.Error(c, err)
		return
	}

	a, err := h.service.CheckAvailability(c.Request.Context(), body.toDomain())
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewAvailabilityResponse(a))
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	id, err := request.BindID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var body UpdateStatusRequest
	if err := request.BindJSON(c, &body); err != nil {
		response.Error(c, err)
		return
	}

	u, err := h.caller(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	r, err := h.service.SetStatus(c.Request.Context(), id, booking.StatusRequest{
		Status:          booking.Status(body.Status),
		CarID:           body.CarID,
		DriverID:        body.DriverID,
		RejectionReason: body.RejectionReason,
		CancelledBy:     u.Username,
		StartOdometer:   body.StartOdometer,
		EndOdometer:     body.EndOdometer,
	}, actorOf(u))
	if err != nil {
		response.Error(c, err)
		return
	}

	// Cancelling a maintenance block deletes it.
	if r == nil {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, NewBookingResponse(r))
}

func (h *Handler) Extend(c *gin.Context) {
	id, err := request.BindID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var body ExtendBookingRequest
	if err := request.BindJSON(c, &body); err != nil {
		response.Error(c, err)
		return
	}

	u, err := h.caller(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	r, err := h.service.Extend(c.Request.Context(), id, booking.ExtendRequest{
		EndDate: body.EndDate,
		EndTime: body.EndTime,
	}, actorOf(u))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewBookingResponse(r))
}

// UpdateExpense records fuel and toll costs. Admin only.
func (h *Handler) UpdateExpense(c *gin.Context) {
	id, err := request.BindID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var body UpdateExpenseRequest
	if err := request.BindJSON(c, &body); err != nil {
		response.Error(c, err)
		return
	}

	r, err := h.service.UpdateExpense(c.Request.Context(), id, booking.Expense{
		FuelCost: body.FuelCost,
		TollCost: body.TollCost,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewBookingResponse(r))
}

// Delete hard-deletes a reservation. Admin only.
func (h *Handler) Delete(c *gin.Context) {
	id, err := request.BindID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
