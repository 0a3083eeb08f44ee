package http

import (
	"time"

	"github.com/nekogravitycat/car-booking-backend/internal/booking"
	fleetHttp "github.com/nekogravitycat/car-booking-backend/internal/fleet/http"
)

// ListBookingsRequest defines query parameters for listing bookings.
// Only admins may filter by another requester.
type ListBookingsRequest struct {
	Status    string `form:"status" binding:"omitempty,oneof=pending approved rejected active completed maintenance cancelled"`
	Requester string `form:"requester"`
}

// WindowBody is a calendar-local window: dates YYYY-MM-DD, times HH:MM.
type WindowBody struct {
	StartDate string `json:"start_date" binding:"required"`
	StartTime string `json:"start_time" binding:"required"`
	EndDate   string `json:"end_date" binding:"required"`
	EndTime   string `json:"end_time" binding:"required"`
}

func (w WindowBody) toDomain() booking.Window {
	return booking.Window{
		StartDate: w.StartDate,
		StartTime: w.StartTime,
		EndDate:   w.EndDate,
		EndTime:   w.EndTime,
	}
}

type CreateBookingRequest struct {
	WindowBody
	UseDriver bool   `json:"use_driver"`
	Remarks   string `json:"remarks"`
}

type CreateMaintenanceRequest struct {
	WindowBody
	CarID    string `json:"car_id" binding:"omitempty,uuid"`
	DriverID string `json:"driver_id" binding:"omitempty,uuid"`
	Remarks  string `json:"remarks"`
}

type UpdateStatusRequest struct {
	Status          string `json:"status" binding:"required,oneof=approved rejected cancelled active completed"`
	CarID           string `json:"car_id" binding:"omitempty,uuid"`
	DriverID        string `json:"driver_id" binding:"omitempty,uuid"`
	RejectionReason string `json:"rejection_reason"`
	StartOdometer   *int64 `json:"start_odometer"`
	EndOdometer     *int64 `json:"end_odometer"`
}

type ExtendBookingRequest struct {
	EndDate string `json:"end_date" binding:"required"`
	EndTime string `json:"end_time" binding:"required"`
}

type UpdateExpenseRequest struct {
	FuelCost float64 `json:"fuel_cost"`
	TollCost float64 `json:"toll_cost"`
}

type ExpenseResponse struct {
	FuelCost float64 `json:"fuel_cost"`
	TollCost float64 `json:"toll_cost"`
}

type NotifiedResponse struct {
	Start       bool `json:"start"`
	NearEnd     bool `json:"near_end"`
	AdminNoShow bool `json:"admin_no_show"`
}

type BookingResponse struct {
	ID              string           `json:"id"`
	Requester       string           `json:"requester"`
	CarID           *string          `json:"car_id"`
	DriverID        *string          `json:"driver_id"`
	StartDate       string           `json:"start_date"`
	StartTime       string           `json:"start_time"`
	EndDate         string           `json:"end_date"`
	EndTime         string           `json:"end_time"`
	UseDriver       bool             `json:"use_driver"`
	Remarks         string           `json:"remarks"`
	Status          string           `json:"status"`
	RejectionReason string           `json:"rejection_reason,omitempty"`
	CancelledBy     string           `json:"cancelled_by,omitempty"`
	StartOdometer   *int64           `json:"start_odometer"`
	EndOdometer     *int64           `json:"end_odometer"`
	Expense         ExpenseResponse  `json:"expense"`
	Notified        NotifiedResponse `json:"notified"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

func NewBookingResponse(r *booking.Reservation) BookingResponse {
	return BookingResponse{
		ID:              r.ID,
		Requester:       r.Requester,
		CarID:           optional(r.CarID),
		DriverID:        optional(r.DriverID),
		StartDate:       r.Window.StartDate,
		StartTime:       r.Window.StartTime,
		EndDate:         r.Window.EndDate,
		EndTime:         r.Window.EndTime,
		UseDriver:       r.UseDriver,
		Remarks:         r.Remarks,
		Status:          string(r.Status),
		RejectionReason: r.RejectionReason,
		CancelledBy:     r.CancelledBy,
		StartOdometer:   r.StartOdometer,
		EndOdometer:     r.EndOdometer,
		Expense:         ExpenseResponse{FuelCost: r.Expense.FuelCost, TollCost: r.Expense.TollCost},
		Notified: NotifiedResponse{
			Start:       r.Notified.Start,
			NearEnd:     r.Notified.NearEnd,
			AdminNoShow: r.Notified.AdminNoShow,
		},
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

type AvailabilityResponse struct {
	Cars    []fleetHttp.CarResponse    `json:"cars"`
	Drivers []fleetHttp.DriverResponse `json:"drivers"`
}

func NewAvailabilityResponse(a *booking.Availability) AvailabilityResponse {
	resp := AvailabilityResponse{
		Cars:    make([]fleetHttp.CarResponse, 0, len(a.Cars)),
		Drivers: make([]fleetHttp.DriverResponse, 0, len(a.Drivers)),
	}
	for _, c := range a.Cars {
		resp.Cars = append(resp.Cars, fleetHttp.NewCarResponse(c))
	}
	for _, d := range a.Drivers {
		resp.Drivers = append(resp.Drivers, fleetHttp.NewDriverResponse(d))
	}
	return resp
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
