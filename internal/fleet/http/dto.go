package http

import (
	"time"

	"github.com/nekogravitycat/car-booking-backend/internal/fleet"
)

type CarResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Plate     string    `json:"plate"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

func NewCarResponse(c *fleet.Car) CarResponse {
	return CarResponse{
		ID:        c.ID,
		Name:      c.Name,
		Plate:     c.Plate,
		Status:    string(c.Status),
		CreatedAt: c.CreatedAt,
	}
}

type DriverResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

func NewDriverResponse(d *fleet.Driver) DriverResponse {
	return DriverResponse{
		ID:        d.ID,
		Name:      d.Name,
		Phone:     d.Phone,
		Status:    string(d.Status),
		CreatedAt: d.CreatedAt,
	}
}

type CreateCarRequest struct {
	Name  string `json:"name" binding:"required"`
	Plate string `json:"plate" binding:"required"`
}

type UpdateCarRequest struct {
	Name   *string `json:"name"`
	Plate  *string `json:"plate"`
	Status *string `json:"status" binding:"omitempty,oneof=available retired"`
}

type CreateDriverRequest struct {
	Name  string `json:"name" binding:"required"`
	Phone string `json:"phone"`
}

type UpdateDriverRequest struct {
	Name   *string `json:"name"`
	Phone  *string `json:"phone"`
	Status *string `json:"status" binding:"omitempty,oneof=available retired"`
}

func toStatus(s *string) *fleet.Status {
	if s == nil {
		return nil
	}
	st := fleet.Status(*s)
	return &st
}
