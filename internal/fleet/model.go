package fleet

import (
	"net/http"
	"time"

	"github.com/nekogravitycat/car-booking-backend/internal/pkg/apperror"
)

var (
	ErrCarNotFound    = apperror.New(http.StatusNotFound, "car not found")
	ErrDriverNotFound = apperror.New(http.StatusNotFound, "driver not found")
	ErrEmptyName      = apperror.New(http.StatusBadRequest, "name cannot be empty")
	ErrEmptyPlate     = apperror.New(http.StatusBadRequest, "license plate cannot be empty")
	ErrPlateTaken     = apperror.New(http.StatusConflict, "a car with this license plate already exists")
	ErrInvalidStatus  = apperror.New(http.StatusBadRequest, "status must be available or retired")
)

type Status string

const (
	StatusAvailable Status = "available"
	StatusRetired   Status = "retired"
)

func (s Status) Valid() bool {
	return s == StatusAvailable || s == StatusRetired
}

// Car is a pool vehicle that reservations are assigned to.
type Car struct {
	ID        string
	Name      string
	Plate     string
	Status    Status
	CreatedAt time.Time
}

type Driver struct {
	ID        string
	Name      string
	Phone     string
	Status    Status
	CreatedAt time.Time
}
