package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/car-booking-backend/internal/fleet"
	"github.com/nekogravitycat/car-booking-backend/internal/pkg/request"
	"github.com/nekogravitycat/car-booking-backend/internal/pkg/response"
)

type Handler struct {
	service fleet.Service
}

func NewHandler(service fleet.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) ListCars(c *gin.Context) {
	cars, err := h.service.ListCars(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	items := make([]CarResponse, 0, len(cars))
	for _, car := range cars {
		items = append(items, NewCarResponse(car))
	}
	c.JSON(http.StatusOK, response.NewListResponse(items))
}

func (h *Handler) GetCar(c *gin.Context) {
	id, err := request.BindID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	car, err := h.service.GetCar(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewCarResponse(car))
}

func (h *Handler) CreateCar(c *gin.Context) {
	var body CreateCarRequest
	if err := request.BindJSON(c, &body); err != nil {
		response.Error(c, err)
		return
	}
	car, err := h.service.CreateCar(c.Request.Context(), fleet.CreateCarRequest{Name: body.Name, Plate: body.Plate})
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, NewCarResponse(car))
}

func (h *Handler) UpdateCar(c *gin.Context) {
	id, err := request.BindID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var body UpdateCarRequest
	if err := request.BindJSON(c, &body); err != nil {
		response.Error(c, err)
		return
	}
	car, err := h.service.UpdateCar(c.Request.Context(), id, fleet.UpdateCarRequest{
		Name:   body.Name,
		Plate:  body.Plate,
		Status: toStatus(body.Status),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewCarResponse(car))
}

func (h *Handler) DeleteCar(c *gin.Context) {
	id, err := request.BindID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.service.DeleteCar(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) ListDrivers(c *gin.Context) {
	drivers, err := h.service.ListDrivers(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	items := make([]DriverResponse, 0, len(drivers))
	for _, d := range drivers {
		items = append(items, NewDriverResponse(d))
	}
	c.JSON(http.StatusOK, response.NewListResponse(items))
}

func (h *Handler) GetDriver(c *gin.Context) {
	id, err := request.BindID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	d, err := h.service.GetDriver(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewDriverResponse(d))
}

func (h *Handler) CreateDriver(c *gin.Context) {
	var body CreateDriverRequest
	if err := request.BindJSON(c, &body); err != nil {
		response.Error(c, err)
		return
	}
	d, err := h.service.CreateDriver(c.Request.Context(), fleet.CreateDriverRequest{Name: body.Name, Phone: body.Phone})
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, NewDriverResponse(d))
}

func (h *Handler) UpdateDriver(c *gin.Context) {
	id, err := request.BindID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var body UpdateDriverRequest
	if err := request.BindJSON(c, &body); err != nil {
		response.Error(c, err)
		return
	}
	d, err := h.service.UpdateDriver(c.Request.Context(), id, fleet.UpdateDriverRequest{
		Name:   body.Name,
		Phone:  body.Phone,
		Status: toStatus(body.Status),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewDriverResponse(d))
}

func (h *Handler) DeleteDriver(c *gin.Context) {
	id, err := request.BindID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.service.DeleteDriver(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
