package fleet

import (
	"context"
	"strings"
)

type CreateCarRequest struct {
	Name  string
	Plate string
}

type UpdateCarRequest struct {
	Name   *string
	Plate  *string
	Status *Status
}

type CreateDriverRequest struct {
	Name  string
	Phone string
}

type UpdateDriverRequest struct {
	Name   *string
	Phone  *string
	Status *Status
}

type Service interface {
	CreateCar(ctx context.Context, req CreateCarRequest) (*Car, error)
	GetCar(ctx context.Context, id string) (*Car, error)
	ListCars(ctx context.Context) ([]*Car, error)
	UpdateCar(ctx context.Context, id string, req UpdateCarRequest) (*Car, error)
	DeleteCar(ctx context.Context, id string) error

	CreateDriver(ctx context.Context, req CreateDriverRequest) (*Driver, error)
	GetDriver(ctx context.Context, id string) (*Driver, error)
	ListDrivers(ctx context.Context) ([]*Driver, error)
	UpdateDriver(ctx context.Context, id string, req UpdateDriverRequest) (*Driver, error)
	DeleteDriver(ctx context.Context, id string) error
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) CreateCar(ctx context.Context, req CreateCarRequest) (*Car, error) {
	c := &Car{
		Name:   strings.TrimSpace(req.Name),
		Plate:  normalizePlate(req.Plate),
		Status: StatusAvailable,
	}
	if c.Name == "" {
		return nil, ErrEmptyName
	}
	if c.Plate == "" {
		return nil, ErrEmptyPlate
	}
	if err := s.repo.CreateCar(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *service) GetCar(ctx context.Context, id string) (*Car, error) {
	return s.repo.GetCar(ctx, id)
}

func (s *service) ListCars(ctx context.Context) ([]*Car, error) {
	return s.repo.ListCars(ctx)
}

func (s *service) UpdateCar(ctx context.Context, id string, req UpdateCarRequest) (*Car, error) {
	c, err := s.repo.GetCar(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		if c.Name = strings.TrimSpace(*req.Name); c.Name == "" {
			return nil, ErrEmptyName
		}
	}
	if req.Plate != nil {
		if c.Plate = normalizePlate(*req.Plate); c.Plate == "" {
			return nil, ErrEmptyPlate
		}
	}
	if req.Status != nil {
		if !req.Status.Valid() {
			return nil, ErrInvalidStatus
		}
		c.Status = *req.Status
	}
	if err := s.repo.UpdateCar(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *service) DeleteCar(ctx context.Context, id string) error {
	return s.repo.DeleteCar(ctx, id)
}

func (s *service) CreateDriver(ctx context.Context, req CreateDriverRequest) (*Driver, error) {
	d := &Driver{
		Name:   strings.TrimSpace(req.Name),
		Phone:  strings.TrimSpace(req.Phone),
		Status: StatusAvailable,
	}
	if d.Name == "" {
		return nil, ErrEmptyName
	}
	if err := s.repo.CreateDriver(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *service) GetDriver(ctx context.Context, id string) (*Driver, error) {
	return s.repo.GetDriver(ctx, id)
}

func (s *service) ListDrivers(ctx context.Context) ([]*Driver, error) {
	return s.repo.ListDrivers(ctx)
}

func (s *service) UpdateDriver(ctx context.Context, id string, req UpdateDriverRequest) (*Driver, error) {
	d, err := s.repo.GetDriver(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		if d.Name = strings.TrimSpace(*req.Name); d.Name == "" {
			return nil, ErrEmptyName
		}
	}
	if req.Phone != nil {
		d.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.Status != nil {
		if !req.Status.Valid() {
			return nil, ErrInvalidStatus
		}
		d.Status = *req.Status
	}
	if err := s.repo.UpdateDriver(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *service) DeleteDriver(ctx context.Context, id string) error {
	return s.repo.DeleteDriver(ctx, id)
}

// normalizePlate uppercases and collapses inner whitespace.
func normalizePlate(p string) string {
	return strings.ToUpper(strings.Join(strings.Fields(p), " "))
}
