package fleet

import (
	"context"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRepo struct {
	cars    map[string]*Car
	drivers map[string]*Driver
	nextID  int
}

var _ Repository = (*mockRepo)(nil)

func newMockRepo() *mockRepo {
	return &mockRepo{cars: map[string]*Car{}, drivers: map[string]*Driver{}}
}

func (m *mockRepo) id() string {
	m.nextID++
	return "id-" + strconv.Itoa(m.nextID)
}

func (m *mockRepo) CreateCar(_ context.Context, c *Car) error {
	for _, existing := range m.cars {
		if existing.Plate == c.Plate {
			return ErrPlateTaken
		}
	}
	c.ID = m.id()
	cp := *c
	m.cars[c.ID] = &cp
	return nil
}

func (m *mockRepo) GetCar(_ context.Context, id string) (*Car, error) {
	c, ok := m.cars[id]
	if !ok {
		return nil, ErrCarNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *mockRepo) ListCars(context.Context) ([]*Car, error) {
	var out []*Car
	for _, c := range m.cars {
		out = append(out, c)
	}
	return out, nil
}

func (m *mockRepo) UpdateCar(_ context.Context, c *Car) error {
	if _, ok := m.cars[c.ID]; !ok {
		return ErrCarNotFound
	}
	cp := *c
	m.cars[c.ID] = &cp
	return nil
}

func (m *mockRepo) DeleteCar(_ context.Context, id string) error {
	if _, ok := m.cars[id]; !ok {
		return ErrCarNotFound
	}
	delete(m.cars, id)
	return nil
}

func (m *mockRepo) CreateDriver(_ context.Context, d *Driver) error {
	d.ID = m.id()
	cp := *d
	m.drivers[d.ID] = &cp
	return nil
}

func (m *mockRepo) GetDriver(_ context.Context, id string) (*Driver, error) {
	d, ok := m.drivers[id]
	if !ok {
		return nil, ErrDriverNotFound
	}
	cp := *d
	return &cp, nil
}

func (m *mockRepo) ListDrivers(context.Context) ([]*Driver, error) {
	var out []*Driver
	for _, d := range m.drivers {
		out = append(out, d)
	}
	return out, nil
}

func (m *mockRepo) UpdateDriver(_ context.Context, d *Driver) error {
	if _, ok := m.drivers[d.ID]; !ok {
		return ErrDriverNotFound
	}
	cp := *d
	m.drivers[d.ID] = &cp
	return nil
}

func (m *mockRepo) DeleteDriver(_ context.Context, id string) error {
	if _, ok := m.drivers[id]; !ok {
		return ErrDriverNotFound
	}
	delete(m.drivers, id)
	return nil
}

func TestCreateCarNormalizesPlate(t *testing.T) {
	svc := NewService(newMockRepo())
	ctx := context.Background()

	car, err := svc.CreateCar(ctx, CreateCarRequest{Name: " Van ", Plate: "  ab  1234 "})
	require.NoError(t, err)
	assert.Equal(t, "Van", car.Name)
	assert.Equal(t, "AB 1234", car.Plate)
	assert.Equal(t, StatusAvailable, car.Status)

	_, err = svc.CreateCar(ctx, CreateCarRequest{Name: "Other", Plate: "ab 1234"})
	assert.ErrorIs(t, err, ErrPlateTaken)
}

func TestCreateCarValidation(t *testing.T) {
	svc := NewService(newMockRepo())

	_, err := svc.CreateCar(context.Background(), CreateCarRequest{Name: " ", Plate: "X1"})
	assert.ErrorIs(t, err, ErrEmptyName)

	_, err = svc.CreateCar(context.Background(), CreateCarRequest{Name: "Van", Plate: " "})
	assert.ErrorIs(t, err, ErrEmptyPlate)
}

func TestUpdateCarStatus(t *testing.T) {
	svc := NewService(newMockRepo())
	ctx := context.Background()

	car, err := svc.CreateCar(ctx, CreateCarRequest{Name: "Van", Plate: "X1"})
	require.NoError(t, err)

	retired := StatusRetired
	updated, err := svc.UpdateCar(ctx, car.ID, UpdateCarRequest{Status: &retired})
	require.NoError(t, err)
	assert.Equal(t, StatusRetired, updated.Status)

	bogus := Status("scrapped")
	_, err = svc.UpdateCar(ctx, car.ID, UpdateCarRequest{Status: &bogus})
	assert.ErrorIs(t, err, ErrInvalidStatus)

	_, err = svc.UpdateCar(ctx, "missing", UpdateCarRequest{})
	assert.ErrorIs(t, err, ErrCarNotFound)
}

func TestDriverLifecycle(t *testing.T) {
	svc := NewService(newMockRepo())
	ctx := context.Background()

	d, err := svc.CreateDriver(ctx, CreateDriverRequest{Name: "Somchai", Phone: " 0812345678 "})
	require.NoError(t, err)
	assert.Equal(t, "0812345678", d.Phone)

	name := "Somchai K."
	d, err = svc.UpdateDriver(ctx, d.ID, UpdateDriverRequest{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Somchai K.", d.Name)

	require.NoError(t, svc.DeleteDriver(ctx, d.ID))
	_, err = svc.GetDriver(ctx, d.ID)
	assert.ErrorIs(t, err, ErrDriverNotFound)
}
