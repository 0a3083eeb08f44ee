// Package bookingtest provides an in-memory booking.Repository for tests.
package bookingtest

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nekogravitycat/car-booking-backend/internal/booking"
)

// Repository keeps reservations in a map. Set Err* hooks to simulate store failures.
type Repository struct {
	mu    sync.Mutex
	items map[string]*booking.Reservation
	seq   int

	ErrCreate       error
	ErrFind         error
	ErrMarkNotified error
}

var _ booking.Repository = (*Repository)(nil)

func NewRepository() *Repository {
	return &Repository{items: make(map[string]*booking.Reservation)}
}

// Seed stores r as-is, assigning an id when it has none.
func (m *Repository) Seed(r *booking.Reservation) *booking.Reservation {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stamp(r)
	cp := *r
	m.items[r.ID] = &cp
	return r
}

// Get returns a copy of the stored reservation, or nil.
func (m *Repository) Get(id string) *booking.Reservation {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.items[id]
	if !ok {
		return nil
	}
	cp := *r
	return &cp
}

func (m *Repository) stamp(r *booking.Reservation) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	m.seq++
	if r.CreatedAt.IsZero() {
		// Strictly increasing so newest-first ordering is stable.
		r.CreatedAt = time.Unix(int64(m.seq), 0)
	}
	r.UpdatedAt = r.CreatedAt
}

func (m *Repository) Create(_ context.Context, r *booking.Reservation) error {
	if m.ErrCreate != nil {
		return m.ErrCreate
	}
	m.Seed(r)
	return nil
}

func (m *Repository) GetByID(_ context.Context, id string) (*booking.Reservation, error) {
	if r := m.Get(id); r != nil {
		return r, nil
	}
	return nil, booking.ErrNotFound
}

func (m *Repository) Find(_ context.Context, q booking.Query) ([]*booking.Reservation, error) {
	if m.ErrFind != nil {
		return nil, m.ErrFind
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*booking.Reservation
	for _, r := range m.items {
		if len(q.Statuses) > 0 && !slices.Contains(q.Statuses, r.Status) {
			continue
		}
		if q.CarID != "" || q.DriverID != "" {
			usesCar := q.CarID != "" && r.CarID == q.CarID
			usesDriver := q.DriverID != "" && r.DriverID == q.DriverID
			if !usesCar && !usesDriver {
				continue
			}
		}
		if q.Requester != "" && r.Requester != q.Requester {
			continue
		}
		if q.ExcludeID != "" && r.ID == q.ExcludeID {
			continue
		}
		cp := *r
		out = append(out, &cp)
	}
	slices.SortFunc(out, func(a, b *booking.Reservation) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out, nil
}

func (m *Repository) Update(_ context.Context, r *booking.Reservation, expected booking.Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cur, ok := m.items[r.ID]
	if !ok {
		return booking.ErrNotFound
	}
	if cur.Status != expected {
		return booking.ErrConcurrentChange
	}
	cur.CarID = r.CarID
	cur.DriverID = r.DriverID
	cur.Status = r.Status
	cur.RejectionReason = r.RejectionReason
	cur.CancelledBy = r.CancelledBy
	cur.StartOdometer = r.StartOdometer
	cur.EndOdometer = r.EndOdometer
	return nil
}

func (m *Repository) Extend(_ context.Context, r *booking.Reservation, prev booking.Window) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cur, ok := m.items[r.ID]
	if !ok {
		return booking.ErrNotFound
	}
	if cur.Status != r.Status || cur.Window.EndDate != prev.EndDate || cur.Window.EndTime != prev.EndTime {
		return booking.ErrConcurrentChange
	}
	cur.Window.EndDate = r.Window.EndDate
	cur.Window.EndTime = r.Window.EndTime
	cur.Notified.NearEnd = false
	cur.Notified.AdminNoShow = false
	return nil
}

func (m *Repository) UpdateExpense(_ context.Context, id string, e booking.Expense) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cur, ok := m.items[id]
	if !ok {
		return booking.ErrNotFound
	}
	cur.Expense = e
	return nil
}

func (m *Repository) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.items[id]; !ok {
		return booking.ErrNotFound
	}
	delete(m.items, id)
	return nil
}

func (m *Repository) MarkNotified(_ context.Context, r *booking.Reservation, notice booking.Notice) (bool, error) {
	if m.ErrMarkNotified != nil {
		return false, m.ErrMarkNotified
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	cur, ok := m.items[r.ID]
	if !ok {
		return false, booking.ErrNotFound
	}
	if cur.Status != r.Status || cur.Window.EndDate != r.Window.EndDate || cur.Window.EndTime != r.Window.EndTime {
		return false, nil
	}
	var flag *bool
	switch notice {
	case booking.NoticeStart:
		flag = &cur.Notified.Start
	case booking.NoticeNearEnd:
		flag = &cur.Notified.NearEnd
	case booking.NoticeAdminNoShow:
		flag = &cur.Notified.AdminNoShow
	default:
		return false, nil
	}
	if *flag {
		return false, nil
	}
	*flag = true
	return true, nil
}
