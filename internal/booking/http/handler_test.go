package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/car-booking-backend/internal/auth"
	"github.com/nekogravitycat/car-booking-backend/internal/booking"
	"github.com/nekogravitycat/car-booking-backend/internal/user"
)

const (
	adminID = "00000000-0000-0000-0000-00000000000a"
	aliceID = "00000000-0000-0000-0000-0000000000a1"
	bobID   = "00000000-0000-0000-0000-0000000000b0"
	resID   = "11111111-1111-1111-1111-111111111111"
)

type fakeUsers map[string]*user.User

func (f fakeUsers) GetByID(_ context.Context, id string) (*user.User, error) {
	u, ok := f[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	return u, nil
}

type fakeService struct {
	booking.Service

	reservation *booking.Reservation
	err         error

	gotFilter  booking.Filter
	gotStatus  booking.StatusRequest
	gotActor   booking.Actor
	gotCreate  booking.CreateRequest
	setStatusR *booking.Reservation
}

func (f *fakeService) List(_ context.Context, filter booking.Filter) ([]*booking.Reservation, error) {
	f.gotFilter = filter
	return []*booking.Reservation{f.reservation}, f.err
}

func (f *fakeService) GetByID(context.Context, string) (*booking.Reservation, error) {
	return f.reservation, f.err
}

func (f *fakeService) Create(_ context.Context, req booking.CreateRequest) (*booking.Reservation, error) {
	f.gotCreate = req
	if f.err != nil {
		return nil, f.err
	}
	return f.reservation, nil
}

func (f *fakeService) SetStatus(_ context.Context, _ string, req booking.StatusRequest, actor booking.Actor) (*booking.Reservation, error) {
	f.gotStatus = req
	f.gotActor = actor
	return f.setStatusR, f.err
}

func newRouter(svc booking.Service, callerID string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	users := fakeUsers{
		adminID: {ID: adminID, Username: "admin", Role: user.RoleAdmin},
		aliceID: {ID: aliceID, Username: "alice", Role: user.RoleUser},
		bobID:   {ID: bobID, Username: "bob", Role: user.RoleUser},
	}
	stubAuth := func(c *gin.Context) {
		auth.SetIdentity(c, callerID, "")
		c.Next()
	}
	requireAdmin := func(c *gin.Context) {
		if !users[callerID].IsAdmin() {
			c.AbortWithStatus(http.StatusForbidden)
			return
		}
		c.Next()
	}

	r := gin.New()
	RegisterRoutes(r.Group("/v1"), NewHandler(svc, users), stubAuth, requireAdmin)
	return r
}

func do(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func aliceReservation() *booking.Reservation {
	return &booking.Reservation{
		ID:        resID,
		Requester: aliceID,
		Window:    booking.Window{StartDate: "2025-03-10", StartTime: "09:00", EndDate: "2025-03-10", EndTime: "12:00"},
		Status:    booking.StatusPending,
	}
}

func TestListScopesUsersToTheirOwnReservations(t *testing.T) {
	svc := &fakeService{reservation: aliceReservation()}

	w := do(newRouter(svc, aliceID), http.MethodGet, "/v1/bookings?requester="+bobID+"&status=pending", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, booking.Filter{Requester: aliceID, Status: booking.StatusPending}, svc.gotFilter)

	w = do(newRouter(svc, adminID), http.MethodGet, "/v1/bookings?requester="+bobID, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, booking.Filter{Requester: bobID}, svc.gotFilter)

	w = do(newRouter(svc, adminID), http.MethodGet, "/v1/bookings?status=lost", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetChecksOwnership(t *testing.T) {
	svc := &fakeService{reservation: aliceReservation()}

	assert.Equal(t, http.StatusOK, do(newRouter(svc, aliceID), http.MethodGet, "/v1/bookings/"+resID, "").Code)
	assert.Equal(t, http.StatusOK, do(newRouter(svc, adminID), http.MethodGet, "/v1/bookings/"+resID, "").Code)
	assert.Equal(t, http.StatusForbidden, do(newRouter(svc, bobID), http.MethodGet, "/v1/bookings/"+resID, "").Code)
	assert.Equal(t, http.StatusBadRequest, do(newRouter(svc, aliceID), http.MethodGet, "/v1/bookings/not-a-uuid", "").Code)
}

func TestCreateUsesCallerAsRequester(t *testing.T) {
	svc := &fakeService{reservation: aliceReservation()}
	body := `{"start_date":"2025-03-10","start_time":"09:00","end_date":"2025-03-10","end_time":"12:00","use_driver":true}`

	w := do(newRouter(svc, aliceID), http.MethodPost, "/v1/bookings", body)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, aliceID, svc.gotCreate.Requester)
	assert.True(t, svc.gotCreate.UseDriver)
	assert.False(t, svc.gotCreate.Maintenance)
	assert.Equal(t, "12:00", svc.gotCreate.Window.EndTime)

	w = do(newRouter(svc, aliceID), http.MethodPost, "/v1/bookings", `{"start_date":"2025-03-10"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateMaintenanceIsAdminOnly(t *testing.T) {
	svc := &fakeService{reservation: aliceReservation()}
	body := `{"start_date":"2025-03-10","start_time":"09:00","end_date":"2025-03-10","end_time":"12:00","car_id":"22222222-2222-2222-2222-222222222222"}`

	assert.Equal(t, http.StatusForbidden, do(newRouter(svc, aliceID), http.MethodPost, "/v1/bookings/maintenance", body).Code)

	w := do(newRouter(svc, adminID), http.MethodPost, "/v1/bookings/maintenance", body)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, svc.gotCreate.Maintenance)
	assert.Equal(t, "22222222-2222-2222-2222-222222222222", svc.gotCreate.CarID)
}

func TestUpdateStatus(t *testing.T) {
	approved := aliceReservation()
	approved.Status = booking.StatusApproved
	svc := &fakeService{setStatusR: approved}

	w := do(newRouter(svc, adminID), http.MethodPatch, "/v1/bookings/"+resID+"/status", `{"status":"approved"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, booking.Actor{UserID: adminID, IsAdmin: true}, svc.gotActor)
	assert.Contains(t, w.Body.String(), `"status":"approved"`)

	w = do(newRouter(svc, aliceID), http.MethodPatch, "/v1/bookings/"+resID+"/status", `{"status":"cancelled"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alice", svc.gotStatus.CancelledBy)
	assert.Equal(t, booking.Actor{UserID: aliceID}, svc.gotActor)

	w = do(newRouter(svc, aliceID), http.MethodPatch, "/v1/bookings/"+resID+"/status", `{"status":"pending"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateStatusRemovedMaintenance(t *testing.T) {
	svc := &fakeService{}

	w := do(newRouter(svc, adminID), http.MethodPatch, "/v1/bookings/"+resID+"/status", `{"status":"cancelled"}`)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestServiceErrorsMapToStatusCodes(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{booking.ErrConflict, http.StatusConflict},
		{booking.ErrConcurrentChange, http.StatusConflict},
		{booking.ErrPermissionDenied, http.StatusForbidden},
		{booking.ErrInvalidTransition, http.StatusUnprocessableEntity},
		{booking.ErrStoreUnavailable, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			svc := &fakeService{err: tt.err}
			w := do(newRouter(svc, adminID), http.MethodPatch, "/v1/bookings/"+resID+"/status", `{"status":"approved"}`)
			assert.Equal(t, tt.status, w.Code)
			assert.JSONEq(t, `{"error":"`+tt.err.Error()+`"}`, w.Body.String())
		})
	}
}
