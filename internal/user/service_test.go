package user

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/nekogravitycat/car-booking-backend/internal/auth"
)

type mockRepo struct {
	users     map[string]*User
	nextID    int
	loginErr  error
	lastLogin map[string]time.Time
}

var _ Repository = (*mockRepo)(nil)

func newMockRepo() *mockRepo {
	return &mockRepo{users: map[string]*User{}, lastLogin: map[string]time.Time{}}
}

func (m *mockRepo) GetByUsername(_ context.Context, username string) (*User, error) {
	for _, u := range m.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockRepo) GetByID(_ context.Context, id string) (*User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *mockRepo) Create(_ context.Context, u *User) error {
	for _, existing := range m.users {
		if existing.Username == u.Username {
			return ErrUsernameTaken
		}
	}
	m.nextID++
	u.ID = "user-" + strconv.Itoa(m.nextID)
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *mockRepo) UpdateLastLogin(_ context.Context, id string, t time.Time) error {
	if m.loginErr != nil {
		return m.loginErr
	}
	m.lastLogin[id] = t
	return nil
}

func (m *mockRepo) List(_ context.Context, filter UserFilter) ([]*User, error) {
	var out []*User
	for _, u := range m.users {
		if filter.Role != "" && u.Role != filter.Role {
			continue
		}
		out = append(out, u)
	}
	return out, nil
}

func (m *mockRepo) Update(_ context.Context, u *User) error {
	if _, ok := m.users[u.ID]; !ok {
		return ErrNotFound
	}
	if u.LineUserID != "" {
		for id, other := range m.users {
			if id != u.ID && other.LineUserID == u.LineUserID {
				return ErrLineAlreadyLinked
			}
		}
	}
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *mockRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.users[id]; !ok {
		return ErrNotFound
	}
	delete(m.users, id)
	return nil
}

func newTestService(repo *mockRepo) *service {
	svc := NewService(repo, auth.NewBcryptPasswordHasher(bcrypt.MinCost)).(*service)
	svc.now = func() time.Time { return time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC) }
	return svc
}

func seedUser(t *testing.T, svc *service, username string, role Role) *User {
	t.Helper()
	u, err := svc.Create(context.Background(), CreateRequest{
		Username:  username,
		Password:  "password123",
		FirstName: "Somchai",
		Role:      role,
	})
	require.NoError(t, err)
	return u
}

func TestCreate(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newMockRepo())

	u, err := svc.Create(ctx, CreateRequest{Username: "  Alice ", Password: "password123", Email: "Alice@Example.com "})
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)
	assert.Equal(t, "alice@example.com", u.Email)
	assert.Equal(t, RoleUser, u.Role)
	assert.Equal(t, "General", u.Department)
	assert.True(t, u.IsActive)
	assert.True(t, u.MustChangePassword)
	assert.NotEqual(t, "password123", u.PasswordHash)

	tests := []struct {
		name string
		req  CreateRequest
		want error
	}{
		{"duplicate username", CreateRequest{Username: "ALICE", Password: "password123"}, ErrUsernameTaken},
		{"blank username", CreateRequest{Username: "  ", Password: "password123"}, ErrUsernameRequired},
		{"short password", CreateRequest{Username: "bob", Password: "123"}, ErrPasswordTooShort},
		{"unknown role", CreateRequest{Username: "bob", Password: "password123", Role: "root"}, ErrInvalidRole},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	repo := newMockRepo()
	svc := newTestService(repo)
	u := seedUser(t, svc, "alice", RoleUser)

	got, err := svc.Login(ctx, "Alice", "password123")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	require.NotNil(t, got.LastLoginAt)
	assert.Equal(t, svc.now(), repo.lastLogin[u.ID])

	_, err = svc.Login(ctx, "alice", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, "nobody", "password123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	inactive := false
	_, err = svc.Update(ctx, u.ID, UpdateRequest{IsActive: &inactive})
	require.NoError(t, err)
	_, err = svc.Login(ctx, "alice", "password123")
	assert.ErrorIs(t, err, ErrInactiveUser)
}

func TestLoginSurvivesLastLoginFailure(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)
	seedUser(t, svc, "alice", RoleUser)
	repo.loginErr = errors.New("db down")

	got, err := svc.Login(context.Background(), "alice", "password123")
	require.NoError(t, err)
	assert.Nil(t, got.LastLoginAt)
}

func TestChangePassword(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newMockRepo())
	u := seedUser(t, svc, "alice", RoleUser)

	err := svc.ChangePassword(ctx, u.ID, "nope", "new-password")
	assert.ErrorIs(t, err, ErrWrongCurrentPassword)

	err = svc.ChangePassword(ctx, u.ID, "password123", "short")
	assert.ErrorIs(t, err, ErrPasswordTooShort)

	require.NoError(t, svc.ChangePassword(ctx, u.ID, "password123", "new-password"))
	got, err := svc.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.False(t, got.MustChangePassword)

	_, err = svc.Login(ctx, "alice", "new-password")
	assert.NoError(t, err)
}

func TestAdminUpdate(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newMockRepo())
	u := seedUser(t, svc, "alice", RoleUser)
	require.NoError(t, svc.ChangePassword(ctx, u.ID, "password123", "chosen-password"))

	_, err := svc.LinkLine(ctx, u.ID, "U123")
	require.NoError(t, err)

	dept := " Sales "
	role := RoleAdmin
	reset := "temporary-pass"
	got, err := svc.Update(ctx, u.ID, UpdateRequest{
		Department: &dept,
		Role:       &role,
		Password:   &reset,
		ResetLine:  true,
	})
	require.NoError(t, err)
	assert.Equal(t, "Sales", got.Department)
	assert.True(t, got.IsAdmin())
	assert.True(t, got.MustChangePassword)
	assert.Empty(t, got.LineUserID)

	_, err = svc.Login(ctx, "alice", "temporary-pass")
	assert.NoError(t, err)

	bad := Role("owner")
	_, err = svc.Update(ctx, u.ID, UpdateRequest{Role: &bad})
	assert.ErrorIs(t, err, ErrInvalidRole)

	_, err = svc.Update(ctx, "missing", UpdateRequest{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLinkLineRejectsSharedAccount(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newMockRepo())
	alice := seedUser(t, svc, "alice", RoleUser)
	bob := seedUser(t, svc, "bob", RoleUser)

	_, err := svc.LinkLine(ctx, alice.ID, "U123")
	require.NoError(t, err)

	_, err = svc.LinkLine(ctx, bob.ID, "U123")
	assert.ErrorIs(t, err, ErrLineAlreadyLinked)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newMockRepo())
	admin := seedUser(t, svc, "admin", RoleAdmin)
	alice := seedUser(t, svc, "alice", RoleUser)

	assert.ErrorIs(t, svc.Delete(ctx, admin.ID, admin.ID), ErrCannotDeleteSelf)
	require.NoError(t, svc.Delete(ctx, alice.ID, admin.ID))
	assert.ErrorIs(t, svc.Delete(ctx, alice.ID, admin.ID), ErrNotFound)
}

func TestEnsureAdmin(t *testing.T) {
	ctx := context.Background()
	repo := newMockRepo()
	svc := newTestService(repo)

	require.NoError(t, svc.EnsureAdmin(ctx, "admin", "bootstrap-pass"))
	require.NoError(t, svc.EnsureAdmin(ctx, "admin", "other-pass"))

	admins, err := svc.List(ctx, UserFilter{Role: RoleAdmin})
	require.NoError(t, err)
	require.Len(t, admins, 1)
	assert.Equal(t, "admin", admins[0].Username)

	_, err = svc.Login(ctx, "admin", "bootstrap-pass")
	assert.NoError(t, err)
}
