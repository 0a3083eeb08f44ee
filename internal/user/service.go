package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nekogravitycat/car-booking-backend/internal/auth"
)

type CreateRequest struct {
	Username   string
	Password   string
	FirstName  string
	LastName   string
	Email      string
	Phone      string
	Department string
	Role       Role
}

// UpdateRequest changes only the non-nil fields.
type UpdateRequest struct {
	FirstName  *string
	LastName   *string
	Email      *string
	Phone      *string
	Department *string
	Role       *Role
	IsActive   *bool
	Password   *string // admin reset; the user must change it at next login
	ResetLine  bool
}

// Service defines business logic related to users.
type Service interface {
	Login(ctx context.Context, username, password string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	List(ctx context.Context, filter UserFilter) ([]*User, error)
	Create(ctx context.Context, req CreateRequest) (*User, error)
	Update(ctx context.Context, id string, req UpdateRequest) (*User, error)
	Delete(ctx context.Context, id, actorID string) error
	ChangePassword(ctx context.Context, id, current, next string) error
	LinkLine(ctx context.Context, id, lineUserID string) (*User, error)
	// EnsureAdmin creates an admin account unless the username already exists.
	EnsureAdmin(ctx context.Context, username, password string) error
}

type service struct {
	repo   Repository
	hasher auth.PasswordHasher
	now    func() time.Time

	minPasswordLength int
}

// NewService creates a new user Service.
func NewService(repo Repository, hasher auth.PasswordHasher) Service {
	return &service{
		repo:              repo,
		hasher:            hasher,
		now:               time.Now,
		minPasswordLength: 8,
	}
}

func (s *service) Login(ctx context.Context, username, password string) (*User, error) {
	u, err := s.repo.GetByUsername(ctx, normalizeUsername(username))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := s.hasher.Compare(u.PasswordHash, password); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !u.IsActive {
		return nil, ErrInactiveUser
	}

	now := s.now().UTC()
	if err := s.repo.UpdateLastLogin(ctx, u.ID, now); err != nil {
		slog.WarnContext(ctx, "failed to record last login", "user_id", u.ID, "err", err)
	} else {
		u.LastLoginAt = &now
	}
	return u, nil
}

func (s *service) GetByID(ctx context.Context, id string) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) List(ctx context.Context, filter UserFilter) ([]*User, error) {
	return s.repo.List(ctx, filter)
}

func (s *service) Create(ctx context.Context, req CreateRequest) (*User, error) {
	username := normalizeUsername(req.Username)
	if username == "" {
		return nil, ErrUsernameRequired
	}
	if len(req.Password) < s.minPasswordLength {
		return nil, ErrPasswordTooShort
	}
	if req.Role == "" {
		req.Role = RoleUser
	}
	if !req.Role.Valid() {
		return nil, ErrInvalidRole
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	department := strings.TrimSpace(req.Department)
	if department == "" {
		department = "General"
	}

	u := &User{
		Username:           username,
		PasswordHash:       hash,
		FirstName:          strings.TrimSpace(req.FirstName),
		LastName:           strings.TrimSpace(req.LastName),
		Email:              strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:              strings.TrimSpace(req.Phone),
		Department:         department,
		Role:               req.Role,
		IsActive:           true,
		MustChangePassword: true,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *service) Update(ctx context.Context, id string, req UpdateRequest) (*User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.FirstName != nil {
		u.FirstName = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		u.LastName = strings.TrimSpace(*req.LastName)
	}
	if req.Email != nil {
		u.Email = strings.ToLower(strings.TrimSpace(*req.Email))
	}
	if req.Phone != nil {
		u.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.Department != nil {
		u.Department = strings.TrimSpace(*req.Department)
	}
	if req.Role != nil {
		if !req.Role.Valid() {
			return nil, ErrInvalidRole
		}
		u.Role = *req.Role
	}
	if req.IsActive != nil {
		u.IsActive = *req.IsActive
	}
	if req.Password != nil {
		if len(*req.Password) < s.minPasswordLength {
			return nil, ErrPasswordTooShort
		}
		hash, err := s.hasher.Hash(*req.Password)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		u.PasswordHash = hash
		u.MustChangePassword = true
	}
	if req.ResetLine {
		u.LineUserID = ""
	}

	if err := s.repo.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *service) Delete(ctx context.Context, id, actorID string) error {
	if id == actorID {
		return ErrCannotDeleteSelf
	}
	return s.repo.Delete(ctx, id)
}

func (s *service) ChangePassword(ctx context.Context, id, current, next string) error {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.hasher.Compare(u.PasswordHash, current); err != nil {
		return ErrWrongCurrentPassword
	}
	if len(next) < s.minPasswordLength {
		return ErrPasswordTooShort
	}

	hash, err := s.hasher.Hash(next)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	u.PasswordHash = hash
	u.MustChangePassword = false
	return s.repo.Update(ctx, u)
}

func (s *service) LinkLine(ctx context.Context, id, lineUserID string) (*User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	u.LineUserID = lineUserID
	if err := s.repo.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *service) EnsureAdmin(ctx context.Context, username, password string) error {
	_, err := s.repo.GetByUsername(ctx, normalizeUsername(username))
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrNotFound) {
		return err
	}

	_, err = s.Create(ctx, CreateRequest{
		Username:   username,
		Password:   password,
		FirstName:  "Admin",
		Department: "IT",
		Role:       RoleAdmin,
	})
	if errors.Is(err, ErrUsernameTaken) {
		return nil
	}
	return err
}

func normalizeUsername(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
