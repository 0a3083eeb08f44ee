package linking

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/nekogravitycat/car-booking-backend/internal/user"
)

const (
	codeMin      = 100000
	codeSpan     = 900000
	codeAttempts = 3
)

// UserLinker binds a LINE id to an account.
type UserLinker interface {
	LinkLine(ctx context.Context, userID, lineUserID string) (*user.User, error)
}

// AdminTarget is re-pointed by the "!setup admin" chat command.
type AdminTarget interface {
	Set(ctx context.Context, lineID string) error
}

// Pusher sends a text message to a LINE user, group or room.
type Pusher interface {
	Push(ctx context.Context, to, text string) error
}

type Service interface {
	Generate(ctx context.Context, userID string) (*Token, error)
	Link(ctx context.Context, code, lineUserID string) (*user.User, error)
	HandleEvents(ctx context.Context, events []Event)
}

type Config struct {
	TokenTTL time.Duration
	Clock    clockwork.Clock
}

type service struct {
	repo   Repository
	users  UserLinker
	admin  AdminTarget
	pusher Pusher
	logger *slog.Logger
	ttl    time.Duration
	clock  clockwork.Clock
}

// NewService builds the linking service. pusher may be nil, in which case
// chat replies are only logged.
func NewService(repo Repository, users UserLinker, admin AdminTarget, pusher Pusher, cfg Config, logger *slog.Logger) Service {
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 5 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &service{
		repo:   repo,
		users:  users,
		admin:  admin,
		pusher: pusher,
		logger: logger,
		ttl:    cfg.TokenTTL,
		clock:  cfg.Clock,
	}
}

func (s *service) Generate(ctx context.Context, userID string) (*Token, error) {
	for range codeAttempts {
		code, err := newCode()
		if err != nil {
			return nil, err
		}
		t := &Token{Code: code, UserID: userID, ExpiresAt: s.clock.Now().Add(s.ttl)}
		err = s.repo.Replace(ctx, t)
		if errors.Is(err, ErrCodeCollision) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return t, nil
	}
	return nil, ErrCodeCollision
}

func (s *service) Link(ctx context.Context, code, lineUserID string) (*user.User, error) {
	t, err := s.repo.Consume(ctx, code)
	if err != nil {
		return nil, err
	}
	if t.Expired(s.clock.Now()) {
		return nil, ErrInvalidCode
	}
	return s.users.LinkLine(ctx, t.UserID, lineUserID)
}

func newCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(codeSpan))
	if err != nil {
		return "", fmt.Errorf("generate link code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+codeMin), nil
}
