package notification

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

const adminChannelKey = "admin_line_channel"

var ErrSettingNotFound = errors.New("setting not found")

// SettingsStore persists small named values across restarts.
type SettingsStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

// AdminChannel is where admin-audience messages go. The LINE target can be
// re-pointed at runtime; the new value is stored before it takes effect.
type AdminChannel struct {
	store SettingsStore
	email string

	mu     sync.RWMutex
	lineID string
}

func NewAdminChannel(store SettingsStore, lineID, email string) *AdminChannel {
	return &AdminChannel{store: store, lineID: lineID, email: email}
}

// Load replaces the configured LINE target with the stored one, if any.
func (a *AdminChannel) Load(ctx context.Context) error {
	v, err := a.store.Get(ctx, adminChannelKey)
	if errors.Is(err, ErrSettingNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load admin channel: %w", err)
	}
	a.mu.Lock()
	a.lineID = v
	a.mu.Unlock()
	return nil
}

func (a *AdminChannel) Set(ctx context.Context, lineID string) error {
	if err := a.store.Set(ctx, adminChannelKey, lineID); err != nil {
		return fmt.Errorf("store admin channel: %w", err)
	}
	a.mu.Lock()
	a.lineID = lineID
	a.mu.Unlock()
	return nil
}

func (a *AdminChannel) Recipient() Recipient {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return Recipient{Name: "admins", LineID: a.lineID, Email: a.email}
}
