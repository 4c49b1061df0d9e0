package session

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// State is a snapshot of the stored session.
type State struct {
	Token    string
	User     *User
	DarkMode bool
}

// Authenticated reports whether the snapshot holds a token and a user with an id.
func (s State) Authenticated() bool {
	return s.Token != "" && s.User != nil && s.User.ID != ""
}

// Manager layers typed access over a Store. It is the only place that decides
// whether a session counts as authenticated.
type Manager struct {
	store Store
	now   func() time.Time
}

// NewManager wraps store.
func NewManager(store Store) *Manager {
	return &Manager{store: store, now: time.Now}
}

// State loads the token, user, and dark mode preference. A malformed user
// record reads as no user.
func (m *Manager) State(ctx context.Context) (State, error) {
	var state State

	token, _, err := m.store.Get(ctx, KeyAuthToken)
	if err != nil {
		return State{}, fmt.Errorf("load auth token: %w", err)
	}
	state.Token = strings.TrimSpace(token)

	user, err := m.User(ctx)
	if err != nil {
		return State{}, err
	}
	state.User = user

	dark, err := m.DarkMode(ctx)
	if err != nil {
		return State{}, err
	}
	state.DarkMode = dark
	return state, nil
}

// IsAuthenticated reports whether a token and a user id are stored. Storage
// errors count as unauthenticated.
func (m *Manager) IsAuthenticated(ctx context.Context) bool {
	state, err := m.State(ctx)
	if err != nil {
		return false
	}
	return state.Authenticated()
}

// Token returns the stored auth token, or "" when absent.
func (m *Manager) Token(ctx context.Context) (string, error) {
	token, _, err := m.store.Get(ctx, KeyAuthToken)
	if err != nil {
		return "", fmt.Errorf("load auth token: %w", err)
	}
	return strings.TrimSpace(token), nil
}

// User returns the stored user, or nil when absent or unreadable.
func (m *Manager) User(ctx context.Context) (*User, error) {
	raw, ok, err := m.store.Get(ctx, KeyUserData)
	if err != nil {
		return nil, fmt.Errorf("load user data: %w", err)
	}
	if !ok || strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var user User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return nil, nil
	}
	return &user, nil
}

// SaveAuth stores a token and user after a successful sign-in.
func (m *Manager) SaveAuth(ctx context.Context, token string, user User) error {
	if err := m.store.Set(ctx, KeyAuthToken, strings.TrimSpace(token)); err != nil {
		return fmt.Errorf("store auth token: %w", err)
	}
	return m.SetUser(ctx, user)
}

// SetUser replaces the stored user record.
func (m *Manager) SetUser(ctx context.Context, user User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user data: %w", err)
	}
	if err := m.store.Set(ctx, KeyUserData, string(data)); err != nil {
		return fmt.Errorf("store user data: %w", err)
	}
	return nil
}

// UpdateAuth applies a confirmed upgrade: the token is replaced when one is
// supplied and the user's tier is set, creating an empty user record if none
// was stored.
func (m *Manager) UpdateAuth(ctx context.Context, token, tier string) error {
	if token = strings.TrimSpace(token); token != "" {
		if err := m.store.Set(ctx, KeyAuthToken, token); err != nil {
			return fmt.Errorf("store auth token: %w", err)
		}
	}
	user, err := m.User(ctx)
	if err != nil {
		return err
	}
	if user == nil {
		user = &User{}
	}
	user.Tier = strings.TrimSpace(tier)
	return m.SetUser(ctx, *user)
}

// ClearAuth removes the token and user together. Other keys are kept.
func (m *Manager) ClearAuth(ctx context.Context) error {
	if err := m.store.Delete(ctx, KeyAuthToken, KeyUserData); err != nil {
		return fmt.Errorf("clear auth: %w", err)
	}
	return nil
}

// DarkMode reports whether dark mode is enabled.
func (m *Manager) DarkMode(ctx context.Context) (bool, error) {
	value, _, err := m.store.Get(ctx, KeyDarkMode)
	if err != nil {
		return false, fmt.Errorf("load dark mode: %w", err)
	}
	return value == DarkModeEnabled, nil
}

// SetDarkMode persists the dark mode preference.
func (m *Manager) SetDarkMode(ctx context.Context, enabled bool) error {
	value := DarkModeDisabled
	if enabled {
		value = DarkModeEnabled
	}
	if err := m.store.Set(ctx, KeyDarkMode, value); err != nil {
		return fmt.Errorf("store dark mode: %w", err)
	}
	return nil
}

// StagePending records a registration that is waiting on checkout.
func (m *Manager) StagePending(ctx context.Context, pending PendingRegistration) error {
	if pending.StagedAt.IsZero() {
		pending.StagedAt = m.now().UTC()
	}
	data, err := json.Marshal(pending)
	if err != nil {
		return fmt.Errorf("encode pending registration: %w", err)
	}
	if err := m.store.Set(ctx, KeyPendingRegistration, string(data)); err != nil {
		return fmt.Errorf("store pending registration: %w", err)
	}
	return nil
}

// Pending returns the staged registration, or nil.
func (m *Manager) Pending(ctx context.Context) (*PendingRegistration, error) {
	raw, ok, err := m.store.Get(ctx, KeyPendingRegistration)
	if err != nil {
		return nil, fmt.Errorf("load pending registration: %w", err)
	}
	if !ok || strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var pending PendingRegistration
	if err := json.Unmarshal([]byte(raw), &pending); err != nil {
		return nil, nil
	}
	return &pending, nil
}

// ClearPending removes any staged registration.
func (m *Manager) ClearPending(ctx context.Context) error {
	if err := m.store.Delete(ctx, KeyPendingRegistration); err != nil {
		return fmt.Errorf("clear pending registration: %w", err)
	}
	return nil
}
