package session_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"flashdeck/internal/session"
)

func TestManagerAuthenticationRequiresTokenAndUserID(t *testing.T) {
	ctx := context.Background()
	store := session.NewMemoryStore()
	mgr := session.NewManager(store)

	require.False(t, mgr.IsAuthenticated(ctx))

	require.NoError(t, store.Set(ctx, session.KeyAuthToken, "tok"))
	require.False(t, mgr.IsAuthenticated(ctx), "token alone is not a session")

	require.NoError(t, store.Set(ctx, session.KeyUserData, `{"name":"Ada"}`))
	require.False(t, mgr.IsAuthenticated(ctx), "user without id is not a session")

	require.NoError(t, store.Set(ctx, session.KeyUserData, `{"id":7,"name":"Ada","tier":"free"}`))
	require.True(t, mgr.IsAuthenticated(ctx))

	state, err := mgr.State(ctx)
	require.NoError(t, err)
	require.Equal(t, "7", state.User.ID)
	require.Equal(t, "free", state.User.Tier)
}

func TestManagerMalformedUserReadsAsAnonymous(t *testing.T) {
	ctx := context.Background()
	store := session.NewMemoryStore()
	mgr := session.NewManager(store)

	require.NoError(t, store.Set(ctx, session.KeyAuthToken, "tok"))
	require.NoError(t, store.Set(ctx, session.KeyUserData, `{not json`))

	state, err := mgr.State(ctx)
	require.NoError(t, err)
	require.Nil(t, state.User)
	require.False(t, state.Authenticated())
}

func TestManagerUpdateAuthKeepsUnknownFields(t *testing.T) {
	ctx := context.Background()
	store := session.NewMemoryStore()
	mgr := session.NewManager(store)

	require.NoError(t, store.Set(ctx, session.KeyAuthToken, "old"))
	require.NoError(t, store.Set(ctx, session.KeyUserData, `{"id":"u1","name":"Ada","created":"2024-01-01"}`))

	require.NoError(t, mgr.UpdateAuth(ctx, "new", "premium"))

	token, err := mgr.Token(ctx)
	require.NoError(t, err)
	require.Equal(t, "new", token)

	raw, ok, err := store.Get(ctx, session.KeyUserData)
	require.NoError(t, err)
	require.True(t, ok)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &decoded))
	require.Equal(t, "premium", decoded["tier"])
	require.Equal(t, "2024-01-01", decoded["created"])
	require.Equal(t, "u1", decoded["id"])
}

func TestManagerUpdateAuthWithoutTokenKeepsExisting(t *testing.T) {
	ctx := context.Background()
	mgr := session.NewManager(session.NewMemoryStore())
	require.NoError(t, mgr.SaveAuth(ctx, "keep", session.User{ID: "1"}))
	require.NoError(t, mgr.UpdateAuth(ctx, "", "premium"))

	state, err := mgr.State(ctx)
	require.NoError(t, err)
	require.Equal(t, "keep", state.Token)
	require.Equal(t, "premium", state.User.Tier)
}

func TestManagerClearAuthKeepsDarkMode(t *testing.T) {
	ctx := context.Background()
	store := session.NewMemoryStore()
	mgr := session.NewManager(store)

	require.NoError(t, mgr.SaveAuth(ctx, "tok", session.User{ID: "1"}))
	require.NoError(t, mgr.SetDarkMode(ctx, true))
	require.NoError(t, mgr.ClearAuth(ctx))

	_, ok, _ := store.Get(ctx, session.KeyAuthToken)
	require.False(t, ok)
	_, ok, _ = store.Get(ctx, session.KeyUserData)
	require.False(t, ok)

	value, ok, _ := store.Get(ctx, session.KeyDarkMode)
	require.True(t, ok)
	require.Equal(t, session.DarkModeEnabled, value)
}

func TestManagerDarkModeValues(t *testing.T) {
	ctx := context.Background()
	store := session.NewMemoryStore()
	mgr := session.NewManager(store)

	dark, err := mgr.DarkMode(ctx)
	require.NoError(t, err)
	require.False(t, dark)

	require.NoError(t, mgr.SetDarkMode(ctx, false))
	value, _, _ := store.Get(ctx, session.KeyDarkMode)
	require.Equal(t, session.DarkModeDisabled, value)
}

func TestManagerPendingRegistration(t *testing.T) {
	ctx := context.Background()
	mgr := session.NewManager(session.NewMemoryStore())

	pending, err := mgr.Pending(ctx)
	require.NoError(t, err)
	require.Nil(t, pending)

	require.NoError(t, mgr.StagePending(ctx, session.PendingRegistration{Name: "Ada", Email: "ada@example.com", Tier: "premium"}))
	pending, err = mgr.Pending(ctx)
	require.NoError(t, err)
	require.NotNil(t, pending)
	require.Equal(t, "ada@example.com", pending.Email)
	require.False(t, pending.StagedAt.IsZero())

	require.NoError(t, mgr.ClearPending(ctx))
	pending, err = mgr.Pending(ctx)
	require.NoError(t, err)
	require.Nil(t, pending)
}
