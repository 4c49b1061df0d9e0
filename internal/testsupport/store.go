package testsupport

import (
	"context"
	"testing"

	"flashdeck/internal/config"
	"flashdeck/internal/history"
	"flashdeck/internal/session"
)

// MustOpenHistory opens the deck history database for tests and registers cleanup.
func MustOpenHistory(t testing.TB, cfg *config.Config) *history.Store {
	t.Helper()

	store, err := history.Open(context.Background(), cfg)
	if err != nil {
		t.Fatalf("history.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

// MustOpenSessions opens the per-browser session database for tests.
func MustOpenSessions(t testing.TB, cfg *config.Config) *session.SQLiteStore {
	t.Helper()

	store, err := session.OpenSQLite(context.Background(), cfg.SessionDBPath())
	if err != nil {
		t.Fatalf("session.OpenSQLite: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}
