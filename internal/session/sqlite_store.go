package session

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"flashdeck/internal/sqlitedb"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current session schema version. Bump this when the schema changes.
const schemaVersion = 1

// SQLiteStore keeps one key/value namespace per browser session.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// SQLiteOption customizes an SQLiteStore.
type SQLiteOption func(*SQLiteStore)

// WithClock overrides the time source used for last-write stamps and pruning.
func WithClock(now func() time.Time) SQLiteOption {
	return func(s *SQLiteStore) {
		if now != nil {
			s.now = now
		}
	}
}

// OpenSQLite opens or creates the session database at path.
func OpenSQLite(ctx context.Context, path string, opts ...SQLiteOption) (*SQLiteStore, error) {
	db, err := sqlitedb.Open(ctx, path, sqlitedb.Schema{Name: "session", SQL: schemaSQL, Version: schemaVersion})
	if err != nil {
		return nil, err
	}
	store := &SQLiteStore{db: db, now: time.Now}
	for _, opt := range opts {
		opt(store)
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Namespace returns the Store for one browser session id.
func (s *SQLiteStore) Namespace(id string) Store {
	return &namespaceStore{parent: s, namespace: strings.TrimSpace(id)}
}

// Prune removes every namespace whose newest value is older than maxAge and
// returns the number of rows deleted.
func (s *SQLiteStore) Prune(ctx context.Context, maxAge time.Duration) (int64, error) {
	cutoff := s.now().Add(-maxAge).Unix()
	res, err := sqlitedb.Exec(ctx, s.db, `
		DELETE FROM session_values
		WHERE namespace IN (
			SELECT namespace FROM session_values
			GROUP BY namespace
			HAVING MAX(updated_at) < ?
		)`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune sessions: %w", err)
	}
	return res.RowsAffected()
}

type namespaceStore struct {
	parent    *SQLiteStore
	namespace string
}

func (n *namespaceStore) Get(ctx context.Context, key string) (string, bool, error) {
	if n.namespace == "" {
		return "", false, nil
	}
	var value string
	err := n.parent.db.QueryRowContext(ctx,
		"SELECT value FROM session_values WHERE namespace = ? AND key = ?",
		n.namespace, key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read session value %s: %w", key, err)
	}
	return value, true, nil
}

func (n *namespaceStore) Set(ctx context.Context, key, value string) error {
	if n.namespace == "" {
		return errors.New("session namespace is empty")
	}
	_, err := sqlitedb.Exec(ctx, n.parent.db, `
		INSERT INTO session_values (namespace, key, value, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (namespace, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		n.namespace, key, value, n.parent.now().Unix())
	if err != nil {
		return fmt.Errorf("write session value %s: %w", key, err)
	}
	return nil
}

func (n *namespaceStore) Delete(ctx context.Context, keys ...string) error {
	if n.namespace == "" || len(keys) == 0 {
		return nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(keys)), ",")
	args := make([]any, 0, len(keys)+1)
	args = append(args, n.namespace)
	for _, key := range keys {
		args = append(args, key)
	}
	_, err := sqlitedb.Exec(ctx, n.parent.db,
		"DELETE FROM session_values WHERE namespace = ? AND key IN ("+placeholders+")", args...)
	if err != nil {
		return fmt.Errorf("delete session values: %w", err)
	}
	return nil
}
