package sqlitedb_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"flashdeck/internal/sqlitedb"
)

const testSchema = `
CREATE TABLE schema_version (version INTEGER NOT NULL);
CREATE TABLE notes (id INTEGER PRIMARY KEY, body TEXT NOT NULL);
`

func TestOpenCreatesSchemaOnce(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "test.db")

	db, err := sqlitedb.Open(ctx, path, sqlitedb.Schema{Name: "test", SQL: testSchema, Version: 1})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := sqlitedb.Exec(ctx, db, "INSERT INTO notes (body) VALUES (?)", "hello"); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	db, err = sqlitedb.Open(ctx, path, sqlitedb.Schema{Name: "test", SQL: testSchema, Version: 1})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer db.Close()
	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM notes").Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected data to survive reopen, got %d rows", count)
	}
}

func TestOpenRejectsVersionMismatch(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "test.db")

	db, err := sqlitedb.Open(ctx, path, sqlitedb.Schema{Name: "test", SQL: testSchema, Version: 1})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	_ = db.Close()

	_, err = sqlitedb.Open(ctx, path, sqlitedb.Schema{Name: "test", SQL: testSchema, Version: 2})
	if !errors.Is(err, sqlitedb.ErrSchemaMismatch) {
		t.Fatalf("expected schema mismatch, got %v", err)
	}
}

func TestRetryOnBusyStopsOnOtherErrors(t *testing.T) {
	calls := 0
	boom := errors.New("boom")
	err := sqlitedb.RetryOnBusy(context.Background(), func() error {
		calls++
		return boom
	})
	if !errors.Is(err, boom) || calls != 1 {
		t.Fatalf("expected single call returning boom, got calls=%d err=%v", calls, err)
	}
}

func TestRetryOnBusyRetriesLockedDatabase(t *testing.T) {
	calls := 0
	err := sqlitedb.RetryOnBusy(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("database is locked")
		}
		return nil
	})
	if err != nil || calls != 3 {
		t.Fatalf("expected success after 3 calls, got calls=%d err=%v", calls, err)
	}
}
