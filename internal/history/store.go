package history

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"flashdeck/internal/config"
	"flashdeck/internal/flashcards"
	"flashdeck/internal/sqlitedb"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current history schema version. Bump this when the schema changes.
const schemaVersion = 1

const (
	defaultListLimit = 20
	previewLength    = 60
	deckColumns      = "id, owner, language, notes, card_count, created_at"
)

// Summary describes a stored deck without its cards.
type Summary struct {
	ID        string    `json:"id"`
	Owner     string    `json:"owner,omitempty"`
	Language  string    `json:"language"`
	Preview   string    `json:"preview"`
	CardCount int       `json:"card_count"`
	CreatedAt time.Time `json:"created_at"`
}

// Store persists generated decks in SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the history database under the data dir.
func Open(ctx context.Context, cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(ctx, cfg.HistoryDBPath())
}

// OpenPath opens the history database at an explicit path.
func OpenPath(ctx context.Context, path string) (*Store, error) {
	db, err := sqlitedb.Open(ctx, path, sqlitedb.Schema{Name: "history", SQL: schemaSQL, Version: schemaVersion})
	if err != nil {
		return nil, err
	}
	return &Store{db: db, path: path}, nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record stores deck and its cards in one transaction.
func (s *Store) Record(ctx context.Context, deck flashcards.Deck) error {
	if strings.TrimSpace(deck.ID) == "" {
		return errors.New("deck id is required")
	}
	if len(deck.Cards) == 0 {
		return errors.New("deck has no cards")
	}
	if deck.CreatedAt.IsZero() {
		deck.CreatedAt = time.Now().UTC()
	}

	return sqlitedb.RetryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin record tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO decks (`+deckColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
			deck.ID, deck.Owner, deck.Language, deck.Notes, len(deck.Cards),
			deck.CreatedAt.UTC().Format(time.RFC3339Nano),
		); err != nil {
			return fmt.Errorf("insert deck: %w", err)
		}
		for i, card := range deck.Cards {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO cards (deck_id, position, question, answer) VALUES (?, ?, ?, ?)`,
				deck.ID, i, card.Question, card.Answer,
			); err != nil {
				return fmt.Errorf("insert card %d: %w", i, err)
			}
		}
		return tx.Commit()
	})
}

// List returns the newest decks for owner. An empty owner lists every deck.
func (s *Store) List(ctx context.Context, owner string, limit int) ([]Summary, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	query := `SELECT ` + deckColumns + ` FROM decks`
	args := []any{}
	if owner != "" {
		query += ` WHERE owner = ?`
		args = append(args, owner)
	}
	query += ` ORDER BY created_at DESC, id LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list decks: %w", err)
	}
	defer rows.Close()

	var summaries []Summary
	for rows.Next() {
		deck, count, err := scanDeck(rows)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, Summary{
			ID:        deck.ID,
			Owner:     deck.Owner,
			Language:  deck.Language,
			Preview:   preview(deck.Notes),
			CardCount: count,
			CreatedAt: deck.CreatedAt,
		})
	}
	return summaries, rows.Err()
}

// Get loads a deck with its cards in original order. It returns nil, nil
// when no deck has id.
func (s *Store) Get(ctx context.Context, id string) (*flashcards.Deck, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+deckColumns+` FROM decks WHERE id = ?`, id)
	deck, _, err := scanDeck(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get deck: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT question, answer FROM cards WHERE deck_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("load cards: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var card flashcards.Card
		if err := rows.Scan(&card.Question, &card.Answer); err != nil {
			return nil, fmt.Errorf("scan card: %w", err)
		}
		deck.Cards = append(deck.Cards, card)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return deck, nil
}

// Delete removes a deck and its cards.
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	var removed bool
	err := sqlitedb.RetryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin delete tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		if _, err := tx.ExecContext(ctx, `DELETE FROM cards WHERE deck_id = ?`, id); err != nil {
			return fmt.Errorf("delete cards: %w", err)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM decks WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("delete deck: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		removed = affected > 0
		return tx.Commit()
	})
	return removed, err
}

func scanDeck(scanner interface{ Scan(dest ...any) error }) (*flashcards.Deck, int, error) {
	var (
		deck    flashcards.Deck
		count   int
		created string
	)
	if err := scanner.Scan(&deck.ID, &deck.Owner, &deck.Language, &deck.Notes, &count, &created); err != nil {
		return nil, 0, err
	}
	ts, err := time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return nil, 0, fmt.Errorf("parse created_at %q: %w", created, err)
	}
	deck.CreatedAt = ts
	return &deck, count, nil
}

func preview(notes string) string {
	flat := strings.Join(strings.Fields(notes), " ")
	runes := []rune(flat)
	if len(runes) <= previewLength {
		return flat
	}
	return strings.TrimSpace(string(runes[:previewLength-1])) + "…"
}
