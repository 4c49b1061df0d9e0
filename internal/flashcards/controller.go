package flashcards

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"flashdeck/internal/language"
	"flashdeck/internal/logging"
	"flashdeck/internal/notifications"
	"flashdeck/internal/services"
	"flashdeck/internal/services/backend"
)

// ErrGenerationInProgress is returned while another generation on the same
// board has not finished.
var ErrGenerationInProgress = errors.New("flashcard generation already in progress")

// Generator turns study notes into cards.
type Generator interface {
	Generate(ctx context.Context, notes, language string) ([]Card, error)
}

// Recorder persists successfully generated decks.
type Recorder interface {
	Record(ctx context.Context, deck Deck) error
}

// Sink archives exported files somewhere durable.
type Sink interface {
	Archive(ctx context.Context, owner string, file File) (string, error)
}

// Controller drives generation, export, and clearing for boards.
type Controller struct {
	generator Generator
	recorder  Recorder
	sink      Sink
	notifier  notifications.Service
	logger    *slog.Logger
	now       func() time.Time
}

// Option customizes a Controller.
type Option func(*Controller)

// WithRecorder stores successful decks.
func WithRecorder(r Recorder) Option {
	return func(c *Controller) { c.recorder = r }
}

// WithSink archives every export.
func WithSink(s Sink) Option {
	return func(c *Controller) { c.sink = s }
}

// WithNotifier publishes generation failures.
func WithNotifier(n notifications.Service) Option {
	return func(c *Controller) { c.notifier = n }
}

// WithLogger sets the controller logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) { c.logger = logger }
}

// WithClock overrides the timestamp source for recorded decks.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// NewController builds a controller around generator.
func NewController(generator Generator, opts ...Option) *Controller {
	c := &Controller{generator: generator, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = logging.NewComponentLogger(c.logger, "flashcards")
	if c.notifier == nil {
		c.notifier = notifications.NewService(nil)
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c
}

// Generate requests cards for notes and renders the outcome on board.
//
// Empty notes or an unsupported language only set a notice; no request is
// made. Cards render exactly as the backend returned them. A failed request
// shows the demo deck with an error notice; the returned error is non-nil only for ErrGenerationInProgress
// and for rejected credentials (matching services.ErrUnauthorized), which the
// caller handles by dropping the session.
func (c *Controller) Generate(ctx context.Context, board *Board, notes, lang string) error {
	trimmed := strings.TrimSpace(notes)
	board.SetNotes(notes)
	if trimmed == "" {
		board.setNotice(errorNotice(MsgNotesRequired))
		return nil
	}
	code, ok := language.Normalize(lang)
	if !ok {
		board.setNotice(errorNotice(fmt.Sprintf(msgUnsupportedLanguageTemplate, strings.TrimSpace(lang))))
		c.logger.Debug("unsupported study language", logging.String("language", lang))
		return nil
	}
	if !board.begin() {
		return ErrGenerationInProgress
	}
	defer board.end()

	board.SetLanguage(code)

	logger := logging.WithContext(ctx, c.logger)
	start := c.now()
	cards, err := c.generator.Generate(ctx, trimmed, code)
	if err != nil {
		if errors.Is(err, services.ErrUnauthorized) {
			logging.WarnWithContext(logger, "generation rejected credentials", "generate_unauthorized",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "sign in again"),
			)
			return fmt.Errorf("generate flashcards: %w", err)
		}
		c.fallback(ctx, logger, board, err)
		return nil
	}

	if len(cards) == 0 {
		board.setNotice(errorNotice(MsgNoCards))
		logger.Info("generation returned no cards", logging.String("language", code))
		return nil
	}

	board.Render(cards)
	board.setNotice(successNotice(MsgGenerated))
	logger.Info("flashcards generated",
		logging.Int("cards", len(cards)),
		logging.String("language", code),
		logging.Duration("elapsed", c.now().Sub(start)),
	)
	c.record(ctx, logger, Deck{
		Language: code,
		Notes:    trimmed,
		Cards:    cards,
	})
	return nil
}

func (c *Controller) fallback(ctx context.Context, logger *slog.Logger, board *Board, err error) {
	message := failureMessage(err)
	board.Render(FallbackCards())
	board.setNotice(errorNotice(fmt.Sprintf(msgFallbackTemplate, message)))
	logging.WarnWithContext(logger, "generation failed, showing demo cards", "generate_failed",
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "check that the flashcard backend is reachable"),
	)
	if pubErr := c.notifier.Publish(ctx, notifications.EventGenerationFailed, notifications.Payload{"error": message}); pubErr != nil {
		logger.Debug("generation failure notification failed", logging.Error(pubErr))
	}
}

func (c *Controller) record(ctx context.Context, logger *slog.Logger, deck Deck) {
	if c.recorder == nil {
		return
	}
	deck.ID = uuid.NewString()
	deck.CreatedAt = c.now().UTC()
	if owner, ok := services.SessionIDFromContext(ctx); ok {
		deck.Owner = owner
	}
	if err := c.recorder.Record(ctx, deck); err != nil {
		logging.WarnWithContext(logger, "failed to record deck history", "history_record_failed",
			logging.Error(err),
			logging.String("deck_id", deck.ID),
		)
	}
}

// Clear empties the board and confirms.
func (c *Controller) Clear(board *Board) Notice {
	board.Clear()
	n := successNotice(MsgCleared)
	board.setNotice(n)
	return n
}

// Load renders a deck from history with its notes and language.
func (c *Controller) Load(board *Board, deck Deck) Notice {
	board.SetNotes(deck.Notes)
	board.SetLanguage(deck.Language)
	board.Render(deck.Cards)
	n := successNotice(MsgLoaded)
	board.setNotice(n)
	return n
}

// failureMessage picks the text shown after a failed generation: the server's
// error field, the generic message for bare status failures, or the
// transport error.
func failureMessage(err error) string {
	var statusErr *backend.StatusError
	if errors.As(err, &statusErr) {
		if msg := strings.TrimSpace(statusErr.Message); msg != "" {
			return msg
		}
		return MsgUnknownError
	}
	if msg := strings.TrimSpace(err.Error()); msg != "" {
		return msg
	}
	return MsgUnknownError
}

// BackendGenerator adapts the backend client to Generator.
type BackendGenerator struct {
	Client *backend.Client
}

func (g BackendGenerator) Generate(ctx context.Context, notes, lang string) ([]Card, error) {
	flashcards, err := g.Client.GenerateFlashcards(ctx, notes, lang)
	if err != nil {
		return nil, err
	}
	cards := make([]Card, 0, len(flashcards))
	for _, fc := range flashcards {
		cards = append(cards, Card{Question: fc.Question, Answer: fc.Answer})
	}
	return cards, nil
}
