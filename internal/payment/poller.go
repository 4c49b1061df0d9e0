package payment

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"flashdeck/internal/logging"
	"flashdeck/internal/services/backend"
)

// Defaults match a three minute confirmation window.
const (
	DefaultInterval    = 6 * time.Second
	DefaultMaxAttempts = 30
)

// Verifier checks the status of an invoice with a single request per call.
type Verifier interface {
	VerifyPaymentOnce(ctx context.Context, token, invoiceID string) (backend.PaymentStatus, error)
}

// Result is the settled outcome of a polling task.
type Result struct {
	State    State
	Attempts int
	Status   backend.PaymentStatus
	// Message is the notice to show the user; empty when a redirect follows.
	Message string
	Next    Next
	Err     error
}

// Poller runs invoice verification on a fixed interval with a hard attempt cap.
type Poller struct {
	verifier    Verifier
	clock       Clock
	interval    time.Duration
	maxAttempts int
	logger      *slog.Logger
}

// NewPoller builds a poller. Non-positive interval or cap fall back to the defaults.
func NewPoller(verifier Verifier, clock Clock, interval time.Duration, maxAttempts int, logger *slog.Logger) *Poller {
	if clock == nil {
		clock = RealClock{}
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Poller{
		verifier:    verifier,
		clock:       clock,
		interval:    interval,
		maxAttempts: maxAttempts,
		logger:      logging.NewComponentLogger(logger, "payment-poller"),
	}
}

// settleFunc finalizes a result before the task reports done.
type settleFunc func(ctx context.Context, res *Result)

// Task is one cancellable polling run.
type Task struct {
	invoiceID string
	startedAt time.Time
	cancel    context.CancelFunc
	done      chan struct{}

	mu        sync.Mutex
	state     State
	attempts  int
	result    Result
	settledAt time.Time
}

// Start begins polling invoiceID. The ticker is created before Start returns,
// so the first tick belongs to this task.
func (p *Poller) Start(ctx context.Context, token, invoiceID string, settle settleFunc) *Task {
	ctx, cancel := context.WithCancel(ctx)
	task := &Task{
		invoiceID: invoiceID,
		startedAt: p.clock.Now(),
		cancel:    cancel,
		done:      make(chan struct{}),
		state:     StateRedirectedPending,
	}
	ticker := p.clock.NewTicker(p.interval)
	go p.run(ctx, task, ticker, token, settle)
	return task
}

func (p *Poller) run(ctx context.Context, task *Task, ticker Ticker, token string, settle settleFunc) {
	logger := logging.WithContext(ctx, p.logger).With(logging.String(logging.FieldInvoiceID, task.invoiceID))

	for {
		select {
		case <-ctx.Done():
			p.finish(ctx, task, ticker, Result{State: StateCanceled}, settle)
			return
		case <-ticker.C():
		}

		attempt := task.beginAttempt()
		status, err := p.verifier.VerifyPaymentOnce(ctx, token, task.invoiceID)
		if ctx.Err() != nil {
			p.finish(ctx, task, ticker, Result{State: StateCanceled}, settle)
			return
		}
		switch {
		case err != nil:
			logger.Debug("payment verification attempt failed, still pending",
				logging.Int("attempt", attempt),
				logging.Error(err),
			)
		case status.Success:
			logger.Info("payment confirmed", logging.Int("attempt", attempt))
			p.finish(ctx, task, ticker, Result{State: StateSucceeded, Status: status}, settle)
			return
		case status.Failed():
			logging.WarnWithContext(logger, "payment failed", "payment_failed",
				logging.Int("attempt", attempt),
				logging.String("reason", status.Error),
				logging.String(logging.FieldErrorHint, "the customer must restart checkout"),
			)
			p.finish(ctx, task, ticker, Result{State: StateFailed, Status: status, Message: MsgFailed}, settle)
			return
		default:
			logger.Debug("payment pending",
				logging.Int("attempt", attempt),
				logging.String("status", status.Status),
			)
		}

		if attempt >= p.maxAttempts {
			logging.WarnWithContext(logger, "payment verification timed out", "payment_timeout",
				logging.Int("attempts", attempt),
				logging.Duration("elapsed", p.clock.Now().Sub(task.startedAt)),
				logging.String(logging.FieldErrorHint, "reconcile the invoice with the payment processor"),
			)
			p.finish(ctx, task, ticker, Result{State: StateTimedOut, Status: status, Message: MsgTimeout}, settle)
			return
		}
	}
}

func (p *Poller) finish(ctx context.Context, task *Task, ticker Ticker, res Result, settle settleFunc) {
	ticker.Stop()
	res.Attempts = task.Attempts()
	if settle != nil {
		settle(context.WithoutCancel(ctx), &res)
	}
	task.mu.Lock()
	task.state = res.State
	task.result = res
	task.settledAt = p.clock.Now()
	task.mu.Unlock()
	close(task.done)
}

func (t *Task) beginAttempt() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = StatePolling
	t.attempts++
	return t.attempts
}

// InvoiceID identifies the checkout being watched.
func (t *Task) InvoiceID() string { return t.invoiceID }

// State returns the current stage.
func (t *Task) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Attempts returns how many verification requests have been issued.
func (t *Task) Attempts() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.attempts
}

// Result returns the settled outcome; it is zero until Done is closed.
func (t *Task) Result() Result {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.result
}

// settledSince reports when the task reached a terminal state.
func (t *Task) settledSince() (time.Time, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.settledAt, t.state.Terminal()
}

// Done is closed once the task reaches a terminal state.
func (t *Task) Done() <-chan struct{} { return t.done }

// Cancel stops polling. No request is issued after Cancel returns, apart from
// one already in flight whose answer is discarded.
func (t *Task) Cancel() { t.cancel() }

// Wait blocks until the task settles or ctx ends.
func (t *Task) Wait(ctx context.Context) (Result, error) {
	select {
	case <-t.done:
		return t.Result(), nil
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}
