package payment

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"flashdeck/internal/logging"
	"flashdeck/internal/notifications"
	"flashdeck/internal/services"
	"flashdeck/internal/services/backend"
	"flashdeck/internal/session"
)

// ErrAuthRequired is returned by Begin when no auth token is stored.
var ErrAuthRequired = errors.New("authentication required")

// Backend is the subset of the backend client the payment flow uses.
type Backend interface {
	Verifier
	VerifyPayment(ctx context.Context, token, invoiceID string) (backend.PaymentStatus, error)
	CreatePaymentIntent(ctx context.Context, token string) (backend.PaymentIntent, error)
	CreatePaymentLink(ctx context.Context, cookies ...*http.Cookie) (string, error)
}

// Checkout is a created payment intent awaiting confirmation.
type Checkout struct {
	PaymentURL string
	InvoiceID  string
	Context    Context
	// Owner is the session the checkout belongs to; one task runs per owner.
	Owner string

	token    string
	sessions *session.Manager
}

// Outcome is what the caller should do after a checkout return is verified.
type Outcome struct {
	Success bool
	Message string
	Next    Next
}

// Flow orchestrates checkout creation, confirmation polling, and session updates.
type Flow struct {
	backend  Backend
	clock    Clock
	interval time.Duration
	max      int
	notifier notifications.Service
	logger   *slog.Logger
	poller   *Poller

	mu      sync.Mutex
	tasks   map[string]*Task
	byOwner map[string]string
}

// FlowOption customizes a Flow.
type FlowOption func(*Flow)

// WithClock drives polling from clock.
func WithClock(clock Clock) FlowOption {
	return func(f *Flow) { f.clock = clock }
}

// WithPolling sets the verification interval and attempt cap.
func WithPolling(interval time.Duration, maxAttempts int) FlowOption {
	return func(f *Flow) {
		f.interval = interval
		f.max = maxAttempts
	}
}

// WithNotifier publishes payment outcomes.
func WithNotifier(n notifications.Service) FlowOption {
	return func(f *Flow) { f.notifier = n }
}

// WithLogger sets the flow logger.
func WithLogger(logger *slog.Logger) FlowOption {
	return func(f *Flow) { f.logger = logger }
}

// NewFlow builds a payment flow around b.
func NewFlow(b Backend, opts ...FlowOption) *Flow {
	f := &Flow{
		backend: b,
		tasks:   make(map[string]*Task),
		byOwner: make(map[string]string),
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.notifier == nil {
		f.notifier = notifications.NewService(nil)
	}
	base := f.logger
	f.logger = logging.NewComponentLogger(base, "payment")
	f.poller = NewPoller(b, f.clock, f.interval, f.max, base)
	return f
}

// Begin creates a payment intent for the signed-in user. Without a stored
// token it returns ErrAuthRequired and makes no request.
func (f *Flow) Begin(ctx context.Context, sessions *session.Manager, tag Context) (Checkout, error) {
	token, err := sessions.Token(ctx)
	if err != nil {
		return Checkout{}, err
	}
	if token == "" {
		return Checkout{}, ErrAuthRequired
	}

	logger := logging.WithContext(ctx, f.logger)
	logger.Info("creating payment intent",
		logging.String("state", string(StateCreatingIntent)),
		logging.String("context", string(tag)),
	)
	intent, err := f.backend.CreatePaymentIntent(ctx, token)
	if err != nil {
		logging.WarnWithContext(logger, "payment setup failed", "payment_setup_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the backend payment configuration"),
		)
		return Checkout{}, err
	}

	owner, _ := services.SessionIDFromContext(ctx)
	checkout := Checkout{
		PaymentURL: intent.PaymentURL,
		InvoiceID:  intent.InvoiceID,
		Context:    tag,
		Owner:      owner,
		token:      token,
		sessions:   sessions,
	}
	logger.Info("payment intent created",
		logging.String("state", string(StateRedirectedPending)),
		logging.String(logging.FieldInvoiceID, intent.InvoiceID),
	)
	return checkout, nil
}

// SetupFailureMessage renders the notice for a failed Begin.
func SetupFailureMessage(err error) string {
	if errors.Is(err, ErrAuthRequired) {
		return MsgAuthRequired
	}
	return msgSetupFailed + errorText(err)
}

// Watch polls checkout until it settles. ctx bounds the whole run and should
// outlive the request that started it. onDone, when set, receives the settled
// result after the session has been updated. A previous task for the same
// owner is canceled.
func (f *Flow) Watch(ctx context.Context, checkout Checkout, onDone func(Result)) *Task {
	if checkout.InvoiceID != "" {
		ctx = services.WithInvoiceID(ctx, checkout.InvoiceID)
	}
	if checkout.Owner != "" {
		ctx = services.WithSessionID(ctx, checkout.Owner)
	}

	task := f.poller.Start(ctx, checkout.token, checkout.InvoiceID, func(ctx context.Context, res *Result) {
		f.settle(ctx, checkout, res)
	})

	f.mu.Lock()
	if prev, ok := f.byOwner[checkout.Owner]; ok && checkout.Owner != "" && prev != checkout.InvoiceID {
		if old := f.tasks[prev]; old != nil {
			old.Cancel()
		}
		delete(f.tasks, prev)
	}
	f.tasks[checkout.InvoiceID] = task
	if checkout.Owner != "" {
		f.byOwner[checkout.Owner] = checkout.InvoiceID
	}
	f.mu.Unlock()

	if onDone != nil {
		go func() {
			<-task.Done()
			onDone(task.Result())
		}()
	}
	return task
}

func (f *Flow) settle(ctx context.Context, checkout Checkout, res *Result) {
	logger := logging.WithContext(ctx, f.logger)
	switch res.State {
	case StateSucceeded:
		outcome, err := f.Complete(ctx, checkout.sessions, res.Status, checkout.Context)
		if err != nil {
			logging.ErrorWithContext(logger, "failed to store upgraded session", "payment_session_update_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "the user may need to sign in again"),
			)
			res.Err = err
		}
		res.Message = outcome.Message
		res.Next = outcome.Next
	case StateFailed:
		f.publish(ctx, logger, notifications.EventPaymentFailed, notifications.Payload{
			"invoiceID": checkout.InvoiceID,
			"reason":    res.Status.Error,
		})
	case StateTimedOut:
		f.publish(ctx, logger, notifications.EventPaymentTimeout, notifications.Payload{
			"invoiceID": checkout.InvoiceID,
			"attempts":  res.Attempts,
		})
	}
}

// Complete applies a confirmed payment to the stored session: the token is
// replaced when returned, the tier is set (premium when absent), and any
// staged registration is dropped. Registration checkouts continue to the app;
// other contexts resume with a success notice.
func (f *Flow) Complete(ctx context.Context, sessions *session.Manager, status backend.PaymentStatus, tag Context) (Outcome, error) {
	tier := strings.TrimSpace(status.Tier)
	if tier == "" {
		tier = DefaultTier
	}
	outcome := Outcome{Success: true, Message: MsgSucceeded, Next: NextResume}
	if tag == ContextRegister {
		outcome = Outcome{Success: true, Next: NextRedirectApp}
	}
	invoice, _ := services.InvoiceIDFromContext(ctx)
	f.publish(ctx, logging.WithContext(ctx, f.logger), notifications.EventPaymentSucceeded, notifications.Payload{
		"invoiceID": invoice,
		"tier":      tier,
		"context":   string(tag),
	})

	if sessions == nil {
		return outcome, nil
	}
	if err := storeUpgrade(ctx, sessions, status, tier); err != nil {
		return outcome, err
	}
	return outcome, nil
}

// ReturnFromCheckout verifies invoiceID once after the payment page sends
// the browser back. A confirmed payment stores the returned session and
// continues to the app.
func (f *Flow) ReturnFromCheckout(ctx context.Context, sessions *session.Manager, invoiceID string) (Outcome, error) {
	ctx = services.WithInvoiceID(ctx, invoiceID)
	logger := logging.WithContext(ctx, f.logger)

	status, err := f.backend.VerifyPayment(ctx, "", invoiceID)
	if err != nil {
		var statusErr *backend.StatusError
		if errors.As(err, &statusErr) {
			msg := statusErr.Message
			if msg == "" {
				msg = msgUnknownError
			}
			return Outcome{Message: msgReturnFailed + msg}, nil
		}
		logging.WarnWithContext(logger, "checkout return verification failed", "payment_return_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "reconcile the invoice with the payment processor"),
		)
		return Outcome{Message: MsgReturnNetwork}, nil
	}
	if !status.Success {
		msg := strings.TrimSpace(status.Error)
		if msg == "" {
			msg = msgUnknownError
		}
		return Outcome{Message: msgReturnFailed + msg}, nil
	}

	tier := strings.TrimSpace(status.Tier)
	if tier == "" {
		tier = DefaultTier
	}
	if err := storeUpgrade(ctx, sessions, status, tier); err != nil {
		return Outcome{}, err
	}
	logger.Info("checkout return confirmed", logging.String("tier", tier))
	f.publish(ctx, logger, notifications.EventPaymentSucceeded, notifications.Payload{
		"invoiceID": invoiceID,
		"tier":      tier,
		"context":   "return",
	})
	return Outcome{Success: true, Next: NextRedirectApp}, nil
}

// UpgradeLink asks the backend for a hosted payment link using the browser's
// backend cookies.
func (f *Flow) UpgradeLink(ctx context.Context, cookies ...*http.Cookie) (string, error) {
	link, err := f.backend.CreatePaymentLink(ctx, cookies...)
	if err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, f.logger), "payment link creation failed", "payment_link_failed",
			logging.Error(err),
		)
		return "", err
	}
	return link, nil
}

// LinkFailureMessage renders the notice for a failed UpgradeLink.
func LinkFailureMessage(err error) string {
	var statusErr *backend.StatusError
	if errors.As(err, &statusErr) && statusErr.Message != "" {
		return "Error: " + statusErr.Message
	}
	return MsgLinkFailed
}

// Task returns the task watching invoiceID, if any.
func (f *Flow) Task(invoiceID string) *Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tasks[invoiceID]
}

// TaskFor returns the latest task started for owner, if any.
func (f *Flow) TaskFor(owner string) *Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	invoice, ok := f.byOwner[owner]
	if !ok {
		return nil
	}
	return f.tasks[invoice]
}

// Forget drops bookkeeping for a settled task.
func (f *Flow) Forget(invoiceID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.tasks, invoiceID)
	for owner, inv := range f.byOwner {
		if inv == invoiceID {
			delete(f.byOwner, owner)
		}
	}
}

// PruneSettled drops tasks that settled more than maxAge ago and returns how
// many were removed. Running tasks are kept.
func (f *Flow) PruneSettled(maxAge time.Duration) int {
	now := f.poller.clock.Now()
	f.mu.Lock()
	defer f.mu.Unlock()
	removed := 0
	for invoice, task := range f.tasks {
		settledAt, settled := task.settledSince()
		if !settled || now.Sub(settledAt) < maxAge {
			continue
		}
		delete(f.tasks, invoice)
		for owner, inv := range f.byOwner {
			if inv == invoice {
				delete(f.byOwner, owner)
			}
		}
		removed++
	}
	return removed
}

// Shutdown cancels every running task and waits for them to settle or ctx to end.
func (f *Flow) Shutdown(ctx context.Context) error {
	f.mu.Lock()
	tasks := make([]*Task, 0, len(f.tasks))
	for _, t := range f.tasks {
		tasks = append(tasks, t)
	}
	f.mu.Unlock()

	for _, t := range tasks {
		t.Cancel()
	}
	for _, t := range tasks {
		if _, err := t.Wait(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (f *Flow) publish(ctx context.Context, logger *slog.Logger, event notifications.Event, payload notifications.Payload) {
	if err := f.notifier.Publish(ctx, event, payload); err != nil {
		logger.Debug("payment notification failed",
			logging.String("event", string(event)),
			logging.Error(err),
		)
	}
}

func storeUpgrade(ctx context.Context, sessions *session.Manager, status backend.PaymentStatus, tier string) error {
	if status.User != nil && status.User.ID != "" {
		user := *status.User
		if strings.TrimSpace(user.Tier) == "" {
			user.Tier = tier
		}
		token := strings.TrimSpace(status.Token)
		if token == "" {
			existing, err := sessions.Token(ctx)
			if err != nil {
				return err
			}
			token = existing
		}
		if err := sessions.SaveAuth(ctx, token, user); err != nil {
			return err
		}
	} else if err := sessions.UpdateAuth(ctx, status.Token, tier); err != nil {
		return err
	}
	return sessions.ClearPending(ctx)
}

func errorText(err error) string {
	var statusErr *backend.StatusError
	if errors.As(err, &statusErr) && statusErr.Message != "" {
		return statusErr.Message
	}
	if err == nil {
		return msgUnknownError
	}
	return err.Error()
}
