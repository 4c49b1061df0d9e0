package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"flashdeck/internal/auth"
	"flashdeck/internal/config"
	"flashdeck/internal/exportsink"
	"flashdeck/internal/flashcards"
	"flashdeck/internal/history"
	"flashdeck/internal/logging"
	"flashdeck/internal/notifications"
	"flashdeck/internal/payment"
	"flashdeck/internal/preflight"
	"flashdeck/internal/services/backend"
	"flashdeck/internal/session"
	"flashdeck/internal/web"
)

const (
	defaultPruneInterval = time.Hour
	shutdownTimeout      = 10 * time.Second
)

// Daemon runs the web front end and enforces single-instance execution.
type Daemon struct {
	cfg    *config.Config
	logger *slog.Logger

	history  *history.Store
	sessions *session.SQLiteStore
	payments *payment.Flow
	server   *web.Server
	notifier notifications.Service

	lockPath      string
	lock          *flock.Flock
	pruneInterval time.Duration

	running atomic.Bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// Status represents daemon runtime information.
type Status struct {
	Running       bool
	Address       string
	HistoryDBPath string
	SessionDBPath string
	LockFilePath  string
}

// Option customizes a Daemon.
type Option func(*Daemon)

// WithPruneInterval sets how often idle sessions are swept.
func WithPruneInterval(d time.Duration) Option {
	return func(dm *Daemon) {
		if d > 0 {
			dm.pruneInterval = d
		}
	}
}

// New opens the databases and wires the web server.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts ...Option) (*Daemon, error) {
	if cfg == nil {
		return nil, errors.New("daemon requires config")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}

	d := &Daemon{
		cfg:           cfg,
		logger:        logging.NewComponentLogger(logger, "daemon"),
		lockPath:      cfg.LockPath(),
		lock:          flock.New(cfg.LockPath()),
		pruneInterval: defaultPruneInterval,
		notifier:      notifications.NewService(cfg),
	}
	for _, opt := range opts {
		opt(d)
	}

	var err error
	if d.history, err = history.Open(ctx, cfg); err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	if d.sessions, err = session.OpenSQLite(ctx, cfg.SessionDBPath()); err != nil {
		_ = d.history.Close()
		return nil, fmt.Errorf("open sessions: %w", err)
	}
	sink, err := exportsink.FromConfig(ctx, cfg)
	if err != nil {
		d.closeStores()
		return nil, fmt.Errorf("export archive: %w", err)
	}

	client := backend.NewClientFromConfig(cfg)
	controllerOpts := []flashcards.Option{
		flashcards.WithRecorder(d.history),
		flashcards.WithNotifier(d.notifier),
		flashcards.WithLogger(logger),
	}
	if sink != nil {
		controllerOpts = append(controllerOpts, flashcards.WithSink(sink))
	}
	d.payments = payment.NewFlow(client,
		payment.WithClock(payment.RealClock{}),
		payment.WithPolling(cfg.PollInterval(), cfg.Payment.MaxAttempts),
		payment.WithNotifier(d.notifier),
		payment.WithLogger(logger),
	)

	d.server, err = web.New(web.Options{
		Bind:          cfg.Paths.Bind,
		CookieSecure:  cfg.Auth.CookieSecure,
		SessionTTL:    cfg.SessionTTL(),
		BackendCookie: cfg.Backend.SessionCookie,
		Sessions:      d.sessions,
		Controller:    flashcards.NewController(flashcards.BackendGenerator{Client: client}, controllerOpts...),
		Guard:         auth.NewGuard(client, auth.WithLogger(logger)),
		Forms:         auth.NewForms(cfg.Auth.FormsMode, client, logger),
		Payments:      d.payments,
		History:       d.history,
		Logger:        logger,
	})
	if err != nil {
		d.closeStores()
		return nil, err
	}
	return d, nil
}

// Start acquires the instance lock, runs preflight, and starts serving.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another flashdeck server instance is already running")
	}

	for _, result := range preflight.Failed(preflight.RunAll(ctx, d.cfg)) {
		logging.WarnWithContext(d.logger, "preflight check failed", "preflight_failed",
			logging.String("check", result.Name),
			logging.String("detail", result.Detail),
			logging.String(logging.FieldErrorHint, "run flashdeck status for details"),
		)
	}

	runCtx, cancel := context.WithCancel(ctx)
	if err := d.server.Start(runCtx); err != nil {
		cancel()
		_ = d.lock.Unlock()
		return fmt.Errorf("start web server: %w", err)
	}
	d.cancel = cancel

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.maintain(runCtx)
	}()

	d.running.Store(true)
	d.logger.Info("flashdeck server started",
		logging.String("address", d.server.Addr()),
		logging.String("lock", d.lockPath),
	)
	return nil
}

// Run starts the daemon and blocks until ctx is canceled.
func (d *Daemon) Run(ctx context.Context) error {
	if err := d.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	d.Stop()
	return nil
}

// Stop drains requests, cancels checkout polling, and releases the lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if err := d.server.Stop(shutdownTimeout); err != nil {
		d.logger.Warn("web server shutdown incomplete", logging.Error(err))
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	if err := d.payments.Shutdown(shutdownCtx); err != nil {
		d.logger.Warn("payment polling did not stop in time", logging.Error(err))
	}
	cancel()

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.wg.Wait()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("flashdeck server stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	return d.closeStores()
}

func (d *Daemon) closeStores() error {
	var errs []error
	if d.sessions != nil {
		errs = append(errs, d.sessions.Close())
	}
	if d.history != nil {
		errs = append(errs, d.history.Close())
	}
	return errors.Join(errs...)
}

// maintain prunes idle browser sessions until ctx ends.
func (d *Daemon) maintain(ctx context.Context) {
	ticker := time.NewTicker(d.pruneInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.prune(ctx)
		}
	}
}

func (d *Daemon) prune(ctx context.Context) {
	ttl := d.cfg.SessionTTL()
	rows, err := d.sessions.Prune(ctx, ttl)
	if err != nil {
		d.logger.Warn("session prune failed", logging.Error(err))
		return
	}
	boards := d.server.PruneClients(ttl)
	tasks := d.payments.PruneSettled(ttl)
	if rows > 0 || boards > 0 || tasks > 0 {
		d.logger.Info("pruned idle sessions",
			logging.Int64("rows", rows),
			logging.Int("boards", boards),
			logging.Int("payment_tasks", tasks),
		)
	}
}

// Status returns the current daemon status.
func (d *Daemon) Status() Status {
	return Status{
		Running:       d.running.Load(),
		Address:       d.server.Addr(),
		HistoryDBPath: d.history.Path(),
		SessionDBPath: d.cfg.SessionDBPath(),
		LockFilePath:  d.lockPath,
	}
}

// TestNotification triggers a test notification using the current configuration.
func TestNotification(ctx context.Context, cfg *config.Config) (bool, string, error) {
	if cfg == nil {
		return false, "configuration unavailable", errors.New("configuration unavailable")
	}
	if strings.TrimSpace(cfg.Notifications.NtfyTopic) == "" {
		return false, "ntfy topic not configured", nil
	}
	notifier := notifications.NewService(cfg)
	if err := notifier.Publish(ctx, notifications.EventTestNotification, nil); err != nil {
		return false, "failed to send notification", err
	}
	return true, "test notification sent", nil
}

// Locked reports whether another process holds the server lock.
func Locked(cfg *config.Config) (bool, error) {
	lock := flock.New(cfg.LockPath())
	ok, err := lock.TryLock()
	if err != nil {
		return false, err
	}
	if ok {
		_ = lock.Unlock()
		return false, nil
	}
	return true, nil
}
