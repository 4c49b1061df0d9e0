package auth

import (
	"context"
	"log/slog"
	"time"

	"flashdeck/internal/logging"
	"flashdeck/internal/services/backend"
	"flashdeck/internal/session"
)

// Page names used as redirect targets.
const (
	PageMarketing = "index.html"
	PageApp       = "ai-app.html"
)

// Verifier confirms a stored token with the backend.
type Verifier interface {
	VerifyToken(ctx context.Context, token string) (backend.TokenVerification, error)
}

// Outcome is the result of gating a protected page.
type Outcome struct {
	Authenticated bool
	User          *session.User
	// Redirect is set when the caller must navigate away instead of rendering.
	Redirect string
}

// Guard decides whether the stored session may see the app.
type Guard struct {
	verifier Verifier
	now      func() time.Time
	logger   *slog.Logger
}

// GuardOption customizes a Guard.
type GuardOption func(*Guard)

// WithClock overrides the time used for local token expiry checks.
func WithClock(now func() time.Time) GuardOption {
	return func(g *Guard) { g.now = now }
}

// WithLogger sets the guard logger.
func WithLogger(logger *slog.Logger) GuardOption {
	return func(g *Guard) { g.logger = logger }
}

// NewGuard builds a guard that verifies tokens through v.
func NewGuard(v Verifier, opts ...GuardOption) *Guard {
	g := &Guard{verifier: v, now: time.Now}
	for _, opt := range opts {
		opt(g)
	}
	g.logger = logging.NewComponentLogger(g.logger, "auth")
	return g
}

// Bootstrap gates the app page. Missing credentials redirect without a
// request; an expired JWT, a rejected token, or any verification failure
// clears the session and redirects. Only a positive verification renders.
func (g *Guard) Bootstrap(ctx context.Context, sessions *session.Manager) (Outcome, error) {
	logger := logging.WithContext(ctx, g.logger)
	state, err := sessions.State(ctx)
	if err != nil {
		return Outcome{}, err
	}
	if !state.Authenticated() {
		logger.Debug("no stored session, redirecting")
		return Outcome{Redirect: PageMarketing}, nil
	}

	if session.TokenExpired(state.Token, g.now()) {
		logger.Info("stored token expired, clearing session")
		return g.failClosed(ctx, sessions)
	}

	verification, err := g.verifier.VerifyToken(ctx, state.Token)
	if err != nil {
		logging.WarnWithContext(logger, "token verification failed", "auth_verify_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check that the backend is reachable"),
		)
		return g.failClosed(ctx, sessions)
	}
	if !verification.Authenticated {
		logger.Info("token rejected by backend, clearing session")
		return g.failClosed(ctx, sessions)
	}

	user := state.User
	if verification.User != nil && verification.User.ID != "" {
		user = verification.User
		if err := sessions.SetUser(ctx, *user); err != nil {
			return Outcome{}, err
		}
	}
	return Outcome{Authenticated: true, User: user}, nil
}

// HandleAuthError drops the session after a protected call was rejected.
func (g *Guard) HandleAuthError(ctx context.Context, sessions *session.Manager, cause error) (Outcome, error) {
	logging.WarnWithContext(logging.WithContext(ctx, g.logger), "authentication error, clearing session", "auth_error",
		logging.Error(cause),
		logging.String(logging.FieldErrorHint, "sign in again"),
	)
	return g.failClosed(ctx, sessions)
}

func (g *Guard) failClosed(ctx context.Context, sessions *session.Manager) (Outcome, error) {
	return Logout(ctx, sessions)
}

// Logout removes the token and user; other preferences survive.
func Logout(ctx context.Context, sessions *session.Manager) (Outcome, error) {
	if err := sessions.ClearAuth(ctx); err != nil {
		return Outcome{}, err
	}
	return Outcome{Redirect: PageMarketing}, nil
}

// Navigation describes the marketing page's header actions.
type Navigation struct {
	// ShowApp replaces the login and register buttons with "Go to App".
	ShowApp bool
	User    *session.User
}

// NavigationFor reports which header actions to render.
func NavigationFor(ctx context.Context, sessions *session.Manager) Navigation {
	state, err := sessions.State(ctx)
	if err != nil || !state.Authenticated() {
		return Navigation{}
	}
	return Navigation{ShowApp: true, User: state.User}
}
