package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"flashdeck/internal/config"
	"flashdeck/internal/logging"
	"flashdeck/internal/services"
	"flashdeck/internal/services/backend"
	"flashdeck/internal/session"
)

// User-facing messages.
const (
	MsgLoginStub        = "Login functionality would connect to your backend API."
	MsgRegisterStub     = "Registration functionality would connect to your backend API."
	MsgPasswordMismatch = "Passwords do not match!"
	MsgFieldsRequired   = "Please fill in all fields."
	msgLoginFailed      = "Login failed: "
	msgRegisterFailed   = "Registration failed: "
)

// PremiumTier is the plan that requires checkout before the account is usable.
const PremiumTier = "premium"

// Authenticator exchanges credentials for a session.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (backend.AuthResponse, error)
	Register(ctx context.Context, name, email, password string) (backend.AuthResponse, error)
}

// LoginInput is a submitted login form.
type LoginInput struct {
	Email    string
	Password string
}

// RegisterInput is a submitted registration form.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Confirm  string
	Tier     string
}

// FormResult tells the caller how to respond to a form submission.
type FormResult struct {
	Message string
	Error   bool
	// CloseModal is false when the form stays open for correction.
	CloseModal bool
	Redirect   string
	// PaymentContext, when set, opens the payment modal for that context.
	PaymentContext string
}

// Forms handles login and registration in stub or remote mode.
type Forms struct {
	mode   string
	auth   Authenticator
	now    func() time.Time
	logger *slog.Logger
}

// NewForms builds a form handler. Remote mode requires auth.
func NewForms(mode string, auth Authenticator, logger *slog.Logger) *Forms {
	if mode != config.FormsModeRemote {
		mode = config.FormsModeStub
	}
	return &Forms{mode: mode, auth: auth, now: time.Now, logger: logging.NewComponentLogger(logger, "auth-forms")}
}

// Mode reports the active forms mode.
func (f *Forms) Mode() string { return f.mode }

// Login handles the login form.
func (f *Forms) Login(ctx context.Context, sessions *session.Manager, in LoginInput) (FormResult, error) {
	if f.mode == config.FormsModeStub || f.auth == nil {
		f.logger.Info("login submitted in stub mode", logging.String("email", maskEmail(in.Email)))
		return FormResult{Message: MsgLoginStub, CloseModal: true}, nil
	}
	if strings.TrimSpace(in.Email) == "" || in.Password == "" {
		return FormResult{Message: MsgFieldsRequired, Error: true}, nil
	}

	resp, err := f.auth.Login(ctx, strings.TrimSpace(in.Email), in.Password)
	if err != nil {
		return f.remoteFailure(ctx, msgLoginFailed, err)
	}
	return f.authenticated(ctx, sessions, resp)
}

// Register handles the registration form. Mismatched passwords keep the
// modal open. A premium registration stages the account and opens checkout.
func (f *Forms) Register(ctx context.Context, sessions *session.Manager, in RegisterInput) (FormResult, error) {
	if in.Password != in.Confirm {
		return FormResult{Message: MsgPasswordMismatch, Error: true}, nil
	}
	if f.mode == config.FormsModeStub || f.auth == nil {
		f.logger.Info("registration submitted in stub mode", logging.String("email", maskEmail(in.Email)))
		return FormResult{Message: MsgRegisterStub, CloseModal: true}, nil
	}
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Email) == "" || in.Password == "" {
		return FormResult{Message: MsgFieldsRequired, Error: true}, nil
	}

	resp, err := f.auth.Register(ctx, strings.TrimSpace(in.Name), strings.TrimSpace(in.Email), in.Password)
	if err != nil {
		return f.remoteFailure(ctx, msgRegisterFailed, err)
	}

	tier := strings.ToLower(strings.TrimSpace(in.Tier))
	if tier != PremiumTier {
		return f.authenticated(ctx, sessions, resp)
	}

	if err := sessions.SaveAuth(ctx, resp.Token, resp.User); err != nil {
		return FormResult{}, err
	}
	if err := sessions.StagePending(ctx, session.PendingRegistration{
		Name:     strings.TrimSpace(in.Name),
		Email:    strings.TrimSpace(in.Email),
		Tier:     tier,
		StagedAt: f.now().UTC(),
	}); err != nil {
		return FormResult{}, err
	}
	f.logger.Info("premium registration staged for checkout", logging.String("email", maskEmail(in.Email)))
	return FormResult{CloseModal: true, PaymentContext: "register"}, nil
}

func (f *Forms) authenticated(ctx context.Context, sessions *session.Manager, resp backend.AuthResponse) (FormResult, error) {
	if err := sessions.SaveAuth(ctx, resp.Token, resp.User); err != nil {
		return FormResult{}, err
	}
	return FormResult{CloseModal: true, Redirect: PageApp}, nil
}

func (f *Forms) remoteFailure(ctx context.Context, prefix string, err error) (FormResult, error) {
	var statusErr *backend.StatusError
	msg := "Unknown error"
	switch {
	case errors.As(err, &statusErr) && statusErr.Message != "":
		msg = statusErr.Message
	case errors.Is(err, services.ErrUnauthorized):
		msg = "Invalid email or password"
	case errors.As(err, &statusErr):
	default:
		logging.WarnWithContext(logging.WithContext(ctx, f.logger), "auth backend unreachable", "auth_backend_unreachable",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check backend.base_url"),
		)
		msg = "could not reach the server"
	}
	return FormResult{Message: prefix + msg, Error: true}, nil
}

func maskEmail(email string) string {
	email = strings.TrimSpace(email)
	at := strings.IndexByte(email, '@')
	if at <= 1 {
		return "***"
	}
	return email[:1] + "***" + email[at:]
}
