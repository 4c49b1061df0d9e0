package backend

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"flashdeck/internal/session"
)

// Flashcard is one generated question/answer pair.
type Flashcard struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// TokenVerification is the /verify-token outcome.
type TokenVerification struct {
	Authenticated bool          `json:"authenticated"`
	User          *session.User `json:"user,omitempty"`
}

// PaymentIntent is a checkout created by /create-payment-intent.
type PaymentIntent struct {
	PaymentURL string `json:"payment_url"`
	InvoiceID  string `json:"invoice_id"`
}

// PaymentStatus is the /verify-payment outcome.
type PaymentStatus struct {
	Success bool          `json:"success"`
	Status  string        `json:"status,omitempty"`
	Error   string        `json:"error,omitempty"`
	Token   string        `json:"token,omitempty"`
	Tier    string        `json:"tier,omitempty"`
	User    *session.User `json:"user,omitempty"`
}

// Failed reports whether the processor declared the payment failed.
func (p PaymentStatus) Failed() bool {
	return !p.Success && strings.EqualFold(strings.TrimSpace(p.Status), "FAILED")
}

// AuthResponse is returned by /login and /register.
type AuthResponse struct {
	Token string       `json:"token"`
	User  session.User `json:"user"`
}

// HealthStatus is the /health payload.
type HealthStatus struct {
	Status string `json:"status"`
}

// GenerateFlashcards asks the backend to turn notes into flashcards. It is
// never retried: a slow generation that eventually succeeds must not be
// issued twice.
func (c *Client) GenerateFlashcards(ctx context.Context, notes, language string) ([]Flashcard, error) {
	const op = "generate-flashcards"
	resp, err := c.do(ctx, request{
		op:     op,
		method: http.MethodPost,
		path:   "/generate-flashcards",
		body:   map[string]string{"notes": notes, "language": language},
	})
	if err != nil {
		return nil, err
	}
	var payload struct {
		Flashcards []Flashcard `json:"flashcards"`
	}
	if err := decode(op, resp.body, &payload); err != nil {
		return nil, err
	}
	return payload.Flashcards, nil
}

// VerifyToken asks the backend whether token is still valid.
func (c *Client) VerifyToken(ctx context.Context, token string) (TokenVerification, error) {
	const op = "verify-token"
	var out TokenVerification
	resp, err := c.do(ctx, request{
		op:     op,
		method: http.MethodPost,
		path:   "/verify-token",
		body:   map[string]string{"token": token},
		retry:  true,
	})
	if err != nil {
		return out, err
	}
	err = decode(op, resp.body, &out)
	return out, err
}

// CreatePaymentIntent opens a checkout for the bearer of token.
func (c *Client) CreatePaymentIntent(ctx context.Context, token string) (PaymentIntent, error) {
	const op = "create-payment-intent"
	var out PaymentIntent
	resp, err := c.do(ctx, request{
		op:     op,
		method: http.MethodPost,
		path:   "/create-payment-intent",
		bearer: token,
	})
	if err != nil {
		return out, err
	}
	var payload struct {
		PaymentIntent
		Error string `json:"error"`
	}
	if err := decode(op, resp.body, &payload); err != nil {
		return out, err
	}
	if msg := strings.TrimSpace(payload.Error); msg != "" {
		return out, &StatusError{Op: op, StatusCode: resp.status, Message: msg}
	}
	if strings.TrimSpace(payload.PaymentURL) == "" {
		return out, fmt.Errorf("%s: response missing payment_url", op)
	}
	return payload.PaymentIntent, nil
}

// CreatePaymentLink requests a hosted payment link using cookie authentication.
func (c *Client) CreatePaymentLink(ctx context.Context, cookies ...*http.Cookie) (string, error) {
	const op = "create-payment-link"
	resp, err := c.do(ctx, request{
		op:      op,
		method:  http.MethodPost,
		path:    "/create-payment-link",
		body:    map[string]string{},
		cookies: cookies,
	})
	if err != nil {
		return "", err
	}
	var payload struct {
		PaymentURL string `json:"payment_url"`
		Error      string `json:"error"`
	}
	if err := decode(op, resp.body, &payload); err != nil {
		return "", err
	}
	if link := strings.TrimSpace(payload.PaymentURL); link != "" {
		return link, nil
	}
	if msg := strings.TrimSpace(payload.Error); msg != "" {
		return "", &StatusError{Op: op, StatusCode: resp.status, Message: msg}
	}
	return "", fmt.Errorf("%s: response missing payment_url", op)
}

// VerifyPayment reports the state of invoiceID, retrying transient failures.
// The bearer token is optional and sent when present. A non-2xx response that
// still carries a status field is returned as a PaymentStatus so callers can
// tell FAILED from an outage.
func (c *Client) VerifyPayment(ctx context.Context, token, invoiceID string) (PaymentStatus, error) {
	return c.verifyPayment(ctx, token, invoiceID, true)
}

// VerifyPaymentOnce is VerifyPayment with exactly one HTTP request. Pollers
// use it so each attempt maps to a single request.
func (c *Client) VerifyPaymentOnce(ctx context.Context, token, invoiceID string) (PaymentStatus, error) {
	return c.verifyPayment(ctx, token, invoiceID, false)
}

func (c *Client) verifyPayment(ctx context.Context, token, invoiceID string, retry bool) (PaymentStatus, error) {
	const op = "verify-payment"
	var out PaymentStatus
	resp, err := c.do(ctx, request{
		op:     op,
		method: http.MethodPost,
		path:   "/verify-payment",
		body:   map[string]string{"invoice_id": invoiceID},
		bearer: token,
		retry:  retry,
	})
	if err != nil {
		var statusErr *StatusError
		if errors.As(err, &statusErr) && len(resp.body) > 0 {
			var partial PaymentStatus
			if decode(op, resp.body, &partial) == nil && strings.TrimSpace(partial.Status) != "" {
				return partial, nil
			}
		}
		return out, err
	}
	err = decode(op, resp.body, &out)
	return out, err
}

// Login exchanges credentials for a token and user.
func (c *Client) Login(ctx context.Context, email, password string) (AuthResponse, error) {
	return c.authenticate(ctx, "login", "/login", map[string]string{
		"email":    email,
		"password": password,
	})
}

// Register creates an account and returns its token and user.
func (c *Client) Register(ctx context.Context, name, email, password string) (AuthResponse, error) {
	return c.authenticate(ctx, "register", "/register", map[string]string{
		"name":     name,
		"email":    email,
		"password": password,
	})
}

func (c *Client) authenticate(ctx context.Context, op, path string, body map[string]string) (AuthResponse, error) {
	var out AuthResponse
	resp, err := c.do(ctx, request{op: op, method: http.MethodPost, path: path, body: body})
	if err != nil {
		return out, err
	}
	if err := decode(op, resp.body, &out); err != nil {
		return out, err
	}
	if strings.TrimSpace(out.Token) == "" {
		return out, fmt.Errorf("%s: response missing token", op)
	}
	return out, nil
}

// Health checks backend reachability.
func (c *Client) Health(ctx context.Context) (HealthStatus, error) {
	const op = "health"
	var out HealthStatus
	resp, err := c.do(ctx, request{op: op, method: http.MethodGet, path: "/health"})
	if err != nil {
		return out, err
	}
	if len(resp.body) == 0 {
		out.Status = "ok"
		return out, nil
	}
	err = decode(op, resp.body, &out)
	return out, err
}
