package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"flashdeck/internal/config"
)

const userAgent = "Flashdeck/0.1.0"

// Event names a notification-worthy occurrence.
type Event string

const (
	EventPaymentSucceeded Event = "payment_succeeded"
	EventPaymentFailed    Event = "payment_failed"
	EventPaymentTimeout   Event = "payment_timeout"
	EventGenerationFailed Event = "generation_failed"
	EventTestNotification Event = "test"
)

// Payload carries event details. Recognized keys: invoiceID, tier, context,
// attempts, reason, error.
type Payload map[string]any

// Service publishes events to operators.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	if cfg == nil || strings.TrimSpace(cfg.Notifications.NtfyTopic) == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint:         strings.TrimSpace(cfg.Notifications.NtfyTopic),
		client:           &http.Client{Timeout: timeout},
		payments:         cfg.Notifications.Payments,
		generationErrors: cfg.Notifications.GenerationErrors,
	}
}

type message struct {
	title    string
	body     string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint         string
	client           *http.Client
	payments         bool
	generationErrors bool
}

func (n *ntfyService) Publish(ctx context.Context, event Event, payload Payload) error {
	if !n.enabled(event) {
		return nil
	}
	msg, ok := format(event, payload)
	if !ok {
		return nil
	}
	return n.send(ctx, msg)
}

func (n *ntfyService) enabled(event Event) bool {
	switch event {
	case EventPaymentSucceeded, EventPaymentFailed, EventPaymentTimeout:
		return n.payments
	case EventGenerationFailed:
		return n.generationErrors
	default:
		return true
	}
}

func format(event Event, payload Payload) (message, bool) {
	invoice := payload.text("invoiceID", "unknown invoice")
	switch event {
	case EventPaymentSucceeded:
		return message{
			title: "Flashdeck - Upgrade Confirmed",
			body: fmt.Sprintf("Invoice %s confirmed: tier %s (%s)",
				invoice, payload.text("tier", "premium"), payload.text("context", "upgrade")),
			tags: []string{"flashdeck", "payment", "success"},
		}, true
	case EventPaymentFailed:
		return message{
			title:    "Flashdeck - Payment Failed",
			body:     fmt.Sprintf("Invoice %s failed: %s", invoice, payload.text("reason", "processor reported FAILED")),
			tags:     []string{"flashdeck", "payment", "failed"},
			priority: "high",
		}, true
	case EventPaymentTimeout:
		return message{
			title: "Flashdeck - Payment Unconfirmed",
			body: fmt.Sprintf("Invoice %s still unconfirmed after %s checks; reconcile manually if the customer was charged",
				invoice, payload.text("attempts", "all")),
			tags:     []string{"flashdeck", "payment", "timeout"},
			priority: "high",
		}, true
	case EventGenerationFailed:
		return message{
			title: "Flashdeck - Generation Failed",
			body:  fmt.Sprintf("Flashcard generation failed, demo cards shown: %s", payload.text("error", "unknown error")),
			tags:  []string{"flashdeck", "generate", "error"},
		}, true
	case EventTestNotification:
		return message{
			title:    "Flashdeck - Test",
			body:     "Notification system test",
			tags:     []string{"flashdeck", "test"},
			priority: "low",
		}, true
	default:
		return message{}, false
	}
}

func (p Payload) text(key, fallback string) string {
	if p == nil {
		return fallback
	}
	value, ok := p[key]
	if !ok || value == nil {
		return fallback
	}
	var s string
	switch v := value.(type) {
	case string:
		s = v
	case error:
		s = v.Error()
	default:
		s = fmt.Sprint(v)
	}
	if s = strings.TrimSpace(s); s == "" {
		return fallback
	}
	return s
}

func (n *ntfyService) send(ctx context.Context, msg message) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(msg.body))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if msg.title != "" {
		req.Header.Set("Title", msg.title)
	}
	if len(msg.tags) > 0 {
		req.Header.Set("Tags", strings.Join(msg.tags, ","))
	}
	if msg.priority != "" && msg.priority != "default" {
		req.Header.Set("Priority", msg.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) Publish(context.Context, Event, Payload) error { return nil }
