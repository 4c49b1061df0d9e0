package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"flashdeck/internal/config"
	"flashdeck/internal/notifications"
)

type captured struct {
	title    string
	body     string
	tags     string
	priority string
}

func newCaptureServer(t *testing.T) (*httptest.Server, *[]captured) {
	t.Helper()
	var got []captured
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Fatalf("read body: %v", err)
		}
		got = append(got, captured{
			title:    r.Header.Get("Title"),
			body:     string(body),
			tags:     r.Header.Get("Tags"),
			priority: r.Header.Get("Priority"),
		})
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)
	return server, &got
}

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	svc := notifications.NewService(&cfg)
	if err := svc.Publish(context.Background(), notifications.EventPaymentSucceeded, notifications.Payload{"invoiceID": "INV-1"}); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

func TestNtfyServiceFormatsPayloads(t *testing.T) {
	tests := []struct {
		name           string
		event          notifications.Event
		payload        notifications.Payload
		expectTitle    string
		expectBody     string
		expectTags     string
		expectPriority string
	}{
		{
			name:        "payment succeeded",
			event:       notifications.EventPaymentSucceeded,
			payload:     notifications.Payload{"invoiceID": "INV-1", "tier": "premium", "context": "register"},
			expectTitle: "Flashdeck - Upgrade Confirmed",
			expectBody:  "Invoice INV-1 confirmed: tier premium (register)",
			expectTags:  "flashdeck,payment,success",
		},
		{
			name:           "payment timeout",
			event:          notifications.EventPaymentTimeout,
			payload:        notifications.Payload{"invoiceID": "INV-2", "attempts": 30},
			expectTitle:    "Flashdeck - Payment Unconfirmed",
			expectBody:     "Invoice INV-2 still unconfirmed after 30 checks; reconcile manually if the customer was charged",
			expectTags:     "flashdeck,payment,timeout",
			expectPriority: "high",
		},
		{
			name:        "generation failed",
			event:       notifications.EventGenerationFailed,
			payload:     notifications.Payload{"error": errors.New("connection refused")},
			expectTitle: "Flashdeck - Generation Failed",
			expectBody:  "Flashcard generation failed, demo cards shown: connection refused",
			expectTags:  "flashdeck,generate,error",
		},
		{
			name:           "test",
			event:          notifications.EventTestNotification,
			expectTitle:    "Flashdeck - Test",
			expectBody:     "Notification system test",
			expectTags:     "flashdeck,test",
			expectPriority: "low",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, got := newCaptureServer(t)
			cfg := config.Default()
			cfg.Notifications.NtfyTopic = server.URL
			svc := notifications.NewService(&cfg)

			if err := svc.Publish(context.Background(), tt.event, tt.payload); err != nil {
				t.Fatalf("Publish returned error: %v", err)
			}
			if len(*got) != 1 {
				t.Fatalf("expected one request, got %d", len(*got))
			}
			req := (*got)[0]
			if req.title != tt.expectTitle || req.body != tt.expectBody || req.tags != tt.expectTags || req.priority != tt.expectPriority {
				t.Fatalf("unexpected request %+v", req)
			}
		})
	}
}

func TestNtfyServiceHonoursToggles(t *testing.T) {
	server, got := newCaptureServer(t)
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	cfg.Notifications.Payments = false
	svc := notifications.NewService(&cfg)

	if err := svc.Publish(context.Background(), notifications.EventPaymentFailed, notifications.Payload{"invoiceID": "INV-3"}); err != nil {
		t.Fatalf("Publish returned error: %v", err)
	}
	if len(*got) != 0 {
		t.Fatalf("expected payment events to be suppressed, got %d requests", len(*got))
	}
}

func TestNtfyServiceReportsHTTPErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "topic locked", http.StatusForbidden)
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	svc := notifications.NewService(&cfg)
	if err := svc.Publish(context.Background(), notifications.EventTestNotification, nil); err == nil {
		t.Fatal("expected error for forbidden response")
	}
}
