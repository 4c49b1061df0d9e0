package services_test

import (
	"context"
	"testing"

	"flashdeck/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithSessionID(ctx, "sid-1")
	ctx = services.WithInvoiceID(ctx, "inv-42")
	ctx = services.WithRequestID(ctx, "req-123")

	if id, ok := services.SessionIDFromContext(ctx); !ok || id != "sid-1" {
		t.Fatalf("unexpected session id: %v %v", id, ok)
	}
	if id, ok := services.InvoiceIDFromContext(ctx); !ok || id != "inv-42" {
		t.Fatalf("unexpected invoice id: %v %v", id, ok)
	}
	if rid, ok := services.RequestIDFromContext(ctx); !ok || rid != "req-123" {
		t.Fatalf("unexpected request id: %v %v", rid, ok)
	}
}

func TestBlankValuesPreserveContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithSessionID(ctx, "")
	ctx = services.WithInvoiceID(ctx, "")
	if _, ok := services.SessionIDFromContext(ctx); ok {
		t.Fatal("expected no session value")
	}
	if _, ok := services.InvoiceIDFromContext(ctx); ok {
		t.Fatal("expected no invoice value")
	}
}
