package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"flashdeck/internal/testsupport"
)

func TestStatusJSON(t *testing.T) {
	env := setupCLITestEnv(t, verifiedRoutes(nil))
	env.signIn(t)

	out, _, err := env.run(t, "", "status", "--json")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	var report statusReport
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("decode status: %v\n%s", err, out)
	}
	if report.ConfigPath != env.configPath || !report.ConfigExists {
		t.Fatalf("unexpected config info: %+v", report)
	}
	if report.Server.Running {
		t.Fatal("expected no running server")
	}
	if !report.Session.SignedIn || report.Session.User != "Ada (free)" {
		t.Fatalf("unexpected session: %+v", report.Session)
	}
	if len(report.Checks) != 3 {
		t.Fatalf("expected 3 checks, got %d", len(report.Checks))
	}
	for _, check := range report.Checks {
		if !check.Passed {
			t.Fatalf("expected check %q to pass: %s", check.Name, check.Detail)
		}
	}
	if len(report.Optional) != 2 || report.Optional[0].Detail != "Disabled" {
		t.Fatalf("expected disabled notifications, got %+v", report.Optional)
	}
}

func TestStatusTextReportsUnreachableBackend(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.Routes{
		"GET /health": testsupport.JSON(http.StatusServiceUnavailable, map[string]string{"error": "down"}),
	})

	out, _, err := env.run(t, "", "status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "== Flashdeck ==")
	requireContains(t, out, "Web server:")
	requireContains(t, out, "[ERROR]")
	requireContains(t, out, "http 503")
	requireContains(t, out, "Signed in:")
	if strings.Contains(out, ansiReset) {
		t.Fatal("expected no color codes when writing to a buffer")
	}
}

func TestTestNotify(t *testing.T) {
	env := setupCLITestEnv(t, nil)

	out, _, err := env.run(t, "", "test-notify")
	if err != nil {
		t.Fatalf("test-notify: %v", err)
	}
	requireContains(t, out, "ntfy topic not configured")

	var hits atomic.Int32
	ntfy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer ntfy.Close()
	env.cfg.Notifications.NtfyTopic = ntfy.URL + "/flashdeck"
	writeTestConfig(t, env.configPath, env.cfg)

	out, _, err = env.run(t, "", "test-notify")
	if err != nil {
		t.Fatalf("test-notify: %v", err)
	}
	requireContains(t, out, "test notification sent")
	if hits.Load() != 1 {
		t.Fatalf("expected one ntfy request, got %d", hits.Load())
	}
}
