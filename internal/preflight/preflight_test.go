package preflight

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"flashdeck/internal/config"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if !strings.Contains(result.Detail, "does not exist") {
		t.Fatalf("unexpected detail %q", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckBackend_OK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"status":"healthy"}`))
	}))
	defer srv.Close()

	result := CheckBackend(context.Background(), srv.URL, 5)
	if !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
	if !strings.Contains(result.Detail, "reachable") {
		t.Fatalf("unexpected detail %q", result.Detail)
	}
}

func TestCheckBackend_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	result := CheckBackend(context.Background(), srv.URL, 5)
	if result.Passed {
		t.Fatal("expected failure for 503")
	}
	if !strings.Contains(result.Detail, "http 503") {
		t.Fatalf("unexpected detail %q", result.Detail)
	}
}

func TestCheckBackend_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	result := CheckBackend(context.Background(), url, 1)
	if result.Passed {
		t.Fatal("expected failure for closed server")
	}
}

func TestCheckBackend_MissingURL(t *testing.T) {
	if result := CheckBackend(context.Background(), "", 5); result.Passed || result.Detail != "missing url" {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestRunAll(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := config.Default()
	cfg.Paths.DataDir = t.TempDir()
	cfg.Paths.ExportDir = filepath.Join(t.TempDir(), "missing")
	cfg.Backend.BaseURL = srv.URL

	results := RunAll(context.Background(), &cfg)
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	failed := Failed(results)
	if len(failed) != 1 || failed[0].Name != "Export directory" {
		t.Fatalf("unexpected failures %+v", failed)
	}
}

func TestConfigSummaries(t *testing.T) {
	cfg := config.Default()
	if r := CheckNotificationsFromConfig(&cfg); r.Detail != "Disabled" {
		t.Fatalf("unexpected notifications detail %q", r.Detail)
	}
	cfg.Notifications.NtfyTopic = "https://ntfy.sh/flashdeck"
	if r := CheckNotificationsFromConfig(&cfg); r.Detail != "ntfy: payments, generation errors" {
		t.Fatalf("unexpected notifications detail %q", r.Detail)
	}
	if r := CheckArchiveFromConfig(&cfg); r.Detail != "Disabled" {
		t.Fatalf("unexpected archive detail %q", r.Detail)
	}
	cfg.Exports.ArchiveBucket = "decks"
	cfg.Exports.ArchiveRegion = "us-east-1"
	cfg.Exports.ArchivePrefix = "exports"
	if r := CheckArchiveFromConfig(&cfg); r.Detail != "s3://decks/exports (us-east-1)" {
		t.Fatalf("unexpected archive detail %q", r.Detail)
	}
}
