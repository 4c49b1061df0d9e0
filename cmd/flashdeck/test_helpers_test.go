package main

import (
	"bytes"
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"flashdeck/internal/config"
	"flashdeck/internal/session"
	"flashdeck/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	backend    *testsupport.Backend
	configPath string
}

func setupCLITestEnv(t *testing.T, routes testsupport.Routes) *cliTestEnv {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("FLASHDECK_BACKEND_URL", "")

	backend := testsupport.NewBackend(t, routes)
	cfg := testsupport.NewConfig(t, testsupport.WithBackendURL(backend.URL))
	cfg.Payment.PollIntervalSeconds = 1
	cfg.Payment.MaxAttempts = 3

	configPath := filepath.Join(testsupport.BaseDir(cfg), "config.toml")
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{cfg: cfg, backend: backend, configPath: configPath}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func (e *cliTestEnv) run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	return runCLI(t, append([]string{"--config", e.configPath}, args...), stdin)
}

func runCLI(t *testing.T, args []string, stdin string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func (e *cliTestEnv) sessions() *session.Manager {
	return session.NewManager(session.NewFileStore(e.cfg.SessionFilePath()))
}

func (e *cliTestEnv) signIn(t *testing.T) {
	t.Helper()
	user := session.User{ID: "7", Name: "Ada", Email: "ada@example.com", Tier: "free"}
	if err := e.sessions().SaveAuth(context.Background(), "tok-1", user); err != nil {
		t.Fatalf("SaveAuth: %v", err)
	}
}

// verifiedRoutes accepts the stored token and merges extra.
func verifiedRoutes(extra testsupport.Routes) testsupport.Routes {
	routes := testsupport.Routes{
		"POST /verify-token": testsupport.JSON(http.StatusOK, map[string]any{"authenticated": true}),
		"GET /health":        testsupport.JSON(http.StatusOK, map[string]string{"status": "ok"}),
	}
	for key, handler := range extra {
		routes[key] = handler
	}
	return routes
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
