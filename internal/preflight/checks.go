package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"flashdeck/internal/services/backend"
)

// backendCheckTimeout caps the health probe regardless of the configured
// request timeout.
const backendCheckTimeout = 5 * time.Second

// CheckBackend verifies that the flashcard backend answers GET /health.
// It makes a single attempt with no retries.
func CheckBackend(ctx context.Context, baseURL string, timeoutSeconds int) Result {
	const name = "Flashcard backend"
	if baseURL == "" {
		return Result{Name: name, Detail: "missing url"}
	}

	timeout := backendCheckTimeout
	if configured := time.Duration(timeoutSeconds) * time.Second; configured > 0 && configured < timeout {
		timeout = configured
	}
	checkCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client := backend.NewClient(backend.Config{BaseURL: baseURL, TimeoutSeconds: timeoutSeconds},
		backend.WithRetryMaxAttempts(1))
	status, err := client.Health(checkCtx)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %s)", baseURL, summarizeBackendError(err))}
	}
	detail := fmt.Sprintf("%s (reachable)", baseURL)
	if status.Status != "" && status.Status != "ok" && status.Status != "healthy" {
		detail = fmt.Sprintf("%s (reachable, status %q)", baseURL, status.Status)
	}
	return Result{Name: name, Passed: true, Detail: detail}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

func summarizeBackendError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "health check timed out"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "health check timed out"
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return "unreachable"
	}
	var statusErr *backend.StatusError
	if errors.As(err, &statusErr) {
		return fmt.Sprintf("http %d", statusErr.StatusCode)
	}
	return err.Error()
}
