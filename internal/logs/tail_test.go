package logs_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"flashdeck/internal/logging"
	"flashdeck/internal/logs"
)

func writeLog(t *testing.T, path, content string, appendMode bool) {
	t.Helper()
	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if appendMode {
		flags = os.O_CREATE | os.O_WRONLY | os.O_APPEND
	}
	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		t.Fatalf("open log: %v", err)
	}
	defer f.Close()
	if _, err := f.WriteString(content); err != nil {
		t.Fatalf("write log: %v", err)
	}
}

func TestLastReturnsTrailingLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flashdeck.log")
	writeLog(t, path, "a\nb\nc\n", false)

	r := logs.NewReader(path)
	lines, err := r.Last(2)
	if err != nil {
		t.Fatalf("Last: %v", err)
	}
	if len(lines) != 2 || lines[0] != "b" || lines[1] != "c" {
		t.Fatalf("unexpected lines: %#v", lines)
	}
	if r.Offset() != int64(len("a\nb\nc\n")) {
		t.Fatalf("expected offset at end, got %d", r.Offset())
	}
}

func TestLastMissingFile(t *testing.T) {
	r := logs.NewReader(filepath.Join(t.TempDir(), "missing.log"))
	lines, err := r.Last(10)
	if err != nil || len(lines) != 0 {
		t.Fatalf("expected no lines and no error, got %#v %v", lines, err)
	}
}

func TestNextReturnsOnlyCompleteAppendedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flashdeck.log")
	writeLog(t, path, "start\n", false)

	r := logs.NewReader(path)
	if _, err := r.Last(1); err != nil {
		t.Fatalf("Last: %v", err)
	}
	writeLog(t, path, "one\ntw", true)
	lines, err := r.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if len(lines) != 1 || lines[0] != "one" {
		t.Fatalf("expected only the complete line, got %#v", lines)
	}
	writeLog(t, path, "o\n", true)
	lines, err = r.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if len(lines) != 1 || lines[0] != "two" {
		t.Fatalf("expected the finished line, got %#v", lines)
	}
}

func TestNextRestartsAfterTruncation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flashdeck.log")
	writeLog(t, path, "old line one\nold line two\n", false)

	r := logs.NewReader(path)
	if _, err := r.Last(5); err != nil {
		t.Fatalf("Last: %v", err)
	}
	writeLog(t, path, "new\n", false)
	lines, err := r.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if len(lines) != 1 || lines[0] != "new" {
		t.Fatalf("expected read from start after truncation, got %#v", lines)
	}
}

func TestFollowEmitsUntilCanceled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flashdeck.log")
	writeLog(t, path, "", false)

	r := logs.NewReader(path)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var got []string
	done := make(chan error, 1)
	go func() {
		done <- r.Follow(ctx, func(line string) {
			mu.Lock()
			got = append(got, line)
			mu.Unlock()
		})
	}()

	writeLog(t, path, "later\n", true)
	deadline := time.Now().Add(5 * time.Second)
	for {
		mu.Lock()
		n := len(got)
		mu.Unlock()
		if n > 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("follow did not emit the appended line")
		}
		time.Sleep(20 * time.Millisecond)
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Follow returned error: %v", err)
	}
	if got[0] != "later" {
		t.Fatalf("unexpected follow lines: %#v", got)
	}
}

func TestFilterMatchesLoggerOutput(t *testing.T) {
	for _, format := range []string{"console", "json"} {
		t.Run(format, func(t *testing.T) {
			var buf bytes.Buffer
			logger, err := logging.New(logging.Options{Format: format, Level: "debug", Writer: &buf})
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			logging.NewComponentLogger(logger, "payment").Warn("payment verification timed out")
			logging.NewComponentLogger(logger, "web").Info("request served")

			lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
			if len(lines) != 2 {
				t.Fatalf("expected two log lines, got %q", buf.String())
			}
			warnLine, infoLine := string(lines[0]), string(lines[1])

			byComponent := logs.Filter{Component: "payment"}
			if !byComponent.Match(warnLine) || byComponent.Match(infoLine) {
				t.Fatalf("component filter mismatch for %q / %q", warnLine, infoLine)
			}
			byLevel := logs.Filter{MinLevel: "warn"}
			if !byLevel.Match(warnLine) || byLevel.Match(infoLine) {
				t.Fatalf("level filter mismatch for %q / %q", warnLine, infoLine)
			}
			if !(logs.Filter{}).Match(infoLine) {
				t.Fatal("expected empty filter to match")
			}
		})
	}
}
