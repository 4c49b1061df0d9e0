package main

import (
	"fmt"
	"io"
	"strings"
	"testing"

	"flashdeck/internal/flashcards"
	"flashdeck/internal/preflight"
)

func TestRenderStatusLineNoColor(t *testing.T) {
	got := renderStatusLine("Web server", statusError, "Not running", false)
	want := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, "Web server:", "[ERROR] Not running")
	if got != want {
		t.Fatalf("renderStatusLine mismatch\n got: %q\nwant: %q", got, want)
	}
}

func TestRenderStatusLineWithColor(t *testing.T) {
	got := renderStatusLine("Web server", statusOK, "Running", true)
	if !strings.HasPrefix(got, ansiGreen) {
		t.Fatalf("expected green prefix, got %q", got)
	}
	if !strings.HasSuffix(got, ansiReset) {
		t.Fatalf("expected reset suffix, got %q", got)
	}
}

func TestRenderCheckOptionalFailureWarns(t *testing.T) {
	result := preflight.Result{Name: "Notifications", Passed: false, Detail: "Disabled"}
	if got := renderCheck(result, true, false); !strings.Contains(got, "[WARN] Disabled") {
		t.Fatalf("expected warning, got %q", got)
	}
	if got := renderCheck(result, false, false); !strings.Contains(got, "[ERROR] Disabled") {
		t.Fatalf("expected error, got %q", got)
	}
}

func TestRenderCardsWrapsLongText(t *testing.T) {
	long := strings.Repeat("word ", 30)
	out := renderCards([]flashcards.Card{{Question: long, Answer: "short"}})
	for _, line := range strings.Split(out, "\n") {
		if len([]rune(line)) > 2*cardColumnWidth+20 {
			t.Fatalf("expected wrapped table, got line of %d runes", len([]rune(line)))
		}
	}
}

func TestShouldColorizeNonFile(t *testing.T) {
	if shouldColorize(io.Discard) {
		t.Fatalf("expected non-file writer to disable color")
	}
}
