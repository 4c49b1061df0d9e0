package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"flashdeck/internal/testsupport"
)

func generateRoute(t *testing.T, seen *map[string]string) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode generate body: %v", err)
		}
		if seen != nil {
			*seen = body
		}
		testsupport.JSON(http.StatusOK, map[string]any{
			"flashcards": []map[string]string{
				{"question": "What is mitosis?", "answer": "Cell division"},
				{"question": "What is ATP?", "answer": "Energy currency"},
			},
		})(w, r)
	}
}

func TestGenerateRequiresSignIn(t *testing.T) {
	env := setupCLITestEnv(t, verifiedRoutes(testsupport.Routes{
		"POST /generate-flashcards": generateRoute(t, nil),
	}))

	_, _, err := env.run(t, "", "generate", "--notes", "cells divide")
	if err == nil || err.Error() != errNotSignedIn.Error() {
		t.Fatalf("expected sign-in error, got %v", err)
	}
	if calls := env.backend.Calls("POST /verify-token"); calls != 0 {
		t.Fatalf("expected no token verification without a session, got %d", calls)
	}
	if calls := env.backend.Calls("POST /generate-flashcards"); calls != 0 {
		t.Fatalf("expected no generation call, got %d", calls)
	}
}

func TestGeneratePrintsCardsAndRecordsHistory(t *testing.T) {
	var seen map[string]string
	env := setupCLITestEnv(t, verifiedRoutes(testsupport.Routes{
		"POST /generate-flashcards": generateRoute(t, &seen),
	}))
	env.signIn(t)

	notesPath := testsupport.WriteNotes(t, t.TempDir(), "biology.txt", "Mitosis splits a cell.\n")
	out, _, err := env.run(t, "", "generate", "--file", notesPath, "--language", "Spanish")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	requireContains(t, out, "What is mitosis?")
	requireContains(t, out, "Energy currency")
	requireContains(t, out, "Flashcards generated successfully!")
	if seen["language"] != "es" {
		t.Fatalf("expected normalized language es, got %q", seen["language"])
	}
	if seen["notes"] != "Mitosis splits a cell." {
		t.Fatalf("expected trimmed notes, got %q", seen["notes"])
	}

	out, _, err = env.run(t, "", "history", "list", "--json")
	if err != nil {
		t.Fatalf("history list: %v", err)
	}
	var summaries []struct {
		ID        string `json:"id"`
		Owner     string `json:"owner"`
		Language  string `json:"language"`
		CardCount int    `json:"card_count"`
	}
	if err := json.Unmarshal([]byte(out), &summaries); err != nil {
		t.Fatalf("decode history: %v\n%s", err, out)
	}
	if len(summaries) != 1 || summaries[0].CardCount != 2 || summaries[0].Owner != cliOwner || summaries[0].Language != "es" {
		t.Fatalf("unexpected history: %+v", summaries)
	}

	out, _, err = env.run(t, "", "history", "show", summaries[0].ID[:8])
	if err != nil {
		t.Fatalf("history show: %v", err)
	}
	requireContains(t, out, "Spanish")
	if strings.Index(out, "What is mitosis?") > strings.Index(out, "What is ATP?") {
		t.Fatal("expected cards in generated order")
	}
}

func TestGenerateReadsNotesFromStdin(t *testing.T) {
	var seen map[string]string
	env := setupCLITestEnv(t, verifiedRoutes(testsupport.Routes{
		"POST /generate-flashcards": generateRoute(t, &seen),
	}))
	env.signIn(t)

	if _, _, err := env.run(t, "piped notes\n", "generate", "--file", "-", "--json"); err != nil {
		t.Fatalf("generate: %v", err)
	}
	if seen["notes"] != "piped notes" {
		t.Fatalf("expected stdin notes, got %q", seen["notes"])
	}
}

func TestGenerateExportWritesFile(t *testing.T) {
	env := setupCLITestEnv(t, verifiedRoutes(testsupport.Routes{
		"POST /generate-flashcards": generateRoute(t, nil),
	}))
	env.signIn(t)

	target := filepath.Join(t.TempDir(), "deck.json")
	_, stderr, err := env.run(t, "", "generate", "--notes", "cells", "--export", "JSON", "--out", target)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	requireContains(t, stderr, "Exported as JSON successfully!")

	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	var cards []map[string]string
	if err := json.Unmarshal(data, &cards); err != nil {
		t.Fatalf("decode export: %v", err)
	}
	if len(cards) != 2 || cards[0]["question"] != "What is mitosis?" {
		t.Fatalf("unexpected export: %s", data)
	}
}

func TestGenerateExportDefaultsToExportDir(t *testing.T) {
	env := setupCLITestEnv(t, verifiedRoutes(testsupport.Routes{
		"POST /generate-flashcards": generateRoute(t, nil),
	}))
	env.signIn(t)

	if _, _, err := env.run(t, "", "generate", "--notes", "cells", "--export", "pdf"); err != nil {
		t.Fatalf("generate: %v", err)
	}
	path := filepath.Join(env.cfg.Paths.ExportDir, cliOwner, "flashcards.pdf")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("expected pdf at %s: %v", path, err)
	}
	if !strings.HasPrefix(string(data), "%PDF") {
		t.Fatal("expected a PDF document")
	}
}

func TestGenerateRejectsBadFlagsBeforeCallingBackend(t *testing.T) {
	env := setupCLITestEnv(t, verifiedRoutes(nil))
	env.signIn(t)

	if _, _, err := env.run(t, "", "generate", "--notes", "x", "--export", "csv"); err == nil {
		t.Fatal("expected unsupported export format to fail")
	}
	if _, _, err := env.run(t, "", "generate", "--notes", "x", "--language", "klingon"); err == nil {
		t.Fatal("expected unsupported language to fail")
	}
	if _, _, err := env.run(t, "", "generate", "--notes", "   "); err == nil || err.Error() != "Please enter some notes first!" {
		t.Fatalf("expected empty notes error, got %v", err)
	}
	if calls := env.backend.Calls("POST /generate-flashcards"); calls != 0 {
		t.Fatalf("expected no generation calls, got %d", calls)
	}
}

func TestGenerateFailureShowsDemoCardsAndFails(t *testing.T) {
	env := setupCLITestEnv(t, verifiedRoutes(testsupport.Routes{
		"POST /generate-flashcards": testsupport.JSON(http.StatusInternalServerError, map[string]string{"error": "model offline"}),
	}))
	env.signIn(t)

	out, stderr, err := env.run(t, "", "generate", "--notes", "cells")
	if err == nil {
		t.Fatal("expected failure")
	}
	requireContains(t, err.Error(), "Showing demo cards.")
	requireContains(t, stderr, "model offline")
	requireContains(t, out, "What is the capital of France?")

	out, _, err = env.run(t, "", "history", "list")
	if err != nil {
		t.Fatalf("history list: %v", err)
	}
	requireContains(t, out, "No decks in history")
}

func TestGenerateUnauthorizedClearsSession(t *testing.T) {
	env := setupCLITestEnv(t, verifiedRoutes(testsupport.Routes{
		"POST /generate-flashcards": testsupport.JSON(http.StatusUnauthorized, map[string]string{"error": "expired"}),
	}))
	env.signIn(t)

	_, _, err := env.run(t, "", "generate", "--notes", "cells")
	if err == nil {
		t.Fatal("expected unauthorized failure")
	}
	requireContains(t, err.Error(), "flashdeck login")
	if env.sessions().IsAuthenticated(context.Background()) {
		t.Fatal("expected session to be cleared")
	}
}
