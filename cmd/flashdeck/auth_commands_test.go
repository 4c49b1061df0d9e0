package main

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"flashdeck/internal/auth"
	"flashdeck/internal/testsupport"
)

func authResponse(tier string) http.HandlerFunc {
	return testsupport.JSON(http.StatusOK, map[string]any{
		"token": "tok-1",
		"user":  map[string]any{"id": 7, "name": "Ada", "email": "ada@example.com", "tier": tier},
	})
}

func TestLoginStoresSession(t *testing.T) {
	var sent map[string]string
	env := setupCLITestEnv(t, testsupport.Routes{
		"POST /login": func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewDecoder(r.Body).Decode(&sent)
			authResponse("free")(w, r)
		},
	})

	out, stderr, err := env.run(t, "s3cret\n", "login", "--email", "ada@example.com")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	requireContains(t, stderr, "Password:")
	requireContains(t, out, "Signed in as Ada (free)")
	if sent["email"] != "ada@example.com" || sent["password"] != "s3cret" {
		t.Fatalf("unexpected login body: %v", sent)
	}

	state, err := env.sessions().State(context.Background())
	if err != nil {
		t.Fatalf("State: %v", err)
	}
	if !state.Authenticated() || state.Token != "tok-1" || state.User.ID != "7" {
		t.Fatalf("expected stored session, got %+v", state)
	}
}

func TestLoginPromptsForEmail(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.Routes{"POST /login": authResponse("free")})

	_, stderr, err := env.run(t, "ada@example.com\ns3cret\n", "login")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	requireContains(t, stderr, "Email:")
}

func TestLoginFailureKeepsAnonymous(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.Routes{
		"POST /login": testsupport.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid credentials"}),
	})

	_, _, err := env.run(t, "wrong\n", "login", "--email", "ada@example.com")
	if err == nil {
		t.Fatal("expected login failure")
	}
	requireContains(t, err.Error(), "Login failed: ")
	if env.sessions().IsAuthenticated(context.Background()) {
		t.Fatal("expected no stored session")
	}
}

func TestRegisterPasswordMismatch(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.Routes{"POST /register": authResponse("free")})

	_, _, err := env.run(t, "one\ntwo\n", "register", "--name", "Ada", "--email", "ada@example.com")
	if err == nil || err.Error() != auth.MsgPasswordMismatch {
		t.Fatalf("expected mismatch error, got %v", err)
	}
	if calls := env.backend.Calls("POST /register"); calls != 0 {
		t.Fatalf("expected no register call, got %d", calls)
	}
}

func TestRegisterFreeSignsIn(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.Routes{"POST /register": authResponse("free")})

	out, _, err := env.run(t, "pw\npw\n", "register", "--name", "Ada", "--email", "ada@example.com")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	requireContains(t, out, "Signed in as Ada (free)")
}

func TestLogoutKeepsDarkMode(t *testing.T) {
	env := setupCLITestEnv(t, nil)
	env.signIn(t)
	if err := env.sessions().SetDarkMode(context.Background(), true); err != nil {
		t.Fatalf("SetDarkMode: %v", err)
	}

	out, _, err := env.run(t, "", "logout")
	if err != nil {
		t.Fatalf("logout: %v", err)
	}
	requireContains(t, out, "Signed out")

	sessions := env.sessions()
	if sessions.IsAuthenticated(context.Background()) {
		t.Fatal("expected session to be cleared")
	}
	dark, err := sessions.DarkMode(context.Background())
	if err != nil || !dark {
		t.Fatalf("expected dark mode to survive logout, got %v (%v)", dark, err)
	}
}
