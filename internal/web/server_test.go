package web_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"flashdeck/internal/auth"
	"flashdeck/internal/config"
	"flashdeck/internal/flashcards"
	"flashdeck/internal/payment"
	"flashdeck/internal/services/backend"
	"flashdeck/internal/testsupport"
	"flashdeck/internal/web"
)

type harness struct {
	fake   *testsupport.Backend
	server *httptest.Server
	client *http.Client
}

func newHarness(t *testing.T, mode string, routes testsupport.Routes) *harness {
	t.Helper()

	fake := testsupport.NewBackend(t, routes)
	cfg := testsupport.NewConfig(t,
		testsupport.WithBackendURL(fake.URL),
		testsupport.WithFormsMode(mode),
	)
	api := backend.NewClient(backend.Config{BaseURL: cfg.Backend.BaseURL, TimeoutSeconds: 5},
		backend.WithRetryMaxAttempts(1))
	history := testsupport.MustOpenHistory(t, cfg)

	srv, err := web.New(web.Options{
		Bind:       cfg.Paths.Bind,
		SessionTTL: cfg.SessionTTL(),
		Sessions:   testsupport.MustOpenSessions(t, cfg),
		Controller: flashcards.NewController(flashcards.BackendGenerator{Client: api},
			flashcards.WithRecorder(history)),
		Guard:    auth.NewGuard(api),
		Forms:    auth.NewForms(cfg.Auth.FormsMode, api, nil),
		Payments: payment.NewFlow(api, payment.WithClock(payment.NewFakeClock(time.Now())), payment.WithPolling(time.Second, 3)),
		History:  history,
	})
	if err != nil {
		t.Fatalf("web.New: %v", err)
	}

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookiejar: %v", err)
	}
	return &harness{
		fake:   fake,
		server: ts,
		client: &http.Client{
			Jar: jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func (h *harness) get(t *testing.T, path string, headers ...string) (*http.Response, string) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, h.server.URL+path, nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	return h.do(t, req)
}

func (h *harness) post(t *testing.T, path string, form url.Values, headers ...string) (*http.Response, string) {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, h.server.URL+path, strings.NewReader(form.Encode()))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	return h.do(t, req)
}

func (h *harness) do(t *testing.T, req *http.Request) (*http.Response, string) {
	t.Helper()
	resp, err := h.client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, string(body)
}

func expectRedirect(t *testing.T, resp *http.Response, want string) {
	t.Helper()
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Location"); got != want {
		t.Fatalf("expected redirect to %q, got %q", want, got)
	}
}

func signedInRoutes(extra testsupport.Routes) testsupport.Routes {
	routes := testsupport.Routes{
		"POST /login": testsupport.JSON(http.StatusOK, map[string]any{
			"token": "tok-1",
			"user":  map[string]any{"id": 7, "name": "Ada", "email": "ada@example.com", "tier": "free"},
		}),
		"POST /verify-token": testsupport.JSON(http.StatusOK, map[string]any{"authenticated": true}),
	}
	for key, handler := range extra {
		routes[key] = handler
	}
	return routes
}

func (h *harness) signIn(t *testing.T) {
	t.Helper()
	resp, _ := h.post(t, "/auth/login", url.Values{"email": {"ada@example.com"}, "password": {"secret"}})
	expectRedirect(t, resp, "/ai-app.html")
}

func TestHealthz(t *testing.T) {
	h := newHarness(t, config.FormsModeStub, nil)
	resp, body := h.get(t, "/healthz")
	if resp.StatusCode != http.StatusOK || !strings.Contains(body, `"status":"ok"`) {
		t.Fatalf("unexpected health response %d %s", resp.StatusCode, body)
	}
	if len(resp.Cookies()) != 0 {
		t.Fatal("health checks must not assign a session cookie")
	}
}

func TestAppRedirectsAnonymousWithoutBackendCall(t *testing.T) {
	h := newHarness(t, config.FormsModeStub, nil)
	resp, body := h.get(t, "/ai-app.html")
	expectRedirect(t, resp, "/index.html")
	if strings.Contains(body, "flashcards-container") {
		t.Fatal("app content rendered before the guard passed")
	}
	if calls := h.fake.Calls("POST /verify-token"); calls != 0 {
		t.Fatalf("expected no verification request, got %d", calls)
	}
}

func TestMarketingPageAssignsSessionCookie(t *testing.T) {
	h := newHarness(t, config.FormsModeStub, nil)
	resp, body := h.get(t, "/")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var found bool
	for _, c := range resp.Cookies() {
		if c.Name == "flashdeck_sid" && c.HttpOnly && c.Value != "" {
			found = true
		}
	}
	if !found {
		t.Fatal("expected flashdeck_sid cookie")
	}
	if !strings.Contains(body, "Log in") || strings.Contains(body, "Go to App") {
		t.Fatal("anonymous visitors should see the login buttons")
	}
}

func TestStubLoginShowsNotice(t *testing.T) {
	h := newHarness(t, config.FormsModeStub, nil)
	resp, _ := h.post(t, "/auth/login", url.Values{"email": {"a@b.c"}, "password": {"x"}})
	expectRedirect(t, resp, "/index.html")

	_, body := h.get(t, "/index.html")
	if !strings.Contains(body, auth.MsgLoginStub) {
		t.Fatalf("expected stub notice, got body without it")
	}
	if calls := h.fake.Calls("POST /login"); calls != 0 {
		t.Fatalf("stub mode must not call the backend, got %d calls", calls)
	}
}

func TestRegisterPasswordMismatchReopensModal(t *testing.T) {
	h := newHarness(t, config.FormsModeStub, nil)
	resp, _ := h.post(t, "/auth/register", url.Values{
		"name":             {"Ada"},
		"email":            {"ada@example.com"},
		"password":         {"one"},
		"confirm_password": {"two"},
	})
	expectRedirect(t, resp, "/index.html?modal=register")

	_, body := h.get(t, "/index.html?modal=register")
	if !strings.Contains(body, auth.MsgPasswordMismatch) {
		t.Fatal("expected password mismatch notice")
	}
	if !strings.Contains(body, `id="register-modal" class="modal active"`) {
		t.Fatal("expected register modal open")
	}
}

func TestDarkModePersists(t *testing.T) {
	h := newHarness(t, config.FormsModeStub, nil)
	resp, body := h.post(t, "/preferences/dark-mode", url.Values{"enabled": {"true"}}, "Accept", "application/json")
	if resp.StatusCode != http.StatusOK || !strings.Contains(body, `"darkMode":"enabled"`) {
		t.Fatalf("unexpected dark mode response %d %s", resp.StatusCode, body)
	}
	_, body = h.get(t, "/index.html")
	if !strings.Contains(body, `<body class="dark-mode">`) {
		t.Fatal("expected dark mode body class")
	}

	resp, _ = h.post(t, "/preferences/dark-mode", url.Values{"return": {"/index.html#pricing"}})
	expectRedirect(t, resp, "/index.html#pricing")
	_, body = h.get(t, "/index.html")
	if strings.Contains(body, `<body class="dark-mode">`) {
		t.Fatal("expected toggle without value to disable dark mode")
	}
}

func TestGenerateUnsupportedLanguageShowsNotice(t *testing.T) {
	h := newHarness(t, config.FormsModeRemote, signedInRoutes(testsupport.Routes{
		"POST /generate-flashcards": testsupport.JSON(http.StatusOK, map[string]any{
			"flashcards": []map[string]string{{"question": "Q", "answer": "A"}},
		}),
	}))
	h.signIn(t)

	resp, _ := h.post(t, "/app/generate", url.Values{"notes": {"Biology notes"}, "language": {"klingon"}})
	expectRedirect(t, resp, "/ai-app.html")

	_, body := h.get(t, "/ai-app.html")
	if !strings.Contains(body, "Unsupported language: klingon") {
		t.Fatal("expected unsupported language notice")
	}
	if calls := h.fake.Calls("POST /generate-flashcards"); calls != 0 {
		t.Fatalf("expected no generation request, got %d", calls)
	}
}

func TestGenerateRendersCardsAndRecordsHistory(t *testing.T) {
	h := newHarness(t, config.FormsModeRemote, signedInRoutes(testsupport.Routes{
		"POST /generate-flashcards": testsupport.JSON(http.StatusOK, map[string]any{
			"flashcards": []map[string]string{
				{"question": "What is mitosis?", "answer": "Cell division"},
				{"question": "What is ATP?", "answer": "Energy currency"},
			},
		}),
	}))
	h.signIn(t)

	resp, body := h.get(t, "/ai-app.html")
	if resp.StatusCode != http.StatusOK || !strings.Contains(body, "flashcards-container") {
		t.Fatalf("expected app page, got %d", resp.StatusCode)
	}

	resp, _ = h.post(t, "/app/generate", url.Values{"notes": {"Biology notes"}, "language": {"en"}})
	expectRedirect(t, resp, "/ai-app.html")

	_, body = h.get(t, "/ai-app.html")
	first := strings.Index(body, "What is mitosis?")
	second := strings.Index(body, "What is ATP?")
	if first < 0 || second < 0 || first > second {
		t.Fatal("expected cards rendered in response order")
	}
	if !strings.Contains(body, flashcards.MsgGenerated) {
		t.Fatal("expected success notice")
	}

	resp, body = h.get(t, "/app/history", "Accept", "application/json")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("history status %d", resp.StatusCode)
	}
	var decoded struct {
		Decks []struct {
			ID        string `json:"id"`
			CardCount int    `json:"card_count"`
		} `json:"decks"`
	}
	if err := json.Unmarshal([]byte(body), &decoded); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(decoded.Decks) != 1 || decoded.Decks[0].CardCount != 2 {
		t.Fatalf("unexpected history %+v", decoded.Decks)
	}

	resp, _ = h.post(t, "/app/clear", nil)
	expectRedirect(t, resp, "/ai-app.html")
	resp, _ = h.post(t, "/app/history/"+decoded.Decks[0].ID+"/load", nil)
	expectRedirect(t, resp, "/ai-app.html")
	_, body = h.get(t, "/ai-app.html")
	if !strings.Contains(body, "What is ATP?") || !strings.Contains(body, flashcards.MsgLoaded) {
		t.Fatal("expected history deck loaded onto the board")
	}
}

func TestGenerateFailureShowsDemoCards(t *testing.T) {
	h := newHarness(t, config.FormsModeRemote, signedInRoutes(testsupport.Routes{
		"POST /generate-flashcards": testsupport.JSON(http.StatusInternalServerError, map[string]string{"error": "model offline"}),
	}))
	h.signIn(t)

	resp, _ := h.post(t, "/app/generate", url.Values{"notes": {"notes"}})
	expectRedirect(t, resp, "/ai-app.html")

	_, body := h.get(t, "/ai-app.html")
	if !strings.Contains(body, "Error: model offline. Showing demo cards.") {
		t.Fatal("expected fallback notice")
	}
	if !strings.Contains(body, "What is the capital of France?") {
		t.Fatal("expected demo cards")
	}
	if _, histBody := h.get(t, "/app/history", "Accept", "application/json"); !strings.Contains(histBody, `"decks":[]`) {
		t.Fatalf("demo decks must not be recorded, got %s", histBody)
	}
}

func TestGenerateUnauthorizedDropsSession(t *testing.T) {
	h := newHarness(t, config.FormsModeRemote, signedInRoutes(testsupport.Routes{
		"POST /generate-flashcards": testsupport.JSON(http.StatusUnauthorized, map[string]string{"error": "expired"}),
	}))
	h.signIn(t)

	resp, _ := h.post(t, "/app/generate", url.Values{"notes": {"notes"}})
	expectRedirect(t, resp, "/index.html")

	resp, _ = h.get(t, "/ai-app.html")
	expectRedirect(t, resp, "/index.html")
}

func TestExportDownloadsJSON(t *testing.T) {
	h := newHarness(t, config.FormsModeRemote, signedInRoutes(testsupport.Routes{
		"POST /generate-flashcards": testsupport.JSON(http.StatusOK, map[string]any{
			"flashcards": []map[string]string{{"question": "Q", "answer": "A"}},
		}),
	}))
	h.signIn(t)

	resp, _ := h.post(t, "/app/export", url.Values{"format": {"json"}})
	expectRedirect(t, resp, "/ai-app.html")
	_, body := h.get(t, "/ai-app.html")
	if !strings.Contains(body, flashcards.MsgNothingToExport) {
		t.Fatal("expected empty export notice")
	}

	h.post(t, "/app/generate", url.Values{"notes": {"notes"}})
	resp, body = h.post(t, "/app/export", url.Values{"format": {" JSON "}})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected download, got %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Content-Disposition"); !strings.Contains(got, "flashcards.json") {
		t.Fatalf("unexpected disposition %q", got)
	}
	var cards []flashcards.Card
	if err := json.Unmarshal([]byte(body), &cards); err != nil || len(cards) != 1 {
		t.Fatalf("unexpected export body %q: %v", body, err)
	}
}

func TestLogoutClearsSession(t *testing.T) {
	h := newHarness(t, config.FormsModeRemote, signedInRoutes(nil))
	h.signIn(t)

	_, body := h.get(t, "/index.html")
	if !strings.Contains(body, "Go to App") {
		t.Fatal("expected app navigation for signed-in visitor")
	}

	resp, _ := h.post(t, "/auth/logout", nil)
	expectRedirect(t, resp, "/index.html")
	resp, _ = h.get(t, "/ai-app.html")
	expectRedirect(t, resp, "/index.html")
}

func TestPaymentIntentRedirectsAndReportsStatus(t *testing.T) {
	h := newHarness(t, config.FormsModeRemote, signedInRoutes(testsupport.Routes{
		"POST /create-payment-intent": testsupport.JSON(http.StatusOK, map[string]string{
			"payment_url": "https://pay.example.com/checkout/1",
			"invoice_id":  "inv-1",
		}),
	}))

	resp, _ := h.post(t, "/payment/intent", url.Values{"context": {"upgrade"}, "return": {"/index.html#pricing"}})
	expectRedirect(t, resp, "/index.html#pricing")
	_, body := h.get(t, "/index.html")
	if !strings.Contains(body, payment.MsgAuthRequired) {
		t.Fatal("expected auth required notice before sign in")
	}

	h.signIn(t)
	resp, _ = h.post(t, "/payment/intent", url.Values{"context": {"upgrade"}})
	expectRedirect(t, resp, "https://pay.example.com/checkout/1")

	resp, body = h.get(t, "/payment/status", "Accept", "application/json")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status code %d", resp.StatusCode)
	}
	var status struct {
		State     string `json:"state"`
		InvoiceID string `json:"invoice_id"`
		Terminal  bool   `json:"terminal"`
	}
	if err := json.Unmarshal([]byte(body), &status); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if status.InvoiceID != "inv-1" || status.Terminal {
		t.Fatalf("unexpected payment status %+v", status)
	}
}

func TestCheckoutReturnStoresUpgrade(t *testing.T) {
	h := newHarness(t, config.FormsModeRemote, signedInRoutes(testsupport.Routes{
		"POST /verify-payment": testsupport.JSON(http.StatusOK, map[string]any{
			"success": true,
			"token":   "tok-2",
			"tier":    "premium",
		}),
	}))
	h.signIn(t)

	resp, _ := h.get(t, "/index.html?payment=success&invoice_id=inv-9")
	expectRedirect(t, resp, "/ai-app.html")

	_, body := h.get(t, "/ai-app.html")
	if !strings.Contains(body, "premium") {
		t.Fatal("expected upgraded tier on the app page")
	}
}

func TestCheckoutReturnFailureShowsNotice(t *testing.T) {
	h := newHarness(t, config.FormsModeStub, testsupport.Routes{
		"POST /verify-payment": testsupport.JSON(http.StatusOK, map[string]any{
			"success": false,
			"error":   "card declined",
		}),
	})

	resp, _ := h.get(t, "/?payment=success&invoice_id=inv-3")
	expectRedirect(t, resp, "/index.html")
	_, body := h.get(t, "/index.html")
	if !strings.Contains(body, "Payment verification failed: card declined") {
		t.Fatal("expected verification failure notice")
	}
}

func TestHistoryRequiresSession(t *testing.T) {
	h := newHarness(t, config.FormsModeStub, nil)
	resp, _ := h.get(t, "/app/history", "Accept", "application/json")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}
