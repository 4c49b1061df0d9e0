package web

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"flashdeck/internal/auth"
	"flashdeck/internal/flashcards"
	"flashdeck/internal/history"
	"flashdeck/internal/language"
	"flashdeck/internal/logging"
	"flashdeck/internal/session"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed assets
var assetFS embed.FS

type pageRenderer struct {
	tmpl *template.Template
}

func newPageRenderer() (*pageRenderer, error) {
	funcs := template.FuncMap{
		"inc": func(i int) int { return i + 1 },
		"ago": func(t time.Time) string { return t.Local().Format("Jan 2, 15:04") },
	}
	tmpl, err := template.New("pages").Funcs(funcs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &pageRenderer{tmpl: tmpl}, nil
}

// layout carries what every page needs.
type layout struct {
	Title    string
	DarkMode bool
	Notice   flashcards.Notice
	Path     string
}

type marketingPage struct {
	layout
	Nav            auth.Navigation
	Modal          string
	PaymentContext string
	FormsMode      string
}

type paymentView struct {
	InvoiceID string
	State     string
	Attempts  int
	Message   string
	Terminal  bool
}

type appPage struct {
	layout
	User      *session.User
	Notes     string
	Language  string
	Languages []language.Option
	Cards     []flashcards.Card
	Loading   bool
	History   []history.Summary
	Payment   *paymentView
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	var buf bytes.Buffer
	if err := s.pages.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		s.serverError(w, r, "template render failed", err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func assetHandler() http.Handler {
	sub, err := fs.Sub(assetFS, "assets")
	if err != nil {
		panic(err)
	}
	return http.StripPrefix("/assets/", http.FileServer(http.FS(sub)))
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

func (s *Server) serverError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	logging.ErrorWithContext(logging.WithContext(r.Context(), s.logger), msg, "web_request_failed",
		logging.Error(err),
		logging.String("path", r.URL.Path),
	)
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

// redirect answers with 303 so form posts turn into GETs.
func redirect(w http.ResponseWriter, r *http.Request, target string) {
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// returnPath reads the form's "return" field, accepting only local paths.
func returnPath(r *http.Request, fallback string) string {
	target := strings.TrimSpace(r.PostFormValue("return"))
	if !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.Contains(target, "\\") {
		return fallback
	}
	return target
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

func errorNotice(message string) flashcards.Notice {
	return flashcards.Notice{Kind: flashcards.NoticeError, Message: message}
}

func successNotice(message string) flashcards.Notice {
	return flashcards.Notice{Kind: flashcards.NoticeSuccess, Message: message}
}
