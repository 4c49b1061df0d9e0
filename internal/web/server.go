package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"flashdeck/internal/auth"
	"flashdeck/internal/flashcards"
	"flashdeck/internal/history"
	"flashdeck/internal/logging"
	"flashdeck/internal/payment"
	"flashdeck/internal/session"
)

const defaultRequestTimeout = 90 * time.Second

// SessionStore hands out one key/value store per browser session id.
type SessionStore interface {
	Namespace(id string) session.Store
}

// HistoryReader lists and loads previously generated decks.
type HistoryReader interface {
	List(ctx context.Context, owner string, limit int) ([]history.Summary, error)
	Get(ctx context.Context, id string) (*flashcards.Deck, error)
}

// Options wires the server to its collaborators.
type Options struct {
	Bind         string
	CookieSecure bool
	SessionTTL   time.Duration
	// BackendCookie names the backend cookie forwarded to create-payment-link.
	BackendCookie  string
	RequestTimeout time.Duration

	Sessions   SessionStore
	Controller *flashcards.Controller
	Guard      *auth.Guard
	Forms      *auth.Forms
	Payments   *payment.Flow
	History    HistoryReader
	Logger     *slog.Logger
}

// Server is the Flashdeck HTTP front end.
type Server struct {
	bind           string
	cookieSecure   bool
	sessionTTL     time.Duration
	backendCookie  string
	requestTimeout time.Duration

	store      SessionStore
	controller *flashcards.Controller
	guard      *auth.Guard
	forms      *auth.Forms
	payments   *payment.Flow
	history    HistoryReader
	logger     *slog.Logger
	pages      *pageRenderer
	clients    *clientRegistry

	// baseCtx outlives requests; payment polling runs under it.
	baseCtx  context.Context
	handler  http.Handler
	listener net.Listener
	server   *http.Server
}

// New validates opts and builds the router.
func New(opts Options) (*Server, error) {
	switch {
	case opts.Sessions == nil:
		return nil, errors.New("web server requires a session store")
	case opts.Controller == nil:
		return nil, errors.New("web server requires a flashcard controller")
	case opts.Guard == nil || opts.Forms == nil:
		return nil, errors.New("web server requires the auth guard and forms")
	case opts.Payments == nil:
		return nil, errors.New("web server requires a payment flow")
	}
	pages, err := newPageRenderer()
	if err != nil {
		return nil, err
	}

	s := &Server{
		bind:           strings.TrimSpace(opts.Bind),
		cookieSecure:   opts.CookieSecure,
		sessionTTL:     opts.SessionTTL,
		backendCookie:  strings.TrimSpace(opts.BackendCookie),
		requestTimeout: opts.RequestTimeout,
		store:          opts.Sessions,
		controller:     opts.Controller,
		guard:          opts.Guard,
		forms:          opts.Forms,
		payments:       opts.Payments,
		history:        opts.History,
		logger:         logging.NewComponentLogger(opts.Logger, "web"),
		pages:          pages,
		clients:        newClientRegistry(time.Now),
		baseCtx:        context.Background(),
	}
	if s.requestTimeout <= 0 {
		s.requestTimeout = defaultRequestTimeout
	}
	s.handler = s.routes()
	return s, nil
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.requestTimeout))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/assets/*", assetHandler())

	r.Group(func(r chi.Router) {
		r.Use(s.sessionMiddleware)

		r.Get("/", s.handleIndex)
		r.Get("/"+auth.PageMarketing, s.handleIndex)
		r.Get("/"+auth.PageApp, s.handleApp)

		r.Post("/auth/login", s.handleLogin)
		r.Post("/auth/register", s.handleRegister)
		r.Post("/auth/logout", s.handleLogout)
		r.Post("/preferences/dark-mode", s.handleDarkMode)

		r.Route("/app", func(r chi.Router) {
			r.Post("/generate", s.handleGenerate)
			r.Post("/export", s.handleExport)
			r.Post("/clear", s.handleClear)
			r.Get("/history", s.handleHistory)
			r.Post("/history/{id}/load", s.handleHistoryLoad)
		})

		r.Route("/payment", func(r chi.Router) {
			r.Post("/intent", s.handlePaymentIntent)
			r.Get("/status", s.handlePaymentStatus)
			r.Post("/link", s.handlePaymentLink)
		})
	})
	return r
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start listens on the configured bind address and serves until ctx is
// canceled or Stop is called. Payment polling started by requests runs under
// ctx as well.
func (s *Server) Start(ctx context.Context) error {
	if s.bind == "" {
		return errors.New("web server bind address is empty")
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("web listen: %w", err)
	}
	s.listener = listener
	s.baseCtx = ctx
	s.server = &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      s.requestTimeout + 30*time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.ErrorWithContext(s.logger, "web server error", "web_server_failed",
				logging.Error(err),
			)
		}
	}()

	s.logger.Info("web server listening", logging.String("address", listener.Addr().String()))
	return nil
}

// Addr reports the bound address once Start succeeded.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop drains in-flight requests for up to timeout.
func (s *Server) Stop(timeout time.Duration) error {
	if s.server == nil {
		return nil
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	err := s.server.Shutdown(shutdownCtx)
	s.server = nil
	s.listener = nil
	return err
}

// PruneClients drops in-memory boards idle for longer than maxIdle.
func (s *Server) PruneClients(maxIdle time.Duration) int {
	return s.clients.prune(maxIdle)
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("request served",
				logging.String(logging.FieldRequestID, middleware.GetReqID(r.Context())),
				logging.String("method", r.Method),
				logging.String("path", r.URL.Path),
				logging.Int("status", ww.Status()),
				logging.Duration("elapsed", time.Since(start)),
			)
		})
	}
}
