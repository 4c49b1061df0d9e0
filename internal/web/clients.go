package web

import (
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"flashdeck/internal/flashcards"
	"flashdeck/internal/services"
	"flashdeck/internal/session"
)

const sessionCookieName = "flashdeck_sid"

// client is the in-memory half of a browser session.
type client struct {
	board *flashcards.Board

	mu       sync.Mutex
	flash    flashcards.Notice
	lastSeen time.Time
}

func (c *client) setFlash(n flashcards.Notice) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.flash = n
}

func (c *client) takeFlash() flashcards.Notice {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := c.flash
	c.flash = flashcards.Notice{}
	return n
}

type clientRegistry struct {
	mu      sync.Mutex
	clients map[string]*client
	now     func() time.Time
}

func newClientRegistry(now func() time.Time) *clientRegistry {
	return &clientRegistry{clients: make(map[string]*client), now: now}
}

func (r *clientRegistry) get(id string) *client {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.clients[id]
	if !ok {
		c = &client{board: flashcards.NewBoard()}
		r.clients[id] = c
	}
	c.mu.Lock()
	c.lastSeen = r.now()
	c.mu.Unlock()
	return c
}

func (r *clientRegistry) prune(maxIdle time.Duration) int {
	cutoff := r.now().Add(-maxIdle)
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for id, c := range r.clients {
		c.mu.Lock()
		idle := c.lastSeen.Before(cutoff)
		c.mu.Unlock()
		if idle && !c.board.Loading() {
			delete(r.clients, id)
			removed++
		}
	}
	return removed
}

// sessionMiddleware assigns the flashdeck_sid cookie and puts the session and
// request ids on the request context.
func (s *Server) sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sid := ""
		if cookie, err := r.Cookie(sessionCookieName); err == nil {
			if _, err := uuid.Parse(cookie.Value); err == nil {
				sid = cookie.Value
			}
		}
		if sid == "" {
			sid = uuid.NewString()
		}
		http.SetCookie(w, &http.Cookie{
			Name:     sessionCookieName,
			Value:    sid,
			Path:     "/",
			MaxAge:   int(s.sessionTTL.Seconds()),
			HttpOnly: true,
			Secure:   s.cookieSecure,
			SameSite: http.SameSiteLaxMode,
		})

		ctx := services.WithSessionID(r.Context(), sid)
		if rid := middleware.GetReqID(ctx); rid != "" {
			ctx = services.WithRequestID(ctx, rid)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func sessionID(r *http.Request) string {
	id, _ := services.SessionIDFromContext(r.Context())
	return id
}

func (s *Server) sessions(r *http.Request) *session.Manager {
	return session.NewManager(s.store.Namespace(sessionID(r)))
}

func (s *Server) client(r *http.Request) *client {
	return s.clients.get(sessionID(r))
}
