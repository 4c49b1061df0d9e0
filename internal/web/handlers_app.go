package web

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"flashdeck/internal/auth"
	"flashdeck/internal/flashcards"
	"flashdeck/internal/history"
	"flashdeck/internal/logging"
	"flashdeck/internal/services"
)

const msgDeckNotFound = "That deck is no longer available."

// requireSession redirects anonymous browsers to the marketing page.
func (s *Server) requireSession(w http.ResponseWriter, r *http.Request) bool {
	if s.sessions(r).IsAuthenticated(r.Context()) {
		return true
	}
	if wantsJSON(r) || r.Method == http.MethodGet {
		s.writeError(w, http.StatusUnauthorized, "authentication required")
		return false
	}
	redirect(w, r, "/"+auth.PageMarketing)
	return false
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if !s.requireSession(w, r) {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	ctx := r.Context()
	board := s.client(r).board

	err := s.controller.Generate(ctx, board, r.PostFormValue("notes"), r.PostFormValue("language"))
	switch {
	case err == nil, errors.Is(err, flashcards.ErrGenerationInProgress):
		redirect(w, r, "/"+auth.PageApp)
	case errors.Is(err, services.ErrUnauthorized):
		outcome, authErr := s.guard.HandleAuthError(ctx, s.sessions(r), err)
		if authErr != nil {
			s.serverError(w, r, "clear session failed", authErr)
			return
		}
		redirect(w, r, "/"+outcome.Redirect)
	default:
		s.serverError(w, r, "generate failed", err)
	}
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if !s.requireSession(w, r) {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	file, _ := s.controller.Export(r.Context(), s.client(r).board, r.PostFormValue("format"))
	if file == nil {
		redirect(w, r, "/"+auth.PageApp)
		return
	}
	w.Header().Set("Content-Type", file.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Name))
	w.Header().Set("Content-Length", strconv.Itoa(len(file.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(file.Data)
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	if !s.requireSession(w, r) {
		return
	}
	s.controller.Clear(s.client(r).board)
	redirect(w, r, "/"+auth.PageApp)
}

type historyResponse struct {
	Decks []history.Summary `json:"decks"`
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if !s.requireSession(w, r) {
		return
	}
	if s.history == nil {
		s.writeJSON(w, http.StatusOK, historyResponse{Decks: []history.Summary{}})
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	summaries, err := s.history.List(r.Context(), sessionID(r), limit)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if summaries == nil {
		summaries = []history.Summary{}
	}
	s.writeJSON(w, http.StatusOK, historyResponse{Decks: summaries})
}

func (s *Server) handleHistoryLoad(w http.ResponseWriter, r *http.Request) {
	if !s.requireSession(w, r) {
		return
	}
	c := s.client(r)
	if s.history == nil {
		c.board.SetNotice(errorNotice(msgDeckNotFound))
		redirect(w, r, "/"+auth.PageApp)
		return
	}
	id := chi.URLParam(r, "id")
	deck, err := s.history.Get(r.Context(), id)
	if err != nil {
		s.serverError(w, r, "history load failed", err)
		return
	}
	if deck == nil || deck.Owner != sessionID(r) {
		logging.WithContext(r.Context(), s.logger).Debug("history deck not available", logging.String("deck_id", id))
		c.board.SetNotice(errorNotice(msgDeckNotFound))
		redirect(w, r, "/"+auth.PageApp)
		return
	}
	s.controller.Load(c.board, *deck)
	redirect(w, r, "/"+auth.PageApp)
}
