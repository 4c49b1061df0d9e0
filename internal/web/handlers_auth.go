package web

import (
	"net/http"
	"strings"

	"flashdeck/internal/auth"
)

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	result, err := s.forms.Login(r.Context(), s.sessions(r), auth.LoginInput{
		Email:    r.PostFormValue("email"),
		Password: r.PostFormValue("password"),
	})
	if err != nil {
		s.serverError(w, r, "login failed", err)
		return
	}
	s.applyFormResult(w, r, result, "login")
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	result, err := s.forms.Register(r.Context(), s.sessions(r), auth.RegisterInput{
		Name:     r.PostFormValue("name"),
		Email:    r.PostFormValue("email"),
		Password: r.PostFormValue("password"),
		Confirm:  r.PostFormValue("confirm_password"),
		Tier:     r.PostFormValue("tier"),
	})
	if err != nil {
		s.serverError(w, r, "registration failed", err)
		return
	}
	s.applyFormResult(w, r, result, "register")
}

func (s *Server) applyFormResult(w http.ResponseWriter, r *http.Request, result auth.FormResult, modal string) {
	if result.Message != "" {
		notice := successNotice(result.Message)
		if result.Error {
			notice = errorNotice(result.Message)
		}
		s.client(r).setFlash(notice)
	}
	switch {
	case result.Redirect != "":
		redirect(w, r, "/"+result.Redirect)
	case result.PaymentContext != "":
		redirect(w, r, paymentModalPath(result.PaymentContext))
	case !result.CloseModal:
		redirect(w, r, "/"+auth.PageMarketing+"?modal="+modal)
	default:
		redirect(w, r, "/"+auth.PageMarketing)
	}
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	outcome, err := auth.Logout(r.Context(), s.sessions(r))
	if err != nil {
		s.serverError(w, r, "logout failed", err)
		return
	}
	redirect(w, r, "/"+outcome.Redirect)
}

// handleDarkMode persists the toggle. Script callers get JSON; plain form
// posts are sent back to the page they came from.
func (s *Server) handleDarkMode(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	ctx := r.Context()
	sessions := s.sessions(r)

	var enabled bool
	switch value := strings.ToLower(strings.TrimSpace(r.PostFormValue("enabled"))); value {
	case "":
		current, err := sessions.DarkMode(ctx)
		if err != nil {
			s.serverError(w, r, "read dark mode failed", err)
			return
		}
		enabled = !current
	default:
		enabled = value == "true" || value == "1" || value == "enabled" || value == "on"
	}
	if err := sessions.SetDarkMode(ctx, enabled); err != nil {
		s.serverError(w, r, "store dark mode failed", err)
		return
	}

	if wantsJSON(r) {
		state := "disabled"
		if enabled {
			state = "enabled"
		}
		s.writeJSON(w, http.StatusOK, map[string]string{"darkMode": state})
		return
	}
	redirect(w, r, returnPath(r, "/"+auth.PageMarketing))
}
