package web

import (
	"net/http"
	"net/url"
	"strings"

	"flashdeck/internal/auth"
	"flashdeck/internal/language"
	"flashdeck/internal/logging"
	"flashdeck/internal/payment"
)

const historyPageSize = 10

var marketingModals = map[string]bool{
	"login":    true,
	"register": true,
	"payment":  true,
}

// handleIndex renders the marketing page. A return from checkout
// (?payment=success&invoice_id=...) is verified first.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessions := s.sessions(r)
	c := s.client(r)
	query := r.URL.Query()

	if query.Get("payment") == "success" {
		if invoiceID := strings.TrimSpace(query.Get("invoice_id")); invoiceID != "" {
			outcome, err := s.payments.ReturnFromCheckout(ctx, sessions, invoiceID)
			if err != nil {
				s.serverError(w, r, "checkout return failed", err)
				return
			}
			if outcome.Success {
				if task := s.payments.Task(invoiceID); task != nil {
					task.Cancel()
				}
				s.payments.Forget(invoiceID)
				redirect(w, r, "/"+auth.PageApp)
				return
			}
			c.setFlash(errorNotice(outcome.Message))
		}
		redirect(w, r, "/"+auth.PageMarketing)
		return
	}

	dark, err := sessions.DarkMode(ctx)
	if err != nil {
		s.serverError(w, r, "read dark mode failed", err)
		return
	}
	page := marketingPage{
		layout: layout{
			Title:    "Flashdeck - AI Flashcards From Your Notes",
			DarkMode: dark,
			Notice:   c.takeFlash(),
			Path:     "/" + auth.PageMarketing,
		},
		Nav:       auth.NavigationFor(ctx, sessions),
		FormsMode: s.forms.Mode(),
	}
	if modal := query.Get("modal"); marketingModals[modal] {
		page.Modal = modal
	}
	if page.Modal == "payment" {
		page.PaymentContext = string(payment.ParseContext(query.Get("context")))
	}
	s.render(w, r, "index.html", page)
}

// handleApp gates the app page behind the auth guard. Nothing of the app is
// rendered until the stored token has been verified.
func (s *Server) handleApp(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessions := s.sessions(r)
	outcome, err := s.guard.Bootstrap(ctx, sessions)
	if err != nil {
		s.serverError(w, r, "auth bootstrap failed", err)
		return
	}
	if outcome.Redirect != "" {
		redirect(w, r, "/"+outcome.Redirect)
		return
	}

	c := s.client(r)
	board := c.board
	notice := board.TakeNotice()
	if notice.IsZero() {
		notice = c.takeFlash()
	}
	dark, err := sessions.DarkMode(ctx)
	if err != nil {
		s.serverError(w, r, "read dark mode failed", err)
		return
	}
	lang := board.Language()
	if lang == "" {
		lang = language.Default
	}

	page := appPage{
		layout: layout{
			Title:    "Flashdeck - Study App",
			DarkMode: dark,
			Notice:   notice,
			Path:     "/" + auth.PageApp,
		},
		User:      outcome.User,
		Notes:     board.Notes(),
		Language:  lang,
		Languages: language.Supported(),
		Cards:     board.Cards(),
		Loading:   board.Loading(),
		Payment:   s.paymentView(sessionID(r)),
	}
	if s.history != nil {
		summaries, err := s.history.List(ctx, sessionID(r), historyPageSize)
		if err != nil {
			logging.WarnWithContext(logging.WithContext(ctx, s.logger), "history list failed", "history_list_failed",
				logging.Error(err),
			)
		}
		page.History = summaries
	}
	s.render(w, r, "ai-app.html", page)
}

func (s *Server) paymentView(owner string) *paymentView {
	task := s.payments.TaskFor(owner)
	if task == nil {
		return nil
	}
	state := task.State()
	view := &paymentView{
		InvoiceID: task.InvoiceID(),
		State:     string(state),
		Attempts:  task.Attempts(),
		Terminal:  state.Terminal(),
	}
	if view.Terminal {
		view.Message = task.Result().Message
	}
	return view
}

func paymentModalPath(ctxTag string) string {
	values := url.Values{}
	values.Set("modal", "payment")
	values.Set("context", ctxTag)
	return "/" + auth.PageMarketing + "?" + values.Encode()
}
