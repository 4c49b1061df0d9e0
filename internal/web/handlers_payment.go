package web

import (
	"net/http"

	"flashdeck/internal/auth"
	"flashdeck/internal/payment"
)

// handlePaymentIntent creates a checkout, starts confirmation polling, and
// sends the browser to the payment page.
func (s *Server) handlePaymentIntent(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	ctx := r.Context()
	c := s.client(r)
	tag := payment.ParseContext(r.PostFormValue("context"))

	checkout, err := s.payments.Begin(ctx, s.sessions(r), tag)
	if err != nil {
		c.setFlash(errorNotice(payment.SetupFailureMessage(err)))
		redirect(w, r, returnPath(r, paymentModalPath(string(tag))))
		return
	}

	s.payments.Watch(s.baseCtx, checkout, func(res payment.Result) {
		switch res.State {
		case payment.StateSucceeded:
			if res.Message != "" {
				c.setFlash(successNotice(res.Message))
			}
		case payment.StateFailed, payment.StateTimedOut:
			c.setFlash(errorNotice(res.Message))
		}
	})
	http.Redirect(w, r, checkout.PaymentURL, http.StatusSeeOther)
}

type paymentStatusResponse struct {
	State     string `json:"state"`
	InvoiceID string `json:"invoice_id,omitempty"`
	Attempts  int    `json:"attempts"`
	Terminal  bool   `json:"terminal"`
	Message   string `json:"message,omitempty"`
	Redirect  string `json:"redirect,omitempty"`
}

// handlePaymentStatus reports the browser's latest checkout task for the
// pending page's poll.
func (s *Server) handlePaymentStatus(w http.ResponseWriter, r *http.Request) {
	task := s.payments.TaskFor(sessionID(r))
	if task == nil {
		s.writeJSON(w, http.StatusOK, paymentStatusResponse{State: string(payment.StateIdle)})
		return
	}
	state := task.State()
	resp := paymentStatusResponse{
		State:     string(state),
		InvoiceID: task.InvoiceID(),
		Attempts:  task.Attempts(),
		Terminal:  state.Terminal(),
	}
	if resp.Terminal {
		res := task.Result()
		resp.Message = res.Message
		if res.Next == payment.NextRedirectApp {
			resp.Redirect = "/" + auth.PageApp
		}
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// handlePaymentLink forwards the backend cookie to create-payment-link and
// redirects to the hosted page.
func (s *Server) handlePaymentLink(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	var cookies []*http.Cookie
	if s.backendCookie != "" {
		if cookie, err := r.Cookie(s.backendCookie); err == nil {
			cookies = append(cookies, cookie)
		}
	}
	link, err := s.payments.UpgradeLink(r.Context(), cookies...)
	if err != nil {
		s.client(r).setFlash(errorNotice(payment.LinkFailureMessage(err)))
		redirect(w, r, returnPath(r, "/"+auth.PageMarketing))
		return
	}
	http.Redirect(w, r, link, http.StatusSeeOther)
}
