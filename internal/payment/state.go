package payment

import "strings"

// State is the stage of one checkout attempt.
type State string

const (
	StateIdle              State = "idle"
	StateCreatingIntent    State = "creating-intent"
	StateRedirectedPending State = "redirected-pending"
	StatePolling           State = "polling"
	StateSucceeded         State = "succeeded"
	StateFailed            State = "failed"
	StateTimedOut          State = "timed-out"
	StateCanceled          State = "canceled"
)

// Terminal reports whether no further verification will happen.
func (s State) Terminal() bool {
	switch s {
	case StateSucceeded, StateFailed, StateTimedOut, StateCanceled:
		return true
	default:
		return false
	}
}

// Context names the action that required payment and resumes afterwards.
type Context string

const (
	ContextRegister Context = "register"
	ContextUpgrade  Context = "upgrade"
	ContextGenerate Context = "generate"
)

// ParseContext maps form input to a Context, defaulting to ContextUpgrade.
func ParseContext(input string) Context {
	switch Context(strings.ToLower(strings.TrimSpace(input))) {
	case ContextRegister:
		return ContextRegister
	case ContextGenerate:
		return ContextGenerate
	default:
		return ContextUpgrade
	}
}

// Next tells the caller where to go once a checkout settles.
type Next string

const (
	NextNone        Next = ""
	NextRedirectApp Next = "redirect-app"
	NextResume      Next = "resume"
)

// User-facing messages.
const (
	MsgAuthRequired    = "Authentication required. Please try again."
	MsgCreatingPayment = "Creating payment..."
	MsgSucceeded       = "Payment successful! You now have premium access."
	MsgFailed          = "Payment failed. Please try again."
	MsgTimeout         = "Payment verification timeout. Please contact support if payment was made."
	MsgReturnNetwork   = "Payment verification failed. Please contact support if payment was made."
	MsgLinkFailed      = "Error creating payment link"
	msgSetupFailed     = "Payment setup failed: "
	msgReturnFailed    = "Payment verification failed: "
	msgUnknownError    = "Unknown error"
)

// DefaultTier is applied when a confirmed payment does not name a tier.
const DefaultTier = "premium"
