// Package backend is the HTTP client for the remote flashcard service: card
// generation, token verification, sign-in, and the checkout endpoints.
//
// Idempotent reads (verify-token, verify-payment) retry transient failures with
// exponential backoff. Calls with side effects are issued once. Non-2xx
// responses surface as *StatusError carrying the server's error message; a 401
// additionally matches services.ErrUnauthorized so callers can clear the
// session.
package backend
