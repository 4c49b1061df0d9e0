// Package auth gates the flashcard app behind a verified session and handles
// the marketing page's login and registration forms.
//
// The guard fails closed: anything short of a positive token verification
// clears the stored token and user and sends the browser back to the
// marketing page. Forms run in "stub" mode, which only acknowledges
// submissions, or "remote" mode, which signs in against the backend.
package auth
