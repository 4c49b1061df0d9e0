// Package daemon coordinates the long-running "flashdeck serve" process.
//
// It opens the history and session databases, wires the backend client into
// the flashcard controller, auth guard, and payment flow, and runs the web
// server under a flock-based lock so only one instance serves a data
// directory. On shutdown it drains requests, cancels outstanding checkout
// polling, and releases the lock. A background loop prunes idle browser
// sessions after auth.session_ttl_hours.
//
// Keep orchestration here: request handling belongs to internal/web and
// domain behavior to the packages it calls.
package daemon
