// Package services defines shared utilities consumed by the controllers and
// the backend integration.
//
// Key responsibilities:
//   - Context helpers that stamp session IDs, invoice IDs, and correlation
//     identifiers for logging and tracing.
//   - Structured error markers plus the Wrap helper so callers can tell an
//     expired session apart from a transient backend failure.
//
// Use these helpers when wiring new request paths so operational behaviour
// (error handling, observability, retries) stays uniform across the app.
package services
