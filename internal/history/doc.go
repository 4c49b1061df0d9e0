// Package history keeps every successfully generated deck in a local SQLite
// database so users can reload or export earlier sessions. Demo decks shown
// after a failed generation are never stored.
package history
