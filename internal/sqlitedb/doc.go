// Package sqlitedb opens the SQLite databases Flashdeck keeps under its data
// directory (deck history and browser sessions).
//
// It applies WAL and busy-timeout pragmas, creates the embedded schema on first
// use, refuses to run against a database written by a different schema
// version, and offers a busy-retry wrapper for writes that race with another
// process.
package sqlitedb
