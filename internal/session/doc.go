// Package session holds the per-user client state: auth token, user record,
// dark mode preference, and any registration staged while checkout is pending.
//
// Values live behind the Store interface. The CLI uses FileStore (a JSON file
// guarded by flock), the web server uses one SQLiteStore namespace per browser
// cookie, and tests use MemoryStore. Manager is the typed view over a Store and
// the single authority on whether a session is authenticated; callers never
// inspect raw keys themselves.
package session
