// Package notifications delivers operator-facing events via ntfy.
//
// The default implementation publishes to the topic configured in config.toml
// and degrades to a no-op when notifications are disabled. Payment outcomes
// matter most: a verification timeout means a customer may have been charged
// without being upgraded, so support gets a high-priority message naming the
// invoice.
package notifications
