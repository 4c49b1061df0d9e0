// Package config loads, normalizes, and validates Flashdeck configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// FLASHDECK_BACKEND_URL and the AWS credential variables. The Config type
// centralizes every knob the web server and CLI need: where the backend lives,
// how often checkout confirmation is polled, and where sessions and history
// are stored.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
