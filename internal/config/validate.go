package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateBackend(); err != nil {
		return err
	}
	if err := c.validateAuth(); err != nil {
		return err
	}
	if err := c.validateExports(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateBackend() error {
	parsed, err := url.Parse(c.Backend.BaseURL)
	if err != nil {
		return fmt.Errorf("backend.base_url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("backend.base_url must use http or https, got %q", c.Backend.BaseURL)
	}
	if parsed.Host == "" {
		return fmt.Errorf("backend.base_url must include a host, got %q", c.Backend.BaseURL)
	}
	if c.Payment.MaxAttempts > 1000 {
		return errors.New("payment.max_attempts must be 1000 or fewer")
	}
	return nil
}

func (c *Config) validateAuth() error {
	switch c.Auth.FormsMode {
	case FormsModeStub, FormsModeRemote:
		return nil
	default:
		return fmt.Errorf("auth.forms_mode must be %q or %q, got %q", FormsModeStub, FormsModeRemote, c.Auth.FormsMode)
	}
}

func (c *Config) validateExports() error {
	if !c.ArchiveEnabled() {
		return nil
	}
	if c.Exports.ArchiveRegion == "" {
		return errors.New("exports.archive_region must be set when exports.archive_bucket is set")
	}
	if c.Exports.ArchiveEndpoint != "" {
		if _, err := url.ParseRequestURI(c.Exports.ArchiveEndpoint); err != nil {
			return fmt.Errorf("exports.archive_endpoint: %w", err)
		}
	}
	if (c.Exports.AccessKeyID == "") != (c.Exports.SecretAccessKey == "") {
		return errors.New("exports.access_key_id and exports.secret_access_key must be set together")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level %q is not recognized", c.Logging.Level)
	}
	return nil
}
