package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeBackend()
	c.normalizePayment()
	c.normalizeAuth()
	c.normalizeExports()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.ExportDir) == "" {
		c.Paths.ExportDir = defaultExportDir
	}
	if c.Paths.ExportDir, err = expandPath(c.Paths.ExportDir); err != nil {
		return fmt.Errorf("paths.export_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.Bind = strings.TrimSpace(c.Paths.Bind)
	if c.Paths.Bind == "" {
		c.Paths.Bind = defaultBind
	}
	return nil
}

func (c *Config) normalizeBackend() {
	if value, ok := os.LookupEnv("FLASHDECK_BACKEND_URL"); ok && strings.TrimSpace(value) != "" {
		c.Backend.BaseURL = value
	}
	c.Backend.BaseURL = strings.TrimRight(strings.TrimSpace(c.Backend.BaseURL), "/")
	if c.Backend.BaseURL == "" {
		c.Backend.BaseURL = defaultBackendBaseURL
	}
	if c.Backend.TimeoutSeconds <= 0 {
		c.Backend.TimeoutSeconds = defaultBackendTimeoutSeconds
	}
	if c.Backend.RetryMaxAttempts <= 0 {
		c.Backend.RetryMaxAttempts = defaultBackendRetryAttempts
	}
	c.Backend.SessionCookie = strings.TrimSpace(c.Backend.SessionCookie)
	if c.Backend.SessionCookie == "" {
		c.Backend.SessionCookie = defaultBackendSessionCookie
	}
}

func (c *Config) normalizePayment() {
	if c.Payment.PollIntervalSeconds <= 0 {
		c.Payment.PollIntervalSeconds = defaultPollIntervalSeconds
	}
	if c.Payment.MaxAttempts <= 0 {
		c.Payment.MaxAttempts = defaultPollMaxAttempts
	}
}

func (c *Config) normalizeAuth() {
	c.Auth.FormsMode = strings.ToLower(strings.TrimSpace(c.Auth.FormsMode))
	if c.Auth.FormsMode == "" {
		c.Auth.FormsMode = defaultFormsMode
	}
	if c.Auth.SessionTTLHours <= 0 {
		c.Auth.SessionTTLHours = defaultSessionTTLHours
	}
}

func (c *Config) normalizeExports() {
	c.Exports.ArchiveBucket = strings.TrimSpace(c.Exports.ArchiveBucket)
	c.Exports.ArchiveRegion = strings.TrimSpace(c.Exports.ArchiveRegion)
	c.Exports.ArchiveEndpoint = strings.TrimSpace(c.Exports.ArchiveEndpoint)
	c.Exports.ArchivePrefix = strings.Trim(strings.TrimSpace(c.Exports.ArchivePrefix), "/")
	if c.Exports.AccessKeyID == "" {
		if value, ok := os.LookupEnv("AWS_ACCESS_KEY_ID"); ok {
			c.Exports.AccessKeyID = value
		}
	}
	if c.Exports.SecretAccessKey == "" {
		if value, ok := os.LookupEnv("AWS_SECRET_ACCESS_KEY"); ok {
			c.Exports.SecretAccessKey = value
		}
	}
	c.Exports.AccessKeyID = strings.TrimSpace(c.Exports.AccessKeyID)
	c.Exports.SecretAccessKey = strings.TrimSpace(c.Exports.SecretAccessKey)
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyRequestTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
