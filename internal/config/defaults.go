package config

const (
	defaultConfigPath            = "~/.config/flashdeck/config.toml"
	defaultDataDir               = "~/.local/share/flashdeck"
	defaultExportDir             = "~/.local/share/flashdeck/exports"
	defaultLogDir                = "~/.local/share/flashdeck/logs"
	defaultBind                  = "127.0.0.1:8080"
	defaultBackendBaseURL        = "http://localhost:5000"
	defaultBackendTimeoutSeconds = 30
	defaultBackendRetryAttempts  = 3
	defaultBackendSessionCookie  = "session"
	defaultPollIntervalSeconds   = 6
	defaultPollMaxAttempts       = 30
	defaultFormsMode             = FormsModeStub
	defaultSessionTTLHours       = 24 * 14
	defaultArchivePrefix         = "exports"
	defaultNotifyRequestTimeout  = 10
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
)

// Form modes accepted by auth.forms_mode.
const (
	FormsModeStub   = "stub"
	FormsModeRemote = "remote"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:   defaultDataDir,
			ExportDir: defaultExportDir,
			LogDir:    defaultLogDir,
			Bind:      defaultBind,
		},
		Backend: Backend{
			BaseURL:          defaultBackendBaseURL,
			TimeoutSeconds:   defaultBackendTimeoutSeconds,
			RetryMaxAttempts: defaultBackendRetryAttempts,
			SessionCookie:    defaultBackendSessionCookie,
		},
		Payment: Payment{
			PollIntervalSeconds: defaultPollIntervalSeconds,
			MaxAttempts:         defaultPollMaxAttempts,
		},
		Auth: Auth{
			FormsMode:       defaultFormsMode,
			SessionTTLHours: defaultSessionTTLHours,
		},
		Exports: Exports{
			ArchivePrefix: defaultArchivePrefix,
		},
		Notifications: Notifications{
			RequestTimeout:   defaultNotifyRequestTimeout,
			Payments:         true,
			GenerationErrors: true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
