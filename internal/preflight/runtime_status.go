package preflight

import (
	"fmt"
	"strings"

	"flashdeck/internal/config"
)

// CheckNotificationsFromConfig summarizes notification settings for status output.
func CheckNotificationsFromConfig(cfg *config.Config) Result {
	const name = "Notifications"

	if cfg == nil {
		return Result{Name: name, Detail: "Unknown"}
	}
	if strings.TrimSpace(cfg.Notifications.NtfyTopic) == "" {
		return Result{Name: name, Passed: true, Detail: "Disabled"}
	}
	var events []string
	if cfg.Notifications.Payments {
		events = append(events, "payments")
	}
	if cfg.Notifications.GenerationErrors {
		events = append(events, "generation errors")
	}
	if len(events) == 0 {
		return Result{Name: name, Passed: true, Detail: "Topic set, all events muted"}
	}
	return Result{Name: name, Passed: true, Detail: "ntfy: " + strings.Join(events, ", ")}
}

// CheckArchiveFromConfig summarizes the export archive settings.
func CheckArchiveFromConfig(cfg *config.Config) Result {
	const name = "Export archive"

	if cfg == nil {
		return Result{Name: name, Detail: "Unknown"}
	}
	if !cfg.ArchiveEnabled() {
		return Result{Name: name, Passed: true, Detail: "Disabled"}
	}
	if cfg.Exports.ArchiveRegion == "" {
		return Result{Name: name, Detail: "Missing region"}
	}
	target := "s3://" + cfg.Exports.ArchiveBucket
	if cfg.Exports.ArchivePrefix != "" {
		target += "/" + cfg.Exports.ArchivePrefix
	}
	if cfg.Exports.ArchiveEndpoint != "" {
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s via %s", target, cfg.Exports.ArchiveEndpoint)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%s)", target, cfg.Exports.ArchiveRegion)}
}
