package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"flashdeck/internal/daemon"
	"flashdeck/internal/preflight"
	"flashdeck/internal/session"
)

type statusReport struct {
	ConfigPath   string             `json:"config_path"`
	ConfigExists bool               `json:"config_exists"`
	Server       serverStatus       `json:"server"`
	Session      sessionStatus      `json:"session"`
	Checks       []preflight.Result `json:"checks"`
	Optional     []preflight.Result `json:"optional"`
}

type serverStatus struct {
	Running bool   `json:"running"`
	Bind    string `json:"bind"`
}

type sessionStatus struct {
	SignedIn  bool       `json:"signed_in"`
	User      string     `json:"user,omitempty"`
	Tier      string     `json:"tier,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	Expired   bool       `json:"expired,omitempty"`
	Pending   bool       `json:"pending_registration,omitempty"`
	DarkMode  bool       `json:"dark_mode"`
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show configuration, backend, and session status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			runCtx := runContext(cmd)

			report := statusReport{
				ConfigPath:   ctx.configPath,
				ConfigExists: ctx.configExists,
				Server:       serverStatus{Bind: cfg.Paths.Bind},
				Checks:       preflight.RunAll(runCtx, cfg),
				Optional: []preflight.Result{
					preflight.CheckNotificationsFromConfig(cfg),
					preflight.CheckArchiveFromConfig(cfg),
				},
			}
			locked, err := daemon.Locked(cfg)
			if err != nil {
				return fmt.Errorf("check server lock: %w", err)
			}
			report.Server.Running = locked

			sessions, err := ctx.sessions()
			if err != nil {
				return err
			}
			report.Session, err = describeSession(cmd, sessions)
			if err != nil {
				return err
			}

			if jsonOutput {
				return writeJSON(cmd, report)
			}
			printStatus(cmd, report)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output status as JSON")
	return cmd
}

func describeSession(cmd *cobra.Command, sessions *session.Manager) (sessionStatus, error) {
	runCtx := runContext(cmd)
	state, err := sessions.State(runCtx)
	if err != nil {
		return sessionStatus{}, err
	}
	status := sessionStatus{SignedIn: state.Authenticated(), DarkMode: state.DarkMode}
	if state.User != nil {
		status.User = describeUser(state.User)
		status.Tier = state.User.Tier
	}
	if expiry, ok := session.TokenExpiry(state.Token); ok {
		status.ExpiresAt = &expiry
		status.Expired = session.TokenExpired(state.Token, time.Now())
	}
	pending, err := sessions.Pending(runCtx)
	if err != nil {
		return sessionStatus{}, err
	}
	status.Pending = pending != nil
	return status, nil
}

func printStatus(cmd *cobra.Command, report statusReport) {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)
	var lines []string

	lines = append(lines, renderSectionHeader("Flashdeck", colorize)...)
	configDetail := report.ConfigPath
	if !report.ConfigExists {
		configDetail += " (defaults)"
	}
	lines = append(lines, renderStatusLine("Config", statusInfo, configDetail, colorize))
	if report.Server.Running {
		lines = append(lines, renderStatusLine("Web server", statusOK, "Running on "+report.Server.Bind, colorize))
	} else {
		lines = append(lines, renderStatusLine("Web server", statusInfo, "Not running", colorize))
	}

	lines = append(lines, "")
	lines = append(lines, renderSectionHeader("Checks", colorize)...)
	for _, result := range report.Checks {
		lines = append(lines, renderCheck(result, false, colorize))
	}
	for _, result := range report.Optional {
		lines = append(lines, renderCheck(result, true, colorize))
	}

	lines = append(lines, "")
	lines = append(lines, renderSectionHeader("Session", colorize)...)
	lines = append(lines, sessionLines(report.Session, colorize)...)

	fmt.Fprintln(out, strings.Join(lines, "\n"))
}

func sessionLines(s sessionStatus, colorize bool) []string {
	var lines []string
	switch {
	case s.SignedIn && s.Expired:
		lines = append(lines, renderStatusLine("Signed in", statusWarn, s.User+", token expired", colorize))
	case s.SignedIn:
		lines = append(lines, renderStatusLine("Signed in", statusOK, s.User, colorize))
	default:
		lines = append(lines, renderStatusLine("Signed in", statusInfo, "no", colorize))
	}
	if s.ExpiresAt != nil {
		lines = append(lines, renderStatusLine("Token expires", statusInfo, s.ExpiresAt.Local().Format(time.RFC1123), colorize))
	}
	if s.Pending {
		lines = append(lines, renderStatusLine("Registration", statusWarn, "awaiting checkout (run flashdeck upgrade --context register)", colorize))
	}
	lines = append(lines, renderStatusLine("Dark mode", statusInfo, yesNo(s.DarkMode), colorize))
	return lines
}
