package logs

import (
	"encoding/json"
	"strings"

	"flashdeck/internal/logging"
)

// Filter selects log lines. Zero values match everything.
type Filter struct {
	Component string
	// MinLevel is one of debug, info, warn, error.
	MinLevel string
}

var levelRank = map[string]int{"debug": 0, "info": 1, "warn": 2, "error": 3}

// Match reports whether line passes the filter. Lines are parsed as JSON when
// they look like JSON and as console output otherwise.
func (f Filter) Match(line string) bool {
	if f.Component == "" && f.MinLevel == "" {
		return true
	}
	component, level := parseLine(line)
	if f.Component != "" && !strings.EqualFold(component, f.Component) {
		return false
	}
	if min, ok := levelRank[normalizeLevel(f.MinLevel)]; ok {
		rank, known := levelRank[level]
		if !known || rank < min {
			return false
		}
	}
	return true
}

func parseLine(line string) (component, level string) {
	trimmed := strings.TrimSpace(line)
	if strings.HasPrefix(trimmed, "{") {
		var payload map[string]any
		if json.Unmarshal([]byte(trimmed), &payload) == nil {
			component, _ = payload[logging.FieldComponent].(string)
			lvl, _ := payload["level"].(string)
			return component, normalizeLevel(lvl)
		}
	}

	// Console lines: "<time> LEVEL [component] message key=value..."
	for _, field := range strings.Fields(trimmed) {
		if level == "" {
			if _, ok := levelRank[normalizeLevel(field)]; ok {
				level = normalizeLevel(field)
				continue
			}
		}
		if strings.HasPrefix(field, "[") && strings.HasSuffix(field, "]") && len(field) > 2 {
			component = field[1 : len(field)-1]
			break
		}
	}
	return component, level
}

func normalizeLevel(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "debug", "dbg":
		return "debug"
	case "info", "inf":
		return "info"
	case "warn", "warning", "wrn":
		return "warn"
	case "error", "err":
		return "error"
	default:
		return ""
	}
}
