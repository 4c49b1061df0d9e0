package logging

import (
	"log/slog"
	"strings"
)

const redacted = "[redacted]"

// sensitiveKeys never reach a log sink with their value intact.
var sensitiveKeys = map[string]struct{}{
	"password":         {},
	"confirm_password": {},
	"token":            {},
	"auth_token":       {},
	"authorization":    {},
	"cookie":           {},
	"secret":           {},
}

func isSensitiveKey(key string) bool {
	if i := strings.LastIndexByte(key, '.'); i >= 0 {
		key = key[i+1:]
	}
	_, ok := sensitiveKeys[strings.ToLower(key)]
	return ok
}

func redactAttr(attr slog.Attr) slog.Attr {
	if isSensitiveKey(attr.Key) && attr.Value.Kind() != slog.KindGroup {
		return slog.String(attr.Key, redacted)
	}
	return attr
}
