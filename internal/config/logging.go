package config

import (
	"fmt"
	"log/slog"
	"strings"
)

// LevelTrace sits below [slog.LevelDebug] and is reserved for raw wire
// payloads: full IMAP fetch responses, LLM request/response JSON,
// Telegram API envelopes. The value -8 keeps the same spacing slog uses
// between its built-in levels.
//
// Trace output can include complete email bodies, so leave it off
// outside of short debugging sessions.
const LevelTrace = slog.Level(-8)

// ParseLogLevel maps the log_level config value to an [slog.Level].
// Recognized values are trace, debug, info (or empty), warn/warning,
// and error; matching is case-insensitive and ignores surrounding
// whitespace.
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "trace":
		return LevelTrace, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q (valid: trace, debug, info, warn, error)", s)
	}
}

// ReplaceLogLevelNames is an [slog.HandlerOptions.ReplaceAttr] function
// that labels [LevelTrace] records as "TRACE". slog only knows its four
// built-in level names and would otherwise print "DEBUG-4".
func ReplaceLogLevelNames(groups []string, a slog.Attr) slog.Attr {
	if a.Key == slog.LevelKey {
		level, ok := a.Value.Any().(slog.Level)
		if ok && level == LevelTrace {
			a.Value = slog.StringValue("TRACE")
		}
	}
	return a
}
