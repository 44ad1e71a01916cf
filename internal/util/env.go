package util

import (
	"log/slog"
	"os"
	"strings"
)

// ParseBoolEnv reads a boolean environment variable, falling back to
// defaultValue when the variable is unset or unparseable. Accepted values are
// true/1/yes/on and false/0/no/off, case-insensitive.
func ParseBoolEnv(key string, defaultValue bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue
	}
	switch strings.ToLower(raw) {
	case "true", "1", "yes", "on":
		return true
	case "false", "0", "no", "off":
		return false
	}
	slog.Warn("ParseBoolEnv: unrecognized value, using default", "key", key, "value", raw, "default", defaultValue)
	return defaultValue
}
