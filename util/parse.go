package util

import (
	"fmt"
	"strings"
)

// ParseSize parses a human-readable size string (e.g. "10MB", "512KB", "2GB")
// into bytes. Returns defaultBytes if the string cannot be parsed.
func ParseSize(s string, defaultBytes int64) int64 {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return defaultBytes
	}

	var multiplier int64 = 1
	switch {
	case strings.HasSuffix(s, "GB"):
		multiplier = 1024 * 1024 * 1024
		s = s[:len(s)-2]
	case strings.HasSuffix(s, "MB"):
		multiplier = 1024 * 1024
		s = s[:len(s)-2]
	case strings.HasSuffix(s, "KB"):
		multiplier = 1024
		s = s[:len(s)-2]
	}

	var val int64
	if _, err := fmt.Sscanf(s, "%d", &val); err == nil {
		return val * multiplier
	}
	return defaultBytes
}

// ParseDelimiter interprets a delimiter option string as a single separator
// byte. Accepts a literal single character, the names "tab" and "comma",
// or the escape "\t". Returns fallback when s is empty.
func ParseDelimiter(s string, fallback byte) (byte, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return fallback, nil
	case "tab", `\t`:
		return '\t', nil
	case "comma":
		return ',', nil
	}
	trimmed := strings.TrimSpace(s)
	if len(trimmed) != 1 {
		return 0, fmt.Errorf("delimiter must be a single character, got %q", s)
	}
	return trimmed[0], nil
}
