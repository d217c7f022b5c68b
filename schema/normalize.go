package schema

import (
	"strings"
	"unicode"
)

// RequestedWindowName trims a window name taken from a caller. Only blank
// names are invalid; whether the name exists is up to the registry.
func RequestedWindowName(name string) (WindowName, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", ErrInvalidRequest
	}
	return WindowName(trimmed), nil
}

// NormalizeWindowName validates and normalizes a logical window name.
// Allowed characters: letters, digits, '.', '_', '-'.
func NormalizeWindowName(name string) (WindowName, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", ErrInvalidRequest
	}
	for _, r := range trimmed {
		if r == '.' || r == '_' || r == '-' {
			continue
		}
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			continue
		}
		return "", ErrInvalidRequest
	}
	return WindowName(trimmed), nil
}
