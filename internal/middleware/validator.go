package middleware

import (
	"fmt"
	"net/mail"
	"path/filepath"
	"regexp"
	"strings"
)

// Input validation and sanitization utilities

var legacyRx = regexp.MustCompile(`^report-\d+\.pdf$`)

// ValidateEmail checks a guest email address.
func ValidateEmail(addr string) error {
	if strings.TrimSpace(addr) == "" {
		return fmt.Errorf("email cannot be empty")
	}
	if _, err := mail.ParseAddress(addr); err != nil {
		return fmt.Errorf("invalid email address: %w", err)
	}
	return nil
}

// ValidateStoredPath guards the raw-path report endpoint against
// traversal out of the uploads tree.
func ValidateStoredPath(path string) error {
	if path == "" {
		return fmt.Errorf("path cannot be empty")
	}

	cleaned := filepath.Clean(path)
	if strings.Contains(cleaned, "..") {
		return fmt.Errorf("path traversal detected")
	}

	// Only artifact locations are servable; bare legacy report-{id}.pdf
	// names predate the uploads tree and stay allowed
	trimmed := strings.TrimPrefix(cleaned, "/")
	legacy := legacyRx.MatchString(filepath.Base(trimmed))
	if !legacy && !strings.HasPrefix(trimmed, "uploads/") && !strings.HasPrefix(trimmed, "public/uploads/") {
		return fmt.Errorf("path outside uploads tree")
	}

	dangerous := []string{"$(", "`", "&", "|", ";", "\n", "\r"}
	for _, d := range dangerous {
		if strings.Contains(path, d) {
			return fmt.Errorf("invalid characters in path")
		}
	}
	return nil
}

// ValidateAnswerValue checks the ordinal range the survey widget emits.
func ValidateAnswerValue(v int) error {
	if v < -2 || v > 2 {
		return fmt.Errorf("answer value out of range: %d (allowed: -2..2)", v)
	}
	return nil
}
