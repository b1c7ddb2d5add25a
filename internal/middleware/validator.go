package middleware

import (
	"strconv"
	"strings"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// ValidatePage parses a 1-based page number, defaulting to 1.
func ValidatePage(raw string) int {
	page, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || page <= 0 {
		return 1
	}
	return page
}

// ValidatePageSize parses page_size and clamps it to [1, 100], default 20.
func ValidatePageSize(raw string) int {
	size, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || size <= 0 {
		return defaultPageSize
	}
	if size > maxPageSize {
		return maxPageSize
	}
	return size
}

// HasTranscript reports whether s has any non-whitespace content.
// The transcript itself is never rewritten; it is stored as received.
func HasTranscript(s string) bool {
	return strings.TrimSpace(s) != ""
}
