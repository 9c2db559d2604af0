// Package database provides database helper functions
package database

import (
	"strings"
	"time"
)

// IsUniqueViolation reports whether an error is a unique-constraint failure.
// Both sqlite3 and libsql surface the constraint name in the error text.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// FormatTime renders a timestamp the way all Magnetiq tables store it.
func FormatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// ParseTime parses a stored timestamp, accepting the RFC3339 form written by
// this service and the space-separated form sqlite emits for defaults.
func ParseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", s)
}
