package db

import "strings"

// IsUniqueViolation reports whether err looks like a Postgres unique
// constraint violation. With a constraint name the check narrows to that
// constraint; without one any duplicate-key error matches.
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	if constraintName != "" {
		return strings.Contains(msg, constraintName)
	}
	return strings.Contains(msg, "duplicate key value")
}
