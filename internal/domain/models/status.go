// internal/domain/models/status.go
package models

import "strings"

// UserStatus is the soft on/off switch for an account. Users are never
// hard-deleted.
type UserStatus string

const (
	StatusActive   UserStatus = "Active"
	StatusInactive UserStatus = "Inactive"
)

// ParseStatus returns the status matching s (case-insensitive) and whether
// it was recognized.
func ParseStatus(s string) (UserStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "active":
		return StatusActive, true
	case "inactive":
		return StatusInactive, true
	default:
		return "", false
	}
}
