package domain

import "strings"

const (
	RoleStudent    = "student"
	RoleInstructor = "instructor"
	RoleAdmin      = "admin"
)

// ValidRole reports whether r names one of the known roles, ignoring case.
func ValidRole(r string) bool {
	switch NormalizeRole(r) {
	case RoleStudent, RoleInstructor, RoleAdmin:
		return true
	}
	return false
}

// NormalizeRole lowercases and trims a role name for comparison and storage.
func NormalizeRole(r string) string {
	return strings.ToLower(strings.TrimSpace(r))
}
