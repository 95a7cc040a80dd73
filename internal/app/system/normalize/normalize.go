// Package normalize canonicalizes user-entered strings before they are
// stored or compared.
package normalize

import "strings"

// Email trims and lowercases an email address.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims a display value (username, organization) and collapses
// internal runs of whitespace. Case is preserved.
func Name(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Role lowercases a role; anything unrecognized becomes "user".
func Role(s string) string {
	switch r := strings.ToLower(strings.TrimSpace(s)); r {
	case "admin":
		return r
	default:
		return "user"
	}
}
