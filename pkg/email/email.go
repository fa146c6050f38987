package email

import (
	"strings"
	"unicode"
)

// DeriveNameFromEmail splits the local part of an address into a first and last
// name guess. Missing parts default to "User".
func DeriveNameFromEmail(email string) (string, string) {
	localPart := email
	if at := strings.IndexByte(email, '@'); at > 0 {
		localPart = email[:at]
	}

	parts := strings.FieldsFunc(localPart, func(r rune) bool {
		return r == '.' || r == '_' || r == '-' || r == '+'
	})

	if len(parts) == 0 {
		return "User", "User"
	}

	first := capitalize(parts[0])
	last := "User"
	if len(parts) > 1 {
		last = capitalize(parts[len(parts)-1])
	}

	return first, last
}

func capitalize(s string) string {
	if s == "" {
		return s
	}

	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

// DisplayName renders the greeting name for an address, e.g.
// "jane.doe@example.com" becomes "Jane Doe". Addresses with a single local
// part token yield just that token.
func DisplayName(email string) string {
	first, last := DeriveNameFromEmail(email)
	if first == "User" {
		return "User"
	}
	localPart := email
	if at := strings.IndexByte(email, '@'); at > 0 {
		localPart = email[:at]
	}
	if !strings.ContainsAny(localPart, "._-+") {
		return first
	}
	return first + " " + last
}
