package jira

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// nameSeparators splits a display name into comparable tokens.
var nameSeparators = regexp.MustCompile(`[\s\-._,;:/\\]+`)

// nameTokens returns the non-blank tokens of a display name.
func nameTokens(displayName string) []string {
	parts := nameSeparators.Split(displayName, -1)
	tokens := parts[:0]
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			tokens = append(tokens, p)
		}
	}
	return tokens
}

// matchesName reports whether wanted names the person with displayName.
//
// wanted must equal one whole token of the display name, or the whole
// trimmed display name, ignoring case. Substrings never match: "John"
// does not match "Johnson".
func matchesName(displayName, wanted string) bool {
	if strings.TrimSpace(displayName) == "" {
		return false
	}
	w := norm.NFC.String(strings.TrimSpace(wanted))
	if equalFold(displayName, w) {
		return true
	}
	for _, token := range nameTokens(displayName) {
		if equalFold(token, w) {
			return true
		}
	}
	return false
}

func equalFold(a, b string) bool {
	return strings.EqualFold(norm.NFC.String(strings.TrimSpace(a)), b)
}
