package textutil

import (
	"strings"
	"unicode"
)

// CapitalTokens extracts the tokens of s that begin with an uppercase
// letter and are at least two runes long. Used as a cheap proxy for person
// names when deciding whether two titles could refer to the same people.
func CapitalTokens(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	tokens := make([]string, 0, len(fields))
	for _, field := range fields {
		runes := []rune(field)
		if len(runes) < 2 {
			continue
		}
		if unicode.IsUpper(runes[0]) {
			tokens = append(tokens, field)
		}
	}
	return tokens
}

// ShareToken reports whether the two token lists have at least one entry
// in common, compared case-insensitively.
func ShareToken(a, b []string) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	seen := make(map[string]struct{}, len(a))
	for _, token := range a {
		seen[strings.ToLower(token)] = struct{}{}
	}
	for _, token := range b {
		if _, ok := seen[strings.ToLower(token)]; ok {
			return true
		}
	}
	return false
}
