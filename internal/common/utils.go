package common

import "strings"

// HasAll returns true if s contains every one of the substrings.
func HasAll(s string, subs ...string) bool {
	for _, sub := range subs {
		if !strings.Contains(s, sub) {
			return false
		}
	}
	return true
}

// HasAnyToken returns true if any token equals one of names, ignoring case.
func HasAnyToken(tokens []string, names ...string) bool {
	for _, tok := range tokens {
		for _, name := range names {
			if strings.EqualFold(tok, name) {
				return true
			}
		}
	}
	return false
}
