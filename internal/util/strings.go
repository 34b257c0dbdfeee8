// Package util provides the pure formatting helpers shared by every front end.
package util

import "fmt"

// Ellipsis is appended to strings cut by Shorten.
const Ellipsis = "..."

// Shorten limits s to max characters. Strings that fit are returned unchanged;
// longer ones are cut and end with "...", keeping the result exactly max long.
// Length is counted in runes so multi-byte CPU brand strings are never split.
func Shorten(s string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= len(Ellipsis) {
		return string(runes[:max])
	}
	return string(runes[:max-len(Ellipsis)]) + Ellipsis
}

// Pluralize returns singular if count is 1, otherwise plural.
func Pluralize(count int, singular, plural string) string {
	if count == 1 {
		return singular
	}
	return plural
}

// CountNoun renders "1 node" / "3 nodes".
func CountNoun(count int, singular, plural string) string {
	return fmt.Sprintf("%d %s", count, Pluralize(count, singular, plural))
}
