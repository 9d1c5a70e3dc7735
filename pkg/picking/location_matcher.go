package picking

import (
	"strings"
)

const (
	MatchPolicySubstring = "substring"
	MatchPolicyExact     = "exact"
)

// LocationMatcher decides whether a scanned shelf label satisfies the expected location.
type LocationMatcher func(expected, scanned string) bool

func NormalizeLocation(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// TargetLocation builds the expected location "<zone>-<slot>".
func TargetLocation(zone, slot string) string {
	return NormalizeLocation(strings.TrimSpace(zone) + "-" + strings.TrimSpace(slot))
}

// SubstringMatch accepts an exact match or any non-empty scan contained in expected.
// Only the scanned value is searched for inside expected, never the reverse, so a
// short label like "Z1" is accepted for both "Z1-12" and "Z1-120".
func SubstringMatch(expected, scanned string) bool {
	e, s := NormalizeLocation(expected), NormalizeLocation(scanned)
	if s == "" {
		return false
	}
	return s == e || strings.Contains(e, s)
}

func ExactMatch(expected, scanned string) bool {
	e, s := NormalizeLocation(expected), NormalizeLocation(scanned)
	return s != "" && s == e
}

// MatcherByName resolves a configured policy name, falling back to SubstringMatch.
func MatcherByName(name string) LocationMatcher {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case MatchPolicyExact:
		return ExactMatch
	default:
		return SubstringMatch
	}
}
