package engine

import (
	"strings"
)

// MatchSecretInput maps free text typed into a scene onto a hidden easter egg.
// Returns (egg, matched).
// Matching is case-insensitive and ignores surrounding whitespace and punctuation.
func MatchSecretInput(input string) (EasterEgg, bool) {
	in := strings.ToLower(strings.TrimSpace(input))
	in = strings.Trim(in, ".!?\"'")
	if in == "" {
		return "", false
	}
	switch {
	case in == "2319":
		return EggSecretCode, true
	case in == "there is no spoon", hasAny(in, "no spoon") && strings.HasPrefix(in, "there"):
		return EggNoSpoon, true
	}
	return "", false
}

func hasAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
