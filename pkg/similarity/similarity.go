// Package similarity scores how alike two place names are.
package similarity

import (
	"strings"
	"unicode"

	"github.com/xrash/smetrics"
)

// minPhoneticWordLength skips short words like "st" or "rd" that collide too often
const minPhoneticWordLength = 3

// Jaro returns the Jaro similarity of two strings, compared case-insensitively.
// 1 means identical and 0 means nothing in common.
func Jaro(a, b string) float64 {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == "" || b == "" {
		return 0
	}
	return smetrics.Jaro(a, b)
}

// PhoneticMatch reports whether any word of name sounds like any word of text.
// Words are compared by their Soundex codes.
func PhoneticMatch(name, text string) bool {
	codes := make(map[string]struct{})
	for _, w := range words(text) {
		if len(w) >= minPhoneticWordLength {
			codes[smetrics.Soundex(w)] = struct{}{}
		}
	}
	if len(codes) == 0 {
		return false
	}
	for _, w := range words(name) {
		if len(w) < minPhoneticWordLength {
			continue
		}
		if _, ok := codes[smetrics.Soundex(w)]; ok {
			return true
		}
	}
	return false
}

// words splits s into lower-case ASCII letter runs
func words(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return r < 'a' || r > 'z'
	})
}

// Trigram returns the trigram similarity of two strings the way PostgreSQL's
// pg_trgm similarity() computes it: shared trigrams over all distinct trigrams,
// with every word padded by two leading spaces and one trailing space.
func Trigram(a, b string) float64 {
	ta := trigrams(a)
	tb := trigrams(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}
	shared := 0
	for t := range ta {
		if _, ok := tb[t]; ok {
			shared++
		}
	}
	return float64(shared) / float64(len(ta)+len(tb)-shared)
}

func trigrams(s string) map[string]struct{} {
	set := make(map[string]struct{})
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, word := range fields {
		padded := []rune("  " + word + " ")
		for i := 0; i+3 <= len(padded); i++ {
			set[string(padded[i:i+3])] = struct{}{}
		}
	}
	return set
}
