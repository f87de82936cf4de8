package identity

import (
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// DefaultThreshold is the minimum similarity ratio for a fuzzy match.
const DefaultThreshold = 0.8

// match strength, strongest last
const (
	noMatch = iota
	similar
	substring
	contains
	exact
)

// Match finds the candidate that best matches name. Both name and the
// candidates are expected to be normalized already. An exact match beats a
// whole-word containment match in either direction, which beats a plain
// substring match in either direction, which beats an edit similarity ratio
// of at least threshold. Ties keep the earliest candidate.
func Match(name string, candidates []string, threshold float64) (int, bool) {
	if name == "" {
		return -1, false
	}
	best, bestKind, bestScore := -1, noMatch, 0.0
	for i, c := range candidates {
		if c == "" {
			continue
		}
		kind, score := compare(name, c, threshold)
		if kind > bestKind || (kind == bestKind && kind != noMatch && score > bestScore) {
			best, bestKind, bestScore = i, kind, score
			if kind == exact {
				break
			}
		}
	}
	return best, bestKind != noMatch
}

func compare(a, b string, threshold float64) (int, float64) {
	if a == b {
		return exact, 1
	}
	ratio := Similarity(a, b)
	if containsWords(a, b) || containsWords(b, a) {
		return contains, ratio
	}
	if strings.Contains(a, b) || strings.Contains(b, a) {
		return substring, ratio
	}
	if ratio >= threshold {
		return similar, ratio
	}
	return noMatch, 0
}

// Similarity returns 1 - distance/maxlen over runes, in [0, 1].
func Similarity(a, b string) float64 {
	la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	longest := max(la, lb)
	if longest == 0 {
		return 1
	}
	return 1 - float64(levenshtein.ComputeDistance(a, b))/float64(longest)
}

// containsWords reports whether needle occurs in hay on word boundaries,
// so "salt" is found in "sea salt" but not in "salted butter".
func containsWords(hay, needle string) bool {
	for i := 0; i+len(needle) <= len(hay); {
		j := strings.Index(hay[i:], needle)
		if j < 0 {
			return false
		}
		start := i + j
		end := start + len(needle)
		if (start == 0 || hay[start-1] == ' ') && (end == len(hay) || hay[end] == ' ') {
			return true
		}
		i = start + 1
	}
	return false
}
