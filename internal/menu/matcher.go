// Package menu reconciles free-text order lines against a cached menu
// snapshot using exact then fuzzy matching.
package menu

import (
	"strings"

	"github.com/thebtf/blink/pkg/models"
)

// DefaultThreshold is the minimum similarity ratio for a fuzzy match.
const DefaultThreshold = 0.7

// MatchResult holds matched entries and unmatched raw lines, each
// preserving the relative order of the input.
type MatchResult struct {
	Matched   []models.MenuEntry
	Unmatched []string
}

// Matcher reconciles order lines against menu entries.
type Matcher struct {
	threshold float64
}

// NewMatcher creates a Matcher; a non-positive threshold falls back to
// DefaultThreshold.
func NewMatcher(threshold float64) *Matcher {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Matcher{threshold: threshold}
}

// Match reconciles lines against entries.
//
// With an empty menu every non-blank line is unmatched: the caller asks
// the user again rather than guessing. Otherwise each trimmed line is
// matched exactly (case-insensitive) first; only when that misses is the
// similarity ratio computed against every candidate, keeping the first
// maximum so ties resolve deterministically by menu order.
func (m *Matcher) Match(lines []string, entries []models.MenuEntry) MatchResult {
	var res MatchResult

	if len(entries) == 0 {
		for _, raw := range lines {
			if trimmed := strings.TrimSpace(raw); trimmed != "" {
				res.Unmatched = append(res.Unmatched, trimmed)
			}
		}
		return res
	}

	byName := make(map[string]models.MenuEntry, len(entries))
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := strings.ToLower(strings.TrimSpace(entry.Name))
		if name == "" {
			continue
		}
		if _, exists := byName[name]; !exists {
			byName[name] = entry
			names = append(names, name)
		}
	}

	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		lower := strings.ToLower(line)

		if entry, ok := byName[lower]; ok {
			res.Matched = append(res.Matched, entry)
			continue
		}

		bestName := ""
		bestRatio := 0.0
		for _, name := range names {
			if r := Ratio(lower, name); r > bestRatio {
				bestRatio = r
				bestName = name
			}
		}
		if bestName != "" && bestRatio >= m.threshold {
			res.Matched = append(res.Matched, byName[bestName])
		} else {
			res.Unmatched = append(res.Unmatched, line)
		}
	}

	return res
}

// Ratio is a character-overlap similarity in [0,1]: twice the total
// length of the matching blocks divided by the combined length of both
// strings. Identical strings score 1, disjoint strings score 0.
func Ratio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 1
	}
	return 2 * float64(matchingRunes(ra, rb)) / float64(total)
}

// matchingRunes sums the sizes of the non-overlapping matching blocks:
// the longest common block first, then recursively the pieces to its left
// and right, mirroring how a human would line the two strings up.
func matchingRunes(a, b []rune) int {
	ai, bi, size := longestBlock(a, b)
	if size == 0 {
		return 0
	}
	return size +
		matchingRunes(a[:ai], b[:bi]) +
		matchingRunes(a[ai+size:], b[bi+size:])
}

// longestBlock finds the longest common contiguous block of a and b,
// returning its start in each and its size. Earlier blocks win ties so
// the result is stable.
func longestBlock(a, b []rune) (ai, bi, size int) {
	lengths := make([]int, len(b)+1)
	for i := 0; i < len(a); i++ {
		next := make([]int, len(b)+1)
		for j := 0; j < len(b); j++ {
			if a[i] != b[j] {
				continue
			}
			k := lengths[j] + 1
			next[j+1] = k
			if k > size {
				size = k
				ai = i - k + 1
				bi = j - k + 1
			}
		}
		lengths = next
	}
	return ai, bi, size
}
