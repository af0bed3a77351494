package menu

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/thebtf/blink/pkg/models"
)

func TestRatio(t *testing.T) {
	tests := []struct {
		name     string
		a        string
		b        string
		expected float64
	}{
		{
			name:     "identical strings",
			a:        "cheeseburger",
			b:        "cheeseburger",
			expected: 1.0,
		},
		{
			name:     "both empty",
			a:        "",
			b:        "",
			expected: 1.0,
		},
		{
			name:     "disjoint strings",
			a:        "abc",
			b:        "xyz",
			expected: 0.0,
		},
		{
			name:     "spaced variant",
			a:        "cheese burger",
			b:        "cheeseburger",
			expected: 0.96, // 2*12 / (13+12)
		},
		{
			name:     "half overlap",
			a:        "abcdefxyzw",
			b:        "abcdefghij",
			expected: 0.6, // 2*6 / 20
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, Ratio(tt.a, tt.b), 0.001)
		})
	}
}

func TestRatioSymmetricRange(t *testing.T) {
	pairs := [][2]string{
		{"fries", "french fries"},
		{"cola", "cheeseburger"},
		{"", "menu"},
	}
	for _, p := range pairs {
		r1 := Ratio(p[0], p[1])
		r2 := Ratio(p[1], p[0])
		assert.Equal(t, r1, r2)
		assert.GreaterOrEqual(t, r1, 0.0)
		assert.LessOrEqual(t, r1, 1.0)
	}
}

func testMenu() []models.MenuEntry {
	return []models.MenuEntry{
		{Name: "Cheeseburger", Price: "$8"},
		{Name: "Fries", Price: "$3"},
	}
}

func TestMatchEmptyMenu(t *testing.T) {
	m := NewMatcher(DefaultThreshold)

	res := m.Match([]string{" cheese burger ", "fries", "  "}, nil)

	assert.Empty(t, res.Matched)
	assert.Equal(t, []string{"cheese burger", "fries"}, res.Unmatched)
}

func TestMatchFuzzyScenario(t *testing.T) {
	m := NewMatcher(DefaultThreshold)

	res := m.Match([]string{"cheese burger", "fries"}, testMenu())

	assert.Equal(t, []models.MenuEntry{
		{Name: "Cheeseburger", Price: "$8"},
		{Name: "Fries", Price: "$3"},
	}, res.Matched)
	assert.Empty(t, res.Unmatched)
}

func TestMatchUnknownItem(t *testing.T) {
	m := NewMatcher(DefaultThreshold)

	res := m.Match([]string{"pizza"}, testMenu())

	assert.Empty(t, res.Matched)
	assert.Equal(t, []string{"pizza"}, res.Unmatched)
}

func TestMatchExactBeatsFuzzy(t *testing.T) {
	m := NewMatcher(DefaultThreshold)
	entries := []models.MenuEntry{
		{Name: "cheeseburger"},
		{Name: "cheese burger deluxe"},
	}

	res := m.Match([]string{"Cheeseburger"}, entries)

	assert.Equal(t, []models.MenuEntry{{Name: "cheeseburger"}}, res.Matched)
	assert.Empty(t, res.Unmatched)
}

func TestMatchThresholdBoundary(t *testing.T) {
	m := NewMatcher(0.7)

	// 69 shared chars out of 2*100 scores exactly 0.69; 70 scores 0.70.
	atThreshold := strings.Repeat("a", 70) + strings.Repeat("b", 30)
	belowThreshold := strings.Repeat("a", 69) + strings.Repeat("b", 31)

	t.Run("exactly at threshold matches", func(t *testing.T) {
		entry := models.MenuEntry{Name: strings.Repeat("a", 70) + strings.Repeat("c", 30)}
		assert.InDelta(t, 0.70, Ratio(atThreshold, strings.ToLower(entry.Name)), 1e-9)

		res := m.Match([]string{atThreshold}, []models.MenuEntry{entry})
		assert.Equal(t, []models.MenuEntry{entry}, res.Matched)
		assert.Empty(t, res.Unmatched)
	})

	t.Run("just below threshold does not match", func(t *testing.T) {
		entry := models.MenuEntry{Name: strings.Repeat("a", 69) + strings.Repeat("c", 31)}
		assert.InDelta(t, 0.69, Ratio(belowThreshold, strings.ToLower(entry.Name)), 1e-9)

		res := m.Match([]string{belowThreshold}, []models.MenuEntry{entry})
		assert.Empty(t, res.Matched)
		assert.Equal(t, []string{belowThreshold}, res.Unmatched)
	})
}

func TestMatchTieKeepsFirstEntry(t *testing.T) {
	m := NewMatcher(0.5)
	// Both entries score identically against the input; the first by menu
	// order must win.
	entries := []models.MenuEntry{
		{Name: "abcx"},
		{Name: "abcy"},
	}

	res := m.Match([]string{"abcz"}, entries)

	assert.Equal(t, []models.MenuEntry{{Name: "abcx"}}, res.Matched)
}

func TestMatchSkipsBlankMenuNames(t *testing.T) {
	m := NewMatcher(DefaultThreshold)
	entries := []models.MenuEntry{
		{Name: "   "},
		{Name: "Fries"},
	}

	res := m.Match([]string{"fries"}, entries)

	assert.Equal(t, []models.MenuEntry{{Name: "Fries"}}, res.Matched)
}

func TestMatchPreservesInputOrder(t *testing.T) {
	m := NewMatcher(DefaultThreshold)
	entries := []models.MenuEntry{
		{Name: "Cheeseburger"},
		{Name: "Fries"},
		{Name: "Cola"},
	}

	res := m.Match([]string{"cola", "sushi", "cheeseburger", "ramen"}, entries)

	assert.Equal(t, []models.MenuEntry{{Name: "Cola"}, {Name: "Cheeseburger"}}, res.Matched)
	assert.Equal(t, []string{"sushi", "ramen"}, res.Unmatched)
}

func TestNewMatcherDefaultsThreshold(t *testing.T) {
	m := NewMatcher(0)
	assert.Equal(t, DefaultThreshold, m.threshold)
}
