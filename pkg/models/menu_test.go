package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeMenu(t *testing.T) {
	tests := []struct {
		name string
		raw  []any
		want []MenuEntry
	}{
		{
			"strings",
			[]any{"Cheeseburger", " Fries "},
			[]MenuEntry{{Name: "Cheeseburger"}, {Name: "Fries"}},
		},
		{
			"objects with price",
			[]any{map[string]any{"name": "Cheeseburger", "price": "$8"}},
			[]MenuEntry{{Name: "Cheeseburger", Price: "$8"}},
		},
		{
			"numeric price",
			[]any{map[string]any{"name": "Fries", "price": float64(3)}},
			[]MenuEntry{{Name: "Fries", Price: "3"}},
		},
		{
			"fractional price",
			[]any{map[string]any{"name": "Cola", "price": 2.5}},
			[]MenuEntry{{Name: "Cola", Price: "2.5"}},
		},
		{
			"null price",
			[]any{map[string]any{"name": "Cola", "price": nil}},
			[]MenuEntry{{Name: "Cola"}},
		},
		{
			"empty name dropped",
			[]any{map[string]any{"name": "  ", "price": "$1"}, "", "Cola"},
			[]MenuEntry{{Name: "Cola"}},
		},
		{
			"mixed representations",
			[]any{"Fries", map[string]any{"name": "Cola", "price": "$2"}},
			[]MenuEntry{{Name: "Fries"}, {Name: "Cola", Price: "$2"}},
		},
		{
			"scalar fallback",
			[]any{float64(42)},
			[]MenuEntry{{Name: "42"}},
		},
		{
			"empty input",
			nil,
			[]MenuEntry{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeMenu(tt.raw))
		})
	}
}

func TestMenuEntryLabel(t *testing.T) {
	assert.Equal(t, "Cheeseburger — $8", MenuEntry{Name: "Cheeseburger", Price: "$8"}.Label())
	assert.Equal(t, "Cheeseburger", MenuEntry{Name: "Cheeseburger"}.Label())
}
