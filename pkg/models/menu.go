package models

import (
	"fmt"
	"strings"
)

// MenuEntry is one reconciled menu line. Price is display text ("$8",
// "12.50") and may be empty when the upstream menu has no price column.
type MenuEntry struct {
	Name  string `json:"name"`
	Price string `json:"price,omitempty"`
}

// Label renders the entry the way replies list it.
func (e MenuEntry) Label() string {
	if e.Price != "" {
		return fmt.Sprintf("%s — %s", e.Name, e.Price)
	}
	return e.Name
}

// NormalizeMenu converts a decoded webhook menu payload into MenuEntry
// values. Upstream items arrive either as bare strings or as objects with
// name/price fields; entries with an empty name are dropped so downstream
// code never branches on representation.
func NormalizeMenu(raw []any) []MenuEntry {
	entries := make([]MenuEntry, 0, len(raw))
	for _, item := range raw {
		var entry MenuEntry
		switch v := item.(type) {
		case string:
			entry.Name = strings.TrimSpace(v)
		case map[string]any:
			if name, ok := v["name"]; ok {
				entry.Name = strings.TrimSpace(stringify(name))
			}
			if price, ok := v["price"]; ok {
				entry.Price = strings.TrimSpace(stringify(price))
			}
		default:
			entry.Name = strings.TrimSpace(stringify(item))
		}
		if entry.Name == "" {
			continue
		}
		entries = append(entries, entry)
	}
	return entries
}

// stringify renders loosely typed JSON scalars without the %!s noise
// fmt would produce for nil.
func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		// JSON numbers decode as float64; keep integers clean.
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%g", t)
	default:
		return fmt.Sprintf("%v", t)
	}
}
