// Package category defines the fixed set of place types a recommendation can carry.
package category

import (
	"fmt"
	"strings"

	"github.com/windycity/chirecs/internal/domain"
)

// Category is a place type.
type Category string

// Place type constants, in display order.
const (
	Restaurant Category = "restaurant"
	Bar        Category = "bar"
	Museum     Category = "museum"
	Cafe       Category = "cafe"
	Park       Category = "park"
	Theater    Category = "theater"
	Shopping   Category = "shopping"
	Nightclub  Category = "nightclub"
	Hotel      Category = "hotel"
	Attraction Category = "attraction"
)

// FallbackColor is used for any category outside the palette.
const FallbackColor = "#667eea"

var all = []Category{
	Restaurant, Bar, Museum, Cafe, Park, Theater, Shopping, Nightclub, Hotel, Attraction,
}

var colors = map[Category]string{
	Restaurant: "#e74c3c",
	Bar:        "#3498db",
	Museum:     "#9b59b6",
	Cafe:       "#f39c12",
	Park:       "#27ae60",
	Theater:    "#e67e22",
	Shopping:   "#1abc9c",
	Nightclub:  "#c0392b",
	Hotel:      "#34495e",
	Attraction: "#16a085",
}

var labels = map[Category]string{
	Restaurant: "Restaurants",
	Bar:        "Bars",
	Museum:     "Museums & Galleries",
	Cafe:       "Cafes",
	Park:       "Parks",
	Theater:    "Theaters",
	Shopping:   "Shopping Centers",
	Nightclub:  "Nightclubs",
	Hotel:      "Hotels",
	Attraction: "Tourist Attractions",
}

// All returns every category in display order. The slice is a copy.
func All() []Category {
	out := make([]Category, len(all))
	copy(out, all)
	return out
}

// IsValid checks if the category is one of the supported values.
func (c Category) IsValid() bool {
	_, ok := colors[c]
	return ok
}

// Color returns the hex display color.
func (c Category) Color() string {
	if col, ok := colors[c]; ok {
		return col
	}
	return FallbackColor
}

// Label returns the human-readable plural label.
func (c Category) Label() string {
	if l, ok := labels[c]; ok {
		return l
	}
	return string(c)
}

func (c Category) String() string { return string(c) }

// Parse normalizes s (trim, lower-case) and validates it.
func Parse(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if !c.IsValid() {
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidCategory, s)
	}
	return c, nil
}

// ParseList parses a comma-separated filter. Blank entries are skipped and
// duplicates collapsed; an empty string yields nil.
func ParseList(s string) ([]Category, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]Category, 0, len(parts))
	seen := make(map[Category]bool, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(p) == "" {
			continue
		}
		c, err := Parse(p)
		if err != nil {
			return nil, err
		}
		if seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out, nil
}
