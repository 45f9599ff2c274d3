package models

import (
	"fmt"
	"strings"
)

type Stand struct {
	ID string
	// MaxCategory is the largest ICAO aircraft category the stand accepts. Empty accepts any.
	MaxCategory string
}

func (s Stand) validate() error {
	if strings.TrimSpace(s.ID) == "" {
		return fmt.Errorf("stand id is required")
	}
	if !validCategory(s.MaxCategory) {
		return fmt.Errorf("stand %q: unknown aircraft category %q", s.ID, s.MaxCategory)
	}
	return nil
}

const categories = "ABCDEF"

// CategoryRank returns the position of an ICAO aircraft size category (A smallest).
// ok is false for an empty category.
func CategoryRank(category string) (rank int, ok bool) {
	c := strings.ToUpper(strings.TrimSpace(category))
	if len(c) != 1 {
		return 0, false
	}
	idx := strings.Index(categories, c)
	if idx < 0 {
		return 0, false
	}
	return idx, true
}

func validCategory(category string) bool {
	if strings.TrimSpace(category) == "" {
		return true
	}
	_, ok := CategoryRank(category)
	return ok
}
