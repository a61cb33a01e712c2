package models

// Pattern is the fill style used to draw an activity type.
type Pattern string

const (
	PatternSolid   Pattern = "solid"
	PatternStripes Pattern = "stripes"
	PatternDots    Pattern = "dots"
)

// Valid reports whether p is a known pattern.
func (p Pattern) Valid() bool {
	return p == PatternSolid || p == PatternStripes || p == PatternDots
}

// ActivityType classifies sessions for presentation and rollups.
// Names are unique regardless of case.
type ActivityType struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	ColorVariant float64 `json:"color_variant"` // [-1.0, 1.0]
	Pattern      Pattern `json:"pattern"`
	DisplayOrder int     `json:"display_order"`
}
