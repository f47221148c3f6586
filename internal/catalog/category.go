package catalog

import (
	"fmt"
	"strings"
)

// Category is the closed set of object classes the tracker distinguishes.
type Category uint8

const (
	CategoryOther Category = iota
	CategoryStation
	CategoryDebris
	CategoryGPS
	CategoryStarlink
)

// Categories lists every category in display order.
var Categories = []Category{CategoryStarlink, CategoryStation, CategoryDebris, CategoryGPS, CategoryOther}

var categoryNames = map[Category]string{
	CategoryOther:    "other",
	CategoryStation:  "station",
	CategoryDebris:   "debris",
	CategoryGPS:      "gps",
	CategoryStarlink: "starlink",
}

func (c Category) String() string {
	if s, ok := categoryNames[c]; ok {
		return s
	}
	return fmt.Sprintf("category(%d)", uint8(c))
}

// ParseCategory resolves a category name case-insensitively.
func ParseCategory(s string) (Category, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for c, name := range categoryNames {
		if name == s {
			return c, nil
		}
	}
	return CategoryOther, fmt.Errorf("unknown category %q", s)
}

// MarshalText encodes the category by name.
func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText decodes a category name.
func (c *Category) UnmarshalText(b []byte) error {
	parsed, err := ParseCategory(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// classRule maps name keywords to a category. Rules are checked in order and
// the first match wins, so a name carrying keywords of several classes gets
// the highest-priority one.
type classRule struct {
	category Category
	keywords []string
}

var classRules = []classRule{
	{CategoryStation, []string{"ISS", "TIANGONG", "HST"}},
	{CategoryDebris, []string{"DEB", "COSMOS", "FENGYUN"}},
	{CategoryGPS, []string{"GPS", "NAVSTAR"}},
	{CategoryStarlink, []string{"STARLINK"}},
}

// Classify maps an object name to its category by case-insensitive keyword
// match with priority Station > Debris > GPS > Starlink > Other.
func Classify(name string) Category {
	upper := strings.ToUpper(name)
	for _, rule := range classRules {
		for _, kw := range rule.keywords {
			if strings.Contains(upper, kw) {
				return rule.category
			}
		}
	}
	return CategoryOther
}
