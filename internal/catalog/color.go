package catalog

import (
	"fmt"
	"strconv"

	"github.com/go-gl/mathgl/mgl32"
)

// Color is an 8-bit RGB display color.
type Color struct {
	R, G, B uint8
}

// Hex formats the color as #RRGGBB.
func (c Color) Hex() string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

// Vec3 returns the color as normalised floats for the renderer.
func (c Color) Vec3() mgl32.Vec3 {
	return mgl32.Vec3{float32(c.R) / 255, float32(c.G) / 255, float32(c.B) / 255}
}

// ParseHex parses a #RRGGBB color.
func ParseHex(s string) (Color, error) {
	if len(s) != 7 || s[0] != '#' {
		return Color{}, fmt.Errorf("invalid color %q", s)
	}
	v, err := strconv.ParseUint(s[1:], 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return Color{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}, nil
}

// MarshalText encodes the color as #RRGGBB.
func (c Color) MarshalText() ([]byte, error) {
	return []byte(c.Hex()), nil
}

var (
	// EmphasisColor marks the selected object.
	EmphasisColor = Color{0x00, 0xFF, 0xFF}

	categoryColors = map[Category]Color{
		CategoryStarlink: {0xFF, 0xFF, 0xFF},
		CategoryStation:  {0x00, 0xFF, 0xFF},
		CategoryDebris:   {0xFF, 0x00, 0x00},
		CategoryGPS:      {0xFF, 0xD7, 0x00},
		CategoryOther:    {0xAA, 0xAA, 0xAA},
	}
)

// ColorFor returns the display color of a category.
func ColorFor(c Category) Color {
	if col, ok := categoryColors[c]; ok {
		return col
	}
	return categoryColors[CategoryOther]
}
