package render

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// named holds the CSS values of the colors strokes are sent with.
var named = map[string]color.NRGBA{
	"black":  {A: 255},
	"white":  {R: 255, G: 255, B: 255, A: 255},
	"blue":   {B: 255, A: 255},
	"red":    {R: 255, A: 255},
	"green":  {G: 128, A: 255},
	"orange": {R: 255, G: 165, A: 255},
	"purple": {R: 128, B: 128, A: 255},
	"brown":  {R: 165, G: 42, B: 42, A: 255},
	"yellow": {R: 255, G: 255, A: 255},
}

// ParseColor accepts a color name or a #rgb / #rrggbb hex string.
func ParseColor(s string) (color.NRGBA, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if c, ok := named[s]; ok {
		return c, nil
	}
	hex, ok := strings.CutPrefix(s, "#")
	if !ok {
		return color.NRGBA{}, fmt.Errorf("unknown color %q", s)
	}
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return color.NRGBA{}, fmt.Errorf("bad hex color %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("bad hex color %q: %w", s, err)
	}
	return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, nil
}

// Color is ParseColor falling back to black.
func Color(s string) color.NRGBA {
	c, err := ParseColor(s)
	if err != nil {
		return named["black"]
	}
	return c
}

// strokeColor is the paint used for one event; eraser strokes take the
// background.
func strokeColor(c string, eraser bool, background string) color.NRGBA {
	if eraser {
		return Color(background)
	}
	return Color(c)
}
