package engine

import (
	"sort"

	"github.com/lucasb-eyer/go-colorful"

	"webplots/internal/models"
)

// DefaultPalette is used whenever a palette name is unknown.
const DefaultPalette = "Default"

var palettes = map[string][]string{
	"Default": {
		"#1f77b4", "#ff7f0e", "#2ca02c", "#d62728",
		"#9467bd", "#8c564b", "#e377c2", "#7f7f7f",
	},
	"Seaborn": {
		"#4c72b0", "#dd8452", "#55a868", "#c44e52",
		"#8172b3", "#937860", "#da8bc3", "#8c8c8c",
	},
	"Pastel": {
		"#a1c9f4", "#ffb482", "#8de5a1", "#ff9f9b",
		"#d0bbff", "#debb9b", "#fab0e4", "#cfcfcf",
	},
	"Neon": {
		"#FF00FF", "#00FFFF", "#00FF00", "#FFFF00",
		"#FF0000", "#0000FF", "#CC00FF", "#FF9900",
	},
}

// Palette returns a copy of the named palette, falling back to Default.
func Palette(name string) []string {
	p, ok := palettes[name]
	if !ok {
		p = palettes[DefaultPalette]
	}
	return append([]string(nil), p...)
}

// PaletteNames lists the built-in palettes alphabetically.
func PaletteNames() []string {
	names := make([]string, 0, len(palettes))
	for name := range palettes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// PaletteColor cycles through the named palette.
func PaletteColor(name string, index int) string {
	p, ok := palettes[name]
	if !ok {
		p = palettes[DefaultPalette]
	}
	return p[mod(index, len(p))]
}

// ActivePalette is the user's reordered/edited palette when present, else the
// named one.
func ActivePalette(tc models.TraceConfig) []string {
	if len(tc.CurrentPaletteColors) > 0 {
		return tc.CurrentPaletteColors
	}
	return Palette(tc.ColorPalette)
}

// ValidColor reports whether s is a hex colour we can render.
func ValidColor(s string) bool {
	_, err := colorful.Hex(s)
	return err == nil
}

func mod(i, n int) int {
	if n <= 0 {
		return 0
	}
	m := i % n
	if m < 0 {
		m += n
	}
	return m
}
