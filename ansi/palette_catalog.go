package ansi

import (
	"sort"
	"strings"
)

// PaletteBasic uses the six non-black, non-white colours every terminal
// supports.
var PaletteBasic = Palette{
	Name:   "basic",
	Colors: []int{6, 2, 3, 4, 5, 1},
}

// PaletteExtended is a 256-colour palette of hues that stay readable on both
// dark and light backgrounds.
var PaletteExtended = Palette{
	Name: "extended",
	Colors: []int{
		20, 21, 26, 27, 32, 33, 38, 39, 40, 41, 42, 43, 44, 45, 56, 57, 62,
		63, 68, 69, 74, 75, 76, 77, 78, 79, 80, 81, 92, 93, 98, 99, 112, 113,
		128, 129, 134, 135, 148, 149, 160, 161, 162, 163, 164, 165, 166, 167,
		168, 169, 170, 171, 172, 173, 178, 179, 184, 185, 196, 197, 198, 199,
		200, 201, 202, 203, 204, 205, 206, 207, 208, 209, 214, 215, 220, 221,
	},
}

var namedPalettes = map[string]*Palette{
	"basic":    &PaletteBasic,
	"extended": &PaletteExtended,
}

var paletteAliases = map[string]string{
	"16":       "basic",
	"ansi":     "basic",
	"default":  "basic",
	"256":      "extended",
	"256color": "extended",
	"xterm256": "extended",
}

// PaletteByName resolves a built-in palette by its canonical name. Names are
// case-insensitive and accept a few aliases ("16", "256"). Unknown names
// resolve to nil so callers can fall back to detection.
func PaletteByName(name string) *Palette {
	normalized := normalizePaletteName(name)
	if normalized == "" {
		return nil
	}
	if canonical, ok := paletteAliases[normalized]; ok {
		normalized = canonical
	}
	return namedPalettes[normalized]
}

// AvailablePaletteNames returns canonical built-in palette names in sorted order.
func AvailablePaletteNames() []string {
	names := make([]string, 0, len(namedPalettes))
	for name := range namedPalettes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// PaletteForTerm picks the extended palette when the TERM or COLORTERM values
// advertise 256-colour or truecolour support, and PaletteBasic otherwise.
func PaletteForTerm(term, colorterm string) *Palette {
	colorterm = strings.ToLower(strings.TrimSpace(colorterm))
	if colorterm == "truecolor" || colorterm == "24bit" {
		return &PaletteExtended
	}
	term = strings.ToLower(term)
	if strings.Contains(term, "256") || strings.Contains(term, "truecolor") || strings.Contains(term, "direct") {
		return &PaletteExtended
	}
	return &PaletteBasic
}

func normalizePaletteName(name string) string {
	s := strings.TrimSpace(strings.ToLower(name))
	if s == "" {
		return ""
	}
	s = strings.NewReplacer("_", "", "-", "", " ", "").Replace(s)
	s = strings.TrimPrefix(s, "palette")
	return s
}
