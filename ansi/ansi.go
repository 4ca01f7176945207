// Package ansi provides the ANSI escape sequences and namespace colour
// palettes used by psdebug's colourised output. A palette is an ordered list
// of terminal colour numbers; psdebug hashes each namespace into one slot so
// the same namespace always renders in the same colour.
package ansi

import (
	"strconv"
	"sync"
)

// Reset clears all terminal styling.
const Reset = "\x1b[0m"

// Palette is an ordered set of terminal colour numbers. Numbers below 8 are
// rendered with the basic SGR 30-37 range, everything else with the 256-colour
// extension.
type Palette struct {
	Name   string
	Colors []int
}

// Len reports the number of colours in the palette.
func (p *Palette) Len() int {
	if p == nil {
		return 0
	}
	return len(p.Colors)
}

// Pick returns the colour at slot index modulo the palette length. Negative
// indexes are folded to their absolute value.
func (p *Palette) Pick(index int64) int {
	n := int64(p.Len())
	if n == 0 {
		return 0
	}
	if index < 0 {
		index = -index
	}
	return p.Colors[index%n]
}

// Foreground returns the SGR prefix selecting colour c without the closing
// "m", so callers can append ";1m" for bold or "m" for the plain variant.
func Foreground(c int) string {
	if c < 8 {
		return "\x1b[3" + strconv.Itoa(c)
	}
	return "\x1b[38;5;" + strconv.Itoa(c)
}

// BoldColor returns the escape sequence for bold text in colour c.
func BoldColor(c int) string {
	return Foreground(c) + ";1m"
}

// Color returns the escape sequence for regular text in colour c.
func Color(c int) string {
	return Foreground(c) + "m"
}

var (
	paletteMu      sync.RWMutex
	currentDefault = &PaletteBasic
)

// SetDefault replaces the palette returned by Default. A nil palette restores
// PaletteBasic.
//
//	prev := ansi.Default()
//	defer ansi.SetDefault(prev)
//	ansi.SetDefault(&ansi.PaletteExtended)
func SetDefault(p *Palette) {
	if p == nil || p.Len() == 0 {
		p = &PaletteBasic
	}
	paletteMu.Lock()
	defer paletteMu.Unlock()
	currentDefault = p
}

// Default returns the palette used when no explicit palette is configured and
// terminal detection is not asked to choose one.
func Default() *Palette {
	paletteMu.RLock()
	defer paletteMu.RUnlock()
	return currentDefault
}
