package psdebug

import "pkt.systems/psdebug/ansi"

// namespaceHash folds namespace into a 32-bit signed hash (h*31 + r per rune,
// wrapping on overflow). The value is stable across processes so a namespace
// keeps its colour between runs.
func namespaceHash(namespace string) int32 {
	var hash int32
	for _, r := range namespace {
		hash = (hash << 5) - hash + int32(r)
	}
	return hash
}

func selectColor(namespace string, palette *ansi.Palette) int {
	return palette.Pick(int64(namespaceHash(namespace)))
}
