// Package fonts provides the built-in font used for watermarks and its metrics.
//
// Watermarks are always drawn with a standard PDF font, so the font is never
// embedded and text is measured with a static advance-width table.
package fonts

import (
	"golang.org/x/text/encoding/charmap"
)

// StandardType represents standard PDF fonts that are available in all PDF readers
// without embedding.
type StandardType int

const (
	// Helvetica is the standard sans-serif font.
	Helvetica StandardType = iota
)

// Font represents a font resource that can be referenced from page content.
type Font struct {
	Name     string // PostScript name of the font
	Subtype  string // PDF font subtype
	Encoding string // Base encoding of simple fonts
}

// Standard returns a Font for a standard PDF font (no embedding required).
func Standard(ft StandardType) *Font {
	names := map[StandardType]string{
		Helvetica: "Helvetica",
	}
	return &Font{Name: names[ft], Subtype: "Type1", Encoding: "WinAnsiEncoding"}
}

// fallbackWidth is the advance of 'x', used for every rune not in the table.
const fallbackWidth = 50

// helveticaWidths holds advance widths in hundredths of an em.
var helveticaWidths = map[rune]int{
	' ': 28, '!': 28, '"': 35, '#': 56, '$': 56, '%': 89, '&': 67, '\'': 19,
	'(': 33, ')': 33, '*': 39, '+': 58, ',': 28, '-': 33, '.': 28, '/': 28,
	'0': 56, '1': 56, '2': 56, '3': 56, '4': 56, '5': 56, '6': 56, '7': 56, '8': 56, '9': 56,
	':': 28, ';': 28, '<': 58, '=': 58, '>': 58, '?': 56, '@': 102,
	'A': 67, 'B': 67, 'C': 72, 'D': 72, 'E': 67, 'F': 61, 'G': 78, 'H': 72, 'I': 28,
	'J': 50, 'K': 67, 'L': 56, 'M': 83, 'N': 72, 'O': 78, 'P': 67, 'Q': 78, 'R': 72,
	'S': 67, 'T': 61, 'U': 72, 'V': 67, 'W': 94, 'X': 67, 'Y': 67, 'Z': 61,
	'[': 28, '\\': 28, ']': 28, '^': 47, '_': 56, '`': 33,
	'a': 56, 'b': 56, 'c': 50, 'd': 56, 'e': 56, 'f': 28, 'g': 56, 'h': 56, 'i': 22,
	'j': 22, 'k': 50, 'l': 22, 'm': 83, 'n': 56, 'o': 56, 'p': 56, 'q': 56, 'r': 33,
	's': 50, 't': 28, 'u': 56, 'v': 50, 'w': 72, 'x': 50, 'y': 50, 'z': 50,
	'{': 33, '|': 26, '}': 33, '~': 58,
}

// GlyphWidth returns the advance width of r in hundredths of an em.
func GlyphWidth(r rune) int {
	if w, ok := helveticaWidths[r]; ok {
		return w
	}
	return fallbackWidth
}

// TextWidth returns the width of text in points when set in Helvetica at fontSize.
func TextWidth(text string, fontSize float64) float64 {
	var total int
	for _, r := range text {
		total += GlyphWidth(r)
	}
	return float64(total) * fontSize / 100
}

// Encode converts text to WinAnsiEncoding bytes for use in a string operand.
// Runes without a WinAnsi code point are replaced with '?'.
func Encode(text string) []byte {
	out := make([]byte, 0, len(text))
	for _, r := range text {
		b, ok := charmap.Windows1252.EncodeRune(r)
		if !ok {
			b = '?'
		}
		out = append(out, b)
	}
	return out
}
