// Package pdf reads page geometry, content and resources from a parsed PDF
// and encodes new content and objects for an incremental update.
package pdf

import (
	"fmt"
	"math"

	pdflib "github.com/digitorus/pdf"
)

// maxTreeDepth bounds the walk up the page tree for inherited attributes.
const maxTreeDepth = 64

// Box is a page boundary rectangle in default user space.
type Box struct {
	LLX, LLY, URX, URY float64
}

// Width of the box.
func (b Box) Width() float64 { return b.URX - b.LLX }

// Height of the box.
func (b Box) Height() float64 { return b.URY - b.LLY }

// Inherited looks up key on page and then on its ancestors in the page tree.
func Inherited(page pdflib.Value, key string) pdflib.Value {
	v := page
	for depth := 0; depth < maxTreeDepth && !v.IsNull(); depth++ {
		if x := v.Key(key); !x.IsNull() {
			return x
		}
		v = v.Key("Parent")
	}
	return pdflib.Value{}
}

// PageBox returns the visible area of page: its (inherited) CropBox when
// that is a valid rectangle, otherwise its (inherited) MediaBox.
func PageBox(page pdflib.Value) (Box, error) {
	if crop := Inherited(page, "CropBox"); !crop.IsNull() {
		if b, err := parseBox(crop); err == nil {
			return b, nil
		}
	}

	media := Inherited(page, "MediaBox")
	if media.IsNull() {
		return Box{}, fmt.Errorf("page has no /MediaBox")
	}
	b, err := parseBox(media)
	if err != nil {
		return Box{}, fmt.Errorf("invalid /MediaBox: %w", err)
	}
	return b, nil
}

func parseBox(v pdflib.Value) (Box, error) {
	if v.Kind() != pdflib.Array || v.Len() != 4 {
		return Box{}, fmt.Errorf("expected an array of 4 numbers")
	}
	var n [4]float64
	for i := range n {
		x := v.Index(i)
		if x.Kind() != pdflib.Integer && x.Kind() != pdflib.Real {
			return Box{}, fmt.Errorf("element %d is not a number", i)
		}
		n[i] = x.Float64()
		if math.IsNaN(n[i]) || math.IsInf(n[i], 0) {
			return Box{}, fmt.Errorf("element %d is not finite", i)
		}
	}
	return Box{
		LLX: math.Min(n[0], n[2]),
		LLY: math.Min(n[1], n[3]),
		URX: math.Max(n[0], n[2]),
		URY: math.Max(n[1], n[3]),
	}, nil
}
