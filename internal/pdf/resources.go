package pdf

import (
	"fmt"

	pdflib "github.com/digitorus/pdf"
)

// Resource categories written by the watermark.
const (
	CategoryFont      = "Font"
	CategoryExtGState = "ExtGState"
)

// Resources returns the effective resource dictionary of page.
func Resources(page pdflib.Value) pdflib.Value {
	return Inherited(page, "Resources")
}

// ResourceNames returns the names already bound in one category of a
// resource dictionary.
func ResourceNames(resources pdflib.Value, category string) map[string]bool {
	found := make(map[string]bool)
	dict := resources.Key(category)
	if dict.Kind() != pdflib.Dict {
		return found
	}
	for _, name := range dict.Keys() {
		found[name] = true
	}
	return found
}

// FreeName returns the first name prefix1, prefix2, ... not present in used.
func FreeName(prefix string, used map[string]bool) string {
	for i := 1; ; i++ {
		name := fmt.Sprintf("%s%d", prefix, i)
		if !used[name] {
			return name
		}
	}
}
