package render

import (
	"github.com/digitorus/pdfmark/common"
	"github.com/digitorus/pdfmark/geometry"
	"github.com/digitorus/pdfmark/internal/pdf"
)

const (
	// FillGray is the DeviceGray level of the watermark text.
	FillGray = 0.5
	// FillAlpha is the constant fill opacity, 64/255 rounded to a quarter.
	FillAlpha = 0.25

	// MaxTilesPerPage bounds the number of text placements on one page.
	MaxTilesPerPage = 250000

	fontPrefix      = "WmF"
	extGStatePrefix = "WmGS"
)

// Watermark holds the request-scoped watermark parameters in points.
type Watermark struct {
	Text     string
	FontSize geometry.Length
	PaddingW geometry.Length
	PaddingH geometry.Length
	Rotation float64 // degrees in (-180, 180]
}

// FromParams converts request parameters, normalising the rotation.
func FromParams(p common.Params) Watermark {
	return Watermark{
		Text:     p.Text,
		FontSize: p.FontSize,
		PaddingW: p.PaddingW,
		PaddingH: p.PaddingH,
		Rotation: geometry.NormalizeDegrees(p.Rotation),
	}
}

// Page is the read-only view of a page needed to synthesize its watermark.
type Page struct {
	Box     pdf.Box
	Content []pdf.Operation

	// Names already bound in the page's resources.
	UsedFonts      map[string]bool
	UsedExtGStates map[string]bool
}

// Shared are the document-wide objects every page's watermark refers to.
type Shared struct {
	Font      pdf.Ref
	ExtGState pdf.Ref
}

// ResourcePatch lists the resource entries a page needs for its watermark.
type ResourcePatch struct {
	Fonts      map[string]pdf.Ref
	ExtGStates map[string]pdf.Ref
}

// Result is the synthesized watermark of one page.
type Result struct {
	Operations    []pdf.Operation
	Patch         ResourcePatch
	Columns, Rows int
}
