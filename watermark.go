package pdfmark

import (
	"time"

	"github.com/digitorus/pdfmark/common"
	"github.com/digitorus/pdfmark/geometry"
	"github.com/digitorus/pdfmark/internal/render"
)

// Units for paddings, in points.
const (
	Point      = 1.0
	Millimeter = 72.0 / 25.4
	Centimeter = 72.0 / 2.54
	Inch       = 72.0
)

// DefaultFontSize is the font size of a watermark unless FontSize is called.
const DefaultFontSize = 12

// WatermarkBuilder configures the watermark staged on a Document.
type WatermarkBuilder struct {
	doc *Document

	text     string
	fontSize float64
	paddingW float64
	paddingH float64
	rotation float64
	hardened bool
	unit     float64
	date     time.Time
}

// Watermark stages a text watermark for every page of the document. Only
// one watermark is applied per Write; calling Watermark again replaces it.
//
// The text may contain the template variables {{Date}}, {{Time}} and
// {{Year}}, expanded once when the document is written.
func (d *Document) Watermark(text string) *WatermarkBuilder {
	wb := &WatermarkBuilder{
		doc:      d,
		text:     text,
		fontSize: DefaultFontSize,
		unit:     d.unit,
	}
	d.pending = wb
	return wb
}

// FontSize sets the font size in points.
func (wb *WatermarkBuilder) FontSize(size float64) *WatermarkBuilder {
	wb.fontSize = size
	return wb
}

// Padding sets the extra horizontal and vertical space around each tile,
// in the builder's unit.
func (wb *WatermarkBuilder) Padding(w, h float64) *WatermarkBuilder {
	wb.paddingW = w
	wb.paddingH = h
	return wb
}

// Rotation sets the counter-clockwise rotation of the text in degrees.
func (wb *WatermarkBuilder) Rotation(degrees float64) *WatermarkBuilder {
	wb.rotation = degrees
	return wb
}

// Hardened re-encrypts the output so it opens without a password but cannot
// be printed, copied or modified.
func (wb *WatermarkBuilder) Hardened(enabled bool) *WatermarkBuilder {
	wb.hardened = enabled
	return wb
}

// Unit overrides the document unit for this watermark's paddings.
func (wb *WatermarkBuilder) Unit(u float64) *WatermarkBuilder {
	wb.unit = u
	return wb
}

// Date sets the time used to expand template variables. Defaults to the
// time of Write.
func (wb *WatermarkBuilder) Date(t time.Time) *WatermarkBuilder {
	wb.date = t
	return wb
}

// Params returns the request parameters in points with template variables
// expanded.
func (wb *WatermarkBuilder) Params() common.Params {
	return common.Params{
		Text:     render.ExpandTemplateVariables(wb.text, render.TemplateContext{Date: wb.date}),
		FontSize: wb.fontSize,
		PaddingW: geometry.Length(wb.paddingW * wb.unit),
		PaddingH: geometry.Length(wb.paddingH * wb.unit),
		Rotation: wb.rotation,
		Hardened: wb.hardened,
	}
}
