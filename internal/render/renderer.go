package render

import (
	"fmt"
	"math"

	"github.com/digitorus/pdfmark/common"
	"github.com/digitorus/pdfmark/fonts"
	"github.com/digitorus/pdfmark/geometry"
	"github.com/digitorus/pdfmark/internal/pdf"
)

// tileFiller is the horizontal gap between repetitions of the text.
const tileFiller = "      "

// TileSize returns the size of one watermark tile: the text plus a six space
// gap and the horizontal padding, by one and a half times the font size plus
// the vertical padding.
func TileSize(w Watermark) (width, height geometry.Length) {
	width = fonts.TextWidth(w.Text, w.FontSize) + fonts.TextWidth(tileFiller, w.FontSize) + w.PaddingW
	height = w.FontSize + w.FontSize/2 + w.PaddingH
	return width, height
}

// Synthesize builds the operations and resource entries that draw the
// watermark over page.
//
// The result is a single q/Q group: an optional cm cancelling the transform
// left behind by the existing content, the graphics state and fill colour,
// then one text object placing the text at every tile anchor in row-major
// order.
func Synthesize(w Watermark, page Page, shared Shared) (*Result, error) {
	cancel, err := CancelTransform(page.Content)
	if err != nil {
		return nil, err
	}

	tileW, tileH := TileSize(w)
	pageW, pageH := page.Box.Width(), page.Box.Height()
	columns, rows := geometry.TileGrid(w.Rotation, pageW, pageH, tileW, tileH)
	if int64(columns)*int64(rows) > MaxTilesPerPage {
		return nil, &common.DocumentError{
			Msg: fmt.Sprintf("watermark needs %d tiles on a %gx%g page, the limit is %d",
				int64(columns)*int64(rows), pageW, pageH, MaxTilesPerPage),
		}
	}

	fontName := pdf.FreeName(fontPrefix, page.UsedFonts)
	gsName := pdf.FreeName(extGStatePrefix, page.UsedExtGStates)

	ops := make([]pdf.Operation, 0, 8+2*columns*rows)
	ops = append(ops, pdf.Op("q"))
	if !cancel.IsIdentity() {
		ops = append(ops, matrixOp("cm", cancel))
	}
	ops = append(ops,
		pdf.Op("gs", pdf.Name(gsName)),
		pdf.Op("g", pdf.Number(FillGray)),
		pdf.Op("BT"),
		pdf.Op("Tf", pdf.Name(fontName), pdf.Number(w.FontSize)),
	)

	text := pdf.String(fonts.Encode(w.Text))
	sin, cos := math.Sincos(geometry.Radians(w.Rotation))
	for row := 0; row < rows; row++ {
		for col := 0; col < columns; col++ {
			p := geometry.TileAnchor(w.Rotation, pageW, col, row, tileW, tileH)
			tm := geometry.Matrix{cos, sin, -sin, cos, p.X + page.Box.LLX, p.Y + page.Box.LLY}
			ops = append(ops, matrixOp("Tm", tm), pdf.Op("Tj", text))
		}
	}
	ops = append(ops, pdf.Op("ET"), pdf.Op("Q"))

	return &Result{
		Operations: ops,
		Patch: ResourcePatch{
			Fonts:      map[string]pdf.Ref{fontName: shared.Font},
			ExtGStates: map[string]pdf.Ref{gsName: shared.ExtGState},
		},
		Columns: columns,
		Rows:    rows,
	}, nil
}

// CancelTransform returns the inverse of the transformation matrix that is in
// effect after ops have run, counting only cm operators outside any q/Q
// group. A singular transform cannot be cancelled and yields the identity.
func CancelTransform(ops []pdf.Operation) (geometry.Matrix, error) {
	ctm := geometry.Identity()
	depth := 0
	for _, op := range ops {
		switch op.Operator {
		case "q":
			depth++
		case "Q":
			if depth > 0 {
				depth--
			}
		case "cm":
			if depth != 0 {
				continue
			}
			n, ok := op.Numbers()
			if !ok || len(n) != 6 {
				return geometry.Identity(), &common.DocumentError{Msg: "cm operator with invalid operands"}
			}
			ctm = geometry.Matrix{n[0], n[1], n[2], n[3], n[4], n[5]}.Multiply(ctm)
		}
	}

	inv, ok := ctm.Inverse()
	if !ok {
		return geometry.Identity(), nil
	}
	return inv, nil
}

func matrixOp(operator string, m geometry.Matrix) pdf.Operation {
	operands := make([]pdf.Operand, len(m))
	for i, v := range m {
		operands[i] = pdf.Number(v)
	}
	return pdf.Op(operator, operands...)
}
