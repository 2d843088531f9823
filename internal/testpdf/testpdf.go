// Package testpdf builds small PDF documents for tests.
package testpdf

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"strings"
)

// Page describes one page of a generated document.
type Page struct {
	// MediaBox and CropBox are written when non-nil. Any length is accepted
	// so that malformed boxes can be produced.
	MediaBox []float64
	CropBox  []float64

	// Contents holds one entry per content stream. A page without entries
	// has no /Contents key.
	Contents []string

	// Resources is a raw resource dictionary. When empty the page binds
	// /F1 to the shared Helvetica font.
	Resources string
}

// Document describes a generated document.
type Document struct {
	Pages []Page

	// InheritedMediaBox is written on the page tree root.
	InheritedMediaBox []float64

	// XrefStream selects a cross-reference stream instead of a table.
	XrefStream bool
}

const (
	catalogID = 1
	pagesID   = 2
	fontID    = 3
)

// Bytes serializes the document.
func (d Document) Bytes() []byte {
	var b bytes.Buffer
	b.WriteString("%PDF-1.7\n%\xe2\xe3\xcf\xd3\n")

	offsets := []int{0}
	add := func(body string) {
		offsets = append(offsets, b.Len())
		fmt.Fprintf(&b, "%d 0 obj\n%s\nendobj\n", len(offsets)-1, body)
	}

	pageIDs := make([]int, len(d.Pages))
	next := fontID + 1
	for i, p := range d.Pages {
		pageIDs[i] = next
		next += 1 + len(p.Contents)
	}

	add(fmt.Sprintf("<< /Type /Catalog /Pages %d 0 R >>", pagesID))

	var kids []string
	for _, id := range pageIDs {
		kids = append(kids, fmt.Sprintf("%d 0 R", id))
	}
	pages := fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d", strings.Join(kids, " "), len(d.Pages))
	if d.InheritedMediaBox != nil {
		pages += " /MediaBox " + array(d.InheritedMediaBox)
	}
	add(pages + " >>")

	add("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>")

	for i, p := range d.Pages {
		var page strings.Builder
		fmt.Fprintf(&page, "<< /Type /Page /Parent %d 0 R", pagesID)
		if p.MediaBox != nil {
			page.WriteString(" /MediaBox " + array(p.MediaBox))
		}
		if p.CropBox != nil {
			page.WriteString(" /CropBox " + array(p.CropBox))
		}
		resources := p.Resources
		if resources == "" {
			resources = fmt.Sprintf("<< /Font << /F1 %d 0 R >> >>", fontID)
		}
		page.WriteString(" /Resources " + resources)
		switch len(p.Contents) {
		case 0:
		case 1:
			fmt.Fprintf(&page, " /Contents %d 0 R", pageIDs[i]+1)
		default:
			var refs []string
			for j := range p.Contents {
				refs = append(refs, fmt.Sprintf("%d 0 R", pageIDs[i]+1+j))
			}
			fmt.Fprintf(&page, " /Contents [%s]", strings.Join(refs, " "))
		}
		page.WriteString(" >>")
		add(page.String())

		for _, c := range p.Contents {
			add(fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(c), c))
		}
	}

	const id = "<8a2f4ba1c3d5e6f708192a3b4c5d6e7f><8a2f4ba1c3d5e6f708192a3b4c5d6e7f>"

	if d.XrefStream {
		xrefID := len(offsets)
		offsets = append(offsets, b.Len())

		var entries bytes.Buffer
		entries.Write([]byte{0, 0, 0, 0, 0, 255})
		for _, off := range offsets[1:] {
			entries.WriteByte(1)
			_ = binary.Write(&entries, binary.BigEndian, uint32(off))
			entries.WriteByte(0)
		}

		fmt.Fprintf(&b, "%d 0 obj\n<< /Type /XRef /Size %d /W [1 4 1] /Root %d 0 R /ID [%s] /Length %d >>\nstream\n",
			xrefID, len(offsets), catalogID, id, entries.Len())
		b.Write(entries.Bytes())
		b.WriteString("\nendstream\nendobj\n")
		fmt.Fprintf(&b, "startxref\n%d\n%%%%EOF\n", offsets[xrefID])
		return b.Bytes()
	}

	xrefOffset := b.Len()
	fmt.Fprintf(&b, "xref\n0 %d\n", len(offsets))
	b.WriteString("0000000000 65535 f \n")
	for _, off := range offsets[1:] {
		fmt.Fprintf(&b, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&b, "trailer\n<< /Size %d /Root %d 0 R /ID [%s] >>\n", len(offsets), catalogID, id)
	fmt.Fprintf(&b, "startxref\n%d\n%%%%EOF\n", xrefOffset)
	return b.Bytes()
}

func array(values []float64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprintf("%g", v)
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// Letter is the US letter media box.
var Letter = []float64{0, 0, 612, 792}

// Simple returns a one page letter sized document with a line of text.
func Simple() []byte {
	return Document{
		Pages: []Page{{
			MediaBox: Letter,
			Contents: []string{"BT /F1 12 Tf 72 720 Td (Hello) Tj ET"},
		}},
	}.Bytes()
}

// Garbage returns bytes that are not a PDF document.
func Garbage() []byte {
	return []byte("this is certainly not a PDF document\n")
}

// Sample returns the PDF Association's "simple PDF 2.0" example: one 612x396
// page whose /Contents is an array of two streams.
func Sample() []byte {
	data, err := base64.StdEncoding.DecodeString(sampleFile)
	if err != nil {
		panic(err)
	}
	return data
}
