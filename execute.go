package pdfmark

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/digitorus/pdfmark/common"
	"github.com/digitorus/pdfmark/harden"
	"github.com/digitorus/pdfmark/mark"
)

// Result describes a completed Write.
type Result struct {
	Params      common.Params
	PagesMarked int
	Document    *Document
}

// Write applies the staged watermark and writes the resulting document to
// output. Nothing is written when any page fails.
func (d *Document) Write(output io.Writer) (*Result, error) {
	if d.pending == nil {
		return nil, errors.New("no watermark staged, call Watermark first")
	}

	params := d.pending.Params()
	pages, err := d.write(output, params)
	if err != nil {
		return nil, err
	}

	return &Result{
		Params:      params,
		PagesMarked: pages,
		Document:    d,
	}, nil
}

func (d *Document) write(output io.Writer, params common.Params) (int, error) {
	if err := params.Validate(); err != nil {
		return 0, err
	}

	var buf bytes.Buffer
	context := mark.MarkContext{
		PDFReader:  d.rdr,
		InputFile:  io.NewSectionReader(d.reader, 0, d.size),
		OutputFile: &buf,
		MarkData: mark.MarkData{
			Params:        params,
			CompressLevel: d.compressLevel,
		},
	}
	if err := context.MarkPDF(); err != nil {
		return 0, err
	}

	out := buf.Bytes()
	if params.Hardened {
		var err error
		if out, err = harden.Encrypt(out, harden.Default); err != nil {
			return 0, fmt.Errorf("failed to harden document: %w", err)
		}
	}

	if _, err := output.Write(out); err != nil {
		return 0, err
	}
	return context.PagesMarked, nil
}

// Mark watermarks a document held in memory. Lengths in params are points.
func Mark(input []byte, params common.Params) ([]byte, error) {
	doc, err := Open(bytes.NewReader(input), int64(len(input)))
	if err != nil {
		return nil, err
	}

	var out bytes.Buffer
	if _, err := doc.write(&out, params); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}
