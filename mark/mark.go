// Package mark writes a tiled text watermark onto every page of a PDF as an
// incremental update.
package mark

import (
	"fmt"
	"io"

	"github.com/digitorus/pdf"
	"github.com/mattetti/filebuffer"

	"github.com/digitorus/pdfmark/common"
	"github.com/digitorus/pdfmark/internal/render"
)

// NewReader parses a PDF. Parser errors and panics are reported as
// *common.MalformedInputError.
func NewReader(r io.ReaderAt, size int64) (rdr *pdf.Reader, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			rdr, err = nil, &common.MalformedInputError{Err: fmt.Errorf("%v", rec)}
		}
	}()

	rdr, err = pdf.NewReader(r, size)
	if err != nil {
		return nil, &common.MalformedInputError{Err: err}
	}
	return rdr, nil
}

// Mark watermarks the document read by rdr from input into output.
func Mark(input io.ReadSeeker, output io.Writer, rdr *pdf.Reader, data MarkData) error {
	context := MarkContext{
		PDFReader:  rdr,
		InputFile:  input,
		OutputFile: output,
		MarkData:   data,
	}
	return context.MarkPDF()
}

// MarkPDF synthesizes the watermark for every page and, only when all pages
// succeeded, writes the updated document to OutputFile.
func (context *MarkContext) MarkPDF() (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = &common.DocumentError{Msg: "failed to read document structure", Err: fmt.Errorf("%v", rec)}
		}
	}()

	if err := context.MarkData.Params.Validate(); err != nil {
		return err
	}

	trailer := context.PDFReader.Trailer()
	if !trailer.Key("Encrypt").IsNull() {
		return &common.DocumentError{Msg: "encrypted documents are not supported"}
	}
	if context.PDFReader.NumPage() < 1 {
		return &common.DocumentError{Msg: "document has no pages"}
	}

	// Reset state that accumulates while writing.
	context.newXrefEntries = nil
	context.updatedXrefEntries = nil
	context.NewXrefStart = 0
	context.PagesMarked = 0
	context.lastXrefID, err = lastObjectID(context.PDFReader)
	if err != nil {
		return err
	}

	context.OutputBuffer = filebuffer.New([]byte{})

	// Copy old file into new buffer.
	if _, err := context.InputFile.Seek(0, 0); err != nil {
		return err
	}
	if _, err := io.Copy(context.OutputBuffer, context.InputFile); err != nil {
		return err
	}

	// File always needs an empty line after %%EOF.
	if _, err := context.OutputBuffer.Write([]byte("\n")); err != nil {
		return err
	}

	shared := context.reserveShared()
	watermark := render.FromParams(context.MarkData.Params)

	plans, err := context.planPages(watermark, shared)
	if err != nil {
		return err
	}

	if err := context.writeShared(shared); err != nil {
		return err
	}

	for _, plan := range plans {
		if err := context.writePage(plan); err != nil {
			return fmt.Errorf("failed to write page %d: %w", plan.number, err)
		}
		context.PagesMarked++
	}

	if err := context.writeXref(); err != nil {
		return fmt.Errorf("failed to write xref: %w", err)
	}

	if err := context.writeTrailer(); err != nil {
		return fmt.Errorf("failed to write trailer: %w", err)
	}

	if _, err := context.OutputFile.Write(context.OutputBuffer.Buff.Bytes()); err != nil {
		return err
	}

	return nil
}

// lastObjectID returns the highest object number in use according to the
// trailer and the cross-reference information.
func lastObjectID(rdr *pdf.Reader) (uint32, error) {
	size := rdr.Trailer().Key("Size").Int64()
	if count := rdr.XrefInformation.ItemCount; count > size {
		size = count
	}
	if size < 1 || size > 1<<31 {
		return 0, &common.DocumentError{Msg: fmt.Sprintf("invalid trailer /Size %d", size)}
	}
	return uint32(size - 1), nil
}
