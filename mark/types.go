package mark

import (
	"io"

	"github.com/digitorus/pdf"
	"github.com/mattetti/filebuffer"

	"github.com/digitorus/pdfmark/common"
)

// MarkData configures one watermarking run.
type MarkData struct {
	Params common.Params

	// CompressLevel determines compression level (zlib) for stream objects.
	CompressLevel int
}

type xrefEntry struct {
	ID     uint32
	Gen    uint16
	Offset int64
}

// MarkContext holds the state of a watermarking run. The input is copied
// to OutputBuffer and new objects are appended as an incremental update.
type MarkContext struct {
	InputFile    io.ReadSeeker
	OutputFile   io.Writer
	OutputBuffer *filebuffer.Buffer
	MarkData     MarkData
	PDFReader    *pdf.Reader
	NewXrefStart int64

	// PagesMarked counts the pages that received a watermark.
	PagesMarked int

	lastXrefID         uint32
	newXrefEntries     []xrefEntry
	updatedXrefEntries []xrefEntry
}
