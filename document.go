// Package pdfmark places a tiled, rotated, semi-transparent text watermark
// across every page of a PDF document.
//
// Basic usage:
//
//	doc, err := pdfmark.OpenFile("document.pdf")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	doc.Watermark("CONFIDENTIAL").
//	    FontSize(36).
//	    Rotation(45)
//
//	result, err := doc.Write(output)
//	_ = doc.Close()
//
// The watermark is appended to each page as an incremental update, the
// original bytes of the document are left untouched.
package pdfmark

import (
	"compress/zlib"
	"fmt"
	"io"
	"os"

	pdflib "github.com/digitorus/pdf"

	"github.com/digitorus/pdfmark/mark"
)

// Document represents a PDF document that can be watermarked.
type Document struct {
	reader io.ReaderAt
	size   int64
	rdr    *pdflib.Reader

	// closer is the file opened by OpenFile.
	closer io.Closer

	// Staged operation
	pending *WatermarkBuilder

	// Document settings
	compressLevel int
	unit          float64
}

// Open initializes a PDF Document from an io.ReaderAt (e.g., an open file or memory buffer).
// The size parameter must be the total size of the PDF in bytes.
// Input that cannot be parsed is reported as *common.MalformedInputError.
func Open(reader io.ReaderAt, size int64) (*Document, error) {
	rdr, err := mark.NewReader(reader, size)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	return &Document{
		reader:        reader,
		size:          size,
		rdr:           rdr,
		compressLevel: zlib.DefaultCompression,
		unit:          Point,
	}, nil
}

// OpenFile is a convenience method to initialize a PDF Document from a file on disk.
// The file stays open until Close is called.
func OpenFile(path string) (*Document, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	finfo, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	doc, err := Open(file, finfo.Size())
	if err != nil {
		_ = file.Close()
		return nil, err
	}
	doc.closer = file
	return doc, nil
}

// Close releases the file opened by OpenFile. The document can not be
// written afterwards. Documents created with Open do not own their reader
// and Close does nothing for them.
func (d *Document) Close() error {
	if d.closer == nil {
		return nil
	}
	err := d.closer.Close()
	d.closer = nil
	return err
}

// SetCompression configures the zlib compression level for the watermark content streams.
// Supported levels are zlib.NoCompression, zlib.BestSpeed, zlib.BestCompression, or zlib.DefaultCompression.
func (d *Document) SetCompression(level int) {
	d.compressLevel = level
}

// SetUnit sets the unit of the watermark paddings for all subsequent
// watermarks on this document. By default, the unit is Point.
func (d *Document) SetUnit(u float64) {
	d.unit = u
}

// NumPages returns the number of pages in the document.
func (d *Document) NumPages() int {
	return d.rdr.NumPage()
}

// Reader returns the low-level PDF reader, allowing direct access to the PDF Cross-Reference (XRef) table and objects.
func (d *Document) Reader() *pdflib.Reader {
	return d.rdr
}
