package mark

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/digitorus/pdfmark/internal/pdf"
)

const xrefStreamColumns = 6 // Column width (1+4+1)

func (context *MarkContext) writeXref() error {
	sort.Slice(context.updatedXrefEntries, func(i, j int) bool {
		return context.updatedXrefEntries[i].ID < context.updatedXrefEntries[j].ID
	})

	switch context.PDFReader.XrefInformation.Type {
	case "table":
		context.NewXrefStart = int64(context.OutputBuffer.Buff.Len())
		return context.writeIncrXrefTable()
	case "stream":
		return context.writeXrefStream()
	default:
		return errors.New("unknown xref type: " + context.PDFReader.XrefInformation.Type)
	}
}

// writeIncrXrefTable writes the incremental cross-reference table to the output buffer.
func (context *MarkContext) writeIncrXrefTable() error {
	// Write xref header
	if _, err := context.OutputBuffer.Write([]byte("xref\n")); err != nil {
		return fmt.Errorf("failed to write incremental xref header: %w", err)
	}

	// Write updated entries
	for _, entry := range context.updatedXrefEntries {
		pageXrefObj := fmt.Sprintf("%d %d\n", entry.ID, 1)
		if _, err := context.OutputBuffer.Write([]byte(pageXrefObj)); err != nil {
			return fmt.Errorf("failed to write updated xref object: %w", err)
		}

		xrefLine := fmt.Sprintf("%010d %05d n\r\n", entry.Offset, entry.Gen)
		if _, err := context.OutputBuffer.Write([]byte(xrefLine)); err != nil {
			return fmt.Errorf("failed to write updated incremental xref entry: %w", err)
		}
	}

	// Write xref subsection header
	startXrefObj := fmt.Sprintf("%d %d\n", context.lastXrefID+1, len(context.newXrefEntries))
	if _, err := context.OutputBuffer.Write([]byte(startXrefObj)); err != nil {
		return fmt.Errorf("failed to write starting xref object: %w", err)
	}

	// Write new entries
	for _, entry := range context.newXrefEntries {
		xrefLine := fmt.Sprintf("%010d 00000 n\r\n", entry.Offset)
		if _, err := context.OutputBuffer.Write([]byte(xrefLine)); err != nil {
			return fmt.Errorf("failed to write incremental xref entry: %w", err)
		}
	}

	return nil
}

// writeXrefStream writes the cross-reference stream to the output buffer.
// The stream object lists itself.
func (context *MarkContext) writeXrefStream() error {
	id := context.reserveObject()
	context.NewXrefStart = int64(context.OutputBuffer.Buff.Len())
	context.newXrefEntries[len(context.newXrefEntries)-1].Offset = context.NewXrefStart

	var buffer bytes.Buffer
	writeXrefStreamEntries(&buffer, context)

	streamBytes, err := encodeXrefStream(buffer.Bytes())
	if err != nil {
		return fmt.Errorf("failed to encode xref stream: %w", err)
	}

	var xrefStreamObject bytes.Buffer

	if err := writeXrefStreamHeader(&xrefStreamObject, context, len(streamBytes)); err != nil {
		return fmt.Errorf("failed to write xref stream header: %w", err)
	}

	if err := writeXrefStreamContent(&xrefStreamObject, streamBytes); err != nil {
		return fmt.Errorf("failed to write xref stream content: %w", err)
	}

	if err := context.writeObject(id, xrefStreamObject.Bytes()); err != nil {
		return fmt.Errorf("failed to add xref stream object: %w", err)
	}

	return nil
}

// writeXrefStreamEntries writes the individual entries for the xref stream.
func writeXrefStreamEntries(buffer *bytes.Buffer, context *MarkContext) {
	// Write updated entries first
	for _, entry := range context.updatedXrefEntries {
		writeXrefStreamLine(buffer, 1, entry.Offset, byte(entry.Gen))
	}

	// Write new entries
	for _, entry := range context.newXrefEntries {
		writeXrefStreamLine(buffer, 1, entry.Offset, 0)
	}
}

// encodeXrefStream compresses the xref stream with FlateDecode and no predictor.
func encodeXrefStream(data []byte) ([]byte, error) {
	var b bytes.Buffer
	w := zlib.NewWriter(&b)
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

// writeXrefStreamHeader writes the header for the xref stream.
func writeXrefStreamHeader(buffer *bytes.Buffer, context *MarkContext, streamLength int) error {
	trailer := context.PDFReader.Trailer()

	var indexArray []uint32
	for _, entry := range context.updatedXrefEntries {
		indexArray = append(indexArray, entry.ID, 1)
	}
	if len(context.newXrefEntries) > 0 {
		indexArray = append(indexArray, context.lastXrefID+1, uint32(len(context.newXrefEntries)))
	}

	buffer.WriteString("<< /Type /XRef\n")
	fmt.Fprintf(buffer, "  /Length %d\n", streamLength)
	buffer.WriteString("  /Filter /FlateDecode\n")
	buffer.WriteString("  /W [ 1 4 1 ]\n")
	fmt.Fprintf(buffer, "  /Prev %d\n", context.PDFReader.XrefInformation.StartPos)
	fmt.Fprintf(buffer, "  /Size %d\n", context.newSize())

	buffer.WriteString("  /Index [")
	for _, idx := range indexArray {
		fmt.Fprintf(buffer, " %d", idx)
	}
	buffer.WriteString(" ]\n")

	fmt.Fprintf(buffer, "  /Root %s\n", pdf.RefOf(trailer.Key("Root")))
	if info := trailer.Key("Info"); !info.IsNull() {
		fmt.Fprintf(buffer, "  /Info %s\n", pdf.RefOf(info))
	}
	writeID(buffer, context)

	buffer.WriteString(">>")
	return nil
}

func writeID(buffer *bytes.Buffer, context *MarkContext) {
	id := context.PDFReader.Trailer().Key("ID")
	if id.Len() != 2 {
		return
	}
	id0 := hex.EncodeToString([]byte(id.Index(0).RawString()))
	id1 := hex.EncodeToString([]byte(id.Index(1).RawString()))
	fmt.Fprintf(buffer, "  /ID [<%s><%s>]\n", id0, id1)
}

// writeXrefStreamContent writes the content of the xref stream.
func writeXrefStreamContent(buffer *bytes.Buffer, streamBytes []byte) error {
	if _, err := io.WriteString(buffer, "\nstream\n"); err != nil {
		return err
	}

	if _, err := buffer.Write(streamBytes); err != nil {
		return err
	}

	if _, err := io.WriteString(buffer, "\nendstream"); err != nil {
		return err
	}

	return nil
}

// writeXrefStreamLine writes a single line in the xref stream.
func writeXrefStreamLine(b *bytes.Buffer, xreftype byte, offset int64, gen byte) {
	// Write type (1 byte)
	b.WriteByte(xreftype)

	// Write offset (4 bytes)
	offsetBytes := make([]byte, 4)
	binary.BigEndian.PutUint32(offsetBytes, uint32(offset))
	b.Write(offsetBytes)

	// Write generation (1 byte)
	b.WriteByte(gen)
}

// newSize is the /Size of the updated document.
func (context *MarkContext) newSize() int64 {
	return int64(context.lastXrefID) + 1 + int64(len(context.newXrefEntries))
}
