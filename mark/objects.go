package mark

import (
	"bytes"
	"compress/zlib"
	"fmt"

	"github.com/digitorus/pdfmark/fonts"
	"github.com/digitorus/pdfmark/internal/pdf"
	"github.com/digitorus/pdfmark/internal/render"
)

// reserveObject allocates the next object number. Its offset is filled in
// when the object is written.
func (context *MarkContext) reserveObject() uint32 {
	id := context.lastXrefID + uint32(len(context.newXrefEntries)) + 1
	context.newXrefEntries = append(context.newXrefEntries, xrefEntry{ID: id, Offset: -1})
	return id
}

// writeObject writes a previously reserved object.
func (context *MarkContext) writeObject(id uint32, body []byte) error {
	idx := int(id) - int(context.lastXrefID) - 1
	if idx < 0 || idx >= len(context.newXrefEntries) {
		return fmt.Errorf("object %d was not reserved", id)
	}
	context.newXrefEntries[idx].Offset = int64(context.OutputBuffer.Buff.Len())
	return context.writeIndirect(pdf.Ref{ID: id}, body)
}

// AddObject appends a new object and returns its object number.
func (context *MarkContext) AddObject(body []byte) (uint32, error) {
	id := context.reserveObject()
	if err := context.writeObject(id, body); err != nil {
		return 0, err
	}
	return id, nil
}

// UpdateObject appends a new revision of an existing object.
func (context *MarkContext) UpdateObject(ref pdf.Ref, body []byte) error {
	context.updatedXrefEntries = append(context.updatedXrefEntries, xrefEntry{
		ID:     ref.ID,
		Gen:    ref.Gen,
		Offset: int64(context.OutputBuffer.Buff.Len()),
	})
	return context.writeIndirect(ref, body)
}

func (context *MarkContext) writeIndirect(ref pdf.Ref, body []byte) error {
	if _, err := fmt.Fprintf(context.OutputBuffer, "%d %d obj\n", ref.ID, ref.Gen); err != nil {
		return err
	}
	if _, err := context.OutputBuffer.Write(body); err != nil {
		return err
	}
	if _, err := context.OutputBuffer.Write([]byte("\nendobj\n")); err != nil {
		return err
	}
	return nil
}

// reserveShared allocates the font and graphics state objects used by every
// page.
func (context *MarkContext) reserveShared() render.Shared {
	return render.Shared{
		Font:      pdf.Ref{ID: context.reserveObject()},
		ExtGState: pdf.Ref{ID: context.reserveObject()},
	}
}

func (context *MarkContext) writeShared(shared render.Shared) error {
	font := fonts.Standard(fonts.Helvetica)
	fontDict := fmt.Sprintf("<< /Type /Font /Subtype /%s /BaseFont /%s /Encoding /%s >>", font.Subtype, font.Name, font.Encoding)
	if err := context.writeObject(shared.Font.ID, []byte(fontDict)); err != nil {
		return fmt.Errorf("failed to add font object: %w", err)
	}

	gsDict := fmt.Sprintf("<< /Type /ExtGState /ca %s >>", pdf.FormatNumber(render.FillAlpha))
	if err := context.writeObject(shared.ExtGState.ID, []byte(gsDict)); err != nil {
		return fmt.Errorf("failed to add graphics state object: %w", err)
	}
	return nil
}

// createContentStream encodes ops as a stream object, compressed unless
// CompressLevel is zlib.NoCompression.
func (context *MarkContext) createContentStream(ops []pdf.Operation) ([]byte, error) {
	// Separate from the tokens of the preceding content stream.
	data := append([]byte{'\n'}, pdf.EncodeOperations(ops)...)

	filter := ""
	if context.MarkData.CompressLevel != zlib.NoCompression {
		var buf bytes.Buffer
		zw, err := zlib.NewWriterLevel(&buf, context.MarkData.CompressLevel)
		if err != nil {
			return nil, err
		}
		if _, err := zw.Write(data); err != nil {
			return nil, err
		}
		if err := zw.Close(); err != nil {
			return nil, err
		}
		data = buf.Bytes()
		filter = " /Filter /FlateDecode"
	}

	var stream bytes.Buffer
	fmt.Fprintf(&stream, "<< /Length %d%s >>\nstream\n", len(data), filter)
	stream.Write(data)
	stream.WriteString("\nendstream")
	return stream.Bytes(), nil
}
