package mark

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/digitorus/pdfmark/internal/pdf"
)

func (context *MarkContext) writeTrailer() error {
	if context.PDFReader.XrefInformation.Type == "table" {
		trailer := context.PDFReader.Trailer()

		var buf bytes.Buffer
		buf.WriteString("trailer\n<<\n")
		fmt.Fprintf(&buf, "  /Size %d\n", context.newSize())
		fmt.Fprintf(&buf, "  /Root %s\n", pdf.RefOf(trailer.Key("Root")))
		if info := trailer.Key("Info"); !info.IsNull() {
			fmt.Fprintf(&buf, "  /Info %s\n", pdf.RefOf(info))
		}
		fmt.Fprintf(&buf, "  /Prev %d\n", context.PDFReader.XrefInformation.StartPos)
		writeID(&buf, context)
		buf.WriteString(">>\n")

		// Write the new trailer.
		if _, err := context.OutputBuffer.Write(buf.Bytes()); err != nil {
			return err
		}
	}

	if _, err := context.OutputBuffer.Write([]byte("startxref\n")); err != nil {
		return err
	}

	// Write the new xref start position.
	if _, err := context.OutputBuffer.Write([]byte(strconv.FormatInt(context.NewXrefStart, 10) + "\n")); err != nil {
		return err
	}

	// Write PDF ending.
	if _, err := context.OutputBuffer.Write([]byte("%%EOF\n")); err != nil {
		return err
	}

	return nil
}
