package pdf

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"math"
	"strconv"

	pdflib "github.com/digitorus/pdf"
)

// Ref is an indirect object reference.
type Ref struct {
	ID  uint32
	Gen uint16
}

func (r Ref) String() string {
	return fmt.Sprintf("%d %d R", r.ID, r.Gen)
}

// RefOf returns the reference of the object v was read from.
func RefOf(v pdflib.Value) Ref {
	ptr := v.GetPtr()
	return Ref{ID: uint32(ptr.GetID()), Gen: uint16(ptr.GetGen())}
}

// WriteName writes a name object.
func WriteName(buf *bytes.Buffer, name string) {
	buf.Write(appendName(nil, name))
}

// maxValueDepth bounds nesting of direct objects when serializing.
const maxValueDepth = 32

// WriteValue serializes v as it appears inside the object owner. Values that
// live in a different object are written as references, everything else is
// written inline.
func WriteValue(buf *bytes.Buffer, owner uint32, v pdflib.Value) {
	writeValue(buf, owner, v, 0)
}

func writeValue(buf *bytes.Buffer, owner uint32, v pdflib.Value, depth int) {
	if ref := RefOf(v); ref.ID != 0 && ref.ID != owner {
		buf.WriteString(ref.String())
		return
	}
	writeDirect(buf, owner, v, depth)
}

func writeDirect(buf *bytes.Buffer, owner uint32, v pdflib.Value, depth int) {
	if depth > maxValueDepth {
		buf.WriteString("null")
		return
	}

	switch v.Kind() {
	case pdflib.Bool:
		buf.WriteString(strconv.FormatBool(v.Bool()))
	case pdflib.Integer:
		buf.WriteString(strconv.FormatInt(v.Int64(), 10))
	case pdflib.Real:
		f := v.Float64()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			f = 0
		}
		buf.WriteString(strconv.FormatFloat(f, 'f', -1, 64))
	case pdflib.String:
		buf.WriteByte('<')
		buf.WriteString(hex.EncodeToString([]byte(v.RawString())))
		buf.WriteByte('>')
	case pdflib.Name:
		buf.Write(appendName(nil, v.Name()))
	case pdflib.Array:
		buf.WriteByte('[')
		for i := 0; i < v.Len(); i++ {
			if i > 0 {
				buf.WriteByte(' ')
			}
			writeValue(buf, owner, v.Index(i), depth+1)
		}
		buf.WriteByte(']')
	case pdflib.Dict:
		buf.WriteString("<<")
		for _, key := range v.Keys() {
			buf.WriteByte(' ')
			buf.Write(appendName(nil, key))
			buf.WriteByte(' ')
			writeValue(buf, owner, v.Key(key), depth+1)
		}
		buf.WriteString(" >>")
	default:
		// Null, and streams which can only be referenced.
		buf.WriteString("null")
	}
}
