package testpdf

import (
	"bytes"
	"testing"

	"github.com/digitorus/pdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func open(t *testing.T, data []byte) *pdf.Reader {
	t.Helper()
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	return r
}

func TestDocumentReadable(t *testing.T) {
	doc := Document{
		InheritedMediaBox: Letter,
		Pages: []Page{
			{Contents: []string{"0 0 m 10 10 l S"}},
			{MediaBox: []float64{0, 0, 300, 300}, Contents: []string{"q", "Q"}},
			{},
		},
	}

	for _, stream := range []bool{false, true} {
		doc.XrefStream = stream
		r := open(t, doc.Bytes())

		assert.Equal(t, 3, r.NumPage(), "xref stream: %v", stream)
		assert.Equal(t, pdf.Array, r.Page(2).V.Key("Contents").Kind())
		assert.Equal(t, "Helvetica", r.Page(1).V.Key("Resources").Key("Font").Key("F1").Key("BaseFont").Name())
		assert.True(t, r.Page(3).V.Key("Contents").IsNull())
	}
}

func TestSample(t *testing.T) {
	r := open(t, Sample())
	require.Equal(t, 1, r.NumPage())
	assert.Equal(t, 2, r.Page(1).V.Key("Contents").Len())
	assert.Equal(t, int64(396), r.Page(1).V.Key("MediaBox").Index(3).Int64())
}

func TestSimple(t *testing.T) {
	r := open(t, Simple())
	assert.Equal(t, 1, r.NumPage())
}
