package fonts

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStandard(t *testing.T) {
	f := Standard(Helvetica)
	assert.Equal(t, "Helvetica", f.Name)
	assert.Equal(t, "Type1", f.Subtype)
	assert.Equal(t, "WinAnsiEncoding", f.Encoding)
}

func TestTextWidth(t *testing.T) {
	tests := []struct {
		text     string
		fontSize float64
		want     float64
	}{
		{"", 12, 0},
		{"x", 100, 50},
		{"CONFIDENTIAL", 10, (72 + 78 + 72 + 61 + 28 + 72 + 67 + 72 + 61 + 28 + 67 + 56) * 10 / 100.0},
		{"      ", 20, 6 * 28 * 20 / 100.0},
		{"@W", 1, 1.96},
		{"€ü", 100, 100}, // both fall back to the width of 'x'
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, TextWidth(tt.text, tt.fontSize), 1e-9, "TextWidth(%q, %v)", tt.text, tt.fontSize)
	}
}

func TestTextWidthTotal(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 500; i++ {
		runes := make([]rune, rng.Intn(40))
		for j := range runes {
			runes[j] = rune(rng.Intn(0x3000))
		}
		w := TextWidth(string(runes), 12)
		assert.GreaterOrEqual(t, w, 0.0)
	}
}

func TestTextWidthLinear(t *testing.T) {
	text := "Draft - do not distribute {2024}"
	base := TextWidth(text, 1)
	for _, k := range []float64{0.5, 2, 7, 48, 300} {
		assert.InDelta(t, k*base, TextWidth(text, k), 1e-9)
	}
}

func TestGlyphWidthFallback(t *testing.T) {
	assert.Equal(t, GlyphWidth('x'), GlyphWidth('é'))
	assert.Equal(t, 102, GlyphWidth('@'))
	assert.Equal(t, 22, GlyphWidth('i'))
}

func TestEncode(t *testing.T) {
	assert.Equal(t, []byte("Hello"), Encode("Hello"))
	assert.Equal(t, []byte{0x80, 0xe9}, Encode("€é"))
	assert.Equal(t, []byte("a?b"), Encode("a世b"))
	assert.Empty(t, Encode(""))
}
