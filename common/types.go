package common

import (
	"fmt"
	"math"
	"strings"
	"unicode"
)

// Params describes one watermark request. Lengths are PDF points and
// Rotation is in degrees.
type Params struct {
	Text     string  `json:"text"`
	FontSize float64 `json:"font_size"`
	PaddingW float64 `json:"padding_w"`
	PaddingH float64 `json:"padding_h"`
	Rotation float64 `json:"rot_deg"`

	// Hardened re-encrypts the output so it can be opened but not printed,
	// copied or annotated.
	Hardened bool `json:"hardened"`
}

// MaxTextLength bounds the watermark text in runes.
const MaxTextLength = 1024

// Validate checks that p can be used to synthesize a watermark.
func (p Params) Validate() error {
	if strings.TrimSpace(p.Text) == "" {
		return &ParamError{Field: "text", Msg: "must not be empty"}
	}
	if n := len([]rune(p.Text)); n > MaxTextLength {
		return &ParamError{Field: "text", Msg: fmt.Sprintf("must be at most %d characters, got %d", MaxTextLength, n)}
	}
	if strings.IndexFunc(p.Text, unicode.IsControl) >= 0 {
		return &ParamError{Field: "text", Msg: "must not contain control characters"}
	}
	if !finite(p.FontSize) || p.FontSize <= 0 {
		return &ParamError{Field: "font_size", Msg: "must be a positive number"}
	}
	if !finite(p.PaddingW) || p.PaddingW < 0 {
		return &ParamError{Field: "padding_w", Msg: "must be a non-negative number"}
	}
	if !finite(p.PaddingH) || p.PaddingH < 0 {
		return &ParamError{Field: "padding_h", Msg: "must be a non-negative number"}
	}
	if !finite(p.Rotation) {
		return &ParamError{Field: "rot_deg", Msg: "must be a finite number"}
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
