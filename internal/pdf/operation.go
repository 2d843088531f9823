package pdf

import (
	"bytes"
	"encoding/hex"
	"math"
	"strconv"
	"strings"
)

// Operand is a content stream operand.
type Operand interface {
	appendPDF(b []byte) []byte
}

// Number is an integer or real operand.
type Number float64

// Name is a name operand, without the leading solidus.
type Name string

// String is a string operand. It is always written in hexadecimal form.
type String []byte

// Other stands for operand kinds that are read but never produced, such as
// arrays and dictionaries.
type Other struct{}

func (n Number) appendPDF(b []byte) []byte { return append(b, FormatNumber(float64(n))...) }
func (n Name) appendPDF(b []byte) []byte   { return appendName(b, string(n)) }
func (s String) appendPDF(b []byte) []byte {
	b = append(b, '<')
	b = append(b, hex.EncodeToString(s)...)
	return append(b, '>')
}
func (Other) appendPDF(b []byte) []byte { return append(b, "null"...) }

// Operation is a single content stream operator with its operands.
type Operation struct {
	Operator string
	Operands []Operand
}

// Op builds an Operation.
func Op(operator string, operands ...Operand) Operation {
	return Operation{Operator: operator, Operands: operands}
}

// Numbers returns the operands as float64 values. The second result is false
// if any operand is not a finite number.
func (op Operation) Numbers() ([]float64, bool) {
	out := make([]float64, len(op.Operands))
	for i, o := range op.Operands {
		n, ok := o.(Number)
		if !ok || math.IsNaN(float64(n)) || math.IsInf(float64(n), 0) {
			return nil, false
		}
		out[i] = float64(n)
	}
	return out, true
}

// EncodeOperations serializes ops as content stream bytes, one operation per
// line.
func EncodeOperations(ops []Operation) []byte {
	var buf bytes.Buffer
	var b []byte
	for _, op := range ops {
		b = b[:0]
		for _, o := range op.Operands {
			b = o.appendPDF(b)
			b = append(b, ' ')
		}
		b = append(b, op.Operator...)
		b = append(b, '\n')
		buf.Write(b)
	}
	return buf.Bytes()
}

const maxDecimals = 12

// FormatNumber formats v in fixed notation without trailing zeros. Values of
// magnitude one and above get five decimals, smaller values keep five
// significant digits down to 1e-12.
func FormatNumber(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "0"
	}
	decimals := 5
	if a := math.Abs(v); a > 0 && a < 1 {
		decimals += int(math.Floor(-math.Log10(a)))
		if decimals > maxDecimals {
			decimals = maxDecimals
		}
	}
	s := strconv.FormatFloat(v, 'f', decimals, 64)
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")
	if s == "-0" || s == "" {
		return "0"
	}
	return s
}

// appendName writes /name, escaping bytes outside the regular character set
// as #xx.
func appendName(b []byte, name string) []byte {
	b = append(b, '/')
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c < '!' || c > '~' || strings.IndexByte("#()<>[]{}/%", c) >= 0 {
			b = append(b, '#')
			b = append(b, "0123456789ABCDEF"[c>>4], "0123456789ABCDEF"[c&0xf])
			continue
		}
		b = append(b, c)
	}
	return b
}
