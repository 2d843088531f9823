package pdf

import (
	"fmt"

	pdflib "github.com/digitorus/pdf"
)

// ReadContent parses every content stream of page, in order, into a single
// operation list. A page without /Contents yields no operations.
func ReadContent(page pdflib.Value) ([]Operation, error) {
	contents := page.Key("Contents")

	var streams []pdflib.Value
	switch contents.Kind() {
	case pdflib.Null:
		return nil, nil
	case pdflib.Stream:
		streams = append(streams, contents)
	case pdflib.Array:
		for i := 0; i < contents.Len(); i++ {
			if s := contents.Index(i); s.Kind() == pdflib.Stream {
				streams = append(streams, s)
			}
		}
	default:
		return nil, fmt.Errorf("unexpected /Contents of kind %v", contents.Kind())
	}

	var ops []Operation
	for _, s := range streams {
		if err := interpret(s, func(op Operation) { ops = append(ops, op) }); err != nil {
			return nil, err
		}
	}
	return ops, nil
}

// interpret runs the library's content interpreter over strm. The
// interpreter reports syntax errors by panicking, so those are recovered
// and returned.
func interpret(strm pdflib.Value, fn func(Operation)) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("content stream %d: %v", strm.GetPtr().GetID(), r)
		}
	}()

	pdflib.Interpret(strm, func(stk *pdflib.Stack, op string) {
		n := stk.Len()
		operands := make([]Operand, n)
		for i := n - 1; i >= 0; i-- {
			operands[i] = operandOf(stk.Pop())
		}
		fn(Operation{Operator: op, Operands: operands})
	})
	return nil
}

func operandOf(v pdflib.Value) Operand {
	switch v.Kind() {
	case pdflib.Integer, pdflib.Real:
		return Number(v.Float64())
	case pdflib.Name:
		return Name(v.Name())
	case pdflib.String:
		return String(v.RawString())
	default:
		return Other{}
	}
}
