package isolate

import (
	"errors"

	"github.com/digitorus/pdfmark/common"
)

// Exit codes of the worker process.
const (
	ExitOK        = 0
	ExitFailure   = 1
	ExitMalformed = 2
)

// Kind classifies how an isolated run ended.
type Kind int

const (
	Success Kind = iota
	Timeout
	MalformedInput
	InternalFailure
)

func (k Kind) String() string {
	switch k {
	case Success:
		return "success"
	case Timeout:
		return "timeout"
	case MalformedInput:
		return "malformed input"
	case InternalFailure:
		return "internal failure"
	default:
		return "unknown"
	}
}

// Outcome is the result of Boundary.Execute.
type Outcome struct {
	Kind Kind
	// Output holds the watermarked document on Success.
	Output []byte
	// Detail is the diagnostic of a failed run. It may contain text
	// produced while parsing untrusted input.
	Detail string
}

// ErrTimeout is returned by Outcome.Err when the worker ran out of time.
var ErrTimeout = errors.New("processing time limit exceeded")

// InternalFailureError reports a worker that failed for a reason other than
// malformed input.
type InternalFailureError struct {
	Detail string
}

func (e *InternalFailureError) Error() string {
	return "internal failure: " + e.Detail
}

// Err converts the outcome to an error, nil on Success.
func (o Outcome) Err() error {
	switch o.Kind {
	case Success:
		return nil
	case Timeout:
		return ErrTimeout
	case MalformedInput:
		return &common.MalformedInputError{}
	default:
		return &InternalFailureError{Detail: o.Detail}
	}
}
