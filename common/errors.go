package common

import "fmt"

// ParamError reports an invalid request parameter.
type ParamError struct {
	Field string
	Msg   string
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Msg)
}

// MalformedInputError indicates that the input could not be parsed as a PDF
// document at all. It is the caller's fault.
type MalformedInputError struct {
	Err error
}

func (e *MalformedInputError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed PDF: %v", e.Err)
	}
	return "malformed PDF"
}

func (e *MalformedInputError) Unwrap() error {
	return e.Err
}

// DocumentError indicates that a parsed document could not be watermarked,
// for example because a page has no usable size box.
type DocumentError struct {
	Msg string
	Err error
}

func (e *DocumentError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *DocumentError) Unwrap() error {
	return e.Err
}
