package errdef

import (
	"errors"
	"fmt"
)

type Code string

const (
	CodeUnknown    Code = "unknown"
	CodeParse      Code = "parse"
	CodeTemplate   Code = "template"
	CodeHTTP       Code = "http"
	CodeFilesystem Code = "filesystem"
	CodeStorage    Code = "storage"
	CodeHistory    Code = "history"
)

type Error struct {
	Kind Code
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return e.Msg
	}
	if e.Msg == "" {
		return e.Err.Error()
	}
	return e.Msg + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func New(code Code, format string, args ...interface{}) *Error {
	return &Error{Kind: code, Msg: fmt.Sprintf(format, args...)}
}

func Wrap(code Code, err error, format string, args ...interface{}) *Error {
	return &Error{Kind: code, Msg: fmt.Sprintf(format, args...), Err: err}
}

// CodeOf walks the chain looking for the first classified error.
func CodeOf(err error) Code {
	var typed *Error
	if errors.As(err, &typed) {
		return typed.Kind
	}
	return CodeUnknown
}

// Message returns the outermost classified message without the
// wrapped cause, falling back to err.Error().
func Message(err error) string {
	var typed *Error
	if errors.As(err, &typed) && typed.Msg != "" {
		return typed.Msg
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
