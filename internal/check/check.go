// Package check reports violated structural invariants.
//
// A failed check is never recovered by the library: shapes and call order are
// fixed by how a network is wired, so continuing would only produce garbage.
// The panic value is an *Error that wraps a package sentinel, which lets tests
// (and the rare caller that wants to) recover and inspect it with errors.Is.
package check

import (
	"fmt"
	"path/filepath"
	"runtime"
)

// Error is the panic value raised by Failf.
type Error struct {
	Err  error
	Msg  string
	File string
	Line int
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s:%d: %v: %s", e.File, e.Line, e.Err, e.Msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Failf panics with an *Error wrapping err. The reported location is the
// caller of Failf.
func Failf(err error, format string, args ...any) {
	panic(newError(2, err, format, args...))
}

// That panics like Failf when cond is false.
func That(cond bool, err error, format string, args ...any) {
	if !cond {
		panic(newError(2, err, format, args...))
	}
}

func newError(skip int, err error, format string, args ...any) *Error {
	e := &Error{Err: err, Msg: fmt.Sprintf(format, args...), File: "?"}
	if _, file, line, ok := runtime.Caller(skip); ok {
		e.File = filepath.Base(file)
		e.Line = line
	}
	return e
}
