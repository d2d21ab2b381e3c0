// Package errors wraps errors with the location where they are wrapped.
//
//	err = xe.Wrap(err)
//
// Messages of wrapped errors look like
//
//	@ pkg.Func "file.go" l12 (note) <- cause
//
// so that the chain of locations can be read by splitting on "<-".
package errors

import (
	"fmt"
	"runtime"
)

// Located is an error knowing where it is wrapped.
type Located struct {
	file     string
	line     int
	funcname string
	note     string
	err      error
}

func (e *Located) File() string {
	return e.file
}

func (e *Located) Line() int {
	return e.line
}

func (e *Located) Func() string {
	return e.funcname
}

func (e *Located) Error() string {
	if e.note == "" {
		return fmt.Sprintf(`@ %s "%s" l%d <- %s`, e.funcname, e.file, e.line, e.err)
	}
	return fmt.Sprintf(`@ %s "%s" l%d (%s) <- %s`, e.funcname, e.file, e.line, e.note, e.err)
}

func (e *Located) Unwrap() error {
	return e.err
}

// Wrap marks the caller on err.
func Wrap(err error) error {
	return locate("", err, 1)
}

// WrapWithNote is Wrap with a note on the location.
func WrapWithNote(note string, err error) error {
	return locate(note, err, 1)
}

func locate(note string, err error, depth int) error {
	if err == nil {
		return nil
	}
	e := &Located{funcname: "(unknown func)", file: "?", line: -1, note: note, err: err}
	pc, file, line, ok := runtime.Caller(depth + 1)
	if !ok {
		return e
	}
	e.file, e.line = file, line
	if fn := runtime.FuncForPC(pc); fn != nil {
		e.funcname = fn.Name()
	}
	return e
}
