// Package evalerr holds the error taxonomy shared by the bridge components.
//
// Kinds split into batch-level failures (compile, bind, engine fault), which
// abort a whole evaluation call, and row-level failures (conversion, runtime,
// resource exceeded), which only mark one result slot as failed.
package evalerr

import (
	"errors"
	"fmt"
	"strconv"
)

// Kind classifies an evaluation error.
type Kind uint8

const (
	KindConversion Kind = iota + 1
	KindCompile
	KindBind
	KindRuntime
	KindResourceExceeded
	KindEngineFault
)

// NoRow is the row index of errors that are not tied to a single row.
const NoRow = -1

func (k Kind) String() string {
	switch k {
	case KindConversion:
		return "conversion"
	case KindCompile:
		return "compile"
	case KindBind:
		return "bind"
	case KindRuntime:
		return "runtime"
	case KindResourceExceeded:
		return "resource_exceeded"
	case KindEngineFault:
		return "engine_fault"
	default:
		return "unknown(" + strconv.Itoa(int(k)) + ")"
	}
}

// BatchLevel reports whether errors of this kind abort the whole evaluation call.
func (k Kind) BatchLevel() bool {
	switch k {
	case KindCompile, KindBind, KindEngineFault:
		return true
	default:
		return false
	}
}

func (k Kind) sentinel() error {
	switch k {
	case KindConversion:
		return ErrConversion
	case KindCompile:
		return ErrCompile
	case KindBind:
		return ErrBind
	case KindRuntime:
		return ErrRuntime
	case KindResourceExceeded:
		return ErrResourceExceeded
	case KindEngineFault:
		return ErrEngineFault
	default:
		return nil
	}
}

// Error is a classified evaluation error with an optional row index.
type Error struct {
	Kind Kind
	Row  int
	Msg  string
	Err  error
}

// New returns an error of the given kind that is not tied to a row.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Row: NoRow, Msg: fmt.Sprintf(format, args...)}
}

// Wrap classifies err. The message is taken from err. If err already is an
// *Error it is returned unchanged.
func Wrap(kind Kind, err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{Kind: kind, Row: NoRow, Msg: err.Error(), Err: err}
}

// AtRow returns a copy of e bound to the given row.
func (e *Error) AtRow(row int) *Error {
	c := *e
	c.Row = row
	return &c
}

func (e *Error) Error() string {
	if e.Row == NoRow {
		return e.Kind.sentinel().Error() + ": " + e.Msg
	}
	return e.Kind.sentinel().Error() + " at row " + strconv.Itoa(e.Row) + ": " + e.Msg
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind.sentinel()}
	}
	return []error{e.Kind.sentinel(), e.Err}
}

// KindOf returns the kind of the first *Error in err's tree.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}
