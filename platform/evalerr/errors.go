package evalerr

import "errors"

// Kind sentinels. Every *Error matches exactly one of these with errors.Is.
var (
	ErrConversion       = errors.New("conversion error")
	ErrCompile          = errors.New("compile error")
	ErrBind             = errors.New("bind error")
	ErrRuntime          = errors.New("runtime error")
	ErrResourceExceeded = errors.New("resource exceeded")
	ErrEngineFault      = errors.New("engine fault")
)

// Reasons carried as the cause of an *Error.
var (
	ErrUnsupportedType = errors.New("unsupported type")
	ErrArityMismatch   = errors.New("arity mismatch")
	ErrOverflow        = errors.New("value out of range")
	ErrTypeMismatch    = errors.New("type mismatch")
	ErrStepBudget      = errors.New("operation budget exhausted")
	ErrRowTimeout      = errors.New("row timeout exceeded")
)
