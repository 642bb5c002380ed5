package options

import "errors"

var (
	ErrInvalidName       = errors.New("invalid name")
	ErrReservedVariable  = errors.New("variable name is reserved")
	ErrDuplicateVariable = errors.New("duplicate variable name")
	ErrUnknownVariable   = errors.New("JSON variable is not a declared variable")
	ErrUnknownErrorMode  = errors.New("unknown error mode")
	ErrStatefulDialect   = errors.New("stateful scripts require the starlark dialect")
)
