package compiler

import "errors"

var (
	ErrReservedName     = errors.New("variable name is reserved")
	ErrDuplicateName    = errors.New("duplicate variable name")
	ErrInvalidExecution = errors.New("invalid starlark executable")
)
