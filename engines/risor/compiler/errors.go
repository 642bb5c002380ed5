package compiler

import "errors"

var (
	ErrDuplicateName        = errors.New("duplicate variable name")
	ErrExecCreationFailed   = errors.New("unable to create risor executable")
	ErrStatefulNotSupported = errors.New("stateful scripts are not supported by risor")
)
