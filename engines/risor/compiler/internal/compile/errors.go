package compile

import "errors"

var (
	ErrCompileFailed  = errors.New("failed to compile risor expression")
	ErrContentEmpty   = errors.New("risor expression is empty")
	ErrNoInstructions = errors.New("risor bytecode has zero instructions")
)
