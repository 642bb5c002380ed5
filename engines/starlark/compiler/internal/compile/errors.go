package compile

import "errors"

var (
	ErrCompileFailed = errors.New("failed to compile starlark expression")
	ErrContentEmpty  = errors.New("starlark expression is empty")
)
