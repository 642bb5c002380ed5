package bridge

import "errors"

var (
	ErrUnknownTypeName = errors.New("unknown type name")
	ErrInvalidUTF8     = errors.New("invalid UTF-8 in string value")
	ErrWidthMismatch   = errors.New("fixed-size binary width mismatch")
)
