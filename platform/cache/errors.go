package cache

import "errors"

var (
	ErrNilCompiler     = errors.New("cache requires a compiler")
	ErrInvalidCapacity = errors.New("lru capacity must be positive")
	ErrUnknownMode     = errors.New("unknown cache mode")
)
