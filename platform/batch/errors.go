package batch

import "errors"

var (
	ErrNilCache         = errors.New("cache is nil")
	ErrNilWriterFactory = errors.New("writer factory is nil")
	ErrExprColumn       = errors.New("expression column must be utf8 text")
	ErrCancelled        = errors.New("evaluation cancelled")
)
