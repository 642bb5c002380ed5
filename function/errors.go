package function

import "errors"

var (
	ErrNilConfig         = errors.New("function requires a config")
	ErrNilHost           = errors.New("extension requires a host")
	ErrAlreadyRegistered = errors.New("function already registered")
	ErrNotRegistered     = errors.New("function not registered")
	ErrExprColumn        = errors.New("first argument must be a utf8 expression column")
)
