package value

import "errors"

var (
	ErrUnsupportedGoType = errors.New("unsupported Go type for dynamic value")
	ErrInvalidNumber     = errors.New("invalid JSON number")
	ErrNotJSON           = errors.New("value is not representable as JSON")
)
