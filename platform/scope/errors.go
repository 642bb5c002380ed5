package scope

import "errors"

var (
	ErrRowOutOfRange     = errors.New("row index out of range")
	ErrColumnLength      = errors.New("column length differs from row count")
	ErrDuplicateVariable = errors.New("duplicate variable name")
	ErrNotText           = errors.New("JSON variable is not a text column")
)
