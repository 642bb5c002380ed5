package options

import (
	"log/slog"
	"os"

	"github.com/robbyt/go-evalexpr/engines/types"
	"github.com/robbyt/go-evalexpr/platform/cache"
)

const (
	DefaultFunctionName    = "evalexpr"
	DefaultOperationBudget = 1_000_000

	// ReturnTypeJSON declares a utf8 result holding one JSON document per row.
	ReturnTypeJSON = "json"
)

// DefaultConfig initializes a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		handler:         DefaultHandler(),
		functionName:    DefaultFunctionName,
		dialect:         types.Starlark,
		variables:       []string{},
		returnTypeName:  ReturnTypeJSON,
		cacheMode:       cache.Unbounded,
		operationBudget: DefaultOperationBudget,
		nullPropagation: true,
		errorMode:       ErrorModeFail,
	}
}

// DefaultHandler returns the default logging handler
func DefaultHandler() slog.Handler {
	return slog.NewTextHandler(os.Stdout, nil)
}

// WithDefaults applies default values to any config properties that are unset
func WithDefaults() Option {
	return func(c *Config) error {
		d := DefaultConfig()
		if c.handler == nil {
			c.handler = d.handler
		}
		if c.functionName == "" {
			c.functionName = d.functionName
		}
		if c.dialect == "" {
			c.dialect = d.dialect
		}
		if c.variables == nil {
			c.variables = d.variables
		}
		if c.returnTypeName == "" {
			c.returnTypeName = d.returnTypeName
		}
		if c.cacheMode == "" {
			c.cacheMode = d.cacheMode
		}
		if c.errorMode == "" {
			c.errorMode = d.errorMode
		}
		return nil
	}
}
