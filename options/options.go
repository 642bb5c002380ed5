// Package options configures one registered expression function.
package options

import (
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/robbyt/go-evalexpr/engines/types"
	"github.com/robbyt/go-evalexpr/platform/cache"
	"github.com/robbyt/go-evalexpr/platform/script"
)

// ErrorMode selects how row errors reach the host.
type ErrorMode string

const (
	// ErrorModeFail fails the call with every row error combined.
	ErrorModeFail ErrorMode = "fail"
	// ErrorModeNull turns row errors into NULL results.
	ErrorModeNull ErrorMode = "null"
	// ErrorModeEnvelope returns a struct column {ok, error} per row.
	ErrorModeEnvelope ErrorMode = "envelope"
)

// ParseErrorMode returns the ErrorMode with the given name.
func ParseErrorMode(name string) (ErrorMode, error) {
	switch m := ErrorMode(name); m {
	case ErrorModeFail, ErrorModeNull, ErrorModeEnvelope:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownErrorMode, name)
	}
}

// Config holds the configuration of one expression function.
type Config struct {
	handler      slog.Handler
	registerer   prometheus.Registerer
	functionName string
	dialect      types.Type

	// variables are bound to the input columns after the expression column
	variables     []string
	jsonVariables []string

	returnTypeName string
	returnType     arrow.DataType

	cacheMode     cache.Mode
	cacheCapacity int

	operationBudget uint64
	rowTimeout      time.Duration
	allowStateful   bool
	nullPropagation bool
	errorMode       ErrorMode
}

// Option is a function that modifies Config
type Option func(*Config) error

// New returns a validated Config built from DefaultConfig and opts.
func New(opts ...Option) (*Config, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, fmt.Errorf("error applying option: %w", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// WithLogHandler sets the log handler shared by every component of the function.
func WithLogHandler(handler slog.Handler) Option {
	return func(c *Config) error {
		if handler != nil {
			c.handler = handler
		}
		return nil
	}
}

// WithRegisterer sets where the function metrics are registered.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(c *Config) error {
		c.registerer = reg
		return nil
	}
}

// WithFunctionName sets the name the function is registered under.
func WithFunctionName(name string) Option {
	return func(c *Config) error {
		c.functionName = name
		return nil
	}
}

// WithDialect sets the scripting dialect by name.
func WithDialect(name string) Option {
	return func(c *Config) error {
		t, err := types.Parse(name)
		if err != nil {
			return err
		}
		c.dialect = t
		return nil
	}
}

// WithVariables sets the variable names bound to the argument columns that
// follow the expression column, in order.
func WithVariables(names ...string) Option {
	return func(c *Config) error {
		c.variables = slices.Clone(names)
		return nil
	}
}

// WithJSONVariables marks declared variables whose text is decoded as JSON
// before binding.
func WithJSONVariables(names ...string) Option {
	return func(c *Config) error {
		c.jsonVariables = slices.Clone(names)
		return nil
	}
}

// WithReturnType sets the declared return type by name, such as "int64",
// "utf8" or "json".
func WithReturnType(name string) Option {
	return func(c *Config) error {
		c.returnTypeName = name
		return nil
	}
}

// WithCache sets the expression cache mode and, for LRU, its capacity.
func WithCache(mode string, capacity int) Option {
	return func(c *Config) error {
		m, err := cache.ParseMode(mode)
		if err != nil {
			return err
		}
		c.cacheMode = m
		c.cacheCapacity = capacity
		return nil
	}
}

// WithOperationBudget sets the maximum engine steps per row; 0 disables it.
func WithOperationBudget(steps uint64) Option {
	return func(c *Config) error {
		c.operationBudget = steps
		return nil
	}
}

// WithRowTimeout sets the wall-clock budget per row; 0 disables it.
func WithRowTimeout(d time.Duration) Option {
	return func(c *Config) error {
		if d < 0 {
			return fmt.Errorf("row timeout cannot be negative: %s", d)
		}
		c.rowTimeout = d
		return nil
	}
}

// WithStatefulScripts allows expressions to keep state across the rows of one
// evaluation call.
func WithStatefulScripts(allowed bool) Option {
	return func(c *Config) error {
		c.allowStateful = allowed
		return nil
	}
}

// WithNullPropagation controls whether runtime errors on rows with NULL inputs
// yield NULL.
func WithNullPropagation(enabled bool) Option {
	return func(c *Config) error {
		c.nullPropagation = enabled
		return nil
	}
}

// WithErrorMode sets how row errors are reported.
func WithErrorMode(mode string) Option {
	return func(c *Config) error {
		m, err := ParseErrorMode(mode)
		if err != nil {
			return err
		}
		c.errorMode = m
		return nil
	}
}

// GetHandler returns the configured log handler
func (c *Config) GetHandler() slog.Handler { return c.handler }

// GetRegisterer returns the metrics registerer, which may be nil.
func (c *Config) GetRegisterer() prometheus.Registerer { return c.registerer }

// GetFunctionName returns the registered function name
func (c *Config) GetFunctionName() string { return c.functionName }

// GetDialect returns the scripting dialect
func (c *Config) GetDialect() types.Type { return c.dialect }

// GetVariables returns the declared variable names
func (c *Config) GetVariables() []string { return slices.Clone(c.variables) }

// GetJSONVariables returns the variables decoded from JSON text
func (c *Config) GetJSONVariables() []string { return slices.Clone(c.jsonVariables) }

// GetReturnTypeName returns the declared return type name
func (c *Config) GetReturnTypeName() string { return c.returnTypeName }

// GetReturnType returns the Arrow type of the result column. It is set by
// Validate; JSON results are utf8.
func (c *Config) GetReturnType() arrow.DataType { return c.returnType }

// ReturnsJSON reports whether results are encoded as JSON documents.
func (c *Config) ReturnsJSON() bool { return c.returnTypeName == ReturnTypeJSON }

// GetCacheMode returns the cache mode and capacity
func (c *Config) GetCacheMode() (cache.Mode, int) { return c.cacheMode, c.cacheCapacity }

// GetLimits returns the per-row limits
func (c *Config) GetLimits() script.Limits {
	return script.Limits{OperationBudget: c.operationBudget, RowTimeout: c.rowTimeout}
}

// StatefulScripts reports whether stateful scripts are allowed
func (c *Config) StatefulScripts() bool { return c.allowStateful }

// NullPropagation reports whether null propagation is enabled
func (c *Config) NullPropagation() bool { return c.nullPropagation }

// GetErrorMode returns the error mode
func (c *Config) GetErrorMode() ErrorMode { return c.errorMode }
