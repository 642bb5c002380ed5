package compiler

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/robbyt/go-evalexpr/internal/helpers"
	"github.com/robbyt/go-evalexpr/platform/script"
)

// FunctionalOption is a function that configures a Compiler instance
type FunctionalOption func(*Compiler) error

// WithVariables sets the names bound from the input columns, in column order.
func WithVariables(names ...string) FunctionalOption {
	return func(c *Compiler) error {
		c.variables = slices.Clone(names)
		return nil
	}
}

// WithLimits sets the per-row limits. Risor has no step counter, so only the
// row timeout is enforced.
func WithLimits(limits script.Limits) FunctionalOption {
	return func(c *Compiler) error {
		if limits.RowTimeout < 0 {
			return fmt.Errorf("row timeout cannot be negative: %s", limits.RowTimeout)
		}
		c.limits = limits
		return nil
	}
}

// WithLogHandler creates an option to set the log handler for Risor compiler.
func WithLogHandler(handler slog.Handler) FunctionalOption {
	return func(c *Compiler) error {
		if handler == nil {
			return fmt.Errorf("log handler cannot be nil")
		}
		c.logHandler = handler
		c.logger = nil
		return nil
	}
}

// WithLogger creates an option to set a specific logger for Risor compiler.
func WithLogger(logger *slog.Logger) FunctionalOption {
	return func(c *Compiler) error {
		if logger == nil {
			return fmt.Errorf("logger cannot be nil")
		}
		c.logger = logger
		c.logHandler = nil
		return nil
	}
}

func (c *Compiler) setupLogger() {
	if c.logger != nil {
		c.logHandler = c.logger.Handler()
	} else {
		c.logHandler, c.logger = helpers.SetupLogger(c.logHandler, "risor", "Compiler")
	}
}

// validate checks if the compiler configuration is valid
func (c *Compiler) validate() error {
	seen := make(map[string]struct{}, len(c.variables))
	for _, n := range c.variables {
		if _, ok := seen[n]; ok {
			return fmt.Errorf("%w: %q", ErrDuplicateName, n)
		}
		seen[n] = struct{}{}
	}
	return nil
}
