package compiler

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/robbyt/go-evalexpr/engines/starlark/internal"
	"github.com/robbyt/go-evalexpr/internal/helpers"
	"github.com/robbyt/go-evalexpr/platform/script"
)

// FunctionalOption is a function that configures a Compiler instance
type FunctionalOption func(*Compiler) error

// WithVariables sets the names bound from the input columns, in column order.
func WithVariables(names ...string) FunctionalOption {
	return func(c *Compiler) error {
		for _, n := range names {
			if internal.IsReserved(n) {
				return fmt.Errorf("%w: %q", ErrReservedName, n)
			}
		}
		c.variables = slices.Clone(names)
		return nil
	}
}

// WithLimits sets the per-row step budget and wall-clock timeout.
func WithLimits(limits script.Limits) FunctionalOption {
	return func(c *Compiler) error {
		if limits.RowTimeout < 0 {
			return fmt.Errorf("row timeout cannot be negative: %s", limits.RowTimeout)
		}
		c.limits = limits
		return nil
	}
}

// WithStatefulScripts makes the state dict available to expressions. It
// persists across the rows of one evaluation call.
func WithStatefulScripts(enabled bool) FunctionalOption {
	return func(c *Compiler) error {
		c.stateful = enabled
		return nil
	}
}

// WithLogHandler creates an option to set the log handler for Starlark compiler.
func WithLogHandler(handler slog.Handler) FunctionalOption {
	return func(c *Compiler) error {
		if handler == nil {
			return fmt.Errorf("log handler cannot be nil")
		}
		c.logHandler = handler
		// Clear logger if handler is explicitly set
		c.logger = nil
		return nil
	}
}

// WithLogger creates an option to set a specific logger for Starlark compiler.
func WithLogger(logger *slog.Logger) FunctionalOption {
	return func(c *Compiler) error {
		if logger == nil {
			return fmt.Errorf("logger cannot be nil")
		}
		c.logger = logger
		// Clear handler if logger is explicitly set
		c.logHandler = nil
		return nil
	}
}

// setupLogger configures the logger and handler based on the current state.
func (c *Compiler) setupLogger() {
	if c.logger != nil {
		c.logHandler = c.logger.Handler()
	} else {
		c.logHandler, c.logger = helpers.SetupLogger(c.logHandler, "starlark", "Compiler")
	}
}

// applyDefaults sets the default values for a compiler
func (c *Compiler) applyDefaults() {
	if c.variables == nil {
		c.variables = []string{}
	}
}
