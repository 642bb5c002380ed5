package compiler

import (
	"fmt"
	"log/slog"

	"github.com/robbyt/go-evalexpr/engines/starlark/compiler/internal/compile"
	"github.com/robbyt/go-evalexpr/internal/helpers"
	"github.com/robbyt/go-evalexpr/platform/evalerr"
	"github.com/robbyt/go-evalexpr/platform/script"
)

// Compiler implements script.Compiler for Starlark expressions.
type Compiler struct {
	variables []string
	limits    script.Limits
	stateful  bool

	logHandler slog.Handler
	logger     *slog.Logger
}

// New creates a new Starlark Compiler instance with the provided options.
func New(opts ...FunctionalOption) (*Compiler, error) {
	c := &Compiler{}
	c.applyDefaults()

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, fmt.Errorf("error applying compiler option: %w", err)
		}
	}

	seen := make(map[string]struct{}, len(c.variables))
	for _, n := range c.variables {
		if _, ok := seen[n]; ok {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateName, n)
		}
		seen[n] = struct{}{}
	}

	c.setupLogger()
	return c, nil
}

func (c *Compiler) String() string {
	return "starlark.Compiler"
}

// predeclared returns the names an expression may reference besides the
// standard modules and the universe.
func (c *Compiler) predeclared() []string {
	if !c.stateful {
		return c.variables
	}
	names := make([]string, 0, len(c.variables)+1)
	names = append(names, c.variables...)
	return append(names, stateName)
}

// Compile parses and resolves exprText. Errors are classified as compile errors.
func (c *Compiler) Compile(exprText string) (script.Program, error) {
	logger := c.logger.WithGroup("Compile").With("exprID", helpers.ShortID(exprText))

	prog, err := compile.Compile(exprText, c.predeclared())
	if err != nil {
		logger.Debug("compilation failed", "error", err)
		return nil, evalerr.Wrap(evalerr.KindCompile, err)
	}

	exe, err := newExecutable(exprText, prog, c.variables, c.limits, c.stateful, c.logHandler)
	if err != nil {
		return nil, evalerr.Wrap(evalerr.KindCompile, err)
	}
	logger.Debug("compilation successful")
	return exe, nil
}
