package compiler

import (
	"fmt"
	"log/slog"

	"github.com/robbyt/go-evalexpr/engines/risor/compiler/internal/compile"
	"github.com/robbyt/go-evalexpr/internal/helpers"
	"github.com/robbyt/go-evalexpr/platform/evalerr"
	"github.com/robbyt/go-evalexpr/platform/script"
)

// Compiler implements script.Compiler for Risor expressions.
type Compiler struct {
	variables []string
	limits    script.Limits

	logHandler slog.Handler
	logger     *slog.Logger
}

// New creates a new Risor Compiler instance with the provided options.
func New(opts ...FunctionalOption) (*Compiler, error) {
	c := &Compiler{variables: []string{}}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, fmt.Errorf("error applying compiler option: %w", err)
		}
	}

	if err := c.validate(); err != nil {
		return nil, fmt.Errorf("invalid compiler configuration: %w", err)
	}

	c.setupLogger()
	return c, nil
}

func (c *Compiler) String() string {
	return "risor.Compiler"
}

// Compile turns exprText into runnable bytecode.
func (c *Compiler) Compile(exprText string) (script.Program, error) {
	logger := c.logger.WithGroup("Compile").With("exprID", helpers.ShortID(exprText))

	bc, err := compile.Compile(exprText, c.variables)
	if err != nil {
		logger.Debug("compilation failed", "error", err)
		return nil, evalerr.Wrap(evalerr.KindCompile, err)
	}

	exe := newExecutable(exprText, bc, c.limits, c.logHandler)
	if exe == nil {
		return nil, evalerr.Wrap(evalerr.KindCompile, ErrExecCreationFailed)
	}
	logger.Debug("compilation successful", "instructionCount", bc.InstructionCount())
	return exe, nil
}
