package compiler

import (
	"log/slog"

	starlarkLib "go.starlark.net/starlark"

	"github.com/robbyt/go-evalexpr/engines/starlark/evaluator"
	"github.com/robbyt/go-evalexpr/engines/starlark/internal"
	machineTypes "github.com/robbyt/go-evalexpr/engines/types"
	"github.com/robbyt/go-evalexpr/platform/script"
)

const stateName = internal.StateName

// Executable is a compiled Starlark expression. It is immutable; every
// evaluation call runs it through its own evaluator.
type Executable struct {
	source    string
	program   *starlarkLib.Program
	variables []string
	limits    script.Limits
	stateful  bool

	logHandler slog.Handler
}

func newExecutable(
	source string,
	prog *starlarkLib.Program,
	variables []string,
	limits script.Limits,
	stateful bool,
	handler slog.Handler,
) (*Executable, error) {
	if prog == nil {
		return nil, ErrInvalidExecution
	}
	return &Executable{
		source:     source,
		program:    prog,
		variables:  variables,
		limits:     limits,
		stateful:   stateful,
		logHandler: handler,
	}, nil
}

// GetSource returns the expression text.
func (e *Executable) GetSource() string {
	return e.source
}

// GetStarlarkProgram returns the compiled Starlark program.
func (e *Executable) GetStarlarkProgram() *starlarkLib.Program {
	return e.program
}

// GetMachineType returns the Starlark machine type
func (e *Executable) GetMachineType() machineTypes.Type {
	return machineTypes.Starlark
}

// NewRunner returns an evaluator with its own globals and, for stateful
// scripts, its own state dict.
func (e *Executable) NewRunner() script.Runner {
	return evaluator.New(e.logHandler, e.program, e.limits, e.stateful)
}
