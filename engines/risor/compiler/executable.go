package compiler

import (
	"log/slog"

	risorCompiler "github.com/risor-io/risor/compiler"

	"github.com/robbyt/go-evalexpr/engines/risor/evaluator"
	machineTypes "github.com/robbyt/go-evalexpr/engines/types"
	"github.com/robbyt/go-evalexpr/platform/script"
)

// Executable is compiled Risor bytecode. The bytecode is shared read-only by
// the evaluators created from it.
type Executable struct {
	source   string
	bytecode *risorCompiler.Code
	limits   script.Limits

	logHandler slog.Handler
}

func newExecutable(source string, bytecode *risorCompiler.Code, limits script.Limits, handler slog.Handler) *Executable {
	if bytecode == nil {
		return nil
	}
	return &Executable{source: source, bytecode: bytecode, limits: limits, logHandler: handler}
}

// GetSource returns the expression text.
func (e *Executable) GetSource() string {
	return e.source
}

// GetRisorByteCode returns the compiled bytecode.
func (e *Executable) GetRisorByteCode() *risorCompiler.Code {
	return e.bytecode
}

// GetMachineType returns the Risor machine type
func (e *Executable) GetMachineType() machineTypes.Type {
	return machineTypes.Risor
}

// NewRunner returns an evaluator for one evaluation call.
func (e *Executable) NewRunner() script.Runner {
	return evaluator.New(e.logHandler, e.bytecode, e.limits)
}
