package script

import (
	"context"
	"time"

	"github.com/robbyt/go-evalexpr/engines/types"
	"github.com/robbyt/go-evalexpr/platform/scope"
	"github.com/robbyt/go-evalexpr/platform/value"
)

// Compiler turns expression text into a Program. Implementations return
// errors classified as evalerr.KindCompile for invalid text.
type Compiler interface {
	Compile(exprText string) (Program, error)
}

// Program is a compiled expression. It is immutable and safe to share across
// goroutines; execution state lives in the Runners derived from it.
type Program interface {
	// GetSource returns the expression text the program was compiled from.
	GetSource() string

	// GetMachineType returns the dialect the program runs on.
	GetMachineType() types.Type

	// NewRunner returns a fresh execution context for one evaluation call.
	NewRunner() Runner
}

// Runner evaluates a Program against one row scope at a time. A Runner is
// owned by a single goroutine for the duration of one evaluation call.
type Runner interface {
	// Run evaluates the program. Script failures are classified as
	// evalerr.KindRuntime, budget breaches as evalerr.KindResourceExceeded and
	// unconvertible results as evalerr.KindConversion.
	Run(ctx context.Context, b scope.Binding) (value.Value, error)
}

// Limits bound the work a single row may do.
type Limits struct {
	// OperationBudget is the maximum number of engine steps per row, 0 for none.
	OperationBudget uint64

	// RowTimeout is the wall-clock budget per row, 0 for none.
	RowTimeout time.Duration
}
