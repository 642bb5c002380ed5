package evaluator

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	starlarkLib "go.starlark.net/starlark"

	"github.com/robbyt/go-evalexpr/engines/starlark/internal"
	"github.com/robbyt/go-evalexpr/internal/helpers"
	"github.com/robbyt/go-evalexpr/platform/evalerr"
	"github.com/robbyt/go-evalexpr/platform/scope"
	"github.com/robbyt/go-evalexpr/platform/script"
	"github.com/robbyt/go-evalexpr/platform/value"
)

// Evaluator runs one compiled Starlark expression row by row. It implements
// script.Runner and belongs to a single evaluation call.
type Evaluator struct {
	program *starlarkLib.Program
	limits  script.Limits

	// predeclared holds the standard modules, the state dict and the row
	// variables. Variables are overwritten on every row.
	predeclared starlarkLib.StringDict

	logHandler slog.Handler
	logger     *slog.Logger
}

// New creates an Evaluator for prog. When stateful is set a fresh state dict
// is predeclared and kept for the lifetime of the Evaluator.
func New(
	handler slog.Handler,
	prog *starlarkLib.Program,
	limits script.Limits,
	stateful bool,
) *Evaluator {
	handler, logger := helpers.SetupLogger(handler, "starlark", "Evaluator")

	predeclared := internal.StarlarkModules()
	if stateful {
		predeclared[internal.StateName] = starlarkLib.NewDict(0)
	}

	return &Evaluator{
		program:     prog,
		limits:      limits,
		predeclared: predeclared,
		logHandler:  handler,
		logger:      logger,
	}
}

func (be *Evaluator) String() string {
	return "starlark.Evaluator"
}

// Run binds the row variables and evaluates the expression.
func (be *Evaluator) Run(ctx context.Context, b scope.Binding) (value.Value, error) {
	if be.program == nil {
		return value.Null(), evalerr.New(evalerr.KindEngineFault, "starlark program is nil")
	}

	for name, v := range b.All {
		sv, err := internal.ToStarlark(v)
		if err != nil {
			return value.Null(), err
		}
		be.predeclared[name] = sv
	}

	result, err := be.exec(ctx)
	if err != nil {
		return value.Null(), err
	}
	return internal.FromStarlark(result)
}

// exec runs the program on a new thread bounded by the step budget, the row
// timeout and ctx.
func (be *Evaluator) exec(ctx context.Context) (starlarkLib.Value, error) {
	logger := be.logger.WithGroup("exec")

	thread := &starlarkLib.Thread{
		Name: "row",
		Print: func(thread *starlarkLib.Thread, msg string) {
			logger.DebugContext(ctx, msg, "starlark-thread", thread.Name)
		},
	}
	if be.limits.OperationBudget > 0 {
		thread.SetMaxExecutionSteps(be.limits.OperationBudget)
	}

	stop := context.AfterFunc(ctx, func() {
		thread.Cancel(context.Cause(ctx).Error())
	})
	defer stop()

	var timedOut atomic.Bool
	if be.limits.RowTimeout > 0 {
		timer := time.AfterFunc(be.limits.RowTimeout, func() {
			timedOut.Store(true)
			thread.Cancel("row timeout exceeded")
		})
		defer timer.Stop()
	}

	globals, err := be.program.Init(thread, be.predeclared)
	if err != nil {
		switch {
		case be.limits.OperationBudget > 0 && thread.ExecutionSteps() >= be.limits.OperationBudget:
			return nil, evalerr.Wrap(evalerr.KindResourceExceeded,
				fmt.Errorf("%w: more than %d steps", evalerr.ErrStepBudget, be.limits.OperationBudget))
		case ctx.Err() != nil:
			return nil, evalerr.Wrap(evalerr.KindRuntime, fmt.Errorf("%w: %w", err, context.Cause(ctx)))
		case timedOut.Load():
			return nil, evalerr.Wrap(evalerr.KindResourceExceeded,
				fmt.Errorf("%w: %s", evalerr.ErrRowTimeout, be.limits.RowTimeout))
		default:
			return nil, evalerr.Wrap(evalerr.KindRuntime, err)
		}
	}

	result, ok := globals[internal.ResultName]
	if !ok {
		return nil, evalerr.New(evalerr.KindEngineFault, "starlark program did not produce a result")
	}
	return result, nil
}
