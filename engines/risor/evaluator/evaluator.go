package evaluator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	risorLib "github.com/risor-io/risor"
	risorCompiler "github.com/risor-io/risor/compiler"

	"github.com/robbyt/go-evalexpr/engines/risor/internal"
	"github.com/robbyt/go-evalexpr/internal/helpers"
	"github.com/robbyt/go-evalexpr/platform/evalerr"
	"github.com/robbyt/go-evalexpr/platform/scope"
	"github.com/robbyt/go-evalexpr/platform/script"
	"github.com/robbyt/go-evalexpr/platform/value"
)

// Evaluator runs Risor bytecode once per row, each row on its own VM.
type Evaluator struct {
	bytecode *risorCompiler.Code
	limits   script.Limits

	logHandler slog.Handler
	logger     *slog.Logger
}

// New creates a new Evaluator for bytecode.
func New(handler slog.Handler, bytecode *risorCompiler.Code, limits script.Limits) *Evaluator {
	handler, logger := helpers.SetupLogger(handler, "risor", "Evaluator")
	return &Evaluator{
		bytecode:   bytecode,
		limits:     limits,
		logHandler: handler,
		logger:     logger,
	}
}

func (be *Evaluator) String() string {
	return "risor.Evaluator"
}

// Run binds the row variables as VM globals and evaluates the bytecode.
func (be *Evaluator) Run(ctx context.Context, b scope.Binding) (value.Value, error) {
	if be.bytecode == nil {
		return value.Null(), evalerr.New(evalerr.KindEngineFault, "risor bytecode is nil")
	}

	opts := make([]risorLib.Option, 0, b.Len())
	for name, v := range b.All {
		obj, err := internal.ToRisor(v)
		if err != nil {
			return value.Null(), err
		}
		opts = append(opts, risorLib.WithGlobal(name, obj))
	}

	rowCtx := ctx
	if be.limits.RowTimeout > 0 {
		var cancel context.CancelFunc
		rowCtx, cancel = context.WithTimeout(ctx, be.limits.RowTimeout)
		defer cancel()
	}

	result, err := risorLib.EvalCode(rowCtx, be.bytecode, opts...)
	if err != nil {
		if ctx.Err() == nil && errors.Is(rowCtx.Err(), context.DeadlineExceeded) {
			return value.Null(), evalerr.Wrap(evalerr.KindResourceExceeded,
				fmt.Errorf("%w: %s", evalerr.ErrRowTimeout, be.limits.RowTimeout))
		}
		be.logger.WithGroup("Run").DebugContext(ctx, "risor execution error", "error", err)
		return value.Null(), evalerr.Wrap(evalerr.KindRuntime, err)
	}
	return internal.FromRisor(result)
}
