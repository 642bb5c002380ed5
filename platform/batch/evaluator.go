// Package batch drives the evaluation of one expression over the rows of a
// columnar batch.
package batch

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"slices"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/segmentio/ksuid"
	"golang.org/x/sync/errgroup"

	"github.com/robbyt/go-evalexpr/internal/helpers"
	"github.com/robbyt/go-evalexpr/platform/bridge"
	"github.com/robbyt/go-evalexpr/platform/cache"
	"github.com/robbyt/go-evalexpr/platform/evalerr"
	"github.com/robbyt/go-evalexpr/platform/scope"
	"github.com/robbyt/go-evalexpr/platform/script"
	"github.com/robbyt/go-evalexpr/platform/value"
)

// WriterFactory returns an empty writer for the output column of one call.
type WriterFactory func() (bridge.ColumnWriter, error)

// Evaluator evaluates expressions against batches whose columns are bound to a
// fixed list of variable names. It is safe for concurrent use; the cache is
// the only state shared between calls.
type Evaluator struct {
	cache     *cache.Cache
	names     []string
	newWriter WriterFactory

	nullPropagation bool
	jsonVars        []string
	workers         int

	name       string
	registerer prometheus.Registerer
	metrics    *metrics

	logHandler slog.Handler
	logger     *slog.Logger
}

// New returns an Evaluator resolving expressions through c, binding the
// columns of each batch to names and writing results with writers from
// newWriter.
func New(c *cache.Cache, names []string, newWriter WriterFactory, opts ...Option) (*Evaluator, error) {
	if c == nil {
		return nil, ErrNilCache
	}
	if newWriter == nil {
		return nil, ErrNilWriterFactory
	}
	if err := scope.CheckNames(names); err != nil {
		return nil, err
	}

	e := &Evaluator{
		cache:           c,
		names:           slices.Clone(names),
		newWriter:       newWriter,
		nullPropagation: true,
		workers:         runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, fmt.Errorf("error applying evaluator option: %w", err)
		}
	}
	e.logHandler, e.logger = helpers.SetupLogger(e.logHandler, "batch", "Evaluator")
	e.metrics = newMetrics(e.registerer, e.name)
	return e, nil
}

func (e *Evaluator) String() string {
	return fmt.Sprintf("batch.Evaluator{variables: %v, cache: %s}", e.names, e.cache)
}

// Names returns the variable names bound to the batch columns.
func (e *Evaluator) Names() []string { return slices.Clone(e.names) }

// Close unregisters the evaluator metrics. The cache is left to its owner.
func (e *Evaluator) Close() {
	e.metrics.unregister()
}

// NewWriter returns an empty writer of the output column type.
func (e *Evaluator) NewWriter() (bridge.ColumnWriter, error) { return e.newWriter() }

// Evaluate runs exprText once per row of b, in row order.
//
// A compile failure, a bind failure or an engine fault fails the whole call
// and no Result is returned. Every other failure is recorded against its row
// and leaves a NULL in the output column.
func (e *Evaluator) Evaluate(ctx context.Context, b ColumnBatch, exprText string) (*Result, error) {
	callID := ksuid.New()
	logger := e.logger.WithGroup("Evaluate").With(
		"callID", callID.String(),
		"exprID", helpers.ShortID(exprText),
	)

	w, err := e.newWriter()
	if err != nil {
		return nil, err
	}
	defer w.Release()

	if b.NumRows == 0 {
		return &Result{CallID: callID, Column: w.NewArray(), Errors: []*evalerr.Error{}}, nil
	}

	start := time.Now()
	e.metrics.calls.Inc()
	defer func() { e.metrics.duration.Observe(time.Since(start).Seconds()) }()

	prog, err := e.cache.GetOrCompile(exprText)
	if err != nil {
		logger.Debug("expression did not compile", "error", err)
		return nil, err
	}

	c, err := e.newCall(ctx, b, w)
	if err != nil {
		return nil, err
	}

	runner := prog.NewRunner()
	for row := range b.NumRows {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w at row %d: %w", ErrCancelled, row, err)
		}
		if err := c.evalRow(row, runner); err != nil {
			logger.Error("row aborted the call", "row", row, "error", err)
			return nil, err
		}
	}

	res := c.result(callID)
	logger.Debug("batch evaluated", "rows", res.Len(), "failed", res.Failed())
	return res, nil
}

// EvaluateEach evaluates a different expression per row, taking row i's text
// from exprs. A NULL text yields NULL. A text that does not compile fails only
// its own row. Rows sharing one text share one runner within the call.
func (e *Evaluator) EvaluateEach(ctx context.Context, exprs arrow.Array, b ColumnBatch) (*Result, error) {
	callID := ksuid.New()
	logger := e.logger.WithGroup("EvaluateEach").With("callID", callID.String())

	texts, err := bridge.NewReader(exprs)
	if err != nil {
		return nil, err
	}
	switch texts.DataType().ID() {
	case arrow.STRING, arrow.LARGE_STRING:
	default:
		return nil, evalerr.Wrap(evalerr.KindBind, fmt.Errorf("%w: got %s", ErrExprColumn, texts.DataType()))
	}
	if texts.Len() != b.NumRows {
		return nil, evalerr.Wrap(evalerr.KindBind, fmt.Errorf(
			"%w: expression column has %d rows, batch has %d", scope.ErrColumnLength, texts.Len(), b.NumRows))
	}

	w, err := e.newWriter()
	if err != nil {
		return nil, err
	}
	defer w.Release()

	if b.NumRows == 0 {
		return &Result{CallID: callID, Column: w.NewArray(), Errors: []*evalerr.Error{}}, nil
	}

	start := time.Now()
	e.metrics.calls.Inc()
	defer func() { e.metrics.duration.Observe(time.Since(start).Seconds()) }()

	c, err := e.newCall(ctx, b, w)
	if err != nil {
		return nil, err
	}

	runners := make(map[string]script.Runner)
	for row := range b.NumRows {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w at row %d: %w", ErrCancelled, row, err)
		}
		text, ok := texts.Value(row).AsString()
		if !ok {
			w.AppendNull()
			continue
		}

		runner, ok := runners[text]
		if !ok {
			prog, err := e.cache.GetOrCompile(text)
			if err != nil {
				c.record(row, err)
				continue
			}
			runner = prog.NewRunner()
			runners[text] = runner
		}
		if err := c.evalRow(row, runner); err != nil {
			logger.Error("row aborted the call", "row", row, "error", err)
			return nil, err
		}
	}

	res := c.result(callID)
	logger.Debug("batch evaluated", "rows", res.Len(), "failed", res.Failed(), "expressions", len(runners))
	return res, nil
}

// EvaluateAll evaluates exprText over independent batches in parallel, at most
// WithWorkers batches at a time. Results are returned in batch order. When any
// batch fails the call, the results already produced are released.
func (e *Evaluator) EvaluateAll(ctx context.Context, batches []ColumnBatch, exprText string) ([]*Result, error) {
	results := make([]*Result, len(batches))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i, b := range batches {
		g.Go(func() error {
			res, err := e.Evaluate(gctx, b, exprText)
			if err != nil {
				return fmt.Errorf("batch %d: %w", i, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		for _, r := range results {
			if r != nil {
				r.Release()
			}
		}
		return nil, err
	}
	return results, nil
}

// call is the per-invocation state: the binder over the caller's batch, the
// output writer and the error slots.
type call struct {
	e      *Evaluator
	ctx    context.Context
	binder *scope.Binder
	w      bridge.ColumnWriter
	errs   []*evalerr.Error
}

func (e *Evaluator) newCall(ctx context.Context, b ColumnBatch, w bridge.ColumnWriter) (*call, error) {
	var opts []scope.BinderOption
	if len(e.jsonVars) > 0 {
		opts = append(opts, scope.WithJSON(e.jsonVars...))
	}
	binder, err := scope.NewBinder(e.names, b.Columns, b.NumRows, opts...)
	if err != nil {
		return nil, err
	}
	return &call{
		e:      e,
		ctx:    ctx,
		binder: binder,
		w:      w,
		errs:   make([]*evalerr.Error, b.NumRows),
	}, nil
}

// evalRow binds, runs and writes one row. Only errors that abort the call are
// returned; row failures are recorded.
func (c *call) evalRow(row int, runner script.Runner) error {
	binding, err := c.binder.Bind(row)
	if err != nil {
		return c.fail(row, err)
	}

	v, err := run(c.ctx, runner, binding)
	if err != nil {
		if cerr := c.ctx.Err(); cerr != nil {
			return fmt.Errorf("%w at row %d: %w", ErrCancelled, row, cerr)
		}
		kind, _ := evalerr.KindOf(err)
		if kind == evalerr.KindRuntime && c.e.nullPropagation && binding.HasNull() {
			c.w.AppendNull()
			return nil
		}
		return c.fail(row, err)
	}

	if err := c.w.Append(v); err != nil {
		return c.fail(row, evalerr.Wrap(evalerr.KindConversion, err))
	}
	return nil
}

func run(ctx context.Context, runner script.Runner, b scope.Binding) (v value.Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			v, err = value.Null(), evalerr.New(evalerr.KindEngineFault, "engine panic: %v", r)
		}
	}()
	return runner.Run(ctx, b)
}

// fail records err against row, unless its kind aborts the call, in which
// case it is returned.
func (c *call) fail(row int, err error) error {
	rec := evalerr.Wrap(evalerr.KindRuntime, err)
	if rec.Kind.BatchLevel() {
		return rec.AtRow(row)
	}
	c.record(row, rec)
	return nil
}

// record stores err as the error record of row and writes a NULL slot.
func (c *call) record(row int, err error) {
	rec := evalerr.Wrap(evalerr.KindRuntime, err).AtRow(row)
	c.errs[row] = rec
	c.w.AppendNull()
	c.e.metrics.rowFailures.WithLabelValues(rec.Kind.String()).Inc()
}

func (c *call) result(callID ksuid.KSUID) *Result {
	c.e.metrics.rows.Add(float64(len(c.errs)))
	return &Result{CallID: callID, Column: c.w.NewArray(), Errors: c.errs}
}
