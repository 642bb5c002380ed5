// Package function exposes an expression evaluator as a scalar function that a
// host engine calls once per columnar batch.
package function

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/robbyt/go-evalexpr/internal/helpers"
	"github.com/robbyt/go-evalexpr/options"
	"github.com/robbyt/go-evalexpr/platform/batch"
	"github.com/robbyt/go-evalexpr/platform/bridge"
	"github.com/robbyt/go-evalexpr/platform/cache"
	"github.com/robbyt/go-evalexpr/platform/evalerr"
)

// ScalarFunction evaluates the expression in its first argument against the
// remaining arguments, row by row. One ScalarFunction owns one expression
// cache, shared by every call. It is safe for concurrent use.
type ScalarFunction struct {
	sig   Signature
	mode  options.ErrorMode
	mem   memory.Allocator
	cache *cache.Cache
	eval  *batch.Evaluator

	logHandler slog.Handler
	logger     *slog.Logger
}

// Option configures a ScalarFunction.
type Option func(*ScalarFunction)

// WithAllocator sets the allocator used for result columns.
func WithAllocator(mem memory.Allocator) Option {
	return func(f *ScalarFunction) {
		if mem != nil {
			f.mem = mem
		}
	}
}

// New builds the scalar function described by cfg.
func New(cfg *options.Config, opts ...Option) (*ScalarFunction, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	f := &ScalarFunction{
		sig: Signature{
			Name:      cfg.GetFunctionName(),
			Variables: cfg.GetVariables(),
			Return:    cfg.GetReturnType(),
		},
		mode: cfg.GetErrorMode(),
		mem:  memory.DefaultAllocator,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.mode == options.ErrorModeEnvelope {
		f.sig.Return = envelopeType(cfg.GetReturnType())
	}
	f.logHandler, f.logger = helpers.SetupLogger(cfg.GetHandler(), "function", "ScalarFunction")

	compiler, err := newCompiler(cfg)
	if err != nil {
		return nil, err
	}

	// Overloads share a name, so metrics are labelled with the arity too.
	metricsName := fmt.Sprintf("%s/%d", f.sig.Name, f.sig.Arity())
	mode, capacity := cfg.GetCacheMode()
	cacheOpts := []cache.Option{
		cache.WithLogHandler(f.logHandler),
		cache.WithMode(mode, capacity),
	}
	batchOpts := []batch.Option{
		batch.WithLogHandler(f.logHandler),
		batch.WithNullPropagation(cfg.NullPropagation()),
	}
	if vars := cfg.GetJSONVariables(); len(vars) > 0 {
		batchOpts = append(batchOpts, batch.WithJSONVariables(vars...))
	}
	if reg := cfg.GetRegisterer(); reg != nil {
		cacheOpts = append(cacheOpts, cache.WithRegisterer(reg, metricsName))
		batchOpts = append(batchOpts, batch.WithRegisterer(reg, metricsName))
	}

	f.cache, err = cache.New(compiler, cacheOpts...)
	if err != nil {
		return nil, err
	}
	f.eval, err = batch.New(f.cache, f.sig.Variables, f.writerFactory(cfg), batchOpts...)
	if err != nil {
		f.cache.Close()
		return nil, err
	}
	return f, nil
}

func (f *ScalarFunction) writerFactory(cfg *options.Config) batch.WriterFactory {
	if cfg.ReturnsJSON() {
		return func() (bridge.ColumnWriter, error) {
			return bridge.NewJSONWriter(f.mem), nil
		}
	}
	dt := cfg.GetReturnType()
	return func() (bridge.ColumnWriter, error) {
		return bridge.NewWriter(f.mem, dt)
	}
}

func (f *ScalarFunction) String() string {
	return fmt.Sprintf("function.ScalarFunction{%s}", f.sig)
}

// Name returns the registered function name.
func (f *ScalarFunction) Name() string { return f.sig.Name }

// Signature returns the declared arguments and return type.
func (f *ScalarFunction) Signature() Signature { return f.sig }

// Stats returns the expression cache counters.
func (f *ScalarFunction) Stats() cache.Stats { return f.cache.Stats() }

// Close drops every compiled expression and unregisters the function
// metrics, so a function with the same name can be built again.
func (f *ScalarFunction) Close() {
	f.eval.Close()
	f.cache.Close()
}

// Execute evaluates one batch. Column 0 of rec holds the expression text and
// the remaining columns are bound to the declared variables. The returned
// array has one slot per row and is owned by the caller.
//
// When every row carries the same expression text it is resolved once for the
// whole batch; otherwise each row's text goes through the cache.
func (f *ScalarFunction) Execute(ctx context.Context, rec arrow.Record) (arrow.Array, error) {
	logger := f.logger.WithGroup("Execute")
	if err := f.sig.Check(rec); err != nil {
		return nil, err
	}

	exprs := rec.Column(0)
	b := batch.FromRecord(rec, 1)

	var (
		res *batch.Result
		err error
	)
	if text, ok := constantText(exprs); ok {
		res, err = f.eval.Evaluate(ctx, b, text)
	} else {
		res, err = f.eval.EvaluateEach(ctx, exprs, b)
	}
	if err != nil {
		if f.mode == options.ErrorModeEnvelope && errors.Is(err, evalerr.ErrCompile) {
			return f.failedEnvelope(b.NumRows, err)
		}
		return nil, err
	}

	switch f.mode {
	case options.ErrorModeNull:
		return res.Column, nil
	case options.ErrorModeEnvelope:
		defer res.Release()
		return f.envelope(res.Column, res.Errors)
	default:
		if err := res.Err(); err != nil {
			logger.Debug("batch failed", "callID", res.CallID.String(), "failed", res.Failed())
			res.Release()
			return nil, err
		}
		return res.Column, nil
	}
}

// constantText returns the expression text when every row holds the same
// non-NULL text.
func constantText(exprs arrow.Array) (string, bool) {
	col, ok := exprs.(interface {
		Len() int
		IsNull(int) bool
		Value(int) string
	})
	if !ok || col.Len() == 0 {
		return "", false
	}
	if col.IsNull(0) {
		return "", false
	}
	first := col.Value(0)
	for i := 1; i < col.Len(); i++ {
		if col.IsNull(i) || col.Value(i) != first {
			return "", false
		}
	}
	return first, true
}

// envelope pairs each result with its error message.
func (f *ScalarFunction) envelope(ok arrow.Array, errs []*evalerr.Error) (arrow.Array, error) {
	eb := array.NewStringBuilder(f.mem)
	defer eb.Release()
	for _, e := range errs {
		if e == nil {
			eb.AppendNull()
			continue
		}
		eb.Append(e.Error())
	}
	errCol := eb.NewArray()
	defer errCol.Release()

	out, err := array.NewStructArray([]arrow.Array{ok, errCol}, []string{"ok", "error"})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// failedEnvelope reports err in every row.
func (f *ScalarFunction) failedEnvelope(rows int, err error) (arrow.Array, error) {
	w, werr := f.eval.NewWriter()
	if werr != nil {
		return nil, werr
	}
	defer w.Release()

	rec := evalerr.Wrap(evalerr.KindCompile, err)
	errs := make([]*evalerr.Error, rows)
	for i := range rows {
		w.AppendNull()
		errs[i] = rec
	}
	ok := w.NewArray()
	defer ok.Release()
	return f.envelope(ok, errs)
}
