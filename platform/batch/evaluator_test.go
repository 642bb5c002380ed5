package batch

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/robbyt/go-evalexpr/engines/mocks"
	"github.com/robbyt/go-evalexpr/platform/bridge"
	"github.com/robbyt/go-evalexpr/platform/cache"
	"github.com/robbyt/go-evalexpr/platform/evalerr"
	"github.com/robbyt/go-evalexpr/platform/scope"
	"github.com/robbyt/go-evalexpr/platform/value"
)

// runFunc adapts a function to script.Runner.
type runFunc func(ctx context.Context, b scope.Binding) (value.Value, error)

func (f runFunc) Run(ctx context.Context, b scope.Binding) (value.Value, error) { return f(ctx, b) }

func add(_ context.Context, b scope.Binding) (value.Value, error) {
	x, _ := b.Lookup("a")
	y, _ := b.Lookup("b")
	xi, ok1 := x.Int64()
	yi, ok2 := y.Int64()
	if !ok1 || !ok2 {
		return value.Null(), evalerr.New(evalerr.KindRuntime, "unsupported operand types for +: %s and %s", x.Kind(), y.Kind())
	}
	return value.Int(xi + yi), nil
}

func divide(_ context.Context, b scope.Binding) (value.Value, error) {
	x, _ := b.Lookup("a")
	y, _ := b.Lookup("b")
	xi, _ := x.Int64()
	yi, _ := y.Int64()
	if yi == 0 {
		return value.Null(), evalerr.New(evalerr.KindRuntime, "integer division by zero")
	}
	return value.Int(xi / yi), nil
}

func testHandler() slog.Handler {
	return slog.NewTextHandler(&bytes.Buffer{}, nil)
}

func program(run runFunc) *mocks.Program {
	p := &mocks.Program{}
	p.On("NewRunner").Return(run)
	return p
}

func int64Column(t *testing.T, vals []int64, valid []bool) arrow.Array {
	t.Helper()
	b := array.NewInt64Builder(memory.DefaultAllocator)
	defer b.Release()
	b.AppendValues(vals, valid)
	arr := b.NewArray()
	t.Cleanup(arr.Release)
	return arr
}

func stringColumn(t *testing.T, vals []string, valid []bool) arrow.Array {
	t.Helper()
	b := array.NewStringBuilder(memory.DefaultAllocator)
	defer b.Release()
	b.AppendValues(vals, valid)
	arr := b.NewArray()
	t.Cleanup(arr.Release)
	return arr
}

func int64Writer() (bridge.ColumnWriter, error) {
	return bridge.NewWriter(memory.DefaultAllocator, arrow.PrimitiveTypes.Int64)
}

func newEvaluator(t *testing.T, compiler *mocks.Compiler, opts ...Option) *Evaluator {
	t.Helper()
	c, err := cache.New(compiler, cache.WithLogHandler(testHandler()))
	require.NoError(t, err)
	opts = append([]Option{WithLogHandler(testHandler())}, opts...)
	e, err := New(c, []string{"a", "b"}, int64Writer, opts...)
	require.NoError(t, err)
	return e
}

// pairs is the batch [(1, 2), (3, NULL)].
func pairs(t *testing.T) ColumnBatch {
	return ColumnBatch{
		Columns: []arrow.Array{
			int64Column(t, []int64{1, 3}, nil),
			int64Column(t, []int64{2, 0}, []bool{true, false}),
		},
		NumRows: 2,
	}
}

func TestNew(t *testing.T) {
	t.Parallel()

	c, err := cache.New(&mocks.Compiler{}, cache.WithLogHandler(testHandler()))
	require.NoError(t, err)

	_, err = New(nil, nil, int64Writer)
	require.ErrorIs(t, err, ErrNilCache)

	_, err = New(c, nil, nil)
	require.ErrorIs(t, err, ErrNilWriterFactory)

	_, err = New(c, []string{"a", "a"}, int64Writer)
	require.ErrorIs(t, err, scope.ErrDuplicateVariable)

	_, err = New(c, nil, int64Writer, WithWorkers(0))
	require.Error(t, err)

	e, err := New(c, []string{"x"}, int64Writer, WithLogHandler(testHandler()))
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, e.Names())
	assert.Contains(t, e.String(), "x")
}

func TestEvaluateNullPropagation(t *testing.T) {
	t.Parallel()

	compiler := &mocks.Compiler{}
	compiler.On("Compile", "a + b").Return(program(add), nil)

	t.Run("enabled", func(t *testing.T) {
		t.Parallel()
		e := newEvaluator(t, compiler)

		res, err := e.Evaluate(context.Background(), pairs(t), "a + b")
		require.NoError(t, err)
		defer res.Release()

		require.Equal(t, 2, res.Len())
		col := res.Column.(*array.Int64)
		assert.Equal(t, int64(3), col.Value(0))
		assert.True(t, col.IsNull(1))
		assert.Equal(t, 0, res.Failed())
		require.NoError(t, res.Err())
		assert.False(t, res.CallID.IsNil())
	})

	t.Run("disabled", func(t *testing.T) {
		t.Parallel()
		e := newEvaluator(t, compiler, WithNullPropagation(false))

		res, err := e.Evaluate(context.Background(), pairs(t), "a + b")
		require.NoError(t, err)
		defer res.Release()

		require.Equal(t, 2, res.Len())
		assert.True(t, res.Column.IsNull(1))
		assert.Nil(t, res.Errors[0])
		require.NotNil(t, res.Errors[1])
		assert.Equal(t, evalerr.KindRuntime, res.Errors[1].Kind)
		assert.Equal(t, 1, res.Errors[1].Row)
		require.ErrorIs(t, res.Err(), evalerr.ErrRuntime)
	})
}

func TestEvaluateRowErrorsAreIsolated(t *testing.T) {
	t.Parallel()

	compiler := &mocks.Compiler{}
	compiler.On("Compile", "a / b").Return(program(divide), nil)
	e := newEvaluator(t, compiler)

	b := ColumnBatch{
		Columns: []arrow.Array{
			int64Column(t, []int64{10, 7, 9}, nil),
			int64Column(t, []int64{2, 0, 3}, nil),
		},
		NumRows: 3,
	}
	res, err := e.Evaluate(context.Background(), b, "a / b")
	require.NoError(t, err)
	defer res.Release()

	col := res.Column.(*array.Int64)
	require.Equal(t, 3, col.Len())
	assert.Equal(t, int64(5), col.Value(0))
	assert.True(t, col.IsNull(1))
	assert.Equal(t, int64(3), col.Value(2))

	assert.Equal(t, 1, res.Failed())
	require.NotNil(t, res.Errors[1])
	assert.Contains(t, res.Errors[1].Error(), "at row 1")
	assert.Len(t, evalerr.Errors(res.Err()), 1)
}

func TestEvaluateRowFailureKinds(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		run  runFunc
		kind evalerr.Kind
	}{
		{
			name: "result does not fit the output type",
			run: func(context.Context, scope.Binding) (value.Value, error) {
				return value.String("not a number"), nil
			},
			kind: evalerr.KindConversion,
		},
		{
			name: "budget exceeded",
			run: func(context.Context, scope.Binding) (value.Value, error) {
				return value.Null(), evalerr.New(evalerr.KindResourceExceeded, "step budget exhausted")
			},
			kind: evalerr.KindResourceExceeded,
		},
		{
			name: "unclassified engine error",
			run: func(context.Context, scope.Binding) (value.Value, error) {
				return value.Null(), errors.New("boom")
			},
			kind: evalerr.KindRuntime,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			compiler := &mocks.Compiler{}
			compiler.On("Compile", "expr").Return(program(tt.run), nil)
			e := newEvaluator(t, compiler)

			b := ColumnBatch{
				Columns: []arrow.Array{
					int64Column(t, []int64{1, 2}, nil),
					int64Column(t, []int64{1, 2}, nil),
				},
				NumRows: 2,
			}

			res, err := e.Evaluate(context.Background(), b, "expr")
			require.NoError(t, err)
			defer res.Release()

			require.Equal(t, 2, res.Len())
			require.Equal(t, 2, res.Failed())
			for row, rec := range res.Errors {
				assert.Equal(t, tt.kind, rec.Kind)
				assert.Equal(t, row, rec.Row)
				assert.True(t, res.Column.IsNull(row))
			}
			assert.InDelta(t, 2, testutil.ToFloat64(e.metrics.rowFailures.WithLabelValues(tt.kind.String())), 0)
		})
	}
}

func TestEvaluateResourceExceededIgnoresNullPropagation(t *testing.T) {
	t.Parallel()

	compiler := &mocks.Compiler{}
	compiler.On("Compile", "loop").Return(program(func(context.Context, scope.Binding) (value.Value, error) {
		return value.Null(), evalerr.New(evalerr.KindResourceExceeded, "step budget exhausted")
	}), nil)
	e := newEvaluator(t, compiler)

	res, err := e.Evaluate(context.Background(), pairs(t), "loop")
	require.NoError(t, err)
	defer res.Release()
	require.NotNil(t, res.Errors[1])
	assert.Equal(t, evalerr.KindResourceExceeded, res.Errors[1].Kind)
}

func TestEvaluateEmptyBatchSkipsCache(t *testing.T) {
	t.Parallel()

	compiler := &mocks.Compiler{}
	e := newEvaluator(t, compiler)

	res, err := e.Evaluate(context.Background(), ColumnBatch{}, "never compiled")
	require.NoError(t, err)
	defer res.Release()

	assert.Equal(t, 0, res.Len())
	assert.Empty(t, res.Errors)
	compiler.AssertNotCalled(t, "Compile", mock.Anything)
	assert.Equal(t, 0, e.cache.Len())
}

func TestEvaluateCompileErrorFailsBatch(t *testing.T) {
	t.Parallel()

	compiler := &mocks.Compiler{}
	compiler.On("Compile", "a +").Return(nil, errors.New("got end of file, want primary expression"))
	e := newEvaluator(t, compiler)

	for range 2 {
		res, err := e.Evaluate(context.Background(), pairs(t), "a +")
		require.ErrorIs(t, err, evalerr.ErrCompile)
		assert.Nil(t, res)
	}
	compiler.AssertNumberOfCalls(t, "Compile", 1)
}

func TestEvaluateBindErrors(t *testing.T) {
	t.Parallel()

	compiler := &mocks.Compiler{}
	compiler.On("Compile", "a + b").Return(program(add), nil)
	e := newEvaluator(t, compiler)

	b := ColumnBatch{Columns: []arrow.Array{int64Column(t, []int64{1}, nil)}, NumRows: 1}
	_, err := e.Evaluate(context.Background(), b, "a + b")
	require.ErrorIs(t, err, evalerr.ErrBind)
	require.ErrorIs(t, err, evalerr.ErrArityMismatch)
}

func TestEvaluateEnginePanic(t *testing.T) {
	t.Parallel()

	compiler := &mocks.Compiler{}
	compiler.On("Compile", "panic").Return(program(func(context.Context, scope.Binding) (value.Value, error) {
		panic("interpreter state corrupted")
	}), nil)
	e := newEvaluator(t, compiler)

	res, err := e.Evaluate(context.Background(), pairs(t), "panic")
	require.ErrorIs(t, err, evalerr.ErrEngineFault)
	assert.Contains(t, err.Error(), "interpreter state corrupted")
	assert.Nil(t, res)
}

func TestEvaluateCancelled(t *testing.T) {
	t.Parallel()

	compiler := &mocks.Compiler{}
	compiler.On("Compile", "a + b").Return(program(add), nil)
	e := newEvaluator(t, compiler)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := e.Evaluate(ctx, pairs(t), "a + b")
	require.ErrorIs(t, err, ErrCancelled)
	require.ErrorIs(t, err, context.Canceled)
}

func TestEvaluateCancelledDuringLastRow(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The last row binds a NULL, so a plain runtime error there would be
	// turned into NULL by null propagation.
	compiler := &mocks.Compiler{}
	compiler.On("Compile", "a + b").Return(program(func(rctx context.Context, b scope.Binding) (value.Value, error) {
		if b.HasNull() {
			cancel()
			return value.Null(), evalerr.Wrap(evalerr.KindRuntime, rctx.Err())
		}
		return add(rctx, b)
	}), nil)
	e := newEvaluator(t, compiler)

	res, err := e.Evaluate(ctx, pairs(t), "a + b")
	require.ErrorIs(t, err, ErrCancelled)
	require.ErrorIs(t, err, context.Canceled)
	assert.Contains(t, err.Error(), "row 1")
	assert.Nil(t, res)
}

func TestEvaluateJSONVariables(t *testing.T) {
	t.Parallel()

	compiler := &mocks.Compiler{}
	compiler.On("Compile", "context['n'] + a").Return(program(func(_ context.Context, b scope.Binding) (value.Value, error) {
		doc, _ := b.Lookup("b")
		m, ok := doc.AsMap()
		if !ok {
			return value.Null(), evalerr.New(evalerr.KindRuntime, "context is not a map")
		}
		a, _ := b.Lookup("a")
		x, _ := a.Int64()
		n, _ := m["n"].Int64()
		return value.Int(x + n), nil
	}), nil)
	e := newEvaluator(t, compiler, WithJSONVariables("b"))

	b := ColumnBatch{
		Columns: []arrow.Array{
			int64Column(t, []int64{1, 2}, nil),
			stringColumn(t, []string{`{"n": 40}`, `[`}, nil),
		},
		NumRows: 2,
	}
	res, err := e.Evaluate(context.Background(), b, "context['n'] + a")
	require.NoError(t, err)
	defer res.Release()

	assert.Equal(t, int64(41), res.Column.(*array.Int64).Value(0))
	require.NotNil(t, res.Errors[1])
	assert.Equal(t, evalerr.KindConversion, res.Errors[1].Kind)
}

func TestEvaluateEach(t *testing.T) {
	t.Parallel()

	var runners atomic.Int32
	sum := &mocks.Program{}
	sum.On("NewRunner").Run(func(mock.Arguments) { runners.Add(1) }).Return(runFunc(add))

	compiler := &mocks.Compiler{}
	compiler.On("Compile", "a + b").Return(sum, nil)
	compiler.On("Compile", "a +").Return(nil, errors.New("syntax error"))
	e := newEvaluator(t, compiler)

	exprs := stringColumn(t, []string{"a + b", "", "a +", "a + b"}, []bool{true, false, true, true})
	b := ColumnBatch{
		Columns: []arrow.Array{
			int64Column(t, []int64{1, 2, 3, 4}, nil),
			int64Column(t, []int64{10, 20, 30, 40}, nil),
		},
		NumRows: 4,
	}

	res, err := e.EvaluateEach(context.Background(), exprs, b)
	require.NoError(t, err)
	defer res.Release()

	col := res.Column.(*array.Int64)
	require.Equal(t, 4, col.Len())
	assert.Equal(t, int64(11), col.Value(0))
	assert.True(t, col.IsNull(1))
	assert.Nil(t, res.Errors[1], "NULL expression text is not an error")
	assert.True(t, col.IsNull(2))
	require.NotNil(t, res.Errors[2])
	assert.Equal(t, evalerr.KindCompile, res.Errors[2].Kind)
	assert.Equal(t, 2, res.Errors[2].Row)
	assert.Equal(t, int64(44), col.Value(3))

	assert.Equal(t, int32(1), runners.Load())
	compiler.AssertNumberOfCalls(t, "Compile", 2)
}

func TestEvaluateEachRejectsBadExpressionColumns(t *testing.T) {
	t.Parallel()

	e := newEvaluator(t, &mocks.Compiler{})
	b := pairs(t)

	_, err := e.EvaluateEach(context.Background(), int64Column(t, []int64{1, 2}, nil), b)
	require.ErrorIs(t, err, ErrExprColumn)

	_, err = e.EvaluateEach(context.Background(), stringColumn(t, []string{"a"}, nil), b)
	require.ErrorIs(t, err, scope.ErrColumnLength)
}

func TestEvaluateAll(t *testing.T) {
	t.Parallel()

	compiler := &mocks.Compiler{}
	compiler.On("Compile", "a + b").Return(program(add), nil)
	e := newEvaluator(t, compiler, WithWorkers(4))

	batches := make([]ColumnBatch, 16)
	for i := range batches {
		batches[i] = ColumnBatch{
			Columns: []arrow.Array{
				int64Column(t, []int64{int64(i)}, nil),
				int64Column(t, []int64{100}, nil),
			},
			NumRows: 1,
		}
	}

	results, err := e.EvaluateAll(context.Background(), batches, "a + b")
	require.NoError(t, err)
	require.Len(t, results, len(batches))
	for i, res := range results {
		assert.Equal(t, int64(100+i), res.Column.(*array.Int64).Value(0))
		res.Release()
	}
	compiler.AssertNumberOfCalls(t, "Compile", 1)
	assert.InDelta(t, 16, testutil.ToFloat64(e.metrics.rows), 0)
	assert.InDelta(t, 16, testutil.ToFloat64(e.metrics.calls), 0)
}

func TestEvaluateAllFails(t *testing.T) {
	t.Parallel()

	compiler := &mocks.Compiler{}
	compiler.On("Compile", "a + b").Return(program(add), nil)
	e := newEvaluator(t, compiler)

	good := pairs(t)
	bad := ColumnBatch{Columns: []arrow.Array{int64Column(t, []int64{1}, nil)}, NumRows: 1}

	results, err := e.EvaluateAll(context.Background(), []ColumnBatch{good, bad}, "a + b")
	require.ErrorIs(t, err, evalerr.ErrArityMismatch)
	assert.Contains(t, err.Error(), "batch 1")
	assert.Nil(t, results)
}

func TestFromRecord(t *testing.T) {
	t.Parallel()

	schema := arrow.NewSchema([]arrow.Field{
		{Name: "expr", Type: arrow.BinaryTypes.String},
		{Name: "a", Type: arrow.PrimitiveTypes.Int64},
	}, nil)
	rec := array.NewRecord(schema, []arrow.Array{
		stringColumn(t, []string{"a", "a"}, nil),
		int64Column(t, []int64{1, 2}, nil),
	}, 2)
	defer rec.Release()

	b := FromRecord(rec, 1)
	assert.Equal(t, 2, b.NumRows)
	require.Len(t, b.Columns, 1)
	assert.Equal(t, arrow.INT64, b.Columns[0].DataType().ID())

	assert.Empty(t, FromRecord(rec, 5).Columns)
}
