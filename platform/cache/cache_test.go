package cache

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/robbyt/go-evalexpr/engines/mocks"
	"github.com/robbyt/go-evalexpr/platform/evalerr"
)

func testHandler() slog.Handler {
	return slog.NewTextHandler(&bytes.Buffer{}, nil)
}

func newTestCache(t *testing.T, compiler *mocks.Compiler, opts ...Option) *Cache {
	t.Helper()
	opts = append([]Option{WithLogHandler(testHandler())}, opts...)
	c, err := New(compiler, opts...)
	require.NoError(t, err)
	return c
}

func TestNew(t *testing.T) {
	t.Parallel()

	_, err := New(nil)
	require.ErrorIs(t, err, ErrNilCompiler)

	_, err = New(&mocks.Compiler{}, WithLRU(0))
	require.ErrorIs(t, err, ErrInvalidCapacity)

	_, err = New(&mocks.Compiler{}, WithMode("fifo", 1))
	require.ErrorIs(t, err, ErrUnknownMode)

	_, err = New(&mocks.Compiler{}, WithLogHandler(nil))
	require.Error(t, err)

	c, err := New(&mocks.Compiler{}, WithMode(LRU, 4), WithLogHandler(testHandler()))
	require.NoError(t, err)
	assert.Equal(t, LRU, c.Mode())
	assert.Contains(t, c.String(), "lru")
}

func TestParseMode(t *testing.T) {
	t.Parallel()

	m, err := ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, Unbounded, m)

	m, err = ParseMode("lru")
	require.NoError(t, err)
	assert.Equal(t, LRU, m)

	_, err = ParseMode("LFU")
	require.ErrorIs(t, err, ErrUnknownMode)
}

func TestCompilesOncePerText(t *testing.T) {
	t.Parallel()

	prog := &mocks.Program{}
	compiler := &mocks.Compiler{}
	compiler.On("Compile", "a + b").Return(prog, nil)
	compiler.On("Compile", "a +  b").Return(prog, nil)

	c := newTestCache(t, compiler)

	for range 3 {
		got, err := c.GetOrCompile("a + b")
		require.NoError(t, err)
		assert.Same(t, prog, got)
	}
	compiler.AssertNumberOfCalls(t, "Compile", 1)

	// Keys are whitespace sensitive.
	_, err := c.GetOrCompile("a +  b")
	require.NoError(t, err)
	compiler.AssertNumberOfCalls(t, "Compile", 2)

	stats := c.Stats()
	assert.Equal(t, uint64(2), stats.Compilations)
	assert.Equal(t, uint64(2), stats.Hits)
	assert.Equal(t, uint64(2), stats.Misses)
	assert.Equal(t, 2, stats.Len)
	assert.InDelta(t, 2, testutil.ToFloat64(c.metrics.compilations), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(c.metrics.hits), 0)
}

func TestCompileFailuresAreSticky(t *testing.T) {
	t.Parallel()

	compiler := &mocks.Compiler{}
	compiler.On("Compile", "(a + b").Return(nil, errors.New("unexpected EOF"))

	c := newTestCache(t, compiler)

	_, err1 := c.GetOrCompile("(a + b")
	require.ErrorIs(t, err1, evalerr.ErrCompile)
	assert.Contains(t, err1.Error(), "unexpected EOF")

	_, err2 := c.GetOrCompile("(a + b")
	require.ErrorIs(t, err2, evalerr.ErrCompile)
	assert.Equal(t, err1, err2, "the same error is returned")

	compiler.AssertNumberOfCalls(t, "Compile", 1)
	assert.Equal(t, uint64(1), c.Stats().Failures)
}

func TestNilProgramIsACompileError(t *testing.T) {
	t.Parallel()

	compiler := &mocks.Compiler{}
	compiler.On("Compile", "x").Return(nil, nil)

	c := newTestCache(t, compiler)
	_, err := c.GetOrCompile("x")
	require.ErrorIs(t, err, evalerr.ErrCompile)
}

func TestSingleFlight(t *testing.T) {
	t.Parallel()

	const goroutines = 32
	prog := &mocks.Program{}
	compiler := &mocks.Compiler{}
	compiler.On("Compile", "novel").
		Run(func(mock.Arguments) { time.Sleep(20 * time.Millisecond) }).
		Return(prog, nil)

	c := newTestCache(t, compiler)

	var (
		start sync.WaitGroup
		done  sync.WaitGroup
	)
	start.Add(1)
	results := make([]error, goroutines)
	for i := range goroutines {
		done.Add(1)
		go func() {
			defer done.Done()
			start.Wait()
			got, err := c.GetOrCompile("novel")
			if err == nil && got != prog {
				err = fmt.Errorf("goroutine %d got a different program", i)
			}
			results[i] = err
		}()
	}
	start.Done()
	done.Wait()

	for _, err := range results {
		require.NoError(t, err)
	}
	compiler.AssertNumberOfCalls(t, "Compile", 1)
	assert.Equal(t, uint64(1), c.Stats().Compilations)
}

func TestLRUEviction(t *testing.T) {
	t.Parallel()

	compiler := &mocks.Compiler{}
	for _, text := range []string{"a", "b", "c"} {
		compiler.On("Compile", text).Return(&mocks.Program{}, nil)
	}

	c := newTestCache(t, compiler, WithLRU(2))

	for _, text := range []string{"a", "b", "c"} {
		_, err := c.GetOrCompile(text)
		require.NoError(t, err)
	}
	assert.Equal(t, 2, c.Len())
	assert.Equal(t, uint64(1), c.Stats().Evictions)

	// "a" was evicted and compiles again; "c" is still cached.
	_, err := c.GetOrCompile("a")
	require.NoError(t, err)
	_, err = c.GetOrCompile("c")
	require.NoError(t, err)

	compiler.AssertNumberOfCalls(t, "Compile", 4)
	assert.InDelta(t, 2, testutil.ToFloat64(c.metrics.evictions), 0)
}

func TestPurge(t *testing.T) {
	t.Parallel()

	compiler := &mocks.Compiler{}
	compiler.On("Compile", "a").Return(&mocks.Program{}, nil)

	c := newTestCache(t, compiler)
	_, err := c.GetOrCompile("a")
	require.NoError(t, err)
	require.Equal(t, 1, c.Len())

	c.Purge()
	assert.Equal(t, 0, c.Len())

	_, err = c.GetOrCompile("a")
	require.NoError(t, err)
	compiler.AssertNumberOfCalls(t, "Compile", 2)
}

func TestRegisterer(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	compiler := &mocks.Compiler{}
	compiler.On("Compile", "a").Return(&mocks.Program{}, nil)

	c := newTestCache(t, compiler, WithRegisterer(reg, "evalexpr"))
	_, err := c.GetOrCompile("a")
	require.NoError(t, err)

	count, err := testutil.GatherAndCount(reg, "evalexpr_compilations_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	_, err = New(compiler, WithRegisterer(nil, "x"))
	require.Error(t, err)
}

func TestCloseUnregistersMetrics(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	compiler := &mocks.Compiler{}
	compiler.On("Compile", "a").Return(&mocks.Program{}, nil)

	c := newTestCache(t, compiler, WithRegisterer(reg, "evalexpr"))
	_, err := c.GetOrCompile("a")
	require.NoError(t, err)

	c.Close()
	assert.Zero(t, c.Len())
	count, err := testutil.GatherAndCount(reg, "evalexpr_compilations_total")
	require.NoError(t, err)
	assert.Zero(t, count)

	// The same name can be registered again.
	require.NotPanics(t, func() {
		c = newTestCache(t, compiler, WithRegisterer(reg, "evalexpr"))
	})
	_, err = c.GetOrCompile("a")
	require.NoError(t, err)
	count, err = testutil.GatherAndCount(reg, "evalexpr_compilations_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
