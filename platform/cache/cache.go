package cache

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/singleflight"

	"github.com/robbyt/go-evalexpr/internal/helpers"
	"github.com/robbyt/go-evalexpr/platform/evalerr"
	"github.com/robbyt/go-evalexpr/platform/script"
)

// entry is the published outcome of one compilation. Failed compilations are
// cached too, so a bad expression fails the same way without being parsed again.
type entry struct {
	prog script.Program
	err  error
}

// Stats is a snapshot of the cache counters.
type Stats struct {
	Hits         uint64
	Misses       uint64
	Compilations uint64
	Failures     uint64
	Evictions    uint64
	Len          int
}

// Cache maps exact expression text to its compiled Program.
//
// Concurrent lookups of an uncached text are collapsed with singleflight, so
// only one caller compiles and the others receive its result. Reads of cached
// entries only take a read lock (unbounded) or the LRU's internal lock.
type Cache struct {
	compiler script.Compiler
	mode     Mode
	capacity int

	mu      sync.RWMutex
	entries map[string]*entry
	lru     *lru.Cache[string, *entry]
	group   singleflight.Group

	hits         atomic.Uint64
	misses       atomic.Uint64
	compilations atomic.Uint64
	failures     atomic.Uint64
	evictions    atomic.Uint64

	name       string
	registerer prometheus.Registerer
	metrics    *metrics

	logHandler slog.Handler
	logger     *slog.Logger
}

// New returns an empty cache compiling with compiler.
func New(compiler script.Compiler, opts ...Option) (*Cache, error) {
	if compiler == nil {
		return nil, ErrNilCompiler
	}
	c := &Cache{compiler: compiler, mode: Unbounded}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, fmt.Errorf("error applying cache option: %w", err)
		}
	}
	c.logHandler, c.logger = helpers.SetupLogger(c.logHandler, "cache", "Cache")
	c.metrics = newMetrics(c.registerer, c.name)

	switch c.mode {
	case LRU:
		l, err := lru.NewWithEvict(c.capacity, c.onEvict)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidCapacity, err)
		}
		c.lru = l
	default:
		c.entries = make(map[string]*entry)
	}
	return c, nil
}

func (c *Cache) String() string {
	return fmt.Sprintf("cache.Cache{mode: %s, len: %d}", c.mode, c.Len())
}

// Mode returns the configured cache mode.
func (c *Cache) Mode() Mode { return c.mode }

func (c *Cache) onEvict(key string, _ *entry) {
	c.evictions.Add(1)
	c.metrics.evictions.Inc()
	c.logger.Debug("evicted compiled expression", "exprID", helpers.ShortID(key))
}

func (c *Cache) lookup(exprText string) (*entry, bool) {
	if c.lru != nil {
		return c.lru.Get(exprText)
	}
	c.mu.RLock()
	e, ok := c.entries[exprText]
	c.mu.RUnlock()
	return e, ok
}

func (c *Cache) store(exprText string, e *entry) {
	if c.lru != nil {
		c.lru.Add(exprText, e)
		return
	}
	c.mu.Lock()
	c.entries[exprText] = e
	c.mu.Unlock()
}

// GetOrCompile returns the compiled form of exprText, compiling it on first
// use. A text that failed to compile returns the same error on every call.
func (c *Cache) GetOrCompile(exprText string) (script.Program, error) {
	if e, ok := c.lookup(exprText); ok {
		c.hits.Add(1)
		c.metrics.hits.Inc()
		return e.prog, e.err
	}
	c.misses.Add(1)
	c.metrics.misses.Inc()

	v, _, _ := c.group.Do(exprText, func() (any, error) {
		// Another flight may have published between our miss and Do.
		if e, ok := c.lookup(exprText); ok {
			return e, nil
		}
		e := c.compile(exprText)
		c.store(exprText, e)
		return e, nil
	})
	e := v.(*entry)
	return e.prog, e.err
}

func (c *Cache) compile(exprText string) *entry {
	logger := c.logger.WithGroup("compile").With("exprID", helpers.ShortID(exprText))
	c.compilations.Add(1)
	c.metrics.compilations.Inc()

	prog, err := c.compiler.Compile(exprText)
	if err == nil && prog == nil {
		err = evalerr.New(evalerr.KindCompile, "compiler returned no program")
	}
	if err != nil {
		c.failures.Add(1)
		c.metrics.failures.Inc()
		logger.Warn("expression failed to compile", "error", err)
		return &entry{err: evalerr.Wrap(evalerr.KindCompile, err)}
	}
	logger.Debug("expression compiled")
	return &entry{prog: prog}
}

// Len returns the number of cached entries, failures included.
func (c *Cache) Len() int {
	if c.lru != nil {
		return c.lru.Len()
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats returns a snapshot of the cache counters.
func (c *Cache) Stats() Stats {
	return Stats{
		Hits:         c.hits.Load(),
		Misses:       c.misses.Load(),
		Compilations: c.compilations.Load(),
		Failures:     c.failures.Load(),
		Evictions:    c.evictions.Load(),
		Len:          c.Len(),
	}
}

// Purge drops every cached entry. Counters are kept.
func (c *Cache) Purge() {
	if c.lru != nil {
		c.lru.Purge()
		return
	}
	c.mu.Lock()
	c.entries = make(map[string]*entry)
	c.mu.Unlock()
}

// Close purges the cache and unregisters its metrics. The cache must not be
// used afterwards.
func (c *Cache) Close() {
	c.Purge()
	c.metrics.unregister()
}
