package cache

import (
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
)

// Mode selects how many compiled expressions the cache keeps.
type Mode string

const (
	// Unbounded keeps every compiled expression for the cache lifetime.
	Unbounded Mode = "unbounded"
	// LRU keeps at most Capacity entries, evicting the least recently used.
	LRU Mode = "lru"
)

// ParseMode returns the Mode with the given name. The empty string is Unbounded.
func ParseMode(name string) (Mode, error) {
	switch Mode(name) {
	case "", Unbounded:
		return Unbounded, nil
	case LRU:
		return LRU, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, name)
	}
}

// Option configures a Cache.
type Option func(*Cache) error

// WithLRU bounds the cache to capacity entries.
func WithLRU(capacity int) Option {
	return func(c *Cache) error {
		if capacity <= 0 {
			return fmt.Errorf("%w: %d", ErrInvalidCapacity, capacity)
		}
		c.mode = LRU
		c.capacity = capacity
		return nil
	}
}

// WithMode sets the mode and capacity in one step; capacity is ignored for
// Unbounded.
func WithMode(mode Mode, capacity int) Option {
	return func(c *Cache) error {
		switch mode {
		case "", Unbounded:
			c.mode = Unbounded
			return nil
		case LRU:
			return WithLRU(capacity)(c)
		default:
			return fmt.Errorf("%w: %q", ErrUnknownMode, mode)
		}
	}
}

// WithLogHandler sets the log handler for the cache.
func WithLogHandler(handler slog.Handler) Option {
	return func(c *Cache) error {
		if handler == nil {
			return fmt.Errorf("log handler cannot be nil")
		}
		c.logHandler = handler
		return nil
	}
}

// WithRegisterer registers the cache metrics with reg. The name is attached
// to every metric as the "function" label and must be unique per registerer.
func WithRegisterer(reg prometheus.Registerer, name string) Option {
	return func(c *Cache) error {
		if reg == nil {
			return fmt.Errorf("registerer cannot be nil")
		}
		c.registerer = reg
		c.name = name
		return nil
	}
}
