package batch

import (
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures an Evaluator.
type Option func(*Evaluator) error

// WithNullPropagation controls whether a runtime error in a row that bound a
// NULL input yields NULL instead of an error record. It is on by default.
func WithNullPropagation(enabled bool) Option {
	return func(e *Evaluator) error {
		e.nullPropagation = enabled
		return nil
	}
}

// WithJSONVariables decodes the text bound to the named variables as JSON.
func WithJSONVariables(names ...string) Option {
	return func(e *Evaluator) error {
		e.jsonVars = append(e.jsonVars, names...)
		return nil
	}
}

// WithWorkers bounds the number of batches EvaluateAll runs at once.
func WithWorkers(n int) Option {
	return func(e *Evaluator) error {
		if n <= 0 {
			return fmt.Errorf("workers must be positive, got %d", n)
		}
		e.workers = n
		return nil
	}
}

// WithLogHandler sets the log handler for the evaluator.
func WithLogHandler(handler slog.Handler) Option {
	return func(e *Evaluator) error {
		if handler == nil {
			return fmt.Errorf("log handler cannot be nil")
		}
		e.logHandler = handler
		return nil
	}
}

// WithRegisterer registers the evaluator metrics with reg under the given
// function name.
func WithRegisterer(reg prometheus.Registerer, name string) Option {
	return func(e *Evaluator) error {
		if reg == nil {
			return fmt.Errorf("registerer cannot be nil")
		}
		e.registerer = reg
		e.name = name
		return nil
	}
}
