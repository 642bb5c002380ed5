// Package evalexpr registers scripted expressions as scalar functions over
// Arrow batches.
package evalexpr

import (
	"slices"

	"github.com/robbyt/go-evalexpr/function"
	"github.com/robbyt/go-evalexpr/options"
)

// ContextVariable is the variable bound to the JSON document passed as the
// second argument of the context overload.
const ContextVariable = "context"

// New returns a standalone scalar function configured by opts.
func New(opts ...options.Option) (*function.ScalarFunction, error) {
	cfg, err := options.New(opts...)
	if err != nil {
		return nil, err
	}
	return function.New(cfg)
}

// NewFromYAML returns a scalar function configured by a YAML document. The
// opts are applied after the document, so they take precedence.
func NewFromYAML(data []byte, opts ...options.Option) (*function.ScalarFunction, error) {
	fileOpts, err := options.FromYAML(data)
	if err != nil {
		return nil, err
	}
	return New(append(fileOpts, opts...)...)
}

// Load registers the configured function with host, together with an overload
// that takes one more argument: a JSON document bound as ContextVariable.
// When the configuration already declares ContextVariable, only the
// configured function is registered.
//
// Closing the returned Extension unregisters both and drops their caches.
func Load(host function.Host, opts ...options.Option) (*function.Extension, error) {
	base, err := options.New(opts...)
	if err != nil {
		return nil, err
	}
	vars := base.GetVariables()
	if slices.Contains(vars, ContextVariable) {
		return function.Load(host, base)
	}

	withContext, err := options.New(append(slices.Clone(opts),
		options.WithVariables(append(vars, ContextVariable)...),
		options.WithJSONVariables(append(base.GetJSONVariables(), ContextVariable)...),
	)...)
	if err != nil {
		return nil, err
	}
	return function.Load(host, base, withContext)
}
