package function

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/robbyt/go-evalexpr/platform/evalerr"
)

// Host is the part of a host engine that scalar functions are registered with.
type Host interface {
	Register(fn *ScalarFunction) error
	Unregister(sig Signature) error
}

type overload struct {
	name  string
	arity int
}

// Registry is an in-memory Host. Functions are keyed by name and arity, so a
// name may have several overloads.
type Registry struct {
	mu    sync.RWMutex
	funcs map[overload]*ScalarFunction
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{funcs: make(map[overload]*ScalarFunction)}
}

// Register adds fn. Registering the same name and arity twice fails.
func (r *Registry) Register(fn *ScalarFunction) error {
	key := overload{fn.Name(), fn.Signature().Arity()}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.funcs[key]; ok {
		return fmt.Errorf("%w: %s", ErrAlreadyRegistered, fn.Signature())
	}
	r.funcs[key] = fn
	return nil
}

// Unregister removes the overload matching sig.
func (r *Registry) Unregister(sig Signature) error {
	key := overload{sig.Name, sig.Arity()}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.funcs[key]; !ok {
		return fmt.Errorf("%w: %s", ErrNotRegistered, sig)
	}
	delete(r.funcs, key)
	return nil
}

// Lookup returns the overload of name taking arity arguments.
func (r *Registry) Lookup(name string, arity int) (*ScalarFunction, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.funcs[overload{name, arity}]
	return fn, ok
}

// Names returns the sorted, distinct names of the registered functions.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.funcs))
	for k := range r.funcs {
		names = append(names, k.name)
	}
	slices.Sort(names)
	return slices.Compact(names)
}

// Call resolves the overload of name matching the column count of rec and
// executes it.
func (r *Registry) Call(ctx context.Context, name string, rec arrow.Record) (arrow.Array, error) {
	if rec == nil {
		return nil, evalerr.New(evalerr.KindBind, "%s: nil record", name)
	}
	fn, ok := r.Lookup(name, int(rec.NumCols()))
	if !ok {
		return nil, fmt.Errorf("%w: %s with %d arguments", ErrNotRegistered, name, rec.NumCols())
	}
	return fn.Execute(ctx, rec)
}
