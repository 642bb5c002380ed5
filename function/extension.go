package function

import (
	"log/slog"

	"go.uber.org/multierr"

	"github.com/robbyt/go-evalexpr/internal/helpers"
	"github.com/robbyt/go-evalexpr/options"
)

// Extension is the set of functions registered with a host in one load. Its
// lifetime bounds the lifetime of the expression caches.
type Extension struct {
	host      Host
	functions []*ScalarFunction

	logHandler slog.Handler
	logger     *slog.Logger
}

// Load builds one function per config and registers each with host. If any
// step fails, the functions registered so far are unregistered again.
func Load(host Host, configs ...*options.Config) (*Extension, error) {
	if host == nil {
		return nil, ErrNilHost
	}

	var handler slog.Handler
	if len(configs) > 0 && configs[0] != nil {
		handler = configs[0].GetHandler()
	}
	x := &Extension{host: host}
	x.logHandler, x.logger = helpers.SetupLogger(handler, "function", "Extension")

	for _, cfg := range configs {
		fn, err := New(cfg)
		if err != nil {
			return nil, multierr.Append(err, x.Close())
		}
		if err := host.Register(fn); err != nil {
			fn.Close()
			return nil, multierr.Append(err, x.Close())
		}
		x.functions = append(x.functions, fn)
		x.logger.Debug("registered function", "signature", fn.Signature().String())
	}
	return x, nil
}

// Functions returns the registered functions in load order.
func (x *Extension) Functions() []*ScalarFunction {
	out := make([]*ScalarFunction, len(x.functions))
	copy(out, x.functions)
	return out
}

// Close unregisters every function and drops their compiled expressions.
func (x *Extension) Close() error {
	var errs error
	for _, fn := range x.functions {
		errs = multierr.Append(errs, x.host.Unregister(fn.Signature()))
		fn.Close()
	}
	x.functions = nil
	return errs
}
