package helpers

import (
	"log/slog"
	"os"
)

// SetupLogger returns the handler and a logger for one component of the bridge.
// When handler is nil a text handler on stderr, grouped under component, is used
// instead and a warning is emitted once through it.
//
// Parameters:
//   - handler: The slog.Handler to use, or nil for defaults
//   - component: The component name (e.g., "cache", "starlark")
//   - groupName: Optional group inside the component, usually the type name
func SetupLogger(handler slog.Handler, component string, groupName string) (slog.Handler, *slog.Logger) {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, nil).WithGroup(component)
		slog.New(handler).Warn("Handler is nil, using the default logger configuration.")
	}

	if groupName == "" {
		return handler, slog.New(handler)
	}
	return handler, slog.New(handler.WithGroup(groupName))
}
