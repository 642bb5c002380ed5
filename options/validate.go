package options

import (
	"fmt"
	"regexp"
	"slices"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/robbyt/go-evalexpr/engines/types"
	"github.com/robbyt/go-evalexpr/platform/bridge"
	"github.com/robbyt/go-evalexpr/platform/cache"
)

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// reserved names are predeclared by the engines.
var reserved = []string{"state", "json", "math", "time", "__evalexpr_result__"}

// Validate checks the configuration and resolves the return type.
func (c *Config) Validate() error {
	if c.handler == nil {
		return fmt.Errorf("no log handler specified")
	}
	if !identifier.MatchString(c.functionName) {
		return fmt.Errorf("%w: function name %q", ErrInvalidName, c.functionName)
	}
	if _, err := types.Parse(string(c.dialect)); err != nil {
		return err
	}
	if err := c.validateVariables(); err != nil {
		return err
	}

	if c.ReturnsJSON() {
		c.returnType = arrow.BinaryTypes.String
	} else {
		dt, err := bridge.ParseType(c.returnTypeName)
		if err != nil {
			return err
		}
		c.returnType = dt
	}

	switch c.cacheMode {
	case cache.Unbounded:
	case cache.LRU:
		if c.cacheCapacity <= 0 {
			return fmt.Errorf("%w: %d", cache.ErrInvalidCapacity, c.cacheCapacity)
		}
	default:
		return fmt.Errorf("%w: %q", cache.ErrUnknownMode, c.cacheMode)
	}

	if c.allowStateful && c.dialect != types.Starlark {
		return fmt.Errorf("%w: got %s", ErrStatefulDialect, c.dialect)
	}
	if _, err := ParseErrorMode(string(c.errorMode)); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateVariables() error {
	seen := make(map[string]struct{}, len(c.variables))
	for _, n := range c.variables {
		if !identifier.MatchString(n) {
			return fmt.Errorf("%w: variable %q", ErrInvalidName, n)
		}
		if slices.Contains(reserved, n) {
			return fmt.Errorf("%w: %q", ErrReservedVariable, n)
		}
		if _, ok := seen[n]; ok {
			return fmt.Errorf("%w: %q", ErrDuplicateVariable, n)
		}
		seen[n] = struct{}{}
	}
	for _, n := range c.jsonVariables {
		if _, ok := seen[n]; !ok {
			return fmt.Errorf("%w: %q", ErrUnknownVariable, n)
		}
	}
	return nil
}
