package options

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// File is the YAML form of a function configuration. Unset fields keep
// their defaults.
//
//	function_name: evalexpr
//	dialect: starlark
//	variables: [a, b]
//	return_type: int64
//	cache:
//	  mode: lru
//	  capacity: 512
//	operation_budget: 1000000
//	row_timeout: 250ms
//	error_mode: fail
type File struct {
	FunctionName         string        `yaml:"function_name"`
	Dialect              string        `yaml:"dialect"`
	Variables            []string      `yaml:"variables"`
	JSONVariables        []string      `yaml:"json_variables"`
	ReturnType           string        `yaml:"return_type"`
	Cache                FileCache     `yaml:"cache"`
	OperationBudget      *uint64       `yaml:"operation_budget"`
	RowTimeout           time.Duration `yaml:"row_timeout"`
	AllowStatefulScripts bool          `yaml:"allow_stateful_scripts"`
	NullPropagation      *bool         `yaml:"null_propagation"`
	ErrorMode            string        `yaml:"error_mode"`
}

type FileCache struct {
	Mode     string `yaml:"mode"`
	Capacity int    `yaml:"capacity"`
}

// FromYAML decodes a YAML document into options. Unknown keys are errors.
func FromYAML(data []byte) ([]Option, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("error decoding config: %w", err)
	}
	return f.Options(), nil
}

// FromYAMLFile reads and decodes the YAML file at path.
func FromYAMLFile(path string) ([]Option, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromYAML(data)
}

// Options returns the options for every field set in f.
func (f *File) Options() []Option {
	var opts []Option
	if f.FunctionName != "" {
		opts = append(opts, WithFunctionName(f.FunctionName))
	}
	if f.Dialect != "" {
		opts = append(opts, WithDialect(f.Dialect))
	}
	if f.Variables != nil {
		opts = append(opts, WithVariables(f.Variables...))
	}
	if f.JSONVariables != nil {
		opts = append(opts, WithJSONVariables(f.JSONVariables...))
	}
	if f.ReturnType != "" {
		opts = append(opts, WithReturnType(f.ReturnType))
	}
	if f.Cache.Mode != "" {
		opts = append(opts, WithCache(f.Cache.Mode, f.Cache.Capacity))
	}
	if f.OperationBudget != nil {
		opts = append(opts, WithOperationBudget(*f.OperationBudget))
	}
	if f.RowTimeout != 0 {
		opts = append(opts, WithRowTimeout(f.RowTimeout))
	}
	if f.AllowStatefulScripts {
		opts = append(opts, WithStatefulScripts(true))
	}
	if f.NullPropagation != nil {
		opts = append(opts, WithNullPropagation(*f.NullPropagation))
	}
	if f.ErrorMode != "" {
		opts = append(opts, WithErrorMode(f.ErrorMode))
	}
	return opts
}
