package config

import (
	"fmt"
	"math"
	"sort"
	"strconv"
)

// ValueType enumerates the supported parameter and define value types.
type ValueType string

const (
	TypeInteger ValueType = "integer"
	TypeReal    ValueType = "real"
	TypeString  ValueType = "string"
	TypeBoolean ValueType = "boolean"
)

// InferType infers a value type from a default value. Boolean is checked
// before integer since TOML decodes both distinctly.
func InferType(v any) ValueType {
	switch v.(type) {
	case bool:
		return TypeBoolean
	case int, int64:
		return TypeInteger
	case float64:
		return TypeReal
	default:
		return TypeString
	}
}

// Range bounds a numeric parameter, inclusive on both ends.
type Range struct {
	Min float64
	Max float64
}

// Parameter is a single declared parameter. Extension keys on the TOML
// table that are not reserved field names are collected into Inline as
// per-configuration values (the key is the configuration name).
type Parameter struct {
	// Default is the declared default value. Mutually exclusive with Expr.
	Default any

	// Type is the declared or inferred value type.
	Type ValueType

	// Description is free-form documentation.
	Description string

	// Range bounds numeric values, if set. Ignored for validation when
	// Values is also present.
	Range *Range

	// Values is an allow-list of accepted values, if set.
	Values []any

	// Expr is a computed-value expression. Mutually exclusive with Default.
	Expr string

	// Env names an environment variable whose value, when set, overrides
	// the default.
	Env string

	// Inline maps configuration names to inline per-configuration values.
	Inline map[string]any
}

// HasExpr reports whether the parameter is expression-valued.
func (p *Parameter) HasExpr() bool {
	return p.Expr != ""
}

// Define is a single declared preprocessor define. Like Parameter it
// carries an open extension map of inline configuration values.
type Define struct {
	Default     any
	Type        ValueType
	Description string
	Inline      map[string]any
}

// Configuration is a named bundle of parameter and define overrides.
// Parameters and Defines hold the user-declared explicit overrides;
// InlineParameters and InlineDefines hold values contributed by inline
// extension keys on Parameter/Define entries. The composer applies the
// two groups at different resolution stages.
type Configuration struct {
	Name        string
	Inherit     string
	Description string

	Parameters map[string]any
	Defines    map[string]any

	InlineParameters map[string]any
	InlineDefines    map[string]any

	// Auto marks configurations created purely from inline extension keys.
	Auto bool
}

// TestConfig describes one named test under a simulation tool.
type TestConfig struct {
	TestModule string `validate:"required"`
	Timeout    int
	Parameters map[string]any
	Env        map[string]string
}

// ToolConfig is the per-tool configuration block. Configurations lists the
// configuration names the tool accepts; the single entry "all" is a
// sentinel accepting every configuration of the module. A nil list also
// accepts everything.
type ToolConfig struct {
	Configurations []string
	Parameters     map[string]any
	Defines        map[string]any
	Tests          map[string]TestConfig

	// Extra holds tool-specific nested tables (for example per-simulator
	// argument sets) that the composer passes through untouched.
	Extra map[string]any
}

// AllowsAll reports whether the tool accepts every module configuration.
func (t *ToolConfig) AllowsAll() bool {
	if len(t.Configurations) == 0 {
		return true
	}
	for _, name := range t.Configurations {
		if name == ConfigurationAll {
			return true
		}
	}
	return false
}

// SimulatorSettings is a per-simulator argument block nested under a tool
// table, e.g. [tools.sim.verilator].
type SimulatorSettings struct {
	CompileArgs []string
	SimArgs     []string
	Defines     map[string]any
}

// SimulatorSettings decodes the nested table for the named simulator from
// the tool's extra tables. Returns a zero value when absent.
func (t *ToolConfig) SimulatorSettings(name string) SimulatorSettings {
	var s SimulatorSettings
	raw, ok := t.Extra[name].(map[string]any)
	if !ok {
		return s
	}
	s.CompileArgs = stringList(raw["compile_args"])
	s.SimArgs = stringList(raw["sim_args"])
	if d, ok := raw["defines"].(map[string]any); ok {
		s.Defines = d
	}
	return s
}

// ModuleType classifies the HDL module.
type ModuleType string

const (
	ModuleRTL       ModuleType = "rtl"
	ModuleTestbench ModuleType = "testbench"
	ModuleIP        ModuleType = "ip"
	ModulePrimitive ModuleType = "primitive"
)

// Module is the identity section of a project document.
type Module struct {
	Name        string `validate:"required"`
	Top         string `validate:"required"`
	Type        ModuleType
	Description string
}

// Sources holds the ordered source-file lists. Entries are plain
// repository-relative paths or @libname/ symbolic library paths.
type Sources struct {
	Packages  []string
	Modules   []string
	Includes  []string
	Resources []string
}

// ModuleConfig is the fully parsed and enriched project document. It is
// built once per load and treated as immutable afterwards; commands
// re-read it from disk on the next invocation.
type ModuleConfig struct {
	Module  Module
	Sources Sources

	Parameters     map[string]*Parameter
	Defines        map[string]*Define
	Configurations map[string]*Configuration
	Tools          map[string]*ToolConfig

	// Path is the document location, for diagnostics only.
	Path string
}

// ConfigurationNames returns the configuration names in sorted order.
func (m *ModuleConfig) ConfigurationNames() []string {
	names := make([]string, 0, len(m.Configurations))
	for name := range m.Configurations {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// AllSources returns packages followed by modules, in declaration order.
func (m *ModuleConfig) AllSources() []string {
	out := make([]string, 0, len(m.Sources.Packages)+len(m.Sources.Modules))
	out = append(out, m.Sources.Packages...)
	out = append(out, m.Sources.Modules...)
	return out
}

// ConfigurationDefault is the name of the configuration that always exists.
const ConfigurationDefault = "default"

// ConfigurationAll is the sentinel accepting or expanding to every
// configuration of a module.
const ConfigurationAll = "all"

// coerceValue converts v to the given type, or fails when the value cannot
// represent it.
func coerceValue(v any, t ValueType) (any, error) {
	switch t {
	case TypeInteger:
		switch x := v.(type) {
		case int64:
			return x, nil
		case int:
			return int64(x), nil
		case float64:
			if x == math.Trunc(x) {
				return int64(x), nil
			}
			return nil, fmt.Errorf("%v is not an integer", v)
		case bool:
			if x {
				return int64(1), nil
			}
			return int64(0), nil
		case string:
			n, err := strconv.ParseInt(x, 0, 64)
			if err != nil {
				return nil, fmt.Errorf("%q is not an integer", x)
			}
			return n, nil
		}
	case TypeReal:
		if f, ok := toFloat(v); ok {
			return f, nil
		}
		return nil, fmt.Errorf("%v is not a number", v)
	case TypeBoolean:
		switch x := v.(type) {
		case bool:
			return x, nil
		case int64:
			return x != 0, nil
		case int:
			return x != 0, nil
		case string:
			switch x {
			case "true", "True":
				return true, nil
			case "false", "False":
				return false, nil
			}
		}
		return nil, fmt.Errorf("%v is not a boolean", v)
	case TypeString:
		if s, ok := v.(string); ok {
			return s, nil
		}
		return fmt.Sprintf("%v", v), nil
	}
	return v, nil
}

// toFloat converts any numeric value to float64.
func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case int64:
		return float64(x), true
	case int:
		return float64(x), true
	case float64:
		return x, true
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

// valuesEqual compares two values, treating numerics of different widths
// as equal when they represent the same number. Booleans only compare
// equal to booleans.
func valuesEqual(a, b any) bool {
	if a == b {
		return true
	}
	_, aBool := a.(bool)
	_, bBool := b.(bool)
	if aBool != bBool {
		return false
	}
	fa, oka := toFloat(a)
	fb, okb := toFloat(b)
	if oka && okb {
		return fa == fb
	}
	return false
}

// stringList converts a decoded TOML array to a string slice, skipping
// non-string entries.
func stringList(v any) []string {
	arr, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(arr))
	for _, e := range arr {
		if s, ok := e.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// sortedKeys returns the sorted keys of a map with string keys.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
