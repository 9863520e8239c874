package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// Reserved field names on parameter and define tables. Any other key is an
// inline per-configuration value.
var (
	parameterReserved = map[string]bool{
		"default":     true,
		"type":        true,
		"description": true,
		"range":       true,
		"values":      true,
		"expr":        true,
		"env":         true,
	}
	defineReserved = map[string]bool{
		"default":     true,
		"type":        true,
		"description": true,
	}
	toolReserved = map[string]bool{
		"configurations": true,
		"parameters":     true,
		"defines":        true,
		"tests":          true,
	}
)

// Loader parses project TOML documents into ModuleConfig values. The raw
// document is decoded into generic maps first so extension keys survive,
// then built into the typed model explicitly.
type Loader struct {
	validate *validator.Validate
}

// NewLoader creates a loader.
func NewLoader() *Loader {
	return &Loader{validate: validator.New()}
}

// Load reads and parses the project document at path.
func (l *Loader) Load(path string) (*ModuleConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, NewSchemaError("cannot read project file %s", path).wrap(err)
	}
	return l.Parse(data, path)
}

// Parse parses a project document. The path is used for diagnostics only.
func (l *Loader) Parse(data []byte, path string) (*ModuleConfig, error) {
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, NewSchemaError("invalid TOML in %s", path).wrap(err)
	}

	cfg := &ModuleConfig{
		Parameters:     make(map[string]*Parameter),
		Defines:        make(map[string]*Define),
		Configurations: make(map[string]*Configuration),
		Tools:          make(map[string]*ToolConfig),
		Path:           path,
	}

	if err := l.buildModule(cfg, raw); err != nil {
		return nil, err
	}
	if err := buildParameters(cfg, raw); err != nil {
		return nil, err
	}
	if err := buildDefines(cfg, raw); err != nil {
		return nil, err
	}
	if err := buildConfigurations(cfg, raw); err != nil {
		return nil, err
	}
	if err := l.buildTools(cfg, raw); err != nil {
		return nil, err
	}

	extractInlineConfigurations(cfg)

	if err := l.validate.Struct(cfg.Module); err != nil {
		return nil, NewSchemaError("incomplete [module] section in %s", path).wrap(err)
	}
	if err := ValidateModule(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (l *Loader) buildModule(cfg *ModuleConfig, raw map[string]any) error {
	moduleData, ok := raw["module"].(map[string]any)
	if !ok {
		return NewSchemaError("missing [module] section in %s", cfg.Path)
	}

	cfg.Module.Name, _ = moduleData["name"].(string)
	cfg.Module.Top, _ = moduleData["top"].(string)
	cfg.Module.Description, _ = moduleData["description"].(string)

	typ, _ := moduleData["type"].(string)
	switch ModuleType(typ) {
	case "":
		cfg.Module.Type = ModuleRTL
	case ModuleRTL, ModuleTestbench, ModuleIP, ModulePrimitive:
		cfg.Module.Type = ModuleType(typ)
	default:
		return NewSchemaError("unknown module type %q", typ)
	}

	if sourcesData, ok := moduleData["sources"].(map[string]any); ok {
		cfg.Sources.Packages = stringList(sourcesData["packages"])
		cfg.Sources.Modules = stringList(sourcesData["modules"])
		cfg.Sources.Includes = stringList(sourcesData["includes"])
		cfg.Sources.Resources = stringList(sourcesData["resources"])
	}
	return nil
}

func buildParameters(cfg *ModuleConfig, raw map[string]any) error {
	paramsData, ok := raw["parameters"].(map[string]any)
	if !ok {
		return nil
	}

	for _, name := range sortedKeys(paramsData) {
		table, ok := paramsData[name].(map[string]any)
		if !ok {
			// Simple-value shorthand: WIDTH = 8
			cfg.Parameters[name] = &Parameter{
				Default: paramsData[name],
				Type:    InferType(paramsData[name]),
			}
			continue
		}
		p, err := buildParameter(name, table)
		if err != nil {
			return err
		}
		cfg.Parameters[name] = p
	}
	return nil
}

func buildParameter(name string, table map[string]any) (*Parameter, error) {
	p := &Parameter{Inline: make(map[string]any)}

	p.Expr, _ = table["expr"].(string)
	p.Env, _ = table["env"].(string)
	p.Description, _ = table["description"].(string)

	_, hasDefault := table["default"]
	if hasDefault && p.HasExpr() {
		return nil, NewSchemaError("both default and expr set").WithParameter(name)
	}
	if !hasDefault && !p.HasExpr() {
		return nil, NewSchemaError("one of default or expr is required").WithParameter(name)
	}

	if typ, ok := table["type"].(string); ok {
		switch ValueType(typ) {
		case TypeInteger, TypeReal, TypeString, TypeBoolean:
			p.Type = ValueType(typ)
		default:
			return nil, NewSchemaError("unknown type %q", typ).WithParameter(name)
		}
	}

	if hasDefault {
		if p.Type == "" {
			p.Type = InferType(table["default"])
		}
		v, err := coerceValue(table["default"], p.Type)
		if err != nil {
			return nil, NewSchemaError("default value: %v", err).WithParameter(name)
		}
		p.Default = v
	}

	if rangeData, ok := table["range"]; ok {
		r, err := buildRange(rangeData)
		if err != nil {
			return nil, NewSchemaError("%v", err).WithParameter(name)
		}
		p.Range = r
	}

	if valuesData, ok := table["values"]; ok {
		arr, ok := valuesData.([]any)
		if !ok {
			return nil, NewSchemaError("values must be an array").WithParameter(name)
		}
		for _, v := range arr {
			cv := v
			if p.Type != "" {
				var err error
				cv, err = coerceValue(v, p.Type)
				if err != nil {
					return nil, NewSchemaError("allowed value: %v", err).WithParameter(name)
				}
			}
			p.Values = append(p.Values, cv)
		}
	}

	for _, key := range sortedKeys(table) {
		if parameterReserved[key] {
			continue
		}
		if _, isTable := table[key].(map[string]any); isTable {
			return nil, NewSchemaError("inline configuration value %q must be a scalar", key).WithParameter(name)
		}
		p.Inline[key] = table[key]
	}
	return p, nil
}

func buildRange(v any) (*Range, error) {
	arr, ok := v.([]any)
	if !ok || len(arr) != 2 {
		return nil, fmt.Errorf("range must be a [min, max] pair")
	}
	lo, okLo := toFloat(arr[0])
	hi, okHi := toFloat(arr[1])
	if !okLo || !okHi {
		return nil, fmt.Errorf("range bounds must be numeric")
	}
	return &Range{Min: lo, Max: hi}, nil
}

func buildDefines(cfg *ModuleConfig, raw map[string]any) error {
	definesData, ok := raw["defines"].(map[string]any)
	if !ok {
		return nil
	}

	for _, name := range sortedKeys(definesData) {
		table, ok := definesData[name].(map[string]any)
		if !ok {
			cfg.Defines[name] = &Define{
				Default: definesData[name],
				Type:    InferType(definesData[name]),
			}
			continue
		}

		d := &Define{Inline: make(map[string]any)}
		if _, ok := table["default"]; !ok {
			return NewSchemaError("default is required").WithParameter(name)
		}
		d.Description, _ = table["description"].(string)
		if typ, ok := table["type"].(string); ok {
			switch ValueType(typ) {
			case TypeInteger, TypeReal, TypeString, TypeBoolean:
				d.Type = ValueType(typ)
			default:
				return NewSchemaError("unknown type %q", typ).WithParameter(name)
			}
		} else {
			d.Type = InferType(table["default"])
		}
		v, err := coerceValue(table["default"], d.Type)
		if err != nil {
			return NewSchemaError("default value: %v", err).WithParameter(name)
		}
		d.Default = v

		for _, key := range sortedKeys(table) {
			if defineReserved[key] {
				continue
			}
			if _, isTable := table[key].(map[string]any); isTable {
				return NewSchemaError("inline configuration value %q must be a scalar", key).WithParameter(name)
			}
			d.Inline[key] = table[key]
		}
		cfg.Defines[name] = d
	}
	return nil
}

func buildConfigurations(cfg *ModuleConfig, raw map[string]any) error {
	configsData, ok := raw["configurations"].(map[string]any)
	if !ok {
		return nil
	}

	for _, name := range sortedKeys(configsData) {
		table, ok := configsData[name].(map[string]any)
		if !ok {
			return NewSchemaError("configuration must be a table").WithConfiguration(name)
		}
		c := &Configuration{
			Name:       name,
			Parameters: make(map[string]any),
			Defines:    make(map[string]any),
		}
		c.Inherit, _ = table["inherit"].(string)
		c.Description, _ = table["description"].(string)
		if params, ok := table["parameters"].(map[string]any); ok {
			for k, v := range params {
				c.Parameters[k] = v
			}
		}
		if defines, ok := table["defines"].(map[string]any); ok {
			for k, v := range defines {
				c.Defines[k] = v
			}
		}
		cfg.Configurations[name] = c
	}
	return nil
}

func (l *Loader) buildTools(cfg *ModuleConfig, raw map[string]any) error {
	toolsData, ok := raw["tools"].(map[string]any)
	if !ok {
		return nil
	}

	for _, name := range sortedKeys(toolsData) {
		table, ok := toolsData[name].(map[string]any)
		if !ok {
			return NewSchemaError("tool section must be a table").WithTool(name)
		}
		t := &ToolConfig{
			Parameters: make(map[string]any),
			Defines:    make(map[string]any),
			Tests:      make(map[string]TestConfig),
			Extra:      make(map[string]any),
		}
		t.Configurations = stringList(table["configurations"])
		if params, ok := table["parameters"].(map[string]any); ok {
			for k, v := range params {
				t.Parameters[k] = v
			}
		}
		if defines, ok := table["defines"].(map[string]any); ok {
			for k, v := range defines {
				t.Defines[k] = v
			}
		}
		if testsData, ok := table["tests"].(map[string]any); ok {
			for _, testName := range sortedKeys(testsData) {
				testTable, ok := testsData[testName].(map[string]any)
				if !ok {
					return NewSchemaError("test %q must be a table", testName).WithTool(name)
				}
				tc, err := l.buildTest(name, testName, testTable)
				if err != nil {
					return err
				}
				t.Tests[testName] = tc
			}
		}
		for _, key := range sortedKeys(table) {
			if toolReserved[key] {
				continue
			}
			t.Extra[key] = table[key]
		}
		cfg.Tools[name] = t
	}
	return nil
}

func (l *Loader) buildTest(tool, name string, table map[string]any) (TestConfig, error) {
	tc := TestConfig{
		Timeout:    60,
		Parameters: make(map[string]any),
		Env:        make(map[string]string),
	}
	tc.TestModule, _ = table["test_module"].(string)
	if timeout, ok := table["timeout"].(int64); ok {
		tc.Timeout = int(timeout)
	}
	if params, ok := table["parameters"].(map[string]any); ok {
		for k, v := range params {
			tc.Parameters[k] = v
		}
	}
	if env, ok := table["env"].(map[string]any); ok {
		for k, v := range env {
			if s, ok := v.(string); ok {
				tc.Env[k] = s
			}
		}
	}
	if err := l.validate.Struct(tc); err != nil {
		return tc, NewSchemaError("test %q is missing test_module", name).WithTool(tool).wrap(err)
	}
	return tc, nil
}

// wrap attaches an underlying error.
func (e *Error) wrap(err error) *Error {
	e.Err = err
	return e
}
