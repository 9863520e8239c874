package config

import (
	"os"
	"strconv"
	"strings"
)

// Resolved is the output of one composition: the final parameter and
// define values for a (tool, configuration, overrides) request.
type Resolved struct {
	Tool          string
	Configuration string
	Parameters    map[string]any
	Defines       map[string]any
}

// Composer merges parameter and define values from the layered override
// sources into one resolved value set. Resolution proceeds in five
// strictly ordered stages; later stages overwrite earlier ones only for
// the keys they explicitly set:
//
//  1. declared defaults (or evaluated expressions), plus environment
//     overrides for parameters declaring an env name
//  2. inline-extracted values for the requested configuration
//  3. explicit values from the named configuration after resolving its
//     inherit chain, applied root-to-leaf
//  4. the tool's override maps
//  5. caller-supplied overrides
//
// A Composer holds no mutable state: identical inputs always produce
// identical output, and Compose may be called concurrently.
type Composer struct {
	// LookupEnv resolves environment-variable overrides. Defaults to
	// os.LookupEnv; tests inject their own.
	LookupEnv func(string) (string, bool)
}

// NewComposer creates a composer backed by the process environment.
func NewComposer() *Composer {
	return &Composer{LookupEnv: os.LookupEnv}
}

// Compose resolves the final values for the given tool and configuration.
// Overrides are caller-supplied assignments (highest priority); keys must
// name declared parameters or defines.
func (c *Composer) Compose(cfg *ModuleConfig, tool, configName string, overrides map[string]any) (*Resolved, error) {
	entry, ok := cfg.Configurations[configName]
	if !ok {
		return nil, NewUnknownReferenceError(
			"unknown configuration %q, available: %s",
			configName, strings.Join(cfg.ConfigurationNames(), ", "),
		).WithConfiguration(configName)
	}

	toolCfg := cfg.Tools[tool]
	if toolCfg != nil {
		if err := ValidateToolConfigurations(cfg, tool, []string{configName}); err != nil {
			return nil, err
		}
	}

	params := make(map[string]any, len(cfg.Parameters))
	defines := make(map[string]any, len(cfg.Defines))
	overridden := make(map[string]bool)

	// Stage 1: declared defaults. Expression parameters stay unset until
	// evaluation below.
	for name, p := range cfg.Parameters {
		if !p.HasExpr() {
			params[name] = p.Default
		}
	}
	for name, d := range cfg.Defines {
		defines[name] = d.Default
	}

	if err := c.applyEnvOverrides(cfg, params, overridden); err != nil {
		return nil, err
	}

	// Stage 2: inline-extracted values of the requested configuration.
	inlineParams := make(map[string]bool, len(entry.InlineParameters))
	for _, name := range sortedKeys(entry.InlineParameters) {
		params[name] = entry.InlineParameters[name]
		overridden[name] = true
		inlineParams[name] = true
	}
	inlineDefines := make(map[string]bool, len(entry.InlineDefines))
	for _, name := range sortedKeys(entry.InlineDefines) {
		defines[name] = entry.InlineDefines[name]
		inlineDefines[name] = true
	}

	// Stage 3: explicit configuration values along the inherit chain,
	// ancestors first so the requested configuration wins. An ancestor's
	// value never displaces an inline value of the requested configuration;
	// only the configuration's own entries do that.
	chain, err := inheritChain(cfg, configName)
	if err != nil {
		return nil, err
	}
	for i := len(chain) - 1; i >= 0; i-- {
		cc := chain[i]
		ancestor := i > 0
		for _, name := range sortedKeys(cc.Parameters) {
			if _, declared := cfg.Parameters[name]; !declared {
				return nil, NewUnknownReferenceError("override of undeclared parameter %q", name).
					WithParameter(name).
					WithConfiguration(cc.Name)
			}
			if ancestor && inlineParams[name] {
				continue
			}
			params[name] = cc.Parameters[name]
			overridden[name] = true
		}
		for _, name := range sortedKeys(cc.Defines) {
			if _, declared := cfg.Defines[name]; !declared {
				return nil, NewUnknownReferenceError("override of undeclared define %q", name).
					WithParameter(name).
					WithConfiguration(cc.Name)
			}
			if ancestor && inlineDefines[name] {
				continue
			}
			defines[name] = cc.Defines[name]
		}
	}

	// Computed parameters see the values resolved through stage 3; a
	// parameter overridden earlier keeps its override.
	if err := evaluateExpressions(cfg, configName, params, overridden); err != nil {
		return nil, err
	}

	// Stage 4: tool overrides.
	if toolCfg != nil {
		for _, name := range sortedKeys(toolCfg.Parameters) {
			if _, declared := cfg.Parameters[name]; !declared {
				return nil, NewUnknownReferenceError("override of undeclared parameter %q", name).
					WithParameter(name).
					WithTool(tool)
			}
			params[name] = toolCfg.Parameters[name]
		}
		for _, name := range sortedKeys(toolCfg.Defines) {
			if _, declared := cfg.Defines[name]; !declared {
				return nil, NewUnknownReferenceError("override of undeclared define %q", name).
					WithParameter(name).
					WithTool(tool)
			}
			defines[name] = toolCfg.Defines[name]
		}
	}

	// Stage 5: caller overrides.
	for _, name := range sortedKeys(overrides) {
		switch {
		case cfg.Parameters[name] != nil:
			params[name] = overrides[name]
		case cfg.Defines[name] != nil:
			defines[name] = overrides[name]
		default:
			return nil, NewUnknownReferenceError("override of undeclared parameter or define %q", name).
				WithParameter(name).
				WithConfiguration(configName)
		}
	}

	// Post-composition validation of every resolved value.
	for _, name := range sortedKeys(params) {
		v, err := validateParameterValue(name, params[name], cfg.Parameters[name], configName)
		if err != nil {
			return nil, err
		}
		params[name] = v
	}
	for _, name := range sortedKeys(defines) {
		d := cfg.Defines[name]
		if d.Type == "" {
			continue
		}
		v, cerr := coerceValue(defines[name], d.Type)
		if cerr != nil {
			return nil, NewValidationError("define value %v is not %s", defines[name], d.Type).
				WithParameter(name).
				WithConfiguration(configName)
		}
		defines[name] = v
	}

	return &Resolved{
		Tool:          tool,
		Configuration: configName,
		Parameters:    params,
		Defines:       defines,
	}, nil
}

// applyEnvOverrides applies environment-variable values for parameters
// that declare an env name. Sits between stage 1 and stage 2.
func (c *Composer) applyEnvOverrides(cfg *ModuleConfig, params map[string]any, overridden map[string]bool) error {
	if c.LookupEnv == nil {
		return nil
	}
	for _, name := range sortedKeys(cfg.Parameters) {
		p := cfg.Parameters[name]
		if p.Env == "" {
			continue
		}
		raw, ok := c.LookupEnv(p.Env)
		if !ok {
			continue
		}
		var v any
		if p.Type != "" {
			coerced, err := coerceValue(raw, p.Type)
			if err != nil {
				return NewValidationError("environment value %s=%q: %v", p.Env, raw, err).
					WithParameter(name)
			}
			v = coerced
		} else {
			v = ParseValue(raw)
		}
		params[name] = v
		overridden[name] = true
	}
	return nil
}

// inheritChain returns the configuration chain from the requested entry up
// through its ancestors, leaf first. Revisiting a name already on the
// chain is a circular-inheritance error naming the full cycle.
func inheritChain(cfg *ModuleConfig, configName string) ([]*Configuration, error) {
	var chain []*Configuration
	visited := make(map[string]int)
	name := configName
	for name != "" {
		if _, seen := visited[name]; seen {
			cycle := make([]string, 0, len(chain)+1)
			for _, cc := range chain[visited[name]:] {
				cycle = append(cycle, cc.Name)
			}
			cycle = append(cycle, name)
			return nil, NewCircularDependencyError("circular configuration inheritance", cycle).
				WithConfiguration(configName)
		}
		entry, ok := cfg.Configurations[name]
		if !ok {
			return nil, NewUnknownReferenceError("inherits from unknown configuration %q", name).
				WithConfiguration(chain[len(chain)-1].Name)
		}
		visited[name] = len(chain)
		chain = append(chain, entry)
		name = entry.Inherit
	}
	return chain, nil
}

// validateParameterValue checks one resolved value against its parameter
// declaration: type first, then the allow-list when present, otherwise
// the range bounds.
func validateParameterValue(name string, v any, p *Parameter, configName string) (any, *Error) {
	if p.Type != "" {
		coerced, err := coerceValue(v, p.Type)
		if err != nil {
			return nil, NewValidationError("value %v is not %s", v, p.Type).
				WithParameter(name).
				WithConfiguration(configName)
		}
		v = coerced
	}

	if len(p.Values) > 0 {
		for _, allowed := range p.Values {
			if valuesEqual(v, allowed) {
				return v, nil
			}
		}
		return nil, NewValidationError("value %v not in allowed values %v", v, p.Values).
			WithParameter(name).
			WithConfiguration(configName)
	}

	if p.Range != nil {
		f, ok := toFloat(v)
		if ok && (f < p.Range.Min || f > p.Range.Max) {
			return nil, NewValidationError("value %v is outside range [%v, %v]", v, p.Range.Min, p.Range.Max).
				WithParameter(name).
				WithConfiguration(configName)
		}
	}
	return v, nil
}

// ParseValue parses a textual value with type inference, used for CLI and
// environment overrides. Order: boolean, integer, real, string.
func ParseValue(s string) any {
	switch strings.ToLower(s) {
	case "true":
		return true
	case "false":
		return false
	}
	if n, err := strconv.ParseInt(s, 0, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}
