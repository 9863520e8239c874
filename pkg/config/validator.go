package config

import "strings"

// ValidateToolConfigurations checks that every requested configuration is
// accepted by the named tool. A tool with no configuration list, or one
// listing "all", accepts everything.
func ValidateToolConfigurations(cfg *ModuleConfig, tool string, requested []string) error {
	t, ok := cfg.Tools[tool]
	if !ok || t.AllowsAll() {
		return nil
	}

	allowed := make(map[string]bool, len(t.Configurations))
	for _, name := range t.Configurations {
		allowed[name] = true
	}
	for _, name := range requested {
		if !allowed[name] {
			return NewValidationError(
				"configuration %q is not enabled for tool %q, allowed: %s",
				name, tool, strings.Join(t.Configurations, ", "),
			).WithConfiguration(name).WithTool(tool)
		}
	}
	return nil
}

// ExpandConfigurations resolves a requested configuration list for a tool.
// The single entry "all" expands to the tool's configuration list, or to
// every configuration of the module when the tool accepts everything. An
// empty request resolves to the default configuration.
func ExpandConfigurations(cfg *ModuleConfig, tool string, requested []string) ([]string, error) {
	if len(requested) == 0 {
		requested = []string{ConfigurationDefault}
	}
	if len(requested) == 1 && requested[0] == ConfigurationAll {
		t, ok := cfg.Tools[tool]
		if ok && !t.AllowsAll() {
			out := make([]string, len(t.Configurations))
			copy(out, t.Configurations)
			return out, nil
		}
		return cfg.ConfigurationNames(), nil
	}

	for _, name := range requested {
		if _, ok := cfg.Configurations[name]; !ok {
			return nil, NewUnknownReferenceError(
				"unknown configuration %q, available: %s",
				name, strings.Join(cfg.ConfigurationNames(), ", "),
			).WithConfiguration(name)
		}
	}
	if err := ValidateToolConfigurations(cfg, tool, requested); err != nil {
		return nil, err
	}
	return requested, nil
}

// ValidateModule checks the referential integrity of a parsed document:
// inherit chains point at real configurations and terminate, configuration
// and tool overrides name declared parameters and defines, expression
// references resolve, and tool configuration lists name real
// configurations. Load-time validation; value validation happens after
// composition.
func ValidateModule(cfg *ModuleConfig) error {
	for _, name := range sortedKeys(cfg.Configurations) {
		if _, err := inheritChain(cfg, name); err != nil {
			return err
		}
		c := cfg.Configurations[name]
		for _, param := range sortedKeys(c.Parameters) {
			if _, ok := cfg.Parameters[param]; !ok {
				return NewUnknownReferenceError("override of undeclared parameter %q", param).
					WithParameter(param).
					WithConfiguration(name)
			}
		}
		for _, def := range sortedKeys(c.Defines) {
			if _, ok := cfg.Defines[def]; !ok {
				return NewUnknownReferenceError("override of undeclared define %q", def).
					WithParameter(def).
					WithConfiguration(name)
			}
		}
	}

	for _, name := range sortedKeys(cfg.Parameters) {
		p := cfg.Parameters[name]
		if !p.HasExpr() {
			continue
		}
		for _, ref := range expressionRefs(p.Expr) {
			if _, ok := cfg.Parameters[ref]; !ok {
				return NewExpressionError("reference to undeclared parameter %q", ref).
					WithParameter(name)
			}
		}
	}

	for _, tool := range sortedKeys(cfg.Tools) {
		t := cfg.Tools[tool]
		for _, configName := range t.Configurations {
			if configName == ConfigurationAll {
				continue
			}
			if _, ok := cfg.Configurations[configName]; !ok {
				return NewUnknownReferenceError("tool lists unknown configuration %q", configName).
					WithConfiguration(configName).
					WithTool(tool)
			}
		}
		for _, param := range sortedKeys(t.Parameters) {
			if _, ok := cfg.Parameters[param]; !ok {
				return NewUnknownReferenceError("override of undeclared parameter %q", param).
					WithParameter(param).
					WithTool(tool)
			}
		}
		for _, def := range sortedKeys(t.Defines) {
			if _, ok := cfg.Defines[def]; !ok {
				return NewUnknownReferenceError("override of undeclared define %q", def).
					WithParameter(def).
					WithTool(tool)
			}
		}
	}
	return nil
}
