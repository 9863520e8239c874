package config

// extractInlineConfigurations converts the extension keys collected on
// parameter and define entries into configuration entries. Each non-reserved
// key names a configuration contributing that value for its owning
// parameter or define. When a user-declared configuration with the same
// name exists the inline value is merged into it; user-declared overrides
// inside that configuration keep priority because the composer applies
// explicit values at a later stage than inline ones.
//
// The enriched map is guaranteed to contain a "default" configuration.
func extractInlineConfigurations(cfg *ModuleConfig) {
	ensure := func(name string) *Configuration {
		c, ok := cfg.Configurations[name]
		if !ok {
			c = &Configuration{
				Name:        name,
				Description: "derived from inline parameter values",
				Parameters:  make(map[string]any),
				Defines:     make(map[string]any),
				Auto:        true,
			}
			cfg.Configurations[name] = c
		}
		if c.InlineParameters == nil {
			c.InlineParameters = make(map[string]any)
		}
		if c.InlineDefines == nil {
			c.InlineDefines = make(map[string]any)
		}
		return c
	}

	for _, paramName := range sortedKeys(cfg.Parameters) {
		p := cfg.Parameters[paramName]
		for _, configName := range sortedKeys(p.Inline) {
			ensure(configName).InlineParameters[paramName] = p.Inline[configName]
		}
	}
	for _, defineName := range sortedKeys(cfg.Defines) {
		d := cfg.Defines[defineName]
		for _, configName := range sortedKeys(d.Inline) {
			ensure(configName).InlineDefines[defineName] = d.Inline[configName]
		}
	}

	if _, ok := cfg.Configurations[ConfigurationDefault]; !ok {
		cfg.Configurations[ConfigurationDefault] = &Configuration{
			Name:       ConfigurationDefault,
			Parameters: make(map[string]any),
			Defines:    make(map[string]any),
			Auto:       true,
		}
	}
}
