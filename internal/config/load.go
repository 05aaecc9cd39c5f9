package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Warnings collects non-fatal advisories surfaced during load (e.g. the
// deprecated 'start' alias being combined with 'dependencies').
type Warnings []string

// LoadFile reads and validates a configuration file at path. It does not
// resolve host environment references — that happens per-task at
// task-start time via InterpolateEnv, per §3's invariant that "environment
// references resolve at task-start time".
func LoadFile(path string) (*Configuration, Warnings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read config file %s: %w", path, err)
	}

	cfg := DefaultFile()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, nil, fmt.Errorf("parse config file %s: %w", path, err)
	}

	var warnings Warnings
	for name, c := range cfg.Containers {
		c.Name = name
		if len(c.Start) > 0 {
			_, warning := mergeDependsOnAlias(c.DependsOn, c.Start)
			if warning != "" {
				warnings = append(warnings, fmt.Sprintf("containers.%s: %s", name, warning))
			}
		}
	}

	if err := Validate(cfg); err != nil {
		return nil, warnings, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, warnings, nil
}
