package config

import (
	"errors"
	"fmt"
)

// ValidationError is one configuration problem found during validation.
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config.%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// Validate checks a Configuration for the invariants named in §3: unique
// non-empty names, resolvable container/task references, no self-dependency,
// syntactically valid commands, and resolvable task prerequisites. It does
// not check for cycles — cycle detection is the dependency graph's and the
// order resolver's job (§4.1, §4.7), since both need the same coloring DFS
// and a single cycle-naming path is clearer than duplicating it here.
//
// Returns nil if valid, or a joined error with every problem found so a
// user sees all mistakes in one pass rather than one-at-a-time.
func Validate(cfg *Configuration) error {
	var errs []error

	if cfg.ProjectName == "" {
		errs = append(errs, &ValidationError{Field: "project_name", Value: cfg.ProjectName, Message: "must not be empty"})
	}

	for name, c := range cfg.Containers {
		if name == "" {
			errs = append(errs, &ValidationError{Field: "containers", Value: name, Message: "container name must not be empty"})
			continue
		}
		c.Name = name

		if c.BuildDirectory == "" && c.Image == "" {
			errs = append(errs, &ValidationError{Field: fmt.Sprintf("containers.%s", name), Value: nil, Message: "must set either build_directory or image"})
		}
		if c.BuildDirectory != "" && c.Image != "" {
			errs = append(errs, &ValidationError{Field: fmt.Sprintf("containers.%s", name), Value: nil, Message: "must not set both build_directory and image"})
		}

		deps, warning := mergeDependsOnAlias(c.DependsOn, c.Start)
		if warning != "" {
			// Recorded as part of the merged list's provenance; surfaced by
			// the caller (LoadFile) as a warning, not a validation error.
			_ = warning
		}
		c.DependsOn = deps

		for _, dep := range c.DependsOn {
			if dep == name {
				errs = append(errs, &ValidationError{Field: fmt.Sprintf("containers.%s.dependencies", name), Value: dep, Message: "a container must not depend on itself"})
				continue
			}
			if _, ok := cfg.Containers[dep]; !ok {
				errs = append(errs, &ValidationError{Field: fmt.Sprintf("containers.%s.dependencies", name), Value: dep, Message: "references a container that does not exist"})
			}
		}

		if c.CommandRaw != "" {
			argv, err := ParseCommand(c.CommandRaw)
			if err != nil {
				errs = append(errs, &ValidationError{Field: fmt.Sprintf("containers.%s.command", name), Value: c.CommandRaw, Message: err.Error()})
			} else {
				c.Command = argv
			}
		}

		for i, v := range c.Volumes {
			if v.HostPath == "" || v.ContainerPath == "" {
				errs = append(errs, &ValidationError{Field: fmt.Sprintf("containers.%s.volumes[%d]", name, i), Value: v, Message: "local and container paths must both be set"})
			}
			if v.Mode == "" {
				c.Volumes[i].Mode = DefaultVolumeMode
			}
		}
	}

	for name, t := range cfg.Tasks {
		if name == "" {
			errs = append(errs, &ValidationError{Field: "tasks", Value: name, Message: "task name must not be empty"})
			continue
		}
		t.Name = name

		if t.Run.Container == "" {
			errs = append(errs, &ValidationError{Field: fmt.Sprintf("tasks.%s.run.container", name), Value: t.Run.Container, Message: "must not be empty"})
		} else if _, ok := cfg.Containers[t.Run.Container]; !ok {
			errs = append(errs, &ValidationError{Field: fmt.Sprintf("tasks.%s.run.container", name), Value: t.Run.Container, Message: "references a container that does not exist"})
		}

		if t.Run.CommandRaw != "" {
			argv, err := ParseCommand(t.Run.CommandRaw)
			if err != nil {
				errs = append(errs, &ValidationError{Field: fmt.Sprintf("tasks.%s.run.command", name), Value: t.Run.CommandRaw, Message: err.Error()})
			} else {
				t.Run.Command = argv
			}
		}

		for _, dep := range t.DependsOn {
			if _, ok := cfg.Containers[dep]; !ok {
				errs = append(errs, &ValidationError{Field: fmt.Sprintf("tasks.%s.dependencies", name), Value: dep, Message: "references a container that does not exist"})
			}
		}

		for _, prereq := range t.Prerequisites {
			if prereq == name {
				errs = append(errs, &ValidationError{Field: fmt.Sprintf("tasks.%s.prerequisites", name), Value: prereq, Message: "a task must not be its own prerequisite"})
				continue
			}
			if _, ok := cfg.Tasks[prereq]; !ok {
				errs = append(errs, &ValidationError{Field: fmt.Sprintf("tasks.%s.prerequisites", name), Value: prereq, Message: "references a task that does not exist"})
			}
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// mergeDependsOnAlias resolves the deprecated `start` alias of `dependencies`
// (§6, §9 Open Question). When both are present, the union is taken and a
// warning string is returned for the caller to surface.
func mergeDependsOnAlias(dependsOn, start []string) (merged []string, warning string) {
	if len(start) == 0 {
		return dependsOn, ""
	}

	seen := make(map[string]bool, len(dependsOn)+len(start))
	for _, d := range dependsOn {
		if !seen[d] {
			seen[d] = true
			merged = append(merged, d)
		}
	}
	for _, d := range start {
		if !seen[d] {
			seen[d] = true
			merged = append(merged, d)
		}
	}

	if len(dependsOn) > 0 {
		warning = "both 'dependencies' and the deprecated 'start' are set; taking the union"
	}
	return merged, warning
}
