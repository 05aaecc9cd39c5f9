package config

import (
	"fmt"
	"os"
	"regexp"
)

// envRefPattern matches $NAME or ${NAME} (§6 Environment interpolation).
var envRefPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}|\$([A-Za-z_][A-Za-z0-9_]*)`)

// MissingHostVariableError reports a host environment reference that could
// not be resolved at task-start time (§3 invariant, §7 taxonomy item (1)).
type MissingHostVariableError struct {
	Container string
	Variable  string
}

func (e *MissingHostVariableError) Error() string {
	return fmt.Sprintf("environment variable %q referenced by container %q is not set on the host", e.Variable, e.Container)
}

// InterpolateEnv resolves $NAME / ${NAME} references in env against the
// host environment (via lookup), returning a fatal MissingHostVariableError
// naming the first unresolved variable it encounters.
func InterpolateEnv(containerName string, env map[string]string, lookup func(string) (string, bool)) (map[string]string, error) {
	if lookup == nil {
		lookup = os.LookupEnv
	}

	out := make(map[string]string, len(env))
	for k, v := range env {
		resolved, missing := interpolateValue(v, lookup)
		if missing != "" {
			return nil, &MissingHostVariableError{Container: containerName, Variable: missing}
		}
		out[k] = resolved
	}
	return out, nil
}

// interpolateValue substitutes every $NAME/${NAME} reference in v. It
// returns the name of the first variable that could not be resolved, if
// any.
func interpolateValue(v string, lookup func(string) (string, bool)) (string, string) {
	var missing string
	result := envRefPattern.ReplaceAllStringFunc(v, func(match string) string {
		if missing != "" {
			return match
		}
		groups := envRefPattern.FindStringSubmatch(match)
		name := groups[1]
		if name == "" {
			name = groups[2]
		}
		val, ok := lookup(name)
		if !ok {
			missing = name
			return match
		}
		return val
	})
	if missing != "" {
		return "", missing
	}
	return result, ""
}
