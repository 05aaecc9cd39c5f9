// Package order implements the Task Execution Order Resolver (§4.7):
// expanding a task's prerequisite chain into the sequence of task runs a
// single invocation should perform.
package order

import (
	"fmt"
	"strings"

	"github.com/batcher/batcher/internal/config"
)

// CycleError names a prerequisite cycle detected while resolving order.
type CycleError struct {
	Cycle []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("circular task prerequisite: %s", strings.Join(e.Cycle, " -> "))
}

// UnknownTaskError names a prerequisite that does not exist in the
// configuration.
type UnknownTaskError struct {
	Task         string
	Prerequisite string
}

func (e *UnknownTaskError) Error() string {
	return fmt.Sprintf("task %q has unknown prerequisite %q", e.Task, e.Prerequisite)
}

// Resolve returns the ordered sequence of task names to run for taskName:
// each prerequisite appears once, before every task that depends on it,
// in depth-first declaration order, followed by taskName itself. A task
// reachable via more than one path (a "diamond") is only run once, at its
// first-reached position.
func Resolve(cfg *config.Configuration, taskName string) ([]string, error) {
	if _, ok := cfg.Tasks[taskName]; !ok {
		return nil, &UnknownTaskError{Task: taskName, Prerequisite: taskName}
	}

	const (
		white = 0
		grey  = 1
		black = 2
	)
	color := make(map[string]int)
	var order []string
	var path []string

	var visit func(name string) error
	visit = func(name string) error {
		switch color[name] {
		case black:
			return nil
		case grey:
			cycleStart := indexOf(path, name)
			cycle := append(append([]string(nil), path[cycleStart:]...), name)
			return &CycleError{Cycle: cycle}
		}

		task, ok := cfg.Tasks[name]
		if !ok {
			// Unreachable for the root task (checked above); a missing
			// prerequisite is caught by the caller before recursing here.
			return &UnknownTaskError{Task: name, Prerequisite: name}
		}

		color[name] = grey
		path = append(path, name)

		for _, prereq := range task.Prerequisites {
			if _, ok := cfg.Tasks[prereq]; !ok {
				return &UnknownTaskError{Task: name, Prerequisite: prereq}
			}
			if err := visit(prereq); err != nil {
				return err
			}
		}

		color[name] = black
		path = path[:len(path)-1]
		order = append(order, name)
		return nil
	}

	if err := visit(taskName); err != nil {
		return nil, err
	}
	return order, nil
}

func indexOf(s []string, v string) int {
	for i, e := range s {
		if e == v {
			return i
		}
	}
	return -1
}
