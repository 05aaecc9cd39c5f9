// Package graph builds the immutable Container Dependency Graph (§4.1): the
// DAG rooted at a task's container, covering the transitive closure of
// depends-on-healthy relations plus task-level dependency overrides.
package graph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/batcher/batcher/internal/config"
)

// Node is a container definition resolved in the context of one task run,
// carrying its effective command/environment/ports per §3.
type Node struct {
	Name string

	ImageSource config.ImageSource
	Command     []string // effective: task override > container command > image default (nil)
	Environment map[string]string
	WorkingDir  string
	Volumes     []config.VolumeMount
	Ports       []config.PortMapping
	HealthCheck *config.HealthCheckConfig

	// IsRoot is true for the task's own container.
	IsRoot bool

	// dependsOn holds the names of nodes this node may not start before
	// (edges "A -> B" meaning "A may not start until B is healthy").
	dependsOn []string
}

// DependsOn returns the names of nodes this node may not be created before
// (they must reach Healthy first).
func (n *Node) DependsOn() []string { return append([]string(nil), n.dependsOn...) }

// HasHealthCheck reports whether this node has a health check configured.
func (n *Node) HasHealthCheck() bool { return n.HealthCheck != nil }

// Graph is the immutable container dependency DAG for one task invocation.
type Graph struct {
	root  string
	nodes map[string]*Node
	// dependents is the reverse of Node.dependsOn: dependents[B] = [A, ...]
	dependents map[string][]string
}

// ConfigurationError is a fatal, pre-execution error (§4.1, §7).
type ConfigurationError struct {
	Message string
}

func (e *ConfigurationError) Error() string { return e.Message }

// CycleError names a dependency cycle detected during graph construction.
type CycleError struct {
	Cycle []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("circular container dependency: %s", strings.Join(e.Cycle, " -> "))
}

// Build resolves the dependency graph for task within cfg (§4.1 Algorithm).
func Build(cfg *config.Configuration, task *config.TaskDef) (*Graph, error) {
	rootDef, ok := cfg.Containers[task.Run.Container]
	if !ok {
		return nil, &ConfigurationError{Message: fmt.Sprintf("task %q references unknown container %q", task.Name, task.Run.Container)}
	}

	g := &Graph{
		root:       rootDef.Name,
		nodes:      make(map[string]*Node),
		dependents: make(map[string][]string),
	}

	// Breadth-first walk over dependencies, deduplicating, unioning in the
	// task-level additional dependency set at the root.
	visited := map[string]bool{}
	queue := []string{rootDef.Name}
	visited[rootDef.Name] = true

	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]

		def, ok := cfg.Containers[name]
		if !ok {
			return nil, &ConfigurationError{Message: fmt.Sprintf("container %q does not exist", name)}
		}

		deps := append([]string(nil), def.DependsOn...)
		if name == rootDef.Name {
			deps = unionStrings(deps, task.DependsOn)
		}

		node, err := buildNode(def, task, name == rootDef.Name)
		if err != nil {
			return nil, err
		}
		node.dependsOn = deps
		g.nodes[name] = node

		for _, dep := range deps {
			if _, ok := cfg.Containers[dep]; !ok {
				return nil, &ConfigurationError{Message: fmt.Sprintf("container %q depends on non-existent container %q", name, dep)}
			}
			g.dependents[dep] = append(g.dependents[dep], name)
			if !visited[dep] {
				visited[dep] = true
				queue = append(queue, dep)
			}
		}
	}

	if err := g.checkAcyclic(); err != nil {
		return nil, err
	}

	return g, nil
}

func buildNode(def *config.ContainerDef, task *config.TaskDef, isRoot bool) (*Node, error) {
	command := def.Command
	env := mergeEnv(def.Environment, nil)
	ports := append([]config.PortMapping(nil), def.Ports...)

	if isRoot {
		if len(task.Run.Command) > 0 {
			command = task.Run.Command
		}
		env = mergeEnv(def.Environment, task.Run.Environment)
		ports = mergePorts(def.Ports, task.Run.Ports)
	}

	return &Node{
		Name:        def.Name,
		ImageSource: def.ImageSource(),
		Command:     command,
		Environment: env,
		WorkingDir:  def.WorkingDir,
		Volumes:     def.Volumes,
		Ports:       ports,
		HealthCheck: def.HealthCheck,
		IsRoot:      isRoot,
	}, nil
}

func mergeEnv(base, override map[string]string) map[string]string {
	out := make(map[string]string, len(base)+len(override))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range override {
		out[k] = v
	}
	return out
}

func mergePorts(base, override []config.PortMapping) []config.PortMapping {
	byHost := make(map[int]config.PortMapping, len(base)+len(override))
	var order []int
	for _, p := range base {
		if _, exists := byHost[p.HostPort]; !exists {
			order = append(order, p.HostPort)
		}
		byHost[p.HostPort] = p
	}
	for _, p := range override {
		if _, exists := byHost[p.HostPort]; !exists {
			order = append(order, p.HostPort)
		}
		byHost[p.HostPort] = p
	}
	out := make([]config.PortMapping, 0, len(order))
	for _, h := range order {
		out = append(out, byHost[h])
	}
	return out
}

func unionStrings(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	var out []string
	for _, s := range append(append([]string(nil), a...), b...) {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

// Root returns the task container node.
func (g *Graph) Root() *Node { return g.nodes[g.root] }

// Node looks up a node by name.
func (g *Graph) Node(name string) (*Node, bool) {
	n, ok := g.nodes[name]
	return n, ok
}

// Nodes returns all nodes, sorted by name for deterministic iteration.
func (g *Graph) Nodes() []*Node {
	names := make([]string, 0, len(g.nodes))
	for n := range g.nodes {
		names = append(names, n)
	}
	sort.Strings(names)
	out := make([]*Node, len(names))
	for i, n := range names {
		out[i] = g.nodes[n]
	}
	return out
}

// Predecessors returns the names of nodes that must be healthy before name
// may be created (i.e. the nodes name depends on).
func (g *Graph) Predecessors(name string) []string {
	n, ok := g.nodes[name]
	if !ok {
		return nil
	}
	return append([]string(nil), n.dependsOn...)
}

// Successors returns the names of nodes that depend on name.
func (g *Graph) Successors(name string) []string {
	deps := append([]string(nil), g.dependents[name]...)
	sort.Strings(deps)
	return deps
}

// checkAcyclic runs a white/grey/black coloring DFS (§4.1 Algorithm) and
// returns a CycleError naming the back edge if one is found.
func (g *Graph) checkAcyclic() error {
	const (
		white = 0
		grey  = 1
		black = 2
	)
	color := make(map[string]int, len(g.nodes))
	for n := range g.nodes {
		color[n] = white
	}

	var path []string
	var dfs func(string) error
	dfs = func(name string) error {
		color[name] = grey
		path = append(path, name)

		deps := append([]string(nil), g.nodes[name].dependsOn...)
		sort.Strings(deps)
		for _, dep := range deps {
			switch color[dep] {
			case grey:
				cycleStart := indexOf(path, dep)
				cycle := append(append([]string(nil), path[cycleStart:]...), dep)
				return &CycleError{Cycle: cycle}
			case white:
				if err := dfs(dep); err != nil {
					return err
				}
			}
		}

		color[name] = black
		path = path[:len(path)-1]
		return nil
	}

	names := make([]string, 0, len(g.nodes))
	for n := range g.nodes {
		names = append(names, n)
	}
	sort.Strings(names)

	for _, n := range names {
		if color[n] == white {
			if err := dfs(n); err != nil {
				return err
			}
		}
	}
	return nil
}

func indexOf(s []string, v string) int {
	for i, e := range s {
		if e == v {
			return i
		}
	}
	return -1
}
