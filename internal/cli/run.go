package cli

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/batcher/batcher/internal/cli/tui"
	"github.com/batcher/batcher/internal/config"
	"github.com/batcher/batcher/internal/container"
	"github.com/batcher/batcher/internal/engine"
	"github.com/batcher/batcher/internal/events"
	"github.com/batcher/batcher/internal/graph"
	"github.com/batcher/batcher/internal/order"
	"github.com/batcher/batcher/internal/step"
)

// NewRunCmd creates the `run` command: resolve a task's prerequisite
// chain, then execute each task's run and cleanup stages in turn.
func NewRunCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <task>",
		Short: "Run a task and everything it depends on",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := app.RunTask(cmd.Context(), args[0])
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
				os.Exit(1)
			}
			os.Exit(code)
			return nil
		},
	}
	return cmd
}

// resolveConfigPath honors -f, falling back to the default file name and
// then the deprecated batect.yml alias (§6).
func (a *App) resolveConfigPath() (string, error) {
	if a.configFile != "" {
		return a.configFile, nil
	}
	if _, err := os.Stat(config.DefaultConfigFile); err == nil {
		return config.DefaultConfigFile, nil
	}
	if _, err := os.Stat(config.DeprecatedConfigFileAlias); err == nil {
		return config.DeprecatedConfigFileAlias, nil
	}
	return "", fmt.Errorf("no config file found (looked for %s and the deprecated %s)", config.DefaultConfigFile, config.DeprecatedConfigFileAlias)
}

// RunTask executes taskName's full prerequisite chain and returns the
// process exit code to use: the exit code of the last task's container
// run, or 1 if any stage in the chain failed before the task container
// ever ran.
func (a *App) RunTask(ctx context.Context, taskName string) (int, error) {
	path, err := a.resolveConfigPath()
	if err != nil {
		return 1, err
	}

	cfg, warnings, err := config.LoadFile(path)
	if err != nil {
		return 1, err
	}
	for _, w := range warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w)
	}

	chain, err := order.Resolve(cfg, taskName)
	if err != nil {
		return 1, err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	handler := NewSignalHandler(cancel)
	handler.Start()
	defer handler.Stop()

	runtime, err := container.DetectRuntime()
	if err != nil {
		return 1, err
	}
	daemon := container.NewCLIDaemon(runtime)

	exitCode := 0
	for _, name := range chain {
		task := cfg.Tasks[name]

		g, err := graph.Build(cfg, task)
		if err != nil {
			return 1, err
		}

		for _, node := range g.Nodes() {
			env, err := config.InterpolateEnv(node.Name, node.Environment, nil)
			if err != nil {
				return 1, err
			}
			node.Environment = env
		}

		outcome, err := a.runOne(ctx, cfg, name, g, daemon)
		if err != nil {
			return 1, err
		}
		exitCode = outcome.ExitCode
		if !outcome.TaskSucceeded {
			if exitCode == 0 {
				// The task failed before its container exited.
				exitCode = 1
			}
			return exitCode, nil
		}
	}
	return exitCode, nil
}

// runOne drives one task's graph through the engine with the
// appropriately chosen UI sink.
func (a *App) runOne(ctx context.Context, cfg *config.Configuration, taskName string, g *graph.Graph, daemon container.Daemon) (engine.Outcome, error) {
	log := events.NewLog(256)

	sink, cleanup := a.buildSink(taskName)
	defer cleanup()

	runner := &step.Runner{
		Daemon:      daemon,
		Log:         log,
		Sink:        sink,
		ProjectName: cfg.ProjectName,
		TaskName:    taskName,
		Stdout:      os.Stdout,
		Stderr:      os.Stderr,
	}

	mgr := &engine.Manager{
		Graph:  g,
		Log:    log,
		Runner: runner,
		Sink:   sink,
	}

	sink.OnTaskStarting(taskName)
	return mgr.Run(ctx)
}

// buildSink picks the interactive TUI when stdout is a TTY and no
// simple/no-color/quiet flag disables it, falling back to the
// plain-text line sink otherwise. The returned cleanup func must be
// called once the task has finished.
func (a *App) buildSink(taskName string) (events.Sink, func()) {
	useTUI := !a.noColor && !a.simpleOutput && !a.quiet && term.IsTerminal(int(os.Stdout.Fd()))
	if !useTUI {
		return &LineSink{Out: os.Stdout, Quiet: a.quiet}, func() {}
	}

	model := tui.NewModel()
	program := tea.NewProgram(model, tea.WithAltScreen())
	bridge := tui.NewBridge(program)

	go func() {
		if _, err := program.Run(); err != nil {
			fmt.Fprintf(os.Stderr, "tui error: %v\n", err)
		}
	}()

	return bridge, func() { bridge.SendDone() }
}
