// Package cli wires the project configuration, execution engine, and UI
// sink together behind a cobra command tree.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// VersionInfo carries build-time version metadata into the version
// command.
type VersionInfo struct {
	Version string
	Commit  string
	Date    string
}

// App is the wired CLI application.
type App struct {
	rootCmd *cobra.Command

	configFile           string
	noColor              bool
	simpleOutput         bool
	quiet                bool
	noUpdateNotification bool
	upgrade              bool

	versionInfo VersionInfo
	cancel      context.CancelFunc
}

// New creates the CLI application and its command tree.
func New() *App {
	app := &App{}
	app.setupRootCmd()
	app.rootCmd.AddCommand(NewRunCmd(app))
	app.rootCmd.AddCommand(NewTasksCmd(app))
	app.rootCmd.AddCommand(NewVersionCmd(app))
	return app
}

// Execute runs the CLI application against os.Args.
func (a *App) Execute() error {
	return a.rootCmd.Execute()
}

// SetVersion sets the version string surfaced by `batcher version` and
// `batcher --version`.
func (a *App) SetVersion(version, commit, date string) {
	a.versionInfo = VersionInfo{Version: version, Commit: commit, Date: date}
	a.rootCmd.Version = version
}

func (a *App) setupRootCmd() {
	a.rootCmd = &cobra.Command{
		Use:   "batcher",
		Short: "Run reproducible development tasks in containers",
		Long: `batcher builds a dependency graph of your project's containers from a
config file, starts only what a task needs, runs the task, and tears
everything down again — regardless of whether the task succeeded.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := a.rootCmd.PersistentFlags()
	flags.StringVarP(&a.configFile, "config-file", "f", "", "path to the config file (default: batcher.yml, falling back to batect.yml)")
	flags.BoolVar(&a.noColor, "no-color", false, "disable colored/TUI output")
	flags.BoolVar(&a.simpleOutput, "simple-output", false, "use line-at-a-time output instead of the interactive display")
	flags.BoolVarP(&a.quiet, "quiet", "q", false, "suppress step-level progress output")
	flags.BoolVar(&a.noUpdateNotification, "no-update-notification", false, "suppress the update-available notice")
	flags.BoolVar(&a.upgrade, "upgrade", false, "check for and install updates (not supported when built from source)")

	// --upgrade short-circuits whatever command was invoked alongside it,
	// matching the teacher's version command's self-contained RunE closure.
	a.rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if a.upgrade {
			fmt.Fprintln(cmd.OutOrStdout(), "upgrades are not supported when built from source")
			os.Exit(0)
		}
		return nil
	}
	a.rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	}
}
