package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/batcher/batcher/internal/config"
)

// NewTasksCmd lists the tasks declared in the config file.
func NewTasksCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "tasks",
		Short: "List the tasks defined in the config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := app.resolveConfigPath()
			if err != nil {
				return err
			}
			cfg, warnings, err := config.LoadFile(path)
			if err != nil {
				return err
			}
			for _, w := range warnings {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", w)
			}

			names := make([]string, 0, len(cfg.Tasks))
			for name := range cfg.Tasks {
				names = append(names, name)
			}
			sort.Strings(names)

			for _, name := range names {
				t := cfg.Tasks[name]
				if t.Description != "" {
					fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", name, t.Description)
				} else {
					fmt.Fprintln(cmd.OutOrStdout(), name)
				}
			}
			return nil
		},
	}
}
