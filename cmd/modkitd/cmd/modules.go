package cmd

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/spf13/cobra"

	"github.com/GoCodeAlone/modkit"
	"github.com/GoCodeAlone/modkit/internal/app"
	"github.com/GoCodeAlone/modkit/modules/metrics"
)

// NewModulesCommand creates the modules command
func NewModulesCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "modules",
		Short: "List the declared modules and registered plugins",
		Long: `Initialize the root module without running it and list the submodules it
declares, marking the ones the configuration enables, followed by the registered plugins.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}

			ctx := context.Background()
			factory := app.Factory(app.Options{Collector: metrics.NewCollector("modkit")})
			root, err := modkit.Create(ctx, factory, modkit.Props{Name: opts.name, Config: cfg, Logger: modkit.NopLogger()})
			if err != nil {
				return err
			}
			defer root.Stop(ctx)

			enabled := root.(*app.App).Enabled()
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Modules:")
			for _, name := range slices.Sorted(maps.Keys(root.(*app.App).HasModules("*"))) {
				mark := " "
				if slices.Contains(enabled, name) {
					mark = "*"
				}
				fmt.Fprintf(out, "  %s %s\n", mark, name)
			}
			fmt.Fprintln(out, "Plugins:")
			for _, name := range modkit.PluginNames() {
				fmt.Fprintf(out, "    %s\n", name)
			}
			return nil
		},
	}
}
