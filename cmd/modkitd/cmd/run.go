package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/GoCodeAlone/modkit"
	"github.com/GoCodeAlone/modkit/internal/app"
	"github.com/GoCodeAlone/modkit/modules/logmasker"
	"github.com/GoCodeAlone/modkit/modules/metrics"
)

// NewRunCommand creates the run command
func NewRunCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the module tree",
		Long: `Run the module tree until SIGINT or SIGTERM. With --watch the tree is
stopped and rebuilt whenever a configuration file changes.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, opts)
		},
	}
	cmd.Flags().BoolVarP(&opts.watch, "watch", "w", false, "rebuild the tree when a configuration file changes")
	cmd.Flags().DurationVar(&opts.shutdownTimeout, "shutdown-timeout", 30*time.Second, "bound on stopping the tree")
	return cmd
}

// serve runs one tree per configuration generation until ctx is done.
func serve(ctx context.Context, opts *options) error {
	provider, flush, err := loggerProvider(opts.logBackend)
	if err != nil {
		return err
	}
	defer flush()

	for {
		cfg, err := loadConfig(opts)
		if err != nil {
			return err
		}
		masker, err := logmasker.FromConfig(cfg)
		if err != nil {
			return err
		}
		logs := provider
		if masker != nil {
			logs = masker.Provider(provider)
		}

		reload := make(chan []string, 1)
		collector := metrics.NewCollector("modkit")
		factory := app.Factory(app.Options{
			Collector: collector,
			OnChange: func(paths []string) {
				select {
				case reload <- paths:
				default:
				}
			},
		})
		root, err := modkit.CreateAndRun(ctx, factory, modkit.Props{
			Name:           opts.name,
			Config:         cfg,
			LoggerProvider: logs,
			OnResolve:      []modkit.ResolveHook{collector.ResolveHook()},
		})
		if err != nil {
			return err
		}
		root.(*app.App).Log().Info("running", "modules", root.(*app.App).Enabled())

		var changed []string
		select {
		case <-ctx.Done():
		case changed = <-reload:
		}

		if err := shutdown(root, opts.shutdownTimeout); err != nil {
			return err
		}
		if ctx.Err() != nil {
			return nil
		}
		root.(*app.App).Log().Info("configuration changed, restarting", "paths", changed)
	}
}

func shutdown(root modkit.Module, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return root.Stop(ctx)
}
