package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// Version information
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// PrintVersion prints version information
func PrintVersion() string {
	return fmt.Sprintf("modkitd v%s (commit: %s, built on: %s)", Version, Commit, Date)
}

// options are the persistent flags shared by every subcommand.
type options struct {
	configs         []string
	envPrefix       string
	name            string
	logBackend      string
	watch           bool
	shutdownTimeout time.Duration
}

// NewRootCommand creates the root command for modkitd
func NewRootCommand() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "modkitd",
		Short: "modkitd - runs a modkit module tree",
		Long: `modkitd builds a modkit module tree from layered configuration files and
environment overrides, runs it and stops it on SIGINT or SIGTERM.`,
		SilenceUsage: true,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Help()
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringSliceVarP(&opts.configs, "config", "c", nil, "configuration files (yaml, json, toml), merged in order")
	flags.StringVar(&opts.envPrefix, "env-prefix", "MODKIT", "prefix of the environment overrides")
	flags.StringVar(&opts.name, "name", "App", "name of the root module")
	flags.StringVar(&opts.logBackend, "log-backend", "zerolog", "logging backend: zerolog or zap")

	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewModulesCommand(opts))
	cmd.AddCommand(NewConfigCommand(opts))
	cmd.AddCommand(NewVersionCommand())

	return cmd
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), PrintVersion())
		},
	}
}
