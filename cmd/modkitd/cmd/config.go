package cmd

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/GoCodeAlone/modkit"
	"github.com/GoCodeAlone/modkit/feeders"
	"github.com/GoCodeAlone/modkit/modules/configwatcher"
)

var (
	ErrUnsupportedConfig = errors.New("unsupported configuration file type")
	ErrUnknownLogBackend = errors.New("unknown log backend")
)

// feederFor picks the feeder by file extension.
func feederFor(path string) (feeders.Feeder, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return feeders.NewYamlFeeder(path), nil
	case ".json":
		return feeders.NewJSONFeeder(path), nil
	case ".toml":
		return feeders.NewTomlFeeder(path), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedConfig, path)
	}
}

// loadTree merges the configuration files and applies the environment overrides.
func loadTree(opts *options) (map[string]any, error) {
	sources := make([]feeders.Feeder, 0, len(opts.configs))
	for _, path := range opts.configs {
		f, err := feederFor(path)
		if err != nil {
			return nil, err
		}
		sources = append(sources, f)
	}

	tree, err := feeders.Load(sources...)
	if err != nil {
		return nil, err
	}
	if err := feeders.ApplyEnv(tree, opts.envPrefix); err != nil {
		return nil, err
	}

	// --watch without an explicit watcher section watches the loaded files.
	if _, ok := tree[configwatcher.ModuleName]; !ok && opts.watch && len(opts.configs) > 0 {
		paths := make([]any, len(opts.configs))
		for i, p := range opts.configs {
			paths[i] = p
		}
		tree[configwatcher.ModuleName] = map[string]any{"paths": paths}
	}
	return tree, nil
}

func loadConfig(opts *options) (modkit.Config, error) {
	tree, err := loadTree(opts)
	if err != nil {
		return modkit.Config{}, err
	}
	return modkit.ConfigFromMap(tree)
}

// loggerProvider returns the provider for the selected backend and a flush func.
func loggerProvider(backend string) (modkit.LoggerProvider, func(), error) {
	switch backend {
	case "", "zerolog":
		return modkit.DefaultLoggerProvider, func() {}, nil
	case "zap":
		z, err := zap.NewProduction()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to build zap logger: %w", err)
		}
		return modkit.ZapLoggerProvider(z), func() { _ = z.Sync() }, nil
	default:
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownLogBackend, backend)
	}
}

// NewConfigCommand creates the config command
func NewConfigCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the merged configuration",
		Long:  `Print the configuration tree after merging every file and applying the environment overrides.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			tree, err := loadTree(opts)
			if err != nil {
				return err
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(tree); err != nil {
				return fmt.Errorf("failed to encode config: %w", err)
			}
			return enc.Close()
		},
	}
}
