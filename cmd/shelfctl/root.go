package main

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spiceshelf/shelf/internal/infrastructure/catalog"
	"github.com/spiceshelf/shelf/internal/infrastructure/config"
	"github.com/spiceshelf/shelf/internal/infrastructure/container"
	"github.com/spiceshelf/shelf/pkg/logger"
)

type rootOptions struct {
	configPath string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "shelfctl",
		Short:         "Manage the spice shelf catalog",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "path to config.yaml")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log catalog loading")

	cmd.AddCommand(
		newValidateCmd(opts),
		newMatchCmd(opts),
		newImportCmd(opts),
	)
	return cmd
}

// env is what every subcommand needs: config, a logger and a catalog loader.
type env struct {
	cfg    *config.Config
	logger *zap.Logger
	loader *catalog.Loader
}

func (o *rootOptions) env() (*env, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}

	level := "error"
	if o.verbose {
		level = "info"
	}
	log, err := logger.New(logger.Config{Level: level, Format: "console", OutputPaths: []string{"stderr"}})
	if err != nil {
		return nil, err
	}

	return &env{
		cfg:    cfg,
		logger: log,
		loader: catalog.NewLoader(container.NewCatalogSource(cfg, log), log),
	}, nil
}

func (e *env) load(ctx context.Context) error {
	_, err := e.loader.Load(ctx)
	return err
}
