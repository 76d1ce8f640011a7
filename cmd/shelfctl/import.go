package main

import (
	"fmt"

	"github.com/spf13/cobra"
	gormlogger "gorm.io/gorm/logger"

	"github.com/spiceshelf/shelf/internal/infrastructure/catalog"
	"github.com/spiceshelf/shelf/internal/infrastructure/config"
	"github.com/spiceshelf/shelf/internal/infrastructure/persistence/sqlite"
)

func newImportCmd(opts *rootOptions) *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Copy the file catalog into a SQLite database",
		Long: `Read the dish and spice files named in the config and replace the contents
of the SQLite database with them. Serve it with catalog.source=sqlite.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.env()
			if err != nil {
				return err
			}
			if dbPath == "" {
				dbPath = e.cfg.Catalog.SQLitePath
			}

			files := catalog.NewFileSource(
				e.cfg.Catalog.DishesPath,
				e.cfg.Catalog.SpicesPath,
				e.cfg.Catalog.Sheet,
				catalog.Policy(e.cfg.Catalog.MalformedRows),
				e.logger,
			)
			c, err := catalog.NewLoader(files, e.logger).Load(cmd.Context())
			if err != nil {
				return err
			}

			db, err := sqlite.SetupDatabase(dbPath, gormlogger.Silent)
			if err != nil {
				return err
			}
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			defer sqlDB.Close()

			if err := sqlite.Import(cmd.Context(), db, c); err != nil {
				return fmt.Errorf("failed to import catalog: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "imported %d spices and %d dishes into %s\n",
				c.SpiceCount(), c.DishCount(), dbPath)
			if e.cfg.Catalog.Source != config.SourceSQLite {
				fmt.Fprintf(cmd.OutOrStdout(), "set catalog.source=%s to serve it\n", config.SourceSQLite)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database path (default catalog.sqlite_path)")
	return cmd
}
