// Package cli implements the histmapctl command tree.
package cli

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"historicalmap/internal/config"
	"historicalmap/internal/database"
	"historicalmap/internal/database/migration"
	"historicalmap/internal/repository"
	"historicalmap/internal/repository/sqlstore"
)

type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
}

// store is an opened and migrated historical store.
type store struct {
	db   *sql.DB
	repo repository.HistoricalRepository
}

type commandDeps struct {
	out    io.Writer
	dbPath *string
}

// open loads the configuration, applies --db and migrates the store.
func (d commandDeps) open(ctx context.Context) (*store, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if *d.dbPath != "" {
		cfg.Database.Driver = string(database.DialectSQLite)
		cfg.Database.Path = *d.dbPath
	}
	db, dialect, err := database.Open(cfg.Database)
	if err != nil {
		return nil, err
	}
	if err := migration.EnsureMigrated(ctx, db, dialect, database.Target(cfg.Database)); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &store{db: db, repo: sqlstore.NewHistoricalSQL(db, dialect)}, nil
}

func (d commandDeps) withStore(ctx context.Context, fn func(*store) error) error {
	s, err := d.open(ctx)
	if err != nil {
		return err
	}
	defer s.db.Close()
	return fn(s)
}

func NewRootCommand(out io.Writer, build BuildInfo) *cobra.Command {
	var dbPath string
	cmd := &cobra.Command{
		Use:           "histmapctl",
		Short:         "Historical map maintenance tool",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite store path (overrides DB_DRIVER and DB_PATH)")

	deps := commandDeps{out: out, dbPath: &dbPath}
	cmd.AddCommand(
		newVersionCommand(out, build),
		newMigrateCommand(deps),
		newYearsCommand(deps),
		newImportCommand(deps),
		newExportCommand(deps),
		newTileCommand(out),
	)
	return cmd
}

func newVersionCommand(out io.Writer, build BuildInfo) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print build version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(build)
			}

			_, err := fmt.Fprintf(out, "version=%s commit=%s build_time=%s\n", build.Version, build.Commit, build.BuildTime)
			return err
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print version as JSON")
	return cmd
}

func newMigrateCommand(deps commandDeps) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the store schema if it is missing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return deps.withStore(cmd.Context(), func(*store) error {
				_, err := fmt.Fprintln(deps.out, "schema ready")
				return err
			})
		},
	}
}

func newYearsCommand(deps commandDeps) *cobra.Command {
	return &cobra.Command{
		Use:   "years",
		Short: "List the stored years",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return deps.withStore(cmd.Context(), func(s *store) error {
				years, err := s.repo.ListYears(cmd.Context())
				if err != nil {
					return err
				}
				for _, y := range years {
					if _, err := fmt.Fprintln(deps.out, y); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
}
