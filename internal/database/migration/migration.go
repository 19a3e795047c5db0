package migration

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"historicalmap/internal/database"
	hlog "historicalmap/internal/log"
)

type migrationStep struct {
	Name string
	SQL  string
}

// Column types differ per dialect; steps are written with {{ID}}, {{BLOB}} and {{REAL}} markers.
var dialectTypes = map[database.Dialect]*strings.Replacer{
	database.DialectSQLite: strings.NewReplacer(
		"{{ID}}", "INTEGER PRIMARY KEY AUTOINCREMENT",
		"{{BLOB}}", "BLOB",
		"{{REAL}}", "REAL",
	),
	database.DialectPostgres: strings.NewReplacer(
		"{{ID}}", "BIGSERIAL PRIMARY KEY",
		"{{BLOB}}", "BYTEA",
		"{{REAL}}", "DOUBLE PRECISION",
	),
}

var steps = []migrationStep{
	{
		Name: "create_table_years",
		SQL: `CREATE TABLE IF NOT EXISTS years (
  id   {{ID}},
  year INTEGER NOT NULL UNIQUE
);`,
	},
	{
		Name: "create_table_countries",
		SQL: `CREATE TABLE IF NOT EXISTS countries (
  id   {{ID}},
  name TEXT NOT NULL UNIQUE
);`,
	},
	{
		Name: "create_table_borders",
		SQL: `CREATE TABLE IF NOT EXISTS borders (
  id      {{ID}},
  hash    BIGINT NOT NULL UNIQUE,
  contour {{BLOB}} NOT NULL
);`,
	},
	{
		Name: "create_table_year_countries",
		SQL: `CREATE TABLE IF NOT EXISTS year_countries (
  id         {{ID}},
  year_id    BIGINT NOT NULL REFERENCES years (id) ON DELETE CASCADE,
  country_id BIGINT NOT NULL REFERENCES countries (id) ON DELETE CASCADE,
  border_id  BIGINT NOT NULL REFERENCES borders (id) ON DELETE CASCADE,
  UNIQUE (year_id, country_id)
);`,
	},
	{
		Name: "create_table_cities",
		SQL: `CREATE TABLE IF NOT EXISTS cities (
  id        {{ID}},
  name      TEXT   NOT NULL UNIQUE,
  latitude  {{REAL}} NOT NULL,
  longitude {{REAL}} NOT NULL
);`,
	},
	{
		Name: "create_table_year_cities",
		SQL: `CREATE TABLE IF NOT EXISTS year_cities (
  id      {{ID}},
  year_id BIGINT NOT NULL REFERENCES years (id) ON DELETE CASCADE,
  city_id BIGINT NOT NULL REFERENCES cities (id) ON DELETE CASCADE,
  UNIQUE (year_id, city_id)
);`,
	},
	{
		Name: "create_table_notes",
		SQL: `CREATE TABLE IF NOT EXISTS notes (
  id   {{ID}},
  hash BIGINT NOT NULL UNIQUE,
  text TEXT   NOT NULL
);`,
	},
	{
		Name: "create_table_year_notes",
		SQL: `CREATE TABLE IF NOT EXISTS year_notes (
  id      {{ID}},
  year_id BIGINT NOT NULL UNIQUE REFERENCES years (id) ON DELETE CASCADE,
  note_id BIGINT NOT NULL REFERENCES notes (id) ON DELETE CASCADE
);`,
	},
	{
		Name: "create_index_year_countries_border",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_year_countries_border ON year_countries (border_id);`,
	},
	{
		Name: "create_index_year_countries_country",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_year_countries_country ON year_countries (country_id);`,
	},
	{
		Name: "create_index_year_cities_city",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_year_cities_city ON year_cities (city_id);`,
	},
	{
		Name: "create_index_year_notes_note",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_year_notes_note ON year_notes (note_id);`,
	},
}

var sentinelQueries = map[database.Dialect]string{
	database.DialectSQLite:   `SELECT EXISTS (SELECT 1 FROM sqlite_master WHERE type = 'table' AND name = 'year_notes')`,
	database.DialectPostgres: `SELECT to_regclass('public.year_notes') IS NOT NULL`,
}

// Statements returns the schema DDL rendered for the dialect, in execution order.
func Statements(dialect database.Dialect) ([]string, error) {
	r, ok := dialectTypes[dialect]
	if !ok {
		return nil, fmt.Errorf("unsupported dialect %q", dialect)
	}
	out := make([]string, 0, len(steps))
	for _, step := range steps {
		out = append(out, r.Replace(step.SQL))
	}
	return out, nil
}

// EnsureMigrated checks whether the last schema table exists and runs the migration steps if it doesn't.
func EnsureMigrated(ctx context.Context, db *sql.DB, dialect database.Dialect, target string) error {
	logger := hlog.WithComponent("database")
	start := time.Now()

	r, ok := dialectTypes[dialect]
	if !ok {
		return fmt.Errorf("unsupported dialect %q", dialect)
	}

	logger.Info().
		Str("event", "db_migration_check").
		Str("status", "starting").
		Str("db_target", target).
		Msg("checking schema")

	var exists bool
	if err := db.QueryRowContext(ctx, sentinelQueries[dialect]).Scan(&exists); err != nil {
		logger.Error().
			Str("event", "db_migration_failed").
			Str("status", "error").
			Err(err).
			Str("db_target", target).
			Int64("duration_ms", time.Since(start).Milliseconds()).
			Msg("failed to check sentinel table")
		return fmt.Errorf("failed to check sentinel table: %w", err)
	}

	if exists {
		logger.Info().
			Str("event", "db_migration_skip").
			Str("status", "success").
			Str("db_target", target).
			Int64("duration_ms", time.Since(start).Milliseconds()).
			Msg("schema already exists, skipping migration")
		return nil
	}

	logger.Info().
		Str("event", "db_migration_start").
		Str("status", "in_progress").
		Str("db_target", target).
		Msg("migrating schema")

	for _, step := range steps {
		stepStart := time.Now()
		if _, err := db.ExecContext(ctx, r.Replace(step.SQL)); err != nil {
			logger.Error().
				Str("event", "db_migration_failed").
				Str("status", "error").
				Str("migration_step", step.Name).
				Err(err).
				Str("db_target", target).
				Int64("duration_ms", time.Since(start).Milliseconds()).
				Int64("step_duration_ms", time.Since(stepStart).Milliseconds()).
				Msg("migration step failed")
			return fmt.Errorf("migration step %s failed: %w", step.Name, err)
		}

		logger.Debug().
			Str("event", "db_migration_step").
			Str("status", "success").
			Str("migration_step", step.Name).
			Int64("step_duration_ms", time.Since(stepStart).Milliseconds()).
			Msg("migration step applied")
	}

	logger.Info().
		Str("event", "db_migration_success").
		Str("status", "success").
		Str("db_target", target).
		Int64("duration_ms", time.Since(start).Milliseconds()).
		Msg("schema migrated")

	return nil
}
