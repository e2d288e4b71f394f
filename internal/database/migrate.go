package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/freelance-crm/relation-bot/internal/config"
	"github.com/freelance-crm/relation-bot/migrations"
	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
)

// MigrationsDir is where new migration files are created
const MigrationsDir = "./migrations"

// OpenMigrationDB opens a plain database/sql connection for goose
func OpenMigrationDB(ctx context.Context, cfg *config.DatabaseConfig) (*sql.DB, error) {
	if cfg.IsSQLite() {
		return nil, fmt.Errorf("goose migrations target postgres; sqlite databases are migrated automatically")
	}

	db, err := sql.Open("postgres", cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

// Migrate runs a goose command against the embedded migrations.
// command is one of up, down, status, version or create; create takes a name.
func Migrate(ctx context.Context, db *sql.DB, command string, args ...string) error {
	goose.SetBaseFS(migrations.FS)
	defer goose.SetBaseFS(nil)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}

	switch command {
	case "up":
		if err := goose.UpContext(ctx, db, "."); err != nil {
			return fmt.Errorf("failed to run up migrations: %w", err)
		}
	case "down":
		if err := goose.DownContext(ctx, db, "."); err != nil {
			return fmt.Errorf("failed to run down migration: %w", err)
		}
	case "status":
		if err := goose.StatusContext(ctx, db, "."); err != nil {
			return fmt.Errorf("failed to get migration status: %w", err)
		}
	case "version":
		if err := goose.VersionContext(ctx, db, "."); err != nil {
			return fmt.Errorf("failed to get version: %w", err)
		}
	case "create":
		if len(args) == 0 {
			return fmt.Errorf("create requires a migration name")
		}
		// New files go to disk, not into the embedded set
		goose.SetBaseFS(nil)
		if err := goose.Create(db, MigrationsDir, args[0], "sql"); err != nil {
			return fmt.Errorf("failed to create migration: %w", err)
		}
	default:
		return fmt.Errorf("unknown migrate command: %s", command)
	}
	return nil
}

// EmbeddedMigrations lists the versions of the embedded migrations in order
func EmbeddedMigrations() ([]int64, error) {
	goose.SetBaseFS(migrations.FS)
	defer goose.SetBaseFS(nil)

	ms, err := goose.CollectMigrations(".", 0, goose.MaxVersion)
	if err != nil {
		return nil, fmt.Errorf("failed to collect migrations: %w", err)
	}
	versions := make([]int64, 0, len(ms))
	for _, m := range ms {
		versions = append(versions, m.Version)
	}
	return versions, nil
}
