package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"strconv"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

const migrationsDir = "migrations"

func prepareGoose() error {
	goose.SetBaseFS(migrationFiles)
	return goose.SetDialect("postgres")
}

// RunMigrations applies every pending migration. A nil database is a no-op.
func RunMigrations(ctx context.Context, database *sql.DB) error {
	if database == nil {
		return nil
	}
	if err := prepareGoose(); err != nil {
		return err
	}
	return goose.UpContext(ctx, database, migrationsDir)
}

// Migrate runs a goose command against database. "up-to" and "down-to" take a target version in args.
func Migrate(ctx context.Context, database *sql.DB, command string, args ...string) error {
	if err := prepareGoose(); err != nil {
		return err
	}
	switch command {
	case "", "up":
		return goose.UpContext(ctx, database, migrationsDir)
	case "down":
		return goose.DownContext(ctx, database, migrationsDir)
	case "redo":
		return goose.RedoContext(ctx, database, migrationsDir)
	case "reset":
		return goose.ResetContext(ctx, database, migrationsDir)
	case "status":
		return goose.StatusContext(ctx, database, migrationsDir)
	case "version":
		return goose.VersionContext(ctx, database, migrationsDir)
	case "up-to", "down-to":
		version, err := targetVersion(command, args)
		if err != nil {
			return err
		}
		if command == "up-to" {
			return goose.UpToContext(ctx, database, migrationsDir, version)
		}
		return goose.DownToContext(ctx, database, migrationsDir, version)
	default:
		return fmt.Errorf("unknown migrate command %q", command)
	}
}

func targetVersion(command string, args []string) (int64, error) {
	if len(args) == 0 {
		return 0, fmt.Errorf("%s requires a target version", command)
	}
	version, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || version < 0 {
		return 0, fmt.Errorf("%s: invalid version %q", command, args[0])
	}
	return version, nil
}
