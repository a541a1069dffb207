package cmd

import (
	"context"
	"fmt"
	"io/fs"
	"os"

	"github.com/frahmantamala/school-core/db"
	"github.com/frahmantamala/school-core/pkg/logger"
	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"
)

var (
	migrateCmd = &cobra.Command{
		RunE:  runMigration,
		Use:   "migrate",
		Short: "to run db migration files under db/migrations directory",
	}
	migrateRollback bool
	migrateDir      string
)

func init() {
	migrateCmd.Flags().BoolVarP(&migrateRollback, "rollback", "r", false, "to rollback the latest version of sql migration")
	migrateCmd.PersistentFlags().StringVarP(&migrateDir, "dir", "d", "", "sql migrations directory on disk (default: migrations built into the binary)")
}

func migrationSource() (fs.FS, string) {
	if migrateDir != "" {
		return os.DirFS(migrateDir), "."
	}
	return db.Migrations, db.MigrationsDir
}

func runMigration(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, _, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	lg := logger.Init(cfg.Env, cfg.Observability.Logging.Level, cfg.Observability.Logging.Format)

	conn, err := goose.OpenDBWithDriver("pgx", cfg.Database.GetDSN())
	if err != nil {
		return fmt.Errorf("goose: failed to open DB: %w", err)
	}
	defer conn.Close()

	fsys, dir := migrationSource()
	goose.SetBaseFS(fsys)
	goose.SetTableName("schema_migrations")
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	command := "up"
	if migrateRollback {
		command = "down"
	}

	if err := goose.RunContext(ctx, command, conn, dir); err != nil {
		return fmt.Errorf("goose %s: %w", command, err)
	}

	version, err := goose.GetDBVersionContext(ctx, conn)
	if err != nil {
		return fmt.Errorf("goose version: %w", err)
	}
	lg.Info("migration finished", "command", command, "version", version)
	return nil
}
