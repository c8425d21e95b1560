// ABOUTME: Migration utility for moving an appointment book between databases
// ABOUTME: Copies a local SQLite store into MySQL, with dry-run and backup support
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/harperreed/shadecal/config"
	"github.com/harperreed/shadecal/db"
)

func main() {
	from := flag.String("from", config.DefaultDBPath(), "Source SQLite database")
	to := flag.String("to", "", "Destination MySQL DSN, e.g. user:pass@tcp(127.0.0.1:3306)/shadecal (required)")
	dryRun := flag.Bool("dry-run", false, "Show what would happen without making changes")
	backup := flag.Bool("backup", true, "Create backup of the source before migration")
	force := flag.Bool("force", false, "Replace rows already in the destination")
	flag.Parse()

	logger := log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true, Prefix: "migrate"})

	if *to == "" {
		logger.Fatal("-to is required")
	}

	if err := migrate(context.Background(), logger, *from, *to, *dryRun, *backup, *force); err != nil {
		logger.Fatal("migration failed", "err", err)
	}

	logger.Info("migration completed successfully")
}

func migrate(ctx context.Context, logger *log.Logger, from, to string, dryRun, createBackup, force bool) error {
	if _, err := os.Stat(from); os.IsNotExist(err) {
		return fmt.Errorf("database file does not exist: %s", from)
	}

	if createBackup && !dryRun {
		backupPath := fmt.Sprintf("%s.backup.%s", from, time.Now().Format("20060102-150405"))
		logger.Info("creating backup", "path", backupPath)

		input, err := os.ReadFile(from)
		if err != nil {
			return fmt.Errorf("failed to read database: %w", err)
		}
		if err := os.WriteFile(backupPath, input, 0644); err != nil {
			return fmt.Errorf("failed to create backup: %w", err)
		}
	}

	src, err := db.Open(db.DialectSQLite, from)
	if err != nil {
		return fmt.Errorf("failed to open source: %w", err)
	}
	defer func() { _ = src.Close() }()

	counts, err := src.CountRows(ctx)
	if err != nil {
		return err
	}
	for _, table := range db.Tables {
		logger.Info("source table", "table", table, "rows", counts[table])
	}

	if dryRun {
		logger.Info("[DRY RUN] would copy every table above into the destination", "replace", force)
		return nil
	}

	dst, err := db.Open(db.DialectMySQL, to)
	if err != nil {
		return fmt.Errorf("failed to open destination: %w", err)
	}
	defer func() { _ = dst.Close() }()

	copied, err := src.CopyTo(ctx, dst, force)
	if err != nil {
		if !force {
			logger.Warn("use -force to replace rows already in the destination")
		}
		return err
	}
	for _, table := range db.Tables {
		logger.Info("copied", "table", table, "rows", copied[table])
	}
	return nil
}
