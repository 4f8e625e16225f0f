// Command migrate runs schema operations for the Crelo database.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"crelo/internal/config"
	"crelo/internal/database"
	"crelo/internal/seed"

	"gorm.io/gorm"
)

type command struct {
	help string
	run  func(ctx context.Context, db *gorm.DB, cfg *config.Config, args []string) error
}

var commands = map[string]command{
	"up":      {"apply pending SQL migrations", migrateUp},
	"auto":    {"run GORM AutoMigrate over every model", migrateAuto},
	"status":  {"show schema mode, applied and pending migrations", migrateStatus},
	"down":    {"roll back one migration: down <version>", migrateDown},
	"catalog": {"insert missing locations, categories and pledge types", loadCatalog},
}

func main() {
	flag.Usage = usage
	flag.Parse()
	if err := run(flag.Args()); err != nil {
		log.Fatal(err)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: go run ./cmd/migrate <command> [args]")
	for _, name := range []string{"up", "auto", "status", "down", "catalog"} {
		fmt.Fprintf(os.Stderr, "  %-8s %s\n", name, commands[name].help)
	}
}

func run(args []string) error {
	if len(args) < 1 {
		usage()
		return errors.New("missing command")
	}
	name := strings.ToLower(strings.TrimSpace(args[0]))
	cmd, ok := commands[name]
	if !ok {
		usage()
		return fmt.Errorf("unknown command %q", args[0])
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	// Schema changes here are explicit; connecting must not apply anything.
	db, err := database.ConnectWithOptions(cfg, database.ConnectOptions{ApplySchema: false})
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	return cmd.run(context.Background(), db, cfg, args[1:])
}

func migrateUp(ctx context.Context, db *gorm.DB, _ *config.Config, _ []string) error {
	if err := database.RunMigrations(ctx, db); err != nil {
		return fmt.Errorf("sql migrations failed: %w", err)
	}
	log.Println("sql migrations applied")
	return nil
}

func migrateAuto(ctx context.Context, db *gorm.DB, cfg *config.Config, _ []string) error {
	cfg.DBSchemaMode = database.SchemaModeAuto
	if err := database.ApplySchema(ctx, db, cfg); err != nil {
		return fmt.Errorf("auto schema apply failed: %w", err)
	}
	log.Printf("automigrated %d models", len(database.PersistentModels()))
	return nil
}

func migrateStatus(ctx context.Context, db *gorm.DB, cfg *config.Config, _ []string) error {
	status, err := database.GetSchemaStatus(ctx, db, cfg)
	if err != nil {
		return fmt.Errorf("schema status failed: %w", err)
	}
	log.Printf("mode=%s env=%s run_sql=%t run_auto=%t", status.Mode, status.Environment, status.WillRunSQL, status.WillRunAutoMigrate)
	for _, v := range status.AppliedVersions {
		log.Printf("applied: %06d", v)
	}
	for _, m := range status.PendingMigrations {
		log.Printf("pending: %s", m)
	}
	if len(status.PendingMigrations) == 0 {
		log.Println("schema is up to date")
	}
	return nil
}

func migrateDown(ctx context.Context, db *gorm.DB, _ *config.Config, args []string) error {
	if len(args) < 1 {
		return errors.New("usage: go run ./cmd/migrate down <version>")
	}
	version, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid version %q: %w", args[0], err)
	}
	if err := database.RollbackMigration(ctx, db, version); err != nil {
		return fmt.Errorf("rollback failed: %w", err)
	}
	log.Printf("rolled back migration %06d", version)
	return nil
}

func loadCatalog(_ context.Context, db *gorm.DB, _ *config.Config, _ []string) error {
	catalog, err := seed.DefaultCatalog()
	if err != nil {
		return err
	}
	rows, err := seed.ApplyCatalog(db, catalog)
	if err != nil {
		return fmt.Errorf("catalog load failed: %w", err)
	}
	log.Printf("catalog ready: %d locations, %d categories, %d pledge types",
		len(rows.Locations), len(rows.Categories), len(rows.PledgeTypes))
	return nil
}
