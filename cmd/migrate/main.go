package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	"siappa/internal/platform/config"
	"siappa/internal/platform/logger"
	"siappa/internal/platform/postgres"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "migrate:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg := config.FromEnv()

	flagSet := pflag.NewFlagSet("migrate", pflag.ContinueOnError)
	flagSet.StringVar(&cfg.Database.URL, "database-url", cfg.Database.URL, "postgres connection URL (default: $DATABASE_URL)")
	flagSet.BoolP("help", "h", false, "show help")
	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printHelp(flagSet)
			return nil
		}
		return err
	}
	if help, _ := flagSet.GetBool("help"); help {
		printHelp(flagSet)
		return nil
	}
	if flagSet.NArg() != 1 {
		printHelp(flagSet)
		return errors.New("expected exactly one command: up, down or version")
	}
	if cfg.Database.URL == "" {
		return errors.New("database URL is required")
	}

	log := logger.New(cfg.LogLevel, "text")
	db, err := postgres.Open(context.Background(), cfg.Database)
	if err != nil {
		return err
	}
	mg, err := postgres.NewMigrator(db, log)
	if err != nil {
		_ = db.Close()
		return err
	}
	defer mg.Close()

	switch cmd := flagSet.Arg(0); cmd {
	case "up":
		return mg.Up()
	case "down":
		return mg.Down()
	case "version":
		return printVersion(mg, log)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func printVersion(mg *postgres.Migrator, log *slog.Logger) error {
	v, dirty, err := mg.Version()
	if err != nil {
		return err
	}
	log.Info("schema version", "version", v, "dirty", dirty)
	return nil
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `Apply or inspect the siappa database schema.

Usage:
  migrate [flags] up|down|version

Flags:
%s`, flagSet.FlagUsages())
}
