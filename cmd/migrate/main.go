package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"

	"go.uber.org/zap"

	"rest-user-service/internal/adapter/db/migrations"
	"rest-user-service/internal/config"
	"rest-user-service/pkg/logger"
)

var errUsage = errors.New("usage")

// command is a parsed migrate invocation.
type command struct {
	name string
	arg  int
}

func main() {
	flag.Usage = usage
	flag.Parse()

	cmd, err := parseArgs(flag.Args())
	if err != nil {
		if !errors.Is(err, errUsage) {
			fmt.Fprintln(os.Stderr, err)
		}
		usage()
		os.Exit(1)
	}

	if err := run(cmd); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func parseArgs(args []string) (command, error) {
	if len(args) == 0 {
		return command{}, errUsage
	}

	switch args[0] {
	case "up", "version":
		return command{name: args[0]}, nil

	case "down":
		steps := 1
		if len(args) > 1 {
			n, err := strconv.Atoi(args[1])
			if err != nil || n < 1 {
				return command{}, fmt.Errorf("down: invalid steps argument %q", args[1])
			}
			steps = n
		}
		return command{name: "down", arg: steps}, nil

	case "force":
		if len(args) < 2 {
			return command{}, errors.New("force: version argument required")
		}
		v, err := strconv.Atoi(args[1])
		if err != nil {
			return command{}, fmt.Errorf("force: invalid version %q", args[1])
		}
		return command{name: "force", arg: v}, nil

	default:
		return command{}, errUsage
	}
}

func run(cmd command) error {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "."
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	l, err := logger.New(logger.Config{
		Level:          cfg.Logger.Level,
		Format:         cfg.Logger.Format,
		OutputPath:     "stderr",
		ServiceName:    cfg.Logger.ServiceName,
		ServiceVersion: cfg.Logger.ServiceVersion,
		Environment:    cfg.App.Env,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = l.Sync() }()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		if cfg.DB.Driver != config.DriverPostgres {
			return fmt.Errorf("migrations only target postgres, DB_DRIVER is %q", cfg.DB.Driver)
		}
		dbURL = cfg.DB.MigrateURL()
	}

	m, err := migrations.New(dbURL, l)
	if err != nil {
		return err
	}
	defer func() {
		if err := m.Close(); err != nil {
			l.Warn("failed to close migrator", zap.Error(err))
		}
	}()

	switch cmd.name {
	case "up":
		return m.Up()
	case "down":
		return m.Down(cmd.arg)
	case "force":
		return m.Force(cmd.arg)
	case "version":
		v, dirty, err := m.Version()
		if err != nil {
			return err
		}
		fmt.Printf("version: %d  dirty: %v\n", v, dirty)
	}
	return nil
}

func usage() {
	fmt.Fprintln(os.Stderr, `Usage: migrate <command> [args]

Commands:
  up           Apply all pending migrations
  down [N]     Rollback N migrations (default: 1)
  version      Print current migration version
  force <V>    Force set migration version (bypass dirty state)

Environment:
  DATABASE_URL   Full PostgreSQL URL; defaults to one built from DB_* settings.
  CONFIG_PATH    Directory holding app.env (default: .)`)
}
