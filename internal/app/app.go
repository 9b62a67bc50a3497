package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/reelplanner/backend/internal/config"
	"github.com/reelplanner/backend/internal/db"
	"github.com/reelplanner/backend/internal/httpserver"
	"github.com/reelplanner/backend/internal/logging"
)

// Run bootstraps the ReelPlanner backend application.
func Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("expected command: serve, migrate, or seed")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := logging.New(os.Stdout, cfg.Level())
	ctx = logging.WithLogger(ctx, logger)

	switch args[0] {
	case "serve":
		return serve(ctx, cfg)
	case "migrate":
		return runMigrations(ctx, cfg, args[1:], os.Stdout)
	case "seed":
		return runSeed(ctx, cfg, args[1:], os.Stdout)
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func serve(ctx context.Context, cfg config.Config) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := logging.FromContext(ctx)

	var pool db.Pool
	if cfg.StoreDriver == config.StorePostgres {
		pgPool, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer pgPool.Close()
		pool = pgPool
	}

	deps, cleanup, err := buildDependencies(ctx, cfg, pool)
	if err != nil {
		return err
	}
	defer cleanup()

	srv := httpserver.New(cfg.AppPort, newRouter(logger, cfg, deps))
	ln, err := srv.Listen()
	if err != nil {
		return err
	}

	logger.Info("starting http server", "port", cfg.AppPort, "store", cfg.StoreDriver)
	return srv.Run(ctx, ln)
}

func runMigrations(ctx context.Context, cfg config.Config, args []string, out io.Writer) error {
	command := "up"
	if len(args) > 0 {
		command = args[0]
	}
	if command != "up" && command != "status" {
		return fmt.Errorf("unknown migrate command %q", command)
	}

	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	migrator := db.NewMigrator(pool, cfg.MigrationDir)

	if command == "status" {
		statuses, err := migrator.Status(ctx)
		if err != nil {
			return err
		}
		for _, st := range statuses {
			mark := " "
			if st.Applied {
				mark = "x"
			}
			fmt.Fprintf(out, "[%s] %s\n", mark, st.Name)
		}
		return nil
	}

	applied, err := migrator.Up(ctx)
	if err != nil {
		return err
	}
	if len(applied) == 0 {
		fmt.Fprintln(out, "no migrations to apply")
		return nil
	}
	for _, name := range applied {
		fmt.Fprintf(out, "applied migration %s\n", name)
	}
	return nil
}

func runSeed(ctx context.Context, cfg config.Config, args []string, out io.Writer) error {
	if len(args) == 0 {
		return errors.New("expected seed name (e.g. dev)")
	}

	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	applied, err := db.Seed(ctx, pool, cfg.SeedDir, args[0])
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "applied seed %s\n", applied)
	return nil
}
