package main

import (
	"context"
	"flag"
	"log"

	"go.uber.org/zap"

	"rest-user-service/cmd/api/app"
	"rest-user-service/cmd/api/di"
	"rest-user-service/cmd/api/server"
	"rest-user-service/internal/config"
	"rest-user-service/internal/seed"
)

func main() {
	count := flag.Int("count", -1, "number of users to create (default SEED_COUNT)")
	seedValue := flag.Uint64("seed", 0, "random seed, 0 for a random one")
	configPath := flag.String("config", ".", "directory holding app.env")
	flag.Parse()

	ctx, stop := server.WithSignal(context.Background())
	defer stop()

	if err := run(ctx, *configPath, *count, *seedValue); err != nil {
		stop()
		log.Fatalf("seed failed: %v", err)
	}
}

func run(ctx context.Context, configPath string, count int, seedValue uint64) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return err
	}
	if count >= 0 {
		cfg.Seed.Count = count
	}

	l, err := app.NewLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = l.Sync() }()

	container, err := di.NewContainer(ctx, cfg, l)
	if err != nil {
		return err
	}
	defer func() {
		if err := container.Close(); err != nil {
			l.Warn("failed to close container", zap.Error(err))
		}
	}()

	return seed.New(container.UserUC, seedValue, l).Run(ctx, cfg.Seed.Count)
}
