package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/Goncalofonseca86/leirisonda/internal/buildinfo"
	"github.com/Goncalofonseca86/leirisonda/internal/client/cli"
	"github.com/Goncalofonseca86/leirisonda/internal/client/config"
	"github.com/Goncalofonseca86/leirisonda/internal/logging"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.LoadConfig()
	if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0o700); err != nil {
		log.Fatalf("%v", err)
	}

	logger := logging.NewDefault(slog.LevelInfo)

	app, err := cli.NewApp(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("%v", err)
	}

	app.Run(ctx)
}
