package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/tbellec/flashdeck/internal/buildinfo"
	"github.com/tbellec/flashdeck/internal/cli"
	"github.com/tbellec/flashdeck/internal/config"
	"github.com/tbellec/flashdeck/internal/logging"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx := context.Background()
	cfg := config.LoadConfig()

	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	app, err := cli.NewApp(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("%v", err)
		return
	}

	app.Run(ctx)

}
