package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"sentiment-panel/internal/logger"
	"sentiment-panel/internal/panel"
	"sentiment-panel/internal/store"
)

func main() {
	_ = godotenv.Load()

	cfg, err := store.LoadConfig("config.yaml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	ctx := context.Background()
	defer logger.Shutdown(ctx)

	if err := panel.Run(ctx, cfg.ScoredNewsPath(), cfg.RawPricesPath(), cfg.PanelPath()); err != nil {
		logger.ErrorWithErr(ctx, "panel build failed", err)
		os.Exit(1)
	}
}
