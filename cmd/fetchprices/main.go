package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"sentiment-panel/internal/logger"
	"sentiment-panel/internal/prices"
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

	var source prices.Source
	switch cfg.Prices.Source {
	case "KITE":
		source, err = prices.NewKiteSource(*cfg)
		if err != nil {
			logger.ErrorWithErr(ctx, "kite source setup failed", err)
			os.Exit(1)
		}
	case "STATIC":
		source = prices.NewStaticSource(1)
	default:
		source = prices.NewFeedSource(cfg.Prices.FeedURL)
	}

	svc := prices.NewService(source, cfg.RIC, cfg.PricesWindow())
	if err := svc.Run(ctx, cfg.RawPricesPath()); err != nil {
		logger.ErrorWithErr(ctx, "price fetch failed", err)
		os.Exit(1)
	}
}
