package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"sentiment-panel/internal/logger"
	"sentiment-panel/internal/news"
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

	var source news.Source
	switch cfg.News.Source {
	case "SCRAPE":
		source = news.NewScrapeSource(30*time.Second, cfg.News.MaxRows)
	default:
		source = news.NewFeedSource(cfg.News.FeedURL, cfg.Language, cfg.News.MaxRows)
	}

	svc := news.NewService(source, cfg.RIC, cfg.NewsWindow())
	if err := svc.Run(ctx, cfg.RawNewsPath()); err != nil {
		logger.ErrorWithErr(ctx, "news fetch failed", err)
		os.Exit(1)
	}
}
