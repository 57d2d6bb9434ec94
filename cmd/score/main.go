package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"sentiment-panel/internal/logger"
	"sentiment-panel/internal/sentiment"
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

	var classifier sentiment.Classifier
	switch cfg.Sentiment.Source {
	case "LEXICON":
		classifier = sentiment.NewLexiconClassifier(cfg.Sentiment.MaxLength)
	default:
		classifier, err = sentiment.NewRemoteClassifier(ctx, cfg.Sentiment.Endpoint, cfg.Sentiment.MaxLength)
		if err != nil {
			logger.ErrorWithErr(ctx, "classifier setup failed", err)
			os.Exit(1)
		}
	}

	scorer := sentiment.NewScorer(classifier, cfg.Sentiment.BatchSize)
	if err := sentiment.ScoreFile(ctx, scorer, cfg.RawNewsPath(), cfg.ScoredNewsPath()); err != nil {
		logger.ErrorWithErr(ctx, "scoring failed", err)
		os.Exit(1)
	}
}
