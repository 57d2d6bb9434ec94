package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	RIC      string `yaml:"ric"`
	Language string `yaml:"language"`
	DataDir  string `yaml:"data_dir"`

	News struct {
		Source  string `yaml:"source"` // FEED or SCRAPE
		FeedURL string `yaml:"feed_url"`
		MaxRows int    `yaml:"max_rows"`
		Start   string `yaml:"start"`
		End     string `yaml:"end"`
	} `yaml:"news"`

	Prices struct {
		Source  string `yaml:"source"` // FEED, KITE or STATIC
		FeedURL string `yaml:"feed_url"`
		Start   string `yaml:"start"`
		End     string `yaml:"end"`
		Kite    struct {
			APIKeyEnv       string `yaml:"api_key_env"`
			AccessTokenEnv  string `yaml:"access_token_env"`
			InstrumentToken int    `yaml:"instrument_token"`
		} `yaml:"kite"`
	} `yaml:"prices"`

	Sentiment struct {
		Source    string `yaml:"source"` // REMOTE or LEXICON
		Endpoint  string `yaml:"endpoint"`
		BatchSize int    `yaml:"batch_size"`
		MaxLength int    `yaml:"max_length"`
	} `yaml:"sentiment"`

	Analytics struct {
		Start         string `yaml:"start"`
		End           string `yaml:"end"`
		RollingWindow int    `yaml:"rolling_window"`
	} `yaml:"analytics"`

	Words struct {
		Start          string   `yaml:"start"`
		End            string   `yaml:"end"`
		TopN           int      `yaml:"top_n"`
		ExtraStopwords []string `yaml:"extra_stopwords"`
	} `yaml:"words"`
}

func (c *Config) Validate() error {
	if c.RIC == "" {
		return errors.New("ric cannot be empty")
	}
	switch c.News.Source {
	case "FEED", "SCRAPE":
	default:
		return fmt.Errorf("invalid news.source '%s': must be 'FEED' or 'SCRAPE'", c.News.Source)
	}
	switch c.Prices.Source {
	case "FEED", "KITE", "STATIC":
	default:
		return fmt.Errorf("invalid prices.source '%s': must be 'FEED', 'KITE' or 'STATIC'", c.Prices.Source)
	}
	switch c.Sentiment.Source {
	case "REMOTE", "LEXICON":
	default:
		return fmt.Errorf("invalid sentiment.source '%s': must be 'REMOTE' or 'LEXICON'", c.Sentiment.Source)
	}
	if c.Sentiment.Source == "REMOTE" && c.Sentiment.Endpoint == "" {
		return errors.New("sentiment.endpoint required when sentiment.source is REMOTE")
	}
	if c.Sentiment.BatchSize <= 0 {
		return fmt.Errorf("sentiment.batch_size must be positive, got %d", c.Sentiment.BatchSize)
	}
	if c.Analytics.RollingWindow < 2 {
		return fmt.Errorf("analytics.rolling_window must be at least 2, got %d", c.Analytics.RollingWindow)
	}
	for _, w := range []struct{ name, start, end string }{
		{"news", c.News.Start, c.News.End},
		{"prices", c.Prices.Start, c.Prices.End},
		{"analytics", c.Analytics.Start, c.Analytics.End},
		{"words", c.Words.Start, c.Words.End},
	} {
		if _, _, err := parseWindow(w.start, w.end); err != nil {
			return fmt.Errorf("%s window: %w", w.name, err)
		}
	}
	return nil
}

func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}

	if c.Language == "" {
		c.Language = "EN"
	}
	if c.DataDir == "" {
		c.DataDir = "data"
	}
	if c.News.Source == "" {
		c.News.Source = "FEED"
	}
	if c.News.MaxRows == 0 {
		c.News.MaxRows = 2000
	}
	if c.Prices.Source == "" {
		c.Prices.Source = "FEED"
	}
	if c.Sentiment.Source == "" {
		c.Sentiment.Source = "REMOTE"
	}
	if c.Sentiment.BatchSize == 0 {
		c.Sentiment.BatchSize = 16
	}
	if c.Sentiment.MaxLength == 0 {
		c.Sentiment.MaxLength = 128
	}
	if c.Analytics.RollingWindow == 0 {
		c.Analytics.RollingWindow = 5
	}
	if c.Words.TopN == 0 {
		c.Words.TopN = 20
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &c, nil
}

func parseWindow(start, end string) (time.Time, time.Time, error) {
	var from, to time.Time
	var err error
	if start != "" {
		if from, err = time.Parse("2006-01-02", start); err != nil {
			return from, to, fmt.Errorf("invalid start date '%s': want YYYY-MM-DD", start)
		}
	}
	if end != "" {
		if to, err = time.Parse("2006-01-02", end); err != nil {
			return from, to, fmt.Errorf("invalid end date '%s': want YYYY-MM-DD", end)
		}
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return from, to, fmt.Errorf("end date %s before start date %s", end, start)
	}
	return from, to, nil
}

// Window is an inclusive calendar date range. Zero bounds mean unbounded.
type Window struct {
	Start, End time.Time
}

// Contains reports whether the calendar date of t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	if !w.Start.IsZero() && d.Before(w.Start) {
		return false
	}
	if !w.End.IsZero() && d.After(w.End) {
		return false
	}
	return true
}

func (c *Config) NewsWindow() Window      { return mustWindow(c.News.Start, c.News.End) }
func (c *Config) PricesWindow() Window    { return mustWindow(c.Prices.Start, c.Prices.End) }
func (c *Config) AnalyticsWindow() Window { return mustWindow(c.Analytics.Start, c.Analytics.End) }
func (c *Config) WordsWindow() Window     { return mustWindow(c.Words.Start, c.Words.End) }

// mustWindow is safe after Validate has run.
func mustWindow(start, end string) Window {
	from, to, _ := parseWindow(start, end)
	return Window{Start: from, End: to}
}

func ricSlug(ric string) string { return strings.ReplaceAll(ric, "/", "_") }

// Output paths, all derived from data_dir and the configured RIC.

func (c *Config) RawNewsPath() string {
	return filepath.Join(c.DataDir, "raw", fmt.Sprintf("news_%s.csv", ricSlug(c.RIC)))
}

func (c *Config) RawPricesPath() string {
	return filepath.Join(c.DataDir, "raw", fmt.Sprintf("prices_%s.csv", ricSlug(c.RIC)))
}

func (c *Config) ScoredNewsPath() string {
	return filepath.Join(c.DataDir, "processed", fmt.Sprintf("news_%s_scored.csv", ricSlug(c.RIC)))
}

func (c *Config) PanelPath() string {
	return filepath.Join(c.DataDir, "processed", fmt.Sprintf("panel_%s_sentiment_prices.csv", ricSlug(c.RIC)))
}

func (c *Config) CorrelationTablePath() string {
	return filepath.Join(c.DataDir, "processed", "correlation_table.csv")
}

func (c *Config) RollingCorrelationPath() string {
	return filepath.Join(c.DataDir, "processed", "daily_correlation.csv")
}

func (c *Config) LeadLagPath() string {
	return filepath.Join(c.DataDir, "processed", "lead_lag_sentiment_return.csv")
}

func (c *Config) HeadlinesVolumePath() string {
	return filepath.Join(c.DataDir, "processed", "headlines_vs_volume.csv")
}

func (c *Config) WordReportPath(subset string) string {
	return filepath.Join(c.DataDir, "processed", "words", fmt.Sprintf("words_%s.csv", subset))
}
