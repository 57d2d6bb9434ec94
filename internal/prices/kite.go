package prices

import (
	"context"
	"fmt"
	"os"
	"time"

	kiteconnect "github.com/zerodha/gokiteconnect/v4"

	"sentiment-panel/internal/store"
	"sentiment-panel/internal/types"
)

// KiteSource fetches daily candles through the Zerodha Kite Connect API.
// Kite carries OHLCV only, so the quote-surface fields stay NaN.
type KiteSource struct {
	kc              *kiteconnect.Client
	instrumentToken int
}

// NewKiteSource reads the API key and access token from the environment
// variables named in the config.
func NewKiteSource(cfg store.Config) (*KiteSource, error) {
	apiKey := os.Getenv(cfg.Prices.Kite.APIKeyEnv)
	if apiKey == "" {
		return nil, fmt.Errorf("environment variable %s not set", cfg.Prices.Kite.APIKeyEnv)
	}
	accessToken := os.Getenv(cfg.Prices.Kite.AccessTokenEnv)
	if accessToken == "" {
		return nil, fmt.Errorf("environment variable %s not set", cfg.Prices.Kite.AccessTokenEnv)
	}
	if cfg.Prices.Kite.InstrumentToken == 0 {
		return nil, fmt.Errorf("prices.kite.instrument_token not set")
	}

	kc := kiteconnect.New(apiKey)
	kc.SetAccessToken(accessToken)
	return &KiteSource{kc: kc, instrumentToken: cfg.Prices.Kite.InstrumentToken}, nil
}

func (s *KiteSource) Name() string { return "kite" }

func (s *KiteSource) Fetch(ctx context.Context, ric string, window store.Window) ([]types.PriceBar, error) {
	from := window.Start
	to := window.End
	if to.IsZero() {
		to = time.Now().UTC()
	}
	if from.IsZero() {
		from = to.AddDate(-1, 0, 0)
	}

	candles, err := s.kc.GetHistoricalData(s.instrumentToken, "day", from, to, false, false)
	if err != nil {
		return nil, fmt.Errorf("kite historical data for %s: %w", ric, err)
	}

	bars := make([]types.PriceBar, 0, len(candles))
	for _, c := range candles {
		bar := types.NaNBar(c.Date.Time)
		bar.Open = c.Open
		bar.High = c.High
		bar.Low = c.Low
		bar.Close = c.Close
		bar.Volume = float64(c.Volume)
		bars = append(bars, bar)
	}
	return bars, nil
}
