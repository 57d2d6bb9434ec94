package prices

import (
	"context"
	"fmt"
	"os"
	"time"

	"sentiment-panel/internal/csvio"
	"sentiment-panel/internal/httpx"
	"sentiment-panel/internal/store"
	"sentiment-panel/internal/types"
)

// Source fetches daily price bars for one instrument over a date window.
// Fields a provider does not carry come back as NaN.
type Source interface {
	Name() string
	Fetch(ctx context.Context, ric string, window store.Window) ([]types.PriceBar, error)
}

// FeedSource pulls daily summaries from a JSON market data endpoint that
// carries the full quote surface: OHLCV plus bid/ask, turnover and VWAP.
type FeedSource struct {
	client *httpx.Client
}

func NewFeedSource(feedURL string) *FeedSource {
	return &FeedSource{
		client: httpx.NewClient(
			httpx.WithBaseURL(feedURL),
			httpx.WithTimeout(60*time.Second),
			httpx.WithRequestsPerSec(5),
		),
	}
}

func (s *FeedSource) Name() string { return "feed" }

type feedBar struct {
	Date     string   `json:"date"`
	Open     *float64 `json:"open"`
	High     *float64 `json:"high"`
	Low      *float64 `json:"low"`
	Close    *float64 `json:"close"`
	Volume   *float64 `json:"volume"`
	Bid      *float64 `json:"bid"`
	Ask      *float64 `json:"ask"`
	Turnover *float64 `json:"turnover"`
	VWAP     *float64 `json:"vwap"`
}

func (s *FeedSource) Fetch(ctx context.Context, ric string, window store.Window) ([]types.PriceBar, error) {
	path := fmt.Sprintf("/daily?ric=%s", ric)
	if !window.Start.IsZero() {
		path += "&start=" + window.Start.Format("2006-01-02")
	}
	if !window.End.IsZero() {
		path += "&end=" + window.End.Format("2006-01-02")
	}

	resp, err := s.client.GET(ctx, path, httpx.FeedHeaders(os.Getenv("PRICE_FEED_API_KEY")))
	if err != nil {
		return nil, fmt.Errorf("fetching prices for %s: %w", ric, err)
	}

	var body struct {
		Bars []feedBar `json:"bars"`
	}
	if err := resp.ParseJSON(&body); err != nil {
		return nil, err
	}

	bars := make([]types.PriceBar, 0, len(body.Bars))
	for _, fb := range body.Bars {
		date, err := csvio.ParseDate(fb.Date)
		if err != nil {
			return nil, fmt.Errorf("price feed returned %w", err)
		}
		bar := types.NaNBar(date)
		setIf(&bar.Open, fb.Open)
		setIf(&bar.High, fb.High)
		setIf(&bar.Low, fb.Low)
		setIf(&bar.Close, fb.Close)
		setIf(&bar.Volume, fb.Volume)
		setIf(&bar.Bid, fb.Bid)
		setIf(&bar.Ask, fb.Ask)
		setIf(&bar.Turnover, fb.Turnover)
		setIf(&bar.VWAP, fb.VWAP)
		bars = append(bars, bar)
	}
	return bars, nil
}

func setIf(dst *float64, src *float64) {
	if src != nil {
		*dst = *src
	}
}
