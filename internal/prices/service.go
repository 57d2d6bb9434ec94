package prices

import (
	"context"
	"fmt"
	"sort"

	"sentiment-panel/internal/csvio"
	"sentiment-panel/internal/logger"
	"sentiment-panel/internal/store"
	"sentiment-panel/internal/types"
)

// rawPriceRow uses the market data provider's native column names. The
// panel builder renames them to the normalized set when it loads the file.
type rawPriceRow struct {
	Timestamp string      `csv:"TIMESTAMP"`
	Close     csvio.Float `csv:"TRDPRC_1"`
	High      csvio.Float `csv:"HIGH_1"`
	Low       csvio.Float `csv:"LOW_1"`
	Open      csvio.Float `csv:"OPEN_PRC"`
	Volume    csvio.Float `csv:"ACVOL_UNS"`
	Bid       csvio.Float `csv:"BID"`
	Ask       csvio.Float `csv:"ASK"`
	Turnover  csvio.Float `csv:"TRNOVR_UNS"`
	VWAP      csvio.Float `csv:"VWAP"`
}

// Service fetches daily bars from a source and persists them in the raw
// provider-column layout.
type Service struct {
	source Source
	ric    string
	window store.Window
}

func NewService(source Source, ric string, window store.Window) *Service {
	return &Service{source: source, ric: ric, window: window}
}

// Collect fetches the bars, filters to the window and sorts by date.
func (s *Service) Collect(ctx context.Context) ([]types.PriceBar, error) {
	bars, err := s.source.Fetch(ctx, s.ric, s.window)
	if err != nil {
		return nil, err
	}
	logger.Info(ctx, "price bars fetched", "source", s.source.Name(), "ric", s.ric, "bars", len(bars))

	kept := bars[:0]
	for _, b := range bars {
		if s.window.Contains(b.Date) {
			kept = append(kept, b)
		}
	}
	sort.Slice(kept, func(i, j int) bool { return kept[i].Date.Before(kept[j].Date) })
	return kept, nil
}

// WriteRaw writes bars to outPath in provider columns. Nothing is written
// for an empty slice.
func WriteRaw(ctx context.Context, bars []types.PriceBar, outPath string) error {
	if len(bars) == 0 {
		logger.Warn(ctx, "no price bars to write, skipping output", "path", outPath)
		return nil
	}

	rows := make([]rawPriceRow, len(bars))
	for i, b := range bars {
		// Format in the bar's own zone: Kite stamps candles at local
		// midnight, and converting to UTC would shift the trading date.
		rows[i] = rawPriceRow{
			Timestamp: b.Date.Format("2006-01-02"),
			Close:     csvio.Float(b.Close),
			High:      csvio.Float(b.High),
			Low:       csvio.Float(b.Low),
			Open:      csvio.Float(b.Open),
			Volume:    csvio.Float(b.Volume),
			Bid:       csvio.Float(b.Bid),
			Ask:       csvio.Float(b.Ask),
			Turnover:  csvio.Float(b.Turnover),
			VWAP:      csvio.Float(b.VWAP),
		}
	}
	if err := csvio.WriteRows(outPath, &rows); err != nil {
		return fmt.Errorf("writing %s: %w", outPath, err)
	}
	logger.Artifact(ctx, outPath, len(rows))
	return nil
}

// Run is the full fetch stage: collect, then persist.
func (s *Service) Run(ctx context.Context, outPath string) error {
	timer := logger.StartOperation(ctx, "fetch-prices", "ric", s.ric, "source", s.source.Name())
	ctx = timer.GetContext()

	bars, err := s.Collect(ctx)
	if err != nil {
		timer.EndWithError(err)
		return err
	}
	if err := WriteRaw(ctx, bars, outPath); err != nil {
		timer.EndWithError(err)
		return err
	}
	timer.End("rows", len(bars))
	return nil
}
