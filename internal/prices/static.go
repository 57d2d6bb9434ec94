package prices

import (
	"context"
	"math/rand"
	"time"

	"sentiment-panel/internal/store"
	"sentiment-panel/internal/types"
)

// StaticSource generates a deterministic synthetic daily series for offline
// runs and tests. Weekends are skipped the way an exchange calendar would.
type StaticSource struct {
	seed int64
}

func NewStaticSource(seed int64) *StaticSource {
	return &StaticSource{seed: seed}
}

func (s *StaticSource) Name() string { return "static" }

func (s *StaticSource) Fetch(ctx context.Context, ric string, window store.Window) ([]types.PriceBar, error) {
	from := window.Start
	to := window.End
	if to.IsZero() {
		to = time.Now().UTC().Truncate(24 * time.Hour)
	}
	if from.IsZero() {
		from = to.AddDate(0, -3, 0)
	}

	// Vary the base level by symbol so different RICs get different series.
	symbolSeed := s.seed
	for _, c := range ric {
		symbolSeed += int64(c)
	}
	r := rand.New(rand.NewSource(symbolSeed))

	price := 1000 + r.Float64()*100
	var bars []types.PriceBar
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		if wd := d.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		open := price
		c := price * (1 + (r.Float64()-0.49)*0.03)
		h := c * (1 + r.Float64()*0.01)
		l := c * (1 - r.Float64()*0.01)
		if open > h {
			h = open
		}
		if open < l {
			l = open
		}
		vol := 100000 + r.Float64()*900000

		bar := types.NaNBar(d)
		bar.Open = open
		bar.High = h
		bar.Low = l
		bar.Close = c
		bar.Volume = vol
		bar.VWAP = (h + l + c) / 3
		bar.Turnover = vol * bar.VWAP
		bars = append(bars, bar)

		price = c
	}
	return bars, nil
}
