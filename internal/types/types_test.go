package types

import (
	"math"
	"testing"
	"time"
)

func TestDateKeyTruncatesToUTCDate(t *testing.T) {
	ist := time.FixedZone("IST", 19800)
	h := Headline{Timestamp: time.Date(2024, 1, 4, 3, 30, 0, 0, ist)}
	// 03:30 IST is 22:00 UTC the previous day.
	want := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)
	if got := h.DateKey(); !got.Equal(want) {
		t.Errorf("DateKey() = %v, want %v", got, want)
	}
}

func TestProbsScore(t *testing.T) {
	p := Probs{Pos: 0.7, Neg: 0.1, Neu: 0.2}
	if got := p.Score(); math.Abs(got-0.6) > 1e-9 {
		t.Errorf("Score() = %v, want 0.6", got)
	}
}

func TestNaNBar(t *testing.T) {
	d := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)
	b := NaNBar(d)
	if !b.Date.Equal(d) {
		t.Errorf("date = %v", b.Date)
	}
	for name, v := range map[string]float64{
		"open": b.Open, "high": b.High, "low": b.Low, "close": b.Close,
		"volume": b.Volume, "bid": b.Bid, "ask": b.Ask,
		"turnover": b.Turnover, "vwap": b.VWAP,
	} {
		if !math.IsNaN(v) {
			t.Errorf("%s = %v, want NaN", name, v)
		}
	}
}
