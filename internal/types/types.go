package types

import (
	"math"
	"time"
)

// Headline is one raw news headline for a single instrument.
type Headline struct {
	Timestamp time.Time `json:"timestamp"`
	Headline  string    `json:"headline"`
	Source    string    `json:"source"`
	StoryID   string    `json:"story_id"`
	RIC       string    `json:"ric"`
}

// DateKey truncates the headline timestamp to its UTC calendar date.
func (h Headline) DateKey() time.Time {
	t := h.Timestamp.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Probs holds the three class probabilities for one headline. They sum to 1
// within floating tolerance.
type Probs struct {
	Pos float64 `json:"positive"`
	Neg float64 `json:"negative"`
	Neu float64 `json:"neutral"`
}

// Score is the continuous sentiment score, positive minus negative, in [-1, 1].
func (p Probs) Score() float64 { return p.Pos - p.Neg }

// ScoredHeadline is a headline with its classifier output attached.
type ScoredHeadline struct {
	Headline
	Probs
	Label string `json:"label"`
}

// PriceBar is one daily OHLCV bar. Fields the provider feed does not carry
// are NaN.
type PriceBar struct {
	Date     time.Time `json:"date"`
	Open     float64   `json:"open"`
	High     float64   `json:"high"`
	Low      float64   `json:"low"`
	Close    float64   `json:"close"`
	Volume   float64   `json:"volume"`
	Bid      float64   `json:"bid"`
	Ask      float64   `json:"ask"`
	Turnover float64   `json:"turnover"`
	VWAP     float64   `json:"vwap"`
}

// DailySentiment is the per-date aggregate of scored headlines.
type DailySentiment struct {
	Date      time.Time `json:"date"`
	MeanScore float64   `json:"mean_score"`
	Headlines int       `json:"headlines"`
	PosShare  float64   `json:"pos_share"`
	NegShare  float64   `json:"neg_share"`
}

// PanelRow joins one price bar with the same-date sentiment aggregate.
// Return is NaN for the first bar of a price series.
type PanelRow struct {
	Date      time.Time `json:"date"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
	Bid       float64   `json:"bid"`
	Ask       float64   `json:"ask"`
	Turnover  float64   `json:"turnover"`
	VWAP      float64   `json:"vwap"`
	Return    float64   `json:"return"`
	MeanScore float64   `json:"daily_sentiment"`
	Headlines int       `json:"num_headlines"`
	PosShare  float64   `json:"pos_share"`
	NegShare  float64   `json:"neg_share"`
}

// NaNBar returns a bar for the given date with every price field NaN.
// Sources fill in the fields their provider carries.
func NaNBar(date time.Time) PriceBar {
	nan := math.NaN()
	return PriceBar{
		Date: date,
		Open: nan, High: nan, Low: nan, Close: nan, Volume: nan,
		Bid: nan, Ask: nan, Turnover: nan, VWAP: nan,
	}
}
