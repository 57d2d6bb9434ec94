package panel

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"sentiment-panel/internal/csvio"
	"sentiment-panel/internal/logger"
	"sentiment-panel/internal/sentiment"
	"sentiment-panel/internal/types"
)

// renameMap maps the market data provider's column names onto the
// normalized panel names. Files already using normalized names pass
// through untouched.
var renameMap = map[string]string{
	"TRDPRC_1":  "CLOSE",
	"HIGH_1":    "HIGH",
	"LOW_1":     "LOW",
	"OPEN_PRC":  "OPEN",
	"ACVOL_UNS": "VOLUME",
}

// requiredPriceCols must all be present after renaming; their absence is
// fatal. The quote-surface columns are optional and default to NaN.
var requiredPriceCols = []string{"TIMESTAMP", "OPEN", "HIGH", "LOW", "CLOSE", "VOLUME"}

// LoadDailySentiment reads the scored news CSV and aggregates it per
// calendar date: mean score, headline count and the share of positive and
// negative labels.
func LoadDailySentiment(path string) (map[time.Time]types.DailySentiment, error) {
	table, err := csvio.Read(path)
	if err != nil {
		return nil, err
	}
	if err := table.Require(sentiment.ColDate, sentiment.ColScore, sentiment.ColLabel); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	type acc struct {
		sum      float64
		count    int
		pos, neg int
	}
	accs := make(map[time.Time]*acc)
	for _, row := range table.Rows {
		date, err := csvio.ParseDate(table.Get(row, sentiment.ColDate))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		score := table.Float(row, sentiment.ColScore)
		if math.IsNaN(score) {
			continue
		}
		a := accs[date]
		if a == nil {
			a = &acc{}
			accs[date] = a
		}
		a.sum += score
		a.count++
		switch table.Get(row, sentiment.ColLabel) {
		case "positive":
			a.pos++
		case "negative":
			a.neg++
		}
	}

	daily := make(map[time.Time]types.DailySentiment, len(accs))
	for date, a := range accs {
		daily[date] = types.DailySentiment{
			Date:      date,
			MeanScore: a.sum / float64(a.count),
			Headlines: a.count,
			PosShare:  float64(a.pos) / float64(a.count),
			NegShare:  float64(a.neg) / float64(a.count),
		}
	}
	return daily, nil
}

// LoadPrices reads the raw prices CSV, renaming provider columns to the
// normalized names and sorting by date. Optional quote-surface columns
// that are absent come back as NaN.
func LoadPrices(path string) ([]types.PriceBar, error) {
	table, err := csvio.Read(path)
	if err != nil {
		return nil, err
	}
	for i, name := range table.Header {
		if renamed, ok := renameMap[name]; ok {
			table.Header[i] = renamed
		}
	}
	renamed := table.Reindex()
	if err := renamed.Require(requiredPriceCols...); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	bars := make([]types.PriceBar, 0, len(renamed.Rows))
	for _, row := range renamed.Rows {
		ts, err := csvio.ParseTimestamp(renamed.Get(row, "TIMESTAMP"))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		date := time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC)

		bar := types.NaNBar(date)
		bar.Open = renamed.Float(row, "OPEN")
		bar.High = renamed.Float(row, "HIGH")
		bar.Low = renamed.Float(row, "LOW")
		bar.Close = renamed.Float(row, "CLOSE")
		bar.Volume = renamed.Float(row, "VOLUME")
		bar.Bid = renamed.Float(row, "BID")
		bar.Ask = renamed.Float(row, "ASK")
		bar.Turnover = renamed.Float(row, "TRNOVR_UNS")
		bar.VWAP = renamed.Float(row, "VWAP")
		bars = append(bars, bar)
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	return bars, nil
}

// Returns computes day-over-day percentage change of closes. The first
// element is NaN; a NaN close propagates into its neighbors' returns.
func Returns(bars []types.PriceBar) []float64 {
	rets := make([]float64, len(bars))
	for i := range bars {
		if i == 0 {
			rets[i] = math.NaN()
			continue
		}
		prev := bars[i-1].Close
		cur := bars[i].Close
		if math.IsNaN(prev) || math.IsNaN(cur) || prev == 0 {
			rets[i] = math.NaN()
			continue
		}
		rets[i] = cur/prev - 1
	}
	return rets
}

// Build inner-joins price bars with daily sentiment on the calendar date.
// Dates present on only one side are dropped; the result keeps price date
// order. Returns are computed on the full price series before the join, so
// the join cannot distort them.
func Build(ctx context.Context, bars []types.PriceBar, daily map[time.Time]types.DailySentiment) []types.PanelRow {
	rets := Returns(bars)

	var rows []types.PanelRow
	droppedPrice := 0
	for i, bar := range bars {
		ds, ok := daily[bar.Date]
		if !ok {
			droppedPrice++
			continue
		}
		rows = append(rows, types.PanelRow{
			Date:      bar.Date,
			Open:      bar.Open,
			High:      bar.High,
			Low:       bar.Low,
			Close:     bar.Close,
			Volume:    bar.Volume,
			Bid:       bar.Bid,
			Ask:       bar.Ask,
			Turnover:  bar.Turnover,
			VWAP:      bar.VWAP,
			Return:    rets[i],
			MeanScore: ds.MeanScore,
			Headlines: ds.Headlines,
			PosShare:  ds.PosShare,
			NegShare:  ds.NegShare,
		})
	}
	if droppedPrice > 0 {
		logger.Dropped(ctx, "panel", "price date without sentiment", droppedPrice)
	}
	if dropped := len(daily) - len(rows); dropped > 0 {
		logger.Dropped(ctx, "panel", "sentiment date without prices", dropped)
	}
	return rows
}

// panelRow is the on-disk shape of one panel row.
type panelRow struct {
	Date      string      `csv:"DATE"`
	Open      csvio.Float `csv:"OPEN"`
	High      csvio.Float `csv:"HIGH"`
	Low       csvio.Float `csv:"LOW"`
	Close     csvio.Float `csv:"CLOSE"`
	Volume    csvio.Float `csv:"VOLUME"`
	Bid       csvio.Float `csv:"BID"`
	Ask       csvio.Float `csv:"ASK"`
	Turnover  csvio.Float `csv:"TRNOVR_UNS"`
	VWAP      csvio.Float `csv:"VWAP"`
	Return    csvio.Float `csv:"RETURN"`
	Sentiment csvio.Float `csv:"DAILY_SENTIMENT"`
	Headlines int         `csv:"NUM_HEADLINES"`
	PosShare  csvio.Float `csv:"POS_SHARE"`
	NegShare  csvio.Float `csv:"NEG_SHARE"`
}

// Write persists the panel. An empty join still writes the header-only
// file so downstream analytics sees an empty dataset rather than a missing
// one.
func Write(ctx context.Context, rows []types.PanelRow, outPath string) error {
	if len(rows) == 0 {
		logger.Warn(ctx, "empty panel after join, writing header only", "path", outPath)
	}

	out := make([]panelRow, len(rows))
	for i, r := range rows {
		out[i] = panelRow{
			Date:      csvio.FormatDate(r.Date),
			Open:      csvio.Float(r.Open),
			High:      csvio.Float(r.High),
			Low:       csvio.Float(r.Low),
			Close:     csvio.Float(r.Close),
			Volume:    csvio.Float(r.Volume),
			Bid:       csvio.Float(r.Bid),
			Ask:       csvio.Float(r.Ask),
			Turnover:  csvio.Float(r.Turnover),
			VWAP:      csvio.Float(r.VWAP),
			Return:    csvio.Float(r.Return),
			Sentiment: csvio.Float(r.MeanScore),
			Headlines: r.Headlines,
			PosShare:  csvio.Float(r.PosShare),
			NegShare:  csvio.Float(r.NegShare),
		}
	}
	if err := csvio.WriteRows(outPath, &out); err != nil {
		return fmt.Errorf("writing %s: %w", outPath, err)
	}
	logger.Artifact(ctx, outPath, len(out))
	return nil
}

// Run executes the full panel stage from the two input files.
func Run(ctx context.Context, scoredPath, pricesPath, outPath string) error {
	timer := logger.StartOperation(ctx, "build-panel",
		"scored", scoredPath, "prices", pricesPath)
	ctx = timer.GetContext()

	daily, err := LoadDailySentiment(scoredPath)
	if err != nil {
		timer.EndWithError(err)
		return err
	}
	bars, err := LoadPrices(pricesPath)
	if err != nil {
		timer.EndWithError(err)
		return err
	}

	rows := Build(ctx, bars, daily)
	if err := Write(ctx, rows, outPath); err != nil {
		timer.EndWithError(err)
		return err
	}
	timer.End("rows", len(rows))
	return nil
}
