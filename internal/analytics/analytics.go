package analytics

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"sentiment-panel/internal/csvio"
	"sentiment-panel/internal/logger"
	"sentiment-panel/internal/store"
)

// corrColumns is the fixed set of panel columns eligible for the
// correlation table, in output order. Columns absent from the panel, or
// entirely NaN, are left out of the table.
var corrColumns = []string{
	"CLOSE", "HIGH", "LOW", "OPEN", "VOLUME",
	"BID", "ASK", "TRNOVR_UNS", "VWAP", "RETURN",
	"DAILY_SENTIMENT", "POS_SHARE", "NEG_SHARE", "NUM_HEADLINES",
}

// rollingMetrics are the sentiment aggregates correlated against returns
// in the rolling report.
var rollingMetrics = []string{"DAILY_SENTIMENT", "POS_SHARE", "NEG_SHARE", "NUM_HEADLINES"}

// Frame is the analysis view of the panel: date-sorted rows with the
// numeric columns pulled into parallel slices.
type Frame struct {
	Dates []time.Time
	Cols  map[string][]float64
}

// Len returns the number of rows.
func (f *Frame) Len() int { return len(f.Dates) }

// LoadPanel reads the panel CSV into a Frame, keeping rows inside the
// window and sorting by date. DATE is required; every other recognized
// column is optional.
func LoadPanel(path string, window store.Window) (*Frame, error) {
	table, err := csvio.Read(path)
	if err != nil {
		return nil, err
	}
	if err := table.Require("DATE"); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	present := make([]string, 0, len(corrColumns))
	for _, name := range corrColumns {
		if _, ok := table.Col(name); ok {
			present = append(present, name)
		}
	}

	f := &Frame{Cols: make(map[string][]float64, len(present))}
	type rowRef struct {
		date time.Time
		row  []string
	}
	var refs []rowRef
	for _, row := range table.Rows {
		date, err := csvio.ParseDate(table.Get(row, "DATE"))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		if !window.Contains(date) {
			continue
		}
		refs = append(refs, rowRef{date: date, row: row})
	}
	sort.SliceStable(refs, func(i, j int) bool { return refs[i].date.Before(refs[j].date) })

	for _, ref := range refs {
		f.Dates = append(f.Dates, ref.date)
		for _, name := range present {
			f.Cols[name] = append(f.Cols[name], table.Float(ref.row, name))
		}
	}
	return f, nil
}

// dropNaNReturns removes rows whose RETURN is NaN. The first panel row
// always goes: its return has no prior close.
func (f *Frame) dropNaNReturns() *Frame {
	rets, ok := f.Cols["RETURN"]
	if !ok {
		return f
	}
	out := &Frame{Cols: make(map[string][]float64, len(f.Cols))}
	for i, r := range rets {
		if math.IsNaN(r) {
			continue
		}
		out.Dates = append(out.Dates, f.Dates[i])
		for name, col := range f.Cols {
			out.Cols[name] = append(out.Cols[name], col[i])
		}
	}
	return out
}

// usableColumns returns the correlation columns that exist in the frame
// and have at least one non-NaN value, in fixed output order.
func (f *Frame) usableColumns() []string {
	var out []string
	for _, name := range corrColumns {
		col, ok := f.Cols[name]
		if !ok {
			continue
		}
		hasValue := false
		for _, v := range col {
			if !math.IsNaN(v) {
				hasValue = true
				break
			}
		}
		if hasValue {
			out = append(out, name)
		}
	}
	return out
}

// CorrelationTable writes the pairwise correlation matrix of the usable
// columns, one labeled row per column.
func CorrelationTable(ctx context.Context, f *Frame, outPath string) error {
	clean := f.dropNaNReturns()
	cols := clean.usableColumns()
	if len(cols) == 0 {
		logger.Warn(ctx, "no usable columns for correlation table", "path", outPath)
		return nil
	}

	header := append([]string{""}, cols...)
	rows := make([][]string, len(cols))
	for i, rowName := range cols {
		row := make([]string, len(cols)+1)
		row[0] = rowName
		for j, colName := range cols {
			row[j+1] = csvio.FormatFloat(Pearson(clean.Cols[rowName], clean.Cols[colName]))
		}
		rows[i] = row
	}

	if err := csvio.WriteTable(outPath, header, rows); err != nil {
		return fmt.Errorf("writing %s: %w", outPath, err)
	}
	logger.Artifact(ctx, outPath, len(rows))
	return nil
}

// RollingCorrelation writes the trailing window correlation of RETURN
// against each sentiment aggregate. Rows with a missing return are
// excluded first, and the first window-1 remaining rows are empty.
func RollingCorrelation(ctx context.Context, f *Frame, window int, outPath string) error {
	if _, ok := f.Cols["RETURN"]; !ok {
		return fmt.Errorf("panel has no RETURN column")
	}
	clean := f.dropNaNReturns()
	rets := clean.Cols["RETURN"]

	var metrics []string
	for _, m := range rollingMetrics {
		if _, ok := clean.Cols[m]; ok {
			metrics = append(metrics, m)
		}
	}
	if len(metrics) == 0 {
		logger.Warn(ctx, "no sentiment columns for rolling correlation", "path", outPath)
		return nil
	}

	header := []string{"DATE"}
	for _, m := range metrics {
		header = append(header, fmt.Sprintf("RCORR_RETURN_%s_%dd", m, window))
	}

	series := make([][]float64, len(metrics))
	for i, m := range metrics {
		series[i] = RollingPearson(rets, clean.Cols[m], window)
	}

	rows := make([][]string, clean.Len())
	for i := range rows {
		row := make([]string, len(metrics)+1)
		row[0] = csvio.FormatDate(clean.Dates[i])
		for j := range metrics {
			row[j+1] = csvio.FormatFloat(series[j][i])
		}
		rows[i] = row
	}

	if err := csvio.WriteTable(outPath, header, rows); err != nil {
		return fmt.Errorf("writing %s: %w", outPath, err)
	}
	logger.Artifact(ctx, outPath, len(rows))
	return nil
}

// LeadLag pairs each day's sentiment with the next day's return and writes
// the shifted series. The last row has no tomorrow and is dropped. The
// overall correlation of the shifted pair is logged.
func LeadLag(ctx context.Context, f *Frame, outPath string) error {
	sent, ok := f.Cols["DAILY_SENTIMENT"]
	if !ok {
		return fmt.Errorf("panel has no DAILY_SENTIMENT column")
	}
	rets, ok := f.Cols["RETURN"]
	if !ok {
		return fmt.Errorf("panel has no RETURN column")
	}
	if f.Len() < 2 {
		logger.Warn(ctx, "not enough rows for lead-lag", "rows", f.Len())
		return nil
	}

	n := f.Len() - 1
	sentToday := sent[:n]
	retTomorrow := rets[1:]

	rows := make([][]string, n)
	for i := 0; i < n; i++ {
		rows[i] = []string{
			csvio.FormatDate(f.Dates[i]),
			csvio.FormatFloat(sentToday[i]),
			csvio.FormatFloat(retTomorrow[i]),
		}
	}

	header := []string{"DATE", "DAILY_SENTIMENT", "RETURN_TOMORROW"}
	if err := csvio.WriteTable(outPath, header, rows); err != nil {
		return fmt.Errorf("writing %s: %w", outPath, err)
	}

	corr := Pearson(sentToday, retTomorrow)
	logger.Info(ctx, "lead-lag correlation", "corr", corr, "pairs", n)
	logger.Artifact(ctx, outPath, n)
	return nil
}

// HeadlinesVolume writes the daily headline count next to traded volume.
func HeadlinesVolume(ctx context.Context, f *Frame, outPath string) error {
	counts, ok := f.Cols["NUM_HEADLINES"]
	if !ok {
		return fmt.Errorf("panel has no NUM_HEADLINES column")
	}
	vols, ok := f.Cols["VOLUME"]
	if !ok {
		return fmt.Errorf("panel has no VOLUME column")
	}

	rows := make([][]string, f.Len())
	for i := range rows {
		rows[i] = []string{
			csvio.FormatDate(f.Dates[i]),
			csvio.FormatFloat(counts[i]),
			csvio.FormatFloat(vols[i]),
		}
	}

	header := []string{"DATE", "NUM_HEADLINES", "VOLUME"}
	if err := csvio.WriteTable(outPath, header, rows); err != nil {
		return fmt.Errorf("writing %s: %w", outPath, err)
	}
	logger.Artifact(ctx, outPath, len(rows))
	return nil
}

// Run executes the full analytics stage against the panel file.
func Run(ctx context.Context, cfg *store.Config) error {
	timer := logger.StartOperation(ctx, "analyze-panel", "panel", cfg.PanelPath())
	ctx = timer.GetContext()

	f, err := LoadPanel(cfg.PanelPath(), cfg.AnalyticsWindow())
	if err != nil {
		timer.EndWithError(err)
		return err
	}
	if f.Len() == 0 {
		logger.Warn(ctx, "panel empty after window filter, nothing to analyze")
		timer.End("rows", 0)
		return nil
	}

	if err := CorrelationTable(ctx, f, cfg.CorrelationTablePath()); err != nil {
		timer.EndWithError(err)
		return err
	}
	if err := RollingCorrelation(ctx, f, cfg.Analytics.RollingWindow, cfg.RollingCorrelationPath()); err != nil {
		timer.EndWithError(err)
		return err
	}
	if err := LeadLag(ctx, f, cfg.LeadLagPath()); err != nil {
		timer.EndWithError(err)
		return err
	}
	if err := HeadlinesVolume(ctx, f, cfg.HeadlinesVolumePath()); err != nil {
		timer.EndWithError(err)
		return err
	}

	timer.End("rows", f.Len())
	return nil
}
