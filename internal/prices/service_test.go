package prices

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"sentiment-panel/internal/store"
	"sentiment-panel/internal/types"
)

func TestStaticSourceDeterministic(t *testing.T) {
	window := store.Window{
		Start: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
	}

	a, err := NewStaticSource(42).Fetch(context.Background(), "TEST.NS", window)
	if err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}
	b, err := NewStaticSource(42).Fetch(context.Background(), "TEST.NS", window)
	if err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}

	if len(a) == 0 {
		t.Fatal("no bars generated")
	}
	if len(a) != len(b) {
		t.Fatalf("runs differ in length: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i].Close != b[i].Close {
			t.Fatalf("bar %d differs between runs with same seed", i)
		}
	}
}

func TestStaticSourceSkipsWeekends(t *testing.T) {
	window := store.Window{
		Start: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), // a Monday
		End:   time.Date(2024, 1, 14, 0, 0, 0, 0, time.UTC),
	}
	bars, err := NewStaticSource(1).Fetch(context.Background(), "TEST.NS", window)
	if err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}
	if len(bars) != 10 {
		t.Errorf("got %d bars for two weeks, want 10 weekdays", len(bars))
	}
	for _, bar := range bars {
		if wd := bar.Date.Weekday(); wd == time.Saturday || wd == time.Sunday {
			t.Errorf("bar on weekend %s", bar.Date.Format("2006-01-02"))
		}
	}
}

func TestStaticSourceBarShape(t *testing.T) {
	window := store.Window{
		Start: time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 3, 8, 0, 0, 0, 0, time.UTC),
	}
	bars, err := NewStaticSource(7).Fetch(context.Background(), "TEST.NS", window)
	if err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}
	for i, bar := range bars {
		if bar.High < bar.Low {
			t.Errorf("bar %d: high %v below low %v", i, bar.High, bar.Low)
		}
		if bar.High < bar.Open || bar.High < bar.Close {
			t.Errorf("bar %d: high does not bound open/close", i)
		}
		if math.IsNaN(bar.VWAP) || math.IsNaN(bar.Turnover) {
			t.Errorf("bar %d: static source should fill VWAP and turnover", i)
		}
	}
}

// fixedSource returns a preset series, out of order on purpose.
type fixedSource struct {
	bars []types.PriceBar
}

func (f *fixedSource) Name() string { return "fixed" }

func (f *fixedSource) Fetch(ctx context.Context, ric string, window store.Window) ([]types.PriceBar, error) {
	return f.bars, nil
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestCollectSortsAndFilters(t *testing.T) {
	src := &fixedSource{bars: []types.PriceBar{
		barAt(day(2024, 1, 5), 103),
		barAt(day(2024, 1, 3), 100),
		barAt(day(2023, 12, 1), 90), // outside the window
	}}
	window := store.Window{Start: day(2024, 1, 1), End: day(2024, 1, 31)}
	svc := NewService(src, "TEST.NS", window)

	got, err := svc.Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect() error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d bars, want 2", len(got))
	}
	if !got[0].Date.Equal(day(2024, 1, 3)) || !got[1].Date.Equal(day(2024, 1, 5)) {
		t.Errorf("bars not date-sorted: %v, %v", got[0].Date, got[1].Date)
	}
}

func barAt(date time.Time, close float64) types.PriceBar {
	b := types.NaNBar(date)
	b.Open = close - 1
	b.High = close + 1
	b.Low = close - 2
	b.Close = close
	b.Volume = 1000
	return b
}

func TestWriteRawProviderColumns(t *testing.T) {
	bars := []types.PriceBar{barAt(day(2024, 1, 3), 100)}
	outPath := filepath.Join(t.TempDir(), "raw", "prices.csv")

	if err := WriteRaw(context.Background(), bars, outPath); err != nil {
		t.Fatalf("WriteRaw() error: %v", err)
	}

	b, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	wantHeader := "TIMESTAMP,TRDPRC_1,HIGH_1,LOW_1,OPEN_PRC,ACVOL_UNS,BID,ASK,TRNOVR_UNS,VWAP"
	if lines[0] != wantHeader {
		t.Errorf("header = %q, want %q", lines[0], wantHeader)
	}
	// Fields the source did not fill serialize as empty cells.
	if !strings.Contains(lines[1], ",,") {
		t.Errorf("row %q should contain empty cells for NaN fields", lines[1])
	}
}

func TestWriteRawEmptyWritesNothing(t *testing.T) {
	outPath := filepath.Join(t.TempDir(), "prices.csv")
	if err := WriteRaw(context.Background(), nil, outPath); err != nil {
		t.Fatalf("WriteRaw() error: %v", err)
	}
	if _, err := os.Stat(outPath); !os.IsNotExist(err) {
		t.Errorf("expected no output file, stat err = %v", err)
	}
}
