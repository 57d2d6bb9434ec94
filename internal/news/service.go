package news

import (
	"context"
	"fmt"
	"sort"

	"sentiment-panel/internal/csvio"
	"sentiment-panel/internal/logger"
	"sentiment-panel/internal/store"
	"sentiment-panel/internal/types"
)

// Service turns raw source items into the raw news CSV: parse timestamps,
// filter to the configured window, drop duplicate stories and sort
// chronologically.
type Service struct {
	source Source
	ric    string
	window store.Window
}

func NewService(source Source, ric string, window store.Window) *Service {
	return &Service{source: source, ric: ric, window: window}
}

// Collect fetches and normalizes headlines. Rows with unparseable
// timestamps are dropped and counted, never fatal. An empty result is a
// diagnostic for the caller, not an error.
func (s *Service) Collect(ctx context.Context) ([]types.Headline, error) {
	items, err := s.source.Fetch(ctx, s.ric)
	if err != nil {
		return nil, err
	}
	logger.Info(ctx, "headlines fetched", "source", s.source.Name(), "ric", s.ric, "items", len(items))

	headlines := make([]types.Headline, 0, len(items))
	droppedTime := 0
	for _, it := range items {
		ts, err := csvio.ParseTimestamp(it.TimestampRaw)
		if err != nil {
			droppedTime++
			continue
		}
		if !s.window.Contains(ts) {
			continue
		}
		headlines = append(headlines, types.Headline{
			Timestamp: ts,
			Headline:  it.Headline,
			Source:    it.Source,
			StoryID:   it.StoryID,
			RIC:       s.ric,
		})
	}
	if droppedTime > 0 {
		logger.Dropped(ctx, "fetch-news", "unparseable timestamp", droppedTime)
	}

	// Duplicate story ids keep their first occurrence in source order.
	seen := make(map[string]bool, len(headlines))
	deduped := headlines[:0]
	droppedDup := 0
	for _, h := range headlines {
		if h.StoryID != "" && seen[h.StoryID] {
			droppedDup++
			continue
		}
		seen[h.StoryID] = true
		deduped = append(deduped, h)
	}
	if droppedDup > 0 {
		logger.Dropped(ctx, "fetch-news", "duplicate story id", droppedDup)
	}

	sort.SliceStable(deduped, func(i, j int) bool {
		return deduped[i].Timestamp.Before(deduped[j].Timestamp)
	})
	return deduped, nil
}

type rawNewsRow struct {
	Timestamp string `csv:"TIMESTAMP"`
	Date      string `csv:"DATE"`
	Headline  string `csv:"HEADLINE"`
	Source    string `csv:"SOURCE"`
	StoryID   string `csv:"STORY_ID"`
	RIC       string `csv:"RIC"`
}

// WriteRaw writes the normalized headlines to outPath. Nothing is written
// for an empty slice.
func WriteRaw(ctx context.Context, headlines []types.Headline, outPath string) error {
	if len(headlines) == 0 {
		logger.Warn(ctx, "no headlines to write, skipping output", "path", outPath)
		return nil
	}

	rows := make([]rawNewsRow, len(headlines))
	for i, h := range headlines {
		rows[i] = rawNewsRow{
			Timestamp: h.Timestamp.UTC().Format("2006-01-02 15:04:05"),
			Date:      csvio.FormatDate(h.DateKey()),
			Headline:  h.Headline,
			Source:    h.Source,
			StoryID:   h.StoryID,
			RIC:       h.RIC,
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
	timer := logger.StartOperation(ctx, "fetch-news", "ric", s.ric, "source", s.source.Name())
	ctx = timer.GetContext()

	headlines, err := s.Collect(ctx)
	if err != nil {
		timer.EndWithError(err)
		return err
	}
	if err := WriteRaw(ctx, headlines, outPath); err != nil {
		timer.EndWithError(err)
		return err
	}
	timer.End("rows", len(headlines))
	return nil
}
