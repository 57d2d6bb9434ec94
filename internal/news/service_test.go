package news

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"sentiment-panel/internal/store"
)

// stubSource returns a fixed batch of items.
type stubSource struct {
	items []Item
}

func (s *stubSource) Name() string { return "stub" }

func (s *stubSource) Fetch(ctx context.Context, ric string) ([]Item, error) {
	return s.items, nil
}

func TestCollectDropsBadTimestamps(t *testing.T) {
	src := &stubSource{items: []Item{
		{TimestampRaw: "2024-01-03T10:00:00Z", Headline: "good", StoryID: "s1"},
		{TimestampRaw: "yesterday", Headline: "bad", StoryID: "s2"},
		{TimestampRaw: "", Headline: "empty", StoryID: "s3"},
	}}
	svc := NewService(src, "TEST.NS", store.Window{})

	got, err := svc.Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect() error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d headlines, want 1", len(got))
	}
	if got[0].Headline != "good" {
		t.Errorf("kept headline %q, want %q", got[0].Headline, "good")
	}
	if got[0].RIC != "TEST.NS" {
		t.Errorf("RIC = %q, want TEST.NS", got[0].RIC)
	}
}

func TestCollectDedupKeepsFirst(t *testing.T) {
	src := &stubSource{items: []Item{
		{TimestampRaw: "2024-01-03T10:00:00Z", Headline: "first", StoryID: "dup"},
		{TimestampRaw: "2024-01-02T10:00:00Z", Headline: "second", StoryID: "dup"},
		{TimestampRaw: "2024-01-01T10:00:00Z", Headline: "other", StoryID: "s2"},
	}}
	svc := NewService(src, "TEST.NS", store.Window{})

	got, err := svc.Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect() error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d headlines, want 2", len(got))
	}
	// Sorted ascending, so "other" (Jan 1) comes first, then the kept dup.
	if got[0].Headline != "other" || got[1].Headline != "first" {
		t.Errorf("got order [%q, %q], want [other, first]", got[0].Headline, got[1].Headline)
	}
}

func TestCollectWindowFilter(t *testing.T) {
	src := &stubSource{items: []Item{
		{TimestampRaw: "2024-01-01T09:00:00Z", Headline: "before", StoryID: "s1"},
		{TimestampRaw: "2024-01-05T09:00:00Z", Headline: "inside", StoryID: "s2"},
		{TimestampRaw: "2024-02-01T09:00:00Z", Headline: "after", StoryID: "s3"},
	}}
	window := store.Window{
		Start: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
	}
	svc := NewService(src, "TEST.NS", window)

	got, err := svc.Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect() error: %v", err)
	}
	if len(got) != 1 || got[0].Headline != "inside" {
		t.Fatalf("window filter kept %v, want only 'inside'", got)
	}
}

func TestRunWritesCSV(t *testing.T) {
	src := &stubSource{items: []Item{
		{TimestampRaw: "2024-01-03T10:30:00Z", Headline: "Results out, strong quarter", Source: "wire", StoryID: "s1"},
	}}
	svc := NewService(src, "TEST.NS", store.Window{})

	outPath := filepath.Join(t.TempDir(), "raw", "news.csv")
	if err := svc.Run(context.Background(), outPath); err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	b, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want header + 1 row", len(lines))
	}
	if !strings.HasPrefix(lines[0], "TIMESTAMP,DATE,HEADLINE") {
		t.Errorf("unexpected header %q", lines[0])
	}
	if !strings.Contains(lines[1], "03/01/2024") {
		t.Errorf("row %q missing dd/mm/yyyy date", lines[1])
	}
}

func TestRunEmptyResultWritesNothing(t *testing.T) {
	svc := NewService(&stubSource{}, "TEST.NS", store.Window{})
	outPath := filepath.Join(t.TempDir(), "news.csv")
	if err := svc.Run(context.Background(), outPath); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if _, err := os.Stat(outPath); !os.IsNotExist(err) {
		t.Errorf("expected no output file, stat err = %v", err)
	}
}

func TestRicBase(t *testing.T) {
	tests := []struct{ in, want string }{
		{"TATAMOTORS.NS", "TATAMOTORS"},
		{"AAPL.O", "AAPL"},
		{"NOSUFFIX", "NOSUFFIX"},
	}
	for _, tt := range tests {
		if got := ricBase(tt.in); got != tt.want {
			t.Errorf("ricBase(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
