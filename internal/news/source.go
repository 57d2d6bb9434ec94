package news

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"time"

	"sentiment-panel/internal/httpx"
)

// Item is one headline as delivered by a source, timestamp still raw.
// Parsing and filtering happen in the service so every source shares the
// same drop accounting.
type Item struct {
	TimestampRaw string
	Headline     string
	Source       string
	StoryID      string
}

// Source fetches raw headline items for one instrument.
type Source interface {
	Name() string
	Fetch(ctx context.Context, ric string) ([]Item, error)
}

// FeedSource pulls headlines from a JSON news feed endpoint. The feed is
// queried with the instrument RIC and a language filter and returns at most
// maxRows headlines, newest first.
type FeedSource struct {
	client   *httpx.Client
	language string
	maxRows  int
}

func NewFeedSource(feedURL, language string, maxRows int) *FeedSource {
	return &FeedSource{
		client: httpx.NewClient(
			httpx.WithBaseURL(feedURL),
			httpx.WithTimeout(60*time.Second),
			httpx.WithRequestsPerSec(5),
		),
		language: language,
		maxRows:  maxRows,
	}
}

func (s *FeedSource) Name() string { return "feed" }

type feedHeadline struct {
	VersionCreated string `json:"versionCreated"`
	Text           string `json:"text"`
	StoryID        string `json:"storyId"`
	SourceCode     string `json:"sourceCode"`
}

func (s *FeedSource) Fetch(ctx context.Context, ric string) ([]Item, error) {
	query := fmt.Sprintf("R:%s AND Language:L%s", ric, s.language)
	path := fmt.Sprintf("/headlines?query=%s&count=%d", url.QueryEscape(query), s.maxRows)

	resp, err := s.client.GET(ctx, path, httpx.FeedHeaders(os.Getenv("NEWS_FEED_API_KEY")))
	if err != nil {
		return nil, fmt.Errorf("fetching headlines for %s: %w", ric, err)
	}

	var body struct {
		Headlines []feedHeadline `json:"headlines"`
	}
	if err := resp.ParseJSON(&body); err != nil {
		return nil, err
	}

	items := make([]Item, 0, len(body.Headlines))
	for _, h := range body.Headlines {
		items = append(items, Item{
			TimestampRaw: h.VersionCreated,
			Headline:     h.Text,
			Source:       h.SourceCode,
			StoryID:      h.StoryID,
		})
	}
	return items, nil
}
