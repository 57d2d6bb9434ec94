package sentiment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"sentiment-panel/internal/httpx"
	"sentiment-panel/internal/logger"
	"sentiment-panel/internal/types"
)

// Fixed label thresholds on the continuous score. Scores of exactly
// +/-0.05 are neutral.
const (
	positiveThreshold = 0.05
	negativeThreshold = -0.05
)

// LabelFor maps a continuous score to its discrete label.
func LabelFor(score float64) string {
	switch {
	case score > positiveThreshold:
		return "positive"
	case score < negativeThreshold:
		return "negative"
	default:
		return "neutral"
	}
}

// Classifier maps a batch of texts to 3-class probability vectors.
// Implementations must preserve input order and return exactly one Probs
// per input text.
type Classifier interface {
	Name() string
	Score(ctx context.Context, texts []string) ([]types.Probs, error)
}

// RemoteClassifier talks to an inference server hosting a pretrained 3-class
// financial sentiment model. The server's label-to-index mapping is resolved
// once at construction and cached for the lifetime of the run.
type RemoteClassifier struct {
	client    *httpx.Client
	maxLength int

	posIdx, negIdx, neuIdx int
	numLabels              int
}

// NewRemoteClassifier connects to the inference endpoint and resolves the
// model's label mapping.
func NewRemoteClassifier(ctx context.Context, endpoint string, maxLength int) (*RemoteClassifier, error) {
	client := httpx.NewClient(
		httpx.WithBaseURL(strings.TrimRight(endpoint, "/")),
		httpx.WithTimeout(120*time.Second),
	)

	resp, err := client.GET(ctx, "/config")
	if err != nil {
		return nil, fmt.Errorf("fetching model config: %w", err)
	}

	var cfg struct {
		ID2Label map[string]string `json:"id2label"`
	}
	if err := resp.ParseJSON(&cfg); err != nil {
		return nil, err
	}
	if len(cfg.ID2Label) == 0 {
		return nil, fmt.Errorf("model config has no id2label mapping")
	}

	c := &RemoteClassifier{
		client:    client,
		maxLength: maxLength,
		posIdx:    -1,
		negIdx:    -1,
		neuIdx:    -1,
		numLabels: len(cfg.ID2Label),
	}
	for id, label := range cfg.ID2Label {
		var idx int
		if _, err := fmt.Sscanf(id, "%d", &idx); err != nil {
			return nil, fmt.Errorf("non-numeric label id %q in model config", id)
		}
		switch strings.ToLower(label) {
		case "positive":
			c.posIdx = idx
		case "negative":
			c.negIdx = idx
		case "neutral":
			c.neuIdx = idx
		}
	}
	if c.posIdx < 0 || c.negIdx < 0 || c.neuIdx < 0 {
		return nil, fmt.Errorf("model labels %v do not cover positive/negative/neutral", cfg.ID2Label)
	}
	return c, nil
}

func (c *RemoteClassifier) Name() string { return "remote" }

// Score runs one batch through the inference server.
func (c *RemoteClassifier) Score(ctx context.Context, texts []string) ([]types.Probs, error) {
	ctx, span := logger.StartSpan(ctx, "sentiment-inference-call")
	defer span.End()

	body := map[string]any{
		"texts":      texts,
		"truncation": true,
		"max_length": c.maxLength,
	}
	resp, err := c.client.POST(ctx, "/predict", body)
	if err != nil {
		return nil, err
	}

	var r struct {
		Probabilities [][]float64 `json:"probabilities"`
	}
	if err := resp.ParseJSON(&r); err != nil {
		return nil, err
	}
	if len(r.Probabilities) != len(texts) {
		return nil, fmt.Errorf("inference returned %d rows for %d texts", len(r.Probabilities), len(texts))
	}

	out := make([]types.Probs, len(texts))
	for i, row := range r.Probabilities {
		if len(row) < c.numLabels {
			return nil, fmt.Errorf("inference row %d has %d classes, want %d", i, len(row), c.numLabels)
		}
		out[i] = types.Probs{
			Pos: row[c.posIdx],
			Neg: row[c.negIdx],
			Neu: row[c.neuIdx],
		}
	}
	return out, nil
}
