package sentiment

import (
	"context"
	"fmt"
	"strings"

	"sentiment-panel/internal/csvio"
	"sentiment-panel/internal/logger"
	"sentiment-panel/internal/types"
)

// Column names of the scored news CSV. The panel builder reads these back.
const (
	ColTimestamp = "TIMESTAMP"
	ColDate      = "DATE"
	ColHeadline  = "HEADLINE"
	ColSource    = "SOURCE"
	ColStoryID   = "STORY_ID"
	ColRIC       = "RIC"
	ColPos       = "FINBERT_POS"
	ColNeg       = "FINBERT_NEG"
	ColNeu       = "FINBERT_NEU"
	ColScore     = "FINBERT_SCORE"
	ColLabel     = "FINBERT_LABEL"
)

// headlineColumns are the accepted names for the headline text column, in
// preference order. Input files come from different providers.
var headlineColumns = []string{"HEADLINE", "headline", "Title", "title"}

// Scorer runs batches of headlines through a classifier.
type Scorer struct {
	classifier Classifier
	batchSize  int
}

func NewScorer(classifier Classifier, batchSize int) *Scorer {
	if batchSize <= 0 {
		batchSize = 16
	}
	return &Scorer{classifier: classifier, batchSize: batchSize}
}

// ScoreAll scores every headline in fixed-size batches, preserving input
// order. A failed batch aborts the whole run.
func (s *Scorer) ScoreAll(ctx context.Context, headlines []types.Headline) ([]types.ScoredHeadline, error) {
	scored := make([]types.ScoredHeadline, 0, len(headlines))

	for start := 0; start < len(headlines); start += s.batchSize {
		end := start + s.batchSize
		if end > len(headlines) {
			end = len(headlines)
		}
		batch := headlines[start:end]

		texts := make([]string, len(batch))
		for i, h := range batch {
			texts[i] = h.Headline
		}

		probs, err := s.classifier.Score(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("scoring batch at row %d: %w", start, err)
		}
		if len(probs) != len(batch) {
			return nil, fmt.Errorf("classifier returned %d results for batch of %d", len(probs), len(batch))
		}

		for i, p := range probs {
			scored = append(scored, types.ScoredHeadline{
				Headline: batch[i],
				Probs:    p,
				Label:    LabelFor(p.Score()),
			})
		}
	}
	return scored, nil
}

// scoredRow is the on-disk shape of one scored headline.
type scoredRow struct {
	Timestamp string      `csv:"TIMESTAMP"`
	Date      string      `csv:"DATE"`
	Headline  string      `csv:"HEADLINE"`
	Source    string      `csv:"SOURCE"`
	StoryID   string      `csv:"STORY_ID"`
	RIC       string      `csv:"RIC"`
	Pos       csvio.Float `csv:"FINBERT_POS"`
	Neg       csvio.Float `csv:"FINBERT_NEG"`
	Neu       csvio.Float `csv:"FINBERT_NEU"`
	Score     csvio.Float `csv:"FINBERT_SCORE"`
	Label     string      `csv:"FINBERT_LABEL"`
}

// ScoreFile reads the raw news CSV at inPath, scores every headline and
// writes the scored CSV to outPath. An input with no scorable rows is a
// diagnostic, not an error: no output file is written.
func ScoreFile(ctx context.Context, s *Scorer, inPath, outPath string) error {
	timer := logger.StartOperation(ctx, "score-headlines",
		"input", inPath, "classifier", s.classifier.Name())
	ctx = timer.GetContext()

	table, err := csvio.Read(inPath)
	if err != nil {
		timer.EndWithError(err)
		return err
	}
	if err := table.Require(ColTimestamp); err != nil {
		err = fmt.Errorf("%s: %w", inPath, err)
		timer.EndWithError(err)
		return err
	}

	headlineCol := ""
	for _, cand := range headlineColumns {
		if _, ok := table.Col(cand); ok {
			headlineCol = cand
			break
		}
	}
	if headlineCol == "" {
		err := fmt.Errorf("%s: no headline column, want one of %v, file has %v",
			inPath, headlineColumns, table.Header)
		timer.EndWithError(err)
		return err
	}

	headlines := make([]types.Headline, 0, len(table.Rows))
	dropped, empty := 0, 0
	for _, row := range table.Rows {
		text := table.Get(row, headlineCol)
		if strings.TrimSpace(text) == "" {
			empty++
			continue
		}
		ts, err := csvio.ParseTimestamp(table.Get(row, ColTimestamp))
		if err != nil {
			dropped++
			continue
		}
		headlines = append(headlines, types.Headline{
			Timestamp: ts,
			Headline:  text,
			Source:    table.Get(row, ColSource),
			StoryID:   table.Get(row, ColStoryID),
			RIC:       table.Get(row, ColRIC),
		})
	}
	if empty > 0 {
		logger.Dropped(ctx, "score", "empty headline", empty)
	}
	if dropped > 0 {
		logger.Dropped(ctx, "score", "unparseable timestamp", dropped)
	}

	if len(headlines) == 0 {
		logger.Warn(ctx, "no scorable headlines, skipping output", "input", inPath)
		timer.End("rows", 0)
		return nil
	}

	scored, err := s.ScoreAll(ctx, headlines)
	if err != nil {
		timer.EndWithError(err)
		return err
	}

	rows := make([]scoredRow, len(scored))
	for i, sh := range scored {
		rows[i] = scoredRow{
			Timestamp: sh.Timestamp.UTC().Format("2006-01-02 15:04:05"),
			Date:      csvio.FormatDate(sh.DateKey()),
			Headline:  sh.Headline.Headline,
			Source:    sh.Source,
			StoryID:   sh.StoryID,
			RIC:       sh.RIC,
			Pos:       csvio.Float(sh.Pos),
			Neg:       csvio.Float(sh.Neg),
			Neu:       csvio.Float(sh.Neu),
			Score:     csvio.Float(sh.Probs.Score()),
			Label:     sh.Label,
		}
	}

	if err := csvio.WriteRows(outPath, &rows); err != nil {
		timer.EndWithError(err)
		return err
	}
	logger.Artifact(ctx, outPath, len(rows))
	timer.End("rows", len(rows))
	return nil
}
