package words

import (
	"context"
	"fmt"
	"math"
	"sort"

	"sentiment-panel/internal/csvio"
	"sentiment-panel/internal/logger"
	"sentiment-panel/internal/sentiment"
	"sentiment-panel/internal/store"
)

// Score cutoffs for the polarized subsets. Stricter than the labeling
// thresholds on purpose: the reports should show strongly worded
// headlines only.
const (
	strongPositiveCutoff = 0.30
	strongNegativeCutoff = -0.30
)

// WordCount is one entry of a frequency report. Frequency is normalized so
// the most common word scores 1.0.
type WordCount struct {
	Word      string
	Count     int
	Frequency float64
}

// Counter accumulates word frequencies over headline text.
type Counter struct {
	stopwords map[string]bool
	counts    map[string]int
}

func NewCounter(extraStopwords []string) *Counter {
	stop := make(map[string]bool, len(baseStopwords)+len(feedNoiseWords)+len(extraStopwords))
	for _, w := range baseStopwords {
		stop[w] = true
	}
	for _, w := range feedNoiseWords {
		stop[w] = true
	}
	for _, w := range extraStopwords {
		stop[w] = true
	}
	return &Counter{stopwords: stop, counts: make(map[string]int)}
}

// Add tokenizes one headline and counts its non-stopword tokens. Single
// characters and pure numbers contribute nothing useful and are skipped.
func (c *Counter) Add(text string) {
	for _, tok := range sentiment.Tokenize(text) {
		if len(tok) < 2 || c.stopwords[tok] || isNumeric(tok) {
			continue
		}
		c.counts[tok]++
	}
}

func isNumeric(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Top returns the n most frequent words, counts normalized against the
// maximum. Ties break alphabetically so the output is stable.
func (c *Counter) Top(n int) []WordCount {
	out := make([]WordCount, 0, len(c.counts))
	for w, count := range c.counts {
		out = append(out, WordCount{Word: w, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Word < out[j].Word
	})
	if len(out) > n {
		out = out[:n]
	}
	if len(out) > 0 {
		max := float64(out[0].Count)
		for i := range out {
			out[i].Frequency = float64(out[i].Count) / max
		}
	}
	return out
}

type reportRow struct {
	Word      string      `csv:"WORD"`
	Count     int         `csv:"COUNT"`
	Frequency csvio.Float `csv:"FREQUENCY"`
}

func writeReport(ctx context.Context, words []WordCount, outPath string) error {
	if len(words) == 0 {
		logger.Warn(ctx, "no words for report, skipping output", "path", outPath)
		return nil
	}
	rows := make([]reportRow, len(words))
	for i, w := range words {
		rows[i] = reportRow{Word: w.Word, Count: w.Count, Frequency: csvio.Float(w.Frequency)}
	}
	if err := csvio.WriteRows(outPath, &rows); err != nil {
		return fmt.Errorf("writing %s: %w", outPath, err)
	}
	logger.Artifact(ctx, outPath, len(rows))
	return nil
}

// Run builds the three word reports from the scored news file: all
// headlines, strongly positive ones and strongly negative ones.
func Run(ctx context.Context, cfg *store.Config) error {
	timer := logger.StartOperation(ctx, "word-report", "scored", cfg.ScoredNewsPath())
	ctx = timer.GetContext()

	table, err := csvio.Read(cfg.ScoredNewsPath())
	if err != nil {
		timer.EndWithError(err)
		return err
	}
	if err := table.Require(sentiment.ColDate, sentiment.ColHeadline, sentiment.ColScore); err != nil {
		err = fmt.Errorf("%s: %w", cfg.ScoredNewsPath(), err)
		timer.EndWithError(err)
		return err
	}

	window := cfg.WordsWindow()
	all := NewCounter(cfg.Words.ExtraStopwords)
	positive := NewCounter(cfg.Words.ExtraStopwords)
	negative := NewCounter(cfg.Words.ExtraStopwords)

	used := 0
	for _, row := range table.Rows {
		date, err := csvio.ParseDate(table.Get(row, sentiment.ColDate))
		if err != nil || !window.Contains(date) {
			continue
		}
		text := table.Get(row, sentiment.ColHeadline)
		score := table.Float(row, sentiment.ColScore)
		if math.IsNaN(score) {
			continue
		}
		used++

		all.Add(text)
		if score >= strongPositiveCutoff {
			positive.Add(text)
		}
		if score <= strongNegativeCutoff {
			negative.Add(text)
		}
	}
	if used == 0 {
		logger.Warn(ctx, "no headlines in words window, nothing to report")
		timer.End("rows", 0)
		return nil
	}

	n := cfg.Words.TopN
	for subset, counter := range map[string]*Counter{
		"all":      all,
		"positive": positive,
		"negative": negative,
	} {
		if err := writeReport(ctx, counter.Top(n), cfg.WordReportPath(subset)); err != nil {
			timer.EndWithError(err)
			return err
		}
	}

	timer.End("headlines", used)
	return nil
}

// baseStopwords is a compact English stopword list; enough for headline
// text, which is already terse.
var baseStopwords = []string{
	"a", "about", "above", "after", "again", "against", "all", "am", "an",
	"and", "any", "are", "as", "at", "be", "because", "been", "before",
	"being", "below", "between", "both", "but", "by", "can", "did", "do",
	"does", "doing", "down", "during", "each", "few", "for", "from",
	"further", "had", "has", "have", "having", "he", "her", "here", "hers",
	"him", "his", "how", "i", "if", "in", "into", "is", "it", "its",
	"itself", "just", "me", "more", "most", "my", "no", "nor", "not", "now",
	"of", "off", "on", "once", "only", "or", "other", "our", "ours", "out",
	"over", "own", "s", "same", "she", "should", "so", "some", "such", "t",
	"than", "that", "the", "their", "theirs", "them", "then", "there",
	"these", "they", "this", "those", "through", "to", "too", "under",
	"until", "up", "very", "was", "we", "were", "what", "when", "where",
	"which", "while", "who", "whom", "why", "will", "with", "you", "your",
	"yours",
}

// feedNoiseWords are boilerplate tokens newswire headlines carry that say
// nothing about the story.
var feedNoiseWords = []string{
	"reuters", "update", "exclusive", "brief", "alert", "wrapup", "rpt",
	"refile", "corrected", "table", "press", "release", "ltd", "limited",
	"inc", "corp", "co", "plc", "says", "say", "said", "new", "report",
	"reports", "news", "stock", "stocks", "share", "shares", "market",
	"markets", "nse", "bse", "crore", "rs", "pct",
}
