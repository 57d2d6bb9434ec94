package sentiment

import (
	"context"
	"math"
	"strings"
	"unicode"

	"sentiment-panel/internal/types"
)

// LexiconClassifier is a deterministic offline fallback for the remote
// model. Word counts from financial sentiment dictionaries are turned into
// 3-class probabilities with a softmax, so it satisfies the same
// sum-to-one contract as the pretrained model.
type LexiconClassifier struct {
	positiveWords map[string]bool
	negativeWords map[string]bool
	hedgingWords  map[string]bool

	maxLength int
}

// Softmax weights. The neutral bias keeps headlines without any sentiment
// words firmly neutral; a single sentiment word is enough to cross the
// labeling thresholds.
const (
	lexWordWeight  = 1.25
	lexHedgeWeight = 0.5
	lexNeutralBias = 1.0
)

// NewLexiconClassifier builds the classifier with its word lists.
func NewLexiconClassifier(maxLength int) *LexiconClassifier {
	return &LexiconClassifier{
		positiveWords: loadPositiveWords(),
		negativeWords: loadNegativeWords(),
		hedgingWords:  loadHedgingWords(),
		maxLength:     maxLength,
	}
}

func (c *LexiconClassifier) Name() string { return "lexicon" }

// Score classifies one batch. Purely functional: no state is carried
// between batches.
func (c *LexiconClassifier) Score(ctx context.Context, texts []string) ([]types.Probs, error) {
	out := make([]types.Probs, len(texts))
	for i, text := range texts {
		out[i] = c.scoreOne(text)
	}
	return out, nil
}

func (c *LexiconClassifier) scoreOne(text string) types.Probs {
	words := Tokenize(strings.ToLower(text))
	if c.maxLength > 0 && len(words) > c.maxLength {
		words = words[:c.maxLength]
	}

	var pos, neg, hedge int
	for _, w := range words {
		if c.positiveWords[w] {
			pos++
		}
		if c.negativeWords[w] {
			neg++
		}
		if c.hedgingWords[w] {
			hedge++
		}
	}

	return softmax3(
		lexWordWeight*float64(pos),
		lexWordWeight*float64(neg),
		lexNeutralBias+lexHedgeWeight*float64(hedge),
	)
}

// softmax3 normalizes three logits into probabilities summing to 1.
func softmax3(lpos, lneg, lneu float64) types.Probs {
	m := math.Max(lpos, math.Max(lneg, lneu))
	ep := math.Exp(lpos - m)
	en := math.Exp(lneg - m)
	eu := math.Exp(lneu - m)
	z := ep + en + eu
	return types.Probs{Pos: ep / z, Neg: en / z, Neu: eu / z}
}

// Tokenize splits text into lowercase alphanumeric words.
func Tokenize(text string) []string {
	var words []string
	var current strings.Builder
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			current.WriteRune(unicode.ToLower(r))
		} else if current.Len() > 0 {
			words = append(words, current.String())
			current.Reset()
		}
	}
	if current.Len() > 0 {
		words = append(words, current.String())
	}
	return words
}

// Word lists based on financial sentiment dictionaries
// (Loughran-McDonald financial sentiment word lists)

func loadPositiveWords() map[string]bool {
	words := []string{
		"achieve", "attain", "beat", "beats", "benefit", "better", "boost",
		"competitive", "delight", "enhance", "excellent", "exceptional",
		"extraordinary", "favorable", "gain", "gains", "good", "great", "grew",
		"growth", "improve", "improved", "improvement", "increasing",
		"innovation", "innovative", "jump", "jumps", "leader", "leading",
		"opportunity", "optimal", "optimistic", "outperform", "positive",
		"profitable", "progress", "prosper", "rally", "record", "remarkable",
		"rise", "rises", "robust", "soar", "soars", "solid", "strength",
		"strong", "succeed", "success", "successful", "superior", "surge",
		"surges", "surpass", "tremendous", "upbeat", "upgrade", "valuable",
		"winning",
	}
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}

func loadNegativeWords() map[string]bool {
	words := []string{
		"abandon", "adverse", "challenge", "challenging", "concern", "concerns",
		"crash", "crisis", "cut", "cuts", "damage", "decline", "declines",
		"decrease", "deficit", "deteriorate", "difficult", "difficulty",
		"disappoint", "disappointing", "disadvantage", "downgrade", "downturn",
		"drop", "drops", "erode", "fail", "failure", "fall", "falling", "falls",
		"fear", "headwind", "impair", "impairment", "inability", "inadequate",
		"ineffective", "lawsuit", "loss", "losses", "miss", "missed", "misses",
		"negative", "obstacle", "plunge", "plunges", "poor", "probe", "problem",
		"recession", "restructuring", "risk", "risks", "slow", "slowdown",
		"slump", "tumble", "tumbles", "uncertain", "uncertainty",
		"underperform", "unfavorable", "unprofitable", "volatile",
		"volatility", "weak", "weakness", "worse", "worsen", "worst",
	}
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}

func loadHedgingWords() map[string]bool {
	words := []string{
		"almost", "anticipate", "anticipates", "appear", "appears",
		"approximately", "assume", "assumes", "believe", "believes", "could",
		"depend", "depending", "estimate", "estimates", "expect", "expects",
		"forecast", "forecasts", "if", "intend", "intends", "likely", "may",
		"maybe", "might", "outlook", "pending", "perhaps", "plan", "plans",
		"possible", "possibly", "potential", "predict", "predicts", "project",
		"projects", "should", "somewhat", "suggest", "suggests", "unclear",
		"unlikely", "variable", "would",
	}
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}
