// Package sentiment scores the polarity of an utterance in [-1, 1].
package sentiment

import (
	"context"
	"strings"

	"github.com/jonreiter/govader"

	"navi/internal/dialogue"
)

// Lexicon scores text offline with the VADER lexicon. Text without
// opinion words scores 0.
type Lexicon struct {
	sia *govader.SentimentIntensityAnalyzer
}

// NewLexicon loads the VADER word and emoji tables. The analyzer is
// read-only afterwards and safe to share.
func NewLexicon() *Lexicon {
	return &Lexicon{sia: govader.NewSentimentIntensityAnalyzer()}
}

func (l *Lexicon) Polarity(_ context.Context, text string) (float64, error) {
	return l.Score(text), nil
}

// Score returns the VADER compound score of text.
func (l *Lexicon) Score(text string) float64 {
	text = strings.NewReplacer("’", "'", "‘", "'").Replace(text)
	if strings.TrimSpace(text) == "" {
		return 0
	}
	return dialogue.Clamp(l.sia.PolarityScores(text).Compound)
}
