package sentiment

import (
	"context"
	"sync"

	"navi/internal/dialogue"
)

// Memo remembers the score of every text it has seen, so a remote scorer
// gives the same answer for the same words for the life of the process.
// Errors are not cached.
type Memo struct {
	inner dialogue.Classifier

	mu     sync.Mutex
	scores map[string]float64
}

func NewMemo(inner dialogue.Classifier) *Memo {
	return &Memo{inner: inner, scores: make(map[string]float64)}
}

func (m *Memo) Polarity(ctx context.Context, text string) (float64, error) {
	m.mu.Lock()
	p, ok := m.scores[text]
	m.mu.Unlock()
	if ok {
		return p, nil
	}

	p, err := m.inner.Polarity(ctx, text)
	if err != nil {
		return 0, err
	}

	m.mu.Lock()
	m.scores[text] = p
	m.mu.Unlock()

	return p, nil
}
