package dialogue

import (
	"fmt"
	"math"
)

// Emotion is the coarse mood a single utterance is bucketed into.
type Emotion string

const (
	Happy   Emotion = "happy"
	Neutral Emotion = "neutral"
	Sad     Emotion = "sad"
	Angry   Emotion = "angry"
)

// Emotions lists every label in a stable order.
var Emotions = []Emotion{Happy, Neutral, Sad, Angry}

func ParseEmotion(s string) (Emotion, error) {
	for _, e := range Emotions {
		if string(e) == s {
			return e, nil
		}
	}
	return "", fmt.Errorf("unknown emotion %q", s)
}

// Label maps a polarity in [-1, 1] to an emotion.
//
// A score of exactly zero lands in Angry, not Neutral: Angry is the
// fallback bucket for anything that is neither positive nor negative.
// NaN falls through to the same bucket.
func Label(p float64) Emotion {
	switch {
	case p > 0.5:
		return Happy
	case p > 0:
		return Neutral
	case p < 0:
		return Sad
	default:
		return Angry
	}
}

// Clamp bounds a raw score to [-1, 1]. NaN becomes 0.
func Clamp(p float64) float64 {
	if math.IsNaN(p) {
		return 0
	}
	return math.Max(-1, math.Min(1, p))
}
