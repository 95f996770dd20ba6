package dialogue

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLabel(t *testing.T) {
	tests := []struct {
		p    float64
		want Emotion
	}{
		{1, Happy},
		{0.8, Happy},
		{0.5000001, Happy},
		{0.5, Neutral},
		{0.2, Neutral},
		{0.0001, Neutral},
		{0, Angry},
		{math.Copysign(0, -1), Angry},
		{-0.0001, Sad},
		{-1, Sad},
		{math.NaN(), Angry},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Label(tt.p), "polarity %v", tt.p)
	}
}

func TestLabelIsDeterministic(t *testing.T) {
	for p := -1.0; p <= 1.0; p += 0.05 {
		assert.Equal(t, Label(p), Label(p))
	}
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 1.0, Clamp(3))
	assert.Equal(t, -1.0, Clamp(-1.5))
	assert.Equal(t, 0.25, Clamp(0.25))
	assert.Equal(t, 0.0, Clamp(math.NaN()))
}

func TestParseEmotion(t *testing.T) {
	e, err := ParseEmotion("sad")
	require.NoError(t, err)
	assert.Equal(t, Sad, e)

	_, err = ParseEmotion("bored")
	assert.Error(t, err)
}
