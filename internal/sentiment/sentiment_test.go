package sentiment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"navi/internal/dialogue"
)

func TestScore(t *testing.T) {
	lex := NewLexicon()

	tests := []struct {
		text string
		want dialogue.Emotion
	}{
		{"I feel great today", dialogue.Happy},
		{"she said 'great'", dialogue.Happy},
		{"that's fine", dialogue.Neutral},
		{"this is bad", dialogue.Sad},
		{"that was 'awful'", dialogue.Sad},
		{"I am not happy", dialogue.Sad},
		{"I’m not happy", dialogue.Sad},
		{"I am so tired", dialogue.Sad},
		{"the table is made of wood", dialogue.Angry},
		{"", dialogue.Angry},
		{"   ", dialogue.Angry},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, dialogue.Label(lex.Score(tt.text)), tt.text)
	}
}

func TestScoreValues(t *testing.T) {
	lex := NewLexicon()

	assert.InDelta(t, 0.6249, lex.Score("I feel great today"), 1e-3)
	assert.InDelta(t, lex.Score("great"), lex.Score("'great'"), 1e-9)
	assert.Zero(t, lex.Score("the table is made of wood"))
	assert.Less(t, lex.Score("I am not happy"), 0.0)
}

func TestScoreIsBoundedAndPure(t *testing.T) {
	lex := NewLexicon()

	for _, s := range []string{
		"absolutely most extremely perfect!!! :)",
		"ABSOLUTELY terrible awful horrible worst",
		"not not not good",
	} {
		p := lex.Score(s)
		assert.GreaterOrEqual(t, p, -1.0, s)
		assert.LessOrEqual(t, p, 1.0, s)
		assert.Equal(t, p, lex.Score(s), s)
	}
}

func TestLexiconPolarity(t *testing.T) {
	p, err := NewLexicon().Polarity(context.Background(), "I feel great today")
	require.NoError(t, err)
	assert.Greater(t, p, 0.5)
}

func TestParseVerdict(t *testing.T) {
	p, err := parseVerdict(`{"polarity": 0.42}`)
	require.NoError(t, err)
	assert.Equal(t, 0.42, p)

	p, err = parseVerdict("```json\n{\"polarity\": -3}\n```")
	require.NoError(t, err)
	assert.Equal(t, -1.0, p)

	_, err = parseVerdict(`{"mood": "happy"}`)
	require.Error(t, err)

	_, err = parseVerdict(`sure thing`)
	require.Error(t, err)
}

func completionServer(t *testing.T, content string, seen *[]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		*seen = append(*seen, string(body))

		w.Header().Set("Content-Type", "application/json")
		resp := map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 0,
			"model":   "gpt-4o-mini",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": content},
			}},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newClient(url string) openai.Client {
	return openai.NewClient(
		option.WithAPIKey("test"),
		option.WithBaseURL(url+"/"),
		option.WithMaxRetries(0),
	)
}

func TestOpenAIPolarity(t *testing.T) {
	var seen []string
	srv := completionServer(t, `{"polarity": 0.8}`, &seen)

	o := NewOpenAI(newClient(srv.URL), "")
	p, err := o.Polarity(context.Background(), "I feel great today")

	require.NoError(t, err)
	assert.Equal(t, 0.8, p)
	require.Len(t, seen, 1)
	assert.Contains(t, seen[0], "I feel great today")
	assert.Contains(t, seen[0], `"temperature"`)
}

func TestOpenAIServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":{"message":"down"}}`, http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewOpenAI(newClient(srv.URL), "gpt-4o-mini").Polarity(context.Background(), "hi")
	require.Error(t, err)
}

type countingClassifier struct {
	calls map[string]int
	fail  bool
}

func (c *countingClassifier) Polarity(_ context.Context, text string) (float64, error) {
	c.calls[text]++
	if c.fail {
		return 0, errors.New("offline")
	}
	return float64(len(text)) / 100, nil
}

func TestMemo(t *testing.T) {
	inner := &countingClassifier{calls: map[string]int{}}
	m := NewMemo(inner)
	ctx := context.Background()

	for i := range 3 {
		p, err := m.Polarity(ctx, "hello")
		require.NoError(t, err, fmt.Sprint(i))
		assert.Equal(t, 0.05, p)
	}
	_, _ = m.Polarity(ctx, "other")

	assert.Equal(t, map[string]int{"hello": 1, "other": 1}, inner.calls)
}

func TestMemoDoesNotCacheErrors(t *testing.T) {
	inner := &countingClassifier{calls: map[string]int{}, fail: true}
	m := NewMemo(inner)

	_, err := m.Polarity(context.Background(), "x")
	require.Error(t, err)
	_, err = m.Polarity(context.Background(), "x")
	require.Error(t, err)

	assert.Equal(t, 2, inner.calls["x"])
}
