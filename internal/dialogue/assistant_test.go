package dialogue

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureResult struct {
	text string
	err  error
}

type scriptedCapture struct {
	results      []captureResult
	calibrations []time.Duration
}

func (c *scriptedCapture) Capture(_ context.Context, calibration time.Duration) (string, error) {
	c.calibrations = append(c.calibrations, calibration)
	if len(c.results) == 0 {
		return "", ErrInputClosed
	}
	r := c.results[0]
	c.results = c.results[1:]
	return r.text, r.err
}

type stubClassifier struct {
	scores map[string]float64
	calls  []string
	err    error
}

func (s *stubClassifier) Polarity(_ context.Context, text string) (float64, error) {
	s.calls = append(s.calls, text)
	return s.scores[text], s.err
}

type recordingSpeaker struct {
	said []string
	err  error
}

func (r *recordingSpeaker) Say(_ context.Context, text string) error {
	r.said = append(r.said, text)
	return r.err
}

func heard(texts ...string) []captureResult {
	out := make([]captureResult, len(texts))
	for i, t := range texts {
		out[i] = captureResult{text: t}
	}
	return out
}

func newAssistant(t *testing.T, c Capturer, cl Classifier, s Synthesizer, opts ...Option) *Assistant {
	t.Helper()
	opts = append([]Option{WithRand(fixedPicker(0))}, opts...)
	a, err := New(c, cl, s, opts...)
	require.NoError(t, err)
	return a
}

func TestRunHappyTurnThenExit(t *testing.T) {
	lines := DefaultLines()
	capture := &scriptedCapture{results: heard("I feel great today", "please EXIT now")}
	classifier := &stubClassifier{scores: map[string]float64{"I feel great today": 0.8}}
	speaker := &recordingSpeaker{}

	var turns []Turn
	a := newAssistant(t, capture, classifier, speaker, WithObserver(func(t Turn) { turns = append(turns, t) }))

	require.NoError(t, a.Run(context.Background()))

	assert.Equal(t, []string{
		lines.Greeting,
		"I'm glad you're feeling great!",
		lines.Fallback,
		lines.Farewell,
	}, speaker.said)

	assert.Equal(t, []string{"I feel great today"}, classifier.calls)
	assert.Equal(t, Terminated, a.State())
	assert.EqualValues(t, 2, a.Turns())

	require.Len(t, turns, 2)
	assert.Equal(t, Happy, turns[0].Emotion)
	assert.Equal(t, OutcomeReplied, turns[0].Outcome)
	assert.Equal(t, OutcomeExit, turns[1].Outcome)
	assert.Equal(t, 2, turns[1].Seq)
}

func TestRunExitSkipsClassification(t *testing.T) {
	lines := DefaultLines()
	capture := &scriptedCapture{results: heard("please EXIT now", "never captured")}
	classifier := &stubClassifier{}
	speaker := &recordingSpeaker{}

	a := newAssistant(t, capture, classifier, speaker)
	require.NoError(t, a.Run(context.Background()))

	assert.Empty(t, classifier.calls)
	assert.Equal(t, []string{lines.Greeting, lines.Farewell}, speaker.said)
	assert.Len(t, capture.results, 1, "no turn after exit")
}

func TestRunWeatherFollowUpRegardlessOfEmotion(t *testing.T) {
	for _, p := range []float64{0.9, 0.3, 0, -0.4} {
		t.Run(fmt.Sprint(p), func(t *testing.T) {
			capture := &scriptedCapture{results: heard("what's the weather like")}
			classifier := &stubClassifier{scores: map[string]float64{"what's the weather like": p}}
			speaker := &recordingSpeaker{}

			a := newAssistant(t, capture, classifier, speaker)
			require.NoError(t, a.Run(context.Background()))

			require.Len(t, speaker.said, 3)
			assert.Contains(t, DefaultLines().Replies[Label(p)], speaker.said[1])
			assert.Equal(t, "Checking the weather now... It's sunny outside!", speaker.said[2])
		})
	}
}

func TestRunZeroPolarityRepliesAngry(t *testing.T) {
	capture := &scriptedCapture{results: heard("the table is made of wood")}
	speaker := &recordingSpeaker{}

	a := newAssistant(t, capture, &stubClassifier{}, speaker)
	require.NoError(t, a.Run(context.Background()))

	assert.Equal(t, "Take a deep breath. Let’s sort this out together.", speaker.said[1])
}

func TestRunCaptureFailuresApologizeAndContinue(t *testing.T) {
	lines := DefaultLines()
	capture := &scriptedCapture{results: []captureResult{
		{err: fmt.Errorf("whisper: %w", ErrUnrecognized)},
		{text: "   "},
		{err: fmt.Errorf("transcribe: %w", ErrServiceUnavailable)},
		{err: errors.New("device unplugged")},
		{text: "exit"},
	}}
	classifier := &stubClassifier{}
	speaker := &recordingSpeaker{}

	var outcomes []Outcome
	a := newAssistant(t, capture, classifier, speaker, WithObserver(func(t Turn) { outcomes = append(outcomes, t.Outcome) }))

	require.NoError(t, a.Run(context.Background()))

	assert.Empty(t, classifier.calls)
	assert.Equal(t, []string{
		lines.Greeting,
		lines.Unrecognized,
		lines.Unrecognized,
		lines.Unavailable,
		lines.Unavailable,
		lines.Farewell,
	}, speaker.said)
	assert.Equal(t, []Outcome{OutcomeApology, OutcomeApology, OutcomeApology, OutcomeApology, OutcomeExit}, outcomes)
}

func TestRunInputClosedEndsQuietly(t *testing.T) {
	capture := &scriptedCapture{results: heard("hello")}
	speaker := &recordingSpeaker{}

	a := newAssistant(t, capture, &stubClassifier{scores: map[string]float64{"hello": 0.3}}, speaker)
	require.NoError(t, a.Run(context.Background()))

	assert.Len(t, speaker.said, 3)
	assert.Equal(t, Terminated, a.State())
}

func TestRunPassesCalibration(t *testing.T) {
	capture := &scriptedCapture{results: heard("exit")}

	a := newAssistant(t, capture, &stubClassifier{}, &recordingSpeaker{}, WithCalibration(250*time.Millisecond))
	require.NoError(t, a.Run(context.Background()))

	assert.Equal(t, []time.Duration{250 * time.Millisecond}, capture.calibrations)
}

func TestRunClassifierErrorIsFatal(t *testing.T) {
	capture := &scriptedCapture{results: heard("hello", "exit")}
	boom := errors.New("model offline")

	a := newAssistant(t, capture, &stubClassifier{err: boom}, &recordingSpeaker{})
	err := a.Run(context.Background())

	require.ErrorIs(t, err, boom)
	assert.Equal(t, Terminated, a.State())
}

func TestRunSynthesizerErrorIsFatal(t *testing.T) {
	boom := errors.New("no audio device")

	a := newAssistant(t, &scriptedCapture{}, &stubClassifier{}, &recordingSpeaker{err: boom})
	require.ErrorIs(t, a.Run(context.Background()), boom)
}

func TestRunStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	speaker := &recordingSpeaker{}
	a := newAssistant(t, &scriptedCapture{results: heard("hello")}, &stubClassifier{}, speaker)

	require.ErrorIs(t, a.Run(ctx), context.Canceled)
	assert.Equal(t, []string{DefaultLines().Greeting}, speaker.said)
}

func TestNewValidates(t *testing.T) {
	lines := DefaultLines()
	delete(lines.Replies, Angry)

	_, err := New(&scriptedCapture{}, &stubClassifier{}, &recordingSpeaker{}, WithLines(lines))
	require.Error(t, err)

	_, err = New(nil, &stubClassifier{}, &recordingSpeaker{})
	require.Error(t, err)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "listening", Listening.String())
	assert.Equal(t, "state(9)", State(9).String())
}
