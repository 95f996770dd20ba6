package dialogue

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"math/rand/v2"
	"strings"
	"sync/atomic"
	"time"
)

var (
	// ErrUnrecognized means speech was heard but not understood.
	ErrUnrecognized = errors.New("speech not recognized")
	// ErrServiceUnavailable means the transcription backend could not be reached.
	ErrServiceUnavailable = errors.New("recognition service unavailable")
	// ErrInputClosed means the capture source has nothing more to give.
	ErrInputClosed = errors.New("input closed")
)

// Capturer blocks until one utterance is transcribed.
type Capturer interface {
	Capture(ctx context.Context, calibration time.Duration) (string, error)
}

// Classifier scores text with a polarity in [-1, 1].
type Classifier interface {
	Polarity(ctx context.Context, text string) (float64, error)
}

// Synthesizer speaks text and returns once playback is done.
type Synthesizer interface {
	Say(ctx context.Context, text string) error
}

type State int32

const (
	Greeting State = iota
	Listening
	Classifying
	Responding
	Terminated
)

func (s State) String() string {
	switch s {
	case Greeting:
		return "greeting"
	case Listening:
		return "listening"
	case Classifying:
		return "classifying"
	case Responding:
		return "responding"
	case Terminated:
		return "terminated"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

type Outcome string

const (
	OutcomeReplied Outcome = "replied"
	OutcomeApology Outcome = "apology"
	OutcomeExit    Outcome = "exit"
)

// Turn describes one finished iteration of the loop.
type Turn struct {
	Seq       int
	Utterance string
	Polarity  float64
	Emotion   Emotion
	Reply     string
	FollowUp  string
	Outcome   Outcome
	Err       error // capture error behind an apology
}

type Assistant struct {
	capture     Capturer
	classify    Classifier
	speak       Synthesizer
	lines       Lines
	rng         Picker
	calibration time.Duration
	observers   []func(Turn)

	state atomic.Int32
	turns atomic.Int64
}

type Option func(*Assistant)

func WithLines(l Lines) Option { return func(a *Assistant) { a.lines = l } }

func WithRand(r Picker) Option { return func(a *Assistant) { a.rng = r } }

// WithCalibration sets how long capture samples ambient noise before listening.
func WithCalibration(d time.Duration) Option { return func(a *Assistant) { a.calibration = d } }

// WithObserver registers f to receive every finished turn.
func WithObserver(f func(Turn)) Option {
	return func(a *Assistant) { a.observers = append(a.observers, f) }
}

func New(c Capturer, cl Classifier, s Synthesizer, opts ...Option) (*Assistant, error) {
	a := &Assistant{
		capture:     c,
		classify:    cl,
		speak:       s,
		lines:       DefaultLines(),
		rng:         rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0)),
		calibration: time.Second,
	}
	for _, opt := range opts {
		opt(a)
	}

	if a.capture == nil || a.classify == nil || a.speak == nil {
		return nil, errors.New("capturer, classifier and synthesizer are required")
	}
	if err := a.lines.Validate(); err != nil {
		return nil, fmt.Errorf("invalid lines: %w", err)
	}

	return a, nil
}

func (a *Assistant) State() State { return State(a.state.Load()) }

// Turns returns how many turns have completed.
func (a *Assistant) Turns() int64 { return a.turns.Load() }

func (a *Assistant) setState(s State) {
	prev := State(a.state.Swap(int32(s)))
	if prev != s {
		log.Debug("State", "from", prev, "to", s)
	}
}

// Run greets the user and takes turns until an exit phrase is heard,
// the capture source closes, or ctx is cancelled.
func (a *Assistant) Run(ctx context.Context) error {
	a.setState(Greeting)
	defer a.setState(Terminated)

	if err := a.say(ctx, a.lines.Greeting); err != nil {
		return err
	}

	for {
		done, err := a.turn(ctx)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
}

func (a *Assistant) turn(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return true, err
	}

	a.setState(Listening)
	t := Turn{Seq: int(a.turns.Load()) + 1}

	utterance, err := a.capture.Capture(ctx, a.calibration)
	if err == nil && strings.TrimSpace(utterance) == "" {
		err = ErrUnrecognized
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return true, ctxErr
		}
		if errors.Is(err, ErrInputClosed) {
			log.Info("Input closed")
			return true, nil
		}
		return false, a.apologize(ctx, t, err)
	}

	log.Info("Heard", "text", utterance)
	t.Utterance = utterance

	a.setState(Classifying)

	if a.lines.IsExit(utterance) {
		if err := a.say(ctx, a.lines.Farewell); err != nil {
			return true, err
		}
		t.Outcome = OutcomeExit
		a.finish(t)
		return true, nil
	}

	p, err := a.classify.Polarity(ctx, utterance)
	if err != nil {
		return true, fmt.Errorf("classify: %w", err)
	}
	t.Polarity = p
	t.Emotion = Label(p)

	log.Debug("Classified", "polarity", p, "emotion", t.Emotion)

	a.setState(Responding)

	t.Reply = a.lines.Replies.Pick(t.Emotion, a.rng)
	if err := a.say(ctx, t.Reply); err != nil {
		return true, err
	}

	t.FollowUp = a.lines.FollowUpFor(utterance)
	if err := a.say(ctx, t.FollowUp); err != nil {
		return true, err
	}

	t.Outcome = OutcomeReplied
	a.finish(t)
	return false, nil
}

func (a *Assistant) apologize(ctx context.Context, t Turn, cause error) error {
	line := a.lines.Unavailable
	if errors.Is(cause, ErrUnrecognized) {
		line = a.lines.Unrecognized
		log.Info("Nothing recognized", "err", cause)
	} else {
		log.Warn("Capture failed", "err", cause)
	}

	if err := a.say(ctx, line); err != nil {
		return err
	}

	t.Outcome = OutcomeApology
	t.Err = cause
	a.finish(t)
	return nil
}

func (a *Assistant) say(ctx context.Context, text string) error {
	if err := a.speak.Say(ctx, text); err != nil {
		return fmt.Errorf("say %q: %w", text, err)
	}
	return nil
}

func (a *Assistant) finish(t Turn) {
	a.turns.Add(1)
	for _, f := range a.observers {
		f(t)
	}
}
