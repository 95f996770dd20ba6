// Package vad finds the start and end of a spoken phrase in a stream of
// PCM frames using an energy threshold calibrated against ambient noise.
package vad

import (
	"errors"
	"math"
	"time"
)

var ErrNoSpeech = errors.New("no speech before listen timeout")

type Config struct {
	SampleRate    int
	FrameSize     int           // samples per frame
	MinThreshold  float64       // RMS floor the threshold never goes below
	NoiseRatio    float64       // threshold = noise floor * ratio
	Silence       time.Duration // trailing silence that ends a phrase
	ListenTimeout time.Duration // how long to wait for speech to start; 0 = forever
	PhraseLimit   time.Duration // hard cap on phrase length; 0 = none
}

func DefaultConfig() Config {
	return Config{
		SampleRate:    16000,
		FrameSize:     320, // 20ms
		MinThreshold:  0.015,
		NoiseRatio:    1.5,
		Silence:       600 * time.Millisecond,
		ListenTimeout: 10 * time.Second,
		PhraseLimit:   15 * time.Second,
	}
}

func (c Config) FrameDuration() time.Duration {
	return time.Duration(c.FrameSize) * time.Second / time.Duration(c.SampleRate)
}

func (c Config) frames(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	fd := c.FrameDuration()
	return int((d + fd - 1) / fd)
}

// CalibrationFrames is how many frames cover d.
func (c Config) CalibrationFrames(d time.Duration) int { return c.frames(d) }

type Event int

const (
	Waiting Event = iota
	Speaking
	Done
	TimedOut
)

// Endpointer is fed frames one at a time. It is not safe for concurrent use.
type Endpointer struct {
	cfg       Config
	threshold float64

	noiseSum    float64
	noiseFrames int

	speaking      bool
	waited        int
	silenceFrames int
	out           []float32
}

func NewEndpointer(cfg Config) *Endpointer {
	return &Endpointer{cfg: cfg, threshold: cfg.MinThreshold}
}

// Calibrate accumulates an ambient noise frame.
func (e *Endpointer) Calibrate(frame []float32) {
	e.noiseSum += FrameRMS(frame)
	e.noiseFrames++

	floor := e.noiseSum / float64(e.noiseFrames)
	e.threshold = math.Max(e.cfg.MinThreshold, floor*e.cfg.NoiseRatio)
}

func (e *Endpointer) Threshold() float64 { return e.threshold }

// Feed consumes one frame and reports where the phrase stands.
// The frame is copied, so callers may reuse their buffer.
func (e *Endpointer) Feed(frame []float32) Event {
	loud := FrameRMS(frame) > e.threshold

	if !e.speaking {
		if !loud {
			e.waited++
			if limit := e.cfg.frames(e.cfg.ListenTimeout); limit > 0 && e.waited >= limit {
				return TimedOut
			}
			return Waiting
		}
		e.speaking = true
	}

	e.out = append(e.out, frame...)

	if loud {
		e.silenceFrames = 0
	} else {
		e.silenceFrames++
		if e.silenceFrames >= e.cfg.frames(e.cfg.Silence) {
			return Done
		}
	}

	if limit := e.cfg.frames(e.cfg.PhraseLimit); limit > 0 && len(e.out) >= limit*e.cfg.FrameSize {
		return Done
	}

	return Speaking
}

// Phrase returns the samples collected since speech started.
func (e *Endpointer) Phrase() []float32 { return e.out }

func FrameRMS(f []float32) float64 {
	if len(f) == 0 {
		return 0
	}
	var s float64
	for _, x := range f {
		s += float64(x * x)
	}
	return math.Sqrt(s / float64(len(f)))
}
