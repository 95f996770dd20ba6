// Package capture turns microphone audio, recorded files or typed lines
// into utterances for the dialogue loop.
package capture

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"strings"
	"time"

	"navi/internal/dialogue"
	"navi/internal/vad"
)

// Recorder returns one phrase of 16 kHz mono PCM. It calls ready after
// ambient calibration, right before it starts waiting for speech.
type Recorder interface {
	Record(ctx context.Context, calibration time.Duration, ready func()) ([]float32, error)
}

type Transcriber interface {
	Transcribe(ctx context.Context, pcm16k []float32) (string, error)
}

// Mic listens on the recorder and transcribes what it hears.
type Mic struct {
	rec Recorder
	tr  Transcriber
	cue func() error
}

// NewMic builds a Mic. cue, if non-nil, runs when the recorder has
// calibrated and is ready for speech.
func NewMic(rec Recorder, tr Transcriber, cue func() error) *Mic {
	return &Mic{rec: rec, tr: tr, cue: cue}
}

func (m *Mic) Capture(ctx context.Context, calibration time.Duration) (string, error) {
	pcm, err := m.rec.Record(ctx, calibration, m.listening)
	if err != nil {
		if errors.Is(err, vad.ErrNoSpeech) {
			return "", fmt.Errorf("record: %w: %w", dialogue.ErrUnrecognized, err)
		}
		if ctx.Err() != nil {
			return "", err
		}
		return "", fmt.Errorf("record: %w: %w", dialogue.ErrServiceUnavailable, err)
	}

	log.Debug("Recorded", "samples", len(pcm))

	return transcribe(ctx, m.tr, pcm)
}

func (m *Mic) listening() {
	if m.cue != nil {
		if err := m.cue(); err != nil {
			log.Warn("Failed to play cue", "err", err)
		}
	}

	log.Info("Listening...")
}

func transcribe(ctx context.Context, tr Transcriber, pcm []float32) (string, error) {
	if len(pcm) == 0 {
		return "", dialogue.ErrUnrecognized
	}

	text, err := tr.Transcribe(ctx, pcm)
	if err != nil {
		if ctx.Err() != nil {
			return "", err
		}
		return "", fmt.Errorf("transcribe: %w: %w", dialogue.ErrServiceUnavailable, err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", dialogue.ErrUnrecognized
	}
	return text, nil
}
