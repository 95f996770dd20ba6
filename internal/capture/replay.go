package capture

import (
	"context"
	"fmt"
	log "log/slog"
	"time"

	"navi/internal/dialogue"
)

// DecodeFunc loads an audio file as 16 kHz mono PCM.
type DecodeFunc func(ctx context.Context, path string) ([]float32, error)

// Replay feeds pre-recorded files through the transcriber, one per turn.
type Replay struct {
	files  []string
	decode DecodeFunc
	tr     Transcriber
	next   int
}

func NewReplay(files []string, decode DecodeFunc, tr Transcriber) *Replay {
	return &Replay{files: append([]string(nil), files...), decode: decode, tr: tr}
}

// Capture ignores calibration; there is no room noise in a file.
func (r *Replay) Capture(ctx context.Context, _ time.Duration) (string, error) {
	if r.next >= len(r.files) {
		return "", dialogue.ErrInputClosed
	}
	path := r.files[r.next]
	r.next++

	log.Info("Replaying", "file", path)

	pcm, err := r.decode(ctx, path)
	if err != nil {
		return "", fmt.Errorf("decode %s: %w: %w", path, dialogue.ErrUnrecognized, err)
	}

	return transcribe(ctx, r.tr, pcm)
}
