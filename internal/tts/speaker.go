package tts

import (
	"context"
	"fmt"
	"io"
	log "log/slog"

	"navi/internal/dialogue"
)

// Espeak speaks through espeak-ng and blocks until playback finishes.
type Espeak struct {
	Voice string // voice name or language, e.g. "en"
	Rate  int    // words per minute; <=0 keeps the engine default
}

func NewEspeak(voice string, rate int) *Espeak {
	if voice == "" {
		voice = "en"
	}
	return &Espeak{Voice: voice, Rate: rate}
}

// Console prints every line as "<name>: <text>".
type Console struct {
	Name string
	Out  io.Writer
}

func (c *Console) Say(_ context.Context, text string) error {
	_, err := fmt.Fprintf(c.Out, "%s: %s\n", c.Name, text)
	return err
}

// Multi runs each synthesizer in turn and stops at the first error.
type Multi []dialogue.Synthesizer

func (m Multi) Say(ctx context.Context, text string) error {
	for _, s := range m {
		if err := s.Say(ctx, text); err != nil {
			return err
		}
	}
	return nil
}

// Ducker lowers other audio for the length of an utterance.
type Ducker interface {
	Duck(ctx context.Context) error
	Unduck(ctx context.Context) error
}

// Ducked wraps a synthesizer so other streams are quieter while it talks.
// Ducking problems are logged and never stop the speech.
type Ducked struct {
	Inner  dialogue.Synthesizer
	Ducker Ducker
}

func (d *Ducked) Say(ctx context.Context, text string) error {
	if err := d.Ducker.Duck(ctx); err != nil {
		log.Warn("Failed to duck other streams", "err", err)
	}

	defer func() {
		if err := d.Ducker.Unduck(context.WithoutCancel(ctx)); err != nil {
			log.Warn("Failed to restore other streams", "err", err)
		}
	}()

	return d.Inner.Say(ctx, text)
}
