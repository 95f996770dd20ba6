//go:build !cgo

package tts

import (
	"context"
	"errors"
)

// Builds without cgo have no espeak-ng; run with --mute.
func (e *Espeak) Say(_ context.Context, text string) error {
	if text == "" {
		return nil
	}
	return errors.New("espeak-ng unavailable: built without cgo")
}
