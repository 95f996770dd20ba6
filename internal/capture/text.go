package capture

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"navi/internal/dialogue"
)

// MaxLineLength bounds a typed line, terminator included. Longer lines are
// discarded and reported as unrecognized.
const MaxLineLength = 64 << 10

// Text reads one typed line per turn. Useful without a microphone.
type Text struct {
	prompt io.Writer
	r      *bufio.Reader
}

// NewText reads lines from r and writes a "You: " prompt to prompt when it
// is non-nil.
func NewText(r io.Reader, prompt io.Writer) *Text {
	return &Text{prompt: prompt, r: bufio.NewReader(r)}
}

// Capture blocks on the reader and cannot be interrupted by ctx.
func (t *Text) Capture(ctx context.Context, _ time.Duration) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if t.prompt != nil {
		fmt.Fprint(t.prompt, "You: ")
	}

	return t.readLine()
}

func (t *Text) readLine() (string, error) {
	var (
		line []byte
		read int
	)

	for {
		chunk, err := t.r.ReadSlice('\n')
		read += len(chunk)
		if read <= MaxLineLength {
			line = append(line, chunk...)
		}

		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		if err != nil && !(errors.Is(err, io.EOF) && read > 0) {
			if errors.Is(err, io.EOF) {
				return "", dialogue.ErrInputClosed
			}
			return "", fmt.Errorf("read: %w: %w", dialogue.ErrInputClosed, err)
		}
		break
	}

	if read > MaxLineLength {
		return "", fmt.Errorf("read: %w: line longer than %d bytes", dialogue.ErrUnrecognized, MaxLineLength)
	}

	line = bytes.TrimSuffix(line, []byte("\n"))
	line = bytes.TrimSuffix(line, []byte("\r"))
	return string(line), nil
}
