package notify

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCueRejectsUnsupported(t *testing.T) {
	_, err := NewCue("beep.flac")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported")
}

func TestNewCueRequiresFile(t *testing.T) {
	_, err := NewCue(filepath.Join(t.TempDir(), "missing.mp3"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestPlayReportsBadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "beep.wav")
	require.NoError(t, os.WriteFile(path, []byte("definitely not a wav"), 0o644))

	c, err := NewCue(path)
	require.NoError(t, err)
	require.Error(t, c.Play())
}
