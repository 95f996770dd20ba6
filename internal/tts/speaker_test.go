package tts

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	name string
	log  *[]string
	err  error
}

func (r recorder) Say(_ context.Context, text string) error {
	*r.log = append(*r.log, r.name+":"+text)
	return r.err
}

type fakeDucker struct {
	log     *[]string
	duckErr error
}

func (f fakeDucker) Duck(context.Context) error {
	*f.log = append(*f.log, "duck")
	return f.duckErr
}

func (f fakeDucker) Unduck(context.Context) error {
	*f.log = append(*f.log, "unduck")
	return nil
}

func TestConsole(t *testing.T) {
	var out bytes.Buffer
	c := &Console{Name: "Rockman.EXE", Out: &out}

	require.NoError(t, c.Say(context.Background(), "What else can I do for you?"))
	assert.Equal(t, "Rockman.EXE: What else can I do for you?\n", out.String())
}

func TestMultiStopsAtFirstError(t *testing.T) {
	var log []string
	m := Multi{
		recorder{name: "a", log: &log},
		recorder{name: "b", log: &log, err: errors.New("boom")},
		recorder{name: "c", log: &log},
	}

	require.Error(t, m.Say(context.Background(), "hi"))
	assert.Equal(t, []string{"a:hi", "b:hi"}, log)
}

func TestDuckedWrapsSpeech(t *testing.T) {
	var log []string
	d := &Ducked{Inner: recorder{name: "voice", log: &log}, Ducker: fakeDucker{log: &log}}

	require.NoError(t, d.Say(context.Background(), "hello"))
	assert.Equal(t, []string{"duck", "voice:hello", "unduck"}, log)
}

func TestDuckedSpeaksWhenDuckFails(t *testing.T) {
	var log []string
	d := &Ducked{
		Inner:  recorder{name: "voice", log: &log},
		Ducker: fakeDucker{log: &log, duckErr: errors.New("pactl missing")},
	}

	require.NoError(t, d.Say(context.Background(), "hello"))
	assert.Equal(t, []string{"duck", "voice:hello", "unduck"}, log)
}

func TestNewEspeakDefaults(t *testing.T) {
	e := NewEspeak("", 150)
	assert.Equal(t, "en", e.Voice)
	assert.Equal(t, 150, e.Rate)
	require.NoError(t, e.Say(context.Background(), ""))
}
