package audio

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sinkInputs = `Sink Input #41
	Driver: protocol-native.c
	Volume: front-left: 52429 /  80% / -5.81 dB,   front-right: 52429 /  80% / -5.81 dB
	Properties:
		application.name = "Firefox"
Sink Input #42
	Volume: front-left: 65536 / 100% / 0.00 dB
	Properties:
		application.name = "navi"
Sink Input #bogus
	Volume: 10%
Sink Input #43
	Driver: protocol-native.c
`

type fakeMixer struct {
	listing string
	listErr error
	sets    map[int][]int
}

func (m *fakeMixer) List(context.Context) (string, error) { return m.listing, m.listErr }

func (m *fakeMixer) SetVolume(_ context.Context, id, percent int) error {
	if m.sets == nil {
		m.sets = make(map[int][]int)
	}
	m.sets[id] = append(m.sets[id], percent)
	return nil
}

func TestParseSinkInputs(t *testing.T) {
	got := parseSinkInputs(sinkInputs)

	assert.Equal(t, []streamInfo{
		{ID: 41, Volume: 80, AppName: "Firefox"},
		{ID: 42, Volume: 100, AppName: "navi"},
	}, got)
	assert.Nil(t, parseSinkInputs("nothing here"))
}

func TestDuckAndUnduckSkipSelf(t *testing.T) {
	m := &fakeMixer{listing: sinkInputs}
	d := NewDucker(m, []string{"navi"}, 0.25, 0)
	ctx := context.Background()

	require.NoError(t, d.Duck(ctx))
	assert.Equal(t, map[int][]int{41: {20}}, m.sets)

	// second call while ducked is a no-op
	require.NoError(t, d.Duck(ctx))
	assert.Len(t, m.sets[41], 1)

	m.listing = `Sink Input #41
	Volume: front-left: 13107 /  20% / -41.94 dB
	application.name = "Firefox"
`
	require.NoError(t, d.Unduck(ctx))
	assert.Equal(t, []int{20, 80}, m.sets[41])
	assert.NotContains(t, m.sets, 42)
}

func TestDuckListError(t *testing.T) {
	m := &fakeMixer{listErr: errors.New("pactl missing")}
	d := NewDucker(m, nil, 0.3, 0)

	require.Error(t, d.Duck(context.Background()))
	require.NoError(t, d.Unduck(context.Background()))
}

func TestClampVolume(t *testing.T) {
	assert.Equal(t, 0, clampVolume(-5))
	assert.Equal(t, 150, clampVolume(400))
	assert.Equal(t, 70, clampVolume(70))
}
