package audio

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sinkInputs = `Sink Input #41
	Driver: protocol-native.c
	Volume: front-left: 65536 / 100% / 0.00 dB,   front-right: 65536 / 100% / 0.00 dB
	Properties:
		application.name = "Firefox"
Sink Input #42
	Volume: mono: 52428 /  80% / -5.81 dB
	Properties:
		application.name = "voxd"
Sink Input #43
	Volume: front-left: 26214 /  40% / -23.87 dB
	Properties:
		application.name = "mpv"
Sink Input #bogus
	Volume: 10%
`

type fakePactl struct {
	listing string
	sets    []string
}

func (f *fakePactl) run(_ context.Context, args ...string) ([]byte, error) {
	if args[0] == "list" {
		return []byte(f.listing), nil
	}
	f.sets = append(f.sets, strings.Join(args[1:], " "))
	return nil, nil
}

func TestParseSinkInputs(t *testing.T) {
	got := parseSinkInputs(sinkInputs)
	assert.Equal(t, []sinkInput{
		{ID: 41, Volume: 100, AppName: "Firefox"},
		{ID: 42, Volume: 80, AppName: "voxd"},
		{ID: 43, Volume: 40, AppName: "mpv"},
	}, got)

	assert.Empty(t, parseSinkInputs(""))
}

func TestDuckerDuckAndRestore(t *testing.T) {
	p := &fakePactl{listing: sinkInputs}
	d := NewDucker([]string{"voxd"}, 0.3, 20, 0)
	d.pactl = p.run

	require.NoError(t, d.Duck(context.Background()))
	assert.Equal(t, []string{"41 30%", "43 20%"}, p.sets)

	// Second duck is a no-op.
	require.NoError(t, d.Duck(context.Background()))
	assert.Len(t, p.sets, 2)

	p.sets = nil
	p.listing = strings.ReplaceAll(strings.ReplaceAll(sinkInputs, "100%", "30%"), "40%", "20%")
	require.NoError(t, d.Restore(context.Background()))
	assert.Equal(t, []string{"41 100%", "43 40%"}, p.sets)

	p.sets = nil
	require.NoError(t, d.Restore(context.Background()))
	assert.Empty(t, p.sets)
}
