package indicator

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rbright/rehearse/internal/config"
	"github.com/stretchr/testify/require"
)

type playedCue struct {
	samples []int16
	rate    int
}

type fakeOutput struct {
	mu     sync.Mutex
	played []playedCue
	err    error
}

func (f *fakeOutput) Play(_ context.Context, samples []int16, rate int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.played = append(f.played, playedCue{samples: samples, rate: rate})
	return f.err
}

func (f *fakeOutput) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.played)
}

func TestEveryCueHasChime(t *testing.T) {
	for _, kind := range []cueKind{cueStart, cueStop, cueComplete, cueCancel} {
		require.NotEmpty(t, cues[kind].pcm(), kind)
	}
}

func TestChimeLengthIncludesGaps(t *testing.T) {
	pcm := chime([]tone{{440, 50 * time.Millisecond}, {660, 50 * time.Millisecond}})
	require.Len(t, pcm, 2*sampleCount(50*time.Millisecond)+sampleCount(cueGap))
}

func TestSineEnvelopeStartsAndEndsSilent(t *testing.T) {
	pcm := sine(tone{440, 100 * time.Millisecond}, 0.2)
	require.Len(t, pcm, sampleCount(100*time.Millisecond))
	require.Zero(t, pcm[0])
	require.Zero(t, pcm[len(pcm)-1])
}

func TestSineInvalidToneIsEmpty(t *testing.T) {
	require.Empty(t, sine(tone{0, 100 * time.Millisecond}, 0.2))
	require.Empty(t, sine(tone{440, 0}, 0.2))
	require.Empty(t, sine(tone{440, 100 * time.Millisecond}, 0))
}

func TestCuePathPrefersConfiguredFile(t *testing.T) {
	cfg := config.IndicatorConfig{SoundStartFile: "/tmp/start.wav", SoundCancelFile: "  "}
	require.Equal(t, "/tmp/start.wav", cuePath(cueStart, cfg))
	require.Empty(t, cuePath(cueCancel, cfg))
	require.Empty(t, cuePath(cueKind(99), cfg))
}

func TestExpandUserPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	require.Equal(t, filepath.Join(home, "cues", "a.wav"), expandUserPath("~/cues/a.wav"))
	require.Equal(t, home, expandUserPath("~"))
	require.Equal(t, "/abs/a.wav", expandUserPath(" /abs/a.wav "))
	require.Equal(t, "~other/a.wav", expandUserPath("~other/a.wav"))
}

func TestEmitCueFallsBackToChimeWhenFileMissing(t *testing.T) {
	out := &fakeOutput{}
	cfg := config.IndicatorConfig{SoundStopFile: filepath.Join(t.TempDir(), "missing.wav")}

	require.NoError(t, emitCue(context.Background(), cueStop, cfg, out))
	require.Equal(t, 1, out.count())
	require.Equal(t, cueSampleRate, out.played[0].rate)
	require.Equal(t, cues[cueStop].pcm(), out.played[0].samples)
}

func TestEmitCueSurfacesOutputError(t *testing.T) {
	out := &fakeOutput{err: errors.New("no pulse")}
	require.ErrorContains(t, emitCue(context.Background(), cueComplete, config.IndicatorConfig{}, out), "no pulse")
}

func TestEmitCueRespectsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := &fakeOutput{}
	err := emitCue(ctx, cueStart, config.IndicatorConfig{}, out)
	require.ErrorIs(t, err, context.Canceled)
	require.Zero(t, out.count())
}

func TestNotifierPlaysCuesOnlyWhenSoundEnabled(t *testing.T) {
	out := &fakeOutput{}
	n := NewNotifier(config.IndicatorConfig{SoundEnable: true}, nil)
	n.cueOut = out

	n.CueCancel(context.Background())
	require.Eventually(t, func() bool { return out.count() == 1 }, time.Second, 5*time.Millisecond)

	quiet := &fakeOutput{}
	n = NewNotifier(config.IndicatorConfig{SoundEnable: false}, nil)
	n.cueOut = quiet
	n.CueCancel(context.Background())
	time.Sleep(20 * time.Millisecond)
	require.Zero(t, quiet.count())
}
