package indicator

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rbright/rehearse/internal/config"
	"github.com/rbright/rehearse/internal/speech"
)

type cueKind int

const (
	cueStart cueKind = iota + 1
	cueStop
	cueComplete
	cueCancel
)

const (
	cueSampleRate = 16000
	cueGap        = 22 * time.Millisecond
	cueVolume     = 0.18
)

type tone struct {
	hz  float64
	dur time.Duration
}

// cue pairs a built-in chime with the config field that may override it.
type cue struct {
	tones []tone
	file  func(config.IndicatorConfig) string
	pcm   func() []int16
}

func newCue(file func(config.IndicatorConfig) string, tones ...tone) cue {
	c := cue{tones: tones, file: file}
	c.pcm = sync.OnceValue(func() []int16 { return chime(tones) })
	return c
}

var cues = map[cueKind]cue{
	// rising pair: answer recording started
	cueStart: newCue(func(c config.IndicatorConfig) string { return c.SoundStartFile },
		tone{880, 70 * time.Millisecond}, tone{1175, 70 * time.Millisecond}),
	cueStop: newCue(func(c config.IndicatorConfig) string { return c.SoundStopFile },
		tone{620, 120 * time.Millisecond}),
	// answer transcribed and ready for review
	cueComplete: newCue(func(c config.IndicatorConfig) string { return c.SoundCompleteFile },
		tone{740, 65 * time.Millisecond}, tone{988, 90 * time.Millisecond}),
	// falling pair: answer discarded for a redo
	cueCancel: newCue(func(c config.IndicatorConfig) string { return c.SoundCancelFile },
		tone{480, 75 * time.Millisecond}, tone{360, 90 * time.Millisecond}),
}

// emitCue plays the configured cue file, falling back to the built-in chime on out.
func emitCue(ctx context.Context, kind cueKind, cfg config.IndicatorConfig, out speech.Output) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("emit cue: %w", err)
	}
	c, ok := cues[kind]
	if !ok {
		return nil
	}
	if path := cuePath(kind, cfg); path != "" {
		if err := playCueFile(ctx, path); err == nil {
			return nil
		}
	}
	if out == nil {
		return nil
	}
	return out.Play(ctx, c.pcm(), cueSampleRate)
}

func cuePath(kind cueKind, cfg config.IndicatorConfig) string {
	c, ok := cues[kind]
	if !ok {
		return ""
	}
	return expandUserPath(c.file(cfg))
}

func expandUserPath(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw != "~" && !strings.HasPrefix(raw, "~/") {
		return raw
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return raw
	}
	return filepath.Join(home, strings.TrimPrefix(raw[1:], "/"))
}

func playCueFile(ctx context.Context, path string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("cue file: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, 4*time.Second)
	defer cancel()

	if err := exec.CommandContext(ctx, "pw-play", "--media-role", "Notification", path).Run(); err != nil {
		return fmt.Errorf("play cue file %q: %w", path, err)
	}
	return nil
}

// chime renders tones back to back with a short silence between them.
func chime(tones []tone) []int16 {
	gap := sampleCount(cueGap)
	var pcm []int16
	for i, t := range tones {
		if i > 0 {
			pcm = append(pcm, make([]int16, gap)...)
		}
		pcm = append(pcm, sine(t, cueVolume)...)
	}
	return pcm
}

// sine renders one tone with linear attack and release of at most 5ms.
func sine(t tone, volume float64) []int16 {
	n := sampleCount(t.dur)
	if n <= 0 || t.hz <= 0 || volume <= 0 {
		return nil
	}
	ramp := min(max(n/10, 1), cueSampleRate/200)

	pcm := make([]int16, n)
	for i := range pcm {
		env := min(1, float64(i)/float64(ramp), float64(n-1-i)/float64(ramp))
		v := math.Sin(2 * math.Pi * t.hz * float64(i) / cueSampleRate)
		pcm[i] = int16(math.Round(v * volume * env * math.MaxInt16))
	}
	return pcm
}

func sampleCount(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Round(d.Seconds() * cueSampleRate))
}
