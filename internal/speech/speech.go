// Package speech owns the single playback slot used to read questions aloud.
package speech

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// SynthesisSampleRate is the rate of PCM returned by the synthesis backend.
const SynthesisSampleRate = 24000

var ErrPlaybackFailed = errors.New("speech playback failed")

// Output plays PCM16 samples and returns when playback drains or ctx ends.
type Output interface {
	Play(ctx context.Context, samples []int16, sampleRate int) error
}

// Synthesizer turns text into 24kHz mono PCM16LE bytes. Nil bytes mean
// synthesis is unavailable.
type Synthesizer interface {
	SynthesizeSpeech(ctx context.Context, text string) ([]byte, error)
}

// Narrator reads text aloud without the synthesis backend.
type Narrator interface {
	Narrate(ctx context.Context, text string) error
}

// Token identifies one playback. Tokens increase monotonically.
type Token uint64

type noopOutput struct{}

func (noopOutput) Play(context.Context, []int16, int) error { return nil }

type noopNarrator struct{}

func (noopNarrator) Narrate(context.Context, string) error { return nil }

// Controller plays at most one buffer at a time. Starting a playback stops
// the previous one; only the newest playback reports completion.
type Controller struct {
	logger   *slog.Logger
	out      Output
	cache    *Cache
	narrator Narrator

	mu      sync.Mutex
	token   Token
	cancel  context.CancelFunc
	playing bool
	onEnded func()
	closed  bool
}

// NewController wires playback collaborators with noop fallbacks. A nil cache
// disables synthesis so Narrate always uses the narrator.
func NewController(logger *slog.Logger, out Output, cache *Cache, narrator Narrator) *Controller {
	if out == nil {
		out = noopOutput{}
	}
	if narrator == nil {
		narrator = noopNarrator{}
	}
	return &Controller{logger: logger, out: out, cache: cache, narrator: narrator}
}

// Speak plays synthesized PCM16LE bytes at SynthesisSampleRate.
func (c *Controller) Speak(buffer []byte) Token {
	return c.SpeakAt(buffer, SynthesisSampleRate)
}

// SpeakAt plays PCM16LE bytes at sampleRate. An empty buffer completes at once.
func (c *Controller) SpeakAt(buffer []byte, sampleRate int) Token {
	samples := DecodePCM16(buffer)
	return c.start(func(ctx context.Context) error {
		if len(samples) == 0 {
			return fmt.Errorf("%w: empty buffer", ErrPlaybackFailed)
		}
		if err := c.out.Play(ctx, samples, sampleRate); err != nil {
			return fmt.Errorf("%w: %v", ErrPlaybackFailed, err)
		}
		return nil
	})
}

// Narrate synthesizes text and plays it, falling back to the local narrator
// when synthesis yields nothing or playback fails.
func (c *Controller) Narrate(ctx context.Context, text string) Token {
	return c.start(func(playCtx context.Context) error {
		merged, stop := mergeCancel(ctx, playCtx)
		defer stop()

		var pcm []byte
		if c.cache != nil {
			var err error
			pcm, err = c.cache.Get(merged, text)
			if err != nil && c.logger != nil {
				c.logger.Warn("speech synthesis failed; using fallback narrator", "error", err.Error())
			}
		}

		if samples := DecodePCM16(pcm); len(samples) > 0 {
			err := c.out.Play(merged, samples, SynthesisSampleRate)
			if err == nil || merged.Err() != nil {
				return err
			}
			if c.logger != nil {
				c.logger.Warn("speech playback failed; using fallback narrator", "error", err.Error())
			}
		}

		if err := c.narrator.Narrate(merged, text); err != nil {
			return fmt.Errorf("%w: fallback narration: %v", ErrPlaybackFailed, err)
		}
		return nil
	})
}

// Prefetch warms the synthesis cache for text in the background.
func (c *Controller) Prefetch(ctx context.Context, text string) {
	if c.cache == nil {
		return
	}
	c.cache.Prefetch(ctx, text)
}

// IsPlaying reports whether the newest playback is still running.
func (c *Controller) IsPlaying() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.playing
}

// OnEnded registers a one-shot completion callback for the current playback,
// replacing any earlier registration.
func (c *Controller) OnEnded(cb func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onEnded = cb
}

// Stop cancels the current playback and drops the pending callback.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
}

// Close stops playback and rejects further playbacks.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
	c.closed = true
}

func (c *Controller) stopLocked() {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.token++
	c.playing = false
	c.onEnded = nil
}

func (c *Controller) start(play func(context.Context) error) Token {
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
	}
	c.token++
	token := c.token
	if c.closed {
		c.mu.Unlock()
		return token
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.playing = true
	c.mu.Unlock()

	go func() {
		defer cancel()
		err := play(ctx)
		if err != nil && ctx.Err() == nil && c.logger != nil {
			c.logger.Warn("speech playback ended with error", "error", err.Error())
		}
		c.finish(token)
	}()
	return token
}

func (c *Controller) finish(token Token) {
	c.mu.Lock()
	if token != c.token {
		c.mu.Unlock()
		return
	}
	c.playing = false
	c.cancel = nil
	cb := c.onEnded
	c.onEnded = nil
	c.mu.Unlock()

	if cb != nil {
		cb()
	}
}

// mergeCancel returns a context cancelled when either parent ends.
func mergeCancel(a, b context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(a)
	stop := context.AfterFunc(b, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}
