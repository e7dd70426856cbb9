// Package transcribe bridges finished recordings to the speech-to-text backend.
package transcribe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rbright/rehearse/internal/media"
	"github.com/rbright/rehearse/internal/transcript"
)

var ErrTranscriptionFailed = errors.New("transcription failed")

// Backend converts recorded bytes to text.
type Backend interface {
	Transcribe(ctx context.Context, data []byte, mimeType string) (string, error)
}

// Options bounds retry behavior and formats the result.
type Options struct {
	MaxAttempts     uint
	InitialInterval time.Duration
	MaxInterval     time.Duration
	// AttemptTimeout caps one backend call; zero means no cap.
	AttemptTimeout time.Duration
	Normalize      transcript.Options
}

// DefaultOptions returns the retry policy used when config leaves it unset.
func DefaultOptions() Options {
	return Options{
		MaxAttempts:     3,
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     4 * time.Second,
		Normalize:       transcript.Options{CapitalizeSentences: true},
	}
}

// Bridge never surfaces errors to callers: failure and silence both yield "".
type Bridge struct {
	logger  *slog.Logger
	backend Backend
	opts    Options
}

func New(logger *slog.Logger, backend Backend, opts Options) *Bridge {
	if opts.MaxAttempts == 0 {
		opts.MaxAttempts = 1
	}
	if opts.InitialInterval <= 0 {
		opts.InitialInterval = 500 * time.Millisecond
	}
	if opts.MaxInterval < opts.InitialInterval {
		opts.MaxInterval = opts.InitialInterval
	}
	return &Bridge{logger: logger, backend: backend, opts: opts}
}

// Transcribe blocks until text is available. Empty blobs skip the backend.
func (b *Bridge) Transcribe(ctx context.Context, blob media.Blob) string {
	if blob.Empty() || b.backend == nil {
		return ""
	}

	started := time.Now()
	text, err := b.transcribe(ctx, blob)
	if err != nil {
		if b.logger != nil && ctx.Err() == nil {
			b.logger.Warn("transcription failed", "error", err.Error(), "mime", blob.MIMEType, "bytes", len(blob.Data))
		}
		return ""
	}

	text = transcript.Normalize(text, b.opts.Normalize)
	if b.logger != nil {
		b.logger.Info("transcription complete",
			"mime", blob.MIMEType,
			"bytes", len(blob.Data),
			"chars", len(text),
			"latency_ms", time.Since(started).Milliseconds(),
		)
	}
	return text
}

// Start runs Transcribe in the background and reports through done.
// done is not called when ctx is cancelled first.
func (b *Bridge) Start(ctx context.Context, blob media.Blob, done func(string)) {
	go func() {
		text := b.Transcribe(ctx, blob)
		if ctx.Err() != nil {
			return
		}
		if done != nil {
			done(text)
		}
	}()
}

func (b *Bridge) transcribe(ctx context.Context, blob media.Blob) (string, error) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = b.opts.InitialInterval
	policy.MaxInterval = b.opts.MaxInterval

	attempt := 0
	text, err := backoff.Retry(ctx, func() (string, error) {
		attempt++
		callCtx := ctx
		if b.opts.AttemptTimeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, b.opts.AttemptTimeout)
			defer cancel()
		}
		out, err := b.backend.Transcribe(callCtx, blob.Data, blob.MIMEType)
		if err != nil && ctx.Err() != nil {
			return "", backoff.Permanent(ctx.Err())
		}
		return out, err
	},
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(b.opts.MaxAttempts),
		backoff.WithNotify(func(err error, wait time.Duration) {
			if b.logger != nil {
				b.logger.Debug("transcription retry", "attempt", attempt, "wait_ms", wait.Milliseconds(), "error", err.Error())
			}
		}),
	)
	if err != nil {
		return "", fmt.Errorf("%w after %d attempt(s): %w", ErrTranscriptionFailed, attempt, err)
	}
	return text, nil
}
