package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/rbright/rehearse/internal/fsm"
	"github.com/rbright/rehearse/internal/media"
)

// RequestMode picks the capture mode from mode selection. Device failures
// are absorbed: the flow returns to mode selection with a notice.
func (c *Controller) RequestMode(mode fsm.Mode) error {
	return c.update(func() error {
		if err := c.fire(fsm.PickEvent(mode)); err != nil {
			return err
		}
		c.notice = ""
		c.enterCaptureLocked(mode)
		return nil
	})
}

// StartCamera begins recording from the camera preview.
func (c *Controller) StartCamera() error {
	return c.update(func() error {
		if err := c.fire(fsm.EventStartCamera); err != nil {
			return err
		}
		c.startRecordingLocked()
		return nil
	})
}

// enterCaptureLocked runs the side effects of arriving in a capture state.
// The state transition has already happened.
func (c *Controller) enterCaptureLocked(mode fsm.Mode) {
	c.take++
	c.deps.Speech.Stop()
	c.newAttemptLocked()
	c.dropAnswerLocked()
	c.result = CaptureResult{Mode: mode}

	switch mode {
	case fsm.ModeText:
		return
	case fsm.ModeVoice:
		if !c.acquireLocked(media.KindAudio) {
			return
		}
		c.startRecordingLocked()
	case fsm.ModeCamera:
		c.acquireLocked(media.KindVideo)
	}
}

func (c *Controller) acquireLocked(kind media.Kind) bool {
	c.releaseLocked()

	var err error
	if c.deps.Media == nil {
		err = fmt.Errorf("%w: no capture backend", media.ErrDeviceUnavailable)
	} else {
		c.stream, err = c.deps.Media.Acquire(c.attempt, kind)
	}
	if err != nil {
		c.stream = nil
		c.deviceFailedLocked(kind, err)
		return false
	}
	return true
}

func (c *Controller) startRecordingLocked() {
	var tap media.Tap
	if c.deps.Meter != nil {
		c.deps.Meter.Reset()
		tap = c.deps.Meter.ObservePCM16LE
	}

	rec, err := c.stream.StartRecording(tap)
	if err != nil {
		c.deviceFailedLocked(c.stream.Kind(), err)
		return
	}
	c.recording = rec
	c.result.DurationSeconds = 0
	c.result.Paused = false
	c.startTickerLocked()
	c.watchRecordingLocked(rec)
	c.deps.Indicator.ShowRecording(c.attempt)
}

// watchRecordingLocked turns a backend that stops on its own, such as an
// exited camera encoder, into a device failure.
func (c *Controller) watchRecordingLocked(rec *media.Recording) {
	lost := rec.Lost()
	if lost == nil {
		return
	}
	gen, take, ctx := c.gen, c.take, c.attempt
	go func() {
		select {
		case <-lost:
		case <-ctx.Done():
			return
		}
		c.mu.Lock()
		current := c.recording == rec
		c.mu.Unlock()
		if !current {
			return
		}
		_ = c.update(func() error {
			if gen != c.gen || take != c.take || c.recording != rec || c.stream == nil {
				return nil
			}
			c.deviceFailedLocked(c.stream.Kind(), errors.New("capture ended unexpectedly"))
			return nil
		})
	}()
}

// deviceFailedLocked releases whatever was acquired and returns to mode selection.
func (c *Controller) deviceFailedLocked(kind media.Kind, err error) {
	c.releaseLocked()
	c.stopTickerLocked()
	c.result = CaptureResult{}

	label := "Microphone"
	if kind == media.KindVideo {
		label = "Camera"
	}
	c.notice = label + " unavailable; choose another answer mode"
	if c.logger != nil {
		c.logger.Warn("capture device failed", "kind", string(kind), "error", err.Error())
	}
	c.deps.Indicator.ShowError(context.Background(), c.notice)

	if fsm.HoldsDevice(c.state) {
		_ = c.fire(fsm.EventDeviceFailed)
	}
}

// releaseLocked drops the recording and closes the stream. Safe to repeat.
func (c *Controller) releaseLocked() {
	c.recording = nil
	if c.stream == nil {
		return
	}
	if err := c.stream.Release(); err != nil && c.logger != nil {
		c.logger.Warn("release media stream", "error", err.Error())
	}
	c.stream = nil
}

// TogglePause flips pause on the active recording.
func (c *Controller) TogglePause() error {
	_, err := c.togglePause()
	return err
}

// togglePause reports the pause state the toggle left behind.
func (c *Controller) togglePause() (paused bool, err error) {
	err = c.update(func() error {
		if err := c.setPausedLocked(!c.result.Paused); err != nil {
			return err
		}
		paused = c.result.Paused
		return nil
	})
	return paused, err
}

// Pause freezes the recording and its duration. Idempotent.
func (c *Controller) Pause() error {
	return c.update(func() error { return c.setPausedLocked(true) })
}

// Resume continues a paused recording. Idempotent.
func (c *Controller) Resume() error {
	return c.update(func() error { return c.setPausedLocked(false) })
}

func (c *Controller) setPausedLocked(paused bool) error {
	if !fsm.IsRecording(c.state) || c.recording == nil {
		return fmt.Errorf("cannot pause from state %s", c.state)
	}
	if c.result.Paused == paused {
		return nil
	}

	var err error
	if paused {
		err = c.recording.Pause()
	} else {
		err = c.recording.Resume()
	}
	if err != nil {
		return err
	}
	c.result.Paused = paused
	return nil
}

// DoneRecording moves to review. Recorded answers are finalized outside the
// lock and then handed to the transcriber; typed answers keep their text.
func (c *Controller) DoneRecording() error {
	return c.update(func() error {
		prev := c.state
		if err := c.fire(fsm.EventDone); err != nil {
			return err
		}
		if prev == fsm.StateTyping {
			return nil
		}

		c.stopTickerLocked()
		c.result.Paused = false
		c.deps.Indicator.CueStop(c.attempt)

		rec, stream := c.recording, c.stream
		c.recording, c.stream = nil, nil
		c.result.IsTranscribing = true
		gen, take, ctx := c.gen, c.take, c.attempt
		c.afterUnlock(func() {
			c.finishRecording(ctx, gen, take, rec, stream)
		})
		return nil
	})
}

// finishRecording stops the capture and releases its stream without holding
// the lock; the camera encoder may take seconds to close its container.
func (c *Controller) finishRecording(ctx context.Context, gen, take uint64, rec *media.Recording, stream *media.Stream) {
	blob, err := media.Blob{}, errors.New("no active recording")
	if rec != nil {
		blob, err = rec.Stop()
	}
	if stream != nil {
		if rerr := stream.Release(); rerr != nil && c.logger != nil {
			c.logger.Warn("release media stream", "error", rerr.Error())
		}
	}

	applied := false
	_ = c.update(func() error {
		if gen != c.gen || take != c.take || c.state != fsm.StateReview {
			return nil
		}
		applied = true
		edited := !c.result.IsTranscribing
		c.result.IsTranscribing = false

		if err != nil {
			if c.logger != nil {
				c.logger.Warn("finish recording", "error", err.Error())
			}
			c.notice = "Recording could not be saved"
			c.deps.Indicator.ShowError(context.Background(), c.notice)
			return nil
		}

		c.result.MediaURL = blob.URL
		if edited {
			return nil
		}
		if blob.Empty() || c.deps.Transcriber == nil {
			c.result.Transcript = ""
			return nil
		}

		c.result.IsTranscribing = true
		c.deps.Indicator.ShowTranscribing(ctx)
		transcriber := c.deps.Transcriber
		c.afterUnlock(func() {
			transcriber.Start(ctx, blob, func(text string) {
				c.applyTranscript(gen, take, text)
			})
		})
		return nil
	})
	if !applied && err == nil {
		if lib := c.blobs(); lib != nil {
			lib.Drop(blob.URL)
		}
	}
}

func (c *Controller) applyTranscript(gen, take uint64, text string) {
	_ = c.update(func() error {
		if gen != c.gen || take != c.take || c.state != fsm.StateReview || !c.result.IsTranscribing {
			return nil
		}
		c.result.IsTranscribing = false
		c.result.Transcript = text
		if text != "" {
			c.deps.Indicator.CueComplete(context.Background())
		}
		return nil
	})
}

// SetTranscript edits the answer text while typing or reviewing. An edit
// during transcription wins over the pending transcript.
func (c *Controller) SetTranscript(text string) error {
	return c.update(func() error {
		if c.state != fsm.StateTyping && c.state != fsm.StateReview {
			return fmt.Errorf("cannot edit transcript from state %s", c.state)
		}
		c.result.Transcript = text
		c.result.IsTranscribing = false
		return nil
	})
}

// PlayAnswer replays the recorded voice answer during review.
func (c *Controller) PlayAnswer() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	if c.state != fsm.StateReview || c.result.MediaURL == "" {
		return ErrNoRecording
	}
	lib := c.blobs()
	if lib == nil {
		return ErrNoRecording
	}
	answer, ok := lib.Get(c.result.MediaURL)
	if !ok || !answer.IsAudio() || answer.Empty() {
		return ErrNoRecording
	}
	pcm, rate, err := media.DecodeWAV(answer.Data)
	if err != nil {
		return fmt.Errorf("decode recorded answer: %w", err)
	}
	c.deps.Speech.SpeakAt(pcm, rate)
	return nil
}
