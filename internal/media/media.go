// Package media acquires microphone and camera streams and turns recordings into blobs.
package media

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// Kind selects which hardware a stream holds.
type Kind string

const (
	KindAudio Kind = "audio"
	KindVideo Kind = "video"
)

var (
	ErrDeviceUnavailable = errors.New("media device unavailable")
	ErrRecordingActive   = errors.New("recording already active on stream")
	ErrRecordingStopped  = errors.New("recording already stopped")
	ErrStreamReleased    = errors.New("stream released")
)

// Tap receives live PCM16LE mono frames while a recording is not paused.
type Tap func(pcm []byte)

// Hardware is one opened device. Close releases it.
type Hardware interface {
	Record(tap Tap) (Recorder, error)
	Close() error
}

// Recorder is one running capture on Hardware.
type Recorder interface {
	Pause() error
	Resume() error
	// Finish ends capture and returns the encoded payload.
	Finish() (data []byte, mimeType string, err error)
}

// exitWatcher is implemented by recorders backed by a process that can end
// on its own while capture is running.
type exitWatcher interface {
	Exited() <-chan struct{}
}

// Opener opens hardware of one kind.
type Opener func(ctx context.Context) (Hardware, error)

// Driver hands out streams for each media kind.
type Driver struct {
	logger  *slog.Logger
	library *Library
	openers map[Kind]Opener
}

// NewDriver wires openers per kind. A nil library gets a private one.
func NewDriver(logger *slog.Logger, library *Library, openers map[Kind]Opener) *Driver {
	if library == nil {
		library = NewLibrary()
	}
	copied := make(map[Kind]Opener, len(openers))
	for kind, opener := range openers {
		copied[kind] = opener
	}
	return &Driver{logger: logger, library: library, openers: copied}
}

// Library returns the blob store recordings finalize into.
func (d *Driver) Library() *Library {
	return d.library
}

// Acquire opens hardware of kind. Every failure wraps ErrDeviceUnavailable.
func (d *Driver) Acquire(ctx context.Context, kind Kind) (*Stream, error) {
	opener, ok := d.openers[kind]
	if !ok || opener == nil {
		return nil, fmt.Errorf("%w: no %s backend configured", ErrDeviceUnavailable, kind)
	}

	hw, err := opener(ctx)
	if err != nil {
		if errors.Is(err, ErrDeviceUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrDeviceUnavailable, kind, err)
	}

	if d.logger != nil {
		d.logger.Debug("media stream acquired", "kind", string(kind))
	}
	return &Stream{kind: kind, hw: hw, library: d.library, logger: d.logger}, nil
}

// Stream is an acquired device. Release must be called on every exit path.
type Stream struct {
	kind    Kind
	hw      Hardware
	library *Library
	logger  *slog.Logger

	mu       sync.Mutex
	active   *Recording
	released bool
}

func (s *Stream) Kind() Kind { return s.kind }

// StartRecording begins capture. Only one recording may be active per stream.
func (s *Stream) StartRecording(tap Tap) (*Recording, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.released {
		return nil, ErrStreamReleased
	}
	if s.active != nil && !s.active.Stopped() {
		return nil, ErrRecordingActive
	}

	rec, err := s.hw.Record(tap)
	if err != nil {
		return nil, fmt.Errorf("start %s recording: %w", s.kind, err)
	}
	s.active = &Recording{rec: rec, library: s.library}
	return s.active, nil
}

// Release stops any active recording and closes the hardware. Idempotent.
func (s *Stream) Release() error {
	s.mu.Lock()
	if s.released {
		s.mu.Unlock()
		return nil
	}
	s.released = true
	active := s.active
	s.active = nil
	s.mu.Unlock()

	if active != nil {
		active.abandon()
	}
	if err := s.hw.Close(); err != nil {
		return fmt.Errorf("release %s stream: %w", s.kind, err)
	}
	if s.logger != nil {
		s.logger.Debug("media stream released", "kind", string(s.kind))
	}
	return nil
}

// Released reports whether Release has run.
func (s *Stream) Released() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.released
}

// Recording is one capture. Pause and Resume are idempotent until Stop.
type Recording struct {
	rec     Recorder
	library *Library

	mu      sync.Mutex
	paused  bool
	stopped bool
}

func (r *Recording) Pause() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		return ErrRecordingStopped
	}
	if r.paused {
		return nil
	}
	if err := r.rec.Pause(); err != nil {
		return fmt.Errorf("pause recording: %w", err)
	}
	r.paused = true
	return nil
}

func (r *Recording) Resume() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		return ErrRecordingStopped
	}
	if !r.paused {
		return nil
	}
	if err := r.rec.Resume(); err != nil {
		return fmt.Errorf("resume recording: %w", err)
	}
	r.paused = false
	return nil
}

func (r *Recording) Paused() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.paused
}

// Lost closes if the backend ends capture without Stop, for example when the
// camera encoder exits. Nil for backends that cannot end on their own.
func (r *Recording) Lost() <-chan struct{} {
	if w, ok := r.rec.(exitWatcher); ok {
		return w.Exited()
	}
	return nil
}

func (r *Recording) Stopped() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stopped
}

// Stop finalizes the capture into a blob registered with the library.
func (r *Recording) Stop() (Blob, error) {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return Blob{}, ErrRecordingStopped
	}
	r.stopped = true
	r.mu.Unlock()

	data, mimeType, err := r.rec.Finish()
	if err != nil {
		return Blob{}, fmt.Errorf("finish recording: %w", err)
	}
	return r.library.Put(data, mimeType), nil
}

// abandon finishes the capture and drops the payload.
func (r *Recording) abandon() {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return
	}
	r.stopped = true
	r.mu.Unlock()
	_, _, _ = r.rec.Finish()
}
