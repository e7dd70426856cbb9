package media

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/jfreymuth/pulse"
	pulseproto "github.com/jfreymuth/pulse/proto"
)

const fragmentBytes = 640 // 20ms @ 16kHz mono s16

// MicrophoneOptions controls microphone selection.
type MicrophoneOptions struct {
	Input    string
	Fallback string
	Logger   *slog.Logger
}

// MicrophoneOpener opens the configured Pulse source.
func MicrophoneOpener(opts MicrophoneOptions) Opener {
	return func(ctx context.Context) (Hardware, error) {
		return OpenMicrophone(ctx, opts)
	}
}

// Microphone is an acquired Pulse source.
type Microphone struct {
	device Device
	client *pulse.Client
	source *pulse.Source
	logger *slog.Logger
}

// OpenMicrophone resolves the microphone and holds a Pulse connection for it.
func OpenMicrophone(ctx context.Context, opts MicrophoneOptions) (*Microphone, error) {
	selection, err := SelectDevice(ctx, opts.Input, opts.Fallback)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}
	if selection.Warning != "" && opts.Logger != nil {
		opts.Logger.Warn("microphone fallback", "warning", selection.Warning)
	}

	client, err := newPulseClient()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}
	source, err := client.SourceByID(selection.Device.ID)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: resolve source %q: %v", ErrDeviceUnavailable, selection.Device.ID, err)
	}

	return &Microphone{device: selection.Device, client: client, source: source, logger: opts.Logger}, nil
}

func (m *Microphone) Device() Device { return m.device }

// Record starts a 16kHz mono s16 record stream.
func (m *Microphone) Record(tap Tap) (Recorder, error) {
	capture := newCapture(tap)
	writer := pulse.NewWriter(writerFunc(capture.onPCM), pulseproto.FormatInt16LE)
	stream, err := m.client.NewRecord(
		writer,
		pulse.RecordSource(m.source),
		pulse.RecordMono,
		pulse.RecordSampleRate(CaptureSampleRate),
		pulse.RecordBufferFragmentSize(fragmentBytes),
		pulse.RecordMediaName("rehearse answer"),
	)
	if err != nil {
		return nil, fmt.Errorf("create pulse record stream: %w", err)
	}
	capture.stream = stream
	stream.Start()
	return capture, nil
}

func (m *Microphone) Close() error {
	m.client.Close()
	return nil
}

// capture accumulates PCM for one recording. Frames arriving while paused are dropped.
type capture struct {
	tap    Tap
	stream *pulse.RecordStream
	stopCh chan struct{}

	mu      sync.Mutex
	pcm     []byte
	stopped bool

	paused   atomic.Bool
	inflight sync.WaitGroup
}

func newCapture(tap Tap) *capture {
	return &capture{tap: tap, stopCh: make(chan struct{})}
}

func (c *capture) Pause() error {
	c.paused.Store(true)
	return nil
}

func (c *capture) Resume() error {
	c.paused.Store(false)
	return nil
}

// Finish stops the stream and wraps the accumulated PCM as WAV.
func (c *capture) Finish() ([]byte, string, error) {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return nil, "", ErrRecordingStopped
	}
	c.stopped = true
	close(c.stopCh)
	c.mu.Unlock()

	if c.stream != nil {
		c.stream.Stop()
		c.stream.Close()
	}
	c.inflight.Wait()

	c.mu.Lock()
	pcm := c.pcm
	c.pcm = nil
	c.mu.Unlock()

	if len(pcm) == 0 {
		return nil, MIMEWAV, nil
	}
	return EncodeWAV(pcm, CaptureSampleRate, 1), MIMEWAV, nil
}

func (c *capture) onPCM(buffer []byte) (int, error) {
	if len(buffer) == 0 {
		return 0, nil
	}

	select {
	case <-c.stopCh:
		return 0, io.EOF
	default:
	}

	if c.paused.Load() {
		return len(buffer), nil
	}

	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return 0, io.EOF
	}
	// Add under the same mutex as stopped to avoid Add/Wait races.
	c.inflight.Add(1)
	c.pcm = append(c.pcm, buffer...)
	c.mu.Unlock()
	defer c.inflight.Done()

	if c.tap != nil {
		frame := make([]byte, len(buffer))
		copy(frame, buffer)
		c.tap(frame)
	}
	return len(buffer), nil
}

// writerFunc adapts a function to io.Writer for pulse.NewWriter.
type writerFunc func([]byte) (int, error)

func (f writerFunc) Write(b []byte) (int, error) {
	return f(b)
}
