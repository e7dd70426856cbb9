package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"
	"syscall"
	"time"
)

const cameraFinishTimeout = 5 * time.Second

// CameraOptions controls the ffmpeg camera backend.
type CameraOptions struct {
	Device      string // v4l2 node, e.g. /dev/video0
	FFmpeg      string // ffmpeg binary
	AudioSource string // pulse source name for the soundtrack; blank uses default
	Microphone  MicrophoneOptions
	Logger      *slog.Logger
}

// CameraOpener opens the configured camera.
func CameraOpener(opts CameraOptions) Opener {
	return func(ctx context.Context) (Hardware, error) {
		return OpenCamera(ctx, opts)
	}
}

// Camera holds a v4l2 device for preview and recording through ffmpeg.
type Camera struct {
	opts CameraOptions
	bin  string
	mic  *Microphone
}

// OpenCamera verifies the device node and encoder exist. A microphone is
// attached for live levels when one is available.
func OpenCamera(ctx context.Context, opts CameraOptions) (*Camera, error) {
	if strings.TrimSpace(opts.Device) == "" {
		opts.Device = "/dev/video0"
	}
	if strings.TrimSpace(opts.FFmpeg) == "" {
		opts.FFmpeg = "ffmpeg"
	}
	if err := probeDevice(opts.Device); err != nil {
		return nil, fmt.Errorf("%w: camera %s: %w", ErrDeviceUnavailable, opts.Device, err)
	}
	bin, err := exec.LookPath(opts.FFmpeg)
	if err != nil {
		return nil, fmt.Errorf("%w: %s not found in PATH", ErrDeviceUnavailable, opts.FFmpeg)
	}

	cam := &Camera{opts: opts, bin: bin}
	if mic, err := OpenMicrophone(ctx, opts.Microphone); err == nil {
		cam.mic = mic
	} else if opts.Logger != nil {
		opts.Logger.Warn("camera recording without level meter", "error", err.Error())
	}
	return cam, nil
}

// Record starts ffmpeg writing webm to stdout.
func (c *Camera) Record(tap Tap) (Recorder, error) {
	cmd := exec.Command(c.bin, cameraArgs(c.opts)...)
	out := &lockedBuffer{}
	var stderr bytes.Buffer
	cmd.Stdout = out
	cmd.Stderr = &stderr
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start ffmpeg: %w", err)
	}

	rec := &cameraRecorder{cmd: cmd, out: out, stderr: &stderr, exited: make(chan struct{}), logger: c.opts.Logger}
	go func() {
		rec.waitErr = cmd.Wait()
		close(rec.exited)
	}()

	if c.mic != nil && tap != nil {
		levels, err := c.mic.Record(tap)
		if err == nil {
			rec.levels = levels
		}
	}
	return rec, nil
}

func (c *Camera) Close() error {
	if c.mic != nil {
		return c.mic.Close()
	}
	return nil
}

// probeDevice opens the node read-write and closes it again, so permission
// and busy errors surface at acquire time rather than when ffmpeg starts.
func probeDevice(path string) error {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return err
	}
	return f.Close()
}

func cameraArgs(opts CameraOptions) []string {
	audio := strings.TrimSpace(opts.AudioSource)
	if audio == "" {
		audio = "default"
	}
	return []string{
		"-hide_banner", "-loglevel", "error", "-nostdin",
		"-f", "v4l2", "-i", opts.Device,
		"-f", "pulse", "-i", audio,
		"-c:v", "libvpx", "-deadline", "realtime", "-b:v", "1M",
		"-c:a", "libopus",
		"-f", "webm", "pipe:1",
	}
}

type cameraRecorder struct {
	cmd    *exec.Cmd
	out    *lockedBuffer
	stderr *bytes.Buffer
	levels Recorder
	logger *slog.Logger

	exited  chan struct{}
	waitErr error // set before exited closes
}

// Exited closes when ffmpeg ends, including when it dies mid-recording.
func (r *cameraRecorder) Exited() <-chan struct{} {
	return r.exited
}

// Pause suspends the encoder process so no frames are written.
func (r *cameraRecorder) Pause() error {
	if r.levels != nil {
		_ = r.levels.Pause()
	}
	return r.cmd.Process.Signal(syscall.SIGSTOP)
}

func (r *cameraRecorder) Resume() error {
	if r.levels != nil {
		_ = r.levels.Resume()
	}
	return r.cmd.Process.Signal(syscall.SIGCONT)
}

// Finish asks ffmpeg to close the container and waits for it to exit.
func (r *cameraRecorder) Finish() ([]byte, string, error) {
	if r.levels != nil {
		_, _, _ = r.levels.Finish()
	}

	_ = r.cmd.Process.Signal(syscall.SIGCONT)
	_ = r.cmd.Process.Signal(os.Interrupt)

	select {
	case <-r.exited:
		err := r.waitErr
		var exitErr *exec.ExitError
		if err != nil && !errors.As(err, &exitErr) {
			return nil, "", fmt.Errorf("wait ffmpeg: %w", err)
		}
		if err != nil && r.out.Len() == 0 {
			return nil, "", fmt.Errorf("ffmpeg failed: %s", strings.TrimSpace(r.stderr.String()))
		}
	case <-time.After(cameraFinishTimeout):
		_ = r.cmd.Process.Kill()
		<-r.exited
		if r.logger != nil {
			r.logger.Warn("ffmpeg did not exit on interrupt; killed")
		}
	}
	return r.out.Bytes(), MIMEWebM, nil
}

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Len()
}

func (b *lockedBuffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]byte(nil), b.buf.Bytes()...)
}
