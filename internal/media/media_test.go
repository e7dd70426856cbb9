package media

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeHardware struct {
	closed   atomic.Int32
	recorded atomic.Int32
	recErr   error
	payload  []byte
	last     *fakeRecorder
}

func (h *fakeHardware) Record(tap Tap) (Recorder, error) {
	if h.recErr != nil {
		return nil, h.recErr
	}
	h.recorded.Add(1)
	h.last = &fakeRecorder{payload: h.payload, tap: tap}
	return h.last, nil
}

func (h *fakeHardware) Close() error {
	h.closed.Add(1)
	return nil
}

type fakeRecorder struct {
	payload  []byte
	tap      Tap
	pauses   int
	resumes  int
	finished int
}

func (r *fakeRecorder) Pause() error  { r.pauses++; return nil }
func (r *fakeRecorder) Resume() error { r.resumes++; return nil }
func (r *fakeRecorder) Finish() ([]byte, string, error) {
	r.finished++
	return r.payload, MIMEWAV, nil
}

func driverWith(hw *fakeHardware) *Driver {
	return NewDriver(nil, nil, map[Kind]Opener{
		KindAudio: func(context.Context) (Hardware, error) { return hw, nil },
		KindVideo: func(context.Context) (Hardware, error) { return nil, errors.New("permission denied") },
	})
}

func TestAcquireWrapsFailuresAsDeviceUnavailable(t *testing.T) {
	driver := driverWith(&fakeHardware{})

	_, err := driver.Acquire(context.Background(), KindVideo)
	require.ErrorIs(t, err, ErrDeviceUnavailable)
	require.Contains(t, err.Error(), "permission denied")

	empty := NewDriver(nil, nil, nil)
	_, err = empty.Acquire(context.Background(), KindAudio)
	require.ErrorIs(t, err, ErrDeviceUnavailable)
}

func TestStreamAllowsOneActiveRecording(t *testing.T) {
	hw := &fakeHardware{payload: EncodeWAV([]byte{1, 0}, CaptureSampleRate, 1)}
	stream, err := driverWith(hw).Acquire(context.Background(), KindAudio)
	require.NoError(t, err)

	rec, err := stream.StartRecording(nil)
	require.NoError(t, err)

	_, err = stream.StartRecording(nil)
	require.ErrorIs(t, err, ErrRecordingActive)

	_, err = rec.Stop()
	require.NoError(t, err)

	_, err = stream.StartRecording(nil)
	require.NoError(t, err)
	require.Equal(t, int32(2), hw.recorded.Load())
}

func TestRecordingPauseResumeIdempotentAndStopFinalizes(t *testing.T) {
	hw := &fakeHardware{payload: EncodeWAV([]byte{1, 0, 2, 0}, CaptureSampleRate, 1)}
	driver := driverWith(hw)
	stream, err := driver.Acquire(context.Background(), KindAudio)
	require.NoError(t, err)
	rec, err := stream.StartRecording(nil)
	require.NoError(t, err)
	require.Nil(t, rec.Lost(), "in-process capture cannot end on its own")

	require.NoError(t, rec.Pause())
	require.NoError(t, rec.Pause())
	require.True(t, rec.Paused())
	require.NoError(t, rec.Resume())
	require.NoError(t, rec.Resume())
	require.Equal(t, 1, hw.last.pauses)
	require.Equal(t, 1, hw.last.resumes)

	blob, err := rec.Stop()
	require.NoError(t, err)
	require.Equal(t, MIMEWAV, blob.MIMEType)
	require.Contains(t, blob.URL, blobURLPrefix)
	require.False(t, blob.Empty())

	stored, ok := driver.Library().Get(blob.URL)
	require.True(t, ok)
	require.Equal(t, blob.Data, stored.Data)

	_, err = rec.Stop()
	require.ErrorIs(t, err, ErrRecordingStopped)
	require.ErrorIs(t, rec.Pause(), ErrRecordingStopped)
	require.ErrorIs(t, rec.Resume(), ErrRecordingStopped)
}

func TestReleaseStopsActiveRecordingAndIsIdempotent(t *testing.T) {
	hw := &fakeHardware{}
	stream, err := driverWith(hw).Acquire(context.Background(), KindAudio)
	require.NoError(t, err)
	rec, err := stream.StartRecording(nil)
	require.NoError(t, err)

	require.NoError(t, stream.Release())
	require.NoError(t, stream.Release())
	require.True(t, stream.Released())
	require.True(t, rec.Stopped())
	require.Equal(t, 1, hw.last.finished)
	require.Equal(t, int32(1), hw.closed.Load())

	_, err = stream.StartRecording(nil)
	require.ErrorIs(t, err, ErrStreamReleased)
}

func TestEmptyBlob(t *testing.T) {
	require.True(t, Blob{}.Empty())
	require.True(t, Blob{Data: EncodeWAV(nil, CaptureSampleRate, 1), MIMEType: MIMEWAV}.Empty())
	require.False(t, Blob{Data: []byte{1}, MIMEType: MIMEWebM}.Empty())
}
