package media

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCaptureAccumulatesAndTapsFrames(t *testing.T) {
	var tapped [][]byte
	c := newCapture(func(pcm []byte) { tapped = append(tapped, pcm) })

	frame := []byte{1, 0, 2, 0}
	n, err := c.onPCM(frame)
	require.NoError(t, err)
	require.Equal(t, len(frame), n)
	require.Len(t, tapped, 1)

	frame[0] = 9
	require.Equal(t, byte(1), tapped[0][0], "tap must receive a copy")

	data, mimeType, err := c.Finish()
	require.NoError(t, err)
	require.Equal(t, MIMEWAV, mimeType)

	pcm, rate, err := DecodeWAV(data)
	require.NoError(t, err)
	require.Equal(t, CaptureSampleRate, rate)
	require.Equal(t, []byte{1, 0, 2, 0}, pcm)
}

func TestCaptureDropsFramesWhilePaused(t *testing.T) {
	c := newCapture(nil)

	_, err := c.onPCM([]byte{1, 0})
	require.NoError(t, err)
	require.NoError(t, c.Pause())
	require.NoError(t, c.Pause())

	n, err := c.onPCM([]byte{7, 7, 7, 7})
	require.NoError(t, err)
	require.Equal(t, 4, n)

	require.NoError(t, c.Resume())
	_, err = c.onPCM([]byte{3, 0})
	require.NoError(t, err)

	data, _, err := c.Finish()
	require.NoError(t, err)
	pcm, _, err := DecodeWAV(data)
	require.NoError(t, err)
	require.Equal(t, []byte{1, 0, 3, 0}, pcm)
}

func TestCaptureOnPCMReturnsEOFAfterFinish(t *testing.T) {
	c := newCapture(nil)
	_, _, err := c.Finish()
	require.NoError(t, err)

	n, err := c.onPCM([]byte{1, 2, 3})
	require.Equal(t, 0, n)
	require.ErrorIs(t, err, io.EOF)

	_, _, err = c.Finish()
	require.ErrorIs(t, err, ErrRecordingStopped)
}

func TestCaptureFinishWithoutFramesIsEmpty(t *testing.T) {
	c := newCapture(nil)
	data, mimeType, err := c.Finish()
	require.NoError(t, err)
	require.Empty(t, data)
	require.Equal(t, MIMEWAV, mimeType)
}

func TestOpenMicrophoneFailsWhenPulseUnavailable(t *testing.T) {
	t.Setenv("PULSE_SERVER", "unix:/tmp/definitely-missing-pulse-server")
	_, err := OpenMicrophone(context.Background(), MicrophoneOptions{})
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrDeviceUnavailable))
}

func TestWriterFuncDelegatesWrite(t *testing.T) {
	called := false
	writer := writerFunc(func(b []byte) (int, error) {
		called = true
		return len(b), nil
	})

	n, err := writer.Write([]byte{1, 2, 3})
	require.NoError(t, err)
	require.Equal(t, 3, n)
	require.True(t, called)
}
