package media

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeWAVHeader(t *testing.T) {
	out := EncodeWAV([]byte{1, 2, 3, 4}, 16000, 0)
	require.Len(t, out, wavHeaderSize+4)
	require.Equal(t, "RIFF", string(out[0:4]))
	require.Equal(t, "WAVE", string(out[8:12]))
	require.Equal(t, "data", string(out[36:40]))
}

func TestDecodeWAVRejectsGarbage(t *testing.T) {
	_, _, err := DecodeWAV([]byte("short"))
	require.Error(t, err)

	bogus := make([]byte, wavHeaderSize)
	copy(bogus, "JUNK")
	_, _, err = DecodeWAV(bogus)
	require.Error(t, err)
}

func TestDecodeWAVClampsTruncatedPayload(t *testing.T) {
	full := EncodeWAV([]byte{1, 0, 2, 0, 3, 0}, 24000, 1)
	pcm, rate, err := DecodeWAV(full[:len(full)-2])
	require.NoError(t, err)
	require.Equal(t, 24000, rate)
	require.Equal(t, []byte{1, 0, 2, 0}, pcm)
}
