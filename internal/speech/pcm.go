package speech

import "encoding/binary"

// DecodePCM16 converts little-endian PCM16 bytes to samples. A trailing odd
// byte is ignored.
func DecodePCM16(buffer []byte) []int16 {
	if len(buffer) < 2 {
		return nil
	}
	samples := make([]int16, len(buffer)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(buffer[i*2:]))
	}
	return samples
}
