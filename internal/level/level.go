// Package level turns live PCM into meter values for the bar visualizer.
package level

import (
	"encoding/binary"
	"math"
	"sync"
	"time"
)

const (
	floorDB   = -60.0
	decayRate = 1.5 // full scale per second
)

// Meter tracks a decaying loudness level plus a short history for bar rendering.
// It is safe for concurrent use by capture/playback taps and a render loop.
type Meter struct {
	now func() time.Time

	mu      sync.Mutex
	level   float64
	updated time.Time
	history []float64
	next    int
}

// NewMeter keeps the last bars observations for Bars.
func NewMeter(bars int) *Meter {
	if bars <= 0 {
		bars = 8
	}
	return &Meter{now: time.Now, history: make([]float64, bars)}
}

// ObservePCM16LE feeds little-endian PCM16 bytes. It matches media.Tap.
func (m *Meter) ObservePCM16LE(frame []byte) {
	if len(frame) < 2 {
		return
	}
	var sum float64
	n := len(frame) / 2
	for i := 0; i < n; i++ {
		s := float64(int16(binary.LittleEndian.Uint16(frame[i*2:])))
		sum += s * s
	}
	m.observeRMS(math.Sqrt(sum/float64(n)) / 32768)
}

// ObserveSamples feeds decoded PCM16 samples.
func (m *Meter) ObserveSamples(samples []int16) {
	if len(samples) == 0 {
		return
	}
	var sum float64
	for _, s := range samples {
		v := float64(s)
		sum += v * v
	}
	m.observeRMS(math.Sqrt(sum/float64(len(samples))) / 32768)
}

func (m *Meter) observeRMS(rms float64) {
	value := Normalize(rms)

	m.mu.Lock()
	defer m.mu.Unlock()
	current := m.decayedLocked()
	if value > current {
		current = value
	}
	m.level = current
	m.updated = m.now()
	m.history[m.next] = value
	m.next = (m.next + 1) % len(m.history)
}

// Level returns the current level in [0,1], decaying toward silence when
// no frames arrive.
func (m *Meter) Level() float32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return float32(m.decayedLocked())
}

// Bars returns the recent observations oldest first.
func (m *Meter) Bars() []float32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]float32, len(m.history))
	for i := range m.history {
		out[i] = float32(m.history[(m.next+i)%len(m.history)])
	}
	return out
}

// Reset returns the meter to silence.
func (m *Meter) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.level = 0
	m.updated = time.Time{}
	for i := range m.history {
		m.history[i] = 0
	}
	m.next = 0
}

func (m *Meter) decayedLocked() float64 {
	if m.updated.IsZero() {
		return m.level
	}
	elapsed := m.now().Sub(m.updated).Seconds()
	v := m.level - elapsed*decayRate
	if v < 0 {
		return 0
	}
	return v
}

// Normalize maps linear RMS (0..1) onto a 60dB display range.
func Normalize(rms float64) float64 {
	if rms <= 0 {
		return 0
	}
	db := 20 * math.Log10(rms)
	if db <= floorDB {
		return 0
	}
	if db >= 0 {
		return 1
	}
	return (db - floorDB) / -floorDB
}

// Simulated returns n bar heights for a speaking animation at time t, used
// when the audio path exposes no samples.
func Simulated(t time.Time, n int) []float32 {
	out := make([]float32, n)
	phase := float64(t.UnixMilli()) / 1000
	for i := range out {
		v := 0.35 + 0.3*math.Sin(phase*7+float64(i)*1.3) + 0.2*math.Sin(phase*13+float64(i)*0.7)
		out[i] = float32(math.Max(0.05, math.Min(1, v)))
	}
	return out
}
