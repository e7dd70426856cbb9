package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rbright/rehearse/internal/bank"
	"github.com/rbright/rehearse/internal/level"
	"github.com/rbright/rehearse/internal/media"
	"github.com/rbright/rehearse/internal/redo"
	"github.com/rbright/rehearse/internal/speech"
)

type fakeSpeaker struct {
	mu        sync.Mutex
	narrated  []string
	played    [][]byte
	rates     []int
	prefetch  []string
	onEnded   func()
	stops     int
	isPlaying bool
}

func (s *fakeSpeaker) Narrate(_ context.Context, text string) speech.Token {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.narrated = append(s.narrated, text)
	s.isPlaying = true
	return speech.Token(len(s.narrated))
}

func (s *fakeSpeaker) SpeakAt(buffer []byte, rate int) speech.Token {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.played = append(s.played, buffer)
	s.rates = append(s.rates, rate)
	s.isPlaying = true
	return speech.Token(len(s.played))
}

func (s *fakeSpeaker) Prefetch(_ context.Context, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prefetch = append(s.prefetch, text)
}

func (s *fakeSpeaker) OnEnded(cb func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onEnded = cb
}

func (s *fakeSpeaker) IsPlaying() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isPlaying
}

func (s *fakeSpeaker) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stops++
	s.onEnded = nil
	s.isPlaying = false
}

// end finishes the current playback, firing the registered callback.
func (s *fakeSpeaker) end() {
	s.mu.Lock()
	cb := s.onEnded
	s.onEnded = nil
	s.isPlaying = false
	s.mu.Unlock()
	if cb != nil {
		cb()
	}
}

// captured returns the callback currently registered without firing it.
func (s *fakeSpeaker) captured() func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.onEnded
}

func (s *fakeSpeaker) stopCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stops
}

func (s *fakeSpeaker) narrations() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.narrated...)
}

type fakeHardware struct {
	data   []byte
	mime   string
	closes *atomic.Int32
	exited chan struct{}
	hold   chan struct{}
}

func (h *fakeHardware) Record(tap media.Tap) (media.Recorder, error) {
	if tap != nil && h.mime == media.MIMEWAV {
		tap([]byte{0x00, 0x40, 0x00, 0x40})
	}
	return &fakeRecorder{data: h.data, mime: h.mime, exited: h.exited, hold: h.hold}, nil
}

func (h *fakeHardware) Close() error {
	h.closes.Add(1)
	return nil
}

type fakeRecorder struct {
	data    []byte
	mime    string
	pauses  int
	resumes int
	exited  chan struct{}
	hold    chan struct{}
}

func (r *fakeRecorder) Pause() error  { r.pauses++; return nil }
func (r *fakeRecorder) Resume() error { r.resumes++; return nil }
func (r *fakeRecorder) Finish() ([]byte, string, error) {
	if r.hold != nil {
		<-r.hold
	}
	return r.data, r.mime, nil
}

// Exited mimics an encoder process; nil means the recorder never ends on its own.
func (r *fakeRecorder) Exited() <-chan struct{} { return r.exited }

type fakeTranscriber struct {
	mu    sync.Mutex
	blobs []media.Blob
	dones []func(string)
}

func (f *fakeTranscriber) Start(_ context.Context, blob media.Blob, done func(string)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.blobs = append(f.blobs, blob)
	f.dones = append(f.dones, done)
}

func (f *fakeTranscriber) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.blobs)
}

func (f *fakeTranscriber) resolve(i int, text string) {
	f.mu.Lock()
	done := f.dones[i]
	f.mu.Unlock()
	done(text)
}

type fakeIndicator struct {
	recording atomic.Int32
	errors    atomic.Int32
	stops     atomic.Int32
	completes atomic.Int32
	cancels   atomic.Int32
	hides     atomic.Int32
}

func (f *fakeIndicator) ShowRecording(context.Context)     { f.recording.Add(1) }
func (f *fakeIndicator) ShowTranscribing(context.Context)  {}
func (f *fakeIndicator) ShowError(context.Context, string) { f.errors.Add(1) }
func (f *fakeIndicator) CueStop(context.Context)           { f.stops.Add(1) }
func (f *fakeIndicator) CueComplete(context.Context)       { f.completes.Add(1) }
func (f *fakeIndicator) CueCancel(context.Context)         { f.cancels.Add(1) }
func (f *fakeIndicator) Hide(context.Context)              { f.hides.Add(1) }

type fakeListener struct {
	changes   atomic.Int32
	completes atomic.Int32
	// react runs on every change, outside the controller lock.
	react func(View)
}

func (l *fakeListener) OnChange(v View) {
	l.changes.Add(1)
	if l.react != nil {
		l.react(v)
	}
}

func (l *fakeListener) OnComplete() { l.completes.Add(1) }

type fakeTicker struct {
	ch      chan time.Time
	stopped atomic.Bool
}

func (t *fakeTicker) C() <-chan time.Time { return t.ch }
func (t *fakeTicker) Stop()               { t.stopped.Store(true) }

type fakeSuggester struct {
	hint string
	err  error
}

func (f fakeSuggester) SuggestTalkingPoints(context.Context, string) (string, error) {
	return f.hint, f.err
}

type harness struct {
	ctrl        *Controller
	speech      *fakeSpeaker
	transcriber *fakeTranscriber
	indicator   *fakeIndicator
	listener    *fakeListener
	meter       *level.Meter
	pref        *redo.Preference

	opens  atomic.Int32
	closes atomic.Int32

	mu         sync.Mutex
	tickers    []*fakeTicker
	voice      []byte
	camera     []byte
	failKind   media.Kind
	cameraExit chan struct{}
	finishHold chan struct{}

	driver *media.Driver
}

var voiceAnswer = media.EncodeWAV([]byte{1, 0, 2, 0, 3, 0, 4, 0}, media.CaptureSampleRate, 1)

func newHarness(t *testing.T, opts Options) *harness {
	t.Helper()

	h := &harness{
		speech:      &fakeSpeaker{},
		transcriber: &fakeTranscriber{},
		indicator:   &fakeIndicator{},
		listener:    &fakeListener{},
		meter:       level.NewMeter(8),
		pref:        redo.NewPreference(false),
		voice:       voiceAnswer,
		camera:      []byte("webm-bytes"),
	}

	opener := func(kind media.Kind) media.Opener {
		return func(context.Context) (media.Hardware, error) {
			h.mu.Lock()
			defer h.mu.Unlock()
			if h.failKind == kind {
				return nil, errors.New("permission denied")
			}
			h.opens.Add(1)
			if kind == media.KindVideo {
				return &fakeHardware{data: h.camera, mime: media.MIMEWebM, closes: &h.closes, exited: h.cameraExit, hold: h.finishHold}, nil
			}
			return &fakeHardware{data: h.voice, mime: media.MIMEWAV, closes: &h.closes, hold: h.finishHold}, nil
		}
	}
	driver := media.NewDriver(nil, nil, map[media.Kind]media.Opener{
		media.KindAudio: opener(media.KindAudio),
		media.KindVideo: opener(media.KindVideo),
	})
	h.driver = driver

	opts.NewTicker = func(time.Duration) Ticker {
		ticker := &fakeTicker{ch: make(chan time.Time)}
		h.mu.Lock()
		h.tickers = append(h.tickers, ticker)
		h.mu.Unlock()
		return ticker
	}

	h.ctrl = NewController(nil, Deps{
		Speech:      h.speech,
		Media:       driver,
		Transcriber: h.transcriber,
		Suggester:   fakeSuggester{hint: "• Situation\n• Action"},
		Indicator:   h.indicator,
		Listener:    h.listener,
		Meter:       h.meter,
		Redo:        redo.NewGate(h.pref),
	}, opts)
	t.Cleanup(h.ctrl.Close)
	return h
}

// tick delivers one duration tick synchronously.
func (h *harness) tick() {
	h.ctrl.mu.Lock()
	gen, take := h.ctrl.gen, h.ctrl.take
	h.ctrl.mu.Unlock()
	h.ctrl.tick(gen, take)
}

// blobsHeld counts finished recordings still kept in memory.
func (h *harness) blobsHeld() int {
	return h.driver.Library().Len()
}

func (h *harness) held() int {
	return int(h.opens.Load() - h.closes.Load())
}

func (h *harness) lastTicker() *fakeTicker {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.tickers) == 0 {
		return nil
	}
	return h.tickers[len(h.tickers)-1]
}

func questions(texts ...string) []bank.Question {
	out := make([]bank.Question, 0, len(texts))
	for i, text := range texts {
		out = append(out, bank.Question{
			ID:       string(rune('a' + i)),
			Text:     text,
			Category: bank.CategoryEngineering,
			Type:     bank.TypeBackground,
		})
	}
	return out
}
