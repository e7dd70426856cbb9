// Package session owns the per-question practice flow: speech, capture,
// transcription, redo, and navigation across a session of questions.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/rbright/rehearse/internal/bank"
	"github.com/rbright/rehearse/internal/fsm"
	"github.com/rbright/rehearse/internal/level"
	"github.com/rbright/rehearse/internal/media"
	"github.com/rbright/rehearse/internal/redo"
	"github.com/rbright/rehearse/internal/speech"
)

var (
	// ErrNoSession is returned by navigation before any questions are loaded.
	ErrNoSession = errors.New("no practice session loaded")
	// ErrClosed is returned by every operation after Close.
	ErrClosed = errors.New("session closed")
	// ErrNoPendingRedo is returned by ConfirmRedo when no confirmation is open.
	ErrNoPendingRedo = errors.New("no redo confirmation pending")
	// ErrNoRecording is returned by PlayAnswer when review has no voice recording.
	ErrNoRecording = errors.New("no recorded answer to play")
)

// Speaker is the session-facing subset of the speech controller.
type Speaker interface {
	Narrate(ctx context.Context, text string) speech.Token
	SpeakAt(buffer []byte, sampleRate int) speech.Token
	Prefetch(ctx context.Context, text string)
	OnEnded(func())
	IsPlaying() bool
	Stop()
}

// Capturer acquires media streams. Finished recordings land in its Library.
type Capturer interface {
	Acquire(ctx context.Context, kind media.Kind) (*media.Stream, error)
	Library() *media.Library
}

// Transcriber converts a finished recording asynchronously; done receives
// "" on failure and is skipped once ctx ends.
type Transcriber interface {
	Start(ctx context.Context, blob media.Blob, done func(string))
}

// Suggester produces coaching hints for a question.
type Suggester interface {
	SuggestTalkingPoints(ctx context.Context, question string) (string, error)
}

// Indicator is the session-facing subset of indicator behavior.
type Indicator interface {
	ShowRecording(context.Context)
	ShowTranscribing(context.Context)
	ShowError(context.Context, string)
	CueStop(context.Context)
	CueComplete(context.Context)
	CueCancel(context.Context)
	Hide(context.Context)
}

// Listener observes view changes. Calls happen outside the controller lock.
type Listener interface {
	OnChange(View)
	OnComplete()
}

type noopIndicator struct{}

func (noopIndicator) ShowRecording(context.Context)     {}
func (noopIndicator) ShowTranscribing(context.Context)  {}
func (noopIndicator) ShowError(context.Context, string) {}
func (noopIndicator) CueStop(context.Context)           {}
func (noopIndicator) CueComplete(context.Context)       {}
func (noopIndicator) CueCancel(context.Context)         {}
func (noopIndicator) Hide(context.Context)              {}

type noopListener struct{}

func (noopListener) OnChange(View) {}
func (noopListener) OnComplete()   {}

type silentSpeaker struct{}

func (silentSpeaker) Narrate(context.Context, string) speech.Token { return 0 }
func (silentSpeaker) SpeakAt([]byte, int) speech.Token             { return 0 }
func (silentSpeaker) Prefetch(context.Context, string)             {}
func (silentSpeaker) OnEnded(cb func()) {
	if cb != nil {
		go cb()
	}
}
func (silentSpeaker) IsPlaying() bool { return false }
func (silentSpeaker) Stop()           {}

// Deps are the collaborators a controller drives. Nil fields get inert defaults
// except Media, without which voice and camera modes report the device missing.
type Deps struct {
	Speech      Speaker
	Media       Capturer
	Transcriber Transcriber
	Suggester   Suggester
	Indicator   Indicator
	Listener    Listener
	Meter       *level.Meter
	Redo        *redo.Gate
}

// Options tune flow policy.
type Options struct {
	// AutoStartVoice starts a voice recording as soon as the question is read.
	AutoStartVoice bool
	// StartDelay is the pause between entering a question and reading it.
	StartDelay   time.Duration
	TickInterval time.Duration
	NewTicker    TickerFactory
}

// CaptureResult is the answer captured for the current question.
type CaptureResult struct {
	Mode            fsm.Mode
	MediaURL        string
	Transcript      string
	DurationSeconds int
	IsTranscribing  bool
	Paused          bool
}

// View is a point-in-time copy of everything a UI renders.
type View struct {
	State       fsm.State
	Question    bank.Question
	Index       int
	Total       int
	Result      CaptureResult
	PendingRedo fsm.Mode
	DontAsk     bool
	Notice      string
	Hint        string
	Complete    bool
}

// Controller serializes every input and async completion under one mutex.
// Completions carry the generation current at launch and are dropped once it moves.
type Controller struct {
	logger *slog.Logger
	deps   Deps
	opts   Options

	mu        sync.Mutex
	state     fsm.State
	gen       uint64 // bumped per question
	take      uint64 // bumped per capture attempt
	questions []bank.Question
	index     int
	question  bank.Question
	result    CaptureResult
	notice    string
	hint      string
	complete  bool
	closed    bool

	stream    *media.Stream
	recording *media.Recording

	attempt       context.Context
	cancelAttempt context.CancelFunc
	delay         *time.Timer
	ticker        Ticker
	tickerDone    chan struct{}
	deferred      []func()
}

// NewController wires collaborators with safe fallbacks.
func NewController(logger *slog.Logger, deps Deps, opts Options) *Controller {
	if deps.Speech == nil {
		deps.Speech = silentSpeaker{}
	}
	if deps.Indicator == nil {
		deps.Indicator = noopIndicator{}
	}
	if deps.Listener == nil {
		deps.Listener = noopListener{}
	}
	if deps.Redo == nil {
		deps.Redo = redo.NewGate(nil)
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = time.Second
	}
	if opts.NewTicker == nil {
		opts.NewTicker = NewRealTicker
	}
	return &Controller{
		logger: logger,
		deps:   deps,
		opts:   opts,
		state:  fsm.StateReading,
	}
}

// Start loads questions and enters the first one.
func (c *Controller) Start(questions []bank.Question) error {
	if len(questions) == 0 {
		return ErrNoSession
	}
	err := c.update(func() error {
		c.questions = append([]bank.Question(nil), questions...)
		c.index = 0
		c.complete = false
		c.enterQuestionLocked(c.questions[0])
		return nil
	})
	if err == nil {
		c.prefetch(1)
	}
	return err
}

// EnterQuestion restarts the flow for q. Without a loaded session q becomes
// a one-question session; otherwise it replaces the question at the current index.
func (c *Controller) EnterQuestion(q bank.Question) error {
	return c.update(func() error {
		if len(c.questions) == 0 {
			c.questions = []bank.Question{q}
			c.index = 0
		} else {
			c.questions[c.index] = q
		}
		c.enterQuestionLocked(q)
		return nil
	})
}

// Snapshot returns the current view.
func (c *Controller) Snapshot() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewLocked()
}

// State returns the current flow state.
func (c *Controller) State() fsm.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Close tears down speech, timers, and devices. No callbacks apply afterwards.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.gen++
	c.teardownLocked()
	c.dropAnswerLocked()
	if lib := c.blobs(); lib != nil {
		if c.logger != nil {
			c.logger.Debug("session closed", "blobs_released", lib.Len())
		}
		lib.Reset()
	}
	c.mu.Unlock()

	cleanupCtx, cancel := context.WithTimeout(context.Background(), 800*time.Millisecond)
	defer cancel()
	c.deps.Indicator.Hide(cleanupCtx)
}

// update runs fn under the lock and notifies the listener afterwards.
func (c *Controller) update(fn func() error) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	err := fn()
	view := c.viewLocked()
	deferred := c.deferred
	c.deferred = nil
	c.mu.Unlock()

	c.deps.Listener.OnChange(view)
	for _, run := range deferred {
		run()
	}
	return err
}

// afterUnlock queues fn to run once the current update releases the lock.
func (c *Controller) afterUnlock(fn func()) {
	c.deferred = append(c.deferred, fn)
}

func (c *Controller) viewLocked() View {
	pending, ok := c.deps.Redo.Pending()
	if !ok {
		pending = ""
	}
	return View{
		State:       c.state,
		Question:    c.question,
		Index:       c.index,
		Total:       len(c.questions),
		Result:      c.result,
		PendingRedo: pending,
		DontAsk:     c.deps.Redo.DontAsk(),
		Notice:      c.notice,
		Hint:        c.hint,
		Complete:    c.complete,
	}
}

// enterQuestionLocked is the reset contract: everything from the previous
// question is cancelled, released, or cleared before q is read.
func (c *Controller) enterQuestionLocked(q bank.Question) {
	c.gen++
	c.teardownLocked()

	c.question = q
	c.dropAnswerLocked()
	c.result = CaptureResult{}
	c.notice = ""
	c.hint = ""
	c.deps.Redo.Cancel()
	if next, err := fsm.Transition(c.state, fsm.EventReset); err == nil {
		c.state = next
	} else {
		c.state = fsm.StateReading
	}
	c.newAttemptLocked()

	gen := c.gen
	if c.opts.StartDelay <= 0 {
		c.beginSpeechLocked(gen)
		return
	}
	c.delay = time.AfterFunc(c.opts.StartDelay, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.closed || gen != c.gen || c.state != fsm.StateReading {
			return
		}
		c.beginSpeechLocked(gen)
	})
}

// teardownLocked cancels timers, playback, transcription, and devices.
func (c *Controller) teardownLocked() {
	if c.delay != nil {
		c.delay.Stop()
		c.delay = nil
	}
	c.deps.Speech.Stop()
	c.stopTickerLocked()
	c.releaseLocked()
	if c.cancelAttempt != nil {
		c.cancelAttempt()
		c.cancelAttempt = nil
	}
	if c.deps.Meter != nil {
		c.deps.Meter.Reset()
	}
}

func (c *Controller) blobs() *media.Library {
	if c.deps.Media == nil {
		return nil
	}
	return c.deps.Media.Library()
}

// dropAnswerLocked forgets the payload of the current answer. Callers reset
// c.result afterwards.
func (c *Controller) dropAnswerLocked() {
	if c.result.MediaURL == "" {
		return
	}
	if lib := c.blobs(); lib != nil {
		lib.Drop(c.result.MediaURL)
	}
}

// newAttemptLocked scopes async work to the current answer attempt.
func (c *Controller) newAttemptLocked() {
	if c.cancelAttempt != nil {
		c.cancelAttempt()
	}
	c.attempt, c.cancelAttempt = context.WithCancel(context.Background())
}

// beginSpeechLocked reads the question. Completion, including failure,
// leaves Reading.
func (c *Controller) beginSpeechLocked(gen uint64) {
	c.delay = nil
	c.deps.Speech.OnEnded(func() { c.speechEnded(gen) })
	c.deps.Speech.Narrate(c.attempt, c.question.Text)
}

func (c *Controller) speechEnded(gen uint64) {
	_ = c.update(func() error {
		if gen != c.gen || c.state != fsm.StateReading {
			return nil
		}
		if c.opts.AutoStartVoice {
			if err := c.fire(fsm.EventAutoVoice); err != nil {
				return err
			}
			c.enterCaptureLocked(fsm.ModeVoice)
			return nil
		}
		return c.fire(fsm.EventSpeechEnded)
	})
}

// SkipReading stops the question audio and moves on to mode selection.
func (c *Controller) SkipReading() error {
	return c.update(func() error {
		if c.state != fsm.StateReading {
			return c.fire(fsm.EventSpeechEnded)
		}
		if c.delay != nil {
			c.delay.Stop()
			c.delay = nil
		}
		c.deps.Speech.Stop()
		return c.fire(fsm.EventSpeechEnded)
	})
}

// fire applies one transition to the controller state.
func (c *Controller) fire(event fsm.Event) error {
	next, err := fsm.Transition(c.state, event)
	if err != nil {
		return err
	}
	if c.logger != nil {
		c.logger.Debug("flow transition", "from", string(c.state), "event", string(event), "to", string(next))
	}
	c.state = next
	return nil
}

// Hint asks the suggester for talking points on the current question.
func (c *Controller) Hint(ctx context.Context) (string, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return "", ErrClosed
	}
	suggester := c.deps.Suggester
	question := c.question.Text
	gen := c.gen
	c.mu.Unlock()

	if suggester == nil {
		return "", errors.New("hints are not configured")
	}
	hint, err := suggester.SuggestTalkingPoints(ctx, question)
	if err != nil {
		return "", err
	}

	_ = c.update(func() error {
		if gen == c.gen {
			c.hint = hint
		}
		return nil
	})
	return hint, nil
}
