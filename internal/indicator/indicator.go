// Package indicator handles desktop notices and audio cue playback.
package indicator

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/rbright/rehearse/internal/config"
	"github.com/rbright/rehearse/internal/speech"
)

// Notifier posts replaceable desktop notifications and plays cues. It
// satisfies the session indicator contract.
type Notifier struct {
	cfg      config.IndicatorConfig
	logger   *slog.Logger
	messages messages

	mu                    sync.Mutex
	desktopNotificationID uint32
	soundMu               sync.Mutex
	cueOut                speech.Output

	// notify and dismiss are swapped in tests.
	notify  func(ctx context.Context, n notice) (uint32, error)
	dismiss func(ctx context.Context, id uint32) error
}

// NewNotifier creates an indicator from config.
func NewNotifier(cfg config.IndicatorConfig, logger *slog.Logger) *Notifier {
	return &Notifier{
		cfg:      cfg,
		logger:   logger,
		messages: messagesFor(cfg),
		notify:   desktopNotify,
		dismiss:  desktopDismiss,
		cueOut:   speech.PulseOutput{MediaName: "rehearse cue"},
	}
}

// ShowRecording signals recording start and emits the start cue.
func (n *Notifier) ShowRecording(ctx context.Context) {
	n.playCue(cueStart)
	if !n.cfg.Enable {
		return
	}
	n.run(ctx, func(ctx context.Context) error {
		return n.post(ctx, notice{Icon: "media-record", Summary: n.messages.recording, TimeoutMS: 300000})
	})
}

// ShowTranscribing signals the post-capture transcription state.
func (n *Notifier) ShowTranscribing(ctx context.Context) {
	if !n.cfg.Enable {
		return
	}
	n.run(ctx, func(ctx context.Context) error {
		return n.post(ctx, notice{Icon: "accessories-text-editor", Summary: n.messages.processing, TimeoutMS: 300000})
	})
}

// ShowError displays a short-lived critical notice with text as its body.
func (n *Notifier) ShowError(ctx context.Context, text string) {
	if !n.cfg.Enable {
		return
	}
	timeout := n.cfg.ErrorTimeoutMS
	if timeout <= 0 {
		timeout = 1200
	}
	n.run(ctx, func(ctx context.Context) error {
		return n.post(ctx, notice{
			Icon:      "dialog-error",
			Summary:   n.messages.errorText,
			Body:      text,
			Urgency:   urgencyCritical,
			TimeoutMS: timeout,
		})
	})
}

// CueStop emits the stop cue.
func (n *Notifier) CueStop(context.Context) {
	n.playCue(cueStop)
}

// CueComplete emits the transcript-ready cue.
func (n *Notifier) CueComplete(context.Context) {
	n.playCue(cueComplete)
}

// CueCancel emits the discard cue.
func (n *Notifier) CueCancel(context.Context) {
	n.playCue(cueCancel)
}

// Hide dismisses the active notification.
func (n *Notifier) Hide(ctx context.Context) {
	if !n.cfg.Enable {
		return
	}
	n.run(ctx, func(ctx context.Context) error {
		n.mu.Lock()
		id := n.desktopNotificationID
		n.desktopNotificationID = 0
		n.mu.Unlock()

		if id == 0 {
			return nil
		}
		return n.dismiss(ctx, id)
	})
}

// post sends a notification that replaces the previous one.
func (n *Notifier) post(ctx context.Context, msg notice) error {
	n.mu.Lock()
	msg.ReplaceID = n.desktopNotificationID
	n.mu.Unlock()

	msg.AppName = strings.TrimSpace(n.cfg.DesktopAppName)
	if msg.AppName == "" {
		msg.AppName = "rehearse"
	}
	if msg.Urgency == urgencyLow {
		msg.Urgency = urgencyNormal
	}

	id, err := n.notify(ctx, msg)
	if err != nil {
		return err
	}

	n.mu.Lock()
	n.desktopNotificationID = id
	n.mu.Unlock()
	return nil
}

// run executes an indicator operation with a bounded timeout.
func (n *Notifier) run(ctx context.Context, fn func(context.Context) error) {
	runCtx, cancel := context.WithTimeout(ctx, 400*time.Millisecond)
	defer cancel()
	if err := fn(runCtx); err != nil {
		n.log("indicator dispatch failed", err)
	}
}

// playCue serializes cue playback and emits audio asynchronously.
func (n *Notifier) playCue(kind cueKind) {
	if !n.cfg.SoundEnable {
		return
	}
	go func() {
		n.soundMu.Lock()
		defer n.soundMu.Unlock()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := emitCue(ctx, kind, n.cfg, n.cueOut); err != nil {
			n.log("indicator audio cue failed", err)
		}
	}()
}

// log emits debug-only indicator failures to the runtime logger.
func (n *Notifier) log(message string, err error) {
	if n.logger == nil || err == nil {
		return
	}
	n.logger.Debug(message, "error", err.Error())
}
