package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"strings"
	"time"

	"github.com/rbright/rehearse/internal/bank"
	"github.com/rbright/rehearse/internal/config"
	"github.com/rbright/rehearse/internal/indicator"
	"github.com/rbright/rehearse/internal/ipc"
	"github.com/rbright/rehearse/internal/level"
	"github.com/rbright/rehearse/internal/media"
	"github.com/rbright/rehearse/internal/output"
	"github.com/rbright/rehearse/internal/pipeline"
	"github.com/rbright/rehearse/internal/redo"
	"github.com/rbright/rehearse/internal/session"
	"github.com/rbright/rehearse/internal/speech"
	"github.com/rbright/rehearse/internal/transcribe"
	"github.com/rbright/rehearse/internal/tui"
)

const meterBars = 24

func (r Runner) commandPractice(ctx context.Context, cfg config.Config, rawCategory string, logger *slog.Logger) int {
	if strings.TrimSpace(rawCategory) == "" {
		rawCategory = cfg.Session.Category
	}
	category, err := bank.ResolveCategory(rawCategory)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 2
	}

	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	listener, err := ipc.Acquire(ctx, socketPath, 180*time.Millisecond, 8)
	if err != nil {
		if errors.Is(err, ipc.ErrAlreadyRunning) {
			fmt.Fprintln(r.Stderr, "error: a practice session is already running")
			return 1
		}
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer func() {
		_ = listener.Close()
		_ = os.Remove(socketPath)
	}()

	store, err := openStore(ctx, cfg)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer func() { _ = store.Close() }()

	questions, err := bank.New(store, rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0))).
		Session(ctx, category, cfg.Session.Size)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if len(questions) == 0 {
		fmt.Fprintf(r.Stderr, "error: no questions in %q; add some with `rehearse add`\n", category)
		return 1
	}

	client, err := newGeminiClient(ctx, cfg, logger)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	meter := level.NewMeter(meterBars)

	// Typed nils would defeat the nil checks downstream.
	var (
		cache     *speech.Cache
		backend   transcribe.Backend
		suggester session.Suggester
	)
	if client != nil {
		cache = speech.NewCache(client, time.Duration(cfg.Speech.CacheTTLS)*time.Second, logger)
		backend = client
		suggester = client
	} else {
		logger.Warn("no gemini api key; using local narrator and skipping transcription",
			"env", cfg.Gemini.APIKeyEnv)
	}

	speaker := speech.NewController(
		logger,
		speech.PulseOutput{Tap: meter.ObserveSamples},
		cache,
		speech.CommandNarrator{Argv: cfg.Speech.Fallback.Argv},
	)
	defer speaker.Close()

	mic := media.MicrophoneOptions{Input: cfg.Audio.Input, Fallback: cfg.Audio.Fallback, Logger: logger}
	driver := media.NewDriver(logger, media.NewLibrary(), map[media.Kind]media.Opener{
		media.KindAudio: media.MicrophoneOpener(mic),
		media.KindVideo: media.CameraOpener(media.CameraOptions{
			Device:      cfg.Video.Device,
			FFmpeg:      cfg.Video.FFmpegCmd,
			AudioSource: cfg.Audio.Input,
			Microphone:  mic,
			Logger:      logger,
		}),
	})

	gate := redo.NewGate(redo.NewPreference(cfg.Redo.DontAsk))
	bridge := &tui.Bridge{}

	deps := session.Deps{
		Speech:      speaker,
		Media:       driver,
		Transcriber: pipeline.NewTranscriber(cfg, backend, logger),
		Indicator:   indicator.NewNotifier(cfg.Indicator, logger),
		Listener:    bridge,
		Meter:       meter,
		Redo:        gate,
		Suggester:   suggester,
	}
	ctrl := session.NewController(logger, deps, session.Options{
		AutoStartVoice: cfg.Session.AutoStartVoice,
		StartDelay:     time.Duration(cfg.Speech.StartDelayMS) * time.Millisecond,
	})

	serverCtx, serverCancel := context.WithCancel(ctx)
	defer serverCancel()
	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- (&ipc.Server{Handler: ctrl, Logger: logger}).Serve(serverCtx, listener)
	}()

	started := time.Now()
	if err := ctrl.Start(questions); err != nil {
		ctrl.Close()
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	logger.Info("practice started", "category", category, "questions", len(questions))

	runUI := r.RunUI
	if runUI == nil {
		runUI = tui.Run
	}
	uiErr := runUI(ctx, tui.Options{
		Session:  ctrl,
		Copier:   output.NewClipboard(cfg, logger),
		Category: category,
		Levels:   meter.Bars,
		Speaking: speaker.IsPlaying,
		Bars:     meterBars,
	}, bridge)

	final := ctrl.Snapshot()
	ctrl.Close()
	serverCancel()
	serverErr := <-serverErrCh
	logSessionSummary(logger, final, gate.Dialogs(), started)

	if uiErr != nil && !errors.Is(uiErr, context.Canceled) {
		fmt.Fprintf(r.Stderr, "error: %v\n", uiErr)
		return 1
	}
	if serverErr != nil {
		fmt.Fprintf(r.Stderr, "error: ipc server failed: %v\n", serverErr)
		return 1
	}
	if final.Complete {
		fmt.Fprintf(r.Stdout, "practice complete: %d of %d questions\n", final.Total, final.Total)
	} else {
		fmt.Fprintf(r.Stdout, "practice stopped at question %d of %d\n", final.Index+1, final.Total)
	}
	return 0
}
