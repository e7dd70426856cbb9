// Package pipeline connects finished answers to the transcription bridge
// using runtime config, with optional debug dumps of every submitted blob.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rbright/rehearse/internal/config"
	"github.com/rbright/rehearse/internal/media"
	"github.com/rbright/rehearse/internal/transcribe"
	"github.com/rbright/rehearse/internal/transcript"
)

// Transcriber satisfies the session transcriber contract.
type Transcriber struct {
	cfg    config.Config
	bridge *transcribe.Bridge
	logger *slog.Logger
}

// NewTranscriber builds the bridge from config. A nil backend yields an
// empty transcript for every answer.
func NewTranscriber(cfg config.Config, backend transcribe.Backend, logger *slog.Logger) *Transcriber {
	return &Transcriber{
		cfg:    cfg,
		bridge: transcribe.New(logger, backend, BridgeOptions(cfg)),
		logger: logger,
	}
}

// BridgeOptions maps transcribe and transcript config onto retry options.
func BridgeOptions(cfg config.Config) transcribe.Options {
	opts := transcribe.DefaultOptions()
	if cfg.Transcribe.MaxAttempts > 0 {
		opts.MaxAttempts = uint(cfg.Transcribe.MaxAttempts)
	}
	if cfg.Transcribe.TimeoutMS > 0 {
		opts.AttemptTimeout = time.Duration(cfg.Transcribe.TimeoutMS) * time.Millisecond
	}
	opts.Normalize = transcript.Options{
		CapitalizeSentences: cfg.Transcript.CapitalizeSentences,
		StripFillers:        cfg.Transcript.StripFillers,
	}
	return opts
}

// Start dumps the blob when enabled and hands it to the bridge.
func (t *Transcriber) Start(ctx context.Context, blob media.Blob, done func(string)) {
	t.writeDebugBlob(blob)
	t.bridge.Start(ctx, blob, done)
}

// writeDebugBlob writes the recording when debug.audio_dump is enabled.
func (t *Transcriber) writeDebugBlob(blob media.Blob) {
	if !t.cfg.Debug.EnableAudioDump || blob.Empty() {
		return
	}

	file, err := createDebugFile("answer", extensionFor(blob.MIMEType))
	if err != nil {
		t.logWarn(fmt.Sprintf("unable to create debug audio dump: %v", err))
		return
	}
	defer file.Close()

	if _, err := file.Write(blob.Data); err != nil {
		t.logWarn(fmt.Sprintf("unable to write debug audio dump: %v", err))
	}
}

func extensionFor(mimeType string) string {
	switch mimeType {
	case media.MIMEWAV:
		return "wav"
	case media.MIMEWebM:
		return "webm"
	default:
		return "bin"
	}
}

// createDebugFile creates a timestamped artifact under the state directory.
func createDebugFile(prefix string, extension string) (*os.File, error) {
	stateDir, err := resolveStateDir()
	if err != nil {
		return nil, err
	}
	debugDir := filepath.Join(stateDir, "rehearse", "debug")
	if err := os.MkdirAll(debugDir, 0o700); err != nil {
		return nil, fmt.Errorf("create debug dir: %w", err)
	}

	timestamp := time.Now().Format("20060102-150405.000")
	path := filepath.Join(debugDir, fmt.Sprintf("%s-%s.%s", prefix, timestamp, extension))
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open debug file %q: %w", path, err)
	}
	return file, nil
}

// resolveStateDir returns XDG_STATE_HOME fallback path for debug artifacts.
func resolveStateDir() (string, error) {
	if xdg := strings.TrimSpace(os.Getenv("XDG_STATE_HOME")); xdg != "" {
		return xdg, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".local", "state"), nil
}

func (t *Transcriber) logWarn(message string) {
	if t.logger == nil {
		return
	}
	t.logger.Warn(message)
}
