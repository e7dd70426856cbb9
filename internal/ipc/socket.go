package ipc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v5"
)

var ErrAlreadyRunning = errors.New("a practice session is already running")

func RuntimeSocketPath() (string, error) {
	runtimeDir := strings.TrimSpace(os.Getenv("XDG_RUNTIME_DIR"))
	if runtimeDir == "" {
		return "", errors.New("XDG_RUNTIME_DIR is not set")
	}
	return filepath.Join(runtimeDir, "rehearse.sock"), nil
}

// Acquire listens on path, replacing a socket left behind by a dead session.
// A live session yields ErrAlreadyRunning; a socket that accepts but never
// answers is left in place.
func Acquire(ctx context.Context, path string, probeTimeout time.Duration, retries int) (net.Listener, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("ensure runtime socket dir: %w", err)
	}
	if retries < 0 {
		retries = 0
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 25 * time.Millisecond
	policy.MaxInterval = 200 * time.Millisecond

	listener, err := backoff.Retry(ctx, func() (net.Listener, error) {
		listener, err := net.Listen("unix", path)
		if err == nil {
			_ = os.Chmod(path, 0o600)
			return listener, nil
		}
		if !errors.Is(err, syscall.EADDRINUSE) {
			return nil, backoff.Permanent(fmt.Errorf("listen unix %s: %w", path, err))
		}

		alive, probeErr := Probe(ctx, path, probeTimeout)
		if alive {
			return nil, backoff.Permanent(ErrAlreadyRunning)
		}
		if probeErr != nil {
			return nil, backoff.Permanent(fmt.Errorf("probe existing socket %s: %w", path, probeErr))
		}
		if removeErr := os.Remove(path); removeErr != nil && !errors.Is(removeErr, os.ErrNotExist) {
			return nil, backoff.Permanent(fmt.Errorf("remove stale socket %s: %w", path, removeErr))
		}
		return nil, fmt.Errorf("stale socket %s removed", path)
	},
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(uint(retries)+1),
	)
	if err != nil {
		return nil, err
	}
	return listener, nil
}
