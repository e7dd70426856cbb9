// Package doctor runs readiness diagnostics for config, devices, and backends.
package doctor

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/rbright/rehearse/internal/bank"
	"github.com/rbright/rehearse/internal/config"
	"github.com/rbright/rehearse/internal/media"
)

// Check is one doctor assertion result.
type Check struct {
	Name    string
	Pass    bool
	Message string
}

// Report is the full doctor output contract.
type Report struct {
	Checks []Check
}

// OK returns true when all checks pass.
func (r Report) OK() bool {
	for _, check := range r.Checks {
		if !check.Pass {
			return false
		}
	}
	return true
}

// String renders the report as user-facing text output.
func (r Report) String() string {
	var b strings.Builder
	for _, check := range r.Checks {
		status := "OK"
		if !check.Pass {
			status = "FAIL"
		}
		b.WriteString(fmt.Sprintf("[%s] %s: %s\n", status, check.Name, check.Message))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// Run executes environment, device, and storage checks for a loaded config.
func Run(ctx context.Context, cfg config.Loaded) Report {
	checks := []Check{}

	checks = append(checks, Check{
		Name:    "config",
		Pass:    true,
		Message: fmt.Sprintf("loaded %q", cfg.Path),
	})

	keyEnv := cfg.Config.Gemini.APIKeyEnv
	checks = append(checks, checkEnv(keyEnv, func(v string) bool {
		return strings.TrimSpace(v) != ""
	}, "API key present", fmt.Sprintf("%s is empty; speech falls back to the local narrator and answers stay untranscribed", keyEnv)))

	checks = append(checks, checkCommand(cfg.Config.Speech.Fallback.Argv, "speech.fallback_cmd"))
	checks = append(checks, checkCommand(cfg.Config.Clipboard.Argv, "clipboard_cmd"))
	checks = append(checks, checkMicrophone(ctx, cfg.Config))
	checks = append(checks, checkCamera(cfg.Config)...)
	checks = append(checks, checkBank(ctx, cfg.Config))

	return Report{Checks: checks}
}

// checkEnv validates an environment variable through a caller-supplied predicate.
func checkEnv(name string, predicate func(string) bool, okMsg, failMsg string) Check {
	value := os.Getenv(name)
	if predicate(value) {
		return Check{Name: name, Pass: true, Message: okMsg}
	}
	return Check{Name: name, Pass: false, Message: failMsg}
}

// checkCommand validates that argv contains a runnable command.
func checkCommand(argv []string, name string) Check {
	if len(argv) == 0 {
		return Check{Name: name, Pass: false, Message: "command is empty"}
	}
	return checkBinary(argv[0], fmt.Sprintf("%s command is available", name))
}

// checkBinary validates that a binary exists in PATH.
func checkBinary(bin string, okMsg string) Check {
	path, err := exec.LookPath(bin)
	if err != nil {
		return Check{Name: bin, Pass: false, Message: fmt.Sprintf("binary not found in PATH: %s", bin)}
	}
	return Check{Name: bin, Pass: true, Message: fmt.Sprintf("found at %s (%s)", path, okMsg)}
}

// checkMicrophone runs live device selection to surface fallback issues.
func checkMicrophone(ctx context.Context, cfg config.Config) Check {
	selection, err := media.SelectDevice(ctx, cfg.Audio.Input, cfg.Audio.Fallback)
	if err != nil {
		return Check{Name: "audio.device", Pass: false, Message: err.Error()}
	}
	message := fmt.Sprintf("selected %q", selection.Device.ID)
	if selection.Warning != "" {
		message = message + " (" + selection.Warning + ")"
	}
	return Check{Name: "audio.device", Pass: true, Message: message}
}

// checkCamera verifies the v4l2 node and the encoder camera answers need.
func checkCamera(cfg config.Config) []Check {
	device := strings.TrimSpace(cfg.Video.Device)
	node := Check{Name: "video.device", Pass: true, Message: fmt.Sprintf("%s present", device)}
	if device == "" {
		node = Check{Name: "video.device", Pass: false, Message: "video.device is empty"}
	} else if _, err := os.Stat(device); err != nil {
		node = Check{Name: "video.device", Pass: false, Message: fmt.Sprintf("%s unavailable; camera answers disabled", device)}
	}
	return []Check{node, checkBinary(cfg.Video.FFmpegCmd, "camera encoder")}
}

// checkBank opens the question store to surface permission or schema issues.
func checkBank(ctx context.Context, cfg config.Config) Check {
	path := strings.TrimSpace(cfg.Bank.Path)
	if path == "" {
		var err error
		path, err = bank.DefaultPath()
		if err != nil {
			return Check{Name: "bank", Pass: false, Message: err.Error()}
		}
	}

	openCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	store, err := bank.Open(openCtx, path)
	if err != nil {
		return Check{Name: "bank", Pass: false, Message: err.Error()}
	}
	defer store.Close()

	return Check{Name: "bank", Pass: true, Message: fmt.Sprintf("opened %s", path)}
}
