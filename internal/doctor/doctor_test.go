package doctor

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rbright/rehearse/internal/config"
	"github.com/stretchr/testify/require"
)

func TestReportOKAndString(t *testing.T) {
	report := Report{Checks: []Check{
		{Name: "one", Pass: true, Message: "good"},
		{Name: "two", Pass: false, Message: "bad"},
	}}

	require.False(t, report.OK())
	text := report.String()
	require.Contains(t, text, "[OK] one: good")
	require.Contains(t, text, "[FAIL] two: bad")
}

func TestReportOKAllPassing(t *testing.T) {
	report := Report{Checks: []Check{{Name: "one", Pass: true}, {Name: "two", Pass: true}}}
	require.True(t, report.OK())
}

func TestCheckEnv(t *testing.T) {
	t.Setenv("TEST_DOCTOR_KEY", "secret")

	check := checkEnv("TEST_DOCTOR_KEY", func(v string) bool { return v != "" }, "looks good", "missing")
	require.True(t, check.Pass)
	require.Equal(t, "looks good", check.Message)
}

func TestCheckCommandEmpty(t *testing.T) {
	check := checkCommand(nil, "clipboard_cmd")
	require.False(t, check.Pass)
	require.Contains(t, check.Message, "command is empty")
}

func TestCheckBinaryFound(t *testing.T) {
	check := checkBinary("sh", "shell available")
	require.True(t, check.Pass)
	require.Contains(t, check.Message, "shell available")
}

func TestCheckBinaryMissing(t *testing.T) {
	check := checkBinary("definitely-not-a-real-binary", "unused")
	require.False(t, check.Pass)
	require.Contains(t, check.Message, "binary not found")
}

func TestCheckCommandUsesBinaryFromPath(t *testing.T) {
	dir := t.TempDir()
	scriptPath := filepath.Join(dir, "fake-bin")
	require.NoError(t, os.WriteFile(scriptPath, []byte("#!/usr/bin/env bash\nexit 0\n"), 0o755))
	t.Setenv("PATH", dir+":"+os.Getenv("PATH"))

	check := checkCommand([]string{"fake-bin", "--arg"}, "speech.fallback_cmd")
	require.True(t, check.Pass)
	require.Contains(t, check.Message, "speech.fallback_cmd command is available")
}

func TestCheckMicrophoneFailureWithInvalidPulseServer(t *testing.T) {
	t.Setenv("PULSE_SERVER", "unix:/tmp/definitely-missing-pulse-server")

	check := checkMicrophone(context.Background(), config.Default())
	require.False(t, check.Pass)
	require.Equal(t, "audio.device", check.Name)
}

func TestCheckCameraMissingDevice(t *testing.T) {
	cfg := config.Default()
	cfg.Video.Device = filepath.Join(t.TempDir(), "video9")

	checks := checkCamera(cfg)
	require.Len(t, checks, 2)
	require.False(t, checks[0].Pass)
	require.Contains(t, checks[0].Message, "camera answers disabled")
}

func TestCheckCameraPresentDevice(t *testing.T) {
	dir := t.TempDir()
	node := filepath.Join(dir, "video0")
	require.NoError(t, os.WriteFile(node, nil, 0o600))
	ffmpeg := filepath.Join(dir, "ffmpeg")
	require.NoError(t, os.WriteFile(ffmpeg, []byte("#!/usr/bin/env sh\nexit 0\n"), 0o755))
	t.Setenv("PATH", dir+":"+os.Getenv("PATH"))

	cfg := config.Default()
	cfg.Video.Device = node

	checks := checkCamera(cfg)
	require.True(t, checks[0].Pass)
	require.True(t, checks[1].Pass)
}

func TestCheckBankOpensStore(t *testing.T) {
	cfg := config.Default()
	cfg.Bank.Path = filepath.Join(t.TempDir(), "bank.sqlite")

	check := checkBank(context.Background(), cfg)
	require.True(t, check.Pass, check.Message)
	require.Contains(t, check.Message, "bank.sqlite")
}

func TestRunReportsMissingAPIKey(t *testing.T) {
	t.Setenv("PULSE_SERVER", "unix:/tmp/definitely-missing-pulse-server")
	t.Setenv("REHEARSE_TEST_KEY", "")

	cfg := config.Default()
	cfg.Gemini.APIKeyEnv = "REHEARSE_TEST_KEY"
	cfg.Bank.Path = filepath.Join(t.TempDir(), "bank.sqlite")

	report := Run(context.Background(), config.Loaded{Path: "/tmp/config.jsonc", Config: cfg})
	require.False(t, report.OK())

	var sawKey, sawBank bool
	for _, check := range report.Checks {
		if check.Name == "REHEARSE_TEST_KEY" {
			sawKey = true
			require.False(t, check.Pass)
		}
		if check.Name == "bank" {
			sawBank = true
			require.True(t, check.Pass)
		}
	}
	require.True(t, sawKey)
	require.True(t, sawBank)
}
