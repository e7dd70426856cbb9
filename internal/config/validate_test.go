package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	warnings, err := Validate(Default())
	require.NoError(t, err)
	require.Empty(t, warnings)
}

func TestValidateRejectsInvalidCoreFields(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "empty key env", mutate: func(c *Config) { c.Gemini.APIKeyEnv = "" }, wantErr: "gemini.api_key_env"},
		{name: "empty model", mutate: func(c *Config) { c.Gemini.Model = " " }, wantErr: "gemini.model"},
		{name: "empty tts model", mutate: func(c *Config) { c.Gemini.TTSModel = "" }, wantErr: "gemini.tts_model"},
		{name: "bad base url", mutate: func(c *Config) { c.Gemini.BaseURL = "localhost:8080" }, wantErr: "gemini.base_url"},
		{name: "empty video device", mutate: func(c *Config) { c.Video.Device = "" }, wantErr: "video.device"},
		{name: "negative start delay", mutate: func(c *Config) { c.Speech.StartDelayMS = -1 }, wantErr: "speech.start_delay_ms"},
		{name: "zero cache ttl", mutate: func(c *Config) { c.Speech.CacheTTLS = 0 }, wantErr: "speech.cache_ttl_s"},
		{name: "zero session size", mutate: func(c *Config) { c.Session.Size = 0 }, wantErr: "session.size"},
		{name: "zero attempts", mutate: func(c *Config) { c.Transcribe.MaxAttempts = 0 }, wantErr: "transcribe.max_attempts"},
		{name: "negative timeout", mutate: func(c *Config) { c.Transcribe.TimeoutMS = -5 }, wantErr: "transcribe.timeout_ms"},
		{name: "negative error timeout", mutate: func(c *Config) { c.Indicator.ErrorTimeoutMS = -1 }, wantErr: "error_timeout"},
		{name: "empty app name", mutate: func(c *Config) { c.Indicator.DesktopAppName = "" }, wantErr: "desktop_app_name"},
		{name: "empty clipboard argv", mutate: func(c *Config) { c.Clipboard.Argv = nil }, wantErr: "clipboard_cmd"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)

			_, err := Validate(cfg)
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestValidateWarnings(t *testing.T) {
	cfg := Default()
	cfg.Transcribe.MaxAttempts = 20
	cfg.Speech.Fallback = CommandConfig{}

	warnings, err := Validate(cfg)
	require.NoError(t, err)
	require.Len(t, warnings, 2)
	require.Contains(t, warnings[0].Message, "transcribe.max_attempts")
	require.Contains(t, warnings[1].Message, "speech.fallback_cmd")
}

func TestGeminiAPIKeyReadsConfiguredEnv(t *testing.T) {
	t.Setenv("REHEARSE_TEST_KEY", "  secret  ")
	cfg := Default().Gemini
	cfg.APIKeyEnv = "REHEARSE_TEST_KEY"
	require.Equal(t, "secret", cfg.APIKey())
}
