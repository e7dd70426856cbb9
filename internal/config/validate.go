package config

import (
	"fmt"
	"os"
	"strings"
)

// Validate enforces config invariants and returns non-fatal warnings.
func Validate(cfg Config) ([]Warning, error) {
	warnings := make([]Warning, 0)

	if strings.TrimSpace(cfg.Gemini.APIKeyEnv) == "" {
		return nil, fmt.Errorf("gemini.api_key_env must not be empty")
	}
	if strings.TrimSpace(cfg.Gemini.Model) == "" {
		return nil, fmt.Errorf("gemini.model must not be empty")
	}
	if strings.TrimSpace(cfg.Gemini.TTSModel) == "" {
		return nil, fmt.Errorf("gemini.tts_model must not be empty")
	}
	if cfg.Gemini.BaseURL != "" && !strings.HasPrefix(cfg.Gemini.BaseURL, "http://") && !strings.HasPrefix(cfg.Gemini.BaseURL, "https://") {
		return nil, fmt.Errorf("gemini.base_url must be an http(s) URL")
	}
	if strings.TrimSpace(cfg.Video.Device) == "" {
		return nil, fmt.Errorf("video.device must not be empty")
	}
	if cfg.Speech.StartDelayMS < 0 {
		return nil, fmt.Errorf("speech.start_delay_ms must be >= 0")
	}
	if cfg.Speech.CacheTTLS <= 0 {
		return nil, fmt.Errorf("speech.cache_ttl_s must be > 0")
	}
	if cfg.Session.Size <= 0 {
		return nil, fmt.Errorf("session.size must be > 0")
	}
	if cfg.Transcribe.MaxAttempts <= 0 {
		return nil, fmt.Errorf("transcribe.max_attempts must be > 0")
	}
	if cfg.Transcribe.TimeoutMS < 0 {
		return nil, fmt.Errorf("transcribe.timeout_ms must be >= 0")
	}
	if cfg.Indicator.ErrorTimeoutMS < 0 {
		return nil, fmt.Errorf("indicator.error_timeout_ms must be >= 0")
	}
	if cfg.Indicator.Enable && strings.TrimSpace(cfg.Indicator.DesktopAppName) == "" {
		return nil, fmt.Errorf("indicator.desktop_app_name must not be empty when indicator.enable=true")
	}
	if len(cfg.Clipboard.Argv) == 0 {
		return nil, fmt.Errorf("clipboard_cmd must not be empty")
	}

	if cfg.Transcribe.MaxAttempts > 10 {
		warnings = append(warnings, Warning{Message: fmt.Sprintf("transcribe.max_attempts=%d retries a dead backend for a long time", cfg.Transcribe.MaxAttempts)})
	}
	if len(cfg.Speech.Fallback.Argv) == 0 {
		warnings = append(warnings, Warning{Message: "speech.fallback_cmd is empty; questions are silent when synthesis fails"})
	}

	return warnings, nil
}

// APIKey reads the Gemini key from the configured environment variable.
func (g GeminiConfig) APIKey() string {
	return strings.TrimSpace(os.Getenv(g.APIKeyEnv))
}
