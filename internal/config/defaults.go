package config

// Default returns the canonical runtime configuration used when no file is present.
func Default() Config {
	clipboard := "wl-copy --trim-newline"
	narrator := "espeak-ng"

	return Config{
		Gemini: GeminiConfig{
			APIKeyEnv: "GEMINI_API_KEY",
			Model:     "gemini-3-flash-preview",
			TTSModel:  "gemini-2.5-flash-preview-tts",
			Voice:     "Kore",
		},
		Audio: AudioConfig{
			Input:    "default",
			Fallback: "default",
		},
		Video: VideoConfig{
			Device:    "/dev/video0",
			FFmpegCmd: "ffmpeg",
		},
		Speech: SpeechConfig{
			StartDelayMS: 500,
			CacheTTLS:    900,
			Fallback:     CommandConfig{Raw: narrator, Argv: mustParseArgv(narrator)},
		},
		Session: SessionConfig{
			Size:           5,
			AutoStartVoice: false,
			Category:       "Engineering",
		},
		Transcribe: TranscribeConfig{
			MaxAttempts: 3,
			TimeoutMS:   30000,
		},
		Transcript: TranscriptConfig{
			CapitalizeSentences: true,
		},
		Indicator: IndicatorConfig{
			Enable:         true,
			DesktopAppName: "rehearse",
			SoundEnable:    true,
			ErrorTimeoutMS: 1600,
		},
		Clipboard: CommandConfig{Raw: clipboard, Argv: mustParseArgv(clipboard)},
		Debug:     DebugConfig{},
	}
}
