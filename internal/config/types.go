// Package config resolves, parses, validates, and defaults rehearse configuration.
package config

// Config is the fully materialized runtime configuration used by rehearse.
type Config struct {
	Gemini     GeminiConfig
	Audio      AudioConfig
	Video      VideoConfig
	Speech     SpeechConfig
	Session    SessionConfig
	Transcribe TranscribeConfig
	Transcript TranscriptConfig
	Redo       RedoConfig
	Indicator  IndicatorConfig
	Bank       BankConfig
	Clipboard  CommandConfig
	Debug      DebugConfig
}

// GeminiConfig selects the models backing speech, transcription, and hints.
type GeminiConfig struct {
	APIKeyEnv string
	BaseURL   string
	Model     string
	TTSModel  string
	Voice     string
}

// AudioConfig controls preferred and fallback input-source selection.
type AudioConfig struct {
	Input    string
	Fallback string
}

// VideoConfig controls the camera capture backend.
type VideoConfig struct {
	Device    string
	FFmpegCmd string
}

// SpeechConfig controls how questions are read aloud.
type SpeechConfig struct {
	StartDelayMS int
	CacheTTLS    int
	Fallback     CommandConfig
}

// SessionConfig controls question selection and flow policy.
type SessionConfig struct {
	Size           int
	AutoStartVoice bool
	Category       string
}

// TranscribeConfig bounds speech-to-text retries.
type TranscribeConfig struct {
	MaxAttempts int
	TimeoutMS   int
}

// TranscriptConfig controls transcript cleanup.
type TranscriptConfig struct {
	CapitalizeSentences bool
	StripFillers        bool
}

// RedoConfig seeds the run-wide "don't ask again" preference.
type RedoConfig struct {
	DontAsk bool
}

// IndicatorConfig controls desktop notices and audio cue behavior.
type IndicatorConfig struct {
	Enable            bool
	DesktopAppName    string
	SoundEnable       bool
	SoundStartFile    string
	SoundStopFile     string
	SoundCompleteFile string
	SoundCancelFile   string
	TextRecording     string
	TextProcessing    string
	TextError         string
	ErrorTimeoutMS    int
}

// BankConfig locates the custom question store. Empty uses the XDG data dir.
type BankConfig struct {
	Path string
}

// CommandConfig stores a raw command string and its parsed argv form.
type CommandConfig struct {
	Raw  string
	Argv []string
}

// DebugConfig controls optional debug artifact output.
type DebugConfig struct {
	EnableAudioDump bool
}

// Warning is a non-fatal parse/validation message.
type Warning struct {
	Line    int
	Message string
}
