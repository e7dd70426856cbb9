package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

type jsoncConfig struct {
	Gemini     *jsoncGemini     `json:"gemini"`
	Audio      *jsoncAudio      `json:"audio"`
	Video      *jsoncVideo      `json:"video"`
	Speech     *jsoncSpeech     `json:"speech"`
	Session    *jsoncSession    `json:"session"`
	Transcribe *jsoncTranscribe `json:"transcribe"`
	Transcript *jsoncTranscript `json:"transcript"`
	Redo       *jsoncRedo       `json:"redo"`
	Indicator  *jsoncIndicator  `json:"indicator"`
	Bank       *jsoncBank       `json:"bank"`

	ClipboardCmd *string     `json:"clipboard_cmd"`
	Debug        *jsoncDebug `json:"debug"`
}

type jsoncGemini struct {
	APIKeyEnv *string `json:"api_key_env"`
	BaseURL   *string `json:"base_url"`
	Model     *string `json:"model"`
	TTSModel  *string `json:"tts_model"`
	Voice     *string `json:"voice"`
}

type jsoncAudio struct {
	Input    *string `json:"input"`
	Fallback *string `json:"fallback"`
}

type jsoncVideo struct {
	Device    *string `json:"device"`
	FFmpegCmd *string `json:"ffmpeg_cmd"`
}

type jsoncSpeech struct {
	StartDelayMS *int    `json:"start_delay_ms"`
	CacheTTLS    *int    `json:"cache_ttl_s"`
	FallbackCmd  *string `json:"fallback_cmd"`
}

type jsoncSession struct {
	Size           *int    `json:"size"`
	AutoStartVoice *bool   `json:"auto_start_voice"`
	Category       *string `json:"category"`
}

type jsoncTranscribe struct {
	MaxAttempts *int `json:"max_attempts"`
	TimeoutMS   *int `json:"timeout_ms"`
}

type jsoncTranscript struct {
	CapitalizeSentences *bool `json:"capitalize_sentences"`
	StripFillers        *bool `json:"strip_fillers"`
}

type jsoncRedo struct {
	DontAsk *bool `json:"dont_ask"`
}

type jsoncIndicator struct {
	Enable            *bool   `json:"enable"`
	DesktopAppName    *string `json:"desktop_app_name"`
	SoundEnable       *bool   `json:"sound_enable"`
	SoundStartFile    *string `json:"sound_start_file"`
	SoundStopFile     *string `json:"sound_stop_file"`
	SoundCompleteFile *string `json:"sound_complete_file"`
	SoundCancelFile   *string `json:"sound_cancel_file"`
	TextRecording     *string `json:"text_recording"`
	TextProcessing    *string `json:"text_processing"`
	TextError         *string `json:"text_error"`
	ErrorTimeoutMS    *int    `json:"error_timeout_ms"`
}

type jsoncBank struct {
	Path *string `json:"path"`
}

type jsoncDebug struct {
	AudioDump *bool `json:"audio_dump"`
}

func parseJSONC(content string, base Config) (Config, []Warning, error) {
	normalized, err := normalizeJSONC(content)
	if err != nil {
		return Config{}, nil, err
	}

	decoder := json.NewDecoder(strings.NewReader(normalized))
	decoder.DisallowUnknownFields()

	var payload jsoncConfig
	if err := decoder.Decode(&payload); err != nil {
		return Config{}, nil, wrapJSONDecodeError(normalized, err)
	}
	if err := ensureSingleJSONValue(decoder); err != nil {
		return Config{}, nil, wrapJSONDecodeError(normalized, err)
	}

	cfg := base
	warnings, err := payload.applyTo(&cfg)
	if err != nil {
		return Config{}, nil, err
	}

	validatedWarnings, err := Validate(cfg)
	if err != nil {
		return Config{}, nil, err
	}
	warnings = append(warnings, validatedWarnings...)
	return cfg, warnings, nil
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = strings.TrimSpace(*src)
	}
}

func setInt(dst *int, src *int) {
	if src != nil {
		*dst = *src
	}
}

func setBool(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}

func parseCommand(field string, raw *string) (CommandConfig, bool, error) {
	if raw == nil {
		return CommandConfig{}, false, nil
	}
	argv, err := parseArgv(*raw)
	if err != nil {
		return CommandConfig{}, false, fmt.Errorf("invalid %s: %w", field, err)
	}
	return CommandConfig{Raw: *raw, Argv: argv}, true, nil
}

func (payload jsoncConfig) applyTo(cfg *Config) ([]Warning, error) {
	warnings := make([]Warning, 0)

	if g := payload.Gemini; g != nil {
		setString(&cfg.Gemini.APIKeyEnv, g.APIKeyEnv)
		setString(&cfg.Gemini.BaseURL, g.BaseURL)
		setString(&cfg.Gemini.Model, g.Model)
		setString(&cfg.Gemini.TTSModel, g.TTSModel)
		setString(&cfg.Gemini.Voice, g.Voice)
	}

	if a := payload.Audio; a != nil {
		setString(&cfg.Audio.Input, a.Input)
		setString(&cfg.Audio.Fallback, a.Fallback)
	}

	if v := payload.Video; v != nil {
		setString(&cfg.Video.Device, v.Device)
		setString(&cfg.Video.FFmpegCmd, v.FFmpegCmd)
	}

	if s := payload.Speech; s != nil {
		setInt(&cfg.Speech.StartDelayMS, s.StartDelayMS)
		setInt(&cfg.Speech.CacheTTLS, s.CacheTTLS)
		cmd, ok, err := parseCommand("speech.fallback_cmd", s.FallbackCmd)
		if err != nil {
			return nil, err
		}
		if ok {
			cfg.Speech.Fallback = cmd
		}
	}

	if s := payload.Session; s != nil {
		setInt(&cfg.Session.Size, s.Size)
		setBool(&cfg.Session.AutoStartVoice, s.AutoStartVoice)
		setString(&cfg.Session.Category, s.Category)
	}

	if t := payload.Transcribe; t != nil {
		setInt(&cfg.Transcribe.MaxAttempts, t.MaxAttempts)
		setInt(&cfg.Transcribe.TimeoutMS, t.TimeoutMS)
	}

	if t := payload.Transcript; t != nil {
		setBool(&cfg.Transcript.CapitalizeSentences, t.CapitalizeSentences)
		setBool(&cfg.Transcript.StripFillers, t.StripFillers)
	}

	if payload.Redo != nil {
		setBool(&cfg.Redo.DontAsk, payload.Redo.DontAsk)
	}

	if i := payload.Indicator; i != nil {
		setBool(&cfg.Indicator.Enable, i.Enable)
		setString(&cfg.Indicator.DesktopAppName, i.DesktopAppName)
		setBool(&cfg.Indicator.SoundEnable, i.SoundEnable)
		setString(&cfg.Indicator.SoundStartFile, i.SoundStartFile)
		setString(&cfg.Indicator.SoundStopFile, i.SoundStopFile)
		setString(&cfg.Indicator.SoundCompleteFile, i.SoundCompleteFile)
		setString(&cfg.Indicator.SoundCancelFile, i.SoundCancelFile)
		setString(&cfg.Indicator.TextRecording, i.TextRecording)
		setString(&cfg.Indicator.TextProcessing, i.TextProcessing)
		setString(&cfg.Indicator.TextError, i.TextError)
		setInt(&cfg.Indicator.ErrorTimeoutMS, i.ErrorTimeoutMS)
	}

	if payload.Bank != nil {
		setString(&cfg.Bank.Path, payload.Bank.Path)
	}

	cmd, ok, err := parseCommand("clipboard_cmd", payload.ClipboardCmd)
	if err != nil {
		return nil, err
	}
	if ok {
		cfg.Clipboard = cmd
	}

	if payload.Debug != nil {
		setBool(&cfg.Debug.EnableAudioDump, payload.Debug.AudioDump)
	}

	if cfg.Audio.Input == "" {
		warnings = append(warnings, Warning{Message: "audio.input is empty; using the default source"})
		cfg.Audio.Input = "default"
	}

	return warnings, nil
}

func normalizeJSONC(content string) (string, error) {
	withoutComments, err := stripJSONCComments(content)
	if err != nil {
		return "", err
	}
	return stripJSONCTrailingCommas(withoutComments), nil
}

func stripJSONCComments(content string) (string, error) {
	var out strings.Builder
	out.Grow(len(content))

	inString := false
	escape := false
	lineComment := false
	blockComment := false

	for i := 0; i < len(content); i++ {
		ch := content[i]

		if lineComment {
			if ch == '\n' {
				lineComment = false
				out.WriteByte(ch)
				continue
			}
			if ch == '\r' {
				lineComment = false
				out.WriteByte(ch)
				continue
			}
			out.WriteByte(' ')
			continue
		}

		if blockComment {
			if ch == '*' && i+1 < len(content) && content[i+1] == '/' {
				blockComment = false
				out.WriteString("  ")
				i++
				continue
			}
			if ch == '\n' || ch == '\r' || ch == '\t' {
				out.WriteByte(ch)
			} else {
				out.WriteByte(' ')
			}
			continue
		}

		if inString {
			out.WriteByte(ch)
			if escape {
				escape = false
				continue
			}
			if ch == '\\' {
				escape = true
				continue
			}
			if ch == '"' {
				inString = false
			}
			continue
		}

		if ch == '"' {
			inString = true
			out.WriteByte(ch)
			continue
		}

		if ch == '/' && i+1 < len(content) {
			next := content[i+1]
			if next == '/' {
				lineComment = true
				out.WriteString("  ")
				i++
				continue
			}
			if next == '*' {
				blockComment = true
				out.WriteString("  ")
				i++
				continue
			}
		}

		out.WriteByte(ch)
	}

	if blockComment {
		return "", fmt.Errorf("unterminated block comment in JSONC")
	}

	return out.String(), nil
}

func stripJSONCTrailingCommas(content string) string {
	var out strings.Builder
	out.Grow(len(content))

	inString := false
	escape := false

	for i := 0; i < len(content); i++ {
		ch := content[i]

		if inString {
			out.WriteByte(ch)
			if escape {
				escape = false
				continue
			}
			if ch == '\\' {
				escape = true
				continue
			}
			if ch == '"' {
				inString = false
			}
			continue
		}

		if ch == '"' {
			inString = true
			out.WriteByte(ch)
			continue
		}

		if ch == ',' {
			j := i + 1
			for j < len(content) && isJSONWhitespace(content[j]) {
				j++
			}
			if j < len(content) && (content[j] == '}' || content[j] == ']') {
				continue
			}
		}

		out.WriteByte(ch)
	}

	return out.String()
}

func isJSONWhitespace(ch byte) bool {
	switch ch {
	case ' ', '\n', '\r', '\t':
		return true
	default:
		return false
	}
}

func ensureSingleJSONValue(decoder *json.Decoder) error {
	var extra struct{}
	err := decoder.Decode(&extra)
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err == nil {
		return fmt.Errorf("multiple JSON values are not allowed")
	}
	return err
}

func wrapJSONDecodeError(content string, err error) error {
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		line, col := offsetToLineCol(content, syntaxErr.Offset)
		return fmt.Errorf("line %d column %d: %w", line, col, err)
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		line, col := offsetToLineCol(content, typeErr.Offset)
		return fmt.Errorf("line %d column %d: %w", line, col, err)
	}

	return err
}

func offsetToLineCol(content string, offset int64) (int, int) {
	if offset <= 0 {
		return 1, 1
	}

	limit := int(offset)
	if limit > len(content) {
		limit = len(content)
	}

	line := 1
	col := 1
	for i := 0; i < limit-1; i++ {
		if content[i] == '\n' {
			line++
			col = 1
			continue
		}
		col++
	}
	return line, col
}
