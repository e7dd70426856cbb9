// Package gemini implements speech, transcription, and coaching collaborators
// on the Gemini API.
package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/rbright/rehearse/internal/bank"
	"google.golang.org/genai"
)

const (
	transcribePrompt = "Transcribe this interview answer exactly as spoken. Do not add any feedback, just the text. If the audio is silent, return an empty string."

	suggestionPrompt = `You are an expert interview coach. Provide a concise, structured ideal answer for: %q.
Rules: No Markdown symbols. Use bullet points (•). Professional tone. Max 150 words.`

	generatePrompt = `Generate %d interview questions for this job description: %q. Categories: Background, Situational, Technical. Return JSON array.`
)

// ErrNoAPIKey is returned when no key is configured for the API.
var ErrNoAPIKey = errors.New("gemini api key is not set")

// Config selects models and endpoint.
type Config struct {
	APIKey     string
	BaseURL    string
	Model      string
	TTSModel   string
	Voice      string
	Questions  int
	HTTPClient *http.Client
}

// Client wraps the genai models service.
type Client struct {
	models *genai.Models
	cfg    Config
	logger *slog.Logger
}

// New builds a client. The key is required even when BaseURL points elsewhere.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrNoAPIKey
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-3-flash-preview"
	}
	if cfg.TTSModel == "" {
		cfg.TTSModel = "gemini-2.5-flash-preview-tts"
	}
	if cfg.Voice == "" {
		cfg.Voice = "Kore"
	}
	if cfg.Questions <= 0 {
		cfg.Questions = 5
	}

	clientConfig := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: cfg.HTTPClient,
	}
	if cfg.BaseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Client{models: client.Models, cfg: cfg, logger: logger}, nil
}

// SynthesizeSpeech returns 24kHz mono PCM16LE for text. A response without
// audio yields nil bytes and no error.
func (c *Client) SynthesizeSpeech(ctx context.Context, text string) ([]byte, error) {
	resp, err := c.models.GenerateContent(ctx, c.cfg.TTSModel, genai.Text(text), &genai.GenerateContentConfig{
		ResponseModalities: []string{"AUDIO"},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: c.cfg.Voice},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("synthesize speech: %w", err)
	}
	return firstInlineData(resp), nil
}

// Transcribe sends the recording inline and returns the model's verbatim text.
func (c *Client) Transcribe(ctx context.Context, data []byte, mimeType string) (string, error) {
	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromBytes(data, mimeType),
			genai.NewPartFromText(transcribePrompt),
		}, genai.RoleUser),
	}
	resp, err := c.models.GenerateContent(ctx, c.cfg.Model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("transcribe %s: %w", mimeType, err)
	}
	return strings.TrimSpace(resp.Text()), nil
}

// SuggestTalkingPoints returns a plain bulleted coaching hint.
func (c *Client) SuggestTalkingPoints(ctx context.Context, question string) (string, error) {
	resp, err := c.models.GenerateContent(ctx, c.cfg.Model, genai.Text(fmt.Sprintf(suggestionPrompt, question)), nil)
	if err != nil {
		return "", fmt.Errorf("suggest talking points: %w", err)
	}
	return stripMarkdown(resp.Text()), nil
}

// GenerateQuestions drafts questions for a job description.
func (c *Client) GenerateQuestions(ctx context.Context, jobDescription string) ([]bank.Draft, error) {
	prompt := fmt.Sprintf(generatePrompt, c.cfg.Questions, strings.TrimSpace(jobDescription))
	resp, err := c.models.GenerateContent(ctx, c.cfg.Model, genai.Text(prompt), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema: &genai.Schema{
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"text": {Type: genai.TypeString},
					"type": {Type: genai.TypeString},
				},
				Required: []string{"text", "type"},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("generate questions: %w", err)
	}
	return parseDrafts(resp.Text())
}

func firstInlineData(resp *genai.GenerateContentResponse) []byte {
	if resp == nil {
		return nil
	}
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part != nil && part.InlineData != nil && len(part.InlineData.Data) > 0 {
				return part.InlineData.Data
			}
		}
	}
	return nil
}

// parseDrafts tolerates a fenced code block around the JSON array.
func parseDrafts(raw string) ([]bank.Draft, error) {
	body := strings.TrimSpace(raw)
	body = strings.TrimPrefix(body, "```json")
	body = strings.TrimPrefix(body, "```")
	body = strings.TrimSuffix(body, "```")
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, nil
	}

	var drafts []bank.Draft
	if err := json.Unmarshal([]byte(body), &drafts); err != nil {
		return nil, fmt.Errorf("decode generated questions: %w", err)
	}
	out := drafts[:0]
	for _, d := range drafts {
		if strings.TrimSpace(d.Text) != "" {
			out = append(out, d)
		}
	}
	return out, nil
}

// stripMarkdown drops emphasis and heading markers the prompt asked the model to avoid.
func stripMarkdown(text string) string {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	for i, line := range lines {
		trimmed := strings.TrimLeft(line, " \t")
		trimmed = strings.TrimLeft(trimmed, "#")
		if strings.HasPrefix(trimmed, "* ") || strings.HasPrefix(trimmed, "- ") {
			trimmed = "• " + trimmed[2:]
		}
		trimmed = strings.ReplaceAll(trimmed, "**", "")
		trimmed = strings.ReplaceAll(trimmed, "__", "")
		lines[i] = strings.TrimSpace(trimmed)
	}
	return strings.Join(lines, "\n")
}
