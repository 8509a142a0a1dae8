package stt

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"go.verba.dev/verba/audio"
)

// OpenAI transcribes through the OpenAI audio transcription endpoint.
type OpenAI struct {
	client openai.Client
	model  string
	ready  bool
}

// OpenAIConfig holds configuration for the OpenAI provider.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string // Optional, for compatible endpoints
	Model   string // Optional, defaults to whisper-1
}

// NewOpenAI creates the remote provider. The provider reports not-ready
// rather than failing construction when the API key is missing.
func NewOpenAI(cfg OpenAIConfig) *OpenAI {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	model := cfg.Model
	if model == "" {
		model = string(openai.AudioModelWhisper1)
	}
	return &OpenAI{
		client: openai.NewClient(opts...),
		model:  model,
		ready:  cfg.APIKey != "",
	}
}

func (o *OpenAI) Name() string        { return "openai" }
func (o *OpenAI) DisplayName() string { return "OpenAI Transcription" }
func (o *OpenAI) Local() bool         { return false }
func (o *OpenAI) Ready() bool         { return o.ready }
func (o *OpenAI) Close() error        { return nil }

func (o *OpenAI) Transcribe(ctx context.Context, samples []float32, language string) (*Result, error) {
	if !o.ready {
		return nil, fmt.Errorf("%w: API key required", ErrNotReady)
	}

	wav := audio.EncodeWAV(samples, audio.TargetSampleRate)

	params := openai.AudioTranscriptionNewParams{
		File:  openai.File(bytes.NewReader(wav), "audio.wav", "audio/wav"),
		Model: openai.AudioModel(o.model),
	}
	// The API rejects "auto"; omitting the field means auto-detect.
	if language != "" && language != "auto" {
		params.Language = openai.String(language)
	}

	resp, err := o.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("transcription request: %w", err)
	}

	return &Result{Text: strings.TrimSpace(resp.Text)}, nil
}
