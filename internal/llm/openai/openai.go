// Package openai implements llm.Completer and llm.Transcriber on the OpenAI
// chat completion and Whisper endpoints.
package openai

import (
	"context"
	"errors"
	"fmt"
	"io"

	goopenai "github.com/sashabaranov/go-openai"

	"daftar/internal/llm"
)

// DefaultModel is used when no model is configured.
const DefaultModel = goopenai.GPT3Dot5Turbo

var (
	_ llm.Completer   = (*Provider)(nil)
	_ llm.Transcriber = (*Provider)(nil)
)

type Provider struct {
	client *goopenai.Client
	model  string
}

func New(apiKey, model string) (*Provider, error) {
	if apiKey == "" {
		return nil, errors.New("openai: missing api key")
	}
	return NewWithConfig(goopenai.DefaultConfig(apiKey), model), nil
}

// NewWithConfig allows a custom base URL, e.g. a compatible gateway.
func NewWithConfig(cfg goopenai.ClientConfig, model string) *Provider {
	if model == "" {
		model = DefaultModel
	}
	return &Provider{client: goopenai.NewClientWithConfig(cfg), model: model}
}

func (p *Provider) Complete(ctx context.Context, system, user string) (string, error) {
	resp, err := p.client.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model: p.model,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleSystem, Content: system},
			{Role: goopenai.ChatMessageRoleUser, Content: user},
		},
		Temperature: 0,
	})
	if err != nil {
		return "", fmt.Errorf("openai: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", llm.ErrEmptyResponse
	}
	return resp.Choices[0].Message.Content, nil
}

// Transcribe uses Whisper. The file name only tells the API the container.
func (p *Provider) Transcribe(ctx context.Context, audio io.Reader, mimeType string) (string, error) {
	name := "voice.ogg"
	switch mimeType {
	case "audio/mpeg":
		name = "voice.mp3"
	case "audio/mp4", "audio/m4a":
		name = "voice.m4a"
	case "audio/wav", "audio/x-wav":
		name = "voice.wav"
	}
	resp, err := p.client.CreateTranscription(ctx, goopenai.AudioRequest{
		Model:    goopenai.Whisper1,
		FilePath: name,
		Reader:   audio,
	})
	if err != nil {
		return "", fmt.Errorf("openai: transcription: %w", err)
	}
	return resp.Text, nil
}
