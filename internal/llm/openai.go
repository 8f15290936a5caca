package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"aabook/pkg/httputil"
	"aabook/pkg/prompts"
)

const (
	discoveryTemperature = 0.1
	discoveryMaxTokens   = 700
	labelTemperature     = 0.2
	labelMaxTokens       = 4000
	sfxTemperature       = 0.2
	sfxMaxTokens         = 500
)

var _ Client = (*OpenAIClient)(nil)

type OpenAIClient struct {
	client  *openai.Client
	model   string
	prompts *prompts.Prompts
}

func NewOpenAIClient(apiKey, model, baseURL string, p *prompts.Prompts) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is not set")
	}

	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	config.HTTPClient = &http.Client{
		Transport: httputil.NewRetryTransport(nil, httputil.DefaultRetryConfig()),
	}

	return &OpenAIClient{
		client:  openai.NewClientWithConfig(config),
		model:   model,
		prompts: p,
	}, nil
}

func (c *OpenAIClient) ExtractCharacters(ctx context.Context, chapter string) ([]string, error) {
	prompt, err := c.prompts.RenderCharacters(prompts.CharacterParams{Chapter: chapter})
	if err != nil {
		return nil, fmt.Errorf("render prompt: %w", err)
	}

	content, err := c.completeJSON(ctx, c.prompts.System.Characters, prompt, discoveryTemperature, discoveryMaxTokens)
	if err != nil {
		return nil, fmt.Errorf("extract characters: %w", err)
	}

	return parseCharacters(content)
}

func (c *OpenAIClient) LabelLines(ctx context.Context, chapter string, characters []string) ([]Line, error) {
	prompt, err := c.prompts.RenderLabels(prompts.LabelParams{
		Chapter:    chapter,
		Characters: strings.Join(characters, ", "),
	})
	if err != nil {
		return nil, fmt.Errorf("render prompt: %w", err)
	}

	content, err := c.completeJSON(ctx, c.prompts.System.Lines, prompt, labelTemperature, labelMaxTokens)
	if err != nil {
		return nil, fmt.Errorf("label lines: %w", err)
	}

	return parseLines(content)
}

func (c *OpenAIClient) DetectSoundEffects(ctx context.Context, sentence string) (*SoundReport, error) {
	prompt, err := c.prompts.RenderSFX(prompts.SFXParams{Sentence: sentence})
	if err != nil {
		return nil, fmt.Errorf("render prompt: %w", err)
	}

	content, err := c.completeJSON(ctx, c.prompts.System.SFX, prompt, sfxTemperature, sfxMaxTokens)
	if err != nil {
		return nil, fmt.Errorf("detect sound effects: %w", err)
	}

	return parseSoundReport(content)
}

func (c *OpenAIClient) completeJSON(ctx context.Context, systemPrompt, userPrompt string, temperature float32, maxTokens int) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: temperature,
		MaxTokens:   maxTokens,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices in response", ErrUpstream)
	}

	content := resp.Choices[0].Message.Content
	if content == "" {
		return "", fmt.Errorf("%w: empty response", ErrUpstream)
	}

	return content, nil
}
