package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/conneroisu/groq-go"

	"aabook/pkg/prompts"
)

var _ Client = (*GroqClient)(nil)

// GroqClient talks to Groq's OpenAI-compatible chat API. Transient HTTP
// failures are retried by groq-go itself.
type GroqClient struct {
	client  *groq.Client
	model   groq.ChatModel
	prompts *prompts.Prompts
}

func NewGroqClient(apiKey, model string, p *prompts.Prompts, opts ...groq.Opts) (*GroqClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GROQ_API_KEY is not set")
	}

	client, err := groq.NewClient(apiKey, opts...)
	if err != nil {
		return nil, fmt.Errorf("create groq client: %w", err)
	}

	return &GroqClient{
		client:  client,
		model:   groq.ChatModel(model),
		prompts: p,
	}, nil
}

func (c *GroqClient) ExtractCharacters(ctx context.Context, chapter string) ([]string, error) {
	prompt, err := c.prompts.RenderCharacters(prompts.CharacterParams{Chapter: chapter})
	if err != nil {
		return nil, fmt.Errorf("render prompt: %w", err)
	}

	content, err := c.completeJSON(ctx, c.prompts.System.Characters, prompt)
	if err != nil {
		return nil, fmt.Errorf("extract characters: %w", err)
	}

	return parseCharacters(content)
}

func (c *GroqClient) LabelLines(ctx context.Context, chapter string, characters []string) ([]Line, error) {
	prompt, err := c.prompts.RenderLabels(prompts.LabelParams{
		Chapter:    chapter,
		Characters: strings.Join(characters, ", "),
	})
	if err != nil {
		return nil, fmt.Errorf("render prompt: %w", err)
	}

	content, err := c.completeJSON(ctx, c.prompts.System.Lines, prompt)
	if err != nil {
		return nil, fmt.Errorf("label lines: %w", err)
	}

	return parseLines(content)
}

func (c *GroqClient) DetectSoundEffects(ctx context.Context, sentence string) (*SoundReport, error) {
	prompt, err := c.prompts.RenderSFX(prompts.SFXParams{Sentence: sentence})
	if err != nil {
		return nil, fmt.Errorf("render prompt: %w", err)
	}

	content, err := c.completeJSON(ctx, c.prompts.System.SFX, prompt)
	if err != nil {
		return nil, fmt.Errorf("detect sound effects: %w", err)
	}

	return parseSoundReport(content)
}

func (c *GroqClient) completeJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	resp, err := c.client.ChatCompletion(ctx, groq.ChatCompletionRequest{
		Model: c.model,
		Messages: []groq.ChatCompletionMessage{
			{Role: groq.RoleSystem, Content: systemPrompt},
			{Role: groq.RoleUser, Content: userPrompt},
		},
		ResponseFormat: &groq.ChatResponseFormat{
			Type: "json_object",
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
