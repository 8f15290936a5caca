package cmd

import (
	"fmt"

	"aabook/internal/llm"
	"aabook/pkg/config"
	"aabook/pkg/prompts"
)

// clientFlags are the provider overrides shared by the commands that
// talk to an LLM.
type clientFlags struct {
	provider    string
	model       string
	promptsPath string
}

// buildClient constructs the configured provider's client, applying
// any command-line overrides on top of the loaded config.
func buildClient(cfg *config.Config, flags clientFlags) (llm.Client, error) {
	if flags.provider != "" {
		cfg.LLM.Provider = flags.provider
	}
	if flags.model != "" {
		cfg.LLM.Model = flags.model
	}

	var p *prompts.Prompts
	var err error
	if flags.promptsPath != "" {
		p, err = prompts.LoadFrom(flags.promptsPath)
	} else {
		p, err = prompts.Default()
	}
	if err != nil {
		return nil, err
	}

	switch cfg.LLM.Provider {
	case "openai":
		return llm.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.LLM.Model, cfg.LLM.BaseURL, p)
	case "groq":
		return llm.NewGroqClient(cfg.GroqAPIKey, cfg.LLM.Model, p)
	default:
		return nil, fmt.Errorf("unknown provider %q (want openai or groq)", cfg.LLM.Provider)
	}
}
