package cmd

import (
	"log/slog"
	"strings"

	"aabook/internal/attribution"
	"aabook/internal/sfx"
	"aabook/internal/storage"
	"aabook/pkg/config"

	"github.com/spf13/cobra"
)

var (
	sfxInput  string
	sfxOutput string
	sfxFlags  clientFlags
)

var sfxCmd = &cobra.Command{
	Use:   "sfx",
	Short: "Annotate an attribution result with sound effects",
	Long: `Sfx analyses every line of an attribution result for sound events,
actions and delivery cues, and writes an annotated copy with
bracket-tagged formatted text alongside the originals.`,
	RunE: runSFX,
}

func init() {
	sfxCmd.Flags().StringVarP(&sfxInput, "input", "i", "", "Attribution JSON file (required)")
	sfxCmd.Flags().StringVarP(&sfxOutput, "output", "o", "", "Output JSON path (default input with .sfx.json)")
	sfxCmd.Flags().StringVar(&sfxFlags.provider, "provider", "", "LLM provider (openai or groq)")
	sfxCmd.Flags().StringVar(&sfxFlags.model, "model", "", "Model override")
	sfxCmd.Flags().StringVar(&sfxFlags.promptsPath, "prompts", "", "Custom prompts YAML file")
	_ = sfxCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(sfxCmd)
}

func runSFX(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	var doc attribution.Document
	if err := storage.ReadJSON(sfxInput, &doc); err != nil {
		return err
	}
	if err := doc.Validate(); err != nil {
		return err
	}

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	client, err := buildClient(cfg, sfxFlags)
	if err != nil {
		return err
	}

	annotator := sfx.NewAnnotator(client, sfx.Options{
		Timeout: cfg.Timeout(),
		Retries: cfg.LLM.Retries,
	})

	slog.Info("Analysing lines for sound effects...", "lines", len(doc.Lines))
	annotated, err := annotator.Annotate(ctx, &doc)
	if err != nil {
		return err
	}

	output := sfxOutput
	if output == "" {
		output = strings.TrimSuffix(sfxInput, ".json") + ".sfx.json"
	}

	if err := storage.WriteJSONAtomic(output, annotated); err != nil {
		return err
	}

	slog.Info("Annotated result written", "path", output)
	return nil
}
