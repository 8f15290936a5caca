package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"aabook/internal/attribution"
	"aabook/internal/storage"
	"aabook/pkg/config"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var (
	attributeInput   string
	attributeOutput  string
	attributeArchive bool
	attributeFlags   clientFlags
)

var attributeCmd = &cobra.Command{
	Use:   "attribute",
	Short: "Attribute a chapter's lines to their speakers",
	Long: `Attribute reads a chapter text file, discovers its characters,
labels every line with a speaker, and writes the validated JSON
result. Without --output the result goes to stdout.`,
	RunE: runAttribute,
}

func init() {
	attributeCmd.Flags().StringVarP(&attributeInput, "input", "i", "", "Chapter text file (required)")
	attributeCmd.Flags().StringVarP(&attributeOutput, "output", "o", "", "Output JSON path (default stdout)")
	attributeCmd.Flags().BoolVar(&attributeArchive, "archive", false, "Also upload the result to the GCS archive")
	attributeCmd.Flags().StringVar(&attributeFlags.provider, "provider", "", "LLM provider (openai or groq)")
	attributeCmd.Flags().StringVar(&attributeFlags.model, "model", "", "Model override")
	attributeCmd.Flags().StringVar(&attributeFlags.promptsPath, "prompts", "", "Custom prompts YAML file")
	_ = attributeCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(attributeCmd)
}

func runAttribute(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	chapter, err := storage.ReadChapter(attributeInput)
	if err != nil {
		return err
	}

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	client, err := buildClient(cfg, attributeFlags)
	if err != nil {
		return err
	}

	pipeline := attribution.New(client, attribution.Options{
		Timeout: cfg.Timeout(),
		Retries: cfg.LLM.Retries,
	})

	doc, err := pipeline.Run(ctx, chapter)
	if err != nil {
		return err
	}

	if attributeOutput == "" {
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal result: %w", err)
		}
		fmt.Println(string(data))
	} else {
		if err := storage.WriteJSONAtomic(attributeOutput, doc); err != nil {
			return err
		}
		slog.Info("Result written", "path", attributeOutput)
	}

	if attributeArchive {
		if err := archiveResult(ctx, cfg, doc); err != nil {
			return err
		}
	}

	printAttributeSummary(doc)
	return nil
}

func archiveResult(ctx context.Context, cfg *config.Config, doc *attribution.Document) error {
	if cfg.GCSBucket == "" {
		return fmt.Errorf("archiving requires GCS_BUCKET to be set")
	}

	archive, err := storage.NewGCSArchive(ctx, cfg.GCSBucket, cfg.Archive.Prefix)
	if err != nil {
		return err
	}
	defer func() { _ = archive.Close() }()

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	name := archiveName()
	object, err := archive.Upload(ctx, name, data)
	if err != nil {
		return err
	}
	slog.Info("Result archived", "object", "gs://"+cfg.GCSBucket+"/"+object)

	return nil
}

// archiveName follows the output name when one was given, so the
// archived object matches what landed on disk.
func archiveName() string {
	name := attributeOutput
	if name == "" {
		name = attributeInput
	}
	base := filepath.Base(name)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return base + ".json"
}

var summaryStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))

func printAttributeSummary(doc *attribution.Document) {
	fmt.Fprintln(os.Stderr, summaryStyle.Render(fmt.Sprintf(
		"✓ %d characters, %d lines", len(doc.Characters), len(doc.Lines))))
}
