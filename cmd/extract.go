package cmd

import (
	"fmt"
	"log/slog"
	"strings"

	"aabook/internal/sfx"
	"aabook/internal/storage"

	"github.com/spf13/cobra"
)

var (
	extractInput  string
	extractOutput string
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract line texts from an attribution result",
	Long: `Extract pulls the line texts out of a JSON attribution result into
a plain text file, one line per row. Annotated documents contribute
their formatted text; lines without it fall back to the raw text.`,
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().StringVarP(&extractInput, "input", "i", "", "Attribution JSON file (required)")
	extractCmd.Flags().StringVarP(&extractOutput, "output", "o", "", "Output text file (default input with .txt)")
	_ = extractCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	var doc sfx.AnnotatedDocument
	if err := storage.ReadJSON(extractInput, &doc); err != nil {
		return err
	}
	if len(doc.Lines) == 0 {
		return fmt.Errorf("%s contains no lines", extractInput)
	}

	texts := make([]string, 0, len(doc.Lines))
	missing := 0
	for _, line := range doc.Lines {
		text := line.Formatted
		if text == "" {
			text = line.Text
			missing++
		}
		texts = append(texts, text)
	}

	output := extractOutput
	if output == "" {
		output = strings.TrimSuffix(extractInput, ".json") + ".txt"
	}

	if err := storage.WriteLines(output, texts); err != nil {
		return err
	}

	slog.Info("Lines extracted", "path", output, "lines", len(texts), "unformatted", missing)
	return nil
}
