package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"aabook/internal/storage"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/huh/spinner"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212")).MarginBottom(1)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Interactive setup wizard",
	Long:  `Configure the LLM provider, API keys, and the optional GCS archive.`,
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(cmd *cobra.Command, args []string) error {
	fmt.Println(titleStyle.Render("📖 Aabook Setup"))

	if _, err := os.Stat(".env"); err == nil {
		var overwrite bool
		if err := huh.NewConfirm().
			Title("Found existing .env file").
			Description("Overwrite?").
			Value(&overwrite).
			Run(); err != nil {
			return err
		}
		if !overwrite {
			fmt.Println(infoStyle.Render("Kept existing .env"))
			return nil
		}
	}

	env := make(map[string]string)

	if err := configureProvider(env); err != nil {
		return err
	}

	if err := configureArchive(cmd.Context(), env); err != nil {
		return err
	}

	return writeEnvFile(env)
}

func configureProvider(env map[string]string) error {
	var provider string
	if err := huh.NewSelect[string]().
		Title("LLM provider").
		Options(
			huh.NewOption("OpenAI", "openai"),
			huh.NewOption("Groq", "groq"),
		).
		Value(&provider).
		Run(); err != nil {
		return err
	}
	env["AABOOK_PROVIDER"] = provider

	keyVar := "OPENAI_API_KEY"
	keyURL := "https://platform.openai.com/api-keys"
	if provider == "groq" {
		keyVar = "GROQ_API_KEY"
		keyURL = "https://console.groq.com/keys"
	}

	var apiKey, model string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title(keyVar).
				Description(keyURL).
				EchoMode(huh.EchoModePassword).
				Value(&apiKey).
				Validate(required(keyVar)),
			huh.NewInput().
				Title("Model").
				Description("Leave empty for the provider default").
				Value(&model),
		),
	)
	if err := form.Run(); err != nil {
		return err
	}

	env[keyVar] = strings.TrimSpace(apiKey)
	if model = strings.TrimSpace(model); model != "" {
		env["AABOOK_MODEL"] = model
	}

	return nil
}

func configureArchive(ctx context.Context, env map[string]string) error {
	var setup bool
	if err := huh.NewConfirm().
		Title("Setup GCS archive?").
		Description("Mirrors attribution results to a Cloud Storage bucket (optional)").
		Value(&setup).
		Run(); err != nil {
		return err
	}

	if !setup {
		return nil
	}

	var bucket string
	if err := huh.NewInput().
		Title("GCS bucket name").
		Value(&bucket).
		Validate(required("Bucket name")).
		Run(); err != nil {
		return err
	}
	bucket = strings.TrimSpace(bucket)

	err := runWithSpinner("Checking bucket access", func() error {
		archive, err := storage.NewGCSArchive(ctx, bucket, "")
		if err != nil {
			return err
		}
		defer func() { _ = archive.Close() }()
		return archive.CheckAccess(ctx)
	})
	if err != nil {
		fmt.Println(warnStyle.Render(fmt.Sprintf("Bucket check failed: %v", err)))
		fmt.Println(infoStyle.Render("Saving the bucket anyway; fix credentials before using --archive"))
	}

	env["GCS_BUCKET"] = bucket
	return nil
}

func writeEnvFile(env map[string]string) error {
	f, err := os.Create(".env")
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	order := []string{
		"AABOOK_PROVIDER",
		"AABOOK_MODEL",
		"OPENAI_API_KEY",
		"GROQ_API_KEY",
		"GCS_BUCKET",
	}

	for _, key := range order {
		if val, ok := env[key]; ok && val != "" {
			_, _ = fmt.Fprintf(f, "%s=%s\n", key, val)
		}
	}

	fmt.Println(successStyle.Render("✓ Created .env file"))
	printNextSteps()
	return nil
}

func printNextSteps() {
	fmt.Println()
	fmt.Println(titleStyle.Render("Next steps:"))
	fmt.Println("  1. Run: aabook attribute -i chapter1.txt -o chapter1.json")
	fmt.Println("  2. Optionally: aabook sfx -i chapter1.json")
	fmt.Println("  3. Then: aabook extract -i chapter1.sfx.json")
}

func required(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}

func runWithSpinner(title string, fn func() error) error {
	var err error
	_ = spinner.New().
		Title(title).
		Action(func() { err = fn() }).
		Run()
	if err != nil {
		return err
	}
	fmt.Println(successStyle.Render("✓ " + title))
	return nil
}
