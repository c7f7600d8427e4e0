package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/l3aro/go-multifn/internal/config"
	"github.com/l3aro/go-multifn/internal/healthcheck"
)

// initAnswers holds what the init form asks for.
type initAnswers struct {
	LogLevel       string
	FailFast       bool
	CacheEnabled   bool
	DescriptionExt string
	Location       string // "global" or "project"
}

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a configuration file interactively",
	Long: `Guides you through setting up mfproc configuration step by step and saves it
globally or for the current project.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInit(cmd.OutOrStdout())
	},
}

func runInit(out io.Writer) error {
	answers := initAnswers{
		LogLevel:       cfg.LogLevel,
		FailFast:       cfg.FailFast,
		CacheEnabled:   cfg.CacheEnabled,
		DescriptionExt: cfg.DescriptionExt,
		Location:       "project",
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Log level").
				Options(
					huh.NewOption("Debug", "debug"),
					huh.NewOption("Info", "info"),
					huh.NewOption("Warn", "warn"),
					huh.NewOption("Error", "error"),
				).
				Value(&answers.LogLevel),
			huh.NewConfirm().
				Title("Stop at the first defect of each procedure?").
				Affirmative("Fail fast").
				Negative("Report everything").
				Value(&answers.FailFast),
		),
		huh.NewGroup(
			huh.NewConfirm().
				Title("Cache validation reports?").
				Description("Unchanged descriptions are not rebuilt").
				Value(&answers.CacheEnabled),
			huh.NewInput().
				Title("Description file extension").
				Placeholder(".proc.yaml").
				Validate(func(s string) error {
					c := config.DefaultConfig()
					c.DescriptionExt = s
					return c.Validate()
				}).
				Value(&answers.DescriptionExt),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Save Configuration").
				Description("Where to save the configuration file?").
				Options(
					huh.NewOption("Project (./.mfproc/config.yaml)", "project"),
					huh.NewOption("Global (~/.mfproc/config.yaml)", "global"),
				).
				Value(&answers.Location),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("interactive prompt failed: %w", err)
	}

	configPath := configPathFor(answers.Location)

	// Check if config already exists
	if _, err := os.Stat(configPath); err == nil {
		var overwrite bool
		confirm := huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title("Config file exists").
					Description(fmt.Sprintf("Overwrite existing config at %s?", configPath)).
					Affirmative("Overwrite").
					Negative("Cancel").
					Value(&overwrite),
			),
		)
		if err := confirm.Run(); err != nil {
			return fmt.Errorf("interactive prompt failed: %w", err)
		}
		if !overwrite {
			fmt.Fprintln(out, "Cancelled.")
			return nil
		}
	}

	return saveInitConfig(out, answers, configPath)
}

func configPathFor(location string) string {
	if location == "global" {
		return config.GlobalConfigFilePath()
	}
	return config.ProjectConfigFilePath()
}

// buildInitConfig applies the answers on top of the defaults.
func buildInitConfig(a initAnswers) (*config.Config, error) {
	c := config.DefaultConfig()
	c.LogLevel = a.LogLevel
	c.FailFast = a.FailFast
	c.CacheEnabled = a.CacheEnabled
	c.DescriptionExt = a.DescriptionExt

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return c, nil
}

// saveInitConfig writes the config and runs the health check against it.
func saveInitConfig(out io.Writer, a initAnswers, configPath string) error {
	c, err := buildInitConfig(a)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, "\n=== Configuration Preview ===")
	fmt.Fprintf(out, "Config path: %s\n", configPath)
	fmt.Fprintf(out, "Log level: %s\n", c.LogLevel)
	fmt.Fprintf(out, "Fail fast: %t\n", c.FailFast)
	fmt.Fprintf(out, "Cache: %t\n", c.CacheEnabled)
	fmt.Fprintf(out, "Description extension: %s\n", c.DescriptionExt)
	fmt.Fprintln(out, "================================")

	if err := c.Save(configPath); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	fmt.Fprintf(out, "Configuration saved to: %s\n", configPath)

	loaded, err := config.LoadFromFile(configPath)
	if err != nil {
		return fmt.Errorf("loading saved config: %w", err)
	}
	result, err := healthcheck.Check(loaded, configPath, ".")
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	fmt.Fprintln(out, "\n=== Running Health Check ===")
	displayDoctorResult(out, result)
	return nil
}

func init() {
	RootCmd.AddCommand(initCmd)
}
