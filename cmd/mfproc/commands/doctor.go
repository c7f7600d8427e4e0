package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/l3aro/go-multifn/internal/healthcheck"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check configuration, cache and ignore file",
	Long: `Shows which config file is in effect and checks that the report cache can be
read and the ignore file in the current directory parses.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		if configPath == "" {
			configPath = healthcheck.Locate()
		}

		result, err := healthcheck.Check(cfg, configPath, ".")
		if err != nil {
			return fmt.Errorf("health check failed: %w", err)
		}

		displayDoctorResult(cmd.OutOrStdout(), result)

		if !result.Healthy() {
			return fmt.Errorf("health check failed: one or more components are in error")
		}
		return nil
	},
}

func displayDoctorResult(w io.Writer, result *healthcheck.HealthCheckResult) {
	if result.ConfigPath != "" {
		fmt.Fprintf(w, "Using config: %s (%s)\n\n", result.ConfigPath, result.ConfigScope)
	} else {
		fmt.Fprintln(w, "Using config: built-in defaults")
		fmt.Fprintln(w)
	}

	for _, c := range []healthcheck.ComponentStatus{result.Cache, result.IgnoreFile, result.Functions} {
		fmt.Fprintf(w, "%s:\n", c.Name)
		if c.Detail != "" {
			fmt.Fprintf(w, "  %s\n", c.Detail)
		}
		fmt.Fprintf(w, "  Status: %s %s\n", formatStatusIcon(c.Status), c.Status)
		if c.Error != "" {
			fmt.Fprintf(w, "  Error: %s\n", c.Error)
		}
	}
}

func formatStatusIcon(status string) string {
	switch status {
	case healthcheck.StatusReady:
		return "✓"
	case healthcheck.StatusEmpty, healthcheck.StatusMissing, healthcheck.StatusDisabled:
		return "◐"
	case healthcheck.StatusError:
		return "✗"
	default:
		return "?"
	}
}

func init() {
	RootCmd.AddCommand(doctorCmd)
}
