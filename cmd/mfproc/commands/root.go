package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/l3aro/go-multifn/internal/config"
	"github.com/l3aro/go-multifn/internal/log"
)

// ErrInvalid is returned when at least one procedure failed validation. The
// defects have already been printed, so callers only need to set the exit code.
var ErrInvalid = errors.New("invalid procedures")

var (
	cfg    *config.Config
	logger log.Logger = log.Default()
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "mfproc",
	Short: "mfproc - Multi-function procedure validator",
	Long: `mfproc builds multi-function procedures from YAML descriptions and checks
that their control flow is complete and every variable is initialized exactly
when required.

Commands:
  validate    Validate procedure descriptions
  dot         Export a procedure as a Graphviz digraph
  state       Show the init state of a variable before an instruction
  inspect     List variables and instructions with their links
  functions   List builtin function signatures
  doctor      Check configuration, cache and ignore file
  watch       Revalidate descriptions when they change
  init        Create a configuration file interactively

Use "mfproc [command] --help" for more information about a command.`,
	Version:       "dev",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup(cmd)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately
func Execute() error {
	return RootCmd.Execute()
}

// setup loads the configuration and builds the logger shared by all commands.
func setup(cmd *cobra.Command) error {
	path, _ := cmd.Flags().GetString("config")
	var err error
	if path != "" {
		cfg, err = config.LoadFromFile(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		cfg.Verbose = true
	}

	logger = log.New(log.LoggerConfig{
		Level:      cfg.Level(),
		JSONOutput: cfg.JSONLogs,
		Output:     cmd.ErrOrStderr(),
	})
	logger.Debug("configuration loaded", "path", path, "level", cfg.Level())
	return nil
}

func init() {
	RootCmd.PersistentFlags().String("config", "", "Config file path (default: project then global config)")
	RootCmd.PersistentFlags().BoolP("verbose", "V", false, "Verbose logging")
	RootCmd.SetVersionTemplate(`mfproc version {{.Version}}
`)
}
