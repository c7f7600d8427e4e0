package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/l3aro/go-multifn/pkg/cache"
	"github.com/l3aro/go-multifn/pkg/procedure"
)

// FileResult is the validation outcome of one description file.
type FileResult struct {
	Path   string            `json:"path"`
	Report *procedure.Report `json:"report,omitempty"`
	Error  string            `json:"error,omitempty"`
	Cached bool              `json:"cached"`
}

// Valid reports whether the file built and its procedure has no defects.
func (r FileResult) Valid() bool {
	return r.Error == "" && r.Report != nil && r.Report.Valid()
}

var (
	validStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
	invalidStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	detailStyle  = lipgloss.NewStyle().PaddingLeft(2)
)

// validateCmd represents the validate command
var validateCmd = &cobra.Command{
	Use:   "validate <path>...",
	Short: "Validate procedure descriptions",
	Long: `Builds every given description file, or every description found below the
given directories, and validates the resulting procedures. Exits non-zero when
any procedure fails to build or has defects.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		jsonOutput, _ := cmd.Flags().GetBool("json")
		failFast, _ := cmd.Flags().GetBool("fail-fast")
		noCache, _ := cmd.Flags().GetBool("no-cache")
		failFast = failFast || cfg.FailFast

		paths, err := newScanner().Resolve(args)
		if err != nil {
			return err
		}
		if len(paths) == 0 {
			return fmt.Errorf("no procedure descriptions found (extension %s)", cfg.DescriptionExt)
		}

		var store *cache.Store[procedure.Report]
		if cfg.CacheEnabled && !noCache {
			store, err = cache.Open[procedure.Report](cfg.CachePath, cfg.CacheMaxEntries)
			if err != nil {
				logger.Warn("discarding report cache", "path", cfg.CachePath, "err", err)
			}
			defer func() {
				if err := store.Flush(); err != nil {
					logger.Warn("writing report cache", "path", cfg.CachePath, "err", err)
				}
			}()
		}

		results := make([]FileResult, 0, len(paths))
		for _, path := range paths {
			results = append(results, validateFile(path, failFast, store))
		}

		out := cmd.OutOrStdout()
		if jsonOutput {
			data, err := json.MarshalIndent(results, "", "  ")
			if err != nil {
				return fmt.Errorf("marshaling JSON: %w", err)
			}
			fmt.Fprintln(out, string(data))
		} else {
			printValidation(out, results)
		}

		for _, r := range results {
			if !r.Valid() {
				return ErrInvalid
			}
		}
		return nil
	},
}

func init() {
	validateCmd.Flags().BoolP("json", "j", false, "Output as JSON")
	validateCmd.Flags().Bool("fail-fast", false, "Stop at the first defect of each procedure")
	validateCmd.Flags().Bool("no-cache", false, "Do not read or write the report cache")
	RootCmd.AddCommand(validateCmd)
}

// validateFile builds and diagnoses one file. Reports are cached by content so that
// unchanged descriptions are not rebuilt; build errors are never cached.
func validateFile(path string, failFast bool, store *cache.Store[procedure.Report]) FileResult {
	result := FileResult{Path: path}

	data, err := os.ReadFile(path)
	if err != nil {
		result.Error = err.Error()
		logger.Error("reading description", "file", path, "err", err)
		return result
	}

	key := cache.Key(append([]byte(fmt.Sprintf("fail_fast=%t\n", failFast)), data...))
	if store != nil {
		if report, ok := store.Get(key); ok {
			logger.Debug("report cache hit", "file", path)
			result.Report = &report
			result.Cached = true
			return result
		}
	}

	res, err := buildProcedure(path, data)
	if err != nil {
		result.Error = err.Error()
		logger.Warn("description did not build", "file", path, "err", err)
		return result
	}

	report := res.Procedure.Diagnose(procedure.DiagnoseOptions{FailFast: failFast})
	logger.Info("validated", "file", path, "procedure", report.Procedure, "defects", len(report.Defects))
	if store != nil {
		store.Put(key, *report)
	}
	result.Report = report
	return result
}

func printValidation(w io.Writer, results []FileResult) {
	valid := 0
	for _, r := range results {
		switch {
		case r.Error != "":
			fmt.Fprintf(w, "%s %s\n", invalidStyle.Render("✗"), r.Path)
			fmt.Fprintln(w, detailStyle.Render(r.Error))
		case r.Report.Valid():
			valid++
			fmt.Fprintf(w, "%s %s\n", validStyle.Render("✓"), r.Path)
			fmt.Fprintln(w, detailStyle.Render(strings.TrimSuffix(r.Report.String(), "\n")))
		default:
			fmt.Fprintf(w, "%s %s\n", invalidStyle.Render("✗"), r.Path)
			fmt.Fprintln(w, detailStyle.Render(strings.TrimSuffix(r.Report.String(), "\n")))
		}
	}
	fmt.Fprintf(w, "\n%d of %d procedures valid\n", valid, len(results))
}
