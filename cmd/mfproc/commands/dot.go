package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/l3aro/go-multifn/pkg/procedure"
)

// dotCmd represents the dot command
var dotCmd = &cobra.Command{
	Use:   "dot <file>",
	Short: "Export a procedure as a Graphviz digraph",
	Long: `Builds the procedure described by file and prints it in DOT format. Straight
line runs of instructions are grouped into one block; unset successors point at
"missing" nodes. The procedure does not need to be valid.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")

		res, err := loadProcedure(args[0])
		if err != nil {
			return err
		}

		text := procedure.ExportDot(res.Procedure, procedure.DotOptions{
			TrueColor:  cfg.DotTrueColor,
			FalseColor: cfg.DotFalseColor,
		})

		if output == "" {
			fmt.Fprint(cmd.OutOrStdout(), text)
			return nil
		}
		if err := os.WriteFile(output, []byte(text), 0644); err != nil {
			return fmt.Errorf("writing %s: %w", output, err)
		}
		logger.Info("wrote graph", "file", output, "instructions", res.Procedure.InstructionCount())
		return nil
	},
}

func init() {
	dotCmd.Flags().StringP("output", "o", "", "Write the graph to this file instead of stdout")
	RootCmd.AddCommand(dotCmd)
}
