package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// StateOutput represents the output structure for JSON
type StateOutput struct {
	Instruction string `json:"instruction"`
	Variable    string `json:"variable"`
	CanBeInit   bool   `json:"can_be_init"`
	CanBeUninit bool   `json:"can_be_uninit"`
}

// stateCmd represents the state command
var stateCmd = &cobra.Command{
	Use:   "state <file>",
	Short: "Show the init state of a variable before an instruction",
	Long: `Walks backwards from the instruction named by --at and reports whether the
variable named by --var can be initialized and whether it can be uninitialized
when control reaches that instruction.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		at, _ := cmd.Flags().GetString("at")
		varName, _ := cmd.Flags().GetString("var")
		jsonOutput, _ := cmd.Flags().GetBool("json")

		res, err := loadProcedure(args[0])
		if err != nil {
			return err
		}
		instr, err := res.Instruction(at)
		if err != nil {
			return err
		}
		v, err := res.Variable(varName)
		if err != nil {
			return err
		}

		state := res.Procedure.FindInitStateBefore(instr, v)
		result := StateOutput{
			Instruction: at,
			Variable:    varName,
			CanBeInit:   state.CanBeInit,
			CanBeUninit: state.CanBeUninit,
		}

		out := cmd.OutOrStdout()
		if jsonOutput {
			data, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return fmt.Errorf("marshaling JSON: %w", err)
			}
			fmt.Fprintln(out, string(data))
			return nil
		}

		fmt.Fprintf(out, "%s before %s: %s\n", varName, at, describeState(result))
		return nil
	},
}

func describeState(s StateOutput) string {
	switch {
	case s.CanBeInit && s.CanBeUninit:
		return "maybe initialized"
	case s.CanBeInit:
		return "initialized"
	case s.CanBeUninit:
		return "uninitialized"
	default:
		return "unreachable"
	}
}

func init() {
	stateCmd.Flags().String("at", "", "Instruction id")
	stateCmd.Flags().String("var", "", "Variable name")
	stateCmd.Flags().BoolP("json", "j", false, "Output as JSON")
	_ = stateCmd.MarkFlagRequired("at")
	_ = stateCmd.MarkFlagRequired("var")
	RootCmd.AddCommand(stateCmd)
}
