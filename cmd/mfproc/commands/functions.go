package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/l3aro/go-multifn/pkg/multifn"
)

// FunctionParamOutput is one parameter of a listed function.
type FunctionParamOutput struct {
	Name      string `json:"name"`
	Interface string `json:"interface"`
	Type      string `json:"type"`
	Optional  bool   `json:"optional,omitempty"`
}

// FunctionOutput represents the output structure for JSON
type FunctionOutput struct {
	Name   string                `json:"name"`
	Params []FunctionParamOutput `json:"params"`
}

// functionsCmd represents the functions command
var functionsCmd = &cobra.Command{
	Use:   "functions",
	Short: "List builtin function signatures",
	Long:  `Lists the functions every procedure description can call without declaring them.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		jsonOutput, _ := cmd.Flags().GetBool("json")
		registry := multifn.Builtins()
		out := cmd.OutOrStdout()

		if !jsonOutput {
			for _, name := range registry.Names() {
				fn, _ := registry.Lookup(name)
				fmt.Fprintln(out, multifn.FormatSignature(fn))
			}
			return nil
		}

		results := []FunctionOutput{}
		for _, name := range registry.Names() {
			fn, _ := registry.Lookup(name)
			f := FunctionOutput{Name: name, Params: []FunctionParamOutput{}}
			for i := 0; i < fn.ParamCount(); i++ {
				pt := fn.ParamType(i)
				f.Params = append(f.Params, FunctionParamOutput{
					Name:      fn.ParamName(i),
					Interface: string(pt.InterfaceType()),
					Type:      pt.DataType().String(),
					Optional:  pt.IsOptional(),
				})
			}
			results = append(results, f)
		}
		data, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling JSON: %w", err)
		}
		fmt.Fprintln(out, string(data))
		return nil
	},
}

func init() {
	functionsCmd.Flags().BoolP("json", "j", false, "Output as JSON")
	RootCmd.AddCommand(functionsCmd)
}
