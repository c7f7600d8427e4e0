package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/l3aro/go-multifn/pkg/procdesc"
	"github.com/l3aro/go-multifn/pkg/procedure"
)

// VariableInfo describes one variable and the instructions bound to it.
type VariableInfo struct {
	Name  string   `json:"name"`
	Type  string   `json:"type"`
	Users []string `json:"users"`
}

// InstructionInfo describes one instruction and its links.
type InstructionInfo struct {
	ID    string   `json:"id"`
	Kind  string   `json:"kind"`
	Label string   `json:"label"`
	Prev  []string `json:"prev"`
	Next  []string `json:"next"`
}

// InspectOutput represents the output structure for JSON
type InspectOutput struct {
	Procedure    string            `json:"procedure"`
	Entry        string            `json:"entry,omitempty"`
	Params       []string          `json:"params"`
	Variables    []VariableInfo    `json:"variables"`
	Instructions []InstructionInfo `json:"instructions"`
}

// inspectCmd represents the inspect command
var inspectCmd = &cobra.Command{
	Use:   "inspect <file>",
	Short: "List variables and instructions with their links",
	Long: `Builds the procedure described by file and lists every variable with the
instructions that use it and every instruction with its predecessors and
successors.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		jsonOutput, _ := cmd.Flags().GetBool("json")

		res, err := loadProcedure(args[0])
		if err != nil {
			return err
		}
		result := inspect(res)

		out := cmd.OutOrStdout()
		if jsonOutput {
			data, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return fmt.Errorf("marshaling JSON: %w", err)
			}
			fmt.Fprintln(out, string(data))
			return nil
		}
		printInspect(out, result)
		return nil
	},
}

func init() {
	inspectCmd.Flags().BoolP("json", "j", false, "Output as JSON")
	RootCmd.AddCommand(inspectCmd)
}

func inspect(res *procdesc.Result) InspectOutput {
	p := res.Procedure
	ids := instructionIDs(res)
	name := func(h procedure.InstrHandle) string {
		if h == procedure.NoInstruction {
			return "-"
		}
		return ids[h]
	}

	result := InspectOutput{
		Procedure:    p.Name(),
		Params:       []string{},
		Variables:    []VariableInfo{},
		Instructions: []InstructionInfo{},
	}
	if p.Entry() != procedure.NoInstruction {
		result.Entry = ids[p.Entry()]
	}
	for _, param := range p.Params() {
		result.Params = append(result.Params, fmt.Sprintf("%s %s", param.Interface, p.Variable(param.Var).Name()))
	}

	for _, v := range p.Variables() {
		info := VariableInfo{Name: v.Name(), Type: v.DataType().String(), Users: []string{}}
		for _, user := range v.Users() {
			info.Users = append(info.Users, ids[user])
		}
		result.Variables = append(result.Variables, info)
	}

	for _, instr := range p.Instructions() {
		info := InstructionInfo{
			ID:    ids[instr.Handle()],
			Kind:  string(instr.Kind()),
			Label: instructionLabel(p, instr),
			Prev:  []string{},
			Next:  []string{},
		}
		for _, c := range instr.Prev() {
			info.Prev = append(info.Prev, cursorLabel(c, ids))
		}
		for _, c := range procedure.Successors(instr) {
			info.Next = append(info.Next, name(c.Next(p)))
		}
		result.Instructions = append(result.Instructions, info)
	}
	return result
}

func instructionLabel(p *procedure.Procedure, instr procedure.Instruction) string {
	varName := func(v procedure.VarHandle) string {
		if v == procedure.NoVariable {
			return "_"
		}
		return p.Variable(v).Name()
	}

	switch instr := instr.(type) {
	case *procedure.Call:
		args := make([]string, 0, len(instr.Params()))
		for _, v := range instr.Params() {
			args = append(args, varName(v))
		}
		return fmt.Sprintf("%s(%s)", instr.Fn().Name(), strings.Join(args, ", "))
	case *procedure.Branch:
		return "if " + varName(instr.Condition())
	case *procedure.Destruct:
		return "destruct " + varName(instr.Var())
	default:
		return string(instr.Kind())
	}
}

func printInspect(w io.Writer, r InspectOutput) {
	fmt.Fprintf(w, "procedure %s\n", r.Procedure)
	if r.Entry != "" {
		fmt.Fprintf(w, "entry: %s\n", r.Entry)
	} else {
		fmt.Fprintln(w, "entry: -")
	}
	if len(r.Params) > 0 {
		fmt.Fprintf(w, "params: %s\n", strings.Join(r.Params, ", "))
	}

	fmt.Fprintln(w, "\nvariables:")
	for _, v := range r.Variables {
		fmt.Fprintf(w, "  %-12s %-10s users: %s\n", v.Name, v.Type, joinOrDash(v.Users))
	}

	fmt.Fprintln(w, "\ninstructions:")
	for _, i := range r.Instructions {
		fmt.Fprintf(w, "  %-12s %s\n", i.ID, i.Label)
		fmt.Fprintf(w, "  %-12s prev: %s  next: %s\n", "", joinOrDash(i.Prev), joinOrDash(i.Next))
	}
}

func joinOrDash(s []string) string {
	if len(s) == 0 {
		return "-"
	}
	return strings.Join(s, ", ")
}
