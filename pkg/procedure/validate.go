package procedure

import (
	"errors"
	"fmt"
	"strings"

	"github.com/l3aro/go-multifn/pkg/multifn"
)

// DefectKind classifies a validation failure.
type DefectKind string

const (
	DefectMissingEntry        DefectKind = "missing entry"                 // No entry instruction
	DefectDangling            DefectKind = "dangling instruction"          // Successor slot left unset
	DefectMissingBinding      DefectKind = "missing binding"               // Required variable slot left unbound
	DefectIllegalAliasing     DefectKind = "illegal aliasing"              // Variable written twice or read and written by one call
	DefectDuplicateParam      DefectKind = "duplicate procedure parameter" // Variable listed twice in the procedure's params
	DefectUninitializedUse    DefectKind = "uninitialized use"             // Read of a variable no path initializes
	DefectInitializedOutput   DefectKind = "initialized output"            // Output written over a value every path initializes
	DefectUninitializedResult DefectKind = "uninitialized result"          // Mutable or output param not initialized at return
	DefectLeak                DefectKind = "leaked variable"               // Variable still initialized at return
)

// Defect is one located validation failure.
type Defect struct {
	Kind        DefectKind  `json:"kind"`
	Instruction InstrHandle `json:"instruction"` // NoInstruction if not tied to an instruction
	Var         VarHandle   `json:"var"`         // NoVariable if not tied to a variable
	Param       int         `json:"param"`       // Call parameter index, -1 otherwise
	Message     string      `json:"message"`
}

func (d Defect) Error() string {
	if d.Instruction != NoInstruction {
		return fmt.Sprintf("%s: instruction %d: %s", d.Kind, d.Instruction, d.Message)
	}
	return fmt.Sprintf("%s: %s", d.Kind, d.Message)
}

// Report is the outcome of Diagnose.
type Report struct {
	Procedure string   `json:"procedure"`
	Defects   []Defect `json:"defects"`
}

// Valid reports whether no defect was found.
func (r *Report) Valid() bool {
	return len(r.Defects) == 0
}

// Err joins all defects into one error, nil for a valid procedure.
func (r *Report) Err() error {
	if r.Valid() {
		return nil
	}
	errs := make([]error, len(r.Defects))
	for i, d := range r.Defects {
		errs[i] = d
	}
	return fmt.Errorf("procedure %s is invalid: %w", r.Procedure, errors.Join(errs...))
}

func (r *Report) String() string {
	var sb strings.Builder
	if r.Valid() {
		fmt.Fprintf(&sb, "procedure %s: valid\n", r.Procedure)
		return sb.String()
	}
	fmt.Fprintf(&sb, "procedure %s: %d defect(s)\n", r.Procedure, len(r.Defects))
	for _, d := range r.Defects {
		fmt.Fprintf(&sb, "  %s\n", d.Error())
	}
	return sb.String()
}

// DiagnoseOptions configures Diagnose.
type DiagnoseOptions struct {
	// FailFast stops at the first defect, like Validate.
	FailFast bool
}

// Validate reports whether the procedure is well formed and every variable is
// initialized exactly when required. It stops at the first problem.
func (p *Procedure) Validate() bool {
	return p.Diagnose(DiagnoseOptions{FailFast: true}).Valid()
}

// Diagnose runs the same checks as Validate and returns every defect found.
//
// Checks run in a fixed order: entry, successors, bindings, aliasing, procedure
// parameters, initialization. The initialization analysis only runs when the graph
// has an entry and all successors and required bindings are set.
func (p *Procedure) Diagnose(opts DiagnoseOptions) *Report {
	v := &validator{p: p, failFast: opts.FailFast}
	v.run()
	return &Report{Procedure: p.name, Defects: v.defects}
}

type validator struct {
	p        *Procedure
	failFast bool
	defects  []Defect
}

func (v *validator) add(kind DefectKind, instr InstrHandle, variable VarHandle, param int, format string, args ...interface{}) {
	v.defects = append(v.defects, Defect{
		Kind:        kind,
		Instruction: instr,
		Var:         variable,
		Param:       param,
		Message:     fmt.Sprintf(format, args...),
	})
}

func (v *validator) done() bool {
	return v.failFast && len(v.defects) > 0
}

func (v *validator) run() {
	if v.p.entry == NoInstruction {
		v.add(DefectMissingEntry, NoInstruction, NoVariable, -1, "procedure has no entry instruction")
	}
	for _, pass := range []func(){v.checkSuccessors, v.checkBindings} {
		if v.done() {
			return
		}
		pass()
	}
	complete := len(v.defects) == 0

	for _, pass := range []func(){v.checkAliasing, v.checkParams} {
		if v.done() {
			return
		}
		pass()
	}
	if v.done() || !complete {
		return
	}
	v.checkInit()
}

// checkSuccessors requires every successor slot of every non-terminal instruction to be set.
func (v *validator) checkSuccessors() {
	for _, instr := range v.p.instrs {
		for _, c := range Successors(instr) {
			if c.Next(v.p) != NoInstruction {
				continue
			}
			slot := "next"
			if c.Kind() == CursorBranch {
				slot = "false branch"
				if c.BranchOutput() {
					slot = "true branch"
				}
			}
			v.add(DefectDangling, instr.Handle(), NoVariable, -1, "%s has no %s", instr.Kind(), slot)
			if v.done() {
				return
			}
		}
	}
}

// checkBindings requires every non-optional call parameter, branch condition and
// destruct target to be bound.
func (v *validator) checkBindings() {
	for _, h := range v.p.calls {
		call := v.p.instrs[h].(*Call)
		for i, param := range call.params {
			pt := call.fn.ParamType(i)
			if param != NoVariable || pt.IsOptional() {
				continue
			}
			v.add(DefectMissingBinding, h, NoVariable, i, "param %d (%s %s) of %s is unbound", i, pt, call.fn.ParamName(i), call.fn.Name())
			if v.done() {
				return
			}
		}
	}
	for _, h := range v.p.branches {
		if v.p.instrs[h].(*Branch).condition == NoVariable {
			v.add(DefectMissingBinding, h, NoVariable, -1, "branch has no condition")
			if v.done() {
				return
			}
		}
	}
	for _, h := range v.p.destructs {
		if v.p.instrs[h].(*Destruct).variable == NoVariable {
			v.add(DefectMissingBinding, h, NoVariable, -1, "destruct has no variable")
			if v.done() {
				return
			}
		}
	}
}

// checkAliasing allows a variable to appear in several parameters of one call only
// if every occurrence is an input.
func (v *validator) checkAliasing() {
	for _, h := range v.p.calls {
		call := v.p.instrs[h].(*Call)
		for i, param := range call.params {
			if param == NoVariable {
				continue
			}
			for j := i + 1; j < len(call.params); j++ {
				if call.params[j] != param {
					continue
				}
				ifaceI := call.fn.ParamType(i).InterfaceType()
				ifaceJ := call.fn.ParamType(j).InterfaceType()
				if ifaceI == multifn.Input && ifaceJ == multifn.Input {
					continue
				}
				v.add(DefectIllegalAliasing, h, param, j, "%s is bound to param %d (%s) and param %d (%s) of %s",
					v.p.vars[param], i, ifaceI, j, ifaceJ, call.fn.Name())
				if v.done() {
					return
				}
			}
		}
	}
}

// checkParams forbids listing a variable twice in the procedure's parameter list.
func (v *validator) checkParams() {
	seen := make(map[VarHandle]int)
	for i, param := range v.p.params {
		if first, ok := seen[param.Var]; ok {
			v.add(DefectDuplicateParam, NoInstruction, param.Var, -1, "%s is procedure parameter %d and %d", v.p.vars[param.Var], first, i)
			if v.done() {
				return
			}
			continue
		}
		seen[param.Var] = i
	}
}

// checkInit runs the definite-assignment analysis at every read, write and return.
func (v *validator) checkInit() {
	p := v.p
	for _, h := range p.destructs {
		target := p.instrs[h].(*Destruct).variable
		if !p.FindInitStateBefore(h, target).CanBeInit {
			v.add(DefectUninitializedUse, h, target, -1, "destruct of %s which is not initialized on any path", p.vars[target])
			if v.done() {
				return
			}
		}
	}
	for _, h := range p.branches {
		cond := p.instrs[h].(*Branch).condition
		if !p.FindInitStateBefore(h, cond).CanBeInit {
			v.add(DefectUninitializedUse, h, cond, -1, "branch condition %s is not initialized on any path", p.vars[cond])
			if v.done() {
				return
			}
		}
	}
	for _, h := range p.calls {
		call := p.instrs[h].(*Call)
		for i, param := range call.params {
			if param == NoVariable {
				continue
			}
			state := p.FindInitStateBefore(h, param)
			switch iface := call.fn.ParamType(i).InterfaceType(); iface {
			case multifn.Input, multifn.Mutable:
				if !state.CanBeInit {
					v.add(DefectUninitializedUse, h, param, i, "param %d (%s %s) of %s reads %s which is not initialized on any path",
						i, iface, call.fn.ParamName(i), call.fn.Name(), p.vars[param])
				}
			case multifn.Output:
				if !state.CanBeUninit {
					v.add(DefectInitializedOutput, h, param, i, "param %d (%s %s) of %s writes %s which is initialized on every path",
						i, iface, call.fn.ParamName(i), call.fn.Name(), p.vars[param])
				}
			}
			if v.done() {
				return
			}
		}
	}
	for _, h := range p.returns {
		for _, variable := range p.vars {
			state := p.FindInitStateBefore(h, variable.index)
			if p.mustBeInitOnReturn(variable.index) {
				if !state.CanBeInit {
					v.add(DefectUninitializedResult, h, variable.index, -1, "%s is not initialized at return on any path", variable)
				}
			} else if !state.CanBeUninit {
				v.add(DefectLeak, h, variable.index, -1, "%s is still initialized at return on every path", variable)
			}
			if v.done() {
				return
			}
		}
	}
}
