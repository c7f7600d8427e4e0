package procedure

import "github.com/l3aro/go-multifn/pkg/multifn"

// FindInitStateBefore reports whether v can be initialized and whether it can be
// uninitialized right before target executes.
//
// The search walks predecessor links backwards from target. A call writing v through
// an output parameter makes v initialized on that path, a destruct of v makes it
// uninitialized; either ends the walk along that path. Reaching the entry instruction
// without meeting one of those applies the caller's state: inputs and mutables are
// initialized, everything else is not. Results of all paths are merged with OR, so a
// variable initialized on only some paths has both flags set.
func (p *Procedure) FindInitStateBefore(target InstrHandle, v VarHandle) InitState {
	p.mustInstruction(target)
	p.mustVariable(v)

	var state InitState
	checkEntry := func() {
		if p.initializedByCaller(v) {
			state.CanBeInit = true
		} else {
			state.CanBeUninit = true
		}
	}

	if target == p.entry {
		checkEntry()
	}

	visited := make(map[InstrHandle]struct{})
	var stack []InstrHandle
	pushPredecessors := func(h InstrHandle) {
		for _, c := range p.instrs[h].header().prev {
			if prev := c.Instruction(); prev != NoInstruction {
				stack = append(stack, prev)
			}
		}
	}
	pushPredecessors(target)

	for len(stack) > 0 {
		h := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, ok := visited[h]; ok {
			continue
		}
		visited[h] = struct{}{}

		if p.applyInitEffect(h, v, &state) {
			continue
		}
		if h == p.entry {
			checkEntry()
		}
		pushPredecessors(h)
	}

	return state
}

// applyInitEffect records the effect of instruction h on v in state and reports
// whether h changed v's state. Branches, dummies and returns never do.
func (p *Procedure) applyInitEffect(h InstrHandle, v VarHandle, state *InitState) bool {
	switch instr := p.instrs[h].(type) {
	case *Call:
		for i, param := range instr.params {
			if param == v && instr.fn.ParamType(i).InterfaceType() == multifn.Output {
				state.CanBeInit = true
				return true
			}
		}
	case *Destruct:
		if instr.variable == v {
			state.CanBeUninit = true
			return true
		}
	}
	return false
}

// initializedByCaller reports whether v is passed in initialized by the caller.
func (p *Procedure) initializedByCaller(v VarHandle) bool {
	for _, param := range p.params {
		if param.Var == v && (param.Interface == multifn.Input || param.Interface == multifn.Mutable) {
			return true
		}
	}
	return false
}

// mustBeInitOnReturn reports whether v has to hold a value when the procedure returns.
func (p *Procedure) mustBeInitOnReturn(v VarHandle) bool {
	for _, param := range p.params {
		if param.Var == v && (param.Interface == multifn.Mutable || param.Interface == multifn.Output) {
			return true
		}
	}
	return false
}
