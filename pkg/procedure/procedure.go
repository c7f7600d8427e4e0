package procedure

import (
	"fmt"

	"github.com/l3aro/go-multifn/pkg/multifn"
)

// Procedure owns a set of variables and instructions forming a control flow graph,
// plus the entry instruction and the parameter list seen by callers.
//
// Construction mistakes that can only come from a buggy builder (wrong handle kind,
// parameter index out of range, data type mismatch) panic. Everything else is left
// for Validate to report.
type Procedure struct {
	name   string
	vars   []*Variable
	instrs []Instruction

	// Instructions grouped by kind, in creation order.
	calls     []InstrHandle
	branches  []InstrHandle
	destructs []InstrHandle
	dummies   []InstrHandle
	returns   []InstrHandle

	params []Param
	entry  InstrHandle
}

// New creates an empty procedure. The name is only used in diagnostics.
func New(name string) *Procedure {
	return &Procedure{
		name:  name,
		entry: NoInstruction,
	}
}

func (p *Procedure) Name() string {
	return p.name
}

// NewVariable adds a variable of the given data type.
func (p *Procedure) NewVariable(dataType multifn.DataType, name string) VarHandle {
	h := VarHandle(len(p.vars))
	p.vars = append(p.vars, &Variable{
		name:     name,
		dataType: dataType,
		index:    h,
	})
	return h
}

// Variable returns the variable behind h.
func (p *Procedure) Variable(h VarHandle) *Variable {
	return p.mustVariable(h)
}

// Variables returns all variables in creation order.
func (p *Procedure) Variables() []*Variable {
	vars := make([]*Variable, len(p.vars))
	copy(vars, p.vars)
	return vars
}

func (p *Procedure) VariableCount() int {
	return len(p.vars)
}

// NewCallInstruction adds a call of fn with all parameters unbound and no successor.
func (p *Procedure) NewCallInstruction(fn multifn.Function) InstrHandle {
	if fn == nil {
		panic("procedure: call instruction needs a function")
	}
	params := make([]VarHandle, fn.ParamCount())
	for i := range params {
		params[i] = NoVariable
	}
	call := &Call{fn: fn, params: params, next: NoInstruction}
	h := p.addInstruction(call, KindCall)
	p.calls = append(p.calls, h)
	return h
}

// NewBranchInstruction adds a branch with no condition and no successors.
func (p *Procedure) NewBranchInstruction() InstrHandle {
	branch := &Branch{condition: NoVariable, branchTrue: NoInstruction, branchFalse: NoInstruction}
	h := p.addInstruction(branch, KindBranch)
	p.branches = append(p.branches, h)
	return h
}

// NewDestructInstruction adds a destruct with no target and no successor.
func (p *Procedure) NewDestructInstruction() InstrHandle {
	destruct := &Destruct{variable: NoVariable, next: NoInstruction}
	h := p.addInstruction(destruct, KindDestruct)
	p.destructs = append(p.destructs, h)
	return h
}

func (p *Procedure) NewDummyInstruction() InstrHandle {
	dummy := &Dummy{next: NoInstruction}
	h := p.addInstruction(dummy, KindDummy)
	p.dummies = append(p.dummies, h)
	return h
}

func (p *Procedure) NewReturnInstruction() InstrHandle {
	h := p.addInstruction(&Return{}, KindReturn)
	p.returns = append(p.returns, h)
	return h
}

func (p *Procedure) addInstruction(instr Instruction, kind InstructionKind) InstrHandle {
	h := InstrHandle(len(p.instrs))
	hdr := instr.header()
	hdr.kind = kind
	hdr.handle = h
	p.instrs = append(p.instrs, instr)
	return h
}

// Instruction returns the instruction behind h.
func (p *Procedure) Instruction(h InstrHandle) Instruction {
	return p.mustInstruction(h)
}

// Instructions returns all instructions in creation order.
func (p *Procedure) Instructions() []Instruction {
	instrs := make([]Instruction, len(p.instrs))
	copy(instrs, p.instrs)
	return instrs
}

func (p *Procedure) InstructionCount() int {
	return len(p.instrs)
}

// InstructionsOfKind returns the handles of all instructions of one kind in creation order.
func (p *Procedure) InstructionsOfKind(kind InstructionKind) []InstrHandle {
	var src []InstrHandle
	switch kind {
	case KindCall:
		src = p.calls
	case KindBranch:
		src = p.branches
	case KindDestruct:
		src = p.destructs
	case KindDummy:
		src = p.dummies
	case KindReturn:
		src = p.returns
	}
	handles := make([]InstrHandle, len(src))
	copy(handles, src)
	return handles
}

// SetParamVar binds v to parameter index of a call. v may be NoVariable to leave an
// optional output unbound. v's data type must match the parameter's.
func (p *Procedure) SetParamVar(call InstrHandle, index int, v VarHandle) {
	c := p.mustCall(call)
	if index < 0 || index >= len(c.params) {
		panic(fmt.Sprintf("procedure: parameter index %d out of range for %s (%d params)", index, c.fn.Name(), len(c.params)))
	}
	if v != NoVariable {
		want := c.fn.ParamType(index).DataType()
		if got := p.mustVariable(v).dataType; got != want {
			panic(fmt.Sprintf("procedure: variable %s has type %s, parameter %d of %s expects %s", p.vars[v], got, index, c.fn.Name(), want))
		}
	}
	p.rebind(&c.params[index], call, v)
}

// SetParams binds every parameter of a call at once.
func (p *Procedure) SetParams(call InstrHandle, vars ...VarHandle) {
	c := p.mustCall(call)
	if len(vars) != len(c.params) {
		panic(fmt.Sprintf("procedure: %s takes %d params, got %d", c.fn.Name(), len(c.params), len(vars)))
	}
	for i, v := range vars {
		p.SetParamVar(call, i, v)
	}
}

// SetCondition binds the condition variable of a branch.
func (p *Procedure) SetCondition(branch InstrHandle, v VarHandle) {
	b := p.mustBranch(branch)
	p.rebind(&b.condition, branch, v)
}

func (p *Procedure) SetBranchTrue(branch InstrHandle, target InstrHandle) {
	p.link(BranchCursor(branch, true), target)
}

func (p *Procedure) SetBranchFalse(branch InstrHandle, target InstrHandle) {
	p.link(BranchCursor(branch, false), target)
}

// SetDestructVar binds the variable a destruct ends the lifetime of.
func (p *Procedure) SetDestructVar(destruct InstrHandle, v VarHandle) {
	d := p.mustDestruct(destruct)
	p.rebind(&d.variable, destruct, v)
}

// SetNext sets the single successor of a call, destruct or dummy.
func (p *Procedure) SetNext(instr InstrHandle, target InstrHandle) {
	p.link(NextCursor(p.mustInstruction(instr)), target)
}

// NextCursor returns the single successor cursor of a call, destruct or dummy.
// It panics for branches and returns.
func NextCursor(instr Instruction) Cursor {
	switch instr.Kind() {
	case KindCall:
		return CallCursor(instr.Handle())
	case KindDestruct:
		return DestructCursor(instr.Handle())
	case KindDummy:
		return DummyCursor(instr.Handle())
	default:
		panic(fmt.Sprintf("procedure: %s instruction %d has no single successor", instr.Kind(), instr.Handle()))
	}
}

// SetEntry makes target the first instruction executed.
func (p *Procedure) SetEntry(target InstrHandle) {
	p.link(EntryCursor(), target)
}

// Entry returns the entry instruction, NoInstruction if unset.
func (p *Procedure) Entry() InstrHandle {
	return p.entry
}

// AddParam appends v to the procedure's parameter list.
func (p *Procedure) AddParam(iface multifn.InterfaceType, v VarHandle) {
	p.mustVariable(v)
	p.params = append(p.params, Param{Interface: iface, Var: v})
}

// Params returns the procedure's parameter list.
func (p *Procedure) Params() []Param {
	params := make([]Param, len(p.params))
	copy(params, p.params)
	return params
}

// link stores target in the slot named by c and moves c from the old target's
// predecessor list to the new one's. All successor mutators go through here.
func (p *Procedure) link(c Cursor, target InstrHandle) {
	slot := c.slot(p)
	if slot == nil {
		return
	}
	if target != NoInstruction {
		p.mustInstruction(target)
	}
	if old := *slot; old != NoInstruction {
		hdr := p.instrs[old].header()
		hdr.prev = removeFirst(hdr.prev, c)
	}
	if target != NoInstruction {
		hdr := p.instrs[target].header()
		hdr.prev = append(hdr.prev, c)
	}
	*slot = target
}

// rebind stores v in a variable slot of user and moves user from the old variable's
// users list to the new one's. All variable binders go through here.
func (p *Procedure) rebind(slot *VarHandle, user InstrHandle, v VarHandle) {
	if v != NoVariable {
		p.mustVariable(v)
	}
	if old := *slot; old != NoVariable {
		p.vars[old].users = removeFirst(p.vars[old].users, user)
	}
	if v != NoVariable {
		p.vars[v].users = append(p.vars[v].users, user)
	}
	*slot = v
}

// removeFirst removes the first occurrence of x, moving the last element into its place.
func removeFirst[T comparable](s []T, x T) []T {
	for i, e := range s {
		if e == x {
			last := len(s) - 1
			s[i] = s[last]
			return s[:last]
		}
	}
	return s
}

func (p *Procedure) mustVariable(h VarHandle) *Variable {
	if h < 0 || int(h) >= len(p.vars) {
		panic(fmt.Sprintf("procedure: invalid variable handle %d", h))
	}
	return p.vars[h]
}

func (p *Procedure) mustInstruction(h InstrHandle) Instruction {
	if h < 0 || int(h) >= len(p.instrs) {
		panic(fmt.Sprintf("procedure: invalid instruction handle %d", h))
	}
	return p.instrs[h]
}

func (p *Procedure) mustCall(h InstrHandle) *Call {
	if c, ok := p.mustInstruction(h).(*Call); ok {
		return c
	}
	panic(p.kindMismatch(h, KindCall))
}

func (p *Procedure) mustBranch(h InstrHandle) *Branch {
	if b, ok := p.mustInstruction(h).(*Branch); ok {
		return b
	}
	panic(p.kindMismatch(h, KindBranch))
}

func (p *Procedure) mustDestruct(h InstrHandle) *Destruct {
	if d, ok := p.mustInstruction(h).(*Destruct); ok {
		return d
	}
	panic(p.kindMismatch(h, KindDestruct))
}

func (p *Procedure) mustDummy(h InstrHandle) *Dummy {
	if d, ok := p.mustInstruction(h).(*Dummy); ok {
		return d
	}
	panic(p.kindMismatch(h, KindDummy))
}

func (p *Procedure) kindMismatch(h InstrHandle, want InstructionKind) string {
	return fmt.Sprintf("procedure: instruction %d is a %s, not a %s", h, p.instrs[h].Kind(), want)
}
