package procedure

import "github.com/l3aro/go-multifn/pkg/multifn"

// Instruction is one node of the procedure's control flow graph.
// The set of implementations is closed: *Call, *Branch, *Destruct, *Dummy and *Return.
type Instruction interface {
	Kind() InstructionKind
	Handle() InstrHandle

	// Prev returns the cursors of all successor slots that point at this instruction.
	Prev() []Cursor

	header() *instructionHeader
}

type instructionHeader struct {
	kind   InstructionKind
	handle InstrHandle
	prev   []Cursor
}

func (h *instructionHeader) Kind() InstructionKind {
	return h.kind
}

func (h *instructionHeader) Handle() InstrHandle {
	return h.handle
}

func (h *instructionHeader) Prev() []Cursor {
	prev := make([]Cursor, len(h.prev))
	copy(prev, h.prev)
	return prev
}

func (h *instructionHeader) header() *instructionHeader {
	return h
}

// Call invokes a multi-function with one variable per parameter.
type Call struct {
	instructionHeader
	fn     multifn.Function
	params []VarHandle
	next   InstrHandle
}

// Fn returns the called function.
func (c *Call) Fn() multifn.Function {
	return c.fn
}

// Params returns the bound variable of every parameter, NoVariable where unbound.
func (c *Call) Params() []VarHandle {
	params := make([]VarHandle, len(c.params))
	copy(params, c.params)
	return params
}

// Param returns the variable bound to parameter i.
func (c *Call) Param(i int) VarHandle {
	return c.params[i]
}

func (c *Call) Next() InstrHandle {
	return c.next
}

// Branch jumps to one of two successors depending on a boolean condition variable.
type Branch struct {
	instructionHeader
	condition   VarHandle
	branchTrue  InstrHandle
	branchFalse InstrHandle
}

func (b *Branch) Condition() VarHandle {
	return b.condition
}

func (b *Branch) BranchTrue() InstrHandle {
	return b.branchTrue
}

func (b *Branch) BranchFalse() InstrHandle {
	return b.branchFalse
}

// Destruct ends the lifetime of a variable; it is uninitialized afterwards.
type Destruct struct {
	instructionHeader
	variable VarHandle
	next     InstrHandle
}

func (d *Destruct) Var() VarHandle {
	return d.variable
}

func (d *Destruct) Next() InstrHandle {
	return d.next
}

// Dummy does nothing. Builders use it as a join point or as a placeholder to wire
// successors before the real instruction exists.
type Dummy struct {
	instructionHeader
	next InstrHandle
}

func (d *Dummy) Next() InstrHandle {
	return d.next
}

// Return leaves the procedure.
type Return struct {
	instructionHeader
}

// Successors returns every successor cursor of an instruction in slot order.
// Branches yield the true slot first. Returns have none.
func Successors(instr Instruction) []Cursor {
	h := instr.Handle()
	switch instr.Kind() {
	case KindCall:
		return []Cursor{CallCursor(h)}
	case KindBranch:
		return []Cursor{BranchCursor(h, true), BranchCursor(h, false)}
	case KindDestruct:
		return []Cursor{DestructCursor(h)}
	case KindDummy:
		return []Cursor{DummyCursor(h)}
	default:
		return nil
	}
}
