package procedure

import "fmt"

// Cursor names a place where a successor link lives: the procedure's entry slot or
// one successor slot of an instruction. Cursors are comparable values.
type Cursor struct {
	kind         CursorKind
	instr        InstrHandle
	branchOutput bool
}

// EntryCursor points at the procedure's entry slot.
func EntryCursor() Cursor {
	return Cursor{kind: CursorEntry, instr: NoInstruction}
}

func CallCursor(call InstrHandle) Cursor {
	return Cursor{kind: CursorCall, instr: call}
}

// BranchCursor points at the true (branchOutput) or false successor of a branch.
func BranchCursor(branch InstrHandle, branchOutput bool) Cursor {
	return Cursor{kind: CursorBranch, instr: branch, branchOutput: branchOutput}
}

func DestructCursor(destruct InstrHandle) Cursor {
	return Cursor{kind: CursorDestruct, instr: destruct}
}

func DummyCursor(dummy InstrHandle) Cursor {
	return Cursor{kind: CursorDummy, instr: dummy}
}

// Kind returns the slot kind. The zero Cursor has kind CursorNone.
func (c Cursor) Kind() CursorKind {
	if c.kind == "" {
		return CursorNone
	}
	return c.kind
}

// Instruction returns the instruction owning the slot, or NoInstruction for the
// entry slot and the none cursor.
func (c Cursor) Instruction() InstrHandle {
	switch c.Kind() {
	case CursorNone, CursorEntry:
		return NoInstruction
	default:
		return c.instr
	}
}

// BranchOutput reports which branch slot the cursor names. Only meaningful for
// CursorBranch.
func (c Cursor) BranchOutput() bool {
	return c.branchOutput
}

// Next returns the instruction currently stored in the slot, NoInstruction if unset.
func (c Cursor) Next(p *Procedure) InstrHandle {
	slot := c.slot(p)
	if slot == nil {
		return NoInstruction
	}
	return *slot
}

// SetNext stores target in the slot and updates the predecessor lists of the old
// and new target. Setting a none cursor does nothing.
func (c Cursor) SetNext(p *Procedure, target InstrHandle) {
	p.link(c, target)
}

func (c Cursor) String() string {
	switch c.Kind() {
	case CursorNone:
		return "none"
	case CursorEntry:
		return "entry"
	case CursorBranch:
		if c.branchOutput {
			return fmt.Sprintf("branch#%d.true", c.instr)
		}
		return fmt.Sprintf("branch#%d.false", c.instr)
	default:
		return fmt.Sprintf("%s#%d", c.kind, c.instr)
	}
}

// slot resolves the cursor to the successor field it names. It panics when the
// cursor's instruction is not of the matching kind.
func (c Cursor) slot(p *Procedure) *InstrHandle {
	switch c.Kind() {
	case CursorNone:
		return nil
	case CursorEntry:
		return &p.entry
	case CursorCall:
		return &p.mustCall(c.instr).next
	case CursorBranch:
		branch := p.mustBranch(c.instr)
		if c.branchOutput {
			return &branch.branchTrue
		}
		return &branch.branchFalse
	case CursorDestruct:
		return &p.mustDestruct(c.instr).next
	case CursorDummy:
		return &p.mustDummy(c.instr).next
	}
	panic(fmt.Sprintf("procedure: unknown cursor kind %q", c.kind))
}
