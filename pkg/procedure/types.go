// Package procedure defines the multi-function procedure IR: a control flow graph of
// instructions that call multi-functions on a pool of typed variables, together with
// the construction API and a static validator.
//
// A Procedure is an arena. Variables and instructions are created through it, owned
// by it and referenced by handle. Every link between two objects is stored on both
// sides (successor and predecessor, binding and user) and all mutators keep the two
// sides consistent.
package procedure

import "github.com/l3aro/go-multifn/pkg/multifn"

// VarHandle is the index of a variable in its procedure.
type VarHandle int

// InstrHandle is the index of an instruction in its procedure.
type InstrHandle int

const (
	NoVariable    VarHandle   = -1 // Unbound variable slot
	NoInstruction InstrHandle = -1 // Unset successor slot
)

// InstructionKind is the closed set of instruction variants.
type InstructionKind string

const (
	KindCall     InstructionKind = "call"     // Calls a multi-function
	KindBranch   InstructionKind = "branch"   // Two-way conditional jump
	KindDestruct InstructionKind = "destruct" // Ends the lifetime of a variable
	KindDummy    InstructionKind = "dummy"    // No-op placeholder or join point
	KindReturn   InstructionKind = "return"   // Leaves the procedure
)

// CursorKind identifies the successor slot a Cursor points at.
type CursorKind string

const (
	CursorNone     CursorKind = "none"     // Points nowhere
	CursorEntry    CursorKind = "entry"    // The procedure's entry slot
	CursorCall     CursorKind = "call"     // Successor of a call
	CursorBranch   CursorKind = "branch"   // True or false successor of a branch
	CursorDestruct CursorKind = "destruct" // Successor of a destruct
	CursorDummy    CursorKind = "dummy"    // Successor of a dummy
)

// Param is one entry of the procedure's own parameter list.
type Param struct {
	Interface multifn.InterfaceType `json:"interface"`
	Var       VarHandle             `json:"var"`
}

// InitState describes whether a variable can be initialized or uninitialized at a
// program point. Both flags are set when incoming paths disagree.
type InitState struct {
	CanBeInit   bool `json:"can_be_init"`
	CanBeUninit bool `json:"can_be_uninit"`
}
