package procedure

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/l3aro/go-multifn/pkg/multifn"
)

var (
	floatType = multifn.Single("float")
	boolType  = multifn.Single("bool")

	constFloat = multifn.NewCustom(multifn.NewSignatureBuilder("constant_float").
			SingleOutput("Value", "float").Build())
	constBool = multifn.NewCustom(multifn.NewSignatureBuilder("constant_bool").
			SingleOutput("Value", "bool").Build())
	copyFloat = multifn.NewCustom(multifn.NewSignatureBuilder("copy_float").
			SingleInput("In", "float").SingleOutput("Out", "float").Build())
	addFloat = multifn.NewCustom(multifn.NewSignatureBuilder("add").
			SingleInput("A", "float").SingleInput("B", "float").SingleOutput("Result", "float").Build())
	incrementFloat = multifn.NewCustom(multifn.NewSignatureBuilder("increment_float").
			SingleMutable("Value", "float").Build())
	fillVector = multifn.NewCustom(multifn.NewSignatureBuilder("fill_vector").
			VectorOutput("Vector", "float").Build())
)

func TestNewVariable(t *testing.T) {
	p := New("vars")
	a := p.NewVariable(floatType, "a")
	b := p.NewVariable(boolType, "")

	assert.Equal(t, VarHandle(0), a)
	assert.Equal(t, VarHandle(1), b)
	assert.Equal(t, 2, p.VariableCount())
	assert.Equal(t, "$0(a)", p.Variable(a).String())
	assert.Equal(t, "$1", p.Variable(b).String())
	assert.Equal(t, boolType, p.Variable(b).DataType())
	assert.Equal(t, b, p.Variable(b).Index())

	p.Variable(b).SetName("cond")
	assert.Equal(t, "cond", p.Variable(b).Name())

	assert.Panics(t, func() { p.Variable(2) })
	assert.Panics(t, func() { p.Variable(NoVariable) })
}

func TestNewInstructions(t *testing.T) {
	p := New("instrs")
	call := p.NewCallInstruction(copyFloat)
	branch := p.NewBranchInstruction()
	destruct := p.NewDestructInstruction()
	dummy := p.NewDummyInstruction()
	ret := p.NewReturnInstruction()

	assert.Equal(t, 5, p.InstructionCount())
	assert.Equal(t, NoInstruction, p.Entry())

	tests := []struct {
		handle InstrHandle
		kind   InstructionKind
	}{
		{call, KindCall},
		{branch, KindBranch},
		{destruct, KindDestruct},
		{dummy, KindDummy},
		{ret, KindReturn},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			instr := p.Instruction(tt.handle)
			assert.Equal(t, tt.kind, instr.Kind())
			assert.Equal(t, tt.handle, instr.Handle())
			assert.Empty(t, instr.Prev())
			assert.Equal(t, []InstrHandle{tt.handle}, p.InstructionsOfKind(tt.kind))
		})
	}

	c := p.Instruction(call).(*Call)
	assert.Equal(t, []VarHandle{NoVariable, NoVariable}, c.Params())
	assert.Equal(t, NoInstruction, c.Next())
	assert.Same(t, copyFloat, c.Fn())

	b := p.Instruction(branch).(*Branch)
	assert.Equal(t, NoVariable, b.Condition())
	assert.Equal(t, NoInstruction, b.BranchTrue())
	assert.Equal(t, NoInstruction, b.BranchFalse())

	assert.Panics(t, func() { p.NewCallInstruction(nil) })
}

func TestSetParamVar(t *testing.T) {
	p := New("params")
	a := p.NewVariable(floatType, "a")
	b := p.NewVariable(floatType, "b")
	flag := p.NewVariable(boolType, "flag")
	call := p.NewCallInstruction(copyFloat)

	p.SetParamVar(call, 0, a)
	p.SetParamVar(call, 1, b)
	assert.Equal(t, []VarHandle{a, b}, p.Instruction(call).(*Call).Params())
	assert.Equal(t, []InstrHandle{call}, p.Variable(a).Users())
	assert.Equal(t, []InstrHandle{call}, p.Variable(b).Users())

	// Rebinding moves the user entry.
	p.SetParamVar(call, 1, a)
	assert.Equal(t, []InstrHandle{call, call}, p.Variable(a).Users())
	assert.Empty(t, p.Variable(b).Users())

	// Unbinding an optional output.
	p.SetParamVar(call, 1, NoVariable)
	assert.Equal(t, NoVariable, p.Instruction(call).(*Call).Param(1))
	assert.Equal(t, []InstrHandle{call}, p.Variable(a).Users())

	t.Run("type mismatch panics", func(t *testing.T) {
		assert.Panics(t, func() { p.SetParamVar(call, 0, flag) })
		assert.Empty(t, p.Variable(flag).Users())
	})
	t.Run("index out of range panics", func(t *testing.T) {
		assert.Panics(t, func() { p.SetParamVar(call, 2, a) })
		assert.Panics(t, func() { p.SetParamVar(call, -1, a) })
	})
	t.Run("wrong instruction kind panics", func(t *testing.T) {
		dummy := p.NewDummyInstruction()
		assert.Panics(t, func() { p.SetParamVar(dummy, 0, a) })
	})
	t.Run("vector type differs from single", func(t *testing.T) {
		fill := p.NewCallInstruction(fillVector)
		assert.Panics(t, func() { p.SetParamVar(fill, 0, a) })
		vec := p.NewVariable(multifn.Vector("float"), "vec")
		p.SetParamVar(fill, 0, vec)
		assert.Equal(t, []InstrHandle{fill}, p.Variable(vec).Users())
	})
}

func TestSetParams(t *testing.T) {
	p := New("set params")
	a := p.NewVariable(floatType, "a")
	b := p.NewVariable(floatType, "b")
	c := p.NewVariable(floatType, "c")
	call := p.NewCallInstruction(addFloat)

	p.SetParams(call, a, b, c)
	assert.Equal(t, []VarHandle{a, b, c}, p.Instruction(call).(*Call).Params())

	p.SetParams(call, c, c, NoVariable)
	assert.Empty(t, p.Variable(a).Users())
	assert.Empty(t, p.Variable(b).Users())
	assert.Equal(t, []InstrHandle{call, call}, p.Variable(c).Users())

	assert.Panics(t, func() { p.SetParams(call, a, b) })
}

func TestBranchAndDestructBindings(t *testing.T) {
	p := New("bindings")
	c1 := p.NewVariable(boolType, "c1")
	c2 := p.NewVariable(boolType, "c2")
	branch := p.NewBranchInstruction()
	destruct := p.NewDestructInstruction()

	p.SetCondition(branch, c1)
	p.SetDestructVar(destruct, c1)
	assert.ElementsMatch(t, []InstrHandle{branch, destruct}, p.Variable(c1).Users())

	p.SetCondition(branch, c2)
	assert.Equal(t, []InstrHandle{destruct}, p.Variable(c1).Users())
	assert.Equal(t, []InstrHandle{branch}, p.Variable(c2).Users())
	assert.Equal(t, c2, p.Instruction(branch).(*Branch).Condition())

	p.SetDestructVar(destruct, NoVariable)
	assert.Empty(t, p.Variable(c1).Users())
	assert.Equal(t, NoVariable, p.Instruction(destruct).(*Destruct).Var())

	assert.Panics(t, func() { p.SetCondition(destruct, c1) })
	assert.Panics(t, func() { p.SetDestructVar(branch, c1) })
}

func TestSuccessorLinks(t *testing.T) {
	p := New("links")
	call := p.NewCallInstruction(constFloat)
	branch := p.NewBranchInstruction()
	dummy := p.NewDummyInstruction()
	ret := p.NewReturnInstruction()

	p.SetEntry(call)
	p.SetNext(call, branch)
	p.SetBranchTrue(branch, ret)
	p.SetBranchFalse(branch, dummy)
	p.SetNext(dummy, ret)

	assert.Equal(t, call, p.Entry())
	assert.Equal(t, []Cursor{EntryCursor()}, p.Instruction(call).Prev())
	assert.Equal(t, []Cursor{CallCursor(call)}, p.Instruction(branch).Prev())
	assert.Equal(t, []Cursor{BranchCursor(branch, false)}, p.Instruction(dummy).Prev())
	assert.ElementsMatch(t, []Cursor{BranchCursor(branch, true), DummyCursor(dummy)}, p.Instruction(ret).Prev())

	// Redirect the false branch straight to the return.
	p.SetBranchFalse(branch, ret)
	assert.Empty(t, p.Instruction(dummy).Prev())
	assert.ElementsMatch(t, []Cursor{BranchCursor(branch, true), BranchCursor(branch, false), DummyCursor(dummy)}, p.Instruction(ret).Prev())

	// Moving the entry detaches the old entry's entry cursor.
	p.SetEntry(dummy)
	assert.Empty(t, p.Instruction(call).Prev())
	assert.Equal(t, []Cursor{EntryCursor()}, p.Instruction(dummy).Prev())

	// Clearing a slot.
	p.SetNext(dummy, NoInstruction)
	assert.Equal(t, NoInstruction, p.Instruction(dummy).(*Dummy).Next())
	assert.ElementsMatch(t, []Cursor{BranchCursor(branch, true), BranchCursor(branch, false)}, p.Instruction(ret).Prev())

	assert.Panics(t, func() { p.SetNext(branch, ret) })
	assert.Panics(t, func() { p.SetNext(ret, call) })
	assert.Panics(t, func() { p.SetNext(call, InstrHandle(99)) })
	assert.Panics(t, func() { p.SetBranchTrue(call, ret) })
}

func TestSelfLoop(t *testing.T) {
	p := New("self loop")
	dummy := p.NewDummyInstruction()
	p.SetNext(dummy, dummy)
	assert.Equal(t, []Cursor{DummyCursor(dummy)}, p.Instruction(dummy).Prev())

	p.SetNext(dummy, dummy)
	assert.Equal(t, []Cursor{DummyCursor(dummy)}, p.Instruction(dummy).Prev())
}

func TestCursor(t *testing.T) {
	p := New("cursor")
	call := p.NewCallInstruction(constFloat)
	branch := p.NewBranchInstruction()
	destruct := p.NewDestructInstruction()
	ret := p.NewReturnInstruction()

	var none Cursor
	assert.Equal(t, CursorNone, none.Kind())
	assert.Equal(t, NoInstruction, none.Instruction())
	assert.Equal(t, NoInstruction, none.Next(p))
	none.SetNext(p, ret)
	assert.Empty(t, p.Instruction(ret).Prev())

	entry := EntryCursor()
	entry.SetNext(p, call)
	assert.Equal(t, call, p.Entry())
	assert.Equal(t, call, entry.Next(p))
	assert.Equal(t, NoInstruction, entry.Instruction())

	CallCursor(call).SetNext(p, branch)
	assert.Equal(t, branch, p.Instruction(call).(*Call).Next())

	BranchCursor(branch, true).SetNext(p, destruct)
	BranchCursor(branch, false).SetNext(p, ret)
	DestructCursor(destruct).SetNext(p, ret)
	assert.Equal(t, destruct, BranchCursor(branch, true).Next(p))
	assert.Equal(t, ret, BranchCursor(branch, false).Next(p))
	assert.Equal(t, ret, DestructCursor(destruct).Next(p))
	assert.Equal(t, branch, BranchCursor(branch, false).Instruction())
	assert.False(t, BranchCursor(branch, false).BranchOutput())

	assert.Equal(t, "entry", entry.String())
	assert.Equal(t, "branch#1.true", BranchCursor(branch, true).String())
	assert.Equal(t, "call#0", CallCursor(call).String())

	// A cursor whose kind does not match the instruction panics.
	assert.Panics(t, func() { DummyCursor(call).Next(p) })
}

func TestSuccessors(t *testing.T) {
	p := New("successors")
	branch := p.NewBranchInstruction()
	ret := p.NewReturnInstruction()
	dummy := p.NewDummyInstruction()

	assert.Equal(t, []Cursor{BranchCursor(branch, true), BranchCursor(branch, false)}, Successors(p.Instruction(branch)))
	assert.Nil(t, Successors(p.Instruction(ret)))
	assert.Equal(t, []Cursor{DummyCursor(dummy)}, Successors(p.Instruction(dummy)))
	assert.Equal(t, DummyCursor(dummy), NextCursor(p.Instruction(dummy)))
	assert.Panics(t, func() { NextCursor(p.Instruction(branch)) })
}

func TestParams(t *testing.T) {
	p := New("proc params")
	a := p.NewVariable(floatType, "a")
	b := p.NewVariable(floatType, "b")

	p.AddParam(multifn.Input, a)
	p.AddParam(multifn.Output, b)
	assert.Equal(t, []Param{{Interface: multifn.Input, Var: a}, {Interface: multifn.Output, Var: b}}, p.Params())

	assert.Panics(t, func() { p.AddParam(multifn.Input, VarHandle(7)) })
}

func TestAccessorsReturnCopies(t *testing.T) {
	p := New("copies")
	a := p.NewVariable(floatType, "a")
	call := p.NewCallInstruction(copyFloat)
	p.SetParamVar(call, 0, a)
	p.SetEntry(call)

	users := p.Variable(a).Users()
	users[0] = InstrHandle(42)
	assert.Equal(t, []InstrHandle{call}, p.Variable(a).Users())

	prev := p.Instruction(call).Prev()
	prev[0] = CallCursor(call)
	assert.Equal(t, []Cursor{EntryCursor()}, p.Instruction(call).Prev())

	params := p.Instruction(call).(*Call).Params()
	params[0] = NoVariable
	require.Equal(t, a, p.Instruction(call).(*Call).Param(0))
}
