package procedure

import (
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/l3aro/go-multifn/pkg/multifn"
)

// producer builds entry -> constant(v) -> copy(v, out) -> destruct(v) -> return,
// with out as the only output parameter.
func producer(t *testing.T) (*Procedure, VarHandle, VarHandle) {
	t.Helper()
	p := New("producer")
	v := p.NewVariable(floatType, "v")
	out := p.NewVariable(floatType, "out")

	c1 := p.NewCallInstruction(constFloat)
	p.SetParams(c1, v)
	c2 := p.NewCallInstruction(copyFloat)
	p.SetParams(c2, v, out)
	d := p.NewDestructInstruction()
	p.SetDestructVar(d, v)
	ret := p.NewReturnInstruction()

	p.SetEntry(c1)
	p.SetNext(c1, c2)
	p.SetNext(c2, d)
	p.SetNext(d, ret)
	p.AddParam(multifn.Output, out)
	return p, v, out
}

func kinds(r *Report) []DefectKind {
	var ks []DefectKind
	for _, d := range r.Defects {
		ks = append(ks, d.Kind)
	}
	return ks
}

func TestValidateSingleReturn(t *testing.T) {
	p := New("empty")
	p.SetEntry(p.NewReturnInstruction())
	assert.True(t, p.Validate())
	assert.Equal(t, "procedure empty: valid\n", p.Diagnose(DiagnoseOptions{}).String())
}

func TestValidateMissingEntry(t *testing.T) {
	p := New("no entry")
	p.NewReturnInstruction()
	assert.False(t, p.Validate())

	r := p.Diagnose(DiagnoseOptions{})
	assert.Equal(t, []DefectKind{DefectMissingEntry}, kinds(r))
	assert.Equal(t, NoInstruction, r.Defects[0].Instruction)
}

func TestValidateDanglingBranch(t *testing.T) {
	p := New("dangling")
	cond := p.NewVariable(boolType, "cond")
	c := p.NewCallInstruction(constBool)
	p.SetParams(c, cond)
	b := p.NewBranchInstruction()
	p.SetCondition(b, cond)
	d := p.NewDestructInstruction()
	p.SetDestructVar(d, cond)
	ret := p.NewReturnInstruction()
	p.SetEntry(c)
	p.SetNext(c, b)
	p.SetBranchTrue(b, d)
	p.SetNext(d, ret)

	assert.False(t, p.Validate())
	r := p.Diagnose(DiagnoseOptions{})
	require.Len(t, r.Defects, 1)
	assert.Equal(t, DefectDangling, r.Defects[0].Kind)
	assert.Equal(t, b, r.Defects[0].Instruction)
	assert.Equal(t, "branch has no false branch", r.Defects[0].Message)

	p.SetBranchFalse(b, d)
	assert.True(t, p.Validate())
}

func TestValidateBindings(t *testing.T) {
	t.Run("unbound input", func(t *testing.T) {
		p, _, _ := producer(t)
		p.SetParamVar(1, 0, NoVariable)
		assert.False(t, p.Validate())
		r := p.Diagnose(DiagnoseOptions{})
		// The unbound read is the only defect: the init analysis is skipped on incomplete graphs.
		require.Len(t, r.Defects, 1)
		assert.Equal(t, DefectMissingBinding, r.Defects[0].Kind)
		assert.Equal(t, 0, r.Defects[0].Param)
		assert.Equal(t, "param 0 (input float In) of copy_float is unbound", r.Defects[0].Message)
	})
	t.Run("optional output may stay unbound", func(t *testing.T) {
		p := New("discard")
		c := p.NewCallInstruction(constFloat)
		ret := p.NewReturnInstruction()
		p.SetEntry(c)
		p.SetNext(c, ret)
		assert.True(t, p.Validate())
	})
	t.Run("vector output must be bound", func(t *testing.T) {
		p := New("vector")
		c := p.NewCallInstruction(fillVector)
		ret := p.NewReturnInstruction()
		p.SetEntry(c)
		p.SetNext(c, ret)
		assert.False(t, p.Validate())
		assert.Equal(t, []DefectKind{DefectMissingBinding}, kinds(p.Diagnose(DiagnoseOptions{})))
	})
	t.Run("branch without condition", func(t *testing.T) {
		p := New("no cond")
		b := p.NewBranchInstruction()
		ret := p.NewReturnInstruction()
		p.SetEntry(b)
		p.SetBranchTrue(b, ret)
		p.SetBranchFalse(b, ret)
		r := p.Diagnose(DiagnoseOptions{})
		require.Len(t, r.Defects, 1)
		assert.Equal(t, "branch has no condition", r.Defects[0].Message)
	})
	t.Run("destruct without variable", func(t *testing.T) {
		p := New("no var")
		d := p.NewDestructInstruction()
		ret := p.NewReturnInstruction()
		p.SetEntry(d)
		p.SetNext(d, ret)
		r := p.Diagnose(DiagnoseOptions{})
		require.Len(t, r.Defects, 1)
		assert.Equal(t, "destruct has no variable", r.Defects[0].Message)
	})
}

func TestValidateAliasing(t *testing.T) {
	tests := []struct {
		name  string
		fn    multifn.Function
		bind  func(p *Procedure, a VarHandle) []VarHandle
		valid bool
	}{
		{
			name:  "same variable as two inputs",
			fn:    addFloat,
			bind:  func(p *Procedure, a VarHandle) []VarHandle { return []VarHandle{a, a, NoVariable} },
			valid: true,
		},
		{
			name:  "input and output",
			fn:    addFloat,
			bind:  func(p *Procedure, a VarHandle) []VarHandle { return []VarHandle{a, NoVariable, a} },
			valid: false,
		},
		{
			name:  "input and mutable",
			fn:    mixFloat,
			bind:  func(p *Procedure, a VarHandle) []VarHandle { return []VarHandle{a, a, NoVariable} },
			valid: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(tt.name)
			a := p.NewVariable(floatType, "a")
			c := p.NewCallInstruction(tt.fn)
			ret := p.NewReturnInstruction()
			p.SetParams(c, tt.bind(p, a)...)
			p.SetEntry(c)
			p.SetNext(c, ret)
			p.AddParam(multifn.Mutable, a)

			r := p.Diagnose(DiagnoseOptions{})
			if tt.valid {
				assert.True(t, r.Valid(), r.String())
				return
			}
			assert.Contains(t, kinds(r), DefectIllegalAliasing)
			assert.False(t, p.Validate())
		})
	}
}

func TestValidateDuplicateParams(t *testing.T) {
	p := New("dup")
	a := p.NewVariable(floatType, "a")
	p.SetEntry(p.NewReturnInstruction())
	p.AddParam(multifn.Mutable, a)
	assert.True(t, p.Validate())

	p.AddParam(multifn.Mutable, a)
	assert.False(t, p.Validate())
	r := p.Diagnose(DiagnoseOptions{})
	assert.Equal(t, []DefectKind{DefectDuplicateParam}, kinds(r))
	assert.Equal(t, a, r.Defects[0].Var)
	assert.Equal(t, "$0(a) is procedure parameter 0 and 1", r.Defects[0].Message)
}

func TestValidateProducerConsumer(t *testing.T) {
	p, _, _ := producer(t)
	assert.True(t, p.Validate(), p.Diagnose(DiagnoseOptions{}).String())
}

func TestValidateReadWithoutProducer(t *testing.T) {
	p := New("consumer")
	v := p.NewVariable(floatType, "v")
	out := p.NewVariable(floatType, "out")
	c := p.NewCallInstruction(copyFloat)
	p.SetParams(c, v, out)
	d := p.NewDestructInstruction()
	p.SetDestructVar(d, v)
	ret := p.NewReturnInstruction()
	p.SetEntry(c)
	p.SetNext(c, d)
	p.SetNext(d, ret)
	p.AddParam(multifn.Output, out)

	assert.False(t, p.Validate())
	r := p.Diagnose(DiagnoseOptions{})
	assert.Equal(t, []DefectKind{DefectUninitializedUse, DefectUninitializedUse}, kinds(r))
	assert.Equal(t, d, r.Defects[0].Instruction)
	assert.Equal(t, c, r.Defects[1].Instruction)
	assert.Equal(t, 0, r.Defects[1].Param)

	// Passing v in from the caller makes the read legal.
	p.AddParam(multifn.Input, v)
	assert.True(t, p.Validate())
}

func TestValidateLeak(t *testing.T) {
	p := New("leak")
	v := p.NewVariable(floatType, "v")
	c := p.NewCallInstruction(constFloat)
	p.SetParams(c, v)
	ret := p.NewReturnInstruction()
	p.SetEntry(c)
	p.SetNext(c, ret)

	assert.False(t, p.Validate())
	r := p.Diagnose(DiagnoseOptions{})
	require.Equal(t, []DefectKind{DefectLeak}, kinds(r))
	assert.Equal(t, ret, r.Defects[0].Instruction)

	// Declaring v as output hands it to the caller.
	p.AddParam(multifn.Output, v)
	assert.True(t, p.Validate())
}

func TestValidateUninitializedResult(t *testing.T) {
	p := New("no result")
	out := p.NewVariable(floatType, "out")
	p.SetEntry(p.NewReturnInstruction())
	p.AddParam(multifn.Output, out)
	assert.Equal(t, []DefectKind{DefectUninitializedResult}, kinds(p.Diagnose(DiagnoseOptions{})))

	mut := New("mutable passthrough")
	m := mut.NewVariable(floatType, "m")
	c := mut.NewCallInstruction(incrementFloat)
	mut.SetParams(c, m)
	mut.SetEntry(c)
	mut.SetNext(c, mut.NewReturnInstruction())
	mut.AddParam(multifn.Mutable, m)
	assert.True(t, mut.Validate())
}

func TestValidateOverwrite(t *testing.T) {
	p := New("overwrite")
	v := p.NewVariable(floatType, "v")
	c1 := p.NewCallInstruction(constFloat)
	c2 := p.NewCallInstruction(constFloat)
	p.SetParams(c1, v)
	p.SetParams(c2, v)
	ret := p.NewReturnInstruction()
	p.SetEntry(c1)
	p.SetNext(c1, c2)
	p.SetNext(c2, ret)
	p.AddParam(multifn.Output, v)

	r := p.Diagnose(DiagnoseOptions{})
	require.Equal(t, []DefectKind{DefectInitializedOutput}, kinds(r))
	assert.Equal(t, c2, r.Defects[0].Instruction)
}

func TestValidateCycle(t *testing.T) {
	// entry -> head -> constant(cond) -> branch(cond)
	//   true:  destruct(cond) -> return
	//   false: destruct(cond) -> head, or straight back to head
	build := func(destructOnBackEdge bool) (*Procedure, InstrHandle) {
		p := New("loop")
		cond := p.NewVariable(boolType, "cond")
		head := p.NewDummyInstruction()
		c := p.NewCallInstruction(constBool)
		p.SetParams(c, cond)
		b := p.NewBranchInstruction()
		p.SetCondition(b, cond)
		exit := p.NewDestructInstruction()
		p.SetDestructVar(exit, cond)
		ret := p.NewReturnInstruction()

		p.SetEntry(head)
		p.SetNext(head, c)
		p.SetNext(c, b)
		p.SetBranchTrue(b, exit)
		p.SetNext(exit, ret)
		if destructOnBackEdge {
			back := p.NewDestructInstruction()
			p.SetDestructVar(back, cond)
			p.SetBranchFalse(b, back)
			p.SetNext(back, head)
		} else {
			p.SetBranchFalse(b, head)
		}
		return p, b
	}

	t.Run("well formed loop", func(t *testing.T) {
		p, _ := build(true)
		assert.True(t, p.Validate(), p.Diagnose(DiagnoseOptions{}).String())
	})
	t.Run("loop reading a never written variable", func(t *testing.T) {
		p, b := build(true)
		other := p.NewVariable(boolType, "other")
		p.SetCondition(b, other)
		r := p.Diagnose(DiagnoseOptions{})
		assert.Contains(t, kinds(r), DefectUninitializedUse)
		assert.False(t, p.Validate())
	})
	t.Run("loop overwriting without destruct is accepted", func(t *testing.T) {
		// Paths are merged with OR, so the first iteration makes the write look legal.
		p, _ := build(false)
		assert.True(t, p.Validate(), p.Diagnose(DiagnoseOptions{}).String())
	})
}

func TestDiagnoseCollectsAndFailFastStops(t *testing.T) {
	p := New("many")
	a := p.NewVariable(floatType, "a")
	b := p.NewVariable(floatType, "b")
	c := p.NewCallInstruction(addFloat)
	p.SetParams(c, a, b, a)
	p.SetEntry(c)
	p.SetNext(c, p.NewReturnInstruction())
	p.AddParam(multifn.Input, a)
	p.AddParam(multifn.Input, a)

	all := p.Diagnose(DiagnoseOptions{})
	assert.Len(t, all.Defects, 5)
	assert.Error(t, all.Err())
	assert.ErrorIs(t, all.Err(), all.Defects[0])

	first := p.Diagnose(DiagnoseOptions{FailFast: true})
	require.Len(t, first.Defects, 1)
	assert.Equal(t, all.Defects[0], first.Defects[0])
	assert.False(t, p.Validate())
}

func TestDiagnoseSkipsInitOnIncompleteGraph(t *testing.T) {
	p := New("incomplete")
	v := p.NewVariable(floatType, "v")
	c := p.NewCallInstruction(copyFloat)
	p.SetParams(c, v, NoVariable)
	p.SetEntry(c)

	r := p.Diagnose(DiagnoseOptions{})
	assert.Equal(t, []DefectKind{DefectDangling}, kinds(r))
}

func TestReportGolden(t *testing.T) {
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)

	t.Run("leaky", func(t *testing.T) {
		p := New("leaky")
		tmp := p.NewVariable(floatType, "tmp")
		c := p.NewCallInstruction(constFloat)
		p.SetParams(c, tmp)
		p.SetEntry(c)
		p.SetNext(c, p.NewReturnInstruction())

		g.Assert(t, "leaky_report", []byte(p.Diagnose(DiagnoseOptions{}).String()))
	})

	t.Run("broken", func(t *testing.T) {
		p := New("broken")
		a := p.NewVariable(floatType, "a")
		b := p.NewVariable(floatType, "b")
		c := p.NewCallInstruction(addFloat)
		p.SetParams(c, a, b, a)
		p.SetEntry(c)
		p.SetNext(c, p.NewReturnInstruction())
		p.AddParam(multifn.Input, a)
		p.AddParam(multifn.Input, a)

		g.Assert(t, "broken_report", []byte(p.Diagnose(DiagnoseOptions{}).String()))
	})
}
