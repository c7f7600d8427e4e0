package procdesc

import (
	"errors"
	"fmt"

	"github.com/l3aro/go-multifn/pkg/multifn"
	"github.com/l3aro/go-multifn/pkg/procedure"
)

var (
	ErrUnknownFunction    = errors.New("unknown function")
	ErrUnknownVariable    = errors.New("unknown variable")
	ErrUnknownLabel       = errors.New("unknown instruction label")
	ErrDuplicateName      = errors.New("duplicate name")
	ErrTypeMismatch       = errors.New("type mismatch")
	ErrInvalidDescription = errors.New("invalid description")
)

// Result is a built procedure together with the names used to describe it.
type Result struct {
	Procedure    *procedure.Procedure
	Instructions map[string]procedure.InstrHandle
	Variables    map[string]procedure.VarHandle
}

// Instruction looks up an instruction by its description id.
func (r *Result) Instruction(id string) (procedure.InstrHandle, error) {
	h, ok := r.Instructions[id]
	if !ok {
		return procedure.NoInstruction, fmt.Errorf("%w: %q", ErrUnknownLabel, id)
	}
	return h, nil
}

// Variable looks up a variable by its description name.
func (r *Result) Variable(name string) (procedure.VarHandle, error) {
	h, ok := r.Variables[name]
	if !ok {
		return procedure.NoVariable, fmt.Errorf("%w: %q", ErrUnknownVariable, name)
	}
	return h, nil
}

// Build turns desc into a procedure. Functions are looked up in the description's own
// functions first, then in registry.
//
// Every error Build returns wraps one of the package's sentinel errors. The built
// procedure is not validated.
func Build(desc *Description, registry *multifn.Registry) (*Result, error) {
	b := &builder{
		desc: desc,
		res: &Result{
			Procedure:    procedure.New(desc.Name),
			Instructions: make(map[string]procedure.InstrHandle),
			Variables:    make(map[string]procedure.VarHandle),
		},
	}
	if registry == nil {
		registry = multifn.NewRegistry()
	}
	if err := b.registerFunctions(registry); err != nil {
		return nil, err
	}
	for _, step := range []func() error{b.addVariables, b.addInstructions, b.linkInstructions, b.addParams} {
		if err := step(); err != nil {
			return nil, err
		}
	}
	return b.res, nil
}

type builder struct {
	desc      *Description
	res       *Result
	functions *multifn.Registry
}

func (b *builder) registerFunctions(registry *multifn.Registry) error {
	if len(b.desc.Functions) == 0 {
		b.functions = registry
		return nil
	}
	b.functions = registry.Extend()
	for _, fd := range b.desc.Functions {
		if fd.Name == "" {
			return fmt.Errorf("%w: function without name", ErrInvalidDescription)
		}
		sb := multifn.NewSignatureBuilder(fd.Name)
		for _, pd := range fd.Params {
			iface, err := multifn.ParseInterfaceType(pd.Interface)
			if err != nil {
				return fmt.Errorf("%w: function %q param %q: %v", ErrInvalidDescription, fd.Name, pd.Name, err)
			}
			dt, err := multifn.ParseDataType(pd.Type)
			if err != nil {
				return fmt.Errorf("%w: function %q param %q: %v", ErrInvalidDescription, fd.Name, pd.Name, err)
			}
			sb.Add(pd.Name, iface, dt)
		}
		if err := b.functions.Register(multifn.NewCustom(sb.Build())); err != nil {
			return fmt.Errorf("%w: %v", ErrDuplicateName, err)
		}
	}
	return nil
}

func (b *builder) addVariables() error {
	p := b.res.Procedure
	for _, vd := range b.desc.Variables {
		if vd.Name == "" || vd.Name == Unbound {
			return fmt.Errorf("%w: variable name %q", ErrInvalidDescription, vd.Name)
		}
		if _, ok := b.res.Variables[vd.Name]; ok {
			return fmt.Errorf("%w: variable %q", ErrDuplicateName, vd.Name)
		}
		dt, err := multifn.ParseDataType(vd.Type)
		if err != nil {
			return fmt.Errorf("%w: variable %q: %v", ErrInvalidDescription, vd.Name, err)
		}
		b.res.Variables[vd.Name] = p.NewVariable(dt, vd.Name)
	}
	return nil
}

// addInstructions creates every instruction and binds its variables.
func (b *builder) addInstructions() error {
	p := b.res.Procedure
	for _, id := range b.desc.Instructions {
		if id.ID == "" {
			return fmt.Errorf("%w: %s instruction without id", ErrInvalidDescription, id.Op)
		}
		if _, ok := b.res.Instructions[id.ID]; ok {
			return fmt.Errorf("%w: instruction %q", ErrDuplicateName, id.ID)
		}
		if err := checkFields(id); err != nil {
			return fmt.Errorf("instruction %q: %w", id.ID, err)
		}

		var h procedure.InstrHandle
		var err error
		switch id.Op {
		case OpCall:
			h, err = b.addCall(id)
		case OpBranch:
			h = p.NewBranchInstruction()
			err = b.bindVar(id.Condition, multifn.Single("bool"), func(v procedure.VarHandle) { p.SetCondition(h, v) })
		case OpDestruct:
			h = p.NewDestructInstruction()
			err = b.bindVar(id.Var, multifn.DataType{}, func(v procedure.VarHandle) { p.SetDestructVar(h, v) })
		case OpDummy:
			h = p.NewDummyInstruction()
		case OpReturn:
			h = p.NewReturnInstruction()
		}
		if err != nil {
			return fmt.Errorf("instruction %q: %w", id.ID, err)
		}
		b.res.Instructions[id.ID] = h
	}
	return nil
}

func (b *builder) addCall(id InstructionDesc) (procedure.InstrHandle, error) {
	p := b.res.Procedure
	fn, ok := b.functions.Lookup(id.Function)
	if !ok {
		return procedure.NoInstruction, fmt.Errorf("%w: %q", ErrUnknownFunction, id.Function)
	}
	if len(id.Args) != fn.ParamCount() {
		return procedure.NoInstruction, fmt.Errorf("%w: %s takes %d args, got %d",
			ErrInvalidDescription, multifn.FormatSignature(fn), fn.ParamCount(), len(id.Args))
	}
	// Resolve all arguments before creating the call.
	vars := make([]procedure.VarHandle, len(id.Args))
	for i, arg := range id.Args {
		vars[i] = procedure.NoVariable
		if arg == "" || arg == Unbound {
			continue
		}
		v, err := b.lookupVar(arg, fn.ParamType(i).DataType())
		if err != nil {
			return procedure.NoInstruction, fmt.Errorf("arg %d of %s: %w", i, fn.Name(), err)
		}
		vars[i] = v
	}
	h := p.NewCallInstruction(fn)
	p.SetParams(h, vars...)
	return h, nil
}

// bindVar resolves name and passes it to set. An empty name leaves the slot unbound.
func (b *builder) bindVar(name string, want multifn.DataType, set func(procedure.VarHandle)) error {
	if name == "" {
		return nil
	}
	v, err := b.lookupVar(name, want)
	if err != nil {
		return err
	}
	set(v)
	return nil
}

// lookupVar resolves a variable name and checks its type unless want is zero.
func (b *builder) lookupVar(name string, want multifn.DataType) (procedure.VarHandle, error) {
	v, err := b.res.Variable(name)
	if err != nil {
		return procedure.NoVariable, err
	}
	if got := b.res.Procedure.Variable(v).DataType(); !want.IsZero() && got != want {
		return procedure.NoVariable, fmt.Errorf("%w: %q is %s, expected %s", ErrTypeMismatch, name, got, want)
	}
	return v, nil
}

// checkFields rejects fields that do not apply to the instruction's op.
func checkFields(id InstructionDesc) error {
	type field struct {
		name string
		set  bool
		ops  []Op
	}
	fields := []field{
		{"function", id.Function != "", []Op{OpCall}},
		{"args", len(id.Args) > 0, []Op{OpCall}},
		{"condition", id.Condition != "", []Op{OpBranch}},
		{"var", id.Var != "", []Op{OpDestruct}},
		{"next", id.Next != "", []Op{OpCall, OpDestruct, OpDummy}},
		{"if_true", id.IfTrue != "", []Op{OpBranch}},
		{"if_false", id.IfFalse != "", []Op{OpBranch}},
	}
	switch id.Op {
	case OpCall, OpBranch, OpDestruct, OpDummy, OpReturn:
	default:
		return fmt.Errorf("%w: unknown op %q", ErrInvalidDescription, id.Op)
	}
	for _, f := range fields {
		if !f.set {
			continue
		}
		allowed := false
		for _, op := range f.ops {
			allowed = allowed || op == id.Op
		}
		if !allowed {
			return fmt.Errorf("%w: %s does not take %s", ErrInvalidDescription, id.Op, f.name)
		}
	}
	return nil
}

// linkInstructions resolves successor labels once every instruction exists.
func (b *builder) linkInstructions() error {
	p := b.res.Procedure
	link := func(from, label string, set func(procedure.InstrHandle)) error {
		if label == "" {
			return nil
		}
		target, err := b.res.Instruction(label)
		if err != nil {
			return fmt.Errorf("instruction %q: %w", from, err)
		}
		set(target)
		return nil
	}

	for _, id := range b.desc.Instructions {
		h := b.res.Instructions[id.ID]
		var err error
		switch id.Op {
		case OpCall, OpDestruct, OpDummy:
			err = link(id.ID, id.Next, func(t procedure.InstrHandle) { p.SetNext(h, t) })
		case OpBranch:
			err = link(id.ID, id.IfTrue, func(t procedure.InstrHandle) { p.SetBranchTrue(h, t) })
			if err == nil {
				err = link(id.ID, id.IfFalse, func(t procedure.InstrHandle) { p.SetBranchFalse(h, t) })
			}
		}
		if err != nil {
			return err
		}
	}
	return link("entry", b.desc.Entry, p.SetEntry)
}

func (b *builder) addParams() error {
	p := b.res.Procedure
	for i, pd := range b.desc.Params {
		iface, err := multifn.ParseInterfaceType(pd.Interface)
		if err != nil {
			return fmt.Errorf("%w: param %d: %v", ErrInvalidDescription, i, err)
		}
		v, err := b.res.Variable(pd.Var)
		if err != nil {
			return fmt.Errorf("param %d: %w", i, err)
		}
		p.AddParam(iface, v)
	}
	return nil
}
