package multifn

import "fmt"

// Function is the descriptor of a callable multi-function.
type Function interface {
	// Name is used in diagnostics only.
	Name() string

	// ParamCount returns the number of parameters.
	ParamCount() int

	// ParamType returns the declared type of parameter i.
	ParamType(i int) ParamType

	// ParamName returns the declared name of parameter i.
	ParamName(i int) string
}

// Param is one named parameter of a signature.
type Param struct {
	Name string
	Type ParamType
}

// Signature is the name and ordered parameter list of a function.
type Signature struct {
	Name   string
	Params []Param
}

// SignatureBuilder assembles a Signature parameter by parameter.
type SignatureBuilder struct {
	sig Signature
}

// NewSignatureBuilder starts a signature for the function with the given name.
func NewSignatureBuilder(name string) *SignatureBuilder {
	return &SignatureBuilder{sig: Signature{Name: name}}
}

// Add appends a parameter with an explicit interface and data type.
func (b *SignatureBuilder) Add(name string, iface InterfaceType, dataType DataType) *SignatureBuilder {
	b.sig.Params = append(b.sig.Params, Param{Name: name, Type: NewParamType(iface, dataType)})
	return b
}

func (b *SignatureBuilder) SingleInput(name, elem string) *SignatureBuilder {
	return b.Add(name, Input, Single(elem))
}

func (b *SignatureBuilder) VectorInput(name, elem string) *SignatureBuilder {
	return b.Add(name, Input, Vector(elem))
}

func (b *SignatureBuilder) SingleOutput(name, elem string) *SignatureBuilder {
	return b.Add(name, Output, Single(elem))
}

func (b *SignatureBuilder) VectorOutput(name, elem string) *SignatureBuilder {
	return b.Add(name, Output, Vector(elem))
}

func (b *SignatureBuilder) SingleMutable(name, elem string) *SignatureBuilder {
	return b.Add(name, Mutable, Single(elem))
}

func (b *SignatureBuilder) VectorMutable(name, elem string) *SignatureBuilder {
	return b.Add(name, Mutable, Vector(elem))
}

// Build returns the finished signature. The builder must not be reused afterwards.
func (b *SignatureBuilder) Build() Signature {
	return b.sig
}

// Custom is a Function defined purely by its signature.
type Custom struct {
	sig Signature
}

// NewCustom returns a function descriptor for sig.
func NewCustom(sig Signature) *Custom {
	params := make([]Param, len(sig.Params))
	copy(params, sig.Params)
	return &Custom{sig: Signature{Name: sig.Name, Params: params}}
}

func (f *Custom) Name() string {
	return f.sig.Name
}

func (f *Custom) ParamCount() int {
	return len(f.sig.Params)
}

func (f *Custom) ParamType(i int) ParamType {
	return f.param(i).Type
}

func (f *Custom) ParamName(i int) string {
	return f.param(i).Name
}

// Signature returns a copy of the function's signature.
func (f *Custom) Signature() Signature {
	params := make([]Param, len(f.sig.Params))
	copy(params, f.sig.Params)
	return Signature{Name: f.sig.Name, Params: params}
}

func (f *Custom) param(i int) Param {
	if i < 0 || i >= len(f.sig.Params) {
		panic(fmt.Sprintf("multifn: parameter index %d out of range for %s (%d params)", i, f.sig.Name, len(f.sig.Params)))
	}
	return f.sig.Params[i]
}

// FormatSignature renders a function as "name(in a: float, out b: float)".
func FormatSignature(fn Function) string {
	s := fn.Name() + "("
	for i := 0; i < fn.ParamCount(); i++ {
		if i > 0 {
			s += ", "
		}
		pt := fn.ParamType(i)
		s += fmt.Sprintf("%s %s: %s", ShortInterface(pt.InterfaceType()), fn.ParamName(i), pt.DataType())
	}
	return s + ")"
}

// ShortInterface returns the abbreviation used in textual renderings.
func ShortInterface(iface InterfaceType) string {
	switch iface {
	case Input:
		return "in"
	case Mutable:
		return "mut"
	default:
		return "out"
	}
}
