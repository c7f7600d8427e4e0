package multifn

import (
	"errors"
	"fmt"
	"sort"
)

// ErrDuplicateFunction is returned when a name is registered twice.
var ErrDuplicateFunction = errors.New("duplicate function")

// Registry maps function names to descriptors.
type Registry struct {
	functions map[string]Function
	parent    *Registry
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{functions: make(map[string]Function)}
}

// Extend returns a child registry. Lookups fall back to r; names registered in the
// child shadow nothing and must not collide with r.
func (r *Registry) Extend() *Registry {
	child := NewRegistry()
	child.parent = r
	return child
}

// Register adds fn under its own name.
func (r *Registry) Register(fn Function) error {
	if _, ok := r.Lookup(fn.Name()); ok {
		return fmt.Errorf("%w: %s", ErrDuplicateFunction, fn.Name())
	}
	r.functions[fn.Name()] = fn
	return nil
}

// MustRegister is Register for static tables; it panics on duplicates.
func (r *Registry) MustRegister(fns ...Function) *Registry {
	for _, fn := range fns {
		if err := r.Register(fn); err != nil {
			panic(err)
		}
	}
	return r
}

// Lookup returns the function registered under name.
func (r *Registry) Lookup(name string) (Function, bool) {
	for cur := r; cur != nil; cur = cur.parent {
		if fn, ok := cur.functions[name]; ok {
			return fn, true
		}
	}
	return nil, false
}

// Names returns all visible function names in sorted order.
func (r *Registry) Names() []string {
	seen := make(map[string]struct{})
	for cur := r; cur != nil; cur = cur.parent {
		for name := range cur.functions {
			seen[name] = struct{}{}
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Builtins returns a fresh registry with the common function signatures that
// procedure descriptions can call without declaring them.
func Builtins() *Registry {
	r := NewRegistry()
	for _, elem := range []string{"float", "int"} {
		r.MustRegister(
			NewCustom(NewSignatureBuilder("constant_"+elem).SingleOutput("Value", elem).Build()),
			NewCustom(NewSignatureBuilder("copy_"+elem).SingleInput("In", elem).SingleOutput("Out", elem).Build()),
			NewCustom(NewSignatureBuilder("add_"+elem).SingleInput("A", elem).SingleInput("B", elem).SingleOutput("Result", elem).Build()),
			NewCustom(NewSignatureBuilder("multiply_"+elem).SingleInput("A", elem).SingleInput("B", elem).SingleOutput("Result", elem).Build()),
			NewCustom(NewSignatureBuilder("increment_"+elem).SingleMutable("Value", elem).Build()),
			NewCustom(NewSignatureBuilder("greater_"+elem).SingleInput("A", elem).SingleInput("B", elem).SingleOutput("Result", "bool").Build()),
			NewCustom(NewSignatureBuilder("append_"+elem).VectorMutable("Vector", elem).SingleInput("Value", elem).Build()),
			NewCustom(NewSignatureBuilder("length_"+elem).VectorInput("Vector", elem).SingleOutput("Length", "int").Build()),
			NewCustom(NewSignatureBuilder("empty_vector_"+elem).VectorOutput("Vector", elem).Build()),
		)
	}
	r.MustRegister(
		NewCustom(NewSignatureBuilder("constant_bool").SingleOutput("Value", "bool").Build()),
		NewCustom(NewSignatureBuilder("not").SingleInput("In", "bool").SingleOutput("Out", "bool").Build()),
		NewCustom(NewSignatureBuilder("and").SingleInput("A", "bool").SingleInput("B", "bool").SingleOutput("Result", "bool").Build()),
		NewCustom(NewSignatureBuilder("float_to_int").SingleInput("In", "float").SingleOutput("Out", "int").Build()),
		NewCustom(NewSignatureBuilder("int_to_float").SingleInput("In", "int").SingleOutput("Out", "float").Build()),
	)
	return r
}
