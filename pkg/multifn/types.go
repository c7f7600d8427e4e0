// Package multifn describes the functions a procedure can call.
// A multi-function has a fixed, typed parameter list where every parameter is an
// input, a mutable or an output. Only the descriptor side lives here; executing
// functions is not part of this module.
package multifn

import (
	"fmt"
	"strings"
)

// DataCategory tells whether a data type holds one value or a vector of values per element.
type DataCategory string

const (
	DataSingle DataCategory = "single" // One value per element
	DataVector DataCategory = "vector" // A vector of values per element
)

// DataType is the opaque type token attached to variables and parameters.
// Two data types are equal when both category and element type match.
type DataType struct {
	Category DataCategory `json:"category"`
	Elem     string       `json:"elem"`
}

// Single returns the single data type for the given element type.
func Single(elem string) DataType {
	return DataType{Category: DataSingle, Elem: elem}
}

// Vector returns the vector data type for the given element type.
func Vector(elem string) DataType {
	return DataType{Category: DataVector, Elem: elem}
}

// IsZero reports whether the data type was never set.
func (t DataType) IsZero() bool {
	return t.Category == "" && t.Elem == ""
}

// String renders the type the way ParseDataType reads it back: "float" or "[]float".
func (t DataType) String() string {
	if t.Category == DataVector {
		return "[]" + t.Elem
	}
	return t.Elem
}

// ParseDataType parses "elem" as a single type and "[]elem" as a vector type.
func ParseDataType(s string) (DataType, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "[]") {
		elem := strings.TrimSpace(s[2:])
		if !isIdent(elem) {
			return DataType{}, fmt.Errorf("invalid vector element type %q", s)
		}
		return Vector(elem), nil
	}
	if !isIdent(s) {
		return DataType{}, fmt.Errorf("invalid data type %q", s)
	}
	return Single(s), nil
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, c := range s {
		switch {
		case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case i > 0 && c >= '0' && c <= '9':
		default:
			return false
		}
	}
	return true
}

// InterfaceType is how a function (or a procedure) accesses a parameter.
type InterfaceType string

const (
	Input   InterfaceType = "input"   // Read only, must be initialized by the caller
	Mutable InterfaceType = "mutable" // Read and written in place
	Output  InterfaceType = "output"  // Written, must be uninitialized before the call
)

// ParseInterfaceType maps "input", "mutable" and "output" (any case) to an InterfaceType.
func ParseInterfaceType(s string) (InterfaceType, error) {
	switch InterfaceType(strings.ToLower(strings.TrimSpace(s))) {
	case Input:
		return Input, nil
	case Mutable:
		return Mutable, nil
	case Output:
		return Output, nil
	default:
		return "", fmt.Errorf("invalid interface type %q (must be input, mutable or output)", s)
	}
}

// ParamCategory combines the interface type with the data category of a parameter.
type ParamCategory string

const (
	SingleInput   ParamCategory = "single_input"
	VectorInput   ParamCategory = "vector_input"
	SingleOutput  ParamCategory = "single_output"
	VectorOutput  ParamCategory = "vector_output"
	SingleMutable ParamCategory = "single_mutable"
	VectorMutable ParamCategory = "vector_mutable"
)

// ParamType is the declared type of one function parameter.
type ParamType struct {
	iface    InterfaceType
	dataType DataType
}

// NewParamType returns a parameter type for the given interface and data type.
func NewParamType(iface InterfaceType, dataType DataType) ParamType {
	return ParamType{iface: iface, dataType: dataType}
}

// InterfaceType returns whether the parameter is an input, mutable or output.
func (p ParamType) InterfaceType() InterfaceType {
	return p.iface
}

// DataType returns the data type a bound variable must have.
func (p ParamType) DataType() DataType {
	return p.dataType
}

// Category returns the combined interface and data category.
func (p ParamType) Category() ParamCategory {
	vector := p.dataType.Category == DataVector
	switch p.iface {
	case Input:
		if vector {
			return VectorInput
		}
		return SingleInput
	case Mutable:
		if vector {
			return VectorMutable
		}
		return SingleMutable
	default:
		if vector {
			return VectorOutput
		}
		return SingleOutput
	}
}

// IsOptional reports whether a call may leave the parameter unbound.
// Only single outputs can be skipped; the callee writes them into scratch storage.
func (p ParamType) IsOptional() bool {
	return p.Category() == SingleOutput
}

func (p ParamType) String() string {
	return fmt.Sprintf("%s %s", p.iface, p.dataType)
}
