package procedure

import (
	"fmt"

	"github.com/l3aro/go-multifn/pkg/multifn"
)

// Variable is a typed value slot that instructions read and write.
type Variable struct {
	name     string
	dataType multifn.DataType
	index    VarHandle
	users    []InstrHandle
}

// Name returns the display name, which may be empty.
func (v *Variable) Name() string {
	return v.name
}

// SetName changes the display name.
func (v *Variable) SetName(name string) {
	v.name = name
}

func (v *Variable) DataType() multifn.DataType {
	return v.dataType
}

// Index returns the variable's handle in its procedure.
func (v *Variable) Index() VarHandle {
	return v.index
}

// Users returns the instructions that bind this variable, one entry per binding.
// A call that binds the variable to two parameters appears twice.
func (v *Variable) Users() []InstrHandle {
	users := make([]InstrHandle, len(v.users))
	copy(users, v.users)
	return users
}

// String renders the variable as "$index" or "$index(name)".
func (v *Variable) String() string {
	if v.name == "" {
		return fmt.Sprintf("$%d", v.index)
	}
	return fmt.Sprintf("$%d(%s)", v.index, v.name)
}
