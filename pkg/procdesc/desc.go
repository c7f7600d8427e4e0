// Package procdesc builds procedures from declarative YAML descriptions.
//
// A description names its variables and instructions; instructions refer to each
// other by id. Anything a description leaves out (a successor, an argument) is left
// unset on the built procedure so that validation reports it.
package procdesc

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Op is the kind of a described instruction.
type Op string

const (
	OpCall     Op = "call"
	OpBranch   Op = "branch"
	OpDestruct Op = "destruct"
	OpDummy    Op = "dummy"
	OpReturn   Op = "return"
)

// Unbound marks a call argument that is deliberately left unbound.
const Unbound = "_"

// Description is the decoded form of a procedure description file.
type Description struct {
	Name         string            `yaml:"name"`
	Functions    []FunctionDesc    `yaml:"functions,omitempty"`
	Variables    []VariableDesc    `yaml:"variables,omitempty"`
	Params       []ParamDesc       `yaml:"params,omitempty"`
	Entry        string            `yaml:"entry,omitempty"`
	Instructions []InstructionDesc `yaml:"instructions,omitempty"`
}

// FunctionDesc declares a function local to one description.
type FunctionDesc struct {
	Name   string              `yaml:"name"`
	Params []FunctionParamDesc `yaml:"params"`
}

type FunctionParamDesc struct {
	Name      string `yaml:"name"`
	Interface string `yaml:"interface"` // input, mutable or output
	Type      string `yaml:"type"`      // e.g. float, []float
}

type VariableDesc struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

// ParamDesc lists a variable in the procedure's parameter list.
type ParamDesc struct {
	Interface string `yaml:"interface"`
	Var       string `yaml:"var"`
}

// InstructionDesc describes one instruction. Which fields apply depends on Op.
type InstructionDesc struct {
	ID        string   `yaml:"id"`
	Op        Op       `yaml:"op"`
	Function  string   `yaml:"function,omitempty"`  // call
	Args      []string `yaml:"args,omitempty"`      // call, one per function parameter
	Condition string   `yaml:"condition,omitempty"` // branch
	Var       string   `yaml:"var,omitempty"`       // destruct
	Next      string   `yaml:"next,omitempty"`      // call, destruct, dummy
	IfTrue    string   `yaml:"if_true,omitempty"`   // branch
	IfFalse   string   `yaml:"if_false,omitempty"`  // branch
}

// Parse decodes a description. Unknown fields are rejected.
func Parse(data []byte) (*Description, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var desc Description
	if err := dec.Decode(&desc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty document", ErrInvalidDescription)
		}
		return nil, fmt.Errorf("failed to parse description: %w", err)
	}
	return &desc, nil
}

// LoadFile reads and decodes the description at path.
func LoadFile(path string) (*Description, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read description %s: %w", path, err)
	}
	desc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return desc, nil
}
