package commands

import (
	"fmt"
	"os"

	"github.com/l3aro/go-multifn/internal/scanner"
	"github.com/l3aro/go-multifn/pkg/multifn"
	"github.com/l3aro/go-multifn/pkg/procdesc"
	"github.com/l3aro/go-multifn/pkg/procedure"
)

// loadProcedure reads, parses and builds the description at path against the
// builtin functions.
func loadProcedure(path string) (*procdesc.Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return buildProcedure(path, data)
}

// buildProcedure parses and builds a description read from path.
func buildProcedure(path string, data []byte) (*procdesc.Result, error) {
	desc, err := procdesc.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	res, err := procdesc.Build(desc, multifn.Builtins())
	if err != nil {
		return nil, fmt.Errorf("building %s: %w", path, err)
	}
	return res, nil
}

// newScanner returns a scanner configured from the loaded config.
func newScanner() *scanner.Scanner {
	opts := scanner.DefaultOptions()
	opts.Extension = cfg.DescriptionExt
	opts.IgnoreFileName = cfg.IgnoreFile
	return scanner.New(opts)
}

// instructionIDs inverts the id map of a build result.
func instructionIDs(res *procdesc.Result) map[procedure.InstrHandle]string {
	ids := make(map[procedure.InstrHandle]string, len(res.Instructions))
	for id, h := range res.Instructions {
		ids[h] = id
	}
	return ids
}

// cursorLabel names a cursor by description ids, e.g. "check.true".
func cursorLabel(c procedure.Cursor, ids map[procedure.InstrHandle]string) string {
	switch c.Kind() {
	case procedure.CursorNone, procedure.CursorEntry:
		return string(c.Kind())
	case procedure.CursorBranch:
		if c.BranchOutput() {
			return ids[c.Instruction()] + ".true"
		}
		return ids[c.Instruction()] + ".false"
	default:
		return ids[c.Instruction()]
	}
}
