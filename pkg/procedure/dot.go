package procedure

import (
	"fmt"
	"html"
	"strings"

	"github.com/emicklei/dot"

	"github.com/l3aro/go-multifn/pkg/multifn"
)

// DotOptions configures ExportDot.
type DotOptions struct {
	TrueColor  string // Edge color of true branches
	FalseColor string // Edge color of false branches
}

// DefaultDotOptions returns green true edges and red false edges.
func DefaultDotOptions() DotOptions {
	return DotOptions{
		TrueColor:  "#118811",
		FalseColor: "#881111",
	}
}

// ToDot renders the procedure as a Graphviz digraph with default options.
func (p *Procedure) ToDot() string {
	return ExportDot(p, DefaultDotOptions())
}

// ExportDot renders p as a Graphviz digraph for debugging. Each maximal straight-line
// run of instructions becomes one rectangle; unset successors point at "missing" diamonds.
func ExportDot(p *Procedure, opts DotOptions) string {
	e := &dotExporter{
		p:       p,
		opts:    opts,
		graph:   dot.NewGraph(dot.Directed),
		byBegin: make(map[InstrHandle]dot.Node),
		byEnd:   make(map[InstrHandle]dot.Node),
	}
	e.createNodes()
	e.createEdges()
	return e.graph.String()
}

type dotExporter struct {
	p       *Procedure
	opts    DotOptions
	graph   *dot.Graph
	byBegin map[InstrHandle]dot.Node
	byEnd   map[InstrHandle]dot.Node
	ends    []InstrHandle
	missing int
}

func (e *dotExporter) createNodes() {
	handled := make(map[InstrHandle]bool)
	for _, instr := range e.p.instrs {
		if handled[instr.Handle()] {
			continue
		}
		block := e.blockOf(instr.Handle())
		lines := make([]string, len(block))
		for i, h := range block {
			handled[h] = true
			lines[i] = e.instructionLabel(e.p.instrs[h])
		}

		node := e.graph.Node(fmt.Sprintf("block_%d", block[0])).
			Attr("shape", "rectangle").
			Attr("label", dot.HTML(strings.Join(lines, `<br align="left" />`)+`<br align="left" />`))
		e.byBegin[block[0]] = node
		last := block[len(block)-1]
		e.byEnd[last] = node
		e.ends = append(e.ends, last)
	}
}

func (e *dotExporter) createEdges() {
	for _, h := range e.ends {
		from := e.byEnd[h]
		instr := e.p.instrs[h]
		switch instr.Kind() {
		case KindCall, KindDestruct, KindDummy:
			e.edge(from, NextCursor(instr).Next(e.p))
		case KindBranch:
			b := instr.(*Branch)
			e.edge(from, b.branchTrue).Attr("color", e.opts.TrueColor)
			e.edge(from, b.branchFalse).Attr("color", e.opts.FalseColor)
		}
	}
	e.edge(e.entryNode(), e.p.entry)
}

func (e *dotExporter) edge(from dot.Node, to InstrHandle) dot.Edge {
	if to == NoInstruction {
		e.missing++
		node := e.graph.Node(fmt.Sprintf("missing_%d", e.missing)).
			Attr("shape", "diamond").
			Attr("label", "missing")
		return e.graph.Edge(from, node)
	}
	return e.graph.Edge(from, e.byBegin[to])
}

func (e *dotExporter) entryNode() dot.Node {
	var incoming []string
	for _, param := range e.p.params {
		if param.Interface == multifn.Input || param.Interface == multifn.Mutable {
			incoming = append(incoming, e.p.vars[param.Var].String())
		}
	}
	return e.graph.Node("entry").
		Attr("shape", "ellipse").
		Attr("label", "Entry: "+strings.Join(incoming, ", "))
}

// isBlockBegin reports whether h cannot be merged into its predecessor's block.
func (e *dotExporter) isBlockBegin(h InstrHandle) bool {
	prev := e.p.instrs[h].header().prev
	if len(prev) != 1 {
		return true
	}
	kind := prev[0].Kind()
	return kind == CursorBranch || kind == CursorEntry
}

func (e *dotExporter) firstInBlock(representative InstrHandle) InstrHandle {
	current := representative
	for !e.isBlockBegin(current) {
		current = e.p.instrs[current].header().prev[0].Instruction()
		if current == representative {
			// A loop without entry or exit; break it up here.
			break
		}
	}
	return current
}

func (e *dotExporter) nextInBlock(h, begin InstrHandle) InstrHandle {
	instr := e.p.instrs[h]
	switch instr.Kind() {
	case KindCall, KindDestruct, KindDummy:
	default:
		return NoInstruction
	}
	next := NextCursor(instr).Next(e.p)
	if next == NoInstruction || next == begin || e.isBlockBegin(next) {
		return NoInstruction
	}
	return next
}

func (e *dotExporter) blockOf(representative InstrHandle) []InstrHandle {
	begin := e.firstInBlock(representative)
	var block []InstrHandle
	for current := begin; current != NoInstruction; current = e.nextInBlock(current, begin) {
		block = append(block, current)
	}
	return block
}

func (e *dotExporter) varLabel(v VarHandle) string {
	if v == NoVariable {
		return "null"
	}
	return html.EscapeString(e.p.vars[v].String())
}

func (e *dotExporter) instructionLabel(instr Instruction) string {
	var sb strings.Builder
	switch instr := instr.(type) {
	case *Call:
		sb.WriteString(html.EscapeString(instr.fn.Name()) + ": ")
		for i, param := range instr.params {
			if i > 0 {
				sb.WriteString(", ")
			}
			iface := instr.fn.ParamType(i).InterfaceType()
			fmt.Fprintf(&sb, `<font color="grey30">%s </font>%s`, multifn.ShortInterface(iface), e.varLabel(param))
		}
	case *Branch:
		sb.WriteString("Branch " + e.varLabel(instr.condition))
	case *Destruct:
		sb.WriteString("Destruct " + e.varLabel(instr.variable))
	case *Dummy:
		sb.WriteString("Dummy")
	case *Return:
		var outgoing []string
		for _, param := range e.p.params {
			if param.Interface == multifn.Mutable || param.Interface == multifn.Output {
				outgoing = append(outgoing, e.varLabel(param.Var))
			}
		}
		sb.WriteString("Return " + strings.Join(outgoing, ", "))
	}
	return sb.String()
}
