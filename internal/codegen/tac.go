package codegen

import (
	"fmt"
	"strings"
)

// ---------------------------------------------------------------------------
// TAC — linear three-address code
//
// The output of lowering is a flat, ordered instruction list. Every
// instruction has at most one operator; operands are variable names, literal
// constants, and compiler-generated temporaries (t0, t1, …). Labels are
// numbered L0, L1, … and both counters grow monotonically across a whole
// program.
// ---------------------------------------------------------------------------

// Op is a TAC instruction form.
type Op int

const (
	OpAssign     Op = iota // t = <value>
	OpBinary               // t = <a> <operator> <b>
	OpUnary                // t = <operator><a>
	OpStore                // name = <value>
	OpStoreIndex           // name[idx] = <value>
	OpLoadIndex            // t = name[idx]
	OpIfGoto               // if <t> goto <label>
	OpGoto                 // goto <label>
	OpLabel                // <label>:
	OpReturn               // return [<t>]
	OpParam                // param <t>
	OpCall                 // [t =] call <name>, <argc>
	OpComment              // // <text>
	OpBlank                // empty separator line
)

var opNames = map[Op]string{
	OpAssign: "assign", OpBinary: "binary", OpUnary: "unary",
	OpStore: "store", OpStoreIndex: "store_index", OpLoadIndex: "load_index",
	OpIfGoto: "if_goto", OpGoto: "goto", OpLabel: "label",
	OpReturn: "return", OpParam: "param", OpCall: "call",
	OpComment: "comment", OpBlank: "blank",
}

func (op Op) String() string {
	if s, ok := opNames[op]; ok {
		return s
	}
	return fmt.Sprintf("op_%d", int(op))
}

// ---------------------------------------------------------------------------
// Instruction
// ---------------------------------------------------------------------------

// Instr is a single three-address instruction. Which fields are meaningful
// depends on Op; operands are kept as plain strings since temporaries,
// variable names, and literals all print verbatim.
type Instr struct {
	Op       Op
	Dst      string // destination temporary (OpAssign, OpBinary, OpUnary, OpLoadIndex, OpCall)
	Src1     string // primary source operand
	Src2     string // second source operand (OpBinary) or index (OpLoadIndex, OpStoreIndex)
	Operator string // operator text (OpBinary, OpUnary)
	Name     string // variable name (stores, indexed load) or callee (OpCall)
	Label    string // branch target or label being defined
	Argc     int    // argument count (OpCall)
	Text     string // comment text (OpComment)
}

// String renders the instruction in the exact textual TAC form.
func (i Instr) String() string {
	switch i.Op {
	case OpAssign:
		return fmt.Sprintf("%s = %s", i.Dst, i.Src1)
	case OpBinary:
		return fmt.Sprintf("%s = %s %s %s", i.Dst, i.Src1, i.Operator, i.Src2)
	case OpUnary:
		return fmt.Sprintf("%s = %s%s", i.Dst, i.Operator, i.Src1)
	case OpStore:
		return fmt.Sprintf("%s = %s", i.Name, i.Src1)
	case OpStoreIndex:
		return fmt.Sprintf("%s[%s] = %s", i.Name, i.Src2, i.Src1)
	case OpLoadIndex:
		return fmt.Sprintf("%s = %s[%s]", i.Dst, i.Name, i.Src2)
	case OpIfGoto:
		return fmt.Sprintf("if %s goto %s", i.Src1, i.Label)
	case OpGoto:
		return fmt.Sprintf("goto %s", i.Label)
	case OpLabel:
		return i.Label + ":"
	case OpReturn:
		if i.Src1 != "" {
			return "return " + i.Src1
		}
		return "return"
	case OpParam:
		return "param " + i.Src1
	case OpCall:
		if i.Dst != "" {
			return fmt.Sprintf("%s = call %s, %d", i.Dst, i.Name, i.Argc)
		}
		return fmt.Sprintf("call %s, %d", i.Name, i.Argc)
	case OpComment:
		return "// " + i.Text
	case OpBlank:
		return ""
	default:
		return "?"
	}
}

// ---------------------------------------------------------------------------
// Listing
// ---------------------------------------------------------------------------

// Listing is the append-only instruction sink for one lowering pass.
// Instructions are written in strict program order and never reordered.
type Listing struct {
	Instrs []Instr
}

// Emit appends an instruction to the listing.
func (l *Listing) Emit(instr Instr) {
	l.Instrs = append(l.Instrs, instr)
}

// String renders the whole listing, one instruction per line.
func (l *Listing) String() string {
	var b strings.Builder
	for _, instr := range l.Instrs {
		b.WriteString(instr.String())
		b.WriteByte('\n')
	}
	return b.String()
}

// Lines returns the rendered instructions, one entry per instruction.
func (l *Listing) Lines() []string {
	lines := make([]string, len(l.Instrs))
	for i, instr := range l.Instrs {
		lines[i] = instr.String()
	}
	return lines
}
