package codegen

import (
	"fmt"
	"strconv"

	"joosc/ir"
)

// Instruction selection. Each IR statement is matched against a small set of
// maximal munch tiles producing nasm flavored x86-32. eax, ecx and edx are
// the tiles' scratch registers; anything linear scan allocated lives in the
// callee saved pool and is never clobbered here.

type tiler struct {
	fr    *frame
	lines []string
	// refs records every Name label the function touches so the emitter can
	// extern the ones defined elsewhere.
	refs map[string]bool
	// seq numbers the tiny local labels tiles need (division guards).
	seq *int
}

func (t *tiler) emitf(format string, args ...interface{}) {
	t.lines = append(t.lines, fmt.Sprintf(format, args...))
}

func (t *tiler) localLabel(hint string) string {
	*t.seq++
	return fmt.Sprintf("_tile_%s_%d", hint, *t.seq)
}

// load materializes a value into a register.
func (t *tiler) load(reg string, v ir.Value) {
	switch val := v.(type) {
	case *ir.Const:
		t.emitf("mov %s, %d", reg, val.Val)
	case *ir.Temp:
		loc := t.fr.location(val)
		if loc != reg {
			t.emitf("mov %s, %s", reg, loc)
		}
	case *ir.Name:
		t.refs[val.Label] = true
		t.emitf("mov %s, %s", reg, val.Label)
	case *ir.Mem:
		t.loadMem(reg, val)
	case *ir.Bin:
		t.tileBin(val)
		if reg != "eax" {
			t.emitf("mov %s, eax", reg)
		}
	default:
		panic("unknown value in tiling")
	}
}

// loadMem loads the word at a memory operand.
func (t *tiler) loadMem(reg string, m *ir.Mem) {
	switch addr := m.Addr.(type) {
	case *ir.Name:
		t.refs[addr.Label] = true
		if m.Off != 0 {
			t.emitf("mov %s, [%s+%d]", reg, addr.Label, m.Off)
		} else {
			t.emitf("mov %s, [%s]", reg, addr.Label)
		}
	case *ir.Temp:
		base := t.fr.location(addr)
		if !t.fr.inRegister(addr) {
			t.emitf("mov %s, %s", reg, base)
			base = reg
		}
		t.emitf("mov %s, [%s+%d]", reg, base, m.Off)
	default:
		panic("memory operand with computed address must go through a temp")
	}
}

// storeMem stores eax into a memory operand, using ecx for the address.
func (t *tiler) storeMem(m *ir.Mem) {
	switch addr := m.Addr.(type) {
	case *ir.Name:
		t.refs[addr.Label] = true
		if m.Off != 0 {
			t.emitf("mov [%s+%d], eax", addr.Label, m.Off)
		} else {
			t.emitf("mov [%s], eax", addr.Label)
		}
	case *ir.Temp:
		base := t.fr.location(addr)
		if !t.fr.inRegister(addr) {
			t.emitf("mov ecx, %s", base)
			base = "ecx"
		}
		t.emitf("mov [%s+%d], eax", base, m.Off)
	default:
		panic("memory operand with computed address must go through a temp")
	}
}

// rhsOperand renders the right operand of a binary tile: an immediate for
// constants, otherwise ecx.
func (t *tiler) rhsOperand(v ir.Value) string {
	if c, ok := v.(*ir.Const); ok {
		return strconv.Itoa(int(c.Val))
	}
	t.load("ecx", v)
	return "ecx"
}

var setccOf = map[ir.BinOp]string{
	ir.Eq: "sete", ir.Ne: "setne", ir.Lt: "setl",
	ir.Le: "setle", ir.Gt: "setg", ir.Ge: "setge",
}

var jccOf = map[ir.BinOp]string{
	ir.Eq: "je", ir.Ne: "jne", ir.Lt: "jl",
	ir.Le: "jle", ir.Gt: "jg", ir.Ge: "jge",
}

// tileBin computes a Bin into eax.
func (t *tiler) tileBin(b *ir.Bin) {
	switch b.Op {
	case ir.ExtB, ir.ExtS, ir.ExtC:
		t.load("eax", b.L)
		switch b.Op {
		case ir.ExtB:
			t.emitf("movsx eax, al")
		case ir.ExtS:
			t.emitf("movsx eax, ax")
		case ir.ExtC:
			t.emitf("movzx eax, ax")
		}
		return
	case ir.Div, ir.Mod:
		t.load("eax", b.L)
		t.load("ecx", b.R)
		ok := t.localLabel("divok")
		t.emitf("cmp ecx, 0")
		t.emitf("jne %s", ok)
		t.refs[ir.ExceptionLabel] = true
		t.emitf("call %s", ir.ExceptionLabel)
		t.emitf("%s:", ok)
		t.emitf("cdq")
		t.emitf("idiv ecx")
		if b.Op == ir.Mod {
			t.emitf("mov eax, edx")
		}
		return
	}

	t.load("eax", b.L)
	rhs := t.rhsOperand(b.R)
	switch b.Op {
	case ir.Add:
		t.emitf("add eax, %s", rhs)
	case ir.Sub:
		t.emitf("sub eax, %s", rhs)
	case ir.Mul:
		t.emitf("imul eax, %s", rhs)
	case ir.And:
		t.emitf("and eax, %s", rhs)
	case ir.Or:
		t.emitf("or eax, %s", rhs)
	default:
		setcc, ok := setccOf[b.Op]
		if !ok {
			panic("unknown bin op in tiling")
		}
		t.emitf("cmp eax, %s", rhs)
		t.emitf("%s al", setcc)
		t.emitf("movzx eax, al")
	}
}

func (t *tiler) tileStmt(stmt ir.Stmt) {
	switch s := stmt.(type) {
	case *ir.Label:
		t.emitf("%s:", s.Name)
	case *ir.Jump:
		t.emitf("jmp %s", s.Target)
	case *ir.Move:
		t.load("eax", s.Src)
		switch dst := s.Dst.(type) {
		case *ir.Temp:
			t.emitf("mov %s, eax", t.fr.location(dst))
		case *ir.Mem:
			t.storeMem(dst)
		default:
			panic("move destination must be a temp or memory")
		}
	case *ir.CJump:
		t.tileCJump(s)
	case *ir.Call:
		t.tileCall(s)
	case *ir.Return:
		if s.Value != nil {
			t.load("eax", s.Value)
		}
		t.epilogue()
	default:
		panic("unknown statement in tiling")
	}
}

func (t *tiler) tileCJump(s *ir.CJump) {
	switch cond := s.Cond.(type) {
	case *ir.Const:
		if cond.Val != 0 {
			t.emitf("jmp %s", s.True)
		} else if s.False != "" {
			t.emitf("jmp %s", s.False)
		}
		return
	case *ir.Bin:
		if jcc, ok := jccOf[cond.Op]; ok {
			t.load("eax", cond.L)
			rhs := t.rhsOperand(cond.R)
			t.emitf("cmp eax, %s", rhs)
			t.emitf("%s %s", jcc, s.True)
			if s.False != "" {
				t.emitf("jmp %s", s.False)
			}
			return
		}
	}
	t.load("eax", s.Cond)
	t.emitf("cmp eax, 0")
	t.emitf("jne %s", s.True)
	if s.False != "" {
		t.emitf("jmp %s", s.False)
	}
}

func (t *tiler) tileCall(s *ir.Call) {
	// The runtime's allocator takes its size in eax, not on the stack.
	if name, ok := s.Target.(*ir.Name); ok && name.Label == ir.MallocLabel {
		t.refs[ir.MallocLabel] = true
		t.load("eax", s.Args[0])
		t.emitf("call %s", ir.MallocLabel)
		if s.Dst != nil {
			t.emitf("mov %s, eax", t.fr.location(s.Dst))
		}
		return
	}

	// cdecl: arguments pushed right to left, caller cleans up.
	for i := len(s.Args) - 1; i >= 0; i-- {
		if c, ok := s.Args[i].(*ir.Const); ok {
			t.emitf("push dword %d", c.Val)
			continue
		}
		t.load("eax", s.Args[i])
		t.emitf("push eax")
	}
	switch target := s.Target.(type) {
	case *ir.Name:
		t.refs[target.Label] = true
		t.emitf("call %s", target.Label)
	default:
		t.load("eax", s.Target)
		t.emitf("call eax")
	}
	if len(s.Args) > 0 {
		t.emitf("add esp, %d", 4*len(s.Args))
	}
	if s.Dst != nil {
		t.emitf("mov %s, eax", t.fr.location(s.Dst))
	}
}

func (t *tiler) prologue() {
	t.emitf("push ebp")
	t.emitf("mov ebp, esp")
	if size := t.fr.size(); size > 0 {
		t.emitf("sub esp, %d", size)
	}
	for i, reg := range t.fr.savedRegs {
		t.emitf("mov %s, %s", t.fr.savedRegSlot(i), reg)
	}
}

func (t *tiler) epilogue() {
	for i, reg := range t.fr.savedRegs {
		t.emitf("mov %s, %s", reg, t.fr.savedRegSlot(i))
	}
	t.emitf("mov esp, ebp")
	t.emitf("pop ebp")
	t.emitf("ret")
}

// tileFunc selects instructions for one function.
func tileFunc(fn *ir.Func, fr *frame, refs map[string]bool, seq *int) []string {
	t := &tiler{fr: fr, refs: refs, seq: seq}
	t.emitf("%s:", fn.Label)
	t.prologue()
	for _, stmt := range fn.Body {
		t.tileStmt(stmt)
	}
	return t.lines
}
