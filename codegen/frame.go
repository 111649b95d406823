package codegen

import (
	"fmt"

	"joosc/ir"
)

// A frame maps every temp of a function to a concrete location: an incoming
// parameter slot above ebp, a spill slot below it, or (after linear scan) a
// register. The trivial allocator puts every temp in a slot and reloads it
// on every use, which is the --opt-none behavior; the frame size is fixed
// before any instruction is emitted either way.

type frame struct {
	fn       *ir.Func
	reg      map[int]string // temp id -> register, linear scan only
	slot     map[int]int    // temp id -> spill slot index
	numSlots int
	// savedRegs are callee saved registers the function must preserve
	// because the allocator handed them out.
	savedRegs []string
}

func newTrivialFrame(fn *ir.Func) *frame {
	fr := &frame{fn: fn, reg: map[int]string{}, slot: map[int]int{}}
	for id := fn.NumParams; id < fn.NumTemps; id++ {
		fr.slot[id] = fr.numSlots
		fr.numSlots++
	}
	return fr
}

// location renders the operand for a temp. Parameters live above the saved
// ebp and return address; arg 0 sits at [ebp+8].
func (fr *frame) location(t *ir.Temp) string {
	if reg, ok := fr.reg[t.ID]; ok {
		return reg
	}
	if t.ID < fr.fn.NumParams {
		return fmt.Sprintf("[ebp+%d]", 8+4*t.ID)
	}
	return fmt.Sprintf("[ebp-%d]", 4*(fr.slot[t.ID]+1))
}

func (fr *frame) inRegister(t *ir.Temp) bool {
	_, ok := fr.reg[t.ID]
	return ok
}

func (fr *frame) size() int {
	return 4 * (fr.numSlots + len(fr.savedRegs))
}

// savedRegSlot is where a callee saved register is stashed in the prologue.
func (fr *frame) savedRegSlot(i int) string {
	return fmt.Sprintf("[ebp-%d]", 4*(fr.numSlots+i+1))
}
