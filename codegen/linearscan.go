package codegen

import (
	"sort"

	"joosc/ir"
)

// Linear scan register allocation over live intervals, Poletto & Sarkar
// style: sort intervals by start, hand out registers while they last, spill
// the longest lived conflicting interval when they don't.
//
// The allocatable pool is the callee saved half of the x86-32 registers;
// eax, ecx and edx stay free for the tiles' own scratch needs, and because
// everything in the pool is callee saved no extra spilling is needed around
// calls - the callee preserves them, and the function's own prologue saves
// whatever it hands out.
var allocatable = []string{"ebx", "esi", "edi"}

type interval struct {
	tempID int
	start  int
	end    int
}

func newLinearScanFrame(fn *ir.Func) *frame {
	fr := &frame{fn: fn, reg: map[int]string{}, slot: map[int]int{}}

	intervals := computeIntervals(fn)
	sort.Slice(intervals, func(i, j int) bool { return intervals[i].start < intervals[j].start })

	free := append([]string{}, allocatable...)
	var active []*interval
	used := map[string]bool{}

	expire := func(now int) {
		live := active[:0]
		for _, iv := range active {
			if iv.end >= now {
				live = append(live, iv)
			} else {
				free = append(free, fr.reg[iv.tempID])
			}
		}
		active = live
	}
	spillSlot := func(id int) {
		fr.slot[id] = fr.numSlots
		fr.numSlots++
	}

	for _, iv := range intervals {
		expire(iv.start)
		if len(free) > 0 {
			reg := free[len(free)-1]
			free = free[:len(free)-1]
			fr.reg[iv.tempID] = reg
			used[reg] = true
			active = append(active, iv)
			sort.Slice(active, func(i, j int) bool { return active[i].end < active[j].end })
			continue
		}
		// Spill whichever conflicting interval lives longest.
		last := active[len(active)-1]
		if last.end > iv.end {
			fr.reg[iv.tempID] = fr.reg[last.tempID]
			delete(fr.reg, last.tempID)
			spillSlot(last.tempID)
			active[len(active)-1] = iv
			sort.Slice(active, func(i, j int) bool { return active[i].end < active[j].end })
		} else {
			spillSlot(iv.tempID)
		}
	}

	for _, reg := range allocatable {
		if used[reg] {
			fr.savedRegs = append(fr.savedRegs, reg)
		}
	}
	return fr
}

// computeIntervals numbers the statements of the flat body and records the
// first and last position each non-parameter temp is touched at. Backward
// jumps stretch every interval overlapping the loop across its whole range,
// which keeps loop carried temps alive without full dataflow.
func computeIntervals(fn *ir.Func) []*interval {
	byTemp := map[int]*interval{}
	touch := func(id, pos int) {
		iv, ok := byTemp[id]
		if !ok {
			byTemp[id] = &interval{tempID: id, start: pos, end: pos}
			return
		}
		if pos < iv.start {
			iv.start = pos
		}
		if pos > iv.end {
			iv.end = pos
		}
	}
	touchValue := func(v ir.Value, pos int) {
		forEachTemp(v, func(t *ir.Temp) { touch(t.ID, pos) })
	}

	labelPos := map[string]int{}
	for pos, stmt := range fn.Body {
		if l, ok := stmt.(*ir.Label); ok {
			labelPos[l.Name] = pos
		}
	}

	type backedge struct{ from, to int }
	var backedges []backedge
	noteEdge := func(target string, pos int) {
		if to, ok := labelPos[target]; ok && to < pos {
			backedges = append(backedges, backedge{from: pos, to: to})
		}
	}

	for pos, stmt := range fn.Body {
		switch s := stmt.(type) {
		case *ir.Move:
			touchValue(s.Dst, pos)
			touchValue(s.Src, pos)
		case *ir.CJump:
			touchValue(s.Cond, pos)
			noteEdge(s.True, pos)
			if s.False != "" {
				noteEdge(s.False, pos)
			}
		case *ir.Jump:
			noteEdge(s.Target, pos)
		case *ir.Call:
			if s.Dst != nil {
				touch(s.Dst.ID, pos)
			}
			touchValue(s.Target, pos)
			for _, arg := range s.Args {
				touchValue(arg, pos)
			}
		case *ir.Return:
			if s.Value != nil {
				touchValue(s.Value, pos)
			}
		}
	}

	var intervals []*interval
	for id, iv := range byTemp {
		if id < fn.NumParams {
			// Parameters stay in their incoming stack slots.
			continue
		}
		intervals = append(intervals, iv)
	}
	for _, edge := range backedges {
		for _, iv := range intervals {
			if iv.start <= edge.from && iv.end >= edge.to {
				if iv.end < edge.from {
					iv.end = edge.from
				}
				if iv.start > edge.to {
					iv.start = edge.to
				}
			}
		}
	}
	return intervals
}

func forEachTemp(v ir.Value, visit func(*ir.Temp)) {
	switch val := v.(type) {
	case *ir.Temp:
		visit(val)
	case *ir.Mem:
		forEachTemp(val.Addr, visit)
	case *ir.Bin:
		forEachTemp(val.L, visit)
		forEachTemp(val.R, visit)
	}
}
