package ir

import (
	"strings"

	"joosc/compiler"
)

// Object layout. Every object starts with a vtable pointer at offset 0 and
// its instance fields after it, inherited fields first, each slot 4 bytes
// regardless of declared width. Arrays are {vtable, length, elements...}.
//
// Vtable slots are assigned per method signature globally: every distinct
// (name, parameter types) pair of an instance method gets one slot, and a
// class's vtable fills the slots for the signatures it contains. Overriding
// therefore lands on the same slot by construction, and interface dispatch
// works through the very same table. Slot 0 of every vtable holds a pointer
// to the class's subtype column; method slots start at 1.

const (
	FieldBase   = 4 // first instance field offset
	ArrayLenOff = 4
	ArrayBase   = 8 // first element offset
	WordSize    = 4
)

type Layout struct {
	index    *compiler.TypeIndex
	sigSlot  map[string]int
	numSlots int

	fieldOffset map[*compiler.FieldAst]int32
	objectSize  map[*compiler.TypeAst]int32
	vtables     map[*compiler.TypeAst][]string
	subtype     map[*compiler.TypeAst][]bool
}

func NewLayout(index *compiler.TypeIndex) *Layout {
	layout := &Layout{
		index:       index,
		sigSlot:     map[string]int{},
		fieldOffset: map[*compiler.FieldAst]int32{},
		objectSize:  map[*compiler.TypeAst]int32{},
		vtables:     map[*compiler.TypeAst][]string{},
		subtype:     map[*compiler.TypeAst][]bool{},
	}

	// Signature slots first, in the deterministic order of the type index.
	for _, decl := range index.Types() {
		for _, m := range decl.Contains {
			if m.Modifiers.Has(compiler.StaticModifier) {
				continue
			}
			sig := m.Signature()
			if _, ok := layout.sigSlot[sig]; !ok {
				layout.sigSlot[sig] = layout.numSlots
				layout.numSlots++
			}
		}
	}

	for _, decl := range index.Types() {
		layout.layoutType(decl)
	}
	return layout
}

func (layout *Layout) layoutType(decl *compiler.TypeAst) {
	// Field slots: inherited instance fields keep the offsets they have in
	// the superclass, own fields append after.
	offset := int32(FieldBase)
	for _, f := range decl.InheritedFields {
		if f.Modifiers.Has(compiler.StaticModifier) {
			continue
		}
		layout.fieldOffset[f] = offset
		offset += WordSize
	}
	for _, f := range decl.Fields {
		if f.Modifiers.Has(compiler.StaticModifier) {
			continue
		}
		layout.fieldOffset[f] = offset
		offset += WordSize
	}
	layout.objectSize[decl] = offset

	// Vtable: one entry per global slot, filled for the signatures this
	// type contains a concrete method for.
	table := make([]string, layout.numSlots)
	for _, m := range decl.Contains {
		if m.Modifiers.Has(compiler.StaticModifier) {
			continue
		}
		slot := layout.sigSlot[m.Signature()]
		m.VtableSlot = slot
		if m.HasBody {
			table[slot] = MethodLabel(m)
		}
	}
	layout.vtables[decl] = table

	// Subtype column over dense type ids.
	column := make([]bool, len(layout.index.Types()))
	for _, t := range layout.index.Types() {
		column[t.Id] = compiler.SubtypeOf(decl, t)
	}
	layout.subtype[decl] = column
}

func (layout *Layout) FieldOffset(f *compiler.FieldAst) int32 {
	return layout.fieldOffset[f]
}

func (layout *Layout) ObjectSize(decl *compiler.TypeAst) int32 {
	return layout.objectSize[decl]
}

func (layout *Layout) VtableSlot(m *compiler.MethodAst) int {
	return layout.sigSlot[m.Signature()]
}

func (layout *Layout) Vtable(decl *compiler.TypeAst) []string {
	return layout.vtables[decl]
}

func (layout *Layout) Subtype(decl *compiler.TypeAst) []bool {
	return layout.subtype[decl]
}

// ----- label naming -----

// Sanitize makes a canonical name or signature safe for use inside an
// assembly label.
var labelReplacer = strings.NewReplacer(
	"[]", "ARR", ".", "_", "(", "_", ")", "", ",", "_", "<", "", ">", "",
)

func Sanitize(name string) string {
	return labelReplacer.Replace(name)
}

// MethodLabel is the code label of a method. Native methods use the fixed
// runtime naming scheme and are not sanitized, the ABI pins them down.
func MethodLabel(m *compiler.MethodAst) string {
	if m.Modifiers.Has(compiler.NativeModifier) {
		return "NATIVE" + m.Owner.Canonical + "." + m.Name
	}
	return "_" + Sanitize(m.Owner.Canonical) + "_" + Sanitize(m.Signature())
}

func CtorLabel(c *compiler.ConstructorAst) string {
	return "_ctor_" + Sanitize(c.Owner.Canonical) + "_" + Sanitize(c.Signature())
}

func InitLabel(decl *compiler.TypeAst) string {
	return "_" + Sanitize(decl.Canonical) + "_init"
}

func VtableLabel(decl *compiler.TypeAst) string {
	return "_vtable_" + Sanitize(decl.Canonical)
}

func SubtypeColLabel(decl *compiler.TypeAst) string {
	return "_subtype_" + Sanitize(decl.Canonical)
}

func StaticFieldLabel(f *compiler.FieldAst) string {
	return "_field_" + Sanitize(f.Owner.Canonical) + "_" + f.Name
}
