package ir

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"joosc/compiler"
)

func mustCompile(t *testing.T, sources ...compiler.Source) *compiler.Program {
	program, diags := compiler.Compile(sources, compiler.Options{Quiet: true})
	assert.False(t, diags.HasErrors())
	return program
}

func TestLayout_OverrideKeepsSlot(t *testing.T) {
	program := mustCompile(t,
		compiler.Source{Name: "A.java", Content: `
		public class A {
			public A() {}
			public int m() { return 0; }
			public int n() { return 0; }
		}
		`},
		compiler.Source{Name: "B.java", Content: `
		public class B extends A {
			public B() {}
			public int m() { return 1; }
		}
		`},
	)
	layout := NewLayout(program.Index)
	a := program.Index.Lookup("A")
	b := program.Index.Lookup("B")

	var am, bm *compiler.MethodAst
	for _, m := range a.Methods {
		if m.Name == "m" {
			am = m
		}
	}
	for _, m := range b.Methods {
		if m.Name == "m" {
			bm = m
		}
	}
	assert.NotNil(t, am)
	assert.NotNil(t, bm)

	// The overriding method sits at the very slot of the method it
	// overrides, and B's table points at B's implementation there.
	slot := layout.VtableSlot(am)
	assert.Equal(t, slot, layout.VtableSlot(bm))
	assert.Equal(t, MethodLabel(bm), layout.Vtable(b)[slot])
	assert.Equal(t, MethodLabel(am), layout.Vtable(a)[slot])

	// Inherited methods keep the superclass implementation in the table.
	var an *compiler.MethodAst
	for _, m := range a.Methods {
		if m.Name == "n" {
			an = m
		}
	}
	assert.Equal(t, MethodLabel(an), layout.Vtable(b)[layout.VtableSlot(an)])
}

func TestLayout_SubtypeColumns(t *testing.T) {
	program := mustCompile(t,
		compiler.Source{Name: "I.java", Content: "public interface I { }"},
		compiler.Source{Name: "A.java", Content: "public class A implements I { public A() {} }"},
		compiler.Source{Name: "B.java", Content: "public class B extends A { public B() {} }"},
	)
	layout := NewLayout(program.Index)
	a := program.Index.Lookup("A")
	b := program.Index.Lookup("B")
	i := program.Index.Lookup("I")
	object := program.Index.Lookup("java.lang.Object")

	// The column agrees with the static subtype relation everywhere.
	for _, s := range program.Index.Types() {
		column := layout.Subtype(s)
		for _, target := range program.Index.Types() {
			assert.Equal(t, compiler.SubtypeOf(s, target), column[target.Id],
				"%s instanceof %s", s.Canonical, target.Canonical)
		}
	}
	assert.True(t, layout.Subtype(b)[a.Id])
	assert.True(t, layout.Subtype(b)[i.Id])
	assert.True(t, layout.Subtype(b)[object.Id])
	assert.False(t, layout.Subtype(a)[b.Id])
}

func TestLayout_FieldOffsets(t *testing.T) {
	program := mustCompile(t,
		compiler.Source{Name: "A.java", Content: `
		public class A {
			public A() {}
			public int a;
			public static int s;
			public char b;
		}
		`},
		compiler.Source{Name: "B.java", Content: `
		public class B extends A {
			public B() {}
			public int c;
		}
		`},
	)
	layout := NewLayout(program.Index)
	a := program.Index.Lookup("A")
	b := program.Index.Lookup("B")

	// Instance fields start after the vtable pointer, 4 bytes each; static
	// fields take no slot; inherited fields keep their offsets.
	assert.Equal(t, int32(4), layout.FieldOffset(a.Fields[0]))
	assert.Equal(t, int32(8), layout.FieldOffset(a.Fields[2]))
	assert.Equal(t, int32(12), layout.ObjectSize(a))
	assert.Equal(t, int32(4), layout.FieldOffset(a.Fields[0]))
	assert.Equal(t, int32(12), layout.FieldOffset(b.Fields[0]))
	assert.Equal(t, int32(16), layout.ObjectSize(b))
}

func TestLower_Program(t *testing.T) {
	program := mustCompile(t, compiler.Source{Name: "A.java", Content: `
	public class A {
		public static int K = 7;
		public A() {}
		public static int test() {
			String s = "hi";
			int[] xs = new int[3];
			xs[0] = A.K;
			return xs[0] + s.length();
		}
	}
	`})
	lowered := Lower(program)

	assert.Equal(t, "_A_test_", lowered.TestLabel)
	assert.Equal(t, len(program.Units), len(lowered.Units))

	var a *CompUnit
	for _, unit := range lowered.Units {
		if unit.Name == "A" {
			a = unit
		}
	}
	assert.NotNil(t, a)
	assert.NotNil(t, a.Init)
	assert.Equal(t, "_A_init", a.InitLabel)
	assert.Equal(t, 1, len(a.StaticFields))
	assert.Equal(t, "_field_A_K", a.StaticFields[0].Label)

	// The string literal became a static object in this unit.
	assert.Equal(t, 1, len(a.Strings))
	assert.Equal(t, "hi", a.Strings[0].Value)

	// Static initializer stores the constant into the field cell.
	foundStore := false
	for _, stmt := range a.Init.Body {
		if mv, ok := stmt.(*Move); ok {
			if mem, ok := mv.Dst.(*Mem); ok {
				if name, ok := mem.Addr.(*Name); ok && name.Label == "_field_A_K" {
					foundStore = true
					assert.Empty(t, cmp.Diff(&Const{Val: 7}, mv.Src))
				}
			}
		}
	}
	assert.True(t, foundStore)

	// The init order covers the stdlib classes too, in unit order.
	assert.Equal(t, len(program.Units)-2, len(lowered.InitOrder)) // two interfaces have no init
	assert.Equal(t, "_A_init", lowered.InitOrder[len(lowered.InitOrder)-1])
}

func TestLower_VirtualCallGoesThroughVtable(t *testing.T) {
	program := mustCompile(t, compiler.Source{Name: "A.java", Content: `
	public class A {
		public A() {}
		public int m() { return 1; }
		public int call(A a) { return a.m(); }
	}
	`})
	lowered := Lower(program)
	var callFn *Func
	for _, unit := range lowered.Units {
		for _, fn := range unit.Funcs {
			if fn.Label == "_A_call_A" {
				callFn = fn
			}
		}
	}
	assert.NotNil(t, callFn)

	// An instance call loads the code pointer out of the vtable: the Call
	// target is a temp, not a direct name.
	foundIndirect := false
	for _, stmt := range callFn.Body {
		if call, ok := stmt.(*Call); ok {
			if _, ok := call.Target.(*Temp); ok {
				foundIndirect = true
				assert.Equal(t, 1, len(call.Args)) // just the receiver
			}
		}
	}
	assert.True(t, foundIndirect)
}

func TestLower_ConstructorShape(t *testing.T) {
	program := mustCompile(t, compiler.Source{Name: "A.java", Content: `
	public class A {
		public int x = 5;
		public A() {}
	}
	`})
	lowered := Lower(program)
	var ctor *Func
	for _, unit := range lowered.Units {
		for _, fn := range unit.Funcs {
			if fn.Label == "_ctor_A_init_" {
				ctor = fn
			}
		}
	}
	assert.NotNil(t, ctor)
	assert.Equal(t, 1, ctor.NumParams) // this

	// First a direct call to the super constructor, and the body must end
	// by returning this.
	call, ok := ctor.Body[0].(*Call)
	assert.True(t, ok)
	name, ok := call.Target.(*Name)
	assert.True(t, ok)
	assert.Equal(t, "_ctor_java_lang_Object_init_", name.Label)

	ret, ok := ctor.Body[len(ctor.Body)-1].(*Return)
	assert.True(t, ok)
	assert.Empty(t, cmp.Diff(&Temp{ID: 0}, ret.Value))
}
