package codegen

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"joosc/compiler"
	"joosc/ir"
)

func lowerProgram(t *testing.T, sources ...compiler.Source) *ir.Program {
	program, diags := compiler.Compile(sources, compiler.Options{Quiet: true})
	assert.False(t, diags.HasErrors())
	return ir.Lower(program)
}

const minimalProgram = `
public class A {
	public A() {}
	public static int test() { return 123; }
}
`

func TestGenerate_FileSet(t *testing.T) {
	lowered := lowerProgram(t, compiler.Source{Name: "A.java", Content: minimalProgram})
	files, err := Generate(lowered, Options{OptNone: true})
	assert.Nil(t, err)

	// One file per compilation unit (stdlib included) plus start.s.
	assert.Equal(t, len(lowered.Units)+1, len(files))
	assert.Contains(t, files, "A.s")
	assert.Contains(t, files, "java_lang_Object.s")
	assert.Contains(t, files, "start.s")
}

func TestGenerate_StartFile(t *testing.T) {
	lowered := lowerProgram(t, compiler.Source{Name: "A.java", Content: minimalProgram})
	files, err := Generate(lowered, Options{OptNone: true})
	assert.Nil(t, err)

	start := files["start.s"]
	assert.Contains(t, start, "global _start")
	assert.Contains(t, start, "_start:")
	// Every class initializer runs before test, then the exit value goes to
	// the runtime.
	assert.Contains(t, start, "call _A_init")
	assert.Contains(t, start, "call _A_test_")
	assert.Contains(t, start, "push eax\ncall __debexit")
	// The shared array vtable lives here.
	assert.Contains(t, start, "_vtable_$array:")
	assert.Contains(t, start, "_subtype_$array:")

	initAt := strings.Index(start, "call _A_init")
	testAt := strings.Index(start, "call _A_test_")
	assert.True(t, initAt < testAt)
}

func TestGenerate_UnitFile(t *testing.T) {
	lowered := lowerProgram(t, compiler.Source{Name: "A.java", Content: `
	public class A {
		public static int K = 6;
		public A() {}
		public static int test() { return 1000000 / K; }
	}
	`})
	files, err := Generate(lowered, Options{OptNone: true})
	assert.Nil(t, err)

	asm := files["A.s"]
	assert.Contains(t, asm, "extern __exception")
	assert.Contains(t, asm, "global _A_test_")
	assert.Contains(t, asm, "_A_test_:")
	assert.Contains(t, asm, "push ebp")
	assert.Contains(t, asm, "mov ebp, esp")
	// Division guards against zero before idiv.
	assert.Contains(t, asm, "idiv ecx")
	assert.Contains(t, asm, "call __exception")
	// Static field cell and vtable data.
	assert.Contains(t, asm, "_field_A_K:")
	assert.Contains(t, asm, "_vtable_A:")
	assert.Contains(t, asm, "dd _subtype_A")
	assert.Contains(t, asm, "ret")
}

func TestGenerate_MissingTestMethod(t *testing.T) {
	lowered := lowerProgram(t, compiler.Source{Name: "A.java", Content: `
	public class A {
		public A() {}
		public int notTest() { return 1; }
	}
	`})
	_, err := Generate(lowered, Options{OptNone: true})
	assert.NotNil(t, err)
}

func TestGenerate_LinearScanSmoke(t *testing.T) {
	source := compiler.Source{Name: "A.java", Content: `
	public class A {
		public A() {}
		public static int test() {
			int sum = 0;
			for (int i = 0; i < 10; i = i + 1) {
				sum = sum + i * i;
			}
			return sum;
		}
	}
	`}
	lowered := lowerProgram(t, source)

	trivial, err := Generate(lowered, Options{OptNone: true})
	assert.Nil(t, err)
	scanned, err := Generate(lowered, Options{})
	assert.Nil(t, err)

	// Same file set either way; the allocators only change the bodies.
	assert.Equal(t, len(trivial), len(scanned))
	for name := range trivial {
		assert.Contains(t, scanned, name)
	}
}

func TestTrivialFrame_Locations(t *testing.T) {
	fn := &ir.Func{Label: "f", NumParams: 2, NumTemps: 4}
	fr := newTrivialFrame(fn)
	assert.Equal(t, "[ebp+8]", fr.location(&ir.Temp{ID: 0}))
	assert.Equal(t, "[ebp+12]", fr.location(&ir.Temp{ID: 1}))
	assert.Equal(t, "[ebp-4]", fr.location(&ir.Temp{ID: 2}))
	assert.Equal(t, "[ebp-8]", fr.location(&ir.Temp{ID: 3}))
	assert.Equal(t, 8, fr.size())
}

func TestLinearScan_AllocatesRegisters(t *testing.T) {
	// t0 = 1; t1 = t0 + 1; return t1 - short intervals, no spills.
	fn := &ir.Func{
		Label:    "f",
		NumTemps: 2,
		Body: []ir.Stmt{
			&ir.Move{Dst: &ir.Temp{ID: 0}, Src: &ir.Const{Val: 1}},
			&ir.Move{Dst: &ir.Temp{ID: 1}, Src: &ir.Bin{Op: ir.Add, L: &ir.Temp{ID: 0}, R: &ir.Const{Val: 1}}},
			&ir.Return{Value: &ir.Temp{ID: 1}},
		},
	}
	fr := newLinearScanFrame(fn)
	assert.True(t, fr.inRegister(&ir.Temp{ID: 0}))
	assert.True(t, fr.inRegister(&ir.Temp{ID: 1}))
	assert.Equal(t, 0, fr.numSlots)
	assert.NotEmpty(t, fr.savedRegs)
}

func TestLinearScan_SpillsWhenOutOfRegisters(t *testing.T) {
	// Five temps plus a running sum, six overlapping intervals: more than the
	// pool holds.
	var body []ir.Stmt
	for i := 0; i < 5; i++ {
		body = append(body, &ir.Move{Dst: &ir.Temp{ID: i}, Src: &ir.Const{Val: int32(i)}})
	}
	sum := &ir.Temp{ID: 5}
	for i := 0; i < 5; i++ {
		body = append(body, &ir.Move{Dst: sum, Src: &ir.Bin{Op: ir.Add, L: sum, R: &ir.Temp{ID: i}}})
	}
	body = append(body, &ir.Return{Value: sum})
	fn := &ir.Func{Label: "f", NumTemps: 6, Body: body}

	fr := newLinearScanFrame(fn)
	inReg := 0
	for id := 0; id < 6; id++ {
		if fr.inRegister(&ir.Temp{ID: id}) {
			inReg++
		}
	}
	assert.Equal(t, len(allocatable), inReg)
	assert.Equal(t, 6-len(allocatable), fr.numSlots)
}
