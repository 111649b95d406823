// Package codegen turns the lowered IR into textual x86-32 assembly: one .s
// file per compilation unit plus the start file that runs the static
// initializers, calls test() and exits through the runtime.
package codegen

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"joosc/ir"
)

type Options struct {
	// OptNone selects the trivial allocator: every temp in a stack slot,
	// reloaded on every use. Otherwise linear scan runs.
	OptNone bool
}

const stringVtable = "_vtable_java_lang_String"

// Generate emits every assembly file, keyed by file name.
func Generate(program *ir.Program, opts Options) (map[string]string, error) {
	if program.TestLabel == "" {
		return nil, errors.New("no start class declares static int test()")
	}
	files := map[string]string{}
	for _, unit := range program.Units {
		files[unit.FileBase+".s"] = emitUnit(unit, opts)
	}
	files["start.s"] = emitStart(program)
	return files, nil
}

func newFrame(fn *ir.Func, opts Options) *frame {
	if opts.OptNone {
		return newTrivialFrame(fn)
	}
	return newLinearScanFrame(fn)
}

func emitUnit(unit *ir.CompUnit, opts Options) string {
	refs := map[string]bool{}
	seq := 0

	var text []string
	text = append(text, ir.ErrLabel+":")
	text = append(text, "call "+ir.ExceptionLabel)
	refs[ir.ExceptionLabel] = true
	text = append(text, "")

	funcs := unit.Funcs
	if unit.Init != nil {
		funcs = append(funcs, unit.Init)
	}
	for _, fn := range funcs {
		fr := newFrame(fn, opts)
		text = append(text, tileFunc(fn, fr, refs, &seq)...)
		text = append(text, "")
	}

	var data []string
	defined := map[string]bool{}
	for _, fn := range funcs {
		defined[fn.Label] = true
	}
	for _, field := range unit.StaticFields {
		data = append(data, field.Label+":", "dd 0")
		defined[field.Label] = true
	}

	data = append(data, unit.VtableLabel+":")
	data = append(data, "dd "+unit.SubtypeLabel)
	for _, slot := range unit.VtableSlots {
		if slot == "" {
			data = append(data, "dd 0")
		} else {
			data = append(data, "dd "+slot)
			refs[slot] = true
		}
	}
	defined[unit.VtableLabel] = true

	data = append(data, unit.SubtypeLabel+":")
	for _, isSub := range unit.Subtype {
		data = append(data, "dd "+boolWord(isSub))
	}
	defined[unit.SubtypeLabel] = true

	for _, str := range unit.Strings {
		data = append(data, str.ObjLabel+":")
		data = append(data, "dd "+stringVtable)
		data = append(data, "dd "+str.CharsLabel)
		data = append(data, str.CharsLabel+":")
		data = append(data, "dd "+ir.ArrayVtable)
		data = append(data, fmt.Sprintf("dd %d", len(str.Value)))
		for i := 0; i < len(str.Value); i++ {
			data = append(data, fmt.Sprintf("dd %d", str.Value[i]))
		}
		refs[stringVtable] = true
		refs[ir.ArrayVtable] = true
		defined[str.ObjLabel] = true
		defined[str.CharsLabel] = true
	}

	var out []string
	out = append(out, "; "+unit.Name)
	var externs []string
	for label := range refs {
		if !defined[label] {
			externs = append(externs, label)
		}
	}
	sort.Strings(externs)
	for _, label := range externs {
		out = append(out, "extern "+label)
	}
	var globals []string
	for label := range defined {
		globals = append(globals, label)
	}
	sort.Strings(globals)
	for _, label := range globals {
		out = append(out, "global "+label)
	}
	out = append(out, "", "section .text")
	out = append(out, text...)
	out = append(out, "section .data")
	out = append(out, data...)
	return strings.Join(out, "\n") + "\n"
}

func boolWord(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// emitStart builds start.s: call every class initializer in the fixed
// order, run test(), hand its return value to __debexit. The shared array
// vtable and subtype column live here too.
func emitStart(program *ir.Program) string {
	var out []string
	out = append(out, "; program entry")
	out = append(out, "global _start")
	out = append(out, "global "+ir.ArrayVtable)
	out = append(out, "global "+ir.ArraySubtype)
	out = append(out, "extern "+ir.DebexitLabel)
	for _, init := range program.InitOrder {
		out = append(out, "extern "+init)
	}
	out = append(out, "extern "+program.TestLabel)
	out = append(out, "", "section .text")
	out = append(out, "_start:")
	for _, init := range program.InitOrder {
		out = append(out, "call "+init)
	}
	out = append(out, "call "+program.TestLabel)
	out = append(out, "push eax")
	out = append(out, "call "+ir.DebexitLabel)
	out = append(out, "", "section .data")
	out = append(out, ir.ArrayVtable+":")
	out = append(out, "dd "+ir.ArraySubtype)
	out = append(out, ir.ArraySubtype+":")
	for _, isSub := range program.ArraySubtype {
		out = append(out, "dd "+boolWord(isSub))
	}
	return strings.Join(out, "\n") + "\n"
}
