package compiler

import (
	"log"
	"strings"
)

// The pipeline. Passes run strictly in order over the shared program model;
// each pass only writes its own attributes, and the pipeline stops at the
// end of the first pass that reported an error so later passes always see
// well formed input.

type Program struct {
	// Units holds every compilation unit, built in library first, user
	// units after in command line order.
	Units []*UnitAst
	// UserUnits is the suffix of Units that came from the command line.
	UserUnits []*UnitAst
	Index     *TypeIndex
}

type Options struct {
	Quiet bool
}

func Compile(sources []Source, opts Options) (*Program, *Diagnostics) {
	diags := &Diagnostics{}
	trace := func(stage string) {
		if !opts.Quiet {
			log.Println("compiler: start " + stage)
		}
	}

	trace("parser")
	all := append(append([]Source{}, stdlibSources...), sources...)
	var units []*UnitAst
	parser := &Parser{}
	for _, src := range all {
		parser.reset()
		unit, err := parser.Parse(src.Name, strings.NewReader(src.Content))
		if err != nil {
			diags.add(err.(*Diagnostic))
			continue
		}
		units = append(units, unit)
	}
	if diags.HasErrors() {
		return nil, diags
	}

	program := &Program{
		Units:     units,
		UserUnits: units[len(stdlibSources):],
	}

	trace("weeder")
	weedUnits(units, diags)
	if diags.HasErrors() {
		return program, diags
	}

	trace("type index")
	program.Index = buildTypeIndex(units, diags)
	if diags.HasErrors() {
		return program, diags
	}
	linkTypes(units, program.Index, diags)
	if diags.HasErrors() {
		return program, diags
	}

	trace("hierarchy checker")
	checkHierarchy(program.Index, diags)
	if diags.HasErrors() {
		return program, diags
	}

	trace("name disambiguation")
	disambiguateNames(units, program.Index, diags)
	if diags.HasErrors() {
		return program, diags
	}

	trace("type checker")
	typeCheckUnits(units, program.Index, diags)
	if diags.HasErrors() {
		return program, diags
	}

	trace("static analysis")
	analyzeUnits(units, program.Index, diags)
	return program, diags
}
