package main

import (
	"flag"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"

	"joosc/codegen"
	"joosc/compiler"
	"joosc/ir"
)

// joosc: batch whole-program compiler for Joos 1W.
//
// Exit codes: 0 clean success, 42 any lexical/syntactic/semantic error,
// 43 success with warnings, 13 internal compiler error.

var (
	optNone = flag.Bool("opt-none", false, "disable optimisations (trivial register allocation)")
	optSet  = flag.String("opt", "", "comma separated optimisation set, e.g. reg-only")
	quiet   = flag.Bool("q", false, "only report errors")
	outDir  = flag.String("d", "output", "directory the assembly files are written to")
)

const (
	exitSuccess  = 0
	exitError    = 42
	exitWarning  = 43
	exitInternal = 13
)

func main() {
	os.Exit(run())
}

func run() (code int) {
	// Internal errors must surface as exit 13, never as a silent crash.
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "joosc: internal error: %v\n", r)
			code = exitInternal
		}
	}()

	flag.Parse()
	paths := flag.Args()
	if len(paths) == 0 {
		fmt.Fprintln(os.Stderr, "usage: joosc [--opt-none | --opt <set>] [-q] <file> [<file> ...]")
		return exitError
	}

	var sources []compiler.Source
	for _, path := range paths {
		content, err := ioutil.ReadFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "joosc: %v\n", err)
			return exitError
		}
		sources = append(sources, compiler.Source{Name: path, Content: string(content)})
	}

	program, diags := compiler.Compile(sources, compiler.Options{Quiet: *quiet})
	for _, d := range diags.All {
		prefix := "error"
		if d.Warning {
			prefix = "warning"
		}
		fmt.Fprintf(os.Stderr, "%s: %s\n", prefix, d.Error())
	}
	if diags.HasErrors() {
		return exitError
	}

	lowered := ir.Lower(program)
	files, err := codegen.Generate(lowered, codegen.Options{OptNone: !linearScanEnabled()})
	if err != nil {
		fmt.Fprintf(os.Stderr, "joosc: %v\n", err)
		return exitError
	}

	if err := os.MkdirAll(*outDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "joosc: %v\n", err)
		return exitError
	}
	for name, content := range files {
		if err := ioutil.WriteFile(filepath.Join(*outDir, name), []byte(content), 0644); err != nil {
			fmt.Fprintf(os.Stderr, "joosc: %v\n", err)
			return exitError
		}
	}

	if diags.HasWarnings() {
		return exitWarning
	}
	return exitSuccess
}

// linearScanEnabled: register allocation is the one optimisation the driver
// knows; --opt-none wins over everything, and the default is off.
func linearScanEnabled() bool {
	if *optNone {
		return false
	}
	for _, opt := range strings.Split(*optSet, ",") {
		if strings.TrimSpace(opt) == "reg-only" {
			return true
		}
	}
	return false
}
