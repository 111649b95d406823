package compiler

import "fmt"

// Every error the pipeline reports is a Diagnostic with a classified kind and
// a source span. The user visible contract is the exit code only, messages
// are advisory, so we don't try very hard to make them pretty.

type ErrorKind int

const (
	LexErrorKind ErrorKind = iota
	SyntaxErrorKind
	WeedErrorKind
	EnvironmentErrorKind
	HierarchyErrorKind
	TypeErrorKind
	ReachabilityErrorKind
	DefiniteAssignErrorKind
	InternalErrorKind
)

func (kind ErrorKind) String() string {
	switch kind {
	case LexErrorKind:
		return "lexical"
	case SyntaxErrorKind:
		return "syntax"
	case WeedErrorKind:
		return "weeder"
	case EnvironmentErrorKind:
		return "environment"
	case HierarchyErrorKind:
		return "hierarchy"
	case TypeErrorKind:
		return "type"
	case ReachabilityErrorKind:
		return "reachability"
	case DefiniteAssignErrorKind:
		return "definite-assignment"
	case InternalErrorKind:
		return "internal"
	}
	return "unknown"
}

type Diagnostic struct {
	Kind    ErrorKind
	File    string
	Line    int
	Col     int
	Msg     string
	Warning bool
}

func (d *Diagnostic) Error() string {
	if d.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s error: %s", d.File, d.Line, d.Col, d.Kind, d.Msg)
	}
	return fmt.Sprintf("%s: %s error: %s", d.File, d.Kind, d.Msg)
}

func makeLexError(file string, line, col int, format string, args ...interface{}) error {
	return &Diagnostic{Kind: LexErrorKind, File: file, Line: line, Col: col, Msg: fmt.Sprintf(format, args...)}
}

func makeSyntaxError(file string, tok *Token, format string, args ...interface{}) error {
	d := &Diagnostic{Kind: SyntaxErrorKind, File: file, Msg: fmt.Sprintf(format, args...)}
	if tok != nil {
		d.Line, d.Col = tok.line, tok.col
	}
	return d
}

// Diagnostics accumulates everything a pass reports. Within a pass the
// compiler keeps going after an error so independent failures all surface;
// Compile stops the pipeline at the end of the first pass that reported an
// error (warnings do not stop it), so later passes always run on well formed
// input.
type Diagnostics struct {
	All []*Diagnostic
}

func (diags *Diagnostics) add(d *Diagnostic) {
	diags.All = append(diags.All, d)
}

func (diags *Diagnostics) errorf(kind ErrorKind, file string, line, col int, format string, args ...interface{}) {
	diags.add(&Diagnostic{Kind: kind, File: file, Line: line, Col: col, Msg: fmt.Sprintf(format, args...)})
}

func (diags *Diagnostics) warnf(kind ErrorKind, file string, line, col int, format string, args ...interface{}) {
	diags.add(&Diagnostic{Kind: kind, File: file, Line: line, Col: col, Msg: fmt.Sprintf(format, args...), Warning: true})
}

func (diags *Diagnostics) HasErrors() bool {
	for _, d := range diags.All {
		if !d.Warning {
			return true
		}
	}
	return false
}

func (diags *Diagnostics) HasWarnings() bool {
	for _, d := range diags.All {
		if d.Warning {
			return true
		}
	}
	return false
}
