package compiler

import (
	"sort"
	"strings"
)

// The type index is the global QualifiedName -> TypeAst table plus the per
// unit import environments. Building it is the first whole program pass, and
// everything after (hierarchy, name resolution, type checking) resolves type
// names through it.

type TypeIndex struct {
	types    map[string]*TypeAst
	packages map[string][]*TypeAst
	// ordered holds every type sorted by canonical name; a type's position
	// here is its dense id, used by the subtype columns later.
	ordered []*TypeAst
}

func (index *TypeIndex) Lookup(canonical string) *TypeAst {
	return index.types[canonical]
}

func (index *TypeIndex) Types() []*TypeAst {
	return index.ordered
}

func canonicalName(pkg, simple string) string {
	if pkg == "" {
		return simple
	}
	return pkg + "." + simple
}

func simpleName(qualified string) string {
	idx := strings.LastIndex(qualified, ".")
	return qualified[idx+1:]
}

func buildTypeIndex(units []*UnitAst, diags *Diagnostics) *TypeIndex {
	index := &TypeIndex{
		types:    map[string]*TypeAst{},
		packages: map[string][]*TypeAst{},
	}
	for _, unit := range units {
		decl := unit.Type
		decl.Canonical = canonicalName(unit.PackageName, decl.Name)
		if _, ok := index.types[decl.Canonical]; ok {
			diags.errorf(EnvironmentErrorKind, unit.FileName, decl.line, decl.col,
				"duplicate type declaration %s", decl.Canonical)
			continue
		}
		index.types[decl.Canonical] = decl
		index.packages[unit.PackageName] = append(index.packages[unit.PackageName], decl)
		index.ordered = append(index.ordered, decl)
	}
	sort.Slice(index.ordered, func(i, j int) bool {
		return index.ordered[i].Canonical < index.ordered[j].Canonical
	})
	for i, decl := range index.ordered {
		decl.Id = i
	}
	return index
}

// linkTypes builds the per unit simple name environment and then resolves
// every declared type reference in the unit (extends, implements, field and
// method types, and the type names buried in expressions).
func linkTypes(units []*UnitAst, index *TypeIndex, diags *Diagnostics) {
	for _, unit := range units {
		linkUnitImports(unit, index, diags)
	}
	if diags.HasErrors() {
		return
	}
	checkPackagePrefixes(index, diags)
	for _, unit := range units {
		resolver := &typeResolver{unit: unit, index: index, diags: diags}
		resolver.resolveUnit()
	}
}

func linkUnitImports(unit *UnitAst, index *TypeIndex, diags *Diagnostics) {
	decl := unit.Type
	unit.typeNames = map[string]*TypeAst{decl.Name: decl}

	// Single type imports first, they shadow package siblings.
	for _, imp := range unit.Imports {
		if imp.OnDemand {
			continue
		}
		simple := simpleName(imp.Name)
		imported := index.Lookup(imp.Name)
		if imported == nil {
			diags.errorf(EnvironmentErrorKind, unit.FileName, imp.line, imp.col,
				"import %s does not resolve to any type", imp.Name)
			continue
		}
		if existing, ok := unit.typeNames[simple]; ok && existing != imported {
			diags.errorf(EnvironmentErrorKind, unit.FileName, imp.line, imp.col,
				"import %s clashes with %s", imp.Name, existing.Canonical)
			continue
		}
		unit.typeNames[simple] = imported
	}

	// Same package siblings, never shadowing the above.
	for _, sibling := range index.packages[unit.PackageName] {
		if _, ok := unit.typeNames[sibling.Name]; !ok {
			unit.typeNames[sibling.Name] = sibling
		}
	}

	// On demand imports are kept as a package list and consulted last.
	// java.lang is implicitly on demand imported with the lowest priority.
	for _, imp := range unit.Imports {
		if !imp.OnDemand {
			continue
		}
		if !packageExists(index, imp.Name) {
			diags.errorf(EnvironmentErrorKind, unit.FileName, imp.line, imp.col,
				"imported package %s does not exist", imp.Name)
			continue
		}
		unit.onDemand = append(unit.onDemand, imp.Name)
	}
	unit.onDemand = append(unit.onDemand, "java.lang")
}

// packageExists reports whether pkg is a declared package or a prefix of one.
func packageExists(index *TypeIndex, pkg string) bool {
	prefix := pkg + "."
	for declared := range index.packages {
		if declared == pkg || strings.HasPrefix(declared, prefix) {
			return true
		}
	}
	return false
}

// checkPackagePrefixes rejects programs where a prefix of a package name that
// has two or more segments (the whole name included) is also a canonical type
// name. One-segment prefixes are not checked.
func checkPackagePrefixes(index *TypeIndex, diags *Diagnostics) {
	for pkg, members := range index.packages {
		if pkg == "" {
			continue
		}
		parts := strings.Split(pkg, ".")
		for i := 2; i <= len(parts); i++ {
			prefix := strings.Join(parts[:i], ".")
			if index.Lookup(prefix) != nil {
				member := members[0]
				diags.errorf(EnvironmentErrorKind, member.Unit.FileName, member.line, member.col,
					"prefix %s of package %s resolves to a type", prefix, pkg)
				break
			}
		}
	}
}

// resolveTypeName maps a type name written in this unit to its declaration.
// Resolution order for a simple name: enclosing type, single type imports,
// same package, on demand imports (ambiguity among those is an error).
func resolveTypeName(unit *UnitAst, index *TypeIndex, name string) (*TypeAst, string) {
	if strings.Contains(name, ".") {
		decl := index.Lookup(name)
		if decl == nil {
			return nil, "qualified type " + name + " does not resolve to any type"
		}
		// No strict prefix of a resolving qualified name may itself resolve
		// to a type in this environment.
		parts := strings.Split(name, ".")
		prefix := ""
		for i := 0; i < len(parts)-1; i++ {
			if i == 0 {
				prefix = parts[0]
			} else {
				prefix = prefix + "." + parts[i]
			}
			if _, ok := unit.typeNames[prefix]; ok {
				return nil, "prefix " + prefix + " of " + name + " resolves to a type"
			}
			if index.Lookup(prefix) != nil {
				return nil, "prefix " + prefix + " of " + name + " resolves to a type"
			}
		}
		return decl, ""
	}
	if decl, ok := unit.typeNames[name]; ok {
		return decl, ""
	}
	var found *TypeAst
	for _, pkg := range unit.onDemand {
		if decl := index.Lookup(pkg + "." + name); decl != nil {
			if found != nil && found != decl {
				return nil, "type " + name + " is ambiguous between " + found.Canonical + " and " + decl.Canonical
			}
			found = decl
		}
	}
	if found == nil {
		return nil, "type " + name + " does not resolve to any type"
	}
	return found, ""
}

type typeResolver struct {
	unit  *UnitAst
	index *TypeIndex
	diags *Diagnostics
}

func (r *typeResolver) errorf(line, col int, format string, args ...interface{}) {
	r.diags.errorf(EnvironmentErrorKind, r.unit.FileName, line, col, format, args...)
}

func (r *typeResolver) resolveName(name string, line, col int) *TypeAst {
	decl, problem := resolveTypeName(r.unit, r.index, name)
	if decl == nil {
		r.errorf(line, col, "%s", problem)
	}
	return decl
}

// resolveVarType fills in the Decl pointer of a declared type, recursing
// through array element types.
func (r *typeResolver) resolveVarType(tp *VariableType, line, col int) {
	if tp == nil {
		return
	}
	if tp.TP == ArrayType {
		r.resolveVarType(tp.Elem, line, col)
		return
	}
	if tp.TP != RefType || tp.Decl != nil {
		return
	}
	tp.Decl = r.resolveName(tp.Name, line, col)
}

func (r *typeResolver) resolveUnit() {
	decl := r.unit.Type
	for _, name := range decl.ExtendNames {
		if super := r.resolveName(name, decl.line, decl.col); super != nil {
			if decl.IsClass() {
				decl.SuperClass = super
			} else {
				decl.Interfaces = append(decl.Interfaces, super)
			}
		}
	}
	for _, name := range decl.ImplementNames {
		if iface := r.resolveName(name, decl.line, decl.col); iface != nil {
			decl.Interfaces = append(decl.Interfaces, iface)
		}
	}
	for _, field := range decl.Fields {
		r.resolveVarType(field.TP, field.line, field.col)
		if field.Init != nil {
			r.resolveExpression(field.Init)
		}
	}
	for _, method := range decl.Methods {
		r.resolveVarType(method.ReturnTP, method.line, method.col)
		for _, param := range method.Params {
			r.resolveVarType(param.TP, param.line, param.col)
		}
		for _, name := range method.Throws {
			r.resolveName(name, method.line, method.col)
		}
		r.resolveStatements(method.Body)
	}
	for _, ctor := range decl.Constructors {
		for _, param := range ctor.Params {
			r.resolveVarType(param.TP, param.line, param.col)
		}
		r.resolveStatements(ctor.Body)
	}
}

func (r *typeResolver) resolveStatements(statements []*StatementAst) {
	for _, stm := range statements {
		r.resolveStatement(stm)
	}
}

func (r *typeResolver) resolveStatement(stm *StatementAst) {
	switch stm.StatementTP {
	case VarDeclStatementTP:
		decl := stm.Statement.(*VarDeclAst)
		r.resolveVarType(decl.TP, stm.line, stm.col)
		if decl.Init != nil {
			r.resolveExpression(decl.Init)
		}
	case ExprStatementTP:
		r.resolveExpression(stm.Statement.(*ExpressionAst))
	case IfStatementTP:
		ifAst := stm.Statement.(*IfStatementAst)
		r.resolveExpression(ifAst.Condition)
		r.resolveStatement(ifAst.Then)
		if ifAst.Else != nil {
			r.resolveStatement(ifAst.Else)
		}
	case WhileStatementTP:
		whileAst := stm.Statement.(*WhileStatementAst)
		r.resolveExpression(whileAst.Condition)
		r.resolveStatement(whileAst.Body)
	case ForStatementTP:
		forAst := stm.Statement.(*ForStatementAst)
		if forAst.Init != nil {
			r.resolveStatement(forAst.Init)
		}
		if forAst.Condition != nil {
			r.resolveExpression(forAst.Condition)
		}
		if forAst.Update != nil {
			r.resolveExpression(forAst.Update)
		}
		r.resolveStatement(forAst.Body)
	case ReturnStatementTP:
		ret := stm.Statement.(*ReturnStatementAst)
		if ret.Value != nil {
			r.resolveExpression(ret.Value)
		}
	case BlockStatementTP:
		r.resolveStatements(stm.Statement.(*BlockStatementAst).Statements)
	}
}

func (r *typeResolver) resolveExpression(expr *ExpressionAst) {
	switch expr.TP {
	case UnaryExprTP:
		r.resolveExpression(expr.Value.(*UnaryExprAst).Expr)
	case BinaryExprTP:
		binary := expr.Value.(*BinaryExprAst)
		r.resolveExpression(binary.Left)
		r.resolveExpression(binary.Right)
	case AssignExprTP:
		assign := expr.Value.(*AssignExprAst)
		r.resolveExpression(assign.Lhs)
		r.resolveExpression(assign.Rhs)
	case CastExprTP:
		cast := expr.Value.(*CastExprAst)
		r.resolveVarType(cast.TargetTP, expr.line, expr.col)
		r.resolveExpression(cast.Expr)
	case InstanceofExprTP:
		inst := expr.Value.(*InstanceofAst)
		r.resolveVarType(inst.TargetTP, expr.line, expr.col)
		r.resolveExpression(inst.Expr)
	case FieldAccessTP:
		r.resolveExpression(expr.Value.(*FieldAccessAst).Target)
	case ArrayAccessTP:
		access := expr.Value.(*ArrayAccessAst)
		r.resolveExpression(access.Array)
		r.resolveExpression(access.Index)
	case CallExprTP:
		call := expr.Value.(*CallExprAst)
		// The call target may be a dotted name that is really a type or
		// package; name disambiguation sorts that out, not this pass.
		if call.Target != nil && call.Target.TP != NameExprTP {
			r.resolveExpression(call.Target)
		}
		for _, arg := range call.Args {
			r.resolveExpression(arg)
		}
	case NewObjectTP:
		newObj := expr.Value.(*NewObjectAst)
		newObj.Decl = r.resolveName(newObj.TypeName, expr.line, expr.col)
		for _, arg := range newObj.Args {
			r.resolveExpression(arg)
		}
	case NewArrayTP:
		newArr := expr.Value.(*NewArrayAst)
		r.resolveVarType(newArr.ElemTP, expr.line, expr.col)
		r.resolveExpression(newArr.Size)
	}
}
