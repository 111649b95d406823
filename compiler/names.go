package compiler

import "strings"

// Name disambiguation, the JLS 6.5 reclassification. Every dotted name in an
// expression is resolved left to right: the longest prefix that is a local,
// a parameter or a field of this wins, then type names, and whatever is left
// over becomes a package prefix. The trailing identifiers after the base
// binding are field accesses that the type checker resolves once it knows
// the types involved.

func disambiguateNames(units []*UnitAst, index *TypeIndex, diags *Diagnostics) {
	for _, unit := range units {
		resolver := &nameResolver{unit: unit, index: index, diags: diags, decl: unit.Type, fieldLimit: -1}
		resolver.resolveUnit()
	}
}

type nameResolver struct {
	unit  *UnitAst
	index *TypeIndex
	diags *Diagnostics
	decl  *TypeAst

	// static is true inside static methods and static field initializers,
	// where this and instance members of the enclosing class are not in
	// scope.
	static bool
	// fieldLimit is the declaration index of the field whose initializer is
	// being resolved; fields declared at or after it may not be referenced
	// by simple name. -1 outside field initializers.
	fieldLimit int
}

// scope is one block's name environment, layered immutably over its parent.
type scope struct {
	parent *scope
	names  map[string]interface{} // *VarDeclAst or *ParamAst
}

func (s *scope) lookup(name string) interface{} {
	for cur := s; cur != nil; cur = cur.parent {
		if v, ok := cur.names[name]; ok {
			return v
		}
	}
	return nil
}

func (s *scope) child() *scope {
	return &scope{parent: s, names: map[string]interface{}{}}
}

func (r *nameResolver) errorf(line, col int, format string, args ...interface{}) {
	r.diags.errorf(EnvironmentErrorKind, r.unit.FileName, line, col, format, args...)
}

func (r *nameResolver) resolveUnit() {
	for _, field := range r.decl.Fields {
		if field.Init == nil {
			continue
		}
		r.static = field.Modifiers.Has(StaticModifier)
		r.fieldLimit = field.Index
		r.resolveExpression(field.Init, &scope{names: map[string]interface{}{}}, field.line, field.col)
	}
	r.fieldLimit = -1
	for _, method := range r.decl.Methods {
		if !method.HasBody {
			continue
		}
		r.static = method.Modifiers.Has(StaticModifier)
		r.resolveStatements(method.Body, r.methodScope(method.Params))
	}
	r.static = false
	for _, ctor := range r.decl.Constructors {
		r.resolveStatements(ctor.Body, r.methodScope(ctor.Params))
	}
}

func (r *nameResolver) methodScope(params []*ParamAst) *scope {
	s := &scope{names: map[string]interface{}{}}
	for _, p := range params {
		s.names[p.Name] = p
	}
	return s
}

func (r *nameResolver) resolveStatements(statements []*StatementAst, s *scope) {
	// A block introduces one child scope; each declarator extends it from
	// its own position onward, which falls out naturally from resolving in
	// order.
	block := s.child()
	for _, stm := range statements {
		r.resolveStatement(stm, block)
	}
}

func (r *nameResolver) resolveStatement(stm *StatementAst, s *scope) {
	switch stm.StatementTP {
	case VarDeclStatementTP:
		decl := stm.Statement.(*VarDeclAst)
		if decl.Init != nil {
			r.resolveExpression(decl.Init, s, stm.line, stm.col)
		}
		if s.lookup(decl.Name) != nil {
			r.errorf(stm.line, stm.col, "variable %s is already declared in an enclosing scope", decl.Name)
			return
		}
		s.names[decl.Name] = decl
	case ExprStatementTP:
		r.resolveExpression(stm.Statement.(*ExpressionAst), s, stm.line, stm.col)
	case IfStatementTP:
		ifAst := stm.Statement.(*IfStatementAst)
		r.resolveExpression(ifAst.Condition, s, stm.line, stm.col)
		r.resolveStatement(ifAst.Then, s.child())
		if ifAst.Else != nil {
			r.resolveStatement(ifAst.Else, s.child())
		}
	case WhileStatementTP:
		whileAst := stm.Statement.(*WhileStatementAst)
		r.resolveExpression(whileAst.Condition, s, stm.line, stm.col)
		r.resolveStatement(whileAst.Body, s.child())
	case ForStatementTP:
		forAst := stm.Statement.(*ForStatementAst)
		forScope := s.child()
		if forAst.Init != nil {
			r.resolveStatement(forAst.Init, forScope)
		}
		if forAst.Condition != nil {
			r.resolveExpression(forAst.Condition, forScope, stm.line, stm.col)
		}
		if forAst.Update != nil {
			r.resolveExpression(forAst.Update, forScope, stm.line, stm.col)
		}
		r.resolveStatement(forAst.Body, forScope.child())
	case ReturnStatementTP:
		ret := stm.Statement.(*ReturnStatementAst)
		if ret.Value != nil {
			r.resolveExpression(ret.Value, s, stm.line, stm.col)
		}
	case BlockStatementTP:
		r.resolveStatements(stm.Statement.(*BlockStatementAst).Statements, s)
	}
}

func (r *nameResolver) resolveExpression(expr *ExpressionAst, s *scope, line, col int) {
	switch expr.TP {
	case ThisExprTP:
		if r.static {
			r.errorf(expr.line, expr.col, "this is not available in a static context")
		}
	case NameExprTP:
		r.resolveNameExpr(expr, expr.Value.(*NameExprAst), s, false)
	case UnaryExprTP:
		r.resolveExpression(expr.Value.(*UnaryExprAst).Expr, s, line, col)
	case BinaryExprTP:
		binary := expr.Value.(*BinaryExprAst)
		r.resolveExpression(binary.Left, s, line, col)
		r.resolveExpression(binary.Right, s, line, col)
	case AssignExprTP:
		assign := expr.Value.(*AssignExprAst)
		r.resolveExpression(assign.Lhs, s, line, col)
		r.resolveExpression(assign.Rhs, s, line, col)
	case CastExprTP:
		r.resolveExpression(expr.Value.(*CastExprAst).Expr, s, line, col)
	case InstanceofExprTP:
		r.resolveExpression(expr.Value.(*InstanceofAst).Expr, s, line, col)
	case FieldAccessTP:
		r.resolveExpression(expr.Value.(*FieldAccessAst).Target, s, line, col)
	case ArrayAccessTP:
		access := expr.Value.(*ArrayAccessAst)
		r.resolveExpression(access.Array, s, line, col)
		r.resolveExpression(access.Index, s, line, col)
	case CallExprTP:
		call := expr.Value.(*CallExprAst)
		if call.Target != nil {
			if call.Target.TP == NameExprTP {
				// The callee qualifier may legally be a bare type name, that
				// is what a static call looks like.
				r.resolveNameExpr(call.Target, call.Target.Value.(*NameExprAst), s, true)
			} else {
				r.resolveExpression(call.Target, s, line, col)
			}
		}
		for _, arg := range call.Args {
			r.resolveExpression(arg, s, line, col)
		}
	case NewObjectTP:
		for _, arg := range expr.Value.(*NewObjectAst).Args {
			r.resolveExpression(arg, s, line, col)
		}
	case NewArrayTP:
		r.resolveExpression(expr.Value.(*NewArrayAst).Size, s, line, col)
	}
}

// findFieldInChain walks the superclass chain looking for a field, nearest
// declaration first.
func findFieldInChain(decl *TypeAst, name string) *FieldAst {
	for t := decl; t != nil; t = t.SuperClass {
		for _, f := range t.Fields {
			if f.Name == name {
				return f
			}
		}
	}
	return nil
}

func (r *nameResolver) resolveNameExpr(expr *ExpressionAst, name *NameExprAst, s *scope, allowBareType bool) {
	first := name.Ids[0]

	// Innermost scope first: locals and parameters.
	if bound := s.lookup(first); bound != nil {
		switch b := bound.(type) {
		case *VarDeclAst:
			name.Binding, name.Local = LocalBinding, b
		case *ParamAst:
			name.Binding, name.Param = ParamBinding, b
		}
		name.Consumed = 1
		return
	}

	// Then fields of this, walking the superclass chain.
	if field := findFieldInChain(r.decl, first); field != nil {
		if r.static && !field.Modifiers.Has(StaticModifier) {
			r.errorf(expr.line, expr.col, "cannot read instance field %s in a static context", first)
			return
		}
		if r.fieldLimit >= 0 && field.Owner == r.decl && field.Index >= r.fieldLimit {
			r.errorf(expr.line, expr.col, "illegal forward reference to field %s", first)
			return
		}
		name.Binding, name.Field = FieldBinding, field
		name.Consumed = 1
		return
	}

	// Then the shortest prefix that names a type.
	for k := 1; k <= len(name.Ids); k++ {
		prefix := strings.Join(name.Ids[:k], ".")
		var decl *TypeAst
		if k == 1 {
			decl, _ = resolveTypeName(r.unit, r.index, prefix)
		} else {
			decl = r.index.Lookup(prefix)
		}
		if decl != nil {
			name.Binding, name.TypeDecl = TypeBinding, decl
			name.Consumed = k
			if k == len(name.Ids) && !allowBareType {
				// A bare type name is not an expression; it is only legal as
				// the qualifier of a static member or a static call.
				r.errorf(expr.line, expr.col, "type %s used as an expression", prefix)
			}
			return
		}
	}

	r.errorf(expr.line, expr.col, "cannot resolve name %s", strings.Join(name.Ids, "."))
}
