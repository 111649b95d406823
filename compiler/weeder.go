package compiler

import (
	"path/filepath"
	"strconv"
	"strings"
)

// The weeder runs on each compilation unit in isolation and rejects programs
// the grammar accepts but the language doesn't. Most of the statement level
// restrictions (switch, try, labeled statements, multidimensional arrays)
// never make it past the tokenizer or parser, so the checks here are about
// modifier combinations, literal ranges and file naming.

func weedUnits(units []*UnitAst, diags *Diagnostics) {
	for _, unit := range units {
		weedUnit(unit, diags)
	}
}

func weedUnit(unit *UnitAst, diags *Diagnostics) {
	weeder := &weeder{unit: unit, diags: diags}
	weeder.weedType(unit.Type)
}

type weeder struct {
	unit  *UnitAst
	diags *Diagnostics
}

func (w *weeder) errorf(line, col int, format string, args ...interface{}) {
	w.diags.errorf(WeedErrorKind, w.unit.FileName, line, col, format, args...)
}

func (w *weeder) weedType(decl *TypeAst) {
	baseName := strings.TrimSuffix(filepath.Base(w.unit.FileName), ".java")
	if decl.Name != baseName {
		w.errorf(decl.line, decl.col, "type %s must be declared in a file named %s.java", decl.Name, decl.Name)
	}
	if !decl.Modifiers.Has(PublicModifier) {
		w.errorf(decl.line, decl.col, "top level type %s must be public", decl.Name)
	}
	if decl.Modifiers.Has(AbstractModifier) && decl.Modifiers.Has(FinalModifier) {
		w.errorf(decl.line, decl.col, "type %s cannot be both abstract and final", decl.Name)
	}
	if decl.Modifiers.Has(StaticModifier) || decl.Modifiers.Has(NativeModifier) || decl.Modifiers.Has(ProtectedModifier) {
		w.errorf(decl.line, decl.col, "invalid modifier on type %s", decl.Name)
	}

	for _, field := range decl.Fields {
		w.weedField(decl, field)
	}
	for _, method := range decl.Methods {
		w.weedMethod(decl, method)
	}
	for _, ctor := range decl.Constructors {
		w.weedConstructor(decl, ctor)
	}

	if decl.Kind == InterfaceDeclKind {
		if len(decl.Fields) > 0 {
			f := decl.Fields[0]
			w.errorf(f.line, f.col, "interface %s cannot declare fields", decl.Name)
		}
		if len(decl.Constructors) > 0 {
			c := decl.Constructors[0]
			w.errorf(c.line, c.col, "interface %s cannot declare a constructor", decl.Name)
		}
		return
	}

	// A non abstract class must not declare abstract methods.
	if !decl.Modifiers.Has(AbstractModifier) {
		for _, method := range decl.Methods {
			if method.Modifiers.Has(AbstractModifier) {
				w.errorf(method.line, method.col, "non-abstract class %s cannot declare abstract method %s", decl.Name, method.Name)
			}
		}
	}

	// When the class declares no constructor, the implicit default
	// constructor is inserted here so every later pass sees exactly one
	// construction path.
	if len(decl.Constructors) == 0 {
		decl.Constructors = append(decl.Constructors, &ConstructorAst{
			Owner:     decl,
			Modifiers: PublicModifier,
			line:      decl.line,
			col:       decl.col,
		})
	}
}

func (w *weeder) weedField(decl *TypeAst, field *FieldAst) {
	if field.Modifiers.Has(PublicModifier) && field.Modifiers.Has(ProtectedModifier) {
		w.errorf(field.line, field.col, "field %s cannot be both public and protected", field.Name)
	}
	if !field.Modifiers.Has(PublicModifier) && !field.Modifiers.Has(ProtectedModifier) {
		w.errorf(field.line, field.col, "field %s must be public or protected", field.Name)
	}
	if field.Modifiers.Has(AbstractModifier) || field.Modifiers.Has(NativeModifier) {
		w.errorf(field.line, field.col, "invalid modifier on field %s", field.Name)
	}
	if field.Modifiers.Has(FinalModifier) && field.Init == nil {
		w.errorf(field.line, field.col, "final field %s requires an initializer", field.Name)
	}
	if field.Init != nil {
		w.weedExpression(field.Init, false)
	}
}

func (w *weeder) weedMethod(decl *TypeAst, method *MethodAst) {
	mods := method.Modifiers
	if mods.Has(PublicModifier) && mods.Has(ProtectedModifier) {
		w.errorf(method.line, method.col, "method %s cannot be both public and protected", method.Name)
	}
	if !mods.Has(PublicModifier) && !mods.Has(ProtectedModifier) {
		w.errorf(method.line, method.col, "method %s must be public or protected", method.Name)
	}
	if mods.Has(AbstractModifier) && (mods.Has(FinalModifier) || mods.Has(StaticModifier) || mods.Has(NativeModifier)) {
		w.errorf(method.line, method.col, "abstract method %s cannot be final, static or native", method.Name)
	}
	if mods.Has(StaticModifier) && mods.Has(FinalModifier) {
		w.errorf(method.line, method.col, "static method %s cannot be final", method.Name)
	}
	if mods.Has(NativeModifier) && !mods.Has(StaticModifier) {
		w.errorf(method.line, method.col, "native method %s must be static", method.Name)
	}
	if decl.Kind == InterfaceDeclKind && (mods.Has(StaticModifier) || mods.Has(FinalModifier) || mods.Has(NativeModifier)) {
		w.errorf(method.line, method.col, "interface method %s cannot be static, final or native", method.Name)
	}

	if mods.Has(AbstractModifier) || mods.Has(NativeModifier) {
		if method.HasBody {
			w.errorf(method.line, method.col, "abstract/native method %s must not have a body", method.Name)
		}
	} else if !method.HasBody {
		w.errorf(method.line, method.col, "method %s requires a body", method.Name)
	}

	// Native methods are only there to reach the runtime's write routine, so
	// they are pinned down to the exact shape the runtime supports.
	if mods.Has(NativeModifier) {
		if method.ReturnTP.TP != IntType || len(method.Params) != 1 || method.Params[0].TP.TP != IntType {
			w.errorf(method.line, method.col, "native method %s must be int(int)", method.Name)
		}
	}

	w.weedParams(method.Params)
	w.weedBody(method.Body, method.ReturnTP)
}

func (w *weeder) weedConstructor(decl *TypeAst, ctor *ConstructorAst) {
	mods := ctor.Modifiers
	if mods.Has(PublicModifier) && mods.Has(ProtectedModifier) {
		w.errorf(ctor.line, ctor.col, "constructor cannot be both public and protected")
	}
	if !mods.Has(PublicModifier) && !mods.Has(ProtectedModifier) {
		w.errorf(ctor.line, ctor.col, "constructor must be public or protected")
	}
	if mods.Has(StaticModifier) || mods.Has(FinalModifier) || mods.Has(AbstractModifier) || mods.Has(NativeModifier) {
		w.errorf(ctor.line, ctor.col, "invalid modifier on constructor")
	}
	w.weedParams(ctor.Params)
	w.weedBody(ctor.Body, nil)
}

func (w *weeder) weedParams(params []*ParamAst) {
	seen := map[string]bool{}
	for _, param := range params {
		if seen[param.Name] {
			w.errorf(param.line, param.col, "duplicate parameter name %s", param.Name)
		}
		seen[param.Name] = true
	}
}

// weedBody walks statements checking literal ranges and the restriction that
// only assignments, calls and instance creations can be used as statements.
func (w *weeder) weedBody(statements []*StatementAst, returnTP *VariableType) {
	for _, stm := range statements {
		w.weedStatement(stm, returnTP)
	}
}

func (w *weeder) weedStatement(stm *StatementAst, returnTP *VariableType) {
	switch stm.StatementTP {
	case VarDeclStatementTP:
		decl := stm.Statement.(*VarDeclAst)
		if decl.Init != nil {
			w.weedExpression(decl.Init, false)
		}
	case ExprStatementTP:
		expr := stm.Statement.(*ExpressionAst)
		switch expr.TP {
		case AssignExprTP, CallExprTP, NewObjectTP:
		default:
			w.errorf(stm.line, stm.col, "not a statement")
		}
		w.weedExpression(expr, false)
	case IfStatementTP:
		ifAst := stm.Statement.(*IfStatementAst)
		w.weedExpression(ifAst.Condition, false)
		w.weedStatement(ifAst.Then, returnTP)
		if ifAst.Else != nil {
			w.weedStatement(ifAst.Else, returnTP)
		}
	case WhileStatementTP:
		whileAst := stm.Statement.(*WhileStatementAst)
		w.weedExpression(whileAst.Condition, false)
		w.weedStatement(whileAst.Body, returnTP)
	case ForStatementTP:
		forAst := stm.Statement.(*ForStatementAst)
		if forAst.Init != nil {
			w.weedStatement(forAst.Init, returnTP)
		}
		if forAst.Condition != nil {
			w.weedExpression(forAst.Condition, false)
		}
		if forAst.Update != nil {
			w.weedExpression(forAst.Update, false)
		}
		w.weedStatement(forAst.Body, returnTP)
	case ReturnStatementTP:
		ret := stm.Statement.(*ReturnStatementAst)
		if ret.Value != nil {
			w.weedExpression(ret.Value, false)
			if returnTP != nil && returnTP.TP == VoidType {
				w.errorf(stm.line, stm.col, "void method cannot return a value")
			}
		} else if returnTP != nil && returnTP.TP != VoidType {
			w.errorf(stm.line, stm.col, "non-void method must return a value")
		}
	case BlockStatementTP:
		w.weedBody(stm.Statement.(*BlockStatementAst).Statements, returnTP)
	}
}

// weedExpression validates integer literal ranges. 2147483648 is only valid
// when it sits directly under a unary minus; in that case the stored int32
// wraps to -2^31 and the later negation wraps it right back, so constant
// folding and code generation both come out correct without special cases.
func (w *weeder) weedExpression(expr *ExpressionAst, underMinus bool) {
	switch expr.TP {
	case IntegerLiteralTP:
		lit := expr.Value.(*IntegerLiteralAst)
		val, err := strconv.ParseUint(lit.Raw, 10, 64)
		if err != nil || val > 1<<31 || (val == 1<<31 && !underMinus) {
			w.errorf(expr.line, expr.col, "integer literal %s out of range", lit.Raw)
			return
		}
		lit.Value = int32(uint32(val))
	case UnaryExprTP:
		unary := expr.Value.(*UnaryExprAst)
		w.weedExpression(unary.Expr, unary.Op == NegOp)
	case BinaryExprTP:
		binary := expr.Value.(*BinaryExprAst)
		w.weedExpression(binary.Left, false)
		w.weedExpression(binary.Right, false)
	case AssignExprTP:
		assign := expr.Value.(*AssignExprAst)
		w.weedExpression(assign.Lhs, false)
		w.weedExpression(assign.Rhs, false)
	case CastExprTP:
		w.weedExpression(expr.Value.(*CastExprAst).Expr, false)
	case InstanceofExprTP:
		w.weedExpression(expr.Value.(*InstanceofAst).Expr, false)
	case FieldAccessTP:
		w.weedExpression(expr.Value.(*FieldAccessAst).Target, false)
	case ArrayAccessTP:
		access := expr.Value.(*ArrayAccessAst)
		w.weedExpression(access.Array, false)
		w.weedExpression(access.Index, false)
	case CallExprTP:
		call := expr.Value.(*CallExprAst)
		if call.Target != nil {
			w.weedExpression(call.Target, false)
		}
		for _, arg := range call.Args {
			w.weedExpression(arg, false)
		}
	case NewObjectTP:
		for _, arg := range expr.Value.(*NewObjectAst).Args {
			w.weedExpression(arg, false)
		}
	case NewArrayTP:
		w.weedExpression(expr.Value.(*NewArrayAst).Size, false)
	}
}
