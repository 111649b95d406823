package compiler

import "strings"

// The type checker assigns a static type to every expression, resolves
// overloads and enforces assignability. It runs after disambiguation, so
// every name already carries a binding; what is left here is propagating
// types bottom up and filling in the resolved field paths, methods and
// constructors that lowering will read.

func typeCheckUnits(units []*UnitAst, index *TypeIndex, diags *Diagnostics) {
	for _, unit := range units {
		checker := &typeChecker{
			unit:  unit,
			index: index,
			diags: diags,
			decl:  unit.Type,
		}
		checker.checkUnit()
	}
}

type typeChecker struct {
	unit  *UnitAst
	index *TypeIndex
	diags *Diagnostics
	decl  *TypeAst

	static   bool
	returnTP *VariableType // nil inside constructors and field initializers
}

func (c *typeChecker) errorf(line, col int, format string, args ...interface{}) {
	c.diags.errorf(TypeErrorKind, c.unit.FileName, line, col, format, args...)
}

func (c *typeChecker) stringDecl() *TypeAst {
	return c.index.Lookup("java.lang.String")
}

func (c *typeChecker) objectDecl() *TypeAst {
	return c.index.Lookup("java.lang.Object")
}

func (c *typeChecker) checkUnit() {
	for _, field := range c.decl.Fields {
		if field.Init == nil {
			continue
		}
		c.static = field.Modifiers.Has(StaticModifier)
		c.returnTP = nil
		initTP := c.typeOf(field.Init)
		if initTP != nil && !c.assignable(initTP, field.TP) {
			c.errorf(field.line, field.col, "cannot assign %s to field %s of type %s", initTP, field.Name, field.TP)
		}
	}
	for _, method := range c.decl.Methods {
		if !method.HasBody {
			continue
		}
		c.static = method.Modifiers.Has(StaticModifier)
		c.returnTP = method.ReturnTP
		c.checkStatements(method.Body)
	}
	c.static = false
	c.returnTP = nil
	for _, ctor := range c.decl.Constructors {
		c.checkStatements(ctor.Body)
	}
}

func (c *typeChecker) checkStatements(statements []*StatementAst) {
	for _, stm := range statements {
		c.checkStatement(stm)
	}
}

func (c *typeChecker) checkStatement(stm *StatementAst) {
	switch stm.StatementTP {
	case VarDeclStatementTP:
		decl := stm.Statement.(*VarDeclAst)
		if decl.Init != nil {
			initTP := c.typeOf(decl.Init)
			if initTP != nil && !c.assignable(initTP, decl.TP) {
				c.errorf(stm.line, stm.col, "cannot assign %s to %s of type %s", initTP, decl.Name, decl.TP)
			}
		}
	case ExprStatementTP:
		c.typeOf(stm.Statement.(*ExpressionAst))
	case IfStatementTP:
		ifAst := stm.Statement.(*IfStatementAst)
		c.checkCondition(ifAst.Condition, stm)
		c.checkStatement(ifAst.Then)
		if ifAst.Else != nil {
			c.checkStatement(ifAst.Else)
		}
	case WhileStatementTP:
		whileAst := stm.Statement.(*WhileStatementAst)
		c.checkCondition(whileAst.Condition, stm)
		c.checkStatement(whileAst.Body)
	case ForStatementTP:
		forAst := stm.Statement.(*ForStatementAst)
		if forAst.Init != nil {
			c.checkStatement(forAst.Init)
		}
		if forAst.Condition != nil {
			c.checkCondition(forAst.Condition, stm)
		}
		if forAst.Update != nil {
			c.typeOf(forAst.Update)
		}
		c.checkStatement(forAst.Body)
	case ReturnStatementTP:
		ret := stm.Statement.(*ReturnStatementAst)
		if ret.Value != nil {
			valueTP := c.typeOf(ret.Value)
			if c.returnTP == nil {
				c.errorf(stm.line, stm.col, "constructors cannot return a value")
			} else if valueTP != nil && !c.assignable(valueTP, c.returnTP) {
				c.errorf(stm.line, stm.col, "cannot return %s from a method returning %s", valueTP, c.returnTP)
			}
		}
	case BlockStatementTP:
		c.checkStatements(stm.Statement.(*BlockStatementAst).Statements)
	}
}

func (c *typeChecker) checkCondition(cond *ExpressionAst, stm *StatementAst) {
	condTP := c.typeOf(cond)
	if condTP != nil && condTP.TP != BooleanType {
		c.errorf(stm.line, stm.col, "condition must be boolean, found %s", condTP)
	}
}

// typeOf assigns and returns the type of an expression. A nil return means
// an error was already reported somewhere below; callers skip their own
// check in that case to avoid cascades.
func (c *typeChecker) typeOf(expr *ExpressionAst) *VariableType {
	tp := c.typeOf0(expr)
	expr.Type = tp
	return tp
}

func (c *typeChecker) typeOf0(expr *ExpressionAst) *VariableType {
	switch expr.TP {
	case IntegerLiteralTP:
		return intType
	case CharLiteralExprTP:
		return charType
	case StringLiteralTP:
		return refType(c.stringDecl())
	case BooleanLiteralTP:
		return booleanType
	case NullLiteralTP:
		return nullType
	case ThisExprTP:
		return refType(c.decl)
	case NameExprTP:
		return c.typeOfName(expr, expr.Value.(*NameExprAst))
	case FieldAccessTP:
		return c.typeOfFieldAccess(expr, expr.Value.(*FieldAccessAst))
	case ArrayAccessTP:
		return c.typeOfArrayAccess(expr, expr.Value.(*ArrayAccessAst))
	case UnaryExprTP:
		return c.typeOfUnary(expr, expr.Value.(*UnaryExprAst))
	case BinaryExprTP:
		return c.typeOfBinary(expr, expr.Value.(*BinaryExprAst))
	case AssignExprTP:
		return c.typeOfAssign(expr, expr.Value.(*AssignExprAst))
	case CastExprTP:
		return c.typeOfCast(expr, expr.Value.(*CastExprAst))
	case InstanceofExprTP:
		return c.typeOfInstanceof(expr, expr.Value.(*InstanceofAst))
	case CallExprTP:
		return c.typeOfCall(expr, expr.Value.(*CallExprAst))
	case NewObjectTP:
		return c.typeOfNewObject(expr, expr.Value.(*NewObjectAst))
	case NewArrayTP:
		return c.typeOfNewArray(expr, expr.Value.(*NewArrayAst))
	}
	panic("unknown expression tp")
}

// resolveFieldOn finds an instance field on a receiver type, array length
// included, honoring the protected access rule. Returns the field (nil for
// length) and its type.
func (c *typeChecker) resolveFieldOn(receiverTP *VariableType, name string, line, col int) (*FieldAst, *VariableType) {
	if receiverTP.TP == ArrayType {
		if name == "length" {
			return nil, intType
		}
		c.errorf(line, col, "array type has no field %s", name)
		return nil, nil
	}
	if receiverTP.TP != RefType {
		c.errorf(line, col, "type %s has no fields", receiverTP)
		return nil, nil
	}
	field := findFieldInChain(receiverTP.Decl, name)
	if field == nil {
		c.errorf(line, col, "type %s has no field %s", receiverTP, name)
		return nil, nil
	}
	if field.Modifiers.Has(StaticModifier) {
		c.errorf(line, col, "static field %s cannot be accessed through an instance", name)
		return nil, nil
	}
	if !c.accessAllowed(field.Owner, field.Modifiers, receiverTP.Decl) {
		c.errorf(line, col, "field %s of %s is not accessible here", name, field.Owner.Canonical)
		return nil, nil
	}
	return field, field.TP
}

// accessAllowed implements the protected access rule: a protected member is
// accessible from the same package, or from a subclass provided the receiver
// static type is that subclass or one of its subtypes.
func (c *typeChecker) accessAllowed(owner *TypeAst, mods Modifiers, receiver *TypeAst) bool {
	if !mods.Has(ProtectedModifier) {
		return true
	}
	if owner.PackageName() == c.decl.PackageName() {
		return true
	}
	if !c.subtypeOf(c.decl, owner) {
		return false
	}
	if mods.Has(StaticModifier) || receiver == nil {
		return true
	}
	return c.subtypeOf(receiver, c.decl)
}

func (c *typeChecker) typeOfName(expr *ExpressionAst, name *NameExprAst) *VariableType {
	var baseTP *VariableType
	rest := name.Ids[name.Consumed:]
	switch name.Binding {
	case LocalBinding:
		baseTP = name.Local.TP
	case ParamBinding:
		baseTP = name.Param.TP
	case FieldBinding:
		baseTP = name.Field.TP
	case TypeBinding:
		if len(rest) == 0 {
			// Bare type name; only reachable as a call target, the call
			// typing handles it.
			return nil
		}
		// First trailing id must be a static field of the named type.
		field := findFieldInChain(name.TypeDecl, rest[0])
		if field == nil || !field.Modifiers.Has(StaticModifier) {
			c.errorf(expr.line, expr.col, "type %s has no static field %s", name.TypeDecl.Canonical, rest[0])
			return nil
		}
		if !c.accessAllowed(field.Owner, field.Modifiers, nil) {
			c.errorf(expr.line, expr.col, "field %s of %s is not accessible here", rest[0], field.Owner.Canonical)
			return nil
		}
		name.PathField = append(name.PathField, field)
		baseTP = field.TP
		rest = rest[1:]
	default:
		return nil
	}

	// Whatever identifiers remain are instance field accesses.
	for _, id := range rest {
		field, fieldTP := c.resolveFieldOn(baseTP, id, expr.line, expr.col)
		if fieldTP == nil {
			return nil
		}
		name.PathField = append(name.PathField, field)
		baseTP = fieldTP
	}
	return baseTP
}

func (c *typeChecker) typeOfFieldAccess(expr *ExpressionAst, access *FieldAccessAst) *VariableType {
	targetTP := c.typeOf(access.Target)
	if targetTP == nil {
		return nil
	}
	field, fieldTP := c.resolveFieldOn(targetTP, access.Name, expr.line, expr.col)
	if fieldTP == nil {
		return nil
	}
	access.Field = field
	return fieldTP
}

func (c *typeChecker) typeOfArrayAccess(expr *ExpressionAst, access *ArrayAccessAst) *VariableType {
	arrayTP := c.typeOf(access.Array)
	indexTP := c.typeOf(access.Index)
	if arrayTP == nil || indexTP == nil {
		return nil
	}
	if arrayTP.TP != ArrayType {
		c.errorf(expr.line, expr.col, "cannot index non-array type %s", arrayTP)
		return nil
	}
	if !c.assignable(indexTP, intType) {
		c.errorf(expr.line, expr.col, "array index must be int, found %s", indexTP)
		return nil
	}
	return arrayTP.Elem
}

func (c *typeChecker) typeOfUnary(expr *ExpressionAst, unary *UnaryExprAst) *VariableType {
	operandTP := c.typeOf(unary.Expr)
	if operandTP == nil {
		return nil
	}
	switch unary.Op {
	case NegOp:
		if !operandTP.IsNumeric() {
			c.errorf(expr.line, expr.col, "cannot negate %s", operandTP)
			return nil
		}
		return intType
	case NotOp:
		if operandTP.TP != BooleanType {
			c.errorf(expr.line, expr.col, "cannot complement %s", operandTP)
			return nil
		}
		return booleanType
	}
	panic("unknown unary op")
}

func (c *typeChecker) isString(tp *VariableType) bool {
	return tp.TP == RefType && tp.Decl == c.stringDecl()
}

func (c *typeChecker) typeOfBinary(expr *ExpressionAst, binary *BinaryExprAst) *VariableType {
	leftTP := c.typeOf(binary.Left)
	rightTP := c.typeOf(binary.Right)
	if leftTP == nil || rightTP == nil {
		return nil
	}
	switch binary.Op {
	case AddOp:
		// + with a String operand is concatenation; the other operand is
		// converted through its toString at lowering time.
		if c.isString(leftTP) || c.isString(rightTP) {
			if leftTP.TP == VoidType || rightTP.TP == VoidType {
				c.errorf(expr.line, expr.col, "cannot concatenate void")
				return nil
			}
			return refType(c.stringDecl())
		}
		fallthrough
	case SubOp, MulOp, DivOp, ModOp:
		if !leftTP.IsNumeric() || !rightTP.IsNumeric() {
			c.errorf(expr.line, expr.col, "arithmetic needs numeric operands, found %s and %s", leftTP, rightTP)
			return nil
		}
		return intType
	case LtOp, GtOp, LeOp, GeOp:
		if !leftTP.IsNumeric() || !rightTP.IsNumeric() {
			c.errorf(expr.line, expr.col, "comparison needs numeric operands, found %s and %s", leftTP, rightTP)
			return nil
		}
		return booleanType
	case EqOp, NeOp:
		if leftTP.IsNumeric() && rightTP.IsNumeric() {
			return booleanType
		}
		if leftTP.TP == BooleanType && rightTP.TP == BooleanType {
			return booleanType
		}
		if leftTP.IsReference() && rightTP.IsReference() &&
			(c.assignable(leftTP, rightTP) || c.assignable(rightTP, leftTP)) {
			return booleanType
		}
		c.errorf(expr.line, expr.col, "cannot compare %s with %s", leftTP, rightTP)
		return nil
	case AndOp, OrOp, AndAndOp, OrOrOp:
		if leftTP.TP != BooleanType || rightTP.TP != BooleanType {
			c.errorf(expr.line, expr.col, "logical operator needs boolean operands, found %s and %s", leftTP, rightTP)
			return nil
		}
		return booleanType
	}
	panic("unknown binary op")
}

// isLValue reports whether an expression can stand on the left of =, and
// reports assignments to final fields and to array length.
func (c *typeChecker) isLValue(expr *ExpressionAst) bool {
	switch expr.TP {
	case NameExprTP:
		name := expr.Value.(*NameExprAst)
		switch name.Binding {
		case LocalBinding, ParamBinding:
			if len(name.PathField) == 0 {
				return true
			}
		case FieldBinding, TypeBinding:
		default:
			return false
		}
		var last *FieldAst
		if len(name.PathField) > 0 {
			last = name.PathField[len(name.PathField)-1]
			if last == nil {
				c.errorf(expr.line, expr.col, "cannot assign to array length")
				return false
			}
		} else {
			last = name.Field
		}
		if last != nil && last.Modifiers.Has(FinalModifier) {
			c.errorf(expr.line, expr.col, "cannot assign to final field %s", last.Name)
			return false
		}
		return true
	case FieldAccessTP:
		access := expr.Value.(*FieldAccessAst)
		if access.Field == nil {
			// array length
			c.errorf(expr.line, expr.col, "cannot assign to array length")
			return false
		}
		if access.Field.Modifiers.Has(FinalModifier) {
			c.errorf(expr.line, expr.col, "cannot assign to final field %s", access.Field.Name)
			return false
		}
		return true
	case ArrayAccessTP:
		return true
	}
	return false
}

func (c *typeChecker) typeOfAssign(expr *ExpressionAst, assign *AssignExprAst) *VariableType {
	lhsTP := c.typeOf(assign.Lhs)
	rhsTP := c.typeOf(assign.Rhs)
	if lhsTP == nil || rhsTP == nil {
		return nil
	}
	if !c.isLValue(assign.Lhs) {
		c.errorf(expr.line, expr.col, "left side of assignment is not a variable")
		return nil
	}
	if !c.assignable(rhsTP, lhsTP) {
		c.errorf(expr.line, expr.col, "cannot assign %s to %s", rhsTP, lhsTP)
		return nil
	}
	return lhsTP
}

func (c *typeChecker) typeOfCast(expr *ExpressionAst, cast *CastExprAst) *VariableType {
	exprTP := c.typeOf(cast.Expr)
	if exprTP == nil {
		return nil
	}
	if !c.castable(exprTP, cast.TargetTP) {
		c.errorf(expr.line, expr.col, "cannot cast %s to %s", exprTP, cast.TargetTP)
		return nil
	}
	return cast.TargetTP
}

func (c *typeChecker) typeOfInstanceof(expr *ExpressionAst, inst *InstanceofAst) *VariableType {
	exprTP := c.typeOf(inst.Expr)
	if exprTP == nil {
		return nil
	}
	if !exprTP.IsReference() {
		c.errorf(expr.line, expr.col, "left side of instanceof must be a reference, found %s", exprTP)
		return nil
	}
	if !inst.TargetTP.IsReference() {
		c.errorf(expr.line, expr.col, "right side of instanceof must be a reference type")
		return nil
	}
	if !c.castable(exprTP, inst.TargetTP) {
		c.errorf(expr.line, expr.col, "%s can never be an instance of %s", exprTP, inst.TargetTP)
		return nil
	}
	return booleanType
}

func (c *typeChecker) typeOfNewObject(expr *ExpressionAst, newObj *NewObjectAst) *VariableType {
	if newObj.Decl == nil {
		return nil
	}
	if !newObj.Decl.IsClass() {
		c.errorf(expr.line, expr.col, "cannot instantiate interface %s", newObj.Decl.Canonical)
		return nil
	}
	if newObj.Decl.Modifiers.Has(AbstractModifier) {
		c.errorf(expr.line, expr.col, "cannot instantiate abstract class %s", newObj.Decl.Canonical)
		return nil
	}
	argTPs, ok := c.typeArguments(newObj.Args)
	if !ok {
		return nil
	}
	ctor := c.resolveConstructor(newObj.Decl, argTPs, expr.line, expr.col)
	if ctor == nil {
		return nil
	}
	if ctor.Modifiers.Has(ProtectedModifier) && newObj.Decl.PackageName() != c.decl.PackageName() {
		c.errorf(expr.line, expr.col, "protected constructor of %s is not accessible here", newObj.Decl.Canonical)
		return nil
	}
	newObj.Ctor = ctor
	return refType(newObj.Decl)
}

func (c *typeChecker) typeOfNewArray(expr *ExpressionAst, newArr *NewArrayAst) *VariableType {
	sizeTP := c.typeOf(newArr.Size)
	if sizeTP == nil {
		return nil
	}
	if !c.assignable(sizeTP, intType) {
		c.errorf(expr.line, expr.col, "array size must be int, found %s", sizeTP)
		return nil
	}
	return arrayOf(newArr.ElemTP)
}

func (c *typeChecker) typeArguments(args []*ExpressionAst) ([]*VariableType, bool) {
	tps := make([]*VariableType, len(args))
	ok := true
	for i, arg := range args {
		tps[i] = c.typeOf(arg)
		if tps[i] == nil {
			ok = false
		}
	}
	return tps, ok
}

func (c *typeChecker) typeOfCall(expr *ExpressionAst, call *CallExprAst) *VariableType {
	argTPs, argsOK := c.typeArguments(call.Args)
	if !argsOK {
		return nil
	}

	var candidates []*MethodAst
	var receiver *TypeAst // static type of the receiver, nil for this

	switch {
	case call.Target == nil:
		candidates = methodsNamed(c.decl.Contains, call.Name)
	default:
		if call.Target.TP == NameExprTP {
			name := call.Target.Value.(*NameExprAst)
			if name.Binding == TypeBinding && name.Consumed == len(name.Ids) {
				// Static call through a type name.
				call.StaticCall = true
				candidates = methodsNamed(name.TypeDecl.Contains, call.Name)
				receiver = name.TypeDecl
				break
			}
		}
		targetTP := c.typeOf(call.Target)
		if targetTP == nil {
			return nil
		}
		if targetTP.TP != RefType {
			c.errorf(expr.line, expr.col, "cannot invoke %s on %s", call.Name, targetTP)
			return nil
		}
		receiver = targetTP.Decl
		candidates = methodsNamed(receiver.Contains, call.Name)
	}

	// Static and instance methods never mix in a candidate set; the
	// receiver context decides which half applies.
	wantStatic := call.StaticCall || (call.Target == nil && c.static)
	filtered := candidates[:0:0]
	for _, m := range candidates {
		if m.Modifiers.Has(StaticModifier) == wantStatic {
			filtered = append(filtered, m)
		}
	}

	method := c.resolveOverload(filtered, argTPs, call.Name, expr.line, expr.col)
	if method == nil {
		return nil
	}
	var receiverForAccess *TypeAst
	if !wantStatic && call.Target != nil {
		receiverForAccess = receiver
	}
	if !c.accessAllowed(method.Owner, method.Modifiers, receiverForAccess) {
		c.errorf(expr.line, expr.col, "method %s of %s is not accessible here", call.Name, method.Owner.Canonical)
		return nil
	}
	call.Method = method
	return method.ReturnTP
}

func methodsNamed(contains []*MethodAst, name string) []*MethodAst {
	var named []*MethodAst
	for _, m := range contains {
		if m.Name == name {
			named = append(named, m)
		}
	}
	return named
}

// resolveOverload gathers the applicable methods and picks the unique most
// specific one. m1 is more specific than m2 when every formal of m1 is
// assignable to the corresponding formal of m2.
func (c *typeChecker) resolveOverload(candidates []*MethodAst, argTPs []*VariableType, name string, line, col int) *MethodAst {
	var applicable []*MethodAst
	for _, m := range candidates {
		if c.applicable(paramTypes(m.Params), argTPs) {
			applicable = append(applicable, m)
		}
	}
	if len(applicable) == 0 {
		c.errorf(line, col, "no applicable method %s for arguments %s", name, typeListString(argTPs))
		return nil
	}
	best := c.mostSpecific(applicable, func(m *MethodAst) []*VariableType { return paramTypes(m.Params) })
	if best < 0 {
		c.errorf(line, col, "ambiguous call to %s for arguments %s", name, typeListString(argTPs))
		return nil
	}
	return applicable[best]
}

func (c *typeChecker) resolveConstructor(decl *TypeAst, argTPs []*VariableType, line, col int) *ConstructorAst {
	var applicable []*ConstructorAst
	for _, ctor := range decl.Constructors {
		if c.applicable(paramTypes(ctor.Params), argTPs) {
			applicable = append(applicable, ctor)
		}
	}
	if len(applicable) == 0 {
		c.errorf(line, col, "no applicable constructor of %s for arguments %s", decl.Canonical, typeListString(argTPs))
		return nil
	}
	best := c.mostSpecificCtor(applicable)
	if best < 0 {
		c.errorf(line, col, "ambiguous constructor of %s for arguments %s", decl.Canonical, typeListString(argTPs))
		return nil
	}
	return applicable[best]
}

func paramTypes(params []*ParamAst) []*VariableType {
	tps := make([]*VariableType, len(params))
	for i, p := range params {
		tps[i] = p.TP
	}
	return tps
}

func typeListString(tps []*VariableType) string {
	parts := make([]string, len(tps))
	for i, tp := range tps {
		parts[i] = tp.String()
	}
	return "(" + strings.Join(parts, ",") + ")"
}

func (c *typeChecker) applicable(formals, actuals []*VariableType) bool {
	if len(formals) != len(actuals) {
		return false
	}
	for i := range formals {
		if !c.assignable(actuals[i], formals[i]) {
			return false
		}
	}
	return true
}

func (c *typeChecker) moreSpecific(a, b []*VariableType) bool {
	for i := range a {
		if !c.assignable(a[i], b[i]) {
			return false
		}
	}
	return true
}

// mostSpecific returns the index of the unique maximum under moreSpecific,
// or -1 when none exists.
func (c *typeChecker) mostSpecific(methods []*MethodAst, formals func(*MethodAst) []*VariableType) int {
	for i, m := range methods {
		isMax := true
		for j, o := range methods {
			if i == j {
				continue
			}
			if !c.moreSpecific(formals(m), formals(o)) {
				isMax = false
				break
			}
		}
		if isMax {
			return i
		}
	}
	return -1
}

func (c *typeChecker) mostSpecificCtor(ctors []*ConstructorAst) int {
	for i, ctor := range ctors {
		isMax := true
		for j, other := range ctors {
			if i == j {
				continue
			}
			if !c.moreSpecific(paramTypes(ctor.Params), paramTypes(other.Params)) {
				isMax = false
				break
			}
		}
		if isMax {
			return i
		}
	}
	return -1
}

// ----- the subtype relation -----

// subtypeOf reports s <: t over the declared hierarchy.
func (c *typeChecker) subtypeOf(s, t *TypeAst) bool {
	return subtypeOf(s, t)
}

// SubtypeOf reports s <: t over the declared hierarchy. The layout pass uses
// it to build the subtype test columns.
func SubtypeOf(s, t *TypeAst) bool {
	return subtypeOf(s, t)
}

func subtypeOf(s, t *TypeAst) bool {
	if s == t {
		return true
	}
	if s.SuperClass != nil && subtypeOf(s.SuperClass, t) {
		return true
	}
	for _, iface := range s.Interfaces {
		if subtypeOf(iface, t) {
			return true
		}
	}
	return false
}

// assignable reports whether a value of type s can be assigned to a slot of
// type t without a cast.
func (c *typeChecker) assignable(s, t *VariableType) bool {
	if s.equals(t) {
		return true
	}
	if s.IsNumeric() && t.IsNumeric() {
		// Widening only: byte -> short -> int, char -> int.
		switch t.TP {
		case IntType:
			return true
		case ShortType:
			return s.TP == ByteType
		}
		return false
	}
	if s.TP == NullType {
		return t.IsReference() && t.TP != NullType
	}
	if s.TP == RefType && t.TP == RefType {
		return subtypeOf(s.Decl, t.Decl)
	}
	if s.TP == ArrayType {
		if t.TP == RefType {
			canonical := t.Decl.Canonical
			return canonical == "java.lang.Object" || canonical == "java.lang.Cloneable" || canonical == "java.io.Serializable"
		}
		if t.TP == ArrayType {
			// Arrays are covariant for reference elements and invariant for
			// primitive elements.
			if s.Elem.IsReference() && t.Elem.IsReference() {
				return c.assignable(s.Elem, t.Elem)
			}
			return s.Elem.equals(t.Elem)
		}
	}
	return false
}

// castable is the symmetric closure of assignability plus the narrowing
// conversions a cast may perform.
func (c *typeChecker) castable(s, t *VariableType) bool {
	if s.equals(t) {
		return true
	}
	if s.IsNumeric() && t.IsNumeric() {
		return true
	}
	if s.TP == BooleanType || t.TP == BooleanType {
		return s.TP == t.TP
	}
	if !s.IsReference() || !t.IsReference() {
		return false
	}
	if c.assignable(s, t) || c.assignable(t, s) {
		return true
	}
	if s.TP == RefType && t.TP == RefType {
		// An interface is castable to any interface and to any non-final
		// class, because some subtype may implement both.
		for _, pair := range [][2]*TypeAst{{s.Decl, t.Decl}, {t.Decl, s.Decl}} {
			a, b := pair[0], pair[1]
			if !a.IsClass() && (!b.IsClass() || !b.Modifiers.Has(FinalModifier)) {
				return true
			}
		}
	}
	if s.TP == ArrayType && t.TP == ArrayType {
		if s.Elem.IsReference() && t.Elem.IsReference() {
			return c.castable(s.Elem, t.Elem)
		}
		return s.Elem.equals(t.Elem)
	}
	return false
}
