package compiler

import "strconv"

// Static analysis: constant expression evaluation, reachability of every
// statement, and definite assignment of every local before use. Constant
// folding runs first because reachability depends on constant conditions
// (an if (false) body is unreachable).

func analyzeUnits(units []*UnitAst, index *TypeIndex, diags *Diagnostics) {
	folder := &constFolder{index: index, inProgress: map[*FieldAst]bool{}}
	for _, unit := range units {
		folder.foldUnit(unit)
	}
	for _, unit := range units {
		analyzer := &analyzer{unit: unit, diags: diags}
		analyzer.analyzeUnit()
	}
}

// ----- constant folding -----

type constFolder struct {
	index *TypeIndex
	// inProgress guards against cyclic constant field initializers.
	inProgress map[*FieldAst]bool
}

func (f *constFolder) foldUnit(unit *UnitAst) {
	decl := unit.Type
	for _, field := range decl.Fields {
		f.fieldConst(field)
	}
	for _, method := range decl.Methods {
		f.foldStatements(method.Body)
	}
	for _, ctor := range decl.Constructors {
		f.foldStatements(ctor.Body)
	}
}

// fieldConst computes and memoizes the constant value of a final static
// field with a constant initializer.
func (f *constFolder) fieldConst(field *FieldAst) *ConstValue {
	if field.ConstVal != nil {
		return field.ConstVal
	}
	if field.Init == nil || !field.Modifiers.Has(FinalModifier) || !field.Modifiers.Has(StaticModifier) {
		if field.Init != nil {
			f.fold(field.Init)
		}
		return nil
	}
	if f.inProgress[field] {
		return nil
	}
	f.inProgress[field] = true
	field.ConstVal = f.fold(field.Init)
	delete(f.inProgress, field)
	return field.ConstVal
}

func (f *constFolder) foldStatements(statements []*StatementAst) {
	for _, stm := range statements {
		f.foldStatement(stm)
	}
}

func (f *constFolder) foldStatement(stm *StatementAst) {
	switch stm.StatementTP {
	case VarDeclStatementTP:
		if init := stm.Statement.(*VarDeclAst).Init; init != nil {
			f.fold(init)
		}
	case ExprStatementTP:
		f.fold(stm.Statement.(*ExpressionAst))
	case IfStatementTP:
		ifAst := stm.Statement.(*IfStatementAst)
		f.fold(ifAst.Condition)
		f.foldStatement(ifAst.Then)
		if ifAst.Else != nil {
			f.foldStatement(ifAst.Else)
		}
	case WhileStatementTP:
		whileAst := stm.Statement.(*WhileStatementAst)
		f.fold(whileAst.Condition)
		f.foldStatement(whileAst.Body)
	case ForStatementTP:
		forAst := stm.Statement.(*ForStatementAst)
		if forAst.Init != nil {
			f.foldStatement(forAst.Init)
		}
		if forAst.Condition != nil {
			f.fold(forAst.Condition)
		}
		if forAst.Update != nil {
			f.fold(forAst.Update)
		}
		f.foldStatement(forAst.Body)
	case ReturnStatementTP:
		if value := stm.Statement.(*ReturnStatementAst).Value; value != nil {
			f.fold(value)
		}
	case BlockStatementTP:
		f.foldStatements(stm.Statement.(*BlockStatementAst).Statements)
	}
}

// fold evaluates an expression at compile time where possible, recording the
// result in the expression's constant slot.
func (f *constFolder) fold(expr *ExpressionAst) *ConstValue {
	if expr.Const != nil {
		return expr.Const
	}
	expr.Const = f.fold0(expr)
	return expr.Const
}

func (f *constFolder) fold0(expr *ExpressionAst) *ConstValue {
	switch expr.TP {
	case IntegerLiteralTP:
		return &ConstValue{Kind: IntType, Int: expr.Value.(*IntegerLiteralAst).Value}
	case CharLiteralExprTP:
		return &ConstValue{Kind: CharType, Int: int32(expr.Value.(*CharLiteralAst).Value)}
	case BooleanLiteralTP:
		return &ConstValue{Kind: BooleanType, Bool: expr.Value.(*BooleanLiteralAst).Value}
	case StringLiteralTP:
		return &ConstValue{Kind: RefType, Str: expr.Value.(*StringLiteralAst).Value}
	case NameExprTP:
		name := expr.Value.(*NameExprAst)
		var field *FieldAst
		if name.Binding == FieldBinding && len(name.PathField) == 0 {
			field = name.Field
		} else if name.Binding == TypeBinding && len(name.PathField) == 1 {
			field = name.PathField[0]
		}
		if field != nil {
			return f.fieldConst(field)
		}
		return nil
	case UnaryExprTP:
		unary := expr.Value.(*UnaryExprAst)
		operand := f.fold(unary.Expr)
		if operand == nil {
			return nil
		}
		switch unary.Op {
		case NegOp:
			if operand.Kind == BooleanType || operand.Kind == RefType {
				return nil
			}
			return &ConstValue{Kind: IntType, Int: -operand.Int}
		case NotOp:
			if operand.Kind != BooleanType {
				return nil
			}
			return &ConstValue{Kind: BooleanType, Bool: !operand.Bool}
		}
	case BinaryExprTP:
		binary := expr.Value.(*BinaryExprAst)
		left, right := f.fold(binary.Left), f.fold(binary.Right)
		if left == nil || right == nil {
			return nil
		}
		return foldBinary(binary.Op, left, right)
	case CastExprTP:
		cast := expr.Value.(*CastExprAst)
		operand := f.fold(cast.Expr)
		if operand == nil {
			return nil
		}
		return foldCast(cast.TargetTP, operand)
	}
	return nil
}

func isNumericConst(v *ConstValue) bool {
	switch v.Kind {
	case IntType, ShortType, ByteType, CharType:
		return true
	}
	return false
}

func foldBinary(op OpCode, left, right *ConstValue) *ConstValue {
	if op == AddOp && (left.Kind == RefType || right.Kind == RefType) {
		return &ConstValue{Kind: RefType, Str: constString(left) + constString(right)}
	}
	switch op {
	case AddOp, SubOp, MulOp, DivOp, ModOp:
		if !isNumericConst(left) || !isNumericConst(right) {
			return nil
		}
		switch op {
		case AddOp:
			return &ConstValue{Kind: IntType, Int: left.Int + right.Int}
		case SubOp:
			return &ConstValue{Kind: IntType, Int: left.Int - right.Int}
		case MulOp:
			return &ConstValue{Kind: IntType, Int: left.Int * right.Int}
		case DivOp:
			// Folding a division by zero would hide the runtime exception.
			if right.Int == 0 {
				return nil
			}
			return &ConstValue{Kind: IntType, Int: left.Int / right.Int}
		case ModOp:
			if right.Int == 0 {
				return nil
			}
			return &ConstValue{Kind: IntType, Int: left.Int % right.Int}
		}
	case LtOp, GtOp, LeOp, GeOp:
		if !isNumericConst(left) || !isNumericConst(right) {
			return nil
		}
		var result bool
		switch op {
		case LtOp:
			result = left.Int < right.Int
		case GtOp:
			result = left.Int > right.Int
		case LeOp:
			result = left.Int <= right.Int
		case GeOp:
			result = left.Int >= right.Int
		}
		return &ConstValue{Kind: BooleanType, Bool: result}
	case EqOp, NeOp:
		var equal bool
		switch {
		case isNumericConst(left) && isNumericConst(right):
			equal = left.Int == right.Int
		case left.Kind == BooleanType && right.Kind == BooleanType:
			equal = left.Bool == right.Bool
		default:
			return nil
		}
		if op == NeOp {
			equal = !equal
		}
		return &ConstValue{Kind: BooleanType, Bool: equal}
	case AndOp, AndAndOp:
		if left.Kind != BooleanType || right.Kind != BooleanType {
			return nil
		}
		return &ConstValue{Kind: BooleanType, Bool: left.Bool && right.Bool}
	case OrOp, OrOrOp:
		if left.Kind != BooleanType || right.Kind != BooleanType {
			return nil
		}
		return &ConstValue{Kind: BooleanType, Bool: left.Bool || right.Bool}
	}
	return nil
}

func constString(v *ConstValue) string {
	switch v.Kind {
	case RefType:
		return v.Str
	case BooleanType:
		if v.Bool {
			return "true"
		}
		return "false"
	case CharType:
		return string(rune(v.Int))
	default:
		return strconv.Itoa(int(v.Int))
	}
}

func foldCast(target *VariableType, v *ConstValue) *ConstValue {
	switch target.TP {
	case IntType:
		if !isNumericConst(v) {
			return nil
		}
		return &ConstValue{Kind: IntType, Int: v.Int}
	case ShortType:
		if !isNumericConst(v) {
			return nil
		}
		return &ConstValue{Kind: ShortType, Int: int32(int16(v.Int))}
	case ByteType:
		if !isNumericConst(v) {
			return nil
		}
		return &ConstValue{Kind: ByteType, Int: int32(int8(v.Int))}
	case CharType:
		if !isNumericConst(v) {
			return nil
		}
		return &ConstValue{Kind: CharType, Int: int32(uint16(v.Int))}
	case BooleanType:
		if v.Kind != BooleanType {
			return nil
		}
		return v
	case RefType:
		if v.Kind == RefType && target.Decl != nil && target.Decl.Canonical == "java.lang.String" {
			return v
		}
	}
	return nil
}

func constBool(expr *ExpressionAst) (value, isConst bool) {
	if expr.Const != nil && expr.Const.Kind == BooleanType {
		return expr.Const.Bool, true
	}
	return false, false
}

// ----- reachability and definite assignment -----

type analyzer struct {
	unit  *UnitAst
	diags *Diagnostics
}

func (a *analyzer) errorf(kind ErrorKind, line, col int, format string, args ...interface{}) {
	a.diags.errorf(kind, a.unit.FileName, line, col, format, args...)
}

func (a *analyzer) analyzeUnit() {
	decl := a.unit.Type
	for _, method := range decl.Methods {
		if !method.HasBody {
			continue
		}
		completes := a.analyzeBody(method.Body, method.Params)
		if completes && method.ReturnTP.TP != VoidType {
			a.errorf(ReachabilityErrorKind, method.line, method.col,
				"method %s can complete without returning a value", method.Name)
		}
	}
	for _, ctor := range decl.Constructors {
		a.analyzeBody(ctor.Body, ctor.Params)
	}
}

// assignedSet tracks which locals are definitely assigned at a program
// point. Merging at a join is set intersection.
type assignedSet map[*VarDeclAst]bool

func (set assignedSet) clone() assignedSet {
	out := make(assignedSet, len(set))
	for k := range set {
		out[k] = true
	}
	return out
}

func intersect(a, b assignedSet) assignedSet {
	out := assignedSet{}
	for k := range a {
		if b[k] {
			out[k] = true
		}
	}
	return out
}

func (a *analyzer) analyzeBody(body []*StatementAst, params []*ParamAst) bool {
	set := assignedSet{}
	in := true
	for _, stm := range body {
		set, in = a.analyzeStatement(stm, set, in)
	}
	return in
}

// analyzeStatement sets the statement's reachability attributes and flows
// the definite assignment set through it. It returns the set after the
// statement and whether control can reach the next statement.
func (a *analyzer) analyzeStatement(stm *StatementAst, set assignedSet, in bool) (assignedSet, bool) {
	stm.ReachableIn = in
	if !in {
		a.diags.warnf(ReachabilityErrorKind, a.unit.FileName, stm.line, stm.col, "unreachable statement")
	}
	completes := in
	switch stm.StatementTP {
	case EmptyStatementTP:
	case VarDeclStatementTP:
		decl := stm.Statement.(*VarDeclAst)
		if decl.Init != nil {
			a.checkExpr(decl.Init, set, stm)
			set = set.clone()
			set[decl] = true
		}
	case ExprStatementTP:
		set = a.checkExpr(stm.Statement.(*ExpressionAst), set, stm)
	case ReturnStatementTP:
		ret := stm.Statement.(*ReturnStatementAst)
		if ret.Value != nil {
			a.checkExpr(ret.Value, set, stm)
		}
		completes = false
	case IfStatementTP:
		ifAst := stm.Statement.(*IfStatementAst)
		set = a.checkExpr(ifAst.Condition, set, stm)
		condValue, condConst := constBool(ifAst.Condition)
		thenIn := in && !(condConst && !condValue)
		_, thenCompletes := a.analyzeStatement(ifAst.Then, set.clone(), thenIn)
		if ifAst.Else == nil {
			// Assignments inside a lone branch are not definite afterwards.
			if condConst && condValue {
				completes = thenCompletes
			}
			break
		}
		elseIn := in && !(condConst && condValue)
		_, elseCompletes := a.analyzeStatement(ifAst.Else, set.clone(), elseIn)
		thenSet, _ := a.analyzeSets(ifAst.Then, set)
		elseSet, _ := a.analyzeSets(ifAst.Else, set)
		set = intersect(thenSet, elseSet)
		switch {
		case condConst && condValue:
			completes = thenCompletes
		case condConst && !condValue:
			completes = elseCompletes
		default:
			completes = thenCompletes || elseCompletes
		}
		completes = completes && in
	case WhileStatementTP:
		whileAst := stm.Statement.(*WhileStatementAst)
		set = a.checkExpr(whileAst.Condition, set, stm)
		condValue, condConst := constBool(whileAst.Condition)
		bodyIn := in && !(condConst && !condValue)
		a.analyzeStatement(whileAst.Body, set.clone(), bodyIn)
		if condConst && condValue {
			// while (true) without break never falls through.
			completes = false
		}
	case ForStatementTP:
		forAst := stm.Statement.(*ForStatementAst)
		if forAst.Init != nil {
			set, _ = a.analyzeStatement(forAst.Init, set, in)
		}
		condValue, condConst := true, forAst.Condition == nil
		if forAst.Condition != nil {
			set = a.checkExpr(forAst.Condition, set, stm)
			condValue, condConst = constBool(forAst.Condition)
		}
		bodyIn := in && !(condConst && !condValue)
		bodySet, _ := a.analyzeStatement(forAst.Body, set.clone(), bodyIn)
		if forAst.Update != nil {
			a.checkExpr(forAst.Update, bodySet, stm)
		}
		if condConst && condValue {
			completes = false
		}
	case BlockStatementTP:
		block := stm.Statement.(*BlockStatementAst)
		inner := set.clone()
		reach := in
		for _, child := range block.Statements {
			inner, reach = a.analyzeStatement(child, inner, reach)
		}
		// Everything assigned inside the block stays assigned, the block's
		// own locals included (they are out of scope from here on).
		for decl := range inner {
			set = addAssigned(set, decl)
		}
		completes = reach
	}
	stm.CompletesNormally = completes
	return set, completes
}

func addAssigned(set assignedSet, decl *VarDeclAst) assignedSet {
	if set[decl] {
		return set
	}
	out := set.clone()
	out[decl] = true
	return out
}

// analyzeSets re-runs only the definite assignment bookkeeping of a branch
// to get its exit set without duplicating reachability diagnostics.
func (a *analyzer) analyzeSets(stm *StatementAst, set assignedSet) (assignedSet, bool) {
	silent := &analyzer{unit: a.unit, diags: &Diagnostics{}}
	return silent.analyzeStatement(stm, set.clone(), true)
}

// checkExpr validates every local read in the expression against the
// assigned set and returns the set extended with assignments the expression
// performs.
func (a *analyzer) checkExpr(expr *ExpressionAst, set assignedSet, stm *StatementAst) assignedSet {
	switch expr.TP {
	case NameExprTP:
		name := expr.Value.(*NameExprAst)
		if name.Binding == LocalBinding && !set[name.Local] {
			a.errorf(DefiniteAssignErrorKind, expr.line, expr.col,
				"variable %s may not have been initialized", name.Local.Name)
		}
	case UnaryExprTP:
		set = a.checkExpr(expr.Value.(*UnaryExprAst).Expr, set, stm)
	case BinaryExprTP:
		binary := expr.Value.(*BinaryExprAst)
		set = a.checkExpr(binary.Left, set, stm)
		set = a.checkExpr(binary.Right, set, stm)
	case AssignExprTP:
		assign := expr.Value.(*AssignExprAst)
		// The right side is evaluated before the variable becomes assigned.
		set = a.checkExpr(assign.Rhs, set, stm)
		if assign.Lhs.TP == NameExprTP {
			name := assign.Lhs.Value.(*NameExprAst)
			if name.Binding == LocalBinding && len(name.PathField) == 0 {
				return addAssigned(set, name.Local)
			}
		}
		set = a.checkExpr(assign.Lhs, set, stm)
	case CastExprTP:
		set = a.checkExpr(expr.Value.(*CastExprAst).Expr, set, stm)
	case InstanceofExprTP:
		set = a.checkExpr(expr.Value.(*InstanceofAst).Expr, set, stm)
	case FieldAccessTP:
		set = a.checkExpr(expr.Value.(*FieldAccessAst).Target, set, stm)
	case ArrayAccessTP:
		access := expr.Value.(*ArrayAccessAst)
		set = a.checkExpr(access.Array, set, stm)
		set = a.checkExpr(access.Index, set, stm)
	case CallExprTP:
		call := expr.Value.(*CallExprAst)
		if call.Target != nil {
			set = a.checkExpr(call.Target, set, stm)
		}
		for _, arg := range call.Args {
			set = a.checkExpr(arg, set, stm)
		}
	case NewObjectTP:
		for _, arg := range expr.Value.(*NewObjectAst).Args {
			set = a.checkExpr(arg, set, stm)
		}
	case NewArrayTP:
		set = a.checkExpr(expr.Value.(*NewArrayAst).Size, set, stm)
	}
	return set
}
