package ir

import (
	"fmt"

	"joosc/compiler"
)

// Lowering walks every class and translates constructors, methods and field
// initializers into flat IR statement lists. Control expressions become
// explicit CJump graphs, constants recorded by the analyser substitute their
// expressions, and all the layout decisions (field offsets, vtable slots,
// subtype columns) are burned in here.

func Lower(program *compiler.Program) *Program {
	layout := NewLayout(program.Index)
	lowered := &Program{NumTypes: len(program.Index.Types())}
	lowered.ArraySubtype = make([]bool, lowered.NumTypes)
	for _, decl := range program.Index.Types() {
		switch decl.Canonical {
		case "java.lang.Object", "java.lang.Cloneable", "java.io.Serializable":
			lowered.ArraySubtype[decl.Id] = true
		}
	}

	for _, unit := range program.Units {
		decl := unit.Type
		u := &unitLowerer{
			layout:  layout,
			index:   program.Index,
			decl:    decl,
			strings: map[string]*StringData{},
		}
		compUnit := u.lowerUnit()
		lowered.Units = append(lowered.Units, compUnit)
		if compUnit.Init != nil {
			lowered.InitOrder = append(lowered.InitOrder, compUnit.InitLabel)
		}
	}

	// The designated start class is the first user unit that declares a
	// static int test(); that method is the program entry.
	for _, unit := range program.UserUnits {
		if test := findTestMethod(unit.Type); test != nil {
			lowered.TestLabel = MethodLabel(test)
			break
		}
	}
	return lowered
}

func findTestMethod(decl *compiler.TypeAst) *compiler.MethodAst {
	for _, m := range decl.Methods {
		if m.Name == "test" && len(m.Params) == 0 &&
			m.Modifiers.Has(compiler.StaticModifier) && m.ReturnTP.TP == compiler.IntType {
			return m
		}
	}
	return nil
}

type unitLowerer struct {
	layout  *Layout
	index   *compiler.TypeIndex
	decl    *compiler.TypeAst
	unit    *CompUnit
	strings map[string]*StringData
	// labelSeq makes control flow labels unique within the emitted file.
	labelSeq int
}

func (u *unitLowerer) lowerUnit() *CompUnit {
	decl := u.decl
	u.unit = &CompUnit{
		Name:         decl.Canonical,
		FileBase:     Sanitize(decl.Canonical),
		TypeId:       decl.Id,
		IsClass:      decl.IsClass(),
		VtableLabel:  VtableLabel(decl),
		SubtypeLabel: SubtypeColLabel(decl),
		Subtype:      u.layout.Subtype(decl),
		VtableSlots:  u.layout.Vtable(decl),
	}
	if !decl.IsClass() {
		return u.unit
	}

	for _, f := range decl.Fields {
		if f.Modifiers.Has(compiler.StaticModifier) {
			u.unit.StaticFields = append(u.unit.StaticFields, StaticField{Label: StaticFieldLabel(f)})
		}
	}

	u.unit.Init = u.lowerStaticInit()
	u.unit.InitLabel = u.unit.Init.Label

	for _, ctor := range decl.Constructors {
		u.unit.Funcs = append(u.unit.Funcs, u.lowerConstructor(ctor))
	}
	for _, m := range decl.Methods {
		if !m.HasBody {
			continue
		}
		u.unit.Funcs = append(u.unit.Funcs, u.lowerMethod(m))
	}
	return u.unit
}

func (u *unitLowerer) newLabel(hint string) string {
	u.labelSeq++
	return fmt.Sprintf("_%s_%s_%d", u.unit.FileBase, hint, u.labelSeq)
}

func (u *unitLowerer) internString(value string) *StringData {
	if data, ok := u.strings[value]; ok {
		return data
	}
	n := len(u.strings)
	data := &StringData{
		ObjLabel:   fmt.Sprintf("_str_%s_%d", u.unit.FileBase, n),
		CharsLabel: fmt.Sprintf("_strchars_%s_%d", u.unit.FileBase, n),
		Value:      value,
	}
	u.strings[value] = data
	u.unit.Strings = append(u.unit.Strings, *data)
	return data
}

// lowerStaticInit builds the class initializer: every static field gets its
// initializer run in declaration order. Fields without one stay at the zero
// the data section gives them.
func (u *unitLowerer) lowerStaticInit() *Func {
	f := &funcLowerer{
		u:  u,
		fn: &Func{Label: InitLabel(u.decl)},
	}
	for _, field := range u.decl.Fields {
		if !field.Modifiers.Has(compiler.StaticModifier) || field.Init == nil {
			continue
		}
		value := f.lowerExpr(field.Init)
		f.emit(&Move{Dst: &Mem{Addr: &Name{Label: StaticFieldLabel(field)}}, Src: value})
	}
	f.emit(&Return{})
	f.fn.Body = f.out
	return f.fn
}

// lowerConstructor chains the super constructor, stores the vtable pointer,
// zero-initializes the class's own instance fields, runs the field
// initializers in declaration order, then the body, and finally returns
// this so that a new expression is just "malloc, call".
func (u *unitLowerer) lowerConstructor(ctor *compiler.ConstructorAst) *Func {
	f := newFuncLowerer(u, CtorLabel(ctor), ctor.Params, false)
	f.isCtor = true

	this := f.thisTemp
	if u.decl.SuperClass != nil {
		super := findZeroArgCtor(u.decl.SuperClass)
		f.emit(&Call{Target: &Name{Label: CtorLabel(super)}, Args: []Value{this}})
	}
	f.emit(&Move{Dst: &Mem{Addr: this}, Src: &Name{Label: u.unit.VtableLabel}})
	for _, field := range u.decl.Fields {
		if field.Modifiers.Has(compiler.StaticModifier) {
			continue
		}
		f.emit(&Move{Dst: &Mem{Addr: this, Off: u.layout.FieldOffset(field)}, Src: &Const{}})
	}
	for _, field := range u.decl.Fields {
		if field.Modifiers.Has(compiler.StaticModifier) || field.Init == nil {
			continue
		}
		value := f.lowerExpr(field.Init)
		f.emit(&Move{Dst: &Mem{Addr: this, Off: u.layout.FieldOffset(field)}, Src: value})
	}
	f.lowerStatements(ctor.Body)
	f.emit(&Return{Value: this})
	f.fn.Body = f.out
	return f.fn
}

func findZeroArgCtor(decl *compiler.TypeAst) *compiler.ConstructorAst {
	for _, c := range decl.Constructors {
		if len(c.Params) == 0 {
			return c
		}
	}
	panic("hierarchy pass guarantees a zero-argument super constructor")
}

func (u *unitLowerer) lowerMethod(m *compiler.MethodAst) *Func {
	f := newFuncLowerer(u, MethodLabel(m), m.Params, m.Modifiers.Has(compiler.StaticModifier))
	f.fn.IsTest = findTestMethod(u.decl) == m
	f.lowerStatements(m.Body)
	// A void method (or one ending in an if) may fall off the end.
	f.emit(&Return{})
	f.fn.Body = f.out
	return f.fn
}

// ----- per function lowering -----

type funcLowerer struct {
	u        *unitLowerer
	fn       *Func
	out      []Stmt
	locals   map[*compiler.VarDeclAst]*Temp
	params   map[*compiler.ParamAst]*Temp
	thisTemp *Temp
	// isCtor makes a bare return hand back this.
	isCtor bool
}

func newFuncLowerer(u *unitLowerer, label string, params []*compiler.ParamAst, static bool) *funcLowerer {
	f := &funcLowerer{
		u:      u,
		fn:     &Func{Label: label},
		locals: map[*compiler.VarDeclAst]*Temp{},
		params: map[*compiler.ParamAst]*Temp{},
	}
	if !static {
		f.thisTemp = f.newTemp()
	}
	for _, p := range params {
		f.params[p] = f.newTemp()
	}
	f.fn.NumParams = f.fn.NumTemps
	return f
}

func (f *funcLowerer) newTemp() *Temp {
	t := &Temp{ID: f.fn.NumTemps}
	f.fn.NumTemps++
	return t
}

func (f *funcLowerer) emit(stmt Stmt) {
	f.out = append(f.out, stmt)
}

func (f *funcLowerer) label(hint string) string {
	return f.u.newLabel(hint)
}

// operand coerces a value into something a Bin may use directly.
func (f *funcLowerer) operand(v Value) Value {
	switch v.(type) {
	case *Temp, *Const:
		return v
	}
	t := f.newTemp()
	f.emit(&Move{Dst: t, Src: v})
	return t
}

// inTemp forces a value into a temp.
func (f *funcLowerer) inTemp(v Value) *Temp {
	if t, ok := v.(*Temp); ok {
		return t
	}
	t := f.newTemp()
	f.emit(&Move{Dst: t, Src: v})
	return t
}

func (f *funcLowerer) emitNullCheck(v Value) {
	f.emit(&CJump{Cond: &Bin{Op: Eq, L: f.operand(v), R: &Const{}}, True: ErrLabel})
}

// ----- statements -----

func (f *funcLowerer) lowerStatements(statements []*compiler.StatementAst) {
	for _, stm := range statements {
		f.lowerStatement(stm)
	}
}

func (f *funcLowerer) lowerStatement(stm *compiler.StatementAst) {
	// Statements the analyser proved unreachable are pruned.
	if !stm.ReachableIn {
		return
	}
	switch stm.StatementTP {
	case compiler.EmptyStatementTP:
	case compiler.VarDeclStatementTP:
		decl := stm.Statement.(*compiler.VarDeclAst)
		t := f.newTemp()
		f.locals[decl] = t
		if decl.Init != nil {
			value := f.lowerExpr(decl.Init)
			f.emit(&Move{Dst: t, Src: value})
		}
	case compiler.ExprStatementTP:
		f.lowerExpr(stm.Statement.(*compiler.ExpressionAst))
	case compiler.ReturnStatementTP:
		ret := stm.Statement.(*compiler.ReturnStatementAst)
		if ret.Value != nil {
			f.emit(&Return{Value: f.lowerExpr(ret.Value)})
		} else if f.isCtor {
			f.emit(&Return{Value: f.thisTemp})
		} else {
			f.emit(&Return{})
		}
	case compiler.IfStatementTP:
		f.lowerIf(stm.Statement.(*compiler.IfStatementAst))
	case compiler.WhileStatementTP:
		whileAst := stm.Statement.(*compiler.WhileStatementAst)
		f.lowerLoop(whileAst.Condition, whileAst.Body, nil)
	case compiler.ForStatementTP:
		forAst := stm.Statement.(*compiler.ForStatementAst)
		if forAst.Init != nil {
			f.lowerStatement(forAst.Init)
		}
		f.lowerLoop(forAst.Condition, forAst.Body, forAst.Update)
	case compiler.BlockStatementTP:
		f.lowerStatements(stm.Statement.(*compiler.BlockStatementAst).Statements)
	}
}

func (f *funcLowerer) lowerIf(ifAst *compiler.IfStatementAst) {
	if value, isConst := constBoolOf(ifAst.Condition); isConst {
		// Constant conditions fold the dead branch away entirely.
		if value {
			f.lowerStatement(ifAst.Then)
		} else if ifAst.Else != nil {
			f.lowerStatement(ifAst.Else)
		}
		return
	}
	trueLabel, falseLabel := f.label("if_t"), f.label("if_f")
	f.lowerCond(ifAst.Condition, trueLabel, falseLabel)
	f.emit(&Label{Name: trueLabel})
	f.lowerStatement(ifAst.Then)
	if ifAst.Else == nil {
		f.emit(&Label{Name: falseLabel})
		return
	}
	endLabel := f.label("if_end")
	f.emit(&Jump{Target: endLabel})
	f.emit(&Label{Name: falseLabel})
	f.lowerStatement(ifAst.Else)
	f.emit(&Label{Name: endLabel})
}

func (f *funcLowerer) lowerLoop(cond *compiler.ExpressionAst, body *compiler.StatementAst, update *compiler.ExpressionAst) {
	condValue, condConst := true, cond == nil
	if cond != nil {
		condValue, condConst = constBoolOf(cond)
	}
	if condConst && !condValue {
		return
	}
	condLabel, bodyLabel, exitLabel := f.label("loop_cond"), f.label("loop_body"), f.label("loop_exit")
	f.emit(&Label{Name: condLabel})
	if condConst {
		// while (true): no test at all.
		f.emit(&Label{Name: bodyLabel})
	} else {
		f.lowerCond(cond, bodyLabel, exitLabel)
		f.emit(&Label{Name: bodyLabel})
	}
	f.lowerStatement(body)
	if update != nil {
		f.lowerExpr(update)
	}
	f.emit(&Jump{Target: condLabel})
	f.emit(&Label{Name: exitLabel})
}

func constBoolOf(expr *compiler.ExpressionAst) (value, isConst bool) {
	if expr.Const != nil && expr.Const.Kind == compiler.BooleanType {
		return expr.Const.Bool, true
	}
	return false, false
}

// lowerCond lowers an expression used as a branch condition into an explicit
// CJump graph; && and || never materialize a boolean here.
func (f *funcLowerer) lowerCond(expr *compiler.ExpressionAst, trueLabel, falseLabel string) {
	if value, isConst := constBoolOf(expr); isConst {
		if value {
			f.emit(&Jump{Target: trueLabel})
		} else {
			f.emit(&Jump{Target: falseLabel})
		}
		return
	}
	switch expr.TP {
	case compiler.UnaryExprTP:
		unary := expr.Value.(*compiler.UnaryExprAst)
		if unary.Op == compiler.NotOp {
			f.lowerCond(unary.Expr, falseLabel, trueLabel)
			return
		}
	case compiler.BinaryExprTP:
		binary := expr.Value.(*compiler.BinaryExprAst)
		switch binary.Op {
		case compiler.AndAndOp:
			mid := f.label("and")
			f.lowerCond(binary.Left, mid, falseLabel)
			f.emit(&Label{Name: mid})
			f.lowerCond(binary.Right, trueLabel, falseLabel)
			return
		case compiler.OrOrOp:
			mid := f.label("or")
			f.lowerCond(binary.Left, trueLabel, mid)
			f.emit(&Label{Name: mid})
			f.lowerCond(binary.Right, trueLabel, falseLabel)
			return
		}
		if op, ok := comparisonOp(binary.Op); ok {
			left := f.operand(f.lowerExpr(binary.Left))
			right := f.operand(f.lowerExpr(binary.Right))
			f.emit(&CJump{Cond: &Bin{Op: op, L: left, R: right}, True: trueLabel, False: falseLabel})
			return
		}
	}
	value := f.operand(f.lowerExpr(expr))
	f.emit(&CJump{Cond: value, True: trueLabel, False: falseLabel})
}

func comparisonOp(op compiler.OpCode) (BinOp, bool) {
	switch op {
	case compiler.EqOp:
		return Eq, true
	case compiler.NeOp:
		return Ne, true
	case compiler.LtOp:
		return Lt, true
	case compiler.LeOp:
		return Le, true
	case compiler.GtOp:
		return Gt, true
	case compiler.GeOp:
		return Ge, true
	}
	return 0, false
}

// ----- expressions -----

// lowerExpr lowers an expression, returning a Temp, Const or Name holding
// its value. Constant expressions recorded by the analyser short circuit
// everything below them.
func (f *funcLowerer) lowerExpr(expr *compiler.ExpressionAst) Value {
	if expr.Const != nil {
		switch expr.Const.Kind {
		case compiler.RefType:
			return f.stringValue(expr.Const.Str)
		case compiler.BooleanType:
			if expr.Const.Bool {
				return &Const{Val: 1}
			}
			return &Const{}
		default:
			return &Const{Val: expr.Const.Int}
		}
	}
	switch expr.TP {
	case compiler.IntegerLiteralTP:
		return &Const{Val: expr.Value.(*compiler.IntegerLiteralAst).Value}
	case compiler.CharLiteralExprTP:
		return &Const{Val: int32(expr.Value.(*compiler.CharLiteralAst).Value)}
	case compiler.BooleanLiteralTP:
		if expr.Value.(*compiler.BooleanLiteralAst).Value {
			return &Const{Val: 1}
		}
		return &Const{}
	case compiler.NullLiteralTP:
		return &Const{}
	case compiler.StringLiteralTP:
		return f.stringValue(expr.Value.(*compiler.StringLiteralAst).Value)
	case compiler.ThisExprTP:
		return f.thisTemp
	case compiler.NameExprTP:
		return f.lowerName(expr.Value.(*compiler.NameExprAst))
	case compiler.FieldAccessTP:
		return f.lowerFieldAccess(expr.Value.(*compiler.FieldAccessAst))
	case compiler.ArrayAccessTP:
		access := expr.Value.(*compiler.ArrayAccessAst)
		addr := f.lowerElementAddr(access)
		return f.operand(&Mem{Addr: addr})
	case compiler.UnaryExprTP:
		return f.lowerUnary(expr.Value.(*compiler.UnaryExprAst))
	case compiler.BinaryExprTP:
		return f.lowerBinary(expr)
	case compiler.AssignExprTP:
		return f.lowerAssign(expr.Value.(*compiler.AssignExprAst))
	case compiler.CastExprTP:
		return f.lowerCast(expr.Value.(*compiler.CastExprAst))
	case compiler.InstanceofExprTP:
		return f.lowerInstanceof(expr.Value.(*compiler.InstanceofAst))
	case compiler.CallExprTP:
		return f.lowerCall(expr.Value.(*compiler.CallExprAst))
	case compiler.NewObjectTP:
		return f.lowerNewObject(expr.Value.(*compiler.NewObjectAst))
	case compiler.NewArrayTP:
		return f.lowerNewArray(expr.Value.(*compiler.NewArrayAst))
	}
	panic("unknown expression in lowering")
}

func (f *funcLowerer) stringValue(value string) Value {
	data := f.u.internString(value)
	return &Name{Label: data.ObjLabel}
}

// lowerName loads a resolved name. The base binding may be a local, a
// parameter, a field of this or a static field; the trailing path is
// instance field loads with null checks in between.
func (f *funcLowerer) lowerName(name *compiler.NameExprAst) Value {
	value, fields := f.nameBase(name)
	for _, field := range fields {
		value = f.loadField(value, field)
	}
	return value
}

// nameBase returns the value of the base binding and the instance fields
// still to load after it.
func (f *funcLowerer) nameBase(name *compiler.NameExprAst) (Value, []*compiler.FieldAst) {
	switch name.Binding {
	case compiler.LocalBinding:
		return f.locals[name.Local], name.PathField
	case compiler.ParamBinding:
		return f.params[name.Param], name.PathField
	case compiler.FieldBinding:
		field := name.Field
		if field.Modifiers.Has(compiler.StaticModifier) {
			return f.operand(&Mem{Addr: &Name{Label: StaticFieldLabel(field)}}), name.PathField
		}
		return f.operand(&Mem{Addr: f.thisTemp, Off: f.u.layout.FieldOffset(field)}), name.PathField
	case compiler.TypeBinding:
		field := name.PathField[0]
		return f.operand(&Mem{Addr: &Name{Label: StaticFieldLabel(field)}}), name.PathField[1:]
	}
	panic("name without a binding survived to lowering")
}

// loadField loads one instance field (or array length, field == nil) off a
// receiver value, null checking the receiver.
func (f *funcLowerer) loadField(receiver Value, field *compiler.FieldAst) Value {
	recv := f.operand(receiver)
	f.emitNullCheck(recv)
	if field == nil {
		return f.operand(&Mem{Addr: recv, Off: ArrayLenOff})
	}
	return f.operand(&Mem{Addr: recv, Off: f.u.layout.FieldOffset(field)})
}

func (f *funcLowerer) lowerFieldAccess(access *compiler.FieldAccessAst) Value {
	target := f.lowerExpr(access.Target)
	return f.loadField(target, access.Field)
}

// lowerElementAddr computes the address of an array element with the null
// and bounds checks the ABI requires.
func (f *funcLowerer) lowerElementAddr(access *compiler.ArrayAccessAst) *Temp {
	array := f.inTemp(f.lowerExpr(access.Array))
	f.emitNullCheck(array)
	index := f.operand(f.lowerExpr(access.Index))
	index = f.operand(index)
	length := f.operand(&Mem{Addr: array, Off: ArrayLenOff})
	f.emit(&CJump{Cond: &Bin{Op: Lt, L: index, R: &Const{}}, True: ErrLabel})
	f.emit(&CJump{Cond: &Bin{Op: Ge, L: index, R: length}, True: ErrLabel})
	scaled := f.newTemp()
	f.emit(&Move{Dst: scaled, Src: &Bin{Op: Mul, L: index, R: &Const{Val: WordSize}}})
	addr := f.newTemp()
	f.emit(&Move{Dst: addr, Src: &Bin{Op: Add, L: array, R: scaled}})
	base := f.newTemp()
	f.emit(&Move{Dst: base, Src: &Bin{Op: Add, L: addr, R: &Const{Val: ArrayBase}}})
	return base
}

func (f *funcLowerer) lowerUnary(unary *compiler.UnaryExprAst) Value {
	operand := f.operand(f.lowerExpr(unary.Expr))
	t := f.newTemp()
	switch unary.Op {
	case compiler.NegOp:
		f.emit(&Move{Dst: t, Src: &Bin{Op: Sub, L: &Const{}, R: operand}})
	case compiler.NotOp:
		f.emit(&Move{Dst: t, Src: &Bin{Op: Sub, L: &Const{Val: 1}, R: operand}})
	}
	return t
}

func (f *funcLowerer) lowerBinary(expr *compiler.ExpressionAst) Value {
	binary := expr.Value.(*compiler.BinaryExprAst)

	// + on strings is concatenation through the library.
	if binary.Op == compiler.AddOp && isStringType(expr.Type) {
		left := f.stringConvert(binary.Left)
		right := f.stringConvert(binary.Right)
		return f.callDirectOrVirtual(f.stringMethod("concat(java.lang.String)"), left, []Value{right})
	}

	switch binary.Op {
	case compiler.AndAndOp, compiler.OrOrOp:
		// Short circuit as a value: CJump graph writing a temp.
		result := f.newTemp()
		trueLabel, endLabel := f.label("sc_t"), f.label("sc_end")
		f.emit(&Move{Dst: result, Src: &Const{}})
		f.lowerCond(expr, trueLabel, endLabel)
		f.emit(&Label{Name: trueLabel})
		f.emit(&Move{Dst: result, Src: &Const{Val: 1}})
		f.emit(&Label{Name: endLabel})
		return result
	}

	left := f.operand(f.lowerExpr(binary.Left))
	right := f.operand(f.lowerExpr(binary.Right))
	t := f.newTemp()
	var op BinOp
	switch binary.Op {
	case compiler.AddOp:
		op = Add
	case compiler.SubOp:
		op = Sub
	case compiler.MulOp:
		op = Mul
	case compiler.DivOp:
		op = Div
	case compiler.ModOp:
		op = Mod
	case compiler.AndOp:
		op = And
	case compiler.OrOp:
		op = Or
	default:
		cmp, ok := comparisonOp(binary.Op)
		if !ok {
			panic("unknown binary op in lowering")
		}
		op = cmp
	}
	f.emit(&Move{Dst: t, Src: &Bin{Op: op, L: left, R: right}})
	return t
}

func isStringType(tp *compiler.VariableType) bool {
	return tp != nil && tp.TP == compiler.RefType && tp.Decl != nil && tp.Decl.Canonical == "java.lang.String"
}

// stringConvert lowers one operand of a string concatenation to a
// java.lang.String through the matching valueOf overload.
func (f *funcLowerer) stringConvert(expr *compiler.ExpressionAst) Value {
	value := f.lowerExpr(expr)
	tp := expr.Type
	var sig string
	switch {
	case isStringType(tp):
		// Still goes through valueOf(Object) so a null operand prints as
		// the four characters n u l l.
		sig = "valueOf(java.lang.Object)"
	case tp.TP == compiler.CharType:
		sig = "valueOf(char)"
	case tp.TP == compiler.BooleanType:
		sig = "valueOf(boolean)"
	case tp.IsNumeric():
		sig = "valueOf(int)"
	default:
		sig = "valueOf(java.lang.Object)"
	}
	method := f.stringMethod(sig)
	result := f.newTemp()
	f.emit(&Call{Dst: result, Target: &Name{Label: MethodLabel(method)}, Args: []Value{f.operand(value)}})
	return result
}

func (f *funcLowerer) stringMethod(sig string) *compiler.MethodAst {
	stringDecl := f.u.index.Lookup("java.lang.String")
	for _, m := range stringDecl.Contains {
		if m.Signature() == sig {
			return m
		}
	}
	panic("stdlib java.lang.String is missing " + sig)
}

func (f *funcLowerer) lowerAssign(assign *compiler.AssignExprAst) Value {
	dst := f.lowerLValue(assign.Lhs)
	value := f.operand(f.lowerExpr(assign.Rhs))
	f.emit(&Move{Dst: dst, Src: value})
	return value
}

// lowerLValue lowers the left side of an assignment to a Temp or Mem
// destination.
func (f *funcLowerer) lowerLValue(expr *compiler.ExpressionAst) Value {
	switch expr.TP {
	case compiler.NameExprTP:
		name := expr.Value.(*compiler.NameExprAst)
		value, fields := f.nameBaseLValue(name)
		for i, field := range fields {
			if i == len(fields)-1 {
				recv := f.operand(value)
				f.emitNullCheck(recv)
				return &Mem{Addr: recv, Off: f.u.layout.FieldOffset(field)}
			}
			value = f.loadField(value, field)
		}
		return value
	case compiler.FieldAccessTP:
		access := expr.Value.(*compiler.FieldAccessAst)
		target := f.operand(f.lowerExpr(access.Target))
		f.emitNullCheck(target)
		return &Mem{Addr: target, Off: f.u.layout.FieldOffset(access.Field)}
	case compiler.ArrayAccessTP:
		addr := f.lowerElementAddr(expr.Value.(*compiler.ArrayAccessAst))
		return &Mem{Addr: addr}
	}
	panic("assignment target survived type checking without being an lvalue")
}

// nameBaseLValue is nameBase except that when the name is exactly one
// binding deep the binding itself is the destination.
func (f *funcLowerer) nameBaseLValue(name *compiler.NameExprAst) (Value, []*compiler.FieldAst) {
	switch name.Binding {
	case compiler.LocalBinding:
		return f.locals[name.Local], name.PathField
	case compiler.ParamBinding:
		return f.params[name.Param], name.PathField
	case compiler.FieldBinding:
		field := name.Field
		if len(name.PathField) == 0 {
			if field.Modifiers.Has(compiler.StaticModifier) {
				return &Mem{Addr: &Name{Label: StaticFieldLabel(field)}}, nil
			}
			return &Mem{Addr: f.thisTemp, Off: f.u.layout.FieldOffset(field)}, nil
		}
		base, fields := f.nameBase(name)
		return base, fields
	case compiler.TypeBinding:
		if len(name.PathField) == 1 {
			return &Mem{Addr: &Name{Label: StaticFieldLabel(name.PathField[0])}}, nil
		}
		base := f.operand(&Mem{Addr: &Name{Label: StaticFieldLabel(name.PathField[0])}})
		return base, name.PathField[1:]
	}
	panic("lvalue name without a binding")
}

func (f *funcLowerer) lowerCast(cast *compiler.CastExprAst) Value {
	value := f.lowerExpr(cast.Expr)
	switch cast.TargetTP.TP {
	case compiler.ByteType:
		return f.extend(value, ExtB)
	case compiler.ShortType:
		return f.extend(value, ExtS)
	case compiler.CharType:
		return f.extend(value, ExtC)
	}
	// Reference casts and widening numeric casts are value preserving.
	return value
}

func (f *funcLowerer) extend(value Value, op BinOp) Value {
	t := f.newTemp()
	f.emit(&Move{Dst: t, Src: &Bin{Op: op, L: f.operand(value), R: &Const{}}})
	return t
}

// lowerInstanceof: a null receiver is false; otherwise follow the vtable
// pointer to the subtype column and read the flag at the target's type id.
// Array targets compare against the shared array vtable instead.
func (f *funcLowerer) lowerInstanceof(inst *compiler.InstanceofAst) Value {
	value := f.inTemp(f.lowerExpr(inst.Expr))
	result := f.newTemp()
	endLabel, checkLabel := f.label("iof_end"), f.label("iof_chk")
	f.emit(&Move{Dst: result, Src: &Const{}})
	f.emit(&CJump{Cond: &Bin{Op: Eq, L: value, R: &Const{}}, True: endLabel, False: checkLabel})
	f.emit(&Label{Name: checkLabel})
	vtable := f.operand(&Mem{Addr: value})
	if inst.TargetTP.TP == compiler.ArrayType {
		arrayVtable := f.operand(&Name{Label: ArrayVtable})
		f.emit(&Move{Dst: result, Src: &Bin{Op: Eq, L: vtable, R: arrayVtable}})
	} else {
		column := f.operand(&Mem{Addr: vtable})
		flag := f.operand(&Mem{Addr: column, Off: int32(inst.TargetTP.Decl.Id) * WordSize})
		f.emit(&Move{Dst: result, Src: flag})
	}
	f.emit(&Label{Name: endLabel})
	return result
}

func (f *funcLowerer) lowerCall(call *compiler.CallExprAst) Value {
	method := call.Method
	var args []Value
	var receiver Value

	if !method.Modifiers.Has(compiler.StaticModifier) {
		if call.Target == nil {
			receiver = f.thisTemp
		} else if call.Target.TP == compiler.NameExprTP && !call.StaticCall {
			receiver = f.lowerName(call.Target.Value.(*compiler.NameExprAst))
		} else {
			receiver = f.lowerExpr(call.Target)
		}
		receiver = f.operand(receiver)
	}

	for _, arg := range call.Args {
		args = append(args, f.operand(f.lowerExpr(arg)))
	}

	if method.Modifiers.Has(compiler.StaticModifier) {
		result := f.newTemp()
		f.emit(&Call{Dst: result, Target: &Name{Label: MethodLabel(method)}, Args: args})
		return result
	}
	return f.callDirectOrVirtual(method, receiver, args)
}

// callDirectOrVirtual dispatches an instance call through the receiver's
// vtable. Methods of a final class (java.lang.String mostly) still go
// through the table; the slot is exact either way.
func (f *funcLowerer) callDirectOrVirtual(method *compiler.MethodAst, receiver Value, args []Value) *Temp {
	recv := f.operand(receiver)
	f.emitNullCheck(recv)
	vtable := f.operand(&Mem{Addr: recv})
	slot := f.u.layout.VtableSlot(method)
	target := f.operand(&Mem{Addr: vtable, Off: int32(1+slot) * WordSize})
	result := f.newTemp()
	f.emit(&Call{Dst: result, Target: target, Args: append([]Value{recv}, args...)})
	return result
}

func (f *funcLowerer) lowerNewObject(newObj *compiler.NewObjectAst) Value {
	size := f.u.layout.ObjectSize(newObj.Decl)
	obj := f.newTemp()
	f.emit(&Call{Dst: obj, Target: &Name{Label: MallocLabel}, Args: []Value{&Const{Val: size}}})
	var args []Value
	for _, arg := range newObj.Args {
		args = append(args, f.operand(f.lowerExpr(arg)))
	}
	result := f.newTemp()
	f.emit(&Call{Dst: result, Target: &Name{Label: CtorLabel(newObj.Ctor)}, Args: append([]Value{obj}, args...)})
	return result
}

func (f *funcLowerer) lowerNewArray(newArr *compiler.NewArrayAst) Value {
	length := f.inTemp(f.lowerExpr(newArr.Size))
	f.emit(&CJump{Cond: &Bin{Op: Lt, L: length, R: &Const{}}, True: ErrLabel})

	size := f.newTemp()
	f.emit(&Move{Dst: size, Src: &Bin{Op: Mul, L: length, R: &Const{Val: WordSize}}})
	total := f.newTemp()
	f.emit(&Move{Dst: total, Src: &Bin{Op: Add, L: size, R: &Const{Val: ArrayBase}}})
	array := f.newTemp()
	f.emit(&Call{Dst: array, Target: &Name{Label: MallocLabel}, Args: []Value{total}})
	f.emit(&Move{Dst: &Mem{Addr: array}, Src: &Name{Label: ArrayVtable}})
	f.emit(&Move{Dst: &Mem{Addr: array, Off: ArrayLenOff}, Src: length})

	// Zero the elements with a small loop.
	index := f.newTemp()
	f.emit(&Move{Dst: index, Src: &Const{}})
	topLabel, bodyLabel, doneLabel := f.label("zarr"), f.label("zarr_b"), f.label("zarr_d")
	f.emit(&Label{Name: topLabel})
	f.emit(&CJump{Cond: &Bin{Op: Ge, L: index, R: length}, True: doneLabel, False: bodyLabel})
	f.emit(&Label{Name: bodyLabel})
	scaled := f.newTemp()
	f.emit(&Move{Dst: scaled, Src: &Bin{Op: Mul, L: index, R: &Const{Val: WordSize}}})
	addr := f.newTemp()
	f.emit(&Move{Dst: addr, Src: &Bin{Op: Add, L: array, R: scaled}})
	f.emit(&Move{Dst: &Mem{Addr: addr, Off: ArrayBase}, Src: &Const{}})
	f.emit(&Move{Dst: index, Src: &Bin{Op: Add, L: index, R: &Const{Val: 1}}})
	f.emit(&Jump{Target: topLabel})
	f.emit(&Label{Name: doneLabel})
	return array
}
