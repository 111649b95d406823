package compiler

import (
	"io"
	"strings"
)

// A recursive descent parser for the joos grammar. One Parse call handles one
// compilation unit. The parser builds the typed ast directly, there is no
// separate concrete tree: every reduction that the grammar would do is a
// method here.

type Parser struct {
	fileName string
	tokens   []*Token
	pos      int
}

func (parser *Parser) reset() {
	parser.fileName = ""
	parser.tokens = nil
	parser.pos = 0
}

func (parser *Parser) Parse(fileName string, reader io.Reader) (*UnitAst, error) {
	tokenizer := &Tokenizer{}
	tokens, err := tokenizer.Tokenize(fileName, reader)
	if err != nil {
		return nil, err
	}
	parser.fileName = fileName
	parser.tokens = tokens
	parser.pos = 0
	return parser.parseCompilationUnit()
}

func (parser *Parser) cur() *Token {
	return parser.tokens[parser.pos]
}

// la peeks k tokens ahead without consuming anything.
func (parser *Parser) la(k int) *Token {
	if parser.pos+k >= len(parser.tokens) {
		return parser.tokens[len(parser.tokens)-1]
	}
	return parser.tokens[parser.pos+k]
}

func (parser *Parser) advance() *Token {
	tok := parser.tokens[parser.pos]
	if tok.tp != EofTP {
		parser.pos++
	}
	return tok
}

func (parser *Parser) match(tp TokenType) bool {
	if parser.cur().tp == tp {
		parser.advance()
		return true
	}
	return false
}

func (parser *Parser) expect(tp TokenType, what string) (*Token, error) {
	if parser.cur().tp != tp {
		return nil, makeSyntaxError(parser.fileName, parser.cur(), "expected %s but found %q", what, parser.cur().content)
	}
	return parser.advance(), nil
}

func (parser *Parser) syntaxError(format string, args ...interface{}) error {
	return makeSyntaxError(parser.fileName, parser.cur(), format, args...)
}

// parseQualifiedName reads id {. id} and returns the joined name.
func (parser *Parser) parseQualifiedName() (string, error) {
	tok, err := parser.expect(IdentifierTP, "identifier")
	if err != nil {
		return "", err
	}
	parts := []string{tok.content}
	for parser.cur().tp == DotTP && parser.la(1).tp == IdentifierTP {
		parser.advance()
		parts = append(parts, parser.advance().content)
	}
	return strings.Join(parts, "."), nil
}

func (parser *Parser) parseCompilationUnit() (*UnitAst, error) {
	unit := &UnitAst{FileName: parser.fileName}
	if parser.match(PackageTP) {
		name, err := parser.parseQualifiedName()
		if err != nil {
			return nil, err
		}
		unit.PackageName = name
		if _, err := parser.expect(SemiColonTP, ";"); err != nil {
			return nil, err
		}
	}
	for parser.cur().tp == ImportTP {
		imp, err := parser.parseImport()
		if err != nil {
			return nil, err
		}
		unit.Imports = append(unit.Imports, imp)
	}
	typeDecl, err := parser.parseTypeDeclaration()
	if err != nil {
		return nil, err
	}
	typeDecl.Unit = unit
	unit.Type = typeDecl
	if parser.cur().tp != EofTP {
		return nil, parser.syntaxError("one top level type per file, found %q after it", parser.cur().content)
	}
	return unit, nil
}

func (parser *Parser) parseImport() (*ImportAst, error) {
	start := parser.cur()
	parser.advance() // import
	tok, err := parser.expect(IdentifierTP, "identifier")
	if err != nil {
		return nil, err
	}
	parts := []string{tok.content}
	onDemand := false
	for parser.cur().tp == DotTP {
		parser.advance()
		if parser.cur().tp == MultiplyTP {
			parser.advance()
			onDemand = true
			break
		}
		tok, err := parser.expect(IdentifierTP, "identifier")
		if err != nil {
			return nil, err
		}
		parts = append(parts, tok.content)
	}
	if _, err := parser.expect(SemiColonTP, ";"); err != nil {
		return nil, err
	}
	return &ImportAst{Name: strings.Join(parts, "."), OnDemand: onDemand, line: start.line, col: start.col}, nil
}

func (parser *Parser) parseModifiers() Modifiers {
	var mods Modifiers
	for {
		switch parser.cur().tp {
		case PublicTP:
			mods |= PublicModifier
		case ProtectedTP:
			mods |= ProtectedModifier
		case StaticTP:
			mods |= StaticModifier
		case FinalTP:
			mods |= FinalModifier
		case AbstractTP:
			mods |= AbstractModifier
		case NativeTP:
			mods |= NativeModifier
		default:
			return mods
		}
		parser.advance()
	}
}

func (parser *Parser) parseTypeDeclaration() (*TypeAst, error) {
	start := parser.cur()
	mods := parser.parseModifiers()
	switch parser.cur().tp {
	case ClassTP:
		return parser.parseClassDeclaration(mods, start)
	case InterfaceTP:
		return parser.parseInterfaceDeclaration(mods, start)
	}
	return nil, parser.syntaxError("expected class or interface declaration")
}

func (parser *Parser) parseClassDeclaration(mods Modifiers, start *Token) (*TypeAst, error) {
	parser.advance() // class
	nameTok, err := parser.expect(IdentifierTP, "class name")
	if err != nil {
		return nil, err
	}
	decl := &TypeAst{
		Kind:      ClassDeclKind,
		Name:      nameTok.content,
		Modifiers: mods,
		line:      start.line,
		col:       start.col,
	}
	if parser.match(ExtendsTP) {
		name, err := parser.parseQualifiedName()
		if err != nil {
			return nil, err
		}
		decl.ExtendNames = []string{name}
	}
	if parser.match(ImplementsTP) {
		for {
			name, err := parser.parseQualifiedName()
			if err != nil {
				return nil, err
			}
			decl.ImplementNames = append(decl.ImplementNames, name)
			if !parser.match(CommaTP) {
				break
			}
		}
	}
	if err := parser.parseClassBody(decl); err != nil {
		return nil, err
	}
	return decl, nil
}

func (parser *Parser) parseInterfaceDeclaration(mods Modifiers, start *Token) (*TypeAst, error) {
	parser.advance() // interface
	nameTok, err := parser.expect(IdentifierTP, "interface name")
	if err != nil {
		return nil, err
	}
	decl := &TypeAst{
		Kind:      InterfaceDeclKind,
		Name:      nameTok.content,
		Modifiers: mods,
		line:      start.line,
		col:       start.col,
	}
	if parser.match(ExtendsTP) {
		for {
			name, err := parser.parseQualifiedName()
			if err != nil {
				return nil, err
			}
			decl.ExtendNames = append(decl.ExtendNames, name)
			if !parser.match(CommaTP) {
				break
			}
		}
	}
	if err := parser.parseClassBody(decl); err != nil {
		return nil, err
	}
	return decl, nil
}

func (parser *Parser) parseClassBody(decl *TypeAst) error {
	if _, err := parser.expect(LeftBraceTP, "{"); err != nil {
		return err
	}
	for parser.cur().tp != RightBraceTP {
		if parser.cur().tp == EofTP {
			return parser.syntaxError("unexpected end of file in class body")
		}
		if parser.match(SemiColonTP) {
			continue
		}
		if err := parser.parseMember(decl); err != nil {
			return err
		}
	}
	parser.advance() // }
	return nil
}

// parseMember parses one field, method or constructor declaration.
func (parser *Parser) parseMember(decl *TypeAst) error {
	start := parser.cur()
	mods := parser.parseModifiers()

	// Constructor: an identifier matching the class name directly followed
	// by a parameter list.
	if parser.cur().tp == IdentifierTP && parser.cur().content == decl.Name && parser.la(1).tp == LeftParenTP {
		return parser.parseConstructor(decl, mods, start)
	}

	var returnTP *VariableType
	if parser.match(VoidTP) {
		returnTP = voidType
	} else {
		tp, err := parser.parseType()
		if err != nil {
			return err
		}
		returnTP = tp
	}
	nameTok, err := parser.expect(IdentifierTP, "member name")
	if err != nil {
		return err
	}
	if parser.cur().tp == LeftParenTP {
		return parser.parseMethodRest(decl, mods, returnTP, nameTok, start)
	}
	// Field declaration.
	if returnTP.TP == VoidType {
		return parser.syntaxError("field %s cannot have type void", nameTok.content)
	}
	field := &FieldAst{
		Owner:     decl,
		Name:      nameTok.content,
		Modifiers: mods,
		TP:        returnTP,
		Index:     len(decl.Fields),
		line:      start.line,
		col:       start.col,
	}
	if parser.match(AssignTP) {
		expr, err := parser.parseExpression()
		if err != nil {
			return err
		}
		field.Init = expr
	}
	if _, err := parser.expect(SemiColonTP, ";"); err != nil {
		return err
	}
	decl.Fields = append(decl.Fields, field)
	return nil
}

func (parser *Parser) parseConstructor(decl *TypeAst, mods Modifiers, start *Token) error {
	parser.advance() // class name
	params, err := parser.parseParamList()
	if err != nil {
		return err
	}
	body, err := parser.parseBlockStatements()
	if err != nil {
		return err
	}
	decl.Constructors = append(decl.Constructors, &ConstructorAst{
		Owner:     decl,
		Modifiers: mods,
		Params:    params,
		Body:      body,
		line:      start.line,
		col:       start.col,
	})
	return nil
}

func (parser *Parser) parseMethodRest(decl *TypeAst, mods Modifiers, returnTP *VariableType, nameTok, start *Token) error {
	params, err := parser.parseParamList()
	if err != nil {
		return err
	}
	method := &MethodAst{
		Owner:      decl,
		Name:       nameTok.content,
		Modifiers:  mods,
		ReturnTP:   returnTP,
		Params:     params,
		line:       start.line,
		col:        start.col,
		VtableSlot: -1,
	}
	if parser.match(ThrowsTP) {
		for {
			name, err := parser.parseQualifiedName()
			if err != nil {
				return err
			}
			method.Throws = append(method.Throws, name)
			if !parser.match(CommaTP) {
				break
			}
		}
	}
	if parser.match(SemiColonTP) {
		// abstract or native, no body
	} else {
		body, err := parser.parseBlockStatements()
		if err != nil {
			return err
		}
		method.Body = body
		method.HasBody = true
	}
	if decl.Kind == InterfaceDeclKind {
		method.Modifiers |= AbstractModifier
	}
	decl.Methods = append(decl.Methods, method)
	return nil
}

func (parser *Parser) parseParamList() ([]*ParamAst, error) {
	if _, err := parser.expect(LeftParenTP, "("); err != nil {
		return nil, err
	}
	var params []*ParamAst
	if parser.cur().tp != RightParenTP {
		for {
			start := parser.cur()
			tp, err := parser.parseType()
			if err != nil {
				return nil, err
			}
			nameTok, err := parser.expect(IdentifierTP, "parameter name")
			if err != nil {
				return nil, err
			}
			params = append(params, &ParamAst{Name: nameTok.content, TP: tp, line: start.line, col: start.col})
			if !parser.match(CommaTP) {
				break
			}
		}
	}
	if _, err := parser.expect(RightParenTP, ")"); err != nil {
		return nil, err
	}
	return params, nil
}

// parseType parses a primitive or reference type with optional [].
// Multi dimensional arrays are not part of joos, the second [ is an error.
func (parser *Parser) parseType() (*VariableType, error) {
	base, err := parser.parseBaseType()
	if err != nil {
		return nil, err
	}
	if parser.cur().tp == LeftBracketTP && parser.la(1).tp == RightBracketTP {
		parser.advance()
		parser.advance()
		if parser.cur().tp == LeftBracketTP {
			return nil, parser.syntaxError("multidimensional arrays are not supported")
		}
		return arrayOf(base), nil
	}
	return base, nil
}

func (parser *Parser) parseBaseType() (*VariableType, error) {
	switch parser.cur().tp {
	case IntTP:
		parser.advance()
		return intType, nil
	case ShortTP:
		parser.advance()
		return shortType, nil
	case ByteTP:
		parser.advance()
		return byteType, nil
	case CharTP:
		parser.advance()
		return charType, nil
	case BooleanTP:
		parser.advance()
		return booleanType, nil
	case IdentifierTP:
		name, err := parser.parseQualifiedName()
		if err != nil {
			return nil, err
		}
		return &VariableType{TP: RefType, Name: name}, nil
	}
	return nil, parser.syntaxError("expected a type but found %q", parser.cur().content)
}

// isTypeStart reports whether a statement beginning at the current token is a
// local variable declaration. For identifiers we look ahead: a dotted name
// followed by another identifier, or by [], is a type.
func (parser *Parser) isTypeStart() bool {
	switch parser.cur().tp {
	case IntTP, ShortTP, ByteTP, CharTP, BooleanTP:
		return true
	case IdentifierTP:
		i := 1
		for parser.la(i).tp == DotTP && parser.la(i+1).tp == IdentifierTP {
			i += 2
		}
		if parser.la(i).tp == IdentifierTP {
			return true
		}
		if parser.la(i).tp == LeftBracketTP && parser.la(i+1).tp == RightBracketTP {
			return true
		}
	}
	return false
}

// ----- statements -----

func (parser *Parser) parseBlockStatements() ([]*StatementAst, error) {
	if _, err := parser.expect(LeftBraceTP, "{"); err != nil {
		return nil, err
	}
	var statements []*StatementAst
	for parser.cur().tp != RightBraceTP {
		if parser.cur().tp == EofTP {
			return nil, parser.syntaxError("unexpected end of file in block")
		}
		stm, err := parser.parseStatement()
		if err != nil {
			return nil, err
		}
		statements = append(statements, stm)
	}
	parser.advance() // }
	return statements, nil
}

func (parser *Parser) parseStatement() (*StatementAst, error) {
	start := parser.cur()
	switch start.tp {
	case LeftBraceTP:
		statements, err := parser.parseBlockStatements()
		if err != nil {
			return nil, err
		}
		return statement(BlockStatementTP, &BlockStatementAst{Statements: statements}, start), nil
	case SemiColonTP:
		parser.advance()
		return statement(EmptyStatementTP, nil, start), nil
	case IfTP:
		return parser.parseIfStatement()
	case WhileTP:
		return parser.parseWhileStatement()
	case ForTP:
		return parser.parseForStatement()
	case ReturnTP:
		return parser.parseReturnStatement()
	}
	if parser.isTypeStart() {
		return parser.parseVarDeclStatement()
	}
	expr, err := parser.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := parser.expect(SemiColonTP, ";"); err != nil {
		return nil, err
	}
	return statement(ExprStatementTP, expr, start), nil
}

func statement(tp StatementType, payload interface{}, start *Token) *StatementAst {
	return &StatementAst{StatementTP: tp, Statement: payload, line: start.line, col: start.col}
}

func (parser *Parser) parseVarDeclStatement() (*StatementAst, error) {
	start := parser.cur()
	tp, err := parser.parseType()
	if err != nil {
		return nil, err
	}
	nameTok, err := parser.expect(IdentifierTP, "variable name")
	if err != nil {
		return nil, err
	}
	decl := &VarDeclAst{Name: nameTok.content, TP: tp}
	if parser.match(AssignTP) {
		expr, err := parser.parseExpression()
		if err != nil {
			return nil, err
		}
		decl.Init = expr
	}
	if _, err := parser.expect(SemiColonTP, ";"); err != nil {
		return nil, err
	}
	return statement(VarDeclStatementTP, decl, start), nil
}

func (parser *Parser) parseIfStatement() (*StatementAst, error) {
	start := parser.advance() // if
	if _, err := parser.expect(LeftParenTP, "("); err != nil {
		return nil, err
	}
	cond, err := parser.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := parser.expect(RightParenTP, ")"); err != nil {
		return nil, err
	}
	then, err := parser.parseStatement()
	if err != nil {
		return nil, err
	}
	ifAst := &IfStatementAst{Condition: cond, Then: then}
	if parser.match(ElseTP) {
		elseStm, err := parser.parseStatement()
		if err != nil {
			return nil, err
		}
		ifAst.Else = elseStm
	}
	return statement(IfStatementTP, ifAst, start), nil
}

func (parser *Parser) parseWhileStatement() (*StatementAst, error) {
	start := parser.advance() // while
	if _, err := parser.expect(LeftParenTP, "("); err != nil {
		return nil, err
	}
	cond, err := parser.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := parser.expect(RightParenTP, ")"); err != nil {
		return nil, err
	}
	body, err := parser.parseStatement()
	if err != nil {
		return nil, err
	}
	return statement(WhileStatementTP, &WhileStatementAst{Condition: cond, Body: body}, start), nil
}

func (parser *Parser) parseForStatement() (*StatementAst, error) {
	start := parser.advance() // for
	if _, err := parser.expect(LeftParenTP, "("); err != nil {
		return nil, err
	}
	forAst := &ForStatementAst{}
	if parser.cur().tp != SemiColonTP {
		if parser.isTypeStart() {
			init, err := parser.parseVarDeclStatement()
			if err != nil {
				return nil, err
			}
			forAst.Init = init
		} else {
			expr, err := parser.parseExpression()
			if err != nil {
				return nil, err
			}
			forAst.Init = statement(ExprStatementTP, expr, start)
			if _, err := parser.expect(SemiColonTP, ";"); err != nil {
				return nil, err
			}
		}
	} else {
		parser.advance()
	}
	if parser.cur().tp != SemiColonTP {
		cond, err := parser.parseExpression()
		if err != nil {
			return nil, err
		}
		forAst.Condition = cond
	}
	if _, err := parser.expect(SemiColonTP, ";"); err != nil {
		return nil, err
	}
	if parser.cur().tp != RightParenTP {
		update, err := parser.parseExpression()
		if err != nil {
			return nil, err
		}
		forAst.Update = update
	}
	if _, err := parser.expect(RightParenTP, ")"); err != nil {
		return nil, err
	}
	body, err := parser.parseStatement()
	if err != nil {
		return nil, err
	}
	forAst.Body = body
	return statement(ForStatementTP, forAst, start), nil
}

func (parser *Parser) parseReturnStatement() (*StatementAst, error) {
	start := parser.advance() // return
	ret := &ReturnStatementAst{}
	if parser.cur().tp != SemiColonTP {
		expr, err := parser.parseExpression()
		if err != nil {
			return nil, err
		}
		ret.Value = expr
	}
	if _, err := parser.expect(SemiColonTP, ";"); err != nil {
		return nil, err
	}
	return statement(ReturnStatementTP, ret, start), nil
}

// ----- expressions -----

func expression(tp ExpressionType, payload interface{}, tok *Token) *ExpressionAst {
	return &ExpressionAst{TP: tp, Value: payload, line: tok.line, col: tok.col}
}

// parseExpression parses an assignment, the lowest precedence level.
// Assignment is right associative.
func (parser *Parser) parseExpression() (*ExpressionAst, error) {
	start := parser.cur()
	lhs, err := parser.parseOrExpression()
	if err != nil {
		return nil, err
	}
	if parser.cur().tp == AssignTP {
		parser.advance()
		rhs, err := parser.parseExpression()
		if err != nil {
			return nil, err
		}
		return expression(AssignExprTP, &AssignExprAst{Lhs: lhs, Rhs: rhs}, start), nil
	}
	return lhs, nil
}

type binaryLevel struct {
	ops  map[TokenType]OpCode
	next func(parser *Parser) (*ExpressionAst, error)
}

func (parser *Parser) parseBinaryLevel(level binaryLevel) (*ExpressionAst, error) {
	start := parser.cur()
	left, err := level.next(parser)
	if err != nil {
		return nil, err
	}
	for {
		op, ok := level.ops[parser.cur().tp]
		if !ok {
			return left, nil
		}
		parser.advance()
		right, err := level.next(parser)
		if err != nil {
			return nil, err
		}
		left = expression(BinaryExprTP, &BinaryExprAst{Op: op, Left: left, Right: right}, start)
	}
}

func (parser *Parser) parseOrExpression() (*ExpressionAst, error) {
	return parser.parseBinaryLevel(binaryLevel{
		ops:  map[TokenType]OpCode{OrOrTP: OrOrOp},
		next: (*Parser).parseAndExpression,
	})
}

func (parser *Parser) parseAndExpression() (*ExpressionAst, error) {
	return parser.parseBinaryLevel(binaryLevel{
		ops:  map[TokenType]OpCode{AndAndTP: AndAndOp},
		next: (*Parser).parseEagerOrExpression,
	})
}

func (parser *Parser) parseEagerOrExpression() (*ExpressionAst, error) {
	return parser.parseBinaryLevel(binaryLevel{
		ops:  map[TokenType]OpCode{OrTP: OrOp},
		next: (*Parser).parseEagerAndExpression,
	})
}

func (parser *Parser) parseEagerAndExpression() (*ExpressionAst, error) {
	return parser.parseBinaryLevel(binaryLevel{
		ops:  map[TokenType]OpCode{AndTP: AndOp},
		next: (*Parser).parseEqualityExpression,
	})
}

func (parser *Parser) parseEqualityExpression() (*ExpressionAst, error) {
	return parser.parseBinaryLevel(binaryLevel{
		ops:  map[TokenType]OpCode{EqualEqualTP: EqOp, NotEqualTP: NeOp},
		next: (*Parser).parseRelationalExpression,
	})
}

func (parser *Parser) parseRelationalExpression() (*ExpressionAst, error) {
	start := parser.cur()
	left, err := parser.parseAdditiveExpression()
	if err != nil {
		return nil, err
	}
	for {
		switch parser.cur().tp {
		case LessTP, GreaterTP, LessEqualTP, GreaterEqualTP:
			op := map[TokenType]OpCode{LessTP: LtOp, GreaterTP: GtOp, LessEqualTP: LeOp, GreaterEqualTP: GeOp}[parser.cur().tp]
			parser.advance()
			right, err := parser.parseAdditiveExpression()
			if err != nil {
				return nil, err
			}
			left = expression(BinaryExprTP, &BinaryExprAst{Op: op, Left: left, Right: right}, start)
		case InstanceofTP:
			parser.advance()
			tp, err := parser.parseType()
			if err != nil {
				return nil, err
			}
			left = expression(InstanceofExprTP, &InstanceofAst{Expr: left, TargetTP: tp}, start)
		default:
			return left, nil
		}
	}
}

func (parser *Parser) parseAdditiveExpression() (*ExpressionAst, error) {
	return parser.parseBinaryLevel(binaryLevel{
		ops:  map[TokenType]OpCode{AddTP: AddOp, MinusTP: SubOp},
		next: (*Parser).parseMultiplicativeExpression,
	})
}

func (parser *Parser) parseMultiplicativeExpression() (*ExpressionAst, error) {
	return parser.parseBinaryLevel(binaryLevel{
		ops:  map[TokenType]OpCode{MultiplyTP: MulOp, DivideTP: DivOp, ModTP: ModOp},
		next: (*Parser).parseUnaryExpression,
	})
}

func (parser *Parser) parseUnaryExpression() (*ExpressionAst, error) {
	start := parser.cur()
	switch start.tp {
	case MinusTP:
		parser.advance()
		expr, err := parser.parseUnaryExpression()
		if err != nil {
			return nil, err
		}
		return expression(UnaryExprTP, &UnaryExprAst{Op: NegOp, Expr: expr}, start), nil
	case NotTP:
		parser.advance()
		expr, err := parser.parseUnaryExpression()
		if err != nil {
			return nil, err
		}
		return expression(UnaryExprTP, &UnaryExprAst{Op: NotOp, Expr: expr}, start), nil
	case LeftParenTP:
		if tp, width, ok := parser.castLookahead(); ok {
			for i := 0; i < width; i++ {
				parser.advance()
			}
			expr, err := parser.parseUnaryExpression()
			if err != nil {
				return nil, err
			}
			return expression(CastExprTP, &CastExprAst{TargetTP: tp, Expr: expr}, start), nil
		}
	}
	return parser.parsePostfixExpression()
}

// castLookahead decides whether a ( starts a cast. It returns the cast target
// type and the number of tokens the cast prefix spans, up to and including
// the closing paren. A primitive type always means a cast; for a dotted name
// the token after the closing paren must be able to start a unary expression.
func (parser *Parser) castLookahead() (*VariableType, int, bool) {
	i := 1
	var base *VariableType
	switch parser.la(i).tp {
	case IntTP:
		base = intType
	case ShortTP:
		base = shortType
	case ByteTP:
		base = byteType
	case CharTP:
		base = charType
	case BooleanTP:
		base = booleanType
	case IdentifierTP:
		parts := []string{parser.la(i).content}
		for parser.la(i+1).tp == DotTP && parser.la(i+2).tp == IdentifierTP {
			parts = append(parts, parser.la(i+2).content)
			i += 2
		}
		base = &VariableType{TP: RefType, Name: strings.Join(parts, ".")}
	default:
		return nil, 0, false
	}
	primitive := base.TP != RefType
	i++
	isArray := false
	if parser.la(i).tp == LeftBracketTP && parser.la(i+1).tp == RightBracketTP {
		isArray = true
		i += 2
	}
	if parser.la(i).tp != RightParenTP {
		return nil, 0, false
	}
	i++
	target := base
	if isArray {
		target = arrayOf(base)
	}
	if primitive || isArray {
		return target, i, true
	}
	// Reference cast only when what follows can start a unary expression.
	switch parser.la(i).tp {
	case IdentifierTP, IntegerTP, CharLiteralTP, StringTP, TrueTP, FalseTP,
		NullTP, ThisTP, NewTP, LeftParenTP, NotTP:
		return target, i, true
	}
	return nil, 0, false
}

// parsePostfixExpression parses a primary followed by any number of
// .field, .method(args) and [index] suffixes.
func (parser *Parser) parsePostfixExpression() (*ExpressionAst, error) {
	start := parser.cur()
	expr, err := parser.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch parser.cur().tp {
		case DotTP:
			parser.advance()
			nameTok, err := parser.expect(IdentifierTP, "member name")
			if err != nil {
				return nil, err
			}
			if parser.cur().tp == LeftParenTP {
				args, err := parser.parseArguments()
				if err != nil {
					return nil, err
				}
				expr = expression(CallExprTP, &CallExprAst{Target: expr, Name: nameTok.content, Args: args}, start)
			} else {
				expr = expression(FieldAccessTP, &FieldAccessAst{Target: expr, Name: nameTok.content}, start)
			}
		case LeftBracketTP:
			parser.advance()
			index, err := parser.parseExpression()
			if err != nil {
				return nil, err
			}
			if _, err := parser.expect(RightBracketTP, "]"); err != nil {
				return nil, err
			}
			expr = expression(ArrayAccessTP, &ArrayAccessAst{Array: expr, Index: index}, start)
		default:
			return expr, nil
		}
	}
}

func (parser *Parser) parseArguments() ([]*ExpressionAst, error) {
	if _, err := parser.expect(LeftParenTP, "("); err != nil {
		return nil, err
	}
	var args []*ExpressionAst
	if parser.cur().tp != RightParenTP {
		for {
			arg, err := parser.parseExpression()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if !parser.match(CommaTP) {
				break
			}
		}
	}
	if _, err := parser.expect(RightParenTP, ")"); err != nil {
		return nil, err
	}
	return args, nil
}

func (parser *Parser) parsePrimary() (*ExpressionAst, error) {
	start := parser.cur()
	switch start.tp {
	case IntegerTP:
		parser.advance()
		return expression(IntegerLiteralTP, &IntegerLiteralAst{Raw: start.content}, start), nil
	case CharLiteralTP:
		parser.advance()
		return expression(CharLiteralExprTP, &CharLiteralAst{Value: start.content[0]}, start), nil
	case StringTP:
		parser.advance()
		return expression(StringLiteralTP, &StringLiteralAst{Value: start.content}, start), nil
	case TrueTP:
		parser.advance()
		return expression(BooleanLiteralTP, &BooleanLiteralAst{Value: true}, start), nil
	case FalseTP:
		parser.advance()
		return expression(BooleanLiteralTP, &BooleanLiteralAst{Value: false}, start), nil
	case NullTP:
		parser.advance()
		return expression(NullLiteralTP, nil, start), nil
	case ThisTP:
		parser.advance()
		return expression(ThisExprTP, nil, start), nil
	case LeftParenTP:
		parser.advance()
		expr, err := parser.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := parser.expect(RightParenTP, ")"); err != nil {
			return nil, err
		}
		return expr, nil
	case NewTP:
		return parser.parseNewExpression()
	case IdentifierTP:
		return parser.parseNameOrCall()
	}
	return nil, parser.syntaxError("unexpected token %q in expression", start.content)
}

func (parser *Parser) parseNewExpression() (*ExpressionAst, error) {
	start := parser.advance() // new
	base, err := parser.parseBaseType()
	if err != nil {
		return nil, err
	}
	if parser.cur().tp == LeftBracketTP {
		parser.advance()
		size, err := parser.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := parser.expect(RightBracketTP, "]"); err != nil {
			return nil, err
		}
		if parser.cur().tp == LeftBracketTP {
			return nil, parser.syntaxError("multidimensional array creation is not supported")
		}
		return expression(NewArrayTP, &NewArrayAst{ElemTP: base, Size: size}, start), nil
	}
	if base.TP != RefType {
		return nil, parser.syntaxError("cannot instantiate primitive type %s", base)
	}
	args, err := parser.parseArguments()
	if err != nil {
		return nil, err
	}
	return expression(NewObjectTP, &NewObjectAst{TypeName: base.Name, Args: args}, start), nil
}

// parseNameOrCall parses a dotted name, which may end in a method call:
// a.b.c becomes a NameExpr, a.b.c(args) becomes a call whose target is the
// NameExpr a.b.
func (parser *Parser) parseNameOrCall() (*ExpressionAst, error) {
	start := parser.cur()
	ids := []string{parser.advance().content}
	for parser.cur().tp == DotTP && parser.la(1).tp == IdentifierTP {
		parser.advance()
		ids = append(ids, parser.advance().content)
	}
	if parser.cur().tp == LeftParenTP {
		args, err := parser.parseArguments()
		if err != nil {
			return nil, err
		}
		call := &CallExprAst{Name: ids[len(ids)-1], Args: args}
		if len(ids) > 1 {
			call.Target = expression(NameExprTP, &NameExprAst{Ids: ids[:len(ids)-1]}, start)
		}
		return expression(CallExprTP, call, start), nil
	}
	return expression(NameExprTP, &NameExprAst{Ids: ids}, start), nil
}
