package compiler

// Joos 1W is a subset of java 1.3, so the token set here is the java token set
// minus everything the grammar never reaches (no floating point literals, no
// bit shift operators, no ternary). Operators outside the grammar (like ++)
// have no token of their own: ++ comes out as two + tokens and the parser
// rejects it from there.

type TokenType int

const (
	AbstractTP     TokenType = iota // abstract
	BooleanTP                       // boolean
	ByteTP                          // byte
	CharTP                          // char
	ClassTP                         // class
	ElseTP                          // else
	ExtendsTP                       // extends
	FinalTP                         // final
	ForTP                           // for
	IfTP                            // if
	ImplementsTP                    // implements
	ImportTP                        // import
	InstanceofTP                    // instanceof
	IntTP                           // int
	InterfaceTP                     // interface
	NativeTP                        // native
	NewTP                           // new
	PackageTP                       // package
	ProtectedTP                     // protected
	PublicTP                        // public
	ReturnTP                        // return
	ShortTP                         // short
	StaticTP                        // static
	ThisTP                          // this
	ThrowsTP                        // throws
	VoidTP                          // void
	WhileTP                         // while
	TrueTP                          // true
	FalseTP                         // false
	NullTP                          // null
	LeftBraceTP                     // {
	RightBraceTP                    // }
	LeftParenTP                     // (
	RightParenTP                    // )
	LeftBracketTP                   // [
	RightBracketTP                  // ]
	DotTP                           // .
	CommaTP                         // ,
	SemiColonTP                     // ;
	AddTP                           // +
	MinusTP                         // -
	MultiplyTP                      // *
	DivideTP                        // /
	ModTP                           // %
	AndTP                           // &
	OrTP                            // |
	AndAndTP                        // &&
	OrOrTP                          // ||
	NotTP                           // !
	GreaterTP                       // >
	LessTP                          // <
	GreaterEqualTP                  // >=
	LessEqualTP                     // <=
	EqualEqualTP                    // ==
	NotEqualTP                      // !=
	AssignTP                        // =
	IntegerTP                       // 1010
	CharLiteralTP                   // 'c'
	StringTP                        // "xxx"
	IdentifierTP                    // varA
	EofTP
)

// keyWordTokenTPMap is the mapping from keyWord to the corresponding TokenTP.
// Reserved words of full java that joos drops (switch, try, synchronized, ...)
// are not in here; they are listed in reservedButUnsupported below.
var keyWordTokenTPMap = map[string]TokenType{
	"abstract":   AbstractTP,
	"boolean":    BooleanTP,
	"byte":       ByteTP,
	"char":       CharTP,
	"class":      ClassTP,
	"else":       ElseTP,
	"extends":    ExtendsTP,
	"final":      FinalTP,
	"for":        ForTP,
	"if":         IfTP,
	"implements": ImplementsTP,
	"import":     ImportTP,
	"instanceof": InstanceofTP,
	"int":        IntTP,
	"interface":  InterfaceTP,
	"native":     NativeTP,
	"new":        NewTP,
	"package":    PackageTP,
	"protected":  ProtectedTP,
	"public":     PublicTP,
	"return":     ReturnTP,
	"short":      ShortTP,
	"static":     StaticTP,
	"this":       ThisTP,
	"throws":     ThrowsTP,
	"void":       VoidTP,
	"while":      WhileTP,
	"true":       TrueTP,
	"false":      FalseTP,
	"null":       NullTP,
}

// reservedButUnsupported are java keywords that joos has no grammar for at
// all. They must still not be usable as identifiers.
var reservedButUnsupported = map[string]bool{
	"break": true, "case": true, "catch": true, "const": true,
	"continue": true, "default": true, "do": true, "double": true,
	"finally": true, "float": true, "goto": true, "long": true,
	"private": true, "strictfp": true, "super": true, "switch": true,
	"synchronized": true, "throw": true, "transient": true, "try": true,
	"volatile": true,
}

// simpleSymbolTokenTPMap holds the symbols which are a single byte and never
// the prefix of a longer symbol, so the tokenizer can map them directly.
var simpleSymbolTokenTPMap = map[byte]TokenType{
	'{': LeftBraceTP,
	'}': RightBraceTP,
	'(': LeftParenTP,
	')': RightParenTP,
	'[': LeftBracketTP,
	']': RightBracketTP,
	'.': DotTP,
	',': CommaTP,
	';': SemiColonTP,
	'+': AddTP,
	'-': MinusTP,
	'*': MultiplyTP,
	'%': ModTP,
}

type Token struct {
	content string
	tp      TokenType
	line    int
	col     int
}

func (t *Token) String() string {
	return t.content
}
