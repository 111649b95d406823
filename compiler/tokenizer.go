package compiler

import (
	"bufio"
	"io"
	"strings"

	"joosc/util"
)

// A simple Tokenizer for joos source files. The input is required to be ascii,
// so we can scan byte by byte and don't bother with utf8 decoding.

type Tokenizer struct {
	fileName string
	reader   *bufio.Reader
	tokens   []*Token
	line     int
	col      int
	// one byte of pushback is enough for every token in the language.
	peeked   byte
	hasPeek  bool
	reachEnd bool
}

func (tokenizer *Tokenizer) Reset() {
	tokenizer.fileName = ""
	tokenizer.reader = nil
	tokenizer.tokens = nil
	tokenizer.line, tokenizer.col = 0, 0
	tokenizer.hasPeek, tokenizer.reachEnd = false, false
}

func (tokenizer *Tokenizer) Tokenize(fileName string, reader io.Reader) ([]*Token, error) {
	tokenizer.fileName = fileName
	tokenizer.reader = bufio.NewReader(reader)
	tokenizer.line, tokenizer.col = 1, 0
	for {
		b, ok := tokenizer.next()
		if !ok {
			break
		}
		if util.IsSpace(b) {
			continue
		}
		err := tokenizer.scanOne(b)
		if err != nil {
			return nil, err
		}
	}
	tokenizer.tokens = append(tokenizer.tokens, &Token{tp: EofTP, line: tokenizer.line, col: tokenizer.col})
	return tokenizer.tokens, nil
}

func (tokenizer *Tokenizer) next() (byte, bool) {
	if tokenizer.hasPeek {
		tokenizer.hasPeek = false
		tokenizer.bump(tokenizer.peeked)
		return tokenizer.peeked, true
	}
	if tokenizer.reachEnd {
		return 0, false
	}
	b, err := tokenizer.reader.ReadByte()
	if err != nil {
		tokenizer.reachEnd = true
		return 0, false
	}
	if b >= 0x80 {
		// Non ascii bytes never start a valid joos token.
		tokenizer.reachEnd = true
		return 0, false
	}
	tokenizer.bump(b)
	return b, true
}

func (tokenizer *Tokenizer) bump(b byte) {
	if b == '\n' {
		tokenizer.line++
		tokenizer.col = 0
	} else {
		tokenizer.col++
	}
}

// peek returns the next byte without consuming it. The line/col bookkeeping
// happens when the byte is actually consumed through next.
func (tokenizer *Tokenizer) peek() (byte, bool) {
	if tokenizer.hasPeek {
		return tokenizer.peeked, true
	}
	if tokenizer.reachEnd {
		return 0, false
	}
	b, err := tokenizer.reader.ReadByte()
	if err != nil {
		tokenizer.reachEnd = true
		return 0, false
	}
	tokenizer.peeked, tokenizer.hasPeek = b, true
	return b, true
}

func (tokenizer *Tokenizer) emit(content string, tp TokenType) {
	tokenizer.tokens = append(tokenizer.tokens, &Token{
		content: content,
		tp:      tp,
		line:    tokenizer.line,
		col:     tokenizer.col - len(content) + 1,
	})
}

func (tokenizer *Tokenizer) scanOne(b byte) error {
	if tp, ok := simpleSymbolTokenTPMap[b]; ok {
		tokenizer.emit(string(b), tp)
		return nil
	}
	switch {
	case b == '/':
		return tokenizer.scanSlash()
	case b == '&' || b == '|':
		return tokenizer.scanLogical(b)
	case b == '<' || b == '>' || b == '=' || b == '!':
		return tokenizer.scanComparison(b)
	case b == '\'':
		return tokenizer.scanCharLiteral()
	case b == '"':
		return tokenizer.scanStringLiteral()
	case util.IsNumber(b):
		return tokenizer.scanInteger(b)
	case util.IsIdentifierStart(b):
		return tokenizer.scanWord(b)
	}
	return makeLexError(tokenizer.fileName, tokenizer.line, tokenizer.col, "unexpected character %q", string(b))
}

// scanSlash handles /, // and /* */.
func (tokenizer *Tokenizer) scanSlash() error {
	p, ok := tokenizer.peek()
	if !ok || (p != '/' && p != '*') {
		tokenizer.emit("/", DivideTP)
		return nil
	}
	tokenizer.next()
	if p == '/' {
		for {
			b, ok := tokenizer.next()
			if !ok || b == '\n' {
				return nil
			}
		}
	}
	// multi line comment, scan until */
	var prev byte
	for {
		b, ok := tokenizer.next()
		if !ok {
			return makeLexError(tokenizer.fileName, tokenizer.line, tokenizer.col, "unterminated comment")
		}
		if prev == '*' && b == '/' {
			return nil
		}
		prev = b
	}
}

func (tokenizer *Tokenizer) scanLogical(b byte) error {
	p, ok := tokenizer.peek()
	if ok && p == b {
		tokenizer.next()
		if b == '&' {
			tokenizer.emit("&&", AndAndTP)
		} else {
			tokenizer.emit("||", OrOrTP)
		}
		return nil
	}
	if b == '&' {
		tokenizer.emit("&", AndTP)
	} else {
		tokenizer.emit("|", OrTP)
	}
	return nil
}

func (tokenizer *Tokenizer) scanComparison(b byte) error {
	p, ok := tokenizer.peek()
	if ok && p == '=' {
		tokenizer.next()
		switch b {
		case '<':
			tokenizer.emit("<=", LessEqualTP)
		case '>':
			tokenizer.emit(">=", GreaterEqualTP)
		case '=':
			tokenizer.emit("==", EqualEqualTP)
		case '!':
			tokenizer.emit("!=", NotEqualTP)
		}
		return nil
	}
	switch b {
	case '<':
		tokenizer.emit("<", LessTP)
	case '>':
		tokenizer.emit(">", GreaterTP)
	case '=':
		tokenizer.emit("=", AssignTP)
	case '!':
		tokenizer.emit("!", NotTP)
	}
	return nil
}

// scanEscape consumes the body of an escape sequence, the leading backslash is
// already consumed. Returns the decoded byte.
func (tokenizer *Tokenizer) scanEscape() (byte, error) {
	b, ok := tokenizer.next()
	if !ok {
		return 0, makeLexError(tokenizer.fileName, tokenizer.line, tokenizer.col, "unterminated escape sequence")
	}
	switch b {
	case 'b':
		return '\b', nil
	case 't':
		return '\t', nil
	case 'n':
		return '\n', nil
	case 'f':
		return '\f', nil
	case 'r':
		return '\r', nil
	case '"':
		return '"', nil
	case '\'':
		return '\'', nil
	case '\\':
		return '\\', nil
	}
	if util.IsOctal(b) {
		// one to three octal digits, value must fit a byte. A leading digit
		// above 3 allows at most two digits, same rule as java.
		val := int(b - '0')
		digits := 1
		max := 3
		if b > '3' {
			max = 2
		}
		for digits < max {
			p, ok := tokenizer.peek()
			if !ok || !util.IsOctal(p) {
				break
			}
			tokenizer.next()
			val = val*8 + int(p-'0')
			digits++
		}
		return byte(val), nil
	}
	return 0, makeLexError(tokenizer.fileName, tokenizer.line, tokenizer.col, "invalid escape sequence \\%s", string(b))
}

func (tokenizer *Tokenizer) scanCharLiteral() error {
	b, ok := tokenizer.next()
	if !ok || b == '\n' || b == '\'' {
		return makeLexError(tokenizer.fileName, tokenizer.line, tokenizer.col, "invalid character literal")
	}
	if b == '\\' {
		var err error
		b, err = tokenizer.scanEscape()
		if err != nil {
			return err
		}
	}
	closing, ok := tokenizer.next()
	if !ok || closing != '\'' {
		return makeLexError(tokenizer.fileName, tokenizer.line, tokenizer.col, "unterminated character literal")
	}
	tokenizer.emit(string(b), CharLiteralTP)
	return nil
}

func (tokenizer *Tokenizer) scanStringLiteral() error {
	var builder strings.Builder
	for {
		b, ok := tokenizer.next()
		if !ok || b == '\n' {
			return makeLexError(tokenizer.fileName, tokenizer.line, tokenizer.col, "unterminated string literal")
		}
		if b == '"' {
			tokenizer.tokens = append(tokenizer.tokens, &Token{
				content: builder.String(),
				tp:      StringTP,
				line:    tokenizer.line,
				col:     tokenizer.col,
			})
			return nil
		}
		if b == '\\' {
			decoded, err := tokenizer.scanEscape()
			if err != nil {
				return err
			}
			builder.WriteByte(decoded)
			continue
		}
		builder.WriteByte(b)
	}
}

func (tokenizer *Tokenizer) scanInteger(b byte) error {
	var builder strings.Builder
	builder.WriteByte(b)
	for {
		p, ok := tokenizer.peek()
		if !ok || !util.IsNumber(p) {
			break
		}
		tokenizer.next()
		builder.WriteByte(p)
	}
	// A digit directly followed by an identifier character is never valid.
	if p, ok := tokenizer.peek(); ok && util.IsIdentifierStart(p) {
		return makeLexError(tokenizer.fileName, tokenizer.line, tokenizer.col, "malformed integer literal")
	}
	// The literal value stays a string here. The weeder validates the range
	// because whether 2147483648 is legal depends on a surrounding unary
	// minus, which the tokenizer can't see.
	tokenizer.emit(builder.String(), IntegerTP)
	return nil
}

func (tokenizer *Tokenizer) scanWord(b byte) error {
	var builder strings.Builder
	builder.WriteByte(b)
	for {
		p, ok := tokenizer.peek()
		if !ok || !util.IsIdentifierPart(p) {
			break
		}
		tokenizer.next()
		builder.WriteByte(p)
	}
	word := builder.String()
	if tp, ok := keyWordTokenTPMap[word]; ok {
		tokenizer.emit(word, tp)
		return nil
	}
	if reservedButUnsupported[word] {
		return makeLexError(tokenizer.fileName, tokenizer.line, tokenizer.col, "reserved word %s is not part of joos", word)
	}
	tokenizer.emit(word, IdentifierTP)
	return nil
}
