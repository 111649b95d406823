package compiler

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func tokenize(t *testing.T, data string) []*Token {
	tokenizer := &Tokenizer{}
	tokens, err := tokenizer.Tokenize("A.java", strings.NewReader(data))
	assert.Nil(t, err)
	return tokens
}

func TestTokenizer_Tokenize(t *testing.T) {
	tokens := tokenize(t, "public class A { int x = 42; }")
	expected := []TokenType{
		PublicTP, ClassTP, IdentifierTP, LeftBraceTP, IntTP, IdentifierTP,
		AssignTP, IntegerTP, SemiColonTP, RightBraceTP, EofTP,
	}
	assert.Equal(t, len(expected), len(tokens))
	for i, tp := range expected {
		assert.Equal(t, tp, tokens[i].tp)
	}
	assert.Equal(t, "42", tokens[7].content)
	assert.Equal(t, 1, tokens[0].line)
}

func TestTokenizer_Operators(t *testing.T) {
	tokens := tokenize(t, "a <= b && c != d || e instanceof f")
	expected := []TokenType{
		IdentifierTP, LessEqualTP, IdentifierTP, AndAndTP, IdentifierTP,
		NotEqualTP, IdentifierTP, OrOrTP, IdentifierTP, InstanceofTP,
		IdentifierTP, EofTP,
	}
	for i, tp := range expected {
		assert.Equal(t, tp, tokens[i].tp)
	}
}

func TestTokenizer_Literals(t *testing.T) {
	tokens := tokenize(t, `"a\tb" 'c' '\101' '\n'`)
	assert.Equal(t, StringTP, tokens[0].tp)
	assert.Equal(t, "a\tb", tokens[0].content)
	assert.Equal(t, CharLiteralTP, tokens[1].tp)
	assert.Equal(t, "c", tokens[1].content)
	assert.Equal(t, "A", tokens[2].content)
	assert.Equal(t, "\n", tokens[3].content)
}

func TestTokenizer_Comments(t *testing.T) {
	tokens := tokenize(t, "a // line comment\n/* block\ncomment */ b")
	assert.Equal(t, 3, len(tokens))
	assert.Equal(t, "a", tokens[0].content)
	assert.Equal(t, "b", tokens[1].content)
}

func TestTokenizer_Errors(t *testing.T) {
	testDatas := []string{
		"switch",      // reserved but unsupported
		"\"unclosed",  // unterminated string
		"'ab'",        // too long char literal
		"123abc",      // malformed integer
		"/* unclosed", // unterminated comment
		"#",           // no such character
	}
	for _, data := range testDatas {
		tokenizer := &Tokenizer{}
		_, err := tokenizer.Tokenize("A.java", strings.NewReader(data))
		assert.NotNil(t, err, data)
		assert.Equal(t, LexErrorKind, err.(*Diagnostic).Kind, data)
	}
}
