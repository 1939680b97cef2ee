package pquery

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// TokenType represents the type of a token.
type TokenType uint8

const (
	TokenEOF TokenType = iota
	TokenInvalid
	TokenDollar
	TokenLParen
	TokenRParen
	TokenDot
	TokenComma
	TokenSemicolon
	TokenIdent
	TokenString
	TokenOp
)

var tokenNames = [...]string{
	TokenEOF:       "end of input",
	TokenInvalid:   "invalid input",
	TokenDollar:    "'$'",
	TokenLParen:    "'('",
	TokenRParen:    "')'",
	TokenDot:       "'.'",
	TokenComma:     "','",
	TokenSemicolon: "';'",
	TokenIdent:     "identifier",
	TokenString:    "quoted string",
	TokenOp:        "operator",
}

func (t TokenType) String() string {
	if int(t) < len(tokenNames) {
		return tokenNames[t]
	}
	return fmt.Sprintf("TokenType(%d)", uint8(t))
}

// Token is a lexeme with its byte span in the source text. For strings,
// Value holds the text between the quotes.
type Token struct {
	Type  TokenType
	Value string
	Pos   int
	End   int
}

func (t Token) String() string {
	switch t.Type {
	case TokenIdent, TokenOp, TokenString, TokenInvalid:
		return fmt.Sprintf("%s %q", t.Type, t.Value)
	}
	return t.Type.String()
}

// lexer produces tokens on demand. Text following a complete statement is
// never scanned, so a statement can be embedded in arbitrary surrounding
// text.
type lexer struct {
	text string
	pos  int
}

func isIdentRune(r rune) bool {
	return r == '_' || r == '-' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func (l *lexer) next() Token {
	for l.pos < len(l.text) {
		r, size := utf8.DecodeRuneInString(l.text[l.pos:])
		if !unicode.IsSpace(r) {
			break
		}
		l.pos += size
	}
	start := l.pos
	if start >= len(l.text) {
		return Token{Type: TokenEOF, Pos: start, End: start}
	}

	single := func(t TokenType) Token {
		l.pos++
		return Token{Type: t, Value: l.text[start:l.pos], Pos: start, End: l.pos}
	}
	op := func() Token {
		if start+1 < len(l.text) && l.text[start+1] == '=' {
			l.pos += 2
			return Token{Type: TokenOp, Value: l.text[start:l.pos], Pos: start, End: l.pos}
		}
		return single(TokenInvalid)
	}

	switch c := l.text[start]; c {
	case '$':
		if start+1 < len(l.text) && l.text[start+1] == '=' {
			return op()
		}
		return single(TokenDollar)
	case '=', '!', '^':
		return op()
	case '(':
		return single(TokenLParen)
	case ')':
		return single(TokenRParen)
	case '.':
		return single(TokenDot)
	case ',':
		return single(TokenComma)
	case ';':
		return single(TokenSemicolon)
	case '"', '\'':
		end := strings.IndexByte(l.text[start+1:], c)
		if end < 0 {
			return single(TokenInvalid)
		}
		l.pos = start + 1 + end + 1
		return Token{Type: TokenString, Value: l.text[start+1 : start+1+end], Pos: start, End: l.pos}
	}

	for l.pos < len(l.text) {
		r, size := utf8.DecodeRuneInString(l.text[l.pos:])
		if !isIdentRune(r) {
			break
		}
		l.pos += size
	}
	if l.pos == start {
		_, size := utf8.DecodeRuneInString(l.text[start:])
		l.pos += size
		return Token{Type: TokenInvalid, Value: l.text[start:l.pos], Pos: start, End: l.pos}
	}
	return Token{Type: TokenIdent, Value: l.text[start:l.pos], Pos: start, End: l.pos}
}
