package pquery

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// maxNesting bounds how deeply statements may be nested inside arguments.
const maxNesting = 64

// Detect reports whether s is a candidate expression: after leading
// whitespace it starts with '$' followed, optionally after whitespace, by
// '.' or '('. Plain text and strings such as "$comment" are rejected.
func Detect(s string) bool {
	t := strings.TrimLeftFunc(s, unicode.IsSpace)
	if !strings.HasPrefix(t, "$") {
		return false
	}
	t = strings.TrimLeftFunc(t[1:], unicode.IsSpace)
	return strings.HasPrefix(t, ".") || strings.HasPrefix(t, "(")
}

// Parse compiles text, which must hold exactly one statement, optionally
// surrounded by whitespace.
func Parse(text string) (*Statement, error) {
	p := newParser(text)
	stmt, err := p.statement()
	if err != nil {
		return nil, err
	}
	if p.tok.Type != TokenEOF {
		return nil, p.errorf(p.tok.Pos, "unexpected %s after statement", p.tok)
	}
	return stmt, nil
}

// ParsePrefix compiles the statement at the start of text and returns the
// number of bytes it consumed. Text after the statement is not examined.
func ParsePrefix(text string) (*Statement, int, error) {
	p := newParser(text)
	stmt, err := p.statement()
	if err != nil {
		return nil, 0, err
	}
	return stmt, p.end, nil
}

type parser struct {
	text  string
	lex   *lexer
	tok   Token
	peek  *Token
	end   int // end offset of the last consumed token
	depth int
}

func newParser(text string) *parser {
	p := &parser{text: text, lex: &lexer{text: text}}
	p.tok = p.lex.next()
	return p
}

func (p *parser) advance() {
	p.end = p.tok.End
	if p.peek != nil {
		p.tok = *p.peek
		p.peek = nil
		return
	}
	p.tok = p.lex.next()
}

func (p *parser) lookahead() Token {
	if p.peek == nil {
		t := p.lex.next()
		p.peek = &t
	}
	return *p.peek
}

func (p *parser) errorf(offset int, format string, args ...any) *SyntaxError {
	return &SyntaxError{Text: p.text, Offset: offset, Message: fmt.Sprintf(format, args...)}
}

func (p *parser) expect(t TokenType) (Token, error) {
	tok := p.tok
	if tok.Type != t {
		return tok, p.errorf(tok.Pos, "expected %s, found %s", t, tok)
	}
	p.advance()
	return tok, nil
}

// statement := '$' '(' (selector_list | 'this') ')' call* ';'?
func (p *parser) statement() (*Statement, error) {
	p.depth++
	defer func() { p.depth-- }()
	if p.depth > maxNesting {
		return nil, p.errorf(p.tok.Pos, "statements nested more than %d deep", maxNesting)
	}

	start := p.tok.Pos
	if _, err := p.expect(TokenDollar); err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenLParen); err != nil {
		return nil, err
	}

	stmt := &Statement{}
	switch {
	case p.tok.Type == TokenIdent && p.tok.Value == "this":
		stmt.Selector.This = true
		p.advance()
	case p.tok.Type == TokenString:
		terms, err := p.selectorList(p.tok)
		if err != nil {
			return nil, err
		}
		stmt.Selector.Terms = terms
		p.advance()
	default:
		return nil, p.errorf(p.tok.Pos, "expected 'this' or a quoted selector list, found %s", p.tok)
	}
	if _, err := p.expect(TokenRParen); err != nil {
		return nil, err
	}

	for p.tok.Type == TokenDot {
		p.advance()
		cmd, err := p.command()
		if err != nil {
			return nil, err
		}
		stmt.Calls = append(stmt.Calls, cmd)
	}
	if p.tok.Type == TokenSemicolon {
		p.advance()
	}
	stmt.Source = p.text[start:p.end]
	return stmt, nil
}

// selectorList splits the contents of a quoted selector list into terms.
func (p *parser) selectorList(tok Token) ([]Term, error) {
	var terms []Term
	base := tok.Pos + 1
	s := tok.Value
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if unicode.IsSpace(r) {
			i += size
			continue
		}
		j := i
		for j < len(s) {
			r, size := utf8.DecodeRuneInString(s[j:])
			if unicode.IsSpace(r) {
				break
			}
			j += size
		}
		word := s[i:j]
		term := Term{Kind: TermTag, Text: word}
		if strings.HasPrefix(word, "#") {
			term = Term{Kind: TermName, Text: word[1:]}
		}
		if !isIdentifier(term.Text) {
			return nil, p.errorf(base+i, "invalid selector %q", word)
		}
		terms = append(terms, term)
		i = j
	}
	if len(terms) == 0 {
		return nil, p.errorf(tok.Pos, "empty selector list")
	}
	return terms, nil
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !isIdentRune(r) {
			return false
		}
	}
	return true
}

func (p *parser) command() (Command, error) {
	name, err := p.expect(TokenIdent)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenLParen); err != nil {
		return nil, err
	}

	var cmd Command
	switch name.Value {
	case "text", "json":
		if p.tok.Type == TokenRParen {
			if name.Value == "text" {
				cmd = GetText{}
			} else {
				cmd = GetJSON{}
			}
			break
		}
		arg, err := p.value()
		if err != nil {
			return nil, err
		}
		if name.Value == "text" {
			cmd = SetText{Arg: arg}
		} else {
			cmd = SetJSON{Arg: arg}
		}
	case "exp":
		cmd = Exp{}
	case "split":
		arg, err := p.value()
		if err != nil {
			return nil, err
		}
		cmd = Split{Sep: arg}
	case "literal":
		arg, err := p.value()
		if err != nil {
			return nil, err
		}
		cmd = Literal{Arg: arg}
	case "get":
		arg, err := p.value()
		if err != nil {
			return nil, err
		}
		cmd = Get{Key: arg}
	case "replace":
		args, err := p.values(2)
		if err != nil {
			return nil, err
		}
		cmd = Replace{Old: args[0], New: args[1]}
	case "if":
		c, err := p.ifCommand()
		if err != nil {
			return nil, err
		}
		cmd = c
	default:
		return nil, p.errorf(name.Pos, "unknown command %q", name.Value)
	}

	if _, err := p.expect(TokenRParen); err != nil {
		return nil, err
	}
	return cmd, nil
}

func (p *parser) values(n int) ([]Arg, error) {
	args := make([]Arg, 0, n)
	for i := 0; i < n; i++ {
		if i > 0 {
			if _, err := p.expect(TokenComma); err != nil {
				return nil, err
			}
		}
		arg, err := p.value()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}
	return args, nil
}

// value := identifier | dq_string | sq_string | statement
func (p *parser) value() (Arg, error) {
	switch p.tok.Type {
	case TokenIdent:
		arg := Arg{Kind: ArgIdentifier, Text: p.tok.Value}
		p.advance()
		return arg, nil
	case TokenString:
		arg := Arg{Kind: ArgQuoted, Text: p.tok.Value}
		p.advance()
		return arg, nil
	case TokenDollar:
		stmt, err := p.statement()
		if err != nil {
			return Arg{}, err
		}
		return Arg{Kind: ArgStatement, Text: stmt.Source, Stmt: stmt}, nil
	}
	return Arg{}, p.errorf(p.tok.Pos, "expected a value, found %s", p.tok)
}

// 'if' '(' conditional [',' value ',' value] ')'
func (p *parser) ifCommand() (If, error) {
	var cmd If
	if p.tok.Type == TokenIdent && (p.tok.Value == "true" || p.tok.Value == "false") && p.lookahead().Type != TokenOp {
		b := p.tok.Value == "true"
		cmd.Cond.Literal = &b
		p.advance()
	} else {
		left, err := p.value()
		if err != nil {
			return cmd, err
		}
		op, err := p.expect(TokenOp)
		if err != nil {
			return cmd, err
		}
		right, err := p.value()
		if err != nil {
			return cmd, err
		}
		cmd.Cond = Cond{Left: left, Op: op.Value, Right: right}
	}

	if p.tok.Type == TokenComma {
		p.advance()
		args, err := p.values(2)
		if err != nil {
			return cmd, err
		}
		cmd.Then, cmd.Else, cmd.HasBranches = args[0], args[1], true
	}
	return cmd, nil
}
