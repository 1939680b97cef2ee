package document

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/ohler55/ojg/oj"
)

// Decode parses JSON into a Value, keeping object keys in document order.
func Decode(data []byte) (Value, error) {
	b := &builder{}
	if err := oj.Tokenize(data, b); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	switch {
	case b.err != nil:
		return nil, fmt.Errorf("decode json: %w", b.err)
	case b.root == nil:
		return nil, fmt.Errorf("decode json: empty document")
	case b.pending:
		return nil, fmt.Errorf("decode json: unexpected end of input: missing value for key %q", b.key)
	case len(b.stack) != 0:
		return nil, fmt.Errorf("decode json: unexpected end of input: %d unclosed %s", len(b.stack), b.stack[len(b.stack)-1].Kind())
	}
	return b.root, nil
}

// DecodeMap parses JSON whose top level must be an object.
func DecodeMap(data []byte) (*Map, error) {
	v, err := Decode(data)
	if err != nil {
		return nil, err
	}
	m, ok := v.(*Map)
	if !ok {
		return nil, fmt.Errorf("decode json: top level is a %s, expected a map", v.Kind())
	}
	return m, nil
}

// builder receives tokens from the ojg tokenizer and assembles the tree.
// A duplicate object key is recorded in err; the tokenizer has no way to
// stop early.
type builder struct {
	root    Value
	stack   []Value
	key     string
	pending bool
	err     error
}

func (b *builder) add(v Value) {
	if len(b.stack) == 0 {
		if b.root == nil {
			b.root = v
		}
		return
	}
	switch top := b.stack[len(b.stack)-1].(type) {
	case *Seq:
		top.Append(v)
	case *Map:
		if top.Has(b.key) && b.err == nil {
			b.err = fmt.Errorf("duplicate key %q", b.key)
		}
		top.Set(b.key, v)
		b.pending = false
	}
}

func (b *builder) Null()           { b.add(Null{}) }
func (b *builder) Bool(v bool)     { b.add(Bool(v)) }
func (b *builder) Int(v int64)     { b.add(Int(v)) }
func (b *builder) Float(v float64) { b.add(Float(v)) }
func (b *builder) Number(v string) { b.add(Number(v)) }
func (b *builder) String(v string) { b.add(String(v)) }
func (b *builder) Key(v string)    { b.key, b.pending = v, true }
func (b *builder) ObjectStart()    { b.push(NewMap()) }
func (b *builder) ArrayStart()     { b.push(NewSeq()) }
func (b *builder) ObjectEnd()      { b.pop() }
func (b *builder) ArrayEnd()       { b.pop() }

func (b *builder) push(v Value) {
	b.add(v)
	b.stack = append(b.stack, v)
}

func (b *builder) pop() {
	if len(b.stack) > 0 {
		b.stack = b.stack[:len(b.stack)-1]
	}
}

// Encode renders v as JSON. Keys keep their order. With indent > 0 the
// output is one element per line; otherwise it is compact.
func Encode(v Value, indent int) []byte {
	var buf bytes.Buffer
	e := encoder{buf: &buf, indent: indent}
	e.value(v, 0)
	return buf.Bytes()
}

type encoder struct {
	buf    *bytes.Buffer
	indent int
}

func (e *encoder) newline(depth int) {
	if e.indent <= 0 {
		return
	}
	e.buf.WriteByte('\n')
	e.buf.WriteString(strings.Repeat(" ", depth*e.indent))
}

func (e *encoder) value(v Value, depth int) {
	switch t := v.(type) {
	case nil, Null:
		e.buf.WriteString("null")
	case Bool:
		e.buf.WriteString(strconv.FormatBool(bool(t)))
	case Number:
		e.buf.WriteString(string(t))
	case String:
		writeQuoted(e.buf, string(t))
	case *Seq:
		if t.Len() == 0 {
			e.buf.WriteString("[]")
			return
		}
		e.buf.WriteByte('[')
		for i, item := range t.items {
			if i > 0 {
				e.buf.WriteByte(',')
			}
			e.newline(depth + 1)
			e.value(item, depth+1)
		}
		e.newline(depth)
		e.buf.WriteByte(']')
	case *Map:
		if t.Len() == 0 {
			e.buf.WriteString("{}")
			return
		}
		e.buf.WriteByte('{')
		for i, k := range t.keys {
			if i > 0 {
				e.buf.WriteByte(',')
			}
			e.newline(depth + 1)
			writeQuoted(e.buf, k)
			e.buf.WriteByte(':')
			if e.indent > 0 {
				e.buf.WriteByte(' ')
			}
			e.value(t.vals[k], depth+1)
		}
		e.newline(depth)
		e.buf.WriteByte('}')
	}
}

const hex = "0123456789abcdef"

func writeQuoted(buf *bytes.Buffer, s string) {
	buf.WriteByte('"')
	for i := 0; i < len(s); {
		c := s[i]
		if c < utf8.RuneSelf {
			switch c {
			case '"', '\\':
				buf.WriteByte('\\')
				buf.WriteByte(c)
			case '\n':
				buf.WriteString(`\n`)
			case '\r':
				buf.WriteString(`\r`)
			case '\t':
				buf.WriteString(`\t`)
			case '\b':
				buf.WriteString(`\b`)
			case '\f':
				buf.WriteString(`\f`)
			default:
				if c < 0x20 {
					buf.WriteString(`\u00`)
					buf.WriteByte(hex[c>>4])
					buf.WriteByte(hex[c&0xf])
				} else {
					buf.WriteByte(c)
				}
			}
			i++
			continue
		}
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			buf.WriteString(`�`)
		} else {
			buf.WriteString(s[i : i+size])
		}
		i += size
	}
	buf.WriteByte('"')
}
