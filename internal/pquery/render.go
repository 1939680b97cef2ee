package pquery

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/thirtytwobits/the-cmake-preset-matrix/internal/document"
)

// Renderer finds the pQuery statements embedded in a document and replaces
// them with their results.
type Renderer struct {
	log zerolog.Logger
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithLogger sets the logger used for debug and trace output.
func WithLogger(log zerolog.Logger) Option {
	return func(r *Renderer) {
		r.log = log
	}
}

// NewRenderer returns a Renderer. Without options it logs nothing.
func NewRenderer(opts ...Option) *Renderer {
	r := &Renderer{log: zerolog.Nop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render renders every value below the named top-level keys of doc, in the
// order the keys appear in doc. Missing keys are ignored.
func (r *Renderer) Render(doc *document.Map, keys ...string) error {
	wanted := make(map[string]bool, len(keys))
	for _, k := range keys {
		wanted[k] = true
	}
	for k, v := range doc.All() {
		if !wanted[k] {
			continue
		}
		if err := r.walk(doc, v, document.Locator{document.Key(k)}); err != nil {
			return err
		}
	}
	return nil
}

// RenderFragment renders every value of fragment. Selectors resolve against
// the fragment itself.
func (r *Renderer) RenderFragment(fragment document.Value) error {
	return r.walk(fragment, fragment, nil)
}

// RenderAt renders the single string found at loc within root.
func (r *Renderer) RenderAt(root document.Value, loc document.Locator) error {
	v, err := document.Resolve(root, loc)
	if err != nil {
		return err
	}
	s, ok := v.(document.String)
	if !ok {
		return &LocatorError{Locator: loc, Step: -1, Reason: fmt.Sprintf("expected a string, found a %s", v.Kind())}
	}
	return r.renderString(root, loc, string(s))
}

// Evaluate runs the statement in text with "this" bound to the node at loc
// and returns its result without writing it anywhere.
func (r *Renderer) Evaluate(root document.Value, loc document.Locator, text string) (document.Value, error) {
	stmt, err := Parse(text)
	if err != nil {
		return nil, &RenderError{Locator: loc, Text: text, Err: err}
	}
	this, err := thisSelection(root, loc)
	if err != nil {
		return nil, &RenderError{Locator: loc, Text: text, Err: err}
	}
	v, err := newInterpreter(root, this, r.log).eval(stmt)
	if err != nil {
		return nil, &RenderError{Locator: loc, Text: text, Err: err}
	}
	return v, nil
}

func thisSelection(root document.Value, loc document.Locator) (selection, error) {
	if len(loc) == 0 {
		return documentSelection(root), nil
	}
	parent, err := document.Resolve(root, loc[:len(loc)-1])
	if err != nil {
		return selection{}, err
	}
	last, _ := loc.Last()
	return selection{base: parent, locators: []document.Locator{{last}}}, nil
}

func (r *Renderer) walk(root, node document.Value, loc document.Locator) error {
	switch n := node.(type) {
	case *document.Map:
		for k, v := range n.All() {
			if err := r.visit(root, v, loc.Append(document.Key(k))); err != nil {
				return err
			}
		}
	case *document.Seq:
		for i, v := range n.All() {
			if err := r.visit(root, v, loc.Append(document.Index(i))); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *Renderer) visit(root, v document.Value, loc document.Locator) error {
	if s, ok := v.(document.String); ok {
		return r.renderString(root, loc, string(s))
	}
	return r.walk(root, v, loc)
}

// renderString evaluates the statements in s, which is the value at loc.
// A string that is one whole statement may be replaced by a value of any
// kind; braced statements inside other text produce a string.
func (r *Renderer) renderString(root document.Value, loc document.Locator, s string) error {
	if Detect(s) {
		stmt, err := Parse(s)
		if err != nil {
			return &RenderError{Locator: loc, Text: s, Err: err}
		}
		r.log.Debug().Str("locator", loc.String()).Str("text", s).Msg("render statement")
		v, err := r.coalesce(root, loc, stmt)
		if err != nil {
			return &RenderError{Locator: loc, Text: s, Err: err}
		}
		if document.IsNull(v) {
			v = document.String("")
		}
		if err := document.Assign(root, loc, v); err != nil {
			return &RenderError{Locator: loc, Text: s, Err: err}
		}
		return nil
	}

	segments, err := splitBraced(s)
	if err != nil {
		return &RenderError{Locator: loc, Text: s, Err: err}
	}
	if len(segments) == 1 && segments[0].stmt == nil {
		return nil
	}
	r.log.Debug().Str("locator", loc.String()).Str("text", s).Int("segments", len(segments)).Msg("render template")

	var b strings.Builder
	for _, seg := range segments {
		if seg.stmt == nil {
			b.WriteString(seg.text)
			continue
		}
		v, err := r.coalesce(root, loc, seg.stmt)
		if err != nil {
			return &RenderError{Locator: loc, Text: s, Err: err}
		}
		b.WriteString(document.Text(v))
	}
	if err := document.Assign(root, loc, document.String(b.String())); err != nil {
		return &RenderError{Locator: loc, Text: s, Err: err}
	}
	return nil
}

// coalesce clears the location, evaluates stmt there and returns the value
// the location should take: the result when the location is still null and
// the result is not nullish, otherwise whatever the statement left there.
func (r *Renderer) coalesce(root document.Value, loc document.Locator, stmt *Statement) (document.Value, error) {
	if err := document.Assign(root, loc, document.Null{}); err != nil {
		return nil, err
	}
	this, err := thisSelection(root, loc)
	if err != nil {
		return nil, err
	}
	result, err := newInterpreter(root, this, r.log).eval(stmt)
	if err != nil {
		return nil, err
	}
	current, err := document.Resolve(root, loc)
	if err != nil {
		return nil, err
	}
	if document.IsNull(current) && !document.IsNullish(result) {
		return result, nil
	}
	return current, nil
}

type segment struct {
	text string
	stmt *Statement
}

// splitBraced cuts s into literal text and {statement} segments. Braces
// preceded by a backslash and braces that do not open a candidate statement
// are literal text.
func splitBraced(s string) ([]segment, error) {
	var segments []segment
	lit := 0
	for i := 0; i < len(s); {
		switch {
		case s[i] == '\\' && i+1 < len(s) && (s[i+1] == '{' || s[i+1] == '}'):
			i += 2
			continue
		case s[i] == '{' && Detect(s[i+1:]):
			stmt, n, err := ParsePrefix(s[i+1:])
			if err != nil {
				var se *SyntaxError
				if errors.As(err, &se) {
					se.Text, se.Offset = s, se.Offset+i+1
				}
				return nil, err
			}
			j := i + 1 + n
			for j < len(s) && (s[j] == ' ' || s[j] == '\t' || s[j] == '\n' || s[j] == '\r') {
				j++
			}
			if j >= len(s) || s[j] != '}' {
				return nil, &SyntaxError{Text: s, Offset: j, Message: "expected '}' to close the braced statement"}
			}
			if lit < i {
				segments = append(segments, segment{text: s[lit:i]})
			}
			segments = append(segments, segment{stmt: stmt})
			i = j + 1
			lit = i
			continue
		}
		i++
	}
	if lit < len(s) || len(segments) == 0 {
		segments = append(segments, segment{text: s[lit:]})
	}
	return segments, nil
}
