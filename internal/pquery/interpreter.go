package pquery

import (
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/thirtytwobits/the-cmake-preset-matrix/internal/document"
)

// interpreter evaluates one top-level statement. Entry 0 of the selection
// stack is the whole document and entry 1 is "this"; selector terms push
// further entries. Nested statements save the stack and restore it when they
// complete.
type interpreter struct {
	root        document.Value
	defaultThis selection
	stack       []selection
	saved       [][]selection
	log         zerolog.Logger
}

func newInterpreter(root document.Value, this selection, log zerolog.Logger) *interpreter {
	return &interpreter{
		root:        root,
		defaultThis: this,
		stack:       []selection{documentSelection(root)},
		log:         log,
	}
}

func documentSelection(root document.Value) selection {
	return selection{base: root, locators: []document.Locator{{}}}
}

func (in *interpreter) current() selection {
	return in.stack[len(in.stack)-1]
}

func (in *interpreter) selectThis(from selection) {
	in.stack = append(in.stack[:0:0], documentSelection(in.root), from.clone())
}

// eval runs stmt and returns the result of its last command, or Null when
// it has none.
func (in *interpreter) eval(stmt *Statement) (document.Value, error) {
	if len(in.stack) < 2 {
		in.selectThis(in.defaultThis)
	} else {
		in.saved = append(in.saved, in.stack)
		in.selectThis(in.current())
		defer func() {
			in.stack = in.saved[len(in.saved)-1]
			in.saved = in.saved[:len(in.saved)-1]
		}()
	}
	depth := len(in.saved)

	if stmt.Selector.This {
		in.selectThis(in.defaultThis)
	}
	for _, term := range stmt.Selector.Terms {
		if err := in.selectTerm(stmt, term); err != nil {
			return nil, err
		}
	}

	var calls []document.Value
	for _, cmd := range stmt.Calls {
		result, err := in.exec(stmt, cmd, calls)
		if err != nil {
			return nil, err
		}
		calls = append(calls, result)
		in.log.Trace().Int("depth", depth).Str("command", cmd.Name()).Str("result", document.Text(result)).Msg("pquery call")
	}
	if len(calls) == 0 {
		return document.Null{}, nil
	}
	return calls[len(calls)-1], nil
}

// selectTerm searches the active selections, most recent first, and pushes
// the first match.
func (in *interpreter) selectTerm(stmt *Statement, term Term) error {
	s := &searcher{match: tagMatcher(term.Text)}
	if term.Kind == TermName {
		s.match = nameMatcher(term.Text)
	}
	for i := len(in.stack) - 1; i >= 0; i-- {
		sel := in.stack[i]
		for _, start := range sel.locators {
			found, ok, err := s.find(sel.base, start)
			if err != nil {
				return err
			}
			if ok {
				in.stack = append(in.stack, selection{base: sel.base, locators: []document.Locator{found}})
				in.log.Trace().Int("depth", len(in.saved)).Str("term", term.String()).Str("locator", found.String()).Msg("pquery select")
				return nil
			}
		}
	}
	return &SelectorError{Term: term, Source: stmt.Source}
}

func (in *interpreter) exec(stmt *Statement, cmd Command, calls []document.Value) (document.Value, error) {
	switch c := cmd.(type) {
	case GetText:
		values, err := in.read()
		if err != nil {
			return nil, err
		}
		if len(values) == 1 {
			if document.IsNull(values[0]) {
				return document.Null{}, nil
			}
			return document.String(document.Text(values[0])), nil
		}
		return document.String(document.Encode(document.NewSeq(values...), 0)), nil

	case SetText:
		v, err := in.arg(c.Arg)
		if err != nil {
			return nil, err
		}
		return document.Null{}, in.write(document.String(document.Text(v)))

	case GetJSON:
		values, err := in.read()
		if err != nil {
			return nil, err
		}
		if len(values) == 1 {
			return document.Clone(values[0]), nil
		}
		return document.Clone(document.NewSeq(values...)), nil

	case SetJSON:
		v, err := in.structuredArg(c.Arg)
		if err != nil {
			return nil, err
		}
		return document.Null{}, in.write(v)

	case Exp:
		return document.String(stmt.Source), nil

	case Literal:
		return in.arg(c.Arg)

	case Split:
		sep, err := in.textArg(c.Sep)
		if err != nil {
			return nil, err
		}
		if sep == "" {
			return nil, commandErrorf(cmd, "empty separator")
		}
		return in.eachText(cmd, calls, func(s string) document.Value {
			return document.Strings(strings.Split(s, sep)...)
		})

	case Replace:
		old, err := in.textArg(c.Old)
		if err != nil {
			return nil, err
		}
		repl, err := in.textArg(c.New)
		if err != nil {
			return nil, err
		}
		return in.eachText(cmd, calls, func(s string) document.Value {
			return document.String(strings.ReplaceAll(s, old, repl))
		})

	case Get:
		prev, err := previous(cmd, calls)
		if err != nil {
			return nil, err
		}
		key, err := in.textArg(c.Key)
		if err != nil {
			return nil, err
		}
		return index(cmd, prev, key)

	case If:
		ok, err := in.cond(cmd, c.Cond)
		if err != nil {
			return nil, err
		}
		if !c.HasBranches {
			return document.Bool(ok), nil
		}
		if ok {
			return in.arg(c.Then)
		}
		return in.arg(c.Else)
	}
	return nil, commandErrorf(cmd, "unsupported command")
}

// read returns the values at every locator of the current selection.
func (in *interpreter) read() ([]document.Value, error) {
	sel := in.current()
	values := make([]document.Value, 0, len(sel.locators))
	for _, loc := range sel.locators {
		v, err := document.Resolve(sel.base, loc)
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, nil
}

// write overwrites every locator of the current selection with v.
func (in *interpreter) write(v document.Value) error {
	sel := in.current()
	for _, loc := range sel.locators {
		if err := document.Assign(sel.base, loc, document.Clone(v)); err != nil {
			return err
		}
		in.log.Trace().Int("depth", len(in.saved)).Str("locator", loc.String()).Str("value", document.Text(v)).Msg("pquery write")
	}
	return nil
}

// arg evaluates an argument. Identifiers and quoted strings are text; nested
// statements yield their result.
func (in *interpreter) arg(a Arg) (document.Value, error) {
	if a.Kind == ArgStatement {
		return in.eval(a.Stmt)
	}
	return document.String(a.Text), nil
}

func (in *interpreter) textArg(a Arg) (string, error) {
	v, err := in.arg(a)
	if err != nil {
		return "", err
	}
	return document.Text(v), nil
}

// structuredArg is arg for json(v): literal text holding JSON is decoded.
func (in *interpreter) structuredArg(a Arg) (document.Value, error) {
	if a.Kind == ArgStatement {
		return in.eval(a.Stmt)
	}
	if v, err := document.Decode([]byte(a.Text)); err == nil {
		return v, nil
	}
	return document.String(a.Text), nil
}

func (in *interpreter) cond(cmd Command, c Cond) (bool, error) {
	if c.Literal != nil {
		return *c.Literal, nil
	}
	left, err := in.textArg(c.Left)
	if err != nil {
		return false, err
	}
	right, err := in.textArg(c.Right)
	if err != nil {
		return false, err
	}
	switch c.Op {
	case OpEqual:
		return left == right, nil
	case OpNotEqual:
		return left != right, nil
	case OpEndsWith:
		return strings.HasSuffix(left, right), nil
	case OpStartsWith:
		return strings.HasPrefix(left, right), nil
	}
	return false, commandErrorf(cmd, "unknown operator %q", c.Op)
}

// eachText applies fn to the previous result, element-wise when it is a
// sequence.
func (in *interpreter) eachText(cmd Command, calls []document.Value, fn func(string) document.Value) (document.Value, error) {
	prev, err := previous(cmd, calls)
	if err != nil {
		return nil, err
	}
	switch p := prev.(type) {
	case document.String:
		return fn(string(p)), nil
	case *document.Seq:
		out := document.NewSeq()
		for i, item := range p.All() {
			s, ok := item.(document.String)
			if !ok {
				return nil, commandErrorf(cmd, "element %d is a %s, not text", i, item.Kind())
			}
			out.Append(fn(string(s)))
		}
		return out, nil
	case document.Null:
		return nil, commandErrorf(cmd, "previous result is null")
	}
	return nil, commandErrorf(cmd, "previous result is a %s, not text", prev.Kind())
}

func previous(cmd Command, calls []document.Value) (document.Value, error) {
	if len(calls) == 0 {
		return nil, commandErrorf(cmd, "no previous result in the chain")
	}
	return calls[len(calls)-1], nil
}

func index(cmd Command, v document.Value, key string) (document.Value, error) {
	switch c := v.(type) {
	case *document.Map:
		item, ok := c.Get(key)
		if !ok {
			return nil, commandErrorf(cmd, "no key %q", key)
		}
		return item, nil
	case *document.Seq:
		i, err := strconv.Atoi(key)
		if err != nil {
			return nil, commandErrorf(cmd, "index %q is not an integer", key)
		}
		if i < 0 || i >= c.Len() {
			return nil, commandErrorf(cmd, "index %d out of range [0,%d)", i, c.Len())
		}
		return c.At(i), nil
	case document.Null:
		return nil, commandErrorf(cmd, "previous result is null")
	}
	return nil, commandErrorf(cmd, "cannot index a %s", v.Kind())
}

