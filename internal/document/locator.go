package document

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/ohler55/ojg/jp"
)

// Step is one element of a Locator: a map key or a sequence index.
type Step struct {
	key     string
	index   int
	isIndex bool
}

// Key returns a map-key step.
func Key(k string) Step { return Step{key: k} }

// Index returns a sequence-index step.
func Index(i int) Step { return Step{index: i, isIndex: true} }

func (s Step) IsIndex() bool { return s.isIndex }
func (s Step) Key() string   { return s.key }
func (s Step) Index() int    { return s.index }

// String is the literal text of the step. Indices render as decimal.
func (s Step) String() string {
	if s.isIndex {
		return strconv.Itoa(s.index)
	}
	return s.key
}

// Locator is an ordered path of steps addressing a node relative to a base.
type Locator []Step

// Clone returns an independent copy.
func (l Locator) Clone() Locator {
	if l == nil {
		return nil
	}
	return append(make(Locator, 0, len(l)+4), l...)
}

// Append returns a copy of l extended with steps.
func (l Locator) Append(steps ...Step) Locator {
	out := make(Locator, 0, len(l)+len(steps))
	out = append(out, l...)
	return append(out, steps...)
}

// Last returns the final step.
func (l Locator) Last() (Step, bool) {
	if len(l) == 0 {
		return Step{}, false
	}
	return l[len(l)-1], true
}

func (l Locator) String() string {
	var b strings.Builder
	b.WriteByte('$')
	for _, s := range l {
		switch {
		case s.isIndex:
			b.WriteByte('[')
			b.WriteString(strconv.Itoa(s.index))
			b.WriteByte(']')
		case isPlainKey(s.key):
			b.WriteByte('.')
			b.WriteString(s.key)
		default:
			b.WriteString("['")
			b.WriteString(strings.ReplaceAll(strings.ReplaceAll(s.key, `\`, `\\`), `'`, `\'`))
			b.WriteString("']")
		}
	}
	return b.String()
}

func isPlainKey(k string) bool {
	if k == "" {
		return false
	}
	for i, r := range k {
		switch {
		case r == '_' || unicode.IsLetter(r):
		case i > 0 && (r == '-' || unicode.IsDigit(r)):
		default:
			return false
		}
	}
	return true
}

// ParseLocator parses the text form produced by Locator.String, e.g.
// "$.configurePresets[2].cacheVariables" or "$['odd key'][0]". The leading
// '$' may be omitted.
func ParseLocator(text string) (Locator, error) {
	loc := Locator{}
	rest := strings.TrimPrefix(strings.TrimSpace(text), "$")
	fail := func(format string, args ...any) (Locator, error) {
		return nil, fmt.Errorf("invalid locator %q: %s", text, fmt.Sprintf(format, args...))
	}
	if rest != "" && rest[0] != '.' && rest[0] != '[' {
		rest = "." + rest
	}
	for rest != "" {
		switch rest[0] {
		case '.':
			end := strings.IndexAny(rest[1:], ".[")
			if end < 0 {
				end = len(rest) - 1
			}
			key := rest[1 : 1+end]
			if key == "" {
				return fail("empty key")
			}
			loc = append(loc, Key(key))
			rest = rest[1+end:]
		case '[':
			if len(rest) > 1 && (rest[1] == '\'' || rest[1] == '"') {
				key, n, ok := unquoteKey(rest[1:])
				if !ok || n+1 >= len(rest) || rest[n+1] != ']' {
					return fail("unterminated quoted key")
				}
				loc = append(loc, Key(key))
				rest = rest[n+2:]
				continue
			}
			end := strings.IndexByte(rest, ']')
			if end < 0 {
				return fail("missing ']'")
			}
			i, err := strconv.Atoi(rest[1:end])
			if err != nil || i < 0 {
				return fail("bad index %q", rest[1:end])
			}
			loc = append(loc, Index(i))
			rest = rest[end+1:]
		default:
			return fail("unexpected %q", rest[0])
		}
	}
	return loc, nil
}

// unquoteKey reads a quoted key at the start of s and returns it with the
// number of bytes consumed, quotes included.
func unquoteKey(s string) (string, int, bool) {
	q := s[0]
	var b strings.Builder
	for i := 1; i < len(s); i++ {
		switch s[i] {
		case '\\':
			if i+1 < len(s) {
				i++
				b.WriteByte(s[i])
			}
		case q:
			return b.String(), i + 1, true
		default:
			b.WriteByte(s[i])
		}
	}
	return "", 0, false
}

// Find evaluates a JSONPath expression, filters and wildcards included,
// against root and returns the locators of every match.
func Find(root Value, path string) ([]Locator, error) {
	x, err := jp.ParseString(path)
	if err != nil {
		return nil, fmt.Errorf("invalid path %q: %w", path, err)
	}
	var out []Locator
	for _, found := range x.Locate(ToAny(root), 0) {
		var loc Locator
		for _, frag := range found {
			switch f := frag.(type) {
			case jp.Root, jp.At, jp.Bracket:
			case jp.Child:
				loc = append(loc, Key(string(f)))
			case jp.Nth:
				loc = append(loc, Index(int(f)))
			default:
				return nil, fmt.Errorf("path %q: unexpected fragment %T in match", path, frag)
			}
		}
		out = append(out, loc)
	}
	return out, nil
}

// LocatorError reports a locator that does not resolve against the
// structure it is applied to.
type LocatorError struct {
	Locator Locator
	Step    int // index of the failing step, -1 for the locator as a whole
	Reason  string
}

func (e *LocatorError) Error() string {
	if e.Step < 0 || e.Step >= len(e.Locator) {
		return fmt.Sprintf("locator %s: %s", e.Locator, e.Reason)
	}
	return fmt.Sprintf("locator %s: step %q: %s", e.Locator, e.Locator[e.Step].String(), e.Reason)
}

// Resolve walks loc from base and returns the addressed node.
func Resolve(base Value, loc Locator) (Value, error) {
	cur := base
	for i, s := range loc {
		next, err := child(cur, s)
		if err != nil {
			return nil, &LocatorError{Locator: loc.Clone(), Step: i, Reason: err.Error()}
		}
		cur = next
	}
	return cur, nil
}

// Assign replaces the node addressed by loc. The parent must exist; a map
// parent gains the key if it is missing, a sequence parent must already hold
// the index.
func Assign(base Value, loc Locator, v Value) error {
	if len(loc) == 0 {
		return &LocatorError{Locator: loc, Step: -1, Reason: "cannot assign to the base node"}
	}
	parent, err := Resolve(base, loc[:len(loc)-1])
	if err != nil {
		return err
	}
	last := loc[len(loc)-1]
	switch p := parent.(type) {
	case *Map:
		if last.isIndex {
			return &LocatorError{Locator: loc.Clone(), Step: len(loc) - 1, Reason: "index step into a map"}
		}
		p.Set(last.key, v)
		return nil
	case *Seq:
		if !last.isIndex {
			return &LocatorError{Locator: loc.Clone(), Step: len(loc) - 1, Reason: "key step into a sequence"}
		}
		if !p.Set(last.index, v) {
			return &LocatorError{Locator: loc.Clone(), Step: len(loc) - 1, Reason: fmt.Sprintf("index out of range [0,%d)", p.Len())}
		}
		return nil
	}
	return &LocatorError{Locator: loc.Clone(), Step: len(loc) - 1, Reason: fmt.Sprintf("cannot assign into a %s", parent.Kind())}
}

func child(v Value, s Step) (Value, error) {
	switch c := v.(type) {
	case *Map:
		if s.isIndex {
			return nil, fmt.Errorf("index step into a map")
		}
		item, ok := c.Get(s.key)
		if !ok {
			return nil, fmt.Errorf("no such key")
		}
		return item, nil
	case *Seq:
		if !s.isIndex {
			return nil, fmt.Errorf("key step into a sequence")
		}
		if s.index < 0 || s.index >= c.Len() {
			return nil, fmt.Errorf("index out of range [0,%d)", c.Len())
		}
		return c.At(s.index), nil
	case nil:
		return nil, fmt.Errorf("cannot descend into nothing")
	}
	return nil, fmt.Errorf("cannot descend into a %s", v.Kind())
}
