package matrix

import (
	"fmt"
	"strings"

	"github.com/thirtytwobits/the-cmake-preset-matrix/internal/document"
	"github.com/thirtytwobits/the-cmake-preset-matrix/internal/presets"
)

// tokens holds the values substituted into one template expansion.
//
//	{name}       the record being generated (the axis name for parameter values)
//	{parameter}  the text of the axis value ("" for parameter values)
//	{prefix}     the group prefix
//	{sep}        the word separator
//	{value}      the template string itself, before expansion
//	{pq}         a literal '$', so statements survive until the record is rendered
//	{doc}        the source document as compact JSON
//	{groups}     the preset-groups section as compact JSON
//	{static:key} an entry of the vendor static map
//
// "{{" and "}}" produce literal braces.
type tokens struct {
	meta      *presets.Presets
	group     *presets.Group
	axis      string
	name      string
	parameter string
}

func (t *tokens) fail(text, format string, args ...any) *TemplateError {
	return &TemplateError{Group: t.group.Name, Axis: t.axis, Text: text, Message: fmt.Sprintf(format, args...)}
}

// expand renders v recursively. Map keys are expanded as well as values;
// scalars other than strings are copied.
func (t *tokens) expand(v document.Value) (document.Value, error) {
	switch n := v.(type) {
	case document.String:
		s, err := t.expandString(string(n))
		if err != nil {
			return nil, err
		}
		return document.String(s), nil
	case *document.Seq:
		out := document.NewSeq()
		for _, item := range n.All() {
			e, err := t.expand(item)
			if err != nil {
				return nil, err
			}
			out.Append(e)
		}
		return out, nil
	case *document.Map:
		out := document.NewMap()
		for k, item := range n.All() {
			key, err := t.expandString(k)
			if err != nil {
				return nil, err
			}
			e, err := t.expand(item)
			if err != nil {
				return nil, err
			}
			out.Set(key, e)
		}
		return out, nil
	}
	return document.Clone(v), nil
}

func (t *tokens) expandString(s string) (string, error) {
	if !strings.ContainsAny(s, "{}") {
		return s, nil
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '{' && i+1 < len(s) && s[i+1] == '{':
			b.WriteByte('{')
			i++
		case c == '}' && i+1 < len(s) && s[i+1] == '}':
			b.WriteByte('}')
			i++
		case c == '}':
			return "", t.fail(s, "single '}' at offset %d", i)
		case c == '{':
			end := strings.IndexByte(s[i:], '}')
			if end < 0 {
				return "", t.fail(s, "unclosed '{' at offset %d", i)
			}
			v, err := t.lookup(s, s[i+1:i+end])
			if err != nil {
				return "", err
			}
			b.WriteString(v)
			i += end
		default:
			b.WriteByte(c)
		}
	}
	return b.String(), nil
}

func (t *tokens) lookup(text, token string) (string, error) {
	switch token {
	case "name":
		return t.name, nil
	case "parameter":
		return t.parameter, nil
	case "prefix":
		return t.group.Prefix, nil
	case "sep":
		return t.meta.Separator, nil
	case "value":
		return text, nil
	case "pq":
		return "$", nil
	case "doc":
		return string(document.Encode(t.meta.Source, 0)), nil
	case "groups":
		groups, err := document.Resolve(t.meta.Source, presets.VendorLocator.Append(document.Key("preset-groups")))
		if err != nil {
			return "{}", nil
		}
		return string(document.Encode(groups, 0)), nil
	}
	if key, ok := strings.CutPrefix(token, "static:"); ok {
		v, found := t.meta.Static.Get(key)
		if !found {
			return "", t.fail(text, "no static value %q", key)
		}
		return document.Text(v), nil
	}
	return "", t.fail(text, "unknown token {%s}", token)
}
