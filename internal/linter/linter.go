// Package linter checks the structure of a presets document: the parts of
// the CMake presets schema that generation relies on.
package linter

import (
	"fmt"

	"github.com/thirtytwobits/the-cmake-preset-matrix/internal/document"
	"github.com/thirtytwobits/the-cmake-preset-matrix/internal/presets"
)

type Severity int

const (
	Warning Severity = iota
	Error
)

func (s Severity) String() string {
	if s == Error {
		return "error"
	}
	return "warning"
}

type Diagnostic struct {
	Severity Severity
	Locator  document.Locator
	Message  string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s: %s", d.Severity, d.Locator, d.Message)
}

// Option configures Lint.
type Option func(*linter)

// WithReferenceSeverity sets the severity of unresolved preset names in
// inherits, configurePreset and workflow steps. The default is Error. An
// input document may name presets that generation has yet to create.
func WithReferenceSeverity(s Severity) Option {
	return func(l *linter) {
		l.refSeverity = s
	}
}

// Validate reports whether doc has no error-level diagnostics.
func Validate(doc document.Value, opts ...Option) bool {
	for _, d := range Lint(doc, opts...) {
		if d.Severity == Error {
			return false
		}
	}
	return true
}

// Lint checks doc and returns its diagnostics in document order.
//
// Rules:
//   - the top level is a map with an integer version
//   - each collection is a list of maps with a unique, non-empty string name
//   - inherits names records of the same collection
//   - configurePreset names a configure record
//   - workflow steps name records of their step type
func Lint(doc document.Value, opts ...Option) []Diagnostic {
	l := &linter{refSeverity: Error}
	for _, opt := range opts {
		opt(l)
	}
	root, ok := doc.(*document.Map)
	if !ok {
		l.errorf(nil, "expected a map at the top level, found a %s", doc.Kind())
		return l.diags
	}

	version, ok := root.Get("version")
	switch {
	case !ok:
		l.errorf(document.Locator{document.Key("version")}, "missing")
	case !isInteger(version):
		l.errorf(document.Locator{document.Key("version")}, "expected an integer, found %s", document.Text(version))
	}

	names := map[string]map[string]bool{}
	for _, group := range presets.GroupNames {
		names[group] = l.collection(root, group)
	}
	for _, group := range presets.GroupNames {
		l.references(root, group, names)
	}
	return l.diags
}

type linter struct {
	diags       []Diagnostic
	refSeverity Severity
}

func (l *linter) errorf(loc document.Locator, format string, args ...any) {
	l.diags = append(l.diags, Diagnostic{Severity: Error, Locator: loc, Message: fmt.Sprintf(format, args...)})
}

func (l *linter) warnf(loc document.Locator, format string, args ...any) {
	l.diags = append(l.diags, Diagnostic{Severity: Warning, Locator: loc, Message: fmt.Sprintf(format, args...)})
}

func (l *linter) unresolvedf(loc document.Locator, format string, args ...any) {
	l.diags = append(l.diags, Diagnostic{Severity: l.refSeverity, Locator: loc, Message: fmt.Sprintf(format, args...)})
}

// collection checks the shape of one collection and returns its names.
func (l *linter) collection(root *document.Map, group string) map[string]bool {
	key := presets.CollectionKey(group)
	names := map[string]bool{}
	v, ok := root.Get(key)
	if !ok {
		return names
	}
	base := document.Locator{document.Key(key)}
	seq, ok := v.(*document.Seq)
	if !ok {
		l.errorf(base, "expected a list, found a %s", v.Kind())
		return names
	}
	for i, item := range seq.All() {
		loc := base.Append(document.Index(i))
		m, ok := item.(*document.Map)
		if !ok {
			l.errorf(loc, "expected a map, found a %s", item.Kind())
			continue
		}
		name, ok := m.String("name")
		switch {
		case !ok:
			l.errorf(loc.Append(document.Key("name")), "missing or not a string")
		case name == "":
			l.errorf(loc.Append(document.Key("name")), "empty")
		case names[name]:
			l.errorf(loc.Append(document.Key("name")), "duplicate name %q", name)
		default:
			names[name] = true
		}
	}
	return names
}

func (l *linter) references(root *document.Map, group string, names map[string]map[string]bool) {
	key := presets.CollectionKey(group)
	v, _ := root.Get(key)
	seq, ok := v.(*document.Seq)
	if !ok {
		return
	}
	for i, item := range seq.All() {
		m, ok := item.(*document.Map)
		if !ok {
			continue
		}
		loc := document.Locator{document.Key(key), document.Index(i)}

		if inherits, ok := m.Get("inherits"); ok {
			l.names(loc.Append(document.Key("inherits")), inherits, names[group], group)
		}
		if ref, ok := m.Get("configurePreset"); ok && group != presets.Configure {
			l.names(loc.Append(document.Key("configurePreset")), ref, names[presets.Configure], presets.Configure)
		}
		if group == presets.Workflow {
			l.steps(loc.Append(document.Key("steps")), m, names)
		}
	}
}

// names checks a string or list of strings against known names.
func (l *linter) names(loc document.Locator, v document.Value, known map[string]bool, group string) {
	check := func(loc document.Locator, v document.Value) {
		s, ok := v.(document.String)
		if !ok {
			l.errorf(loc, "expected a string, found a %s", v.Kind())
			return
		}
		if !known[string(s)] {
			l.unresolvedf(loc, "no %s preset named %q", group, s)
		}
	}
	if seq, ok := v.(*document.Seq); ok {
		for i, item := range seq.All() {
			check(loc.Append(document.Index(i)), item)
		}
		return
	}
	check(loc, v)
}

func (l *linter) steps(loc document.Locator, workflow *document.Map, names map[string]map[string]bool) {
	v, ok := workflow.Get("steps")
	if !ok {
		l.warnf(loc, "workflow has no steps")
		return
	}
	seq, ok := v.(*document.Seq)
	if !ok {
		l.errorf(loc, "expected a list, found a %s", v.Kind())
		return
	}
	for i, item := range seq.All() {
		sloc := loc.Append(document.Index(i))
		step, ok := item.(*document.Map)
		if !ok {
			l.errorf(sloc, "expected a map, found a %s", item.Kind())
			continue
		}
		kind, _ := step.String("type")
		known, ok := names[kind]
		if !ok {
			l.errorf(sloc.Append(document.Key("type")), "unknown step type %q", kind)
			continue
		}
		if i == 0 && kind != presets.Configure {
			l.errorf(sloc.Append(document.Key("type")), "the first step must be a configure step")
		}
		name, ok := step.Get("name")
		if !ok {
			name = document.Null{}
		}
		l.names(sloc.Append(document.Key("name")), name, known, kind)
	}
}

func isInteger(v document.Value) bool {
	n, ok := v.(document.Number)
	if !ok {
		return false
	}
	_, err := n.Int64()
	return err == nil
}
