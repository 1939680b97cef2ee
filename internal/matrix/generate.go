// Package matrix expands a preset group's axes into named preset records:
// one hidden base record per axis value and one visible record per point of
// the cartesian product of the axes.
package matrix

import (
	"github.com/rs/zerolog"

	"github.com/thirtytwobits/the-cmake-preset-matrix/internal/document"
	"github.com/thirtytwobits/the-cmake-preset-matrix/internal/pquery"
	"github.com/thirtytwobits/the-cmake-preset-matrix/internal/presets"
)

// Generator produces records for the groups of one presets document.
type Generator struct {
	meta     *presets.Presets
	renderer *pquery.Renderer
	log      zerolog.Logger
}

// Option configures a Generator.
type Option func(*Generator)

// WithLogger sets the logger used for generation progress.
func WithLogger(log zerolog.Logger) Option {
	return func(g *Generator) {
		g.log = log
	}
}

// WithRenderer sets the renderer used to evaluate expression-valued
// parameters.
func WithRenderer(r *pquery.Renderer) Option {
	return func(g *Generator) {
		g.renderer = r
	}
}

func New(meta *presets.Presets, opts ...Option) *Generator {
	g := &Generator{meta: meta, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(g)
	}
	if g.renderer == nil {
		g.renderer = pquery.NewRenderer(pquery.WithLogger(g.log))
	}
	return g
}

// Parameters renders the declared values of one axis of group. Each value is
// token-expanded; a value that is a pQuery statement is evaluated with
// "this" bound to its declaration, and a sequence result yields one
// parameter per non-null element. An axis without values yields nothing.
func (g *Generator) Parameters(group *presets.Group, axis string) ([]presets.ScopedParameter, error) {
	declared, ok := group.ParameterOf(axis)
	return g.axisValues(group, "parameters", axis, declared, ok)
}

// ShapeParameters renders the always-applied values of one axis of group.
func (g *Generator) ShapeParameters(group *presets.Group, axis string) ([]presets.ScopedParameter, error) {
	declared, ok := group.ShapeParameterOf(axis)
	return g.axisValues(group, "shape-parameters", axis, declared, ok)
}

func (g *Generator) axisValues(group *presets.Group, section, axis string, declared document.Value, ok bool) ([]presets.ScopedParameter, error) {
	loc := group.Locator.Append(document.Key(section), document.Key(axis))
	// Prefer the live document so edits made by on-load expressions are seen.
	if live, err := document.Resolve(g.meta.Source, loc); err == nil {
		declared, ok = live, true
	}
	if !ok {
		return nil, nil
	}

	type item struct {
		value document.Value
		loc   document.Locator
	}
	var items []item
	if seq, isSeq := declared.(*document.Seq); isSeq {
		for i, v := range seq.All() {
			items = append(items, item{v, loc.Append(document.Index(i))})
		}
	} else {
		items = append(items, item{declared, loc})
	}

	t := &tokens{meta: g.meta, group: group, axis: axis, name: axis}
	var out []presets.ScopedParameter
	add := func(v document.Value) {
		if document.IsNull(v) {
			return
		}
		out = append(out, presets.ScopedParameter{Group: group, Axis: axis, Value: v, Separator: g.meta.Separator})
	}
	for _, it := range items {
		v, err := t.expand(it.value)
		if err != nil {
			return nil, err
		}
		if s, isString := v.(document.String); isString && pquery.Detect(string(s)) {
			if v, err = g.renderer.Evaluate(g.meta.Source, it.loc, string(s)); err != nil {
				return nil, err
			}
		}
		if seq, isSeq := v.(*document.Seq); isSeq {
			for _, e := range seq.All() {
				add(e)
			}
			continue
		}
		add(v)
	}
	return out, nil
}

// axes returns the parameters of every shape axis that has values, in shape
// declaration order.
func (g *Generator) axes(group *presets.Group) ([][]presets.ScopedParameter, error) {
	var out [][]presets.ScopedParameter
	for _, shape := range group.Shape {
		params, err := g.Parameters(group, shape.Name)
		if err != nil {
			return nil, err
		}
		if len(params) == 0 {
			continue
		}
		out = append(out, params)
	}
	return out, nil
}

// Hidden generates one hidden base record per axis value, named by the
// value's scoped name and shaped by the axis template.
func (g *Generator) Hidden(group *presets.Group) ([]*document.Map, error) {
	axes, err := g.axes(group)
	if err != nil {
		return nil, err
	}
	records := newRecordSet()
	for _, params := range axes {
		for _, p := range params {
			name := p.ScopedName()
			record := newRecord(name, true)
			if err := g.shape(group, record, name, p); err != nil {
				return nil, err
			}
			records.add(record)
		}
	}
	g.log.Debug().Str("group", group.Name).Bool("hidden", true).Int("count", records.len()).Msg("generated records")
	return records.list, nil
}

// Visible generates one record per configuration of the cartesian product
// of the group's axes. Excluded configurations and names no longer than the
// prefix are skipped.
func (g *Generator) Visible(group *presets.Group) ([]*document.Map, error) {
	axes, err := g.axes(group)
	if err != nil {
		return nil, err
	}
	shapeParams, err := g.shapeParameters(group)
	if err != nil {
		return nil, err
	}
	post := postProcessors[group.Name]

	records := newRecordSet()
	excluded := 0
	err = product(axes, func(c presets.Configuration) error {
		if group.Excluded(c) {
			excluded++
			return nil
		}
		name := c.Name(group.Prefix, g.meta.Separator)
		if len(name) <= len(group.Prefix) {
			return nil
		}
		record := newRecord(name, false)
		for _, p := range c {
			if err := g.shape(group, record, name, p); err != nil {
				return err
			}
		}
		for _, p := range shapeParams {
			if err := g.shape(group, record, name, p); err != nil {
				return err
			}
		}
		if post != nil {
			if err := post(g, group, record, c); err != nil {
				return err
			}
		}
		records.add(record)
		return nil
	})
	if err != nil {
		return nil, err
	}
	g.log.Debug().
		Str("group", group.Name).
		Bool("hidden", false).
		Int("count", records.len()).
		Int("excluded", excluded).
		Msg("generated records")
	return records.list, nil
}

func (g *Generator) shapeParameters(group *presets.Group) ([]presets.ScopedParameter, error) {
	var out []presets.ScopedParameter
	for _, a := range group.ShapeParameters {
		params, err := g.ShapeParameters(group, a.Name)
		if err != nil {
			return nil, err
		}
		out = append(out, params...)
	}
	return out, nil
}

// shape expands the template of p's axis for the record called name and
// deep-merges it into record.
func (g *Generator) shape(group *presets.Group, record *document.Map, name string, p presets.ScopedParameter) error {
	tmpl, ok := group.ShapeOf(p.Axis)
	if !ok {
		return nil
	}
	t := &tokens{meta: g.meta, group: group, axis: p.Axis, name: name, parameter: p.Text()}
	rendered, err := t.expand(tmpl)
	if err != nil {
		return err
	}
	m, ok := rendered.(*document.Map)
	if !ok {
		return &TemplateError{Group: group.Name, Axis: p.Axis, Message: "shape must be a map, found a " + rendered.Kind().String()}
	}
	document.DeepMerge(record, m)
	return nil
}

// product calls fn for every configuration of axes, varying the last axis
// fastest.
func product(axes [][]presets.ScopedParameter, fn func(presets.Configuration) error) error {
	if len(axes) == 0 {
		return nil
	}
	idx := make([]int, len(axes))
	for {
		c := make(presets.Configuration, len(axes))
		for i, a := range axes {
			c[i] = a[idx[i]]
		}
		if err := fn(c); err != nil {
			return err
		}
		i := len(axes) - 1
		for ; i >= 0; i-- {
			idx[i]++
			if idx[i] < len(axes[i]) {
				break
			}
			idx[i] = 0
		}
		if i < 0 {
			return nil
		}
	}
}

func newRecord(name string, hidden bool) *document.Map {
	r := document.NewMap()
	r.Set("name", document.String(name))
	if hidden {
		r.Set("hidden", document.Bool(true))
	}
	return r
}

// recordSet keeps generated records in generation order. A name generated
// twice is merged into its first record.
type recordSet struct {
	list   []*document.Map
	byName map[string]*document.Map
}

func newRecordSet() *recordSet {
	return &recordSet{byName: map[string]*document.Map{}}
}

func (s *recordSet) add(r *document.Map) {
	name, _ := r.String("name")
	if prev, ok := s.byName[name]; ok {
		document.DeepMerge(prev, r)
		return
	}
	s.byName[name] = r
	s.list = append(s.list, r)
}

func (s *recordSet) len() int { return len(s.list) }
