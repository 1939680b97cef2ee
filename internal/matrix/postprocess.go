package matrix

import (
	"github.com/thirtytwobits/the-cmake-preset-matrix/internal/document"
	"github.com/thirtytwobits/the-cmake-preset-matrix/internal/presets"
)

// postProcessor finishes a visible record after its shapes are merged.
type postProcessor func(g *Generator, group *presets.Group, record *document.Map, c presets.Configuration) error

var postProcessors = map[string]postProcessor{
	presets.Configure: inheritBases,
	presets.Workflow:  workflowSteps,
}

// inheritBases makes a configure record inherit the group's common presets
// followed by the hidden base of every value in its configuration.
func inheritBases(_ *Generator, group *presets.Group, record *document.Map, c presets.Configuration) error {
	inherits := document.Strings(group.Common...)
	for _, p := range c {
		inherits.Append(document.String(p.ScopedName()))
	}
	record.Set("inherits", inherits)
	return nil
}

// stepGroups are the groups a workflow steps through after configuring.
var stepGroups = []string{presets.Build, presets.Test, presets.Package}

// workflowSteps sets the steps of a workflow record: one configure step
// followed by a step for every existing build, test and package record
// derived from the workflow's configuration. Axes a group has that the
// workflow lacks expand over all of their values.
func workflowSteps(g *Generator, _ *presets.Group, record *document.Map, c presets.Configuration) error {
	steps := document.NewSeq()

	configure, err := g.derivedNames(g.meta.Group(presets.Configure), c)
	if err != nil {
		return err
	}
	if len(configure) > 0 {
		steps.Append(step(presets.Configure, configure[0]))
	}
	for _, name := range stepGroups {
		names, err := g.derivedNames(g.meta.Group(name), c)
		if err != nil {
			return err
		}
		for _, n := range names {
			steps.Append(step(name, n))
		}
	}
	record.Set("steps", steps)
	return nil
}

func step(group, name string) *document.Map {
	m := document.NewMap()
	m.Set("type", document.String(group))
	m.Set("name", document.String(name))
	return m
}

// derivedNames lists, in product order, the names of records in target that
// exist in the document and whose configuration agrees with c on every axis
// the two share.
func (g *Generator) derivedNames(target *presets.Group, c presets.Configuration) ([]string, error) {
	axes, err := g.axes(target)
	if err != nil {
		return nil, err
	}
	for i, params := range axes {
		if fixed, ok := c.Value(params[0].Axis); ok {
			axes[i] = []presets.ScopedParameter{{Group: target, Axis: fixed.Axis, Value: fixed.Value, Separator: fixed.Separator}}
		}
	}
	existing := g.existingNames(target.Name)
	var names []string
	err = product(axes, func(tc presets.Configuration) error {
		name := tc.Name(target.Prefix, g.meta.Separator)
		if existing[name] {
			names = append(names, name)
		}
		return nil
	})
	return names, err
}

func (g *Generator) existingNames(group string) map[string]bool {
	names := map[string]bool{}
	records := g.meta.Records(group)
	if records == nil {
		return names
	}
	for _, r := range records.All() {
		if m, ok := r.(*document.Map); ok {
			if name, ok := m.String("name"); ok {
				names[name] = true
			}
		}
	}
	return names
}
