// Package presets builds the structured view of a presets document: the
// vendor section's groups, axes, shapes and exclusions, bound to the source
// document they were read from.
package presets

import (
	"slices"
	"strings"

	"github.com/thirtytwobits/the-cmake-preset-matrix/api"
	"github.com/thirtytwobits/the-cmake-preset-matrix/internal/document"
)

// Group names, in processing order. Configure is the primary group.
const (
	Configure = "configure"
	Build     = "build"
	Test      = "test"
	Package   = "package"
	Workflow  = "workflow"
)

// GroupNames lists every preset group in processing order.
var GroupNames = []string{Configure, Build, Test, Package, Workflow}

// CollectionKey is the top-level key holding a group's presets.
func CollectionKey(group string) string {
	return group + "Presets"
}

// CollectionKeys returns the collection key of every group.
func CollectionKeys() []string {
	keys := make([]string, len(GroupNames))
	for i, g := range GroupNames {
		keys[i] = CollectionKey(g)
	}
	return keys
}

// VendorLocator addresses the vendor section within a presets document.
var VendorLocator = document.Locator{document.Key("vendor"), document.Key(api.VendorKey)}

// Expression is a pQuery statement declared in the vendor section together
// with its location.
type Expression struct {
	Text    string
	Locator document.Locator
}

// Presets is the structured view of one presets document.
type Presets struct {
	Source    *document.Map
	Version   int
	Separator string
	Static    *document.Map
	OnLoad    []Expression
	groups    []*Group
}

// Group returns the named group. Every group in GroupNames exists, declared
// or not.
func (p *Presets) Group(name string) *Group {
	for _, g := range p.groups {
		if g.Name == name {
			return g
		}
	}
	return nil
}

// Groups returns the groups in processing order.
func (p *Presets) Groups() []*Group {
	return p.groups
}

// Records returns the preset collection of a group, or nil when the document
// has none.
func (p *Presets) Records(group string) *document.Seq {
	v, ok := p.Source.Get(CollectionKey(group))
	if !ok {
		return nil
	}
	s, _ := v.(*document.Seq)
	return s
}

// Group is one preset group and its matrix declaration.
type Group struct {
	Name            string
	Prefix          string
	Common          []string
	Shape           []api.Axis
	Parameters      []api.Axis
	ShapeParameters []api.Axis
	Exclusions      []Exclusion
	// Locator addresses the group's declaration in the source document.
	Locator document.Locator
}

func newGroup(name string, decl *api.Group, loc document.Locator) *Group {
	g := &Group{Name: name, Prefix: name, Locator: loc}
	if decl == nil {
		return g
	}
	g.Prefix = decl.Prefix
	g.Common = decl.Common
	g.Shape = slices.Clone(decl.Shape)
	g.Parameters = decl.Parameters
	g.ShapeParameters = decl.ShapeParameters
	for _, r := range decl.Exclude {
		g.Exclusions = append(g.Exclusions, Exclusion{Axes: r.Axes})
	}
	g.backfillShapes()
	return g
}

// backfillShapes gives every axis that has values but no shape an empty map
// shape, appended after the declared shapes.
func (g *Group) backfillShapes() {
	for _, axes := range [][]api.Axis{g.Parameters, g.ShapeParameters} {
		for _, a := range axes {
			if _, ok := g.ShapeOf(a.Name); !ok {
				g.Shape = append(g.Shape, api.Axis{Name: a.Name, Value: document.NewMap()})
			}
		}
	}
}

// ShapeOf returns the shape template of an axis.
func (g *Group) ShapeOf(axis string) (document.Value, bool) {
	return lookup(g.Shape, axis)
}

// ParameterOf returns the declared value(s) of an axis.
func (g *Group) ParameterOf(axis string) (document.Value, bool) {
	return lookup(g.Parameters, axis)
}

// ShapeParameterOf returns the declared always-applied value(s) of an axis.
func (g *Group) ShapeParameterOf(axis string) (document.Value, bool) {
	return lookup(g.ShapeParameters, axis)
}

func lookup(axes []api.Axis, name string) (document.Value, bool) {
	for _, a := range axes {
		if a.Name == name {
			return a.Value, true
		}
	}
	return nil, false
}

// IsCommon reports whether name is one of the group's common presets.
func (g *Group) IsCommon(name string) bool {
	return slices.Contains(g.Common, name)
}

// IsManaged reports whether a preset called name is owned by the generator:
// it starts with the prefix and separator and is not a common preset.
func (g *Group) IsManaged(name, sep string) bool {
	return strings.HasPrefix(name, g.Prefix+sep) && !g.IsCommon(name)
}
