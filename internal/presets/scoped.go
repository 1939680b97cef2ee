package presets

import (
	"slices"

	"github.com/thirtytwobits/the-cmake-preset-matrix/api"
	"github.com/thirtytwobits/the-cmake-preset-matrix/internal/document"
)

// ScopedParameter is one rendered value of one axis of a group.
type ScopedParameter struct {
	Group     *Group
	Axis      string
	Value     document.Value
	Separator string
}

// Text is the literal text of the value.
func (p ScopedParameter) Text() string {
	return document.Text(p.Value)
}

// ScopedName is the canonical name of the parameter:
// prefix, axis and value joined by the separator.
func (p ScopedParameter) ScopedName() string {
	return p.Group.Prefix + p.Separator + p.Axis + p.Separator + p.Text()
}

func (p ScopedParameter) String() string {
	return p.ScopedName()
}

// Configuration is one point of a group's matrix: one parameter per axis.
type Configuration []ScopedParameter

// Name folds the group prefix with the separator and each value.
func (c Configuration) Name(prefix, sep string) string {
	name := prefix
	for _, p := range c {
		name += sep + p.Text()
	}
	return name
}

// Value returns the parameter chosen for axis.
func (c Configuration) Value(axis string) (ScopedParameter, bool) {
	for _, p := range c {
		if p.Axis == axis {
			return p, true
		}
	}
	return ScopedParameter{}, false
}

// Exclusion is a partial predicate over a configuration.
type Exclusion struct {
	Axes []api.RuleAxis
}

// Matches reports whether every axis of the rule is present in c with one
// of the rule's accepted values.
func (e Exclusion) Matches(c Configuration) bool {
	if len(e.Axes) == 0 {
		return false
	}
	for _, ra := range e.Axes {
		p, ok := c.Value(ra.Name)
		if !ok || !slices.Contains(ra.Values, p.Text()) {
			return false
		}
	}
	return true
}

// Excluded reports whether any exclusion of g matches c.
func (g *Group) Excluded(c Configuration) bool {
	for _, e := range g.Exclusions {
		if e.Matches(c) {
			return true
		}
	}
	return false
}
