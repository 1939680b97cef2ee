package api

import "github.com/thirtytwobits/the-cmake-preset-matrix/internal/document"

// VendorKey is the key of the tcpm section inside a presets document's
// "vendor" map.
const VendorKey = "tcpm"

// SupportedVersion is the only vendor section version this tool reads.
const SupportedVersion = 1

// DefaultWordSeparator joins the words of generated preset names.
const DefaultWordSeparator = "-"

// Vendor represents the vendor.tcpm section of a presets document.
// It declares how each preset group is expanded into a matrix.
type Vendor struct {
	// Version of the vendor section schema.
	Version int `json:"version" validate:"required,eq=1"`
	// WordSeparator joins prefixes, axis names and values.
	WordSeparator string `json:"word_separator" validate:"required"`
	// Static values available to templates as {static:key}.
	Static *document.Map `json:"static,omitempty"`
	// OnLoad expressions are evaluated before any generation.
	OnLoad []string `json:"on-load,omitempty" validate:"dive,required"`
	// PresetGroups maps a group name to its definition.
	PresetGroups map[string]*Group `json:"preset-groups,omitempty" validate:"dive,keys,oneof=configure build test package workflow,endkeys,required"`
}

// Group declares the matrix of one preset group.
type Group struct {
	// Prefix starts every generated name. Defaults to the group name.
	Prefix string `json:"prefix" validate:"required"`
	// Common names pre-existing presets that are never managed.
	Common []string `json:"common,omitempty" validate:"dive,required"`
	// Shape holds one template per axis, in declaration order.
	Shape []Axis `json:"shape,omitempty" validate:"unique=Name,dive"`
	// Parameters holds the values of each axis.
	Parameters []Axis `json:"parameters,omitempty" validate:"unique=Name,dive"`
	// ShapeParameters holds values rendered into every visible preset.
	ShapeParameters []Axis `json:"shape-parameters,omitempty" validate:"unique=Name,dive"`
	// Exclude lists configurations that are not generated.
	Exclude []Rule `json:"exclude,omitempty" validate:"dive"`
}

// Axis is one entry of an ordered axis map. For shapes Value is a template
// fragment; for parameters it is a value or a sequence of values.
type Axis struct {
	Name  string         `json:"name" validate:"required"`
	Value document.Value `json:"value"`
}

// Rule excludes every configuration matching all of its axes.
type Rule struct {
	Axes []RuleAxis `json:"axes" validate:"min=1,unique=Name,dive"`
}

// RuleAxis accepts any of Values for the axis Name.
type RuleAxis struct {
	Name   string   `json:"name" validate:"required"`
	Values []string `json:"values" validate:"min=1"`
}
