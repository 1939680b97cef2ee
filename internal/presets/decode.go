package presets

import (
	"errors"

	"github.com/thirtytwobits/the-cmake-preset-matrix/api"
	"github.com/thirtytwobits/the-cmake-preset-matrix/internal/document"
)

const vendorField = "vendor." + api.VendorKey

// FromDocument reads and validates the vendor section of doc and returns the
// structured view of the document. Every problem found is reported as a
// *ConfigurationError before any generation begins.
func FromDocument(doc *document.Map) (*Presets, error) {
	v, err := document.Resolve(doc, VendorLocator)
	if err != nil {
		return nil, configErrorf(vendorField, "the document has no vendor section")
	}
	section, ok := v.(*document.Map)
	if !ok {
		return nil, configErrorf(vendorField, "expected a map, found a %s", v.Kind())
	}
	vendor, err := DecodeVendor(section)
	if err != nil {
		return nil, err
	}
	if err := Validate(vendor); err != nil {
		return nil, err
	}
	return New(doc, vendor), nil
}

// New binds a decoded vendor section to its source document. Groups the
// vendor section does not declare get defaults.
func New(doc *document.Map, vendor *api.Vendor) *Presets {
	p := &Presets{
		Source:    doc,
		Version:   vendor.Version,
		Separator: vendor.WordSeparator,
		Static:    vendor.Static,
	}
	if p.Static == nil {
		p.Static = document.NewMap()
	}

	onLoad := VendorLocator.Append(document.Key("on-load"))
	_, isList := resolveSeq(doc, onLoad)
	for i, text := range vendor.OnLoad {
		loc := onLoad
		if isList {
			loc = onLoad.Append(document.Index(i))
		}
		p.OnLoad = append(p.OnLoad, Expression{Text: text, Locator: loc})
	}

	for _, name := range GroupNames {
		loc := VendorLocator.Append(document.Key("preset-groups"), document.Key(name))
		p.groups = append(p.groups, newGroup(name, vendor.PresetGroups[name], loc))
	}
	return p
}

func resolveSeq(root document.Value, loc document.Locator) (*document.Seq, bool) {
	v, err := document.Resolve(root, loc)
	if err != nil {
		return nil, false
	}
	s, ok := v.(*document.Seq)
	return s, ok
}

// DecodeVendor converts the vendor section into its schema structs. Unknown
// keys are ignored; values of the wrong kind are errors.
func DecodeVendor(section *document.Map) (*api.Vendor, error) {
	d := &decoder{}
	vendor := &api.Vendor{WordSeparator: api.DefaultWordSeparator}

	for k, v := range section.All() {
		field := vendorField + "." + k
		switch k {
		case "version":
			vendor.Version = d.integer(field, v)
		case "word_separator":
			vendor.WordSeparator = d.text(field, v)
		case "static":
			if m, ok := v.(*document.Map); ok {
				vendor.Static = m
			} else {
				d.fail(field, "expected a map, found a %s", v.Kind())
			}
		case "on-load":
			vendor.OnLoad = d.texts(field, v)
		case "preset-groups":
			m, ok := v.(*document.Map)
			if !ok {
				d.fail(field, "expected a map, found a %s", v.Kind())
				continue
			}
			vendor.PresetGroups = make(map[string]*api.Group, m.Len())
			for name, gv := range m.All() {
				vendor.PresetGroups[name] = d.group(field+"."+name, name, gv)
			}
		}
	}
	if err := errors.Join(d.errs...); err != nil {
		return nil, err
	}
	return vendor, nil
}

type decoder struct {
	errs []error
}

func (d *decoder) fail(field, format string, args ...any) {
	d.errs = append(d.errs, configErrorf(field, format, args...))
}

func (d *decoder) integer(field string, v document.Value) int {
	n, ok := v.(document.Number)
	if !ok {
		d.fail(field, "expected an integer, found a %s", v.Kind())
		return 0
	}
	i, err := n.Int64()
	if err != nil {
		d.fail(field, "expected an integer, found %s", n)
		return 0
	}
	return int(i)
}

func (d *decoder) text(field string, v document.Value) string {
	s, ok := v.(document.String)
	if !ok {
		d.fail(field, "expected a string, found a %s", v.Kind())
		return ""
	}
	return string(s)
}

// texts accepts a string or a sequence of strings.
func (d *decoder) texts(field string, v document.Value) []string {
	if s, ok := v.(document.String); ok {
		return []string{string(s)}
	}
	seq, ok := v.(*document.Seq)
	if !ok {
		d.fail(field, "expected a string or a list of strings, found a %s", v.Kind())
		return nil
	}
	out := make([]string, 0, seq.Len())
	for _, item := range seq.All() {
		s, ok := item.(document.String)
		if !ok {
			d.fail(field, "expected a list of strings, found a %s element", item.Kind())
			return nil
		}
		out = append(out, string(s))
	}
	return out
}

func (d *decoder) group(field, name string, v document.Value) *api.Group {
	m, ok := v.(*document.Map)
	if !ok {
		d.fail(field, "expected a map, found a %s", v.Kind())
		return nil
	}
	g := &api.Group{Prefix: name}
	for k, item := range m.All() {
		f := field + "." + k
		switch k {
		case "prefix":
			g.Prefix = d.text(f, item)
		case "common":
			if _, ok := item.(*document.Seq); !ok {
				d.fail(f, "expected a list of strings, found a %s", item.Kind())
				continue
			}
			g.Common = d.texts(f, item)
		case "shape":
			g.Shape = d.axes(f, item)
		case "parameters":
			g.Parameters = d.axes(f, item)
		case "shape-parameters":
			g.ShapeParameters = d.axes(f, item)
		case "exclude":
			g.Exclude = d.rules(f, item)
		}
	}
	return g
}

// axes keeps the declaration order of an axis map.
func (d *decoder) axes(field string, v document.Value) []api.Axis {
	m, ok := v.(*document.Map)
	if !ok {
		d.fail(field, "expected a map of axes, found a %s", v.Kind())
		return nil
	}
	out := make([]api.Axis, 0, m.Len())
	for name, item := range m.All() {
		out = append(out, api.Axis{Name: name, Value: item})
	}
	return out
}

func (d *decoder) rules(field string, v document.Value) []api.Rule {
	seq, ok := v.(*document.Seq)
	if !ok {
		d.fail(field, "expected a list of rules, found a %s", v.Kind())
		return nil
	}
	out := make([]api.Rule, 0, seq.Len())
	for _, item := range seq.All() {
		m, ok := item.(*document.Map)
		if !ok {
			d.fail(field, "expected each rule to be a map, found a %s", item.Kind())
			continue
		}
		var rule api.Rule
		for axis, accepted := range m.All() {
			values, ok := scalarTexts(accepted)
			if !ok {
				d.fail(field+"."+axis, "expected a value or a list of values")
				continue
			}
			rule.Axes = append(rule.Axes, api.RuleAxis{Name: axis, Values: values})
		}
		out = append(out, rule)
	}
	return out
}

func scalarTexts(v document.Value) ([]string, bool) {
	switch t := v.(type) {
	case document.String, document.Number, document.Bool:
		return []string{document.Text(t)}, true
	case *document.Seq:
		out := make([]string, 0, t.Len())
		for _, item := range t.All() {
			switch item.(type) {
			case document.String, document.Number, document.Bool:
				out = append(out, document.Text(item))
			default:
				return nil, false
			}
		}
		return out, true
	}
	return nil, false
}
