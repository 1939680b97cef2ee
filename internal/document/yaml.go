package document

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// DecodeYAML parses a YAML document into a Value. Mapping keys keep their
// order; aliases are expanded.
func DecodeYAML(data []byte) (Value, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	if root.Kind == 0 {
		return nil, fmt.Errorf("decode yaml: empty document")
	}
	return fromNode(&root)
}

func fromNode(n *yaml.Node) (Value, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return Null{}, nil
		}
		return fromNode(n.Content[0])
	case yaml.AliasNode:
		return fromNode(n.Alias)
	case yaml.SequenceNode:
		s := &Seq{items: make([]Value, 0, len(n.Content))}
		for _, c := range n.Content {
			v, err := fromNode(c)
			if err != nil {
				return nil, err
			}
			s.items = append(s.items, v)
		}
		return s, nil
	case yaml.MappingNode:
		m := NewMap()
		for i := 0; i+1 < len(n.Content); i += 2 {
			k, v := n.Content[i], n.Content[i+1]
			if k.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("decode yaml: line %d: mapping keys must be scalars", k.Line)
			}
			if k.Value == "<<" && k.ShortTag() == "!!merge" {
				if err := mergeInto(m, v); err != nil {
					return nil, err
				}
				continue
			}
			val, err := fromNode(v)
			if err != nil {
				return nil, err
			}
			m.Set(k.Value, val)
		}
		return m, nil
	case yaml.ScalarNode:
		return fromScalar(n)
	}
	return nil, fmt.Errorf("decode yaml: line %d: unsupported node kind %d", n.Line, n.Kind)
}

func fromScalar(n *yaml.Node) (Value, error) {
	switch n.ShortTag() {
	case "!!null":
		return Null{}, nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return nil, fmt.Errorf("decode yaml: line %d: %w", n.Line, err)
		}
		return Bool(b), nil
	case "!!int":
		var i int64
		if err := n.Decode(&i); err != nil {
			return nil, fmt.Errorf("decode yaml: line %d: %w", n.Line, err)
		}
		return Int(i), nil
	case "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return nil, fmt.Errorf("decode yaml: line %d: %w", n.Line, err)
		}
		return Float(f), nil
	}
	return String(n.Value), nil
}

// mergeInto applies a YAML merge key. Keys already present win.
func mergeInto(m *Map, n *yaml.Node) error {
	v, err := fromNode(n)
	if err != nil {
		return err
	}
	var sources []*Map
	switch t := v.(type) {
	case *Map:
		sources = append(sources, t)
	case *Seq:
		for _, item := range t.items {
			src, ok := item.(*Map)
			if !ok {
				return fmt.Errorf("decode yaml: line %d: merge sequence must hold maps", n.Line)
			}
			sources = append(sources, src)
		}
	default:
		return fmt.Errorf("decode yaml: line %d: merge value must be a map", n.Line)
	}
	for _, src := range sources {
		for k, item := range src.All() {
			if !m.Has(k) {
				m.Set(k, item)
			}
		}
	}
	return nil
}
