// Package document implements the mutable, order-preserving tree that a
// presets file is loaded into. Every node is one of a closed set of variants
// (null, bool, number, string, sequence, map) and nodes are addressed by
// Locators relative to a base node.
package document

import (
	"fmt"
	"iter"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Kind identifies the variant held by a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindSeq
	KindMap
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindSeq:
		return "sequence"
	case KindMap:
		return "map"
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Value is a node of a document. The set of implementations is closed;
// callers dispatch with a type switch over Null, Bool, Number, String,
// *Seq and *Map.
type Value interface {
	Kind() Kind
	isValue()
}

// Null is the absent value. It doubles as the "not yet set" sentinel used
// while a location is being rendered.
type Null struct{}

// Bool is a boolean scalar.
type Bool bool

// Number keeps the literal text of a numeric scalar so that documents round
// trip without reformatting.
type Number string

// String is a text scalar.
type String string

func (Null) Kind() Kind   { return KindNull }
func (Bool) Kind() Kind   { return KindBool }
func (Number) Kind() Kind { return KindNumber }
func (String) Kind() Kind { return KindString }
func (*Seq) Kind() Kind   { return KindSeq }
func (*Map) Kind() Kind   { return KindMap }

func (Null) isValue()   {}
func (Bool) isValue()   {}
func (Number) isValue() {}
func (String) isValue() {}
func (*Seq) isValue()   {}
func (*Map) isValue()   {}

// Int formats an integer as a Number.
func Int(i int64) Number {
	return Number(strconv.FormatInt(i, 10))
}

// Float formats a float as a Number. Integral floats keep a trailing ".0".
func Float(f float64) Number {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !math.IsInf(f, 0) && !math.IsNaN(f) && !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return Number(s)
}

// Int64 parses the number as an integer.
func (n Number) Int64() (int64, error) {
	return strconv.ParseInt(string(n), 10, 64)
}

// Float64 parses the number as a float.
func (n Number) Float64() (float64, error) {
	return strconv.ParseFloat(string(n), 64)
}

// Seq is an ordered sequence of values.
type Seq struct {
	items []Value
}

// NewSeq returns a sequence holding items.
func NewSeq(items ...Value) *Seq {
	s := &Seq{items: make([]Value, 0, len(items))}
	s.items = append(s.items, items...)
	return s
}

// Strings returns a sequence of String values.
func Strings(items ...string) *Seq {
	s := &Seq{items: make([]Value, 0, len(items))}
	for _, item := range items {
		s.items = append(s.items, String(item))
	}
	return s
}

func (s *Seq) Len() int { return len(s.items) }

// At returns the item at i. The caller checks bounds with Len.
func (s *Seq) At(i int) Value { return s.items[i] }

// Set replaces the item at i. It returns false when i is out of range.
func (s *Seq) Set(i int, v Value) bool {
	if i < 0 || i >= len(s.items) {
		return false
	}
	s.items[i] = v
	return true
}

// Append adds values to the end of the sequence.
func (s *Seq) Append(v ...Value) {
	s.items = append(s.items, v...)
}

// Contains reports whether an item Equal to v is present.
func (s *Seq) Contains(v Value) bool {
	for _, item := range s.items {
		if Equal(item, v) {
			return true
		}
	}
	return false
}

// Filter keeps the items for which keep returns true.
func (s *Seq) Filter(keep func(Value) bool) {
	kept := s.items[:0]
	for _, item := range s.items {
		if keep(item) {
			kept = append(kept, item)
		}
	}
	for i := len(kept); i < len(s.items); i++ {
		s.items[i] = nil
	}
	s.items = kept
}

// All iterates the sequence. Items appended during iteration are visited.
func (s *Seq) All() iter.Seq2[int, Value] {
	return func(yield func(int, Value) bool) {
		for i := 0; i < len(s.items); i++ {
			if !yield(i, s.items[i]) {
				return
			}
		}
	}
}

// Map is a string-keyed map that remembers insertion order. Setting an
// existing key keeps its position.
type Map struct {
	keys []string
	vals map[string]Value
}

// NewMap returns an empty map.
func NewMap() *Map {
	return &Map{vals: make(map[string]Value)}
}

func (m *Map) Len() int { return len(m.keys) }

// Keys returns a copy of the keys in order.
func (m *Map) Keys() []string {
	return append([]string(nil), m.keys...)
}

// Get returns the value stored under k.
func (m *Map) Get(k string) (Value, bool) {
	v, ok := m.vals[k]
	return v, ok
}

// Has reports whether k is present.
func (m *Map) Has(k string) bool {
	_, ok := m.vals[k]
	return ok
}

// Set stores v under k, appending k when it is new.
func (m *Map) Set(k string, v Value) {
	if _, ok := m.vals[k]; !ok {
		m.keys = append(m.keys, k)
	}
	m.vals[k] = v
}

// Delete removes k and reports whether it was present.
func (m *Map) Delete(k string) bool {
	if _, ok := m.vals[k]; !ok {
		return false
	}
	delete(m.vals, k)
	for i, key := range m.keys {
		if key == k {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
	return true
}

// All iterates the map in key order. Keys added during iteration are visited.
func (m *Map) All() iter.Seq2[string, Value] {
	return func(yield func(string, Value) bool) {
		for i := 0; i < len(m.keys); i++ {
			k := m.keys[i]
			if !yield(k, m.vals[k]) {
				return
			}
		}
	}
}

// String returns the string stored under k, or "" when absent or not a string.
func (m *Map) String(k string) (string, bool) {
	v, ok := m.vals[k]
	if !ok {
		return "", false
	}
	s, ok := v.(String)
	return string(s), ok
}

// Text coerces a value to its literal text. Null is the empty string and
// containers are rendered as compact JSON.
func Text(v Value) string {
	switch t := v.(type) {
	case nil, Null:
		return ""
	case Bool:
		return strconv.FormatBool(bool(t))
	case Number:
		return string(t)
	case String:
		return string(t)
	default:
		return string(Encode(v, 0))
	}
}

// IsNull reports whether v is Null (or a nil interface).
func IsNull(v Value) bool {
	switch v.(type) {
	case nil, Null:
		return true
	}
	return false
}

// IsNullish reports whether v is null or a sequence made only of nulls.
func IsNullish(v Value) bool {
	if IsNull(v) {
		return true
	}
	s, ok := v.(*Seq)
	if !ok || s.Len() == 0 {
		return false
	}
	for _, item := range s.items {
		if !IsNull(item) {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of v.
func Clone(v Value) Value {
	switch t := v.(type) {
	case nil:
		return Null{}
	case *Seq:
		out := &Seq{items: make([]Value, len(t.items))}
		for i, item := range t.items {
			out.items[i] = Clone(item)
		}
		return out
	case *Map:
		out := &Map{keys: append([]string(nil), t.keys...), vals: make(map[string]Value, len(t.vals))}
		for k, item := range t.vals {
			out.vals[k] = Clone(item)
		}
		return out
	default:
		return v
	}
}

// Equal reports deep equality. Map key order is not significant.
func Equal(a, b Value) bool {
	if IsNull(a) || IsNull(b) {
		return IsNull(a) && IsNull(b)
	}
	switch x := a.(type) {
	case *Seq:
		y, ok := b.(*Seq)
		if !ok || len(x.items) != len(y.items) {
			return false
		}
		for i := range x.items {
			if !Equal(x.items[i], y.items[i]) {
				return false
			}
		}
		return true
	case *Map:
		y, ok := b.(*Map)
		if !ok || len(x.keys) != len(y.keys) {
			return false
		}
		for k, xv := range x.vals {
			yv, ok := y.vals[k]
			if !ok || !Equal(xv, yv) {
				return false
			}
		}
		return true
	case Number:
		y, ok := b.(Number)
		if !ok {
			return false
		}
		if x == y {
			return true
		}
		xf, xerr := x.Float64()
		yf, yerr := y.Float64()
		return xerr == nil && yerr == nil && xf == yf
	default:
		return a == b
	}
}

// FromAny converts plain Go values (as produced by encoding/json or written
// in tests) into a Value. Keys of Go maps are sorted since Go maps carry no
// order.
func FromAny(x any) (Value, error) {
	switch t := x.(type) {
	case nil:
		return Null{}, nil
	case Value:
		return t, nil
	case bool:
		return Bool(t), nil
	case string:
		return String(t), nil
	case int:
		return Int(int64(t)), nil
	case int64:
		return Int(t), nil
	case float64:
		if t == math.Trunc(t) && math.Abs(t) < 1<<53 {
			return Int(int64(t)), nil
		}
		return Float(t), nil
	case []string:
		return Strings(t...), nil
	case []any:
		s := &Seq{items: make([]Value, 0, len(t))}
		for _, item := range t {
			v, err := FromAny(item)
			if err != nil {
				return nil, err
			}
			s.items = append(s.items, v)
		}
		return s, nil
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		m := NewMap()
		for _, k := range keys {
			v, err := FromAny(t[k])
			if err != nil {
				return nil, err
			}
			m.Set(k, v)
		}
		return m, nil
	}
	return nil, fmt.Errorf("unsupported type %T", x)
}

// MustFromAny is FromAny for literals known to be convertible.
func MustFromAny(x any) Value {
	v, err := FromAny(x)
	if err != nil {
		panic(err)
	}
	return v
}

// ToAny converts a Value into plain Go values. Map order is lost.
func ToAny(v Value) any {
	switch t := v.(type) {
	case nil, Null:
		return nil
	case Bool:
		return bool(t)
	case Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return string(t)
	case String:
		return string(t)
	case *Seq:
		out := make([]any, len(t.items))
		for i, item := range t.items {
			out[i] = ToAny(item)
		}
		return out
	case *Map:
		out := make(map[string]any, len(t.keys))
		for k, item := range t.vals {
			out[k] = ToAny(item)
		}
		return out
	}
	return nil
}
