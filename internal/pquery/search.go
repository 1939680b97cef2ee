package pquery

import (
	"github.com/thirtytwobits/the-cmake-preset-matrix/internal/document"
)

// selection is a set of locators sharing one base node.
type selection struct {
	base     document.Value
	locators []document.Locator
}

func (s selection) clone() selection {
	out := selection{base: s.base, locators: make([]document.Locator, len(s.locators))}
	for i, l := range s.locators {
		out.locators[i] = l.Clone()
	}
	return out
}

// matcher tests one visited node. path addresses the node from the base of
// the selection being searched.
type matcher func(path document.Locator, node document.Value) (document.Locator, bool)

// tagMatcher matches a node whose final path step is word.
func tagMatcher(word string) matcher {
	return func(path document.Locator, _ document.Value) (document.Locator, bool) {
		last, ok := path.Last()
		if ok && last.String() == word {
			return path.Clone(), true
		}
		return nil, false
	}
}

// nameMatcher matches the "name" field of a map when it equals id and
// selects the map holding it.
func nameMatcher(id string) matcher {
	return func(path document.Locator, node document.Value) (document.Locator, bool) {
		last, ok := path.Last()
		if !ok || last.IsIndex() || last.Key() != "name" {
			return nil, false
		}
		if s, ok := node.(document.String); ok && string(s) == id {
			return path[:len(path)-1].Clone(), true
		}
		return nil, false
	}
}

// searcher runs a depth-first, pre-order search below one start node. It owns
// a single path buffer that grows on descent and shrinks on return.
type searcher struct {
	path  document.Locator
	match matcher
}

// find searches the node addressed by start within base. A scalar start
// node is tested itself; a container start node has its descendants tested.
func (s *searcher) find(base document.Value, start document.Locator) (document.Locator, bool, error) {
	node, err := document.Resolve(base, start)
	if err != nil {
		return nil, false, err
	}
	s.path = append(s.path[:0], start...)
	switch node.(type) {
	case *document.Map, *document.Seq:
		found, ok := s.walk(node)
		return found, ok, nil
	}
	found, ok := s.match(s.path, node)
	return found, ok, nil
}

func (s *searcher) push(step document.Step) { s.path = append(s.path, step) }
func (s *searcher) pop()                    { s.path = s.path[:len(s.path)-1] }

func (s *searcher) walk(node document.Value) (document.Locator, bool) {
	switch n := node.(type) {
	case *document.Map:
		for k, child := range n.All() {
			s.push(document.Key(k))
			if found, ok := s.visit(child); ok {
				return found, true
			}
			s.pop()
		}
	case *document.Seq:
		for i, child := range n.All() {
			s.push(document.Index(i))
			if found, ok := s.visit(child); ok {
				return found, true
			}
			s.pop()
		}
	}
	return nil, false
}

func (s *searcher) visit(child document.Value) (document.Locator, bool) {
	if found, ok := s.match(s.path, child); ok {
		return found, true
	}
	return s.walk(child)
}
