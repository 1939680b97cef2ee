package pquery

import "strings"

// Statement is one parsed pQuery expression: a selector followed by a chain
// of commands.
type Statement struct {
	// Source is the exact text the statement was parsed from.
	Source   string
	Selector Selector
	Calls    []Command
}

// Selector is either `this` or a quoted list of terms applied left to right.
type Selector struct {
	This  bool
	Terms []Term
}

func (s Selector) String() string {
	if s.This {
		return "this"
	}
	words := make([]string, len(s.Terms))
	for i, t := range s.Terms {
		words[i] = t.String()
	}
	return "'" + strings.Join(words, " ") + "'"
}

// TermKind distinguishes name selectors from tag selectors.
type TermKind uint8

const (
	// TermName matches a map whose "name" field equals the term text (#id).
	TermName TermKind = iota
	// TermTag matches a node whose final path step equals the term text.
	TermTag
)

// Term is one element of a selector list.
type Term struct {
	Kind TermKind
	Text string
}

func (t Term) String() string {
	if t.Kind == TermName {
		return "#" + t.Text
	}
	return t.Text
}

// ArgKind identifies how an argument was written.
type ArgKind uint8

const (
	ArgIdentifier ArgKind = iota
	ArgQuoted
	ArgStatement
)

// Arg is a command argument. Stmt is set for ArgStatement, Text otherwise.
type Arg struct {
	Kind ArgKind
	Text string
	Stmt *Statement
}

// Command is one call in a statement's chain. The set of implementations is
// closed.
type Command interface {
	Name() string
	isCommand()
}

type (
	// GetText reads the selection as text.
	GetText struct{}
	// SetText overwrites the selection with the text of Arg.
	SetText struct{ Arg Arg }
	// GetJSON reads the selection keeping its structure.
	GetJSON struct{}
	// SetJSON overwrites the selection with the structured value of Arg.
	SetJSON struct{ Arg Arg }
	// Exp yields the statement's own source text.
	Exp struct{}
	// Split splits the previous result on Sep.
	Split struct{ Sep Arg }
	// Replace substitutes New for every Old in the previous result.
	Replace struct{ Old, New Arg }
	// Literal yields Arg regardless of the selection.
	Literal struct{ Arg Arg }
	// Get indexes into the previous result.
	Get struct{ Key Arg }
	// If yields the boolean value of Cond, or Then/Else when HasBranches.
	If struct {
		Cond        Cond
		Then, Else  Arg
		HasBranches bool
	}
)

func (GetText) Name() string { return "text" }
func (SetText) Name() string { return "text" }
func (GetJSON) Name() string { return "json" }
func (SetJSON) Name() string { return "json" }
func (Exp) Name() string     { return "exp" }
func (Split) Name() string   { return "split" }
func (Replace) Name() string { return "replace" }
func (Literal) Name() string { return "literal" }
func (Get) Name() string     { return "get" }
func (If) Name() string      { return "if" }

func (GetText) isCommand() {}
func (SetText) isCommand() {}
func (GetJSON) isCommand() {}
func (SetJSON) isCommand() {}
func (Exp) isCommand()     {}
func (Split) isCommand()   {}
func (Replace) isCommand() {}
func (Literal) isCommand() {}
func (Get) isCommand()     {}
func (If) isCommand()      {}

// Comparison operators accepted in conditionals.
const (
	OpEqual      = "=="
	OpNotEqual   = "!="
	OpEndsWith   = "$="
	OpStartsWith = "^="
)

// Cond is the condition of an if command. Literal is set for the bare
// `true` / `false` forms; otherwise Left Op Right is compared.
type Cond struct {
	Literal     *bool
	Left, Right Arg
	Op          string
}
