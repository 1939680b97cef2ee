package pquery

import (
	"fmt"

	"github.com/thirtytwobits/the-cmake-preset-matrix/internal/document"
)

// SyntaxError reports expression text that does not match the grammar.
type SyntaxError struct {
	Text    string
	Offset  int
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at offset %d in %q: %s", e.Offset, e.Text, e.Message)
}

// SelectorError reports a selector term that matched nothing in any active
// selection.
type SelectorError struct {
	Term   Term
	Source string
}

func (e *SelectorError) Error() string {
	return fmt.Sprintf("selector %q of %q matched nothing in the document", e.Term.String(), e.Source)
}

// LocatorError reports a path that does not resolve against the document.
type LocatorError = document.LocatorError

// CommandError reports a command applied to an argument or previous result it
// cannot handle.
type CommandError struct {
	Command string
	Message string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s(): %s", e.Command, e.Message)
}

func commandErrorf(cmd Command, format string, args ...any) *CommandError {
	return &CommandError{Command: cmd.Name(), Message: fmt.Sprintf(format, args...)}
}

// RenderError places an evaluation failure at the document location whose
// text was being rendered.
type RenderError struct {
	Locator document.Locator
	Text    string
	Err     error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render %s (%q): %v", e.Locator, e.Text, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }
