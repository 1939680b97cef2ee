// Package prompt asks the user yes/no questions on a terminal.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// Result is the outcome of a question.
type Result int

const (
	// Positive means the answer matched the positive pattern.
	Positive Result = iota + 1
	// Negative means the user answered anything else.
	Negative
	// Cancel means the input ended before an answer was given.
	Cancel
	// Default means the question was skipped by --force or
	// --non-interactive.
	Default
)

func (r Result) String() string {
	switch r {
	case Positive:
		return "positive"
	case Negative:
		return "negative"
	case Cancel:
		return "cancel"
	case Default:
		return "default"
	}
	return fmt.Sprintf("Result(%d)", int(r))
}

// Proceed reports whether the caller should go on: anything but a negative
// or cancelled answer.
func (r Result) Proceed() bool {
	return r == Positive || r == Default
}

// DefaultPositive matches answers starting with y, in any case.
var DefaultPositive = regexp.MustCompile(`(?i)^y`)

type Prompter struct {
	in             *bufio.Reader
	out            io.Writer
	force          bool
	nonInteractive bool
	positive       *regexp.Regexp
}

type Option func(*Prompter)

// WithForce answers every question with Default.
func WithForce(force bool) Option {
	return func(p *Prompter) { p.force = force }
}

// WithNonInteractive answers every question with Default.
func WithNonInteractive(nonInteractive bool) Option {
	return func(p *Prompter) { p.nonInteractive = nonInteractive }
}

// WithPositive replaces DefaultPositive.
func WithPositive(re *regexp.Regexp) Option {
	return func(p *Prompter) { p.positive = re }
}

func New(in io.Reader, out io.Writer, opts ...Option) *Prompter {
	p := &Prompter{in: bufio.NewReader(in), out: out, positive: DefaultPositive}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Confirm writes question and reads one line of answer.
func (p *Prompter) Confirm(question string) Result {
	if p.force || p.nonInteractive {
		return Default
	}
	fmt.Fprint(p.out, question)
	line, err := p.in.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		fmt.Fprintln(p.out)
		return Cancel
	}
	if p.positive.MatchString(strings.TrimSpace(line)) {
		return Positive
	}
	return Negative
}
