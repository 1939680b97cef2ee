package pquery

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"$(this)", true},
		{"  $ ( this )", true},
		{"$.foo", true},
		{"\n\t$\n.", true},
		{"$comment", false},
		{"$", false},
		{"plain text", false},
		{"{$(this)}", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Detect(tt.in))
		})
	}
}

func TestParseSelectors(t *testing.T) {
	t.Run("this", func(t *testing.T) {
		stmt, err := Parse("$(this)")
		require.NoError(t, err)
		assert.True(t, stmt.Selector.This)
		assert.Empty(t, stmt.Calls)
		assert.Equal(t, "$(this)", stmt.Source)
	})

	t.Run("terms", func(t *testing.T) {
		stmt, err := Parse(`$("buildPresets  #my-build-1 cacheVariables known_types")`)
		require.NoError(t, err)
		assert.Equal(t, []Term{
			{Kind: TermTag, Text: "buildPresets"},
			{Kind: TermName, Text: "my-build-1"},
			{Kind: TermTag, Text: "cacheVariables"},
			{Kind: TermTag, Text: "known_types"},
		}, stmt.Selector.Terms)
		assert.Equal(t, "'buildPresets #my-build-1 cacheVariables known_types'", stmt.Selector.String())
	})

	t.Run("index tag", func(t *testing.T) {
		stmt, err := Parse("$('1').text()")
		require.NoError(t, err)
		assert.Equal(t, []Term{{Kind: TermTag, Text: "1"}}, stmt.Selector.Terms)
	})
}

func TestParseCommands(t *testing.T) {
	t.Run("text and json pick get or set", func(t *testing.T) {
		stmt, err := Parse(`$(this).text().text('bar').json().json("[1]")`)
		require.NoError(t, err)
		assert.Equal(t, []Command{
			GetText{},
			SetText{Arg: Arg{Kind: ArgQuoted, Text: "bar"}},
			GetJSON{},
			SetJSON{Arg: Arg{Kind: ArgQuoted, Text: "[1]"}},
		}, stmt.Calls)
	})

	t.Run("chain", func(t *testing.T) {
		stmt, err := Parse("$('0').text().split(';').get(1).replace('a', '').literal(word).exp();")
		require.NoError(t, err)
		assert.Equal(t, []Command{
			GetText{},
			Split{Sep: Arg{Kind: ArgQuoted, Text: ";"}},
			Get{Key: Arg{Kind: ArgIdentifier, Text: "1"}},
			Replace{Old: Arg{Kind: ArgQuoted, Text: "a"}, New: Arg{Kind: ArgQuoted, Text: ""}},
			Literal{Arg: Arg{Kind: ArgIdentifier, Text: "word"}},
			Exp{},
		}, stmt.Calls)
	})

	t.Run("nested statement argument", func(t *testing.T) {
		stmt, err := Parse("$(this).text($('#p cacheVariables foo').text())")
		require.NoError(t, err)
		require.Len(t, stmt.Calls, 1)
		set, ok := stmt.Calls[0].(SetText)
		require.True(t, ok)
		assert.Equal(t, ArgStatement, set.Arg.Kind)
		require.NotNil(t, set.Arg.Stmt)
		assert.Equal(t, "$('#p cacheVariables foo').text()", set.Arg.Stmt.Source)
		assert.Equal(t, []Command{GetText{}}, set.Arg.Stmt.Calls)
	})

	t.Run("whitespace", func(t *testing.T) {
		stmt, err := Parse("\n   $ ( this )\n      . text ( \"hiya\" )\n      . text ( )\n   ")
		require.NoError(t, err)
		assert.Equal(t, []Command{SetText{Arg: Arg{Kind: ArgQuoted, Text: "hiya"}}, GetText{}}, stmt.Calls)
	})
}

func TestParseIf(t *testing.T) {
	yes, no := true, false

	tests := []struct {
		name string
		in   string
		want If
	}{
		{
			name: "literal true",
			in:   "$(this).if(true)",
			want: If{Cond: Cond{Literal: &yes}},
		},
		{
			name: "literal false with branches",
			in:   "$(this).if(false, 'a', b)",
			want: If{
				Cond:        Cond{Literal: &no},
				Then:        Arg{Kind: ArgQuoted, Text: "a"},
				Else:        Arg{Kind: ArgIdentifier, Text: "b"},
				HasBranches: true,
			},
		},
		{
			name: "comparison",
			in:   "$(this).if('baz' == 'bar')",
			want: If{Cond: Cond{Left: Arg{Kind: ArgQuoted, Text: "baz"}, Op: OpEqual, Right: Arg{Kind: ArgQuoted, Text: "bar"}}},
		},
		{
			name: "true as an operand",
			in:   "$(this).if(true ^= 't')",
			want: If{Cond: Cond{Left: Arg{Kind: ArgIdentifier, Text: "true"}, Op: OpStartsWith, Right: Arg{Kind: ArgQuoted, Text: "t"}}},
		},
		{
			name: "ends with",
			in:   "$(this).if('workflow-gcc' $= '-gcc', yes, no)",
			want: If{
				Cond:        Cond{Left: Arg{Kind: ArgQuoted, Text: "workflow-gcc"}, Op: OpEndsWith, Right: Arg{Kind: ArgQuoted, Text: "-gcc"}},
				Then:        Arg{Kind: ArgIdentifier, Text: "yes"},
				Else:        Arg{Kind: ArgIdentifier, Text: "no"},
				HasBranches: true,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stmt, err := Parse(tt.in)
			require.NoError(t, err)
			require.Len(t, stmt.Calls, 1)
			assert.Equal(t, tt.want, stmt.Calls[0])
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		offset int
	}{
		{"missing paren", "$this", 1},
		{"unknown command", "$(this).bogus()", 8},
		{"unterminated string", "$(this).text('abc)", 13},
		{"empty selector", "$(' ')", 2},
		{"bad selector word", "$('a.b')", 3},
		{"bare hash", "$('#')", 3},
		{"trailing text", "$(this).text() extra", 15},
		{"replace needs two", "$(this).literal('x').replace('a')", 32},
		{"if needs both branches", "$(this).if(true, 'a')", 20},
		{"unknown operator", "$(this).if('a' = 'b')", 15},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.in)
			require.Error(t, err)
			var se *SyntaxError
			require.True(t, errors.As(err, &se), "got %T", err)
			assert.Equal(t, tt.in, se.Text)
			assert.Equal(t, tt.offset, se.Offset)
		})
	}
}

func TestParsePrefix(t *testing.T) {
	text := "$(this).text('a') }, and {more"
	stmt, n, err := ParsePrefix(text)
	require.NoError(t, err)
	assert.Equal(t, 17, n)
	assert.Equal(t, "$(this).text('a')", stmt.Source)

	stmt, n, err = ParsePrefix("  $('x');}")
	require.NoError(t, err)
	assert.Equal(t, 9, n)
	assert.Equal(t, "$('x');", stmt.Source)
}

func TestParseNestingLimit(t *testing.T) {
	text := "$(this)"
	for i := 0; i < maxNesting+1; i++ {
		text = "$(this).text(" + text + ")"
	}
	_, err := Parse(text)
	var se *SyntaxError
	assert.True(t, errors.As(err, &se))
}
