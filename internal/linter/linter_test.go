package linter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thirtytwobits/the-cmake-preset-matrix/internal/document"
)

func TestLintClean(t *testing.T) {
	doc, err := document.Decode([]byte(`{
		"version": 6,
		"configurePresets": [
			{"name": "base", "hidden": true},
			{"name": "x86", "inherits": ["base"]},
			{"name": "arm", "inherits": "base"}
		],
		"buildPresets": [{"name": "build-x86", "configurePreset": "x86"}],
		"workflowPresets": [{"name": "all", "steps": [
			{"type": "configure", "name": "x86"},
			{"type": "build", "name": "build-x86"}
		]}]
	}`))
	require.NoError(t, err)
	assert.Empty(t, Lint(doc))
	assert.True(t, Validate(doc))
}

func TestLintDiagnostics(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		locator string
		message string
	}{
		{"not a map", `[]`, "$", "expected a map"},
		{"missing version", `{}`, "$.version", "missing"},
		{"bad version", `{"version": "6"}`, "$.version", "expected an integer"},
		{"collection not a list", `{"version": 6, "testPresets": {}}`, "$.testPresets", "expected a list"},
		{"record not a map", `{"version": 6, "testPresets": [1]}`, "$.testPresets[0]", "expected a map"},
		{"missing name", `{"version": 6, "testPresets": [{}]}`, "$.testPresets[0].name", "missing"},
		{"empty name", `{"version": 6, "testPresets": [{"name": ""}]}`, "$.testPresets[0].name", "empty"},
		{"duplicate name", `{"version": 6, "testPresets": [{"name": "a"}, {"name": "a"}]}`, "$.testPresets[1].name", "duplicate"},
		{
			"unknown parent",
			`{"version": 6, "configurePresets": [{"name": "a", "inherits": ["a", "b"]}]}`,
			"$.configurePresets[0].inherits[1]", `no configure preset named "b"`,
		},
		{
			"parent in another collection",
			`{"version": 6, "configurePresets": [{"name": "a"}], "buildPresets": [{"name": "b", "inherits": "a"}]}`,
			"$.buildPresets[0].inherits", `no build preset named "a"`,
		},
		{
			"unknown configure preset",
			`{"version": 6, "testPresets": [{"name": "t", "configurePreset": "nope"}]}`,
			"$.testPresets[0].configurePreset", `no configure preset named "nope"`,
		},
		{
			"unknown step type",
			`{"version": 6, "workflowPresets": [{"name": "w", "steps": [{"type": "deploy", "name": "x"}]}]}`,
			"$.workflowPresets[0].steps[0].type", "unknown step type",
		},
		{
			"configure step first",
			`{"version": 6, "buildPresets": [{"name": "b"}], "workflowPresets": [{"name": "w", "steps": [{"type": "build", "name": "b"}]}]}`,
			"$.workflowPresets[0].steps[0].type", "first step",
		},
		{
			"missing step target",
			`{"version": 6, "configurePresets": [{"name": "c"}], "workflowPresets": [{"name": "w", "steps": [{"type": "configure", "name": "c"}, {"type": "test", "name": "t"}]}]}`,
			"$.workflowPresets[0].steps[1].name", `no test preset named "t"`,
		},
		{
			"step without name",
			`{"version": 6, "workflowPresets": [{"name": "w", "steps": [{"type": "configure"}]}]}`,
			"$.workflowPresets[0].steps[0].name", "expected a string",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := document.Decode([]byte(tt.doc))
			require.NoError(t, err)
			diags := Lint(doc)
			require.NotEmpty(t, diags)
			d := diags[0]
			assert.Equal(t, Error, d.Severity)
			assert.Equal(t, tt.locator, d.Locator.String())
			assert.Contains(t, d.Message, tt.message)
			assert.False(t, Validate(doc))
		})
	}
}

func TestLintWarnings(t *testing.T) {
	doc, err := document.Decode([]byte(`{"version": 6, "workflowPresets": [{"name": "w"}]}`))
	require.NoError(t, err)
	diags := Lint(doc)
	require.Len(t, diags, 1)
	assert.Equal(t, Warning, diags[0].Severity)
	assert.Equal(t, "warning: $.workflowPresets[0].steps: workflow has no steps", diags[0].String())
	assert.True(t, Validate(doc))
}

func TestLintReferenceSeverity(t *testing.T) {
	doc, err := document.Decode([]byte(`{
		"version": 6,
		"configurePresets": [{"name": "x86", "inherits": "configure-platform-x86"}],
		"buildPresets": [{"name": "b", "configurePreset": "configure-x86"}],
		"workflowPresets": [{"name": "w", "steps": [{"type": "configure", "name": "configure-x86"}]}]
	}`))
	require.NoError(t, err)

	assert.False(t, Validate(doc))

	diags := Lint(doc, WithReferenceSeverity(Warning))
	require.Len(t, diags, 3)
	for _, d := range diags {
		assert.Equal(t, Warning, d.Severity, d.String())
	}
	assert.True(t, Validate(doc, WithReferenceSeverity(Warning)))
}
