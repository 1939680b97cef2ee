package matrix

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thirtytwobits/the-cmake-preset-matrix/internal/document"
	"github.com/thirtytwobits/the-cmake-preset-matrix/internal/presets"
)

func load(t *testing.T, s string) *presets.Presets {
	t.Helper()
	doc, err := document.DecodeMap([]byte(s))
	require.NoError(t, err)
	meta, err := presets.FromDocument(doc)
	require.NoError(t, err)
	return meta
}

func names(records []*document.Map) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		n, _ := r.String("name")
		out = append(out, n)
	}
	return out
}

func seqNames(s *document.Seq) []string {
	out := make([]string, 0, s.Len())
	for _, r := range s.All() {
		n, _ := r.(*document.Map).String("name")
		out = append(out, n)
	}
	return out
}

func get(t *testing.T, root document.Value, path string) document.Value {
	t.Helper()
	loc, err := document.ParseLocator(path)
	require.NoError(t, err)
	v, err := document.Resolve(root, loc)
	require.NoError(t, err)
	return v
}

func TestNaming(t *testing.T) {
	meta := load(t, `{"vendor": {"tcpm": {"version": 1, "preset-groups": {
		"build": {"prefix": "p", "parameters": {"A": ["x", "y"], "B": [1, 2]}}
	}}}, "buildPresets": []}`)
	g := New(meta)
	group := meta.Group(presets.Build)

	hidden, err := g.Hidden(group)
	require.NoError(t, err)
	assert.Equal(t, []string{"p-A-x", "p-A-y", "p-B-1", "p-B-2"}, names(hidden))
	for _, r := range hidden {
		h, _ := r.Get("hidden")
		assert.Equal(t, document.Bool(true), h)
	}

	visible, err := g.Visible(group)
	require.NoError(t, err)
	assert.Equal(t, []string{"p-x-1", "p-x-2", "p-y-1", "p-y-2"}, names(visible))
	assert.False(t, visible[0].Has("hidden"))
}

func TestAxisOrder(t *testing.T) {
	// Shape axes come first in shape order; unshaped parameter axes follow
	// in parameter order.
	meta := load(t, `{"vendor": {"tcpm": {"version": 1, "preset-groups": {
		"build": {
			"shape": {"compiler": {}},
			"parameters": {"platform": ["x86"], "compiler": ["gcc", "clang"]}
		}
	}}}, "buildPresets": []}`)
	group := meta.Group(presets.Build)

	visible, err := New(meta).Visible(group)
	require.NoError(t, err)
	assert.Equal(t, []string{"build-gcc-x86", "build-clang-x86"}, names(visible))
}

func TestExclusions(t *testing.T) {
	tests := []struct {
		name    string
		exclude string
		want    []string
	}{
		{"full match only", `[{"A": "x", "B": 1}]`, []string{"p-x-2", "p-y-1", "p-y-2"}},
		{"single axis", `[{"A": "x"}]`, []string{"p-y-1", "p-y-2"}},
		{"value set", `[{"A": ["x", "y"], "B": "2"}]`, []string{"p-x-1", "p-y-1"}},
		{"any rule", `[{"A": "y"}, {"B": 1}]`, []string{"p-x-2"}},
		{"unknown axis", `[{"C": "x"}]`, []string{"p-x-1", "p-x-2", "p-y-1", "p-y-2"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meta := load(t, `{"vendor": {"tcpm": {"version": 1, "preset-groups": {
				"build": {"prefix": "p", "parameters": {"A": ["x", "y"], "B": [1, 2]}, "exclude": `+tt.exclude+`}
			}}}}`)
			visible, err := New(meta).Visible(meta.Group(presets.Build))
			require.NoError(t, err)
			assert.Equal(t, tt.want, names(visible))
		})
	}
}

func TestEmptyAxes(t *testing.T) {
	meta := load(t, `{"vendor": {"tcpm": {"version": 1, "preset-groups": {
		"build": {"parameters": {"A": [], "B": ["1"]}, "shape": {"C": {"x": 1}}}
	}}}}`)
	g := New(meta)

	visible, err := g.Visible(meta.Group(presets.Build))
	require.NoError(t, err)
	assert.Equal(t, []string{"build-1"}, names(visible))

	meta = load(t, `{"vendor": {"tcpm": {"version": 1, "preset-groups": {"build": {"parameters": {"A": []}}}}}}`)
	visible, err = New(meta).Visible(meta.Group(presets.Build))
	require.NoError(t, err)
	assert.Empty(t, visible)
}

func TestConfigureScenario(t *testing.T) {
	meta := load(t, `{
		"version": 6,
		"vendor": {"tcpm": {"version": 1, "preset-groups": {
			"configure": {
				"common": ["configure-common"],
				"shape": {"platform": {"cacheVariables": {"PLATFORM": "{parameter}"}}},
				"parameters": {"platform": ["x86", "arm"]}
			}
		}}},
		"configurePresets": [{"name": "configure-common", "hidden": true}]
	}`)
	g := New(meta)
	group := meta.Group(presets.Configure)
	sep := meta.Separator

	hidden, err := g.Hidden(group)
	require.NoError(t, err)
	records := Merge(meta.Records(presets.Configure), hidden, group, sep, true, CleanNone)
	meta.Source.Set("configurePresets", records)

	visible, err := g.Visible(group)
	require.NoError(t, err)
	records = Merge(meta.Records(presets.Configure), visible, group, sep, false, CleanNone)

	assert.Equal(t, []string{
		"configure-common",
		"configure-platform-x86",
		"configure-platform-arm",
		"configure-x86",
		"configure-arm",
	}, seqNames(records))

	x86 := records.At(3)
	assert.Equal(t, document.Strings("configure-common", "configure-platform-x86"), get(t, x86, "$.inherits"))
	assert.Equal(t, document.String("x86"), get(t, records.At(1), "$.cacheVariables.PLATFORM"))
	assert.Equal(t, document.String("x86"), get(t, x86, "$.cacheVariables.PLATFORM"))
}

func TestTokens(t *testing.T) {
	meta := load(t, `{"vendor": {"tcpm": {"version": 1, "word_separator": "_",
		"static": {"toolchains": "/opt/tc"},
		"preset-groups": {
			"configure": {
				"prefix": "cfg",
				"shape": {"tc": {
					"toolchainFile": "{static:toolchains}/{parameter}.cmake",
					"cacheVariables": {"{parameter}_NAME": "{name}{sep}{prefix}"},
					"description": "{{literal}} {value}",
					"displayName": "{{{pq}(this).literal('late')}}"
				}},
				"parameters": {"tc": ["gcc"]}
			}
		}
	}}}`)
	hidden, err := New(meta).Hidden(meta.Group(presets.Configure))
	require.NoError(t, err)
	require.Len(t, hidden, 1)
	r := hidden[0]

	n, _ := r.String("name")
	assert.Equal(t, "cfg_tc_gcc", n)
	assert.Equal(t, document.String("/opt/tc/gcc.cmake"), get(t, r, "$.toolchainFile"))
	assert.Equal(t, document.String("cfg_tc_gcc_cfg"), get(t, r, "$.cacheVariables.gcc_NAME"))
	assert.Equal(t, document.String("{literal} {{literal}} {value}"), get(t, r, "$.description"))
	assert.Equal(t, document.String("{$(this).literal('late')}"), get(t, r, "$.displayName"))
}

func TestTokenErrors(t *testing.T) {
	tests := []struct {
		name  string
		shape string
	}{
		{"unknown token", `{"a": "{nope}"}`},
		{"missing static", `{"a": "{static:nope}"}`},
		{"unclosed brace", `{"a": "{name"}`},
		{"single close", `{"a": "name}"}`},
		{"bad key", `{"{what}": 1}`},
		{"not a map", `["a"]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meta := load(t, `{"vendor": {"tcpm": {"version": 1, "preset-groups": {
				"build": {"shape": {"A": `+tt.shape+`}, "parameters": {"A": ["x"]}}
			}}}}`)
			_, err := New(meta).Hidden(meta.Group(presets.Build))
			var te *TemplateError
			require.True(t, errors.As(err, &te), "got %v", err)
			assert.Equal(t, "build", te.Group)
			assert.Equal(t, "A", te.Axis)
		})
	}
}

func TestParameters(t *testing.T) {
	meta := load(t, `{"vendor": {"tcpm": {"version": 1,
		"static": {"default-std": "20"},
		"preset-groups": {
			"configure": {"parameters": {
				"std": ["$(this).literal('14;17').split(';')", "{static:default-std}"],
				"mode": "$(this).literal('solo')"
			}}
		}
	}}}`)
	g := New(meta)
	group := meta.Group(presets.Configure)

	std, err := g.Parameters(group, "std")
	require.NoError(t, err)
	texts := make([]string, 0, len(std))
	for _, p := range std {
		texts = append(texts, p.Text())
	}
	assert.Equal(t, []string{"14", "17", "20"}, texts)
	assert.Equal(t, "configure-std-17", std[1].ScopedName())

	mode, err := g.Parameters(group, "mode")
	require.NoError(t, err)
	require.Len(t, mode, 1)
	assert.Equal(t, "solo", mode[0].Text())

	missing, err := g.Parameters(group, "nope")
	require.NoError(t, err)
	assert.Empty(t, missing)
}

func TestShapeParameters(t *testing.T) {
	meta := load(t, `{"vendor": {"tcpm": {"version": 1, "preset-groups": {
		"configure": {
			"shape": {"sanitizer": {"cacheVariables": {"SANITIZER": "{parameter}"}}},
			"parameters": {"platform": ["x86"]},
			"shape-parameters": {"sanitizer": "asan"}
		}
	}}}}`)
	g := New(meta)
	group := meta.Group(presets.Configure)

	visible, err := g.Visible(group)
	require.NoError(t, err)
	assert.Equal(t, []string{"configure-x86"}, names(visible))
	assert.Equal(t, document.String("asan"), get(t, visible[0], "$.cacheVariables.SANITIZER"))
	assert.Equal(t, document.Strings("configure-platform-x86"), get(t, visible[0], "$.inherits"))

	hidden, err := g.Hidden(group)
	require.NoError(t, err)
	assert.Equal(t, []string{"configure-platform-x86"}, names(hidden))
}

func TestWorkflowSteps(t *testing.T) {
	meta := load(t, `{
		"vendor": {"tcpm": {"version": 1, "preset-groups": {
			"configure": {"parameters": {"platform": ["x86", "arm"]}},
			"build": {"parameters": {"platform": ["x86", "arm"], "type": ["debug", "release"]}},
			"workflow": {"parameters": {"platform": ["x86", "arm"]}}
		}}},
		"configurePresets": [{"name": "configure-x86"}, {"name": "configure-arm"}],
		"buildPresets": [{"name": "build-x86-debug"}, {"name": "build-x86-release"}, {"name": "build-arm-debug"}],
		"workflowPresets": []
	}`)
	visible, err := New(meta).Visible(meta.Group(presets.Workflow))
	require.NoError(t, err)
	require.Equal(t, []string{"workflow-x86", "workflow-arm"}, names(visible))

	want := document.MustFromAny([]any{
		map[string]any{"type": "configure", "name": "configure-x86"},
		map[string]any{"type": "build", "name": "build-x86-debug"},
		map[string]any{"type": "build", "name": "build-x86-release"},
	})
	steps, _ := visible[0].Get("steps")
	assert.True(t, document.Equal(want, steps), "got %s", document.Text(steps))

	steps, _ = visible[1].Get("steps")
	assert.Equal(t, 2, steps.(*document.Seq).Len())
}

func TestMerge(t *testing.T) {
	group := &presets.Group{Name: presets.Configure, Prefix: "configure", Common: []string{"configure-common"}}
	existing := func() *document.Seq {
		return document.MustFromAny([]any{
			map[string]any{"name": "configure-common", "hidden": true},
			map[string]any{"name": "other"},
			map[string]any{"name": "configure-x86", "custom": "keep", "inherits": []any{"configure-platform-x86"}},
			map[string]any{"name": "configure-old"},
			map[string]any{"name": "configure-platform-x86", "hidden": true},
		}).(*document.Seq)
	}
	generated := func() []*document.Map {
		x86 := newRecord("configure-x86", false)
		x86.Set("inherits", document.Strings("configure-common", "configure-platform-x86"))
		return []*document.Map{x86, newRecord("configure-arm", false)}
	}

	t.Run("keep stale", func(t *testing.T) {
		out := Merge(existing(), generated(), group, "-", false, CleanNone)
		assert.Equal(t, []string{"configure-common", "other", "configure-x86", "configure-old", "configure-platform-x86", "configure-arm"}, seqNames(out))
		x86 := out.At(2)
		assert.Equal(t, document.String("keep"), get(t, x86, "$.custom"))
		assert.Equal(t, document.Strings("configure-platform-x86", "configure-common"), get(t, x86, "$.inherits"))
	})

	t.Run("drop stale", func(t *testing.T) {
		out := Merge(existing(), generated(), group, "-", false, CleanStale)
		assert.Equal(t, []string{"configure-common", "other", "configure-x86", "configure-platform-x86", "configure-arm"}, seqNames(out))
	})

	t.Run("drop all", func(t *testing.T) {
		out := Merge(existing(), generated(), group, "-", false, CleanAll)
		assert.Equal(t, []string{"configure-common", "other", "configure-platform-x86", "configure-x86", "configure-arm"}, seqNames(out))
		assert.False(t, out.At(3).(*document.Map).Has("custom"))
	})

	t.Run("hidden visibility", func(t *testing.T) {
		out := Merge(existing(), nil, group, "-", true, CleanStale)
		assert.Equal(t, []string{"configure-common", "other", "configure-x86", "configure-old"}, seqNames(out))
	})

	t.Run("nil collection", func(t *testing.T) {
		out := Merge(nil, generated(), group, "-", false, CleanNone)
		assert.Equal(t, []string{"configure-x86", "configure-arm"}, seqNames(out))
	})
}

func TestMergeTwice(t *testing.T) {
	meta := load(t, `{
		"vendor": {"tcpm": {"version": 1, "preset-groups": {
			"configure": {
				"common": ["base"],
				"shape": {"platform": {"cacheVariables": {"P": "{parameter}"}, "tags": ["{parameter}"]}},
				"parameters": {"platform": ["x86", "arm"]}
			}
		}}},
		"configurePresets": [{"name": "base", "hidden": true}]
	}`)
	group := meta.Group(presets.Configure)
	run := func() {
		g := New(meta)
		for _, hidden := range []bool{true, false} {
			gen := g.Hidden
			if !hidden {
				gen = g.Visible
			}
			records, err := gen(group)
			require.NoError(t, err)
			meta.Source.Set("configurePresets", Merge(meta.Records(presets.Configure), records, group, meta.Separator, hidden, CleanNone))
		}
	}

	run()
	// A field added by hand must survive regeneration.
	x86 := meta.Records(presets.Configure).At(3).(*document.Map)
	x86.Set("description", document.String("by hand"))
	once := document.Clone(meta.Source)

	run()
	assert.True(t, document.Equal(once, meta.Source), "got %s", document.Encode(meta.Source, 2))
	assert.Equal(t, document.String("by hand"), get(t, meta.Source, "$.configurePresets[3].description"))
	assert.Equal(t, document.Strings("x86"), get(t, meta.Source, "$.configurePresets[1].tags"))
}
