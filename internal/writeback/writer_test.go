package writeback

import (
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thirtytwobits/the-cmake-preset-matrix/internal/document"
)

func doc(t *testing.T, s string) *document.Map {
	t.Helper()
	m, err := document.DecodeMap([]byte(s))
	require.NoError(t, err)
	return m
}

func TestLoad(t *testing.T) {
	fs := memfs.New()
	require.NoError(t, util.WriteFile(fs, "CMakePresets.json", []byte(`{"version": 6, "configurePresets": []}`), 0o644))
	require.NoError(t, util.WriteFile(fs, "template.yaml", []byte("version: 6\nconfigurePresets: []\n"), 0o644))
	require.NoError(t, util.WriteFile(fs, "list.json", []byte(`[1]`), 0o644))
	require.NoError(t, util.WriteFile(fs, "broken.json", []byte(`{"a": `), 0o644))

	for _, path := range []string{"CMakePresets.json", "template.yaml"} {
		t.Run(path, func(t *testing.T) {
			m, err := Load(fs, path)
			require.NoError(t, err)
			assert.Equal(t, []string{"version", "configurePresets"}, m.Keys())
		})
	}

	_, err := Load(fs, "list.json")
	assert.ErrorContains(t, err, "expected a map")
	_, err = Load(fs, "broken.json")
	assert.ErrorContains(t, err, "parse broken.json")
	_, err = Load(fs, "missing.json")
	assert.Error(t, err)

	assert.True(t, Exists(fs, "CMakePresets.json"))
	assert.False(t, Exists(fs, "missing.json"))
}

func TestWriterNewFile(t *testing.T) {
	fs := memfs.New()
	w := NewWriter(fs, "CMakePresets.json", doc(t, `{"version": 6}`), 4)

	overwrite, err := w.WillOverwrite()
	require.NoError(t, err)
	assert.False(t, overwrite)

	backup, err := w.Swap()
	require.NoError(t, err)
	assert.Empty(t, backup)

	got, err := util.ReadFile(fs, "CMakePresets.json")
	require.NoError(t, err)
	assert.Equal(t, "{\n    \"version\": 6\n}\n", string(got))
}

func TestWriterUnchanged(t *testing.T) {
	fs := memfs.New()
	require.NoError(t, util.WriteFile(fs, "CMakePresets.json", []byte("{\n  \"version\": 6\n}\n"), 0o644))

	w := NewWriter(fs, "CMakePresets.json", doc(t, `{"version": 6}`), 2)
	overwrite, err := w.WillOverwrite()
	require.NoError(t, err)
	assert.False(t, overwrite)

	backup, err := w.Swap()
	require.NoError(t, err)
	assert.Empty(t, backup)
	assert.False(t, Exists(fs, "CMakePresets_00.json.bak"))
}

func TestWriterBackups(t *testing.T) {
	fs := memfs.New()
	require.NoError(t, util.WriteFile(fs, "presets/CMakePresets.json", []byte(`{"version": 3}`), 0o644))

	for i, want := range []string{"presets/CMakePresets_00.json.bak", "presets/CMakePresets_01.json.bak"} {
		w := NewWriter(fs, "presets/CMakePresets.json", doc(t, `{"version": 6, "run": `+string(rune('0'+i))+`}`), 0, WithBackupSuffix("bak"))
		overwrite, err := w.WillOverwrite()
		require.NoError(t, err)
		assert.True(t, overwrite)

		backup, err := w.Swap()
		require.NoError(t, err)
		assert.Equal(t, want, backup)
	}

	first, err := util.ReadFile(fs, "presets/CMakePresets_00.json.bak")
	require.NoError(t, err)
	assert.Equal(t, `{"version": 3}`, string(first))

	second, err := util.ReadFile(fs, "presets/CMakePresets_01.json.bak")
	require.NoError(t, err)
	assert.Equal(t, "{\"version\":6,\"run\":0}\n", string(second))

	current, err := util.ReadFile(fs, "presets/CMakePresets.json")
	require.NoError(t, err)
	assert.Equal(t, "{\"version\":6,\"run\":1}\n", string(current))

	entries, err := fs.ReadDir("presets")
	require.NoError(t, err)
	assert.Len(t, entries, 3, "temp files are cleaned up")
}

func TestWriterNoBackup(t *testing.T) {
	fs := memfs.New()
	require.NoError(t, util.WriteFile(fs, "CMakePresets.json", []byte(`{}`), 0o644))

	w := NewWriter(fs, "CMakePresets.json", doc(t, `{"version": 6}`), 0, WithoutBackup())
	backup, err := w.Swap()
	require.NoError(t, err)
	assert.Empty(t, backup)
	assert.False(t, Exists(fs, "CMakePresets_00.json.bak"))
	assert.Equal(t, "{\"version\":6}\n", string(w.Content()))
}
