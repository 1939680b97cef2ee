// Package writeback loads presets documents and writes them back safely:
// content is compared before writing, the previous file is backed up and
// the replacement is atomic.
package writeback

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"

	"github.com/thirtytwobits/the-cmake-preset-matrix/internal/document"
)

// Load reads a presets document from fs. Files ending in .yaml or .yml are
// read as YAML, anything else as JSON. The top level must be a map.
func Load(fs billy.Filesystem, path string) (*document.Map, error) {
	data, err := util.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var v document.Value
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		v, err = document.DecodeYAML(data)
	default:
		v, err = document.Decode(data)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	m, ok := v.(*document.Map)
	if !ok {
		return nil, fmt.Errorf("parse %s: expected a map at the top level, found a %s", path, v.Kind())
	}
	return m, nil
}

// Exists reports whether path names an existing file in fs.
func Exists(fs billy.Filesystem, path string) bool {
	_, err := fs.Stat(path)
	return err == nil
}
