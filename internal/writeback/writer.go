package writeback

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"

	"github.com/thirtytwobits/the-cmake-preset-matrix/internal/document"
)

// DefaultBackupSuffix is appended to backup file names.
const DefaultBackupSuffix = ".bak"

// Writer replaces a presets file with a rendered document. Nothing is
// written until Swap is called, and Swap does nothing when the file already
// holds the same content.
type Writer struct {
	fs       billy.Filesystem
	path     string
	content  []byte
	suffix   string
	noBackup bool
}

// Option configures a Writer.
type Option func(*Writer)

// WithBackupSuffix sets the suffix of backup files. A missing leading dot is
// added.
func WithBackupSuffix(suffix string) Option {
	return func(w *Writer) {
		if !strings.HasPrefix(suffix, ".") {
			suffix = "." + suffix
		}
		w.suffix = suffix
	}
}

// WithoutBackup disables backups of the replaced file.
func WithoutBackup() Option {
	return func(w *Writer) {
		w.noBackup = true
	}
}

// NewWriter renders doc with the given indent, followed by a newline, for
// writing to path.
func NewWriter(fs billy.Filesystem, path string, doc *document.Map, indent int, opts ...Option) *Writer {
	w := &Writer{
		fs:      fs,
		path:    path,
		content: append(document.Encode(doc, indent), '\n'),
		suffix:  DefaultBackupSuffix,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Content returns the bytes Swap would write.
func (w *Writer) Content() []byte {
	return w.content
}

// WillOverwrite reports whether the target file exists and differs from
// the rendered content.
func (w *Writer) WillOverwrite() (bool, error) {
	existing, err := util.ReadFile(w.fs, w.path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read %s: %w", w.path, err)
	}
	return sha256.Sum256(existing) != sha256.Sum256(w.content), nil
}

// Swap writes the rendered content to the target file. When the file
// exists and differs, it is first copied to a new backup file whose name is
// returned; an existing backup is never overwritten. Swap returns "" when
// no backup was made.
func (w *Writer) Swap() (string, error) {
	existing, err := util.ReadFile(w.fs, w.path)
	exists := err == nil
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("read %s: %w", w.path, err)
	}
	if exists && bytes.Equal(existing, w.content) {
		return "", nil
	}

	perm := os.FileMode(0o644)
	if info, err := w.fs.Stat(w.path); err == nil {
		perm = info.Mode().Perm()
	}

	backup := ""
	if exists && !w.noBackup {
		if backup, err = w.backupName(); err != nil {
			return "", err
		}
		if err := util.WriteFile(w.fs, backup, existing, perm); err != nil {
			return "", fmt.Errorf("write backup %s: %w", backup, err)
		}
	}

	if err := w.replace(perm); err != nil {
		return "", err
	}
	return backup, nil
}

// replace writes to a temp file in the target's directory, then renames.
func (w *Writer) replace(perm os.FileMode) error {
	dir := filepath.Dir(w.path)
	tmp, err := util.TempFile(w.fs, dir, ".tcpm-")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(w.content); err != nil {
		_ = tmp.Close()
		_ = w.fs.Remove(tmpName) // best-effort cleanup
		return fmt.Errorf("write temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = w.fs.Remove(tmpName) // best-effort cleanup
		return fmt.Errorf("close temp: %w", err)
	}

	if ch, ok := w.fs.(billy.Change); ok {
		_ = ch.Chmod(tmpName, perm) // best-effort permission sync
	}

	if err := w.fs.Rename(tmpName, w.path); err != nil {
		_ = w.fs.Remove(tmpName) // best-effort cleanup
		return fmt.Errorf("rename temp to %s: %w", w.path, err)
	}
	return nil
}

// backupName returns the first free name of the form
// <stem>_NN<ext><suffix>, e.g. CMakePresets_00.json.bak.
func (w *Writer) backupName() (string, error) {
	ext := filepath.Ext(w.path)
	stem := strings.TrimSuffix(w.path, ext)
	for n := 0; n < 1000; n++ {
		name := fmt.Sprintf("%s_%02d%s%s", stem, n, ext, w.suffix)
		if !Exists(w.fs, name) {
			return name, nil
		}
	}
	return "", fmt.Errorf("no free backup name for %s", w.path)
}
