// Package vault gives the search engine access to the notes on disk.
package vault

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/noelzubin/notes_search/logger"
	"github.com/noelzubin/notes_search/search"
	"github.com/samber/lo"
)

// Ensure FileVault implements the interface.
var _ search.DocumentStore = (*FileVault)(nil)

// DefaultMaxSize is the largest note that will be read.
const DefaultMaxSize = 10 << 20

// FileVault is a DocumentStore over a directory of notes. Document paths
// are slash separated and relative to the root.
type FileVault struct {
	root       string
	extensions []string
	maxSize    int64
}

func NewFileVault(root string, extensions []string, maxSize int64) *FileVault {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	extensions = lo.Map(extensions, func(ext string, _ int) string {
		return strings.ToLower(ext)
	})
	return &FileVault{root: root, extensions: extensions, maxSize: maxSize}
}

func (v *FileVault) Root() string {
	return v.root
}

// Abs returns the filesystem path of a document.
func (v *FileVault) Abs(docPath string) string {
	return filepath.Join(v.root, filepath.FromSlash(docPath))
}

// List returns every note under the root with one of the configured
// extensions. Unreadable entries are skipped.
func (v *FileVault) List(ctx context.Context) ([]search.Document, error) {
	if _, err := os.Stat(v.root); err != nil {
		return nil, err
	}

	var docs []search.Document
	err := filepath.WalkDir(v.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			logger.Debug("walking %s: %v", p, err)
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			if p != v.root && isHidden(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if !v.isNote(p) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		rel, err := filepath.Rel(v.root, p)
		if err != nil {
			return nil
		}
		docs = append(docs, newDocument(filepath.ToSlash(rel), info.ModTime()))
		return nil
	})
	return docs, err
}

// Read returns the content of a note.
func (v *FileVault) Read(_ context.Context, docPath string) (string, error) {
	abs := v.Abs(docPath)
	info, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			err = search.ErrDocumentNotFound
		}
		return "", &search.ReadError{Path: docPath, Err: err}
	}
	if info.Size() > v.maxSize {
		return "", &search.ReadError{Path: docPath, Err: search.ErrDocumentTooLarge}
	}

	body, err := os.ReadFile(abs)
	if err != nil {
		return "", &search.ReadError{Path: docPath, Err: err}
	}
	return string(body), nil
}

func (v *FileVault) isNote(p string) bool {
	return lo.Contains(v.extensions, strings.ToLower(filepath.Ext(p)))
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

func newDocument(docPath string, modTime time.Time) search.Document {
	name := path.Base(docPath)
	return search.Document{
		Path:     docPath,
		Name:     name,
		BaseName: strings.TrimSuffix(name, path.Ext(name)),
		ModTime:  modTime,
	}
}
