package search

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	ErrDocumentNotFound = errors.New("document not found")
	ErrDocumentTooLarge = errors.New("document too large")
)

// Document is a note as enumerated by the document store.
type Document struct {
	Path     string    // Unique, stable identifier of the note.
	Name     string    // File name, with extension.
	BaseName string    // File name without extension.
	ModTime  time.Time // Last modification time.
}

// SearchResult is a single ranked hit. Snippet is empty when the
// note only matched by name.
type SearchResult struct {
	Path    string  `json:"path"`
	Name    string  `json:"name"`
	Score   float64 `json:"score"`
	Snippet string  `json:"snippet"`
}

// DocumentStore is where the notes live.
type DocumentStore interface {
	List(ctx context.Context) ([]Document, error)          // Enumerate all the notes.
	Read(ctx context.Context, path string) (string, error) // Read the content of a note.
}

// The searcher that the UI talks to.
type NotesSearcher interface {
	Search(ctx context.Context, query string, limit int) []SearchResult // Ranked results for the query.
	Invalidate()                                                        // Drop cached state after the notes changed.
}

// ReadError is returned by a DocumentStore when a note can't be read.
type ReadError struct {
	Path string
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("read %s: %v", e.Path, e.Err)
}

func (e *ReadError) Unwrap() error {
	return e.Err
}
