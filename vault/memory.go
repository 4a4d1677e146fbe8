package vault

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/noelzubin/notes_search/search"
)

// Ensure Memory implements the interface.
var _ search.DocumentStore = (*Memory)(nil)

type memoryNote struct {
	content string
	modTime time.Time
}

// Memory is an in-memory DocumentStore. Safe for concurrent use.
type Memory struct {
	mu       sync.RWMutex
	notes    map[string]memoryNote
	failures map[string]error
	listErr  error
	reads    atomic.Int64
}

func NewMemory() *Memory {
	return &Memory{
		notes:    make(map[string]memoryNote),
		failures: make(map[string]error),
	}
}

// Put adds or replaces a note.
func (m *Memory) Put(path, content string, modTime time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notes[path] = memoryNote{content: content, modTime: modTime}
}

func (m *Memory) Delete(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.notes, path)
}

// FailRead makes every Read of path fail with err. A nil err clears it.
func (m *Memory) FailRead(path string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.failures, path)
		return
	}
	m.failures[path] = err
}

// FailList makes List fail with err. A nil err clears it.
func (m *Memory) FailList(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listErr = err
}

// Reads is the number of Read calls so far.
func (m *Memory) Reads() int {
	return int(m.reads.Load())
}

// List returns the notes ordered by path.
func (m *Memory) List(_ context.Context) ([]search.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.listErr != nil {
		return nil, m.listErr
	}
	docs := make([]search.Document, 0, len(m.notes))
	for p, n := range m.notes {
		docs = append(docs, newDocument(p, n.modTime))
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].Path < docs[j].Path })
	return docs, nil
}

func (m *Memory) Read(_ context.Context, path string) (string, error) {
	m.reads.Add(1)

	m.mu.RLock()
	defer m.mu.RUnlock()

	if err, ok := m.failures[path]; ok {
		return "", &search.ReadError{Path: path, Err: err}
	}
	n, ok := m.notes[path]
	if !ok {
		return "", &search.ReadError{Path: path, Err: search.ErrDocumentNotFound}
	}
	return n.content, nil
}
