package prefs

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Store is a key-path addressed collection of persisted JSON documents, one
// file per document under a common directory. Values are addressed by
// dot-separated paths ("com.example.app.1.button_7.device").
type Store struct {
	mu   sync.Mutex
	dir  string
	docs map[string]map[string]interface{}
}

func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create preference directory: %w", err)
	}
	return &Store{
		dir:  dir,
		docs: make(map[string]map[string]interface{}),
	}, nil
}

func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) filePath(doc string) string {
	return filepath.Join(s.dir, doc+".json")
}

// load reads a document from disk, caching the result. A missing or
// unreadable file yields an empty document, never an error; preference data
// that cannot be read is treated as absent.
func (s *Store) load(doc string) map[string]interface{} {
	if d, ok := s.docs[doc]; ok {
		return d
	}

	d := make(map[string]interface{})
	data, err := os.ReadFile(s.filePath(doc))
	if err == nil {
		if err := json.Unmarshal(data, &d); err != nil {
			d = make(map[string]interface{})
		}
	}
	s.docs[doc] = d
	return d
}

func (s *Store) persist(doc string) error {
	data, err := json.MarshalIndent(s.docs[doc], "", "  ")
	if err != nil {
		return fmt.Errorf("cannot encode document %q: %w", doc, err)
	}
	if err := os.WriteFile(s.filePath(doc), data, 0o644); err != nil {
		return fmt.Errorf("cannot write document %q: %w", doc, err)
	}
	return nil
}

// Get resolves a dot-separated path inside a document.
func (s *Store) Get(doc, path string) (interface{}, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var current interface{} = s.load(doc)
	if path == "" {
		return current, true
	}
	for _, part := range strings.Split(path, ".") {
		m, ok := current.(map[string]interface{})
		if !ok {
			return nil, false
		}
		current, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// Set writes a value at a dot-separated path, creating intermediate maps,
// and persists the document. A nil value deletes the leaf.
func (s *Store) Set(doc, path string, value interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	parts := strings.Split(path, ".")
	m := s.load(doc)
	for _, part := range parts[:len(parts)-1] {
		next, ok := m[part].(map[string]interface{})
		if !ok {
			next = make(map[string]interface{})
			m[part] = next
		}
		m = next
	}

	leaf := parts[len(parts)-1]
	if value == nil {
		delete(m, leaf)
	} else {
		m[leaf] = value
	}
	return s.persist(doc)
}

// Unmarshal decodes a whole document into a typed structure.
func (s *Store) Unmarshal(doc string, v interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(s.load(doc))
	if err != nil {
		return fmt.Errorf("cannot re-encode document %q: %w", doc, err)
	}
	return json.Unmarshal(data, v)
}

// SetDocument replaces a whole document and persists it.
func (s *Store) SetDocument(doc string, v interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("cannot encode document %q: %w", doc, err)
	}
	m := make(map[string]interface{})
	if err := json.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("document %q is not an object: %w", doc, err)
	}
	s.docs[doc] = m
	return s.persist(doc)
}

// Invalidate drops the cached copy of a document so the next access re-reads
// the file. Called by the change monitor when another writer touched it.
func (s *Store) Invalidate(doc string) {
	s.mu.Lock()
	delete(s.docs, doc)
	s.mu.Unlock()
}
