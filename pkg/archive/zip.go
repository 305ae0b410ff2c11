// Package archive collects generated documents into a single zip payload.
package archive

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
)

// ErrDuplicateEntry is returned when an entry name is added twice
var ErrDuplicateEntry = errors.New("archive: duplicate entry")

// Archive is an in-memory zip that is safe for concurrent Add calls.
// Entries are written in name order so identical inputs produce identical bytes.
type Archive struct {
	mu       sync.Mutex
	entries  map[string][]byte
	modified time.Time
}

// New creates an empty archive. modified is stamped on every entry.
func New(modified time.Time) *Archive {
	return &Archive{
		entries:  make(map[string][]byte),
		modified: modified,
	}
}

// Add stores data under name
func (a *Archive) Add(name string, data []byte) error {
	if name == "" {
		return errors.New("archive: empty entry name")
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if _, exists := a.entries[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateEntry, name)
	}
	a.entries[name] = data
	return nil
}

// Len returns the number of entries
func (a *Archive) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.entries)
}

// Names returns the entry names in sorted order
func (a *Archive) Names() []string {
	a.mu.Lock()
	defer a.mu.Unlock()

	names := make([]string, 0, len(a.entries))
	for name := range a.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Bytes serializes the archive
func (a *Archive) Bytes() ([]byte, error) {
	names := a.Names()

	a.mu.Lock()
	defer a.mu.Unlock()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range names {
		header := &zip.FileHeader{
			Name:     name,
			Method:   zip.Deflate,
			Modified: a.modified,
		}
		w, err := zw.CreateHeader(header)
		if err != nil {
			return nil, fmt.Errorf("archive: create %s: %w", name, err)
		}
		if _, err := w.Write(a.entries[name]); err != nil {
			return nil, fmt.Errorf("archive: write %s: %w", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("archive: close: %w", err)
	}
	return buf.Bytes(), nil
}
