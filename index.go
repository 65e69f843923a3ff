package cloudindex

import (
	"fmt"
	"time"
)

// Index is the materialized snapshot of one indexing run: every Entry under
// (and including) the root folder, in discovery order. Parents always
// precede their children, so serializing the slice front to back never
// emits a dangling parent reference.
type Index struct {
	RunID       string
	Backend     string
	RootID      FileID
	RootName    string
	GeneratedAt time.Time

	entries []Entry
	byID    map[FileID]int
}

// NewIndex creates an empty Index for one run.
func NewIndex(runID, backend string, rootID FileID, rootName string, generatedAt time.Time) *Index {
	return &Index{
		RunID:       runID,
		Backend:     backend,
		RootID:      rootID,
		RootName:    rootName,
		GeneratedAt: generatedAt,
		byID:        map[FileID]int{},
	}
}

// Add appends an entry. It rejects duplicate IDs and entries whose non-empty
// Parent is not already present, keeping the index a closed tree.
func (x *Index) Add(e Entry) error {
	if e.ID == "" {
		return fmt.Errorf("entry %q has no identifier: %w", e.Name, ErrAPIError)
	}
	if _, ok := x.byID[e.ID]; ok {
		return fmt.Errorf("duplicate entry %q: %w", e.ID, ErrAPIError)
	}
	if e.Parent != "" {
		if _, ok := x.byID[e.Parent]; !ok {
			return fmt.Errorf("entry %q references unknown parent %q: %w", e.ID, e.Parent, ErrAPIError)
		}
	}
	x.byID[e.ID] = len(x.entries)
	x.entries = append(x.entries, e)
	return nil
}

// Contains reports whether an entry with the given ID is already present.
func (x *Index) Contains(id FileID) bool {
	_, ok := x.byID[id]
	return ok
}

// Lookup returns the entry with the given ID.
func (x *Index) Lookup(id FileID) (Entry, bool) {
	i, ok := x.byID[id]
	if !ok {
		return Entry{}, false
	}
	return x.entries[i], true
}

// Entries returns the entries in discovery order. The returned slice is a
// copy; the Index itself stays immutable.
func (x *Index) Entries() []Entry {
	return append([]Entry{}, x.entries...)
}

// Len returns the number of entries.
func (x *Index) Len() int {
	return len(x.entries)
}

// Root returns the root entry, the first one added, or the zero Entry when
// the index is empty.
func (x *Index) Root() Entry {
	if len(x.entries) == 0 {
		return Entry{}
	}
	return x.entries[0]
}

// Children returns the direct children of the given entry, in discovery order.
func (x *Index) Children(id FileID) []Entry {
	var children []Entry
	for _, e := range x.entries {
		if e.Parent == id {
			children = append(children, e)
		}
	}
	return children
}

// Depth returns the number of edges between the entry and the root, or -1
// when the entry is not present.
func (x *Index) Depth(id FileID) int {
	if !x.Contains(id) {
		return -1
	}
	depth := 0
	for {
		e, _ := x.Lookup(id)
		if e.Parent == "" {
			return depth
		}
		id = e.Parent
		depth++
	}
}
