package output

import (
	"encoding/json"
	"os"
	"time"

	"github.com/Jumpaku/go-cloudindex"
)

// Document is the JSON snapshot shape: run metadata followed by entries in
// walk order.
type Document struct {
	RunID       string      `json:"run_id"`
	Backend     string      `json:"backend"`
	RootID      string      `json:"root_id"`
	RootName    string      `json:"root_name"`
	GeneratedAt time.Time   `json:"generated_at"`
	EntryCount  int         `json:"entry_count"`
	Entries     []JSONEntry `json:"entries"`
}

// JSONEntry is one file or folder record.
type JSONEntry struct {
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	Type     string     `json:"type"`
	Parent   string     `json:"parent,omitempty"`
	Path     string     `json:"path"`
	Link     string     `json:"link,omitempty"`
	Mime     string     `json:"mime,omitempty"`
	Size     int64      `json:"size"`
	SizeKB   float64    `json:"size_kb"`
	Owner    string     `json:"owner,omitempty"`
	Created  *time.Time `json:"created,omitempty"`
	Modified *time.Time `json:"modified,omitempty"`
}

// NewDocument converts an index into its JSON snapshot shape.
func NewDocument(idx *cloudindex.Index) Document {
	doc := Document{
		RunID:       idx.RunID,
		Backend:     idx.Backend,
		RootID:      string(idx.RootID),
		RootName:    idx.RootName,
		GeneratedAt: idx.GeneratedAt,
		EntryCount:  idx.Len(),
		Entries:     []JSONEntry{},
	}
	for _, e := range idx.Entries() {
		doc.Entries = append(doc.Entries, JSONEntry{
			ID:       string(e.ID),
			Name:     e.Name,
			Type:     string(e.Type),
			Parent:   string(e.Parent),
			Path:     e.Path,
			Link:     e.Link,
			Mime:     e.Mime,
			Size:     e.Size,
			SizeKB:   e.SizeKB(),
			Owner:    e.Owner,
			Created:  timePtr(e.Created),
			Modified: timePtr(e.Modified),
		})
	}
	return doc
}

// WriteJSON writes the index as one indented JSON document.
func WriteJSON(idx *cloudindex.Index, path string) error {
	return writeAtomic(path, func(f *os.File) error {
		enc := json.NewEncoder(f)
		enc.SetIndent("", "  ")
		if err := enc.Encode(NewDocument(idx)); err != nil {
			return cloudindex.NewIOError("failed to encode json document", err)
		}
		return nil
	})
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	u := t.UTC()
	return &u
}
