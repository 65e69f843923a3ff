package cloudindex

import (
	"math"
	"time"
)

// FileID is a vendor-assigned opaque identifier of a file or folder.
type FileID string

// EntryType distinguishes files from folders.
type EntryType string

const (
	EntryTypeFile   EntryType = "file"
	EntryTypeFolder EntryType = "folder"
)

// Entry is one file or folder record produced by a traversal. Parent and
// Path are assigned by the Indexer while walking; backends fill the rest
// from vendor metadata. Entries are immutable once added to an Index.
type Entry struct {
	ID       FileID
	Name     string
	Type     EntryType
	Parent   FileID
	Path     string
	Link     string
	Mime     string
	Size     int64
	Owner    string
	Created  time.Time
	Modified time.Time
}

func (e Entry) IsFolder() bool {
	return e.Type == EntryTypeFolder
}

// SizeKB returns the entry size in kilobytes rounded to two decimals.
// Folders always report 0.
func (e Entry) SizeKB() float64 {
	if e.IsFolder() {
		return 0
	}
	return math.Round(float64(e.Size)/1024*100) / 100
}
