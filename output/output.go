// Package output writes index snapshots to local files.
//
// Every writer is atomic: the snapshot is written to `<path>.tmp`, synced
// and renamed into place, so a failed run leaves no artifact behind.
package output

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Jumpaku/go-cloudindex"
)

// Format names a snapshot file format.
type Format string

const (
	FormatCSV    Format = "csv"
	FormatJSON   Format = "json"
	FormatSQLite Format = "sqlite"
)

// Artifact kinds, named after the snapshot flavors: a full index with
// links, or the bare directory structure.
const (
	KindIndex     = "index"
	KindDirectory = "directory"
)

// ParseFormat parses a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatCSV, FormatJSON, FormatSQLite:
		return f, nil
	}
	return "", fmt.Errorf("unknown output format '%s', want csv, json or sqlite: %w", s, cloudindex.ErrInvalidConfig)
}

// Ext returns the artifact file extension for the format.
func (f Format) Ext() string {
	switch f {
	case FormatJSON:
		return ".json"
	case FormatSQLite:
		return ".db"
	default:
		return ".csv"
	}
}

// FileName returns the artifact name for one run, `<root name>_<kind><ext>`.
// Path separators in the root name are flattened so the artifact stays in
// the output directory.
func FileName(rootName, kind string, format Format) string {
	name := strings.NewReplacer("/", "-", string(filepath.Separator), "-").Replace(rootName)
	return name + "_" + kind + format.Ext()
}

// Write writes idx to path in the given format.
func Write(idx *cloudindex.Index, format Format, path string) error {
	switch format {
	case FormatJSON:
		return WriteJSON(idx, path)
	case FormatSQLite:
		return WriteSQLite(idx, path)
	case FormatCSV:
		return WriteCSV(idx, path)
	}
	return fmt.Errorf("unknown output format '%s': %w", format, cloudindex.ErrInvalidConfig)
}

// writeAtomic creates `<path>.tmp`, hands it to write, syncs and renames it
// into place. The temp file is removed when any step fails.
func writeAtomic(path string, write func(f *os.File) error) (err error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return cloudindex.NewIOError(fmt.Sprintf("failed to create output directory '%s'", dir), err)
		}
	}
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return cloudindex.NewIOError(fmt.Sprintf("failed to create '%s'", tmp), err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp)
		}
	}()
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return cloudindex.NewIOError(fmt.Sprintf("failed to sync '%s'", tmp), err)
	}
	if err := f.Close(); err != nil {
		return cloudindex.NewIOError(fmt.Sprintf("failed to close '%s'", tmp), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return cloudindex.NewIOError(fmt.Sprintf("failed to move '%s' into place", tmp), err)
	}
	return nil
}
