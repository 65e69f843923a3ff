package output

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/Jumpaku/go-cloudindex"
)

// WriteCSV writes one row per entry in walk order with the full column
// set, including the sharable link.
func WriteCSV(idx *cloudindex.Index, path string) error {
	return writeCSVRecords(idx, path, true)
}

// WriteDirectoryCSV writes the structure-only column set, without links.
func WriteDirectoryCSV(idx *cloudindex.Index, path string) error {
	return writeCSVRecords(idx, path, false)
}

func writeCSVRecords(idx *cloudindex.Index, path string, withLinks bool) error {
	return writeAtomic(path, func(f *os.File) error {
		w := csv.NewWriter(f)
		if err := w.Write(csvHeader(withLinks)); err != nil {
			return cloudindex.NewIOError("failed to write csv header", err)
		}
		for _, e := range idx.Entries() {
			if err := w.Write(csvRecord(e, withLinks)); err != nil {
				return cloudindex.NewIOError(fmt.Sprintf("failed to write csv record for '%s'", e.ID), err)
			}
		}
		w.Flush()
		if err := w.Error(); err != nil {
			return cloudindex.NewIOError("failed to flush csv", err)
		}
		return nil
	})
}

func csvHeader(withLinks bool) []string {
	if withLinks {
		return []string{"name", "path", "id", "link", "type", "is_folder", "size_kb", "owner", "created_date", "last_modified_date"}
	}
	return []string{"name", "path", "id", "type", "is_folder", "size_kb", "owner", "created_date", "last_modified_date"}
}

func csvRecord(e cloudindex.Entry, withLinks bool) []string {
	sizeKB := "0"
	if !e.IsFolder() {
		sizeKB = strconv.FormatFloat(e.SizeKB(), 'f', 2, 64)
	}
	record := []string{e.Name, e.Path, string(e.ID)}
	if withLinks {
		record = append(record, e.Link)
	}
	return append(record,
		entryType(e),
		strconv.FormatBool(e.IsFolder()),
		sizeKB,
		e.Owner,
		formatTime(e.Created),
		formatTime(e.Modified),
	)
}

// entryType reports the vendor mime type when one exists, the generic
// kind otherwise.
func entryType(e cloudindex.Entry) string {
	if e.Mime != "" {
		return e.Mime
	}
	return string(e.Type)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
