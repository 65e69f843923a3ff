package output

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Jumpaku/go-cloudindex"
	_ "github.com/mattn/go-sqlite3"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS runs (
    run_id TEXT PRIMARY KEY,
    backend TEXT NOT NULL,
    root_id TEXT NOT NULL,
    root_name TEXT NOT NULL,
    generated_at TEXT NOT NULL,
    entry_count INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS entries (
    run_id TEXT NOT NULL REFERENCES runs(run_id),
    id TEXT NOT NULL,
    name TEXT NOT NULL,
    type TEXT NOT NULL,
    parent_id TEXT,
    path TEXT NOT NULL,
    link TEXT,
    mime TEXT,
    size INTEGER NOT NULL DEFAULT 0,
    owner TEXT,
    created_at TEXT,
    modified_at TEXT,
    PRIMARY KEY (run_id, id)
);

CREATE INDEX IF NOT EXISTS idx_entries_parent ON entries(run_id, parent_id);
`

// WriteSQLite writes the index into a fresh SQLite database file holding
// one row per entry plus a single run row.
func WriteSQLite(idx *cloudindex.Index, path string) error {
	return writeAtomicDB(path, func(db *sql.DB) error {
		if _, err := db.Exec(sqliteSchema); err != nil {
			return cloudindex.NewIOError("failed to apply sqlite schema", err)
		}
		tx, err := db.Begin()
		if err != nil {
			return cloudindex.NewIOError("failed to begin transaction", err)
		}
		defer func() {
			_ = tx.Rollback()
		}()

		_, err = tx.Exec(
			`INSERT INTO runs (run_id, backend, root_id, root_name, generated_at, entry_count) VALUES (?, ?, ?, ?, ?, ?)`,
			idx.RunID, idx.Backend, string(idx.RootID), idx.RootName, formatTime(idx.GeneratedAt), idx.Len())
		if err != nil {
			return cloudindex.NewIOError("failed to insert run row", err)
		}

		stmt, err := tx.Prepare(
			`INSERT INTO entries (run_id, id, name, type, parent_id, path, link, mime, size, owner, created_at, modified_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return cloudindex.NewIOError("failed to prepare insert", err)
		}
		defer func() {
			_ = stmt.Close()
		}()

		for _, e := range idx.Entries() {
			_, err := stmt.Exec(
				idx.RunID, string(e.ID), e.Name, string(e.Type), string(e.Parent), e.Path,
				e.Link, e.Mime, e.Size, e.Owner, formatTime(e.Created), formatTime(e.Modified))
			if err != nil {
				return cloudindex.NewIOError(fmt.Sprintf("failed to insert entry '%s'", e.ID), err)
			}
		}
		if err := tx.Commit(); err != nil {
			return cloudindex.NewIOError("failed to commit transaction", err)
		}
		return nil
	})
}

// writeAtomicDB is writeAtomic for a SQLite database: the database is built
// at `<path>.tmp` and renamed into place once complete.
func writeAtomicDB(path string, build func(db *sql.DB) error) (err error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return cloudindex.NewIOError(fmt.Sprintf("failed to create output directory '%s'", dir), err)
		}
	}
	tmp := path + ".tmp"
	_ = os.Remove(tmp)
	db, err := sql.Open("sqlite3", tmp)
	if err != nil {
		return cloudindex.NewIOError(fmt.Sprintf("failed to open '%s'", tmp), err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp)
		}
	}()
	if err := build(db); err != nil {
		_ = db.Close()
		return err
	}
	if err := db.Close(); err != nil {
		return cloudindex.NewIOError(fmt.Sprintf("failed to close '%s'", tmp), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return cloudindex.NewIOError(fmt.Sprintf("failed to move '%s' into place", tmp), err)
	}
	return nil
}
