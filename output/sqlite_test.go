package output

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWriteSQLite(t *testing.T) {
	idx := sampleIndex(t)
	path := filepath.Join(t.TempDir(), "Research_index.db")
	assert.NoError(t, WriteSQLite(idx, path))

	_, err := os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))

	db, err := sql.Open("sqlite3", path)
	assert.NoError(t, err)
	defer db.Close()

	t.Run("run row", func(t *testing.T) {
		var backend, rootID, rootName, generatedAt string
		var entryCount int
		row := db.QueryRow(`SELECT backend, root_id, root_name, generated_at, entry_count FROM runs WHERE run_id = ?`, "run-42")
		assert.NoError(t, row.Scan(&backend, &rootID, &rootName, &generatedAt, &entryCount))
		assert.Equal(t, "drive", backend)
		assert.Equal(t, "root", rootID)
		assert.Equal(t, "Research", rootName)
		assert.Equal(t, "2025-06-01T12:00:00Z", generatedAt)
		assert.Equal(t, 3, entryCount)
	})

	t.Run("entry rows", func(t *testing.T) {
		var count int
		row := db.QueryRow(`SELECT COUNT(*) FROM entries WHERE run_id = ?`, "run-42")
		assert.NoError(t, row.Scan(&count))
		assert.Equal(t, 3, count)

		var name, typ, parent, link string
		var size int64
		row = db.QueryRow(`SELECT name, type, parent_id, link, size FROM entries WHERE run_id = ? AND id = ?`, "run-42", "f1")
		assert.NoError(t, row.Scan(&name, &typ, &parent, &link, &size))
		assert.Equal(t, "intro.pdf", name)
		assert.Equal(t, "file", typ)
		assert.Equal(t, "root", parent)
		assert.Equal(t, "https://drive.google.com/file/d/f1/view", link)
		assert.Equal(t, int64(2048), size)
	})

	t.Run("children query", func(t *testing.T) {
		rows, err := db.Query(`SELECT id FROM entries WHERE run_id = ? AND parent_id = ? ORDER BY id`, "run-42", "root")
		assert.NoError(t, err)
		defer rows.Close()
		var ids []string
		for rows.Next() {
			var id string
			assert.NoError(t, rows.Scan(&id))
			ids = append(ids, id)
		}
		assert.NoError(t, rows.Err())
		assert.Equal(t, []string{"d1", "f1"}, ids)
	})
}

func TestWriteSQLite_Rewrite(t *testing.T) {
	idx := sampleIndex(t)
	path := filepath.Join(t.TempDir(), "Research_index.db")
	assert.NoError(t, WriteSQLite(idx, path))
	assert.NoError(t, WriteSQLite(idx, path))

	db, err := sql.Open("sqlite3", path)
	assert.NoError(t, err)
	defer db.Close()

	var count int
	row := db.QueryRow(`SELECT COUNT(*) FROM runs`)
	assert.NoError(t, row.Scan(&count))
	assert.Equal(t, 1, count)
}
