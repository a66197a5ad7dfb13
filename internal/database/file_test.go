package database

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Ellen-desu/termisql/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveSQLiteFile(t *testing.T) {
	path := testutil.NewDB(t, `CREATE TABLE t (id INTEGER)`)

	f, err := ResolveSQLiteFile(path)
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(f.Path))
	assert.Equal(t, "test", f.Alias)
	assert.Positive(t, f.Size)
}

func TestResolveSQLiteFile_EmptyFileIsAccepted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.sqlite3")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	f, err := ResolveSQLiteFile(path)
	require.NoError(t, err)
	assert.Equal(t, "empty", f.Alias)
	assert.Zero(t, f.Size)
}

func TestResolveSQLiteFile_Rejects(t *testing.T) {
	dir := t.TempDir()

	notes := filepath.Join(dir, "notes.db")
	require.NoError(t, os.WriteFile(notes, []byte("just some text that is long enough"), 0o644))
	_, err := ResolveSQLiteFile(notes)
	assert.ErrorIs(t, err, ErrNotSQLite)

	short := filepath.Join(dir, "short.db")
	require.NoError(t, os.WriteFile(short, []byte("SQLite"), 0o644))
	_, err = ResolveSQLiteFile(short)
	assert.ErrorIs(t, err, ErrNotSQLite)

	_, err = ResolveSQLiteFile(dir)
	assert.Error(t, err)

	_, err = ResolveSQLiteFile(filepath.Join(dir, "missing.db"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
