package database

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// sqliteHeader starts every non-empty SQLite database file.
var sqliteHeader = []byte("SQLite format 3\x00")

// ErrNotSQLite is returned for files that are not SQLite databases.
var ErrNotSQLite = errors.New("not a SQLite database")

// DataFile describes the SQLite file behind an embedded backend.
type DataFile struct {
	Path    string
	Alias   string
	Size    int64
	ModTime int64
}

// ResolveSQLiteFile makes path absolute and checks that it names an existing
// SQLite database. An empty file is accepted; SQLite treats it as a database
// without tables.
func ResolveSQLiteFile(path string) (DataFile, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return DataFile{}, err
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return DataFile{}, err
	}
	if info.IsDir() {
		return DataFile{}, fmt.Errorf("%s: is a directory", absPath)
	}

	if info.Size() > 0 {
		if err := checkHeader(absPath); err != nil {
			return DataFile{}, err
		}
	}

	return DataFile{
		Path:    absPath,
		Alias:   strings.TrimSuffix(filepath.Base(absPath), filepath.Ext(absPath)),
		Size:    info.Size(),
		ModTime: info.ModTime().Unix(),
	}, nil
}

func checkHeader(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	buf := make([]byte, len(sqliteHeader))
	if _, err := io.ReadFull(f, buf); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return fmt.Errorf("%s: %w", path, ErrNotSQLite)
		}
		return err
	}
	if !bytes.Equal(buf, sqliteHeader) {
		return fmt.Errorf("%s: %w", path, ErrNotSQLite)
	}
	return nil
}
