// Package files keeps an ordered, cursor-addressed collection of the images
// in one directory consistent with what is on disk.
package files

import (
	"os"
	"path/filepath"
	"time"

	"sciv/internal/errors"
)

// File is one image on disk. Two Files are the same only when both path and
// modification time agree, so a touched file is a new value.
type File struct {
	Path    string
	ModTime time.Time
}

// Key is the comparable identity of a File.
type Key struct {
	Path    string
	ModTime int64
}

// Stat reads the modification time of path. Directories are rejected.
func Stat(path string) (File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return File{}, errors.FromOS("failed to stat file", path, err)
	}
	if info.IsDir() {
		return File{}, errors.NewFileError("path is a directory", path, errors.InvalidPath, nil)
	}
	return File{Path: path, ModTime: info.ModTime()}, nil
}

// Key returns the identity of f.
func (f File) Key() Key {
	return Key{Path: f.Path, ModTime: f.ModTime.UnixNano()}
}

// Name returns the base name of the file.
func (f File) Name() string {
	return filepath.Base(f.Path)
}

func (f File) String() string {
	return f.Path
}
