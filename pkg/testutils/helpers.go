package testutils

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/require"
)

// WriteFile creates dir/name with placeholder content and the given mtime
// in seconds, returning the full path.
func WriteFile(t *testing.T, dir, name string, mtime int64) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
	Touch(t, path, mtime)
	return path
}

// CreateTestFilesWithMtimes creates one placeholder file per entry.
func CreateTestFilesWithMtimes(t *testing.T, dir string, files map[string]int64) {
	t.Helper()
	for name, mtime := range files {
		WriteFile(t, dir, name, mtime)
	}
}

// Touch sets both access and modification time of path.
func Touch(t *testing.T, path string, mtime int64) {
	t.Helper()
	ts := time.Unix(mtime, 0)
	require.NoError(t, os.Chtimes(path, ts, ts))
}

// WritePNG encodes a w by h image to path.
func WritePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.White)
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
}

// StripANSI removes terminal escape sequences from rendered output.
func StripANSI(str string) string {
	return ansi.Strip(str)
}
