package files

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gobwas/glob"

	"sciv/internal/errors"
	"sciv/internal/log"
)

// DefaultPatterns are the file name globs treated as images.
var DefaultPatterns = []string{"*.{jpg,jpeg,png,gif,bmp,tif,tiff,webp,heic,heif,ico,svg}"}

// Scanner enumerates the images directly inside a directory.
type Scanner interface {
	// Scan returns the images in dir in directory listing order. Entries
	// that vanish or cannot be read while scanning are left out.
	Scan(dir string) ([]File, error)
	// IsImage reports whether path names an image.
	IsImage(path string) bool
}

// ImageMatcher decides by file name, falling back to content sniffing for
// names no glob recognises.
type ImageMatcher struct {
	globs []glob.Glob
	sniff bool
}

// NewImageMatcher compiles patterns. Matching is case-insensitive on the
// base name.
func NewImageMatcher(patterns []string, sniff bool) (*ImageMatcher, error) {
	m := &ImageMatcher{sniff: sniff}
	for _, p := range patterns {
		g, err := glob.Compile(strings.ToLower(p))
		if err != nil {
			return nil, errors.NewConfigError("invalid image pattern", p, errors.InvalidConfig, err)
		}
		m.globs = append(m.globs, g)
	}
	return m, nil
}

// Match reports whether path is an image.
func (m *ImageMatcher) Match(path string) bool {
	name := strings.ToLower(filepath.Base(path))
	for _, g := range m.globs {
		if g.Match(name) {
			return true
		}
	}
	if !m.sniff {
		return false
	}
	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return false
	}
	return strings.HasPrefix(mt.String(), "image/")
}

// DirScanner is the Scanner backed by the local filesystem.
type DirScanner struct {
	matcher *ImageMatcher
}

// NewDirScanner creates a scanner using matcher to pick images.
func NewDirScanner(matcher *ImageMatcher) *DirScanner {
	return &DirScanner{matcher: matcher}
}

// DefaultScanner matches DefaultPatterns without content sniffing.
func DefaultScanner() *DirScanner {
	m, _ := NewImageMatcher(DefaultPatterns, false)
	return NewDirScanner(m)
}

// IsImage implements Scanner.
func (s *DirScanner) IsImage(path string) bool {
	return s.matcher.Match(path)
}

// Scan implements Scanner.
func (s *DirScanner) Scan(dir string) ([]File, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.FromOS("failed to read directory", dir, err)
	}

	out := make([]File, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if !s.matcher.Match(path) {
			continue
		}
		f, err := Stat(path)
		if err != nil {
			log.LogWithFields(log.F("path", path), log.F("error", err)).Debug("Skipping unreadable entry")
			continue
		}
		out = append(out, f)
	}
	return out, nil
}
