// Package analysis reads the details shown on the info line: content type,
// pixel dimensions and the EXIF fields a photo usually carries.
package analysis

import (
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/mknote"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"sciv/internal/errors"
	"sciv/internal/files"
	"sciv/internal/log"
)

// Metadata keys filled by the EXIF analyzer.
const (
	DateTimeOriginal = "DateTimeOriginal"
	CameraModel      = "CameraModel"
)

// Info describes one image file.
type Info struct {
	Path        string
	ContentType string
	Size        int64
	ModTime     time.Time
	Width       int
	Height      int
	Metadata    map[string]string
}

// HasDimensions reports whether the pixel size could be read.
func (i *Info) HasDimensions() bool {
	return i.Width > 0 && i.Height > 0
}

// Analyzer adds details for the content types it understands.
type Analyzer interface {
	// CanHandle checks if this analyzer is suitable for the given content type
	CanHandle(contentType string) bool
	// Analyze fills in what it can. A file without the data it looks for is
	// not an error.
	Analyze(path string, info *Info) error
}

// DimensionAnalyzer reads the pixel size from the image header.
type DimensionAnalyzer struct{}

func (a *DimensionAnalyzer) CanHandle(contentType string) bool {
	return strings.HasPrefix(contentType, "image/")
}

func (a *DimensionAnalyzer) Analyze(path string, info *Info) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.NewFileError("failed to open image", path, errors.FileAccessDenied, err)
	}
	defer f.Close()

	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		log.LogWithFields(log.F("path", path), log.F("error", err)).Debug("No decoder for image header")
		return nil
	}
	info.Width, info.Height = cfg.Width, cfg.Height
	log.LogWithFields(log.F("path", path), log.F("format", format)).Debug("Read image dimensions")
	return nil
}

// ExifAnalyzer extracts EXIF metadata
type ExifAnalyzer struct{}

// CanHandle accepts images and the octet-stream type some RAW files are
// detected as.
func (a *ExifAnalyzer) CanHandle(contentType string) bool {
	return strings.HasPrefix(contentType, "image/") || contentType == "application/octet-stream"
}

func (a *ExifAnalyzer) Analyze(path string, info *Info) error {
	logger := log.LogWithFields(log.F("path", path))

	file, err := os.Open(path)
	if err != nil {
		return errors.NewFileError("failed to open image for exif", path, errors.FileAccessDenied, err)
	}
	defer file.Close()

	x, err := exif.Decode(file)
	if err != nil {
		logger.Debugf("No EXIF data found: %v", err)
		return nil
	}

	if dt, err := x.Get(exif.DateTimeOriginal); err == nil {
		if s, _ := dt.StringVal(); s != "" {
			info.Metadata[DateTimeOriginal] = s
		}
	}
	if model, err := x.Get(exif.Model); err == nil {
		if s, _ := model.StringVal(); s != "" {
			info.Metadata[CameraModel] = strings.TrimSpace(s)
		}
	}
	return nil
}

// maxCached bounds the number of remembered results.
const maxCached = 512

// Engine runs the registered analyzers and remembers results per path and
// modification time, so an unchanged file is read once.
type Engine struct {
	analyzers []Analyzer

	mu    sync.Mutex
	cache map[files.Key]*Info
}

var registerOnce sync.Once

// New creates an engine with the dimension and EXIF analyzers.
func New() *Engine {
	registerOnce.Do(func() {
		exif.RegisterParsers(mknote.All...)
	})
	e := &Engine{cache: make(map[files.Key]*Info)}
	e.Register(&DimensionAnalyzer{})
	e.Register(&ExifAnalyzer{})
	return e
}

// Register adds an analyzer after the existing ones.
func (e *Engine) Register(a Analyzer) {
	e.analyzers = append(e.analyzers, a)
}

// Analyze returns the details of path. Results are shared between callers
// and must not be modified.
func (e *Engine) Analyze(path string) (*Info, error) {
	f, err := files.Stat(path)
	if err != nil {
		return nil, err
	}
	key := f.Key()

	e.mu.Lock()
	if info, ok := e.cache[key]; ok {
		e.mu.Unlock()
		return info, nil
	}
	e.mu.Unlock()

	info, err := e.analyze(f)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	if len(e.cache) >= maxCached {
		e.cache = make(map[files.Key]*Info)
	}
	e.cache[key] = info
	e.mu.Unlock()
	return info, nil
}

func (e *Engine) analyze(f files.File) (*Info, error) {
	logger := log.LogWithFields(log.F("path", f.Path))

	st, err := os.Stat(f.Path)
	if err != nil {
		return nil, errors.NewFileError("failed to stat file", f.Path, errors.FileAccessDenied, err)
	}
	mime, err := mimetype.DetectFile(f.Path)
	if err != nil {
		return nil, errors.NewFileError("failed to detect content type", f.Path, errors.FileOperationFailed, err)
	}

	info := &Info{
		Path:        f.Path,
		ContentType: mime.String(),
		Size:        st.Size(),
		ModTime:     f.ModTime,
		Metadata:    make(map[string]string),
	}
	for _, a := range e.analyzers {
		if !a.CanHandle(info.ContentType) {
			continue
		}
		if err := a.Analyze(f.Path, info); err != nil {
			logger.ErrorWithStack(err, "Analyzer failed")
		}
	}
	logger.With(log.F("type", info.ContentType)).Debug("Analyzed image")
	return info, nil
}
