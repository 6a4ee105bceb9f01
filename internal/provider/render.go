package provider

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/nao1215/pagediff/internal/model"
	_ "golang.org/x/image/bmp"  // register BMP decoder
	_ "golang.org/x/image/tiff" // register TIFF decoder
	_ "golang.org/x/image/webp" // register WebP decoder
)

// DefaultRenderPattern names page rasters by their 1-based page number.
const DefaultRenderPattern = "page-%03d"

// rasterExtensions are tried in order for every page.
var rasterExtensions = []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tiff", ".tif", ".webp"}

// ImageDirRenderer attaches pre-rendered page rasters from a directory.
//
// Page i is looked up as fmt.Sprintf(pattern, i+1) plus one of the
// supported image extensions. A page without a raster keeps a nil Image
// and is compared without the visual signal.
type ImageDirRenderer struct {
	pattern string
	logger  *slog.Logger
}

// NewImageDirRenderer creates a renderer. An empty pattern selects
// DefaultRenderPattern.
func NewImageDirRenderer(pattern string, opts ...Option) *ImageDirRenderer {
	if pattern == "" {
		pattern = DefaultRenderPattern
	}
	o := newOptions(opts)
	return &ImageDirRenderer{pattern: pattern, logger: o.logger}
}

// Render decodes the raster of every page of doc found in dir and
// returns the number of pages that received one.
func (r *ImageDirRenderer) Render(ctx context.Context, doc *model.Document, dir string) (int, error) {
	if doc == nil || dir == "" {
		return 0, nil
	}
	info, err := os.Stat(dir)
	if err != nil {
		return 0, fmt.Errorf("raster directory: %w", err)
	}
	if !info.IsDir() {
		return 0, fmt.Errorf("raster directory %s: not a directory", dir)
	}

	rendered := 0
	for i, p := range doc.Pages {
		if err := ctx.Err(); err != nil {
			return rendered, err
		}
		path, ok := r.find(dir, i+1)
		if !ok {
			r.logger.Debug("no raster for page", "dir", dir, "page", i+1)
			continue
		}
		img, err := decodeImage(path)
		if err != nil {
			r.logger.Warn("raster decode failed", "path", path, "error", err)
			continue
		}
		p.Image = img
		rendered++
	}
	return rendered, nil
}

func (r *ImageDirRenderer) find(dir string, pageNr int) (string, bool) {
	base := filepath.Join(dir, fmt.Sprintf(r.pattern, pageNr))
	for _, ext := range rasterExtensions {
		path := base + ext
		if _, err := os.Stat(path); err == nil {
			return path, true
		} else if !errors.Is(err, fs.ErrNotExist) {
			r.logger.Debug("raster stat failed", "path", path, "error", err)
		}
	}
	return "", false
}

func decodeImage(path string) (image.Image, error) {
	f, err := os.Open(path) //nolint:gosec // Raster directory is user-provided
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return img, nil
}
