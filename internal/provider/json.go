package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/nao1215/pagediff/internal/model"
)

// documentFile is the on-disk document model.
type documentFile struct {
	Name  string     `json:"name"`
	Pages []pageFile `json:"pages"`
}

type pageFile struct {
	model.Page

	// Error marks a page the producer failed to extract.
	Error string `json:"error,omitempty"`
}

// JSONLoader reads document model files produced by an external
// extractor: one object per page with geometry, text, text runs, images
// and fonts.
type JSONLoader struct{}

// NewJSONLoader creates a JSON loader.
func NewJSONLoader() *JSONLoader {
	return &JSONLoader{}
}

// Load implements Loader.
func (l *JSONLoader) Load(ctx context.Context, path string) (*model.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path) //nolint:gosec // User-provided document path is intentional
	if err != nil {
		return nil, fmt.Errorf("read document model: %w", err)
	}

	var f documentFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse document model %s: %w", path, err)
	}

	pages := make([]*model.Page, len(f.Pages))
	for i := range f.Pages {
		pf := f.Pages[i]
		p := pf.Page
		if pf.Error != "" {
			p.MarkFailed(pf.Error)
		} else if p.Failed && p.FailureReason == "" {
			p.FailureReason = "extraction failed"
		}
		pages[i] = &p
	}

	name := f.Name
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return model.NewDocument(name, pages), nil
}
