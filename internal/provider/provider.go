package provider

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/nao1215/pagediff/internal/model"
)

// ErrUnsupportedFormat is returned for documents whose extension has no loader.
var ErrUnsupportedFormat = errors.New("unsupported document format")

// Loader reads a document into the page model.
//
// A page that cannot be extracted is returned with its Failed marker set;
// only problems with the document as a whole are returned as errors.
type Loader interface {
	Load(ctx context.Context, path string) (*model.Document, error)
}

// Option configures the loaders created by ForPath.
type Option func(*options)

type options struct {
	logger *slog.Logger
}

// WithLogger sets the logger used to report page-level extraction problems.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func newOptions(opts []Option) options {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return o
}

// ForPath returns the loader for the file extension of path:
// ".json" for document model files and ".pdf" for PDF documents.
func ForPath(path string, opts ...Option) (Loader, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return NewJSONLoader(), nil
	case ".pdf":
		return NewPDFLoader(opts...), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// Load reads path with the loader for its extension.
func Load(ctx context.Context, path string, opts ...Option) (*model.Document, error) {
	l, err := ForPath(path, opts...)
	if err != nil {
		return nil, err
	}
	return l.Load(ctx, path)
}
