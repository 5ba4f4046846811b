package loader

import (
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"docqa/internal/adapter/fs"
	"docqa/internal/domain"
)

// Loader converts heterogeneous sources into documents: URLs, .txt files,
// .pdf files, and directories of PDFs. Every per-source failure is logged
// and skipped; a bad source never aborts the batch.
type Loader struct {
	extractImages bool
	client        *http.Client
	walker        *fs.Walker
	logger        *slog.Logger
}

// Options configures a Loader.
type Options struct {
	// ExtractImages appends a description block for raster images found
	// on PDF pages.
	ExtractImages bool

	// FetchTimeout bounds each URL fetch. Defaults to 30 seconds.
	FetchTimeout time.Duration

	Logger *slog.Logger
}

func New(opts Options) *Loader {
	timeout := opts.FetchTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		extractImages: opts.ExtractImages,
		client:        &http.Client{Timeout: timeout},
		walker:        fs.NewPDFWalker(),
		logger:        logger,
	}
}

// Load converts each source into zero or more documents. It never fails
// as a whole; sources that cannot be loaded only reduce the output.
func (l *Loader) Load(sources []string) []domain.Document {
	var docs []domain.Document

	for _, src := range sources {
		switch {
		case strings.HasPrefix(src, "http://"), strings.HasPrefix(src, "https://"):
			doc, err := l.loadURL(src)
			if err != nil {
				l.logger.Error("failed to load URL", "url", src, "error", err)
				continue
			}
			docs = append(docs, doc)

		case isDir(src):
			docs = append(docs, l.loadDirectory(src)...)

		case strings.EqualFold(filepath.Ext(src), ".txt"):
			doc, err := l.loadText(src)
			if err != nil {
				l.logger.Error("failed to load text file", "path", src, "error", err)
				continue
			}
			docs = append(docs, doc)

		case strings.EqualFold(filepath.Ext(src), ".pdf"):
			pages, err := l.loadPDF(src)
			if err != nil {
				l.logger.Error("failed to load PDF", "path", src, "error", err)
				continue
			}
			docs = append(docs, pages...)

		default:
			l.logger.Warn("unsupported source type, skipping", "source", src)
		}
	}

	l.logger.Info("documents loaded", "sources", len(sources), "documents", len(docs))
	return docs
}

// loadDirectory expands a directory to every contained PDF. A directory
// with no PDFs yields no documents, not an error.
func (l *Loader) loadDirectory(dir string) []domain.Document {
	files, err := l.walker.Walk(dir)
	if err != nil {
		l.logger.Error("failed to scan directory", "dir", dir, "error", err)
		return nil
	}

	var docs []domain.Document
	for _, path := range files {
		pages, err := l.loadPDF(path)
		if err != nil {
			l.logger.Error("failed to load PDF", "path", path, "error", err)
			continue
		}
		docs = append(docs, pages...)
	}

	l.logger.Info("directory loaded", "dir", dir, "pdfs", len(files), "documents", len(docs))
	return docs
}

func (l *Loader) loadText(path string) (domain.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Document{}, err
	}
	return domain.Document{
		Text:     string(data),
		Metadata: domain.Metadata{Source: path},
	}, nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
