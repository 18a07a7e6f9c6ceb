// Package pdfsource reads page text out of PDF catalogs.
package pdfsource

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/rs/zerolog"

	"github.com/mercascan/mercascan/internal/domain"
)

// Source yields the text of each page of a document, in page order.
type Source interface {
	Pages(ctx context.Context) ([]string, error)
}

// FitzSource extracts page text from a PDF file via MuPDF.
type FitzSource struct {
	path string
	log  zerolog.Logger
}

// NewFitzSource validates the given path and returns a source for it.
func NewFitzSource(path string, log zerolog.Logger) (*FitzSource, error) {
	if strings.TrimSpace(path) == "" {
		return nil, domain.InputError("PDF path is empty", nil)
	}
	if !strings.EqualFold(filepath.Ext(path), ".pdf") {
		return nil, domain.InputError(fmt.Sprintf("not a PDF file: %s", path), nil)
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, domain.InputError(fmt.Sprintf("cannot access %s", path), err)
	}
	if info.IsDir() {
		return nil, domain.InputError(fmt.Sprintf("%s is a directory", path), nil)
	}
	return &FitzSource{path: path, log: log}, nil
}

// Pages opens the document and extracts the text of every page. A page whose
// extraction fails contributes an empty string rather than aborting the
// document; an empty or unreadable document is an input error.
func (s *FitzSource) Pages(ctx context.Context) ([]string, error) {
	doc, err := fitz.New(s.path)
	if err != nil {
		return nil, domain.InputError(fmt.Sprintf("failed to open %s", s.path), err)
	}
	defer doc.Close()

	pageCount := doc.NumPage()
	if pageCount == 0 {
		return nil, domain.InputError("PDF has no pages", nil)
	}

	pages := make([]string, 0, pageCount)
	for pageNum := 0; pageNum < pageCount; pageNum++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		text, err := doc.Text(pageNum)
		if err != nil {
			s.log.Warn().
				Int("page", pageNum+1).
				Err(err).
				Msg("page text extraction failed, skipping")
			text = ""
		}
		pages = append(pages, text)
	}

	s.log.Debug().
		Int("pages", pageCount).
		Str("path", s.path).
		Msg("document text loaded")
	return pages, nil
}

// StringSource serves fixed page text, for tests and piped input.
type StringSource []string

func (s StringSource) Pages(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s, nil
}
