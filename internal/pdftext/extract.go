// Package pdftext reads the embedded text layer of PDF documents.
//
// Scanned, image-only PDFs carry no text layer and yield no pages.
package pdftext

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"

	"pdfpod/internal/logging"
	"pdfpod/internal/services"
)

// Extractor pulls page text out of PDF files.
type Extractor struct {
	logger *slog.Logger
}

// NewExtractor returns an Extractor.
func NewExtractor(logger *slog.Logger) *Extractor {
	return &Extractor{logger: logging.NewComponentLogger(logger, "pdftext")}
}

// Extract returns the trimmed text of each non-blank page, in page order.
func (e *Extractor) Extract(ctx context.Context, path string) (pages []string, err error) {
	if _, statErr := os.Stat(path); statErr != nil {
		if errors.Is(statErr, fs.ErrNotExist) {
			return nil, services.Wrap(services.ErrNotFound, "extract", "open", "pdf not found", statErr)
		}
		return nil, services.Wrap(services.ErrValidation, "extract", "open", "pdf not readable", statErr)
	}

	// The parser panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = services.Wrap(services.ErrValidation, "extract", "parse", "malformed pdf", fmt.Errorf("%v", r))
		}
	}()

	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "extract", "open", "not a readable pdf", err)
	}
	defer func() { _ = f.Close() }()

	total := reader.NumPage()
	fonts := make(map[string]*pdf.Font)
	blank := 0
	for i := 1; i <= total; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			blank++
			continue
		}
		for _, name := range page.Fonts() {
			if _, ok := fonts[name]; !ok {
				font := page.Font(name)
				fonts[name] = &font
			}
		}
		text, err := page.GetPlainText(fonts)
		if err != nil {
			return nil, services.Wrap(services.ErrValidation, "extract", "read page", fmt.Sprintf("page %d", i), err)
		}
		if trimmed := strings.TrimSpace(text); trimmed != "" {
			pages = append(pages, trimmed)
		} else {
			blank++
		}
	}

	e.logger.Info("pdf text extracted",
		logging.Int("pages", total),
		logging.Int("blank_pages", blank),
		logging.Int("characters", len(Join(pages))),
		logging.String(logging.FieldEventType, "pdf_extracted"),
	)
	return pages, nil
}

// Join concatenates page texts into one document.
func Join(pages []string) string {
	return strings.Join(pages, "\n")
}
