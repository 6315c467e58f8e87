package extract

import (
	"context"
	"fmt"

	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"

	"shipgraph/backend/internal/metrics"
	"shipgraph/backend/internal/survey"
	apperrors "shipgraph/backend/pkg/errors"
	"shipgraph/backend/pkg/logger"
)

// PDFExtractor reads tables out of PDF text geometry
type PDFExtractor struct {
	layout Layout
	logger *zap.Logger
}

// NewPDFExtractor creates an extractor using DefaultLayout
func NewPDFExtractor() *PDFExtractor {
	return &PDFExtractor{
		layout: DefaultLayout,
		logger: logger.Get(),
	}
}

// Extract returns every table of the PDF at path, ordered by page then by
// position on the page. Pages are numbered from 1 and tables from 1 within a
// page. Any failure is an ErrExtraction for that file.
func (e *PDFExtractor) Extract(ctx context.Context, path string) (tables []survey.RawTable, err error) {
	// the pdf reader panics on some malformed streams
	defer func() {
		if r := recover(); r != nil {
			tables = nil
			err = apperrors.NewExtraction(path, fmt.Errorf("malformed PDF: %v", r))
		}
	}()

	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, apperrors.NewExtraction(path, err)
	}
	defer f.Close()

	tables = make([]survey.RawTable, 0)
	for i := 1; i <= reader.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, apperrors.NewContextCancelled("pdf extraction", err)
		}

		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		rows, err := page.GetTextByRow()
		if err != nil {
			return nil, apperrors.NewExtraction(path, fmt.Errorf("page %d: %w", i, err))
		}

		tables = append(tables, e.layout.Tables(i, toLines(rows))...)
	}

	metrics.TablesExtracted.Add(float64(len(tables)))
	e.logger.Info("Tables extracted",
		zap.String("path", path),
		zap.Int("pages", reader.NumPage()),
		zap.Int("tables", len(tables)),
	)
	return tables, nil
}

// toLines converts reader rows, which run top to bottom, into layout lines
func toLines(rows pdf.Rows) []Line {
	lines := make([]Line, 0, len(rows))
	for _, row := range rows {
		if row == nil {
			continue
		}
		line := Line{Glyphs: make([]Glyph, 0, len(row.Content))}
		for _, t := range row.Content {
			line.Glyphs = append(line.Glyphs, Glyph{X: t.X, W: t.W, FontSize: t.FontSize, Text: t.S})
		}
		lines = append(lines, line)
	}
	return lines
}
