package artifacts

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"shipgraph/backend/internal/constants"
	"shipgraph/backend/internal/survey"
	"shipgraph/backend/pkg/logger"
)

// QuestionsSheet is the sheet name of the workbook export
const QuestionsSheet = "Questions"

var workbookHeader = []any{"Document Name", "Document Version", "Category", "Question Number", "Question", "Answer"}

// Writer stores the audit files of one ingestion run under <base>/<run-id>
type Writer struct {
	dir    string
	logger *zap.Logger
}

// NewWriter creates a writer for runID below baseDir. Nothing is created on
// disk until the first write.
func NewWriter(baseDir, runID string) *Writer {
	return &Writer{
		dir:    filepath.Join(baseDir, runID),
		logger: logger.Get(),
	}
}

// Dir returns the run directory
func (w *Writer) Dir() string {
	return w.dir
}

// WriteRawTables stores the extracted tables of the index-th PDF of the run
func (w *Writer) WriteRawTables(index int, pdfPath string, tables []survey.RawTable) (string, error) {
	if tables == nil {
		tables = []survey.RawTable{}
	}
	base := strings.TrimSuffix(filepath.Base(pdfPath), filepath.Ext(pdfPath))
	name := fmt.Sprintf("%02d_%s.json", index, base)
	return w.writeJSON(filepath.Join(constants.RawTablesDir, name), tables)
}

// WriteStructured stores every fragment of the run in production order
func (w *Writer) WriteStructured(fragments []*survey.Fragment) (string, error) {
	if fragments == nil {
		fragments = []*survey.Fragment{}
	}
	return w.writeJSON(constants.StructuredArtifact, fragments)
}

func (w *Writer) writeJSON(rel string, v any) (string, error) {
	path := filepath.Join(w.dir, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create artifact directory: %w", err)
	}

	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return "", fmt.Errorf("failed to encode %s: %w", rel, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", rel, err)
	}

	w.logger.Debug("Artifact written", zap.String("path", path), zap.Int("bytes", len(data)))
	return path, nil
}

// WriteWorkbook exports the fragments as a spreadsheet with one row per
// question. Answers use the same string form stored on Question nodes.
func (w *Writer) WriteWorkbook(fragments []*survey.Fragment) (string, error) {
	path := filepath.Join(w.dir, constants.StructuredWorkbook)
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create artifact directory: %w", err)
	}

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			w.logger.Warn("Failed to close workbook", zap.Error(err))
		}
	}()

	if err := f.SetSheetName(f.GetSheetName(0), QuestionsSheet); err != nil {
		return "", fmt.Errorf("failed to name sheet: %w", err)
	}

	header := workbookHeader
	if err := f.SetSheetRow(QuestionsSheet, "A1", &header); err != nil {
		return "", fmt.Errorf("failed to write header: %w", err)
	}

	row := 2
	for _, frag := range fragments {
		for _, cat := range frag.Categories {
			for _, q := range cat.Questions {
				answer, err := q.Answer.Format()
				if err != nil {
					return "", fmt.Errorf("failed to format answer %s: %w", q.Number, err)
				}
				cell, err := excelize.CoordinatesToCellName(1, row)
				if err != nil {
					return "", err
				}
				values := []any{frag.DocumentName, frag.DocumentVersion, cat.Name, q.Number, q.Text, answer}
				if err := f.SetSheetRow(QuestionsSheet, cell, &values); err != nil {
					return "", fmt.Errorf("failed to write row %d: %w", row, err)
				}
				row++
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("failed to save workbook: %w", err)
	}

	w.logger.Debug("Workbook written", zap.String("path", path), zap.Int("rows", row-2))
	return path, nil
}
