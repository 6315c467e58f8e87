package pipeline

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"shipgraph/backend/internal/artifacts"
	"shipgraph/backend/internal/constants"
	"shipgraph/backend/internal/graph"
	"shipgraph/backend/internal/metrics"
	"shipgraph/backend/internal/survey"
	apperrors "shipgraph/backend/pkg/errors"
	"shipgraph/backend/pkg/logger"
)

// Extractor reads the raw tables of one PDF
type Extractor interface {
	Extract(ctx context.Context, path string) ([]survey.RawTable, error)
}

// Structurer turns one raw table into a fragment
type Structurer interface {
	Structure(ctx context.Context, table survey.RawTable) (*survey.Fragment, error)
}

// Populator writes one fragment to the graph
type Populator interface {
	Populate(ctx context.Context, f *survey.Fragment) (*graph.PopulateResult, error)
}

// Options configures an Orchestrator
type Options struct {
	// ChunkSize is the number of tables visited per batch
	ChunkSize int
	// ArtifactDir is where run directories are created; empty disables artifacts
	ArtifactDir string
	// ExportWorkbook also writes the structured fragments as a spreadsheet
	ExportWorkbook bool
}

// DocumentReport is the outcome for one PDF
type DocumentReport struct {
	Path      string                  `json:"path"`
	Tables    int                     `json:"tables"`
	Fragments int                     `json:"fragments"`
	Populated []*graph.PopulateResult `json:"populated"`
	Error     string                  `json:"error,omitempty"`
}

// Report is the outcome of one run. Fragments holds every fragment produced,
// across all PDFs, in production order.
type Report struct {
	RunID          string             `json:"run_id"`
	ArtifactDir    string             `json:"artifact_dir,omitempty"`
	StructuredPath string             `json:"structured_path,omitempty"`
	WorkbookPath   string             `json:"workbook_path,omitempty"`
	Documents      []*DocumentReport  `json:"documents"`
	Fragments      []*survey.Fragment `json:"fragments"`
}

// Ships returns the distinct ship names populated during the run
func (r *Report) Ships() []string {
	seen := make(map[string]bool)
	var ships []string
	for _, doc := range r.Documents {
		for _, res := range doc.Populated {
			if !seen[res.Ship] {
				seen[res.Ship] = true
				ships = append(ships, res.Ship)
			}
		}
	}
	return ships
}

// Orchestrator drives PDFs through extraction, structuring and population,
// one PDF and one table at a time
type Orchestrator struct {
	extractor  Extractor
	structurer Structurer
	populator  Populator
	opts       Options
	logger     *zap.Logger
}

// NewOrchestrator creates an orchestrator
func NewOrchestrator(extractor Extractor, structurer Structurer, populator Populator, opts Options) *Orchestrator {
	if opts.ChunkSize < 1 {
		opts.ChunkSize = constants.DefaultChunkSize
	}
	return &Orchestrator{
		extractor:  extractor,
		structurer: structurer,
		populator:  populator,
		opts:       opts,
		logger:     logger.Get(),
	}
}

// Run processes paths in order. A PDF that cannot be read is recorded in the
// report and skipped. Any other failure stops the run; the report is still
// returned and the structured artifact holds what was produced so far.
func (o *Orchestrator) Run(ctx context.Context, paths []string) (*Report, error) {
	report := &Report{
		RunID:     uuid.New().String(),
		Documents: make([]*DocumentReport, 0, len(paths)),
		Fragments: make([]*survey.Fragment, 0),
	}
	log := o.logger.With(zap.String("run_id", report.RunID))

	var writer *artifacts.Writer
	if o.opts.ArtifactDir != "" {
		writer = artifacts.NewWriter(o.opts.ArtifactDir, report.RunID)
		report.ArtifactDir = writer.Dir()
	}

	log.Info("Ingestion run started", zap.Int("documents", len(paths)))

	runErr := o.run(ctx, log, writer, paths, report)

	if writer != nil {
		if err := o.writeStructured(writer, report); err != nil && runErr == nil {
			runErr = err
		}
	}

	if runErr != nil {
		log.Error("Ingestion run aborted",
			zap.Int("fragments", len(report.Fragments)),
			zap.Error(runErr),
		)
		return report, runErr
	}

	log.Info("Ingestion run completed",
		zap.Int("documents", len(report.Documents)),
		zap.Int("fragments", len(report.Fragments)),
		zap.Strings("ships", report.Ships()),
	)
	return report, nil
}

func (o *Orchestrator) run(ctx context.Context, log *zap.Logger, writer *artifacts.Writer, paths []string, report *Report) error {
	for i, path := range paths {
		if err := ctx.Err(); err != nil {
			return apperrors.NewContextCancelled("ingestion run", err)
		}

		doc := &DocumentReport{Path: path, Populated: make([]*graph.PopulateResult, 0)}
		report.Documents = append(report.Documents, doc)

		if err := o.processDocument(ctx, log, writer, i+1, doc, report); err != nil {
			doc.Error = err.Error()
			if apperrors.IsFatalForRun(err) {
				metrics.DocumentsProcessed.WithLabelValues(metrics.StatusError).Inc()
				return err
			}
			metrics.DocumentsProcessed.WithLabelValues(metrics.StatusRejected).Inc()
			log.Warn("Document skipped", zap.String("path", path), zap.Error(err))
			continue
		}
		metrics.DocumentsProcessed.WithLabelValues(metrics.StatusOK).Inc()
	}
	return nil
}

func (o *Orchestrator) processDocument(ctx context.Context, log *zap.Logger, writer *artifacts.Writer, index int, doc *DocumentReport, report *Report) error {
	tables, err := o.extractor.Extract(ctx, doc.Path)
	if err != nil {
		return err
	}
	doc.Tables = len(tables)

	if writer != nil {
		if _, err := writer.WriteRawTables(index, doc.Path, tables); err != nil {
			return fmt.Errorf("raw table artifact: %w", err)
		}
	}

	produced := make([]*survey.Fragment, 0, len(tables))
	for start := 0; start < len(tables); start += o.opts.ChunkSize {
		chunk := tables[start:min(start+o.opts.ChunkSize, len(tables))]
		log.Debug("Structuring chunk",
			zap.String("path", doc.Path),
			zap.Int("offset", start),
			zap.Int("tables", len(chunk)),
		)

		for _, table := range chunk {
			fragment, err := o.structurer.Structure(ctx, table)
			if err != nil {
				return err
			}
			produced = append(produced, fragment)
			report.Fragments = append(report.Fragments, fragment)
			doc.Fragments++
		}
	}

	for _, fragment := range produced {
		result, err := o.populator.Populate(ctx, fragment)
		if err != nil {
			if apperrors.IsErrorType(err, apperrors.ErrorTypePopulation) {
				metrics.FragmentsPopulated.WithLabelValues(metrics.StatusRejected).Inc()
			} else {
				metrics.FragmentsPopulated.WithLabelValues(metrics.StatusError).Inc()
			}
			return err
		}
		metrics.FragmentsPopulated.WithLabelValues(metrics.StatusOK).Inc()
		metrics.QuestionsCreated.Add(float64(result.Questions))
		doc.Populated = append(doc.Populated, result)
	}

	log.Info("Document processed",
		zap.String("path", doc.Path),
		zap.Int("tables", doc.Tables),
		zap.Int("fragments", doc.Fragments),
	)
	return nil
}

func (o *Orchestrator) writeStructured(writer *artifacts.Writer, report *Report) error {
	path, err := writer.WriteStructured(report.Fragments)
	if err != nil {
		return fmt.Errorf("structured artifact: %w", err)
	}
	report.StructuredPath = path

	if o.opts.ExportWorkbook {
		path, err := writer.WriteWorkbook(report.Fragments)
		if err != nil {
			return fmt.Errorf("workbook artifact: %w", err)
		}
		report.WorkbookPath = path
	}
	return nil
}
