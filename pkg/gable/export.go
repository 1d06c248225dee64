package gable

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/ukaji3/gable-go/internal/logging"
	"github.com/ukaji3/gable-go/pkg/gable/models"
	"github.com/ukaji3/gable-go/pkg/gable/output"
	"github.com/ukaji3/gable-go/pkg/gable/protobuf"
	"github.com/ukaji3/gable-go/pkg/gable/sheet"
)

// DefaultParallelism bounds concurrent export jobs when none is set.
const DefaultParallelism = 4

// Exporter writes the tables of a workspace for build targets.
type Exporter struct {
	// Parallelism bounds the number of concurrent (table, format) jobs.
	Parallelism int
}

// Report summarizes one export run.
type Report struct {
	RunID string
	// Written lists the files written, in completion order.
	Written []string
	// Skipped counts (table, format) pairs with nothing to export.
	Skipped int
	// Warnings holds records dropped under the SkipRow policy.
	Warnings []error
	// Failed holds one *ExportError per failed (table, format) pair.
	Failed []error

	mu sync.Mutex
}

func (r *Report) written(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Written = append(r.Written, path)
}

func (r *Report) skipped() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Skipped++
}

func (r *Report) warn(errs []error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Warnings = append(r.Warnings, errs...)
}

func (r *Report) fail(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Failed = append(r.Failed, err)
}

// Err summarizes the failures of the run, or returns nil.
func (r *Report) Err() error {
	if len(r.Failed) == 0 {
		return nil
	}
	return fmt.Errorf("%d export job(s) failed: %w", len(r.Failed), errors.Join(r.Failed...))
}

// job is one (table, format) pair.
type job struct {
	sheet  *sheet.Sheet
	format Format
	proj   *projection
}

// projection holds the records of one sheet for one target. The format
// jobs of the sheet share it, so each record is projected (and each
// dropped record reported) once.
type projection struct {
	once    sync.Once
	records []sheet.Record
	err     error
}

func (p *projection) get(s *sheet.Sheet, lk *sheet.Lookup, target BuildTarget, logger *slog.Logger, report *Report) ([]sheet.Record, error) {
	p.once.Do(func() {
		var skipped []error
		p.records, skipped, p.err = s.Records(target.Keyword, lk, target.Policy)
		for _, w := range skipped {
			logger.Warn("record skipped", "table", s.Link, "error", w)
		}
		report.warn(skipped)
	})
	return p.records, p.err
}

// Export writes every table of ws in every format of target. A failing
// (table, format) pair is logged and recorded in the report; other jobs
// keep running. Cancelling ctx stops scheduling new jobs.
func (e *Exporter) Export(ctx context.Context, ws *Workspace, target BuildTarget) (*Report, error) {
	report := &Report{RunID: uuid.New().String()}
	logger := logging.WithFields(ctx, "run_id", report.RunID, "target", target.DisplayName)
	ctx = logging.NewContext(ctx, logger)
	logger.Info("export started", "tables", len(ws.Sheets), "keyword", target.Keyword)

	if ctx.Err() == nil && target.Wants(FormatProtobuf) {
		e.writeVectorSchemas(ctx, ws, target, report)
	}

	parallelism := e.Parallelism
	if parallelism <= 0 {
		parallelism = DefaultParallelism
	}
	g := new(errgroup.Group)
	g.SetLimit(parallelism)

	for _, s := range e.exportable(ctx, ws, target, report) {
		proj := new(projection)
		for _, f := range target.EnabledFormats() {
			if ctx.Err() != nil {
				break
			}
			j := job{sheet: s, format: f, proj: proj}
			g.Go(func() error {
				e.run(ctx, j, ws.Lookup, target, report)
				return nil
			})
		}
	}
	_ = g.Wait()

	logger.Info("export finished",
		"written", len(report.Written),
		"skipped", report.Skipped,
		"warnings", len(report.Warnings),
		"failed", len(report.Failed))
	if err := ctx.Err(); err != nil {
		return report, err
	}
	return report, report.Err()
}

// exportable returns the sheets whose output names are unique within the
// target. Sheets sharing a name (compared case-insensitively) or taking the
// name of a shared vector schema would overwrite each other; they are
// recorded as failures and not exported.
func (e *Exporter) exportable(ctx context.Context, ws *Workspace, target BuildTarget, report *Report) []*sheet.Sheet {
	logger := logging.FromContext(ctx)

	reserved := make(map[string]bool)
	if target.Wants(FormatProtobuf) {
		for _, kind := range referencedVectors(ws, target) {
			reserved[strings.ToLower(vectorSchemaName(kind))] = true
		}
	}
	byName := make(map[string][]*sheet.Sheet)
	for _, s := range ws.Sheets {
		key := strings.ToLower(s.Name)
		byName[key] = append(byName[key], s)
	}

	var out []*sheet.Sheet
	for _, s := range ws.Sheets {
		key := strings.ToLower(s.Name)
		others := byName[key]
		if len(others) == 1 && !reserved[key] {
			out = append(out, s)
			continue
		}
		links := make([]string, 0, len(others))
		for _, o := range others {
			links = append(links, o.Link)
		}
		err := fmt.Errorf("%w: %q is the output name of %s", ErrOutputCollision, s.Name, strings.Join(links, ", "))
		if reserved[key] && len(others) == 1 {
			err = fmt.Errorf("%w: %q is the name of a shared vector schema", ErrOutputCollision, s.Name)
		}
		logger.Error("export failed", "table", s.Link, "error", err)
		report.fail(NewExportError(s.Link, "", "", err))
	}
	return out
}

func referencedVectors(ws *Workspace, target BuildTarget) []models.Kind {
	var all []models.FieldInfo
	for _, s := range ws.Sheets {
		fields, err := s.Fields(target.Keyword)
		if err != nil {
			continue
		}
		all = append(all, fields...)
	}
	return protobuf.ReferencedVectors(all)
}

func vectorSchemaName(kind models.Kind) string {
	return fmt.Sprintf("Vector%d", kind.Arity())
}

// writeVectorSchemas writes each shared VectorN.proto once per target.
func (e *Exporter) writeVectorSchemas(ctx context.Context, ws *Workspace, target BuildTarget, report *Report) {
	logger := logging.FromContext(ctx)
	opts := schemaOptions(target)
	for _, kind := range referencedVectors(ws, target) {
		name := vectorSchemaName(kind)
		path := filepath.Join(target.ProtoDir(), name+".proto")
		text, err := protobuf.VectorSchema(opts, kind)
		if err == nil {
			err = output.WriteFile(path, []byte(text))
		}
		if err != nil {
			exportErr := NewExportError(name, FormatProtobuf, path, err)
			logger.Error("export failed", "table", name, "path", path, "error", err)
			report.fail(exportErr)
			continue
		}
		logger.Info("export successful", "table", name, "path", path)
		report.written(path)
	}
}

func schemaOptions(target BuildTarget) protobuf.SchemaOptions {
	return protobuf.SchemaOptions{Package: target.ProtoPackage, Proto2: target.Proto2}
}

func (e *Exporter) run(ctx context.Context, j job, lk *sheet.Lookup, target BuildTarget, report *Report) {
	logger := logging.FromContext(ctx).With("table", j.sheet.Link, "format", string(j.format))

	files, err := render(j, lk, target, logging.FromContext(ctx), report)
	if err != nil {
		if isSkip(err) {
			logger.Debug("export skipped", "reason", err)
			report.skipped()
			return
		}
		logger.Error("export failed", "error", err)
		report.fail(NewExportError(j.sheet.Link, j.format, "", err))
		return
	}

	for _, file := range files {
		if err := output.WriteFile(file.path, file.data); err != nil {
			logger.Error("export failed", "path", file.path, "error", err)
			report.fail(NewExportError(j.sheet.Link, j.format, file.path, err))
			return
		}
		logger.Info("export successful", "path", file.path)
		report.written(file.path)
	}
}

// isSkip reports whether err means "nothing to export" rather than failure.
func isSkip(err error) bool {
	return errors.Is(err, ErrNoFields) ||
		errors.Is(err, ErrEnumNotExportable) ||
		errors.Is(err, output.ErrNoRecords)
}

type file struct {
	path string
	data []byte
}

// render produces the files of one job without touching the filesystem.
func render(j job, lk *sheet.Lookup, target BuildTarget, logger *slog.Logger, report *Report) ([]file, error) {
	s := j.sheet
	dataPath := filepath.Join(target.TargetDir, s.Name+j.format.Ext())
	protoPath := filepath.Join(target.ProtoDir(), s.Name+".proto")

	if s.Shape == models.EnumLookup {
		if j.format != FormatProtobuf {
			return nil, ErrEnumNotExportable
		}
		text, err := protobuf.EnumSchema(schemaOptions(target), s.Name, s.EnumEntries())
		if err != nil {
			return nil, err
		}
		return []file{{protoPath, []byte(text)}}, nil
	}

	records, err := j.proj.get(s, lk, target, logger, report)
	if err != nil {
		return nil, err
	}

	var data []byte
	switch j.format {
	case FormatJSON:
		data, err = output.JSON(s.Shape, records)
	case FormatCSV:
		data, err = output.CSV(s.Shape, records)
	case FormatXML:
		data, err = output.XML(s.Name, s.Shape, records)
	case FormatYAML:
		data, err = output.YAML(s.Shape, records)
	case FormatProtobuf:
		return renderProtobuf(s, records, lk, target, dataPath, protoPath)
	default:
		err = fmt.Errorf("unknown format %q", j.format)
	}
	if err != nil {
		return nil, err
	}
	return []file{{dataPath, data}}, nil
}

func renderProtobuf(s *sheet.Sheet, records []sheet.Record, lk *sheet.Lookup, target BuildTarget, dataPath, protoPath string) ([]file, error) {
	fields, err := s.Fields(target.Keyword)
	if err != nil {
		return nil, err
	}
	if s.Shape != models.KeyValue && len(records) == 0 {
		return nil, output.ErrNoRecords
	}
	text, err := protobuf.Schema(schemaOptions(target), s.Name, fields, lk)
	if err != nil {
		return nil, err
	}
	data, err := protobuf.Encode(s.Shape, fields, records)
	if err != nil {
		return nil, err
	}
	return []file{{protoPath, []byte(text)}, {dataPath, data}}, nil
}
