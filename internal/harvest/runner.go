package harvest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"menuscope/internal/embedded"
	"menuscope/internal/export"
	"menuscope/internal/fileutil"
	"menuscope/internal/logging"
	"menuscope/internal/menu"
	"menuscope/internal/services"
	"menuscope/internal/textutil"
)

// Runner turns saved pages into catalog JSON and item CSV files.
type Runner struct {
	HTMLDir string
	JSONDir string
	CSVDir  string
	Workers int
	// SQLite, when set, receives every flattened menu.
	SQLite *export.SQLite
	Logger *slog.Logger
}

// Run extracts and flattens every *.html page in HTMLDir.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	return r.batch(ctx, StageRun, r.HTMLDir, ".html", func(ctx context.Context, path string) FileOutcome {
		outcome, doc := r.extractFile(ctx, path)
		if outcome.err != nil {
			return outcome
		}
		return r.flattenDocument(ctx, outcome, doc)
	})
}

// Extract writes the catalog JSON of every page without flattening it.
func (r *Runner) Extract(ctx context.Context) (Summary, error) {
	return r.batch(ctx, StageExtract, r.HTMLDir, ".html", func(ctx context.Context, path string) FileOutcome {
		outcome, _ := r.extractFile(ctx, path)
		return outcome
	})
}

// Flatten writes item CSVs for catalog JSON files already in JSONDir.
func (r *Runner) Flatten(ctx context.Context) (Summary, error) {
	return r.batch(ctx, StageFlatten, r.JSONDir, ".json", func(ctx context.Context, path string) FileOutcome {
		outcome := newOutcome(path)
		outcome.JSONPath = path
		doc, err := readDocument(path)
		if err != nil {
			outcome.fail(err)
			r.logFailure(ctx, outcome)
			return outcome
		}
		return r.flattenDocument(ctx, outcome, doc)
	})
}

type fileFunc func(ctx context.Context, path string) FileOutcome

func (r *Runner) batch(ctx context.Context, stage, dir, ext string, process fileFunc) (Summary, error) {
	summary := Summary{RunID: uuid.NewString(), Stage: stage, Started: time.Now()}
	ctx = services.WithRunID(ctx, summary.RunID)
	logger := logging.WithContext(ctx, logging.NewComponentLogger(r.Logger, "harvest"))

	lock, err := acquireDirLock(r.JSONDir)
	if err != nil {
		return summary, err
	}
	defer func() {
		if err := lock.release(); err != nil {
			logger.Warn("failed to release output lock", logging.Error(err))
		}
	}()

	files, err := listFiles(dir, ext)
	if err != nil {
		return summary, err
	}
	if len(files) == 0 {
		logging.WarnWithContext(logger, "no input files", "batch_empty",
			logging.String("input_dir", dir),
			logging.String(logging.FieldImpact, "nothing to do"),
			logging.String(logging.FieldErrorHint, "run 'menuscope fetch' first or check paths in the config"),
		)
	}

	summary.Files = make([]FileOutcome, len(files))
	g, gctx := errgroup.WithContext(ctx)
	if r.Workers > 0 {
		g.SetLimit(r.Workers)
	}
	for i, path := range files {
		g.Go(func() error {
			name := textutil.StemName(path)
			fileCtx := services.WithStage(services.WithSubject(gctx, name), stage)
			summary.Files[i] = process(fileCtx, path)
			return nil
		})
	}
	_ = g.Wait()

	summary.Elapsed = time.Since(summary.Started)
	logger.Info("batch complete",
		logging.String(logging.FieldEventType, "batch_complete"),
		logging.String(logging.FieldStage, stage),
		logging.Int("files", len(summary.Files)),
		logging.Int("succeeded", summary.Succeeded()),
		logging.Int("failed", summary.Failed()),
		logging.Int("records", summary.Records()),
		logging.Duration("elapsed", summary.Elapsed),
	)
	return summary, ctx.Err()
}

func (r *Runner) extractFile(ctx context.Context, path string) (FileOutcome, any) {
	outcome := newOutcome(path)
	data, err := os.ReadFile(path)
	if err != nil {
		outcome.fail(services.Wrap(services.ErrTransient, StageExtract, "read page", path, err))
		r.logFailure(ctx, outcome)
		return outcome, nil
	}

	doc, err := embedded.Extract(string(data))
	if err != nil {
		var decodeErr *embedded.DecodeError
		if errors.As(err, &decodeErr) {
			outcome.Offset = decodeErr.Offset
			outcome.Context = decodeErr.Context
		}
		outcome.fail(err)
		r.logFailure(ctx, outcome)
		return outcome, nil
	}

	outcome.JSONPath = filepath.Join(r.JSONDir, outcome.Name+".json")
	err = fileutil.WriteAtomic(outcome.JSONPath, func(w io.Writer) error {
		return export.WriteJSON(w, doc)
	})
	if err != nil {
		outcome.fail(services.Wrap(services.ErrTransient, StageExtract, "write json", outcome.JSONPath, err))
		r.logFailure(ctx, outcome)
		return outcome, nil
	}
	return outcome, doc
}

func (r *Runner) flattenDocument(ctx context.Context, outcome FileOutcome, doc any) FileOutcome {
	records, err := menu.Flatten(doc)
	if err != nil {
		outcome.fail(err)
		r.logFailure(ctx, outcome)
		return outcome
	}
	outcome.Restaurant, _ = menu.RestaurantID(doc)
	outcome.Records = len(records)

	outcome.CSVPath = filepath.Join(r.CSVDir, outcome.Name+".csv")
	err = fileutil.WriteAtomic(outcome.CSVPath, func(w io.Writer) error {
		return export.WriteCSV(w, records)
	})
	if err != nil {
		outcome.fail(services.Wrap(services.ErrTransient, StageFlatten, "write csv", outcome.CSVPath, err))
		r.logFailure(ctx, outcome)
		return outcome
	}

	if r.SQLite != nil {
		if err := r.SQLite.ReplaceItems(ctx, outcome.Name, records); err != nil {
			outcome.fail(services.Wrap(services.ErrTransient, StageFlatten, "write sqlite", r.SQLite.Path(), err))
			r.logFailure(ctx, outcome)
			return outcome
		}
	}

	logging.WithContext(ctx, logging.NewComponentLogger(r.Logger, "harvest")).Info("menu flattened",
		logging.String(logging.FieldEventType, "menu_flattened"),
		logging.String("restaurant", outcome.Restaurant),
		logging.Int("records", outcome.Records),
		logging.String("csv_path", outcome.CSVPath),
	)
	return outcome
}

func (r *Runner) logFailure(ctx context.Context, outcome FileOutcome) {
	logger := logging.WithContext(ctx, logging.NewComponentLogger(r.Logger, "harvest"))
	attrs := []logging.Attr{
		logging.ErrorKind(outcome.err),
		logging.Error(outcome.err),
		logging.String("source_path", outcome.Source),
	}
	switch outcome.Kind {
	case services.KindNotFound:
		logging.WarnWithContext(logger, "no embedded catalog; page skipped", "payload_missing", append(attrs,
			logging.String(logging.FieldImpact, "no JSON or CSV for this restaurant"),
			logging.String(logging.FieldErrorHint, "re-fetch the page; the site may have served a challenge"),
		)...)
	case services.KindDecode:
		logging.WarnWithContext(logger, "embedded catalog could not be decoded", "decode_failure", append(attrs,
			logging.Int("offset", outcome.Offset),
			logging.String("context", outcome.Context),
			logging.String(logging.FieldImpact, "page skipped"),
		)...)
	case services.KindSchema:
		logging.WarnWithContext(logger, "catalog structure not recognized", "schema_violation", append(attrs,
			logging.String(logging.FieldImpact, "CSV not written"),
			logging.String(logging.FieldErrorHint, "inspect the JSON with 'menuscope query'"),
		)...)
	default:
		logging.ErrorWithContext(logger, "file processing failed", "file_failed", attrs...)
	}
}

func newOutcome(path string) FileOutcome {
	return FileOutcome{
		Name:   textutil.StemName(path),
		Source: path,
		Kind:   services.KindOK,
		Offset: -1,
	}
}

func readDocument(path string) (any, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, StageFlatten, "open json", path, err)
	}
	defer f.Close()
	doc, err := menu.ReadDocument(f)
	if err != nil {
		return nil, services.Wrap(services.ErrDecode, StageFlatten, "read json", path, err)
	}
	return doc, nil
}

// listFiles returns the regular files in dir with extension ext, sorted by
// name. Nutrition reports are never treated as catalogs.
func listFiles(dir, ext string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, services.Wrap(services.ErrConfiguration, "harvest", "list inputs", dir, err)
		}
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}
	var files []string
	for _, entry := range entries {
		name := entry.Name()
		if !entry.Type().IsRegular() || !strings.EqualFold(filepath.Ext(name), ext) {
			continue
		}
		if strings.HasSuffix(name, NutritionSuffix) || strings.HasPrefix(name, ".") {
			continue
		}
		files = append(files, filepath.Join(dir, name))
	}
	sort.Strings(files)
	return files, nil
}

// ListCatalogs returns the catalog JSON files in dir, sorted by name.
func ListCatalogs(dir string) ([]string, error) {
	return listFiles(dir, ".json")
}
