package harvest

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"menuscope/internal/export"
	"menuscope/internal/fileutil"
	"menuscope/internal/logging"
	"menuscope/internal/menu"
	"menuscope/internal/nutrition"
	"menuscope/internal/services"
)

// NutritionSuffix names per-restaurant nutrition reports.
const NutritionSuffix = ".nutrition.json"

// NutritionRunner estimates every pictured dish of a flattened menu.
type NutritionRunner struct {
	FanOut     nutrition.FanOut
	Estimators []nutrition.Estimator
	OutputDir  string
	// Limit caps the dishes estimated per restaurant; 0 means all.
	Limit  int
	SQLite *export.SQLite
	Logger *slog.Logger
}

// RunCatalog flattens the catalog JSON at path and estimates its dishes.
func (n *NutritionRunner) RunCatalog(ctx context.Context, path string) (export.NutritionReport, error) {
	doc, err := readDocument(path)
	if err != nil {
		return export.NutritionReport{}, err
	}
	records, err := menu.Flatten(doc)
	if err != nil {
		return export.NutritionReport{}, err
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return n.Run(ctx, name, records)
}

// Run estimates each record with an image, one dish at a time, and writes
// <OutputDir>/<name>.nutrition.json. A dish whose image cannot be prepared is
// logged and left out; it never stops the others.
func (n *NutritionRunner) Run(ctx context.Context, name string, records []menu.ItemRecord) (export.NutritionReport, error) {
	report := export.NutritionReport{Restaurant: name, GeneratedAt: time.Now().UTC(), Dishes: []export.DishReport{}}
	if len(n.Estimators) == 0 {
		return report, services.Wrap(services.ErrConfiguration, StageNutrition, "run", "no estimators configured", nil)
	}
	if _, ok := services.RunIDFromContext(ctx); !ok {
		ctx = services.WithRunID(ctx, uuid.NewString())
	}
	ctx = services.WithStage(services.WithSubject(ctx, name), StageNutrition)
	logger := logging.WithContext(ctx, logging.NewComponentLogger(n.Logger, "nutrition"))

	fanOut := n.FanOut
	if fanOut.Logger == nil {
		fanOut.Logger = n.Logger
	}

	for i, record := range records {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if !record.HasImage() {
			report.Skipped++
			continue
		}
		if n.Limit > 0 && len(report.Dishes)+report.Failed >= n.Limit {
			break
		}
		dish, err := n.estimateDish(ctx, fanOut, i+1, record)
		if err != nil {
			report.Failed++
			logging.WarnWithContext(logger, "dish skipped", "dish_failed",
				logging.String("dish", record.Name),
				logging.String("image_url", record.ImageURL),
				logging.ErrorKind(err),
				logging.Error(err),
				logging.String(logging.FieldImpact, "dish missing from nutrition report"),
			)
			continue
		}
		report.Dishes = append(report.Dishes, dish)
	}

	path := filepath.Join(n.OutputDir, name+NutritionSuffix)
	err := fileutil.WriteAtomic(path, func(w io.Writer) error {
		return export.WriteNutritionReport(w, report)
	})
	if err != nil {
		return report, services.Wrap(services.ErrTransient, StageNutrition, "write report", path, err)
	}
	if n.SQLite != nil {
		if err := n.SQLite.ReplaceNutrition(ctx, name, report.Dishes); err != nil {
			return report, services.Wrap(services.ErrTransient, StageNutrition, "write sqlite", n.SQLite.Path(), err)
		}
	}

	logger.Info("nutrition report written",
		logging.String(logging.FieldEventType, "nutrition_written"),
		logging.Int("dishes", len(report.Dishes)),
		logging.Int("skipped", report.Skipped),
		logging.Int("failed", report.Failed),
		logging.String("report_path", path),
	)
	return report, nil
}

func (n *NutritionRunner) estimateDish(ctx context.Context, fanOut nutrition.FanOut, position int, record menu.ItemRecord) (export.DishReport, error) {
	query := nutrition.Query{Description: DishDescription(record), ImageURL: record.ImageURL}
	results, err := fanOut.Estimate(services.WithSubject(ctx, record.Name), query, n.Estimators)
	if err != nil {
		return export.DishReport{}, err
	}
	aggregate, err := nutrition.Merge(results)
	if err != nil {
		return export.DishReport{}, err
	}
	answered := make([]string, 0, len(results))
	for i, result := range results {
		if !result.IsEmpty() {
			answered = append(answered, n.Estimators[i].Name())
		}
	}
	if len(answered) == 0 {
		logging.WarnWithContext(logging.WithContext(ctx, logging.NewComponentLogger(n.Logger, "nutrition")),
			"no estimator answered", "dish_unanswered",
			logging.String("dish", record.Name),
			logging.String(logging.FieldImpact, "dish reported with zero estimates"),
			logging.String(logging.FieldErrorHint, "check provider keys and earlier estimator warnings"),
		)
	}
	return export.DishReport{
		Position:    position,
		Name:        record.Name,
		Description: textOrEmpty(record.Description),
		ImageURL:    record.ImageURL,
		Estimators:  answered,
		Nutrition:   aggregate,
	}, nil
}

// DishDescription is the text sent to the estimators for record: the name,
// followed by the menu description when one exists.
func DishDescription(record menu.ItemRecord) string {
	name := strings.TrimSpace(textOrEmpty(record.Name))
	desc := strings.TrimSpace(textOrEmpty(record.Description))
	switch {
	case name == "":
		return desc
	case desc == "":
		return name
	default:
		return name + ". " + desc
	}
}

func textOrEmpty(value string) string {
	if value == menu.NotAvailable {
		return ""
	}
	return value
}
