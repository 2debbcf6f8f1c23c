package main

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"menuscope/internal/estimators"
	"menuscope/internal/harvest"
	"menuscope/internal/logging"
	"menuscope/internal/textutil"
)

type nutritionView struct {
	Restaurant string `json:"restaurant"`
	Dishes     int    `json:"dishes"`
	Skipped    int    `json:"skipped"`
	Failed     int    `json:"failed"`
	Report     string `json:"report,omitempty"`
	Error      string `json:"error,omitempty"`
}

func newNutritionCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var sqlitePath string

	cmd := &cobra.Command{
		Use:   "nutrition [restaurant...]",
		Short: "Estimate every pictured dish of the extracted menus",
		Long: "Flatten each extracted catalog in paths.json_dir (or only the named restaurants) and\n" +
			"ask every enabled estimator about each dish photo. Reports are written to paths.nutrition_dir.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, closer, err := ctx.logger(cmd)
			if err != nil {
				return err
			}
			defer closer.Close()

			catalogs, err := selectCatalogs(cfg.Paths.JSONDir, args)
			if err != nil {
				return err
			}
			list, err := estimators.FromConfig(cfg, nil)
			if err != nil {
				return err
			}

			path := cfg.Paths.SQLitePath
			if cmd.Flags().Changed("sqlite") {
				path = sqlitePath
			}
			db, err := openSQLite(cmd.Context(), path)
			if err != nil {
				return err
			}
			if db != nil {
				defer func() {
					if err := db.Close(); err != nil {
						logger.Warn("failed to close sqlite", logging.Error(err))
					}
				}()
			}

			runner := &harvest.NutritionRunner{
				FanOut:     newFanOut(cfg, logger),
				Estimators: list,
				OutputDir:  cfg.Paths.NutritionDir,
				Limit:      limit,
				SQLite:     db,
				Logger:     logger,
			}

			failed := 0
			views := make([]nutritionView, 0, len(catalogs))
			for _, catalog := range catalogs {
				name := textutil.StemName(catalog)
				report, err := runner.RunCatalog(cmd.Context(), catalog)
				view := nutritionView{
					Restaurant: name,
					Dishes:     len(report.Dishes),
					Skipped:    report.Skipped,
					Failed:     report.Failed,
				}
				if err != nil {
					if cmd.Context().Err() != nil {
						return err
					}
					failed++
					view.Error = err.Error()
					logging.WarnWithContext(logger, "nutrition report failed", "nutrition_failed",
						logging.String(logging.FieldSubject, name),
						logging.ErrorKind(err),
						logging.Error(err),
					)
				} else {
					view.Report = filepath.Join(cfg.Paths.NutritionDir, name+harvest.NutritionSuffix)
				}
				views = append(views, view)
			}

			if err := emit(ctx, cmd, views, renderNutrition); err != nil {
				return err
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d reports failed", failed, len(views))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "Estimate at most this many dishes per restaurant (0 for all)")
	cmd.Flags().StringVar(&sqlitePath, "sqlite", "", "Also write reports to this SQLite database (defaults to paths.sqlite_path)")
	return cmd
}

// selectCatalogs returns every catalog in dir, or only those whose file stem
// matches one of names.
func selectCatalogs(dir string, names []string) ([]string, error) {
	all, err := harvest.ListCatalogs(dir)
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		if len(all) == 0 {
			return nil, fmt.Errorf("no catalogs in %s; run 'menuscope extract' first", dir)
		}
		return all, nil
	}
	byName := make(map[string]string, len(all))
	for _, path := range all {
		byName[textutil.StemName(path)] = path
	}
	selected := make([]string, 0, len(names))
	for _, name := range names {
		path, ok := byName[textutil.SanitizeFileName(name)]
		if !ok {
			return nil, fmt.Errorf("no catalog for %q in %s", name, dir)
		}
		selected = append(selected, path)
	}
	return selected, nil
}

func renderNutrition(cmd *cobra.Command, views []nutritionView) {
	out := cmd.OutOrStdout()
	rows := make([][]string, 0, len(views))
	for _, v := range views {
		detail := v.Report
		if v.Error != "" {
			detail = v.Error
		}
		rows = append(rows, []string{
			textutil.DisplayName(v.Restaurant),
			strconv.Itoa(v.Dishes),
			strconv.Itoa(v.Skipped),
			strconv.Itoa(v.Failed),
			detail,
		})
	}
	fmt.Fprintln(out, renderTable(out,
		[]string{"Restaurant", "Dishes", "No Photo", "Failed", "Report / Error"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignLeft},
	))
}
