package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"menuscope/internal/harvest"
	"menuscope/internal/logging"
	"menuscope/internal/services"
	"menuscope/internal/textutil"
)

type batchFunc func(r *harvest.Runner, ctx context.Context) (harvest.Summary, error)

func newHarvestCommands(ctx *commandContext) []*cobra.Command {
	return []*cobra.Command{
		newBatchCommand(ctx, "run", "Extract and flatten every saved page", (*harvest.Runner).Run),
		newBatchCommand(ctx, "extract", "Write the embedded catalog of every saved page as JSON", (*harvest.Runner).Extract),
		newBatchCommand(ctx, "flatten", "Write an item CSV for every extracted catalog", (*harvest.Runner).Flatten),
	}
}

func newBatchCommand(ctx *commandContext, use, short string, run batchFunc) *cobra.Command {
	var sqlitePath string
	var workers int

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
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

			if workers <= 0 {
				workers = cfg.Extract.Workers
			}
			runner := &harvest.Runner{
				HTMLDir: cfg.Paths.HTMLDir,
				JSONDir: cfg.Paths.JSONDir,
				CSVDir:  cfg.Paths.CSVDir,
				Workers: workers,
				SQLite:  db,
				Logger:  logger,
			}
			summary, err := run(runner, cmd.Context())
			if err != nil {
				return err
			}

			if err := emit(ctx, cmd, summary, renderSummary); err != nil {
				return err
			}
			if failed := summary.Failed(); failed > 0 {
				return fmt.Errorf("%d of %d files failed", failed, len(summary.Files))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&sqlitePath, "sqlite", "", "Also write results to this SQLite database (defaults to paths.sqlite_path)")
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "Files processed concurrently (defaults to extract.workers)")
	return cmd
}

func renderSummary(cmd *cobra.Command, summary harvest.Summary) {
	out := cmd.OutOrStdout()
	if len(summary.Files) == 0 {
		fmt.Fprintln(out, "No input files found")
		return
	}
	rows := make([][]string, 0, len(summary.Files))
	for _, f := range summary.Files {
		detail := f.CSVPath
		if detail == "" {
			detail = f.JSONPath
		}
		if f.Kind != services.KindOK {
			detail = f.Error
		}
		rows = append(rows, []string{
			textutil.DisplayName(f.Name),
			f.Restaurant,
			string(f.Kind),
			strconv.Itoa(f.Records),
			detail,
		})
	}
	fmt.Fprintln(out, renderTable(out,
		[]string{"Restaurant", "ID", "Result", "Items", "Output / Error"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
	))
	fmt.Fprintf(out, "%s: %d files, %d ok, %d failed, %d items in %s\n",
		summary.Stage,
		len(summary.Files),
		summary.Succeeded(),
		summary.Failed(),
		summary.Records(),
		summary.Elapsed.Round(time.Millisecond),
	)
}
