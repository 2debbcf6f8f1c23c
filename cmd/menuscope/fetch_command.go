package main

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"menuscope/internal/fetch"
	"menuscope/internal/textutil"
)

type fetchView struct {
	Name       string `json:"name"`
	URL        string `json:"url"`
	Status     int    `json:"status"`
	Path       string `json:"path,omitempty"`
	Title      string `json:"title,omitempty"`
	HasPayload bool   `json:"has_payload"`
	Bytes      int    `json:"bytes"`
	ElapsedMS  int64  `json:"elapsed_ms"`
	Error      string `json:"error,omitempty"`
}

func newFetchCommand(ctx *commandContext) *cobra.Command {
	var namesFile string

	cmd := &cobra.Command{
		Use:   "fetch [restaurant...]",
		Short: "Download restaurant order pages",
		Long: "Download the order page of every restaurant slug given as an argument, or of every\n" +
			"slug in the names file when none are given. Pages are saved to paths.html_dir.",
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

			names := args
			if len(names) == 0 {
				path := strings.TrimSpace(namesFile)
				if path == "" {
					path = cfg.Paths.NamesFile
				}
				names, err = fetch.LoadNames(path)
				if err != nil {
					return err
				}
			}
			if len(names) == 0 {
				return fmt.Errorf("no restaurant names to fetch")
			}

			fetcher := &fetch.Fetcher{
				Client:      &http.Client{Timeout: time.Duration(cfg.Fetch.TimeoutSeconds) * time.Second},
				URLTemplate: cfg.Fetch.URLTemplate,
				UserAgent:   cfg.Fetch.UserAgent,
				OutputDir:   cfg.Paths.HTMLDir,
				Concurrency: cfg.Fetch.Concurrency,
				Logger:      logger,
			}
			results := fetcher.FetchAll(cmd.Context(), names)

			failed := 0
			views := make([]fetchView, 0, len(results))
			for _, r := range results {
				view := fetchView{
					Name:       r.Name,
					URL:        r.URL,
					Status:     r.Status,
					Path:       r.Path,
					Title:      r.Title,
					HasPayload: r.HasPayload,
					Bytes:      r.Bytes,
					ElapsedMS:  r.Elapsed.Milliseconds(),
				}
				if !r.OK() {
					failed++
					view.Error = r.Err.Error()
				}
				views = append(views, view)
			}

			if err := emit(ctx, cmd, views, renderFetchResults); err != nil {
				return err
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d pages failed", failed, len(results))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&namesFile, "names", "n", "", "Names file (defaults to paths.names_file)")
	return cmd
}

func renderFetchResults(cmd *cobra.Command, views []fetchView) {
	out := cmd.OutOrStdout()
	rows := make([][]string, 0, len(views))
	for _, v := range views {
		status := "-"
		if v.Status > 0 {
			status = strconv.Itoa(v.Status)
		}
		detail := v.Title
		if v.Error != "" {
			detail = v.Error
		}
		rows = append(rows, []string{
			textutil.DisplayName(v.Name),
			status,
			strconv.Itoa(v.Bytes),
			yesNo(v.HasPayload),
			detail,
		})
	}
	fmt.Fprintln(out, renderTable(out,
		[]string{"Restaurant", "Status", "Bytes", "Catalog", "Title / Error"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignRight, alignLeft, alignLeft},
	))
}
