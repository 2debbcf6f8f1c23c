package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"menuscope/internal/config"
	"menuscope/internal/estimators"
	"menuscope/internal/imageprep"
	"menuscope/internal/nutrition"
)

type estimatorAnswer struct {
	Estimator string                  `json:"estimator"`
	Result    nutrition.PartialResult `json:"result"`
}

type estimateView struct {
	Description string              `json:"description"`
	ImageURL    string              `json:"image_url"`
	Answers     []estimatorAnswer   `json:"answers"`
	Nutrition   nutrition.Aggregate `json:"nutrition"`
}

func newEstimateCommand(ctx *commandContext) *cobra.Command {
	var imageRef string
	var description string

	cmd := &cobra.Command{
		Use:   "estimate",
		Short: "Estimate the nutrition of one dish photo",
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

			list, err := estimators.FromConfig(cfg, nil)
			if err != nil {
				return err
			}
			query := nutrition.Query{Description: strings.TrimSpace(description), ImageURL: strings.TrimSpace(imageRef)}
			results, err := newFanOut(cfg, logger).Estimate(cmd.Context(), query, list)
			if err != nil {
				return err
			}
			aggregate, err := nutrition.Merge(results)
			if err != nil {
				return err
			}

			view := estimateView{Description: query.Description, ImageURL: query.ImageURL, Nutrition: aggregate}
			for i, result := range results {
				view.Answers = append(view.Answers, estimatorAnswer{Estimator: list[i].Name(), Result: result})
			}
			return emit(ctx, cmd, view, renderEstimate)
		},
	}

	cmd.Flags().StringVarP(&imageRef, "image", "i", "", "Dish photo URL or local path")
	cmd.Flags().StringVarP(&description, "description", "d", "", "Dish name and menu description")
	_ = cmd.MarkFlagRequired("image")
	return cmd
}

func newFanOut(cfg *config.Config, logger *slog.Logger) nutrition.FanOut {
	preparer := imageprep.New(&http.Client{Timeout: time.Duration(cfg.Image.TimeoutSeconds) * time.Second})
	preparer.UserAgent = cfg.Fetch.UserAgent
	preparer.MaxWidth = cfg.Image.MaxWidth
	preparer.MaxHeight = cfg.Image.MaxHeight
	preparer.Quality = cfg.Image.Quality
	return nutrition.FanOut{
		Images:      preparer,
		Timeout:     time.Duration(cfg.Estimators.TimeoutSeconds) * time.Second,
		Concurrency: cfg.Estimators.Concurrency,
		Logger:      logger,
	}
}

func renderEstimate(cmd *cobra.Command, view estimateView) {
	out := cmd.OutOrStdout()
	rows := make([][]string, 0, len(view.Answers)+1)
	for _, answer := range view.Answers {
		r := answer.Result
		row := []string{answer.Estimator, optional(r.Calories), "-", "-", "-"}
		if m := r.Macronutrients; m != nil {
			row[2], row[3], row[4] = optional(m.Protein), optional(m.Carbohydrates), optional(m.Fat)
		}
		rows = append(rows, row)
	}
	agg := view.Nutrition
	rows = append(rows, []string{
		"consensus",
		number(agg.Calories),
		number(agg.Macronutrients.Protein),
		number(agg.Macronutrients.Carbohydrates),
		number(agg.Macronutrients.Fat),
	})
	fmt.Fprintln(out, renderTable(out,
		[]string{"Estimator", "Calories", "Protein (g)", "Carbs (g)", "Fat (g)"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight},
	))
	fmt.Fprintf(out, "Vitamins: %s\n", listOrNone(agg.Micronutrients.Vitamins))
	fmt.Fprintf(out, "Minerals: %s\n", listOrNone(agg.Micronutrients.Minerals))
}

func optional(v *float64) string {
	if v == nil {
		return "-"
	}
	return number(*v)
}

func number(v float64) string {
	return fmt.Sprintf("%.1f", v)
}

func listOrNone(values []string) string {
	if len(values) == 0 {
		return "none"
	}
	return strings.Join(values, ", ")
}
