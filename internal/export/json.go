package export

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"menuscope/internal/nutrition"
)

const jsonIndent = "    "

// WriteJSON writes doc with a four-space indent and sorted object keys.
// Non-ASCII text and HTML characters are written as-is.
func WriteJSON(w io.Writer, doc any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", jsonIndent)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

// DishReport is one dish in a nutrition report.
type DishReport struct {
	Position    int                 `json:"position"`
	Name        string              `json:"name"`
	Description string              `json:"description"`
	ImageURL    string              `json:"image_url"`
	Estimators  []string            `json:"estimators"`
	Nutrition   nutrition.Aggregate `json:"nutrition"`
}

// NutritionReport is the document written to <name>.nutrition.json.
type NutritionReport struct {
	Restaurant  string       `json:"restaurant"`
	GeneratedAt time.Time    `json:"generated_at"`
	Dishes      []DishReport `json:"dishes"`
	Skipped     int          `json:"skipped"`
	Failed      int          `json:"failed"`
}

// WriteNutritionReport writes report in the same layout as WriteJSON.
func WriteNutritionReport(w io.Writer, report NutritionReport) error {
	if report.Dishes == nil {
		report.Dishes = []DishReport{}
	}
	return WriteJSON(w, report)
}
