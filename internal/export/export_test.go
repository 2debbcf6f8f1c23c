package export_test

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"menuscope/internal/export"
	"menuscope/internal/menu"
	"menuscope/internal/nutrition"
)

func sampleRecords() []menu.ItemRecord {
	return []menu.ItemRecord{
		{Name: "Chicken Keema Meal", Price: "349", Description: `Keema with "high protein" roti`, ImageURL: "https://img.example/keema.jpg", State: "in_stock", Rating: `{"value":4.2}`},
		{Name: "Whey Shake", Price: "199", Description: "", ImageURL: menu.NotAvailable, State: "out_of_stock", Rating: menu.NotAvailable},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, sampleRecords()); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	want := strings.Join([]string{
		"Name,Price,Description,Image URL,State,Rating",
		`Chicken Keema Meal,349,"Keema with ""high protein"" roti",https://img.example/keema.jpg,in_stock,"{""value"":4.2}"`,
		"Whey Shake,199,,N/A,out_of_stock,N/A",
		"",
	}, "\n")
	if buf.String() != want {
		t.Fatalf("csv mismatch\n got: %q\nwant: %q", buf.String(), want)
	}
}

func TestWriteCSVEmptyMenuWritesHeaderOnly(t *testing.T) {
	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, nil); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	if buf.String() != "Name,Price,Description,Image URL,State,Rating\n" {
		t.Fatalf("unexpected output %q", buf.String())
	}
}

func TestWriteJSONFormatting(t *testing.T) {
	doc := map[string]any{
		"zeta":  "Café <b>",
		"alpha": map[string]any{"price": json.Number("299.50"), "list": []any{true, nil}},
	}
	var buf bytes.Buffer
	if err := export.WriteJSON(&buf, doc); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	want := "{\n" +
		"    \"alpha\": {\n" +
		"        \"list\": [\n" +
		"            true,\n" +
		"            null\n" +
		"        ],\n" +
		"        \"price\": 299.50\n" +
		"    },\n" +
		"    \"zeta\": \"Café <b>\"\n" +
		"}\n"
	if buf.String() != want {
		t.Fatalf("json mismatch\n got: %s\nwant: %s", buf.String(), want)
	}
}

func TestWriteNutritionReportNeverNullDishes(t *testing.T) {
	var buf bytes.Buffer
	report := export.NutritionReport{Restaurant: "protein-chef", GeneratedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}
	if err := export.WriteNutritionReport(&buf, report); err != nil {
		t.Fatalf("WriteNutritionReport: %v", err)
	}
	if !strings.Contains(buf.String(), `"dishes": []`) {
		t.Fatalf("expected empty dishes list, got %s", buf.String())
	}
}

func TestSQLiteSnapshot(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "menuscope.db")

	store, err := export.OpenSQLite(ctx, path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	if err := store.ReplaceItems(ctx, "protein-chef", sampleRecords()); err != nil {
		t.Fatalf("ReplaceItems: %v", err)
	}
	// a second run replaces rather than duplicates
	if err := store.ReplaceItems(ctx, "protein-chef", sampleRecords()[:1]); err != nil {
		t.Fatalf("ReplaceItems again: %v", err)
	}
	dishes := []export.DishReport{{
		Position:   1,
		Name:       "Chicken Keema Meal",
		Estimators: []string{"anthropic/claude", "openai/gpt-4o-mini"},
		Nutrition: nutrition.Aggregate{
			Calories:       150,
			Macronutrients: nutrition.AggregateMacros{Protein: 20, Carbohydrates: 10, Fat: 5},
			Micronutrients: nutrition.AggregateMicros{Vitamins: []string{"B12"}, Minerals: nil},
		},
	}}
	if err := store.ReplaceNutrition(ctx, "protein-chef", dishes); err != nil {
		t.Fatalf("ReplaceNutrition: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	var items int
	if err := db.QueryRow("SELECT COUNT(1) FROM items WHERE restaurant = ?", "protein-chef").Scan(&items); err != nil {
		t.Fatalf("count items: %v", err)
	}
	if items != 1 {
		t.Fatalf("expected 1 item row, got %d", items)
	}
	var calories float64
	var vitamins, minerals, estimators string
	row := db.QueryRow("SELECT calories, vitamins, minerals, estimators FROM nutrition WHERE position = 1")
	if err := row.Scan(&calories, &vitamins, &minerals, &estimators); err != nil {
		t.Fatalf("scan nutrition: %v", err)
	}
	if calories != 150 || vitamins != `["B12"]` || minerals != "[]" || estimators != `["anthropic/claude","openai/gpt-4o-mini"]` {
		t.Fatalf("unexpected row %v %s %s %s", calories, vitamins, minerals, estimators)
	}
}

func TestSQLiteSchemaMismatch(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "menuscope.db")

	store, err := export.OpenSQLite(ctx, path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	_ = store.Close()

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := db.Exec("UPDATE schema_version SET version = 99"); err != nil {
		t.Fatalf("bump version: %v", err)
	}
	_ = db.Close()

	if _, err := export.OpenSQLite(ctx, path); !errors.Is(err, export.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}
