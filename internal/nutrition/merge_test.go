package nutrition_test

import (
	"errors"
	"reflect"
	"testing"

	"menuscope/internal/nutrition"
	"menuscope/internal/services"
)

func TestMergeAveragesCalories(t *testing.T) {
	agg, err := nutrition.Merge([]nutrition.PartialResult{
		{Calories: nutrition.Float(100)},
		{Calories: nutrition.Float(200)},
	})
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if agg.Calories != 150 {
		t.Fatalf("expected 150 calories, got %v", agg.Calories)
	}
}

func TestMergeCountsAbsentAsZero(t *testing.T) {
	agg, err := nutrition.Merge([]nutrition.PartialResult{
		{
			Calories:       nutrition.Float(600),
			Macronutrients: &nutrition.Macronutrients{Protein: nutrition.Float(30), Fat: nutrition.Float(12)},
		},
		{},
		{Macronutrients: &nutrition.Macronutrients{Carbohydrates: nutrition.Float(90)}},
	})
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	want := nutrition.AggregateMacros{Protein: 10, Carbohydrates: 30, Fat: 4}
	if agg.Calories != 200 || agg.Macronutrients != want {
		t.Fatalf("unexpected aggregate %+v", agg)
	}
}

func TestMergeUnionsLists(t *testing.T) {
	agg, err := nutrition.Merge([]nutrition.PartialResult{
		{Micronutrients: &nutrition.Micronutrients{Vitamins: []string{"C", "D"}, Minerals: []string{"Iron"}}},
		{Micronutrients: &nutrition.Micronutrients{Vitamins: []string{"D", "E"}, Minerals: []string{"iron"}}},
	})
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if !reflect.DeepEqual(agg.Micronutrients.Vitamins, []string{"C", "D", "E"}) {
		t.Fatalf("unexpected vitamins %v", agg.Micronutrients.Vitamins)
	}
	// exact-string dedup keeps case variants apart
	if !reflect.DeepEqual(agg.Micronutrients.Minerals, []string{"Iron", "iron"}) {
		t.Fatalf("unexpected minerals %v", agg.Micronutrients.Minerals)
	}
}

func TestMergeAllEmptyPopulatesEverything(t *testing.T) {
	agg, err := nutrition.Merge([]nutrition.PartialResult{{}, {}})
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if agg.Calories != 0 || agg.Micronutrients.Vitamins == nil || agg.Micronutrients.Minerals == nil {
		t.Fatalf("expected zeroed aggregate with empty lists, got %+v", agg)
	}
}

func TestMergeNoResults(t *testing.T) {
	_, err := nutrition.Merge(nil)
	if !errors.Is(err, services.ErrDivisionUndefined) {
		t.Fatalf("expected ErrDivisionUndefined, got %v", err)
	}
}

func TestPartialResultIsEmpty(t *testing.T) {
	cases := map[string]struct {
		result nutrition.PartialResult
		empty  bool
	}{
		"zero":           {nutrition.PartialResult{}, true},
		"empty wrappers": {nutrition.PartialResult{Macronutrients: &nutrition.Macronutrients{}, Micronutrients: &nutrition.Micronutrients{}}, true},
		"calories":       {nutrition.PartialResult{Calories: nutrition.Float(0)}, false},
		"vitamins only":  {nutrition.PartialResult{Micronutrients: &nutrition.Micronutrients{Vitamins: []string{"A"}}}, false},
		"fat only":       {nutrition.PartialResult{Macronutrients: &nutrition.Macronutrients{Fat: nutrition.Float(1)}}, false},
	}
	for name, tc := range cases {
		if got := tc.result.IsEmpty(); got != tc.empty {
			t.Errorf("%s: IsEmpty=%v, want %v", name, got, tc.empty)
		}
	}
}
