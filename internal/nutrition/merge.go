package nutrition

import (
	"sort"

	"menuscope/internal/services"
)

// Merge combines the estimators' answers. Scalars are the mean over all
// results with an absent value counted as zero, so the divisor is always
// len(results). Vitamins and minerals are the exact-string union, sorted.
func Merge(results []PartialResult) (Aggregate, error) {
	n := len(results)
	if n == 0 {
		return Aggregate{}, services.Wrap(
			services.ErrDivisionUndefined,
			"nutrition",
			"merge",
			"cannot average zero estimator results",
			nil,
		)
	}

	var calories, protein, carbohydrates, fat float64
	vitamins := make(map[string]struct{})
	minerals := make(map[string]struct{})
	for _, r := range results {
		calories += value(r.Calories)
		protein += r.protein()
		carbohydrates += r.carbohydrates()
		fat += r.fat()
		for _, v := range r.vitamins() {
			vitamins[v] = struct{}{}
		}
		for _, m := range r.minerals() {
			minerals[m] = struct{}{}
		}
	}

	divisor := float64(n)
	return Aggregate{
		Calories: calories / divisor,
		Macronutrients: AggregateMacros{
			Protein:       protein / divisor,
			Carbohydrates: carbohydrates / divisor,
			Fat:           fat / divisor,
		},
		Micronutrients: AggregateMicros{
			Vitamins: sortedKeys(vitamins),
			Minerals: sortedKeys(minerals),
		},
	}, nil
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
