package nutrition

import (
	"context"
)

// Macronutrients holds the optional macro estimates of one estimator, in
// grams.
type Macronutrients struct {
	Protein       *float64 `json:"protein,omitempty" jsonschema:"description=Protein in grams"`
	Carbohydrates *float64 `json:"carbohydrates,omitempty" jsonschema:"description=Carbohydrates in grams"`
	Fat           *float64 `json:"fat,omitempty" jsonschema:"description=Fat in grams"`
}

// Micronutrients lists the notable vitamins and minerals named by one
// estimator.
type Micronutrients struct {
	Vitamins []string `json:"vitamins,omitempty" jsonschema:"description=Notable vitamins present in the dish"`
	Minerals []string `json:"minerals,omitempty" jsonschema:"description=Notable minerals present in the dish"`
}

// PartialResult is one estimator's answer. Every field is optional and the
// zero value is the all-absent result.
type PartialResult struct {
	Calories       *float64        `json:"calories,omitempty" jsonschema:"description=Estimated calories (kcal) for one serving"`
	Macronutrients *Macronutrients `json:"macronutrients,omitempty"`
	Micronutrients *Micronutrients `json:"micronutrients,omitempty"`
}

// IsEmpty reports whether the result carries no estimate at all.
func (p PartialResult) IsEmpty() bool {
	if p.Calories != nil {
		return false
	}
	if m := p.Macronutrients; m != nil && (m.Protein != nil || m.Carbohydrates != nil || m.Fat != nil) {
		return false
	}
	if m := p.Micronutrients; m != nil && (len(m.Vitamins) > 0 || len(m.Minerals) > 0) {
		return false
	}
	return true
}

func (p PartialResult) protein() float64 {
	if p.Macronutrients == nil {
		return 0
	}
	return value(p.Macronutrients.Protein)
}

func (p PartialResult) carbohydrates() float64 {
	if p.Macronutrients == nil {
		return 0
	}
	return value(p.Macronutrients.Carbohydrates)
}

func (p PartialResult) fat() float64 {
	if p.Macronutrients == nil {
		return 0
	}
	return value(p.Macronutrients.Fat)
}

func (p PartialResult) vitamins() []string {
	if p.Micronutrients == nil {
		return nil
	}
	return p.Micronutrients.Vitamins
}

func (p PartialResult) minerals() []string {
	if p.Micronutrients == nil {
		return nil
	}
	return p.Micronutrients.Minerals
}

func value(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

// Aggregate is the merged estimate. Scalars and lists are always populated.
type Aggregate struct {
	Calories       float64         `json:"calories"`
	Macronutrients AggregateMacros `json:"macronutrients"`
	Micronutrients AggregateMicros `json:"micronutrients"`
}

// AggregateMacros carries the averaged macro estimates.
type AggregateMacros struct {
	Protein       float64 `json:"protein"`
	Carbohydrates float64 `json:"carbohydrates"`
	Fat           float64 `json:"fat"`
}

// AggregateMicros carries the deduplicated vitamin and mineral lists.
type AggregateMicros struct {
	Vitamins []string `json:"vitamins"`
	Minerals []string `json:"minerals"`
}

// Query describes one dish to estimate.
type Query struct {
	Description string
	ImageURL    string
}

// Estimator answers a nutrition query from a prepared image and a text
// description. Implementations should honour ctx cancellation.
type Estimator interface {
	Name() string
	Estimate(ctx context.Context, image []byte, description string) (PartialResult, error)
}

// ImageSource turns an image reference into the bytes handed to estimators.
type ImageSource interface {
	Prepare(ctx context.Context, ref string) ([]byte, error)
}

// Float returns a pointer to v, for building results by hand.
func Float(v float64) *float64 {
	return &v
}
