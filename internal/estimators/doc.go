// Package estimators adapts the vision model clients in internal/services to
// the nutrition.Estimator contract.
//
// Every adapter sends the same schema-bearing prompt, strips code fences from
// the answer, and validates it with nutrition.ParseResponse before it reaches
// the merger. FromConfig builds the enabled set in configured order.
package estimators
