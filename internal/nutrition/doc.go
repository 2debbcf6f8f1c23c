// Package nutrition fans a dish query out to several estimators and merges
// their partial answers into one consensus estimate.
//
// An estimator that fails, panics, or runs past its deadline contributes the
// all-absent PartialResult; callers never see per-estimator errors. Merge
// averages scalars over every estimator (absent counts as zero) and unions
// the vitamin and mineral lists.
package nutrition
