// Package services defines shared utilities consumed by the pipeline stages and
// the external provider integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run identifiers, stage names, and subjects
//     (restaurant slug or dish) for logging.
//   - Structured error markers plus the Wrap helper so per-item failures can be
//     classified (not found, decode failure, schema violation) in batch
//     summaries without string matching.
//
// Use these helpers when wiring new stage logic so operational behaviour stays
// uniform across the harvest and nutrition pipelines.
package services
