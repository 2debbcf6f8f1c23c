// Package main hosts the menuscope CLI entrypoint and command graph.
//
// Each command is a thin shell over an internal package: fetch downloads
// order pages, extract/flatten/run drive the harvest batch, estimate and
// nutrition ask the configured vision models about dish photos, and query
// runs jq expressions over extracted catalogs. Configuration resolution and
// logger construction live in commandContext so subcommands only wire flags
// to components and render results.
package main
