package main

import (
	"encoding/json"

	"github.com/spf13/cobra"
)

// emit prints view as JSON when --json is set and through render otherwise.
// Image URLs carry query strings, so HTML escaping stays off.
func emit[T any](ctx *commandContext, cmd *cobra.Command, view T, render func(*cobra.Command, T)) error {
	if !ctx.jsonOutput() {
		render(cmd, view)
		return nil
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(view)
}
