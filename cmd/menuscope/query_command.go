package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"menuscope/internal/config"
	"menuscope/internal/menu"
	"menuscope/internal/query"
	"menuscope/internal/textutil"
)

func newQueryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var compact bool

	cmd := &cobra.Command{
		Use:   "query <catalog> <expression>",
		Short: "Run a jq expression over an extracted catalog",
		Long: "Evaluate a jq expression over a catalog JSON file. <catalog> is a path or a restaurant\n" +
			"slug, in which case the catalog is read from paths.json_dir.",
		Example: "  menuscope query protein-chef '.pages.restaurant[].order.menuList.menus[].menu.name'",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path, err := resolveCatalog(cfg, args[0])
			if err != nil {
				return err
			}
			f, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("open catalog: %w", err)
			}
			defer f.Close()
			doc, err := menu.ReadDocument(f)
			if err != nil {
				return fmt.Errorf("read %s: %w", path, err)
			}

			values, err := query.Run(cmd.Context(), doc, args[1], limit)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetEscapeHTML(false)
			if !compact {
				enc.SetIndent("", "  ")
			}
			for _, v := range values {
				if err := enc.Encode(v); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "Stop after this many results (0 for all)")
	cmd.Flags().BoolVar(&compact, "compact", false, "Print each result on one line")
	return cmd
}

func resolveCatalog(cfg *config.Config, ref string) (string, error) {
	if info, err := os.Stat(ref); err == nil && !info.IsDir() {
		return ref, nil
	}
	candidate := filepath.Join(cfg.Paths.JSONDir, textutil.SanitizeFileName(ref)+".json")
	if _, err := os.Stat(candidate); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("no catalog %q (looked for %s)", ref, candidate)
		}
		return "", err
	}
	return candidate, nil
}
