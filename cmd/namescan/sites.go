package main

import (
	"fmt"
	"strings"

	"github.com/nao1215/namescan/internal/catalog"
	"github.com/nao1215/namescan/internal/config"
	"github.com/nao1215/namescan/internal/model"
	"github.com/spf13/cobra"
)

// NewSitesCmd creates the sites command.
func NewSitesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sites",
		Short: "List the sites in the catalog",
		Long: `Sites lists every entry in the site catalog with its identifier kind,
main URL, and tags. Entries that failed to load are reported at the end.

Examples:
  # List the whole catalog
  namescan sites

  # List only gaming-related sites from a custom catalog
  namescan sites --db mysites.json --tags gaming`,
		Args: cobra.NoArgs,
		RunE: runSitesCmd,
	}

	cmd.Flags().String("db", "",
		"Site catalog file (default: data.json in the XDG config directory)")
	cmd.Flags().StringSlice("tags", nil,
		"List only sites carrying at least one of these tags")

	return cmd
}

// runSitesCmd executes the sites command.
func runSitesCmd(cmd *cobra.Command, _ []string) error {
	cfg := config.NewConfig()

	var err error
	cfg.CatalogPath, err = cmd.Flags().GetString("db")
	if err != nil {
		return err
	}
	tags, err := cmd.Flags().GetStringSlice("tags")
	if err != nil {
		return err
	}

	path := cfg.ResolveCatalogPath()
	cat, err := catalog.Load(path)
	if err != nil {
		return fmt.Errorf("failed to load site catalog %s: %w", path, err)
	}

	out := cmd.OutOrStdout()
	listed := 0
	for _, d := range cat.SortByRank().Sites() {
		if len(tags) > 0 && !d.HasAnyTag(tags) {
			continue
		}
		listed++

		kind := d.IdentifierKind
		if kind == "" {
			kind = model.KindUsername
		}
		line := fmt.Sprintf("%s (%s) %s", d.Name, kind, d.URLMain)
		if len(d.Tags) > 0 {
			line += " [" + strings.Join(d.Tags, ", ") + "]"
		}
		fmt.Fprintln(out, line)
	}

	fmt.Fprintf(out, "\n%d sites listed (catalog: %s)\n", listed, path)
	for _, inv := range cat.Invalid {
		fmt.Fprintf(out, "warning: skipped invalid entry %q: %v\n", inv.Name, inv.Reason)
	}
	return nil
}
