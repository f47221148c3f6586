package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/cheeseburger9309/AstraSim/internal/catalog"
)

func newCatalogCmd(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "catalog [query]",
		Short: "Load the catalog and print its summary and a name search",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit < 1 {
				return fmt.Errorf("--limit must be positive, got %d", limit)
			}
			query := ""
			if len(args) == 1 {
				query = args[0]
			}
			cat := a.loadCatalog(cmd.Context(), offlineFlag(cmd))
			printCatalog(cmd.OutOrStdout(), cat, query, limit)
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", catalog.DefaultSearchLimit, "maximum number of matches to print")
	return cmd
}

func printCatalog(w io.Writer, cat *catalog.Catalog, query string, limit int) {
	st := cat.Stats()
	fmt.Fprintf(w, "source:      %s\n", cat.Source())
	fmt.Fprintf(w, "loaded:      %s\n", cat.LoadedAt().UTC().Format(time.RFC3339))
	if ep := cat.Epochs(); !ep.Min.IsZero() {
		fmt.Fprintf(w, "epochs:      %s .. %s\n", ep.Min.Format(time.RFC3339), ep.Max.Format(time.RFC3339))
	}
	fmt.Fprintf(w, "objects:     %d\n", st.Total)
	fmt.Fprintf(w, "stations:    %d\n", st.Stations)
	fmt.Fprintf(w, "debris:      %d\n", st.Debris)
	fmt.Fprintf(w, "leo density: %.1f%%\n", st.LEODensityPct)

	parts := make([]string, 0, len(catalog.Categories))
	for _, c := range catalog.Categories {
		parts = append(parts, fmt.Sprintf("%s=%d", c, st.ByCategory[c]))
	}
	fmt.Fprintf(w, "categories:  %s\n\n", strings.Join(parts, " "))

	matches := cat.Search(query, limit)
	if len(matches) == 0 {
		fmt.Fprintf(w, "no objects match %q\n", query)
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "INDEX\tNAME\tNORAD\tCATEGORY\tCOLOR")
	for _, m := range matches {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%s\n", m.Index, m.Name, m.NORADID, m.Category, m.Color.Hex())
	}
	tw.Flush()
}
