package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/cheeseburger9309/AstraSim/internal/catalog"
	"github.com/cheeseburger9309/AstraSim/internal/passes"
	"github.com/cheeseburger9309/AstraSim/internal/telemetry"
)

func newPassesCmd(a *app) *cobra.Command {
	var start string
	cmd := &cobra.Command{
		Use:   "passes NAME",
		Short: "Predict visible passes of one object over the configured observer",
		Long: `Predict the passes of the named object over the next day as seen from the
observer set with --lat/--lon/--alt (or the observer.* configuration keys).
A pass counts once the object rises above the minimum elevation.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			from := time.Now().UTC()
			if start != "" {
				t, err := time.Parse(time.RFC3339, start)
				if err != nil {
					return fmt.Errorf("--start: %w", err)
				}
				from = t.UTC()
			}

			cat := a.loadCatalog(cmd.Context(), offlineFlag(cmd))
			obj, ok := cat.Lookup(args[0])
			if !ok {
				return notFound(cat, args[0])
			}

			obs := configuredObserver(a.cfg.Observer)
			if err := obs.Validate(); err != nil {
				return err
			}
			cfg := passConfig(a.cfg.Passes)
			events, err := passes.Predict(cmd.Context(), passes.ElevationFor(obj.Elements, obs.Position()), from, cfg)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			r := telemetry.Read(obj, from)
			fmt.Fprintf(out, "%s (NORAD %d, %s) period %.1f min, inclination %.1f deg\n",
				obj.Name, obj.Record.NORADID, obj.Category, r.PeriodMin, r.InclinationDeg)
			fmt.Fprintf(out, "observer %.4f, %.4f at %.0f m (%s), from %s\n\n",
				obs.LatDeg, obs.LonDeg, obs.AltM, obs.Source, from.Format(time.RFC3339))
			printPasses(out, events)
			return nil
		},
	}
	flags := cmd.Flags()
	flags.Float64("lat", 0, "observer latitude in degrees")
	flags.Float64("lon", 0, "observer longitude in degrees")
	flags.Float64("alt", 0, "observer altitude in metres")
	flags.StringVar(&start, "start", "", "prediction start (RFC 3339), default now")
	cobra.CheckErr(a.v.BindPFlag("observer.lat", flags.Lookup("lat")))
	cobra.CheckErr(a.v.BindPFlag("observer.lon", flags.Lookup("lon")))
	cobra.CheckErr(a.v.BindPFlag("observer.alt_m", flags.Lookup("alt")))
	return cmd
}

func notFound(cat *catalog.Catalog, name string) error {
	if m := cat.Search(name, 5); len(m) > 0 {
		names := make([]string, len(m))
		for i := range m {
			names[i] = m[i].Name
		}
		return fmt.Errorf("no object named %q; did you mean %q", name, names)
	}
	return fmt.Errorf("no object named %q", name)
}

func printPasses(w io.Writer, events []passes.PassEvent) {
	if len(events) == 0 {
		fmt.Fprintln(w, "no passes in the prediction window")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "START\tMAX\tEND\tDURATION\tMAX EL\tAZ START/MAX/END")
	for _, p := range events {
		end := "in progress"
		if p.EndTime != nil {
			end = p.EndTime.Format("2006-01-02 15:04")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%.1f\t%.0f/%.0f/%.0f\n",
			p.StartTime.Format("2006-01-02 15:04"),
			p.MaxElevationTime.Format("15:04"),
			end,
			(time.Duration(p.DurationSeconds) * time.Second).String(),
			p.MaxElevation,
			p.StartAzimuth, p.AzimuthAtMax, p.EndAzimuth,
		)
	}
	tw.Flush()
}
