// Command astrasim tracks a satellite catalog in real time and serves the
// render frames, selection details and pass predictions over HTTP.
package main

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cheeseburger9309/AstraSim/internal/catalog"
	"github.com/cheeseburger9309/AstraSim/internal/config"
	"github.com/cheeseburger9309/AstraSim/internal/tle"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// app carries what every subcommand needs once flags are parsed.
type app struct {
	v       *viper.Viper
	cfgFile string
	cfg     config.Config
	logger  *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{v: config.New()}

	root := &cobra.Command{
		Use:           "astrasim",
		Short:         "Real-time satellite tracking engine",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd.ErrOrStderr())
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (yaml, toml or json)")
	flags.String("log-level", "info", "log level: debug, info, warn or error")
	flags.String("log-format", "json", "log format: json or text")
	flags.Bool("offline", false, "skip the network fetch and use the disk cache or bundled elements")
	cobra.CheckErr(a.v.BindPFlag("log.level", flags.Lookup("log-level")))
	cobra.CheckErr(a.v.BindPFlag("log.format", flags.Lookup("log-format")))

	root.AddCommand(newServeCmd(a), newCatalogCmd(a), newPassesCmd(a))
	return root
}

func (a *app) load(stderr io.Writer) error {
	boot := slog.New(slog.NewJSONHandler(stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	cfg, err := config.Load(a.v, a.cfgFile, boot)
	if err != nil {
		return err
	}
	a.cfg = cfg

	opts := &slog.HandlerOptions{Level: cfg.Log.Level}
	var h slog.Handler
	if cfg.Log.Format == "text" {
		h = slog.NewTextHandler(stderr, opts)
	} else {
		h = slog.NewJSONHandler(stderr, opts)
	}
	a.logger = slog.New(h)
	return nil
}

// loadCatalog runs the network, cache and bundled-fallback chain once.
func (a *app) loadCatalog(ctx context.Context, offline bool) *catalog.Catalog {
	l := &catalog.Loader{
		Cache:  tle.NewCache(a.cfg.TLE.CacheDir, a.cfg.TLE.CacheFiles),
		Logger: a.logger,
	}
	if a.cfg.TLE.EnableFetch && !offline {
		l.Fetcher = tle.NewFetcher(a.cfg.TLE.SourceURL, a.logger, a.cfg.TLE.ExtraURLs...)
	}
	return l.Load(ctx)
}

func offlineFlag(cmd *cobra.Command) bool {
	off, _ := cmd.Flags().GetBool("offline")
	return off
}
