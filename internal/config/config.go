// Package config loads runtime settings from defaults, an optional config
// file, ASTRASIM_* environment variables and bound command-line flags.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g.
// ASTRASIM_TRACKER_TICK for tracker.tick.
const EnvPrefix = "ASTRASIM"

// Config is the full runtime configuration.
type Config struct {
	Log         LogConfig
	HTTP        HTTPConfig
	Auth        AuthConfig
	TLE         TLEConfig
	Propagation PropagationConfig
	Tracker     TrackerConfig
	Passes      PassConfig
	Observer    ObserverConfig
	Stream      StreamConfig
	Tracing     TracingConfig
}

type LogConfig struct {
	Level  slog.Level
	Format string // json or text
}

type HTTPConfig struct {
	Addr       string
	TrustProxy bool
}

type AuthConfig struct {
	Enabled bool
	Token   string
}

type TLEConfig struct {
	EnableFetch bool
	SourceURL   string
	ExtraURLs   []string
	CacheDir    string
	CacheFiles  int
}

type PropagationConfig struct {
	Workers int
}

type TrackerConfig struct {
	Tick         time.Duration
	ClockRefresh time.Duration
	RenderRadius float64
	BaseScale    float64
	MarkerRadius float64
}

type PassConfig struct {
	Step         time.Duration
	Samples      int
	MinElevation float64
	MaxPasses    int
}

type ObserverConfig struct {
	LatDeg  float64
	LonDeg  float64
	AltM    float64
	GeoIPDB string
}

type StreamConfig struct {
	MaxConcurrentPerIP int
	KeepaliveInterval  time.Duration
}

type TracingConfig struct {
	Enabled     bool
	Exporter    string // stdout or otlp
	Endpoint    string
	Insecure    bool
	SampleRatio float64
}

var defaults = map[string]any{
	"log.level":  "info",
	"log.format": "json",

	"http.addr":        ":8080",
	"http.trust_proxy": false,

	"auth.enabled": false,
	"auth.token":   "",

	"tle.fetch":       true,
	"tle.source_url":  "",
	"tle.extra_urls":  []string{},
	"tle.cache_dir":   "/tmp/astrasim/tle",
	"tle.cache_files": 5,

	"propagation.workers": runtime.NumCPU(),

	"tracker.tick":          time.Second,
	"tracker.clock_refresh": 5 * time.Second,
	"tracker.render_radius": 1.0,
	"tracker.base_scale":    1.0,
	"tracker.marker_radius": 0.005,

	"passes.step":          time.Minute,
	"passes.samples":       1440,
	"passes.min_elevation": 10.0,
	"passes.max":           10,

	"observer.lat":      0.0,
	"observer.lon":      0.0,
	"observer.alt_m":    0.0,
	"observer.geoip_db": "",

	"stream.max_concurrent_per_ip": 10,
	"stream.keepalive":             30 * time.Second,

	"tracing.enabled":      false,
	"tracing.exporter":     "stdout",
	"tracing.endpoint":     "localhost:4317",
	"tracing.insecure":     true,
	"tracing.sample_ratio": 1.0,
}

// New returns a viper instance with defaults and environment binding set up.
// Callers may bind flags to it before calling Load.
func New() *viper.Viper {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the configuration. A non-empty file is read as a config file
// (YAML, TOML or JSON by extension). Invalid values are logged and replaced
// by their defaults; only an unreadable file or an incomplete auth setup is
// an error.
func Load(v *viper.Viper, file string, logger *slog.Logger) (Config, error) {
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config file %s: %w", file, err)
		}
	}

	l := loader{v: v, logger: logger}
	cfg := Config{
		Log: LogConfig{
			Level:  l.level("log.level"),
			Format: l.oneOf("log.format", "json", "text"),
		},
		HTTP: HTTPConfig{
			Addr:       l.str("http.addr"),
			TrustProxy: v.GetBool("http.trust_proxy"),
		},
		Auth: AuthConfig{
			Enabled: v.GetBool("auth.enabled"),
			Token:   v.GetString("auth.token"),
		},
		TLE: TLEConfig{
			EnableFetch: v.GetBool("tle.fetch"),
			SourceURL:   v.GetString("tle.source_url"),
			ExtraURLs:   splitList(v.GetStringSlice("tle.extra_urls")),
			CacheDir:    l.str("tle.cache_dir"),
			CacheFiles:  l.positiveInt("tle.cache_files"),
		},
		Propagation: PropagationConfig{
			Workers: l.positiveInt("propagation.workers"),
		},
		Tracker: TrackerConfig{
			Tick:         l.positiveDuration("tracker.tick"),
			ClockRefresh: l.positiveDuration("tracker.clock_refresh"),
			RenderRadius: l.positiveFloat("tracker.render_radius"),
			BaseScale:    l.positiveFloat("tracker.base_scale"),
			MarkerRadius: l.positiveFloat("tracker.marker_radius"),
		},
		Passes: PassConfig{
			Step:         l.positiveDuration("passes.step"),
			Samples:      l.positiveInt("passes.samples"),
			MinElevation: l.floatIn("passes.min_elevation", -90, 90),
			MaxPasses:    l.positiveInt("passes.max"),
		},
		Observer: ObserverConfig{
			LatDeg:  l.floatIn("observer.lat", -90, 90),
			LonDeg:  l.floatIn("observer.lon", -180, 180),
			AltM:    l.floatIn("observer.alt_m", -1000, 100000),
			GeoIPDB: v.GetString("observer.geoip_db"),
		},
		Stream: StreamConfig{
			MaxConcurrentPerIP: l.positiveInt("stream.max_concurrent_per_ip"),
			KeepaliveInterval:  l.positiveDuration("stream.keepalive"),
		},
		Tracing: TracingConfig{
			Enabled:     v.GetBool("tracing.enabled"),
			Exporter:    l.oneOf("tracing.exporter", "stdout", "otlp"),
			Endpoint:    v.GetString("tracing.endpoint"),
			Insecure:    v.GetBool("tracing.insecure"),
			SampleRatio: l.floatIn("tracing.sample_ratio", 0, 1),
		},
	}

	if cfg.Auth.Enabled && cfg.Auth.Token == "" {
		return cfg, errors.New("auth.token (ASTRASIM_AUTH_TOKEN) is required when auth is enabled")
	}

	logger.Info("configuration loaded",
		"http_addr", cfg.HTTP.Addr,
		"auth_enabled", cfg.Auth.Enabled,
		"tle_fetch_enabled", cfg.TLE.EnableFetch,
		"tle_cache_dir", cfg.TLE.CacheDir,
		"workers", cfg.Propagation.Workers,
		"tick_ms", cfg.Tracker.Tick.Milliseconds(),
		"tracing_enabled", cfg.Tracing.Enabled,
	)
	return cfg, nil
}

// loader reads single keys, falling back to the default with a warning when
// a value is out of range.
type loader struct {
	v      *viper.Viper
	logger *slog.Logger
}

func (l loader) warn(key string, value, def any) {
	l.logger.Warn("invalid configuration value, using default", "key", key, "value", value, "default", def)
}

func (l loader) str(key string) string {
	s := strings.TrimSpace(l.v.GetString(key))
	if s == "" {
		def := defaults[key].(string)
		l.warn(key, s, def)
		return def
	}
	return s
}

func (l loader) oneOf(key string, allowed ...string) string {
	s := strings.ToLower(strings.TrimSpace(l.v.GetString(key)))
	for _, a := range allowed {
		if s == a {
			return s
		}
	}
	def := defaults[key].(string)
	l.warn(key, s, def)
	return def
}

func (l loader) level(key string) slog.Level {
	var lvl slog.Level
	s := l.v.GetString(key)
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		l.warn(key, s, defaults[key])
		return slog.LevelInfo
	}
	return lvl
}

func (l loader) positiveInt(key string) int {
	n := l.v.GetInt(key)
	if n < 1 {
		def := defaults[key].(int)
		l.warn(key, l.v.Get(key), def)
		return def
	}
	return n
}

// float reads key as a finite number. Text that does not parse, NaN and
// infinities are rejected.
func (l loader) float(key string) (float64, bool) {
	f, err := cast.ToFloat64E(l.v.Get(key))
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func (l loader) positiveFloat(key string) float64 {
	f, ok := l.float(key)
	if !ok || f <= 0 {
		def := defaults[key].(float64)
		l.warn(key, l.v.Get(key), def)
		return def
	}
	return f
}

func (l loader) floatIn(key string, lo, hi float64) float64 {
	f, ok := l.float(key)
	if !ok || f < lo || f > hi {
		def := defaults[key].(float64)
		l.warn(key, l.v.Get(key), def)
		return def
	}
	return f
}

func (l loader) positiveDuration(key string) time.Duration {
	d := l.v.GetDuration(key)
	if d <= 0 {
		def := defaults[key].(time.Duration)
		l.warn(key, l.v.Get(key), def)
		return def
	}
	return d
}

// splitList flattens comma-separated entries, as they arrive from a single
// environment variable.
func splitList(in []string) []string {
	var out []string
	for _, s := range in {
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
