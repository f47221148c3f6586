package tle

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"
)

// Snapshot files are named elements-<unix seconds>.tle.zst.
const (
	snapshotPrefix = "elements-"
	snapshotExt    = ".tle.zst"
)

// ErrNoCache is returned by LoadLatest when the cache directory holds no
// readable snapshot.
var ErrNoCache = errors.New("no cache files found")

// Cache keeps zstd-compressed snapshots of fetched element text on disk,
// newest last, bounded to a fixed number of files.
type Cache struct {
	dir  string
	keep int
}

// NewCache returns a Cache rooted at dir keeping at most keep snapshots
// (5 when keep is not positive). The directory is created on first write.
func NewCache(dir string, keep int) *Cache {
	if keep <= 0 {
		keep = 5
	}
	return &Cache{dir: dir, keep: keep}
}

func (c *Cache) Dir() string {
	return c.dir
}

// Write stores data as the snapshot taken at ts, then drops the oldest
// snapshots beyond the limit. The file appears atomically.
func (c *Cache) Write(data []byte, ts time.Time) error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("creating cache dir: %w", err)
	}

	tmp, err := os.CreateTemp(c.dir, ".partial-*")
	if err != nil {
		return fmt.Errorf("creating cache file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := compress(tmp, data); err != nil {
		tmp.Close()
		return fmt.Errorf("compressing snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing cache file: %w", err)
	}
	name := snapshotPrefix + strconv.FormatInt(ts.Unix(), 10) + snapshotExt
	if err := os.Rename(tmp.Name(), filepath.Join(c.dir, name)); err != nil {
		return fmt.Errorf("publishing cache file: %w", err)
	}

	snaps, err := c.snapshots()
	if err != nil {
		return err
	}
	for len(snaps) > c.keep {
		if err := os.Remove(filepath.Join(c.dir, snaps[0].name)); err != nil {
			return fmt.Errorf("pruning %s: %w", snaps[0].name, err)
		}
		snaps = snaps[1:]
	}
	return nil
}

// LoadLatest returns the newest snapshot and the time it was taken.
func (c *Cache) LoadLatest() ([]byte, time.Time, error) {
	snaps, err := c.snapshots()
	if err != nil {
		return nil, time.Time{}, err
	}
	if len(snaps) == 0 {
		return nil, time.Time{}, ErrNoCache
	}
	latest := snaps[len(snaps)-1]

	f, err := os.Open(filepath.Join(c.dir, latest.name))
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("opening cache file: %w", err)
	}
	defer f.Close()

	zr, err := zstd.NewReader(f, zstd.WithDecoderConcurrency(0))
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("creating zstd decoder: %w", err)
	}
	defer zr.Close()

	data, err := io.ReadAll(zr)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("decompressing %s: %w", latest.name, err)
	}
	return data, latest.taken, nil
}

func compress(w io.Writer, data []byte) error {
	zw, err := zstd.NewWriter(w)
	if err != nil {
		return err
	}
	if _, err := zw.Write(data); err != nil {
		zw.Close()
		return err
	}
	return zw.Close()
}

type snapshot struct {
	name  string
	taken time.Time
}

// snapshots lists the cache files oldest first. A missing directory is an
// empty cache.
func (c *Cache) snapshots() ([]snapshot, error) {
	entries, err := os.ReadDir(c.dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("listing cache dir: %w", err)
	}

	var out []snapshot
	for _, e := range entries {
		stamp, ok := strings.CutPrefix(e.Name(), snapshotPrefix)
		if !ok || e.IsDir() {
			continue
		}
		stamp, ok = strings.CutSuffix(stamp, snapshotExt)
		if !ok {
			continue
		}
		unix, err := strconv.ParseInt(stamp, 10, 64)
		if err != nil {
			continue
		}
		out = append(out, snapshot{name: e.Name(), taken: time.Unix(unix, 0).UTC()})
	}
	slices.SortFunc(out, func(a, b snapshot) int { return a.taken.Compare(b.taken) })
	return out, nil
}
