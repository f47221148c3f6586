package tle

import (
	"errors"
	"os"
	"testing"
	"time"
)

func TestCacheRoundTrip(t *testing.T) {
	c := NewCache(t.TempDir(), 3)
	data := []byte(tleText(issName, issLine1, issLine2))
	ts := time.Date(2026, 10, 7, 12, 0, 0, 0, time.UTC)

	if err := c.Write(data, ts); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, gotTS, err := c.LoadLatest()
	if err != nil {
		t.Fatalf("LoadLatest: %v", err)
	}
	if string(got) != string(data) {
		t.Errorf("LoadLatest data mismatch: got %q", got)
	}
	if !gotTS.Equal(ts) {
		t.Errorf("LoadLatest ts = %v, want %v", gotTS, ts)
	}
}

func TestCacheLatestAndPrune(t *testing.T) {
	dir := t.TempDir()
	c := NewCache(dir, 2)
	base := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 4; i++ {
		if err := c.Write([]byte{byte('a' + i)}, base.Add(time.Duration(i)*time.Hour)); err != nil {
			t.Fatalf("Write %d: %v", i, err)
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Errorf("cache holds %d files after prune, want 2", len(entries))
	}

	got, ts, err := c.LoadLatest()
	if err != nil {
		t.Fatalf("LoadLatest: %v", err)
	}
	if string(got) != "d" {
		t.Errorf("LoadLatest = %q, want newest snapshot %q", got, "d")
	}
	if !ts.Equal(base.Add(3 * time.Hour)) {
		t.Errorf("LoadLatest ts = %v", ts)
	}
}

func TestCacheEmpty(t *testing.T) {
	c := NewCache(t.TempDir()+"/missing", 0)
	if _, _, err := c.LoadLatest(); !errors.Is(err, ErrNoCache) {
		t.Errorf("err = %v, want ErrNoCache", err)
	}
}
