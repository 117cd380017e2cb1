package data

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/dgnsrekt/greekslab/internal/volsurface"
)

func grid(t *testing.T) *volsurface.Grid {
	t.Helper()
	g, err := volsurface.Build([]volsurface.Point{{Strike: 100, Maturity: 1, Volatility: 0.2}})
	if err != nil {
		t.Fatal(err)
	}
	return g
}

func TestSurfaceStore_PutGetDelete(t *testing.T) {
	s := NewSurfaceStore(4)
	rec, evicted := s.Put(grid(t))
	if evicted != "" {
		t.Errorf("unexpected eviction %s", evicted)
	}

	got, err := s.Get(rec.ID)
	if err != nil || got != rec {
		t.Fatalf("Get(%s) = %v, %v", rec.ID, got, err)
	}

	if err := s.Delete(rec.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Get(rec.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if err := s.Delete(rec.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound deleting twice, got %v", err)
	}
}

func TestSurfaceStore_EvictsOldest(t *testing.T) {
	s := NewSurfaceStore(2)
	first, _ := s.Put(grid(t))
	second, _ := s.Put(grid(t))
	_, evicted := s.Put(grid(t))

	if evicted != first.ID {
		t.Errorf("expected %s evicted, got %s", first.ID, evicted)
	}
	if s.Len() != 2 {
		t.Errorf("expected 2 surfaces, got %d", s.Len())
	}
	if ids := s.IDs(); ids[0] != second.ID {
		t.Errorf("expected %s oldest, got %v", second.ID, ids)
	}
}

func TestSurfaceStore_Concurrent(t *testing.T) {
	s := NewSurfaceStore(8)
	g := grid(t)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec, _ := s.Put(g)
			_, _ = s.Get(rec.ID)
			_ = s.Len()
		}()
	}
	wg.Wait()

	if s.Len() != 8 {
		t.Errorf("expected store at capacity 8, got %d", s.Len())
	}
}

func TestLatestSnapshots(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"2025-03-12.json", "2025-03-14.json", "2025-03-13.json", "notes.json"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("{}"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	prev, cur, err := LatestSnapshots(dir)
	if err != nil {
		t.Fatal(err)
	}
	if SnapshotDate(prev) != "2025-03-13" || SnapshotDate(cur) != "2025-03-14" {
		t.Errorf("unexpected snapshots %s, %s", prev, cur)
	}
	if SnapshotDate("notes.json") != "" {
		t.Error("expected empty date for undated file")
	}
}

func TestLatestSnapshots_NotEnough(t *testing.T) {
	dir := t.TempDir()
	_ = os.WriteFile(filepath.Join(dir, "2025-03-14.json"), []byte("{}"), 0644)
	if _, _, err := LatestSnapshots(dir); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
