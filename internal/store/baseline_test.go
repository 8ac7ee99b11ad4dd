package store

import (
	"os"
	"path/filepath"
	"testing"

	"PriceSentinel/internal/model"
)

func TestLoad_MissingFile(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "prices.json"))
	snap := s.Load()
	if snap == nil {
		t.Fatal("expected non-nil snapshot")
	}
	if len(snap) != 0 {
		t.Errorf("expected empty snapshot, got %v", snap)
	}
}

func TestLoad_CorruptFile(t *testing.T) {
	tests := map[string]string{
		"garbage":        "{not json",
		"wrong type":     `["ShoeA", 100]`,
		"string price":   `{"ShoeA": "100"}`,
		"negative price": `{"ShoeA": -5}`,
		"empty file":     "",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "prices.json")
			if err := os.WriteFile(path, []byte(content), 0644); err != nil {
				t.Fatal(err)
			}
			snap := NewFileStore(path).Load()
			if len(snap) != 0 {
				t.Errorf("expected empty snapshot for %q, got %v", content, snap)
			}
		})
	}
}

func TestLoad_NullDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prices.json")
	if err := os.WriteFile(path, []byte("null"), 0644); err != nil {
		t.Fatal(err)
	}
	snap := NewFileStore(path).Load()
	if snap == nil || len(snap) != 0 {
		t.Errorf("expected empty non-nil snapshot, got %#v", snap)
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "prices.json")
	s := NewFileStore(path)
	want := model.Snapshot{"ShoeA": 8000, "ShoeB": 5000, "Loafer ü": 123456}
	if err := s.Save(want); err != nil {
		t.Fatalf("save: %v", err)
	}
	got := s.Load()
	if !got.Equal(want) {
		t.Errorf("round trip mismatch: got %v, want %v", got, want)
	}

	// No temp files left behind.
	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("expected only the baseline file, found %d entries", len(entries))
	}
}

func TestSave_Overwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prices.json")
	s := NewFileStore(path)
	if err := s.Save(model.Snapshot{"A": 1, "B": 2}); err != nil {
		t.Fatal(err)
	}
	if err := s.Save(model.Snapshot{"C": 3}); err != nil {
		t.Fatal(err)
	}
	got := s.Load()
	if !got.Equal(model.Snapshot{"C": 3}) {
		t.Errorf("expected overwrite, got %v", got)
	}
}

func TestSave_NilSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prices.json")
	if err := NewFileStore(path).Save(nil); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "{}" {
		t.Errorf("expected empty object, got %q", data)
	}
}

func TestMerge(t *testing.T) {
	old := model.Snapshot{"ShoeA": 10000, "ShoeB": 5000}
	fresh := model.Snapshot{"ShoeA": 8000, "ShoeB": 5000, "ShoeC": 3000}

	got := Merge(old, fresh)
	want := model.Snapshot{"ShoeA": 8000, "ShoeB": 5000, "ShoeC": 3000}
	if !got.Equal(want) {
		t.Errorf("merge: got %v, want %v", got, want)
	}
	if old["ShoeA"] != 10000 || len(old) != 2 {
		t.Errorf("merge modified old: %v", old)
	}
}

func TestMerge_RetainsStaleKeys(t *testing.T) {
	old := model.Snapshot{"Delisted": 4200, "Kept": 100}
	fresh := model.Snapshot{"Kept": 90}

	got := Merge(old, fresh)
	if got["Delisted"] != 4200 {
		t.Errorf("stale key dropped or changed: %v", got)
	}
	if got["Kept"] != 90 {
		t.Errorf("fresh price should win: %v", got)
	}
}

func TestMerge_Idempotent(t *testing.T) {
	cases := []struct {
		old, fresh model.Snapshot
	}{
		{model.Snapshot{}, model.Snapshot{}},
		{nil, model.Snapshot{"A": 1}},
		{model.Snapshot{"A": 1}, nil},
		{model.Snapshot{"A": 5, "B": 7}, model.Snapshot{"B": 3, "C": 9}},
	}
	for _, c := range cases {
		once := Merge(c.old, c.fresh)
		twice := Merge(once, c.fresh)
		if !once.Equal(twice) {
			t.Errorf("merge not idempotent for old=%v fresh=%v: %v vs %v", c.old, c.fresh, once, twice)
		}
		for k, v := range c.old {
			if _, inFresh := c.fresh[k]; !inFresh && once[k] != v {
				t.Errorf("key %q lost or altered", k)
			}
		}
	}
}
