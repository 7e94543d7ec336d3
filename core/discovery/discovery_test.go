package discovery

import (
	"os"
	"path/filepath"
	"sort"
	"testing"
)

func TestFindMBTiles(t *testing.T) {
	root := t.TempDir()

	mustWrite(t, filepath.Join(root, "world.mbtiles"))
	mustWrite(t, filepath.Join(root, "regions", "europe.mbtiles"))
	mustWrite(t, filepath.Join(root, "regions", "notes.txt"))

	candidates, err := findMBTiles(root)
	if err != nil {
		t.Fatalf("findMBTiles: %v", err)
	}

	ids := make([]string, 0, len(candidates))
	for _, c := range candidates {
		ids = append(ids, c.id)
	}
	sort.Strings(ids)

	want := []string{"regions/europe", "world"}
	if len(ids) != len(want) {
		t.Fatalf("findMBTiles ids = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("findMBTiles ids = %v, want %v", ids, want)
			break
		}
	}
}

func mustWrite(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(path, []byte("not a real sqlite file"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}
