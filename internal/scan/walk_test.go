package scan

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// writeTree creates root with the given relative files, each holding a
// few bytes so sizes are observable.
func writeTree(t *testing.T, files ...string) string {
	t.Helper()
	root := t.TempDir()
	for _, f := range files {
		path := filepath.Join(root, f)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte("img"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func relPaths(t *testing.T, root string, entries []FileEntry) []string {
	t.Helper()
	var rels []string
	for _, e := range entries {
		rel, err := filepath.Rel(root, e.Path)
		if err != nil {
			t.Fatal(err)
		}
		rels = append(rels, filepath.ToSlash(rel))
	}
	return rels
}

func TestWalk_MissingRoot(t *testing.T) {
	_, err := Walk(filepath.Join(t.TempDir(), "nope"), nil)
	if err == nil {
		t.Fatal("expected error for missing root")
	}
}

func TestWalk_RootIsFile(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "photo.jpg")
	if err := os.WriteFile(path, []byte("img"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := Walk(path, nil)
	if err == nil {
		t.Fatal("expected error for file root")
	}
}

func TestWalk_FiltersAndSorts(t *testing.T) {
	root := writeTree(t,
		"b/second.jpg",
		"a/first.jpeg",
		"a/notes.txt",
		"top.png",
		"b/movie.mp4",
		"c/third.TIF",
	)

	entries, err := Walk(root, nil)
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}

	want := []string{"a/first.jpeg", "b/second.jpg", "c/third.TIF", "top.png"}
	if diff := cmp.Diff(want, relPaths(t, root, entries)); diff != "" {
		t.Errorf("files mismatch (-want +got):\n%s", diff)
	}
	for _, e := range entries {
		if e.Dir != filepath.Dir(e.Path) {
			t.Errorf("Dir = %q, want %q", e.Dir, filepath.Dir(e.Path))
		}
		if e.Size != 3 {
			t.Errorf("Size = %d, want 3", e.Size)
		}
	}
}

func TestWalk_CustomExtensions(t *testing.T) {
	root := writeTree(t, "a.jpg", "b.png", "c.webp")

	// Extensions normalize: leading dot optional, case-insensitive.
	entries, err := Walk(root, []string{"PNG", ".webp"})
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}
	want := []string{"b.png", "c.webp"}
	if diff := cmp.Diff(want, relPaths(t, root, entries)); diff != "" {
		t.Errorf("files mismatch (-want +got):\n%s", diff)
	}
}

func TestWalk_EmptyDir(t *testing.T) {
	entries, err := Walk(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected no entries, got %d", len(entries))
	}
}
