package diff

import (
	"testing"

	"github.com/visionpr/reviewer/internal/domain"
)

func mustParse(t *testing.T, raw string) []domain.FileDiff {
	t.Helper()
	files, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	return files
}

func TestResolverSimpleDiff(t *testing.T) {
	r := NewResolver(mustParse(t, simpleDiff))

	tests := []struct {
		path    string
		line    int
		wantPos int
		wantOK  bool
	}{
		{"file.go", 1, 2, true},
		{"file.go", 2, 3, true}, // the added line
		{"file.go", 3, 4, true},
		{"file.go", 4, 5, true},
		{"file.go", 5, 0, false},  // past the hunk
		{"file.go", 0, 0, false},  // no line zero
		{"other.go", 1, 0, false}, // unknown file
	}
	for _, tt := range tests {
		pos, ok := r.Resolve(tt.path, tt.line)
		if pos != tt.wantPos || ok != tt.wantOK {
			t.Errorf("Resolve(%q, %d) = (%d, %v), want (%d, %v)",
				tt.path, tt.line, pos, ok, tt.wantPos, tt.wantOK)
		}
	}
}

func TestResolverMultiHunkContinuity(t *testing.T) {
	raw := `--- a/svc.go
+++ b/svc.go
@@ -1,2 +1,3 @@
 a
+b
 c
@@ -20,2 +21,3 @@
 x
+y
 z
`
	r := NewResolver(mustParse(t, raw))

	// First hunk header=1, lines 2-4; second header=5, lines 6-8.
	if pos, ok := r.Resolve("svc.go", 22); !ok || pos != 7 {
		t.Errorf("Resolve(svc.go, 22) = (%d, %v), want (7, true)", pos, ok)
	}
	// The gap between hunks is not addressable.
	if _, ok := r.Resolve("svc.go", 10); ok {
		t.Error("Resolve(svc.go, 10) resolved a line between hunks")
	}
}

func TestResolverRemovedLinesNotAddressable(t *testing.T) {
	raw := `--- a/del.go
+++ b/del.go
@@ -1,3 +1,2 @@
 head
-gone
 tail
`
	r := NewResolver(mustParse(t, raw))
	if pos, ok := r.Resolve("del.go", 2); !ok || pos != 4 {
		t.Errorf("Resolve(del.go, 2) = (%d, %v), want (4, true) for the tail line", pos, ok)
	}
	if _, ok := r.Resolve("del.go", 3); ok {
		t.Error("Resolve(del.go, 3) resolved past the new revision's last line")
	}
}

func TestResolverDeletedFileEmptyMap(t *testing.T) {
	raw := `--- a/stale.go
+++ /dev/null
@@ -1,2 +0,0 @@
-package stale
-
`
	r := NewResolver(mustParse(t, raw))
	if !r.HasFile("stale.go") {
		t.Fatal("deleted file not keyed by old path")
	}
	if _, ok := r.Resolve("stale.go", 1); ok {
		t.Error("a deletion-only file resolved a line")
	}
}

func TestResolverPathsDocumentOrder(t *testing.T) {
	raw := `--- a/z.go
+++ b/z.go
@@ -1,1 +1,2 @@
 a
+b
--- a/a.go
+++ b/a.go
@@ -1,1 +1,2 @@
 a
+b
`
	r := NewResolver(mustParse(t, raw))
	paths := r.Paths()
	if len(paths) != 2 || paths[0] != "z.go" || paths[1] != "a.go" {
		t.Errorf("Paths() = %v, want [z.go a.go]", paths)
	}
	if !r.HasFile("z.go") || r.HasFile("nope.go") {
		t.Error("HasFile misreported membership")
	}
}

func TestResolverRenameOnlyFile(t *testing.T) {
	files := []domain.FileDiff{{OldPath: "before.go", NewPath: "after.go"}}
	r := NewResolver(files)
	if !r.HasFile("after.go") {
		t.Fatal("rename-only file not keyed by new path")
	}
	if _, ok := r.Resolve("after.go", 1); ok {
		t.Error("rename-only file resolved a line")
	}
}
