package diff

import (
	"errors"
	"strings"
	"testing"

	"github.com/visionpr/reviewer/internal/domain"
)

const simpleDiff = `diff --git a/file.go b/file.go
index 0000000..1111111 100644
--- a/file.go
+++ b/file.go
@@ -1,3 +1,4 @@
 line1
+line2
 line3
 line4
`

func TestParseEmptyInput(t *testing.T) {
	for _, raw := range []string{"", "   \n\t\n"} {
		files, err := Parse(raw)
		if err != nil {
			t.Fatalf("Parse(%q) returned error: %v", raw, err)
		}
		if len(files) != 0 {
			t.Fatalf("Parse(%q) returned %d files, want 0", raw, len(files))
		}
	}
}

func TestParseSimpleDiffPositions(t *testing.T) {
	files, err := Parse(simpleDiff)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("got %d files, want 1", len(files))
	}
	f := files[0]
	if f.OldPath != "file.go" || f.NewPath != "file.go" {
		t.Errorf("paths = %q -> %q, want file.go -> file.go", f.OldPath, f.NewPath)
	}
	if len(f.Hunks) != 1 {
		t.Fatalf("got %d hunks, want 1", len(f.Hunks))
	}
	h := f.Hunks[0]
	if h.OldStart != 1 || h.OldLines != 3 || h.NewStart != 1 || h.NewLines != 4 {
		t.Errorf("hunk ranges = -%d,%d +%d,%d, want -1,3 +1,4",
			h.OldStart, h.OldLines, h.NewStart, h.NewLines)
	}

	// The header occupies position 1, so the first content line is 2.
	want := []struct {
		kind    domain.LineKind
		content string
		pos     int
		newLine int // 0 means nil
	}{
		{domain.LineContext, "line1", 2, 1},
		{domain.LineAdded, "line2", 3, 2},
		{domain.LineContext, "line3", 4, 3},
		{domain.LineContext, "line4", 5, 4},
	}
	if len(h.Lines) != len(want) {
		t.Fatalf("got %d lines, want %d", len(h.Lines), len(want))
	}
	for i, w := range want {
		got := h.Lines[i]
		if got.Kind != w.kind || got.Content != w.content || got.Position != w.pos {
			t.Errorf("line %d = {%v %q pos=%d}, want {%v %q pos=%d}",
				i, got.Kind, got.Content, got.Position, w.kind, w.content, w.pos)
		}
		if w.newLine == 0 {
			if got.NewLine != nil {
				t.Errorf("line %d NewLine = %d, want nil", i, *got.NewLine)
			}
		} else if got.NewLine == nil || *got.NewLine != w.newLine {
			t.Errorf("line %d NewLine = %v, want %d", i, got.NewLine, w.newLine)
		}
	}
}

func TestParsePositionsContinuousAcrossHunks(t *testing.T) {
	raw := `--- a/multi.go
+++ b/multi.go
@@ -1,2 +1,3 @@
 alpha
+beta
 gamma
@@ -10,2 +11,3 @@
 delta
+epsilon
 zeta
`
	files, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if len(files) != 1 || len(files[0].Hunks) != 2 {
		t.Fatalf("got %d files / %d hunks, want 1 / 2", len(files), len(files[0].Hunks))
	}

	// First hunk: header=1, lines 2-4. Second hunk: header=5, lines 6-8.
	h2 := files[0].Hunks[1]
	wantPos := []int{6, 7, 8}
	for i, l := range h2.Lines {
		if l.Position != wantPos[i] {
			t.Errorf("second hunk line %d position = %d, want %d", i, l.Position, wantPos[i])
		}
	}
	added := h2.Lines[1]
	if added.Kind != domain.LineAdded || added.NewLine == nil || *added.NewLine != 12 {
		t.Errorf("added line = {%v NewLine=%v}, want added at new line 12", added.Kind, added.NewLine)
	}
}

func TestParsePositionResetBetweenFiles(t *testing.T) {
	raw := `--- a/one.go
+++ b/one.go
@@ -1,1 +1,2 @@
 keep
+new
--- a/two.go
+++ b/two.go
@@ -1,1 +1,2 @@
 keep
+new
`
	files, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("got %d files, want 2", len(files))
	}
	for _, f := range files {
		last := f.Hunks[0].Lines[1]
		if last.Position != 3 {
			t.Errorf("%s: added line position = %d, want 3 (counter per file)", f.NewPath, last.Position)
		}
	}
}

func TestParseRemovedLines(t *testing.T) {
	raw := `--- a/gone.go
+++ b/gone.go
@@ -1,3 +1,2 @@
 head
-dropped
 tail
`
	files, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	removed := files[0].Hunks[0].Lines[1]
	if removed.Kind != domain.LineRemoved {
		t.Fatalf("line kind = %v, want removed", removed.Kind)
	}
	if removed.NewLine != nil {
		t.Errorf("removed line NewLine = %d, want nil", *removed.NewLine)
	}
	if removed.OldLine == nil || *removed.OldLine != 2 {
		t.Errorf("removed line OldLine = %v, want 2", removed.OldLine)
	}
	tail := files[0].Hunks[0].Lines[2]
	if tail.NewLine == nil || *tail.NewLine != 2 {
		t.Errorf("tail NewLine = %v, want 2", tail.NewLine)
	}
}

func TestParseSingleLineRanges(t *testing.T) {
	// "@@ -1 +1 @@" means count 1 on both sides.
	raw := `--- a/one.txt
+++ b/one.txt
@@ -1 +1 @@
-old
`
	_, err := Parse(raw)
	if err == nil {
		t.Fatal("Parse accepted a hunk short one new-side line")
	}

	raw = `--- a/one.txt
+++ b/one.txt
@@ -1 +1,2 @@
-old
+new
+newer
`
	files, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	h := files[0].Hunks[0]
	if h.OldLines != 1 || h.NewLines != 2 {
		t.Errorf("ranges = -%d +%d, want -1 +2", h.OldLines, h.NewLines)
	}
}

func TestParseMalformedHunkHeader(t *testing.T) {
	raw := `--- a/bad.go
+++ b/bad.go
@@ not a header @@
 context
`
	_, err := Parse(raw)
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("error = %v, want *ParseError", err)
	}
	if perr.Line != 3 {
		t.Errorf("ParseError.Line = %d, want 3", perr.Line)
	}
	if !strings.Contains(perr.Error(), "malformed hunk header") {
		t.Errorf("unexpected message: %v", perr)
	}
}

func TestParseTruncatedHunk(t *testing.T) {
	raw := `--- a/cut.go
+++ b/cut.go
@@ -1,5 +1,5 @@
 only
 two lines
`
	_, err := Parse(raw)
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("error = %v, want *ParseError", err)
	}
	if !strings.Contains(perr.Reason, "truncated hunk") {
		t.Errorf("unexpected reason: %q", perr.Reason)
	}
}

func TestParseHunkHeaderOutsideFile(t *testing.T) {
	raw := "@@ -1,1 +1,1 @@\n context\n"
	_, err := Parse(raw)
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("error = %v, want *ParseError", err)
	}
}

func TestParseBinaryFile(t *testing.T) {
	raw := `diff --git a/logo.png b/logo.png
index 0000000..1111111 100644
Binary files a/logo.png and b/logo.png differ
--- a/readme.md
+++ b/readme.md
@@ -1,1 +1,2 @@
 hello
+world
`
	files, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("got %d files, want 2", len(files))
	}
	if !files[0].IsBinary || files[0].NewPath != "logo.png" || len(files[0].Hunks) != 0 {
		t.Errorf("binary file = %+v, want logo.png with no hunks", files[0])
	}
	if files[1].NewPath != "readme.md" || files[1].IsBinary {
		t.Errorf("text file = %+v, want readme.md", files[1])
	}
}

func TestParseNewAndDeletedFiles(t *testing.T) {
	raw := `--- /dev/null
+++ b/fresh.go
@@ -0,0 +1,2 @@
+package fresh
+
--- a/stale.go
+++ /dev/null
@@ -1,1 +0,0 @@
-package stale
`
	files, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("got %d files, want 2", len(files))
	}
	if files[0].OldPath != "" || files[0].NewPath != "fresh.go" {
		t.Errorf("added file paths = %q -> %q, want \"\" -> fresh.go", files[0].OldPath, files[0].NewPath)
	}
	if files[1].OldPath != "stale.go" || files[1].NewPath != "" {
		t.Errorf("deleted file paths = %q -> %q, want stale.go -> \"\"", files[1].OldPath, files[1].NewPath)
	}
}

func TestParseNoNewlineMarkerConsumesPosition(t *testing.T) {
	raw := `--- a/tail.txt
+++ b/tail.txt
@@ -1,1 +1,1 @@
-old
\ No newline at end of file
+new
\ No newline at end of file
`
	files, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	lines := files[0].Hunks[0].Lines
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	// header=1, "-old"=2, marker=3, "+new"=4
	if lines[1].Position != 4 {
		t.Errorf("added line position = %d, want 4", lines[1].Position)
	}
}

func TestParseMarkdownSeparatorNotAFileHeader(t *testing.T) {
	raw := `--- a/doc.md
+++ b/doc.md
@@ -1,3 +1,3 @@
 title
---- rule
+--- thicker rule
`
	files, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("got %d files, want 1", len(files))
	}
	lines := files[0].Hunks[0].Lines
	if lines[1].Kind != domain.LineRemoved || lines[1].Content != "--- rule" {
		t.Errorf("line 1 = {%v %q}, want removed %q", lines[1].Kind, lines[1].Content, "--- rule")
	}
}

func TestParseHeaderPathTimestamps(t *testing.T) {
	raw := "--- a/old.c\t2026-01-02 03:04:05\n+++ b/new.c\t2026-01-02 03:04:06\n@@ -1,1 +1,1 @@\n-x\n+y\n"
	files, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if files[0].OldPath != "old.c" || files[0].NewPath != "new.c" {
		t.Errorf("paths = %q -> %q, want old.c -> new.c", files[0].OldPath, files[0].NewPath)
	}
}
