package diff

import "github.com/visionpr/reviewer/internal/domain"

// Resolver is a read-only lookup from (file, new-revision line number) to
// diff position. It is built once per parsed diff and never mutated, so it
// is safe to share across goroutines.
//
// Only context and added lines are addressable: removed lines do not exist
// in the new revision, and a file with only deletions has an empty map. An
// unknown file or line is an expected outcome, not an error.
type Resolver struct {
	byPath map[string]map[int]int
	paths  []string // document order
}

// NewResolver derives the per-file line maps from parsed FileDiffs.
// Files are keyed by their new path; deleted files fall back to the old path
// so that queries against them resolve (to nothing) rather than misfire.
func NewResolver(files []domain.FileDiff) *Resolver {
	r := &Resolver{byPath: make(map[string]map[int]int, len(files))}
	for _, f := range files {
		path := f.NewPath
		if path == "" {
			path = f.OldPath
		}
		if path == "" {
			continue
		}
		if _, ok := r.byPath[path]; ok {
			continue
		}
		m := make(map[int]int)
		for _, h := range f.Hunks {
			for _, l := range h.Lines {
				if l.NewLine != nil {
					m[*l.NewLine] = l.Position
				}
			}
		}
		r.byPath[path] = m
		r.paths = append(r.paths, path)
	}
	return r
}

// Resolve returns the diff position of the given new-revision line, or
// false when the file or line is not addressable in the diff.
func (r *Resolver) Resolve(path string, newLine int) (int, bool) {
	m, ok := r.byPath[path]
	if !ok {
		return 0, false
	}
	pos, ok := m[newLine]
	return pos, ok
}

// HasFile reports whether the diff contains the given path.
func (r *Resolver) HasFile(path string) bool {
	_, ok := r.byPath[path]
	return ok
}

// Paths returns the diff's file paths in document order.
func (r *Resolver) Paths() []string {
	out := make([]string, len(r.paths))
	copy(out, r.paths)
	return out
}
