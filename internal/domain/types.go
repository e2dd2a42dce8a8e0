package domain

// LineKind classifies a content line within a diff hunk.
type LineKind int

const (
	// LineContext is an unchanged line present in both revisions (prefix ' ').
	LineContext LineKind = iota
	// LineAdded is a line present only in the new revision (prefix '+').
	LineAdded
	// LineRemoved is a line present only in the old revision (prefix '-').
	LineRemoved
)

// Line is a single content line of a hunk.
//
// Position is the 1-based offset of the line within its file's diff text,
// counting every hunk header and every content line of that file in document
// order. The counter runs continuously across all hunks of one file and is
// never reset between hunks. This is the numbering the review-comment API
// anchors against, distinct from either revision's line numbers.
type Line struct {
	Kind     LineKind
	Content  string // line content without the prefix character
	Position int
	OldLine  *int // old-revision line number (context/removed only)
	NewLine  *int // new-revision line number (context/added only)
}

// Hunk is one contiguous block of changes, parsed from a "@@ -a,b +c,d @@"
// header and the content lines that follow it.
type Hunk struct {
	OldStart int
	OldLines int
	NewStart int
	NewLines int
	Lines    []Line
}

// FileDiff captures all changes to a single file within one patch.
// A rename with no content changes has zero hunks; so does a binary file.
// FileDiffs are immutable once parsed.
type FileDiff struct {
	OldPath  string
	NewPath  string
	Hunks    []Hunk
	IsBinary bool
}

// ChangedFile is the PR file metadata reported by the host, used when
// building the review prompt.
type ChangedFile struct {
	Filename  string `json:"filename"`
	Status    string `json:"status"`
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
	Changes   int    `json:"changes"`
}

// ExtractedComment is a raw candidate pulled out of free-form review text
// before any validation against the diff.
type ExtractedComment struct {
	FileToken string // as captured, not yet normalized
	LineToken string // as captured, may be non-numeric for custom patterns
	Body      string
	PatternID int // index of the pattern that matched
}

// ValidatedComment is a comment that anchors to a real, addressable diff
// line: Path matches exactly one FileDiff and Position exists in that file's
// line map.
type ValidatedComment struct {
	Path     string
	Position int
	Body     string
}

// ReviewSubmission is one atomic review payload for the host API.
// Comments may be empty (overview-only review).
type ReviewSubmission struct {
	Body      string
	Comments  []ValidatedComment
	CommitSHA string
}
