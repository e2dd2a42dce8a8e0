package diff

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/visionpr/reviewer/internal/domain"
)

// ParseError reports a malformed or truncated diff. It is fatal: a diff that
// cannot be trusted must abort the run before anything touches the network,
// otherwise comments would anchor to the wrong lines.
type ParseError struct {
	Line   int // 1-based line number in the raw diff text
	Reason string
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("diff parse error at line %d: %s", e.Line, e.Reason)
}

var hunkHeaderRE = regexp.MustCompile(`^@@ -(\d+)(?:,(\d+))? \+(\d+)(?:,(\d+))? @@`)

// fileBuilder accumulates one FileDiff together with its running position
// counter while scanning.
type fileBuilder struct {
	file domain.FileDiff
	pos  int
}

// Parse parses raw unified-diff text into an ordered slice of FileDiffs.
//
// A "---"/"+++" header pair starts a new file; a "@@" header starts a new
// hunk and consumes one position. Context and added lines carry new-revision
// line numbers, context and removed lines carry old-revision line numbers.
// Lines beginning with '\' (no-newline markers) consume a position but carry
// no line number. Binary-file markers end hunk scanning for the current file
// with zero hunks recorded.
//
// An empty diff returns an empty result. A malformed hunk header or a hunk
// whose declared counts are not matched by the available lines returns a
// *ParseError.
func Parse(raw string) ([]domain.FileDiff, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}

	var (
		files       []domain.FileDiff
		current     *fileBuilder
		currentHunk *domain.Hunk
		oldRem      int // old-side lines still owed by the current hunk
		newRem      int
		oldLine     int
		newLine     int
		pendingOld  *string
	)

	closeHunk := func(lineNo int) error {
		if currentHunk == nil {
			return nil
		}
		if oldRem > 0 || newRem > 0 {
			return &ParseError{
				Line:   lineNo,
				Reason: fmt.Sprintf("truncated hunk: %d old and %d new line(s) missing", oldRem, newRem),
			}
		}
		current.file.Hunks = append(current.file.Hunks, *currentHunk)
		currentHunk = nil
		return nil
	}

	closeFile := func(lineNo int) error {
		if current == nil {
			return nil
		}
		if err := closeHunk(lineNo); err != nil {
			return err
		}
		files = append(files, current.file)
		current = nil
		return nil
	}

	lines := strings.Split(raw, "\n")
	for i, line := range lines {
		lineNo := i + 1
		inOpenHunk := currentHunk != nil && (oldRem > 0 || newRem > 0)

		if inOpenHunk {
			switch {
			case strings.HasPrefix(line, "\\"):
				// No-newline marker: consumes a position, carries no line number.
				current.pos++
			case strings.HasPrefix(line, "+"):
				current.pos++
				currentHunk.Lines = append(currentHunk.Lines, domain.Line{
					Kind:     domain.LineAdded,
					Content:  line[1:],
					Position: current.pos,
					NewLine:  IntPtr(newLine),
				})
				newLine++
				newRem--
			case strings.HasPrefix(line, "-"):
				current.pos++
				currentHunk.Lines = append(currentHunk.Lines, domain.Line{
					Kind:     domain.LineRemoved,
					Content:  line[1:],
					Position: current.pos,
					OldLine:  IntPtr(oldLine),
				})
				oldLine++
				oldRem--
			case strings.HasPrefix(line, " "), line == "":
				// Some producers strip the trailing space off empty context lines.
				content := line
				if content != "" {
					content = content[1:]
				}
				current.pos++
				currentHunk.Lines = append(currentHunk.Lines, domain.Line{
					Kind:     domain.LineContext,
					Content:  content,
					Position: current.pos,
					OldLine:  IntPtr(oldLine),
					NewLine:  IntPtr(newLine),
				})
				oldLine++
				newLine++
				oldRem--
				newRem--
			default:
				return nil, &ParseError{
					Line:   lineNo,
					Reason: fmt.Sprintf("truncated hunk: %d old and %d new line(s) missing", oldRem, newRem),
				}
			}
			continue
		}

		// Trailing no-newline marker after the hunk's declared lines.
		if strings.HasPrefix(line, "\\") && current != nil {
			current.pos++
			continue
		}

		if strings.HasPrefix(line, "@@") {
			if current == nil {
				return nil, &ParseError{Line: lineNo, Reason: "hunk header outside any file"}
			}
			pendingOld = nil
			if err := closeHunk(lineNo); err != nil {
				return nil, err
			}
			m := hunkHeaderRE.FindStringSubmatch(line)
			if m == nil {
				return nil, &ParseError{Line: lineNo, Reason: fmt.Sprintf("malformed hunk header %q", line)}
			}
			oldStart, oldCount := parseRange(m[1], m[2])
			newStart, newCount := parseRange(m[3], m[4])
			currentHunk = &domain.Hunk{
				OldStart: oldStart,
				OldLines: oldCount,
				NewStart: newStart,
				NewLines: newCount,
			}
			oldLine = oldStart
			newLine = newStart
			oldRem = oldCount
			newRem = newCount
			// The header itself occupies a position.
			current.pos++
			continue
		}

		if pendingOld != nil {
			if strings.HasPrefix(line, "+++ ") || line == "+++" {
				if err := closeFile(lineNo); err != nil {
					return nil, err
				}
				current = &fileBuilder{file: domain.FileDiff{
					OldPath: *pendingOld,
					NewPath: parseHeaderPath(line, "+++ ", "b/"),
				}}
				pendingOld = nil
				continue
			}
			// A lone "---" was not a file header after all.
			pendingOld = nil
		}

		if strings.HasPrefix(line, "--- ") {
			p := parseHeaderPath(line, "--- ", "a/")
			pendingOld = &p
			continue
		}

		if strings.HasPrefix(line, "Binary files ") || strings.HasPrefix(line, "GIT binary patch") {
			if current == nil {
				// "Binary files ..." appears without a ---/+++ pair; record
				// the file from the marker itself when the paths parse out.
				if oldP, newP, ok := parseBinaryMarker(line); ok {
					files = append(files, domain.FileDiff{
						OldPath:  oldP,
						NewPath:  newP,
						IsBinary: true,
					})
				}
				continue
			}
			current.file.IsBinary = true
			current.file.Hunks = nil
			currentHunk = nil
			oldRem, newRem = 0, 0
			continue
		}

		// Everything else (diff --git, index, mode and rename lines, preamble)
		// carries no positions.
	}

	if err := closeFile(len(lines)); err != nil {
		return nil, err
	}
	return files, nil
}

// parseHeaderPath extracts the path from a "--- a/path" or "+++ b/path"
// header line, dropping the revision prefix and any trailing timestamp.
// "/dev/null" (added or deleted files) maps to the empty string.
func parseHeaderPath(line, marker, revPrefix string) string {
	p := strings.TrimPrefix(line, marker)
	if idx := strings.IndexByte(p, '\t'); idx >= 0 {
		p = p[:idx]
	}
	p = strings.TrimSpace(p)
	if p == "/dev/null" {
		return ""
	}
	return strings.TrimPrefix(p, revPrefix)
}

// parseBinaryMarker extracts both paths from a
// "Binary files a/old and b/new differ" line.
func parseBinaryMarker(line string) (string, string, bool) {
	body := strings.TrimPrefix(line, "Binary files ")
	body = strings.TrimSuffix(body, " differ")
	if body == line {
		return "", "", false
	}
	idx := strings.Index(body, " and ")
	if idx < 0 {
		return "", "", false
	}
	oldP := parseHeaderPath(body[:idx], "", "a/")
	newP := parseHeaderPath(body[idx+len(" and "):], "", "b/")
	return oldP, newP, true
}

// parseRange converts the captured start and optional count of one side of a
// hunk header. A missing count means 1.
func parseRange(start, count string) (int, int) {
	s, _ := strconv.Atoi(start)
	if count == "" {
		return s, 1
	}
	c, _ := strconv.Atoi(count)
	return s, c
}

// IntPtr returns a pointer to the given int value.
// Exported for use in tests across packages.
func IntPtr(n int) *int {
	return &n
}
