// Package diff parses unified multi-file diff text into position-numbered
// file diffs and resolves new-revision line numbers to diff positions.
//
// A position is the 1-based offset into one file's diff text, counting every
// "@@" hunk header and every content line of that file in document order.
// The comment-anchoring API addresses inline comments by position, not by
// file line number, so the numbering here must match the host's exactly:
// headers count, the counter runs continuously across hunks, and it is never
// reset within a file.
package diff
