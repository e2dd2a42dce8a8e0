// Package extract turns free-form review text into validated inline comment
// candidates. Model output has no guaranteed structure, so extraction is
// pattern driven and every candidate is checked against the diff before it
// may anchor a comment.
package extract

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/visionpr/reviewer/internal/diff"
	"github.com/visionpr/reviewer/internal/domain"
)

// Result is the outcome of one extraction pass. Warnings and Rejections
// describe dropped candidates; neither aborts the run.
type Result struct {
	Comments []domain.ValidatedComment
	// Overview is the text preceding the first pattern match, used as the
	// review summary body. If nothing matched it is the whole input.
	Overview string

	Candidates int
	Warnings   []string // unreadable file or line tokens
	Rejections []string // candidates that do not anchor to the diff
	Duplicates int
}

type span struct {
	start, end int
}

func overlaps(spans []span, start, end int) bool {
	for _, s := range spans {
		if start < s.end && end > s.start {
			return true
		}
	}
	return false
}

type match struct {
	span
	comment domain.ExtractedComment
}

// Extract scans reviewText with the given patterns in priority order and
// validates every candidate against the resolver. Identical inputs always
// produce identical results.
func Extract(reviewText string, patterns []Pattern, resolver *diff.Resolver) Result {
	var res Result
	if strings.TrimSpace(reviewText) == "" {
		return res
	}

	matches := collectMatches(reviewText, patterns)
	res.Candidates = len(matches)
	if len(matches) == 0 {
		res.Overview = strings.TrimSpace(reviewText)
		return res
	}
	res.Overview = strings.TrimSpace(reviewText[:matches[0].start])

	seen := make(map[string]bool)
	for i, m := range matches {
		m.comment.Body = bodyText(reviewText, m, matches, i)

		path, ok := resolvePath(m.comment.FileToken, resolver)
		if !ok {
			res.Warnings = append(res.Warnings,
				fmt.Sprintf("unresolvable file token %q (pattern %d)", m.comment.FileToken, m.comment.PatternID))
			continue
		}
		line, err := strconv.Atoi(strings.TrimSpace(m.comment.LineToken))
		if err != nil || line < 0 {
			res.Warnings = append(res.Warnings,
				fmt.Sprintf("non-numeric line token %q for %s (pattern %d)", m.comment.LineToken, path, m.comment.PatternID))
			continue
		}
		pos, ok := resolver.Resolve(path, line)
		if !ok {
			res.Rejections = append(res.Rejections,
				fmt.Sprintf("%s line %d is not addressable in the diff", path, line))
			continue
		}
		key := fmt.Sprintf("%s:%d", path, pos)
		if seen[key] {
			res.Duplicates++
			continue
		}
		seen[key] = true
		res.Comments = append(res.Comments, domain.ValidatedComment{
			Path:     path,
			Position: pos,
			Body:     m.comment.Body,
		})
	}
	return res
}

// collectMatches applies the patterns in priority order. A higher-priority
// pattern claims its span first; later patterns never match inside a claimed
// span, so one fragment is extracted at most once. The surviving matches are
// returned in document order.
func collectMatches(text string, patterns []Pattern) []match {
	var (
		accepted []match
		claimed  []span
	)
	for _, p := range patterns {
		for _, idx := range p.re.FindAllStringSubmatchIndex(text, -1) {
			if idx[2] < 0 || idx[4] < 0 {
				continue
			}
			if overlaps(claimed, idx[0], idx[1]) {
				continue
			}
			claimed = append(claimed, span{idx[0], idx[1]})
			accepted = append(accepted, match{
				span: span{idx[0], idx[1]},
				comment: domain.ExtractedComment{
					FileToken: normalizeFileToken(text[idx[2]:idx[3]]),
					LineToken: text[idx[4]:idx[5]],
					PatternID: p.ID,
				},
			})
		}
	}
	sort.Slice(accepted, func(i, j int) bool { return accepted[i].start < accepted[j].start })
	return accepted
}

// bodyText returns the comment body for match i: the text between the end of
// its anchor and the start of the next one, with a leading colon stripped.
func bodyText(text string, m match, matches []match, i int) string {
	end := len(text)
	if i+1 < len(matches) {
		end = matches[i+1].start
	}
	body := strings.TrimSpace(text[m.end:end])
	body = strings.TrimSpace(strings.TrimPrefix(body, ":"))
	return body
}

// normalizeFileToken strips the wrapping and phrase scaffolding models wrap
// around paths ("In file `src/app.go` at line"), then collapses redundant
// separators. The result is still just a token; resolvePath decides whether
// it names a real diff file.
func normalizeFileToken(token string) string {
	t := strings.TrimSpace(token)
	t = strings.Trim(t, "`'\"")

	lower := strings.ToLower(t)
	for _, prefix := range []string{"in file ", "in the file ", "file ", "in "} {
		if strings.HasPrefix(lower, prefix) {
			t = strings.TrimSpace(t[len(prefix):])
			lower = strings.ToLower(t)
		}
	}
	for _, suffix := range []string{" at line", " line"} {
		if strings.HasSuffix(lower, suffix) {
			t = strings.TrimSpace(t[:len(t)-len(suffix)])
			lower = strings.ToLower(t)
		}
	}

	t = strings.Trim(t, "`'\"")
	t = strings.TrimRight(t, ",.:;")
	for strings.Contains(t, "//") {
		t = strings.ReplaceAll(t, "//", "/")
	}
	t = strings.TrimPrefix(t, "./")
	return t
}

// resolvePath maps a normalized token onto the diff's file paths: an exact
// match wins, otherwise a suffix match that is unique among all diff paths.
// Ambiguous suffixes are never guessed.
func resolvePath(token string, resolver *diff.Resolver) (string, bool) {
	if token == "" {
		return "", false
	}
	if resolver.HasFile(token) {
		return token, true
	}
	var (
		found string
		n     int
	)
	for _, p := range resolver.Paths() {
		if strings.HasSuffix(p, "/"+token) {
			found = p
			n++
		}
	}
	if n == 1 {
		return found, true
	}
	return "", false
}
