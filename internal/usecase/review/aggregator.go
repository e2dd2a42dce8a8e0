package review

import (
	"strings"

	"github.com/visionpr/reviewer/internal/domain"
)

// AggregateConfig selects how validated comments and overview text are
// packaged into submissions.
type AggregateConfig struct {
	// LineComments enables inline comments. When false the comments are
	// dropped and only the overview is submitted.
	LineComments bool
	// SplitComments emits the overview and the inline comments as two
	// separate submissions, so a failure on one does not block the other.
	SplitComments bool

	// Section filters over the overview text. Sections are located by their
	// markdown headings and retained verbatim.
	IncludeSummary         bool
	IncludeOverview        bool
	IncludeRecommendations bool
}

// Aggregate packages the extraction output into one or more submissions.
//
// It consumes only already-validated comments, so every (path, position)
// pair it emits is guaranteed to exist in the diff the comments were
// extracted from. A run with zero comments still yields an overview-only
// submission.
func Aggregate(overview string, comments []domain.ValidatedComment, commitSHA string, cfg AggregateConfig) []domain.ReviewSubmission {
	body := BuildOverviewBody(overview, cfg)

	kept := make([]domain.ValidatedComment, 0, len(comments))
	if cfg.LineComments {
		kept = append(kept, comments...)
	}

	if len(kept) == 0 {
		return []domain.ReviewSubmission{{Body: body, CommitSHA: commitSHA}}
	}

	if cfg.SplitComments {
		subs := make([]domain.ReviewSubmission, 0, 2)
		if body != "" {
			subs = append(subs, domain.ReviewSubmission{Body: body, CommitSHA: commitSHA})
		}
		subs = append(subs, domain.ReviewSubmission{Comments: kept, CommitSHA: commitSHA})
		return subs
	}

	return []domain.ReviewSubmission{{Body: body, Comments: kept, CommitSHA: commitSHA}}
}

// BuildOverviewBody applies the section filters to the overview text.
// Text with no recognized section headings passes through verbatim; sectioned
// text is reassembled in a fixed order with disabled sections removed.
func BuildOverviewBody(overview string, cfg AggregateConfig) string {
	s := splitSections(overview)
	if !s.labeled {
		return strings.TrimSpace(overview)
	}

	var parts []string
	if p := strings.TrimSpace(s.preamble); p != "" {
		parts = append(parts, p)
	}
	if cfg.IncludeSummary && s.summary != "" {
		parts = append(parts, s.summary)
	}
	if cfg.IncludeOverview && s.overview != "" {
		parts = append(parts, s.overview)
	}
	if cfg.IncludeRecommendations && s.recommendations != "" {
		parts = append(parts, s.recommendations)
	}
	return strings.Join(parts, "\n\n")
}

type sections struct {
	preamble        string
	summary         string
	overview        string
	recommendations string
	labeled         bool
}

const (
	bucketPreamble = iota
	bucketSummary
	bucketOverview
	bucketRecommendations
	bucketDiscard
)

// splitSections walks the overview line by line, routing each recognized
// "## " section into its bucket. Unrecognized sections are discarded once
// any recognized heading has been seen.
func splitSections(text string) sections {
	var s sections
	buckets := make(map[int][]string)
	current := bucketPreamble

	for _, line := range strings.Split(text, "\n") {
		if title, ok := headingTitle(line); ok {
			switch canonicalSection(title) {
			case "summary":
				current = bucketSummary
				s.labeled = true
			case "overview":
				current = bucketOverview
				s.labeled = true
			case "recommendations":
				current = bucketRecommendations
				s.labeled = true
			default:
				current = bucketDiscard
			}
		}
		buckets[current] = append(buckets[current], line)
	}

	s.preamble = strings.TrimSpace(strings.Join(buckets[bucketPreamble], "\n"))
	s.summary = strings.TrimSpace(strings.Join(buckets[bucketSummary], "\n"))
	s.overview = strings.TrimSpace(strings.Join(buckets[bucketOverview], "\n"))
	s.recommendations = strings.TrimSpace(strings.Join(buckets[bucketRecommendations], "\n"))
	return s
}

func headingTitle(line string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "#") {
		return "", false
	}
	title := strings.TrimLeft(trimmed, "#")
	if title == trimmed || !strings.HasPrefix(title, " ") {
		return "", false
	}
	return strings.TrimSpace(title), true
}

func canonicalSection(title string) string {
	switch strings.ToLower(strings.TrimSpace(title)) {
	case "summary":
		return "summary"
	case "overview", "overview of changes":
		return "overview"
	case "recommendations", "next steps":
		return "recommendations"
	default:
		return ""
	}
}
