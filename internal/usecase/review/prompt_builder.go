package review

import (
	"fmt"
	"strings"

	"github.com/visionpr/reviewer/internal/domain"
)

// PromptInput carries everything the prompt needs about one pull request.
type PromptInput struct {
	Title        string
	Description  string
	FocusAreas   []string
	ChangedFiles []domain.ChangedFile
	Diff         string
}

// BuildPrompt renders the review prompt for the model. The anchor format it
// asks for ("In <file>, line <N>:") is the highest-priority extraction
// pattern, so well-behaved model output round-trips directly into inline
// comments.
func BuildPrompt(in PromptInput) string {
	var b strings.Builder

	b.WriteString("You are an experienced software engineer reviewing a pull request.\n\n")

	if in.Title != "" {
		fmt.Fprintf(&b, "Pull request: %s\n", in.Title)
	}
	if in.Description != "" {
		fmt.Fprintf(&b, "Description:\n%s\n", in.Description)
	}
	b.WriteString("\n")

	if len(in.FocusAreas) > 0 {
		b.WriteString("Focus your review on:\n")
		for _, area := range in.FocusAreas {
			fmt.Fprintf(&b, "- %s\n", area)
		}
		b.WriteString("\n")
	}

	if len(in.ChangedFiles) > 0 {
		b.WriteString("Changed files:\n")
		for _, f := range in.ChangedFiles {
			fmt.Fprintf(&b, "- %s (%s, +%d -%d)\n", f.Filename, f.Status, f.Additions, f.Deletions)
		}
		b.WriteString("\n")
	}

	b.WriteString("Start with a short overall assessment under a \"## Summary\" heading.\n")
	b.WriteString("Then give line-specific feedback. Anchor every line comment exactly as:\n\n")
	b.WriteString("In <file path>, line <line number in the new revision>: <comment>\n\n")
	b.WriteString("Only comment on lines that appear in the diff below. ")
	b.WriteString("Close with a \"## Recommendations\" section if you have broader suggestions.\n\n")

	b.WriteString("Diff:\n```diff\n")
	b.WriteString(strings.TrimRight(in.Diff, "\n"))
	b.WriteString("\n```\n")

	return b.String()
}
