// Package markdown renders local-mode reviews into Markdown files.
package markdown

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/visionpr/reviewer/internal/usecase/review"
)

type clock func() string

// Writer persists review artifacts to disk. It implements the review use
// case's MarkdownWriter port.
type Writer struct {
	now clock
}

// NewWriter constructs a Markdown writer with a timestamp supplier.
func NewWriter(now clock) *Writer {
	return &Writer{now: now}
}

// Write renders the artifact and writes it under the artifact's output
// directory, returning the path of the file written.
func (w *Writer) Write(ctx context.Context, artifact review.ReviewArtifact) (string, error) {
	if err := os.MkdirAll(artifact.OutputDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	filename := fmt.Sprintf("%s_%s_%s_%s.md",
		sanitise(artifact.Repository),
		sanitise(artifact.TargetRef),
		sanitise(artifact.Provider),
		w.now(),
	)
	path := filepath.Join(artifact.OutputDir, filename)

	content := buildContent(artifact)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("write markdown: %w", err)
	}

	return path, nil
}

func buildContent(artifact review.ReviewArtifact) string {
	var builder strings.Builder
	caser := cases.Title(language.English)

	builder.WriteString("# Code Review Report\n\n")
	builder.WriteString(fmt.Sprintf("- Provider: %s\n", caser.String(artifact.Provider)))
	builder.WriteString(fmt.Sprintf("- Base: %s\n", artifact.BaseRef))
	builder.WriteString(fmt.Sprintf("- Target: %s\n", artifact.TargetRef))
	builder.WriteString(fmt.Sprintf("- Created: %s\n\n", artifact.CreatedAt.Format("2006-01-02 15:04:05 MST")))

	overview := strings.TrimSpace(artifact.Overview)
	if overview != "" {
		builder.WriteString(overview)
		builder.WriteString("\n\n")
	}

	if len(artifact.Comments) == 0 {
		builder.WriteString("No inline comments anchored.\n")
		return builder.String()
	}

	builder.WriteString("## Inline Comments\n\n")
	for _, path := range commentPaths(artifact) {
		builder.WriteString(fmt.Sprintf("### %s\n\n", path))
		for _, comment := range artifact.Comments {
			if comment.Path != path {
				continue
			}
			builder.WriteString(fmt.Sprintf("- Position %d: %s\n", comment.Position, strings.TrimSpace(comment.Body)))
		}
		builder.WriteString("\n")
	}

	return builder.String()
}

// commentPaths returns the distinct comment paths in sorted order.
func commentPaths(artifact review.ReviewArtifact) []string {
	seen := make(map[string]bool)
	var paths []string
	for _, comment := range artifact.Comments {
		if seen[comment.Path] {
			continue
		}
		seen[comment.Path] = true
		paths = append(paths, comment.Path)
	}
	sort.Strings(paths)
	return paths
}

func sanitise(value string) string {
	if value == "" {
		return "unknown"
	}
	value = strings.ToLower(value)
	value = strings.ReplaceAll(value, string(filepath.Separator), "-")
	value = strings.ReplaceAll(value, " ", "-")
	return value
}
