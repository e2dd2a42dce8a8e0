// Package cli wires the review use case into a Cobra command tree.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/visionpr/reviewer/internal/usecase/review"
)

// ErrVersionRequested indicates the user requested the CLI version and no further work should be done.
var ErrVersionRequested = errors.New("version requested")

// ErrAborted indicates the user declined the confirmation prompt.
var ErrAborted = errors.New("aborted")

// PullRequestReviewer defines the dependency required to run the pr command.
type PullRequestReviewer interface {
	ReviewPullRequest(ctx context.Context, req review.PullRequestRequest) (*review.Result, error)
}

// LocalReviewer defines the dependency required to run the local command.
type LocalReviewer interface {
	ReviewLocal(ctx context.Context, req review.LocalRequest) (*review.Result, error)
}

// BranchDetector resolves the checked-out branch for local runs.
type BranchDetector interface {
	CurrentBranch(ctx context.Context) (string, error)
}

// RunLister reads back persisted run diagnostics.
type RunLister interface {
	ListRuns(ctx context.Context, limit int) ([]review.RunRecord, error)
}

// Arguments encapsulates IO streams injected from the host process.
type Arguments struct {
	InReader  io.Reader
	OutWriter io.Writer
	ErrWriter io.Writer
}

// Dependencies captures the collaborators for the CLI.
type Dependencies struct {
	PullRequests      PullRequestReviewer
	Local             LocalReviewer
	Branches          BranchDetector
	Runs              RunLister
	Args              Arguments
	DefaultOutput     string
	DefaultRepo       string // "owner/name", typically from config or GITHUB_REPOSITORY
	DefaultFocusAreas []string
	Version           string
}

// NewRootCommand constructs the root Cobra command.
func NewRootCommand(deps Dependencies) *cobra.Command {
	versionString := deps.Version
	if versionString == "" {
		versionString = "v0.0.0"
	}

	root := &cobra.Command{
		Use:   "vpr",
		Short: "AI pull request review CLI",
	}
	root.SilenceUsage = true
	root.SilenceErrors = true

	outWriter := deps.Args.OutWriter
	if outWriter == nil {
		outWriter = os.Stdout
	}
	errWriter := deps.Args.ErrWriter
	if errWriter == nil {
		errWriter = os.Stderr
	}
	root.SetOut(outWriter)
	root.SetErr(errWriter)
	if deps.Args.InReader != nil {
		root.SetIn(deps.Args.InReader)
	}

	reviewCmd := &cobra.Command{
		Use:   "review",
		Short: "Run a code review",
	}
	reviewCmd.AddCommand(prCommand(deps))
	reviewCmd.AddCommand(localCommand(deps))
	root.AddCommand(reviewCmd)
	root.AddCommand(runsCommand(deps))

	var showVersion bool
	root.PersistentFlags().BoolVarP(&showVersion, "version", "v", false, "Show version and exit")
	versionHandler := func(cmd *cobra.Command, args []string) error {
		if showVersion {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), versionString)
			return ErrVersionRequested
		}
		return nil
	}
	root.PersistentPreRunE = versionHandler
	root.PreRunE = versionHandler
	root.RunE = func(cmd *cobra.Command, args []string) error {
		if err := versionHandler(cmd, args); err != nil {
			return err
		}
		return cmd.Help()
	}

	return root
}

func prCommand(deps Dependencies) *cobra.Command {
	var repository string
	var number int
	var focusAreas []string
	var yes bool

	cmd := &cobra.Command{
		Use:   "pr [number]",
		Short: "Review a pull request and post inline comments",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if len(args) > 0 {
				parsed, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid pull request number %q", args[0])
				}
				number = parsed
			}
			if number <= 0 {
				number = pullNumberFromEnv()
			}
			if number <= 0 {
				return fmt.Errorf("pull request number not specified; pass as an argument or use --number")
			}

			owner, repo, err := splitRepository(repository)
			if err != nil {
				return err
			}

			if !yes && review.IsInteractive() {
				ok, err := confirm(cmd, fmt.Sprintf("Post review to %s/%s#%d? [y/N] ", owner, repo, number))
				if err != nil {
					return err
				}
				if !ok {
					return ErrAborted
				}
			}

			result, err := deps.PullRequests.ReviewPullRequest(ctx, review.PullRequestRequest{
				Owner:      owner,
				Repo:       repo,
				Number:     number,
				FocusAreas: resolveFocusAreas(focusAreas, deps.DefaultFocusAreas),
			})
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(),
				"posted %d submission(s) with %d inline comment(s) to %s/%s#%d\n",
				len(result.Submissions), inlineComments(result), owner, repo, number)
			reportDrops(cmd, result)
			return nil
		},
	}

	cmd.Flags().StringVar(&repository, "repository", deps.DefaultRepo, "Repository as owner/name")
	cmd.Flags().IntVar(&number, "number", 0, "Pull request number (overrides positional)")
	cmd.Flags().StringSliceVar(&focusAreas, "focus", []string{}, "Focus areas to emphasize in the review prompt")
	cmd.Flags().BoolVar(&yes, "yes", false, "Post without asking for confirmation")

	return cmd
}

func localCommand(deps Dependencies) *cobra.Command {
	var baseRef string
	var targetRef string
	var outputDir string
	var repository string
	var focusAreas []string
	var detectTarget bool

	cmd := &cobra.Command{
		Use:   "local [target]",
		Short: "Review a local branch and write a Markdown report",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if len(args) > 0 {
				targetRef = args[0]
			}
			if targetRef == "" && detectTarget {
				if deps.Branches == nil {
					return fmt.Errorf("target branch detection unavailable")
				}
				resolved, err := deps.Branches.CurrentBranch(ctx)
				if err != nil {
					return fmt.Errorf("detect target branch: %w", err)
				}
				targetRef = resolved
			}
			if targetRef == "" {
				return fmt.Errorf("target branch not specified; pass as an argument, use --target, or disable --detect-target")
			}

			result, err := deps.Local.ReviewLocal(ctx, review.LocalRequest{
				BaseRef:    baseRef,
				TargetRef:  targetRef,
				Repository: repository,
				OutputDir:  outputDir,
				FocusAreas: resolveFocusAreas(focusAreas, deps.DefaultFocusAreas),
			})
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "review written to %s\n", result.ArtifactPath)
			reportDrops(cmd, result)
			return nil
		},
	}

	cmd.Flags().StringVar(&baseRef, "base", "main", "Base reference to diff against")
	cmd.Flags().StringVar(&targetRef, "target", "", "Target branch to review (overrides positional)")
	defaultOutput := deps.DefaultOutput
	if defaultOutput == "" {
		defaultOutput = "out"
	}
	cmd.Flags().StringVar(&outputDir, "output", defaultOutput, "Directory to write review artifacts")
	cmd.Flags().StringVar(&repository, "repository", deps.DefaultRepo, "Optional repository name override")
	cmd.Flags().StringSliceVar(&focusAreas, "focus", []string{}, "Focus areas to emphasize in the review prompt")
	cmd.Flags().BoolVar(&detectTarget, "detect-target", true, "Automatically detect the checked out branch when no target is provided")

	return cmd
}

func runsCommand(deps Dependencies) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recent review runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if deps.Runs == nil {
				return fmt.Errorf("run store is disabled")
			}
			recs, err := deps.Runs.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(recs) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no runs recorded")
				return nil
			}
			for _, rec := range recs {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  %-10s  %-20s  comments=%d rejected=%d\n",
					rec.RunID,
					rec.StartedAt.Format("2006-01-02 15:04:05"),
					rec.State,
					rec.Target,
					rec.Comments,
					rec.Rejections,
				)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to list")

	return cmd
}

// confirm prompts on stdout and reads a single line answer.
func confirm(cmd *cobra.Command, prompt string) (bool, error) {
	_, _ = fmt.Fprint(cmd.OutOrStdout(), prompt)
	reader := bufio.NewReader(cmd.InOrStdin())
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return false, nil
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}

// splitRepository splits "owner/name" into its parts.
func splitRepository(repository string) (string, string, error) {
	parts := strings.Split(strings.TrimSpace(repository), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("repository must be owner/name, got %q", repository)
	}
	return parts[0], parts[1], nil
}

// pullNumberFromEnv resolves the PR number from the Actions environment:
// GITHUB_EVENT_NUMBER when exported by the workflow, otherwise the
// GITHUB_REF pull ref.
func pullNumberFromEnv() int {
	if raw := os.Getenv("GITHUB_EVENT_NUMBER"); raw != "" {
		if number, err := strconv.Atoi(raw); err == nil && number > 0 {
			return number
		}
	}
	return pullNumberFromRef(os.Getenv("GITHUB_REF"))
}

// pullNumberFromRef extracts the PR number from an Actions ref such as
// "refs/pull/42/merge". Returns 0 when the ref is not a pull ref.
func pullNumberFromRef(ref string) int {
	const prefix = "refs/pull/"
	if !strings.HasPrefix(ref, prefix) {
		return 0
	}
	rest := strings.TrimPrefix(ref, prefix)
	idx := strings.Index(rest, "/")
	if idx < 0 {
		return 0
	}
	number, err := strconv.Atoi(rest[:idx])
	if err != nil || number <= 0 {
		return 0
	}
	return number
}

// resolveFocusAreas returns the override values if non-empty, otherwise the defaults.
func resolveFocusAreas(override, defaults []string) []string {
	if len(override) > 0 {
		return override
	}
	return defaults
}

func inlineComments(result *review.Result) int {
	total := 0
	for _, sub := range result.Submissions {
		total += len(sub.Comments)
	}
	return total
}

func reportDrops(cmd *cobra.Command, result *review.Result) {
	if result.Rejections > 0 {
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "warning: %d comment(s) referenced lines outside the diff and were dropped\n", result.Rejections)
	}
	if result.Warnings > 0 {
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "warning: %d comment candidate(s) could not be resolved\n", result.Warnings)
	}
}
