package review

import (
	"context"
	"fmt"
	"time"

	"github.com/visionpr/reviewer/internal/diff"
	"github.com/visionpr/reviewer/internal/domain"
	"github.com/visionpr/reviewer/internal/extract"
)

// maxBodyLength is the hard ceiling the host imposes on comment bodies
// (65536, minus headroom for the truncation marker).
const maxBodyLength = 65000

const truncationMarker = "\n\n*(Comment truncated due to length)*"

// PullRequest is the metadata the orchestrator needs about the PR under
// review.
type PullRequest struct {
	Title       string
	Description string
	HeadSHA     string
}

// PullRequestSource fetches PR metadata, the raw diff, and the changed-file
// listing from the host.
type PullRequestSource interface {
	GetPullRequest(ctx context.Context, owner, repo string, number int) (PullRequest, error)
	GetDiff(ctx context.Context, owner, repo string, number int) (string, error)
	ListChangedFiles(ctx context.Context, owner, repo string, number int) ([]domain.ChangedFile, error)
}

// Submitter posts one review submission to the host. Each submission is
// atomic: either the whole payload lands or none of it does.
type Submitter interface {
	SubmitReview(ctx context.Context, owner, repo string, number int, sub domain.ReviewSubmission) error
}

// Provider is the outbound port for the language model.
type Provider interface {
	Name() string
	Review(ctx context.Context, prompt string) (string, error)
}

// GitEngine produces a unified diff from a local repository, for review runs
// that never touch the host.
type GitEngine interface {
	CumulativeDiff(ctx context.Context, baseRef, targetRef string) (string, error)
}

// ReviewArtifact is the local-mode output payload.
type ReviewArtifact struct {
	OutputDir  string
	Repository string
	BaseRef    string
	TargetRef  string
	Provider   string
	Overview   string
	Comments   []domain.ValidatedComment
	CreatedAt  time.Time
}

// MarkdownWriter persists a local-mode review to disk.
type MarkdownWriter interface {
	Write(ctx context.Context, artifact ReviewArtifact) (string, error)
}

// RunRecord is the per-run diagnostics row persisted by the Store.
type RunRecord struct {
	RunID       string
	StartedAt   time.Time
	Target      string
	Provider    string
	State       string
	Candidates  int
	Comments    int
	Warnings    int
	Rejections  int
	Duplicates  int
	Submissions int
	Error       string
}

// Store persists run diagnostics. Optional; a nil store disables persistence.
type Store interface {
	SaveRun(ctx context.Context, rec RunRecord) error
}

// OrchestratorDeps captures the orchestrator's outbound dependencies.
// Source and Submitter are required for PR runs, Git and Markdown for local
// runs; Store and Logger are optional everywhere.
type OrchestratorDeps struct {
	Source    PullRequestSource
	Submitter Submitter
	Provider  Provider
	Git       GitEngine
	Markdown  MarkdownWriter
	Store     Store
	Logger    Logger
	Patterns  []extract.Pattern
	Aggregate AggregateConfig
}

// PullRequestRequest identifies one PR review run.
type PullRequestRequest struct {
	Owner      string
	Repo       string
	Number     int
	FocusAreas []string
}

// LocalRequest identifies one local review run.
type LocalRequest struct {
	BaseRef    string
	TargetRef  string
	Repository string
	OutputDir  string
	FocusAreas []string
}

// Result captures the outcome of one run.
type Result struct {
	State       domain.RunState
	Submissions []domain.ReviewSubmission
	Candidates  int
	Warnings    int
	Rejections  int
	Duplicates  int
	// ArtifactPath is set for local runs.
	ArtifactPath string
}

// Orchestrator drives one review run through its stages: parse the diff,
// obtain the model review, extract and validate comments, aggregate, submit.
type Orchestrator struct {
	deps OrchestratorDeps
}

// NewOrchestrator wires the orchestrator dependencies.
func NewOrchestrator(deps OrchestratorDeps) *Orchestrator {
	return &Orchestrator{deps: deps}
}

// ReviewPullRequest runs the full pipeline against a hosted pull request.
// A diff that fails to parse aborts the run before the model or the
// submission endpoint is called; every later stage drops individual
// candidates instead of aborting.
func (o *Orchestrator) ReviewPullRequest(ctx context.Context, req PullRequestRequest) (*Result, error) {
	run := domain.NewRun()
	rec := o.newRecord(fmt.Sprintf("%s/%s#%d", req.Owner, req.Repo, req.Number))

	pr, err := o.deps.Source.GetPullRequest(ctx, req.Owner, req.Repo, req.Number)
	if err != nil {
		return nil, fmt.Errorf("fetch pull request: %w", err)
	}
	rawDiff, err := o.deps.Source.GetDiff(ctx, req.Owner, req.Repo, req.Number)
	if err != nil {
		return nil, fmt.Errorf("fetch diff: %w", err)
	}
	changed, err := o.deps.Source.ListChangedFiles(ctx, req.Owner, req.Repo, req.Number)
	if err != nil {
		// The listing only enriches the prompt; review the diff without it.
		o.logWarning(ctx, "listing changed files failed", map[string]interface{}{"error": err.Error()})
		changed = nil
	}

	resolver, err := o.parseDiff(ctx, run, &rec, rawDiff)
	if err != nil {
		return nil, err
	}

	prompt := BuildPrompt(PromptInput{
		Title:        pr.Title,
		Description:  pr.Description,
		FocusAreas:   req.FocusAreas,
		ChangedFiles: changed,
		Diff:         rawDiff,
	})
	reviewText, err := o.deps.Provider.Review(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("model review: %w", err)
	}

	res, subs := o.extractAndAggregate(ctx, run, reviewText, resolver, pr.HeadSHA)

	for i, sub := range subs {
		if err := o.deps.Submitter.SubmitReview(ctx, req.Owner, req.Repo, req.Number, sub); err != nil {
			rec.Error = err.Error()
			o.saveRecord(ctx, rec, run, res, i)
			return nil, fmt.Errorf("submit review %d of %d: %w", i+1, len(subs), err)
		}
		o.logInfo(ctx, "review submitted", map[string]interface{}{
			"pr":       req.Number,
			"comments": len(sub.Comments),
		})
	}

	_ = run.Advance(domain.StateSubmitted)
	o.saveRecord(ctx, rec, run, res, len(subs))
	return o.result(run, res, subs, ""), nil
}

// ReviewLocal runs the pipeline against a local repository and writes the
// outcome to a markdown artifact instead of submitting it.
func (o *Orchestrator) ReviewLocal(ctx context.Context, req LocalRequest) (*Result, error) {
	run := domain.NewRun()
	rec := o.newRecord(fmt.Sprintf("%s %s..%s", req.Repository, req.BaseRef, req.TargetRef))

	rawDiff, err := o.deps.Git.CumulativeDiff(ctx, req.BaseRef, req.TargetRef)
	if err != nil {
		return nil, fmt.Errorf("compute diff: %w", err)
	}

	resolver, err := o.parseDiff(ctx, run, &rec, rawDiff)
	if err != nil {
		return nil, err
	}

	prompt := BuildPrompt(PromptInput{
		Title:      fmt.Sprintf("%s..%s", req.BaseRef, req.TargetRef),
		FocusAreas: req.FocusAreas,
		Diff:       rawDiff,
	})
	reviewText, err := o.deps.Provider.Review(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("model review: %w", err)
	}

	res, subs := o.extractAndAggregate(ctx, run, reviewText, resolver, req.TargetRef)

	path, err := o.deps.Markdown.Write(ctx, ReviewArtifact{
		OutputDir:  req.OutputDir,
		Repository: req.Repository,
		BaseRef:    req.BaseRef,
		TargetRef:  req.TargetRef,
		Provider:   o.deps.Provider.Name(),
		Overview:   res.Overview,
		Comments:   res.Comments,
		CreatedAt:  time.Now().UTC(),
	})
	if err != nil {
		rec.Error = err.Error()
		o.saveRecord(ctx, rec, run, res, 0)
		return nil, fmt.Errorf("write artifact: %w", err)
	}

	_ = run.Advance(domain.StateSubmitted)
	o.saveRecord(ctx, rec, run, res, len(subs))
	return o.result(run, res, subs, path), nil
}

// parseDiff parses the raw diff, marking the run failed and persisting the
// record when the diff cannot be trusted.
func (o *Orchestrator) parseDiff(ctx context.Context, run *domain.Run, rec *RunRecord, rawDiff string) (*diff.Resolver, error) {
	files, err := diff.Parse(rawDiff)
	if err != nil {
		_ = run.Advance(domain.StateFailed)
		rec.State = run.State().String()
		rec.Error = err.Error()
		if o.deps.Store != nil {
			if serr := o.deps.Store.SaveRun(ctx, *rec); serr != nil {
				o.logWarning(ctx, "persisting run record failed", map[string]interface{}{"error": serr.Error()})
			}
		}
		return nil, err
	}
	_ = run.Advance(domain.StateDiffParsed)
	return diff.NewResolver(files), nil
}

// extractAndAggregate runs the pure middle of the pipeline and logs every
// dropped candidate.
func (o *Orchestrator) extractAndAggregate(ctx context.Context, run *domain.Run, reviewText string, resolver *diff.Resolver, commitSHA string) (extract.Result, []domain.ReviewSubmission) {
	res := extract.Extract(reviewText, o.deps.Patterns, resolver)
	_ = run.Advance(domain.StateCommentsExtracted)

	for _, w := range res.Warnings {
		o.logWarning(ctx, "comment candidate dropped", map[string]interface{}{"reason": w})
	}
	for _, r := range res.Rejections {
		o.logWarning(ctx, "comment candidate rejected", map[string]interface{}{"reason": r})
	}
	_ = run.Advance(domain.StateValidated)

	subs := Aggregate(res.Overview, res.Comments, commitSHA, o.deps.Aggregate)
	for i := range subs {
		subs[i].Body = truncateBody(subs[i].Body)
		for j := range subs[i].Comments {
			subs[i].Comments[j].Body = truncateBody(subs[i].Comments[j].Body)
		}
	}
	_ = run.Advance(domain.StateAggregated)
	return res, subs
}

func (o *Orchestrator) result(run *domain.Run, res extract.Result, subs []domain.ReviewSubmission, artifact string) *Result {
	return &Result{
		State:        run.State(),
		Submissions:  subs,
		Candidates:   res.Candidates,
		Warnings:     len(res.Warnings),
		Rejections:   len(res.Rejections),
		Duplicates:   res.Duplicates,
		ArtifactPath: artifact,
	}
}

func (o *Orchestrator) newRecord(target string) RunRecord {
	now := time.Now().UTC()
	rec := RunRecord{
		RunID:     fmt.Sprintf("run-%d", now.UnixNano()),
		StartedAt: now,
		Target:    target,
	}
	if o.deps.Provider != nil {
		rec.Provider = o.deps.Provider.Name()
	}
	return rec
}

func (o *Orchestrator) saveRecord(ctx context.Context, rec RunRecord, run *domain.Run, res extract.Result, submissions int) {
	if o.deps.Store == nil {
		return
	}
	rec.State = run.State().String()
	rec.Candidates = res.Candidates
	rec.Comments = len(res.Comments)
	rec.Warnings = len(res.Warnings)
	rec.Rejections = len(res.Rejections)
	rec.Duplicates = res.Duplicates
	rec.Submissions = submissions
	if err := o.deps.Store.SaveRun(ctx, rec); err != nil {
		o.logWarning(ctx, "persisting run record failed", map[string]interface{}{"error": err.Error()})
	}
}

func (o *Orchestrator) logInfo(ctx context.Context, msg string, fields map[string]interface{}) {
	if o.deps.Logger != nil {
		o.deps.Logger.LogInfo(ctx, msg, fields)
	}
}

func (o *Orchestrator) logWarning(ctx context.Context, msg string, fields map[string]interface{}) {
	if o.deps.Logger != nil {
		o.deps.Logger.LogWarning(ctx, msg, fields)
	}
}

// truncateBody enforces the host's comment length ceiling.
func truncateBody(s string) string {
	if len(s) <= maxBodyLength {
		return s
	}
	return s[:maxBodyLength] + truncationMarker
}
