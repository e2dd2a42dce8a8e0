package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/visionpr/reviewer/internal/adapter/cli"
	"github.com/visionpr/reviewer/internal/adapter/git"
	githubadapter "github.com/visionpr/reviewer/internal/adapter/github"
	"github.com/visionpr/reviewer/internal/adapter/httpx"
	"github.com/visionpr/reviewer/internal/adapter/llm"
	"github.com/visionpr/reviewer/internal/adapter/output/markdown"
	"github.com/visionpr/reviewer/internal/adapter/store/sqlite"
	"github.com/visionpr/reviewer/internal/config"
	"github.com/visionpr/reviewer/internal/extract"
	"github.com/visionpr/reviewer/internal/usecase/review"
	"github.com/visionpr/reviewer/internal/version"
)

// Adapters must keep satisfying the use case ports.
var (
	_ review.PullRequestSource = (*githubadapter.Client)(nil)
	_ review.Submitter         = (*githubadapter.Client)(nil)
	_ review.Provider          = (*llm.Client)(nil)
	_ review.Provider          = (*llm.StaticProvider)(nil)
	_ review.GitEngine         = (*git.Engine)(nil)
	_ review.MarkdownWriter    = (*markdown.Writer)(nil)
	_ review.Store             = (*sqlite.Store)(nil)
	_ review.Logger            = (*httpx.DefaultLogger)(nil)
)

func main() {
	if err := run(); err != nil {
		// Redact API keys from URLs in error messages before logging
		log.Println(httpx.RedactURLSecrets(err.Error()))
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(config.LoaderOptions{
		ConfigPaths: defaultConfigPaths(),
		FileName:    "vpr",
		EnvPrefix:   "VPR",
	})
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}

	logger := buildLogger(cfg.Observability.Logging)
	retryConf := httpx.ParseRetryConfig(cfg.HTTP.MaxRetries, cfg.HTTP.InitialBackoff, cfg.HTTP.MaxBackoff, cfg.HTTP.BackoffMultiplier)
	timeout := resolveTimeout(cfg.HTTP.Timeout)

	githubClient := githubadapter.NewClient(cfg.GitHub.Token)
	if cfg.GitHub.APIBaseURL != "" {
		githubClient.SetBaseURL(cfg.GitHub.APIBaseURL)
	}
	githubClient.SetTimeout(timeout)
	githubClient.SetRetryConfig(retryConf)
	if logger != nil {
		githubClient.SetLogger(logger)
	}

	provider := buildProvider(cfg, retryConf, logger)

	patternExprs := cfg.Review.CommentExtraction.Patterns
	if len(patternExprs) == 0 {
		patternExprs = extract.DefaultPatterns()
	}
	patterns, err := extract.CompilePatterns(patternExprs)
	if err != nil {
		return fmt.Errorf("invalid extraction patterns: %w", err)
	}

	repoDir := cfg.Git.RepositoryDir
	if repoDir == "" {
		repoDir = "."
	}
	gitEngine := git.NewEngine(repoDir)

	markdownWriter := markdown.NewWriter(func() string {
		return time.Now().UTC().Format("20060102T150405Z")
	})

	var reviewStore review.Store
	var runLister cli.RunLister
	if cfg.Store.Enabled {
		storeDir := filepath.Dir(cfg.Store.Path)
		if err := os.MkdirAll(storeDir, 0o755); err != nil {
			log.Printf("warning: failed to create store directory: %v", err)
		} else {
			sqliteStore, err := sqlite.NewStore(cfg.Store.Path)
			if err != nil {
				log.Printf("warning: failed to initialize store: %v", err)
			} else {
				defer sqliteStore.Close()
				reviewStore = sqliteStore
				runLister = sqliteStore
			}
		}
	}

	var reviewLogger review.Logger
	if logger != nil {
		reviewLogger = logger
	}

	orchestrator := review.NewOrchestrator(review.OrchestratorDeps{
		Source:    githubClient,
		Submitter: githubClient,
		Provider:  provider,
		Git:       gitEngine,
		Markdown:  markdownWriter,
		Store:     reviewStore,
		Logger:    reviewLogger,
		Patterns:  patterns,
		Aggregate: review.AggregateConfig{
			LineComments:           cfg.Review.LineComments,
			SplitComments:          cfg.Review.SplitComments,
			IncludeSummary:         cfg.Review.IncludeSummary,
			IncludeOverview:        cfg.Review.IncludeOverview,
			IncludeRecommendations: cfg.Review.IncludeRecommendations,
		},
	})

	root := cli.NewRootCommand(cli.Dependencies{
		PullRequests:      orchestrator,
		Local:             orchestrator,
		Branches:          gitEngine,
		Runs:              runLister,
		DefaultOutput:     cfg.Output.Directory,
		DefaultRepo:       cfg.GitHub.Repository,
		DefaultFocusAreas: cfg.Review.FocusAreas,
		Version:           version.Value(),
	})

	if err := root.ExecuteContext(ctx); err != nil {
		if errors.Is(err, cli.ErrVersionRequested) {
			return nil
		}
		if errors.Is(err, cli.ErrAborted) {
			fmt.Fprintln(os.Stderr, "aborted")
			return nil
		}
		return fmt.Errorf("command failed: %w", err)
	}
	return nil
}

// buildLogger creates the structured logger, or nil when logging is disabled.
func buildLogger(cfg config.LoggingConfig) *httpx.DefaultLogger {
	if !cfg.Enabled {
		return nil
	}
	return httpx.NewDefaultLogger(
		httpx.ParseLogLevel(cfg.Level),
		httpx.ParseLogFormat(cfg.Format),
		cfg.RedactAPIKeys,
	)
}

// buildProvider selects the model client from configuration. A missing API
// key degrades to the static provider so local wiring still works end to end.
func buildProvider(cfg config.Config, retryConf httpx.RetryConfig, logger httpx.Logger) review.Provider {
	name := cfg.Provider.Name
	if name == "static" {
		return llm.NewStaticProvider(cfg.Provider.Model)
	}
	if cfg.Provider.APIKey == "" {
		log.Printf("%s: no API key provided, using static provider", name)
		return llm.NewStaticProvider(cfg.Provider.Model)
	}

	client := llm.NewClient(name, cfg.Provider.Endpoint, cfg.Provider.Model, cfg.Provider.APIKey)
	client.SetRetryConfig(retryConf)
	if logger != nil {
		client.SetLogger(logger)
	}
	return client
}

// resolveTimeout parses the configured HTTP timeout, defaulting to 60s.
func resolveTimeout(raw string) time.Duration {
	if d, err := time.ParseDuration(raw); err == nil && d > 0 {
		return d
	}
	return 60 * time.Second
}

func defaultConfigPaths() []string {
	paths := []string{"."}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "vpr"))
	}
	return paths
}
