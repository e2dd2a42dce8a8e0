package config

import (
	"os"
	"path/filepath"
	"testing"
)

func load(t *testing.T, dir string) Config {
	t.Helper()
	cfg, err := Load(LoaderOptions{ConfigPaths: []string{dir}})
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	return cfg
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "vpr.yaml"), []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return dir
}

func TestLoadDefaults(t *testing.T) {
	cfg := load(t, t.TempDir())

	if cfg.Provider.Name != "openai" || cfg.Provider.Model != "gpt-4o-mini" {
		t.Errorf("provider defaults = %+v", cfg.Provider)
	}
	if cfg.GitHub.APIBaseURL != "https://api.github.com" {
		t.Errorf("APIBaseURL = %q", cfg.GitHub.APIBaseURL)
	}
	if !cfg.Review.LineComments || cfg.Review.SplitComments {
		t.Errorf("review defaults = %+v", cfg.Review)
	}
	if !cfg.Review.IncludeSummary || !cfg.Review.IncludeOverview || !cfg.Review.IncludeRecommendations {
		t.Errorf("section defaults = %+v", cfg.Review)
	}
	if len(cfg.Review.CommentExtraction.Patterns) != 0 {
		t.Errorf("patterns default = %v, want empty (built-ins apply)", cfg.Review.CommentExtraction.Patterns)
	}
	if cfg.HTTP.Timeout != "60s" || cfg.HTTP.MaxRetries != 5 {
		t.Errorf("http defaults = %+v", cfg.HTTP)
	}
	if !cfg.Store.Enabled || cfg.Store.Path == "" {
		t.Errorf("store defaults = %+v", cfg.Store)
	}
	if cfg.Observability.Logging.Level != "info" || cfg.Observability.Logging.Format != "human" {
		t.Errorf("logging defaults = %+v", cfg.Observability.Logging)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := writeConfig(t, `
review:
  lineComments: false
  splitComments: true
  focusAreas:
    - security
    - performance
  commentExtraction:
    patterns:
      - '(\S+)@(\d+):'
github:
  repository: acme/widgets
provider:
  name: anthropic
  model: claude-sonnet-4-5
`)
	cfg := load(t, dir)

	if cfg.Review.LineComments || !cfg.Review.SplitComments {
		t.Errorf("review = %+v", cfg.Review)
	}
	if len(cfg.Review.FocusAreas) != 2 || cfg.Review.FocusAreas[0] != "security" {
		t.Errorf("FocusAreas = %v", cfg.Review.FocusAreas)
	}
	if len(cfg.Review.CommentExtraction.Patterns) != 1 {
		t.Errorf("Patterns = %v", cfg.Review.CommentExtraction.Patterns)
	}
	if cfg.GitHub.Repository != "acme/widgets" {
		t.Errorf("Repository = %q", cfg.GitHub.Repository)
	}
	if cfg.Provider.Name != "anthropic" || cfg.Provider.Model != "claude-sonnet-4-5" {
		t.Errorf("Provider = %+v", cfg.Provider)
	}
}

func TestLoadExpandsEnvVars(t *testing.T) {
	t.Setenv("TEST_VPR_KEY", "sk-secret")
	dir := writeConfig(t, `
provider:
  apiKey: ${TEST_VPR_KEY}
store:
  path: $TEST_VPR_KEY/db
`)
	cfg := load(t, dir)

	if cfg.Provider.APIKey != "sk-secret" {
		t.Errorf("APIKey = %q", cfg.Provider.APIKey)
	}
	if cfg.Store.Path != "sk-secret/db" {
		t.Errorf("Store.Path = %q", cfg.Store.Path)
	}
}

func TestLoadLeavesUnsetVarsAlone(t *testing.T) {
	dir := writeConfig(t, `
provider:
  apiKey: ${DEFINITELY_NOT_SET_ANYWHERE}
`)
	cfg := load(t, dir)
	if cfg.Provider.APIKey != "${DEFINITELY_NOT_SET_ANYWHERE}" {
		t.Errorf("APIKey = %q, want the literal kept", cfg.Provider.APIKey)
	}
}

func TestLoadGitHubActionsFallbacks(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "ghs_fallback")
	t.Setenv("GITHUB_REPOSITORY", "acme/from-env")

	cfg := load(t, t.TempDir())
	if cfg.GitHub.Token != "ghs_fallback" {
		t.Errorf("Token = %q, want the Actions fallback", cfg.GitHub.Token)
	}
	if cfg.GitHub.Repository != "acme/from-env" {
		t.Errorf("Repository = %q, want the Actions fallback", cfg.GitHub.Repository)
	}

	// An explicit value wins over the ambient environment.
	dir := writeConfig(t, "github:\n  repository: acme/explicit\n")
	cfg = load(t, dir)
	if cfg.GitHub.Repository != "acme/explicit" {
		t.Errorf("Repository = %q, want the configured value", cfg.GitHub.Repository)
	}
}

func TestLoadMalformedFile(t *testing.T) {
	dir := writeConfig(t, "review: [not: valid\n")
	if _, err := Load(LoaderOptions{ConfigPaths: []string{dir}}); err == nil {
		t.Fatal("Load accepted malformed YAML")
	}
}
