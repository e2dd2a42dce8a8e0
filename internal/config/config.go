package config

// Config represents the full application configuration.
type Config struct {
	Provider      ProviderConfig      `yaml:"provider"`
	GitHub        GitHubConfig        `yaml:"github"`
	HTTP          HTTPConfig          `yaml:"http"`
	Review        ReviewConfig        `yaml:"review"`
	Git           GitConfig           `yaml:"git"`
	Output        OutputConfig        `yaml:"output"`
	Store         StoreConfig         `yaml:"store"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ProviderConfig configures the LLM provider endpoint.
type ProviderConfig struct {
	// Name selects the request/auth dialect: "openai", "anthropic", or
	// "static" for offline runs.
	Name     string `yaml:"name"`
	Endpoint string `yaml:"endpoint"`
	Model    string `yaml:"model"`
	APIKey   string `yaml:"apiKey"`
}

// GitHubConfig configures access to the source-control host.
type GitHubConfig struct {
	Token string `yaml:"token"`
	// Repository is "owner/name". Falls back to GITHUB_REPOSITORY when unset,
	// so the tool works unconfigured inside GitHub Actions.
	Repository string `yaml:"repository"`
	APIBaseURL string `yaml:"apiBaseURL"`
}

// HTTPConfig holds global HTTP client settings.
type HTTPConfig struct {
	Timeout           string  `yaml:"timeout"`
	MaxRetries        int     `yaml:"maxRetries"`
	InitialBackoff    string  `yaml:"initialBackoff"`
	MaxBackoff        string  `yaml:"maxBackoff"`
	BackoffMultiplier float64 `yaml:"backoffMultiplier"`
}

// ReviewConfig configures review behavior and comment packaging.
type ReviewConfig struct {
	FocusAreas []string `yaml:"focusAreas"`

	// LineComments enables inline comments; when false only the overview is
	// submitted.
	LineComments bool `yaml:"lineComments"`
	// SplitComments submits the overview and the inline comments separately.
	SplitComments bool `yaml:"splitComments"`

	IncludeSummary         bool `yaml:"includeSummary"`
	IncludeOverview        bool `yaml:"includeOverview"`
	IncludeRecommendations bool `yaml:"includeRecommendations"`

	CommentExtraction CommentExtractionConfig `yaml:"commentExtraction"`
}

// CommentExtractionConfig overrides the built-in extraction patterns.
// Each pattern must declare exactly two capture groups: file token, line
// token. An empty list keeps the defaults.
type CommentExtractionConfig struct {
	Patterns []string `yaml:"patterns"`
}

type GitConfig struct {
	RepositoryDir string `yaml:"repositoryDir"`
}

type OutputConfig struct {
	Directory string `yaml:"directory"`
}

// StoreConfig configures the run diagnostics store.
type StoreConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// ObservabilityConfig configures logging.
type ObservabilityConfig struct {
	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Level         string `yaml:"level"`  // debug, info, error
	Format        string `yaml:"format"` // json, human
	RedactAPIKeys bool   `yaml:"redactAPIKeys"`
}
