package config

// Merge combines multiple configuration instances, prioritising the latter ones.
func Merge(configs ...Config) Config {
	result := Config{}
	for _, cfg := range configs {
		result = merge(result, cfg)
	}
	return result
}

func merge(base, overlay Config) Config {
	result := base

	result.Provider = chooseProvider(base.Provider, overlay.Provider)
	result.GitHub = chooseGitHub(base.GitHub, overlay.GitHub)
	result.HTTP = chooseHTTP(base.HTTP, overlay.HTTP)
	result.Review = chooseReview(base.Review, overlay.Review)
	result.Git = chooseGit(base.Git, overlay.Git)
	result.Output = chooseOutput(base.Output, overlay.Output)
	result.Store = chooseStore(base.Store, overlay.Store)
	result.Observability = chooseObservability(base.Observability, overlay.Observability)

	return result
}

// chooseProvider merges field-wise, overlay winning for non-empty fields.
func chooseProvider(base, overlay ProviderConfig) ProviderConfig {
	result := base
	if overlay.Name != "" {
		result.Name = overlay.Name
	}
	if overlay.Endpoint != "" {
		result.Endpoint = overlay.Endpoint
	}
	if overlay.Model != "" {
		result.Model = overlay.Model
	}
	if overlay.APIKey != "" {
		result.APIKey = overlay.APIKey
	}
	return result
}

func chooseGitHub(base, overlay GitHubConfig) GitHubConfig {
	result := base
	if overlay.Token != "" {
		result.Token = overlay.Token
	}
	if overlay.Repository != "" {
		result.Repository = overlay.Repository
	}
	if overlay.APIBaseURL != "" {
		result.APIBaseURL = overlay.APIBaseURL
	}
	return result
}

func chooseHTTP(base, overlay HTTPConfig) HTTPConfig {
	if overlay.Timeout != "" || overlay.MaxRetries != 0 || overlay.InitialBackoff != "" || overlay.MaxBackoff != "" || overlay.BackoffMultiplier != 0 {
		return overlay
	}
	return base
}

// chooseReview takes the overlay wholesale when it carries any list content.
// Bare boolean overlays cannot be distinguished from unset values, so an
// overlay that only flips a flag must also be explicit about the lists.
func chooseReview(base, overlay ReviewConfig) ReviewConfig {
	if len(overlay.FocusAreas) > 0 || len(overlay.CommentExtraction.Patterns) > 0 {
		return overlay
	}
	return base
}

func chooseGit(base, overlay GitConfig) GitConfig {
	if overlay.RepositoryDir != "" {
		return overlay
	}
	return base
}

func chooseOutput(base, overlay OutputConfig) OutputConfig {
	if overlay.Directory != "" {
		return overlay
	}
	return base
}

func chooseStore(base, overlay StoreConfig) StoreConfig {
	if overlay.Enabled || overlay.Path != "" {
		return overlay
	}
	return base
}

func chooseObservability(base, overlay ObservabilityConfig) ObservabilityConfig {
	result := base
	if overlay.Logging.Enabled || overlay.Logging.Level != "" || overlay.Logging.Format != "" {
		result.Logging = overlay.Logging
	}
	return result
}
