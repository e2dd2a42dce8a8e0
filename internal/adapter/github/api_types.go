package github

// ReviewComment is one inline comment in a review payload. Position is the
// diff position, not a file line number.
type ReviewComment struct {
	Path     string `json:"path"`
	Position int    `json:"position"`
	Body     string `json:"body"`
}

// CreateReviewRequest is the payload for POST /repos/{owner}/{repo}/pulls/{number}/reviews.
type CreateReviewRequest struct {
	CommitID string          `json:"commit_id,omitempty"`
	Event    string          `json:"event"`
	Body     string          `json:"body,omitempty"`
	Comments []ReviewComment `json:"comments,omitempty"`
}

// CreateReviewResponse is the subset of the review response we use.
type CreateReviewResponse struct {
	ID      int64  `json:"id"`
	State   string `json:"state"`
	HTMLURL string `json:"html_url"`
}

// pullResponse is the subset of the pull request response we use.
type pullResponse struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Head  struct {
		SHA string `json:"sha"`
	} `json:"head"`
}

// apiError is GitHub's standard error envelope.
type apiError struct {
	Message          string `json:"message"`
	DocumentationURL string `json:"documentation_url"`
}
