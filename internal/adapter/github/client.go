// Package github is the HTTP adapter for the GitHub Pull Request API: it
// fetches PR metadata, the raw unified diff, and the changed-file listing,
// and submits reviews with position-anchored inline comments.
package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/visionpr/reviewer/internal/adapter/httpx"
	"github.com/visionpr/reviewer/internal/domain"
	"github.com/visionpr/reviewer/internal/usecase/review"
)

const (
	serviceName    = "github"
	defaultBaseURL = "https://api.github.com"
	defaultTimeout = 30 * time.Second

	// diffMediaType makes GET /pulls/{n} answer with the raw unified diff
	// instead of JSON.
	diffMediaType = "application/vnd.github.v3.diff"
	jsonMediaType = "application/vnd.github+json"

	filesPerPage = 100
)

// Client is an HTTP client for the GitHub Pull Request API.
type Client struct {
	token      string
	baseURL    string
	httpClient *http.Client
	retryConf  httpx.RetryConfig
	logger     httpx.Logger
}

// NewClient creates a client authenticated with the given token. The token
// is a personal access token or the GITHUB_TOKEN provided inside Actions.
func NewClient(token string) *Client {
	return &Client{
		token:      token,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
		retryConf:  httpx.DefaultRetryConfig(),
	}
}

// SetBaseURL sets a custom base URL (for testing and GitHub Enterprise).
func (c *Client) SetBaseURL(url string) {
	c.baseURL = url
}

// SetTimeout sets the HTTP timeout.
func (c *Client) SetTimeout(timeout time.Duration) {
	c.httpClient.Timeout = timeout
}

// SetRetryConfig replaces the retry policy.
func (c *Client) SetRetryConfig(cfg httpx.RetryConfig) {
	c.retryConf = cfg
}

// SetLogger attaches a structured logger for request/response logging.
func (c *Client) SetLogger(logger httpx.Logger) {
	c.logger = logger
}

// GetPullRequest fetches the PR title, description, and head commit SHA.
func (c *Client) GetPullRequest(ctx context.Context, owner, repo string, number int) (review.PullRequest, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/pulls/%d", c.baseURL, owner, repo, number)
	data, err := c.do(ctx, http.MethodGet, url, jsonMediaType, nil)
	if err != nil {
		return review.PullRequest{}, err
	}
	var pr pullResponse
	if err := json.Unmarshal(data, &pr); err != nil {
		return review.PullRequest{}, fmt.Errorf("decode pull request: %w", err)
	}
	return review.PullRequest{
		Title:       pr.Title,
		Description: pr.Body,
		HeadSHA:     pr.Head.SHA,
	}, nil
}

// GetDiff fetches the PR's raw unified diff.
func (c *Client) GetDiff(ctx context.Context, owner, repo string, number int) (string, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/pulls/%d", c.baseURL, owner, repo, number)
	data, err := c.do(ctx, http.MethodGet, url, diffMediaType, nil)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ListChangedFiles fetches the changed-file listing, following pagination.
func (c *Client) ListChangedFiles(ctx context.Context, owner, repo string, number int) ([]domain.ChangedFile, error) {
	var files []domain.ChangedFile
	for page := 1; ; page++ {
		url := fmt.Sprintf("%s/repos/%s/%s/pulls/%d/files?per_page=%d&page=%d",
			c.baseURL, owner, repo, number, filesPerPage, page)
		data, err := c.do(ctx, http.MethodGet, url, jsonMediaType, nil)
		if err != nil {
			return nil, err
		}
		var batch []domain.ChangedFile
		if err := json.Unmarshal(data, &batch); err != nil {
			return nil, fmt.Errorf("decode changed files: %w", err)
		}
		files = append(files, batch...)
		if len(batch) < filesPerPage {
			return files, nil
		}
	}
}

// SubmitReview posts one review submission as a single COMMENT review.
// The payload is atomic: the host accepts the overview and every inline
// comment together or rejects the whole review.
func (c *Client) SubmitReview(ctx context.Context, owner, repo string, number int, sub domain.ReviewSubmission) error {
	comments := make([]ReviewComment, 0, len(sub.Comments))
	for _, vc := range sub.Comments {
		comments = append(comments, ReviewComment{
			Path:     vc.Path,
			Position: vc.Position,
			Body:     vc.Body,
		})
	}
	payload, err := json.Marshal(CreateReviewRequest{
		CommitID: sub.CommitSHA,
		Event:    "COMMENT",
		Body:     sub.Body,
		Comments: comments,
	})
	if err != nil {
		return fmt.Errorf("marshal review: %w", err)
	}

	url := fmt.Sprintf("%s/repos/%s/%s/pulls/%d/reviews", c.baseURL, owner, repo, number)
	data, err := c.do(ctx, http.MethodPost, url, jsonMediaType, payload)
	if err != nil {
		return err
	}
	var created CreateReviewResponse
	if err := json.Unmarshal(data, &created); err != nil {
		return fmt.Errorf("decode review response: %w", err)
	}
	if c.logger != nil {
		c.logger.LogInfo(ctx, "review created", map[string]interface{}{
			"review_id": created.ID,
			"comments":  len(comments),
			"url":       created.HTMLURL,
		})
	}
	return nil
}

// do executes one request with retry, returning the response body.
func (c *Client) do(ctx context.Context, method, url, accept string, payload []byte) ([]byte, error) {
	var out []byte
	err := httpx.RetryWithBackoff(ctx, func(ctx context.Context) error {
		var body io.Reader
		if payload != nil {
			body = bytes.NewReader(payload)
		}
		req, reqErr := http.NewRequestWithContext(ctx, method, url, body)
		if reqErr != nil {
			return &httpx.Error{
				Type:    httpx.ErrTypeUnknown,
				Message: reqErr.Error(),
				Service: serviceName,
			}
		}
		req.Header.Set("Authorization", "Bearer "+c.token)
		req.Header.Set("Accept", accept)
		req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		start := time.Now()
		if c.logger != nil {
			c.logger.LogRequest(ctx, httpx.RequestLog{
				Service:   serviceName,
				Method:    method,
				Target:    req.URL.Path,
				Timestamp: start,
				BodyChars: len(payload),
			})
		}

		resp, callErr := c.httpClient.Do(req)
		if callErr != nil {
			err := httpx.NewTimeoutError(serviceName, httpx.RedactURLSecrets(callErr.Error()))
			c.logError(ctx, req.URL.Path, start, err)
			return err
		}
		defer resp.Body.Close()

		data, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return &httpx.Error{
				Type:       httpx.ErrTypeUnknown,
				Message:    fmt.Sprintf("HTTP %d (failed to read response: %v)", resp.StatusCode, readErr),
				StatusCode: resp.StatusCode,
				Retryable:  resp.StatusCode >= 500,
				Service:    serviceName,
			}
		}
		if resp.StatusCode >= 400 {
			err := MapAPIError(resp.StatusCode, data)
			c.logError(ctx, req.URL.Path, start, err)
			return err
		}

		if c.logger != nil {
			c.logger.LogResponse(ctx, httpx.ResponseLog{
				Service:    serviceName,
				Target:     req.URL.Path,
				Timestamp:  start,
				Duration:   time.Since(start),
				StatusCode: resp.StatusCode,
			})
		}
		out = data
		return nil
	}, c.retryConf)
	return out, err
}

func (c *Client) logError(ctx context.Context, target string, start time.Time, err *httpx.Error) {
	if c.logger == nil {
		return
	}
	c.logger.LogError(ctx, httpx.ErrorLog{
		Service:    serviceName,
		Target:     target,
		Timestamp:  start,
		Duration:   time.Since(start),
		Error:      err,
		StatusCode: err.StatusCode,
		Retryable:  err.Retryable,
	})
}
