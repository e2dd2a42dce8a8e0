package github_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/visionpr/reviewer/internal/adapter/github"
	"github.com/visionpr/reviewer/internal/adapter/httpx"
	"github.com/visionpr/reviewer/internal/domain"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *github.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := github.NewClient("test-token")
	client.SetBaseURL(server.URL)
	client.SetRetryConfig(httpx.RetryConfig{
		MaxRetries:     2,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
		Multiplier:     2.0,
	})
	return client
}

func TestGetPullRequest(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/acme/widgets/pulls/7", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		fmt.Fprint(w, `{"title":"Add parser","body":"Parses things.","head":{"sha":"abc123"}}`)
	})

	pr, err := client.GetPullRequest(context.Background(), "acme", "widgets", 7)
	require.NoError(t, err)
	assert.Equal(t, "Add parser", pr.Title)
	assert.Equal(t, "Parses things.", pr.Description)
	assert.Equal(t, "abc123", pr.HeadSHA)
}

func TestGetDiffRequestsDiffMediaType(t *testing.T) {
	rawDiff := "--- a/f.go\n+++ b/f.go\n@@ -1,1 +1,1 @@\n-x\n+y\n"
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/vnd.github.v3.diff", r.Header.Get("Accept"))
		fmt.Fprint(w, rawDiff)
	})

	diff, err := client.GetDiff(context.Background(), "acme", "widgets", 7)
	require.NoError(t, err)
	assert.Equal(t, rawDiff, diff)
}

func TestListChangedFilesPaginates(t *testing.T) {
	firstPage := make([]domain.ChangedFile, 100)
	for i := range firstPage {
		firstPage[i] = domain.ChangedFile{Filename: fmt.Sprintf("file%d.go", i), Status: "modified"}
	}
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("page") {
		case "1":
			require.NoError(t, json.NewEncoder(w).Encode(firstPage))
		case "2":
			fmt.Fprint(w, `[{"filename":"last.go","status":"added","additions":3}]`)
		default:
			t.Errorf("unexpected page %q", r.URL.Query().Get("page"))
		}
	})

	files, err := client.ListChangedFiles(context.Background(), "acme", "widgets", 7)
	require.NoError(t, err)
	require.Len(t, files, 101)
	assert.Equal(t, "last.go", files[100].Filename)
	assert.Equal(t, 3, files[100].Additions)
}

func TestSubmitReviewPayload(t *testing.T) {
	var got github.CreateReviewRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/repos/acme/widgets/pulls/7/reviews", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		fmt.Fprint(w, `{"id":99,"state":"COMMENTED","html_url":"https://github.com/acme/widgets/pull/7#review-99"}`)
	})

	err := client.SubmitReview(context.Background(), "acme", "widgets", 7, domain.ReviewSubmission{
		Body:      "Overview text",
		CommitSHA: "abc123",
		Comments: []domain.ValidatedComment{
			{Path: "a.py", Position: 3, Body: "add null check"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "COMMENT", got.Event)
	assert.Equal(t, "abc123", got.CommitID)
	assert.Equal(t, "Overview text", got.Body)
	require.Len(t, got.Comments, 1)
	assert.Equal(t, github.ReviewComment{Path: "a.py", Position: 3, Body: "add null check"}, got.Comments[0])
}

func TestSubmitReviewValidationFailureNotRetried(t *testing.T) {
	calls := 0
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnprocessableEntity)
		fmt.Fprint(w, `{"message":"Validation Failed"}`)
	})

	err := client.SubmitReview(context.Background(), "acme", "widgets", 7, domain.ReviewSubmission{Body: "x"})
	require.Error(t, err)
	var httpErr *httpx.Error
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, httpx.ErrTypeValidation, httpErr.Type)
	assert.Contains(t, httpErr.Message, "Validation Failed")
	assert.Equal(t, 1, calls)
}

func TestGetDiffRetriesServerErrors(t *testing.T) {
	calls := 0
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, "diff text")
	})

	diff, err := client.GetDiff(context.Background(), "acme", "widgets", 7)
	require.NoError(t, err)
	assert.Equal(t, "diff text", diff)
	assert.Equal(t, 3, calls)
}

func TestAuthFailureSurfacesTyped(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"message":"Bad credentials"}`)
	})

	_, err := client.GetPullRequest(context.Background(), "acme", "widgets", 7)
	var httpErr *httpx.Error
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, httpx.ErrTypeAuthentication, httpErr.Type)
	assert.False(t, httpErr.IsRetryable())
}
