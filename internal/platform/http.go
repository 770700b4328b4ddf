package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// HTTPClient talks to the content platform's REST API.
type HTTPClient struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewHTTPClient creates a platform client for the given API base URL.
// The token, if non-empty, is sent as a bearer credential.
func NewHTTPClient(baseURL, token string) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body, out any) (int, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return resp.StatusCode, nil
	}
	if resp.StatusCode >= 400 {
		return resp.StatusCode, fmt.Errorf("%s %s: status %d", method, path, resp.StatusCode)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode response: %w", err)
		}
	}
	return resp.StatusCode, nil
}

// SubmitComment posts a new comment under a thread or comment and
// returns the new comment's id.
func (c *HTTPClient) SubmitComment(ctx context.Context, parentID, text string) (string, error) {
	var created Comment
	_, err := c.do(ctx, http.MethodPost, "/api/comments", map[string]string{
		"parentId": parentID,
		"text":     text,
	}, &created)
	if err != nil {
		return "", err
	}
	if created.ID == "" {
		return "", fmt.Errorf("submit comment: platform returned no id")
	}
	return created.ID, nil
}

// EditComment replaces the body of an existing comment.
func (c *HTTPClient) EditComment(ctx context.Context, commentID, text string) error {
	_, err := c.do(ctx, http.MethodPatch, "/api/comments/"+url.PathEscape(commentID), map[string]string{
		"text": text,
	}, nil)
	return err
}

// CommentByID fetches a comment, or nil if it does not exist.
func (c *HTTPClient) CommentByID(ctx context.Context, commentID string) (*Comment, error) {
	var comment Comment
	status, err := c.do(ctx, http.MethodGet, "/api/comments/"+url.PathEscape(commentID), nil, &comment)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, nil
	}
	return &comment, nil
}

// ThreadByID fetches a thread, or nil if it does not exist.
func (c *HTTPClient) ThreadByID(ctx context.Context, threadID string) (*Thread, error) {
	var thread Thread
	status, err := c.do(ctx, http.MethodGet, "/api/threads/"+url.PathEscape(threadID), nil, &thread)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, nil
	}
	return &thread, nil
}

// Distinguish marks a comment as posted in an official capacity.
func (c *HTTPClient) Distinguish(ctx context.Context, commentID string) error {
	_, err := c.do(ctx, http.MethodPost, "/api/comments/"+url.PathEscape(commentID)+"/distinguish", nil, nil)
	return err
}
