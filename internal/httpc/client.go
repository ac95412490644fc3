package httpc

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"
)

// Client wraps HTTP operations shared by the API client and the page
// downloader.
//
// Client provides:
//   - A configured User-Agent header (MangaDex rejects anonymous clients)
//   - Timeout handling
//   - JSON GET with query parameters
//   - Streaming file downloads that clean up partial files on failure
type Client struct {
	httpClient *http.Client
	userAgent  string
}

// NewClient creates a new HTTP client configured for MangaDex.
//
// The client uses a 60 second timeout and a "tankobon" User-Agent.
func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		userAgent: "tankobon/1.0",
	}
}

// ProgressWriter wraps a writer to track download progress.
//
// Use this to monitor downloads by providing an OnUpdate callback that
// receives the current bytes written and total expected bytes.
type ProgressWriter struct {
	// Writer is the underlying writer to write data to.
	Writer io.Writer

	// Total is the expected total bytes (from Content-Length).
	Total int64

	// Written is the current number of bytes written.
	Written int64

	// OnUpdate is called after each Write with current progress.
	OnUpdate func(written, total int64)
}

// Write implements io.Writer, tracking progress and calling OnUpdate.
func (pw *ProgressWriter) Write(p []byte) (int, error) {
	n, err := pw.Writer.Write(p)
	pw.Written += int64(n)
	if pw.OnUpdate != nil {
		pw.OnUpdate(pw.Written, pw.Total)
	}
	return n, err
}

// Get performs a GET request and returns the response body as bytes.
//
// Returns an error if the request fails, the status is not 200 OK, or
// reading the body fails.
func (c *Client) Get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{URL: rawURL, StatusCode: resp.StatusCode, Status: resp.Status}
	}

	return io.ReadAll(resp.Body)
}

// GetJSON performs a GET request with optional query parameters and
// decodes the JSON response body into v.
//
// Example:
//
//	var feed dto.FeedResponse
//	err := client.GetJSON(ctx, endpoint, url.Values{"limit": {"100"}}, &feed)
func (c *Client) GetJSON(ctx context.Context, rawURL string, params url.Values, v any) error {
	if len(params) > 0 {
		rawURL = rawURL + "?" + params.Encode()
	}

	body, err := c.Get(ctx, rawURL)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decode response from %s: %w", rawURL, err)
	}
	return nil
}

// DownloadTo downloads a file to the specified path with an optional
// progress callback.
//
// Parent directories are created as needed and the content is streamed
// directly to disk. A download that fails, or that leaves an empty file,
// removes the partial file and returns an error: callers can rely on the
// destination either holding a complete non-empty file or not existing.
func (c *Client) DownloadTo(ctx context.Context, rawURL, destPath string, onProgress func(written, total int64)) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &StatusError{URL: rawURL, StatusCode: resp.StatusCode, Status: resp.Status}
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return err
	}

	file, err := os.Create(destPath)
	if err != nil {
		return err
	}

	var writer io.Writer = file
	if onProgress != nil {
		writer = &ProgressWriter{
			Writer:   file,
			Total:    resp.ContentLength,
			OnUpdate: onProgress,
		}
	}

	written, copyErr := io.Copy(writer, resp.Body)
	closeErr := file.Close()

	if copyErr != nil || closeErr != nil || written == 0 {
		os.Remove(destPath)
		if copyErr != nil {
			return fmt.Errorf("download %s: %w", rawURL, copyErr)
		}
		if closeErr != nil {
			return fmt.Errorf("download %s: %w", rawURL, closeErr)
		}
		return fmt.Errorf("download %s: empty response body", rawURL)
	}

	return nil
}

// StatusError is returned for non-200 HTTP responses.
type StatusError struct {
	URL        string
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d for %s", e.StatusCode, e.URL)
}
