package mangadex

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"

	"tankobon/internal/httpc"
	"tankobon/internal/mangadex/dto"
)

// DefaultBaseURL is the production MangaDex API endpoint.
const DefaultBaseURL = "https://api.mangadex.org"

// TransportError wraps any failure talking to the API. The pipeline
// treats a transport error as "no data" for the affected chapter or feed,
// never as a fatal condition.
type TransportError struct {
	Endpoint string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("mangadex: %s: %v", e.Endpoint, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Client talks to the MangaDex API.
//
// All methods return a *TransportError for network/HTTP failures and a
// plain error for data-shape problems (missing fields in an otherwise
// successful response).
type Client struct {
	baseURL string
	http    *httpc.Client
	log     *slog.Logger
}

// NewClient creates an API client against the production endpoint.
func NewClient(log *slog.Logger) *Client {
	return NewClientWithBaseURL(DefaultBaseURL, log)
}

// NewClientWithBaseURL creates an API client against a custom endpoint.
// Tests point this at an httptest server.
func NewClientWithBaseURL(baseURL string, log *slog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		http:    httpc.NewClient(),
		log:     log,
	}
}

// ResolveFeedPage fetches one page of the chapter feed for a manga in the
// given translated language, ordered by chapter number ascending.
func (c *Client) ResolveFeedPage(ctx context.Context, mangaID, language string, limit, offset int) ([]dto.ChapterData, error) {
	endpoint := fmt.Sprintf("%s/manga/%s/feed", c.baseURL, mangaID)
	params := url.Values{
		"translatedLanguage[]": {language},
		"order[chapter]":       {"asc"},
		"limit":                {strconv.Itoa(limit)},
		"offset":               {strconv.Itoa(offset)},
	}

	var feed dto.FeedResponse
	if err := c.http.GetJSON(ctx, endpoint, params, &feed); err != nil {
		return nil, &TransportError{Endpoint: endpoint, Err: err}
	}

	c.log.Debug("resolved feed page",
		"manga", mangaID, "language", language,
		"offset", offset, "count", len(feed.Data), "total", feed.Total)

	return feed.Data, nil
}

// ResolveChapterPages returns the full page image URLs for a chapter.
//
// dataSaver selects the recompressed page set; the default full-quality
// set is used otherwise. A response missing the base URL, hash, or page
// list is a data-shape error.
func (c *Client) ResolveChapterPages(ctx context.Context, chapterID string, dataSaver bool) ([]string, error) {
	endpoint := fmt.Sprintf("%s/at-home/server/%s", c.baseURL, chapterID)

	var resp dto.AtHomeResponse
	if err := c.http.GetJSON(ctx, endpoint, nil, &resp); err != nil {
		return nil, &TransportError{Endpoint: endpoint, Err: err}
	}

	if resp.BaseURL == "" || resp.Chapter.Hash == "" {
		return nil, fmt.Errorf("mangadex: malformed at-home response for chapter %s", chapterID)
	}

	files := resp.Chapter.Data
	quality := "data"
	if dataSaver && len(resp.Chapter.DataSaver) > 0 {
		files = resp.Chapter.DataSaver
		quality = "data-saver"
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("mangadex: no pages listed for chapter %s", chapterID)
	}

	urls := make([]string, len(files))
	for i, f := range files {
		urls[i] = fmt.Sprintf("%s/%s/%s/%s", resp.BaseURL, quality, resp.Chapter.Hash, f)
	}
	return urls, nil
}

// ResolveChapterInfo fetches the attributes for a single chapter.
func (c *Client) ResolveChapterInfo(ctx context.Context, chapterID string) (*dto.ChapterData, error) {
	endpoint := fmt.Sprintf("%s/chapter/%s", c.baseURL, chapterID)

	var resp dto.ChapterResponse
	if err := c.http.GetJSON(ctx, endpoint, nil, &resp); err != nil {
		return nil, &TransportError{Endpoint: endpoint, Err: err}
	}
	if resp.Data.ID == "" {
		return nil, fmt.Errorf("mangadex: malformed chapter response for %s", chapterID)
	}
	return &resp.Data, nil
}

// ResolveMangaTitle fetches the manga's display title, preferring English,
// then Japanese, then any available language.
func (c *Client) ResolveMangaTitle(ctx context.Context, mangaID string) (string, error) {
	endpoint := fmt.Sprintf("%s/manga/%s", c.baseURL, mangaID)

	var resp dto.MangaResponse
	if err := c.http.GetJSON(ctx, endpoint, nil, &resp); err != nil {
		return "", &TransportError{Endpoint: endpoint, Err: err}
	}

	title := resp.Data.Attributes.PreferredTitle()
	if title == "" {
		return "Unknown Manga", nil
	}
	return title, nil
}
