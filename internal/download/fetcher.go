package download

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"tankobon/internal/model"
)

// pageSource resolves a chapter's page image URLs.
type pageSource interface {
	ResolveChapterPages(ctx context.Context, chapterID string, dataSaver bool) ([]string, error)
}

// assetDownloader streams one URL to disk, removing partial files on
// failure.
type assetDownloader interface {
	DownloadTo(ctx context.Context, url, destPath string, onProgress func(written, total int64)) error
}

// Fetcher downloads all pages of a chapter with bounded concurrency and
// a three-step retry cascade.
//
// The cascade is an explicit state machine rather than nested error
// handling: Attempt(original) -> Attempt(retry) -> Attempt(fallback) ->
// Failed, with each transition guarded by the previous attempt's
// outcome. A chapter succeeds only when every page downloaded; partial
// success counts as failure and feeds the next state.
type Fetcher struct {
	source     pageSource
	downloader assetDownloader
	workers    int
	retries    int
	retryDelay time.Duration
	cooldown   time.Duration
	dataSaver  bool
	log        *slog.Logger

	totalPages    atomic.Int32
	donePages     atomic.Int32
	receivedBytes atomic.Int64
}

// NewFetcher creates a Fetcher.
//
// workers bounds the per-chapter download pool (a small constant,
// independent of queue size, protecting the upstream host). retries and
// retryDelay govern individual page downloads; cooldown is the wait
// before the chapter-level retry attempt.
func NewFetcher(source pageSource, downloader assetDownloader, workers, retries int, retryDelay, cooldown time.Duration, dataSaver bool, log *slog.Logger) *Fetcher {
	return &Fetcher{
		source:     source,
		downloader: downloader,
		workers:    workers,
		retries:    retries,
		retryDelay: retryDelay,
		cooldown:   cooldown,
		dataSaver:  dataSaver,
		log:        log,
	}
}

// attemptState names a step of the per-chapter retry cascade.
type attemptState int

const (
	stateOriginal attemptState = iota
	stateRetry
	stateFallback
	stateFailed
)

// pageAccounting tracks how much of one chapter is already reflected in
// the global progress counters. Re-attempts download the same pages
// again, so each attempt replaces the previous attempt's contribution
// instead of adding to it.
type pageAccounting struct {
	total int32
	done  int32
}

// Fetch downloads every page of the chapter into destDir and records the
// outcome on the chapter.
//
// fallback is consulted only after both primary attempts fail; it may
// return nil when no same-numbered chapter exists in the fallback
// language. The fallback chapter's pages land in the same destDir, since
// the directory is named from the original chapter's group and number.
func (f *Fetcher) Fetch(ctx context.Context, c *model.Chapter, destDir string, fallback func() *model.Chapter) model.Outcome {
	state := stateOriginal
	var acct pageAccounting
	for {
		switch state {
		case stateOriginal:
			err := f.attempt(ctx, c, destDir, &acct)
			if err == nil {
				c.Outcome = model.OutcomeSuccess
				return c.Outcome
			}
			f.log.Warn("chapter download failed, will retry after cooldown",
				"chapter", c.Number, "id", c.ID, "error", err)
			state = stateRetry

		case stateRetry:
			if !sleepCtx(ctx, f.cooldown) {
				state = stateFailed
				continue
			}
			err := f.attempt(ctx, c, destDir, &acct)
			if err == nil {
				c.Outcome = model.OutcomeRetriedSuccess
				return c.Outcome
			}
			f.log.Warn("chapter retry failed", "chapter", c.Number, "id", c.ID, "error", err)
			state = stateFallback

		case stateFallback:
			fb := fallback()
			if fb == nil {
				state = stateFailed
				continue
			}
			f.log.Info("attempting fallback language",
				"chapter", c.Number, "fallbackID", fb.ID, "language", fb.Language)
			err := f.attempt(ctx, fb, destDir, &acct)
			if err == nil {
				c.Outcome = model.OutcomeFallbackSuccess
				return c.Outcome
			}
			f.log.Warn("fallback attempt failed", "chapter", c.Number, "error", err)
			state = stateFailed

		case stateFailed:
			c.Outcome = model.OutcomeFailed
			return c.Outcome
		}
	}
}

// attempt resolves the chapter's page list and downloads every page.
// It succeeds only when all pages are on disk.
func (f *Fetcher) attempt(ctx context.Context, c *model.Chapter, destDir string, acct *pageAccounting) error {
	urls, err := f.source.ResolveChapterPages(ctx, c.ID, f.dataSaver)
	if err != nil {
		return err
	}
	c.PageURLs = urls

	// Replace whatever an earlier attempt contributed to the counters;
	// these pages are about to be downloaded again from scratch.
	f.totalPages.Add(int32(len(urls)) - acct.total)
	acct.total = int32(len(urls))
	f.donePages.Add(-acct.done)
	acct.done = 0

	if err := os.MkdirAll(destDir, 0755); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.workers)

	var success atomic.Int32
	for i, pageURL := range urls {
		pageURL := pageURL
		destPath := filepath.Join(destDir, pageFileName(i, pageURL))
		g.Go(func() error {
			if err := f.downloadPage(gctx, pageURL, destPath); err != nil {
				f.log.Debug("page download failed", "url", pageURL, "error", err)
				return nil // keep downloading the other pages
			}
			success.Add(1)
			f.donePages.Add(1)
			return nil
		})
	}
	g.Wait()
	acct.done = success.Load()

	if int(success.Load()) != len(urls) {
		return fmt.Errorf("downloaded %d/%d pages", success.Load(), len(urls))
	}
	return nil
}

// downloadPage retries a single page download a fixed number of times.
// A download that leaves no non-empty file behind counts as failed; the
// downloader removes partial files itself.
func (f *Fetcher) downloadPage(ctx context.Context, pageURL, destPath string) error {
	var err error
	for tries := 0; tries < f.retries; tries++ {
		err = f.downloader.DownloadTo(ctx, pageURL, destPath, f.byteCounter())
		if err == nil {
			return nil
		}
		if tries == f.retries-1 {
			break // no point cooling down after the last try
		}
		if !sleepCtx(ctx, f.retryDelay) {
			return err
		}
	}
	return err
}

// byteCounter converts the downloader's cumulative progress callback
// into global received-byte accounting.
func (f *Fetcher) byteCounter() func(written, total int64) {
	var last int64
	return func(written, total int64) {
		f.receivedBytes.Add(written - last)
		last = written
	}
}

// Progress returns pages downloaded, pages known so far, and bytes
// received.
func (f *Fetcher) Progress() (done, total int32, bytes int64) {
	return f.donePages.Load(), f.totalPages.Load(), f.receivedBytes.Load()
}

// pageFileName names a page file from its position and server filename,
// preserving reading order when listed lexically.
func pageFileName(index int, pageURL string) string {
	base := path.Base(pageURL)
	if u, err := url.Parse(pageURL); err == nil && u.Path != "" {
		base = path.Base(u.Path)
	}
	return fmt.Sprintf("%03d_%s", index+1, model.SanitizeFileName(base))
}

// sleepCtx waits for d or until the context is canceled. Returns false
// on cancellation.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
