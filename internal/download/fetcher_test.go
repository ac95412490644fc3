package download

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tankobon/internal/logging"
	"tankobon/internal/model"
)

// fakeSource serves page URL lists per chapter ID and can fail the
// first N calls for a chapter.
type fakeSource struct {
	mu       sync.Mutex
	pages    map[string][]string
	failures map[string]int
	calls    map[string]int
}

func (s *fakeSource) ResolveChapterPages(_ context.Context, chapterID string, _ bool) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.calls == nil {
		s.calls = make(map[string]int)
	}
	s.calls[chapterID]++
	if s.failures[chapterID] > 0 {
		s.failures[chapterID]--
		return nil, fmt.Errorf("server unavailable")
	}
	urls, ok := s.pages[chapterID]
	if !ok {
		return nil, fmt.Errorf("no such chapter")
	}
	return urls, nil
}

// fakeDownloader writes a small file per URL and can fail specific URLs
// a fixed number of times.
type fakeDownloader struct {
	mu       sync.Mutex
	failures map[string]int
}

func (d *fakeDownloader) DownloadTo(_ context.Context, url, destPath string, onProgress func(written, total int64)) error {
	d.mu.Lock()
	if d.failures[url] > 0 {
		d.failures[url]--
		d.mu.Unlock()
		return fmt.Errorf("connection reset")
	}
	d.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return err
	}
	if onProgress != nil {
		onProgress(4, 4)
	}
	return os.WriteFile(destPath, []byte("page"), 0644)
}

func newTestFetcher(source *fakeSource, dl *fakeDownloader) *Fetcher {
	return NewFetcher(source, dl, 2, 2, 0, 0, false, logging.Discard())
}

func noFallback() *model.Chapter { return nil }

func TestFetchSuccess(t *testing.T) {
	source := &fakeSource{pages: map[string][]string{
		"aaaa1111": {"http://host/data/h/x1.jpg", "http://host/data/h/x2.png"},
	}}
	dl := &fakeDownloader{}
	f := newTestFetcher(source, dl)

	c := &model.Chapter{ID: "aaaa1111", Number: "1"}
	dir := t.TempDir()

	outcome := f.Fetch(context.Background(), c, dir, noFallback)

	assert.Equal(t, model.OutcomeSuccess, outcome)
	assert.Equal(t, model.OutcomeSuccess, c.Outcome)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "001_x1.jpg", entries[0].Name())
	assert.Equal(t, "002_x2.png", entries[1].Name())
}

func TestFetchRetriedSuccessAfterCooldown(t *testing.T) {
	source := &fakeSource{
		pages:    map[string][]string{"aaaa1111": {"http://host/data/h/p.jpg"}},
		failures: map[string]int{"aaaa1111": 1},
	}
	f := newTestFetcher(source, &fakeDownloader{})

	c := &model.Chapter{ID: "aaaa1111", Number: "3"}
	outcome := f.Fetch(context.Background(), c, t.TempDir(), noFallback)

	assert.Equal(t, model.OutcomeRetriedSuccess, outcome)
	assert.Equal(t, 2, source.calls["aaaa1111"])
}

func TestFetchFallbackSuccess(t *testing.T) {
	source := &fakeSource{pages: map[string][]string{
		"ffff2222": {"http://host/data/h/p.jpg"},
	}}
	f := newTestFetcher(source, &fakeDownloader{})

	c := &model.Chapter{ID: "aaaa1111", Number: "5", Language: "en"}
	fallback := func() *model.Chapter {
		return &model.Chapter{ID: "ffff2222", Number: "5", Language: "pt-br"}
	}

	outcome := f.Fetch(context.Background(), c, t.TempDir(), fallback)

	assert.Equal(t, model.OutcomeFallbackSuccess, outcome)
	assert.Equal(t, model.OutcomeFallbackSuccess, c.Outcome)
	// Original chapter was still attempted twice before falling back.
	assert.Equal(t, 2, source.calls["aaaa1111"])
}

func TestFetchFailedWithoutFallback(t *testing.T) {
	source := &fakeSource{pages: map[string][]string{}}
	f := newTestFetcher(source, &fakeDownloader{})

	c := &model.Chapter{ID: "aaaa1111", Number: "9"}
	outcome := f.Fetch(context.Background(), c, t.TempDir(), noFallback)

	assert.Equal(t, model.OutcomeFailed, outcome)
}

func TestFetchOnePageFailureFailsChapter(t *testing.T) {
	badURL := "http://host/data/h/bad.jpg"
	source := &fakeSource{pages: map[string][]string{
		"aaaa1111": {"http://host/data/h/ok.jpg", badURL},
	}}
	// More failures than the per-page retry budget on every attempt.
	dl := &fakeDownloader{failures: map[string]int{badURL: 100}}
	f := newTestFetcher(source, dl)

	c := &model.Chapter{ID: "aaaa1111", Number: "2"}
	outcome := f.Fetch(context.Background(), c, t.TempDir(), noFallback)

	assert.Equal(t, model.OutcomeFailed, outcome)
}

func TestFetchPerPageRetryRecovers(t *testing.T) {
	flakyURL := "http://host/data/h/flaky.jpg"
	source := &fakeSource{pages: map[string][]string{
		"aaaa1111": {flakyURL},
	}}
	// One failure, retry budget of two: first attempt succeeds overall.
	dl := &fakeDownloader{failures: map[string]int{flakyURL: 1}}
	f := newTestFetcher(source, dl)

	c := &model.Chapter{ID: "aaaa1111", Number: "4"}
	outcome := f.Fetch(context.Background(), c, t.TempDir(), noFallback)

	assert.Equal(t, model.OutcomeSuccess, outcome)
	assert.Equal(t, 1, source.calls["aaaa1111"])
}

func TestFetchCancelledContext(t *testing.T) {
	source := &fakeSource{pages: map[string][]string{
		"aaaa1111": {"http://host/data/h/p.jpg"},
	}}
	f := newTestFetcher(source, &fakeDownloader{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// The cascade must terminate instead of looping on a dead context.
	c := &model.Chapter{ID: "bbbb0000", Number: "1"}
	outcome := f.Fetch(ctx, c, t.TempDir(), noFallback)
	assert.Equal(t, model.OutcomeFailed, outcome)
}

func TestPageFileName(t *testing.T) {
	tests := []struct {
		index int
		url   string
		want  string
	}{
		{0, "http://host/data/abc/x5-hash.jpg", "001_x5-hash.jpg"},
		{11, "http://host/data/abc/p.png", "012_p.png"},
		{0, "http://host/data/abc/we%20ird.jpg", "001_we ird.jpg"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, pageFileName(tt.index, tt.url))
	}
}

func TestFetcherProgressCounts(t *testing.T) {
	source := &fakeSource{pages: map[string][]string{
		"aaaa1111": {"http://host/data/h/a.jpg", "http://host/data/h/b.jpg"},
	}}
	f := newTestFetcher(source, &fakeDownloader{})

	c := &model.Chapter{ID: "aaaa1111", Number: "1"}
	f.Fetch(context.Background(), c, t.TempDir(), noFallback)

	done, total, bytes := f.Progress()
	assert.Equal(t, int32(2), done)
	assert.Equal(t, int32(2), total)
	assert.Equal(t, int64(8), bytes)
}

func TestFetchProgressNotInflatedByRetry(t *testing.T) {
	badURL := "http://host/data/h/b.jpg"
	source := &fakeSource{pages: map[string][]string{
		"aaaa1111": {"http://host/data/h/a.jpg", badURL},
	}}
	// Exhausts the per-page retry budget on the first attempt, then
	// recovers on the chapter retry. The retry downloads both pages
	// again, which must not double the counters.
	dl := &fakeDownloader{failures: map[string]int{badURL: 2}}
	f := newTestFetcher(source, dl)

	c := &model.Chapter{ID: "aaaa1111", Number: "6"}
	outcome := f.Fetch(context.Background(), c, t.TempDir(), noFallback)
	require.Equal(t, model.OutcomeRetriedSuccess, outcome)

	done, total, _ := f.Progress()
	assert.Equal(t, int32(2), done)
	assert.Equal(t, int32(2), total)
}

func TestFetchProgressAfterFallback(t *testing.T) {
	origA := "http://host/data/h/oa.jpg"
	origB := "http://host/data/h/ob.jpg"
	source := &fakeSource{pages: map[string][]string{
		"aaaa1111": {origA, origB},
		"ffff2222": {"http://host/data/h/f1.jpg", "http://host/data/h/f2.jpg", "http://host/data/h/f3.jpg"},
	}}
	dl := &fakeDownloader{failures: map[string]int{origA: 100, origB: 100}}
	f := newTestFetcher(source, dl)

	c := &model.Chapter{ID: "aaaa1111", Number: "7", Language: "en"}
	fallback := func() *model.Chapter {
		return &model.Chapter{ID: "ffff2222", Number: "7", Language: "pt-br"}
	}

	outcome := f.Fetch(context.Background(), c, t.TempDir(), fallback)
	require.Equal(t, model.OutcomeFallbackSuccess, outcome)

	// Only the fallback's page list counts; the abandoned original
	// attempts contribute nothing.
	done, total, _ := f.Progress()
	assert.Equal(t, int32(3), done)
	assert.Equal(t, int32(3), total)
}

func TestDownloadPageSleepsOnlyBetweenTries(t *testing.T) {
	badURL := "http://host/data/h/dead.jpg"
	dl := &fakeDownloader{failures: map[string]int{badURL: 100}}
	f := NewFetcher(&fakeSource{}, dl, 1, 2, 250*time.Millisecond, 0, false, logging.Discard())

	start := time.Now()
	err := f.downloadPage(context.Background(), badURL, filepath.Join(t.TempDir(), "dead.jpg"))
	elapsed := time.Since(start)

	require.Error(t, err)
	// Two tries mean one cooldown between them and none after the last.
	assert.Less(t, elapsed, 450*time.Millisecond)
}
