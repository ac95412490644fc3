package download

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/maruel/natural"

	"tankobon/internal/config"
	"tankobon/internal/enhance"
	"tankobon/internal/export"
	"tankobon/internal/group"
	"tankobon/internal/httpc"
	"tankobon/internal/mangadex"
	"tankobon/internal/model"
	"tankobon/internal/report"
)

// ProgressLevel indicates the severity/type of a progress message.
type ProgressLevel int

const (
	LevelInfo ProgressLevel = iota
	LevelVerbose
	LevelWarning
	LevelError
	LevelSuccess
)

// ProgressEvent represents a pipeline progress update.
type ProgressEvent struct {
	Message string
	Level   ProgressLevel
}

// SelectionMode picks which chapters from the resolved queue to process.
type SelectionMode int

const (
	SelectAll SelectionMode = iota
	SelectSingle
	SelectRange
)

// Selection narrows the resolved queue. Grouping and expected counts are
// computed after the selection is applied, so a single-chapter run never
// waits on siblings that were filtered out.
type Selection struct {
	Mode   SelectionMode
	Number string
	From   float64
	To     float64
}

// ParseSelection builds a Selection from CLI input. An unparsable range
// degrades to the full queue with a warning rather than aborting.
func ParseSelection(single, chapterRange string, log *slog.Logger) Selection {
	if single != "" {
		return Selection{Mode: SelectSingle, Number: strings.TrimSpace(single)}
	}
	if chapterRange == "" {
		return Selection{Mode: SelectAll}
	}

	parts := strings.SplitN(chapterRange, "-", 2)
	if len(parts) == 2 {
		from, errA := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
		to, errB := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if errA == nil && errB == nil && from <= to {
			return Selection{Mode: SelectRange, From: from, To: to}
		}
	}
	log.Warn("cannot parse chapter range, downloading all chapters", "range", chapterRange)
	return Selection{Mode: SelectAll}
}

func (s Selection) apply(queue []*model.Chapter) []*model.Chapter {
	switch s.Mode {
	case SelectSingle:
		var out []*model.Chapter
		for _, c := range queue {
			if strings.TrimSpace(c.Number) == s.Number {
				out = append(out, c)
			}
		}
		return out
	case SelectRange:
		var out []*model.Chapter
		for _, c := range queue {
			n := c.NumberValue()
			if n >= s.From && n <= s.To {
				out = append(out, c)
			}
		}
		return out
	default:
		return queue
	}
}

// Manager coordinates the whole pipeline: resolve the chapter queue,
// download each chapter in order, track group completion, and finalize
// groups into their export formats.
type Manager struct {
	settings *config.Settings
	client   *mangadex.Client
	resolver *mangadex.Resolver
	fetcher  *Fetcher
	exporter *export.Exporter
	enhancer *enhance.Enhancer
	tracker  *group.Tracker
	log      *slog.Logger

	mangaID    string
	mangaTitle string
	root       string
	queue      []*model.Chapter

	fallbackQueue  []*model.Chapter
	fallbackLoaded bool

	finalizeErrs map[string]string
	chaptersDone atomic.Int32

	onProgress func(ProgressEvent)
	mu         sync.RWMutex
}

// NewManager creates a Manager wired from settings. onProgress may be
// nil when no UI wants live updates.
func NewManager(settings *config.Settings, log *slog.Logger, onProgress func(ProgressEvent)) *Manager {
	client := mangadex.NewClient(log)
	httpClient := httpc.NewClient()

	var enhancer *enhance.Enhancer
	if settings.Enhance {
		enhancer = enhance.New(
			settings.EnhanceCommand,
			settings.EnhanceNoise,
			settings.EnhanceScale,
			time.Duration(settings.EnhanceTimeout)*time.Second,
			log,
		)
	}

	return &Manager{
		settings: settings,
		client:   client,
		resolver: mangadex.NewResolver(client, settings.FeedPageSize, log),
		fetcher: NewFetcher(
			client,
			httpClient,
			settings.PageWorkers,
			settings.PageRetries,
			secondsToDuration(settings.PageRetryDelay),
			secondsToDuration(settings.ChapterCooldown),
			settings.DataSaver,
			log,
		),
		exporter:     export.NewExporter(settings.ExportDir, settings.PDFMaxDimension, log),
		enhancer:     enhancer,
		log:          log,
		finalizeErrs: make(map[string]string),
		onProgress:   onProgress,
	}
}

// Initialize resolves the manga reference into an ordered, deduplicated
// chapter queue, applies the selection, and prepares group tracking.
//
// An unresolvable manga reference is fatal. An empty resolved queue is
// not: the run simply has nothing to do.
func (m *Manager) Initialize(ctx context.Context, mangaRef string, sel Selection) error {
	id, err := mangadex.ParseMangaRef(mangaRef)
	if err != nil {
		return err
	}
	m.mangaID = id

	if m.enhancer != nil {
		if err := m.enhancer.Verify(ctx); err != nil {
			m.log.Warn("upscaler command unavailable, continuing without enhancement", "error", err)
			m.progress(ProgressEvent{Message: "Upscaler not found, pages will not be enhanced", Level: LevelWarning})
			m.enhancer = nil
		}
	}

	title, err := m.client.ResolveMangaTitle(ctx, id)
	if err != nil {
		m.log.Warn("cannot resolve manga title", "error", err)
		title = "Unknown Manga"
	}
	m.mangaTitle = title
	m.root = filepath.Join(m.settings.DownloadDir, model.SanitizeFileName(title))
	m.progress(ProgressEvent{Message: fmt.Sprintf("Resolving chapters for %s", title), Level: LevelInfo})

	// A feed transport failure degrades to an empty queue: the run has
	// nothing to do, which is not fatal. Only an unresolvable manga
	// reference aborts.
	queue, err := m.resolver.Resolve(ctx, id, m.settings.Language)
	if err != nil {
		m.log.Error("chapter feed resolution failed", "error", err)
		m.progress(ProgressEvent{Message: fmt.Sprintf("Cannot resolve chapter feed: %v", err), Level: LevelError})
	}

	m.queue = sel.apply(queue)
	if len(m.queue) == 0 {
		m.progress(ProgressEvent{Message: "No chapters matched, nothing to do", Level: LevelWarning})
	} else {
		m.progress(ProgressEvent{
			Message: fmt.Sprintf("Found %d chapters (%d before selection)", len(m.queue), len(queue)),
			Level:   LevelInfo,
		})
	}

	expected := group.Assign(m.queue)
	m.tracker = group.NewTracker(expected, m.log)
	return nil
}

// MangaTitle returns the resolved title, available after Initialize.
func (m *Manager) MangaTitle() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.mangaTitle
}

// ChapterNames returns display names for all queued chapters.
func (m *Manager) ChapterNames() []string {
	names := make([]string, len(m.queue))
	for i, c := range m.queue {
		names[i] = fmt.Sprintf("Chapter %s (%s)", displayNumber(c), c.GroupKey)
	}
	return names
}

// GetProgress returns chapters done, chapters total, pages done, pages
// known so far, and bytes received. Safe to call from another goroutine
// while Run is in flight.
func (m *Manager) GetProgress() (chaptersDone, chaptersTotal int, pagesDone, pagesTotal int32, bytes int64) {
	pd, pt, b := m.fetcher.Progress()
	return int(m.chaptersDone.Load()), len(m.queue), pd, pt, b
}

// Run processes the queue serially, finalizing each group as it
// completes, then sweeps leftover directories so nothing is left
// unfinalized. Cancellation stops the loop between chapters; whatever
// finished stays on disk.
//
// Run always returns a summary, even for interrupted or partially
// failed runs. Download failures are recorded in the summary, not
// returned as errors.
func (m *Manager) Run(ctx context.Context) *report.Summary {
	interrupted := false

	for i, c := range m.queue {
		if ctx.Err() != nil {
			interrupted = true
			break
		}
		if i > 0 && !sleepCtx(ctx, secondsToDuration(m.settings.PolitenessDelay)) {
			interrupted = true
			break
		}

		m.progress(ProgressEvent{
			Message: fmt.Sprintf("Downloading chapter %s (%d/%d)", displayNumber(c), i+1, len(m.queue)),
			Level:   LevelInfo,
		})

		destDir := filepath.Join(m.root, c.GroupKey, c.DirName())
		outcome := m.fetcher.Fetch(ctx, c, destDir, m.fallbackFor(ctx, c))

		if ctx.Err() != nil {
			// Cancelled mid-chapter: disk state is whatever survived, do
			// not let a forced last-chapter completion fire on it.
			interrupted = true
			break
		}

		m.chaptersDone.Add(1)
		m.reportOutcome(c, outcome)

		// A failed chapter may leave a partial directory behind; only a
		// fully successful fetch counts toward the group.
		onDisk := outcome.Succeeded() && hasEntries(destDir)
		last := i == len(m.queue)-1
		if m.tracker.Observe(c, onDisk, last) {
			m.finalizeGroup(ctx, c.GroupKey)
		}
	}

	if !interrupted {
		m.sweep(ctx)
	}

	return m.buildSummary(interrupted)
}

// fallbackFor returns a lazy lookup for a same-numbered chapter in the
// fallback language. The fallback feed is resolved at most once per run.
func (m *Manager) fallbackFor(ctx context.Context, c *model.Chapter) func() *model.Chapter {
	return func() *model.Chapter {
		if m.settings.FallbackLanguage == "" || m.settings.FallbackLanguage == m.settings.Language {
			return nil
		}
		if strings.TrimSpace(c.Number) == "" {
			return nil
		}

		if !m.fallbackLoaded {
			m.fallbackLoaded = true
			queue, err := m.resolver.Resolve(ctx, m.mangaID, m.settings.FallbackLanguage)
			if err != nil {
				m.log.Warn("cannot resolve fallback language feed",
					"language", m.settings.FallbackLanguage, "error", err)
			}
			m.fallbackQueue = queue
		}
		return mangadex.FindByNumber(m.fallbackQueue, c.Number)
	}
}

func (m *Manager) reportOutcome(c *model.Chapter, outcome model.Outcome) {
	switch outcome {
	case model.OutcomeSuccess:
		m.progress(ProgressEvent{Message: fmt.Sprintf("Chapter %s downloaded", displayNumber(c)), Level: LevelSuccess})
	case model.OutcomeRetriedSuccess:
		m.progress(ProgressEvent{Message: fmt.Sprintf("Chapter %s downloaded after retry", displayNumber(c)), Level: LevelSuccess})
	case model.OutcomeFallbackSuccess:
		m.progress(ProgressEvent{
			Message: fmt.Sprintf("Chapter %s downloaded in fallback language %s", displayNumber(c), m.settings.FallbackLanguage),
			Level:   LevelWarning,
		})
	case model.OutcomeFailed:
		m.progress(ProgressEvent{Message: fmt.Sprintf("Chapter %s failed", displayNumber(c)), Level: LevelError})
	}
}

// sweep finalizes any group directory left on disk that never reached
// its expected count, Unknown groups included.
func (m *Manager) sweep(ctx context.Context) {
	entries, err := os.ReadDir(m.root)
	if err != nil {
		if !os.IsNotExist(err) {
			m.log.Warn("cannot scan download directory for sweep", "dir", m.root, "error", err)
		}
		return
	}

	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		// Enhancement scratch left behind by a failed finalize is not a
		// group of its own.
		if strings.HasSuffix(e.Name(), "_enhanced") {
			continue
		}
		if m.tracker.SweepMark(e.Name()) {
			m.progress(ProgressEvent{
				Message: fmt.Sprintf("Finalizing incomplete group %s", e.Name()),
				Level:   LevelInfo,
			})
			m.finalizeGroup(ctx, e.Name())
		}
	}
}

// finalizeGroup runs validate, optional enhance, export, and cleanup for
// one group. Any failure leaves the raw directory intact; only a
// successful export earns cleanup.
func (m *Manager) finalizeGroup(ctx context.Context, key string) {
	if err := m.runFinalize(ctx, key); err != nil {
		m.log.Error("finalize failed, raw directory kept", "group", key, "error", err)
		m.finalizeErrs[key] = err.Error()
		m.progress(ProgressEvent{Message: fmt.Sprintf("Finalize failed for %s: %v", key, err), Level: LevelError})
	}
}

func (m *Manager) runFinalize(ctx context.Context, key string) error {
	rawDir := filepath.Join(m.root, key)

	images, err := export.CollectImages(rawDir)
	if err != nil {
		return fmt.Errorf("validate %s: %w", key, err)
	}
	if len(images) == 0 {
		m.log.Warn("group has no images, removing empty directory", "group", key)
		return os.RemoveAll(rawDir)
	}

	exportSrc := rawDir
	enhancedDir := ""
	if m.enhancer != nil {
		dir := rawDir + "_enhanced"
		if err := m.enhanceGroup(ctx, rawDir, dir); err != nil {
			m.log.Warn("enhancement failed, exporting raw images", "group", key, "error", err)
			os.RemoveAll(dir)
		} else {
			exportSrc = dir
			enhancedDir = dir
		}
	}

	name := model.SanitizeFileName(fmt.Sprintf("%s %s", m.mangaTitle, key))
	exported := false
	if m.settings.ExportCBZ {
		if err := m.exporter.ExportCBZ(exportSrc, name); err != nil {
			return fmt.Errorf("export CBZ for %s: %w", key, err)
		}
		exported = true
	}
	if m.settings.ExportPDF {
		if err := m.exporter.ExportPDF(exportSrc, name); err != nil {
			return fmt.Errorf("export PDF for %s: %w", key, err)
		}
		exported = true
	}

	if exported {
		if err := os.RemoveAll(rawDir); err != nil {
			return fmt.Errorf("cleanup %s: %w", key, err)
		}
		if enhancedDir != "" {
			if err := os.RemoveAll(enhancedDir); err != nil {
				return fmt.Errorf("cleanup %s: %w", key, err)
			}
		}
		m.progress(ProgressEvent{Message: fmt.Sprintf("Finalized %s", key), Level: LevelSuccess})
	} else {
		m.progress(ProgressEvent{
			Message: fmt.Sprintf("No export formats enabled, keeping raw images for %s", key),
			Level:   LevelInfo,
		})
	}
	return nil
}

// enhanceGroup runs the external upscaler on every chapter subdirectory
// of the group. A failure for any subdirectory fails the whole group, so
// the caller falls back to raw images instead of exporting a mix.
func (m *Manager) enhanceGroup(ctx context.Context, rawDir, dstDir string) error {
	entries, err := os.ReadDir(rawDir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		src := filepath.Join(rawDir, e.Name())
		dst := filepath.Join(dstDir, e.Name())
		if err := m.enhancer.Enhance(ctx, src, dst); err != nil {
			return fmt.Errorf("enhance %s: %w", e.Name(), err)
		}
	}
	return nil
}

func (m *Manager) buildSummary(interrupted bool) *report.Summary {
	s := &report.Summary{
		MangaTitle:  m.mangaTitle,
		Interrupted: interrupted,
	}
	for _, c := range m.queue {
		s.Chapters = append(s.Chapters, report.ChapterLine{
			Number:  displayNumber(c),
			ID:      c.ID,
			Group:   c.GroupKey,
			Outcome: c.Outcome.String(),
		})
	}
	groups := m.tracker.Groups()
	sort.Slice(groups, func(i, j int) bool { return natural.Less(groups[i].Key, groups[j].Key) })
	for _, g := range groups {
		s.Groups = append(s.Groups, report.GroupLine{
			Key:       g.Key,
			Expected:  g.Expected,
			Observed:  g.Observed,
			Finalized: g.Finalized,
			Error:     m.finalizeErrs[g.Key],
		})
	}
	return s
}

func (m *Manager) progress(event ProgressEvent) {
	if m.onProgress != nil {
		m.onProgress(event)
	}
}

func displayNumber(c *model.Chapter) string {
	if n := strings.TrimSpace(c.Number); n != "" {
		return n
	}
	if len(c.ID) > 8 {
		return c.ID[:8]
	}
	return c.ID
}

func hasEntries(dir string) bool {
	entries, err := os.ReadDir(dir)
	return err == nil && len(entries) > 0
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
