package mangadex

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"tankobon/internal/mangadex/dto"
	"tankobon/internal/model"
)

// feedSource is the slice of the API client the resolver needs.
type feedSource interface {
	ResolveFeedPage(ctx context.Context, mangaID, language string, limit, offset int) ([]dto.ChapterData, error)
}

// Resolver produces the canonical, ordered, deduplicated chapter queue
// for a manga in one language.
//
// MangaDex feeds routinely contain several competing uploads for the same
// chapter number (scanlation group races, corrected re-uploads). The
// resolver keeps exactly one per number: the highest upload version, with
// ties broken by the newest creation time.
type Resolver struct {
	source   feedSource
	pageSize int
	log      *slog.Logger
}

// NewResolver creates a Resolver reading pageSize-sized feed pages.
func NewResolver(source feedSource, pageSize int, log *slog.Logger) *Resolver {
	return &Resolver{
		source:   source,
		pageSize: pageSize,
		log:      log,
	}
}

// Resolve returns the chapter queue for mangaID in the given language,
// sorted by chapter number ascending. Chapters whose number does not
// parse sort first. Uploads without any chapter number are dropped.
//
// A transport failure mid-pagination returns the error along with an
// empty queue; the caller treats that as "nothing to do".
func (r *Resolver) Resolve(ctx context.Context, mangaID, language string) ([]*model.Chapter, error) {
	var raw []dto.ChapterData

	for offset := 0; ; offset += r.pageSize {
		page, err := r.source.ResolveFeedPage(ctx, mangaID, language, r.pageSize, offset)
		if err != nil {
			return nil, err
		}
		raw = append(raw, page...)
		if len(page) < r.pageSize {
			break
		}
	}

	queue := Deduplicate(raw)

	sort.SliceStable(queue, func(i, j int) bool {
		return queue[i].NumberValue() < queue[j].NumberValue()
	})

	r.log.Info("resolved chapter queue",
		"manga", mangaID, "language", language,
		"uploads", len(raw), "chapters", len(queue))

	return queue, nil
}

// Deduplicate selects one canonical chapter per numbering key from raw
// feed entries. Entries without a chapter number are skipped. The winner
// per key is the upload with the highest version; ties go to the newest
// creation time.
func Deduplicate(raw []dto.ChapterData) []*model.Chapter {
	byKey := make(map[string]*model.Chapter)
	order := make([]string, 0, len(raw))

	for i := range raw {
		cd := &raw[i]
		if !cd.HasChapterNumber() {
			continue
		}
		key := strings.TrimSpace(*cd.Attributes.Chapter)
		candidate := cd.ToChapter()

		current, seen := byKey[key]
		if !seen {
			byKey[key] = candidate
			order = append(order, key)
			continue
		}
		if candidate.Supersedes(current) {
			byKey[key] = candidate
		}
	}

	queue := make([]*model.Chapter, 0, len(byKey))
	for _, key := range order {
		queue = append(queue, byKey[key])
	}
	return queue
}

// FindByNumber returns the chapter with the given numbering key, or nil.
// Used for the fallback-language lookup during fetch.
func FindByNumber(queue []*model.Chapter, number string) *model.Chapter {
	number = strings.TrimSpace(number)
	for _, c := range queue {
		if strings.TrimSpace(c.Number) == number {
			return c
		}
	}
	return nil
}
