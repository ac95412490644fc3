package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Chapter represents one downloadable chapter of a manga.
//
// A Chapter is materialized by the resolver from the MangaDex feed and
// carries everything the pipeline needs:
//   - ID for API lookups
//   - Number (the chapter numbering key, possibly fractional, as reported)
//   - Volume label, when the upload carries one
//   - Version and CreatedAt, used to pick a canonical upload among
//     competing submissions for the same chapter number
//   - GroupKey, assigned by the classifier before fetching begins
//   - PageURLs, resolved lazily right before download
//   - Outcome, recorded by the fetcher for the end-of-run report
//
// Chapters are mutated only by the fetcher, one fetch task at a time.
type Chapter struct {
	// ID is the chapter UUID assigned by MangaDex.
	ID string

	// Number is the raw chapter number string from the feed, e.g. "12" or
	// "12.5". Empty means the upload carried no chapter number.
	Number string

	// Volume is the volume label from the feed, empty when absent.
	Volume string

	// Version is the upload revision; higher versions supersede lower ones.
	Version int

	// CreatedAt is when the upload was created, used to break version ties.
	CreatedAt time.Time

	// Language is the translated language code of this upload.
	Language string

	// GroupKey names the volume or chapter band this chapter belongs to.
	// Assigned by the classifier; doubles as the on-disk directory name.
	GroupKey string

	// PageURLs holds the resolved page image URLs. Populated by the
	// fetcher immediately before download.
	PageURLs []string

	// Outcome records how the fetch for this chapter ended.
	Outcome Outcome
}

// NumberValue parses the chapter number as a float.
//
// Unparsable or missing numbers return 0, which deliberately sorts such
// chapters before all numbered ones.
func (c *Chapter) NumberValue() float64 {
	n, err := strconv.ParseFloat(strings.TrimSpace(c.Number), 64)
	if err != nil {
		return 0
	}
	return n
}

// HasNumber reports whether the chapter carries a parsable chapter number.
func (c *Chapter) HasNumber() bool {
	_, err := strconv.ParseFloat(strings.TrimSpace(c.Number), 64)
	return err == nil
}

// DirName returns the directory name for this chapter inside its group
// directory, e.g. "Ch_12.5". Chapters without a number fall back to a
// truncated UUID so two unnumbered chapters never collide.
func (c *Chapter) DirName() string {
	if strings.TrimSpace(c.Number) != "" {
		return SanitizeFileName("Ch_" + strings.TrimSpace(c.Number))
	}
	return SanitizeFileName("Chapter_" + shortID(c.ID))
}

// Supersedes reports whether this chapter wins canonical selection over
// other, assuming both share the same chapter number. The highest version
// wins; ties are broken by the newest creation time.
func (c *Chapter) Supersedes(other *Chapter) bool {
	if other == nil {
		return true
	}
	if c.Version != other.Version {
		return c.Version > other.Version
	}
	return c.CreatedAt.After(other.CreatedAt)
}

// Outcome describes how fetching a chapter ended.
type Outcome int

const (
	// OutcomePending means the chapter has not been fetched yet.
	OutcomePending Outcome = iota

	// OutcomeSuccess means every page downloaded on the first attempt.
	OutcomeSuccess

	// OutcomeRetriedSuccess means the retry attempt succeeded after the
	// original attempt failed.
	OutcomeRetriedSuccess

	// OutcomeFallbackSuccess means a same-numbered chapter in the fallback
	// language succeeded after both primary attempts failed.
	OutcomeFallbackSuccess

	// OutcomeFailed means every attempt path failed.
	OutcomeFailed
)

// Succeeded reports whether any attempt path produced a full download.
func (o Outcome) Succeeded() bool {
	switch o {
	case OutcomeSuccess, OutcomeRetriedSuccess, OutcomeFallbackSuccess:
		return true
	}
	return false
}

// String returns the report label for the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomePending:
		return "pending"
	case OutcomeSuccess:
		return "success"
	case OutcomeRetriedSuccess:
		return "retried-success"
	case OutcomeFallbackSuccess:
		return "fallback-success"
	case OutcomeFailed:
		return "failed"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
