package group

import (
	"log/slog"

	"tankobon/internal/model"
)

// Tracker decides when a group is ready to finalize.
//
// The orchestration loop calls Observe after every chapter fetch, in
// queue order; finalize decisions for a group are therefore never made
// concurrently and the finalized flag is set at most once. Groups the
// prediction undercounts are caught later by SweepMark.
type Tracker struct {
	groups map[string]*model.Group
	log    *slog.Logger
}

// NewTracker creates a Tracker seeded with the predicted expected member
// count per group key.
func NewTracker(expected map[string]int, log *slog.Logger) *Tracker {
	groups := make(map[string]*model.Group, len(expected))
	for key, n := range expected {
		groups[key] = &model.Group{Key: key, Expected: n}
	}
	return &Tracker{groups: groups, log: log}
}

// Group returns the tracked group for key, creating it lazily with no
// expected count (sweep-only completion).
func (t *Tracker) Group(key string) *model.Group {
	g, ok := t.groups[key]
	if !ok {
		g = &model.Group{Key: key}
		t.groups[key] = g
	}
	return g
}

// Groups returns all tracked groups.
func (t *Tracker) Groups() []*model.Group {
	out := make([]*model.Group, 0, len(t.groups))
	for _, g := range t.groups {
		out = append(out, g)
	}
	return out
}

// Observe records the result of one chapter fetch. onDisk reports whether
// the chapter's pages are now present under the destination tree; last
// reports whether this was the final chapter of the entire queue, which
// forces completion of its group regardless of the count.
//
// Returns true exactly once per group, when its finalize event fires.
func (t *Tracker) Observe(c *model.Chapter, onDisk, last bool) bool {
	g := t.Group(c.GroupKey)

	if onDisk {
		g.Observed++
	}

	if g.Finalized {
		return false
	}
	if g.Complete() || last {
		g.Finalized = true
		t.log.Debug("group complete",
			"group", g.Key, "observed", g.Observed, "expected", g.Expected, "forced", last && !g.Complete())
		return true
	}
	return false
}

// SweepMark marks the group for key as finalized if it was not already,
// creating it if the directory on disk was never observed during the main
// pass. Returns true when the caller should run finalization for it.
func (t *Tracker) SweepMark(key string) bool {
	g := t.Group(key)
	if g.Finalized {
		return false
	}
	g.Finalized = true
	return true
}
