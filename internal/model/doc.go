// Package model defines the core data structures shared by the
// acquisition and assembly pipeline.
//
// # Chapter
//
// Chapter represents one downloadable chapter, including the metadata used
// for canonical selection among competing uploads:
//
//	if candidate.Supersedes(current) {
//	    current = candidate
//	}
//
// # Group
//
// Group tracks completion state for a volume or chapter band:
//
//	g := &model.Group{Key: "Chapters_001-010", Expected: 10}
//	g.Observed++
//	if g.Complete() && !g.Finalized { ... }
//
// # Outcome
//
// Outcome records how a chapter fetch ended (success, retried-success,
// fallback-success, or failed) and feeds the end-of-run report.
package model
