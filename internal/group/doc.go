// Package group assigns chapters to volumes or numeric chapter bands and
// tracks per-group completion so finalization fires exactly once.
package group
