package model

import (
	"regexp"
	"strings"
)

// Group is a bundle of chapters exported together: a volume, or a
// fixed-width chapter band when the uploads carry no volume metadata.
//
// Groups are created lazily by the classifier on first sight of a member
// chapter. Expected is the predicted member count used for completion
// detection; groups that never reach it during the main pass are picked up
// by the end-of-run sweep.
type Group struct {
	// Key is the group name, e.g. "Volume_03" or "Chapters_011-020".
	// It doubles as the directory name under the download root.
	Key string

	// Expected is the predicted member count. Zero means completion is
	// never detected during the main pass; the sweep handles the group.
	Expected int

	// Observed counts member chapters whose pages are present on disk.
	Observed int

	// Finalized is set exactly once, when the finalize event fires.
	Finalized bool
}

// Complete reports whether the group has reached its expected count.
// Groups without a prediction never complete during the main pass.
func (g *Group) Complete() bool {
	return g.Expected > 0 && g.Observed >= g.Expected
}

// SanitizeFileName removes or replaces characters that are invalid in
// file and directory names.
//
// Transformations applied:
//   - Invalid characters (<>:"/\|?* and control chars) become underscores
//   - Trailing dots are removed (Windows limitation)
//   - Runs of whitespace collapse to a single space
//   - Trailing whitespace is removed
func SanitizeFileName(name string) string {
	invalidChars := regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)
	name = invalidChars.ReplaceAllString(name, "_")

	name = regexp.MustCompile(`\.+$`).ReplaceAllString(name, "")

	name = regexp.MustCompile(`\s+`).ReplaceAllString(name, " ")

	return strings.TrimRight(name, " ")
}
