package group

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"tankobon/internal/model"
)

// bandWidth is the number of whole chapters covered by one numeric band.
const bandWidth = 10

// Classify maps a chapter to its group key.
//
// Chapters with a volume label group under "Volume_NN" (zero-padded when
// the label is an integer, the raw label otherwise). Chapters without a
// volume fall into a width-10 numeric band like "Chapters_011-020" based
// on the floor of their chapter number; fractional chapters belong to
// the band of their integer floor. Chapters with neither a volume nor a
// parsable number get an "Unknown" key derived from their id, and are
// only picked up by the end-of-run sweep.
func Classify(c *model.Chapter) string {
	if v := strings.TrimSpace(c.Volume); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return fmt.Sprintf("Volume_%02d", n)
		}
		return model.SanitizeFileName("Volume_" + v)
	}

	if c.HasNumber() {
		start, end := BandBounds(c.NumberValue())
		return fmt.Sprintf("Chapters_%03d-%03d", start, end)
	}

	id := c.ID
	if len(id) > 8 {
		id = id[:8]
	}
	return model.SanitizeFileName("Unknown_" + id)
}

// BandBounds returns the inclusive chapter-number range of the band
// containing n. Bands are anchored at 1: [1,10], [11,20], and so on.
func BandBounds(n float64) (start, end int) {
	start = int(math.Floor((math.Floor(n)-1)/bandWidth))*bandWidth + 1
	end = start + bandWidth - 1
	return start, end
}

// Assign sets the group key on every chapter in the queue and returns
// the predicted expected member count per group.
//
// Volume groups expect exactly their queued member count. Numeric bands
// expect the band width, capped by how many queued chapters actually
// fall in the band (a band at the tail of the queue may be narrower).
// Unknown groups expect zero, which disables ordinary completion
// detection; the sweep finalizes them.
func Assign(queue []*model.Chapter) map[string]int {
	members := make(map[string]int)
	for _, c := range queue {
		c.GroupKey = Classify(c)
		members[c.GroupKey]++
	}

	expected := make(map[string]int, len(members))
	for key, n := range members {
		switch {
		case strings.HasPrefix(key, "Volume_"):
			expected[key] = n
		case strings.HasPrefix(key, "Chapters_"):
			expected[key] = min(bandWidth, n)
		default:
			expected[key] = 0
		}
	}
	return expected
}
