package group

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"tankobon/internal/model"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		chapter *model.Chapter
		want    string
	}{
		{
			name:    "integer volume label is zero padded",
			chapter: &model.Chapter{Volume: "3", Number: "21"},
			want:    "Volume_03",
		},
		{
			name:    "non-integer volume label kept raw",
			chapter: &model.Chapter{Volume: "Extra", Number: "21"},
			want:    "Volume_Extra",
		},
		{
			name:    "no volume falls into numeric band",
			chapter: &model.Chapter{Number: "15"},
			want:    "Chapters_011-020",
		},
		{
			name:    "fractional chapter uses integer floor",
			chapter: &model.Chapter{Number: "10.5"},
			want:    "Chapters_001-010",
		},
		{
			name:    "neither volume nor parsable number",
			chapter: &model.Chapter{ID: "d9f90199-79fb-403f", Number: "Oneshot"},
			want:    "Unknown_d9f90199",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.chapter))
		})
	}
}

func TestBandBounds(t *testing.T) {
	tests := []struct {
		n          float64
		start, end int
	}{
		{1, 1, 10},
		{10, 1, 10},
		{10.5, 1, 10},
		{11, 11, 20},
		{15, 11, 20},
		{21, 21, 30},
		{100, 91, 100},
	}

	for _, tt := range tests {
		start, end := BandBounds(tt.n)
		assert.Equal(t, tt.start, start, "start for %v", tt.n)
		assert.Equal(t, tt.end, end, "end for %v", tt.n)
		assert.Equal(t, 9, end-start, "width for %v", tt.n)
	}
}

func TestAssign_BandMembershipAndExpectedCounts(t *testing.T) {
	queue := []*model.Chapter{
		{ID: "a", Number: "3"},
		{ID: "b", Number: "7"},
		{ID: "c", Number: "15"},
	}

	expected := Assign(queue)

	assert.Equal(t, "Chapters_001-010", queue[0].GroupKey)
	assert.Equal(t, "Chapters_001-010", queue[1].GroupKey)
	assert.Equal(t, "Chapters_011-020", queue[2].GroupKey)

	assert.Equal(t, 2, expected["Chapters_001-010"])
	assert.Equal(t, 1, expected["Chapters_011-020"])
}

func TestAssign_VolumeAndUnknownExpectations(t *testing.T) {
	queue := []*model.Chapter{
		{ID: "a", Volume: "1", Number: "1"},
		{ID: "b", Volume: "1", Number: "2"},
		{ID: "c", Volume: "1", Number: "3"},
		{ID: "deadbeef-0000", Number: "Oneshot"},
	}

	expected := Assign(queue)

	assert.Equal(t, 3, expected["Volume_01"])
	assert.Equal(t, 0, expected["Unknown_deadbeef"], "unknown groups never complete in the main pass")
}

func TestAssign_BandExpectedCappedAtWidth(t *testing.T) {
	// Eleven fractional chapters in one band: expected stays at the width.
	queue := make([]*model.Chapter, 0, 11)
	for _, n := range []string{"1", "1.5", "2", "2.5", "3", "4", "5", "6", "7", "8", "9"} {
		queue = append(queue, &model.Chapter{ID: n, Number: n})
	}

	expected := Assign(queue)
	assert.Equal(t, 10, expected["Chapters_001-010"])
}
