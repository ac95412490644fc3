package model

import (
	"testing"
	"time"
)

func TestSanitizeFileName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"normal-title", "normal-title"},
		{"title:with:colons", "title_with_colons"},
		{"title<with>brackets", "title_with_brackets"},
		{"title/with\\slashes", "title_with_slashes"},
		{"title|with|pipes", "title_with_pipes"},
		{"title?with*wildcards", "title_with_wildcards"},
		{"title\"with\"quotes", "title_with_quotes"},
		{"trailing dots...", "trailing dots"},
		{"multiple   spaces", "multiple spaces"},
		{"trailing spaces   ", "trailing spaces"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := SanitizeFileName(tt.input)
			if got != tt.want {
				t.Errorf("SanitizeFileName(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestChapter_NumberValue(t *testing.T) {
	tests := []struct {
		number string
		want   float64
	}{
		{"12", 12},
		{"12.5", 12.5},
		{" 3 ", 3},
		{"", 0},
		{"extra", 0},
		{"0", 0},
	}

	for _, tt := range tests {
		t.Run(tt.number, func(t *testing.T) {
			c := &Chapter{Number: tt.number}
			if got := c.NumberValue(); got != tt.want {
				t.Errorf("NumberValue() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestChapter_Supersedes(t *testing.T) {
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		a, b  *Chapter
		wantA bool
	}{
		{
			name:  "higher version wins",
			a:     &Chapter{Version: 2, CreatedAt: base},
			b:     &Chapter{Version: 1, CreatedAt: base.Add(time.Hour)},
			wantA: true,
		},
		{
			name:  "lower version loses",
			a:     &Chapter{Version: 1, CreatedAt: base.Add(time.Hour)},
			b:     &Chapter{Version: 3, CreatedAt: base},
			wantA: false,
		},
		{
			name:  "version tie broken by newest creation time",
			a:     &Chapter{Version: 1, CreatedAt: base.Add(time.Minute)},
			b:     &Chapter{Version: 1, CreatedAt: base},
			wantA: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Supersedes(tt.b); got != tt.wantA {
				t.Errorf("Supersedes() = %v, want %v", got, tt.wantA)
			}
		})
	}
}

func TestChapter_DirName(t *testing.T) {
	tests := []struct {
		name    string
		chapter *Chapter
		want    string
	}{
		{
			name:    "numbered chapter",
			chapter: &Chapter{ID: "aaaa-bbbb", Number: "12.5"},
			want:    "Ch_12.5",
		},
		{
			name:    "unnumbered chapter uses truncated id",
			chapter: &Chapter{ID: "d9f90199-79fb-403f-a313-a054f1a77b0c"},
			want:    "Chapter_d9f90199",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.chapter.DirName(); got != tt.want {
				t.Errorf("DirName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestOutcome_Succeeded(t *testing.T) {
	succeeded := []Outcome{OutcomeSuccess, OutcomeRetriedSuccess, OutcomeFallbackSuccess}
	for _, o := range succeeded {
		if !o.Succeeded() {
			t.Errorf("%s.Succeeded() = false, want true", o)
		}
	}
	for _, o := range []Outcome{OutcomePending, OutcomeFailed} {
		if o.Succeeded() {
			t.Errorf("%s.Succeeded() = true, want false", o)
		}
	}
}
