package report

import (
	"fmt"
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
)

// ChapterLine is one chapter's outcome in the run summary.
type ChapterLine struct {
	Number  string
	ID      string
	Group   string
	Outcome string
}

// GroupLine is one group's completion state in the run summary.
type GroupLine struct {
	Key       string
	Expected  int
	Observed  int
	Finalized bool
	Error     string
}

// Summary is the end-of-run report. It always renders, including after
// an interrupted or partially failed run.
type Summary struct {
	MangaTitle  string
	Chapters    []ChapterLine
	Groups      []GroupLine
	Interrupted bool
}

// Failed returns the chapters whose downloads did not succeed.
func (s *Summary) Failed() []ChapterLine {
	var failed []ChapterLine
	for _, c := range s.Chapters {
		if c.Outcome == "failed" {
			failed = append(failed, c)
		}
	}
	return failed
}

// Render writes the summary tables to w. Colors and unicode borders are
// used only when w is an interactive terminal.
func (s *Summary) Render(w io.Writer) {
	styled := false
	if f, ok := w.(*os.File); ok {
		styled = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}

	fmt.Fprintf(w, "\n%s\n", s.MangaTitle)
	if s.Interrupted {
		fmt.Fprintln(w, "run interrupted, partial results below")
	}

	gt := table.NewWriter()
	gt.SetOutputMirror(w)
	gt.SetTitle("Groups")
	gt.AppendHeader(table.Row{"Group", "Expected", "Observed", "Finalized", "Error"})
	for _, g := range s.Groups {
		finalized := "no"
		if g.Finalized {
			finalized = "yes"
		}
		gt.AppendRow(table.Row{g.Key, g.Expected, g.Observed, finalized, g.Error})
	}
	applyStyle(gt, styled)
	gt.Render()

	failed := s.Failed()
	if len(failed) == 0 {
		fmt.Fprintf(w, "all %d chapters downloaded\n", len(s.Chapters))
		return
	}

	ft := table.NewWriter()
	ft.SetOutputMirror(w)
	ft.SetTitle("Failed chapters")
	ft.AppendHeader(table.Row{"Chapter", "ID", "Group"})
	for _, c := range failed {
		ft.AppendRow(table.Row{c.Number, c.ID, c.Group})
	}
	applyStyle(ft, styled)
	ft.Render()
	fmt.Fprintf(w, "%d of %d chapters failed\n", len(failed), len(s.Chapters))
}

func applyStyle(t table.Writer, styled bool) {
	if !styled {
		t.SetStyle(table.StyleDefault)
		return
	}
	style := table.StyleRounded
	style.Title.Colors = text.Colors{text.Bold}
	t.SetStyle(style)
}
