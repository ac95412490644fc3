// Package tui provides a Bubble Tea terminal user interface for tankobon.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"tankobon/internal/config"
	"tankobon/internal/download"
	"tankobon/internal/logging"
	"tankobon/internal/report"
)

// Styles for the TUI
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF6B6B")).
			MarginBottom(1)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4ECDC4"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#95E1A3"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFE66D"))

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A8DADC"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6C757D"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#4ECDC4")).
			Padding(1, 2)

	chapterStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F8B500"))
)

// State represents the current UI state.
type State int

const (
	StateInput State = iota
	StateInitializing
	StateDownloading
	StateComplete
	StateError
)

// LogEntry represents a log message in the UI.
type LogEntry struct {
	Message string
	Level   download.ProgressLevel
}

// Model is the Bubble Tea model for the TUI.
type Model struct {
	state     State
	textInput textinput.Model
	spinner   spinner.Model
	progress  progress.Model
	settings  *config.Settings
	logs      []LogEntry
	title     string
	chapters  []string
	summary   *report.Summary
	err       error

	// Pipeline context
	ctx    context.Context
	cancel context.CancelFunc

	manager *download.Manager
	events  chan download.ProgressEvent

	// Pipeline progress
	chaptersDone  int
	chaptersTotal int
	pagesDone     int32
	pagesTotal    int32
	receivedBytes int64

	// Options
	enhance   bool
	pdf       bool
	dataSaver bool
	verbose   bool

	width  int
	height int
}

// NewModel creates a new TUI model.
func NewModel() Model {
	ti := textinput.New()
	ti.Placeholder = "https://mangadex.org/title/<uuid>/name"
	ti.Focus()
	ti.CharLimit = 500
	ti.Width = 60

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 50

	ctx, cancel := context.WithCancel(context.Background())

	return Model{
		state:     StateInput,
		textInput: ti,
		spinner:   sp,
		progress:  prog,
		settings:  config.DefaultSettings(),
		logs:      make([]LogEntry, 0),
		events:    make(chan download.ProgressEvent, 64),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

// Message types
type (
	// ProgressMsg carries one pipeline progress event into the log pane.
	ProgressMsg struct {
		Event download.ProgressEvent
	}

	// InitDoneMsg is sent when queue resolution completes.
	InitDoneMsg struct {
		Title    string
		Chapters []string
		Manager  *download.Manager
		Err      error
	}

	// DownloadDoneMsg is sent when the pipeline run finishes.
	DownloadDoneMsg struct {
		Summary *report.Summary
	}

	// TickMsg is for periodic progress updates.
	TickMsg struct{}
)

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progress.Width = msg.Width - 20
		if m.progress.Width > 80 {
			m.progress.Width = 80
		}
		if m.progress.Width < 20 {
			m.progress.Width = 20
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.cancel()
			return m, tea.Quit

		case "esc":
			if m.state == StateInput {
				return m, tea.Quit
			}
			if m.state == StateDownloading || m.state == StateInitializing {
				m.cancel()
				m.state = StateError
				m.err = fmt.Errorf("cancelled by user")
			}

		case "enter":
			if m.state == StateInput && m.textInput.Value() != "" {
				m.state = StateInitializing
				return m, tea.Batch(m.initializePipeline(), m.waitForEvent(), m.spinner.Tick)
			}

		case "e":
			if m.state == StateInput {
				m.enhance = !m.enhance
			}

		case "p":
			if m.state == StateInput {
				m.pdf = !m.pdf
			}

		case "s":
			if m.state == StateInput {
				m.dataSaver = !m.dataSaver
			}

		case "v":
			if m.state == StateInput {
				m.verbose = !m.verbose
			}

		case "q":
			if m.state == StateComplete || m.state == StateError {
				return m, tea.Quit
			}

		case "r":
			if m.state == StateComplete || m.state == StateError {
				// Reset for a new run
				m.state = StateInput
				m.logs = nil
				m.title = ""
				m.chapters = nil
				m.summary = nil
				m.err = nil
				m.chaptersDone = 0
				m.chaptersTotal = 0
				m.pagesDone = 0
				m.pagesTotal = 0
				m.receivedBytes = 0
				m.manager = nil
				m.ctx, m.cancel = context.WithCancel(context.Background())
				m.textInput.SetValue("")
				m.textInput.Focus()
			}
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case ProgressMsg:
		if msg.Event.Level != download.LevelVerbose || m.verbose {
			m.logs = append(m.logs, LogEntry{
				Message: msg.Event.Message,
				Level:   msg.Event.Level,
			})
			// Keep only the last 10 logs
			if len(m.logs) > 10 {
				m.logs = m.logs[len(m.logs)-10:]
			}
		}
		if m.state == StateInitializing || m.state == StateDownloading {
			cmds = append(cmds, m.waitForEvent())
		}

	case InitDoneMsg:
		if msg.Err != nil {
			m.state = StateError
			m.err = msg.Err
		} else {
			m.title = msg.Title
			m.chapters = msg.Chapters
			m.manager = msg.Manager
			m.chaptersTotal = len(msg.Chapters)
			m.state = StateDownloading
			cmds = append(cmds, m.startPipeline(), m.tickProgress())
		}

	case DownloadDoneMsg:
		m.summary = msg.Summary
		if m.manager != nil {
			m.chaptersDone, m.chaptersTotal, m.pagesDone, m.pagesTotal, m.receivedBytes = m.manager.GetProgress()
		}
		if m.ctx.Err() != nil {
			m.state = StateError
			m.err = fmt.Errorf("cancelled by user")
		} else {
			m.state = StateComplete
		}

	case TickMsg:
		// Update progress from the manager
		if m.manager != nil && m.state == StateDownloading {
			m.chaptersDone, m.chaptersTotal, m.pagesDone, m.pagesTotal, m.receivedBytes = m.manager.GetProgress()

			var percent float64
			if m.chaptersTotal > 0 {
				percent = float64(m.chaptersDone) / float64(m.chaptersTotal)
			}
			progressCmd := m.progress.SetPercent(percent)
			cmds = append(cmds, progressCmd, m.tickProgress())
		}

	case progress.FrameMsg:
		progressModel, cmd := m.progress.Update(msg)
		m.progress = progressModel.(progress.Model)
		cmds = append(cmds, cmd)
	}

	// Update text input
	if m.state == StateInput {
		var cmd tea.Cmd
		m.textInput, cmd = m.textInput.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// tickProgress returns a command to tick progress updates.
func (m Model) tickProgress() tea.Cmd {
	return tea.Tick(200*time.Millisecond, func(_ time.Time) tea.Msg {
		return TickMsg{}
	})
}

// waitForEvent blocks for the next pipeline progress event.
func (m Model) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		return ProgressMsg{Event: <-m.events}
	}
}

// View renders the UI.
func (m Model) View() string {
	var b strings.Builder

	// Header
	b.WriteString(titleStyle.Render("📚 tankobon"))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Download manga from MangaDex"))
	b.WriteString("\n\n")

	switch m.state {
	case StateInput:
		b.WriteString(m.viewInput())
	case StateInitializing:
		b.WriteString(m.viewInitializing())
	case StateDownloading:
		b.WriteString(m.viewDownloading())
	case StateComplete:
		b.WriteString(m.viewComplete())
	case StateError:
		b.WriteString(m.viewError())
	}

	// Footer
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(m.getHelpText()))

	return b.String()
}

func (m Model) viewInput() string {
	var b strings.Builder

	b.WriteString(subtitleStyle.Render("Enter MangaDex URL or manga id:"))
	b.WriteString("\n\n")
	b.WriteString(m.textInput.View())
	b.WriteString("\n\n")

	check := func(on bool) string {
		if on {
			return "[×]"
		}
		return "[ ]"
	}

	b.WriteString(infoStyle.Render("Options:"))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("  %s Upscale pages (e)\n", check(m.enhance)))
	b.WriteString(fmt.Sprintf("  %s Export PDF (p)\n", check(m.pdf)))
	b.WriteString(fmt.Sprintf("  %s Data saver (s)\n", check(m.dataSaver)))
	b.WriteString(fmt.Sprintf("  %s Verbose output (v)\n", check(m.verbose)))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("Download path: %s", m.settings.DownloadDir)))
	b.WriteString("\n")

	return b.String()
}

func (m Model) viewInitializing() string {
	var b strings.Builder

	b.WriteString(m.spinner.View())
	b.WriteString(" ")
	b.WriteString(subtitleStyle.Render("Resolving chapters..."))
	b.WriteString("\n\n")

	b.WriteString(m.renderLogs())

	return b.String()
}

func (m Model) viewDownloading() string {
	var b strings.Builder

	if m.title != "" {
		b.WriteString(successStyle.Render(fmt.Sprintf("%s (%d chapters)", m.title, len(m.chapters))))
		b.WriteString("\n")
		// Show a window of upcoming chapters instead of the whole queue.
		shown := m.chapters
		if len(shown) > 5 {
			shown = shown[:5]
		}
		for _, ch := range shown {
			b.WriteString(chapterStyle.Render(fmt.Sprintf("  » %s", ch)))
			b.WriteString("\n")
		}
		if len(m.chapters) > 5 {
			b.WriteString(dimStyle.Render(fmt.Sprintf("  … and %d more", len(m.chapters)-5)))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	var percent float64
	if m.chaptersTotal > 0 {
		percent = float64(m.chaptersDone) / float64(m.chaptersTotal)
	}
	b.WriteString(m.progress.ViewAs(percent))
	b.WriteString("\n")

	b.WriteString(infoStyle.Render(fmt.Sprintf(
		"Chapters: %d/%d | Pages: %d/%d | Downloaded: %.2f MB",
		m.chaptersDone,
		m.chaptersTotal,
		m.pagesDone,
		m.pagesTotal,
		float64(m.receivedBytes)/1024/1024,
	)))
	b.WriteString("\n\n")

	b.WriteString(m.renderLogs())

	return b.String()
}

func (m Model) viewComplete() string {
	var b strings.Builder

	failed := 0
	finalized := 0
	if m.summary != nil {
		failed = len(m.summary.Failed())
		for _, g := range m.summary.Groups {
			if g.Finalized {
				finalized++
			}
		}
	}

	status := "✨ Download Complete!"
	if failed > 0 {
		status = fmt.Sprintf("⚠ Finished with %d failed chapter(s)", failed)
	}

	box := boxStyle.Render(fmt.Sprintf(
		"%s\n\n"+
			"Chapters: %d/%d\n"+
			"Groups finalized: %d\n"+
			"Size: %.2f MB",
		status,
		m.chaptersDone-failed,
		m.chaptersTotal,
		finalized,
		float64(m.receivedBytes)/1024/1024,
	))
	b.WriteString(box)

	return b.String()
}

func (m Model) viewError() string {
	var b strings.Builder

	b.WriteString(errorStyle.Render("❌ Error occurred:"))
	b.WriteString("\n\n")
	if m.err != nil {
		b.WriteString(fmt.Sprintf("  %s", m.err.Error()))
	}

	return b.String()
}

func (m Model) renderLogs() string {
	var b strings.Builder

	for _, log := range m.logs {
		var style lipgloss.Style
		prefix := "•"
		switch log.Level {
		case download.LevelError:
			style = errorStyle
			prefix = "✗"
		case download.LevelWarning:
			style = warningStyle
			prefix = "!"
		case download.LevelSuccess:
			style = successStyle
			prefix = "✓"
		case download.LevelInfo:
			style = infoStyle
			prefix = "›"
		default:
			style = dimStyle
		}
		b.WriteString(style.Render(prefix + " " + log.Message))
		b.WriteString("\n")
	}

	return b.String()
}

func (m Model) getHelpText() string {
	switch m.state {
	case StateInput:
		return "enter: start • e: enhance • p: pdf • s: data saver • v: verbose • esc: quit"
	case StateInitializing, StateDownloading:
		return "esc: cancel"
	case StateComplete, StateError:
		return "r: new download • q: quit"
	}
	return ""
}

// initializePipeline resolves the chapter queue and creates the manager.
func (m *Model) initializePipeline() tea.Cmd {
	ctx := m.ctx
	events := m.events
	ref := m.textInput.Value()

	settings := config.DefaultSettings()
	settings.Enhance = m.enhance
	settings.ExportPDF = m.pdf
	settings.DataSaver = m.dataSaver

	return func() tea.Msg {
		manager := download.NewManager(settings, logging.Discard(), func(event download.ProgressEvent) {
			select {
			case events <- event:
			default:
				// UI is behind; dropping a log line beats blocking the pipeline.
			}
		})

		if err := manager.Initialize(ctx, ref, download.Selection{}); err != nil {
			return InitDoneMsg{Err: err}
		}

		return InitDoneMsg{
			Title:    manager.MangaTitle(),
			Chapters: manager.ChapterNames(),
			Manager:  manager,
		}
	}
}

// startPipeline runs the download pipeline in the background.
func (m *Model) startPipeline() tea.Cmd {
	ctx := m.ctx
	manager := m.manager

	return func() tea.Msg {
		return DownloadDoneMsg{Summary: manager.Run(ctx)}
	}
}

// Run starts the TUI application.
func Run() error {
	p := tea.NewProgram(NewModel(), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
