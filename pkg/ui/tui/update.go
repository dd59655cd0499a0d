package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"listingcrawler/pkg/models"
)

// Message types for the TUI

// PageStartMsg is sent when a page fetch starts
type PageStartMsg struct {
	Page int
	URL  string
}

// PageResultMsg is sent when a page is finished
type PageResultMsg struct {
	Result models.PageResult
}

// VerificationMsg is sent when the crawl pauses on a verification wall
type VerificationMsg struct {
	Page int
	URL  string
}

// LogMsg is sent to add a log message
type LogMsg struct {
	Level   string
	Message string
}

// DoneMsg is sent when the crawl returns; the program quits on it
type DoneMsg struct {
	Err error
}

// TickMsg is sent periodically to update the UI
type TickMsg time.Time

// Update handles all messages and updates the model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progress.Width = progressWidth(msg.Width)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case progress.FrameMsg:
		pm, cmd := m.progress.Update(msg)
		if p, ok := pm.(progress.Model); ok {
			m.progress = p
		}
		return m, cmd

	case TickMsg:
		// Keeps elapsed time and ETA fresh
		return m, tickCmd()

	case PageStartMsg:
		m.StartPage(msg.Page, msg.URL)
		return m, nil

	case PageResultMsg:
		m.FinishPage(msg.Result)
		return m, nil

	case VerificationMsg:
		m.Pause(msg.Page, msg.URL)
		return m, nil

	case LogMsg:
		m.AddLogMessage(msg.Level, msg.Message)
		return m, nil

	case DoneMsg:
		m.Finish(msg.Err)
		return m, tea.Quit
	}

	return m, nil
}

// handleKeyPress handles keyboard input
func (m *Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "Q", "ctrl+c":
		m.AddLogMessage("WARN", "Interrupted by user")
		return m, tea.Quit

	case "r", "R", "enter":
		m.decide(true)
		return m, nil

	case "s", "S":
		m.decide(false)
		return m, nil

	case "?":
		m.showHelp = !m.showHelp
		return m, nil

	case "ctrl+l":
		m.logMessages = []LogMessage{}
		return m, nil
	}

	return m, nil
}

// tickCmd returns a command that sends a tick message
func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func progressWidth(termWidth int) int {
	w := termWidth/2 - 12
	if w < 10 {
		w = 10
	}
	return w
}
