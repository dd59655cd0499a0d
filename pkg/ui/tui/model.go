package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"listingcrawler/pkg/models"
)

// Decider answers a verification pause; *crawler.Crawler satisfies it
type Decider interface {
	Resume() error
	Skip() error
}

// LogMessage represents a log entry
type LogMessage struct {
	Time    time.Time
	Level   string
	Message string
}

// Model is the crawl dashboard state. It is only touched from the program's
// event loop, or before the program starts.
type Model struct {
	spinner  spinner.Model
	progress progress.Model
	decider  Decider

	// Range
	startPage int
	endPage   int
	total     int

	// Current page
	currentPage int
	currentURL  string
	fetching    bool

	// Stats
	done          int
	written       int
	empty         int
	skipped       int
	intercepted   int
	records       int
	checkpoint    int
	hasCheckpoint bool

	// Verification pause
	paused      bool
	pausedPage  int
	blockingURL string

	// Session
	finished         bool
	finalErr         error
	sessionStartTime time.Time
	now              func() time.Time

	// UI state
	width          int
	height         int
	showHelp       bool
	logMessages    []LogMessage
	maxLogMessages int
}

// NewModel creates a dashboard model. decider may be nil until SetDecider.
func NewModel(decider Decider) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = statsLabelStyle

	p := progress.New(progress.WithDefaultGradient())
	p.Width = 40

	return Model{
		spinner:          s,
		progress:         p,
		decider:          decider,
		sessionStartTime: time.Now(),
		now:              time.Now,
		logMessages:      []LogMessage{},
		maxLogMessages:   50,
	}
}

// Init initializes the model
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tickCmd())
}

// SetRange sets the inclusive page range and the checkpoint the crawl starts from
func (m *Model) SetRange(start, end, checkpoint int, hasCheckpoint bool) {
	m.startPage, m.endPage = start, end
	m.total = end - start + 1
	if m.total < 0 {
		m.total = 0
	}
	m.checkpoint, m.hasCheckpoint = checkpoint, hasCheckpoint
}

// StartPage marks page as being fetched
func (m *Model) StartPage(page int, url string) {
	m.currentPage = page
	m.currentURL = url
	m.fetching = true
	m.paused = false
	m.blockingURL = ""
}

// FinishPage records the outcome of a page
func (m *Model) FinishPage(result models.PageResult) {
	m.fetching = false

	switch result.Outcome {
	case models.OutcomeWritten:
		m.done++
		m.written++
		m.records += result.Records
		m.checkpoint, m.hasCheckpoint = result.Page, true
		m.AddLogMessage("SUCCESS", fmt.Sprintf("Page %d: %d listings", result.Page, result.Records))
	case models.OutcomeEmpty:
		m.done++
		m.empty++
		m.checkpoint, m.hasCheckpoint = result.Page, true
		m.AddLogMessage("WARN", fmt.Sprintf("Page %d: no listings", result.Page))
	case models.OutcomeSkipped:
		m.done++
		m.skipped++
		reason := "skipped"
		if result.Err != nil {
			reason = result.Err.Error()
		}
		m.AddLogMessage("ERROR", fmt.Sprintf("Page %d: %s", result.Page, reason))
	case models.OutcomeIntercepted:
		m.intercepted++
		m.checkpoint, m.hasCheckpoint = result.Page-1, true
	}
}

// Pause shows the verification panel for page
func (m *Model) Pause(page int, url string) {
	m.paused = true
	m.pausedPage = page
	m.blockingURL = url
	m.AddLogMessage("WARN", fmt.Sprintf("Verification required on page %d", page))
}

// Finish marks the crawl as over
func (m *Model) Finish(err error) {
	m.finished = true
	m.fetching = false
	m.paused = false
	m.finalErr = err
	if err != nil {
		m.AddLogMessage("ERROR", "Crawl stopped: "+err.Error())
	} else {
		m.AddLogMessage("SUCCESS", "Crawl completed")
	}
}

// decide forwards an operator decision for the current pause
func (m *Model) decide(resume bool) {
	if !m.paused || m.decider == nil {
		return
	}
	var err error
	if resume {
		err = m.decider.Resume()
	} else {
		err = m.decider.Skip()
	}
	if err != nil {
		m.AddLogMessage("WARN", "Decision ignored: "+err.Error())
		return
	}
	m.paused = false
	if resume {
		m.AddLogMessage("INFO", fmt.Sprintf("Retrying page %d", m.pausedPage))
	} else {
		m.AddLogMessage("WARN", fmt.Sprintf("Skipping page %d", m.pausedPage))
	}
}

// AddLogMessage adds a log message, keeping the most recent ones
func (m *Model) AddLogMessage(level, message string) {
	m.logMessages = append(m.logMessages, LogMessage{
		Time:    m.now(),
		Level:   level,
		Message: message,
	})
	if len(m.logMessages) > m.maxLogMessages {
		m.logMessages = m.logMessages[len(m.logMessages)-m.maxLogMessages:]
	}
}

// Percent returns the share of the range processed, from 0 to 1
func (m *Model) Percent() float64 {
	if m.total == 0 {
		return 0
	}
	p := float64(m.done) / float64(m.total)
	if p > 1 {
		p = 1
	}
	return p
}

// Rate returns processed pages per minute and the estimated time left
func (m *Model) Rate() (perMinute float64, eta time.Duration) {
	elapsed := m.now().Sub(m.sessionStartTime)
	if m.done == 0 || elapsed <= 0 {
		return 0, 0
	}
	perMinute = float64(m.done) / elapsed.Minutes()
	if remaining := m.total - m.done; remaining > 0 {
		eta = elapsed * time.Duration(remaining) / time.Duration(m.done)
	}
	return perMinute, eta
}
