package tui

import (
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"listingcrawler/pkg/models"
)

type fakeDecider struct {
	resumes int
	skips   int
	err     error
}

func (f *fakeDecider) Resume() error {
	if f.err != nil {
		return f.err
	}
	f.resumes++
	return nil
}

func (f *fakeDecider) Skip() error {
	if f.err != nil {
		return f.err
	}
	f.skips++
	return nil
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

func newTestModel(d Decider) *Model {
	m := NewModel(d)
	m.SetRange(2, 5, 1, true)
	return &m
}

func TestModelPageProgress(t *testing.T) {
	m := newTestModel(nil)
	clock := time.Now()
	m.sessionStartTime = clock
	m.now = func() time.Time { return clock }

	m.Update(PageStartMsg{Page: 2, URL: "https://example.test/trang--2.html"})
	assert.True(t, m.fetching)
	assert.Equal(t, 2, m.currentPage)

	clock = clock.Add(time.Minute)
	m.Update(PageResultMsg{Result: models.PageResult{Page: 2, Outcome: models.OutcomeWritten, Records: 20}})
	m.Update(PageResultMsg{Result: models.PageResult{Page: 3, Outcome: models.OutcomeSkipped, Err: errors.New("fetch page 3 after 3 attempt(s)")}})
	m.Update(PageResultMsg{Result: models.PageResult{Page: 4, Outcome: models.OutcomeEmpty}})

	assert.False(t, m.fetching)
	assert.Equal(t, 4, m.total)
	assert.Equal(t, 3, m.done)
	assert.Equal(t, 1, m.written)
	assert.Equal(t, 1, m.skipped)
	assert.Equal(t, 1, m.empty)
	assert.Equal(t, 20, m.records)
	assert.Equal(t, 4, m.checkpoint, "skipped pages leave the checkpoint alone")
	assert.InDelta(t, 0.75, m.Percent(), 0.001)

	rate, eta := m.Rate()
	assert.InDelta(t, 3.0, rate, 0.001)
	assert.Equal(t, 20*time.Second, eta)

	require.Len(t, m.logMessages, 3)
	assert.Equal(t, "SUCCESS", m.logMessages[0].Level)
	assert.Contains(t, m.logMessages[1].Message, "fetch page 3 after 3 attempt(s)")
}

func TestModelVerificationResume(t *testing.T) {
	d := &fakeDecider{}
	m := newTestModel(d)

	// No pause yet: keys are ignored
	m.Update(key("r"))
	assert.Equal(t, 0, d.resumes)

	m.Update(PageStartMsg{Page: 3, URL: "https://example.test/trang--3.html"})
	m.Update(PageResultMsg{Result: models.PageResult{Page: 3, Outcome: models.OutcomeIntercepted}})
	m.Update(VerificationMsg{Page: 3, URL: "https://example.test/trang--3.html"})

	assert.True(t, m.paused)
	assert.Equal(t, 2, m.checkpoint)
	assert.Equal(t, 1, m.intercepted)
	assert.Equal(t, 0, m.done, "interceptions do not advance progress")

	m.Update(key("enter"))
	assert.Equal(t, 1, d.resumes)
	assert.False(t, m.paused)

	m.Update(key("r"))
	assert.Equal(t, 1, d.resumes, "one decision per pause")
}

func TestModelVerificationSkip(t *testing.T) {
	d := &fakeDecider{}
	m := newTestModel(d)
	m.Update(VerificationMsg{Page: 4, URL: "https://example.test/trang--4.html"})

	m.Update(key("s"))
	assert.Equal(t, 1, d.skips)
	assert.Equal(t, 0, d.resumes)
	assert.False(t, m.paused)
}

func TestModelDecisionRejected(t *testing.T) {
	d := &fakeDecider{err: errors.New("crawl is not paused for verification")}
	m := newTestModel(d)
	m.Update(VerificationMsg{Page: 4, URL: "u"})

	m.Update(key("r"))
	assert.True(t, m.paused)
	last := m.logMessages[len(m.logMessages)-1]
	assert.Equal(t, "WARN", last.Level)
	assert.Contains(t, last.Message, "Decision ignored")
}

func TestModelQuitAndDone(t *testing.T) {
	m := newTestModel(nil)
	_, cmd := m.Update(key("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())

	_, cmd = m.Update(DoneMsg{Err: errors.New("disk full")})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.True(t, m.finished)
	assert.EqualError(t, m.finalErr, "disk full")
}

func TestModelLogLimit(t *testing.T) {
	m := newTestModel(nil)
	for i := 0; i < 60; i++ {
		m.Update(LogMsg{Level: "INFO", Message: "line"})
	}
	assert.Len(t, m.logMessages, 50)

	m.Update(tea.KeyMsg{Type: tea.KeyCtrlL})
	assert.Empty(t, m.logMessages)
}

func TestView(t *testing.T) {
	m := newTestModel(nil)
	assert.Equal(t, "Initializing...", m.View())

	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	m.Update(PageResultMsg{Result: models.PageResult{Page: 2, Outcome: models.OutcomeWritten, Records: 7}})
	out := m.View()
	assert.Contains(t, out, "CRAWL PROGRESS")
	assert.Contains(t, out, "1/4 pages")
	assert.NotContains(t, out, "VERIFICATION REQUIRED")

	m.Update(VerificationMsg{Page: 3, URL: "https://example.test/trang--3.html"})
	out = m.View()
	assert.Contains(t, out, "VERIFICATION REQUIRED")
	assert.Contains(t, out, "https://example.test/trang--3.html")

	m.Update(key("?"))
	assert.Contains(t, m.View(), "Skip the blocked page")
}

func TestWriteForwardsLogEvents(t *testing.T) {
	term := NewTUI(nil)
	n, err := term.Write([]byte(`{"level":"warn","page":4,"message":"Verification required, crawl paused"}` + "\n"))
	require.NoError(t, err)
	assert.Greater(t, n, 0)

	require.Len(t, term.queue, 1)
	msg := (<-term.queue).(LogMsg)
	assert.Equal(t, "WARN", msg.Level)
	assert.Equal(t, "Verification required, crawl paused page=4", msg.Message)
}

func TestWriteDropsWhenQueueFull(t *testing.T) {
	term := NewTUI(nil)
	for i := 0; i < queueSize+10; i++ {
		_, _ = term.Write([]byte(`{"level":"info","message":"x"}`))
	}
	assert.Len(t, term.queue, queueSize)
}

func TestLogMsgFromPlainText(t *testing.T) {
	msg := logMsgFromEvent([]byte("not json"))
	assert.Equal(t, LogMsg{Level: "INFO", Message: "not json"}, msg)
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "00:42", formatDuration(42*time.Second))
	assert.Equal(t, "03:05", formatDuration(3*time.Minute+5*time.Second))
	assert.Equal(t, "02:07:00", formatDuration(2*time.Hour+7*time.Minute))
	assert.Equal(t, "00:00", formatDuration(-time.Second))
}
