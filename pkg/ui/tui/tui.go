package tui

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"listingcrawler/pkg/models"
)

// queueSize bounds messages waiting for the program loop
const queueSize = 256

// TUI is the full-screen crawl dashboard. It receives page progress and
// verification pauses from the crawler and answers pauses from the keyboard.
// Messages pass through a queue so senders never wait on the program loop
// while it is busy handling a key press.
type TUI struct {
	program *tea.Program
	model   *Model
	queue   chan tea.Msg
	done    chan struct{}
}

// NewTUI creates a TUI; decider may be set later with SetDecider
func NewTUI(decider Decider, opts ...tea.ProgramOption) *TUI {
	model := NewModel(decider)
	if len(opts) == 0 {
		opts = []tea.ProgramOption{tea.WithAltScreen()}
	}
	return &TUI{
		program: tea.NewProgram(&model, opts...),
		model:   &model,
		queue:   make(chan tea.Msg, queueSize),
		done:    make(chan struct{}),
	}
}

// SetDecider sets who receives resume and skip decisions. Call before Start.
func (t *TUI) SetDecider(d Decider) {
	t.model.decider = d
}

// SetRange sets the page range and starting checkpoint. Call before Start.
func (t *TUI) SetRange(start, end, checkpoint int, hasCheckpoint bool) {
	t.model.SetRange(start, end, checkpoint, hasCheckpoint)
}

// Start runs the program until the crawl is done or the operator quits
func (t *TUI) Start() error {
	go t.pump()
	_, err := t.program.Run()
	close(t.done)
	return err
}

func (t *TUI) pump() {
	for {
		select {
		case msg := <-t.queue:
			t.program.Send(msg)
		case <-t.done:
			return
		}
	}
}

// Send queues msg for the program, waiting for room. It returns at once
// after the program has exited.
func (t *TUI) Send(msg tea.Msg) {
	select {
	case t.queue <- msg:
	case <-t.done:
	}
}

// trySend queues msg unless the queue is full
func (t *TUI) trySend(msg tea.Msg) {
	select {
	case t.queue <- msg:
	default:
	}
}

// Finish reports the end of the crawl; the program quits after showing it
func (t *TUI) Finish(err error) {
	t.Send(DoneMsg{Err: err})
}

// PageStarted implements the crawler's progress reporter
func (t *TUI) PageStarted(page int, url string) {
	t.Send(PageStartMsg{Page: page, URL: url})
}

// PageFinished implements the crawler's progress reporter
func (t *TUI) PageFinished(result models.PageResult) {
	t.Send(PageResultMsg{Result: result})
}

// NotifyVerification shows the verification panel for page
func (t *TUI) NotifyVerification(page int, url string) {
	t.Send(VerificationMsg{Page: page, URL: url})
}

// Write accepts zerolog JSON events and shows them in the log panel, so the
// logger can write here while the dashboard owns the terminal. Events are
// dropped when the queue is full.
func (t *TUI) Write(p []byte) (int, error) {
	for _, line := range bytes.Split(bytes.TrimSpace(p), []byte("\n")) {
		if len(line) == 0 {
			continue
		}
		t.trySend(logMsgFromEvent(line))
	}
	return len(p), nil
}

// logMsgFromEvent turns one JSON log event into a log panel entry
func logMsgFromEvent(line []byte) LogMsg {
	var event map[string]interface{}
	if err := json.Unmarshal(line, &event); err != nil {
		return LogMsg{Level: "INFO", Message: string(line)}
	}

	level := "INFO"
	if lvl, ok := event["level"].(string); ok && lvl != "" {
		level = strings.ToUpper(lvl)
	}
	message, _ := event["message"].(string)

	var extras []string
	for _, key := range []string{"page", "url", "error"} {
		if v, ok := event[key]; ok {
			extras = append(extras, fmt.Sprintf("%s=%v", key, v))
		}
	}
	if len(extras) > 0 {
		message += " " + strings.Join(extras, " ")
	}
	return LogMsg{Level: level, Message: message}
}
