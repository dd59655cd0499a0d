package crawler

import (
	"errors"
	"time"
)

// State is the lifecycle state of a crawl session
type State string

const (
	StateIdle                  State = "idle"
	StateRunning               State = "running"
	StatePausedForVerification State = "paused_for_verification"
	StateCompleted             State = "completed"
	StateAborted               State = "aborted"
)

// Terminal reports whether no further transitions can happen
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateAborted
}

// Decision is the operator's answer to a verification pause
type Decision int

const (
	// DecisionResume re-fetches the blocked page
	DecisionResume Decision = iota
	// DecisionSkip moves past the blocked page without output
	DecisionSkip
)

func (d Decision) String() string {
	if d == DecisionSkip {
		return "skip"
	}
	return "resume"
}

var (
	// ErrNotPaused is returned by Resume and Skip when no verification is pending
	ErrNotPaused = errors.New("crawl is not paused for verification")
	// ErrAlreadyStarted is returned when Run is called on a used Crawler
	ErrAlreadyStarted = errors.New("crawl already started")
)

// Status is a point-in-time snapshot of a crawl session
type Status struct {
	SessionID     string    `json:"session_id"`
	State         State     `json:"state"`
	StartPage     int       `json:"start_page"`
	EndPage       int       `json:"end_page"`
	CurrentPage   int       `json:"current_page"`
	Checkpoint    int       `json:"checkpoint"`
	HasCheckpoint bool      `json:"has_checkpoint"`
	BlockingURL   string    `json:"blocking_url,omitempty"`
	PagesWritten  int       `json:"pages_written"`
	PagesEmpty    int       `json:"pages_empty"`
	PagesSkipped  int       `json:"pages_skipped"`
	Interceptions int       `json:"interceptions"`
	Records       int       `json:"records"`
	LastError     string    `json:"last_error,omitempty"`
	StartedAt     time.Time `json:"started_at,omitempty"`
	UpdatedAt     time.Time `json:"updated_at"`
}
