package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"listingcrawler/pkg/models"
)

const barWidth = 20

// PageReporter prints one line per finished page with range progress, rate and ETA
type PageReporter struct {
	mu sync.Mutex
	w  io.Writer

	total       int
	done        int
	written     int
	empty       int
	skipped     int
	intercepted int
	records     int

	startTime time.Time
	pageStart time.Time
	now       func() time.Time
}

// NewPageReporter creates a reporter for the inclusive page range start..end
func NewPageReporter(w io.Writer, start, end int) *PageReporter {
	total := end - start + 1
	if total < 0 {
		total = 0
	}
	return &PageReporter{
		w:         w,
		total:     total,
		startTime: time.Now(),
		now:       time.Now,
	}
}

// PageStarted marks the start of a page fetch
func (p *PageReporter) PageStarted(page int, url string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pageStart = p.now()
}

// PageFinished prints the outcome of a page
func (p *PageReporter) PageFinished(result models.PageResult) {
	p.mu.Lock()
	defer p.mu.Unlock()

	took := p.now().Sub(p.pageStart)
	var line string

	switch result.Outcome {
	case models.OutcomeWritten:
		p.done++
		p.written++
		p.records += result.Records
		line = fmt.Sprintf("%s page %d • %d listings • %s",
			Green("✓"), result.Page, result.Records, formatDuration(took))
	case models.OutcomeEmpty:
		p.done++
		p.empty++
		line = fmt.Sprintf("%s page %d • %s",
			warningStyle.Render("∅"), result.Page, warningStyle.Render("no listings"))
	case models.OutcomeSkipped:
		p.done++
		p.skipped++
		reason := "skipped"
		if result.Err != nil {
			reason = result.Err.Error()
		}
		line = fmt.Sprintf("%s page %d • %s", Red("✗"), result.Page, Red(reason))
	case models.OutcomeIntercepted:
		p.intercepted++
		line = fmt.Sprintf("%s page %d • %s",
			warningStyle.Render("⚠"), result.Page, warningStyle.Render("verification required"))
		fmt.Fprintln(p.w, line)
		return
	default:
		return
	}

	fmt.Fprintf(p.w, "%s [%s] %d/%d • %s\n", line, p.bar(), p.done, p.total, Dim(p.rateAndETA()))
}

// Summary prints the totals for the session
func (p *PageReporter) Summary() {
	p.mu.Lock()
	defer p.mu.Unlock()

	elapsed := p.now().Sub(p.startTime)
	fmt.Fprintf(p.w, "\n%s %d pages processed, %d listings in %s\n",
		Green("✓"), p.done, p.records, formatDuration(elapsed))
	fmt.Fprintf(p.w, "  %s %d written, %d empty, %d skipped\n", Dim("•"), p.written, p.empty, p.skipped)
	if p.intercepted > 0 {
		fmt.Fprintf(p.w, "  %s %d verification pauses\n", Dim("•"), p.intercepted)
	}
}

func (p *PageReporter) bar() string {
	filled := 0
	if p.total > 0 {
		filled = p.done * barWidth / p.total
	}
	if filled > barWidth {
		filled = barWidth
	}
	return strings.Repeat("━", filled) + strings.Repeat("─", barWidth-filled)
}

func (p *PageReporter) rateAndETA() string {
	elapsed := p.now().Sub(p.startTime)
	if p.done == 0 || elapsed <= 0 {
		return "calculating..."
	}
	rate := float64(p.done) / elapsed.Minutes()
	remaining := p.total - p.done
	if remaining <= 0 {
		return fmt.Sprintf("%.1f pages/min", rate)
	}
	eta := time.Duration(float64(remaining) / rate * float64(time.Minute))
	return fmt.Sprintf("%.1f pages/min • ETA %s", rate, formatDuration(eta))
}

// formatDuration formats a duration in a human-readable way
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	} else if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}
