package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

const logo = `╔═══════════════════════════════════════════╗
║   L I S T I N G   C R A W L E R           ║
║   alonhadat.com.vn page harvester         ║
╚═══════════════════════════════════════════╝`

// View renders the entire TUI
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	var sections []string
	sections = append(sections, logoStyle.Width(m.width).Render(logo))

	if m.paused {
		sections = append(sections, m.renderVerificationPanel(m.width-2))
	}

	columnWidth := (m.width - 4) / 2
	left := lipgloss.JoinVertical(lipgloss.Left,
		m.renderProgressPanel(columnWidth),
		m.renderStatsPanel(columnWidth),
	)
	right := m.renderLogsPanel(columnWidth)
	sections = append(sections, lipgloss.JoinHorizontal(lipgloss.Top, left, "  ", right))

	if m.showHelp {
		sections = append(sections, m.renderHelp())
	} else {
		sections = append(sections, helpStyle.Render("q quit • ? help"))
	}

	return baseStyle.Width(m.width).Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}

// renderVerificationPanel tells the operator which page is blocked and how to continue
func (m *Model) renderVerificationPanel(width int) string {
	title := alertTitleStyle.Render(" VERIFICATION REQUIRED ")
	lines := []string{
		fmt.Sprintf("%s %d", statsLabelStyle.Render("Page:"), m.pausedPage),
		fmt.Sprintf("%s %s", statsLabelStyle.Render("URL:"), urlStyle.Render(m.blockingURL)),
		"",
		"Open the URL in a browser and complete the check, then",
		fmt.Sprintf("press %s to retry the page or %s to skip it.",
			successStyle.Render("r"), warningStyle.Render("s")),
	}
	return alertPanelStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, strings.Join(lines, "\n")),
	)
}

// renderProgressPanel shows range progress and the page in flight
func (m *Model) renderProgressPanel(width int) string {
	title := titleStyle.Render(" CRAWL PROGRESS ")

	var current string
	switch {
	case m.finished && m.finalErr != nil:
		current = errorStyle.Render("✗ stopped")
	case m.finished:
		current = successStyle.Render("✓ completed")
	case m.paused:
		current = warningStyle.Render(fmt.Sprintf("⏸  paused on page %d", m.pausedPage))
	case m.fetching:
		current = fmt.Sprintf("%s fetching page %s\n%s", m.spinner.View(),
			statsValueStyle.Render(fmt.Sprint(m.currentPage)), dimStyle.Render(m.currentURL))
	default:
		current = dimStyle.Render("waiting")
	}

	lines := []string{
		fmt.Sprintf("%s %s", statsLabelStyle.Render("Pages:"),
			statsValueStyle.Render(fmt.Sprintf("%d..%d", m.startPage, m.endPage))),
		m.progress.ViewAs(m.Percent()),
		fmt.Sprintf("%d/%d pages", m.done, m.total),
		current,
	}
	return panelStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, strings.Join(lines, "\n")),
	)
}

// renderStatsPanel renders the statistics panel
func (m *Model) renderStatsPanel(width int) string {
	title := titleStyle.Render(" SESSION STATS ")

	elapsed := m.now().Sub(m.sessionStartTime)
	rate, eta := m.Rate()

	checkpoint := "none"
	if m.hasCheckpoint {
		checkpoint = fmt.Sprintf("page %d", m.checkpoint)
	}
	etaText := "calculating..."
	if rate > 0 {
		etaText = formatDuration(eta)
	}

	stats := []string{
		stat("Session Time:", formatDuration(elapsed)),
		stat("Listings:", fmt.Sprint(m.records)),
		stat("Written:", fmt.Sprint(m.written)),
		stat("Empty:", fmt.Sprint(m.empty)),
		stat("Skipped:", fmt.Sprint(m.skipped)),
		stat("Verifications:", fmt.Sprint(m.intercepted)),
		stat("Checkpoint:", checkpoint),
		stat("Rate:", fmt.Sprintf("%.1f pages/min", rate)),
		stat("ETA:", etaText),
	}
	return panelStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, strings.Join(stats, "\n")),
	)
}

func stat(label, value string) string {
	return fmt.Sprintf("%s %s", statsLabelStyle.Render(label), statsValueStyle.Render(value))
}

// renderLogsPanel renders the logs panel
func (m *Model) renderLogsPanel(width int) string {
	title := titleStyle.Render(" LOGS ")

	start := len(m.logMessages) - 15
	if start < 0 {
		start = 0
	}

	maxMsgLen := width - 22
	if maxMsgLen < 10 {
		maxMsgLen = 10
	}

	var logs []string
	for _, log := range m.logMessages[start:] {
		message := log.Message
		if r := []rune(message); len(r) > maxMsgLen {
			message = string(r[:maxMsgLen-3]) + "..."
		}
		logs = append(logs, fmt.Sprintf("%s %s %s",
			logTimestampStyle.Render(log.Time.Format("15:04:05")),
			lipgloss.NewStyle().Foreground(levelColor(log.Level)).Bold(true).Render(fmt.Sprintf("[%-7s]", log.Level)),
			logMessageStyle.Render(message)))
	}

	content := strings.Join(logs, "\n")
	if content == "" {
		content = dimStyle.Render("No logs yet...")
	}

	return panelStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, content),
	)
}

// renderHelp renders the help panel
func (m *Model) renderHelp() string {
	help := `  Keys:
    r / enter  - Retry the blocked page after verification
    s          - Skip the blocked page
    q / ctrl+c - Stop the crawl (progress is kept)
    ctrl+l     - Clear logs
    ?          - Toggle this help`

	return panelStyle.Width(m.width - 2).Render(help)
}

// formatDuration formats a duration as mm:ss or hh:mm:ss
func formatDuration(d time.Duration) string {
	if d < 0 {
		return "00:00"
	}

	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60

	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}
