package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// Logo is printed when a crawl starts
const Logo = `
  ╔═══════════════════════════════════════════╗
  ║   L I S T I N G   C R A W L E R           ║
  ║   alonhadat.com.vn page harvester         ║
  ╚═══════════════════════════════════════════╝
`

var (
	cyan    = lipgloss.Color("#00FFFF")
	magenta = lipgloss.Color("#FF00FF")
	green   = lipgloss.Color("#39FF14")
	yellow  = lipgloss.Color("#FFFF00")
	orange  = lipgloss.Color("#FF6700")
	red     = lipgloss.Color("#FF3333")
	dim     = lipgloss.Color("#808080")

	logoStyle      = lipgloss.NewStyle().Foreground(cyan).Bold(true)
	labelStyle     = lipgloss.NewStyle().Foreground(cyan).Bold(true)
	valueStyle     = lipgloss.NewStyle().Foreground(yellow)
	successStyle   = lipgloss.NewStyle().Foreground(green).Bold(true)
	warningStyle   = lipgloss.NewStyle().Foreground(orange)
	errorStyle     = lipgloss.NewStyle().Foreground(red).Bold(true)
	highlightStyle = lipgloss.NewStyle().Foreground(magenta)
	dimStyle       = lipgloss.NewStyle().Foreground(dim)

	alertStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(orange).
			Padding(0, 1)
)

// Color functions for terminal output
var (
	Cyan    = labelStyle.Render
	Yellow  = valueStyle.Render
	Red     = errorStyle.Render
	Green   = successStyle.Render
	Magenta = highlightStyle.Render
	Dim     = dimStyle.Render
)

// PrintLogo prints the logo
func PrintLogo() {
	fmt.Print(logoStyle.Render(Logo), "\n")
}

// PrintError prints an error message in red
func PrintError(msg string, args ...interface{}) {
	if len(args) > 0 {
		fmt.Println(Red(msg + ": " + fmt.Sprintf("%v", args[0])))
	} else {
		fmt.Println(Red(msg))
	}
}

// PrintSuccess prints a success message in green
func PrintSuccess(msg string) {
	fmt.Println(Green(msg))
}

// PrintInfo prints a label and value
func PrintInfo(label string, value string) {
	fmt.Printf("%s: %s\n", Cyan(label), Yellow(value))
}

// PrintWarning prints a warning message
func PrintWarning(msg string, args ...interface{}) {
	if len(args) > 0 {
		fmt.Println(warningStyle.Render(msg + ": " + fmt.Sprintf("%v", args[0])))
	} else {
		fmt.Println(warningStyle.Render(msg))
	}
}

// PrintHighlight prints a highlighted message
func PrintHighlight(msg string) {
	fmt.Println(Magenta(msg))
}
