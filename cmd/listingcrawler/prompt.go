package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"listingcrawler/pkg/crawler"
	"listingcrawler/pkg/ui"
)

// parseDecision maps a console answer to a verification decision
func parseDecision(line string) (crawler.Decision, bool) {
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "", "r", "resume", "y", "yes":
		return crawler.DecisionResume, true
	case "s", "skip", "n", "no":
		return crawler.DecisionSkip, true
	default:
		return crawler.DecisionResume, false
	}
}

// askYesNo prints question and reads one answer; an empty answer or EOF yields def
func askYesNo(in *bufio.Reader, out io.Writer, question string, def bool) bool {
	suffix := "[y/N]"
	if def {
		suffix = "[Y/n]"
	}
	fmt.Fprintf(out, "%s %s ", ui.Cyan(question), suffix)

	line, err := in.ReadString('\n')
	if err != nil && line == "" {
		fmt.Fprintln(out)
		return def
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	case "n", "no":
		return false
	default:
		return def
	}
}
