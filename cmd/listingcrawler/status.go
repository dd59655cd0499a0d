package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"listingcrawler/pkg/checkpoint"
	"listingcrawler/pkg/config"
	"listingcrawler/pkg/crawler"
	"listingcrawler/pkg/logger"
	"listingcrawler/pkg/storage"
	"listingcrawler/pkg/ui"
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show checkpoint and output progress",
	Long: `Show the saved checkpoint, the page files present in the output directory and,
when a control address is configured and a crawl is running, its live state.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().StringVar(&controlAddr, "control-addr", "", "control API address of a running crawl")
}

func runStatus(cmd *cobra.Command, args []string) error {
	flags := globalFlags(cmd)
	if cmd.Flags().Changed("control-addr") {
		flags["control-addr"] = controlAddr
	}
	cfg, err := config.Load(configFile, flags)
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		return err
	}
	log := logger.NewNopLogger()

	store := checkpoint.NewFileStore(cfg.Output.CheckpointFile, log)
	info, ok, err := store.Info()
	switch {
	case err != nil:
		ui.PrintError("Checkpoint unreadable", err.Error())
	case ok:
		ui.PrintInfo("Checkpoint", fmt.Sprintf("page %d (saved %s)", info.Page, info.UpdatedAt.Format(time.RFC3339)))
		ui.PrintInfo("Next page", strconv.Itoa(info.Page+1))
	default:
		ui.PrintInfo("Checkpoint", "none")
	}

	writer, err := storage.NewWriter(cfg.Output.Directory, log)
	if err != nil {
		return err
	}
	pages, err := writer.ExistingPages()
	if err != nil {
		return err
	}
	ui.PrintInfo("Output", cfg.Output.Directory)
	ui.PrintInfo("Page files", fmt.Sprintf("%d %s", len(pages), summarizePages(pages)))

	if cfg.Control.Addr != "" {
		status, err := fetchLiveStatus(cfg.Control.Addr)
		if err != nil {
			ui.PrintWarning("No running crawl reachable", err)
			return nil
		}
		ui.PrintInfo("Session", status.SessionID)
		ui.PrintInfo("State", string(status.State))
		ui.PrintInfo("Current page", strconv.Itoa(status.CurrentPage))
		if status.BlockingURL != "" {
			ui.PrintInfo("Blocked on", status.BlockingURL)
		}
	}
	return nil
}

func fetchLiveStatus(addr string) (*crawler.Status, error) {
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get("http://" + addr + "/status")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	var status crawler.Status
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("failed to decode status: %w", err)
	}
	return &status, nil
}

// summarizePages renders ascending page numbers as compact ranges, e.g. "(2-5, 7, 9-10)"
func summarizePages(pages []int) string {
	if len(pages) == 0 {
		return ""
	}
	var parts []string
	runStart := pages[0]
	prev := pages[0]
	flush := func() {
		if runStart == prev {
			parts = append(parts, strconv.Itoa(prev))
		} else {
			parts = append(parts, fmt.Sprintf("%d-%d", runStart, prev))
		}
	}
	for _, p := range pages[1:] {
		if p == prev+1 {
			prev = p
			continue
		}
		flush()
		runStart, prev = p, p
	}
	flush()
	return "(" + strings.Join(parts, ", ") + ")"
}
