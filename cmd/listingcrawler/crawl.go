package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"
	"listingcrawler/internal/control"
	"listingcrawler/pkg/checkpoint"
	"listingcrawler/pkg/config"
	"listingcrawler/pkg/crawler"
	"listingcrawler/pkg/logger"
	"listingcrawler/pkg/ui"
	"listingcrawler/pkg/ui/tui"
)

const decisionHint = "Press Enter to resume after solving the check, or type 'skip' to move on."

var (
	// Crawl command flags
	startPage    int
	endPage      int
	outputDir    string
	checkpointAt string
	controlAddr  string
	rateLimit    int
	maxRetries   int
	retryDelay   time.Duration
	resume       bool
	forceRestart bool
	useTUI       bool
)

// crawlCmd represents the crawl command
var crawlCmd = &cobra.Command{
	Use:   "crawl [start] [end]",
	Short: "Crawl listing pages start through end",
	Long: `Crawl the listing index pages start through end (inclusive, default 2..200).

Each page is fetched, checked for a verification wall, parsed and written to
page_N.jsonl in the output directory. The last completed page is kept in the
checkpoint file so an interrupted crawl can continue with --resume.

When the site asks for human verification the crawl pauses. Open the reported
URL in a browser, complete the check, then press Enter to retry the page or type
'skip' to move on. With --control-addr the same decisions are available over HTTP.`,
	Example: `  # Crawl the default range
  listingcrawler crawl

  # Crawl pages 10 to 50 at most 20 requests per minute
  listingcrawler crawl 10 50 --rate-limit 20

  # Continue after the last checkpoint
  listingcrawler crawl --resume

  # Full-screen dashboard; press r or s to answer a verification pause
  listingcrawler crawl --tui

  # Run unattended and resolve verification pauses over HTTP
  listingcrawler crawl --control-addr 127.0.0.1:8089`,
	Args: cobra.MaximumNArgs(2),
	RunE: runCrawl,
}

func init() {
	rootCmd.AddCommand(crawlCmd)

	crawlCmd.Flags().IntVar(&startPage, "start", 0, "first page to crawl (default from config, 2)")
	crawlCmd.Flags().IntVar(&endPage, "end", 0, "last page to crawl (default from config, 200)")
	crawlCmd.Flags().StringVarP(&outputDir, "output", "o", "", "directory for page_N.jsonl files")
	crawlCmd.Flags().StringVar(&checkpointAt, "checkpoint", "", "checkpoint file path")
	crawlCmd.Flags().StringVar(&controlAddr, "control-addr", "", "listen address for the control API (disabled when empty)")
	crawlCmd.Flags().IntVar(&rateLimit, "rate-limit", 0, "maximum page requests per minute (0 = unlimited)")
	crawlCmd.Flags().IntVar(&maxRetries, "max-retries", 3, "total fetch attempts per page")
	crawlCmd.Flags().DurationVar(&retryDelay, "retry-delay", 5*time.Second, "delay before the first retry, doubled for each further retry")
	crawlCmd.Flags().BoolVar(&resume, "resume", false, "continue after the last checkpoint")
	crawlCmd.Flags().BoolVar(&forceRestart, "force-restart", false, "clear the checkpoint before crawling")
	crawlCmd.Flags().BoolVar(&useTUI, "tui", false, "use interactive terminal UI with real-time progress")
}

// crawlFlags builds the config override map from explicitly set flags and positional args
func crawlFlags(cmd *cobra.Command, args []string) (map[string]interface{}, error) {
	flags := globalFlags(cmd)

	if cmd.Flags().Changed("start") {
		flags["start-page"] = startPage
	}
	if cmd.Flags().Changed("end") {
		flags["end-page"] = endPage
	}
	start, end, err := parseRange(args)
	if err != nil {
		return nil, err
	}
	if start > 0 {
		flags["start-page"] = start
	}
	if end > 0 {
		flags["end-page"] = end
	}

	if cmd.Flags().Changed("output") {
		flags["output"] = outputDir
	}
	if cmd.Flags().Changed("checkpoint") {
		flags["checkpoint"] = checkpointAt
	}
	if cmd.Flags().Changed("control-addr") {
		flags["control-addr"] = controlAddr
	}
	if cmd.Flags().Changed("rate-limit") {
		flags["requests-per-minute"] = rateLimit
	}
	if cmd.Flags().Changed("max-retries") {
		flags["max-attempts"] = maxRetries
	}
	if cmd.Flags().Changed("retry-delay") {
		flags["retry-delay"] = retryDelay
	}
	return flags, nil
}

// parseRange reads the optional positional [start] [end]; zero means unset
func parseRange(args []string) (start, end int, err error) {
	vals := make([]int, 2)
	for i, arg := range args {
		if i > 1 {
			return 0, 0, fmt.Errorf("too many arguments")
		}
		n, err := strconv.Atoi(arg)
		if err != nil || n < 1 {
			return 0, 0, fmt.Errorf("invalid page number %q", arg)
		}
		vals[i] = n
	}
	return vals[0], vals[1], nil
}

func runCrawl(cmd *cobra.Command, args []string) error {
	if resume && forceRestart {
		return errors.New("--resume and --force-restart cannot be used together")
	}

	flags, err := crawlFlags(cmd, args)
	if err != nil {
		return err
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		return err
	}

	interactive := term.IsTerminal(int(os.Stdin.Fd()))
	stdin := bufio.NewReader(os.Stdin)

	var dashboard *tui.TUI
	if useTUI {
		if !interactive || !term.IsTerminal(int(os.Stdout.Fd())) {
			return errors.New("--tui needs an interactive terminal")
		}
		dashboard = tui.NewTUI(nil)
		// Log events go to the dashboard's log panel instead of stderr
		if err := logger.InitializeWithWriter(&cfg.Logging, dashboard); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
	} else if err := logger.Initialize(&cfg.Logging); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := logger.GetLogger()
	log.WithField("version", version).Info("Listing crawler starting")

	ui.PrintLogo()

	store := checkpoint.NewFileStore(cfg.Output.CheckpointFile, log)
	if forceRestart {
		if err := store.Clear(); err != nil {
			return err
		}
		ui.PrintWarning("Checkpoint cleared, starting fresh")
	}

	explicitStart := cmd.Flags().Changed("start") || len(args) > 0
	if explicitStart && resume {
		ui.PrintWarning("Start page given explicitly, ignoring --resume")
	}
	var ask func(last int) bool
	if interactive {
		ask = func(last int) bool {
			return askYesNo(stdin, os.Stdout, fmt.Sprintf("Checkpoint found at page %d. Resume from page %d?", last, last+1), false)
		}
	}

	start, resumed, err := resolveStart(store, cfg.Crawl.StartPage, explicitStart, resume, ask)
	if err != nil {
		ui.PrintError("Cannot resume", err.Error())
		return err
	}
	end := cfg.Crawl.EndPage
	if resumed {
		ui.PrintInfo("Resuming from page", strconv.Itoa(start))
		if start > end {
			ui.PrintWarning(fmt.Sprintf("Checkpoint is already past page %d, nothing left to crawl", end))
		}
	}
	ui.PrintInfo("Pages", fmt.Sprintf("%d..%d", start, end))
	ui.PrintInfo("Output", cfg.Output.Directory)

	var (
		notifier     *ui.Notifier
		pageReporter *ui.PageReporter
		opts         []crawler.Option
	)
	if dashboard != nil {
		// The dashboard owns the terminal; only desktop notifications go elsewhere
		notifier = ui.NewNotifier(cfg.Notifications, io.Discard)
		opts = append(opts,
			crawler.WithReporter(dashboard),
			crawler.WithNotifier(notifiers{dashboard, notifier}))
	} else {
		notifier = ui.NewNotifier(cfg.Notifications, os.Stdout)
		if interactive {
			notifier.WithHint(decisionHint)
		} else if cfg.Control.Addr != "" {
			notifier.WithHint(fmt.Sprintf("POST http://%s/resume or /skip to continue.", cfg.Control.Addr))
		} else {
			ui.PrintWarning("stdin is not a terminal and no control address is set; a verification pause can only be ended by interrupt")
		}
		pageReporter = ui.NewPageReporter(os.Stdout, start, end)
		opts = append(opts, crawler.WithReporter(pageReporter), crawler.WithNotifier(notifier))
	}

	c, err := crawler.NewFromConfig(cfg, store, log, opts...)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancelCrawl := context.WithCancel(ctx)
	defer cancelCrawl()

	tuiDone := make(chan error, 1)
	if dashboard != nil {
		status := c.Status()
		dashboard.SetDecider(c)
		dashboard.SetRange(start, end, status.Checkpoint, status.HasCheckpoint)
		go func() {
			err := dashboard.Start()
			// Quitting the dashboard stops the crawl
			cancelCrawl()
			tuiDone <- err
		}()
	} else if interactive {
		go watchDecisions(ctx, stdin, c)
	}

	g, gctx := errgroup.WithContext(ctx)
	serverCtx, stopServer := context.WithCancel(gctx)
	defer stopServer()

	g.Go(func() error {
		defer stopServer()
		return c.Run(gctx, start, end)
	})
	if cfg.Control.Addr != "" {
		srv := control.NewServer(cfg.Control.Addr, c, log)
		g.Go(func() error {
			return control.Serve(serverCtx, srv, log)
		})
	}

	err = g.Wait()
	interrupted := ctx.Err() != nil && errors.Is(err, context.Canceled)
	if dashboard != nil {
		dashboard.Finish(err)
		if tuiErr := <-tuiDone; tuiErr != nil {
			ui.PrintError("Terminal UI failed", tuiErr.Error())
		}
		// Back to console logging now that the terminal is free
		if err := logger.Initialize(&cfg.Logging); err == nil {
			log = logger.GetLogger()
		}
	} else {
		pageReporter.Summary()
	}
	status := c.Status()
	if dashboard != nil {
		printStatusSummary(status)
	}

	switch {
	case err == nil:
		ui.PrintSuccess(fmt.Sprintf("Crawl completed, checkpoint at page %d", status.Checkpoint))
		notifier.SendNotification("Crawl complete", fmt.Sprintf("%d pages written", status.PagesWritten))
		return nil
	case interrupted:
		ui.PrintWarning(fmt.Sprintf("Interrupted at page %d. Progress is saved; run again with --resume to continue", status.CurrentPage))
		log.WithField("page", status.CurrentPage).Info("Crawl interrupted")
		return nil
	default:
		log.WithError(err).Error("Crawl failed")
		ui.PrintError("Crawl failed", err.Error())
		return err
	}
}

// notifiers fans a verification pause out to several receivers
type notifiers []crawler.VerificationNotifier

func (n notifiers) NotifyVerification(page int, url string) {
	for _, notifier := range n {
		notifier.NotifyVerification(page, url)
	}
}

// printStatusSummary prints session totals once the dashboard has closed
func printStatusSummary(status crawler.Status) {
	ui.PrintInfo("Pages written", strconv.Itoa(status.PagesWritten))
	ui.PrintInfo("Pages empty", strconv.Itoa(status.PagesEmpty))
	ui.PrintInfo("Pages skipped", strconv.Itoa(status.PagesSkipped))
	ui.PrintInfo("Listings", strconv.Itoa(status.Records))
	if status.Interceptions > 0 {
		ui.PrintInfo("Verification pauses", strconv.Itoa(status.Interceptions))
	}
}

// resolveStart picks the first page. An explicit start page wins over the
// checkpoint; otherwise --resume, or a yes from ask, continues after it.
func resolveStart(store checkpoint.Store, requested int, explicit, resumeFlag bool, ask func(last int) bool) (int, bool, error) {
	if explicit {
		return requested, false, nil
	}
	resume := resumeFlag
	if !resume && ask != nil {
		if last, ok, err := store.Load(); err == nil && ok {
			resume = ask(last)
		}
	}
	return crawler.ResolveStart(store, requested, resume)
}

// watchDecisions reads operator answers from the console while the crawl is paused
func watchDecisions(ctx context.Context, in *bufio.Reader, c *crawler.Crawler) {
	for {
		line, err := in.ReadString('\n')
		if ctx.Err() != nil {
			return
		}
		if c.Status().State == crawler.StatePausedForVerification {
			decision, ok := parseDecision(line)
			switch {
			case !ok:
				ui.PrintWarning(decisionHint)
			case decision == crawler.DecisionSkip:
				if err := c.Skip(); err != nil {
					ui.PrintWarning("Decision ignored", err)
				}
			default:
				if err := c.Resume(); err != nil {
					ui.PrintWarning("Decision ignored", err)
				}
			}
		}
		if err != nil {
			return
		}
	}
}
