// Package crawler orchestrates a resumable crawl over a range of listing pages.
//
// Pages are processed strictly in order, one request at a time:
//
//	fetch -> classify -> parse -> write page_N.jsonl -> checkpoint = N
//
// A failed fetch (after retries) skips the page without touching the
// checkpoint. A verification wall sets the checkpoint to N-1 and pauses the
// session in StatePausedForVerification until Resume (fetch N again) or Skip
// (move on) is called from any goroutine, typically the console prompt or the
// control API. Output and checkpoint I/O failures end the session with an
// error. Cancelling the context between or during pages ends it in
// StateAborted with the filesystem consistent.
//
// Usage:
//
//	store := checkpoint.NewFileStore(cfg.Output.CheckpointFile, log)
//	start, _, err := crawler.ResolveStart(store, cfg.Crawl.StartPage, resume)
//	if err != nil {
//	    return err
//	}
//	reporter := ui.NewPageReporter(os.Stdout, start, cfg.Crawl.EndPage)
//	c, err := crawler.NewFromConfig(cfg, store, log, crawler.WithReporter(reporter))
//	if err != nil {
//	    return err
//	}
//	err = c.Run(ctx, start, cfg.Crawl.EndPage)
package crawler
