// Package download provides the pipeline orchestration for fetching
// manga chapters from MangaDex and assembling them into export formats.
//
// # Manager
//
// The Manager coordinates the entire pipeline:
//
//  1. Resolve the manga's chapter feed into an ordered, deduplicated queue
//  2. Download each chapter's pages with a bounded worker pool
//  3. Track per-group completion as chapters land on disk
//  4. Finalize complete groups: validate, optionally enhance, export, clean up
//  5. Sweep leftover groups at the end of the run
//
// # Basic Usage
//
//	manager := download.NewManager(settings, log, func(event download.ProgressEvent) {
//	    fmt.Println(event.Message)
//	})
//
//	err := manager.Initialize(ctx, "https://mangadex.org/title/<uuid>/name", download.Selection{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	summary := manager.Run(ctx)
//	summary.Render(os.Stdout)
//
// # Retry Cascade
//
// Each chapter moves through an explicit attempt state machine: the
// original download, a retry after a cooldown, then an attempt against
// the same chapter number in the configured fallback language. Only when
// all three fail is the chapter marked failed; the run continues either
// way, and failures surface in the end-of-run summary.
//
// # Concurrency
//
// Chapters download one at a time with a politeness delay between them.
// Within a chapter, pages download concurrently through a pool bounded
// by settings.PageWorkers.
package download
