// Package httpc provides the HTTP client shared by the MangaDex API
// client and the page downloader.
//
// The Client in this package handles:
//   - User-Agent headers (MangaDex requires an identifying client)
//   - JSON GET requests with query parameters
//   - Streaming file downloads with partial-file cleanup
//   - Timeout handling
//
// # Basic Usage
//
//	client := httpc.NewClient()
//
//	var feed dto.FeedResponse
//	err := client.GetJSON(ctx, feedURL, params, &feed)
//
//	err = client.DownloadTo(ctx, pageURL, "/manga/Vol_01/Ch_1/001_a.png", nil)
//
// A failed or empty download never leaves a partial file behind; the
// fetcher treats a missing destination as "not downloaded".
package httpc
