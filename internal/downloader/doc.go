// Package downloader fetches episode files in polite, sequential batches.
//
// A [Fetcher] downloads one URL into a destination, skipping files that are
// already present. A [Scheduler] drives the fetcher over a list of URLs.
//
// # Usage
//
//	fetcher := downloader.NewFetcher(client, storage.NewDir("downloads"), reporter)
//	results, err := downloader.NewScheduler(fetcher, downloader.Options{
//	    ChunkSize: 5,
//	    Reporter:  reporter,
//	}).Run(ctx, urls)
//
// # Batches
//
// URLs are split into consecutive batches of ChunkSize. Every file of a
// batch is fetched in its own goroutine, and the batch settles only when all
// of them have finished. After a full batch that is followed by more work
// the scheduler pauses for a random whole number of seconds (2 to 5 by
// default). There is no pause before the first batch or after the last.
//
// # Failures
//
// A failed file is reported as [OutcomeFailed] in its [Result]. It never
// cancels the other files of its batch and never stops the run. Only
// cancellation of the context ends a run early, and only between batches:
// a batch that has started is always allowed to settle.
package downloader
