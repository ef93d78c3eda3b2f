// Package progress provides progress reporting for batched episode downloads.
//
// This package outputs human-readable progress lines to stdout: how many
// episodes the feed lists, each batch as it starts, the polite wait between
// batches, every per-file outcome and a final summary.
//
// # Usage
//
//	reporter := progress.NewReporter(progress.Options{Output: os.Stdout})
//
//	reporter.Start(feedURL)
//	reporter.Found(len(urls), ".mp3")
//	// handed to the scheduler and fetcher, which call
//	// BatchStarted, Waiting and File* as work progresses
//	reporter.Done(succeeded, skipped, failed, bytes)
//
// # Output Format
//
//	[podslurp] Fetching feed: https://musicforprogramming.net/rss.xml
//	[podslurp] Found 12 episodes with mp3 files.
//	[podslurp] Downloading 5 files, remaining 7. Please wait...
//	[podslurp] 'episode01.mp3' already downloaded!
//	[podslurp] Downloaded 'episode02.mp3' (84 MiB)
//	[podslurp] Politely waiting 3s...
//	[podslurp] Done! 11 downloaded (903 MiB), 1 skipped, 0 failed in 4m 12s.
package progress
