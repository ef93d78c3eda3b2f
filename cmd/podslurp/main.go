package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/gcsblob"
	_ "gocloud.dev/blob/memblob"
	_ "gocloud.dev/blob/s3blob"

	"github.com/ligustah/podslurp/internal/config"
	"github.com/ligustah/podslurp/internal/downloader"
	"github.com/ligustah/podslurp/internal/feed"
	slurphttp "github.com/ligustah/podslurp/internal/http"
	"github.com/ligustah/podslurp/internal/progress"
	"github.com/ligustah/podslurp/internal/storage"
)

// Exit codes
const (
	ExitSuccess      = 0
	ExitGeneralError = 1
	ExitConfigError  = 2
	ExitFeedError    = 3
	ExitStorageError = 4
	ExitInterrupted  = 130
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\n[podslurp] Received interrupt, finishing current batch...")
		cancel()
	}()

	os.Exit(run(ctx, os.Stdout, os.Stderr))
}

func run(ctx context.Context, stdout, stderr io.Writer) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return ExitConfigError
	}

	client := slurphttp.NewClient(slurphttp.Options{
		MaxIdleConnsPerHost: max(cfg.ChunkSize, 2),
		Timeout:             cfg.HTTP.Timeout,
		RetryAttempts:       cfg.Retry.Attempts,
		RetryBackoff:        cfg.Retry.Backoff,
		RetryMaxBackoff:     cfg.Retry.MaxBackoff,
		RateLimit:           cfg.RateLimit,
		UserAgent:           cfg.UserAgent,
	})

	reporter := progress.NewReporter(progress.Options{Output: stdout})

	src := feed.NewSource(client, cfg.FeedURL)
	reporter.Start(src.URL())

	items, err := src.Items(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return ExitInterrupted
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return ExitFeedError
	}

	urls := feed.Filter(items, cfg.Extension)
	reporter.Found(len(urls), cfg.Extension)

	dest, closeDest, err := openDestination(ctx, cfg)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return ExitStorageError
	}
	defer closeDest()

	fetcher := downloader.NewFetcher(client, dest, reporter)
	scheduler := downloader.NewScheduler(fetcher, downloader.Options{
		ChunkSize: cfg.ChunkSize,
		Delay:     downloader.RandomDelay{Min: cfg.Wait.Min, Max: cfg.Wait.Max},
		Reporter:  reporter,
	})

	results, err := scheduler.Run(ctx, urls)
	sum := downloader.Summarize(results)
	reporter.Done(sum.Succeeded, sum.Skipped, sum.Failed, sum.Bytes)

	if err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Fprintln(stderr, "[podslurp] Interrupted, run again to fetch the rest")
			return ExitInterrupted
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return ExitGeneralError
	}

	return ExitSuccess
}

// openDestination returns the bucket named by StorageURL when set, and the
// local download directory otherwise.
func openDestination(ctx context.Context, cfg config.Config) (downloader.Destination, func() error, error) {
	if cfg.StorageURL == "" {
		return storage.NewDir(cfg.DownloadDir), func() error { return nil }, nil
	}

	b, err := storage.OpenBucket(ctx, cfg.StorageURL, "")
	if err != nil {
		return nil, nil, err
	}
	return b, b.Close, nil
}
