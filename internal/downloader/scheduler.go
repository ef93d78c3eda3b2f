package downloader

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// DefaultChunkSize is the number of files downloaded concurrently per batch.
const DefaultChunkSize = 5

// FileFetcher downloads a single URL.
type FileFetcher interface {
	Fetch(ctx context.Context, url string) Result
}

// Delay picks the pause between two batches.
type Delay interface {
	Next() time.Duration
}

// RandomDelay picks a whole number of seconds uniformly from [Min, Max].
type RandomDelay struct {
	Min time.Duration
	Max time.Duration
}

// Next returns the next pause.
func (d RandomDelay) Next() time.Duration {
	lo := d.Min / time.Second
	hi := d.Max / time.Second
	if hi <= lo {
		return lo * time.Second
	}
	return (lo + time.Duration(rand.Int63n(int64(hi-lo)+1))) * time.Second
}

// FixedDelay always returns the same pause.
type FixedDelay time.Duration

// Next returns the pause.
func (d FixedDelay) Next() time.Duration {
	return time.Duration(d)
}

// Sleep blocks for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Options configures the scheduler.
type Options struct {
	// ChunkSize is the number of files per batch.
	// Default: 5
	ChunkSize int

	// Delay picks the pause after each full batch that is followed by
	// another one.
	// Default: RandomDelay{Min: 2s, Max: 5s}
	Delay Delay

	// Sleep waits for the pause. Tests replace it to avoid real sleeps.
	// Default: Sleep
	Sleep func(ctx context.Context, d time.Duration) error

	// Reporter is an optional progress reporter.
	Reporter Reporter
}

// Scheduler downloads URLs in sequential batches. Files within a batch are
// fetched concurrently; the next batch starts only after every file of the
// current one has settled.
type Scheduler struct {
	fetcher FileFetcher
	opts    Options
}

// NewScheduler creates a Scheduler using fetcher for the individual files.
func NewScheduler(fetcher FileFetcher, opts Options) *Scheduler {
	// Apply defaults
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = DefaultChunkSize
	}
	if opts.Delay == nil {
		opts.Delay = RandomDelay{Min: 2 * time.Second, Max: 5 * time.Second}
	}
	if opts.Sleep == nil {
		opts.Sleep = Sleep
	}

	return &Scheduler{
		fetcher: fetcher,
		opts:    opts,
	}
}

// Run downloads urls in input order and returns one Result per URL, in the
// same order. Individual failures are recorded in the results and never stop
// the run. Run only returns an error when ctx is done; the results gathered
// up to that point are returned with it.
func (s *Scheduler) Run(ctx context.Context, urls []string) ([]Result, error) {
	results := make([]Result, 0, len(urls))
	remaining := len(urls)

	for start := 0; start < len(urls); start += s.opts.ChunkSize {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		end := min(start+s.opts.ChunkSize, len(urls))
		chunk := urls[start:end]

		remaining -= len(chunk)
		if s.opts.Reporter != nil {
			s.opts.Reporter.BatchStarted(len(chunk), remaining)
		}

		results = append(results, s.dispatch(ctx, chunk)...)

		if len(chunk) == s.opts.ChunkSize && remaining > 0 {
			d := s.opts.Delay.Next()
			if s.opts.Reporter != nil {
				s.opts.Reporter.Waiting(d)
			}
			if err := s.opts.Sleep(ctx, d); err != nil {
				return results, err
			}
		}
	}

	return results, nil
}

// dispatch fetches every URL of chunk concurrently and waits for all of them.
func (s *Scheduler) dispatch(ctx context.Context, chunk []string) []Result {
	out := make([]Result, len(chunk))

	var wg sync.WaitGroup
	for i, url := range chunk {
		i, url := i, url
		wg.Add(1)
		go func() {
			defer wg.Done()
			out[i] = s.fetcher.Fetch(ctx, url)
		}()
	}
	wg.Wait()

	return out
}

// Summary counts results by outcome.
type Summary struct {
	Succeeded int
	Skipped   int
	Failed    int
	Bytes     int64
}

// Summarize tallies results.
func Summarize(results []Result) Summary {
	var s Summary
	for _, r := range results {
		switch r.Outcome {
		case OutcomeSucceeded:
			s.Succeeded++
			s.Bytes += r.Bytes
		case OutcomeSkipped:
			s.Skipped++
		case OutcomeFailed:
			s.Failed++
		}
	}
	return s
}
