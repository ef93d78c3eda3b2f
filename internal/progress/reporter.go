package progress

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
)

// Options configures the progress reporter.
type Options struct {
	// Output is where to write progress output.
	// Default: os.Stdout
	Output io.Writer

	// Prefix is prepended to every line.
	// Default: "[podslurp]"
	Prefix string
}

// Reporter outputs human-readable progress information. It is safe for
// concurrent use by the fetches of a batch.
type Reporter struct {
	opts Options

	mu        sync.Mutex
	startTime time.Time
}

// NewReporter creates a new progress reporter.
func NewReporter(opts Options) *Reporter {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Prefix == "" {
		opts.Prefix = "[podslurp]"
	}

	return &Reporter{
		opts:      opts,
		startTime: time.Now(),
	}
}

// Start prints the run header.
func (r *Reporter) Start(feedURL string) {
	r.mu.Lock()
	r.startTime = time.Now()
	r.mu.Unlock()

	r.printf("Fetching feed: %s", feedURL)
}

// Found reports how many downloadable episodes the feed lists.
func (r *Reporter) Found(n int, ext string) {
	r.printf("Found %d episodes with %s files.", n, strings.TrimPrefix(ext, "."))
}

// BatchStarted reports a batch about to be downloaded and how many files
// are left after it.
func (r *Reporter) BatchStarted(size, remaining int) {
	r.printf("Downloading %d files, remaining %d. Please wait...", size, remaining)
}

// Waiting reports the polite pause before the next batch.
func (r *Reporter) Waiting(d time.Duration) {
	r.printf("Politely waiting %s...", formatDuration(d))
}

// FileSkipped reports a file that was already present.
func (r *Reporter) FileSkipped(name string) {
	r.printf("'%s' already downloaded!", name)
}

// FileSucceeded reports a completed download.
func (r *Reporter) FileSucceeded(name string, size int64) {
	r.printf("Downloaded '%s' (%s)", name, FormatBytes(size))
}

// FileFailed reports a download that could not be completed.
func (r *Reporter) FileFailed(name string, err error) {
	r.printf("Failed downloading '%s': %v", name, err)
}

// Done prints the final summary.
func (r *Reporter) Done(succeeded, skipped, failed int, size int64) {
	r.mu.Lock()
	duration := time.Since(r.startTime)
	r.mu.Unlock()

	r.printf("Done! %d downloaded (%s), %d skipped, %d failed in %s.",
		succeeded,
		FormatBytes(size),
		skipped,
		failed,
		formatDuration(duration),
	)
}

func (r *Reporter) printf(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.opts.Output, r.opts.Prefix+" "+format+"\n", args...)
}

// formatDuration formats a duration as a human-readable string.
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.0fs", d.Seconds())
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm %ds", m, s)
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%dh %dm %ds", h, m, s)
}

// FormatBytes formats bytes as a human-readable IEC string (e.g. "1.5 MiB").
func FormatBytes(b int64) string {
	if b < 0 {
		b = 0
	}
	return humanize.IBytes(uint64(b))
}

// ParseBytes parses a human-readable byte string. Both SI ("5MB") and IEC
// ("5MiB") units are accepted.
func ParseBytes(s string) (int64, error) {
	n, err := humanize.ParseBytes(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid byte string: %s", s)
	}
	return int64(n), nil
}
