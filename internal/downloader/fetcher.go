package downloader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/ligustah/podslurp/internal/storage"
)

// ErrNoFileName is returned when a URL has nothing after its last slash.
var ErrNoFileName = errors.New("downloader: url has no file name")

// Outcome is the result of attempting to fetch one URL.
type Outcome int

const (
	// OutcomeSucceeded means the file was downloaded and committed.
	OutcomeSucceeded Outcome = iota
	// OutcomeSkipped means the file was already present; nothing was fetched.
	OutcomeSkipped
	// OutcomeFailed means the download could not be completed.
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSucceeded:
		return "succeeded"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeFailed:
		return "failed"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Result records what happened to a single URL.
type Result struct {
	URL     string
	Name    string
	Outcome Outcome
	Bytes   int64 // written on success
	Err     error // set when Outcome is OutcomeFailed
}

// Getter retrieves a URL as a byte stream.
type Getter interface {
	Get(ctx context.Context, url string) (io.ReadCloser, error)
}

// Destination is where fetched files are stored.
type Destination interface {
	Exists(ctx context.Context, name string) (bool, error)
	Create(ctx context.Context, name string) (storage.Writer, error)
}

// Reporter receives progress events. All methods may be called concurrently.
type Reporter interface {
	BatchStarted(size, remaining int)
	Waiting(d time.Duration)
	FileSkipped(name string)
	FileSucceeded(name string, size int64)
	FileFailed(name string, err error)
}

// Fetcher downloads single URLs into a Destination.
type Fetcher struct {
	client   Getter
	dest     Destination
	reporter Reporter
}

// NewFetcher creates a Fetcher. reporter may be nil.
func NewFetcher(client Getter, dest Destination, reporter Reporter) *Fetcher {
	return &Fetcher{
		client:   client,
		dest:     dest,
		reporter: reporter,
	}
}

// FileName returns the text after the last slash of url.
func FileName(url string) string {
	return url[strings.LastIndex(url, "/")+1:]
}

// Fetch downloads url unless a file with the same name already exists.
// Failures are reported through the Result's Outcome and Err.
func (f *Fetcher) Fetch(ctx context.Context, url string) Result {
	r := Result{URL: url, Name: FileName(url)}

	if r.Name == "" {
		return f.fail(r, ErrNoFileName)
	}

	exists, err := f.dest.Exists(ctx, r.Name)
	if err != nil {
		return f.fail(r, err)
	}
	if exists {
		r.Outcome = OutcomeSkipped
		if f.reporter != nil {
			f.reporter.FileSkipped(r.Name)
		}
		return r
	}

	n, err := f.download(ctx, url, r.Name)
	if err != nil {
		return f.fail(r, err)
	}

	r.Outcome = OutcomeSucceeded
	r.Bytes = n
	if f.reporter != nil {
		f.reporter.FileSucceeded(r.Name, n)
	}
	return r
}

func (f *Fetcher) download(ctx context.Context, url, name string) (int64, error) {
	w, err := f.dest.Create(ctx, name)
	if err != nil {
		return 0, err
	}

	body, err := f.client.Get(ctx, url)
	if err != nil {
		w.Abort()
		return 0, fmt.Errorf("get %s: %w", url, err)
	}
	defer body.Close()

	n, err := io.Copy(w, body)
	if err != nil {
		w.Abort()
		return n, fmt.Errorf("write %s: %w", name, err)
	}

	if err := w.Commit(); err != nil {
		return n, err
	}
	return n, nil
}

func (f *Fetcher) fail(r Result, err error) Result {
	r.Outcome = OutcomeFailed
	r.Err = err
	if f.reporter != nil {
		name := r.Name
		if name == "" {
			name = r.URL
		}
		f.reporter.FileFailed(name, err)
	}
	return r
}
