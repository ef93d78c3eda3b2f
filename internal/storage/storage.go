package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gocloud.dev/blob"
	"gocloud.dev/gcerrors"
)

// Writer receives the bytes of one downloaded file. Exactly one of Commit or
// Abort must be called.
type Writer interface {
	io.Writer

	// Commit flushes and closes the file, making it visible under its name.
	Commit() error

	// Abort discards everything written so far.
	Abort() error
}

// Dir stores files in a local directory.
type Dir struct {
	path string
}

// NewDir returns a Dir rooted at path. The directory is created on the first
// write, not here.
func NewDir(path string) *Dir {
	return &Dir{path: path}
}

// Path returns the directory path.
func (d *Dir) Path() string {
	return d.path
}

// Exists reports whether name is already present in the directory.
func (d *Dir) Exists(ctx context.Context, name string) (bool, error) {
	_, err := os.Stat(filepath.Join(d.path, name))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("stat %s: %w", name, err)
}

// Create opens a writer for name. Data goes to a temporary file next to the
// target and is renamed into place on Commit.
func (d *Dir) Create(ctx context.Context, name string) (Writer, error) {
	// MkdirAll is a no-op when the directory exists, so concurrent callers
	// racing to create it all succeed.
	if err := os.MkdirAll(d.path, 0755); err != nil {
		return nil, fmt.Errorf("create directory %s: %w", d.path, err)
	}

	f, err := os.CreateTemp(d.path, name+".*.part")
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", name, err)
	}

	return &fileWriter{f: f, target: filepath.Join(d.path, name)}, nil
}

type fileWriter struct {
	f      *os.File
	target string
}

func (w *fileWriter) Write(p []byte) (int, error) {
	return w.f.Write(p)
}

func (w *fileWriter) Commit() error {
	if err := w.f.Sync(); err != nil {
		w.Abort()
		return fmt.Errorf("sync %s: %w", w.target, err)
	}
	if err := w.f.Close(); err != nil {
		os.Remove(w.f.Name())
		return fmt.Errorf("close %s: %w", w.target, err)
	}
	if err := os.Rename(w.f.Name(), w.target); err != nil {
		os.Remove(w.f.Name())
		return fmt.Errorf("rename %s: %w", w.target, err)
	}
	return nil
}

func (w *fileWriter) Abort() error {
	w.f.Close()
	if err := os.Remove(w.f.Name()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove partial %s: %w", w.f.Name(), err)
	}
	return nil
}

// Bucket stores files as objects under a prefix in a gocloud bucket.
type Bucket struct {
	bucket *blob.Bucket
	prefix string
}

// NewBucket wraps an open bucket. Object keys are prefix + name.
func NewBucket(bucket *blob.Bucket, prefix string) *Bucket {
	return &Bucket{bucket: bucket, prefix: prefix}
}

// OpenBucket opens the bucket at url (for example "s3://episodes",
// "gs://episodes" or "file:///srv/episodes"). The caller must Close it.
func OpenBucket(ctx context.Context, url, prefix string) (*Bucket, error) {
	b, err := blob.OpenBucket(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("open bucket %s: %w", url, err)
	}
	return NewBucket(b, prefix), nil
}

// Close releases the bucket.
func (b *Bucket) Close() error {
	return b.bucket.Close()
}

// Exists reports whether the object for name is present.
func (b *Bucket) Exists(ctx context.Context, name string) (bool, error) {
	ok, err := b.bucket.Exists(ctx, b.prefix+name)
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return false, nil
		}
		return false, fmt.Errorf("check %s: %w", name, err)
	}
	return ok, nil
}

// Create opens a writer for name. The object only becomes visible on Commit.
func (b *Bucket) Create(ctx context.Context, name string) (Writer, error) {
	wctx, cancel := context.WithCancel(ctx)
	w, err := b.bucket.NewWriter(wctx, b.prefix+name, nil)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("create %s: %w", name, err)
	}
	return &objectWriter{w: w, cancel: cancel, key: b.prefix + name}, nil
}

type objectWriter struct {
	w      *blob.Writer
	cancel context.CancelFunc
	key    string
}

func (w *objectWriter) Write(p []byte) (int, error) {
	return w.w.Write(p)
}

func (w *objectWriter) Commit() error {
	defer w.cancel()
	if err := w.w.Close(); err != nil {
		return fmt.Errorf("close object %s: %w", w.key, err)
	}
	return nil
}

func (w *objectWriter) Abort() error {
	// Cancelling the writer's context before Close discards the upload.
	w.cancel()
	w.w.Close()
	return nil
}
