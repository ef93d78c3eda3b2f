//go:build integration

package main

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/ligustah/podslurp/internal/testutils"
)

func TestRunIntoMinio(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	env := testutils.StartMinioContainer(t, ctx, "episodes")
	defer env.Close(ctx)

	episodes := testEpisodes(t)
	srv := testutils.StartFeedServer(t, episodes)
	setupEnv(t, srv.FeedURL(), t.TempDir())
	t.Setenv("PODSLURP_STORAGE_URL", env.BucketURL)

	var stdout, stderr bytes.Buffer
	if code := run(ctx, &stdout, &stderr); code != ExitSuccess {
		t.Fatalf("exit code %d, stderr: %s\nstdout: %s", code, stderr.String(), stdout.String())
	}

	bucket, err := env.OpenBucket(ctx)
	if err != nil {
		t.Fatalf("open bucket: %v", err)
	}
	defer bucket.Close()

	for _, e := range episodes {
		exists, err := bucket.Exists(ctx, e.Name)
		if err != nil {
			t.Fatalf("exists %s: %v", e.Name, err)
		}
		if e.Name == "notes.pdf" {
			if exists {
				t.Errorf("filtered file %s was uploaded", e.Name)
			}
			continue
		}
		if !exists {
			t.Fatalf("episode %s missing from bucket", e.Name)
		}
		r, err := bucket.NewReader(ctx, e.Name, nil)
		if err != nil {
			t.Fatalf("read %s: %v", e.Name, err)
		}
		testutils.CompareReaderToData(t, r, e.Data)
		r.Close()
	}

	// A second run finds everything in the bucket.
	stdout.Reset()
	if code := run(ctx, &stdout, &stderr); code != ExitSuccess {
		t.Fatalf("rerun exit code %d, stderr: %s", code, stderr.String())
	}
	if !bytes.Contains(stdout.Bytes(), []byte("0 downloaded (0 B), 3 skipped")) {
		t.Errorf("expected all episodes skipped:\n%s", stdout.String())
	}
}
