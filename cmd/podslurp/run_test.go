package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ligustah/podslurp/internal/testutils"
)

func setupEnv(t *testing.T, feedURL, dir string) {
	t.Helper()
	t.Setenv("PODSLURP_CONFIG", "")
	t.Setenv("PODSLURP_STORAGE_URL", "")
	t.Setenv("PODSLURP_FEED_URL", feedURL)
	t.Setenv("PODSLURP_DOWNLOAD_DIR", dir)
	t.Setenv("PODSLURP_CHUNK_SIZE", "2")
	t.Setenv("PODSLURP_WAIT_MIN", "0s")
	t.Setenv("PODSLURP_WAIT_MAX", "0s")
	t.Setenv("PODSLURP_RETRY_ATTEMPTS", "0")
}

func testEpisodes(t *testing.T) []testutils.Episode {
	return []testutils.Episode{
		{Name: "episode01.mp3", Data: testutils.GenerateTestData(t, 1024)},
		{Name: "episode02.mp3", Data: testutils.GenerateTestData(t, 2048)},
		{Name: "notes.pdf", Data: []byte("not audio")},
		{Name: "episode03.mp3", Data: testutils.GenerateTestData(t, 512)},
	}
}

func TestRunDownloadsEpisodes(t *testing.T) {
	episodes := testEpisodes(t)
	srv := testutils.StartFeedServer(t, episodes)
	dir := filepath.Join(t.TempDir(), "downloads")
	setupEnv(t, srv.FeedURL(), dir)

	var stdout, stderr bytes.Buffer
	if code := run(context.Background(), &stdout, &stderr); code != ExitSuccess {
		t.Fatalf("exit code %d, stderr: %s", code, stderr.String())
	}

	for _, e := range episodes {
		path := filepath.Join(dir, e.Name)
		if e.Name == "notes.pdf" {
			if _, err := os.Stat(path); !os.IsNotExist(err) {
				t.Errorf("filtered file was downloaded: %v", err)
			}
			continue
		}
		f, err := os.Open(path)
		if err != nil {
			t.Fatalf("open %s: %v", e.Name, err)
		}
		testutils.CompareReaderToData(t, f, e.Data)
		f.Close()
	}

	out := stdout.String()
	for _, want := range []string{
		"[podslurp] Fetching feed: " + srv.FeedURL(),
		"[podslurp] Found 3 episodes with mp3 files.",
		"[podslurp] Downloading 2 files, remaining 1. Please wait...",
		"[podslurp] Politely waiting 0s...",
		"[podslurp] Downloading 1 files, remaining 0. Please wait...",
		"[podslurp] Done! 3 downloaded",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRunSkipsOnRerun(t *testing.T) {
	srv := testutils.StartFeedServer(t, testEpisodes(t))
	dir := t.TempDir()
	setupEnv(t, srv.FeedURL(), dir)

	var stdout, stderr bytes.Buffer
	if code := run(context.Background(), &stdout, &stderr); code != ExitSuccess {
		t.Fatalf("first run exit code %d, stderr: %s", code, stderr.String())
	}

	stdout.Reset()
	if code := run(context.Background(), &stdout, &stderr); code != ExitSuccess {
		t.Fatalf("second run exit code %d, stderr: %s", code, stderr.String())
	}

	if n := srv.Requests("/episodes/episode01.mp3"); n != 1 {
		t.Errorf("expected one request for episode01.mp3, got %d", n)
	}
	out := stdout.String()
	if !strings.Contains(out, "[podslurp] 'episode02.mp3' already downloaded!") {
		t.Errorf("expected skip line:\n%s", out)
	}
	if !strings.Contains(out, "Done! 0 downloaded (0 B), 3 skipped, 0 failed") {
		t.Errorf("unexpected summary:\n%s", out)
	}
}

func TestRunFailedEpisodeDoesNotFailRun(t *testing.T) {
	episodes := testEpisodes(t)
	episodes[1].Missing = true
	srv := testutils.StartFeedServer(t, episodes)
	dir := t.TempDir()
	setupEnv(t, srv.FeedURL(), dir)

	var stdout, stderr bytes.Buffer
	if code := run(context.Background(), &stdout, &stderr); code != ExitSuccess {
		t.Fatalf("exit code %d, stderr: %s", code, stderr.String())
	}

	if _, err := os.Stat(filepath.Join(dir, "episode02.mp3")); !os.IsNotExist(err) {
		t.Errorf("failed episode left a file behind: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "episode03.mp3")); err != nil {
		t.Errorf("episode after the failure was not downloaded: %v", err)
	}
	out := stdout.String()
	if !strings.Contains(out, "[podslurp] Failed downloading 'episode02.mp3'") {
		t.Errorf("expected failure line:\n%s", out)
	}
	if !strings.Contains(out, "2 downloaded") || !strings.Contains(out, "1 failed") {
		t.Errorf("unexpected summary:\n%s", out)
	}
}

func TestRunFeedError(t *testing.T) {
	srv := testutils.StartFeedServer(t, nil)
	setupEnv(t, srv.URL+"/missing.xml", t.TempDir())

	var stdout, stderr bytes.Buffer
	if code := run(context.Background(), &stdout, &stderr); code != ExitFeedError {
		t.Fatalf("expected exit code %d, got %d", ExitFeedError, code)
	}
	if !strings.Contains(stderr.String(), "fetch feed") {
		t.Errorf("unexpected stderr: %s", stderr.String())
	}
}

func TestRunConfigError(t *testing.T) {
	setupEnv(t, "http://127.0.0.1:0/rss.xml", t.TempDir())
	t.Setenv("PODSLURP_CHUNK_SIZE", "0")

	var stdout, stderr bytes.Buffer
	if code := run(context.Background(), &stdout, &stderr); code != ExitConfigError {
		t.Fatalf("expected exit code %d, got %d", ExitConfigError, code)
	}
	if stdout.Len() != 0 {
		t.Errorf("expected no progress output, got %q", stdout.String())
	}
}

func TestRunStorageError(t *testing.T) {
	srv := testutils.StartFeedServer(t, testEpisodes(t))
	setupEnv(t, srv.FeedURL(), t.TempDir())
	t.Setenv("PODSLURP_STORAGE_URL", "nosuchscheme://bucket")

	var stdout, stderr bytes.Buffer
	if code := run(context.Background(), &stdout, &stderr); code != ExitStorageError {
		t.Fatalf("expected exit code %d, got %d", ExitStorageError, code)
	}
	if n := srv.Requests("/episodes/episode01.mp3"); n != 0 {
		t.Errorf("expected no episode requests, got %d", n)
	}
}

func TestRunBucketStorage(t *testing.T) {
	episodes := testEpisodes(t)
	srv := testutils.StartFeedServer(t, episodes)
	dir := t.TempDir()
	setupEnv(t, srv.FeedURL(), filepath.Join(dir, "unused"))
	t.Setenv("PODSLURP_STORAGE_URL", "file://"+filepath.ToSlash(dir))

	var stdout, stderr bytes.Buffer
	if code := run(context.Background(), &stdout, &stderr); code != ExitSuccess {
		t.Fatalf("exit code %d, stderr: %s", code, stderr.String())
	}

	data, err := os.ReadFile(filepath.Join(dir, "episode01.mp3"))
	if err != nil {
		t.Fatalf("read from bucket dir: %v", err)
	}
	if !bytes.Equal(data, episodes[0].Data) {
		t.Error("bucket object does not match served data")
	}
}

func TestRunInterrupted(t *testing.T) {
	srv := testutils.StartFeedServer(t, testEpisodes(t))
	setupEnv(t, srv.FeedURL(), t.TempDir())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var stdout, stderr bytes.Buffer
	if code := run(ctx, &stdout, &stderr); code != ExitInterrupted {
		t.Fatalf("expected exit code %d, got %d", ExitInterrupted, code)
	}
}

func TestRunEmptyFeed(t *testing.T) {
	srv := testutils.StartFeedServer(t, nil)
	setupEnv(t, srv.FeedURL(), t.TempDir())

	var stdout, stderr bytes.Buffer
	if code := run(context.Background(), &stdout, &stderr); code != ExitSuccess {
		t.Fatalf("exit code %d, stderr: %s", code, stderr.String())
	}
	out := stdout.String()
	if !strings.Contains(out, "Found 0 episodes with mp3 files.") {
		t.Errorf("unexpected output:\n%s", out)
	}
	if strings.Contains(out, "Downloading") {
		t.Errorf("expected no batches:\n%s", out)
	}
}
