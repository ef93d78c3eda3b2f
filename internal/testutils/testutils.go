// Package testutils provides shared test infrastructure: a podcast feed
// server and a MinIO container for bucket-backed runs.
package testutils

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"gocloud.dev/blob"
)

// Episode defines a feed entry and the enclosure bytes served for it.
type Episode struct {
	Title string
	Name  string
	Data  []byte

	// Missing lists the episode in the feed but answers 404 for its file.
	Missing bool
}

// GenerateTestData generates deterministic test data of the given size.
func GenerateTestData(t *testing.T, size int64) []byte {
	t.Helper()
	data := make([]byte, size)
	for i := range data {
		data[i] = byte(i % 256)
	}
	return data
}

// FeedServer serves an RSS document at /rss.xml and the episode files it
// references under /episodes/.
type FeedServer struct {
	*httptest.Server

	mu       sync.Mutex
	requests map[string]int
}

// FeedURL returns the URL of the RSS document.
func (s *FeedServer) FeedURL() string {
	return s.URL + "/rss.xml"
}

// EpisodeURL returns the enclosure URL for the named episode file.
func (s *FeedServer) EpisodeURL(name string) string {
	return s.URL + "/episodes/" + name
}

// Requests returns how many times path has been requested.
func (s *FeedServer) Requests(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[path]
}

// StartFeedServer starts an HTTP server publishing the given episodes. The
// server is closed when the test ends.
func StartFeedServer(t *testing.T, episodes []Episode) *FeedServer {
	t.Helper()

	files := make(map[string]Episode, len(episodes))
	for _, e := range episodes {
		files["/episodes/"+e.Name] = e
	}

	srv := &FeedServer{requests: make(map[string]int)}
	srv.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		srv.mu.Lock()
		srv.requests[r.URL.Path]++
		srv.mu.Unlock()

		if r.URL.Path == "/rss.xml" {
			w.Header().Set("Content-Type", "application/rss+xml")
			io.WriteString(w, renderFeed(srv.URL, episodes))
			return
		}

		e, ok := files[r.URL.Path]
		if !ok || e.Missing {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "audio/mpeg")
		w.Header().Set("Content-Length", strconv.Itoa(len(e.Data)))
		w.Write(e.Data)
	}))
	t.Cleanup(srv.Close)

	return srv
}

func renderFeed(base string, episodes []Episode) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	b.WriteString(`<rss version="2.0"><channel><title>Test Feed</title>` + "\n")
	for _, e := range episodes {
		title := e.Title
		if title == "" {
			title = e.Name
		}
		fmt.Fprintf(&b, `<item><title>%s</title><guid>%s</guid>`, html.EscapeString(title), html.EscapeString(e.Name))
		fmt.Fprintf(&b, `<enclosure url="%s/episodes/%s" length="%d" type="audio/mpeg"/></item>`+"\n",
			base, html.EscapeString(e.Name), len(e.Data))
	}
	b.WriteString(`</channel></rss>` + "\n")
	return b.String()
}

// MinioEnv contains connection information for a Minio test environment.
type MinioEnv struct {
	Container testcontainers.Container
	BucketURL string
	Endpoint  string
	AccessKey string
	SecretKey string
}

// Close terminates the Minio container.
func (e *MinioEnv) Close(ctx context.Context) error {
	if e.Container != nil {
		return e.Container.Terminate(ctx)
	}
	return nil
}

// OpenBucket opens a gocloud bucket connection to the Minio environment.
func (e *MinioEnv) OpenBucket(ctx context.Context) (*blob.Bucket, error) {
	return blob.OpenBucket(ctx, e.BucketURL)
}

// StartMinioContainer starts a Minio container with a pre-created bucket.
// The caller needs the s3blob driver registered to open BucketURL.
func StartMinioContainer(t *testing.T, ctx context.Context, bucketName string) *MinioEnv {
	t.Helper()

	const (
		accessKey = "minioadmin"
		secretKey = "minioadmin"
	)

	networkName := fmt.Sprintf("podslurp-test-net-%d", time.Now().UnixNano())
	network, err := testcontainers.GenericNetwork(ctx, testcontainers.GenericNetworkRequest{
		NetworkRequest: testcontainers.NetworkRequest{
			Name: networkName,
		},
	})
	if err != nil {
		t.Fatalf("create network: %v", err)
	}
	t.Cleanup(func() { network.Remove(ctx) })

	minioReq := testcontainers.ContainerRequest{
		Image:        "minio/minio:latest",
		ExposedPorts: []string{"9000/tcp"},
		Networks:     []string{networkName},
		NetworkAliases: map[string][]string{
			networkName: {"minio"},
		},
		Env: map[string]string{
			"MINIO_ROOT_USER":     accessKey,
			"MINIO_ROOT_PASSWORD": secretKey,
		},
		Cmd:        []string{"server", "/data"},
		WaitingFor: wait.ForHTTP("/minio/health/ready").WithPort("9000"),
	}

	minioContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: minioReq,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("start minio container: %v", err)
	}

	createBucketWithMC(t, ctx, networkName, accessKey, secretKey, bucketName)

	host, err := minioContainer.Host(ctx)
	if err != nil {
		t.Fatalf("get container host: %v", err)
	}

	port, err := minioContainer.MappedPort(ctx, "9000")
	if err != nil {
		t.Fatalf("get container port: %v", err)
	}

	endpoint := fmt.Sprintf("%s:%s", host, port.Port())

	bucketURL := fmt.Sprintf("s3://%s?endpoint=http://%s&use_path_style=true&disable_https=true&region=us-east-1",
		bucketName,
		endpoint,
	)

	// gocloud reads credentials from the environment
	t.Setenv("AWS_ACCESS_KEY_ID", accessKey)
	t.Setenv("AWS_SECRET_ACCESS_KEY", secretKey)

	return &MinioEnv{
		Container: minioContainer,
		BucketURL: bucketURL,
		Endpoint:  endpoint,
		AccessKey: accessKey,
		SecretKey: secretKey,
	}
}

// createBucketWithMC creates a bucket using a short-lived minio/mc container.
func createBucketWithMC(t *testing.T, ctx context.Context, networkName, accessKey, secretKey, bucketName string) {
	t.Helper()

	mcReq := testcontainers.ContainerRequest{
		Image:      "minio/mc:latest",
		Networks:   []string{networkName},
		Entrypoint: []string{"/bin/sh", "-c"},
		Cmd: []string{
			fmt.Sprintf(
				"/usr/bin/mc config host add myminio http://minio:9000 %s %s && "+
					"/usr/bin/mc mb myminio/%s; "+
					"exit 0",
				accessKey, secretKey, bucketName,
			),
		},
		WaitingFor: wait.ForExit(),
	}

	mcContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: mcReq,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("start mc container: %v", err)
	}
	defer mcContainer.Terminate(ctx)
}

// CompareReaderToData fails the test unless reader yields exactly expected.
func CompareReaderToData(t *testing.T, reader io.Reader, expected []byte) {
	t.Helper()

	got, err := io.ReadAll(reader)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != len(expected) {
		t.Fatalf("length mismatch: got %d bytes, want %d", len(got), len(expected))
	}
	if !bytes.Equal(got, expected) {
		t.Fatal("data mismatch")
	}
}
