// Package http provides the HTTP client used for feed and episode downloads.
//
// This package handles:
//   - Streamed GET requests
//   - Retry with exponential backoff on transport errors and 5xx responses
//   - An optional per-response bandwidth cap
//   - A configurable User-Agent
//
// # Usage
//
//	client := http.NewClient(http.Options{
//	    MaxIdleConnsPerHost: 10,
//	    RetryAttempts:       3,
//	    RateLimit:           5 * 1000 * 1000, // 5 MB/s
//	})
//
//	body, err := client.Get(ctx, url)
//	defer body.Close()
package http
