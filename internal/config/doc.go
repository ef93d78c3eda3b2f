// Package config defines configuration structures for podslurp.
//
// podslurp takes no command-line arguments. Configuration can be provided via:
//   - Environment variables (PODSLURP_ prefix)
//   - A YAML configuration file named by PODSLURP_CONFIG
//
// # Structure
//
//	type Config struct {
//	    FeedURL     string
//	    DownloadDir string
//	    StorageURL  string
//	    Extension   string
//	    ChunkSize   int
//	    Wait        WaitConfig
//	    RateLimit   int64
//	    UserAgent   string
//	    HTTP        HTTPConfig
//	    Retry       RetryConfig
//	}
//
// # Example
//
//	feed_url: https://musicforprogramming.net/rss.xml
//	download_dir: downloads
//	chunk_size: 5
//	wait:
//	  min: 2s
//	  max: 5s
//	rate_limit: 5MB
package config
