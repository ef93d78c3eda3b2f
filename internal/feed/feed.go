package feed

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mmcdole/gofeed"
)

// DefaultURL is the feed fetched when none is configured.
const DefaultURL = "https://musicforprogramming.net/rss.xml"

// Item is a single feed entry.
type Item struct {
	Title     string
	GUID      string
	Enclosure *Enclosure // nil when the entry has no media attached
}

// Enclosure is the media reference attached to an Item.
type Enclosure struct {
	URL    string
	Type   string
	Length int64 // as advertised by the feed, 0 if absent or invalid
}

// Getter retrieves a URL as a byte stream.
type Getter interface {
	Get(ctx context.Context, url string) (io.ReadCloser, error)
}

// Source fetches and parses a single feed.
type Source struct {
	client Getter
	url    string
	parser *gofeed.Parser
}

// NewSource creates a Source reading url through client.
func NewSource(client Getter, url string) *Source {
	return &Source{
		client: client,
		url:    url,
		parser: gofeed.NewParser(),
	}
}

// URL returns the feed URL.
func (s *Source) URL() string {
	return s.url
}

// Items fetches the feed and returns its entries in document order.
func (s *Source) Items(ctx context.Context) ([]Item, error) {
	body, err := s.client.Get(ctx, s.url)
	if err != nil {
		return nil, fmt.Errorf("fetch feed %s: %w", s.url, err)
	}
	defer body.Close()

	parsed, err := s.parser.Parse(body)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", s.url, err)
	}

	items := make([]Item, 0, len(parsed.Items))
	for _, it := range parsed.Items {
		if it == nil {
			continue
		}
		item := Item{Title: it.Title, GUID: it.GUID}
		if len(it.Enclosures) > 0 && it.Enclosures[0] != nil {
			enc := it.Enclosures[0]
			length, _ := strconv.ParseInt(strings.TrimSpace(enc.Length), 10, 64)
			item.Enclosure = &Enclosure{
				URL:    enc.URL,
				Type:   enc.Type,
				Length: length,
			}
		}
		items = append(items, item)
	}
	return items, nil
}

// Filter returns the enclosure URLs of items whose enclosure URL ends with
// ext, preserving feed order. Items without a qualifying enclosure are
// dropped.
func Filter(items []Item, ext string) []string {
	var urls []string
	for _, item := range items {
		if item.Enclosure == nil || item.Enclosure.URL == "" {
			continue
		}
		if !strings.HasSuffix(item.Enclosure.URL, ext) {
			continue
		}
		urls = append(urls, item.Enclosure.URL)
	}
	return urls
}
