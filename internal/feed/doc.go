// Package feed reads podcast feeds and selects downloadable enclosures.
//
// A [Source] fetches the feed through an injected [Getter] and parses RSS or
// Atom with gofeed. [Filter] turns the resulting items into the ordered list
// of audio URLs to download:
//
//	src := feed.NewSource(client, feed.DefaultURL)
//	items, err := src.Items(ctx)
//	urls := feed.Filter(items, ".mp3")
package feed
