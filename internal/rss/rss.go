package rss

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
)

var (
	// ErrSourceUnavailable wraps transport and parse failures of a single feed.
	ErrSourceUnavailable = errors.New("feed source unavailable")
	// ErrNoEntries is reported when a feed parsed fine but carried no usable items.
	ErrNoEntries = errors.New("feed has no entries")
)

const publisherSeparator = " - "

// NewsItem is one normalized feed entry. It is never modified after Fetch.
type NewsItem struct {
	Title        string
	Link         string
	SourceRegion string
	Category     string
}

// Source identifies one feed URL together with the labels its items inherit.
type Source struct {
	Region   string
	Category string
	URL      string
}

// FetchResult is always safe to use: Items is empty whenever Err is set.
type FetchResult struct {
	Items []NewsItem
	Err   error
}

type Fetcher interface {
	Fetch(ctx context.Context, src Source, limit int) FetchResult
}

// FeedFetcher downloads and parses syndication feeds with gofeed.
type FeedFetcher struct {
	parser  *gofeed.Parser
	timeout time.Duration
}

func NewFeedFetcher(timeout time.Duration) *FeedFetcher {
	parser := gofeed.NewParser()
	parser.Client = &http.Client{Timeout: timeout}
	parser.UserAgent = "newsdigest/1.0"
	return &FeedFetcher{parser: parser, timeout: timeout}
}

// Fetch returns at most limit items (limit <= 0 means all) in feed order.
func (f *FeedFetcher) Fetch(ctx context.Context, src Source, limit int) FetchResult {
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	feed, err := f.parser.ParseURLWithContext(src.URL, ctx)
	if err != nil {
		return FetchResult{Err: fmt.Errorf("%w: %s: %v", ErrSourceUnavailable, src.URL, err)}
	}
	if feed == nil || len(feed.Items) == 0 {
		return FetchResult{Err: fmt.Errorf("%w: %s", ErrNoEntries, src.URL)}
	}

	items := make([]NewsItem, 0, len(feed.Items))
	for _, entry := range feed.Items {
		if limit > 0 && len(items) >= limit {
			break
		}
		if entry == nil {
			continue
		}
		title := displayTitle(entry.Title)
		link := strings.TrimSpace(entry.Link)
		if title == "" || link == "" {
			continue
		}
		items = append(items, NewsItem{
			Title:        title,
			Link:         link,
			SourceRegion: src.Region,
			Category:     src.Category,
		})
	}

	if len(items) == 0 {
		return FetchResult{Err: fmt.Errorf("%w: %s", ErrNoEntries, src.URL)}
	}
	return FetchResult{Items: items}
}

// NormalizeTitle drops the trailing " - <publisher>" suffix Google News appends.
// Only the last separator counts, so "A - B - Publisher" becomes "A - B".
func NormalizeTitle(title string) string {
	if idx := strings.LastIndex(title, publisherSeparator); idx >= 0 {
		return title[:idx]
	}
	return title
}

// displayTitle strips the publisher suffix from the raw feed title first, so
// the last-separator rule sees the title exactly as published, then cleans it.
func displayTitle(raw string) string {
	return cleanText(NormalizeTitle(raw))
}

// cleanText flattens any markup left in a feed title and collapses whitespace.
func cleanText(s string) string {
	if s == "" || !strings.ContainsAny(s, "<&") {
		return strings.Join(strings.Fields(s), " ")
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.Join(strings.Fields(s), " ")
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}
