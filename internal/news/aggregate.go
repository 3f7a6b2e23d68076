package news

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/deusflow/newsdigest/internal/config"
	"github.com/deusflow/newsdigest/internal/logger"
	"github.com/deusflow/newsdigest/internal/metrics"
	"github.com/deusflow/newsdigest/internal/rss"
)

// Placeholder stands in for a section whose source yielded nothing.
const Placeholder = "(no items)"

const (
	defaultMaxItemsPerRegion = 6
	defaultItemsPerCategory  = 3
)

// Entry is one numbered line of a section.
type Entry struct {
	Index      int
	Title      string
	Link       string
	HelperLink string
}

// Section is one category of a region. Name is empty for a region without
// categories, in which case no sub-header is rendered.
type Section struct {
	Name    string
	Icon    string
	Entries []Entry
	Err     error
}

type RegionBlock struct {
	Name     string
	Icon     string
	Sections []Section
}

// Corpus holds every region block in configuration order.
type Corpus struct {
	Regions []RegionBlock
}

// Items counts the entries across all regions.
func (c Corpus) Items() int {
	n := 0
	for _, r := range c.Regions {
		for _, s := range r.Sections {
			n += len(s.Entries)
		}
	}
	return n
}

func (c Corpus) String() string {
	var b strings.Builder
	for _, r := range c.Regions {
		r.write(&b)
	}
	return b.String()
}

// FailedSections counts sections whose source could not be read.
func (c Corpus) FailedSections() int {
	n := 0
	for _, r := range c.Regions {
		for _, s := range r.Sections {
			if s.Err != nil {
				n++
			}
		}
	}
	return n
}

func (r RegionBlock) write(b *strings.Builder) {
	b.WriteString(heading("###", r.Icon, r.Name, "重要時事"))
	for _, s := range r.Sections {
		if s.Name != "" {
			b.WriteString(heading("####", s.Icon, s.Name))
		}
		if len(s.Entries) == 0 {
			b.WriteString(Placeholder)
			b.WriteString("\n")
			continue
		}
		for _, e := range s.Entries {
			fmt.Fprintf(b, "%d. %s\n", e.Index, e.Title)
			fmt.Fprintf(b, "   [閱讀全文](%s)\n", e.Link)
			if e.HelperLink != "" {
				fmt.Fprintf(b, "   [翻譯](%s)\n", e.HelperLink)
			}
		}
	}
	b.WriteString("\n")
}

// heading joins the non-empty parts with single spaces; icons are optional.
func heading(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ") + "\n"
}

// Aggregator fetches every (region, category) source and assembles the corpus.
type Aggregator struct {
	fetcher      rss.Fetcher
	enricher     *Enricher
	feedBase     string
	maxPerRegion int
	perCategory  int
	stats        *metrics.Run
}

type AggregatorOptions struct {
	Fetcher rss.Fetcher
	// Enricher may be nil, in which case titles pass through untouched.
	Enricher          *Enricher
	FeedBaseURL       string
	MaxItemsPerRegion int
	ItemsPerCategory  int
	Stats             *metrics.Run
}

func NewAggregator(opts AggregatorOptions) *Aggregator {
	a := &Aggregator{
		fetcher:      opts.Fetcher,
		enricher:     opts.Enricher,
		feedBase:     strings.TrimRight(opts.FeedBaseURL, "/"),
		maxPerRegion: opts.MaxItemsPerRegion,
		perCategory:  opts.ItemsPerCategory,
		stats:        opts.Stats,
	}
	if a.feedBase == "" {
		a.feedBase = config.DefaultFeedBaseURL
	}
	if a.maxPerRegion <= 0 {
		a.maxPerRegion = defaultMaxItemsPerRegion
	}
	if a.perCategory <= 0 {
		a.perCategory = defaultItemsPerCategory
	}
	return a
}

// Aggregate always returns one block per region and one section per
// category, whatever the individual sources did.
func (a *Aggregator) Aggregate(ctx context.Context, regions []config.RegionSpec) Corpus {
	corpus := Corpus{Regions: make([]RegionBlock, 0, len(regions))}
	for _, region := range regions {
		logger.Info("collecting region", "region", region.Name, "categories", len(region.Categories))
		corpus.Regions = append(corpus.Regions, a.region(ctx, region))
	}
	logger.Info("corpus assembled", "regions", len(corpus.Regions), "items", corpus.Items(), "failed_sections", corpus.FailedSections())
	return corpus
}

func (a *Aggregator) region(ctx context.Context, region config.RegionSpec) RegionBlock {
	block := RegionBlock{Name: region.Name, Icon: region.Icon}

	if len(region.Categories) == 0 {
		src := rss.Source{Region: region.Name, URL: a.SourceURL(region, nil)}
		block.Sections = []Section{a.section(ctx, region, src, "", "", a.maxPerRegion)}
		return block
	}

	remaining := a.maxPerRegion
	for i := range region.Categories {
		cat := &region.Categories[i]
		if remaining <= 0 {
			block.Sections = append(block.Sections, Section{Name: cat.Name, Icon: cat.Icon})
			continue
		}
		src := rss.Source{Region: region.Name, Category: cat.Name, URL: a.SourceURL(region, cat)}
		s := a.section(ctx, region, src, cat.Name, cat.Icon, min(a.perCategory, remaining))
		remaining -= len(s.Entries)
		block.Sections = append(block.Sections, s)
	}
	return block
}

func (a *Aggregator) section(ctx context.Context, region config.RegionSpec, src rss.Source, name, icon string, limit int) Section {
	s := Section{Name: name, Icon: icon}

	res := a.fetcher.Fetch(ctx, src, limit)
	if a.stats != nil {
		a.stats.RecordFeed(len(res.Items), res.Err)
	}
	if res.Err != nil {
		logger.Warn("source unavailable", "region", region.Name, "category", name, "error", res.Err)
		s.Err = res.Err
		return s
	}

	for i, item := range res.Items {
		if i >= limit {
			break
		}
		e := Entry{Index: i + 1, Title: item.Title, Link: item.Link}
		if a.enricher != nil {
			en := a.enricher.Enrich(ctx, item, region)
			e.Title = en.Title
			e.HelperLink = en.HelperLink
		}
		s.Entries = append(s.Entries, e)
	}
	return s
}

// SourceURL builds the feed address for a region and an optional category.
func (a *Aggregator) SourceURL(region config.RegionSpec, cat *config.CategorySpec) string {
	locale := localeParams(region.Language)
	switch {
	case cat != nil && cat.Topic != "":
		return a.feedBase + "/topics/" + url.PathEscape(cat.Topic) + "?" + locale
	case cat != nil && cat.Query != "":
		return a.feedBase + "/search?q=" + encodeQuery(cat.Query) + "&" + locale
	case region.FeedURL != "":
		return region.FeedURL
	default:
		return a.feedBase + "?" + locale
	}
}

func localeParams(l config.Language) string {
	return fmt.Sprintf("hl=%s&gl=%s&ceid=%s", url.QueryEscape(l.HL), url.QueryEscape(l.GL), l.CEID)
}

// encodeQuery percent-encodes a search keyword with spaces as %20.
func encodeQuery(q string) string {
	return strings.ReplaceAll(url.QueryEscape(q), "+", "%20")
}
