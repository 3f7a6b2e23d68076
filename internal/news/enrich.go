package news

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/deusflow/newsdigest/internal/config"
	"github.com/deusflow/newsdigest/internal/logger"
	"github.com/deusflow/newsdigest/internal/metrics"
	"github.com/deusflow/newsdigest/internal/rss"
	"github.com/deusflow/newsdigest/internal/translate"
)

// ErrEnrichment marks a translation that failed; the original title is kept.
var ErrEnrichment = errors.New("enrichment failed")

// Enrichment is the display form of one item. Title is never empty for an
// item that had a title.
type Enrichment struct {
	Title      string
	HelperLink string
	Translated bool
	Err        error
}

// Enricher applies a region's enrichment mode to its items.
type Enricher struct {
	translator     translate.Translator
	helperURL      string
	targetLanguage string
	stats          *metrics.Run
}

type EnricherOptions struct {
	Translator     translate.Translator
	HelperURL      string
	TargetLanguage string
	Stats          *metrics.Run
}

func NewEnricher(opts EnricherOptions) *Enricher {
	e := &Enricher{
		translator:     opts.Translator,
		helperURL:      opts.HelperURL,
		targetLanguage: opts.TargetLanguage,
		stats:          opts.Stats,
	}
	if e.helperURL == "" {
		e.helperURL = config.DefaultHelperURL
	}
	if e.targetLanguage == "" {
		e.targetLanguage = "zh-TW"
	}
	return e
}

func (e *Enricher) Enrich(ctx context.Context, item rss.NewsItem, region config.RegionSpec) Enrichment {
	out := Enrichment{Title: item.Title}

	if region.HelperLink {
		out.HelperLink = e.helperLink(item.Link)
	}
	if !region.Translate {
		return out
	}

	if e.translator == nil {
		out.Err = fmt.Errorf("%w: no translator configured", ErrEnrichment)
		return out
	}

	translated, err := e.translator.Translate(ctx, item.Title, region.Language.Code, e.targetLanguage)
	translated = strings.TrimSpace(translated)
	if err == nil && translated == "" {
		err = translate.ErrNoTranslation
	}
	if e.stats != nil {
		e.stats.RecordTranslation(err == nil)
	}
	if err != nil {
		logger.Warn("translation failed, keeping original title", "region", region.Name, "title", item.Title, "error", err)
		out.Err = fmt.Errorf("%w: %v", ErrEnrichment, err)
		return out
	}

	out.Title = translated
	out.Translated = true
	return out
}

// helperLink points a web translator at the original article. The article
// link itself is left untouched.
func (e *Enricher) helperLink(link string) string {
	return fmt.Sprintf("%s?sl=auto&tl=%s&u=%s", e.helperURL, url.QueryEscape(e.targetLanguage), url.QueryEscape(link))
}
