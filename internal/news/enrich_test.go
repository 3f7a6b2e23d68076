package news

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deusflow/newsdigest/internal/cache"
	"github.com/deusflow/newsdigest/internal/config"
	"github.com/deusflow/newsdigest/internal/metrics"
	"github.com/deusflow/newsdigest/internal/rss"
	"github.com/deusflow/newsdigest/internal/translate"
)

type mapTranslator map[string]string

func (m mapTranslator) Translate(_ context.Context, text, _, _ string) (string, error) {
	return m[text], nil
}

var jaRegion = config.RegionSpec{Name: "日本", Language: config.Language{Code: "ja"}}

func TestEnrich_PassThrough(t *testing.T) {
	e := NewEnricher(EnricherOptions{Translator: mapTranslator{"台風": "颱風"}})
	item := rss.NewsItem{Title: "台風", Link: "https://example.com/a"}

	got := e.Enrich(context.Background(), item, jaRegion)
	assert.Equal(t, Enrichment{Title: "台風"}, got)
}

func TestEnrich_TranslateSuccess(t *testing.T) {
	stats := metrics.NewRun()
	e := NewEnricher(EnricherOptions{Translator: mapTranslator{"台風": "颱風"}, Stats: stats})
	region := jaRegion
	region.Translate = true

	got := e.Enrich(context.Background(), rss.NewsItem{Title: "台風", Link: "https://example.com/a"}, region)
	assert.Equal(t, "颱風", got.Title)
	assert.True(t, got.Translated)
	assert.NoError(t, got.Err)
	assert.Equal(t, int64(1), stats.TranslationsOK)
}

func TestEnrich_EmptyTranslationKeepsTitle(t *testing.T) {
	stats := metrics.NewRun()
	e := NewEnricher(EnricherOptions{Translator: mapTranslator{}, Stats: stats})
	region := jaRegion
	region.Translate = true

	got := e.Enrich(context.Background(), rss.NewsItem{Title: "地震速報", Link: "https://example.com/b"}, region)
	assert.Equal(t, "地震速報", got.Title)
	assert.False(t, got.Translated)
	assert.ErrorIs(t, got.Err, ErrEnrichment)
	assert.Equal(t, int64(1), stats.TranslationsFailed)
}

func TestEnrich_NoTranslatorConfigured(t *testing.T) {
	e := NewEnricher(EnricherOptions{})
	region := jaRegion
	region.Translate = true

	got := e.Enrich(context.Background(), rss.NewsItem{Title: "円安", Link: "https://example.com/c"}, region)
	assert.Equal(t, "円安", got.Title)
	assert.ErrorIs(t, got.Err, ErrEnrichment)
}

func TestEnrich_HelperLink(t *testing.T) {
	e := NewEnricher(EnricherOptions{HelperURL: "https://translate.example.com/translate", TargetLanguage: "zh-TW"})
	region := config.RegionSpec{Name: "韓國", Language: config.Language{Code: "ko"}, HelperLink: true}
	link := "https://news.example.kr/article?id=1&lang=ko"

	got := e.Enrich(context.Background(), rss.NewsItem{Title: "뉴스", Link: link}, region)
	assert.Equal(t, "뉴스", got.Title)

	u, err := url.Parse(got.HelperLink)
	require.NoError(t, err)
	assert.Equal(t, "translate.example.com", u.Host)
	assert.Equal(t, "auto", u.Query().Get("sl"))
	assert.Equal(t, "zh-TW", u.Query().Get("tl"))
	assert.Equal(t, link, u.Query().Get("u"))
}

func TestEnrich_HelperLinkRenderedAfterOriginalLink(t *testing.T) {
	f := &stubFetcher{items: map[string][]rss.NewsItem{
		"https://feeds.test/kr": {{Title: "뉴스", Link: "https://news.example.kr/1"}},
	}}
	a := NewAggregator(AggregatorOptions{
		Fetcher:  f,
		Enricher: NewEnricher(EnricherOptions{HelperURL: "https://tr.test/translate"}),
	})
	region := config.RegionSpec{Name: "韓國", Icon: "🇰🇷", HelperLink: true, FeedURL: "https://feeds.test/kr"}

	text := a.Aggregate(context.Background(), []config.RegionSpec{region}).String()
	assert.Contains(t, text, "1. 뉴스\n   [閱讀全文](https://news.example.kr/1)\n   [翻譯](https://tr.test/translate?sl=auto&tl=zh-TW&u=https%3A%2F%2Fnews.example.kr%2F1)\n")
}

func TestEnrich_WithTranslateService(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		assert.Equal(t, "ja", r.URL.Query().Get("sl"))
		_, _ = w.Write([]byte(`[[["日圓走弱","円安が進む",null,null,10]],null,"ja"]`))
	}))
	defer srv.Close()

	svc := translate.NewService(translate.Options{GoogleURL: srv.URL, Timeout: time.Second, Memo: cache.New(time.Hour)})
	e := NewEnricher(EnricherOptions{Translator: svc})
	region := jaRegion
	region.Translate = true

	for i := 0; i < 2; i++ {
		got := e.Enrich(context.Background(), rss.NewsItem{Title: "円安が進む", Link: "https://example.com/y"}, region)
		assert.Equal(t, "日圓走弱", got.Title)
	}
	assert.Equal(t, 1, hits)
}
