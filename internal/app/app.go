package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/deusflow/newsdigest/internal/cache"
	"github.com/deusflow/newsdigest/internal/config"
	"github.com/deusflow/newsdigest/internal/gemini"
	"github.com/deusflow/newsdigest/internal/logger"
	"github.com/deusflow/newsdigest/internal/metrics"
	"github.com/deusflow/newsdigest/internal/news"
	"github.com/deusflow/newsdigest/internal/rss"
	"github.com/deusflow/newsdigest/internal/serverchan"
	"github.com/deusflow/newsdigest/internal/translate"
)

// ErrDeliveryFailed is returned when the report could not be pushed.
var ErrDeliveryFailed = errors.New("report delivery failed")

type Summarizer interface {
	Summarize(ctx context.Context, corpus string, candidates []gemini.Candidate) gemini.Result
}

type Notifier interface {
	Send(ctx context.Context, title, body string) serverchan.Outcome
}

// Pipeline runs aggregate, optional summary, format and deliver, in that order.
type Pipeline struct {
	regions    []config.RegionSpec
	aggregator *news.Aggregator
	// summarizer is nil when summarization is off.
	summarizer Summarizer
	candidates []gemini.Candidate
	formatter  *Formatter
	notifier   Notifier
	timeout    time.Duration
	stats      *metrics.Run
}

// Run validates cfg, wires the production collaborators and executes one
// pipeline run. A configuration error returns before any network I/O.
func Run(ctx context.Context, cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	stats := metrics.NewRun()
	memo := cache.New(time.Hour)
	translator := translate.NewService(translate.Options{
		GoogleURL:    cfg.TranslateURL,
		OpenAIAPIKey: cfg.OpenAIAPIKey,
		Timeout:      cfg.RequestTimeout,
		Memo:         memo,
	})

	var summarizer Summarizer
	if cfg.Summarize {
		sdk := gemini.NewSDKBackend(cfg.GeminiAPIKey)
		defer sdk.Close()

		s, err := gemini.New(gemini.Options{
			Backends: map[string]gemini.Backend{
				gemini.TransportSDK:  sdk,
				gemini.TransportREST: gemini.NewRESTBackend(cfg.GeminiAPIKey, cfg.GeminiBaseURL, cfg.RequestTimeout),
			},
			PromptTemplate: cfg.Digest.PromptTemplate,
			Timeout:        cfg.RequestTimeout,
			Stats:          stats,
		})
		if err != nil {
			return fmt.Errorf("failed to create summarizer: %w", err)
		}
		summarizer = s
	}

	p := NewPipeline(cfg, PipelineDeps{
		Fetcher:    rss.NewFeedFetcher(cfg.RequestTimeout),
		Translator: translator,
		Summarizer: summarizer,
		Notifier:   serverchan.NewClient(cfg.PushBaseURL, cfg.PushKey, cfg.RequestTimeout),
		Stats:      stats,
	})
	err := p.Run(ctx)
	logger.Debug("translation memo", "hits", memo.Hits())
	return err
}

// PipelineDeps are the collaborators a Pipeline talks to.
type PipelineDeps struct {
	Fetcher    rss.Fetcher
	Translator translate.Translator
	Summarizer Summarizer
	Notifier   Notifier
	Now        func() time.Time
	Stats      *metrics.Run
}

func NewPipeline(cfg *config.Config, deps PipelineDeps) *Pipeline {
	stats := deps.Stats
	if stats == nil {
		stats = metrics.NewRun()
	}
	d := cfg.Digest

	enricher := news.NewEnricher(news.EnricherOptions{
		Translator:     deps.Translator,
		HelperURL:      cfg.HelperURL,
		TargetLanguage: cfg.TargetLanguage,
		Stats:          stats,
	})

	p := &Pipeline{
		regions: d.Regions,
		aggregator: news.NewAggregator(news.AggregatorOptions{
			Fetcher:           deps.Fetcher,
			Enricher:          enricher,
			FeedBaseURL:       cfg.FeedBaseURL,
			MaxItemsPerRegion: d.MaxItemsPerRegion,
			ItemsPerCategory:  d.ItemsPerCategory,
			Stats:             stats,
		}),
		formatter: NewFormatter(len(d.Regions), d.MaxItemsPerRegion, cfg.Location(), deps.Now),
		notifier:  deps.Notifier,
		timeout:   cfg.RequestTimeout,
		stats:     stats,
	}
	if cfg.Summarize {
		p.summarizer = deps.Summarizer
		p.candidates = toCandidates(d.Candidates)
	}
	return p
}

func (p *Pipeline) Run(ctx context.Context) error {
	defer func() {
		p.stats.Finish()
		logger.Info("run finished", p.stats.Snapshot()...)
	}()

	corpus := p.aggregator.Aggregate(ctx, p.regions)
	content := corpus.String()

	summarized := p.summarizer != nil
	if summarized {
		res := p.summarizer.Summarize(ctx, content, p.candidates)
		p.stats.SetSummary(res.Outcome.String(), res.Candidate)
		if res.Outcome == gemini.Degraded {
			logger.Warn("summary degraded, sending raw corpus", "reason", res.Reason, "diagnostics", len(res.Diagnostics))
		}
		content = res.Body()
	}

	report := p.formatter.Format(content, summarized)
	logger.Info("report formatted", "title", report.Title, "chars", len([]rune(report.Body)))

	sendCtx := ctx
	if p.timeout > 0 {
		var cancel context.CancelFunc
		sendCtx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	out := p.notifier.Send(sendCtx, report.Title, report.Body)
	p.stats.SetDelivered(out.Delivered)
	if !out.Delivered {
		p.stats.SetError(fmt.Sprint(out.Err))
		logger.Error("delivery failed", "status", out.StatusCode, "error", out.Err)
		return fmt.Errorf("%w: %v", ErrDeliveryFailed, out.Err)
	}

	logger.Info("report delivered", "status", out.StatusCode)
	return nil
}

func toCandidates(in []config.Candidate) []gemini.Candidate {
	out := make([]gemini.Candidate, 0, len(in))
	for _, c := range in {
		out = append(out, gemini.Candidate{
			Label:     c.Label,
			Transport: c.Transport,
			BaseURL:   c.BaseURL,
			Model:     c.Model,
		})
	}
	return out
}
