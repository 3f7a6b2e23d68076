package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/deusflow/newsdigest/internal/logger"
	"github.com/deusflow/newsdigest/internal/metrics"
)

var (
	// ErrExhausted means every candidate failed its probe or its generation.
	ErrExhausted = errors.New("all summarization candidates failed")
	// ErrNoCandidates means summarization was requested with an empty chain.
	ErrNoCandidates = errors.New("no summarization candidates configured")
	// ErrEmptyCorpus means there was nothing to summarize.
	ErrEmptyCorpus = errors.New("empty corpus")
)

type Outcome int

const (
	Success Outcome = iota
	Degraded
)

func (o Outcome) String() string {
	if o == Success {
		return "success"
	}
	return "degraded"
}

type Stage string

const (
	StageProbe    Stage = "probe"
	StageGenerate Stage = "generate"
)

// Diagnostic records why one candidate was abandoned.
type Diagnostic struct {
	Candidate string
	Stage     Stage
	Detail    string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s [%s]: %s", d.Candidate, d.Stage, d.Detail)
}

// Result is either Success (Text from Candidate) or Degraded (Reason, with
// FallbackText holding the diagnostics followed by the raw corpus).
type Result struct {
	Outcome      Outcome
	Text         string
	Candidate    string
	Reason       error
	Diagnostics  []Diagnostic
	FallbackText string
}

// Body is the text that should be delivered for this result.
func (r Result) Body() string {
	if r.Outcome == Success {
		return r.Text
	}
	return r.FallbackText
}

type Options struct {
	Backends map[string]Backend
	// PromptTemplate is a text/template using .Corpus, .Language and .Date.
	PromptTemplate string
	Language       string
	// Timeout bounds each probe and each generation call.
	Timeout     time.Duration
	ProbeTokens int32
	Now         func() time.Time
	Stats       *metrics.Run
}

// Summarizer walks the candidate chain in priority order: probe, then
// generate, and moves to the next candidate on any failure.
type Summarizer struct {
	backends    map[string]Backend
	prompt      *template.Template
	language    string
	timeout     time.Duration
	probeTokens int32
	now         func() time.Time
	stats       *metrics.Run
}

func New(opts Options) (*Summarizer, error) {
	tmpl, err := parsePrompt(opts.PromptTemplate)
	if err != nil {
		return nil, err
	}
	s := &Summarizer{
		backends:    opts.Backends,
		prompt:      tmpl,
		language:    opts.Language,
		timeout:     opts.Timeout,
		probeTokens: opts.ProbeTokens,
		now:         opts.Now,
		stats:       opts.Stats,
	}
	if s.language == "" {
		s.language = "繁體中文"
	}
	if s.probeTokens <= 0 {
		s.probeTokens = 8
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s, nil
}

func (s *Summarizer) Summarize(ctx context.Context, corpus string, candidates []Candidate) Result {
	if strings.TrimSpace(corpus) == "" {
		return degrade(ErrEmptyCorpus, nil, corpus)
	}
	if len(candidates) == 0 {
		logger.Warn("summarization enabled but no candidates configured")
		return degrade(ErrNoCandidates, nil, corpus)
	}

	prompt, err := renderPrompt(s.prompt, promptData{
		Corpus:   corpus,
		Language: s.language,
		Date:     s.now().Format("2006-01-02"),
	})
	if err != nil {
		return degrade(err, nil, corpus)
	}

	var diags []Diagnostic
	for i, c := range candidates {
		label := c.label()
		if s.stats != nil {
			s.stats.IncrementCandidatesTried()
		}

		backend, ok := s.backends[c.Transport]
		if !ok {
			diags = append(diags, Diagnostic{Candidate: label, Stage: StageProbe, Detail: fmt.Sprintf("unknown transport %q", c.Transport)})
			continue
		}

		logger.Info("probing summarization candidate", "candidate", label, "position", i+1, "of", len(candidates))
		if _, err := s.call(ctx, backend, c, Request{Prompt: probePrompt, MaxOutputTokens: s.probeTokens}); err != nil {
			logger.Warn("candidate probe failed", "candidate", label, "error", err)
			diags = append(diags, Diagnostic{Candidate: label, Stage: StageProbe, Detail: err.Error()})
			continue
		}

		text, err := s.call(ctx, backend, c, Request{Prompt: prompt})
		if err == nil && strings.TrimSpace(text) == "" {
			err = errors.New("empty response")
		}
		if err != nil {
			logger.Warn("candidate generation failed", "candidate", label, "error", err)
			diags = append(diags, Diagnostic{Candidate: label, Stage: StageGenerate, Detail: err.Error()})
			continue
		}

		logger.Info("summary generated", "candidate", label, "chars", len([]rune(text)))
		return Result{Outcome: Success, Text: text, Candidate: label, Diagnostics: diags}
	}

	return degrade(ErrExhausted, diags, corpus)
}

func (s *Summarizer) call(ctx context.Context, b Backend, c Candidate, req Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	return b.Generate(ctx, c, req)
}

func degrade(reason error, diags []Diagnostic, corpus string) Result {
	var b strings.Builder
	b.WriteString("⚠️ AI 摘要暫時無法使用（")
	b.WriteString(reason.Error())
	b.WriteString("），以下為原始新聞。\n")
	if len(diags) > 0 {
		b.WriteString("🔧 診斷紀錄：\n")
		for _, d := range diags {
			b.WriteString("- ")
			b.WriteString(d.String())
			b.WriteString("\n")
		}
	}
	b.WriteString("\n")
	b.WriteString(corpus)

	return Result{
		Outcome:      Degraded,
		Reason:       reason,
		Diagnostics:  diags,
		FallbackText: b.String(),
	}
}
