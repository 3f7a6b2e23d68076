package metrics

import (
	"sync"
	"time"
)

// Run collects counters for a single pipeline run.
type Run struct {
	mu sync.RWMutex

	// Counters
	FeedsFetched       int64
	FeedsFailed        int64
	ItemsCollected     int64
	TranslationsOK     int64
	TranslationsFailed int64
	CandidatesTried    int64

	// Outcome
	SummaryModel   string
	SummaryOutcome string
	Delivered      bool
	LastError      string

	StartedAt time.Time
	Duration  time.Duration
}

func NewRun() *Run {
	return &Run{StartedAt: time.Now()}
}

func (m *Run) RecordFeed(items int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		m.FeedsFailed++
		return
	}
	m.FeedsFetched++
	m.ItemsCollected += int64(items)
}

func (m *Run) RecordTranslation(ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ok {
		m.TranslationsOK++
	} else {
		m.TranslationsFailed++
	}
}

func (m *Run) IncrementCandidatesTried() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CandidatesTried++
}

func (m *Run) SetSummary(outcome, model string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SummaryOutcome = outcome
	m.SummaryModel = model
}

func (m *Run) SetDelivered(ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Delivered = ok
}

func (m *Run) SetError(err string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastError = err
}

// Finish freezes the run duration.
func (m *Run) Finish() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Duration = time.Since(m.StartedAt)
}

// Snapshot returns the counters as slog-friendly key/value pairs.
func (m *Run) Snapshot() []any {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return []any{
		"feeds_fetched", m.FeedsFetched,
		"feeds_failed", m.FeedsFailed,
		"items_collected", m.ItemsCollected,
		"translations_ok", m.TranslationsOK,
		"translations_failed", m.TranslationsFailed,
		"candidates_tried", m.CandidatesTried,
		"summary_outcome", m.SummaryOutcome,
		"summary_model", m.SummaryModel,
		"delivered", m.Delivered,
		"last_error", m.LastError,
		"duration_ms", m.Duration.Milliseconds(),
	}
}
