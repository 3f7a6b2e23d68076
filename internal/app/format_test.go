package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/deusflow/newsdigest/internal/config"
	"github.com/deusflow/newsdigest/internal/gemini"
)

func TestFormatter_Titles(t *testing.T) {
	f := NewFormatter(4, 6, time.UTC, nil)
	assert.Equal(t, "☀️ 今日4地時事精選 (共 24 則)", f.Title(false))
	assert.Equal(t, "🤖 今日4地新聞 AI 摘要", f.Title(true))

	f = NewFormatter(2, 3, time.UTC, nil)
	assert.Equal(t, "☀️ 今日2地時事精選 (共 6 則)", f.Title(false))
}

func TestFormatter_Format(t *testing.T) {
	taipei := time.FixedZone("CST", 8*60*60)
	now := func() time.Time { return time.Date(2024, 12, 31, 23, 30, 0, 0, time.UTC) }
	f := NewFormatter(4, 6, taipei, now)

	r := f.Format("### 📍 台灣 重要時事\n1. 新聞\n   [閱讀全文](https://example.com/1)\n\n", false)

	want := "📅 2025-01-01 今日4地重要新聞彙整 (07:30)\n\n" +
		"### 📍 台灣 重要時事\n1. 新聞\n   [閱讀全文](https://example.com/1)\n\n" +
		"---\n" + closingNotice
	assert.Equal(t, want, r.Body)
	assert.Equal(t, "☀️ 今日4地時事精選 (共 24 則)", r.Title)
}

func TestFormatter_EmptyContentStillWellFormed(t *testing.T) {
	f := NewFormatter(1, 6, time.UTC, func() time.Time { return time.Date(2024, 1, 2, 3, 4, 0, 0, time.UTC) })
	r := f.Format("", true)
	assert.Equal(t, "📅 2024-01-02 今日1地重要新聞彙整 (03:04)\n\n---\n"+closingNotice, r.Body)
	assert.Equal(t, "🤖 今日1地新聞 AI 摘要", r.Title)
}

func TestToCandidates_KeepsOrderAndTransport(t *testing.T) {
	got := toCandidates([]config.Candidate{
		{Label: "sdk", Transport: config.TransportSDK, Model: "m1"},
		{Label: "v1", Transport: config.TransportREST, BaseURL: "https://x.test/v1", Model: "m2"},
	})

	assert.Equal(t, []gemini.Candidate{
		{Label: "sdk", Transport: gemini.TransportSDK, Model: "m1"},
		{Label: "v1", Transport: gemini.TransportREST, BaseURL: "https://x.test/v1", Model: "m2"},
	}, got)
}
