package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"SCKEY", "GEMINI_API_KEY", "OPENAI_API_KEY", "SUMMARIZE", "DEBUG",
		"PUSH_BASE_URL", "GEMINI_BASE_URL", "FEED_BASE_URL", "TRANSLATE_API_URL",
		"TARGET_LANGUAGE", "REQUEST_TIMEOUT_SECONDS", "REPORT_TIMEZONE", "LOG_FILE",
	} {
		t.Setenv(k, "")
	}
	t.Setenv("DIGEST_CONFIG", filepath.Join(t.TempDir(), "absent.yaml"))
}

func TestLoad_MissingPushKey(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.ErrorIs(t, err, ErrMissingCredential)
	assert.Contains(t, err.Error(), "SCKEY")
	assert.NotNil(t, cfg)
}

func TestLoad_GeminiKeyOnlyRequiredWhenSummarizing(t *testing.T) {
	clearEnv(t)
	t.Setenv("SCKEY", "push-key")

	_, err := Load()
	require.NoError(t, err)

	t.Setenv("SUMMARIZE", "true")
	_, err = Load()
	require.ErrorIs(t, err, ErrMissingCredential)
	assert.Contains(t, err.Error(), "GEMINI_API_KEY")

	t.Setenv("GEMINI_API_KEY", "gemini-key")
	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.Summarize)
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("SCKEY", "push-key")
	t.Setenv("PUSH_BASE_URL", "http://push.local")
	t.Setenv("FEED_BASE_URL", "http://feeds.local/rss")
	t.Setenv("REQUEST_TIMEOUT_SECONDS", "7")
	t.Setenv("TARGET_LANGUAGE", "en")
	t.Setenv("DEBUG", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "http://push.local", cfg.PushBaseURL)
	assert.Equal(t, "http://feeds.local/rss", cfg.FeedBaseURL)
	assert.Equal(t, 7*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "en", cfg.TargetLanguage)
	assert.True(t, cfg.Debug)
	assert.Len(t, cfg.Digest.Regions, 4, "built-in digest expected when file is absent")
}

func TestLoadDigest_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "digest.yaml")
	raw := `
max_items_per_region: 4
items_per_category: 2
regions:
  - name: Korea
    icon: "🇰🇷"
    language: {code: ko, hl: ko, gl: KR, ceid: "KR:ko"}
    helper_link: true
    categories:
      - {name: Tech, icon: "💻", query: "AI chips"}
candidates: []
`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))

	d, err := LoadDigest(path)
	require.NoError(t, err)
	require.Len(t, d.Regions, 1)
	assert.Equal(t, "Korea", d.Regions[0].Name)
	assert.True(t, d.Regions[0].HelperLink)
	assert.Equal(t, "AI chips", d.Regions[0].Categories[0].Query)
	assert.Equal(t, 4, d.MaxItemsPerRegion)
	assert.Equal(t, 2, d.ItemsPerCategory)
	assert.NotNil(t, d.Candidates)
	assert.Empty(t, d.Candidates, "explicit empty candidate list must be kept")
	require.NoError(t, d.Validate())
}

func TestLoadDigest_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "digest.yaml")
	require.NoError(t, os.WriteFile(path, []byte("regions: [unclosed"), 0o644))

	_, err := LoadDigest(path)
	require.Error(t, err)
}

func TestDigestValidate(t *testing.T) {
	d := DefaultDigest()
	require.NoError(t, d.Validate())

	both := DefaultDigest()
	both.Regions[0].Translate = true
	both.Regions[0].HelperLink = true
	assert.ErrorContains(t, both.Validate(), "cannot both be enabled")

	empty := DefaultDigest()
	empty.Regions = nil
	assert.Error(t, empty.Validate())

	noSelector := DefaultDigest()
	noSelector.Regions[0].Categories = []CategorySpec{{Name: "x"}}
	assert.ErrorContains(t, noSelector.Validate(), "query or a topic")
}

func TestLocationFallback(t *testing.T) {
	cfg := &Config{Timezone: "Not/AZone"}
	_, offset := time.Date(2024, 1, 1, 0, 0, 0, 0, cfg.Location()).Zone()
	assert.Equal(t, 8*60*60, offset)
}
