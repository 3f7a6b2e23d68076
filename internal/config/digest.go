package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	TransportSDK  = "sdk"
	TransportREST = "rest"
)

// Digest is the static shape of one report: which regions, which categories,
// and which summarization candidates to try.
//
//	regions:
//	  - name: 日本
//	    icon: 🇯🇵
//	    language: {code: ja, hl: ja, gl: JP, ceid: "JP:ja"}
//	    translate: true
//	    categories:
//	      - {name: 財經, icon: 💰, query: 経済}
type Digest struct {
	Regions           []RegionSpec `yaml:"regions"`
	Candidates        []Candidate  `yaml:"candidates"`
	MaxItemsPerRegion int          `yaml:"max_items_per_region"`
	ItemsPerCategory  int          `yaml:"items_per_category"`
	PromptTemplate    string       `yaml:"prompt_template"`
	TargetLanguage    string       `yaml:"target_language"`
}

type RegionSpec struct {
	Name     string   `yaml:"name"`
	Icon     string   `yaml:"icon"`
	Language Language `yaml:"language"`
	// Translate and HelperLink are mutually exclusive enrichment modes.
	Translate  bool           `yaml:"translate"`
	HelperLink bool           `yaml:"helper_link"`
	FeedURL    string         `yaml:"feed_url"`
	Categories []CategorySpec `yaml:"categories"`
}

// Language carries the source language code plus Google News locale params.
type Language struct {
	Code string `yaml:"code"`
	HL   string `yaml:"hl"`
	GL   string `yaml:"gl"`
	CEID string `yaml:"ceid"`
}

// CategorySpec selects a feed by keyword search (Query) or topic id (Topic).
type CategorySpec struct {
	Name  string `yaml:"name"`
	Icon  string `yaml:"icon"`
	Query string `yaml:"query"`
	Topic string `yaml:"topic"`
}

// Candidate is one (transport, endpoint, model) the summarizer may try.
type Candidate struct {
	Label     string `yaml:"label"`
	Transport string `yaml:"transport"`
	BaseURL   string `yaml:"base_url"`
	Model     string `yaml:"model"`
}

// LoadDigest reads the YAML digest file. A missing file yields the built-in digest.
func LoadDigest(path string) (Digest, error) {
	d := DefaultDigest()
	if path == "" {
		return d, nil
	}

	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return d, nil
	}
	if err != nil {
		return Digest{}, fmt.Errorf("read digest config %s: %w", path, err)
	}

	var fileCfg Digest
	if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
		return Digest{}, fmt.Errorf("parse digest config %s: %w", path, err)
	}
	return mergeDigest(d, fileCfg), nil
}

func mergeDigest(base, override Digest) Digest {
	if len(override.Regions) > 0 {
		base.Regions = override.Regions
	}
	// An explicit empty list is honoured: summaries then degrade unconditionally.
	if override.Candidates != nil {
		base.Candidates = override.Candidates
	}
	if override.MaxItemsPerRegion > 0 {
		base.MaxItemsPerRegion = override.MaxItemsPerRegion
	}
	if override.ItemsPerCategory > 0 {
		base.ItemsPerCategory = override.ItemsPerCategory
	}
	if override.PromptTemplate != "" {
		base.PromptTemplate = override.PromptTemplate
	}
	if override.TargetLanguage != "" {
		base.TargetLanguage = override.TargetLanguage
	}
	return base
}

func (d Digest) Validate() error {
	if len(d.Regions) == 0 {
		return fmt.Errorf("digest config has no regions")
	}
	if d.MaxItemsPerRegion <= 0 || d.ItemsPerCategory <= 0 {
		return fmt.Errorf("item limits must be positive (max_items_per_region=%d, items_per_category=%d)",
			d.MaxItemsPerRegion, d.ItemsPerCategory)
	}
	for i, r := range d.Regions {
		if r.Name == "" {
			return fmt.Errorf("region #%d has no name", i+1)
		}
		if r.Translate && r.HelperLink {
			return fmt.Errorf("region %s: translate and helper_link cannot both be enabled", r.Name)
		}
		for _, c := range r.Categories {
			if c.Query == "" && c.Topic == "" {
				return fmt.Errorf("region %s: category %q needs a query or a topic", r.Name, c.Name)
			}
		}
	}
	return nil
}

// DefaultDigest mirrors the original four-region morning report.
func DefaultDigest() Digest {
	return Digest{
		Regions: []RegionSpec{
			{
				Name:     "台灣",
				Icon:     "📍",
				Language: Language{Code: "zh-TW", HL: "zh-TW", GL: "TW", CEID: "TW:zh-Hant"},
			},
			{
				Name:     "中國大陸",
				Icon:     "📍",
				Language: Language{Code: "zh-CN", HL: "zh-CN", GL: "CN", CEID: "CN:zh-Hans"},
			},
			{
				Name:     "美國 (國際)",
				Icon:     "📍",
				Language: Language{Code: "zh-TW", HL: "zh-TW", GL: "US", CEID: "TW:zh-Hant"},
			},
			{
				Name:      "日本",
				Icon:      "📍",
				Language:  Language{Code: "ja", HL: "ja", GL: "JP", CEID: "JP:ja"},
				Translate: true,
			},
		},
		Candidates: []Candidate{
			{Label: "SDK gemini-1.5-flash", Transport: TransportSDK, Model: "gemini-1.5-flash"},
			{Label: "REST v1beta gemini-1.5-flash", Transport: TransportREST, Model: "gemini-1.5-flash"},
			{Label: "REST v1beta gemini-1.5-flash-latest", Transport: TransportREST, Model: "gemini-1.5-flash-latest"},
			{Label: "REST v1 gemini-1.5-flash", Transport: TransportREST, BaseURL: "https://generativelanguage.googleapis.com/v1", Model: "gemini-1.5-flash"},
			{Label: "REST v1beta gemini-pro", Transport: TransportREST, Model: "gemini-pro"},
		},
		MaxItemsPerRegion: 6,
		ItemsPerCategory:  3,
	}
}
