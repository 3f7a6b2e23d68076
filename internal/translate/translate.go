package translate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/deusflow/newsdigest/internal/cache"
	"github.com/deusflow/newsdigest/internal/logger"
)

// ErrNoTranslation is returned when every backend failed or returned nothing.
var ErrNoTranslation = errors.New("no translation available")

// Translator turns text from one language code into another.
type Translator interface {
	Translate(ctx context.Context, text, from, to string) (string, error)
}

// Options configures Service. Only GoogleURL is required.
type Options struct {
	GoogleURL     string
	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string
	Timeout       time.Duration
	Memo          *cache.Cache
}

// Service tries the free Google endpoint first, then OpenAI when a key is set.
type Service struct {
	googleURL   string
	httpClient  *http.Client
	openai      *openai.Client
	openaiModel string
	timeout     time.Duration
	memo        *cache.Cache
}

var _ Translator = (*Service)(nil)

func NewService(opts Options) *Service {
	s := &Service{
		googleURL:   opts.GoogleURL,
		httpClient:  &http.Client{Timeout: opts.Timeout},
		openaiModel: opts.OpenAIModel,
		timeout:     opts.Timeout,
		memo:        opts.Memo,
	}
	if s.openaiModel == "" {
		s.openaiModel = openai.GPT4oMini
	}
	if opts.OpenAIAPIKey != "" {
		oc := openai.DefaultConfig(opts.OpenAIAPIKey)
		if opts.OpenAIBaseURL != "" {
			oc.BaseURL = opts.OpenAIBaseURL
		}
		s.openai = openai.NewClientWithConfig(oc)
	}
	return s
}

// Translate returns the translated text or an error; it never returns an
// empty string together with a nil error for non-empty input.
func (s *Service) Translate(ctx context.Context, text, from, to string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", nil
	}
	if from != "" && strings.EqualFold(from, to) {
		return text, nil
	}

	key := cache.Key(from, to, text)
	if s.memo != nil {
		if v, ok := s.memo.Get(key); ok {
			return v, nil
		}
	}

	result, gErr := s.translateWithGoogle(ctx, text, from, to)
	if gErr == nil && result != "" {
		s.remember(key, result)
		return result, nil
	}
	logger.Debug("google translate failed", "from", from, "to", to, "error", gErr)

	if s.openai != nil {
		result, oErr := s.translateWithOpenAI(ctx, text, from, to)
		if oErr == nil && result != "" {
			s.remember(key, result)
			return result, nil
		}
		logger.Debug("openai translate failed", "from", from, "to", to, "error", oErr)
		return "", fmt.Errorf("%w: google: %v; openai: %v", ErrNoTranslation, gErr, oErr)
	}

	return "", fmt.Errorf("%w: google: %v", ErrNoTranslation, gErr)
}

func (s *Service) remember(key, value string) {
	if s.memo != nil {
		s.memo.Set(key, value)
	}
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout > 0 {
		return context.WithTimeout(ctx, s.timeout)
	}
	return context.WithCancel(ctx)
}

// translateWithGoogle uses the public translate_a/single endpoint (client=gtx).
func (s *Service) translateWithGoogle(ctx context.Context, text, from, to string) (string, error) {
	if from == "" {
		from = "auto"
	}
	params := url.Values{}
	params.Set("client", "gtx")
	params.Set("sl", from)
	params.Set("tl", to)
	params.Set("dt", "t")
	params.Set("q", text)

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.googleURL+"?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("http request: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			logger.Warn("failed to close response body", "error", closeErr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("google translate returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	translation, err := parseGoogleTranslateResponse(body)
	if err != nil {
		return "", fmt.Errorf("parse response: %w", err)
	}
	return strings.TrimSpace(translation), nil
}

// parseGoogleTranslateResponse reads [[["translated","source",...],...],...].
func parseGoogleTranslateResponse(body []byte) (string, error) {
	var response []interface{}
	if err := json.Unmarshal(body, &response); err != nil {
		return "", err
	}
	if len(response) == 0 {
		return "", errors.New("empty response")
	}

	translations, ok := response[0].([]interface{})
	if !ok {
		return "", errors.New("unexpected response format")
	}

	var result strings.Builder
	for _, translation := range translations {
		if parts, ok := translation.([]interface{}); ok && len(parts) > 0 {
			if translated, ok := parts[0].(string); ok {
				result.WriteString(translated)
			}
		}
	}
	return result.String(), nil
}

func (s *Service) translateWithOpenAI(ctx context.Context, text, from, to string) (string, error) {
	prompt := fmt.Sprintf(`Translate the following news headline from %s to %s.
Keep names of people, companies and places accurate.
Reply with the translation only, without quotes or comments.

%s`, languageName(from), languageName(to), text)

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	resp, err := s.openai.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.openaiModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens: 200,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no choices in response")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

var languageNames = map[string]string{
	"zh-TW": "Traditional Chinese",
	"zh-CN": "Simplified Chinese",
	"ja":    "Japanese",
	"ko":    "Korean",
	"en":    "English",
	"de":    "German",
	"fr":    "French",
}

func languageName(code string) string {
	if name, ok := languageNames[code]; ok {
		return name
	}
	if code == "" || code == "auto" {
		return "the source language"
	}
	return code
}
