package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/deusflow/newsdigest/internal/logger"
)

var restHarmCategories = []string{
	"HARM_CATEGORY_HARASSMENT",
	"HARM_CATEGORY_HATE_SPEECH",
	"HARM_CATEGORY_SEXUALLY_EXPLICIT",
	"HARM_CATEGORY_DANGEROUS_CONTENT",
}

// RESTBackend posts generateContent requests directly over HTTP.
type RESTBackend struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

var _ Backend = (*RESTBackend)(nil)

// NewRESTBackend uses baseURL for candidates that do not carry their own.
func NewRESTBackend(apiKey, baseURL string, timeout time.Duration) *RESTBackend {
	return &RESTBackend{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

type restPart struct {
	Text string `json:"text"`
}

type restContent struct {
	Parts []restPart `json:"parts"`
}

type restSafetySetting struct {
	Category  string `json:"category"`
	Threshold string `json:"threshold"`
}

type restGenerationConfig struct {
	MaxOutputTokens int32 `json:"maxOutputTokens,omitempty"`
}

type restRequest struct {
	Contents         []restContent         `json:"contents"`
	SafetySettings   []restSafetySetting   `json:"safetySettings,omitempty"`
	GenerationConfig *restGenerationConfig `json:"generationConfig,omitempty"`
}

type restResponse struct {
	Candidates []struct {
		Content struct {
			Parts []restPart `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

func (b *RESTBackend) endpoint(c Candidate) string {
	base := b.baseURL
	if c.BaseURL != "" {
		base = strings.TrimRight(c.BaseURL, "/")
	}
	return fmt.Sprintf("%s/models/%s:generateContent", base, url.PathEscape(c.Model))
}

func (b *RESTBackend) Generate(ctx context.Context, c Candidate, req Request) (string, error) {
	endpoint := b.endpoint(c)

	body := restRequest{
		Contents: []restContent{{Parts: []restPart{{Text: req.Prompt}}}},
	}
	for _, cat := range restHarmCategories {
		body.SafetySettings = append(body.SafetySettings, restSafetySetting{Category: cat, Threshold: "BLOCK_NONE"})
	}
	if req.MaxOutputTokens > 0 {
		body.GenerationConfig = &restGenerationConfig{MaxOutputTokens: req.MaxOutputTokens}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		endpoint+"?key="+url.QueryEscape(b.apiKey), bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("new request: %s", b.redact(err.Error()))
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := b.httpClient.Do(httpReq)
	if err != nil {
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return "", fmt.Errorf("POST %s: %s", endpoint, b.redact(err.Error()))
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			logger.Warn("failed to close response body", "error", closeErr)
		}
	}()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	var parsed restResponse
	decodeErr := json.Unmarshal(raw, &parsed)

	if resp.StatusCode != http.StatusOK {
		if decodeErr == nil && parsed.Error != nil {
			return "", fmt.Errorf("HTTP %d %s: %s", resp.StatusCode, parsed.Error.Status, b.redact(parsed.Error.Message))
		}
		return "", fmt.Errorf("HTTP %d: %s", resp.StatusCode, b.redact(snippet(raw)))
	}
	if decodeErr != nil {
		return "", fmt.Errorf("decode response: %w", decodeErr)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("API error %d %s: %s", parsed.Error.Code, parsed.Error.Status, b.redact(parsed.Error.Message))
	}
	if parsed.PromptFeedback != nil && parsed.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("prompt blocked: %s", parsed.PromptFeedback.BlockReason)
	}
	if len(parsed.Candidates) == 0 {
		return "", errors.New("no candidates in response")
	}

	var text strings.Builder
	for _, p := range parsed.Candidates[0].Content.Parts {
		text.WriteString(p.Text)
	}
	return text.String(), nil
}

func (b *RESTBackend) redact(s string) string {
	if b.apiKey == "" {
		return s
	}
	s = strings.ReplaceAll(s, url.QueryEscape(b.apiKey), "***")
	return strings.ReplaceAll(s, b.apiKey, "***")
}

func snippet(raw []byte) string {
	s := strings.TrimSpace(string(raw))
	if r := []rune(s); len(r) > 200 {
		return string(r[:200]) + "..."
	}
	return s
}
