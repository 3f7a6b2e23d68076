package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/deusflow/newsdigest/internal/logger"
)

var sdkHarmCategories = []genai.HarmCategory{
	genai.HarmCategoryHarassment,
	genai.HarmCategoryHateSpeech,
	genai.HarmCategorySexuallyExplicit,
	genai.HarmCategoryDangerousContent,
}

// SDKBackend calls Gemini through the official Go client. Clients are created
// lazily, one per endpoint, and reused for the rest of the run.
type SDKBackend struct {
	apiKey  string
	clients map[string]*genai.Client
}

var _ Backend = (*SDKBackend)(nil)

func NewSDKBackend(apiKey string) *SDKBackend {
	return &SDKBackend{apiKey: apiKey, clients: make(map[string]*genai.Client)}
}

func (b *SDKBackend) client(ctx context.Context, endpoint string) (*genai.Client, error) {
	if c, ok := b.clients[endpoint]; ok {
		return c, nil
	}
	opts := []option.ClientOption{option.WithAPIKey(b.apiKey)}
	if endpoint != "" {
		opts = append(opts, option.WithEndpoint(endpoint))
	}
	c, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	b.clients[endpoint] = c
	return c, nil
}

func (b *SDKBackend) Generate(ctx context.Context, c Candidate, req Request) (string, error) {
	client, err := b.client(ctx, c.BaseURL)
	if err != nil {
		return "", err
	}

	model := client.GenerativeModel(c.Model)
	if req.MaxOutputTokens > 0 {
		model.SetMaxOutputTokens(req.MaxOutputTokens)
	}
	model.SafetySettings = make([]*genai.SafetySetting, 0, len(sdkHarmCategories))
	for _, cat := range sdkHarmCategories {
		model.SafetySettings = append(model.SafetySettings, &genai.SafetySetting{
			Category:  cat,
			Threshold: genai.HarmBlockNone,
		})
	}

	resp, err := model.GenerateContent(ctx, genai.Text(req.Prompt))
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return "", errors.New("no candidates in response")
	}

	content := resp.Candidates[0].Content
	if content == nil {
		return "", nil
	}
	var text strings.Builder
	for _, part := range content.Parts {
		if t, ok := part.(genai.Text); ok {
			text.WriteString(string(t))
		}
	}
	return text.String(), nil
}

// Close releases every client opened during the run.
func (b *SDKBackend) Close() {
	for endpoint, c := range b.clients {
		if err := c.Close(); err != nil {
			logger.Warn("failed to close Gemini client", "endpoint", endpoint, "error", err)
		}
	}
	b.clients = make(map[string]*genai.Client)
}
