package gemini

import (
	"context"

	"github.com/deusflow/newsdigest/internal/config"
)

const (
	TransportSDK  = config.TransportSDK
	TransportREST = config.TransportREST
)

// Candidate is one (transport, endpoint, model) pair, tried in list order.
type Candidate struct {
	Label     string
	Transport string
	// BaseURL overrides the backend's default endpoint, e.g. ".../v1".
	BaseURL string
	Model   string
}

func (c Candidate) label() string {
	if c.Label != "" {
		return c.Label
	}
	return c.Transport + " " + c.Model
}

// Request is a single generation call.
type Request struct {
	Prompt          string
	MaxOutputTokens int32
}

// Backend performs generation calls for one transport. An empty text with a
// nil error is a valid answer; the summarizer decides whether it is enough.
type Backend interface {
	Generate(ctx context.Context, c Candidate, req Request) (string, error)
}
