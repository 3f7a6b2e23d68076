package serverchan

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

	"github.com/deusflow/newsdigest/internal/logger"
)

var (
	// ErrEmptyMessage is returned without any network I/O.
	ErrEmptyMessage = errors.New("refusing to send empty title or body")
	// ErrRejected means the endpoint answered with a non-200 status.
	ErrRejected = errors.New("push endpoint rejected the message")
)

// Outcome describes a single delivery attempt.
type Outcome struct {
	Delivered  bool
	StatusCode int
	Err        error
}

// Client posts reports to a ServerChan-style "<base>/<key>.send" endpoint.
type Client struct {
	baseURL    string
	key        string
	httpClient *http.Client
}

func NewClient(baseURL, key string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		key:        key,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type sendResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Send makes exactly one attempt. A 200 response counts as delivered.
func (c *Client) Send(ctx context.Context, title, body string) Outcome {
	if strings.TrimSpace(title) == "" || strings.TrimSpace(body) == "" {
		return Outcome{Err: ErrEmptyMessage}
	}
	if c.key == "" {
		return Outcome{Err: errors.New("push key is empty")}
	}

	form := url.Values{}
	form.Set("title", title)
	form.Set("desp", body)

	endpoint := fmt.Sprintf("%s/%s.send", c.baseURL, url.PathEscape(c.key))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return Outcome{Err: fmt.Errorf("new request: %s", c.redact(err.Error()))}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return Outcome{Err: fmt.Errorf("do request: %s", c.redact(err.Error()))}
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			logger.Warn("failed to close response body", "error", closeErr)
		}
	}()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		logger.Debug("failed to read push response body", "error", err)
	}
	if resp.StatusCode != http.StatusOK {
		return Outcome{
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("%w: status %d", ErrRejected, resp.StatusCode),
		}
	}

	var parsed sendResponse
	if err := json.Unmarshal(raw, &parsed); err == nil && parsed.Code != 0 {
		logger.Warn("push endpoint reported a non-zero code", "code", parsed.Code, "message", parsed.Message)
	}
	return Outcome{Delivered: true, StatusCode: resp.StatusCode}
}

func (c *Client) redact(s string) string {
	if c.key == "" {
		return s
	}
	return strings.ReplaceAll(s, c.key, "***")
}
