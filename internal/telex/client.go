// Package telex is the HTTP client for the Telex chat platform.
package telex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"iris/internal/domain"
)

const defaultTimeout = 15 * time.Second

// Client implements domain.Messenger against the Telex REST API.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  *slog.Logger
}

type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	Logger  *slog.Logger
}

func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: cfg.Timeout},
		logger:  cfg.Logger,
	}
}

type dmPayload struct {
	Type        string `json:"type"`
	RecipientID string `json:"recipient_id"`
	Content     string `json:"content"`
}

// SendDirectMessage delivers a DM to a user. Failures wrap
// domain.ErrDeliveryFailed; the caller decides whether to log-and-drop.
func (c *Client) SendDirectMessage(ctx context.Context, recipientID, content string) error {
	c.logger.Info("sending DM", "recipient", recipientID, "content_len", len(content))
	payload := dmPayload{
		Type:        "direct_message",
		RecipientID: recipientID,
		Content:     content,
	}
	return c.post(ctx, c.baseURL+"/v1/messages", payload)
}

// PostChannelMessage posts into a channel.
func (c *Client) PostChannelMessage(ctx context.Context, channelID, content string) error {
	return c.post(ctx, c.baseURL+"/v1/channels/"+channelID+"/messages", map[string]string{"content": content})
}

func (c *Client) post(ctx context.Context, url string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrDeliveryFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%w: telex %d: %s", domain.ErrDeliveryFailed, resp.StatusCode, string(respBody))
	}
	return nil
}
