package summarize

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"iris/internal/domain"
)

const defaultHTTPTimeout = 30 * time.Second

// OpenAI is the model-backed summarization strategy. It sends a single-shot
// prompt to an OpenAI-compatible chat-completions API and interprets the
// response as a TaskSummary.
type OpenAI struct {
	apiKey    string
	apiBase   string
	model     string
	maxTokens int
	client    *http.Client
	logger    *slog.Logger
}

type OpenAIConfig struct {
	APIKey    string
	APIBase   string
	Model     string
	MaxTokens int
	Timeout   time.Duration
	Logger    *slog.Logger
}

func NewOpenAI(cfg OpenAIConfig) *OpenAI {
	if cfg.APIBase == "" {
		cfg.APIBase = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 400
	}
	return &OpenAI{
		apiKey:    cfg.APIKey,
		apiBase:   cfg.APIBase,
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		client:    sharedHTTPClient(cfg.Timeout),
		logger:    cfg.Logger,
	}
}

func (o *OpenAI) Name() string { return "openai" }

// Configured reports whether the strategy has an API key and can be tried.
func (o *OpenAI) Configured() bool { return o.apiKey != "" }

type oaiRequest struct {
	Model       string       `json:"model"`
	Messages    []oaiMessage `json:"messages"`
	MaxTokens   int          `json:"max_tokens,omitempty"`
	Temperature *float64     `json:"temperature,omitempty"`
}

type oaiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type oaiResponse struct {
	Choices []oaiChoice `json:"choices"`
}

type oaiChoice struct {
	Message      oaiMessage `json:"message"`
	FinishReason string     `json:"finish_reason"`
}

// Summarize performs one bounded, zero-temperature completion call.
// A malformed response never surfaces as an error: interpretation falls back
// to a deterministic best-effort summary of the original content.
func (o *OpenAI) Summarize(ctx context.Context, title, content string) (*domain.TaskSummary, error) {
	if o.apiKey == "" {
		return nil, fmt.Errorf("%w: no API key configured", domain.ErrSummarizerUnavailable)
	}

	prompt := fmt.Sprintf(
		"You are Iris, an assistant that summarizes tasks posted in a team channel.\n"+
			"Return a JSON object with fields: title, deliverables (list), deadline (string or null), plain_summary (short text).\n\n"+
			"Task title: %s\n\nTask content: %s\n\nProduce only JSON.",
		title, content,
	)

	// Deterministic generation: explicit zero temperature, bounded output.
	temperature := 0.0
	body := oaiRequest{
		Model:       o.model,
		Messages:    []oaiMessage{{Role: "user", Content: prompt}},
		MaxTokens:   o.maxTokens,
		Temperature: &temperature,
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", o.apiBase+"/chat/completions", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSummarizerUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: openai %d: %s", domain.ErrSummarizerUnavailable, resp.StatusCode, string(respBody))
	}

	var oaiResp oaiResponse
	if err := json.NewDecoder(resp.Body).Decode(&oaiResp); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if len(oaiResp.Choices) == 0 {
		return nil, fmt.Errorf("%w: empty choices", domain.ErrSummarizerUnavailable)
	}

	summary := ParseModelOutput(oaiResp.Choices[0].Message.Content, title, content)
	return summary, nil
}

// sharedHTTPClient returns an HTTP client with connection pooling and an
// overall request timeout.
func sharedHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	transport := &http.Transport{
		MaxIdleConns:        20,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: timeout,
		ExpectContinueTimeout: 1 * time.Second,
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}
