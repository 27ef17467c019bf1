package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"
)

// Client generates answers through an OpenAI-compatible chat completions
// endpoint. Generation parameters are injected, not hard-coded: the defaults
// favor deterministic, on-topic continuations.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	temp       float64
	maxTokens  int
	seed       *int
	client     *http.Client
	maxRetries int
}

// Config configures the chat completions client.
type Config struct {
	BaseURL       string
	APIKeyEnv     string
	Model         string
	Temperature   float64
	MaxTokens     int
	Deterministic bool
	Timeout       time.Duration
}

func NewClient(cfg Config) (*Client, error) {
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("missing API key in env %s", cfg.APIKeyEnv)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 200
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	c := &Client{
		baseURL:    cfg.BaseURL,
		apiKey:     key,
		model:      cfg.Model,
		temp:       cfg.Temperature,
		maxTokens:  cfg.MaxTokens,
		client:     &http.Client{Timeout: timeout},
		maxRetries: 3,
	}
	if cfg.Deterministic {
		c.temp = 0
		seed := 0
		c.seed = &seed
	}
	return c, nil
}

func (c *Client) Name() string { return "openai" }

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type request struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Seed        *int      `json:"seed,omitempty"`
}

type response struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Generate sends the prompt as a single user message and returns the model's
// continuation. Transient failures are retried with exponential backoff.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(request{
		Model:       c.model,
		Messages:    []message{{Role: "user", Content: prompt}},
		Temperature: c.temp,
		MaxTokens:   c.maxTokens,
		Seed:        c.seed,
	})
	if err != nil {
		return "", fmt.Errorf("marshal completion request: %w", err)
	}
	url := c.baseURL + "/chat/completions"

	for attempt := 0; ; attempt++ {
		text, retryable, err := c.once(ctx, url, body)
		if err == nil {
			return text, nil
		}
		if retryable && attempt < c.maxRetries {
			if werr := sleep(ctx, retryDelay(attempt)); werr != nil {
				return "", werr
			}
			continue
		}
		return "", err
	}
}

func (c *Client) once(ctx context.Context, url string, body []byte) (string, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", false, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", true, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return "", true, fmt.Errorf("completion request failed: %s", resp.Status)
	}
	if resp.StatusCode != http.StatusOK {
		return "", false, fmt.Errorf("completion request failed: %s", resp.Status)
	}
	var out response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", true, fmt.Errorf("decode completion response: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", false, errors.New("no completion returned")
	}
	return strings.TrimSpace(out.Choices[0].Message.Content), false, nil
}

func retryDelay(attempt int) time.Duration {
	base := 200 * time.Millisecond
	d := base << attempt
	if d > 5*time.Second {
		d = 5 * time.Second
	}
	return d
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
