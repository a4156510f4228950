// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package llm calls a hosted prediction API (Replicate-style create-then-poll)
// with a primary model and a bounded-retry secondary fallback.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/justin55afdfdsf5ds45f4ds5f45ds4/SealForge/internal/httputil"
	"github.com/justin55afdfdsf5ds45f4ds5f45ds4/SealForge/pkg/types"
)

// replicateAPIBase is the prediction API root. Var for httptest substitution.
var replicateAPIBase = "https://api.replicate.com/v1/models"

// Client calls the prediction API. The zero HTTP client falls back to
// http.DefaultClient; all other fields come from LLMConfig.
type Client struct {
	APIBase  string
	Token    string
	HTTP     *http.Client
	Cfg      types.LLMConfig
	Progress io.Writer
}

// New builds a Client from config. Progress output goes to w.
func New(cfg types.LLMConfig, client *http.Client, w io.Writer) *Client {
	if w == nil {
		w = io.Discard
	}
	return &Client{APIBase: replicateAPIBase, Token: cfg.APIToken, HTTP: client, Cfg: cfg, Progress: w}
}

// prediction is the API's job record.
type prediction struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Output any    `json:"output"`
	Error  string `json:"error"`
	URLs   struct {
		Get string `json:"get"`
	} `json:"urls"`
}

// Complete runs one chat-style completion: the primary model first, then the
// secondary model with up to MaxRetries attempts where only rate-limit-class
// failures wait and retry; any other secondary failure is immediately final.
func (c *Client) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if c.Token == "" {
		return "", fmt.Errorf("no API token configured")
	}

	primaryInput := map[string]any{
		"prompt":        userPrompt,
		"system_prompt": systemPrompt,
		"max_tokens":    c.maxTokens(),
	}
	out, primaryErr := c.predict(ctx, c.Cfg.PrimaryModel, primaryInput)
	if primaryErr == nil {
		return out, nil
	}
	fmt.Fprintf(c.Progress, "warning: model %s failed: %v\n", c.Cfg.PrimaryModel, primaryErr)

	if c.Cfg.SecondaryModel == "" {
		return "", primaryErr
	}

	secondaryInput := map[string]any{
		"prompt":      systemPrompt + "\n\n" + userPrompt,
		"max_tokens":  c.maxTokens(),
		"temperature": 0.1,
		"top_p":       1,
	}

	retries := c.Cfg.MaxRetries
	if retries <= 0 {
		retries = 3
	}
	backoff := c.Cfg.RetryBackoff
	if backoff <= 0 {
		backoff = 12 * time.Second
	}

	var err error
	for attempt := 0; attempt < retries; attempt++ {
		if attempt > 0 {
			fmt.Fprintf(c.Progress, "rate limited, retry %d/%d after %v\n", attempt, retries-1, backoff)
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
		}
		out, err = c.predict(ctx, c.Cfg.SecondaryModel, secondaryInput)
		if err == nil {
			return out, nil
		}
		if !isRateLimit(err) {
			return "", err
		}
	}
	return "", fmt.Errorf("all model attempts failed: %w", err)
}

func (c *Client) maxTokens() int {
	if c.Cfg.MaxTokens > 0 {
		return c.Cfg.MaxTokens
	}
	return 4096
}

// predict creates a prediction for model and polls it to completion.
func (c *Client) predict(ctx context.Context, model string, input map[string]any) (string, error) {
	if model == "" {
		return "", fmt.Errorf("no model configured")
	}
	fmt.Fprintf(c.Progress, "calling model %s\n", model)

	body, err := json.Marshal(map[string]any{"input": input})
	if err != nil {
		return "", fmt.Errorf("marshaling prediction request: %w", err)
	}

	base := c.APIBase
	if base == "" {
		base = replicateAPIBase
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+"/"+model+"/predictions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.Token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := httputil.DoWithRetry(ctx, c.client(), req, 0)
	if err != nil {
		return "", fmt.Errorf("creating prediction: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("create prediction failed (%d): %s", resp.StatusCode, msg)
	}

	var p prediction
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return "", fmt.Errorf("decoding prediction: %w", err)
	}
	if p.URLs.Get == "" {
		return "", fmt.Errorf("prediction response has no poll URL")
	}

	return c.wait(ctx, p)
}

// wait polls the prediction until it succeeds, fails, or the overall wait
// ceiling elapses.
func (c *Client) wait(ctx context.Context, p prediction) (string, error) {
	interval := c.Cfg.PollInterval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	maxWait := c.Cfg.MaxWait
	if maxWait <= 0 {
		maxWait = 120 * time.Second
	}
	deadline := time.Now().Add(maxWait)

	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(interval):
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.URLs.Get, nil)
		if err != nil {
			return "", fmt.Errorf("creating poll request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+c.Token)

		resp, err := c.client().Do(req)
		if err != nil {
			return "", fmt.Errorf("polling prediction: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return "", fmt.Errorf("poll returned HTTP %d", resp.StatusCode)
		}

		var cur prediction
		err = json.NewDecoder(resp.Body).Decode(&cur)
		resp.Body.Close()
		if err != nil {
			return "", fmt.Errorf("decoding poll response: %w", err)
		}

		switch cur.Status {
		case "succeeded":
			return flattenOutput(cur.Output), nil
		case "failed":
			msg := cur.Error
			if msg == "" {
				msg = "unknown"
			}
			return "", fmt.Errorf("prediction failed: %s", msg)
		case "canceled":
			return "", fmt.Errorf("prediction was canceled")
		}
	}
	return "", fmt.Errorf("prediction timed out after %v", maxWait)
}

func (c *Client) client() *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return http.DefaultClient
}

// flattenOutput normalizes the model output, which varies by model between a
// string and an array of string chunks.
func flattenOutput(out any) string {
	switch v := out.(type) {
	case string:
		return v
	case []any:
		var b strings.Builder
		for _, part := range v {
			if s, ok := part.(string); ok {
				b.WriteString(s)
			}
		}
		return b.String()
	default:
		raw, _ := json.Marshal(v)
		return string(raw)
	}
}

// isRateLimit reports whether err looks like a rate-limit-class failure.
func isRateLimit(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "429") || strings.Contains(msg, "throttled")
}
