// Package smoke checks a running vectorizer over HTTP against its public
// contract. It is used by the image test stage.
package smoke

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"text-vectorizer/internal/retry"
)

// DefaultTexts are always submitted to /vectors.
var DefaultTexts = []string{"", "Test text"}

// Checker runs contract checks against one service instance.
type Checker struct {
	baseURL string
	client  *http.Client
	log     *slog.Logger
}

// New creates a Checker for the service at baseURL. A nil client uses a
// client with a 30s timeout.
func New(baseURL string, client *http.Client, log *slog.Logger) *Checker {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Checker{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		log:     log,
	}
}

// WaitReady polls the readiness probe until it answers 204 or timeout elapses.
// Connection errors are expected while the service starts and are retried.
func (c *Checker) WaitReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	err := retry.Until(ctx, 250*time.Millisecond, time.Second, func(ctx context.Context) error {
		resp, err := c.do(ctx, http.MethodGet, "/.well-known/ready", nil)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusNoContent {
			return fmt.Errorf("readiness returned %d", resp.StatusCode)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("service hasn't started in %s: %w", timeout, err)
	}
	c.log.Info("service is ready", "url", c.baseURL)
	return nil
}

// CheckMeta verifies that /meta answers 200 with a non-empty object.
func (c *Checker) CheckMeta(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodGet, "/meta", nil)
	if err != nil {
		return fmt.Errorf("meta: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("meta: expected status 200, got %d", resp.StatusCode)
	}
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("meta: response is not a JSON object: %w", err)
	}
	if len(body) == 0 {
		return errors.New("meta: empty response")
	}
	return nil
}

// CheckVectors submits text and verifies the echoed text and vector size.
func (c *Checker) CheckVectors(ctx context.Context, text string) error {
	payload, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return err
	}
	resp, err := c.do(ctx, http.MethodPost, "/vectors", payload)
	if err != nil {
		return fmt.Errorf("vectors %q: %w", text, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("vectors %q: expected status 200, got %d: %s", text, resp.StatusCode, body)
	}

	var body struct {
		Text   *string   `json:"text"`
		Vector []float64 `json:"vector"`
		Dim    *int      `json:"dim"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("vectors %q: response is not a JSON object: %w", text, err)
	}
	switch {
	case body.Text == nil || body.Dim == nil || body.Vector == nil:
		return fmt.Errorf("vectors %q: response must contain text, vector and dim", text)
	case *body.Text != text:
		return fmt.Errorf("vectors %q: text echoed as %q", text, *body.Text)
	case len(body.Vector) == 0:
		return fmt.Errorf("vectors %q: empty vector", text)
	case len(body.Vector) != *body.Dim:
		return fmt.Errorf("vectors %q: vector has %d entries, dim is %d", text, len(body.Vector), *body.Dim)
	}
	return nil
}

// Run executes every check and reports all failures.
func (c *Checker) Run(ctx context.Context, texts []string) error {
	var errs []error
	if err := c.CheckMeta(ctx); err != nil {
		errs = append(errs, err)
	}
	for _, text := range texts {
		if err := c.CheckVectors(ctx, text); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) == 0 {
		c.log.Info("smoke checks passed", "texts", len(texts))
	}
	return errors.Join(errs...)
}

func (c *Checker) do(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.client.Do(req)
}
