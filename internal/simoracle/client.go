package simoracle

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

const defaultHTTPTimeout = 10 * time.Second

// ErrUnavailable reports that the oracle cannot serve a comparison, either
// because it was never configured or because an earlier call failed.
var ErrUnavailable = errors.New("similarity oracle unavailable")

// State describes the oracle lifecycle.
type State int

const (
	// StateUnconfigured means no endpoint was configured; the oracle is a
	// permanent no-op.
	StateUnconfigured State = iota
	// StateUninitialized means the oracle is configured but has not yet
	// served a successful call.
	StateUninitialized
	// StateReady means at least one call succeeded.
	StateReady
	// StateFailed means a call failed; the oracle stays down for the rest
	// of the run.
	StateFailed
)

// String returns the lowercase state name for log output.
func (s State) String() string {
	switch s {
	case StateUnconfigured:
		return "unconfigured"
	case StateUninitialized:
		return "uninitialized"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Oracle scores how likely two free-text titles refer to the same content.
type Oracle interface {
	// State reports the current lifecycle state.
	State() State
	// Similarity returns a score in [0,1]. Any error means the oracle is
	// unavailable for this comparison and the caller must fall back.
	Similarity(ctx context.Context, a, b string) (float64, error)
}

// Config captures the runtime settings for the oracle endpoint.
type Config struct {
	Enabled        bool
	BaseURL        string
	APIKey         string
	TimeoutSeconds int
}

// Client talks to an HTTP similarity-scoring endpoint.
type Client struct {
	cfg        Config
	httpClient *http.Client

	mu    sync.Mutex
	state State
}

var _ Oracle = (*Client)(nil)

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// New constructs an oracle client. A disabled config or empty base URL
// yields a client permanently in StateUnconfigured.
func New(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg: Config{
			Enabled:        cfg.Enabled,
			BaseURL:        strings.TrimSpace(cfg.BaseURL),
			APIKey:         strings.TrimSpace(cfg.APIKey),
			TimeoutSeconds: cfg.TimeoutSeconds,
		},
		httpClient: &http.Client{Timeout: timeout},
		state:      StateUninitialized,
	}
	if !client.cfg.Enabled || client.cfg.BaseURL == "" {
		client.state = StateUnconfigured
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// State reports the current lifecycle state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Available reports whether the oracle may be called.
func Available(o Oracle) bool {
	if o == nil {
		return false
	}
	switch o.State() {
	case StateUninitialized, StateReady:
		return true
	default:
		return false
	}
}

type similarityRequest struct {
	TextA string `json:"text_a"`
	TextB string `json:"text_b"`
}

type similarityResponse struct {
	Similarity float64 `json:"similarity"`
}

// Similarity scores the two titles via the configured endpoint. The first
// failure moves the client to StateFailed and subsequent calls short-
// circuit with ErrUnavailable.
func (c *Client) Similarity(ctx context.Context, a, b string) (float64, error) {
	c.mu.Lock()
	if c.state == StateUnconfigured || c.state == StateFailed {
		c.mu.Unlock()
		return 0, ErrUnavailable
	}
	c.mu.Unlock()

	score, err := c.score(ctx, a, b)
	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.state = StateFailed
		return 0, err
	}
	c.state = StateReady
	return score, nil
}

func (c *Client) score(ctx context.Context, a, b string) (float64, error) {
	payload, err := json.Marshal(similarityRequest{TextA: a, TextB: b})
	if err != nil {
		return 0, fmt.Errorf("marshal similarity request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL, bytes.NewReader(payload))
	if err != nil {
		return 0, fmt.Errorf("build similarity request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("similarity request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return 0, fmt.Errorf("similarity request: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed similarityResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return 0, fmt.Errorf("decode similarity response: %w", err)
	}
	if parsed.Similarity < 0 || parsed.Similarity > 1 {
		return 0, fmt.Errorf("similarity response out of range: %v", parsed.Similarity)
	}
	return parsed.Similarity, nil
}
