package dialogue

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Error is a non-2xx answer from the dialogue runtime.
type Error struct {
	StatusCode int
	Body       string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("dialogue: status %d: %s", e.StatusCode, e.Body)
}

// Config configures a Client.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	// Variables are sent as state.variables on every interaction.
	Variables map[string]any
}

// Client talks to the dialogue runtime's interact endpoint.
type Client struct {
	baseURL   string
	apiKey    string
	variables map[string]any
	http      *http.Client
}

// NewClient creates a Client. A zero timeout defaults to 10s.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	vars := cfg.Variables
	if vars == nil {
		vars = map[string]any{}
	}
	return &Client{
		baseURL:   cfg.BaseURL,
		apiKey:    cfg.APIKey,
		variables: vars,
		http:      &http.Client{Timeout: timeout},
	}
}

type action struct {
	Type    string `json:"type"`
	Payload string `json:"payload,omitempty"`
}

type interactConfig struct {
	TTS          bool     `json:"tts"`
	StripSSML    bool     `json:"stripSSML"`
	StopAll      bool     `json:"stopAll"`
	ExcludeTypes []string `json:"excludeTypes"`
}

type interactState struct {
	Variables map[string]any `json:"variables"`
}

type interactRequest struct {
	Action action         `json:"action"`
	Config interactConfig `json:"config"`
	State  interactState  `json:"state"`
}

// Launch starts a conversation for userID and returns the greeting replies.
func (c *Client) Launch(ctx context.Context, userID string) (Replies, error) {
	return c.interact(ctx, userID, action{Type: "launch"})
}

// SendText forwards a user utterance. The runtime records any resolved destination as a side effect.
func (c *Client) SendText(ctx context.Context, userID, text string) (Replies, error) {
	return c.interact(ctx, userID, action{Type: "text", Payload: text})
}

func (c *Client) interact(ctx context.Context, userID string, a action) (Replies, error) {
	body, err := json.Marshal(interactRequest{
		Action: a,
		Config: interactConfig{
			TTS:          false,
			StripSSML:    true,
			StopAll:      true,
			ExcludeTypes: []string{"block", "debug", "flow"},
		},
		State: interactState{Variables: c.variables},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal interact request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/state/user/%s/interact?logs=off", c.baseURL, url.PathEscape(userID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &Error{StatusCode: resp.StatusCode, Body: string(data)}
	}

	var replies Replies
	if err := json.Unmarshal(data, &replies); err != nil {
		return nil, fmt.Errorf("failed to decode replies: %w", err)
	}
	return replies, nil
}
