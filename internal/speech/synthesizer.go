package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Audio is playable synthesized speech.
type Audio struct {
	ContentType string
	Data        []byte
}

// Synthesizer turns assistant text into speech.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) (*Audio, error)
}

// Error is a non-2xx answer from the speech API.
type Error struct {
	StatusCode int
	Body       string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("speech: status %d: %s", e.StatusCode, e.Body)
}

// VoiceSettings tune the synthesized voice.
type VoiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

// TTSConfig configures a TTSClient.
type TTSConfig struct {
	BaseURL  string
	APIKey   string
	VoiceID  string
	Settings VoiceSettings
	Timeout  time.Duration
}

// TTSClient calls a text-to-speech HTTP API.
type TTSClient struct {
	baseURL  string
	apiKey   string
	voiceID  string
	settings VoiceSettings
	http     *http.Client
}

// NewTTSClient creates a TTSClient. A zero timeout defaults to 10s.
func NewTTSClient(cfg TTSConfig) *TTSClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &TTSClient{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:   cfg.APIKey,
		voiceID:  cfg.VoiceID,
		settings: cfg.Settings,
		http:     &http.Client{Timeout: timeout},
	}
}

type ttsRequest struct {
	Text          string        `json:"text"`
	VoiceSettings VoiceSettings `json:"voice_settings"`
}

// Synthesize returns the audio for text.
func (c *TTSClient) Synthesize(ctx context.Context, text string) (*Audio, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("speech: empty text")
	}

	body, err := json.Marshal(ttsRequest{Text: text, VoiceSettings: c.settings})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal tts request: %w", err)
	}

	endpoint := c.baseURL + "/v1/text-to-speech/" + url.PathEscape(c.voiceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")
	req.Header.Set("xi-api-key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read audio: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &Error{StatusCode: resp.StatusCode, Body: string(data)}
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "audio/mpeg"
	}
	return &Audio{ContentType: contentType, Data: data}, nil
}
