package mapping

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

	"github.com/wayfinder-labs/service-wayfinding/internal/domain/navigation"
	"github.com/wayfinder-labs/service-wayfinding/internal/domain/venue"
)

// Error is a non-2xx answer from the mapping engine.
type Error struct {
	StatusCode int
	Body       string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("mapping: status %d: %s", e.StatusCode, e.Body)
}

// Config configures a Client.
type Config struct {
	BaseURL string
	Key     string
	Secret  string
	MapID   string
	Timeout time.Duration
}

// Client is the REST client for the venue mapping engine. It implements venue.Engine.
type Client struct {
	baseURL string
	key     string
	secret  string
	mapID   string
	http    *http.Client
}

// NewClient creates a Client. A zero timeout defaults to 10s.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		key:     cfg.Key,
		secret:  cfg.Secret,
		mapID:   cfg.MapID,
		http:    &http.Client{Timeout: timeout},
	}
}

// MapID returns the venue this client queries.
func (c *Client) MapID() string {
	return c.mapID
}

type locationDTO struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

type locationsResponse struct {
	Locations []locationDTO `json:"locations"`
}

// Entities lists spaces and points of interest. Other location types (doors, connections) are skipped.
func (c *Client) Entities(ctx context.Context) ([]venue.Entity, error) {
	var resp locationsResponse
	if _, err := c.do(ctx, http.MethodGet, c.venuePath("locations"), nil, &resp); err != nil {
		return nil, err
	}

	entities := make([]venue.Entity, 0, len(resp.Locations))
	for _, l := range resp.Locations {
		kind, ok := parseKind(l.Type)
		if !ok || l.Name == "" {
			continue
		}
		entities = append(entities, venue.Entity{ID: l.ID, Name: l.Name, Kind: kind})
	}
	return entities, nil
}

type directionsRequest struct {
	From       string `json:"from"`
	To         string `json:"to"`
	Accessible bool   `json:"accessible"`
}

type instructionDTO struct {
	Action struct {
		Type    string `json:"type"`
		Bearing string `json:"bearing,omitempty"`
	} `json:"action"`
	Distance float64 `json:"distance"`
}

type directionsResponse struct {
	Distance     float64          `json:"distance"`
	Instructions []instructionDTO `json:"instructions"`
}

// Directions requests a route. A 404 from the engine means no path exists and yields (nil, nil).
func (c *Client) Directions(ctx context.Context, from, to venue.Entity, opts venue.DirectionsOptions) (*venue.Directions, error) {
	var resp directionsResponse
	status, err := c.do(ctx, http.MethodPost, c.venuePath("directions"), directionsRequest{
		From:       from.ID,
		To:         to.ID,
		Accessible: opts.Accessible,
	}, &resp)
	if status == http.StatusNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	instructions := make([]navigation.RawInstruction, len(resp.Instructions))
	for i, in := range resp.Instructions {
		instructions[i] = navigation.RawInstruction{
			Action:   navigation.ParseActionType(in.Action.Type),
			Bearing:  navigation.ParseBearing(in.Action.Bearing),
			Distance: in.Distance,
		}
	}
	return &venue.Directions{Distance: resp.Distance, Instructions: instructions}, nil
}

func (c *Client) venuePath(resource string) string {
	return fmt.Sprintf("/venues/%s/%s", url.PathEscape(c.mapID), resource)
}

func (c *Client) do(ctx context.Context, method, path string, body, result any) (int, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Map-Key", c.key)
	req.Header.Set("X-Map-Secret", c.secret)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return resp.StatusCode, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, &Error{StatusCode: resp.StatusCode, Body: string(data)}
	}
	if err := json.Unmarshal(data, result); err != nil {
		return resp.StatusCode, fmt.Errorf("failed to decode response: %w", err)
	}
	return resp.StatusCode, nil
}

func parseKind(s string) (venue.Kind, bool) {
	switch strings.ToLower(s) {
	case "space":
		return venue.KindSpace, true
	case "poi", "point-of-interest", "pointofinterest":
		return venue.KindPOI, true
	default:
		return "", false
	}
}
