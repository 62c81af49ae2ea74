package simulate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const callerHeader = "X-Caller-Address"

// Client talks to the league HTTP API.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client with the given request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

type gameRequest struct {
	HomeCompetitor string `json:"home_competitor"`
	AwayCompetitor string `json:"away_competitor"`
	StartTime      int64  `json:"start_time"`
	HomeScore      int    `json:"home_score,omitempty"`
	AwayScore      int    `json:"away_score,omitempty"`
	IsFinalized    bool   `json:"is_finalized,omitempty"`
}

type idResponse struct {
	ID uint64 `json:"id"`
}

// Health checks GET /healthz.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/healthz", "", nil, http.StatusOK, nil)
}

// Stats returns GET /stats.
func (c *Client) Stats(ctx context.Context) (map[string]any, error) {
	var out map[string]any
	err := c.do(ctx, http.MethodGet, "/stats", "", nil, http.StatusOK, &out)
	return out, err
}

// CreateCompetition creates a competition owned by caller.
func (c *Client) CreateCompetition(ctx context.Context, caller, name string) (uint64, error) {
	var out idResponse
	err := c.do(ctx, http.MethodPost, "/competitions", caller, map[string]string{"name": name}, http.StatusCreated, &out)
	return out.ID, err
}

// AddGame schedules a game.
func (c *Client) AddGame(ctx context.Context, caller string, cid uint64, home, away string, start time.Time) (uint64, error) {
	var out idResponse
	body := gameRequest{HomeCompetitor: home, AwayCompetitor: away, StartTime: start.UnixMilli()}
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("/competitions/%d/games", cid), caller, body, http.StatusCreated, &out)
	return out.ID, err
}

// FinalizeGame records a final result.
func (c *Client) FinalizeGame(ctx context.Context, caller string, cid uint64, g Fixture) error {
	body := gameRequest{
		HomeCompetitor: g.Home,
		AwayCompetitor: g.Away,
		StartTime:      g.Start.UnixMilli(),
		HomeScore:      g.HomeScore,
		AwayScore:      g.AwayScore,
		IsFinalized:    true,
	}
	return c.do(ctx, http.MethodPut, fmt.Sprintf("/competitions/%d/games/%d", cid, g.ID), caller, body, http.StatusOK, nil)
}

// DeleteGame deletes a game.
func (c *Client) DeleteGame(ctx context.Context, caller string, cid, gid uint64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/competitions/%d/games/%d", cid, gid), caller, nil, http.StatusNoContent, nil)
}

// Predict submits caller's forecast for a game.
func (c *Client) Predict(ctx context.Context, caller string, cid, gid uint64, home, away int) error {
	body := map[string]int{"home_score": home, "away_score": away}
	return c.do(ctx, http.MethodPut, fmt.Sprintf("/competitions/%d/games/%d/prediction", cid, gid), caller, body, http.StatusOK, nil)
}

// Points fetches the standings of a competition.
func (c *Client) Points(ctx context.Context, cid uint64) ([]Standing, error) {
	var out []Standing
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/competitions/%d/points", cid), "", nil, http.StatusOK, &out)
	return out, err
}

func (c *Client) do(ctx context.Context, method, path, caller string, body any, want int, out any) error {
	var r io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		r = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if caller != "" {
		req.Header.Set(callerHeader, caller)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != want {
		return fmt.Errorf("%w: %s %s returned %d: %s", ErrUnexpectedStatus, method, path, resp.StatusCode, bytes.TrimSpace(data))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode %s %s: %w", method, path, err)
	}
	return nil
}
