// Package strava provides a minimal client for the Strava v3 REST API.
package strava

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// RefreshError reports a non-200 answer from the token refresh endpoint. The
// HTTP status is carried through so callers can surface it unchanged.
type RefreshError struct {
	Status int
	Body   string
}

func (e *RefreshError) Error() string {
	return fmt.Sprintf("token refresh failed: status %d: %s", e.Status, e.Body)
}

// Client calls the Strava REST and OAuth endpoints.
type Client struct {
	baseURL      string
	tokenURL     string
	clientID     string
	clientSecret string
	httpClient   *http.Client
}

// ClientConfig carries the endpoints and OAuth application credentials.
type ClientConfig struct {
	BaseURL      string
	TokenURL     string
	ClientID     string
	ClientSecret string
	Timeout      time.Duration
}

// NewClient constructs a Client with sane defaults.
func NewClient(cfg ClientConfig) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:      cfg.BaseURL,
		tokenURL:     cfg.TokenURL,
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Activity fetches a single activity record.
func (c *Client) Activity(ctx context.Context, accessToken string, id int64) (*Activity, error) {
	var activity Activity
	if err := c.get(ctx, fmt.Sprintf("%s/activities/%d", c.baseURL, id), accessToken, &activity); err != nil {
		return nil, err
	}
	return &activity, nil
}

// Athlete fetches the profile of the athlete the token belongs to.
func (c *Client) Athlete(ctx context.Context, accessToken string) (*Athlete, error) {
	var athlete Athlete
	if err := c.get(ctx, fmt.Sprintf("%s/athlete", c.baseURL), accessToken, &athlete); err != nil {
		return nil, err
	}
	return &athlete, nil
}

func (c *Client) get(ctx context.Context, url, accessToken string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("strava api error: status %d: %s", resp.StatusCode, body)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

// Refresh exchanges a refresh token for a fresh access token triple. A non-200
// response becomes a *RefreshError rather than a generic failure.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*TokenGrant, error) {
	body, err := json.Marshal(map[string]string{
		"client_id":     c.clientID,
		"client_secret": c.clientSecret,
		"refresh_token": refreshToken,
		"grant_type":    "refresh_token",
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return nil, &RefreshError{Status: resp.StatusCode, Body: string(data)}
	}

	var grant TokenGrant
	if err := json.NewDecoder(resp.Body).Decode(&grant); err != nil {
		return nil, err
	}
	return &grant, nil
}
