// Package client is a Go client for the SAV API. A Session carries the
// bearer token; every call takes the session explicitly and sets the
// Authorization header on that request only.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// APIError is returned for any non-2xx response.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{BaseURL: strings.TrimRight(baseURL, "/"), HTTPClient: httpClient}
}

type loginResponse struct {
	Token  string `json:"token"`
	Expiry int64  `json:"expiry"`
	User   User   `json:"user"`
}

// Login exchanges credentials for a session.
func (c *Client) Login(ctx context.Context, email, password string) (*Session, error) {
	var resp loginResponse
	err := c.Do(ctx, nil, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return NewSession(resp.Token)
}

// Register creates a client account and returns its session.
func (c *Client) Register(ctx context.Context, email, username, password string) (*Session, error) {
	var resp loginResponse
	err := c.Do(ctx, nil, http.MethodPost, "/api/auth/register", map[string]string{
		"email":    email,
		"username": username,
		"password": password,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return NewSession(resp.Token)
}

// Refresh returns a new session for the same account.
func (c *Client) Refresh(ctx context.Context, s *Session) (*Session, error) {
	var resp loginResponse
	if err := c.Do(ctx, s, http.MethodPost, "/api/auth/refresh", nil, &resp); err != nil {
		return nil, err
	}
	return NewSession(resp.Token)
}

// Profile returns the account the session belongs to.
func (c *Client) Profile(ctx context.Context, s *Session) (*User, error) {
	var user User
	if err := c.Do(ctx, s, http.MethodGet, "/api/profile", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) ListClaims(ctx context.Context, s *Session) ([]Claim, error) {
	var claims []Claim
	if err := c.Do(ctx, s, http.MethodGet, "/api/reclamations", nil, &claims); err != nil {
		return nil, err
	}
	return claims, nil
}

func (c *Client) GetClaim(ctx context.Context, s *Session, id uint) (*Claim, error) {
	var claim Claim
	if err := c.Do(ctx, s, http.MethodGet, fmt.Sprintf("/api/reclamations/%d", id), nil, &claim); err != nil {
		return nil, err
	}
	return &claim, nil
}

func (c *Client) CreateClaim(ctx context.Context, s *Session, articleID uint, description string) (*Claim, error) {
	var claim Claim
	err := c.Do(ctx, s, http.MethodPost, "/api/reclamations", map[string]interface{}{
		"article_id":  articleID,
		"description": description,
	}, &claim)
	if err != nil {
		return nil, err
	}
	return &claim, nil
}

// InterventionRequest is the body of RecordIntervention.
type InterventionRequest struct {
	ReclamationID uint      `json:"reclamation_id"`
	TechnicienID  uint      `json:"technicien_id"`
	Description   string    `json:"description"`
	PerformedAt   time.Time `json:"performed_at,omitempty"`
	PieceIDs      []uint    `json:"piece_ids,omitempty"`
}

func (c *Client) RecordIntervention(ctx context.Context, s *Session, req InterventionRequest) (*Intervention, error) {
	var intervention Intervention
	if err := c.Do(ctx, s, http.MethodPost, "/api/interventions", req, &intervention); err != nil {
		return nil, err
	}
	return &intervention, nil
}

// Do sends one JSON request. A nil session sends no credentials; out may be
// nil when the body is not needed.
func (c *Client) Do(ctx context.Context, s *Session, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s != nil {
		req.Header.Set("Authorization", "Bearer "+s.Token())
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var errBody struct {
			Error string `json:"error"`
		}
		raw, _ := io.ReadAll(resp.Body)
		if json.Unmarshal(raw, &errBody) != nil || errBody.Error == "" {
			errBody.Error = strings.TrimSpace(string(raw))
		}
		return &APIError{StatusCode: resp.StatusCode, Message: errBody.Error}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
