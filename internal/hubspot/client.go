// Package hubspot implements the HTTP client for the CRM v3 API surface the
// worker depends on: object search, association reads, object batch reads,
// and the OAuth refresh-token exchange.
package hubspot

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

	"github.com/johnwards/hubsync/internal/domain"
)

// Client is a session against one HubSpot portal. A new Client is created
// per account, so a refreshed access token never leaks across accounts.
type Client struct {
	baseURL      string
	clientID     string
	clientSecret string
	accessToken  string
	httpClient   *http.Client
}

// NewClient creates a Client for one account's access token. clientID and
// clientSecret are the OAuth app credentials used by RefreshToken.
func NewClient(baseURL, clientID, clientSecret, accessToken string) *Client {
	return &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		clientID:     clientID,
		clientSecret: clientSecret,
		accessToken:  accessToken,
		httpClient:   &http.Client{Timeout: 60 * time.Second},
	}
}

// SetAccessToken replaces the bearer token used on subsequent requests.
func (c *Client) SetAccessToken(token string) { c.accessToken = token }

// Search executes a CRM search for the given object type.
func (c *Client) Search(ctx context.Context, objectType string, req *domain.SearchRequest) (*domain.SearchResult, error) {
	var result domain.SearchResult
	path := fmt.Sprintf("/crm/v3/objects/%s/search", objectType)
	if err := c.postJSON(ctx, path, req, &result); err != nil {
		return nil, fmt.Errorf("search %s: %w", objectType, err)
	}
	return &result, nil
}

// BatchReadAssociations reads, in one call, every association from the given
// source ids to the target object type.
func (c *Client) BatchReadAssociations(ctx context.Context, fromType, toType string, ids []string) ([]domain.AssociationPair, error) {
	inputs := make([]domain.ObjectRef, len(ids))
	for i, id := range ids {
		inputs[i] = domain.ObjectRef{ID: id}
	}

	var result struct {
		Results []domain.AssociationPair `json:"results"`
	}
	path := fmt.Sprintf("/crm/v3/associations/%s/%s/batch/read",
		strings.ToUpper(fromType), strings.ToUpper(toType))
	body := map[string]any{"inputs": inputs}
	if err := c.postJSON(ctx, path, body, &result); err != nil {
		return nil, fmt.Errorf("batch read associations %s/%s: %w", fromType, toType, err)
	}
	return result.Results, nil
}

// ListAssociations returns all objects of toType associated with one object.
func (c *Client) ListAssociations(ctx context.Context, fromType, fromID, toType string) ([]domain.ObjectRef, error) {
	var result struct {
		Results []domain.ObjectRef `json:"results"`
	}
	path := fmt.Sprintf("/crm/v3/objects/%s/%s/associations/%s", fromType, fromID, toType)
	if err := c.getJSON(ctx, path, &result); err != nil {
		return nil, fmt.Errorf("list associations %s/%s: %w", fromType, fromID, err)
	}
	return result.Results, nil
}

// BatchReadObjects fetches full records for the given ids, limited to the
// requested properties.
func (c *Client) BatchReadObjects(ctx context.Context, objectType string, ids, properties []string) ([]*domain.Object, error) {
	inputs := make([]domain.ObjectRef, len(ids))
	for i, id := range ids {
		inputs[i] = domain.ObjectRef{ID: id}
	}

	var result struct {
		Results []*domain.Object `json:"results"`
	}
	path := fmt.Sprintf("/crm/v3/objects/%s/batch/read", objectType)
	body := map[string]any{"properties": properties, "inputs": inputs}
	if err := c.postJSON(ctx, path, body, &result); err != nil {
		return nil, fmt.Errorf("batch read %s: %w", objectType, err)
	}
	return result.Results, nil
}

// RefreshToken exchanges the account's refresh token for a new access token.
// The caller is responsible for storing the grant and calling SetAccessToken.
func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (*domain.TokenGrant, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("client_id", c.clientID)
	form.Set("client_secret", c.clientSecret)
	form.Set("refresh_token", refreshToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/oauth/v1/token", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("refresh token: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, readAPIError(resp)
	}

	var grant domain.TokenGrant
	if err := json.NewDecoder(resp.Body).Decode(&grant); err != nil {
		return nil, fmt.Errorf("decode token response: %w", err)
	}
	return &grant, nil
}

func (c *Client) postJSON(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return readAPIError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func readAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err == nil {
		_ = json.Unmarshal(body, apiErr)
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}
