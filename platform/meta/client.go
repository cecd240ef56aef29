// Package meta implements the page-feed and business-account adapters on
// top of the Facebook Graph API, plus the OAuth exchange that stores page
// credentials.
package meta

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultBaseURL = "https://graph.facebook.com/v19.0"

// GraphError is an error object returned by the Graph API.
type GraphError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    int    `json:"code"`
}

func (e *GraphError) Error() string {
	return fmt.Sprintf("graph api: %s (type %s, code %d)", e.Message, e.Type, e.Code)
}

// Page is a manageable page returned by the accounts enumeration.
type Page struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	AccessToken string `json:"access_token"`
}

// Client is a minimal Graph API client.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

type ClientOption func(*Client)

// WithBaseURL overrides the API base URL. Used in tests.
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		c.baseURL = u
	}
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(h *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = h
	}
}

func NewClient(opts ...ClientOption) *Client {
	ans := Client{
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}

	for _, opt := range opts {
		opt(&ans)
	}

	return &ans
}

// ListManagedPages enumerates the pages the user token can manage.
func (c *Client) ListManagedPages(ctx context.Context, userToken string) ([]Page, error) {
	params := url.Values{}
	params.Set("access_token", userToken)

	var out struct {
		Data []Page `json:"data"`
	}

	if err := c.get(ctx, "/me/accounts", params, &out); err != nil {
		return nil, fmt.Errorf("failed to list managed pages: %w", err)
	}

	return out.Data, nil
}

// InstagramBusinessAccount resolves the business account linked to a page.
// A page without a linked account yields an empty id and no error.
func (c *Client) InstagramBusinessAccount(ctx context.Context, pageID, pageToken string) (string, error) {
	params := url.Values{}
	params.Set("fields", "instagram_business_account")
	params.Set("access_token", pageToken)

	var out struct {
		InstagramBusinessAccount *struct {
			ID string `json:"id"`
		} `json:"instagram_business_account"`
	}

	if err := c.get(ctx, "/"+pageID, params, &out); err != nil {
		return "", fmt.Errorf("failed to resolve business account for page %s: %w", pageID, err)
	}

	if out.InstagramBusinessAccount == nil {
		return "", nil
	}

	return out.InstagramBusinessAccount.ID, nil
}

// PublishPagePost posts text to a page feed and returns the platform post id.
func (c *Client) PublishPagePost(ctx context.Context, pageID, pageToken, message string) (string, error) {
	params := url.Values{}
	params.Set("message", message)
	params.Set("access_token", pageToken)

	var out struct {
		ID string `json:"id"`
	}

	if err := c.post(ctx, "/"+pageID+"/feed", params, &out); err != nil {
		return "", fmt.Errorf("failed to publish page post: %w", err)
	}

	return out.ID, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), http.NoBody)
	if err != nil {
		return err
	}

	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, path string, params url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(params.Encode()))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}

	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var wrapper struct {
			Error *GraphError `json:"error"`
		}

		if err := json.Unmarshal(body, &wrapper); err == nil && wrapper.Error != nil {
			return wrapper.Error
		}

		return fmt.Errorf("graph api request failed with status %d: %s", resp.StatusCode, string(body))
	}

	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}

	return nil
}
