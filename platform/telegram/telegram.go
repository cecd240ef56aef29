// Package telegram implements the channel-bot adapter on top of the
// Telegram Bot API.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gosom/social-publisher/models"
	"github.com/gosom/social-publisher/platform"
)

const defaultBaseURL = "https://api.telegram.org"

// APIError is a non-2xx answer from the Bot API, e.g. when the bot is not
// a member of the target channel.
type APIError struct {
	Code        int
	Description string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram: %s (code %d)", e.Description, e.Code)
}

// Client is a minimal Telegram Bot API client.
type Client struct {
	token      string
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

func NewClient(token string, opts ...ClientOption) *Client {
	ans := Client{
		token:   token,
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

type apiResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result"`
	Description string          `json:"description"`
	ErrorCode   int             `json:"error_code"`
}

// Message is the subset of the Bot API message object we care about.
type Message struct {
	MessageID int64 `json:"message_id"`
}

// Chat is the subset of the Bot API chat object returned by getChat.
type Chat struct {
	ID    int64  `json:"id"`
	Type  string `json:"type"`
	Title string `json:"title"`
}

// SendMessage posts text to a chat (channel id or @username) and returns
// the platform message.
func (c *Client) SendMessage(ctx context.Context, chatID, text string) (*Message, error) {
	payload := map[string]any{
		"chat_id": chatID,
		"text":    text,
	}

	var msg Message
	if err := c.call(ctx, "sendMessage", payload, &msg); err != nil {
		return nil, err
	}

	return &msg, nil
}

// GetChat fetches chat info. It fails with *APIError when the bot cannot
// see the chat, which is how channel ownership is verified.
func (c *Client) GetChat(ctx context.Context, chatID string) (*Chat, error) {
	payload := map[string]any{
		"chat_id": chatID,
	}

	var chat Chat
	if err := c.call(ctx, "getChat", payload, &chat); err != nil {
		return nil, err
	}

	return &chat, nil
}

func (c *Client) call(ctx context.Context, method string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s payload: %w", method, err)
	}

	url := fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create %s request: %w", method, err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("telegram %s request failed: %w", method, err)
	}

	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read %s response: %w", method, err)
	}

	var apiResp apiResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return fmt.Errorf("failed to parse %s response: %w", method, err)
	}

	if !apiResp.OK {
		return &APIError{
			Code:        apiResp.ErrorCode,
			Description: apiResp.Description,
		}
	}

	if out != nil {
		if err := json.Unmarshal(apiResp.Result, out); err != nil {
			return fmt.Errorf("failed to parse %s result: %w", method, err)
		}
	}

	return nil
}

// Adapter delivers posts to a Telegram channel through the shared bot.
type Adapter struct {
	client *Client
}

func NewAdapter(client *Client) *Adapter {
	return &Adapter{client: client}
}

func (a *Adapter) Send(ctx context.Context, post *models.Post, integration *models.Integration) (*platform.Result, error) {
	creds := integration.Telegram
	if creds == nil || !creds.IsConnected || creds.ChannelID == "" {
		return nil, fmt.Errorf("%w: telegram channel", platform.ErrNotConfigured)
	}

	msg, err := a.client.SendMessage(ctx, creds.ChannelID, post.Content)
	if err != nil {
		return nil, fmt.Errorf("telegram send failed: %w", err)
	}

	return &platform.Result{
		PlatformPostID: strconv.FormatInt(msg.MessageID, 10),
	}, nil
}
