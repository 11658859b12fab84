package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const defaultAPIBase = "https://slack.com/api"

// Block is one Block Kit layout block.
type Block map[string]any

// APIError is a response with ok=false.
type APIError struct {
	Method string
	Code   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("slack %s: %s", e.Method, e.Code)
}

// Client posts messages with a bot token that can be swapped at runtime.
type Client struct {
	token   func() string
	client  *http.Client
	apiBase string
	logger  *slog.Logger
}

// NewClient reads the bot token from token on every call, so a token set
// through the settings endpoint takes effect immediately.
func NewClient(token func() string, logger *slog.Logger) *Client {
	return &Client{
		token:   token,
		client:  &http.Client{Timeout: 10 * time.Second},
		apiBase: defaultAPIBase,
		logger:  logger,
	}
}

// Ready reports whether a bot token is configured.
func (c *Client) Ready() bool {
	return c.token() != ""
}

// PostMessage posts blocks to a channel or user ID and returns the message ts.
// text is the notification fallback.
func (c *Client) PostMessage(ctx context.Context, channel, text string, blocks []Block) (string, error) {
	var resp struct {
		TS      string `json:"ts"`
		Channel string `json:"channel"`
	}
	err := c.call(ctx, c.token(), "chat.postMessage", map[string]any{
		"channel": channel,
		"text":    text,
		"blocks":  blocks,
	}, &resp)
	if err != nil {
		return "", err
	}

	c.logger.Info("posted slack message", "channel", channel, "ts", resp.TS)
	return resp.TS, nil
}

// Identity is the workspace and bot a token belongs to.
type Identity struct {
	Team   string `json:"team"`
	TeamID string `json:"team_id"`
	User   string `json:"user"`
	UserID string `json:"user_id"`
}

// AuthTest checks token without installing it.
func (c *Client) AuthTest(ctx context.Context, token string) (*Identity, error) {
	var id Identity
	if err := c.call(ctx, token, "auth.test", map[string]any{}, &id); err != nil {
		return nil, err
	}
	return &id, nil
}

func (c *Client) call(ctx context.Context, token, method string, payload map[string]any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal slack payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiBase+"/"+method, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("slack %s: %w", method, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var status struct {
		OK    bool   `json:"ok"`
		Error string `json:"error,omitempty"`
	}
	if err := json.Unmarshal(respBody, &status); err != nil {
		return fmt.Errorf("parse slack response: %w", err)
	}
	if !status.OK {
		return &APIError{Method: method, Code: status.Error}
	}
	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("parse slack response: %w", err)
		}
	}
	return nil
}
