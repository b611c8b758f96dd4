// Package client talks to the portal's chat endpoints over HTTP.
package client

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

	"medivault-server/internal/models"
	"medivault-server/internal/services"
)

// ChatClient calls the /api/v1/chat endpoints as the user identified by its
// bearer token. The viewer and sender arguments of its methods are implied by
// the token and are not sent.
type ChatClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewChatClient creates a ChatClient for the server at baseURL.
func NewChatClient(baseURL, token string, httpClient *http.Client) *ChatClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &ChatClient{
		baseURL:    strings.TrimRight(baseURL, "/") + "/api/v1/chat",
		token:      token,
		httpClient: httpClient,
	}
}

type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

type sendMessageRequest struct {
	ReceiverID string `json:"receiverId"`
	Body       string `json:"body"`
}

type unreadCountResponse struct {
	Count int64 `json:"count"`
}

func (c *ChatClient) GetHistory(ctx context.Context, _, peerID string) ([]models.Message, error) {
	var messages []models.Message
	if err := c.do(ctx, http.MethodGet, "/history/"+url.PathEscape(peerID), nil, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

func (c *ChatClient) MarkRead(ctx context.Context, senderID, _ string) error {
	return c.do(ctx, http.MethodPost, "/read/"+url.PathEscape(senderID), nil, nil)
}

func (c *ChatClient) SendMessage(ctx context.Context, _, receiverID, body string) (*models.Message, error) {
	var message models.Message
	req := sendMessageRequest{ReceiverID: receiverID, Body: body}
	if err := c.do(ctx, http.MethodPost, "/send", req, &message); err != nil {
		return nil, err
	}
	return &message, nil
}

func (c *ChatClient) GetUnreadCount(ctx context.Context, _ string) (int64, error) {
	var resp unreadCountResponse
	if err := c.do(ctx, http.MethodGet, "/unread", nil, &resp); err != nil {
		return 0, err
	}
	return resp.Count, nil
}

func (c *ChatClient) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", services.ErrNetwork, method, path, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("%w: decode %s response: %v", services.ErrNetwork, path, err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		msg := env.Error
		if msg == "" {
			msg = env.Message
		}
		return fmt.Errorf("%w: %s", classify(resp.StatusCode), msg)
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("decode %s data: %w", path, err)
		}
	}
	return nil
}

// classify maps an HTTP status back to the service error it was produced from.
func classify(status int) error {
	switch status {
	case http.StatusNotFound:
		return services.ErrNotFound
	case http.StatusForbidden, http.StatusUnauthorized:
		return services.ErrForbidden
	case http.StatusConflict:
		return services.ErrInvalidState
	case http.StatusUnprocessableEntity:
		return services.ErrMissingReason
	case http.StatusBadRequest:
		return services.ErrInvalidInput
	default:
		return services.ErrNetwork
	}
}
