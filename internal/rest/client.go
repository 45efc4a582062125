package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"Murmur/internal/auth"
	"Murmur/internal/model"
)

const defaultPageSize = 20

// API is the REST boundary consumed by the conversation store. The server
// owns pagination: list endpoints hand back opaque cursors.
type API interface {
	Conversations(ctx context.Context, cursor string) (*model.ConversationPage, error)
	ConversationByUsername(ctx context.Context, username string) (*model.Conversation, error)
	Messages(ctx context.Context, conversationID, cursor string) (*model.MessagePage, error)
	SendMessage(ctx context.Context, conversationID, content string, media []model.Media) (*model.Message, error)
	MarkRead(ctx context.Context, conversationID string) error
	UnreadCount(ctx context.Context) (int, error)
}

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int    `json:"-"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

type client struct {
	baseURL  string
	http     *http.Client
	creds    *auth.Credentials
	pageSize int
	logger   *zap.Logger
}

func NewClient(baseURL string, creds *auth.Credentials, logger *zap.Logger) API {
	return &client{
		baseURL:  baseURL,
		http:     &http.Client{Timeout: 30 * time.Second},
		creds:    creds,
		pageSize: defaultPageSize,
		logger:   logger,
	}
}

func (c *client) Conversations(ctx context.Context, cursor string) (*model.ConversationPage, error) {
	query := url.Values{"limit": {fmt.Sprint(c.pageSize)}}
	if cursor != "" {
		query.Set("cursor", cursor)
	}

	var page model.ConversationPage
	if err := c.do(ctx, http.MethodGet, "/api/conversations", query, nil, &page); err != nil {
		return nil, fmt.Errorf("fetch conversations failed: %w", err)
	}

	c.logger.Debug("conversations fetched",
		zap.Int("count", len(page.Conversations)),
		zap.Bool("has_more", page.HasMore),
	)
	return &page, nil
}

func (c *client) ConversationByUsername(ctx context.Context, username string) (*model.Conversation, error) {
	if username == "" {
		return nil, model.ErrMissingUsername
	}

	var raw json.RawMessage
	path := "/api/conversations/user/" + url.PathEscape(username)
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &raw); err != nil {
		return nil, fmt.Errorf("conversation lookup failed: %w", err)
	}

	conv, err := normalizeConversation(raw)
	if err != nil {
		c.logger.Warn("conversation response rejected",
			zap.String("username", username),
			zap.Error(err),
		)
		return nil, err
	}
	return conv, nil
}

func (c *client) Messages(ctx context.Context, conversationID, cursor string) (*model.MessagePage, error) {
	query := url.Values{"limit": {fmt.Sprint(c.pageSize)}}
	if cursor != "" {
		query.Set("cursor", cursor)
	}

	var page model.MessagePage
	path := "/api/conversations/" + url.PathEscape(conversationID) + "/messages"
	if err := c.do(ctx, http.MethodGet, path, query, nil, &page); err != nil {
		return nil, fmt.Errorf("fetch messages failed: %w", err)
	}
	return &page, nil
}

func (c *client) SendMessage(ctx context.Context, conversationID, content string, media []model.Media) (*model.Message, error) {
	body := map[string]interface{}{
		"content": content,
	}
	if len(media) > 0 {
		body["media"] = media
	}

	var msg model.Message
	path := "/api/conversations/" + url.PathEscape(conversationID) + "/messages"
	if err := c.do(ctx, http.MethodPost, path, nil, body, &msg); err != nil {
		return nil, fmt.Errorf("send message failed: %w", err)
	}
	return &msg, nil
}

func (c *client) MarkRead(ctx context.Context, conversationID string) error {
	path := "/api/conversations/" + url.PathEscape(conversationID) + "/read"
	if err := c.do(ctx, http.MethodPost, path, nil, nil, nil); err != nil {
		return fmt.Errorf("mark read failed: %w", err)
	}
	return nil
}

func (c *client) UnreadCount(ctx context.Context) (int, error) {
	var out struct {
		Count int `json:"count"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/messages/unread-count", nil, nil, &out); err != nil {
		return 0, fmt.Errorf("unread count failed: %w", err)
	}
	return out.Count, nil
}

func (c *client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if token := c.creds.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if err := json.NewDecoder(resp.Body).Decode(apiErr); err != nil || apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
