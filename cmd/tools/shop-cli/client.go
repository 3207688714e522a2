// cmd/tools/shop-cli/client.go
package main

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	commonhttp "shopping-assistant/internal/common/http"
	"shopping-assistant/internal/models"
)

// sessionView is the subset of the session resource the console shows.
type sessionView struct {
	SessionID string           `json:"sessionId"`
	Phase     models.Phase     `json:"phase"`
	History   []models.Message `json:"history"`
}

// sessionClient talks to the assistant's session API. Messages are never retried.
type sessionClient struct {
	baseURL string
	http    *commonhttp.Client
}

func newSessionClient(baseURL string, timeout time.Duration) *sessionClient {
	return &sessionClient{
		baseURL: strings.TrimRight(baseURL, "/") + "/api/v1/sessions",
		http:    commonhttp.NewClient(timeout),
	}
}

func (c *sessionClient) sessionURL(id string, parts ...string) string {
	return c.baseURL + "/" + strings.Join(append([]string{url.PathEscape(id)}, parts...), "/")
}

func (c *sessionClient) Create(ctx context.Context, id string) (*sessionView, error) {
	var body interface{}
	if id != "" {
		body = map[string]string{"sessionId": id}
	}
	var view sessionView
	if err := c.http.DoJSON(ctx, http.MethodPost, c.baseURL, body, &view); err != nil {
		return nil, err
	}
	return &view, nil
}

func (c *sessionClient) Get(ctx context.Context, id string) (*sessionView, error) {
	var view sessionView
	if err := c.http.DoJSON(ctx, http.MethodGet, c.sessionURL(id), nil, &view); err != nil {
		return nil, err
	}
	return &view, nil
}

func (c *sessionClient) Send(ctx context.Context, id, message string) (*models.Response, error) {
	var resp models.Response
	err := c.http.DoJSON(ctx, http.MethodPost, c.sessionURL(id, "messages"), map[string]string{"message": message}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *sessionClient) Reset(ctx context.Context, id string) (*sessionView, error) {
	var view sessionView
	if err := c.http.DoJSON(ctx, http.MethodPost, c.sessionURL(id, "reset"), nil, &view); err != nil {
		return nil, err
	}
	return &view, nil
}

func (c *sessionClient) Delete(ctx context.Context, id string) error {
	return c.http.DoJSON(ctx, http.MethodDelete, c.sessionURL(id), nil, nil)
}
