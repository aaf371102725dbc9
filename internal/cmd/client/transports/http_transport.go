package transports

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// HTTPTransport implements GreeterTransport against the JSON HTTP API.
type HTTPTransport struct {
	baseURL string
	client  *http.Client
}

// NewHTTPTransport returns a transport rooted at baseURL. A nil client uses
// http.DefaultClient.
func NewHTTPTransport(baseURL string, client *http.Client) *HTTPTransport {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPTransport{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

// Greet posts to /v1/greet.
func (t *HTTPTransport) Greet(ctx context.Context, name string) (string, error) {
	b, err := json.Marshal(map[string]string{"name": name})
	if err != nil {
		return "", err
	}
	var out struct {
		Message string `json:"message"`
	}
	if err := t.do(ctx, http.MethodPost, "/v1/greet", bytes.NewReader(b), &out); err != nil {
		return "", err
	}
	return out.Message, nil
}

// GreetedCount reads /v1/greeted.
func (t *HTTPTransport) GreetedCount(ctx context.Context, name string) (uint64, error) {
	var out struct {
		Count uint64 `json:"count"`
	}
	err := t.do(ctx, http.MethodGet, "/v1/greeted?name="+url.QueryEscape(name), nil, &out)
	return out.Count, err
}

// TotalGreetedNames reads /v1/greeted/total.
func (t *HTTPTransport) TotalGreetedNames(ctx context.Context) (uint64, error) {
	return t.total(ctx, "/v1/greeted/total")
}

// TotalEvents reads /v1/events/total.
func (t *HTTPTransport) TotalEvents(ctx context.Context) (uint64, error) {
	return t.total(ctx, "/v1/events/total")
}

func (t *HTTPTransport) total(ctx context.Context, path string) (uint64, error) {
	var out struct {
		Total uint64 `json:"total"`
	}
	err := t.do(ctx, http.MethodGet, path, nil, &out)
	return out.Total, err
}

func (t *HTTPTransport) do(ctx context.Context, method, path string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, t.baseURL+path, body)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := t.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%s %s: %s: %s", method, path, resp.Status, strings.TrimSpace(string(msg)))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
