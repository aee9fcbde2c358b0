package catalog

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

// ProxyClient calls a catalog proxy that accepts {"action": ...} payloads
// and answers with the catalog's JSON.
type ProxyClient struct {
	url        string
	httpClient *http.Client
}

// NewProxyClient creates a client for the proxy endpoint at url.
func NewProxyClient(url string, timeout time.Duration) *ProxyClient {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &ProxyClient{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Call posts the action to the proxy.
func (p *ProxyClient) Call(ctx context.Context, action Action, params Params) (json.RawMessage, error) {
	payload, err := json.Marshal(Request{Action: action, Params: params})
	if err != nil {
		return nil, fmt.Errorf("failed to encode proxy request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build proxy request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Source: "proxy", Code: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read proxy response: %w", err)
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("proxy returned invalid JSON for %s", action)
	}
	return data, nil
}
