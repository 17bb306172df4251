// Package store is the client for the external backend-as-a-service: row CRUD,
// auth, object storage and realtime insert events. Nothing here persists state
// locally; every read goes back to the service.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/rxl895/BrainWave/internal/domain"
)

type Client struct {
	baseURL string
	anonKey string
	httpc   *http.Client

	mu      sync.RWMutex
	session *Session
}

func New(baseURL, anonKey string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		anonKey: anonKey,
		httpc:   &http.Client{Timeout: 30 * time.Second},
	}
}

// token returns the bearer to authenticate with: the signed-in session token
// when present, the anonymous key otherwise.
func (c *Client) token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.session != nil && c.session.AccessToken != "" {
		return c.session.AccessToken
	}
	return c.anonKey
}

func (c *Client) do(ctx context.Context, method, path string, q url.Values, headers map[string]string, body io.Reader, out any) error {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	req.Header.Set("apikey", c.anonKey)
	req.Header.Set("Authorization", "Bearer "+c.token())
	if body != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return classify(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %v", domain.ErrPersistence, err)
	}
	return nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, q url.Values, headers map[string]string, body, out any) error {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%w: encode request: %v", domain.ErrPersistence, err)
		}
		r = bytes.NewReader(b)
	}
	return c.do(ctx, method, path, q, headers, r, out)
}

// classify maps an error response onto the failure taxonomy. The body is read
// for the message only; callers never branch on it.
func classify(resp *http.Response) error {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	msg := strings.TrimSpace(string(b))

	var kind error
	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		kind = domain.ErrAccessDenied
	case http.StatusNotFound, http.StatusNotAcceptable:
		kind = domain.ErrNotFound
	default:
		kind = domain.ErrPersistence
	}
	log.Debug().Str("module", "store").Int("status", resp.StatusCode).Str("body", msg).Msg("request failed")
	if msg == "" {
		return fmt.Errorf("%w: status %d", kind, resp.StatusCode)
	}
	return fmt.Errorf("%w: status %d: %s", kind, resp.StatusCode, msg)
}
