package store

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rxl895/BrainWave/internal/domain"
)

// Bucket is one object-storage namespace.
type Bucket struct {
	c    *Client
	name string
}

func (c *Client) Storage(bucket string) *Bucket {
	return &Bucket{c: c, name: bucket}
}

// ObjectInfo is the storage listing entry for one object.
type ObjectInfo struct {
	Name      string    `json:"name"`
	Size      int64     `json:"size,omitempty"`
	MimeType  string    `json:"mime_type,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// List returns the objects under prefix (typically "<group_id>").
func (b *Bucket) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	body := map[string]string{"prefix": prefix}
	var out []ObjectInfo
	if err := b.c.doJSON(ctx, http.MethodPost, "/storage/v1/object/list/"+b.name, nil, nil, body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Upload streams an object to path. Existing objects are overwritten.
func (b *Bucket) Upload(ctx context.Context, path, contentType string, r io.Reader) error {
	h := map[string]string{"x-upsert": "true"}
	if contentType != "" {
		h["Content-Type"] = contentType
	}
	return b.c.do(ctx, http.MethodPost, "/storage/v1/object/"+b.name+"/"+path, nil, h, r, nil)
}

// Download fetches the raw object bytes.
func (b *Bucket) Download(ctx context.Context, path string) ([]byte, error) {
	u := b.c.baseURL + "/storage/v1/object/" + b.name + "/" + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	req.Header.Set("apikey", b.c.anonKey)
	req.Header.Set("Authorization", "Bearer "+b.c.token())

	resp, err := b.c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, classify(resp)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	return data, nil
}

// PublicURL returns the unauthenticated URL for an object.
func (b *Bucket) PublicURL(path string) string {
	return b.c.baseURL + "/storage/v1/object/public/" + b.name + "/" + path
}

// Remove deletes the given object paths.
func (b *Bucket) Remove(ctx context.Context, paths ...string) error {
	body := map[string][]string{"prefixes": paths}
	return b.c.doJSON(ctx, http.MethodDelete, "/storage/v1/object/"+b.name, nil, nil, body, nil)
}
