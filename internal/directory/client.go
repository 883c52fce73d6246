package directory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"paykit/internal/domain"
)

// ownerHeader routes an unauthenticated read to a specific owner's storage.
const ownerHeader = "X-Directory-Owner"

// Client is an HTTP directory-store client.
type Client struct {
	base  string
	http  *http.Client
	token string
}

// New returns a client for the store at base. httpClient may be nil, in
// which case http.DefaultClient is used.
func New(base string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{base: base, http: httpClient}
}

// SetSession installs the write credential bound to the caller's identity.
func (c *Client) SetSession(token string) { c.token = token }

// Get fetches a document from the owner's storage.
func (c *Client) Get(ctx context.Context, owner domain.PeerIdentity, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set(ownerHeader, owner.Normalize().String())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("directory get %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, path)
	}
	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("directory get %s: %s", path, resp.Status)
	}
	return io.ReadAll(resp.Body)
}

// Put writes a document to the caller's own storage.
func (c *Client) Put(ctx context.Context, path string, body []byte) error {
	if c.token == "" {
		return fmt.Errorf("%w: no directory session", domain.ErrNotConfigured)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.base+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("directory put %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("directory put %s: %s", path, resp.Status)
	}
	return nil
}

// Delete removes a document from the caller's own storage.
func (c *Client) Delete(ctx context.Context, path string) error {
	if c.token == "" {
		return fmt.Errorf("%w: no directory session", domain.ErrNotConfigured)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.base+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("directory delete %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 && resp.StatusCode != http.StatusNotFound {
		return fmt.Errorf("directory delete %s: %s", path, resp.Status)
	}
	return nil
}

// List returns the immediate child names under prefix in the owner's
// storage. A missing prefix lists as empty, not as an error.
func (c *Client) List(ctx context.Context, owner domain.PeerIdentity, prefix string) ([]string, error) {
	u := c.base + prefix + "?shallow=" + url.QueryEscape("true")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set(ownerHeader, owner.Normalize().String())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("directory list %s: %w", prefix, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("directory list %s: %s", prefix, resp.Status)
	}
	var names []string
	if err := json.NewDecoder(resp.Body).Decode(&names); err != nil {
		return nil, fmt.Errorf("%w: directory listing: %v", domain.ErrEncoding, err)
	}
	return names, nil
}

var _ domain.DirectoryClient = (*Client)(nil)
