package pushwake

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"paykit/internal/domain"
)

// Client talks to the push relay on behalf of one identity.
type Client struct {
	base    string
	http    *http.Client
	custody domain.KeyCustody
	now     func() time.Time
}

// New returns a relay client signing with custody. httpClient may be nil.
func New(base string, httpClient *http.Client, custody domain.KeyCustody) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{base: base, http: httpClient, custody: custody, now: time.Now}
}

type registerBody struct {
	PushToken    string   `json:"push_token"`
	Capabilities []string `json:"capabilities"`
}

type wakeBody struct {
	Recipient domain.PeerIdentity `json:"recipient"`
	WakeType  domain.WakeType     `json:"wake_type"`
	Payload   map[string]string   `json:"payload,omitempty"`
}

// Register stores the device push token with the relay and returns the
// registration lease.
func (c *Client) Register(ctx context.Context, pushToken string, capabilities []string) (domain.RelayRegistration, error) {
	var out domain.RelayRegistration
	err := c.post(ctx, "/register", registerBody{PushToken: pushToken, Capabilities: capabilities}, &out)
	return out, err
}

// Wake asks the relay to deliver a wake signal to recipient.
func (c *Client) Wake(ctx context.Context, recipient domain.PeerIdentity, wakeType domain.WakeType, payload map[string]string) error {
	return c.post(ctx, "/wake", wakeBody{Recipient: recipient.Normalize(), WakeType: wakeType, Payload: payload}, nil)
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrEncoding, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if err := c.sign(req, http.MethodPost, path, body); err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("relay post %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return &domain.RateLimitedError{RetryAfter: retryAfter(resp)}
	}
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("relay post %s: %s", path, resp.Status)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("%w: relay response: %v", domain.ErrEncoding, err)
		}
	}
	return nil
}

// sign attaches X-Signature, X-Timestamp and X-Identity computed over the
// canonical string method:path:timestamp:bodyHash.
func (c *Client) sign(req *http.Request, method, path string, body []byte) error {
	identity, err := c.custody.Identity()
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrNotConfigured, err)
	}
	ts := strconv.FormatInt(c.now().Unix(), 10)
	bodyHash := sha256.Sum256(body)
	canonical := method + ":" + path + ":" + ts + ":" + hex.EncodeToString(bodyHash[:])

	sig, err := c.custody.Sign([]byte(canonical))
	if err != nil {
		return fmt.Errorf("sign relay request: %w", err)
	}
	req.Header.Set("X-Signature", hex.EncodeToString(sig))
	req.Header.Set("X-Timestamp", ts)
	req.Header.Set("X-Identity", identity.Normalize().String())
	return nil
}

func retryAfter(resp *http.Response) time.Duration {
	if s := resp.Header.Get("Retry-After"); s != "" {
		if secs, err := strconv.Atoi(s); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	// The relay is expected to set Retry-After; fall back to a minute.
	return time.Minute
}

var _ domain.WakeClient = (*Client)(nil)
