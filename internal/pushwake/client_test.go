package pushwake_test

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"paykit/internal/crypto"
	"paykit/internal/domain"
	"paykit/internal/pushwake"
)

// fakeCustody signs with a throwaway Ed25519 key.
type fakeCustody struct {
	priv domain.Ed25519Private
	pub  domain.Ed25519Public
}

func newFakeCustody(t *testing.T) *fakeCustody {
	t.Helper()
	priv, pub, err := crypto.GenerateEd25519()
	require.NoError(t, err)
	return &fakeCustody{priv: priv, pub: pub}
}

func (f *fakeCustody) CurrentKeypair(uint64) (domain.NoiseKeypair, error) {
	return domain.NoiseKeypair{}, domain.ErrNotConfigured
}

func (f *fakeCustody) Identity() (domain.PeerIdentity, error) {
	var key [32]byte
	copy(key[:], f.pub.Slice())
	return crypto.EncodeIdentity(key), nil
}

func (f *fakeCustody) Sign(msg []byte) ([]byte, error) {
	return crypto.SignEd25519(f.priv, msg), nil
}

func TestRegister_SignsCanonicalString(t *testing.T) {
	custody := newFakeCustody(t)
	identity, err := custody.Identity()
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)

		require.Equal(t, identity.String(), r.Header.Get("X-Identity"))
		ts := r.Header.Get("X-Timestamp")
		require.NotEmpty(t, ts)

		bodyHash := sha256.Sum256(body)
		canonical := "POST:/register:" + ts + ":" + hex.EncodeToString(bodyHash[:])
		sig, err := hex.DecodeString(r.Header.Get("X-Signature"))
		require.NoError(t, err)
		require.True(t, crypto.VerifyEd25519(custody.pub, []byte(canonical), sig),
			"signature must verify over the canonical string")

		_, _ = w.Write([]byte(`{"expires_at": 1700000000}`))
	}))
	defer srv.Close()

	c := pushwake.New(srv.URL, nil, custody)
	reg, err := c.Register(context.Background(), "device-token", []string{"noise_connect"})
	require.NoError(t, err)
	require.Equal(t, int64(1700000000), reg.ExpiresAt)
}

func TestWake_RateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "17")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := pushwake.New(srv.URL, nil, newFakeCustody(t))
	err := c.Wake(context.Background(), "pk:someone", domain.WakeNoiseConnect, nil)

	var rl *domain.RateLimitedError
	require.ErrorAs(t, err, &rl)
	require.Equal(t, 17*time.Second, rl.RetryAfter)
}

func TestWake_NormalizesRecipient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		require.Contains(t, string(body), `"recipient":"abc`)
	}))
	defer srv.Close()

	c := pushwake.New(srv.URL, nil, newFakeCustody(t))
	require.NoError(t, c.Wake(context.Background(), "pk:ABCdef", domain.WakePaymentRequest, map[string]string{"hint": "poll"}))
}

func TestWake_PlainErrorOnServerFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := pushwake.New(srv.URL, nil, newFakeCustody(t))
	err := c.Wake(context.Background(), "pk:someone", domain.WakeNoiseConnect, nil)
	require.Error(t, err)
	var rl *domain.RateLimitedError
	require.False(t, errors.As(err, &rl))
}
