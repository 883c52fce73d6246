package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotConfigured means a required session or key is missing and the
	// caller must (re-)authenticate before retrying.
	ErrNotConfigured = errors.New("not configured")

	// ErrEncoding means local data was malformed before any network or
	// crypto work happened.
	ErrEncoding = errors.New("encoding error")

	// ErrEncryptionFailed covers failures sealing a payload. Crypto errors
	// fail closed; there is no plaintext fallback.
	ErrEncryptionFailed = errors.New("encryption failed")

	// ErrDecryptionFailed covers AEAD open failures, AAD mismatches and
	// unsupported envelope versions.
	ErrDecryptionFailed = errors.New("decryption failed")

	// ErrNotAnEnvelope means bytes found where a sealed envelope was
	// expected do not parse as one. Plaintext is never accepted in its
	// place.
	ErrNotAnEnvelope = fmt.Errorf("%w: payload is not a sealed envelope", ErrDecryptionFailed)

	// ErrEndpointNotFound means the peer has not published reachability
	// info. Callers fall back to the asynchronous path.
	ErrEndpointNotFound = errors.New("peer endpoint not found")

	// ErrNotFound is the mapped form of a transport 404: the resource does
	// not exist yet, as opposed to the request having failed.
	ErrNotFound = errors.New("not found")

	// ErrInvalidSessionState signals a programmer error: encrypt/decrypt on
	// a Noise session that is not established, or reuse after close.
	ErrInvalidSessionState = errors.New("invalid session state")

	// ErrInvalidResponse means the remote sent a malformed or unexpected
	// message during a synchronous exchange.
	ErrInvalidResponse = errors.New("invalid response")

	// ErrConnectionFailed means the byte-stream transport could not be
	// opened or broke mid-exchange.
	ErrConnectionFailed = errors.New("connection failed")

	// ErrTimeout means an operation exceeded its deadline; the session or
	// connection involved is discarded.
	ErrTimeout = errors.New("timed out")

	// ErrPaymentFailed is terminal for a single payment attempt.
	ErrPaymentFailed = errors.New("payment failed")
)

// RateLimitedError is returned when the push relay answers 429. Callers
// must wait RetryAfter before retrying.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited: retry after %s", e.RetryAfter)
}
