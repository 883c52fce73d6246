package noise

import (
	"crypto/rand"
	"fmt"
	"sync"

	"github.com/flynn/noise"
	"github.com/google/uuid"

	"paykit/internal/domain"
)

// SessionState is the lifecycle state of a Noise session.
type SessionState int

const (
	StateUninitiated SessionState = iota
	StateHandshakeInitiated
	StateAwaitingFirstMessage
	StateEstablished
	StateClosed
)

// Role distinguishes which side of the handshake a session plays.
type Role string

const (
	RoleInitiator Role = "initiator"
	RoleResponder Role = "responder"
)

// prologue binds both sides to the same protocol revision.
var prologue = []byte("paykit/v0/noise")

var cipherSuite = noise.NewCipherSuite(noise.DH25519, noise.CipherChaChaPoly, noise.HashSHA256)

type session struct {
	id    string
	role  Role
	state SessionState
	hs    *noise.HandshakeState
	send  *noise.CipherState
	recv  *noise.CipherState
}

// Engine creates and tracks Noise sessions for one static keypair.
type Engine struct {
	static noise.DHKey

	mu       sync.Mutex
	sessions map[string]*session
}

// NewEngine returns an engine using kp as its static Noise keypair.
func NewEngine(kp domain.NoiseKeypair) *Engine {
	return &Engine{
		static: noise.DHKey{
			Private: append([]byte(nil), kp.Secret.Slice()...),
			Public:  append([]byte(nil), kp.Public.Slice()...),
		},
		sessions: make(map[string]*session),
	}
}

// Initiate starts an IK handshake toward serverPub and returns the session
// id plus the first handshake message to send over the transport.
func (e *Engine) Initiate(serverPub domain.X25519Public) (string, []byte, error) {
	hs, err := noise.NewHandshakeState(noise.Config{
		CipherSuite:   cipherSuite,
		Random:        rand.Reader,
		Pattern:       noise.HandshakeIK,
		Initiator:     true,
		StaticKeypair: e.static,
		PeerStatic:    serverPub.Slice(),
		Prologue:      prologue,
	})
	if err != nil {
		return "", nil, fmt.Errorf("create handshake state: %w", err)
	}
	first, _, _, err := hs.WriteMessage(nil, nil)
	if err != nil {
		return "", nil, fmt.Errorf("write handshake message: %w", err)
	}

	s := &session{id: uuid.NewString(), role: RoleInitiator, state: StateHandshakeInitiated, hs: hs}
	e.mu.Lock()
	e.sessions[s.id] = s
	e.mu.Unlock()
	return s.id, first, nil
}

// Complete consumes the responder's handshake reply and transitions the
// session to Established.
func (e *Engine) Complete(sessionID string, response []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, ok := e.sessions[sessionID]
	if !ok || s.state != StateHandshakeInitiated {
		return fmt.Errorf("%w: complete on session %s", domain.ErrInvalidSessionState, sessionID)
	}
	_, cs1, cs2, err := s.hs.ReadMessage(nil, response)
	if err != nil {
		s.close()
		return fmt.Errorf("%w: handshake response rejected: %v", domain.ErrInvalidResponse, err)
	}
	// cs1 encrypts initiator->responder traffic on both sides.
	s.send, s.recv = cs1, cs2
	s.hs = nil
	s.state = StateEstablished
	return nil
}

// Accept runs the responder side of the handshake against the initiator's
// first message. On success the session is immediately Established and the
// returned response must be sent back over the transport.
func (e *Engine) Accept(first []byte) (string, []byte, error) {
	hs, err := noise.NewHandshakeState(noise.Config{
		CipherSuite:   cipherSuite,
		Random:        rand.Reader,
		Pattern:       noise.HandshakeIK,
		Initiator:     false,
		StaticKeypair: e.static,
		Prologue:      prologue,
	})
	if err != nil {
		return "", nil, fmt.Errorf("create handshake state: %w", err)
	}
	if _, _, _, err := hs.ReadMessage(nil, first); err != nil {
		return "", nil, fmt.Errorf("%w: first handshake message rejected: %v", domain.ErrInvalidResponse, err)
	}
	response, cs1, cs2, err := hs.WriteMessage(nil, nil)
	if err != nil {
		return "", nil, fmt.Errorf("write handshake response: %w", err)
	}

	s := &session{id: uuid.NewString(), role: RoleResponder, state: StateEstablished, send: cs2, recv: cs1}
	e.mu.Lock()
	e.sessions[s.id] = s
	e.mu.Unlock()
	return s.id, response, nil
}

// Encrypt seals plaintext for the peer. The session must be Established.
func (e *Engine) Encrypt(sessionID string, plaintext []byte) ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, ok := e.sessions[sessionID]
	if !ok || s.state != StateEstablished {
		return nil, fmt.Errorf("%w: encrypt on session %s", domain.ErrInvalidSessionState, sessionID)
	}
	ct, err := s.send.Encrypt(nil, nil, plaintext)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrEncryptionFailed, err)
	}
	return ct, nil
}

// Decrypt opens a ciphertext from the peer. The session must be Established.
func (e *Engine) Decrypt(sessionID string, ciphertext []byte) ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, ok := e.sessions[sessionID]
	if !ok || s.state != StateEstablished {
		return nil, fmt.Errorf("%w: decrypt on session %s", domain.ErrInvalidSessionState, sessionID)
	}
	pt, err := s.recv.Decrypt(nil, nil, ciphertext)
	if err != nil {
		return nil, fmt.Errorf("%w: transport message rejected", domain.ErrDecryptionFailed)
	}
	return pt, nil
}

// Close discards the session's cipher state. A closed session id stays
// known so later use fails with ErrInvalidSessionState instead of looking
// like an unknown session.
func (e *Engine) Close(sessionID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if s, ok := e.sessions[sessionID]; ok {
		s.close()
	}
}

// Role reports the session's role, or "" if the session is unknown.
func (e *Engine) Role(sessionID string) Role {
	e.mu.Lock()
	defer e.mu.Unlock()
	if s, ok := e.sessions[sessionID]; ok {
		return s.role
	}
	return ""
}

// State reports the session's state; unknown sessions are StateUninitiated.
func (e *Engine) State(sessionID string) SessionState {
	e.mu.Lock()
	defer e.mu.Unlock()
	if s, ok := e.sessions[sessionID]; ok {
		return s.state
	}
	return StateUninitiated
}

// close drops handshake and cipher state. The flynn/noise cipher states do
// not expose their key material, so dropping the references is the closest
// available approximation of zeroization.
func (s *session) close() {
	s.hs = nil
	s.send = nil
	s.recv = nil
	s.state = StateClosed
}
