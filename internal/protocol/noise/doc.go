// Package noise wraps the Noise IK handshake and transport phase in a small
// session state machine.
//
// A session moves Uninitiated -> HandshakeInitiated (initiator) or
// AwaitingFirstMessage (responder) -> Established -> Closed. Only an
// Established session may encrypt or decrypt application data; using a
// session outside that state is a programmer error reported as
// ErrInvalidSessionState. Sessions live in memory only and their cipher
// state is dropped on Close.
//
// The cipher suite is Curve25519 / ChaCha20-Poly1305 / SHA-256. The
// initiator must already know the responder's static public key (IK), which
// it learns from the peer's published endpoint document.
package noise
