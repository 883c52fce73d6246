package noise_test

import (
	"bytes"
	"errors"
	"testing"

	"paykit/internal/crypto"
	"paykit/internal/domain"
	noiseproto "paykit/internal/protocol/noise"
)

func makeEngine(t *testing.T) (*noiseproto.Engine, domain.NoiseKeypair) {
	t.Helper()
	priv, pub, err := crypto.GenerateX25519()
	if err != nil {
		t.Fatalf("GenerateX25519: %v", err)
	}
	kp := domain.NoiseKeypair{Public: pub, Secret: priv, DeviceID: "test", Epoch: 1}
	return noiseproto.NewEngine(kp), kp
}

// handshake runs a full IK handshake between two engines and returns both
// established session ids.
func handshake(t *testing.T, initiator, responder *noiseproto.Engine, responderKey domain.X25519Public) (string, string) {
	t.Helper()
	initID, first, err := initiator.Initiate(responderKey)
	if err != nil {
		t.Fatalf("Initiate: %v", err)
	}
	respID, response, err := responder.Accept(first)
	if err != nil {
		t.Fatalf("Accept: %v", err)
	}
	if responder.State(respID) != noiseproto.StateEstablished {
		t.Fatal("responder must be established immediately after Accept")
	}
	if err := initiator.Complete(initID, response); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if initiator.State(initID) != noiseproto.StateEstablished {
		t.Fatal("initiator not established after Complete")
	}
	return initID, respID
}

func TestHandshakeAndTransport_BothDirections(t *testing.T) {
	client, _ := makeEngine(t)
	server, serverKP := makeEngine(t)

	initID, respID := handshake(t, client, server, serverKP.Public)

	ct, err := client.Encrypt(initID, []byte("request"))
	if err != nil {
		t.Fatalf("client Encrypt: %v", err)
	}
	pt, err := server.Decrypt(respID, ct)
	if err != nil {
		t.Fatalf("server Decrypt: %v", err)
	}
	if !bytes.Equal(pt, []byte("request")) {
		t.Fatalf("got %q", pt)
	}

	ct, err = server.Encrypt(respID, []byte("response"))
	if err != nil {
		t.Fatalf("server Encrypt: %v", err)
	}
	pt, err = client.Decrypt(initID, ct)
	if err != nil {
		t.Fatalf("client Decrypt: %v", err)
	}
	if !bytes.Equal(pt, []byte("response")) {
		t.Fatalf("got %q", pt)
	}
}

func TestEncryptBeforeEstablished(t *testing.T) {
	client, _ := makeEngine(t)
	_, serverKP := makeEngine(t)

	id, _, err := client.Initiate(serverKP.Public)
	if err != nil {
		t.Fatalf("Initiate: %v", err)
	}
	if _, err := client.Encrypt(id, []byte("x")); !errors.Is(err, domain.ErrInvalidSessionState) {
		t.Fatalf("want ErrInvalidSessionState before established, got %v", err)
	}
}

func TestUseAfterClose(t *testing.T) {
	client, _ := makeEngine(t)
	server, serverKP := makeEngine(t)
	initID, respID := handshake(t, client, server, serverKP.Public)

	client.Close(initID)
	if client.State(initID) != noiseproto.StateClosed {
		t.Fatal("session not closed")
	}
	if _, err := client.Encrypt(initID, []byte("x")); !errors.Is(err, domain.ErrInvalidSessionState) {
		t.Fatalf("want ErrInvalidSessionState after close, got %v", err)
	}
	if _, err := server.Decrypt(respID, []byte("garbage")); !errors.Is(err, domain.ErrDecryptionFailed) {
		t.Fatalf("want ErrDecryptionFailed for garbage ciphertext, got %v", err)
	}
}

func TestAccept_RejectsGarbage(t *testing.T) {
	server, _ := makeEngine(t)
	if _, _, err := server.Accept([]byte("not a handshake message")); !errors.Is(err, domain.ErrInvalidResponse) {
		t.Fatalf("want ErrInvalidResponse, got %v", err)
	}
}

func TestInitiate_WrongServerKeyFailsAccept(t *testing.T) {
	client, _ := makeEngine(t)
	server, _ := makeEngine(t)
	_, wrongKP := makeEngine(t)

	// Initiator encrypts its static key to the wrong responder key; the
	// responder must reject the first message.
	_, first, err := client.Initiate(wrongKP.Public)
	if err != nil {
		t.Fatalf("Initiate: %v", err)
	}
	if _, _, err := server.Accept(first); !errors.Is(err, domain.ErrInvalidResponse) {
		t.Fatalf("want ErrInvalidResponse for mismatched static key, got %v", err)
	}
}

func TestUnknownSession(t *testing.T) {
	client, _ := makeEngine(t)
	if err := client.Complete("nope", nil); !errors.Is(err, domain.ErrInvalidSessionState) {
		t.Fatalf("want ErrInvalidSessionState, got %v", err)
	}
	if client.State("nope") != noiseproto.StateUninitiated {
		t.Fatal("unknown session must report StateUninitiated")
	}
}

func TestRoles(t *testing.T) {
	client, _ := makeEngine(t)
	server, serverKP := makeEngine(t)
	initID, respID := handshake(t, client, server, serverKP.Public)
	if client.Role(initID) != noiseproto.RoleInitiator {
		t.Fatal("initiator role mismatch")
	}
	if server.Role(respID) != noiseproto.RoleResponder {
		t.Fatal("responder role mismatch")
	}
}
