package exchange

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strconv"

	"go.uber.org/zap"

	"paykit/internal/crypto"
	"paykit/internal/domain"
	noiseproto "paykit/internal/protocol/noise"
)

// SendDirect delivers req over a direct Noise channel to the recipient's
// published endpoint. The whole exchange runs under one transport
// deadline; any failure discards the session.
func (s *Service) SendDirect(ctx context.Context, req domain.PaymentRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	ep, err := s.resolver.ResolveNoiseEndpoint(ctx, req.ToPubkey)
	if err != nil {
		return err
	}
	serverPub, err := decodePubKey(ep.PubKey)
	if err != nil {
		return err
	}
	kp, err := s.custody.CurrentKeypair(0)
	if err != nil {
		return err
	}

	conn, err := s.dial(ctx, ep.Addr())
	if err != nil {
		return fmt.Errorf("%w: dial %s: %v", domain.ErrConnectionFailed, ep.Addr(), err)
	}
	defer conn.Close()
	s.applyDeadline(ctx, conn)

	engine := noiseproto.NewEngine(kp)
	sid, first, err := engine.Initiate(serverPub)
	if err != nil {
		return err
	}
	defer engine.Close(sid)

	if err := writeFrame(conn, first); err != nil {
		return classifyTransport(err)
	}
	response, err := readFrame(conn)
	if err != nil {
		return classifyTransport(err)
	}
	if err := engine.Complete(sid, response); err != nil {
		return err
	}

	msg := domain.NoisePaymentRequest{
		Type:        domain.MsgTypeRequestReceipt,
		ID:          req.ID,
		Payer:       string(req.ToPubkey.Normalize()),
		Payee:       string(req.FromPubkey.Normalize()),
		MethodID:    req.MethodID,
		Amount:      strconv.FormatUint(req.AmountSats, 10),
		Currency:    req.Currency,
		Description: req.Description,
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrEncoding, err)
	}
	ct, err := engine.Encrypt(sid, body)
	if err != nil {
		return err
	}
	if err := writeFrame(conn, ct); err != nil {
		return classifyTransport(err)
	}

	replyFrame, err := readFrame(conn)
	if err != nil {
		return classifyTransport(err)
	}
	pt, err := engine.Decrypt(sid, replyFrame)
	if err != nil {
		return err
	}
	var reply domain.NoisePaymentResponse
	if err := json.Unmarshal(pt, &reply); err != nil {
		return fmt.Errorf("%w: confirm message malformed: %v", domain.ErrInvalidResponse, err)
	}
	if reply.Type != domain.MsgTypeConfirmReceipt {
		return fmt.Errorf("%w: unexpected message type %q", domain.ErrInvalidResponse, reply.Type)
	}
	if !reply.Success {
		return fmt.Errorf("%w: peer rejected request: %s", domain.ErrInvalidResponse, reply.Error)
	}
	s.log.Info("request delivered over noise channel",
		zap.String("id", req.ID),
		zap.Int64("confirmed_at", reply.ConfirmedAt))
	return nil
}

// ServeOnce accepts one connection on ln, runs the responder side of a
// single handshake-and-exchange cycle and returns. The listener is closed
// when ctx expires, so callers bound the lifetime with a context timeout.
func (s *Service) ServeOnce(ctx context.Context, ln net.Listener) error {
	kp, err := s.custody.CurrentKeypair(0)
	if err != nil {
		return err
	}
	engine := noiseproto.NewEngine(kp)

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			ln.Close()
		case <-done:
		}
	}()

	conn, err := ln.Accept()
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("%w: listener window expired", domain.ErrTimeout)
		}
		return fmt.Errorf("%w: accept: %v", domain.ErrConnectionFailed, err)
	}
	defer conn.Close()
	s.applyDeadline(ctx, conn)

	first, err := readFrame(conn)
	if err != nil {
		return classifyTransport(err)
	}
	sid, response, err := engine.Accept(first)
	if err != nil {
		return err
	}
	defer engine.Close(sid)
	if err := writeFrame(conn, response); err != nil {
		return classifyTransport(err)
	}

	ct, err := readFrame(conn)
	if err != nil {
		return classifyTransport(err)
	}
	pt, err := engine.Decrypt(sid, ct)
	if err != nil {
		return err
	}

	reply := s.handleInbound(pt)
	body, err := json.Marshal(reply)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrEncoding, err)
	}
	out, err := engine.Encrypt(sid, body)
	if err != nil {
		return err
	}
	if err := writeFrame(conn, out); err != nil {
		return classifyTransport(err)
	}
	return nil
}

// handleInbound turns a decrypted request_receipt into a stored incoming
// request and the confirm_receipt reply. An accepted request is only
// committed once the confirmation goes back out.
func (s *Service) handleInbound(payload []byte) domain.NoisePaymentResponse {
	fail := func(reason string) domain.NoisePaymentResponse {
		return domain.NoisePaymentResponse{
			Type:        domain.MsgTypeConfirmReceipt,
			Success:     false,
			Error:       reason,
			ConfirmedAt: s.now().Unix(),
		}
	}

	var msg domain.NoisePaymentRequest
	if err := json.Unmarshal(payload, &msg); err != nil {
		return fail("malformed message")
	}
	if msg.Type != domain.MsgTypeRequestReceipt {
		return fail("unexpected message type " + msg.Type)
	}
	amount, err := strconv.ParseUint(msg.Amount, 10, 64)
	if err != nil || amount == 0 {
		return fail("invalid amount")
	}

	req := domain.PaymentRequest{
		ID:          msg.ID,
		FromPubkey:  domain.PeerIdentity(msg.Payee).Normalize(),
		ToPubkey:    domain.PeerIdentity(msg.Payer).Normalize(),
		AmountSats:  amount,
		Currency:    msg.Currency,
		MethodID:    msg.MethodID,
		Description: msg.Description,
		CreatedAt:   s.now().Unix(),
		Status:      domain.StatusPending,
		Direction:   domain.DirectionIncoming,
	}
	if err := req.Validate(); err != nil {
		return fail(err.Error())
	}
	if err := s.requests.SavePaymentRequest(req); err != nil {
		s.log.Error("failed to store inbound request", zap.String("id", req.ID), zap.Error(err))
		return fail("storage failure")
	}
	s.log.Info("received payment request over noise channel", zap.String("id", req.ID))
	return domain.NoisePaymentResponse{
		Type:        domain.MsgTypeConfirmReceipt,
		Success:     true,
		ConfirmedAt: s.now().Unix(),
	}
}

func (s *Service) applyDeadline(ctx context.Context, conn net.Conn) {
	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = s.now().Add(s.ioTimeout)
	}
	conn.SetDeadline(deadline)
}

// classifyTransport maps raw transport errors onto the exchange taxonomy.
func classifyTransport(err error) error {
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return fmt.Errorf("%w: %v", domain.ErrTimeout, err)
	}
	if errors.Is(err, domain.ErrInvalidResponse) || errors.Is(err, domain.ErrEncoding) {
		return err
	}
	return fmt.Errorf("%w: %v", domain.ErrConnectionFailed, err)
}

func decodePubKey(id domain.PeerIdentity) (domain.X25519Public, error) {
	raw, err := crypto.DecodeIdentity(id)
	if err != nil {
		return domain.X25519Public{}, err
	}
	return domain.X25519Public(raw), nil
}

func pubKeyIdentity(pub domain.X25519Public) domain.PeerIdentity {
	return crypto.EncodeIdentity([32]byte(pub))
}
