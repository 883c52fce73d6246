package addressing_test

import (
	"strings"
	"testing"

	"paykit/internal/domain"
	"paykit/internal/protocol/addressing"
)

const (
	idA = domain.PeerIdentity("ybndrfg8ejkmcpqxot1uwisza345h769ybndrfg8ejkmcpqxot1u")
	idB = domain.PeerIdentity("o8y4d9f3kxnqw1tjszme5u7cbhgi6rap2o8y4d9f3kxnqw1tjszm")
	idC = domain.PeerIdentity("qxot1uwisza345h769ybndrfg8ejkmcpqxot1uwisza345h769yb")
)

func TestContextID_Deterministic(t *testing.T) {
	first := addressing.ContextID(idA, idB)
	for i := 0; i < 10; i++ {
		if got := addressing.ContextID(idA, idB); got != first {
			t.Fatalf("ContextID not stable: %s != %s", got, first)
		}
	}
	if len(first) != 32 {
		t.Fatalf("ContextID length = %d, want 32", len(first))
	}
}

func TestContextID_DistinctPairs(t *testing.T) {
	ab := addressing.ContextID(idA, idB)
	ac := addressing.ContextID(idA, idC)
	ba := addressing.ContextID(idB, idA)
	if ab == ac {
		t.Fatal("different pairs produced the same context id")
	}
	if ab == ba {
		t.Fatal("ordered pair directions must be distinct scopes")
	}
}

func TestContextID_NormalizesBeforeHashing(t *testing.T) {
	prefixed := domain.PeerIdentity("pk:" + strings.ToUpper(string(idA)))
	if addressing.ContextID(prefixed, idB) != addressing.ContextID(idA, idB) {
		t.Fatal("equivalent identity representations must yield the same context id")
	}
}

func TestPaths(t *testing.T) {
	ctx := addressing.ContextID(idA, idB)
	if got, want := addressing.PaymentRequestPath(idA, idB, "req1"), "/pub/paykit/v0/requests/"+ctx+"/req1"; got != want {
		t.Fatalf("PaymentRequestPath = %s, want %s", got, want)
	}
	if got, want := addressing.SubscriptionProposalPath(idA, idB, "p1"), "/pub/paykit/v0/subscriptions/proposals/"+ctx+"/p1"; got != want {
		t.Fatalf("SubscriptionProposalPath = %s, want %s", got, want)
	}
	if got := addressing.NoiseEndpointPath(); got != "/pub/paykit/v0/noise" {
		t.Fatalf("NoiseEndpointPath = %s", got)
	}
}

func TestEnvelopeAAD_Canonical(t *testing.T) {
	aad := addressing.EnvelopeAAD(addressing.PurposePaymentRequest, domain.PeerIdentity("pk:OWNER"+string(idA[8:])), "/pub/paykit/v0/requests/ctx", "req1")
	if !strings.HasPrefix(aad, "paykit:v0:payment_request:owner") {
		t.Fatalf("AAD not canonical: %s", aad)
	}
	if !strings.HasSuffix(aad, ":/pub/paykit/v0/requests/ctx:req1") {
		t.Fatalf("AAD missing path/resource binding: %s", aad)
	}
}
