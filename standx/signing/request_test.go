package signing

import (
	"crypto/ed25519"
	"encoding/base64"
	"testing"

	"github.com/btcsuite/btcd/btcutil/base58"
)

func TestRequestSignerSignAt(t *testing.T) {
	signer, err := NewRequestSigner()
	if err != nil {
		t.Fatalf("NewRequestSigner: %v", err)
	}

	payload := `{"symbol":"BTC-USD","side":"buy"}`
	requestID := "test-request-id"
	ts := int64(1700000000000)

	first := signer.signAt(payload, requestID, ts)
	second := signer.signAt(payload, requestID, ts)
	if first != second {
		t.Errorf("signAt is not deterministic for fixed inputs: %+v vs %+v", first, second)
	}

	if first.SignVersion != SignVersion {
		t.Errorf("sign version = %q, want %q", first.SignVersion, SignVersion)
	}
	if first.RequestID != requestID {
		t.Errorf("request id = %q, want %q", first.RequestID, requestID)
	}
	if first.Timestamp != "1700000000000" {
		t.Errorf("timestamp = %q, want 1700000000000", first.Timestamp)
	}

	// The signature must verify against the canonical message with the
	// public key encoded in the request id.
	sig, err := base64.StdEncoding.DecodeString(first.Signature)
	if err != nil {
		t.Fatalf("signature is not base64: %v", err)
	}
	pub := ed25519.PublicKey(base58.Decode(signer.RequestID()))
	message := SignVersion + "," + requestID + ",1700000000000," + payload
	if !ed25519.Verify(pub, []byte(message), sig) {
		t.Error("signature does not verify against canonical message")
	}
}

func TestRequestSignerInputsChangeSignature(t *testing.T) {
	signer, err := NewRequestSigner()
	if err != nil {
		t.Fatalf("NewRequestSigner: %v", err)
	}

	base := signer.signAt("payload", "id", 1000)

	tests := []struct {
		name string
		got  string
	}{
		{"payload", signer.signAt("payload2", "id", 1000).Signature},
		{"request id", signer.signAt("payload", "id2", 1000).Signature},
		{"timestamp", signer.signAt("payload", "id", 1001).Signature},
	}
	for _, tt := range tests {
		if tt.got == base.Signature {
			t.Errorf("changing %s did not change the signature", tt.name)
		}
	}
}

func TestRequestSignerUniqueIdentity(t *testing.T) {
	a, err := NewRequestSigner()
	if err != nil {
		t.Fatalf("NewRequestSigner: %v", err)
	}
	b, err := NewRequestSigner()
	if err != nil {
		t.Fatalf("NewRequestSigner: %v", err)
	}
	if a.RequestID() == b.RequestID() {
		t.Error("two signers share a request id")
	}
	if a.RequestID() == "" {
		t.Error("request id is empty")
	}
}

func TestRequestSignerSignFreshNonce(t *testing.T) {
	signer, err := NewRequestSigner()
	if err != nil {
		t.Fatalf("NewRequestSigner: %v", err)
	}
	first := signer.Sign("payload")
	second := signer.Sign("payload")
	if first.RequestID == second.RequestID {
		t.Error("consecutive Sign calls reused a request id")
	}
}
