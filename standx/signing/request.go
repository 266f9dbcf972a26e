package signing

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strconv"
	"time"

	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/google/uuid"

	"github.com/perpbot/gostandx/standx/types"
)

// SignVersion is the request signing scheme version sent with every call.
const SignVersion = "v1"

// RequestSigner holds the detached ED25519 keypair used to sign API requests.
// It is separate from the wallet key: the keypair is generated fresh on every
// process start and never persisted, so no replay window survives a restart.
type RequestSigner struct {
	priv      ed25519.PrivateKey
	requestID string
}

// NewRequestSigner generates a new detached signing keypair.
func NewRequestSigner() (*RequestSigner, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate request signing keypair: %w", err)
	}
	return &RequestSigner{
		priv:      priv,
		requestID: base58.Encode(pub),
	}, nil
}

// RequestID returns the stable request identity derived from the public key.
// It is registered with the venue during the signin handshake.
func (s *RequestSigner) RequestID() string {
	return s.requestID
}

// Sign produces the signature header bundle for an outbound payload. The
// payload must be byte-identical to what is transmitted or the signature is
// meaningless. Each call uses a fresh random id and timestamp.
func (s *RequestSigner) Sign(payload string) types.SignatureHeaders {
	return s.signAt(payload, uuid.New().String(), time.Now().UnixMilli())
}

// signAt signs the canonical message "{version},{requestId},{timestamp},{payload}".
// For fixed inputs the signature is deterministic.
func (s *RequestSigner) signAt(payload, requestID string, timestampMs int64) types.SignatureHeaders {
	ts := strconv.FormatInt(timestampMs, 10)
	message := SignVersion + "," + requestID + "," + ts + "," + payload
	sig := ed25519.Sign(s.priv, []byte(message))

	return types.SignatureHeaders{
		SignVersion: SignVersion,
		RequestID:   requestID,
		Timestamp:   ts,
		Signature:   base64.StdEncoding.EncodeToString(sig),
	}
}
