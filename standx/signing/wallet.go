package signing

import (
	"crypto/ecdsa"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// WalletKey wraps the asset-custody private key used for the login handshake.
// It signs personal messages only; it is never used for request signing.
type WalletKey struct {
	key     *ecdsa.PrivateKey
	address common.Address
}

// NewWalletKey parses a hex-encoded secp256k1 private key.
func NewWalletKey(hexKey string) (*WalletKey, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(hexKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("parse wallet private key: %w", err)
	}
	return &WalletKey{
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey),
	}, nil
}

// Address returns the EIP-55 checksummed address derived from the key.
func (w *WalletKey) Address() string {
	return w.address.Hex()
}

// SignPersonal signs message under the prefixed personal-message scheme
// (EIP-191). The result is hex with a 0x prefix and v in {27, 28}, the form
// the login endpoint expects.
func (w *WalletKey) SignPersonal(message string) (string, error) {
	sig, err := crypto.Sign(accounts.TextHash([]byte(message)), w.key)
	if err != nil {
		return "", fmt.Errorf("sign personal message: %w", err)
	}
	// crypto.Sign returns the recovery id as 0/1.
	sig[64] += 27
	return "0x" + common.Bytes2Hex(sig), nil
}

// ChecksumAddress normalizes addr to its EIP-55 checksummed form. The venue
// rejects non-checksummed addresses.
func ChecksumAddress(addr string) (string, error) {
	if !common.IsHexAddress(addr) {
		return "", fmt.Errorf("invalid wallet address: %q", addr)
	}
	return common.HexToAddress(addr).Hex(), nil
}
